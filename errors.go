package differ

import "errors"

// Precondition and lookup errors.
var (
	ErrMissingOrigin = errors.New("unable to resolve GitHub origin")
	ErrMissingToken  = errors.New("missing GitHub token")
	ErrPendingReview = errors.New("pending review already exists")
	ErrNotFound      = errors.New("not found")
)

// SourceError is returned when a diff source or remote host fails.
// Status carries the HTTP status reported by the host, if any.
type SourceError struct {
	Status  int
	Message string
}

// Error implements the error interface.
func (e *SourceError) Error() string {
	return e.Message
}
