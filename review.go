package differ

import "context"

// ReviewUser identifies the author of a review comment.
type ReviewUser struct {
	Login     string `json:"login"`
	AvatarURL string `json:"avatarUrl"`
}

// ReviewComment is a pull request review comment.
type ReviewComment struct {
	ID          int64      `json:"id"`
	Body        string     `json:"body"`
	Path        string     `json:"path"`
	Line        *int       `json:"line"`
	Side        Side       `json:"side"`
	StartLine   *int       `json:"startLine"`
	StartSide   *Side      `json:"startSide"`
	InReplyToID *int64     `json:"inReplyToId"`
	CreatedAt   string     `json:"createdAt"`
	User        ReviewUser `json:"user"`
}

// NewComment describes a comment to create. Either Line or Position
// (the legacy diff position) must be set.
type NewComment struct {
	ReviewID  int64  `json:"reviewId,omitempty"`
	Path      string `json:"path"`
	Body      string `json:"body"`
	Line      int    `json:"line,omitempty"`
	Side      Side   `json:"side,omitempty"`
	StartLine int    `json:"startLine,omitempty"`
	StartSide Side   `json:"startSide,omitempty"`
	Position  int    `json:"position,omitempty"`
}

// FileReviewState is the review state of one file in a pull request.
type FileReviewState struct {
	Path   string `json:"path"`
	Viewed *bool  `json:"viewed,omitempty"`
}

// Review submission events.
const (
	EventComment        = "COMMENT"
	EventApprove        = "APPROVE"
	EventRequestChanges = "REQUEST_CHANGES"
)

// PullRequestReviewer performs pass-through review actions on one
// repository's pull requests. Results are never cached.
type PullRequestReviewer interface {
	PullRequest(ctx context.Context, number int) (*PullRequestMeta, error)
	Files(ctx context.Context, number int) ([]FileReviewState, error)
	Comments(ctx context.Context, number int) ([]ReviewComment, error)
	CreateComment(ctx context.Context, number int, c NewComment) (*ReviewComment, error)
	ReplyToComment(ctx context.Context, number int, commentID int64, body string) (int64, error)
	UpdateComment(ctx context.Context, commentID int64, body string) (int64, error)
	DeleteComment(ctx context.Context, commentID int64) error
	// StartReview creates a pending review. When one already exists it
	// returns that review's id together with ErrPendingReview.
	StartReview(ctx context.Context, number int) (int64, error)
	// PendingReview returns the current user's pending review, if any.
	PendingReview(ctx context.Context, number int) (int64, bool, error)
	SubmitReview(ctx context.Context, number int, reviewID int64, event, body string) (int64, error)
	ReviewComments(ctx context.Context, number int, reviewID int64) ([]ReviewComment, error)
	SetFileViewed(ctx context.Context, number int, path string, viewed bool) error
	CurrentUser(ctx context.Context) (*ReviewUser, error)
}

// RemoteRepo identifies a repository on the review host.
type RemoteRepo struct {
	Owner string `json:"owner"`
	Name  string `json:"repo"`
}

// ReviewerProvider opens reviewers for repositories.
type ReviewerProvider interface {
	// Origin returns the remote repository behind the origin remote, or
	// ErrMissingOrigin.
	Origin(repoRoot string) (RemoteRepo, error)
	// Reviewer fails with ErrMissingOrigin or ErrMissingToken, checked in
	// that order, when preconditions are unmet.
	Reviewer(repoRoot, token string) (PullRequestReviewer, error)
	// CurrentUser returns the user the token belongs to.
	CurrentUser(ctx context.Context, token string) (*ReviewUser, error)
}
