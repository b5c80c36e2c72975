package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/fwojciec/differ"
)

func (s *Server) registerGitHubRoutes() {
	s.router.HandleFunc("GET /api/github/repo", s.handleRepo)
	s.router.HandleFunc("GET /api/github/user", s.handleUser)
	s.router.HandleFunc("GET /api/github/pr", s.handlePullRequest)
	s.router.HandleFunc("GET /api/github/pr-files", s.handleFiles)
	s.router.HandleFunc("PUT /api/github/pr-files/viewed", s.handleSetViewed(true))
	s.router.HandleFunc("DELETE /api/github/pr-files/viewed", s.handleSetViewed(false))
	s.router.HandleFunc("GET /api/github/pr-comments", s.handleComments)
	s.router.HandleFunc("POST /api/github/pr-comments", s.handleCreateComment)
	s.router.HandleFunc("POST /api/github/pr-comments/reply", s.handleReply)
	s.router.HandleFunc("PATCH /api/github/pr-comments/update", s.handleUpdateComment)
	s.router.HandleFunc("DELETE /api/github/pr-comments/delete", s.handleDeleteComment)
	s.router.HandleFunc("POST /api/github/pr-reviews/start", s.handleStartReview)
	s.router.HandleFunc("GET /api/github/pr-reviews/pending", s.handlePendingReview)
	s.router.HandleFunc("POST /api/github/pr-reviews/submit", s.handleSubmitReview)
	s.router.HandleFunc("GET /api/github/pr-reviews/comments", s.handleReviewComments)
}

var (
	errMissingNumber = badRequest("Missing PR number")
	errMissingReview = badRequest("Missing review id")
	errInvalidBody   = badRequest("Invalid request body")
)

type idResponse struct {
	ID int64 `json:"id"`
}

// reviewer opens the reviewer for a request. It writes the error response
// and returns nil when the origin or token is missing.
func (s *Server) reviewer(w http.ResponseWriter, r *http.Request) differ.PullRequestReviewer {
	rv, err := s.Reviewers.Reviewer(s.RepoRoot, s.token(r))
	if err != nil {
		s.Error(w, r, err)
		return nil
	}
	return rv
}

func positive(raw string) (int64, bool) {
	n, err := strconv.ParseInt(raw, 10, 64)
	return n, err == nil && n > 0
}

func queryNumber(r *http.Request) (int, error) {
	n, ok := positive(r.URL.Query().Get("number"))
	if !ok {
		return 0, errMissingNumber
	}
	return int(n), nil
}

func decode(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return errInvalidBody
	}
	return nil
}

func (s *Server) handleRepo(w http.ResponseWriter, r *http.Request) {
	repo, err := s.Reviewers.Origin(s.RepoRoot)
	if err != nil {
		s.Error(w, r, err)
		return
	}
	writeJSON(w, repo)
}

func (s *Server) handleUser(w http.ResponseWriter, r *http.Request) {
	user, err := s.Reviewers.CurrentUser(r.Context(), s.token(r))
	if err != nil {
		s.Error(w, r, err)
		return
	}
	writeJSON(w, struct {
		Login string `json:"login"`
	}{user.Login})
}

func (s *Server) handlePullRequest(w http.ResponseWriter, r *http.Request) {
	rv := s.reviewer(w, r)
	if rv == nil {
		return
	}
	number, err := queryNumber(r)
	if err != nil {
		s.Error(w, r, err)
		return
	}
	meta, err := rv.PullRequest(r.Context(), number)
	if err != nil {
		s.Error(w, r, err)
		return
	}
	writeJSON(w, meta)
}

func (s *Server) handleFiles(w http.ResponseWriter, r *http.Request) {
	rv := s.reviewer(w, r)
	if rv == nil {
		return
	}
	number, err := queryNumber(r)
	if err != nil {
		s.Error(w, r, err)
		return
	}
	files, err := rv.Files(r.Context(), number)
	if err != nil {
		s.Error(w, r, err)
		return
	}
	writeJSON(w, files)
}

func (s *Server) handleSetViewed(viewed bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rv := s.reviewer(w, r)
		if rv == nil {
			return
		}
		number, err := queryNumber(r)
		if err != nil {
			s.Error(w, r, err)
			return
		}
		path := r.URL.Query().Get("path")
		if path == "" {
			s.Error(w, r, badRequest("Missing file path"))
			return
		}
		if err := rv.SetFileViewed(r.Context(), number, path, viewed); err != nil {
			s.Error(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func (s *Server) handleComments(w http.ResponseWriter, r *http.Request) {
	rv := s.reviewer(w, r)
	if rv == nil {
		return
	}
	number, err := queryNumber(r)
	if err != nil {
		s.Error(w, r, err)
		return
	}
	comments, err := rv.Comments(r.Context(), number)
	if err != nil {
		s.Error(w, r, err)
		return
	}
	writeJSON(w, comments)
}

type createCommentRequest struct {
	Number    int         `json:"number"`
	ReviewID  int64       `json:"reviewId"`
	Path      string      `json:"path"`
	Body      string      `json:"body"`
	Line      int         `json:"line"`
	Side      differ.Side `json:"side"`
	StartLine int         `json:"startLine"`
	StartSide differ.Side `json:"startSide"`
	Position  int         `json:"position"`
}

func (s *Server) handleCreateComment(w http.ResponseWriter, r *http.Request) {
	rv := s.reviewer(w, r)
	if rv == nil {
		return
	}
	var req createCommentRequest
	if err := decode(r, &req); err != nil {
		s.Error(w, r, err)
		return
	}
	if req.Number <= 0 {
		s.Error(w, r, errMissingNumber)
		return
	}
	if req.Path == "" || req.Body == "" || (req.Position <= 0 && req.Line <= 0) {
		s.Error(w, r, badRequest("Missing comment details"))
		return
	}
	if req.ReviewID < 0 {
		s.Error(w, r, badRequest("Invalid review id"))
		return
	}
	if req.Side != differ.SideLeft {
		req.Side = differ.SideRight
	}
	if req.Position <= 0 {
		if ok := s.checkCommentLines(w, r, req); !ok {
			return
		}
	}

	c, err := rv.CreateComment(r.Context(), req.Number, differ.NewComment{
		ReviewID:  req.ReviewID,
		Path:      req.Path,
		Body:      req.Body,
		Line:      req.Line,
		Side:      req.Side,
		StartLine: req.StartLine,
		StartSide: req.StartSide,
		Position:  req.Position,
	})
	if err != nil {
		s.Error(w, r, err)
		return
	}
	writeJSON(w, c)
}

// checkCommentLines rejects line comments that fall outside the pull
// request's diff of the file, which GitHub would refuse.
func (s *Server) checkCommentLines(w http.ResponseWriter, r *http.Request, req createCommentRequest) bool {
	file, err := s.DiffService.GetFileDiff(r.Context(), differ.FileDiffRequest{
		RepoRoot:   s.RepoRoot,
		Path:       req.Path,
		Comparison: differ.PullRequest{Number: req.Number},
		AuthToken:  s.token(r),
	})
	if errors.Is(err, differ.ErrNotFound) {
		http.Error(w, "File is not part of the pull request", http.StatusUnprocessableEntity)
		return false
	}
	if err != nil {
		s.Error(w, r, err)
		return false
	}
	if !file.ContainsLine(req.Side, req.Line) {
		http.Error(w, "Line is not part of the diff", http.StatusUnprocessableEntity)
		return false
	}
	if req.StartLine > 0 {
		side := req.StartSide
		if side == "" {
			side = req.Side
		}
		if !file.ContainsLine(side, req.StartLine) {
			http.Error(w, "Start line is not part of the diff", http.StatusUnprocessableEntity)
			return false
		}
	}
	return true
}

func (s *Server) handleReply(w http.ResponseWriter, r *http.Request) {
	rv := s.reviewer(w, r)
	if rv == nil {
		return
	}
	var req struct {
		Number    int    `json:"number"`
		CommentID int64  `json:"commentId"`
		Body      string `json:"body"`
	}
	if err := decode(r, &req); err != nil {
		s.Error(w, r, err)
		return
	}
	if req.Number <= 0 {
		s.Error(w, r, errMissingNumber)
		return
	}
	if req.CommentID <= 0 || req.Body == "" {
		s.Error(w, r, badRequest("Missing reply details"))
		return
	}
	id, err := rv.ReplyToComment(r.Context(), req.Number, req.CommentID, req.Body)
	if err != nil {
		s.Error(w, r, err)
		return
	}
	writeJSON(w, idResponse{id})
}

func (s *Server) handleUpdateComment(w http.ResponseWriter, r *http.Request) {
	rv := s.reviewer(w, r)
	if rv == nil {
		return
	}
	var req struct {
		CommentID int64  `json:"commentId"`
		Body      string `json:"body"`
	}
	if err := decode(r, &req); err != nil {
		s.Error(w, r, err)
		return
	}
	if req.CommentID <= 0 || req.Body == "" {
		s.Error(w, r, badRequest("Missing comment details"))
		return
	}
	id, err := rv.UpdateComment(r.Context(), req.CommentID, req.Body)
	if err != nil {
		s.Error(w, r, err)
		return
	}
	writeJSON(w, idResponse{id})
}

func (s *Server) handleDeleteComment(w http.ResponseWriter, r *http.Request) {
	rv := s.reviewer(w, r)
	if rv == nil {
		return
	}
	var req struct {
		CommentID int64 `json:"commentId"`
	}
	if err := decode(r, &req); err != nil {
		s.Error(w, r, err)
		return
	}
	if req.CommentID <= 0 {
		s.Error(w, r, badRequest("Missing comment id"))
		return
	}
	if err := rv.DeleteComment(r.Context(), req.CommentID); err != nil {
		s.Error(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleStartReview(w http.ResponseWriter, r *http.Request) {
	rv := s.reviewer(w, r)
	if rv == nil {
		return
	}
	var req struct {
		Number int `json:"number"`
	}
	if err := decode(r, &req); err != nil {
		s.Error(w, r, err)
		return
	}
	if req.Number <= 0 {
		s.Error(w, r, errMissingNumber)
		return
	}
	id, err := rv.StartReview(r.Context(), req.Number)
	if err != nil && !errors.Is(err, differ.ErrPendingReview) {
		s.Error(w, r, err)
		return
	}
	writeJSON(w, struct {
		ID       int64 `json:"id"`
		Existing bool  `json:"existing,omitempty"`
	}{id, err != nil})
}

func (s *Server) handlePendingReview(w http.ResponseWriter, r *http.Request) {
	rv := s.reviewer(w, r)
	if rv == nil {
		return
	}
	number, err := queryNumber(r)
	if err != nil {
		s.Error(w, r, err)
		return
	}
	id, ok, err := rv.PendingReview(r.Context(), number)
	if err != nil {
		s.Error(w, r, err)
		return
	}
	var resp struct {
		ID *int64 `json:"id"`
	}
	if ok {
		resp.ID = &id
	}
	writeJSON(w, resp)
}

func (s *Server) handleSubmitReview(w http.ResponseWriter, r *http.Request) {
	rv := s.reviewer(w, r)
	if rv == nil {
		return
	}
	var req struct {
		Number   int    `json:"number"`
		ReviewID int64  `json:"reviewId"`
		Event    string `json:"event"`
		Body     string `json:"body"`
	}
	if err := decode(r, &req); err != nil {
		s.Error(w, r, err)
		return
	}
	if req.Number <= 0 {
		s.Error(w, r, errMissingNumber)
		return
	}
	if req.ReviewID <= 0 {
		s.Error(w, r, errMissingReview)
		return
	}
	if req.Event == "" {
		req.Event = differ.EventComment
	}
	id, err := rv.SubmitReview(r.Context(), req.Number, req.ReviewID, req.Event, req.Body)
	if err != nil {
		s.Error(w, r, err)
		return
	}
	writeJSON(w, idResponse{id})
}

func (s *Server) handleReviewComments(w http.ResponseWriter, r *http.Request) {
	rv := s.reviewer(w, r)
	if rv == nil {
		return
	}
	number, err := queryNumber(r)
	if err != nil {
		s.Error(w, r, err)
		return
	}
	reviewID, ok := positive(r.URL.Query().Get("reviewId"))
	if !ok {
		s.Error(w, r, errMissingReview)
		return
	}
	comments, err := rv.ReviewComments(r.Context(), number, reviewID)
	if err != nil {
		s.Error(w, r, err)
		return
	}
	writeJSON(w, comments)
}
