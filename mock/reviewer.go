package mock

import (
	"context"

	"github.com/fwojciec/differ"
)

// Compile-time interface verification.
var (
	_ differ.ReviewerProvider    = (*ReviewerProvider)(nil)
	_ differ.PullRequestReviewer = (*Reviewer)(nil)
)

// ReviewerProvider is a mock implementation of differ.ReviewerProvider.
type ReviewerProvider struct {
	OriginFn      func(repoRoot string) (differ.RemoteRepo, error)
	ReviewerFn    func(repoRoot, token string) (differ.PullRequestReviewer, error)
	CurrentUserFn func(ctx context.Context, token string) (*differ.ReviewUser, error)
}

func (p *ReviewerProvider) Origin(repoRoot string) (differ.RemoteRepo, error) {
	return p.OriginFn(repoRoot)
}

func (p *ReviewerProvider) Reviewer(repoRoot, token string) (differ.PullRequestReviewer, error) {
	return p.ReviewerFn(repoRoot, token)
}

func (p *ReviewerProvider) CurrentUser(ctx context.Context, token string) (*differ.ReviewUser, error) {
	return p.CurrentUserFn(ctx, token)
}

// Reviewer is a mock implementation of differ.PullRequestReviewer.
type Reviewer struct {
	PullRequestFn    func(ctx context.Context, number int) (*differ.PullRequestMeta, error)
	FilesFn          func(ctx context.Context, number int) ([]differ.FileReviewState, error)
	CommentsFn       func(ctx context.Context, number int) ([]differ.ReviewComment, error)
	CreateCommentFn  func(ctx context.Context, number int, c differ.NewComment) (*differ.ReviewComment, error)
	ReplyToCommentFn func(ctx context.Context, number int, commentID int64, body string) (int64, error)
	UpdateCommentFn  func(ctx context.Context, commentID int64, body string) (int64, error)
	DeleteCommentFn  func(ctx context.Context, commentID int64) error
	StartReviewFn    func(ctx context.Context, number int) (int64, error)
	PendingReviewFn  func(ctx context.Context, number int) (int64, bool, error)
	SubmitReviewFn   func(ctx context.Context, number int, reviewID int64, event, body string) (int64, error)
	ReviewCommentsFn func(ctx context.Context, number int, reviewID int64) ([]differ.ReviewComment, error)
	SetFileViewedFn  func(ctx context.Context, number int, path string, viewed bool) error
	CurrentUserFn    func(ctx context.Context) (*differ.ReviewUser, error)
}

func (r *Reviewer) PullRequest(ctx context.Context, number int) (*differ.PullRequestMeta, error) {
	return r.PullRequestFn(ctx, number)
}

func (r *Reviewer) Files(ctx context.Context, number int) ([]differ.FileReviewState, error) {
	return r.FilesFn(ctx, number)
}

func (r *Reviewer) Comments(ctx context.Context, number int) ([]differ.ReviewComment, error) {
	return r.CommentsFn(ctx, number)
}

func (r *Reviewer) CreateComment(ctx context.Context, number int, c differ.NewComment) (*differ.ReviewComment, error) {
	return r.CreateCommentFn(ctx, number, c)
}

func (r *Reviewer) ReplyToComment(ctx context.Context, number int, commentID int64, body string) (int64, error) {
	return r.ReplyToCommentFn(ctx, number, commentID, body)
}

func (r *Reviewer) UpdateComment(ctx context.Context, commentID int64, body string) (int64, error) {
	return r.UpdateCommentFn(ctx, commentID, body)
}

func (r *Reviewer) DeleteComment(ctx context.Context, commentID int64) error {
	return r.DeleteCommentFn(ctx, commentID)
}

func (r *Reviewer) StartReview(ctx context.Context, number int) (int64, error) {
	return r.StartReviewFn(ctx, number)
}

func (r *Reviewer) PendingReview(ctx context.Context, number int) (int64, bool, error) {
	return r.PendingReviewFn(ctx, number)
}

func (r *Reviewer) SubmitReview(ctx context.Context, number int, reviewID int64, event, body string) (int64, error) {
	return r.SubmitReviewFn(ctx, number, reviewID, event, body)
}

func (r *Reviewer) ReviewComments(ctx context.Context, number int, reviewID int64) ([]differ.ReviewComment, error) {
	return r.ReviewCommentsFn(ctx, number, reviewID)
}

func (r *Reviewer) SetFileViewed(ctx context.Context, number int, path string, viewed bool) error {
	return r.SetFileViewedFn(ctx, number, path, viewed)
}

func (r *Reviewer) CurrentUser(ctx context.Context) (*differ.ReviewUser, error) {
	return r.CurrentUserFn(ctx)
}
