package github

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/fwojciec/differ"
)

// Compile-time interface verification.
var _ differ.PullRequestReviewer = (*Reviewer)(nil)

// Reviewer performs review actions on one repository's pull requests.
// Results are never cached.
type Reviewer struct {
	repo   differ.RemoteRepo
	client *client
}

type apiUser struct {
	Login     string `json:"login"`
	AvatarURL string `json:"avatar_url"`
}

type apiPullRequest struct {
	Number  int    `json:"number"`
	Title   string `json:"title"`
	HTMLURL string `json:"html_url"`
	Head    struct {
		SHA string `json:"sha"`
		Ref string `json:"ref"`
	} `json:"head"`
	Base struct {
		Ref string `json:"ref"`
	} `json:"base"`
}

type apiFile struct {
	Filename string `json:"filename"`
	Viewed   *bool  `json:"viewed"`
}

type apiComment struct {
	ID          int64    `json:"id"`
	Body        string   `json:"body"`
	Path        string   `json:"path"`
	Line        *int     `json:"line"`
	Side        string   `json:"side"`
	StartLine   *int     `json:"start_line"`
	StartSide   *string  `json:"start_side"`
	InReplyToID *int64   `json:"in_reply_to_id"`
	CreatedAt   string   `json:"created_at"`
	User        *apiUser `json:"user"`
}

type apiReview struct {
	ID    int64    `json:"id"`
	State string   `json:"state"`
	User  *apiUser `json:"user"`
}

type idResponse struct {
	ID int64 `json:"id"`
}

// newComment is the request body of a review comment. Position and the
// line fields are mutually exclusive.
type newComment struct {
	Body         string      `json:"body"`
	CommitID     string      `json:"commit_id,omitempty"`
	Path         string      `json:"path"`
	Position     int         `json:"position,omitempty"`
	Line         int         `json:"line,omitempty"`
	Side         differ.Side `json:"side,omitempty"`
	StartLine    int         `json:"start_line,omitempty"`
	StartSide    differ.Side `json:"start_side,omitempty"`
	PullReviewID int64       `json:"pull_request_review_id,omitempty"`
}

func (c apiComment) toDomain() differ.ReviewComment {
	out := differ.ReviewComment{
		ID:          c.ID,
		Body:        c.Body,
		Path:        c.Path,
		Line:        c.Line,
		Side:        differ.Side(c.Side),
		StartLine:   c.StartLine,
		InReplyToID: c.InReplyToID,
		CreatedAt:   c.CreatedAt,
		User:        differ.ReviewUser{Login: "unknown"},
	}
	if out.Side == "" {
		out.Side = differ.SideRight
	}
	if c.StartSide != nil {
		side := differ.Side(*c.StartSide)
		out.StartSide = &side
	}
	if c.User != nil {
		if c.User.Login != "" {
			out.User.Login = c.User.Login
		}
		out.User.AvatarURL = c.User.AvatarURL
	}
	return out
}

func toComments(in []apiComment) []differ.ReviewComment {
	out := make([]differ.ReviewComment, len(in))
	for i, c := range in {
		out[i] = c.toDomain()
	}
	return out
}

// PullRequest returns the metadata of a pull request.
func (r *Reviewer) PullRequest(ctx context.Context, number int) (*differ.PullRequestMeta, error) {
	var pr apiPullRequest
	if err := r.client.getJSON(ctx, r.pullPath(number), &pr); err != nil {
		return nil, err
	}
	return &differ.PullRequestMeta{
		Number:  pr.Number,
		Title:   pr.Title,
		URL:     pr.HTMLURL,
		HeadSHA: pr.Head.SHA,
		BaseRef: pr.Base.Ref,
		HeadRef: pr.Head.Ref,
	}, nil
}

// Files returns every changed file of a pull request with its viewed state.
func (r *Reviewer) Files(ctx context.Context, number int) ([]differ.FileReviewState, error) {
	files, err := getAllPages[apiFile](ctx, r.client, r.pullPath(number)+"/files?"+pageSizeQuery)
	if err != nil {
		return nil, err
	}
	out := make([]differ.FileReviewState, len(files))
	for i, f := range files {
		out[i] = differ.FileReviewState{Path: f.Filename, Viewed: f.Viewed}
	}
	return out, nil
}

// Comments returns every review comment on a pull request.
func (r *Reviewer) Comments(ctx context.Context, number int) ([]differ.ReviewComment, error) {
	comments, err := getAllPages[apiComment](ctx, r.client, r.pullPath(number)+"/comments?"+pageSizeQuery)
	if err != nil {
		return nil, err
	}
	return toComments(comments), nil
}

// CreateComment creates a review comment on the pull request's head commit.
// A positive Position takes precedence over line addressing.
func (r *Reviewer) CreateComment(ctx context.Context, number int, c differ.NewComment) (*differ.ReviewComment, error) {
	meta, err := r.PullRequest(ctx, number)
	if err != nil {
		return nil, err
	}
	body := newComment{
		Body:         c.Body,
		CommitID:     meta.HeadSHA,
		Path:         c.Path,
		PullReviewID: c.ReviewID,
	}
	if c.Position > 0 {
		body.Position = c.Position
	} else {
		body.Line = c.Line
		body.Side = c.Side
		if body.Side != differ.SideLeft {
			body.Side = differ.SideRight
		}
		body.StartLine = c.StartLine
		body.StartSide = c.StartSide
	}

	var created apiComment
	if err := r.client.sendJSON(ctx, http.MethodPost, r.pullPath(number)+"/comments", body, &created); err != nil {
		return nil, err
	}
	out := created.toDomain()
	return &out, nil
}

// ReplyToComment replies in the thread of commentID and returns the new
// comment's id.
func (r *Reviewer) ReplyToComment(ctx context.Context, number int, commentID int64, body string) (int64, error) {
	var resp idResponse
	path := r.pullPath(number) + "/comments/" + strconv.FormatInt(commentID, 10) + "/replies"
	if err := r.client.sendJSON(ctx, http.MethodPost, path, map[string]string{"body": body}, &resp); err != nil {
		return 0, err
	}
	return resp.ID, nil
}

// UpdateComment replaces the body of a comment.
func (r *Reviewer) UpdateComment(ctx context.Context, commentID int64, body string) (int64, error) {
	var resp idResponse
	if err := r.client.sendJSON(ctx, http.MethodPatch, r.commentPath(commentID), map[string]string{"body": body}, &resp); err != nil {
		return 0, err
	}
	return resp.ID, nil
}

// DeleteComment deletes a comment.
func (r *Reviewer) DeleteComment(ctx context.Context, commentID int64) error {
	return r.client.sendJSON(ctx, http.MethodDelete, r.commentPath(commentID), nil, nil)
}

// StartReview creates a pending review. GitHub allows one pending review
// per user, so a rejection naming an existing pending review is resolved
// to that review.
func (r *Reviewer) StartReview(ctx context.Context, number int) (int64, error) {
	var resp idResponse
	err := r.client.sendJSON(ctx, http.MethodPost, r.pullPath(number)+"/reviews", struct{}{}, &resp)
	if err == nil {
		return resp.ID, nil
	}
	var serr *differ.SourceError
	if !errors.As(err, &serr) || serr.Status != http.StatusUnprocessableEntity ||
		!strings.Contains(strings.ToLower(serr.Message), "pending review") {
		return 0, err
	}
	id, ok, perr := r.PendingReview(ctx, number)
	if perr != nil || !ok {
		return 0, err
	}
	return id, differ.ErrPendingReview
}

// PendingReview returns the current user's pending review on a pull request.
func (r *Reviewer) PendingReview(ctx context.Context, number int) (int64, bool, error) {
	user, err := r.CurrentUser(ctx)
	if err != nil {
		return 0, false, err
	}
	reviews, err := getAllPages[apiReview](ctx, r.client, r.pullPath(number)+"/reviews?"+pageSizeQuery)
	if err != nil {
		return 0, false, err
	}
	for _, rv := range reviews {
		if rv.State == "PENDING" && rv.User != nil && rv.User.Login == user.Login {
			return rv.ID, true, nil
		}
	}
	return 0, false, nil
}

// SubmitReview submits a pending review with the given event and body.
func (r *Reviewer) SubmitReview(ctx context.Context, number int, reviewID int64, event, body string) (int64, error) {
	if event == "" {
		event = differ.EventComment
	}
	var resp idResponse
	path := r.reviewPath(number, reviewID) + "/events"
	payload := map[string]string{"body": body, "event": event}
	if err := r.client.sendJSON(ctx, http.MethodPost, path, payload, &resp); err != nil {
		return 0, err
	}
	return resp.ID, nil
}

// ReviewComments returns the comments attached to one review.
func (r *Reviewer) ReviewComments(ctx context.Context, number int, reviewID int64) ([]differ.ReviewComment, error) {
	comments, err := getAllPages[apiComment](ctx, r.client, r.reviewPath(number, reviewID)+"/comments?"+pageSizeQuery)
	if err != nil {
		return nil, err
	}
	return toComments(comments), nil
}

// SetFileViewed marks or unmarks a file as viewed.
func (r *Reviewer) SetFileViewed(ctx context.Context, number int, path string, viewed bool) error {
	method := http.MethodPut
	if !viewed {
		method = http.MethodDelete
	}
	return r.client.sendJSON(ctx, method, r.pullPath(number)+"/files/"+url.PathEscape(path)+"/viewed", nil, nil)
}

// CurrentUser returns the user the token belongs to.
func (r *Reviewer) CurrentUser(ctx context.Context) (*differ.ReviewUser, error) {
	return currentUser(ctx, r.client)
}

func currentUser(ctx context.Context, c *client) (*differ.ReviewUser, error) {
	var u apiUser
	if err := c.getJSON(ctx, "/user", &u); err != nil {
		return nil, err
	}
	return &differ.ReviewUser{Login: u.Login, AvatarURL: u.AvatarURL}, nil
}

func (r *Reviewer) commentPath(commentID int64) string {
	return repoPath(r.repo) + "/pulls/comments/" + strconv.FormatInt(commentID, 10)
}

func (r *Reviewer) reviewPath(number int, reviewID int64) string {
	return r.pullPath(number) + "/reviews/" + strconv.FormatInt(reviewID, 10)
}
