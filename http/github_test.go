package http_test

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/fwojciec/differ"
	differhttp "github.com/fwojciec/differ/http"
	"github.com/fwojciec/differ/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// prFile has one hunk covering old lines 10 to 11 and new lines 10 to 12.
var prFile = &differ.DiffFile{
	Path: "a.go",
	Hunks: []differ.DiffHunk{{
		Header: "@@ -10,2 +10,3 @@",
		Lines: []differ.DiffLine{
			{Kind: differ.LineContext, Text: "a"},
			{Kind: differ.LineDelete, Text: "b"},
			{Kind: differ.LineAdd, Text: "c"},
			{Kind: differ.LineAdd, Text: "d"},
		},
	}},
}

// reviewServer returns a server whose provider hands out rv for token "tok".
func reviewServer(rv *mock.Reviewer) *differhttp.Server {
	s := newServer(&mock.DiffService{
		GetFileDiffFn: func(_ context.Context, req differ.FileDiffRequest) (*differ.DiffFile, error) {
			if req.Path != prFile.Path {
				return nil, differ.ErrNotFound
			}
			return prFile, nil
		},
	})
	s.Reviewers = &mock.ReviewerProvider{
		OriginFn: func(string) (differ.RemoteRepo, error) {
			return differ.RemoteRepo{Owner: "octo", Name: "hello"}, nil
		},
		ReviewerFn: func(_, token string) (differ.PullRequestReviewer, error) {
			if token == "" {
				return nil, differ.ErrMissingToken
			}
			return rv, nil
		},
		CurrentUserFn: func(_ context.Context, token string) (*differ.ReviewUser, error) {
			if token == "" {
				return nil, differ.ErrMissingToken
			}
			return &differ.ReviewUser{Login: "octocat"}, nil
		},
	}
	return s
}

func authed(s *differhttp.Server, method, target, body string) (int, string) {
	rec := serve(s, method, target, body, differhttp.TokenHeader, "tok")
	return rec.Code, strings.TrimSpace(rec.Body.String())
}

func TestServer_GitHubPreconditions(t *testing.T) {
	t.Parallel()

	t.Run("reports the origin repository", func(t *testing.T) {
		t.Parallel()
		s := reviewServer(&mock.Reviewer{})

		code, body := authed(s, http.MethodGet, "/api/github/repo", "")

		assert.Equal(t, http.StatusOK, code)
		assert.JSONEq(t, `{"owner":"octo","repo":"hello"}`, body)
	})

	t.Run("rejects a missing origin", func(t *testing.T) {
		t.Parallel()
		s := reviewServer(&mock.Reviewer{})
		s.Reviewers.(*mock.ReviewerProvider).OriginFn = func(string) (differ.RemoteRepo, error) {
			return differ.RemoteRepo{}, differ.ErrMissingOrigin
		}

		code, body := authed(s, http.MethodGet, "/api/github/repo", "")

		assert.Equal(t, http.StatusBadRequest, code)
		assert.Equal(t, "Missing GitHub origin", body)
	})

	t.Run("rejects a missing token", func(t *testing.T) {
		t.Parallel()
		s := reviewServer(&mock.Reviewer{})

		rec := serve(s, http.MethodGet, "/api/github/pr?number=1", "")

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("rejects a missing pull request number", func(t *testing.T) {
		t.Parallel()
		s := reviewServer(&mock.Reviewer{})

		code, body := authed(s, http.MethodGet, "/api/github/pr?number=0", "")

		assert.Equal(t, http.StatusBadRequest, code)
		assert.Equal(t, "Missing PR number", body)
	})

	t.Run("reports the current user with only a token", func(t *testing.T) {
		t.Parallel()
		s := reviewServer(&mock.Reviewer{})

		code, body := authed(s, http.MethodGet, "/api/github/user", "")

		assert.Equal(t, http.StatusOK, code)
		assert.JSONEq(t, `{"login":"octocat"}`, body)
	})
}

func TestServer_GitHubReads(t *testing.T) {
	t.Parallel()

	t.Run("serves pull request metadata", func(t *testing.T) {
		t.Parallel()
		s := reviewServer(&mock.Reviewer{
			PullRequestFn: func(_ context.Context, number int) (*differ.PullRequestMeta, error) {
				return &differ.PullRequestMeta{Number: number, Title: "T", HeadSHA: "abc"}, nil
			},
		})

		code, body := authed(s, http.MethodGet, "/api/github/pr?number=7", "")

		assert.Equal(t, http.StatusOK, code)
		assert.JSONEq(t, `{"number":7,"title":"T","url":"","headSha":"abc","baseRef":"","headRef":""}`, body)
	})

	t.Run("reports no pending review as null", func(t *testing.T) {
		t.Parallel()
		s := reviewServer(&mock.Reviewer{
			PendingReviewFn: func(context.Context, int) (int64, bool, error) { return 0, false, nil },
		})

		code, body := authed(s, http.MethodGet, "/api/github/pr-reviews/pending?number=7", "")

		assert.Equal(t, http.StatusOK, code)
		assert.JSONEq(t, `{"id":null}`, body)
	})

	t.Run("requires a review id for review comments", func(t *testing.T) {
		t.Parallel()
		s := reviewServer(&mock.Reviewer{})

		code, body := authed(s, http.MethodGet, "/api/github/pr-reviews/comments?number=7", "")

		assert.Equal(t, http.StatusBadRequest, code)
		assert.Equal(t, "Missing review id", body)
	})

	t.Run("passes through host failures", func(t *testing.T) {
		t.Parallel()
		s := reviewServer(&mock.Reviewer{
			CommentsFn: func(context.Context, int) ([]differ.ReviewComment, error) {
				return nil, &differ.SourceError{Status: http.StatusForbidden, Message: "GitHub request failed (403): Forbidden"}
			},
		})

		code, body := authed(s, http.MethodGet, "/api/github/pr-comments?number=7", "")

		assert.Equal(t, http.StatusForbidden, code)
		assert.Equal(t, "GitHub request failed (403): Forbidden", body)
	})
}

func TestServer_CreateComment(t *testing.T) {
	t.Parallel()

	create := func(got *differ.NewComment) *mock.Reviewer {
		return &mock.Reviewer{
			CreateCommentFn: func(_ context.Context, number int, c differ.NewComment) (*differ.ReviewComment, error) {
				*got = c
				return &differ.ReviewComment{ID: 5, Body: c.Body, Path: c.Path, Side: c.Side}, nil
			},
		}
	}

	t.Run("creates a comment on a changed line", func(t *testing.T) {
		t.Parallel()
		var got differ.NewComment
		s := reviewServer(create(&got))

		code, body := authed(s, http.MethodPost, "/api/github/pr-comments",
			`{"number":7,"reviewId":3,"path":"a.go","line":12,"body":"nit"}`)

		require.Equal(t, http.StatusOK, code, body)
		assert.Contains(t, body, `"id":5`)
		assert.Equal(t, differ.NewComment{ReviewID: 3, Path: "a.go", Body: "nit", Line: 12, Side: differ.SideRight}, got)
	})

	t.Run("rejects lines outside the diff", func(t *testing.T) {
		t.Parallel()
		s := reviewServer(&mock.Reviewer{})

		code, body := authed(s, http.MethodPost, "/api/github/pr-comments",
			`{"number":7,"path":"a.go","line":12,"side":"LEFT","body":"nit"}`)

		assert.Equal(t, http.StatusUnprocessableEntity, code)
		assert.Equal(t, "Line is not part of the diff", body)
	})

	t.Run("rejects files outside the pull request", func(t *testing.T) {
		t.Parallel()
		s := reviewServer(&mock.Reviewer{})

		code, _ := authed(s, http.MethodPost, "/api/github/pr-comments",
			`{"number":7,"path":"other.go","line":1,"body":"nit"}`)

		assert.Equal(t, http.StatusUnprocessableEntity, code)
	})

	t.Run("skips line checks for diff positions", func(t *testing.T) {
		t.Parallel()
		var got differ.NewComment
		s := reviewServer(create(&got))

		code, _ := authed(s, http.MethodPost, "/api/github/pr-comments",
			`{"number":7,"path":"other.go","position":4,"body":"nit"}`)

		assert.Equal(t, http.StatusOK, code)
		assert.Equal(t, 4, got.Position)
	})

	t.Run("requires comment details", func(t *testing.T) {
		t.Parallel()
		s := reviewServer(&mock.Reviewer{})

		code, body := authed(s, http.MethodPost, "/api/github/pr-comments", `{"number":7,"path":"a.go","body":"nit"}`)

		assert.Equal(t, http.StatusBadRequest, code)
		assert.Equal(t, "Missing comment details", body)
	})

	t.Run("rejects malformed bodies", func(t *testing.T) {
		t.Parallel()
		s := reviewServer(&mock.Reviewer{})

		code, body := authed(s, http.MethodPost, "/api/github/pr-comments", `{`)

		assert.Equal(t, http.StatusBadRequest, code)
		assert.Equal(t, "Invalid request body", body)
	})
}

func TestServer_ReviewActions(t *testing.T) {
	t.Parallel()

	t.Run("returns an existing pending review on start", func(t *testing.T) {
		t.Parallel()
		s := reviewServer(&mock.Reviewer{
			StartReviewFn: func(context.Context, int) (int64, error) { return 3, differ.ErrPendingReview },
		})

		code, body := authed(s, http.MethodPost, "/api/github/pr-reviews/start", `{"number":7}`)

		assert.Equal(t, http.StatusOK, code)
		assert.JSONEq(t, `{"id":3,"existing":true}`, body)
	})

	t.Run("submits with the comment event by default", func(t *testing.T) {
		t.Parallel()
		var event string
		s := reviewServer(&mock.Reviewer{
			SubmitReviewFn: func(_ context.Context, _ int, reviewID int64, ev, _ string) (int64, error) {
				event = ev
				return reviewID, nil
			},
		})

		code, body := authed(s, http.MethodPost, "/api/github/pr-reviews/submit", `{"number":7,"reviewId":3}`)

		assert.Equal(t, http.StatusOK, code)
		assert.JSONEq(t, `{"id":3}`, body)
		assert.Equal(t, differ.EventComment, event)
	})

	t.Run("deletes a comment", func(t *testing.T) {
		t.Parallel()
		var deleted int64
		s := reviewServer(&mock.Reviewer{
			DeleteCommentFn: func(_ context.Context, id int64) error {
				deleted = id
				return nil
			},
		})

		code, _ := authed(s, http.MethodDelete, "/api/github/pr-comments/delete", `{"commentId":9}`)

		assert.Equal(t, http.StatusNoContent, code)
		assert.Equal(t, int64(9), deleted)
	})

	t.Run("replies to a comment", func(t *testing.T) {
		t.Parallel()
		s := reviewServer(&mock.Reviewer{
			ReplyToCommentFn: func(_ context.Context, number int, commentID int64, body string) (int64, error) {
				assert.Equal(t, 7, number)
				assert.Equal(t, int64(2), commentID)
				assert.Equal(t, "ok", body)
				return 10, nil
			},
		})

		code, body := authed(s, http.MethodPost, "/api/github/pr-comments/reply", `{"number":7,"commentId":2,"body":"ok"}`)

		assert.Equal(t, http.StatusOK, code)
		assert.JSONEq(t, `{"id":10}`, body)
	})

	t.Run("marks and unmarks files as viewed", func(t *testing.T) {
		t.Parallel()
		var calls []bool
		s := reviewServer(&mock.Reviewer{
			SetFileViewedFn: func(_ context.Context, _ int, path string, viewed bool) error {
				assert.Equal(t, "src/a b.go", path)
				calls = append(calls, viewed)
				return nil
			},
		})

		put, _ := authed(s, http.MethodPut, "/api/github/pr-files/viewed?number=7&path=src%2Fa%20b.go", "")
		del, _ := authed(s, http.MethodDelete, "/api/github/pr-files/viewed?number=7&path=src%2Fa%20b.go", "")
		missing, body := authed(s, http.MethodPut, "/api/github/pr-files/viewed?number=7", "")

		assert.Equal(t, http.StatusNoContent, put)
		assert.Equal(t, http.StatusNoContent, del)
		assert.Equal(t, []bool{true, false}, calls)
		assert.Equal(t, http.StatusBadRequest, missing)
		assert.Equal(t, "Missing file path", body)
	})
}
