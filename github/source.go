package github

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/fwojciec/differ"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// Compile-time interface verification.
var (
	_ differ.PullRequestSource = (*Source)(nil)
	_ differ.ReviewerProvider  = (*Source)(nil)
)

// Default request pacing shared by all requests made through a Source.
const (
	DefaultRequestsPerSecond = 10
	DefaultBurst             = 20
)

// Options configures a Source.
type Options struct {
	BaseURL    string // defaults to DefaultBaseURL
	HTTPClient *http.Client
	Limiter    *rate.Limiter
}

// Source resolves a repository's GitHub origin and fetches pull request
// data from the API.
type Source struct {
	inspector differ.RepoInspector
	baseURL   string
	http      *http.Client
	limiter   *rate.Limiter
}

// NewSource creates a Source. The inspector resolves the origin remote of
// each repository root.
func NewSource(inspector differ.RepoInspector, opts Options) *Source {
	s := &Source{
		inspector: inspector,
		baseURL:   opts.BaseURL,
		http:      opts.HTTPClient,
		limiter:   opts.Limiter,
	}
	if s.baseURL == "" {
		s.baseURL = DefaultBaseURL
	}
	if s.http == nil {
		s.http = &http.Client{Timeout: 30 * time.Second}
	}
	if s.limiter == nil {
		s.limiter = rate.NewLimiter(rate.Limit(DefaultRequestsPerSecond), DefaultBurst)
	}
	return s
}

// Origin returns the GitHub repository behind the origin remote of repoRoot.
func (s *Source) Origin(repoRoot string) (differ.RemoteRepo, error) {
	origin, ok := s.inspector.OriginURL(repoRoot)
	if !ok {
		return differ.RemoteRepo{}, differ.ErrMissingOrigin
	}
	repo, ok := ParseRemote(origin)
	if !ok {
		return differ.RemoteRepo{}, differ.ErrMissingOrigin
	}
	return repo, nil
}

// Reviewer returns a reviewer for the repository at repoRoot. The origin
// is checked before the token.
func (s *Source) Reviewer(repoRoot, token string) (differ.PullRequestReviewer, error) {
	return s.reviewer(repoRoot, token)
}

func (s *Source) reviewer(repoRoot, token string) (*Reviewer, error) {
	repo, err := s.Origin(repoRoot)
	if err != nil {
		return nil, err
	}
	if token == "" {
		return nil, differ.ErrMissingToken
	}
	return &Reviewer{repo: repo, client: s.client(token)}, nil
}

// CurrentUser returns the user the token belongs to. It needs no origin.
func (s *Source) CurrentUser(ctx context.Context, token string) (*differ.ReviewUser, error) {
	if token == "" {
		return nil, differ.ErrMissingToken
	}
	return currentUser(ctx, s.client(token))
}

func (s *Source) client(token string) *client {
	return &client{
		baseURL: s.baseURL,
		token:   token,
		http:    s.http,
		limiter: s.limiter,
	}
}

// FetchPullRequest fetches the metadata, unified diff and per-file review
// state of a pull request concurrently.
func (s *Source) FetchPullRequest(ctx context.Context, repoRoot string, number int, token string) (*differ.PullRequestDiff, error) {
	r, err := s.reviewer(repoRoot, token)
	if err != nil {
		return nil, err
	}

	var (
		meta  *differ.PullRequestMeta
		diff  string
		files []differ.FileReviewState
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		meta, err = r.PullRequest(gctx, number)
		return err
	})
	g.Go(func() error {
		var err error
		diff, err = r.client.getText(gctx, r.pullPath(number), mediaDiff)
		return err
	})
	g.Go(func() error {
		var err error
		files, err = r.Files(gctx, number)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	viewed := make(map[string]bool)
	for _, f := range files {
		if f.Viewed != nil {
			viewed[f.Path] = *f.Viewed
		}
	}
	return &differ.PullRequestDiff{Diff: diff, Meta: *meta, Viewed: viewed}, nil
}

func (r *Reviewer) pullPath(number int) string {
	return repoPath(r.repo) + "/pulls/" + strconv.Itoa(number)
}
