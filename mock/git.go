package mock

import (
	"context"

	"github.com/fwojciec/differ"
)

// Compile-time interface verification.
var (
	_ differ.DiffSource        = (*DiffSource)(nil)
	_ differ.PullRequestSource = (*PullRequestSource)(nil)
	_ differ.RepoInspector     = (*RepoInspector)(nil)
)

// DiffSource is a mock implementation of differ.DiffSource.
type DiffSource struct {
	DiffFn     func(ctx context.Context, repoRoot string, spec differ.ComparisonSpec, contextLines int) (string, error)
	FileDiffFn func(ctx context.Context, repoRoot, path string, spec differ.ComparisonSpec, contextLines int) (string, error)
}

func (s *DiffSource) Diff(ctx context.Context, repoRoot string, spec differ.ComparisonSpec, contextLines int) (string, error) {
	return s.DiffFn(ctx, repoRoot, spec, contextLines)
}

func (s *DiffSource) FileDiff(ctx context.Context, repoRoot, path string, spec differ.ComparisonSpec, contextLines int) (string, error) {
	return s.FileDiffFn(ctx, repoRoot, path, spec, contextLines)
}

// PullRequestSource is a mock implementation of differ.PullRequestSource.
type PullRequestSource struct {
	FetchPullRequestFn func(ctx context.Context, repoRoot string, number int, token string) (*differ.PullRequestDiff, error)
}

func (s *PullRequestSource) FetchPullRequest(ctx context.Context, repoRoot string, number int, token string) (*differ.PullRequestDiff, error) {
	return s.FetchPullRequestFn(ctx, repoRoot, number, token)
}

// RepoInspector is a mock implementation of differ.RepoInspector.
type RepoInspector struct {
	RefExistsFn           func(repoRoot, ref string) bool
	RemoteDefaultBranchFn func(repoRoot string) (string, bool)
	OriginURLFn           func(repoRoot string) (string, bool)
}

func (i *RepoInspector) RefExists(repoRoot, ref string) bool {
	return i.RefExistsFn(repoRoot, ref)
}

func (i *RepoInspector) RemoteDefaultBranch(repoRoot string) (string, bool) {
	return i.RemoteDefaultBranchFn(repoRoot)
}

func (i *RepoInspector) OriginURL(repoRoot string) (string, bool) {
	return i.OriginURLFn(repoRoot)
}
