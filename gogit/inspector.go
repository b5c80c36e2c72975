// Package gogit answers repository state queries using go-git, without
// spawning git processes.
package gogit

import (
	"sync"

	"github.com/fwojciec/differ"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
)

// Compile-time interface verification.
var _ differ.RepoInspector = (*Inspector)(nil)

// Inspector implements differ.RepoInspector. Repository handles are opened
// once per root and reused; go-git reads refs from disk on every lookup so
// a cached handle still observes branch switches and new commits.
type Inspector struct {
	mu    sync.Mutex
	repos map[string]*git.Repository
}

// NewInspector creates a new go-git backed inspector.
func NewInspector() *Inspector {
	return &Inspector{repos: make(map[string]*git.Repository)}
}

// RefExists reports whether ref resolves to a commit.
func (i *Inspector) RefExists(repoRoot, ref string) bool {
	repo, err := i.open(repoRoot)
	if err != nil {
		return false
	}
	_, err = repo.ResolveRevision(plumbing.Revision(ref))
	return err == nil
}

// RemoteDefaultBranch returns the short name of the target of
// refs/remotes/origin/HEAD, such as "origin/main".
func (i *Inspector) RemoteDefaultBranch(repoRoot string) (string, bool) {
	repo, err := i.open(repoRoot)
	if err != nil {
		return "", false
	}
	ref, err := repo.Reference(plumbing.NewRemoteHEADReferenceName("origin"), false)
	if err != nil || ref.Type() != plumbing.SymbolicReference {
		return "", false
	}
	return ref.Target().Short(), true
}

// OriginURL returns the first URL of the "origin" remote.
func (i *Inspector) OriginURL(repoRoot string) (string, bool) {
	repo, err := i.open(repoRoot)
	if err != nil {
		return "", false
	}
	remote, err := repo.Remote("origin")
	if err != nil {
		return "", false
	}
	urls := remote.Config().URLs
	if len(urls) == 0 || urls[0] == "" {
		return "", false
	}
	return urls[0], true
}

func (i *Inspector) open(repoRoot string) (*git.Repository, error) {
	i.mu.Lock()
	defer i.mu.Unlock()

	if repo, ok := i.repos[repoRoot]; ok {
		return repo, nil
	}
	repo, err := git.PlainOpenWithOptions(repoRoot, &git.PlainOpenOptions{
		DetectDotGit: true,
	})
	if err != nil {
		return nil, err
	}
	i.repos[repoRoot] = repo
	return repo, nil
}
