// Package snapshot builds diff snapshots from diff sources and serves them
// from content-addressed caches.
package snapshot

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/fwojciec/differ"
	"github.com/fwojciec/differ/inmem"
	"golang.org/x/sync/singleflight"
)

// Compile-time interface verification.
var _ differ.DiffService = (*Service)(nil)

// errNoPullRequestSource is returned for pull request comparisons when the
// service has no remote source.
var errNoPullRequestSource = errors.New("pull request comparisons are not available")

// Config holds the collaborators of a Service.
type Config struct {
	Source       differ.DiffSource
	PullRequests differ.PullRequestSource // optional
	Parser       differ.Parser
	Detector     differ.LanguageDetector
	Highlighter  differ.Highlighter
	ContextLines int // defaults to differ.DefaultContextLines
	Logger       *slog.Logger
}

// Service implements differ.DiffService. The raw diff is fetched and hashed
// on every call; caches are consulted only with that fresh hash.
type Service struct {
	source       differ.DiffSource
	pullRequests differ.PullRequestSource
	parser       differ.Parser
	detector     differ.LanguageDetector
	highlighter  differ.Highlighter
	contextLines int
	logger       *slog.Logger

	cache *inmem.Cache
	group singleflight.Group
}

// New creates a Service with empty caches.
func New(cfg Config) *Service {
	s := &Service{
		source:       cfg.Source,
		pullRequests: cfg.PullRequests,
		parser:       cfg.Parser,
		detector:     cfg.Detector,
		highlighter:  cfg.Highlighter,
		contextLines: cfg.ContextLines,
		logger:       cfg.Logger,
		cache:        inmem.NewCache(),
	}
	if s.contextLines <= 0 {
		s.contextLines = differ.DefaultContextLines
	}
	if s.logger == nil {
		s.logger = slog.New(slog.DiscardHandler)
	}
	return s
}

// GetDiff returns the highlighted snapshot for the request. When nothing
// changed since the previous call the same snapshot pointer is returned.
//
// Local diff failures are logged and reported as an empty snapshot that is
// not cached. Pull request failures are returned to the caller.
func (s *Service) GetDiff(ctx context.Context, req differ.DiffRequest) (*differ.DiffSnapshot, error) {
	spec := comparison(req.Comparison)
	theme := differ.ResolveTheme(req.Theme)
	compareKey := differ.CompareKey(spec)
	root := req.RepoRoot

	var pr *differ.PullRequestDiff
	var raw string
	switch c := spec.(type) {
	case differ.PullRequest:
		var err error
		if pr, err = s.fetchPullRequest(ctx, root, c.Number, req.AuthToken); err != nil {
			return nil, err
		}
		raw = pr.Diff
	default:
		var err error
		raw, err = s.source.Diff(ctx, root, spec, s.contextLines)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			s.logger.Warn("diff source failed", "root", root, "compare", compareKey, "error", err)
			return s.newSnapshot(root, spec, contentHash(""), []differ.DiffFile{}), nil
		}
	}

	hash := contentHash(raw)
	parsed, err := s.parsed(root, spec, compareKey, hash, raw)
	if err != nil {
		return nil, err
	}
	base, err := s.highlighted(root, compareKey, hash, theme, parsed)
	if err != nil {
		return nil, err
	}
	if pr == nil {
		return base, nil
	}
	return s.withOverlay(root, compareKey, hash, theme, base, pr), nil
}

// GetFileDiff returns a single highlighted file. It returns
// differ.ErrNotFound when the path has no changes. For pull requests the
// file is taken from the pull request diff and FullContext is ignored.
func (s *Service) GetFileDiff(ctx context.Context, req differ.FileDiffRequest) (*differ.DiffFile, error) {
	spec := comparison(req.Comparison)
	theme := differ.ResolveTheme(req.Theme)
	compareKey := differ.CompareKey(spec)
	root := req.RepoRoot

	mode := inmem.ContextDiff
	contextLines := s.contextLines
	if req.FullContext {
		mode = inmem.ContextFull
		contextLines = differ.FullFileContext
	}

	var raw string
	restricted := true
	switch c := spec.(type) {
	case differ.PullRequest:
		pr, err := s.fetchPullRequest(ctx, root, c.Number, req.AuthToken)
		if err != nil {
			return nil, err
		}
		raw = pr.Diff
		mode = inmem.ContextDiff
		restricted = false
	default:
		var err error
		raw, err = s.source.FileDiff(ctx, root, req.Path, spec, contextLines)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			s.logger.Warn("file diff source failed", "root", root, "path", req.Path, "error", err)
			return nil, differ.ErrNotFound
		}
	}
	if raw == "" {
		return nil, differ.ErrNotFound
	}

	hash := contentHash(raw)
	key := inmem.FileKey{CompareKey: compareKey, Path: req.Path, Theme: theme.ID, Context: mode}
	if f, ok := s.cache.FileFor(root, key, hash); ok {
		s.logger.Debug("file cache hit", "root", root, "path", req.Path)
		return &f, nil
	}

	v, err, _ := s.group.Do(flightKey("file", root, compareKey, req.Path, theme.ID, fmt.Sprint(mode), hash), func() (any, error) {
		if f, ok := s.cache.FileFor(root, key, hash); ok {
			return f, nil
		}
		file, ok := findFile(s.parser.Parse(raw), req.Path, restricted)
		if !ok {
			return nil, differ.ErrNotFound
		}
		decorated := s.decorate([]differ.DiffFile{file}, theme.Style)[0]
		s.cache.Files.Put(root, key, inmem.FileEntry{Hash: hash, File: decorated})
		return decorated, nil
	})
	if err != nil {
		return nil, err
	}
	f := v.(differ.DiffFile)
	return &f, nil
}

// InvalidateCache drops every cached entry for repoRoot.
func (s *Service) InvalidateCache(repoRoot string) {
	s.cache.Invalidate(repoRoot)
	s.logger.Debug("cache invalidated", "root", repoRoot)
}

func (s *Service) fetchPullRequest(ctx context.Context, root string, number int, token string) (*differ.PullRequestDiff, error) {
	if s.pullRequests == nil {
		return nil, errNoPullRequestSource
	}
	pr, err := s.pullRequests.FetchPullRequest(ctx, root, number, token)
	if err != nil {
		return nil, fmt.Errorf("fetch pull request %d: %w", number, err)
	}
	return pr, nil
}

// parsed returns the unhighlighted snapshot for hash, parsing raw on a miss.
func (s *Service) parsed(root string, spec differ.ComparisonSpec, compareKey, hash, raw string) (*differ.DiffSnapshot, error) {
	if snap, ok := s.cache.ParsedFor(root, compareKey, hash); ok {
		s.logger.Debug("parse cache hit", "root", root, "compare", compareKey)
		return snap, nil
	}
	v, err, _ := s.group.Do(flightKey("parse", root, compareKey, hash), func() (any, error) {
		if snap, ok := s.cache.ParsedFor(root, compareKey, hash); ok {
			return snap, nil
		}
		snap := s.newSnapshot(root, spec, hash, s.parser.Parse(raw))
		s.cache.Parsed.Put(root, compareKey, inmem.ParsedEntry{Hash: hash, Snapshot: snap})
		return snap, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*differ.DiffSnapshot), nil
}

// highlighted returns the base highlighted snapshot for parsed, decorating
// a copy of its files on a miss. The parsed entry is never modified.
func (s *Service) highlighted(root, compareKey, hash string, theme differ.Theme, parsed *differ.DiffSnapshot) (*differ.DiffSnapshot, error) {
	key := inmem.HighlightKey{CompareKey: compareKey, Hash: hash, Theme: theme.ID}
	if snap, ok := s.cache.Highlighted.Get(root, key); ok {
		s.logger.Debug("highlight cache hit", "root", root, "compare", compareKey, "theme", theme.ID)
		return snap, nil
	}
	v, err, _ := s.group.Do(flightKey("highlight", root, compareKey, hash, theme.ID), func() (any, error) {
		if snap, ok := s.cache.Highlighted.Get(root, key); ok {
			return snap, nil
		}
		snap := *parsed
		snap.Files = s.decorate(parsed.Files, theme.Style)
		s.cache.Highlighted.Put(root, key, &snap)
		return &snap, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*differ.DiffSnapshot), nil
}

// withOverlay layers pull request metadata and viewed flags over base. The
// result is cached under a digest of the overlay so a change in viewed
// state yields a new snapshot while an unchanged one is reused.
func (s *Service) withOverlay(root, compareKey, hash string, theme differ.Theme, base *differ.DiffSnapshot, pr *differ.PullRequestDiff) *differ.DiffSnapshot {
	key := inmem.HighlightKey{
		CompareKey: compareKey,
		Hash:       hash,
		Theme:      theme.ID,
		Overlay:    overlayDigest(pr),
	}
	if snap, ok := s.cache.Highlighted.Get(root, key); ok {
		return snap
	}

	snap := *base
	meta := pr.Meta
	snap.PullRequest = &meta
	snap.Files = make([]differ.DiffFile, len(base.Files))
	for i, f := range base.Files {
		if v, ok := pr.Viewed[f.Path]; ok {
			f.Viewed = &v
		}
		snap.Files[i] = f
	}
	s.cache.Highlighted.Put(root, key, &snap)
	return &snap
}

func (s *Service) newSnapshot(root string, spec differ.ComparisonSpec, hash string, files []differ.DiffFile) *differ.DiffSnapshot {
	return &differ.DiffSnapshot{
		Repo:        differ.RepoInfo{Root: root, Name: filepath.Base(root)},
		Comparison:  spec,
		ContentHash: hash,
		Summary:     differ.Summarize(files),
		Files:       files,
	}
}

func comparison(spec differ.ComparisonSpec) differ.ComparisonSpec {
	if spec == nil {
		return differ.Working{}
	}
	return spec
}

// findFile returns the file with the given path. When the diff was already
// restricted to that path, a single resulting file matches even if its
// name differs, as happens with renames.
func findFile(files []differ.DiffFile, path string, restricted bool) (differ.DiffFile, bool) {
	for _, f := range files {
		if f.Path == path || (f.OldPath != "" && f.OldPath == path) {
			return f, true
		}
	}
	if restricted && len(files) == 1 {
		return files[0], true
	}
	return differ.DiffFile{}, false
}

func contentHash(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

func overlayDigest(pr *differ.PullRequestDiff) string {
	// Map keys are marshaled in sorted order, so equal overlays digest equally.
	b, _ := json.Marshal(struct {
		Meta   differ.PullRequestMeta `json:"meta"`
		Viewed map[string]bool        `json:"viewed"`
	}{pr.Meta, pr.Viewed})
	return contentHash(string(b))
}

func flightKey(parts ...string) string {
	return strings.Join(parts, "\x00")
}
