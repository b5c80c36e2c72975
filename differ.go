// Package differ provides domain types for computing, caching and serving
// live views of a git repository's differences.
package differ

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
)

// ComparisonSpec describes which two points in history are being diffed.
// It is implemented by Working, Range and PullRequest only.
type ComparisonSpec interface {
	isComparison()
}

// Working compares the working tree against the index, including untracked files.
type Working struct{}

// Range compares head against the merge base of base and head (three-dot).
// Empty refs are filled in by ResolveComparison before use.
type Range struct {
	Base string
	Head string
}

// PullRequest compares the changes of a pull request on the remote host.
type PullRequest struct {
	Number int
}

func (Working) isComparison()     {}
func (Range) isComparison()       {}
func (PullRequest) isComparison() {}

// Comparison modes as they appear on the wire.
const (
	ModeWorking     = "working"
	ModeRange       = "range"
	ModePullRequest = "pr"
)

// CompareKey returns the cache partition key for a comparison.
func CompareKey(spec ComparisonSpec) string {
	switch s := spec.(type) {
	case Working:
		return ModeWorking
	case Range:
		return ModeRange + ":" + s.Base + "..." + s.Head
	case PullRequest:
		return ModePullRequest + ":" + strconv.Itoa(s.Number)
	default:
		panic(fmt.Sprintf("differ: unknown comparison %T", spec))
	}
}

// MarshalJSON implements json.Marshaler.
func (w Working) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Mode string `json:"mode"`
	}{ModeWorking})
}

// MarshalJSON implements json.Marshaler.
func (r Range) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Mode string `json:"mode"`
		Base string `json:"base,omitempty"`
		Head string `json:"head,omitempty"`
	}{ModeRange, r.Base, r.Head})
}

// MarshalJSON implements json.Marshaler.
func (p PullRequest) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Mode   string `json:"mode"`
		Number int    `json:"number"`
	}{ModePullRequest, p.Number})
}

// LineKind represents the type of a diff line.
type LineKind int

// Line kinds.
const (
	LineContext LineKind = iota
	LineAdd
	LineDelete
)

// String returns the wire name of the kind.
func (k LineKind) String() string {
	switch k {
	case LineAdd:
		return "add"
	case LineDelete:
		return "del"
	default:
		return "context"
	}
}

// MarshalJSON implements json.Marshaler.
func (k LineKind) MarshalJSON() ([]byte, error) {
	return json.Marshal(k.String())
}

// DiffLine is a single line within a hunk.
type DiffLine struct {
	Kind         LineKind `json:"type"`
	Text         string   `json:"content"`
	RenderedHTML string   `json:"html,omitempty"` // empty until highlighted
}

// DiffHunk is a contiguous block of changes sharing one @@ header.
type DiffHunk struct {
	Header string     `json:"header"` // raw "@@ -a,b +c,d @@" line
	Lines  []DiffLine `json:"lines"`
}

// FileStatus represents the operation performed on a file.
type FileStatus int

// File statuses.
const (
	FileModified FileStatus = iota
	FileAdded
	FileDeleted
	FileRenamed
	FileCopied
)

// String returns the wire name of the status.
func (s FileStatus) String() string {
	switch s {
	case FileAdded:
		return "added"
	case FileDeleted:
		return "deleted"
	case FileRenamed:
		return "renamed"
	case FileCopied:
		return "copied"
	default:
		return "modified"
	}
}

// MarshalJSON implements json.Marshaler.
func (s FileStatus) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// DiffFile holds the parsed changes to a single file. Additions and
// deletions are counted once at parse time.
type DiffFile struct {
	Path      string     `json:"path"`
	OldPath   string     `json:"oldPath,omitempty"`
	Status    FileStatus `json:"status"`
	Binary    bool       `json:"binary,omitempty"`
	Additions int        `json:"additions"`
	Deletions int        `json:"deletions"`
	Hunks     []DiffHunk `json:"hunks"`
	Viewed    *bool      `json:"viewed,omitempty"` // pull request mode only
}

// DiffSummary totals a set of files.
type DiffSummary struct {
	Files     int `json:"files"`
	Additions int `json:"additions"`
	Deletions int `json:"deletions"`
}

// Summarize reduces files to their totals.
func Summarize(files []DiffFile) DiffSummary {
	var s DiffSummary
	for _, f := range files {
		s.Files++
		s.Additions += f.Additions
		s.Deletions += f.Deletions
	}
	return s
}

// RepoInfo identifies the repository a snapshot was taken from.
type RepoInfo struct {
	Root string `json:"root"`
	Name string `json:"name"`
}

// PullRequestMeta describes the pull request behind a snapshot.
type PullRequestMeta struct {
	Number  int    `json:"number"`
	Title   string `json:"title"`
	URL     string `json:"url"`
	HeadSHA string `json:"headSha"`
	BaseRef string `json:"baseRef"`
	HeadRef string `json:"headRef"`
}

// DiffSnapshot is the structured, possibly highlighted, view of one diff.
// Two snapshots with the same ContentHash are interchangeable.
type DiffSnapshot struct {
	Repo        RepoInfo         `json:"repo"`
	Comparison  ComparisonSpec   `json:"compare"`
	ContentHash string           `json:"revision"`
	Summary     DiffSummary      `json:"summary"`
	Files       []DiffFile       `json:"files"`
	PullRequest *PullRequestMeta `json:"pr,omitempty"`
}

// PullRequestDiff is the raw material fetched for a pull request comparison.
type PullRequestDiff struct {
	Diff   string
	Meta   PullRequestMeta
	Viewed map[string]bool // by file path; absent paths have no review state
}

// DiffRequest carries the inputs of DiffService.GetDiff.
type DiffRequest struct {
	RepoRoot   string
	Theme      string
	Comparison ComparisonSpec
	AuthToken  string
}

// FileDiffRequest carries the inputs of DiffService.GetFileDiff.
type FileDiffRequest struct {
	RepoRoot    string
	Path        string
	Theme       string
	FullContext bool
	Comparison  ComparisonSpec
	AuthToken   string
}

// DefaultContextLines is the number of context lines in a regular diff.
const DefaultContextLines = 3

// FullFileContext is a context line count large enough to show whole files.
const FullFileContext = 999999

// DiffSource produces unified diff text for local comparisons.
type DiffSource interface {
	// Diff returns the diff for the whole comparison with contextLines of context.
	Diff(ctx context.Context, repoRoot string, spec ComparisonSpec, contextLines int) (string, error)
	// FileDiff returns the diff restricted to a single path.
	FileDiff(ctx context.Context, repoRoot, path string, spec ComparisonSpec, contextLines int) (string, error)
}

// PullRequestSource fetches pull request diffs from a remote host.
type PullRequestSource interface {
	FetchPullRequest(ctx context.Context, repoRoot string, number int, token string) (*PullRequestDiff, error)
}

// Parser converts unified diff text into files. It never fails.
type Parser interface {
	Parse(raw string) []DiffFile
}

// RepoInspector answers synchronous questions about repository state.
type RepoInspector interface {
	// RefExists reports whether ref resolves in the repository.
	RefExists(repoRoot, ref string) bool
	// RemoteDefaultBranch returns the target of the origin's symbolic HEAD
	// (for example "origin/main").
	RemoteDefaultBranch(repoRoot string) (string, bool)
	// OriginURL returns the first URL configured for the "origin" remote.
	OriginURL(repoRoot string) (string, bool)
}

// DiffService serves snapshots and single-file diffs backed by caches.
type DiffService interface {
	GetDiff(ctx context.Context, req DiffRequest) (*DiffSnapshot, error)
	GetFileDiff(ctx context.Context, req FileDiffRequest) (*DiffFile, error)
	InvalidateCache(repoRoot string)
}
