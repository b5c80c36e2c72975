package differ

import (
	"strconv"
	"strings"
)

// CompareRequest holds the raw, user-supplied comparison parameters.
type CompareRequest struct {
	Mode        string
	Base        string
	Head        string
	PullRequest string
}

// ResolveComparison normalizes a raw request into a ComparisonSpec, filling
// in default refs from the repository. It never fails: unusable input
// degrades to Working.
func ResolveComparison(inspector RepoInspector, repoRoot string, req CompareRequest) ComparisonSpec {
	mode := strings.TrimSpace(req.Mode)
	base := strings.TrimSpace(req.Base)
	head := strings.TrimSpace(req.Head)

	switch {
	case mode == ModeWorking:
		return Working{}
	case mode == ModePullRequest:
		n, err := strconv.Atoi(strings.TrimSpace(req.PullRequest))
		if err != nil || n <= 0 {
			return Working{}
		}
		return PullRequest{Number: n}
	case mode == ModeRange || base != "" || head != "":
		if base == "" {
			base = DefaultBase(inspector, repoRoot)
		}
		if head == "" {
			head = "HEAD"
		}
		return Range{Base: base, Head: head}
	default:
		return Working{}
	}
}

// DefaultBase picks the base ref for a range comparison: the remote's
// default branch, then main, then master, then HEAD.
func DefaultBase(inspector RepoInspector, repoRoot string) string {
	if ref, ok := inspector.RemoteDefaultBranch(repoRoot); ok && ref != "" {
		return ref
	}
	for _, candidate := range []string{"main", "master"} {
		if inspector.RefExists(repoRoot, candidate) {
			return candidate
		}
	}
	return "HEAD"
}
