package differ

import (
	"regexp"
	"strconv"
)

var hunkHeaderPattern = regexp.MustCompile(`^@@ -(\d+)(?:,(\d+))? \+(\d+)(?:,(\d+))? @@`)

// HunkRange holds the positions declared by a hunk header.
type HunkRange struct {
	OldStart int // From @@ -X,...
	OldCount int // From @@ -X,Y ...
	NewStart int // From @@ ...,+X
	NewCount int // From @@ ...,+X,Y
}

// ParseHunkHeader parses "@@ -oldStart,oldCount +newStart,newCount @@".
// Omitted counts default to 1, as in git's output.
func ParseHunkHeader(header string) (HunkRange, bool) {
	m := hunkHeaderPattern.FindStringSubmatch(header)
	if m == nil {
		return HunkRange{}, false
	}
	num := func(s string) int {
		if s == "" {
			return 1
		}
		n, err := strconv.Atoi(s)
		if err != nil {
			return 0
		}
		return n
	}
	return HunkRange{
		OldStart: num(m[1]),
		OldCount: num(m[2]),
		NewStart: num(m[3]),
		NewCount: num(m[4]),
	}, true
}

// LineNumber holds the old and new file positions of a line.
// Zero means the line does not exist on that side.
type LineNumber struct {
	Old int
	New int
}

// LineNumbers reconstructs per-line positions from the hunk header.
// Context advances both counters, deletions only old, additions only new.
// It returns nil when the header cannot be parsed.
func LineNumbers(h DiffHunk) []LineNumber {
	r, ok := ParseHunkHeader(h.Header)
	if !ok {
		return nil
	}
	oldNum, newNum := r.OldStart, r.NewStart
	out := make([]LineNumber, len(h.Lines))
	for i, line := range h.Lines {
		switch line.Kind {
		case LineAdd:
			out[i] = LineNumber{New: newNum}
			newNum++
		case LineDelete:
			out[i] = LineNumber{Old: oldNum}
			oldNum++
		default:
			out[i] = LineNumber{Old: oldNum, New: newNum}
			oldNum++
			newNum++
		}
	}
	return out
}

// Side identifies which version of a file a review comment targets.
type Side string

// Comment sides.
const (
	SideLeft  Side = "LEFT"  // old version
	SideRight Side = "RIGHT" // new version
)

// ContainsLine reports whether line on the given side appears in the file's
// diff, which is where a review comment can be placed.
func (f DiffFile) ContainsLine(side Side, line int) bool {
	if line <= 0 {
		return false
	}
	for _, h := range f.Hunks {
		for _, n := range LineNumbers(h) {
			if side == SideLeft && n.Old == line {
				return true
			}
			if side != SideLeft && n.New == line {
				return true
			}
		}
	}
	return false
}
