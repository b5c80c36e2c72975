// Package gitdiff implements unified diff parsing. Hunks and lines come from
// a lenient line scanner; file-level metadata is enriched using
// bluekeyes/go-gitdiff.
package gitdiff

import (
	"strings"

	"github.com/bluekeyes/go-gitdiff/gitdiff"
	"github.com/fwojciec/differ"
)

// Compile-time interface verification.
var _ differ.Parser = (*Parser)(nil)

// Parser parses unified diff text produced by git.
type Parser struct{}

// NewParser creates a new Parser.
func NewParser() *Parser {
	return &Parser{}
}

// Parse converts raw diff text into files. It is total: regions it does not
// recognise are skipped rather than reported.
func (p *Parser) Parse(raw string) []differ.DiffFile {
	files := scan(raw)
	enrich(files, raw)
	return files
}

// scan walks the diff line by line. A hunk whose header parses is closed
// once its declared line counts are consumed; a hunk with an unparsable
// header runs until the next header using prefix rules only.
func scan(raw string) []differ.DiffFile {
	files := []differ.DiffFile{}
	cur := -1
	inHunk, bounded := false, false
	var oldLeft, newLeft int

	raw = strings.TrimSuffix(raw, "\n")
	if raw == "" {
		return files
	}

	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSuffix(line, "\r")

		if strings.HasPrefix(line, "diff --git ") {
			files = append(files, differ.DiffFile{
				Path:  pathFromHeader(line),
				Hunks: []differ.DiffHunk{},
			})
			cur = len(files) - 1
			inHunk = false
			continue
		}
		if cur < 0 {
			continue
		}
		f := &files[cur]

		if strings.HasPrefix(line, "@@") {
			f.Hunks = append(f.Hunks, differ.DiffHunk{Header: line, Lines: []differ.DiffLine{}})
			r, ok := differ.ParseHunkHeader(line)
			inHunk, bounded = true, ok
			oldLeft, newLeft = r.OldCount, r.NewCount
			if bounded && oldLeft <= 0 && newLeft <= 0 {
				inHunk = false
			}
			continue
		}

		if (!inHunk || !bounded) && isMetaLine(line) {
			continue
		}
		if !inHunk {
			continue
		}
		hunk := &f.Hunks[len(f.Hunks)-1]

		if bounded {
			switch {
			case strings.HasPrefix(line, `\`):
				// "\ No newline at end of file"
				continue
			case strings.HasPrefix(line, "+"):
				appendLine(f, hunk, differ.LineAdd, line[1:])
				newLeft--
			case strings.HasPrefix(line, "-"):
				appendLine(f, hunk, differ.LineDelete, line[1:])
				oldLeft--
			default:
				appendLine(f, hunk, differ.LineContext, strings.TrimPrefix(line, " "))
				oldLeft--
				newLeft--
			}
			if oldLeft <= 0 && newLeft <= 0 {
				inHunk = false
			}
			continue
		}

		switch {
		case strings.HasPrefix(line, "+") && !strings.HasPrefix(line, "+++"):
			appendLine(f, hunk, differ.LineAdd, line[1:])
		case strings.HasPrefix(line, "-") && !strings.HasPrefix(line, "---"):
			appendLine(f, hunk, differ.LineDelete, line[1:])
		default:
			appendLine(f, hunk, differ.LineContext, strings.TrimPrefix(line, " "))
		}
	}

	return files
}

func appendLine(f *differ.DiffFile, h *differ.DiffHunk, kind differ.LineKind, text string) {
	switch kind {
	case differ.LineAdd:
		f.Additions++
	case differ.LineDelete:
		f.Deletions++
	}
	h.Lines = append(h.Lines, differ.DiffLine{Kind: kind, Text: text})
}

var metaPrefixes = []string{
	"index ",
	"--- ",
	"+++ ",
	"new file mode ",
	"deleted file mode ",
	"similarity index ",
	"dissimilarity index ",
	"rename from ",
	"rename to ",
	"copy from ",
	"copy to ",
	"old mode ",
	"new mode ",
	"Binary files ",
}

func isMetaLine(line string) bool {
	for _, prefix := range metaPrefixes {
		if strings.HasPrefix(line, prefix) {
			return true
		}
	}
	return false
}

// pathFromHeader extracts the destination path from "diff --git a/X b/Y".
// When both sides name the same path the split is unambiguous even if the
// path itself contains " b/".
func pathFromHeader(line string) string {
	rest := strings.TrimPrefix(line, "diff --git ")
	if strings.HasPrefix(rest, "a/") && (len(rest)-5)%2 == 0 {
		n := (len(rest) - 5) / 2
		if n > 0 && rest[2+n:5+n] == " b/" && rest[2:2+n] == rest[5+n:] {
			return rest[5+n:]
		}
	}
	if i := strings.Index(rest, " b/"); i >= 0 {
		return rest[i+3:]
	}
	return ""
}

// enrich copies file-level metadata from go-gitdiff when it understands the
// same text as the same sequence of files. go-gitdiff rejects malformed
// fragments, in which case the scanner's output stands unchanged.
func enrich(files []differ.DiffFile, raw string) {
	if len(files) == 0 {
		return
	}
	parsed, _, err := gitdiff.Parse(strings.NewReader(raw))
	if err != nil || len(parsed) != len(files) {
		return
	}
	for i, f := range parsed {
		fd := &files[i]
		if f.NewName != "" {
			fd.Path = f.NewName
		}
		fd.Binary = f.IsBinary

		switch {
		case f.IsNew:
			fd.Status = differ.FileAdded
		case f.IsDelete:
			fd.Status = differ.FileDeleted
			if fd.Path == "" {
				fd.Path = f.OldName
			}
		case f.IsRename:
			fd.Status = differ.FileRenamed
			fd.OldPath = f.OldName
		case f.IsCopy:
			fd.Status = differ.FileCopied
			fd.OldPath = f.OldName
		default:
			fd.Status = differ.FileModified
		}
	}
}
