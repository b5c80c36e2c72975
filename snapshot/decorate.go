package snapshot

import (
	"fmt"
	"strings"

	"github.com/fwojciec/differ"
)

// decorate returns a deep copy of files with RenderedHTML populated. Each
// hunk is highlighted as one unit and the fragments are mapped back onto
// lines by position. Missing fragments leave their lines undecorated, and a
// hunk whose highlighting fails is left undecorated entirely.
func (s *Service) decorate(files []differ.DiffFile, style string) []differ.DiffFile {
	out := make([]differ.DiffFile, len(files))
	for i, f := range files {
		out[i] = cloneFile(f)
		if f.Binary || len(f.Hunks) == 0 {
			continue
		}
		lang := s.detector.DetectFromPath(f.Path)
		for j := range out[i].Hunks {
			s.decorateHunk(&out[i].Hunks[j], f.Path, lang, style)
		}
	}
	return out
}

func (s *Service) decorateHunk(h *differ.DiffHunk, path, lang, style string) {
	if len(h.Lines) == 0 {
		return
	}
	texts := make([]string, len(h.Lines))
	for i, l := range h.Lines {
		texts[i] = l.Text
	}

	rendered, err := s.highlight(lang, style, strings.Join(texts, "\n"))
	if err != nil {
		s.logger.Warn("highlight failed", "path", path, "language", lang, "error", err)
		return
	}
	if len(rendered) != len(h.Lines) {
		s.logger.Debug("highlight line count mismatch", "path", path, "lines", len(h.Lines), "fragments", len(rendered))
	}
	for i := range h.Lines {
		if i < len(rendered) {
			h.Lines[i].RenderedHTML = rendered[i]
		}
	}
}

// highlight calls the highlighter, converting a panic into an error.
func (s *Service) highlight(lang, style, source string) (rendered []string, err error) {
	defer func() {
		if r := recover(); r != nil {
			rendered, err = nil, fmt.Errorf("highlighter panic: %v", r)
		}
	}()
	return s.highlighter.HighlightLines(lang, style, source)
}

func cloneFile(f differ.DiffFile) differ.DiffFile {
	hunks := make([]differ.DiffHunk, len(f.Hunks))
	for i, h := range f.Hunks {
		lines := make([]differ.DiffLine, len(h.Lines))
		copy(lines, h.Lines)
		hunks[i] = differ.DiffHunk{Header: h.Header, Lines: lines}
	}
	f.Hunks = hunks
	if f.Viewed != nil {
		v := *f.Viewed
		f.Viewed = &v
	}
	return f
}
