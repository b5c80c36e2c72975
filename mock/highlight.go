package mock

import "github.com/fwojciec/differ"

// Compile-time interface verification.
var (
	_ differ.Highlighter      = (*Highlighter)(nil)
	_ differ.LanguageDetector = (*LanguageDetector)(nil)
)

// Highlighter is a mock implementation of differ.Highlighter.
type Highlighter struct {
	HighlightLinesFn func(language, style, source string) ([]string, error)
}

func (h *Highlighter) HighlightLines(language, style, source string) ([]string, error) {
	return h.HighlightLinesFn(language, style, source)
}

// LanguageDetector is a mock implementation of differ.LanguageDetector.
type LanguageDetector struct {
	DetectFromPathFn func(path string) string
}

func (d *LanguageDetector) DetectFromPath(path string) string {
	return d.DetectFromPathFn(path)
}
