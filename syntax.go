package differ

// Highlighter renders source code as per-line HTML markup.
type Highlighter interface {
	// HighlightLines tokenizes source as one unit in the given language and
	// style, returning one rendered fragment per source line. It may return
	// fewer fragments than lines; callers must not assume equal length.
	HighlightLines(language, style, source string) ([]string, error)
}

// LanguageDetector determines the programming language from a file path.
type LanguageDetector interface {
	// DetectFromPath returns the language name for the given path.
	// Accepts paths with or without "a/" or "b/" prefixes (common in diffs).
	DetectFromPath(path string) string
}
