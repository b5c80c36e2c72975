package chroma

import (
	"path/filepath"
	"strings"

	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/fwojciec/differ"
)

// Compile-time interface verification.
var _ differ.LanguageDetector = (*Detector)(nil)

// Language names returned when a path gives no usable hint.
const (
	LanguageShell     = "bash"
	LanguagePlaintext = "plaintext"
)

// Detector detects programming languages from file paths using chroma.
type Detector struct{}

// NewDetector creates a new chroma-based language detector.
func NewDetector() *Detector {
	return &Detector{}
}

// DetectFromPath returns the chroma lexer name for the given path. Files
// without an extension are treated as shell scripts and unrecognised
// extensions as plain text. Strips "a/" or "b/" prefixes common in diff
// output.
func (d *Detector) DetectFromPath(path string) string {
	path = strings.TrimPrefix(path, "a/")
	path = strings.TrimPrefix(path, "b/")

	filename := filepath.Base(path)
	if filename == "Dockerfile" || strings.HasPrefix(filename, "Dockerfile.") {
		return "docker"
	}

	if lexer := lexers.Match(filename); lexer != nil {
		return lexer.Config().Name
	}

	ext := filepath.Ext(filename)
	switch {
	case ext == "":
		return LanguageShell
	case ext == filename:
		// Dotfiles such as ".zshrc" use their name as the extension.
		if lexer := lexers.Match("file" + ext); lexer != nil {
			return lexer.Config().Name
		}
	}
	return LanguagePlaintext
}
