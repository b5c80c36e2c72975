package chroma

import (
	"strings"

	chromalib "github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/styles"
)

// resolveStyle returns the named chroma style, or chroma's fallback style
// when the name is unknown.
func resolveStyle(name string) *chromalib.Style {
	if s := styles.Get(name); s != nil {
		return s
	}
	return styles.Fallback
}

// inlineCSS converts a style entry into an inline CSS declaration list.
// Returns an empty string when the entry carries no visible styling.
func inlineCSS(e chromalib.StyleEntry) string {
	var decls []string
	if e.Colour.IsSet() {
		decls = append(decls, "color:"+e.Colour.String())
	}
	if e.Bold == chromalib.Yes {
		decls = append(decls, "font-weight:bold")
	}
	if e.Italic == chromalib.Yes {
		decls = append(decls, "font-style:italic")
	}
	if e.Underline == chromalib.Yes {
		decls = append(decls, "text-decoration:underline")
	}
	return strings.Join(decls, ";")
}
