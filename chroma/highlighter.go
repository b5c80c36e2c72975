// Package chroma provides syntax highlighting using the chroma library.
package chroma

import (
	"fmt"
	"html"
	"strings"

	chromalib "github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/fwojciec/differ"
)

// Compile-time interface verification.
var _ differ.Highlighter = (*Highlighter)(nil)

// Highlighter renders source code as HTML spans with inline styles.
type Highlighter struct{}

// NewHighlighter creates a new chroma-based highlighter.
func NewHighlighter() *Highlighter {
	return &Highlighter{}
}

// HighlightLines tokenizes source with full context, then splits tokens by
// line so multi-line constructs like /* */ comments keep their styling.
// Unknown languages are rendered with chroma's plain text lexer. A trailing
// empty line produces no fragment.
func (h *Highlighter) HighlightLines(language, style, source string) ([]string, error) {
	if source == "" {
		return []string{}, nil
	}

	lexer := lexers.Get(language)
	if lexer == nil {
		lexer = lexers.Fallback
	}
	lexer = chromalib.Coalesce(lexer)

	iterator, err := lexer.Tokenise(nil, source)
	if err != nil {
		return nil, fmt.Errorf("tokenise %s: %w", language, err)
	}

	s := resolveStyle(style)
	lines := splitTokensByLine(iterator.Tokens())

	rendered := make([]string, len(lines))
	for i, line := range lines {
		rendered[i] = renderLine(s, line)
	}
	return rendered, nil
}

func renderLine(s *chromalib.Style, tokens []chromalib.Token) string {
	var b strings.Builder
	for _, tok := range tokens {
		text := html.EscapeString(tok.Value)
		css := inlineCSS(s.Get(tok.Type))
		if css == "" {
			b.WriteString(text)
			continue
		}
		fmt.Fprintf(&b, `<span style="%s">%s</span>`, css, text)
	}
	return b.String()
}

// splitTokensByLine splits a flat list of tokens into per-line token slices.
// Handles tokens that span multiple lines by splitting them at newline boundaries.
func splitTokensByLine(tokens []chromalib.Token) [][]chromalib.Token {
	if len(tokens) == 0 {
		return [][]chromalib.Token{}
	}

	var result [][]chromalib.Token
	var currentLine []chromalib.Token

	for _, tok := range tokens {
		if !strings.Contains(tok.Value, "\n") {
			currentLine = append(currentLine, tok)
			continue
		}

		parts := strings.Split(tok.Value, "\n")
		for i, part := range parts {
			if part != "" {
				currentLine = append(currentLine, chromalib.Token{Type: tok.Type, Value: part})
			}
			// A newline ends the current line.
			if i < len(parts)-1 {
				result = append(result, currentLine)
				currentLine = nil
			}
		}
	}

	if len(currentLine) > 0 {
		result = append(result, currentLine)
	}

	return result
}
