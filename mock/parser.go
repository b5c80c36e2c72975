// Package mock provides test doubles for differ interfaces.
package mock

import "github.com/fwojciec/differ"

// Compile-time interface verification.
var _ differ.Parser = (*Parser)(nil)

// Parser is a mock implementation of differ.Parser.
type Parser struct {
	ParseFn func(raw string) []differ.DiffFile
}

func (p *Parser) Parse(raw string) []differ.DiffFile {
	return p.ParseFn(raw)
}
