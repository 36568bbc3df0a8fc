// Package scan cross-references the named imports of a source file with the
// markup tags rendered after its return statements. It works on plain text
// with substring and index scanning only.
package scan

import (
	protocol "github.com/tliron/glsp/protocol_3_16"
)

// Position is a zero-based line and UTF-16 column.
type Position = protocol.Position

// Range is a half-open span within one document snapshot.
type Range = protocol.Range

// ImportedSymbol is a named binding imported from a dependency.
type ImportedSymbol struct {
	// Name is the local binding, the alias when one is used.
	Name string
	// Imported is the exported name; equal to Name without an alias.
	Imported string
	Module   string
	Range    Range
}

// UsageMatch is one tag-shaped occurrence of a symbol. Close is nil for
// self-closing tags and for openings whose closing tag was not found.
type UsageMatch struct {
	Name  string
	Open  Range
	Close *Range
}

// Result is the outcome of one full scan of a document.
type Result struct {
	Imports []ImportedSymbol
	Usages  []UsageMatch
	Matched map[string]bool
	// Ranges is the final highlight set.
	Ranges []Range
}

// Valid reports whether r is non-empty and not inverted.
func Valid(r Range) bool {
	if r.End.Line != r.Start.Line {
		return r.End.Line > r.Start.Line
	}
	return r.End.Character > r.Start.Character
}

// Contains reports whether p lies in the half-open range r.
func Contains(r Range, p Position) bool {
	if p.Line < r.Start.Line || p.Line > r.End.Line {
		return false
	}
	if p.Line == r.Start.Line && p.Character < r.Start.Character {
		return false
	}
	if p.Line == r.End.Line && p.Character >= r.End.Character {
		return false
	}
	return true
}

func isIdentByte(b byte) bool {
	return b == '_' || b == '$' ||
		('a' <= b && b <= 'z') || ('A' <= b && b <= 'Z') || ('0' <= b && b <= '9') ||
		b >= 0x80
}

// indexWord finds the first occurrence of word in s at or after from that is
// not part of a longer identifier.
func indexWord(s, word string, from int) int {
	if word == "" {
		return -1
	}
	for from <= len(s) {
		i := indexFrom(s, word, from)
		if i < 0 {
			return -1
		}
		end := i + len(word)
		if (i == 0 || !isIdentByte(s[i-1])) && (end == len(s) || !isIdentByte(s[end])) {
			return i
		}
		from = i + 1
	}
	return -1
}
