package scan

import (
	"strings"
	"unicode"

	"liblinker/internal/textedit"

	protocol "github.com/tliron/glsp/protocol_3_16"
)

const (
	importKeyword = "import"
	fromKeyword   = "from"
)

// Dependencies is the membership test for known dependency modules.
type Dependencies interface {
	Has(name string) bool
}

// ScanImports finds single-line import statements whose module is a known
// dependency and returns their brace-delimited named bindings, along with
// the lines of text. Default and namespace imports are not extracted.
func ScanImports(text string, dependencies Dependencies) ([]ImportedSymbol, []string) {
	lines := strings.Split(text, "\n")
	var symbols []ImportedSymbol
	for i, line := range lines {
		symbols = append(symbols, scanImportLine(i, line, dependencies)...)
	}
	return symbols, lines
}

func scanImportLine(lineNo int, line string, dependencies Dependencies) []ImportedSymbol {
	trimmed := strings.TrimSpace(line)
	if !strings.HasPrefix(trimmed, importKeyword) {
		return nil
	}
	if len(trimmed) > len(importKeyword) && isIdentByte(trimmed[len(importKeyword)]) {
		return nil
	}

	openBrace := strings.IndexByte(line, '{')
	closeBrace := -1
	if openBrace >= 0 {
		closeBrace = indexFrom(line, "}", openBrace)
	}

	// The module clause follows the binding list, so names such as
	// fromEvent inside the braces are never taken for the keyword.
	fromSearch := 0
	if closeBrace >= 0 {
		fromSearch = closeBrace + 1
	}
	fromIndex := indexWord(line, fromKeyword, fromSearch)
	if fromIndex < 0 {
		return nil
	}

	module := moduleSpecifier(line[fromIndex+len(fromKeyword):])
	if module == "" || !dependencies.Has(module) {
		return nil
	}
	if openBrace < 0 || closeBrace < 0 {
		return nil
	}

	var symbols []ImportedSymbol
	segStart := openBrace + 1
	for segStart <= closeBrace {
		segEnd := indexFrom(line[:closeBrace], ",", segStart)
		if segEnd < 0 {
			segEnd = closeBrace
		}
		imported, local := splitBinding(line[segStart:segEnd])
		if local != "" {
			start := indexWord(line[:segEnd], local, segStart)
			if start >= 0 {
				symbols = append(symbols, ImportedSymbol{
					Name:     local,
					Imported: imported,
					Module:   module,
					Range:    lineRange(lineNo, line, start, start+len(local)),
				})
			}
		}
		segStart = segEnd + 1
	}
	return symbols
}

// splitBinding parses one entry of a named-import list: `A`, `A as B` or
// `type A`. Anything else yields empty names.
func splitBinding(item string) (imported string, local string) {
	fields := strings.Fields(item)
	if len(fields) > 1 && fields[0] == "type" {
		fields = fields[1:]
	}
	switch {
	case len(fields) == 1:
		imported, local = fields[0], fields[0]
	case len(fields) == 3 && fields[1] == "as":
		imported, local = fields[0], fields[2]
	default:
		return "", ""
	}
	for i := 0; i < len(local); i++ {
		if !isIdentByte(local[i]) {
			return "", ""
		}
	}
	return imported, local
}

// moduleSpecifier strips quoting and the statement terminator from the text
// after `from` and drops anything past the specifier.
func moduleSpecifier(rest string) string {
	rest = strings.Map(func(r rune) rune {
		switch r {
		case '\'', '"', '`', ';':
			return -1
		}
		return r
	}, rest)
	rest = strings.TrimSpace(rest)
	if i := strings.IndexFunc(rest, unicode.IsSpace); i >= 0 {
		rest = rest[:i]
	}
	return rest
}

// PackageName returns the package part of a module specifier:
// `react-icons/fa` is `react-icons`, `@scope/pkg/sub` is `@scope/pkg`.
func PackageName(specifier string) string {
	parts := strings.SplitN(specifier, "/", 3)
	if strings.HasPrefix(specifier, "@") && len(parts) >= 2 {
		return parts[0] + "/" + parts[1]
	}
	return parts[0]
}

type subpathDependencies struct {
	Dependencies
}

func (d subpathDependencies) Has(name string) bool {
	return d.Dependencies.Has(name) || d.Dependencies.Has(PackageName(name))
}

// WithSubpaths makes deep imports of a dependency count as the dependency.
func WithSubpaths(dependencies Dependencies) Dependencies {
	return subpathDependencies{dependencies}
}

func lineRange(lineNo int, line string, start, end int) Range {
	return Range{
		Start: Position{Line: protocol.UInteger(lineNo), Character: textedit.UTF16Len(line[:start])},
		End:   Position{Line: protocol.UInteger(lineNo), Character: textedit.UTF16Len(line[:end])},
	}
}
