package scan_test

import (
	"testing"

	"liblinker/internal/deps"
	"liblinker/internal/scan"
	"liblinker/internal/textedit"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rng(sl, sc, el, ec uint32) scan.Range {
	return scan.Range{
		Start: scan.Position{Line: sl, Character: sc},
		End:   scan.Position{Line: el, Character: ec},
	}
}

func textAt(text string, r scan.Range) string {
	return text[textedit.PositionToOffset(text, r.Start):textedit.PositionToOffset(text, r.End)]
}

func names(symbols []scan.ImportedSymbol) []string {
	var out []string
	for _, s := range symbols {
		out = append(out, s.Name)
	}
	return out
}

const appSource = `import { FaBeer, FaCar } from "react-icons";
function App() {
  return <FaBeer />;
}
`

func TestHighlightEndToEnd(t *testing.T) {
	result := scan.Highlight(appSource, deps.NewSet("react-icons"))

	require.Len(t, result.Imports, 2)
	assert.Equal(t, []scan.Range{
		rng(0, 9, 0, 15), // FaBeer import
		rng(2, 10, 2, 16), // <FaBeer />
	}, result.Ranges)
	assert.True(t, result.Matched["FaBeer"])
	assert.False(t, result.Matched["FaCar"])
	require.Len(t, result.Usages, 1)
	assert.Nil(t, result.Usages[0].Close)
}

func TestScanImports(t *testing.T) {
	dependencies := deps.NewSet("react", "react-icons", "rxjs", "dep")

	tests := []struct {
		name     string
		text     string
		expected []string
	}{
		{"named", `import { FaBeer, FaCar } from "react-icons";`, []string{"FaBeer", "FaCar"}},
		{"single quotes no semicolon", `import { useState } from 'react'`, []string{"useState"}},
		{"backticks", "import { A } from `dep`;", []string{"A"}},
		{"default plus named", `import React, { useState, useEffect } from "react";`, []string{"useState", "useEffect"}},
		{"default only", `import React from "react";`, nil},
		{"namespace", `import * as Icons from "react-icons";`, nil},
		{"unknown module", `import { A } from "left-pad";`, nil},
		{"relative module", `import { A } from "./dep";`, nil},
		{"no from clause", `import "dep";`, nil},
		{"no closing brace", `import { A from "dep";`, nil},
		{"indented", `    import { A } from "dep";`, []string{"A"}},
		{"trailing comment", `import { A } from "dep"; // from elsewhere`, []string{"A"}},
		{"name containing from", `import { fromEvent } from "rxjs";`, []string{"fromEvent"}},
		{"empty items", `import { A, , B, } from "dep";`, []string{"A", "B"}},
		{"alias", `import { A as Alpha } from "dep";`, []string{"Alpha"}},
		{"type modifier", `import { type Props, A } from "dep";`, []string{"Props", "A"}},
		{"not an import keyword", `importantThing({ A }) from "dep"`, nil},
		{"not at line start", `const x = 1; import { A } from "dep";`, nil},
		{"subpath without option", `import { FaBeer } from "react-icons/fa";`, nil},
		{"non-ascii names", `import { 𝒜, Ünïcode, B } from "dep";`, []string{"𝒜", "Ünïcode", "B"}},
		{"carriage return", "import { A } from \"dep\";\r", []string{"A"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			symbols, lines := scan.ScanImports(tt.text, dependencies)
			assert.Equal(t, tt.expected, names(symbols))
			assert.Len(t, lines, 1)
			for _, s := range symbols {
				assert.Equal(t, s.Name, textAt(tt.text, s.Range), "range of %s", s.Name)
				assert.Equal(t, uint32(0), s.Range.Start.Line)
			}
		})
	}
}

func TestScanImportsRanges(t *testing.T) {
	text := "const a = 1;\nimport { Car, FaCar } from \"dep\";\n"
	symbols, lines := scan.ScanImports(text, deps.NewSet("dep"))

	require.Len(t, lines, 3)
	require.Len(t, symbols, 2)
	assert.Equal(t, rng(1, 9, 1, 12), symbols[0].Range)
	assert.Equal(t, rng(1, 14, 1, 19), symbols[1].Range)
	assert.Equal(t, "dep", symbols[0].Module)
}

func TestScanImportsColumnsAreUTF16(t *testing.T) {
	// 𝒜 takes two UTF-16 units, Ü and ï one each.
	text := "import { 𝒜, Ünïcode, B } from \"dep\";\r\nimport { C } from \"dep\";\r\n"
	symbols, lines := scan.ScanImports(text, deps.NewSet("dep"))

	require.Len(t, lines, 3)
	require.Equal(t, []string{"𝒜", "Ünïcode", "B", "C"}, names(symbols))
	assert.Equal(t, rng(0, 9, 0, 11), symbols[0].Range)
	assert.Equal(t, rng(0, 13, 0, 20), symbols[1].Range)
	assert.Equal(t, rng(0, 22, 0, 23), symbols[2].Range)
	assert.Equal(t, rng(1, 9, 1, 10), symbols[3].Range)
	assert.Equal(t, "dep", symbols[3].Module)
}

func TestScanImportsAliasAndSubpaths(t *testing.T) {
	text := `import { IoMdBeer as Beer, type Props } from 'react-icons/io';`
	symbols, _ := scan.ScanImports(text, scan.WithSubpaths(deps.NewSet("react-icons")))

	require.Len(t, symbols, 2)
	assert.Equal(t, scan.ImportedSymbol{
		Name:     "Beer",
		Imported: "IoMdBeer",
		Module:   "react-icons/io",
		Range:    rng(0, 21, 0, 25),
	}, symbols[0])
	assert.Equal(t, "Props", symbols[1].Name)
	assert.Equal(t, "Props", textAt(text, symbols[1].Range))
}

func TestScanImportsMultiLineNotSupported(t *testing.T) {
	text := "import {\n  FaBeer,\n} from \"react-icons\";\n"
	symbols, _ := scan.ScanImports(text, deps.NewSet("react-icons"))
	assert.Empty(t, symbols)
}

func TestPackageName(t *testing.T) {
	assert.Equal(t, "react-icons", scan.PackageName("react-icons/fa"))
	assert.Equal(t, "react", scan.PackageName("react"))
	assert.Equal(t, "@mui/material", scan.PackageName("@mui/material/Button"))
	assert.Equal(t, "@mui/material", scan.PackageName("@mui/material"))
}

func TestScanUsagesOpenAndClose(t *testing.T) {
	text := "function App() {\n  return <Card>hi</Card>;\n}"
	matches, matched := scan.ScanUsages(text, []string{"Card"})

	require.Len(t, matches, 1)
	assert.True(t, matched["Card"])
	assert.Equal(t, rng(1, 10, 1, 14), matches[0].Open)
	require.NotNil(t, matches[0].Close)
	assert.Equal(t, rng(1, 19, 1, 23), *matches[0].Close)
	assert.Equal(t, "Card", textAt(text, matches[0].Open))
	assert.Equal(t, "Card", textAt(text, *matches[0].Close))
}

func TestScanUsagesSelfClosing(t *testing.T) {
	text := "return <A/>"
	matches, matched := scan.ScanUsages(text, []string{"A"})

	require.Len(t, matches, 1)
	assert.True(t, matched["A"])
	assert.Nil(t, matches[0].Close)
	assert.Equal(t, rng(0, 8, 0, 9), matches[0].Open)
}

func TestScanUsagesColumnsAreUTF16(t *testing.T) {
	text := "return <div>😀<B/></div>"
	matches, _ := scan.ScanUsages(text, []string{"B"})

	require.Len(t, matches, 1)
	assert.Equal(t, rng(0, 15, 0, 16), matches[0].Open)
	assert.Equal(t, "B", textAt(text, matches[0].Open))
}

func TestScanUsagesCRLF(t *testing.T) {
	text := "function App() {\r\n  return (\r\n    <Card>\r\n      é</Card>\r\n  );\r\n}\r\n"
	matches, _ := scan.ScanUsages(text, []string{"Card"})

	require.Len(t, matches, 1)
	assert.Equal(t, rng(2, 5, 2, 9), matches[0].Open)
	require.NotNil(t, matches[0].Close)
	assert.Equal(t, rng(3, 9, 3, 13), *matches[0].Close)
	assert.Equal(t, "Card", textAt(text, *matches[0].Close))
}

func TestScanUsagesClosingOnAnotherLine(t *testing.T) {
	text := "return (\n  <Card>\n    text\n  </Card>\n);"
	matches, _ := scan.ScanUsages(text, []string{"Card"})

	require.Len(t, matches, 1)
	assert.Equal(t, rng(1, 3, 1, 7), matches[0].Open)
	require.NotNil(t, matches[0].Close)
	assert.Equal(t, rng(3, 4, 3, 8), *matches[0].Close)
}

func TestScanUsagesEveryReturn(t *testing.T) {
	text := `import { A, B } from "dep";
function One() {
  return <A />;
}
function Two() {
  return <B></B>;
}`
	matches, matched := scan.ScanUsages(text, []string{"A", "B"})

	require.Len(t, matches, 2, "usages reachable from several return sites are reported once")
	assert.Equal(t, "A", matches[0].Name)
	assert.Equal(t, rng(2, 10, 2, 11), matches[0].Open)
	assert.Equal(t, "B", matches[1].Name)
	assert.Equal(t, rng(5, 10, 5, 11), matches[1].Open)
	require.NotNil(t, matches[1].Close)
	assert.Equal(t, rng(5, 14, 5, 15), *matches[1].Close)
	assert.True(t, matched["A"])
	assert.True(t, matched["B"])
}

func TestScanUsagesRepeatedOnOneLine(t *testing.T) {
	text := "return <A /><A />"
	matches, _ := scan.ScanUsages(text, []string{"A", "A"})

	require.Len(t, matches, 2)
	assert.Equal(t, rng(0, 8, 0, 9), matches[0].Open)
	assert.Equal(t, rng(0, 13, 0, 14), matches[1].Open)
}

func TestScanUsagesNested(t *testing.T) {
	text := "return (<A><A></A></A>)"
	matches, _ := scan.ScanUsages(text, []string{"A"})

	require.Len(t, matches, 2)
	assert.Equal(t, rng(0, 9, 0, 10), matches[0].Open)
	require.NotNil(t, matches[0].Close)
	assert.Equal(t, rng(0, 20, 0, 21), *matches[0].Close)
	assert.Equal(t, rng(0, 12, 0, 13), matches[1].Open)
	require.NotNil(t, matches[1].Close)
	assert.Equal(t, rng(0, 16, 0, 17), *matches[1].Close)
}

func TestScanUsagesUnclosedDoesNotStealSiblingClose(t *testing.T) {
	text := "return <div><A><B/><A>x</A></div>"
	matches, _ := scan.ScanUsages(text, []string{"A"})

	require.Len(t, matches, 2)
	assert.Equal(t, rng(0, 13, 0, 14), matches[0].Open)
	assert.Nil(t, matches[0].Close)
	assert.Equal(t, rng(0, 20, 0, 21), matches[1].Open)
	require.NotNil(t, matches[1].Close)
	assert.Equal(t, rng(0, 25, 0, 26), *matches[1].Close)
}

func TestScanUsagesNotFound(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		names []string
	}{
		{"orphan closing tag", "return <div></A></div>", []string{"A"}},
		{"before return", "const x = <A />;\nreturn null;", []string{"A"}},
		{"no return", "<A></A>", []string{"A"}},
		{"longer tag name", "return <FaBeerMug />", []string{"FaBeer"}},
		{"return inside identifier", "returnValue = <A />", []string{"A"}},
		{"unterminated", "return <A", []string{"A"}},
		{"no names", "return <A />", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			matches, matched := scan.ScanUsages(tt.text, tt.names)
			assert.Empty(t, matches)
			assert.Empty(t, matched)
		})
	}
}

func TestScanUsagesUnterminatedLeavesOthers(t *testing.T) {
	matches, matched := scan.ScanUsages("return <B/> <A", []string{"A", "B"})

	require.Len(t, matches, 1)
	assert.Equal(t, "B", matches[0].Name)
	assert.False(t, matched["A"])
}

func TestScanUsagesMemberTag(t *testing.T) {
	text := "return <motion.div>hi</motion.div>"
	matches, matched := scan.ScanUsages(text, []string{"motion"})

	require.Len(t, matches, 1)
	assert.True(t, matched["motion"])
	assert.Equal(t, rng(0, 8, 0, 14), matches[0].Open)
	assert.Nil(t, matches[0].Close)
}

func TestFilter(t *testing.T) {
	symbols := []scan.ImportedSymbol{
		{Name: "Used", Range: rng(0, 9, 0, 13)},
		{Name: "Unused", Range: rng(0, 15, 0, 21)},
		{Name: "Empty", Range: rng(0, 22, 0, 22)},
	}
	closeRange := rng(3, 4, 3, 8)
	usages := []scan.UsageMatch{
		{Name: "Used", Open: rng(2, 10, 2, 14), Close: &closeRange},
		{Name: "Stray", Open: rng(4, 1, 4, 6)},
	}
	matched := map[string]bool{"Used": true, "Empty": true}

	ranges := scan.Filter(symbols, usages, matched)
	assert.Equal(t, []scan.Range{
		rng(0, 9, 0, 13),
		rng(2, 10, 2, 14),
		rng(3, 4, 3, 8),
	}, ranges)
}

func TestHighlightUnusedImport(t *testing.T) {
	text := `import { Unused, Used } from "dep";
export default function Page() {
  const icon = <Unused />;
  return <Used>{icon}</Used>;
}`
	result := scan.Highlight(text, deps.NewSet("dep"))

	for _, r := range result.Ranges {
		assert.Equal(t, "Used", textAt(text, r))
	}
	assert.Len(t, result.Ranges, 3)
	assert.False(t, result.Matched["Unused"])
}

func TestHighlightUnknownDependency(t *testing.T) {
	text := "import { A } from \"local\";\nreturn <A />;"
	result := scan.Highlight(text, deps.NewSet("dep"))

	assert.Empty(t, result.Imports)
	assert.Empty(t, result.Ranges)
}

func TestResultSymbolAt(t *testing.T) {
	text := `import { Card, Icon } from "ui";
function App() {
  return <Card><Icon /></Card>;
}`
	result := scan.Highlight(text, deps.NewSet("ui"))
	require.Len(t, result.Ranges, 5)

	name, ok := result.SymbolAt(scan.Position{Line: 2, Character: 11})
	require.True(t, ok)
	assert.Equal(t, "Card", name)
	assert.Len(t, result.RangesOf("Card"), 3)
	assert.Len(t, result.RangesOf("Icon"), 2)
	assert.Empty(t, result.RangesOf("Missing"))

	_, ok = result.SymbolAt(scan.Position{Line: 1, Character: 0})
	assert.False(t, ok)
}

func TestResultNamed(t *testing.T) {
	text := `import { Card, Icon } from "ui";
function App() {
  return <Card><Icon /></Card>;
}`
	result := scan.Highlight(text, deps.NewSet("ui"))

	highlights := result.Named()
	require.Len(t, highlights, len(result.Ranges))
	for i, h := range highlights {
		assert.Equal(t, result.Ranges[i], h.Range)
		assert.Equal(t, h.Name, textAt(text, h.Range))
	}
}
