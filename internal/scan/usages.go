package scan

import (
	"liblinker/internal/textedit"
)

const returnKeyword = "return"

// ScanUsages finds tag-shaped occurrences of names in the text following
// every return keyword. An opening `<Name` drives the search: orphan closing
// tags are never reported. The second result holds every name found at
// least once.
func ScanUsages(text string, names []string) ([]UsageMatch, map[string]bool) {
	matched := make(map[string]bool)
	names = uniqueNames(names)
	if len(names) == 0 {
		return nil, matched
	}
	first := indexWord(text, returnKeyword, 0)
	if first < 0 {
		return nil, matched
	}

	// The text after the first return holds every later return as well.
	site := first + len(returnKeyword)
	li := textedit.NewLineIndex(text)
	var matches []UsageMatch
	for _, name := range names {
		matches = scanSite(text, li, site, name, matched, matches)
	}
	return matches, matched
}

func scanSite(
	text string,
	li *textedit.LineIndex,
	site int,
	name string,
	matched map[string]bool,
	matches []UsageMatch,
) []UsageMatch {
	open := "<" + name
	closing := "</" + name + ">"

	cursor := site
	for {
		start := indexFrom(text, open, cursor)
		if start < 0 {
			return matches
		}
		nameEnd := start + len(open)
		if nameEnd < len(text) && isIdentByte(text[nameEnd]) {
			// <NameSuffix is another tag
			cursor = start + 1
			continue
		}
		end := indexFrom(text, ">", nameEnd)
		if end < 0 {
			return matches
		}
		selfClosing := text[end-1] == '/'

		m := UsageMatch{
			Name: name,
			Open: Range{Start: li.Position(start + 1), End: li.Position(nameEnd)},
		}
		if !selfClosing {
			if c := matchClosing(text, open, closing, end+1); c >= 0 {
				r := Range{Start: li.Position(c + 2), End: li.Position(c + 2 + len(name))}
				m.Close = &r
			}
		}
		matches = append(matches, m)
		matched[name] = true

		cursor = end + 1
	}
}

// matchClosing returns the offset of the closing tag balancing an opening
// tag that ended just before from, or -1. Nested non-self-closing openings
// of the same name each consume one closing tag first.
func matchClosing(text, open, closing string, from int) int {
	depth := 0
	pos := from
	for {
		c := indexFrom(text, closing, pos)
		if c < 0 {
			return -1
		}
		for o := indexFrom(text, open, pos); o >= 0 && o < c; o = indexFrom(text, open, o+1) {
			nameEnd := o + len(open)
			if nameEnd < len(text) && isIdentByte(text[nameEnd]) {
				continue
			}
			gt := indexFrom(text, ">", nameEnd)
			if gt >= 0 && text[gt-1] != '/' {
				depth++
			}
		}
		if depth == 0 {
			return c
		}
		depth--
		pos = c + len(closing)
	}
}

func uniqueNames(names []string) []string {
	seen := make(map[string]bool, len(names))
	out := make([]string, 0, len(names))
	for _, name := range names {
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		out = append(out, name)
	}
	return out
}
