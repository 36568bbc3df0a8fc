package textedit

import (
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	protocol "github.com/tliron/glsp/protocol_3_16"
)

// LineIndex maps byte offsets of a document snapshot to LSP positions.
type LineIndex struct {
	text   string
	starts []int
}

// NewLineIndex records the byte offset at which every line of text starts.
func NewLineIndex(text string) *LineIndex {
	starts := []int{0}
	for i := 0; i < len(text); i++ {
		if text[i] == '\n' {
			starts = append(starts, i+1)
		}
	}
	return &LineIndex{text: text, starts: starts}
}

// LineOf returns the zero-based line containing offset.
func (li *LineIndex) LineOf(offset int) int {
	// first start strictly greater than offset, minus one
	return sort.Search(len(li.starts), func(i int) bool { return li.starts[i] > offset }) - 1
}

// Position converts a byte offset into an LSP position.
func (li *LineIndex) Position(offset int) protocol.Position {
	if offset < 0 {
		offset = 0
	}
	if offset > len(li.text) {
		offset = len(li.text)
	}
	line := li.LineOf(offset)
	start := li.starts[line]
	return protocol.Position{
		Line:      protocol.UInteger(line),
		Character: UTF16Len(li.text[start:offset]),
	}
}

// UTF16Len counts the UTF-16 code units needed to encode s.
func UTF16Len(s string) protocol.UInteger {
	var n protocol.UInteger
	for _, r := range s {
		// Each codepoint uses 1 or 2 UTF-16 code units
		if r > 0xFFFF {
			n += 2
		} else {
			n++
		}
	}
	return n
}

// PositionToOffset computes the byte offset of an LSP position in document.
// Out of range lines clamp to the last line, out of range characters to the
// end of the line.
func PositionToOffset(document string, pos protocol.Position) int {
	lines := strings.Split(document, "\n")
	if int(pos.Line) >= len(lines) {
		pos.Line = protocol.UInteger(len(lines) - 1)
		pos.Character = UTF16Len(lines[pos.Line])
	}
	offset := 0
	for i := protocol.UInteger(0); i < pos.Line; i++ {
		offset += len(lines[i]) + 1
	}
	// Traverse runes in target line to match UTF-16 character count
	var charCount protocol.UInteger
	for _, r := range lines[pos.Line] {
		unitCount := protocol.UInteger(1)
		if r > 0xFFFF {
			unitCount = 2
		}
		if charCount+unitCount > pos.Character {
			break
		}
		charCount += unitCount
		offset += utf8.RuneLen(r)
	}
	return offset
}

// ApplyChange applies one LSP content change event to document. Both the
// ranged and the whole-document forms are accepted.
func ApplyChange(document string, raw any) (string, error) {
	switch change := raw.(type) {
	case protocol.TextDocumentContentChangeEvent:
		if change.Range == nil {
			return change.Text, nil
		}
		return splice(document, *change.Range, change.Text), nil
	case protocol.TextDocumentContentChangeEventWhole:
		return change.Text, nil
	default:
		return document, fmt.Errorf("unexpected change event type %T", raw)
	}
}

func splice(document string, r protocol.Range, text string) string {
	startOffset := PositionToOffset(document, r.Start)
	endOffset := PositionToOffset(document, r.End)
	if endOffset < startOffset {
		startOffset, endOffset = endOffset, startOffset
	}
	return document[:startOffset] + text + document[endOffset:]
}
