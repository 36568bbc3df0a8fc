package scan

import "strings"

// indexFrom is strings.Index starting at byte offset from.
func indexFrom(s, substr string, from int) int {
	if from > len(s) {
		return -1
	}
	if from < 0 {
		from = 0
	}
	i := strings.Index(s[from:], substr)
	if i < 0 {
		return -1
	}
	return from + i
}
