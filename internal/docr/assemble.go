package docr

import (
	"strings"
	"unicode"
)

// Assemble joins recognized lines into the final text, one line per row.
// Line order is never changed. For right-to-left languages the words of each
// line are reversed and every word, including the last, is followed by a
// single space; left-to-right lines only lose their trailing whitespace.
func Assemble(lines []string, isRTL bool) string {
	var sb strings.Builder
	for _, line := range lines {
		if isRTL {
			words := strings.FieldsFunc(line, isASCIISpace)
			for i := len(words) - 1; i >= 0; i-- {
				sb.WriteString(words[i])
				sb.WriteByte(' ')
			}
		} else {
			sb.WriteString(strings.TrimRightFunc(line, unicode.IsSpace))
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}

func isASCIISpace(r rune) bool {
	switch r {
	case ' ', '\t', '\n', '\f', '\r':
		return true
	}
	return false
}
