package punct

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// isSpace reports whether r is stripped by trimming. Besides Unicode
// White_Space this includes the ASCII information separators U+001C..U+001F.
func isSpace(r rune) bool {
	return unicode.IsSpace(r) || (r >= 0x1c && r <= 0x1f)
}

func strip(s string) string {
	return strings.TrimFunc(s, isSpace)
}

func rstrip(s string) string {
	return strings.TrimRightFunc(s, isSpace)
}

// endsWithMark reports whether the right-trimmed line ends in mark.
// A line that trims to nothing never matches.
func endsWithMark(line string, mark rune) bool {
	t := rstrip(line)
	if t == "" {
		return false
	}
	last, _ := utf8.DecodeLastRuneInString(t)
	return last == mark
}

// fragments splits line on every occurrence of mark, trims each piece and
// drops the pieces that end up empty.
func fragments(line string, mark rune) []string {
	parts := strings.Split(line, string(mark))
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strip(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func firstRune(s string) rune {
	r, _ := utf8.DecodeRuneInString(s)
	return r
}
