package punct

import (
	"strings"
	"unicode/utf8"
)

func isASCIILetter(r rune) bool {
	return ('a' <= r && r <= 'z') || ('A' <= r && r <= 'Z')
}

func isASCIIDigit(r rune) bool {
	return '0' <= r && r <= '9'
}

func isNonASCII(r rune) bool {
	return r >= utf8.RuneSelf
}

// needsSpace reports whether a space belongs between prev and cur. Letters
// and digits never split from each other, so "Python3" stays joined.
func needsSpace(prev, cur rune) bool {
	return (isASCIILetter(prev) && isNonASCII(cur)) ||
		(isNonASCII(prev) && isASCIILetter(cur)) ||
		(isASCIIDigit(prev) && isNonASCII(cur)) ||
		(isNonASCII(prev) && isASCIIDigit(cur))
}

// InsertSpacing inserts one ASCII space at every boundary between a non-ASCII
// character and an ASCII letter or digit. Bytes of the input are copied
// through untouched.
func InsertSpacing(line string) string {
	if line == "" {
		return line
	}
	var b strings.Builder
	b.Grow(len(line) + len(line)/4)

	prev := rune(-1)
	for i := 0; i < len(line); {
		r, size := utf8.DecodeRuneInString(line[i:])
		if prev >= 0 && needsSpace(prev, r) {
			b.WriteByte(' ')
		}
		b.WriteString(line[i : i+size])
		prev = r
		i += size
	}
	return b.String()
}
