package punct

import (
	"cmp"
	"slices"
	"strings"
)

// Marker is a literal delimiter whose paired occurrences bound a region that
// must not carry spaces just inside its edges.
type Marker string

// markers is the fixed set of paired markers cleaned by PostProcessMarkers.
var markers = []Marker{"**"}

// Markers returns the paired markers in cleanup order. The slice is a copy.
func Markers() []Marker {
	return slices.Clone(markers)
}

// PairMatch records one paired occurrence of a marker. Offsets are rune
// indices into the line; the open and close spans are half-open.
type PairMatch struct {
	Marker     Marker
	OpenStart  int
	OpenEnd    int
	CloseStart int
	CloseEnd   int
}

// FindPairMarkers scans line left to right for non-overlapping occurrences of
// m and pairs them in order: first with second, third with fourth. An odd
// final occurrence is left out and stays inert.
func FindPairMarkers(line string, m Marker) []PairMatch {
	if m == "" || !strings.Contains(line, string(m)) {
		return nil
	}
	rs := []rune(line)
	mr := []rune(string(m))

	var positions []int
	for start := 0; start+len(mr) <= len(rs); {
		i := indexRunes(rs[start:], mr)
		if i < 0 {
			break
		}
		positions = append(positions, start+i)
		start += i + len(mr)
	}

	pairs := make([]PairMatch, 0, len(positions)/2)
	for i := 0; i+1 < len(positions); i += 2 {
		open, closing := positions[i], positions[i+1]
		pairs = append(pairs, PairMatch{
			Marker:     m,
			OpenStart:  open,
			OpenEnd:    open + len(mr),
			CloseStart: closing,
			CloseEnd:   closing + len(mr),
		})
	}
	return pairs
}

func indexRunes(s, sub []rune) int {
	for i := 0; i+len(sub) <= len(s); i++ {
		if slices.Equal(s[i:i+len(sub)], sub) {
			return i
		}
	}
	return -1
}

// StripInsideMarkers removes the spaces directly after each pair's opening
// marker and directly before its closing marker. Rune offsets are mapped to
// byte offsets, so bytes that are not valid UTF-8 pass through unchanged.
//
// Pairs are applied from the rightmost OpenStart down so that deleting bytes
// never shifts an offset that is still to be used. Within a pair the region
// before CloseStart goes first for the same reason.
func StripInsideMarkers(line string, pairs []PairMatch) string {
	if len(pairs) == 0 {
		return line
	}
	ordered := slices.Clone(pairs)
	slices.SortFunc(ordered, func(a, b PairMatch) int {
		return cmp.Compare(b.OpenStart, a.OpenStart)
	})

	// offs[i] is the byte offset of rune i; the extra entry is len(line).
	offs := make([]int, 0, len(line)+1)
	for i := range line {
		offs = append(offs, i)
	}
	offs = append(offs, len(line))

	b := []byte(line)
	for _, p := range ordered {
		end := offs[p.CloseStart]
		start := end
		for start > 0 && b[start-1] == ' ' {
			start--
		}
		b = slices.Delete(b, start, end)

		start = offs[p.OpenEnd]
		end = start
		for end < len(b) && b[end] == ' ' {
			end++
		}
		b = slices.Delete(b, start, end)
	}
	return string(b)
}

// PostProcessMarkers runs the pair cleanup for every marker in Markers, each
// marker seeing the output of the previous one.
func PostProcessMarkers(line string) string {
	for _, m := range markers {
		line = StripInsideMarkers(line, FindPairMarkers(line, m))
	}
	return line
}
