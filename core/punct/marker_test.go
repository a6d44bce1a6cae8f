package punct

import (
	"reflect"
	"testing"
)

func TestFindPairMarkers(t *testing.T) {
	tests := []struct {
		name string
		line string
		want []PairMatch
	}{
		{"none", "plain text", nil},
		{"one pair", "**粗体**", []PairMatch{
			{Marker: "**", OpenStart: 0, OpenEnd: 2, CloseStart: 4, CloseEnd: 6},
		}},
		{"two pairs", "**a** and **b**", []PairMatch{
			{Marker: "**", OpenStart: 0, OpenEnd: 2, CloseStart: 3, CloseEnd: 5},
			{Marker: "**", OpenStart: 10, OpenEnd: 12, CloseStart: 13, CloseEnd: 15},
		}},
		{"odd count leaves last inert", "**a** **b", []PairMatch{
			{Marker: "**", OpenStart: 0, OpenEnd: 2, CloseStart: 3, CloseEnd: 5},
		}},
		{"single occurrence", "**a", []PairMatch{}},
		{"non-overlapping scan", "***", []PairMatch{}},
		{"four stars", "****", []PairMatch{
			{Marker: "**", OpenStart: 0, OpenEnd: 2, CloseStart: 2, CloseEnd: 4},
		}},
		{"rune offsets", "中文**粗体**", []PairMatch{
			{Marker: "**", OpenStart: 2, OpenEnd: 4, CloseStart: 6, CloseEnd: 8},
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FindPairMarkers(tt.line, "**")
			if len(got) == 0 && len(tt.want) == 0 {
				return
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("FindPairMarkers(%q) = %+v, want %+v", tt.line, got, tt.want)
			}
		})
	}
}

func TestFindPairMarkersInvariant(t *testing.T) {
	line := "** a ** 中 **b** ~~c~~ ** d **"
	for _, m := range []Marker{"**", "~~"} {
		for _, p := range FindPairMarkers(line, m) {
			n := len([]rune(string(m)))
			if !(p.OpenStart < p.OpenEnd && p.OpenEnd <= p.CloseStart && p.CloseStart < p.CloseEnd) {
				t.Errorf("%q: offsets out of order: %+v", m, p)
			}
			if p.OpenEnd-p.OpenStart != n || p.CloseEnd-p.CloseStart != n {
				t.Errorf("%q: span length mismatch: %+v", m, p)
			}
		}
	}
}

func TestFindPairMarkersEmptyMarker(t *testing.T) {
	if got := FindPairMarkers("abc", ""); got != nil {
		t.Errorf("FindPairMarkers with empty marker = %+v, want nil", got)
	}
}

func TestStripInsideMarkers(t *testing.T) {
	tests := []struct {
		name string
		line string
		want string
	}{
		{"no pairs", "no markers here ", "no markers here "},
		{"space before close", "**参考资料: **", "**参考资料:**"},
		{"space after open", "** 粗体**", "**粗体**"},
		{"both sides", "**  粗体  **", "**粗体**"},
		{"outside untouched", "前 ** 粗体 ** 后", "前 **粗体** 后"},
		{"two pairs", "** a ** ** b **", "**a** **b**"},
		{"odd marker inert", "** a ** ** b", "**a** ** b"},
		{"only spaces inside", "**   **", "****"},
		{"adjacent pairs", "** a **** b **", "**a****b**"},
		{"invalid utf8 kept", "\xff** 中 **\xfe", "\xff**中**\xfe"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := StripInsideMarkers(tt.line, FindPairMarkers(tt.line, "**"))
			if got != tt.want {
				t.Errorf("StripInsideMarkers(%q) = %q, want %q", tt.line, got, tt.want)
			}
		})
	}
}

func TestStripInsideMarkersUnsortedInput(t *testing.T) {
	line := "** a ** ** b **"
	pairs := FindPairMarkers(line, "**")
	reversed := []PairMatch{pairs[1], pairs[0]}
	if got, want := StripInsideMarkers(line, reversed), "**a** **b**"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
	// the caller's slice is not reordered
	if reversed[0].OpenStart < reversed[1].OpenStart {
		t.Error("input slice was sorted in place")
	}
}

func TestPostProcessMarkers(t *testing.T) {
	if got, want := PostProcessMarkers("注意: ** 这很着急. **"), "注意: **这很着急.**"; got != want {
		t.Errorf("PostProcessMarkers = %q, want %q", got, want)
	}
}

func TestPostProcessMarkersKeepsInvalidUTF8(t *testing.T) {
	if got, want := PostProcessMarkers("a\x80 ** b **"), "a\x80 **b**"; got != want {
		t.Errorf("PostProcessMarkers = %q, want %q", got, want)
	}
}

func TestMarkersReturnsCopy(t *testing.T) {
	m := Markers()
	if !reflect.DeepEqual(m, []Marker{"**"}) {
		t.Fatalf("Markers() = %v", m)
	}
	m[0] = "__"
	if Markers()[0] != "**" {
		t.Error("Markers() exposed the package slice")
	}
}
