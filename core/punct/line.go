package punct

// NormalizeLine runs the full pipeline over a single line: every rule in
// Rules order, then InsertSpacing, then PostProcessMarkers.
func NormalizeLine(line string) string {
	for _, r := range pipeline {
		line = r.Apply(line)
	}
	line = InsertSpacing(line)
	return PostProcessMarkers(line)
}

// Trace is the line after each stage of the pipeline.
type Trace struct {
	Stage string
	Line  string
}

// TraceLine is NormalizeLine with every intermediate result recorded. The
// last entry holds the same value NormalizeLine returns.
func TraceLine(line string) []Trace {
	out := make([]Trace, 0, len(pipeline)+3)
	out = append(out, Trace{Stage: "input", Line: line})
	for _, r := range pipeline {
		line = r.Apply(line)
		out = append(out, Trace{Stage: r.Name(), Line: line})
	}
	line = InsertSpacing(line)
	out = append(out, Trace{Stage: "spacing", Line: line})
	line = PostProcessMarkers(line)
	out = append(out, Trace{Stage: "markers", Line: line})
	return out
}
