package punct

import (
	"context"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/width"

	"github.com/FocuswithJustin/punctfix/internal/workerpool"
)

// isLineBreak reports whether r ends a line. "\r\n" is handled by SplitLines.
func isLineBreak(r rune) bool {
	switch r {
	case '\n', '\r', '\v', '\f', 0x1c, 0x1d, 0x1e, 0x85, 0x2028, 0x2029:
		return true
	}
	return false
}

// SplitLines splits text on line boundaries. "\r\n" counts as one boundary
// and a boundary at the very end does not produce an extra empty line, so
// SplitLines("") returns no lines.
func SplitLines(text string) []string {
	var lines []string
	start := 0
	for i := 0; i < len(text); {
		r, size := utf8.DecodeRuneInString(text[i:])
		if !isLineBreak(r) {
			i += size
			continue
		}
		lines = append(lines, text[start:i])
		i += size
		if r == '\r' && i < len(text) && text[i] == '\n' {
			i++
		}
		start = i
	}
	if start < len(text) {
		lines = append(lines, text[start:])
	}
	return lines
}

// Normalize applies NormalizeLine to every line of text independently and
// joins the results with "\n".
func Normalize(text string) string {
	lines := SplitLines(text)
	for i, l := range lines {
		lines[i] = NormalizeLine(l)
	}
	return strings.Join(lines, "\n")
}

// chunkLines is the number of lines handed to a worker at a time.
const chunkLines = 256

// NormalizeConcurrent produces the same output as Normalize, spreading the
// lines over up to workers goroutines. Zero or negative workers picks
// workerpool.DefaultWorkers; one worker and inputs of at most chunkLines
// lines run inline. It returns ctx.Err() if ctx is cancelled before completion.
func NormalizeConcurrent(ctx context.Context, text string, workers int) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	lines := SplitLines(text)
	if workers == 1 || len(lines) <= chunkLines {
		return Normalize(text), nil
	}

	var chunks [][]string
	for start := 0; start < len(lines); start += chunkLines {
		chunks = append(chunks, lines[start:min(start+chunkLines, len(lines))])
	}

	done, err := workerpool.Map(ctx, workers, chunks, func(ctx context.Context, chunk []string) []string {
		out := make([]string, len(chunk))
		for i, l := range chunk {
			out[i] = NormalizeLine(l)
		}
		return out
	})
	if err != nil {
		return "", err
	}

	out := make([]string, 0, len(lines))
	for _, c := range done {
		out = append(out, c...)
	}
	return strings.Join(out, "\n"), nil
}

// Options tune a document run. The zero value is the plain Normalize pass.
type Options struct {
	// FoldWidth narrows full-width ASCII letters and digits (Ａ, １) before
	// normalizing so they take part in CJK/Latin spacing. Full-width
	// punctuation is left to the rules.
	FoldWidth bool `json:"fold_width,omitempty"`
	// Workers bounds the goroutines used for large inputs. Zero picks a
	// default, one disables concurrency.
	Workers int `json:"workers,omitempty"`
}

var fullwidthAlnum = runes.Predicate(func(r rune) bool {
	return ('０' <= r && r <= '９') || ('Ａ' <= r && r <= 'Ｚ') || ('ａ' <= r && r <= 'ｚ')
})

// FoldWidth maps full-width letters and digits to ASCII and leaves every
// other character alone.
func FoldWidth(text string) string {
	out, _, err := transform.String(runes.If(fullwidthAlnum, width.Narrow, nil), text)
	if err != nil {
		return text
	}
	return out
}

// Run normalizes text according to opts.
func Run(ctx context.Context, text string, opts Options) (string, error) {
	if opts.FoldWidth {
		text = FoldWidth(text)
	}
	return NormalizeConcurrent(ctx, text, opts.Workers)
}

// LineChange describes one line that the pipeline rewrote. Line is 1-based.
type LineChange struct {
	Line   int    `json:"line"`
	Before string `json:"before"`
	After  string `json:"after"`
}

// Report summarizes a document run line by line.
type Report struct {
	Output  string       `json:"output"`
	Lines   int          `json:"lines"`
	Changes []LineChange `json:"changes,omitempty"`
}

// Changed reports whether any line differs from its input.
func (r Report) Changed() bool {
	return len(r.Changes) > 0
}

// Diff normalizes text and records every line whose output differs from its
// input. Output is identical to Normalize(text).
func Diff(text string) Report {
	return Compare(text, Normalize(text))
}

// Compare builds a Report from an input and an output that has the same
// number of lines, such as the result of Run.
func Compare(input, output string) Report {
	in, out := SplitLines(input), SplitLines(output)
	rep := Report{Output: output, Lines: len(out)}
	for i, after := range out {
		var before string
		if i < len(in) {
			before = in[i]
		}
		if before != after {
			rep.Changes = append(rep.Changes, LineChange{Line: i + 1, Before: before, After: after})
		}
	}
	return rep
}
