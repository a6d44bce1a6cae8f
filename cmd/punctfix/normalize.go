package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/FocuswithJustin/punctfix/core/cas"
	"github.com/FocuswithJustin/punctfix/core/punct"
	"github.com/FocuswithJustin/punctfix/internal/fileutil"
	"github.com/FocuswithJustin/punctfix/internal/journal"
	"github.com/FocuswithJustin/punctfix/internal/logging"
	"github.com/FocuswithJustin/punctfix/internal/validation"
	"github.com/FocuswithJustin/punctfix/internal/workerpool"
)

// EngineFlags are the options shared by fix and check.
type EngineFlags struct {
	Workers   int  `help:"Engine workers per file (0 = one per CPU)" default:"0"`
	FoldWidth bool `name:"fold-width" help:"Fold full-width letters and digits to ASCII first"`
}

func (f EngineFlags) options() (punct.Options, error) {
	if err := validation.ValidateWorkers(f.Workers); err != nil {
		return punct.Options{}, err
	}
	return punct.Options{FoldWidth: f.FoldWidth, Workers: f.Workers}, nil
}

// fileResult is one normalized input.
type fileResult struct {
	path   string
	input  string
	report punct.Report
	err    error
}

func displayName(path string) string {
	if path == "-" {
		return "<stdin>"
	}
	return path
}

// normalizeFiles runs the engine over every path concurrently. Results keep
// the order of paths; per-file failures are reported in fileResult.err.
func normalizeFiles(ctx context.Context, paths []string, opts punct.Options, j *journal.Journal, command string) ([]fileResult, error) {
	workers := min(len(paths), workerpool.DefaultWorkers)
	return workerpool.Map(ctx, workers, paths, func(ctx context.Context, path string) fileResult {
		res := fileResult{path: path}
		start := time.Now()

		res.input, res.err = fileutil.ReadText(path, 0)
		if res.err != nil {
			return res
		}
		out, err := punct.Run(ctx, res.input, opts)
		if err != nil {
			res.err = err
			return res
		}
		res.report = punct.Compare(res.input, out)
		elapsed := time.Since(start)

		logging.RunEvent(displayName(path), res.report.Lines, len(res.report.Changes), elapsed, "command", command)
		if j != nil {
			_, err := j.Record(ctx, journal.Run{
				Source:       displayName(path),
				Command:      command,
				InputBlake3:  cas.Blake3Hash([]byte(res.input)),
				OutputBlake3: cas.Blake3Hash([]byte(out)),
				Lines:        res.report.Lines,
				ChangedLines: len(res.report.Changes),
				Duration:     elapsed,
			})
			if err != nil {
				logging.Warn("journal write failed", "source", path, "error", err)
			}
		}
		return res
	})
}

// fileText is the output as written back to a file. Normalize drops a final
// line break, so one is restored when the input had it.
func (res fileResult) fileText() string {
	out := res.report.Output
	if out != "" && (strings.HasSuffix(res.input, "\n") || strings.HasSuffix(res.input, "\r")) {
		out += "\n"
	}
	return out
}

// reportFailures prints per-file errors and summarizes them.
func reportFailures(w io.Writer, results []fileResult) error {
	failed := 0
	for _, res := range results {
		if res.err != nil {
			fmt.Fprintf(w, "%s: %v\n", displayName(res.path), res.err)
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d inputs failed", failed, len(results))
	}
	return nil
}

// FixCmd normalizes files.
type FixCmd struct {
	Files  []string `arg:"" optional:"" help:"Files to normalize (default: stdin, \"-\" also reads stdin)"`
	Write  bool     `short:"w" help:"Rewrite files in place"`
	Out    string   `short:"o" help:"Write the result to this file instead of stdout"`
	Backup bool     `help:"Keep a copy as <file>.orig before rewriting in place"`

	EngineFlags
}

func (c *FixCmd) validate() error {
	switch {
	case c.Write && c.Out != "":
		return errors.New("--write and --out are mutually exclusive")
	case c.Write && len(c.Files) == 0:
		return errors.New("--write needs at least one file")
	case c.Backup && !c.Write:
		return errors.New("--backup only applies with --write")
	case c.Out != "" && len(c.Files) > 1:
		return errors.New("--out takes a single input")
	}
	if c.Write {
		for _, f := range c.Files {
			if f == "-" {
				return errors.New("cannot rewrite stdin in place")
			}
		}
	}
	return nil
}

func (c *FixCmd) Run(ctx context.Context, g *Globals) error {
	if err := c.validate(); err != nil {
		return err
	}
	opts, err := c.options()
	if err != nil {
		return err
	}
	j, err := g.openJournal(ctx)
	if err != nil {
		return err
	}
	if j != nil {
		defer j.Close()
	}

	files := c.Files
	if len(files) == 0 {
		files = []string{"-"}
	}
	results, err := normalizeFiles(ctx, files, opts, j, "fix")
	if err != nil {
		return err
	}

	for i := range results {
		res := &results[i]
		if res.err != nil {
			continue
		}
		switch {
		case c.Write:
			if !res.report.Changed() {
				continue
			}
			if c.Backup {
				if err := fileutil.CopyFile(res.path, res.path+".orig"); err != nil {
					res.err = err
					continue
				}
			}
			if err := fileutil.WriteText(res.path, res.fileText()); err != nil {
				return err
			}
			logging.Info("rewrote file", "path", res.path, "changed_lines", len(res.report.Changes))
		case c.Out != "":
			if err := fileutil.WriteText(c.Out, res.fileText()); err != nil {
				return err
			}
		default:
			// Every input ends on its own line so concatenated outputs stay apart.
			out := res.report.Output
			if out != "" && !strings.HasSuffix(out, "\n") {
				out += "\n"
			}
			if _, err := io.WriteString(g.Stdout, out); err != nil {
				return err
			}
		}
	}
	return reportFailures(g.Stderr, results)
}

// CheckCmd lists inputs that fix would change.
type CheckCmd struct {
	Files []string `arg:"" optional:"" help:"Files to check (default: stdin)"`
	Diff  bool     `help:"Print each changed line before and after"`

	EngineFlags
}

func (c *CheckCmd) Run(ctx context.Context, g *Globals) error {
	opts, err := c.options()
	if err != nil {
		return err
	}
	j, err := g.openJournal(ctx)
	if err != nil {
		return err
	}
	if j != nil {
		defer j.Close()
	}

	files := c.Files
	if len(files) == 0 {
		files = []string{"-"}
	}
	results, err := normalizeFiles(ctx, files, opts, j, "check")
	if err != nil {
		return err
	}

	changed := 0
	for _, res := range results {
		if res.err != nil || !res.report.Changed() {
			continue
		}
		changed++
		name := displayName(res.path)
		if !c.Diff {
			fmt.Fprintln(g.Stdout, name)
			continue
		}
		for _, ch := range res.report.Changes {
			fmt.Fprintf(g.Stdout, "%s:%d\n- %s\n+ %s\n", name, ch.Line, ch.Before, ch.After)
		}
	}
	if err := reportFailures(g.Stderr, results); err != nil {
		return err
	}
	if changed > 0 {
		return errWouldChange
	}
	return nil
}

// ExplainCmd traces a single line through the pipeline.
type ExplainCmd struct {
	Line      string `arg:"" help:"Line to trace"`
	FoldWidth bool   `name:"fold-width" help:"Fold full-width letters and digits to ASCII first"`
}

func (c *ExplainCmd) Run(g *Globals) error {
	line := c.Line
	if len(punct.SplitLines(line)) > 1 {
		return errors.New("explain takes a single line")
	}
	if c.FoldWidth {
		line = punct.FoldWidth(line)
	}

	trace := punct.TraceLine(line)
	width := 0
	for _, t := range trace {
		width = max(width, len(t.Stage))
	}
	prev := trace[0].Line
	for i, t := range trace {
		mark := " "
		if i > 0 && t.Line != prev {
			mark = "*"
		}
		fmt.Fprintf(g.Stdout, "%s %-*s  %q\n", mark, width, t.Stage, t.Line)
		prev = t.Line
	}
	fmt.Fprintln(g.Stdout, strings.Repeat("-", width+4))
	fmt.Fprintln(g.Stdout, trace[len(trace)-1].Line)
	return nil
}
