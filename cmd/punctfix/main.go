// Command punctfix rewrites Chinese full-width punctuation in mixed
// Chinese/English text into English punctuation with normalized spacing.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/alecthomas/kong"

	"github.com/FocuswithJustin/punctfix/core/sqlite"
	"github.com/FocuswithJustin/punctfix/internal/journal"
	"github.com/FocuswithJustin/punctfix/internal/logging"
)

const version = "0.1.0"

// errWouldChange makes check exit with status 1 without printing an error.
var errWouldChange = errors.New("files would change")

// Globals are flags shared by every command.
type Globals struct {
	LogLevel  string `name:"log-level" help:"Log level" default:"warn" enum:"debug,info,warn,error" env:"PUNCTFIX_LOG_LEVEL"`
	LogFormat string `name:"log-format" help:"Log format" default:"text" enum:"json,text" env:"PUNCTFIX_LOG_FORMAT"`
	Journal   string `help:"Run journal database (\"off\" disables it)" default:"${journal}" env:"PUNCTFIX_JOURNAL"`

	Stdout io.Writer `kong:"-"`
	Stderr io.Writer `kong:"-"`
}

// CLI defines the command-line interface for punctfix.
type CLI struct {
	Globals

	Fix     FixCmd     `cmd:"" help:"Normalize files, or stdin to stdout"`
	Check   CheckCmd   `cmd:"" help:"Report files that fix would change"`
	Explain ExplainCmd `cmd:"" help:"Show a line after every pipeline stage"`
	Serve   ServeCmd   `cmd:"" help:"Start REST API server"`
	History HistoryCmd `cmd:"" help:"List recent runs from the journal"`
	Verify  VerifyCmd  `cmd:"" help:"Check stored results against their hashes"`
	Version VersionCmd `cmd:"" help:"Print version information"`
}

func (g *Globals) initLogging() error {
	level, err := logging.ParseLevel(g.LogLevel)
	if err != nil {
		return err
	}
	format, err := logging.ParseFormat(g.LogFormat)
	if err != nil {
		return err
	}
	logging.InitLoggerTo(g.Stderr, level, format)
	return nil
}

// openJournal returns nil when the journal is disabled.
func (g *Globals) openJournal(ctx context.Context) (*journal.Journal, error) {
	if g.Journal == "" || g.Journal == "off" {
		return nil, nil
	}
	if err := os.MkdirAll(filepath.Dir(g.Journal), 0755); err != nil {
		return nil, fmt.Errorf("journal directory: %w", err)
	}
	return journal.Open(ctx, g.Journal)
}

func defaultJournalPath() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		return "off"
	}
	return filepath.Join(dir, "punctfix", "journal.db")
}

// run parses args, executes the selected command and returns the exit status:
// 0 on success, 1 when check finds changes, 2 on any error.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	var cli CLI
	cli.Stdout, cli.Stderr = stdout, stderr

	exitCode := -1
	parser, err := kong.New(&cli,
		kong.Name("punctfix"),
		kong.Description("Chinese to English punctuation and spacing normalizer"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
		kong.Vars{"journal": defaultJournalPath()},
		kong.Writers(stdout, stderr),
		kong.Exit(func(code int) {
			if exitCode < 0 {
				exitCode = code
			}
		}),
	)
	if err != nil {
		fmt.Fprintf(stderr, "punctfix: %v\n", err)
		return 2
	}

	kctx, err := parser.Parse(args)
	if exitCode >= 0 {
		// --help and friends.
		return exitCode
	}
	if err != nil {
		fmt.Fprintf(stderr, "punctfix: error: %v\n", err)
		return 2
	}
	if err := cli.initLogging(); err != nil {
		fmt.Fprintf(stderr, "punctfix: error: %v\n", err)
		return 2
	}

	kctx.BindTo(ctx, (*context.Context)(nil))
	err = kctx.Run(&cli.Globals)
	switch {
	case errors.Is(err, errWouldChange):
		return 1
	case err != nil:
		fmt.Fprintf(stderr, "punctfix: error: %v\n", err)
		return 2
	}
	return 0
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// VersionCmd prints the version and the compiled-in SQLite driver.
type VersionCmd struct{}

func (c *VersionCmd) Run(g *Globals) error {
	fmt.Fprintf(g.Stdout, "punctfix version %s (sqlite: %s)\n", version, sqlite.DriverType())
	return nil
}
