package main

import (
	"context"
	"encoding/json"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/FocuswithJustin/punctfix/internal/api"
	"github.com/FocuswithJustin/punctfix/internal/journal"
)

// ServeCmd starts the REST API server.
type ServeCmd struct {
	Host            string        `help:"Listen address" default:"127.0.0.1" env:"PUNCTFIX_HOST"`
	Port            int           `help:"HTTP server port" default:"8080" env:"PUNCTFIX_PORT"`
	DataDir         string        `name:"data-dir" help:"Directory for stored results" default:"punctfix-data" type:"path" env:"PUNCTFIX_DATA_DIR"`
	RateLimit       int           `name:"rate-limit" help:"Requests per minute per client (0 disables)" default:"120"`
	RateBurst       int           `name:"rate-burst" help:"Rate limiter burst size" default:"20"`
	MaxBody         int           `name:"max-body" help:"Largest accepted text in bytes (0 = 16 MiB)" default:"0"`
	CacheTTL        time.Duration `name:"cache-ttl" help:"Result cache lifetime (0 disables)" default:"10m"`
	CacheSize       int           `name:"cache-size" help:"Result cache entries" default:"1024"`
	JobWorkers      int           `name:"job-workers" help:"Concurrent async jobs" default:"2"`
	JobQueue        int           `name:"job-queue" help:"Queued jobs before new ones are refused" default:"64"`
	Workers         int           `help:"Engine workers per request (0 = one per CPU)" default:"0"`
	APIKey          string        `name:"api-key" help:"Require this key in X-API-Key (empty disables auth)" env:"PUNCTFIX_API_KEY"`
	AllowedOrigins  []string      `name:"allowed-origin" help:"Allowed CORS and websocket origins (repeatable)" env:"PUNCTFIX_ALLOWED_ORIGINS"`
	ShutdownTimeout time.Duration `name:"shutdown-timeout" help:"Grace period for in-flight requests" default:"10s"`
}

func (c *ServeCmd) config() api.Config {
	cfg := api.DefaultConfig()
	cfg.Host = c.Host
	cfg.Port = c.Port
	cfg.DataDir = c.DataDir
	cfg.RateLimitRequests = c.RateLimit
	cfg.RateLimitBurst = c.RateBurst
	cfg.MaxBodyBytes = c.MaxBody
	cfg.CacheTTL = c.CacheTTL
	cfg.CacheSize = c.CacheSize
	cfg.JobWorkers = c.JobWorkers
	cfg.JobQueue = c.JobQueue
	cfg.Workers = c.Workers
	cfg.ShutdownTimeout = c.ShutdownTimeout
	cfg.Auth = api.AuthConfig{Enabled: c.APIKey != "", APIKey: c.APIKey}
	cfg.AllowedOrigins = c.AllowedOrigins
	return cfg
}

func (c *ServeCmd) Run(ctx context.Context, g *Globals) error {
	cfg := c.config()
	if err := cfg.Validate(); err != nil {
		return err
	}
	j, err := g.openJournal(ctx)
	if err != nil {
		return err
	}
	if j != nil {
		defer j.Close()
	}

	srv, err := api.New(cfg, j, version)
	if err != nil {
		return err
	}
	return srv.Start(ctx)
}

// HistoryCmd lists journal rows, newest first.
type HistoryCmd struct {
	Limit   int    `short:"n" help:"Number of runs to show" default:"20"`
	Source  string `help:"Only runs for this file or API source"`
	Changed bool   `help:"Only runs that changed at least one line"`
	JSON    bool   `help:"Print one JSON object per line"`

	PruneOlderThan time.Duration `name:"prune-older-than" help:"Delete runs older than this instead of listing"`
}

func (c *HistoryCmd) Run(ctx context.Context, g *Globals) error {
	j, err := g.openJournal(ctx)
	if err != nil {
		return err
	}
	if j == nil {
		return fmt.Errorf("journal is disabled")
	}
	defer j.Close()

	if c.PruneOlderThan > 0 {
		n, err := j.Prune(ctx, time.Now().Add(-c.PruneOlderThan))
		if err != nil {
			return err
		}
		fmt.Fprintf(g.Stdout, "pruned %d runs\n", n)
		return nil
	}

	runs, err := j.List(ctx, journal.Filter{Source: c.Source, ChangedOnly: c.Changed, Limit: c.Limit})
	if err != nil {
		return err
	}

	if c.JSON {
		enc := json.NewEncoder(g.Stdout)
		for _, r := range runs {
			if err := enc.Encode(r); err != nil {
				return err
			}
		}
		return nil
	}

	tw := tabwriter.NewWriter(g.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTIME\tCOMMAND\tSOURCE\tLINES\tCHANGED\tDURATION")
	for _, r := range runs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%d\t%s\n",
			r.ID[:8], r.CreatedAt.Local().Format(time.DateTime), r.Command, r.Source,
			r.Lines, r.ChangedLines, r.Duration.Round(time.Microsecond))
	}
	return tw.Flush()
}
