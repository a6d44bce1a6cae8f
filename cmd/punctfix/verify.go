package main

import (
	"fmt"

	"github.com/FocuswithJustin/punctfix/core/cas"
)

// VerifyCmd re-hashes stored results.
type VerifyCmd struct {
	Hashes  []string `arg:"" help:"SHA-256 of stored results (as returned in result_sha256)"`
	DataDir string   `name:"data-dir" help:"Directory for stored results" default:"punctfix-data" type:"path" env:"PUNCTFIX_DATA_DIR"`
}

func (c *VerifyCmd) Run(g *Globals) error {
	store, err := cas.NewStore(c.DataDir)
	if err != nil {
		return err
	}

	bad := 0
	for _, h := range c.Hashes {
		ok, err := store.Verify(h)
		switch {
		case err != nil:
			fmt.Fprintf(g.Stdout, "error    %s: %v\n", h, err)
			bad++
		case !ok:
			fmt.Fprintf(g.Stdout, "corrupt  %s\n", h)
			bad++
		default:
			fmt.Fprintf(g.Stdout, "ok       %s\n", h)
		}
	}
	if bad > 0 {
		return fmt.Errorf("%d of %d results failed verification", bad, len(c.Hashes))
	}
	return nil
}
