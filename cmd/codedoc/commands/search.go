package commands

import (
	"context"
	"fmt"
	"strings"
)

// SearchCmd implements the 'search' command.
type SearchCmd struct {
	Query []string `arg:"" help:"Search terms"`
	Limit int      `short:"n" default:"10" help:"Maximum number of results"`
}

func (s *SearchCmd) Run(g *Global, root *CLI) error {
	cfg, err := root.LoadConfig(g)
	if err != nil {
		return err
	}
	store, err := OpenStore(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	query := strings.Join(s.Query, " ")
	results, err := store.Search(context.Background(), query, s.Limit)
	if err != nil {
		return err
	}
	if len(results) == 0 {
		_, _ = fmt.Fprintf(g.Stdout, "No results for %q\n", query)
		if cfg.Search.ExternalURL != "" && !cfg.Search.Disabled {
			_, _ = fmt.Fprintf(g.Stdout, "Try: %s\n", cfg.Search.ExternalSearchURL(query))
		}
		return nil
	}
	for _, r := range results {
		_, _ = fmt.Fprintf(g.Stdout, "%s\t%s%s\n", r.Title, cfg.Search.BaseURL, r.URL)
	}
	return nil
}
