package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	prom "github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/codedoc/internal/metrics"
	"git.home.luguber.info/inful/codedoc/internal/watch"
)

// WatchCmd implements the 'watch' command.
type WatchCmd struct {
	Schedule string `help:"Override build.schedule (cron expression for periodic rebuilds)"`
}

func (w *WatchCmd) Run(g *Global, root *CLI) error {
	cfg, err := root.LoadConfig(g)
	if err != nil {
		return err
	}
	if w.Schedule != "" {
		cfg = cfg.Clone()
		cfg.Build.Schedule = w.Schedule
		if err := cfg.Validate(); err != nil {
			return err
		}
	}

	store, err := OpenStore(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	opts := []watch.ServiceOption{watch.WithLogger(g.Logger)}
	var reg *prom.Registry
	if cfg.Metrics.Enabled || cfg.Metrics.Textfile != "" {
		reg = metrics.NewRegistry()
		opts = append(opts, watch.WithRegistry(reg))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return watch.NewService(root.ConfigFile(), cfg, store, opts...).Run(ctx)
}
