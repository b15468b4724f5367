package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	prom "github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/codedoc/internal/logfields"
	"git.home.luguber.info/inful/codedoc/internal/metrics"
	"git.home.luguber.info/inful/codedoc/internal/site"
)

// BuildCmd implements the 'build' command.
type BuildCmd struct {
	Input  string `short:"i" help:"Override build.input"`
	Output string `short:"o" help:"Override build.output"`
	Force  bool   `short:"f" help:"Re-render every page, ignoring recorded fingerprints"`
}

func (b *BuildCmd) Run(g *Global, root *CLI) error {
	cfg, err := root.LoadConfig(g)
	if err != nil {
		return err
	}
	if b.Input != "" || b.Output != "" {
		cfg = cfg.Clone()
		if b.Input != "" {
			cfg.Build.Input = b.Input
		}
		if b.Output != "" {
			cfg.Build.Output = b.Output
		}
		if err := cfg.Validate(); err != nil {
			return err
		}
	}

	store, err := OpenStore(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	var recorder metrics.Recorder = metrics.NoopRecorder{}
	var reg *prom.Registry
	if cfg.Metrics.Textfile != "" {
		reg = prom.NewRegistry()
		recorder = metrics.NewPrometheusRecorder(reg)
	}

	builder, err := site.NewBuilder(cfg, store,
		site.WithRecorder(recorder),
		site.WithLogger(g.Logger),
		site.WithForce(b.Force))
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	report, buildErr := builder.Build(ctx)

	if reg != nil {
		if err := metrics.WriteTextfile(cfg.Metrics.Textfile, reg); err != nil {
			g.Logger.Warn("Failed to write metrics textfile", logfields.Path(cfg.Metrics.Textfile), logfields.Error(err))
		}
	}
	if buildErr != nil {
		return buildErr
	}

	_, _ = fmt.Fprintf(g.Stdout, "Built %s: %d rendered, %d unchanged, %d removed, %d search entries (build %s)\n",
		cfg.Build.Output, len(report.Rendered), len(report.Skipped), len(report.Removed), report.SearchEntries, report.BuildID)
	return nil
}
