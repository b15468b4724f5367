package site

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/codedoc/internal/config"
	"git.home.luguber.info/inful/codedoc/internal/filters"
	"git.home.luguber.info/inful/codedoc/internal/highlight"
	"git.home.luguber.info/inful/codedoc/internal/index"
	"git.home.luguber.info/inful/codedoc/internal/logfields"
	"git.home.luguber.info/inful/codedoc/internal/metrics"
	"git.home.luguber.info/inful/codedoc/internal/render"
	"git.home.luguber.info/inful/codedoc/internal/vcs"
)

// Builder renders the configured input directory into the output directory.
type Builder struct {
	cfg         *config.Config
	store       *index.Store
	markdown    *render.Markdown
	highlighter highlight.Highlighter
	recorder    metrics.Recorder
	logger      *slog.Logger
	force       bool
	revision    *string
}

// Option configures a Builder.
type Option func(*Builder)

func WithRecorder(r metrics.Recorder) Option {
	return func(b *Builder) {
		if r != nil {
			b.recorder = r
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(b *Builder) {
		if l != nil {
			b.logger = l
		}
	}
}

func WithHighlighter(h highlight.Highlighter) Option {
	return func(b *Builder) {
		if h != nil {
			b.highlighter = h
		}
	}
}

// WithForce re-renders every page regardless of recorded fingerprints.
func WithForce(force bool) Option {
	return func(b *Builder) { b.force = force }
}

// WithRevision fixes the source revision instead of reading it from git.
func WithRevision(rev string) Option {
	return func(b *Builder) { b.revision = &rev }
}

// NewBuilder wires the filter chains, the highlighter and the Markdown
// renderer for cfg. The store is owned by the caller.
func NewBuilder(cfg *config.Config, store *index.Store, opts ...Option) (*Builder, error) {
	b := &Builder{
		cfg:         cfg,
		store:       store,
		highlighter: highlight.NewChroma(),
		recorder:    metrics.NoopRecorder{},
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(b)
	}
	set, err := filters.NewSet(cfg, filters.WithRecorder(b.recorder), filters.WithLogger(b.logger))
	if err != nil {
		return nil, err
	}
	b.markdown = render.NewMarkdown(set, b.highlighter, cfg.Build.DefaultLanguage)
	return b, nil
}

// Config returns the configuration the builder was created with.
func (b *Builder) Config() *config.Config { return b.cfg }

// Build runs one build. The returned report is non-nil even when the build
// fails, so callers can log what was done before the failure.
func (b *Builder) Build(ctx context.Context) (*Report, error) {
	report := newReport(uuid.NewString())
	logger := b.logger.With(logfields.BuildID(report.BuildID))
	logger.Info("Starting site build",
		slog.String("input", b.cfg.Build.Input),
		slog.String("output", b.cfg.Build.Output),
		slog.Bool("force", b.force))

	bs := &buildState{
		builder:    b,
		logger:     logger,
		report:     report,
		configHash: b.cfg.Snapshot(),
		revision:   b.resolveRevision(logger),
		seen:       map[string]struct{}{},
	}
	bs.pageKey = bs.configHash
	if b.cfg.Project.VersionLabels && bs.revision != "" {
		bs.pageKey += "@" + bs.revision
	}

	err := runStages(ctx, bs, []stage{
		{StageDiscover, stageDiscover},
		{StageRender, stageRender},
		{StagePrune, stagePrune},
		{StageSearch, stageSearch},
		{StageManifest, stageManifest},
	})
	report.End = time.Now()
	b.recorder.ObserveBuildDuration(report.Duration())

	if err != nil {
		report.Outcome = metrics.BuildOutcomeFailed
		b.recorder.IncBuildOutcome(report.Outcome)
		logger.Error("Site build failed", logfields.Error(err))
		return report, err
	}

	report.Outcome = metrics.BuildOutcomeSuccess
	b.recorder.IncBuildOutcome(report.Outcome)
	logger.Info("Site build completed",
		slog.Int("pages", report.Pages),
		slog.Int("rendered", len(report.Rendered)),
		slog.Int("skipped", len(report.Skipped)),
		slog.Int("removed", len(report.Removed)),
		slog.Int("search_entries", report.SearchEntries),
		logfields.DurationMS(float64(report.Duration().Milliseconds())))
	return report, nil
}

func (b *Builder) resolveRevision(logger *slog.Logger) string {
	if b.revision != nil {
		return *b.revision
	}
	rev, err := vcs.Revision(b.cfg.Build.Input)
	if err != nil {
		logger.Warn("Failed to read source revision", logfields.Error(err))
		return ""
	}
	return rev
}
