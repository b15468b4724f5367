package watch

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/codedoc/internal/config"
	"git.home.luguber.info/inful/codedoc/internal/index"
	"git.home.luguber.info/inful/codedoc/internal/logfields"
	"git.home.luguber.info/inful/codedoc/internal/metrics"
	"git.home.luguber.info/inful/codedoc/internal/site"
)

// BuildHook observes every completed build attempt.
type BuildHook func(trigger Trigger, report *site.Report, err error)

// Service rebuilds the site whenever a watched input changes.
type Service struct {
	configPath string
	store      *index.Store
	registry   *prom.Registry
	recorder   metrics.Recorder
	logger     *slog.Logger
	hook       BuildHook
	builderOps []site.Option

	mu  sync.RWMutex
	cfg *config.Config
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithRegistry enables Prometheus metrics collection into reg.
func WithRegistry(reg *prom.Registry) ServiceOption {
	return func(s *Service) { s.registry = reg }
}

func WithLogger(l *slog.Logger) ServiceOption {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

func WithBuildHook(h BuildHook) ServiceOption {
	return func(s *Service) { s.hook = h }
}

// WithBuilderOptions passes extra options to every site builder.
func WithBuilderOptions(opts ...site.Option) ServiceOption {
	return func(s *Service) { s.builderOps = append(s.builderOps, opts...) }
}

// NewService creates a watch service. configPath may be empty when the
// configuration did not come from a file.
func NewService(configPath string, cfg *config.Config, store *index.Store, opts ...ServiceOption) *Service {
	s := &Service{
		configPath: configPath,
		cfg:        cfg,
		store:      store,
		recorder:   metrics.NoopRecorder{},
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.registry != nil {
		s.recorder = metrics.NewPrometheusRecorder(s.registry)
	}
	return s
}

// Config returns the configuration currently in effect.
func (s *Service) Config() *config.Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg
}

// Run performs an initial build and then rebuilds on changes until ctx is
// done. Build failures are logged and do not stop the service.
func (s *Service) Run(ctx context.Context) error {
	cfg := s.Config()
	quiet, err := cfg.Build.DebounceDuration()
	if err != nil {
		return err
	}
	debouncer, err := NewDebouncer(DebouncerConfig{QuietWindow: quiet}, s.rebuild)
	if err != nil {
		return err
	}

	watcher, err := NewWatcher(cfg.Build.Input, s.configPath, []string{cfg.Build.Output}, debouncer.Request, s.logger)
	if err != nil {
		return err
	}
	if err := watcher.Start(ctx); err != nil {
		return err
	}
	defer func() { _ = watcher.Close() }()

	if cfg.Build.Schedule != "" {
		sched, err := NewScheduler(s.logger)
		if err != nil {
			return err
		}
		if _, err := sched.ScheduleRebuild(cfg.Build.Schedule, func() {
			debouncer.Request(Request{Reason: ReasonSchedule})
		}); err != nil {
			return err
		}
		sched.Start()
		defer func() { _ = sched.Stop() }()
	}

	if cfg.Metrics.Enabled && cfg.Metrics.Listen != "" && s.registry != nil {
		srv := s.startMetricsServer(cfg.Metrics.Listen)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	now := time.Now()
	s.rebuild(ctx, Trigger{Reason: ReasonStartup, Requests: 1, First: now, Last: now})

	s.logger.Info("Watching for changes", logfields.Path(cfg.Build.Input))
	return debouncer.Run(ctx)
}

func (s *Service) rebuild(ctx context.Context, t Trigger) {
	if ctx.Err() != nil {
		return
	}
	if t.ConfigChanged {
		s.reloadConfig()
	}
	cfg := s.Config()

	s.logger.Info("Rebuilding site", slog.String("reason", t.Reason), slog.Int("requests", t.Requests))
	opts := append([]site.Option{site.WithRecorder(s.recorder), site.WithLogger(s.logger)}, s.builderOps...)
	builder, err := site.NewBuilder(cfg, s.store, opts...)
	var report *site.Report
	if err == nil {
		report, err = builder.Build(ctx)
	}
	if err != nil {
		s.logger.Error("Rebuild failed", slog.String("reason", t.Reason), logfields.Error(err))
	}

	if cfg.Metrics.Textfile != "" && s.registry != nil {
		if werr := metrics.WriteTextfile(cfg.Metrics.Textfile, s.registry); werr != nil {
			s.logger.Warn("Failed to write metrics textfile", logfields.Path(cfg.Metrics.Textfile), logfields.Error(werr))
		}
	}
	if s.hook != nil {
		s.hook(t, report, err)
	}
}

// reloadConfig swaps in the configuration file's current content. Build
// locations cannot change while watching; such edits are reported and the
// running values kept.
func (s *Service) reloadConfig() {
	if s.configPath == "" {
		return
	}
	s.logger.Info("Reloading configuration", logfields.Path(s.configPath))
	next, err := config.Load(s.configPath)
	if err != nil {
		s.logger.Error("Failed to reload configuration; keeping previous", logfields.Error(err))
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	prev := s.cfg
	if next.Build.Input != prev.Build.Input || next.Build.Output != prev.Build.Output ||
		next.Build.StateDB != prev.Build.StateDB || next.Build.Schedule != prev.Build.Schedule ||
		next.Build.Debounce != prev.Build.Debounce || next.Metrics != prev.Metrics {
		s.logger.Warn("Build location, schedule or metrics changes require a restart; keeping previous values")
		next.Build = prev.Build
		next.Metrics = prev.Metrics
	}
	s.cfg = next
	s.logger.Info("Configuration reloaded", slog.String("snapshot", next.Snapshot()[:12]))
}

func (s *Service) startMetricsServer(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.HTTPHandler(s.registry))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		s.logger.Info("Serving metrics", slog.String("listen", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("Metrics server failed", logfields.Error(err))
		}
	}()
	return srv
}
