package watch

import (
	"fmt"
	"log/slog"

	"github.com/go-co-op/gocron/v2"

	"git.home.luguber.info/inful/codedoc/internal/logfields"
)

// Scheduler wraps a gocron scheduler for periodic rebuilds.
type Scheduler struct {
	scheduler gocron.Scheduler
	logger    *slog.Logger
}

// NewScheduler creates a new scheduler instance.
func NewScheduler(logger *slog.Logger) (*Scheduler, error) {
	if logger == nil {
		logger = slog.Default()
	}
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create gocron scheduler: %w", err)
	}
	return &Scheduler{scheduler: s, logger: logger}, nil
}

// ScheduleRebuild runs task on the five-field cron expression expr.
// Returns the job ID for later management.
func (s *Scheduler) ScheduleRebuild(expr string, task func()) (string, error) {
	job, err := s.scheduler.NewJob(
		gocron.CronJob(expr, false),
		gocron.NewTask(func() {
			s.logger.Info("Executing scheduled rebuild", slog.String("schedule", expr))
			task()
		}),
		gocron.WithName("scheduled-rebuild"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return "", fmt.Errorf("failed to create scheduled rebuild job: %w", err)
	}
	s.logger.Info("Scheduled periodic rebuild", slog.String("schedule", expr), slog.String("job_id", job.ID().String()))
	return job.ID().String(), nil
}

// Jobs returns the number of scheduled jobs.
func (s *Scheduler) Jobs() int {
	return len(s.scheduler.Jobs())
}

// Start begins the scheduler.
func (s *Scheduler) Start() {
	s.logger.Info("Starting scheduler")
	s.scheduler.Start()
}

// Stop gracefully shuts down the scheduler.
func (s *Scheduler) Stop() error {
	s.logger.Info("Stopping scheduler")
	if err := s.scheduler.Shutdown(); err != nil {
		s.logger.Warn("Scheduler shutdown failed", logfields.Error(err))
		return err
	}
	return nil
}
