// Package scheduler triggers recurring pipeline runs. It polls the persisted
// schedule configuration on every tick, so enable/disable and interval
// changes take effect without a restart and never interrupt a run already
// in progress.
package scheduler

import (
	"context"
	"log/slog"
	"time"
)

// ScheduleReader supplies the current schedule configuration and the start
// time of the most recent run.
type ScheduleReader interface {
	Schedule(ctx context.Context) (enabled bool, interval time.Duration, err error)
	LastRunStart(ctx context.Context) (*time.Time, error)
}

// Trigger starts one pipeline run. It returns an error when a run is
// already in progress; the scheduler just waits for the next tick.
type Trigger func(ctx context.Context) error

// Config configures the scheduler.
type Config struct {
	// PollInterval is how often the due check runs. Default: 30 seconds.
	PollInterval time.Duration
}

func (c *Config) defaults() {
	if c.PollInterval <= 0 {
		c.PollInterval = 30 * time.Second
	}
}

// Scheduler fires pipeline runs when the configured interval has elapsed
// since the last run.
type Scheduler struct {
	reader  ScheduleReader
	trigger Trigger
	config  Config
	logger  *slog.Logger
	now     func() time.Time
}

// New creates a Scheduler.
func New(reader ScheduleReader, trigger Trigger, cfg Config, logger *slog.Logger) *Scheduler {
	cfg.defaults()
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		reader:  reader,
		trigger: trigger,
		config:  cfg,
		logger:  logger,
		now:     time.Now,
	}
}

// Run polls on a ticker. Blocks until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(s.config.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

// NextRun computes the next scheduled run time: last run + interval, or
// now when no run has happened yet. Returns nil when scheduling is disabled.
func (s *Scheduler) NextRun(ctx context.Context) (*time.Time, error) {
	enabled, interval, err := s.reader.Schedule(ctx)
	if err != nil {
		return nil, err
	}
	if !enabled {
		return nil, nil
	}
	last, err := s.reader.LastRunStart(ctx)
	if err != nil {
		return nil, err
	}
	if last == nil {
		now := s.now()
		return &now, nil
	}
	next := last.Add(interval)
	return &next, nil
}

func (s *Scheduler) tick(ctx context.Context) {
	enabled, interval, err := s.reader.Schedule(ctx)
	if err != nil {
		s.logger.Error("scheduler: read schedule", "error", err)
		return
	}
	if !enabled {
		return
	}

	last, err := s.reader.LastRunStart(ctx)
	if err != nil {
		s.logger.Error("scheduler: read last run", "error", err)
		return
	}
	if last != nil && s.now().Before(last.Add(interval)) {
		return
	}

	s.logger.Info("scheduler: triggering run", "interval", interval)
	if err := s.trigger(ctx); err != nil {
		// A run already in progress is expected when runs outlast the
		// poll interval.
		s.logger.Warn("scheduler: trigger declined", "error", err)
	}
}
