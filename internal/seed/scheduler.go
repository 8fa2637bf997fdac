package seed

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron/v2"
)

// Scheduler runs Seeder.Refresh on a fixed interval.
type Scheduler struct {
	sched  gocron.Scheduler
	cancel context.CancelFunc
	log    *slog.Logger
}

// NewScheduler registers a refresh job pulling batches every interval. The
// job never overlaps itself: a run still in progress skips the next tick.
func NewScheduler(seeder *Seeder, interval time.Duration, batches int, log *slog.Logger) (*Scheduler, error) {
	if interval <= 0 {
		return nil, fmt.Errorf("catalog refresh interval must be positive, got %s", interval)
	}

	sched, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("create scheduler: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	_, err = sched.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			start := time.Now()
			stats, err := seeder.Refresh(ctx, batches)
			if err != nil {
				log.Error("catalog refresh failed", "error", err)
				return
			}
			log.Info("catalog refreshed",
				"created", stats.Created,
				"updated", stats.Updated,
				"duration", time.Since(start),
			)
		}),
		gocron.WithName("catalog-refresh"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		cancel()
		_ = sched.Shutdown()
		return nil, fmt.Errorf("schedule catalog refresh: %w", err)
	}

	return &Scheduler{sched: sched, cancel: cancel, log: log}, nil
}

// Start begins running jobs.
func (s *Scheduler) Start() {
	s.sched.Start()
	s.log.Info("catalog refresh scheduled", "jobs", len(s.sched.Jobs()))
}

// Shutdown cancels a running refresh and stops the scheduler.
func (s *Scheduler) Shutdown() error {
	s.cancel()
	return s.sched.Shutdown()
}
