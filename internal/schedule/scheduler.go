// Package schedule repeats catalog runs on a cron schedule. A run that is
// still going when its next tick fires makes that tick a no-op, so runs
// never overlap on the archive store.
package schedule

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/robfig/cron/v3"
)

type Job func(ctx context.Context)

type Scheduler struct {
	cron *cron.Cron
	ctx  context.Context
}

func New() *Scheduler {
	logger := cron.PrintfLogger(slog.NewLogLogger(slog.Default().Handler(), slog.LevelWarn))

	return &Scheduler{
		cron: cron.New(
			cron.WithLogger(logger),
			cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
		),
		ctx: context.Background(),
	}
}

// Add registers job under a standard cron spec or a descriptor such as
// "@daily" or "@every 1h".
func (s *Scheduler) Add(spec string, job Job) error {
	_, err := s.cron.AddFunc(spec, func() {
		slog.InfoContext(s.ctx, "Scheduled run starting", "schedule", spec)
		job(s.ctx)
	})
	if err != nil {
		return fmt.Errorf("invalid schedule %q: %w", spec, err)
	}
	return nil
}

// Run starts the scheduler and blocks until ctx is done, then waits for a
// running job to return.
func (s *Scheduler) Run(ctx context.Context) {
	s.ctx = ctx
	s.cron.Start()

	<-ctx.Done()

	slog.InfoContext(ctx, "Stopping scheduler")
	<-s.cron.Stop().Done()
}
