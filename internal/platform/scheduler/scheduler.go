// Package scheduler runs periodic maintenance jobs on a cron schedule.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// purgeTimeout bounds one purge run.
const purgeTimeout = time.Minute

// Purger deletes datasets whose expiry is at or before now.
type Purger interface {
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// Scheduler manages the cron jobs of the service.
type Scheduler struct {
	Cron   *cron.Cron
	Purger Purger
	Ctx    context.Context
	now    func() time.Time
}

// NewScheduler creates a Scheduler. Spec strings use the standard five-field format
// or descriptors such as "@every 10m".
func NewScheduler(ctx context.Context, p Purger) *Scheduler {
	return &Scheduler{
		Cron:   cron.New(),
		Purger: p,
		Ctx:    ctx,
		now:    time.Now,
	}
}

// RegisterPurge schedules the expired-dataset purge.
func (s *Scheduler) RegisterPurge(spec string) error {
	if _, err := s.Cron.AddFunc(spec, s.purge); err != nil {
		return fmt.Errorf("register purge task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	slog.Info("scheduler started", "jobs", len(s.Cron.Entries()))
}

// Stop stops the scheduler and waits for a running job to finish.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	slog.Info("scheduler stopped")
}

// RunPurgeNow executes the purge immediately and returns the number of deleted datasets.
func (s *Scheduler) RunPurgeNow() (int64, error) {
	ctx, cancel := context.WithTimeout(s.Ctx, purgeTimeout)
	defer cancel()
	return s.Purger.DeleteExpired(ctx, s.now().UTC())
}

func (s *Scheduler) purge() {
	n, err := s.RunPurgeNow()
	if err != nil {
		slog.Error("purge expired datasets failed", "error", err)
		return
	}
	if n > 0 {
		slog.Info("purged expired datasets", "count", n)
	}
}
