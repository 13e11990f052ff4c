package scheduler

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

// Snapshotter writes a copy of the record collection to history.
type Snapshotter interface {
	Snapshot(ctx context.Context) error
}

// Scheduler manages the cron tasks.
type Scheduler struct {
	Cron     *cron.Cron
	Snapshot Snapshotter
	Ctx      context.Context
}

// NewScheduler creates a new Scheduler. Specs use the seconds field.
func NewScheduler(ctx context.Context, snap Snapshotter) *Scheduler {
	return &Scheduler{
		Cron:     cron.New(cron.WithSeconds()),
		Snapshot: snap,
		Ctx:      ctx,
	}
}

// RegisterAll registers the snapshot task. An empty spec disables it.
func (s *Scheduler) RegisterAll(snapshotCron string) error {
	if snapshotCron == "" {
		log.Info().Msg("snapshot task disabled")
		return nil
	}
	if _, err := s.Cron.AddFunc(snapshotCron, s.snapshotTask); err != nil {
		return fmt.Errorf("register snapshot task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	log.Info().Int("jobs", len(s.Cron.Entries())).Msg("scheduler started")
}

// Stop stops the cron scheduler and waits for running jobs.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	log.Info().Msg("scheduler stopped")
}

// RunSnapshotNow executes the snapshot task immediately.
func (s *Scheduler) RunSnapshotNow() {
	s.snapshotTask()
}

func (s *Scheduler) snapshotTask() {
	if err := s.Snapshot.Snapshot(s.Ctx); err != nil {
		log.Error().Err(err).Msg("store snapshot failed")
		return
	}
	log.Info().Msg("store snapshot written")
}
