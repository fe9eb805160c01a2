package jobs

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"staffdesk/api/internal/clock"
	"staffdesk/api/internal/config"
	"staffdesk/api/internal/retention"
)

// Scheduler fires the retention sweeps on their configured cron cadences.
// The cron specs are an integration detail: each sweep is idempotent, so a
// missed or doubled fire never corrupts state.
type Scheduler struct {
	cron    *cron.Cron
	sweeper *retention.Sweeper
	clock   clock.Clock
	cfg     config.RetentionConfig
	log     zerolog.Logger
}

func NewScheduler(sweeper *retention.Sweeper, clk clock.Clock, cfg config.RetentionConfig, log zerolog.Logger) *Scheduler {
	return &Scheduler{
		cron:    cron.New(cron.WithSeconds()),
		sweeper: sweeper,
		clock:   clk,
		cfg:     cfg,
		log:     log,
	}
}

func (s *Scheduler) Start() error {
	jobs := []struct {
		spec string
		name string
		run  func(context.Context, time.Time) error
	}{
		{s.cfg.TaskPurgeSpec, "monthly task purge", s.runTaskSweep},
		{s.cfg.WeeklySafetySpec, "weekly task safety sweep", s.runTaskPurgeOnly},
		{s.cfg.AttendancePurgeSpec, "monthly attendance purge", s.runAttendancePurge},
		{s.cfg.StaleSessionSpec, "stale session sweep", s.runStaleSessionSweep},
	}

	for _, job := range jobs {
		job := job
		if _, err := s.cron.AddFunc(job.spec, func() {
			ctx, cancel := context.WithTimeout(context.Background(), 15*time.Minute)
			defer cancel()
			if err := job.run(ctx, s.clock.Now()); err != nil {
				s.log.Error().Err(err).Str("job", job.name).Msg("retention job failed")
			}
		}); err != nil {
			return err
		}
	}

	s.cron.Start()
	s.log.Info().Msg("retention scheduler started")
	return nil
}

// Stop halts the cron loop; running jobs finish on their own contexts.
func (s *Scheduler) Stop() {
	s.cron.Stop()
	s.log.Info().Msg("retention scheduler stopped")
}

// runTaskSweep is the monthly job: purge, then promote retention states.
func (s *Scheduler) runTaskSweep(ctx context.Context, now time.Time) error {
	if _, err := s.sweeper.RunTaskPurge(ctx, now); err != nil {
		return err
	}
	_, err := s.sweeper.RunRetentionPromotion(ctx, now)
	return err
}

func (s *Scheduler) runTaskPurgeOnly(ctx context.Context, now time.Time) error {
	_, err := s.sweeper.RunTaskPurge(ctx, now)
	return err
}

func (s *Scheduler) runAttendancePurge(ctx context.Context, now time.Time) error {
	if _, err := s.sweeper.RunAttendancePurge(ctx, now); err != nil {
		return err
	}
	// Stuck sessions are also reconciled here so the monthly purge never
	// deletes around records a dead session would have kept open.
	_, err := s.sweeper.RunStaleSessionSweep(ctx, now)
	return err
}

func (s *Scheduler) runStaleSessionSweep(ctx context.Context, now time.Time) error {
	_, err := s.sweeper.RunStaleSessionSweep(ctx, now)
	return err
}
