// Package retention holds the batch sweeps that enforce the record
// retention policy: purging attendance records and completed tasks past
// their deletion dates, reconciling sessions left open, and promoting task
// retention states. Every sweep is idempotent: selection predicates are
// time-based and monotonic, so re-running a sweep (after a crash, or
// concurrently with live traffic) never double-processes a record.
package retention

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"staffdesk/api/internal/models"
	"staffdesk/api/internal/repository"
)

// StaleSessionReason is written to sessions closed by the reconciliation
// sweep.
const StaleSessionReason = "auto-logout due to 24-hour inactivity"

type AttendanceStore interface {
	ListExpired(ctx context.Context, before time.Time) ([]models.AttendanceRecord, error)
	ListStale(ctx context.Context, cutoff time.Time) ([]models.AttendanceRecord, error)
	Close(ctx context.Context, id string, at time.Time, status models.SessionStatus, reason string) (models.AttendanceRecord, error)
	Delete(ctx context.Context, id string) error
}

type TaskStore interface {
	ListPurgeable(ctx context.Context, now time.Time) ([]models.Task, error)
	Delete(ctx context.Context, id string) error
	PromoteExpiredGrace(ctx context.Context, cutoff time.Time) (int64, error)
	ListCompletedWithoutDeletionDate(ctx context.Context) ([]models.Task, error)
	Update(ctx context.Context, task models.Task) error
}

type Config struct {
	StaleSessionAge time.Duration
	GraceMonths     int
	LockTTL         time.Duration
}

// Sweeper runs the retention jobs. The redis client is optional: when
// present it serializes overlapping runs of the same sweep, but every
// sweep stays correct without it.
type Sweeper struct {
	attendance AttendanceStore
	tasks      TaskStore
	locks      *redis.Client
	cfg        Config
	log        zerolog.Logger
}

func NewSweeper(attendance AttendanceStore, tasks TaskStore, locks *redis.Client, cfg Config, log zerolog.Logger) *Sweeper {
	if cfg.StaleSessionAge <= 0 {
		cfg.StaleSessionAge = 24 * time.Hour
	}
	if cfg.GraceMonths <= 0 {
		cfg.GraceMonths = 3
	}
	if cfg.LockTTL <= 0 {
		cfg.LockTTL = 10 * time.Minute
	}
	return &Sweeper{
		attendance: attendance,
		tasks:      tasks,
		locks:      locks,
		cfg:        cfg,
		log:        log.With().Str("component", "retention").Logger(),
	}
}

// AttendancePurgeReport summarizes one attendance purge run. Records holds
// a snapshot of what was deleted, for audit logging.
type AttendancePurgeReport struct {
	Deleted int
	Failed  int
	Records []models.AttendanceRecord
}

// RunAttendancePurge deletes attendance records whose auto-delete date has
// passed. A failure on one record is logged and counted, never fatal to
// the batch.
func (s *Sweeper) RunAttendancePurge(ctx context.Context, now time.Time) (AttendancePurgeReport, error) {
	var report AttendancePurgeReport

	err := s.withLock(ctx, "attendance-purge", func() error {
		expired, err := s.attendance.ListExpired(ctx, now)
		if err != nil {
			return err
		}

		for _, rec := range expired {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := s.attendance.Delete(ctx, rec.ID); err != nil {
				if errors.Is(err, repository.ErrSessionNotFound) {
					continue // raced with another run; already gone
				}
				report.Failed++
				s.log.Error().Err(err).Str("session_id", rec.ID).Msg("attendance purge: delete failed")
				continue
			}
			report.Deleted++
			report.Records = append(report.Records, rec)
			s.log.Info().
				Str("session_id", rec.ID).
				Str("staff_id", rec.StaffID).
				Time("login_time", rec.LoginTime).
				Int("duration_minutes", minutesOrZero(rec.DurationMinutes)).
				Msg("attendance record purged")
		}
		return nil
	})
	if err != nil {
		return AttendancePurgeReport{}, err
	}

	s.log.Info().
		Int("deleted", report.Deleted).
		Int("failed", report.Failed).
		Msg("attendance purge finished")
	return report, nil
}

type StaleSessionReport struct {
	Reconciled int
	Failed     int
}

// RunStaleSessionSweep system-logs-out sessions that have been open longer
// than the configured age.
func (s *Sweeper) RunStaleSessionSweep(ctx context.Context, now time.Time) (StaleSessionReport, error) {
	var report StaleSessionReport

	err := s.withLock(ctx, "stale-sessions", func() error {
		cutoff := now.Add(-s.cfg.StaleSessionAge)
		stale, err := s.attendance.ListStale(ctx, cutoff)
		if err != nil {
			return err
		}

		for _, rec := range stale {
			if err := ctx.Err(); err != nil {
				return err
			}
			if _, err := s.attendance.Close(ctx, rec.ID, now, models.SessionSystemLogout, StaleSessionReason); err != nil {
				if errors.Is(err, models.ErrSessionClosed) || errors.Is(err, repository.ErrSessionNotFound) {
					continue // closed or deleted since selection
				}
				report.Failed++
				s.log.Error().Err(err).Str("session_id", rec.ID).Msg("stale session sweep: close failed")
				continue
			}
			report.Reconciled++
			s.log.Info().
				Str("session_id", rec.ID).
				Str("staff_id", rec.StaffID).
				Time("login_time", rec.LoginTime).
				Msg("stale session reconciled")
		}
		return nil
	})
	if err != nil {
		return StaleSessionReport{}, err
	}

	s.log.Info().
		Int("reconciled", report.Reconciled).
		Int("failed", report.Failed).
		Msg("stale session sweep finished")
	return report, nil
}

type TaskPurgeReport struct {
	Deleted int
	Failed  int
}

// RunTaskPurge deletes completed-storage tasks whose scheduled deletion
// date has passed. The weekly safety sweep calls the same method; after a
// successful monthly run it finds nothing and deletes nothing.
func (s *Sweeper) RunTaskPurge(ctx context.Context, now time.Time) (TaskPurgeReport, error) {
	var report TaskPurgeReport

	err := s.withLock(ctx, "task-purge", func() error {
		purgeable, err := s.tasks.ListPurgeable(ctx, now)
		if err != nil {
			return err
		}

		for _, task := range purgeable {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := s.tasks.Delete(ctx, task.ID); err != nil {
				if errors.Is(err, repository.ErrTaskNotFound) {
					continue
				}
				report.Failed++
				s.log.Error().Err(err).Str("task_id", task.ID).Msg("task purge: delete failed")
				continue
			}
			report.Deleted++
			s.log.Info().
				Str("task_id", task.ID).
				Str("assigned_to", task.AssignedTo).
				Time("scheduled_deletion", *task.ScheduledDeletionDate).
				Msg("task purged")
		}
		return nil
	})
	if err != nil {
		return TaskPurgeReport{}, err
	}

	s.log.Info().
		Int("deleted", report.Deleted).
		Int("failed", report.Failed).
		Msg("task purge finished")
	return report, nil
}

type PromotionReport struct {
	Promoted         int64
	DeletionDatesSet int
	Failed           int
}

// RunRetentionPromotion advances tasks out of their grace period: open
// tasks older than the grace window become permanent, and completed tasks
// missing a scheduled deletion date (from before the rule existed) get one
// backfilled from their completion time.
func (s *Sweeper) RunRetentionPromotion(ctx context.Context, now time.Time) (PromotionReport, error) {
	var report PromotionReport

	err := s.withLock(ctx, "retention-promotion", func() error {
		cutoff := now.AddDate(0, -s.cfg.GraceMonths, 0)

		promoted, err := s.tasks.PromoteExpiredGrace(ctx, cutoff)
		if err != nil {
			return err
		}
		report.Promoted = promoted

		missing, err := s.tasks.ListCompletedWithoutDeletionDate(ctx)
		if err != nil {
			return err
		}

		for _, task := range missing {
			if err := ctx.Err(); err != nil {
				return err
			}
			task.Retention = models.RetentionCompletedStorage
			if task.CompletedAt != nil {
				d := models.ScheduledDeletionDate(*task.CompletedAt)
				task.ScheduledDeletionDate = &d
			}
			if err := s.tasks.Update(ctx, task); err != nil {
				if errors.Is(err, repository.ErrTaskConflict) || errors.Is(err, repository.ErrTaskNotFound) {
					continue // changed or removed since selection; next run re-evaluates
				}
				report.Failed++
				s.log.Error().Err(err).Str("task_id", task.ID).Msg("retention promotion: update failed")
				continue
			}
			report.DeletionDatesSet++
		}
		return nil
	})
	if err != nil {
		return PromotionReport{}, err
	}

	s.log.Info().
		Int64("promoted", report.Promoted).
		Int("deletion_dates_set", report.DeletionDatesSet).
		Int("failed", report.Failed).
		Msg("retention promotion finished")
	return report, nil
}

// withLock serializes a named sweep across processes via a best-effort
// redis lock. A held lock skips the run; the next cycle picks it up.
func (s *Sweeper) withLock(ctx context.Context, name string, fn func() error) error {
	if s.locks == nil {
		return fn()
	}

	key := "retention:lock:" + name
	acquired, err := s.locks.SetNX(ctx, key, "1", s.cfg.LockTTL).Result()
	if err != nil {
		// The lock is an optimization; sweeps are idempotent without it.
		s.log.Warn().Err(err).Str("sweep", name).Msg("sweep lock unavailable, running unlocked")
		return fn()
	}
	if !acquired {
		s.log.Info().Str("sweep", name).Msg("sweep already running elsewhere, skipping")
		return nil
	}
	defer s.locks.Del(context.WithoutCancel(ctx), key)

	return fn()
}

func minutesOrZero(minutes *int) int {
	if minutes == nil {
		return 0
	}
	return *minutes
}
