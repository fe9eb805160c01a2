package service

import (
	"context"

	"github.com/rs/zerolog"

	"staffdesk/api/internal/clock"
	"staffdesk/api/internal/models"
	"staffdesk/api/internal/repository"
)

type AttendanceService struct {
	attendance AttendanceStore
	clock      clock.Clock
	log        zerolog.Logger
}

func NewAttendanceService(attendance AttendanceStore, clk clock.Clock, log zerolog.Logger) *AttendanceService {
	return &AttendanceService{attendance: attendance, clock: clk, log: log}
}

// Logout closes the caller's own session. A second logout observes the
// terminal state and fails with models.ErrSessionClosed.
func (s *AttendanceService) Logout(ctx context.Context, sessionID, reason string) (models.AttendanceRecord, error) {
	rec, err := s.attendance.Close(ctx, sessionID, s.clock.Now(), models.SessionCompleted, reason)
	if err != nil {
		return models.AttendanceRecord{}, err
	}

	s.log.Info().
		Str("session_id", rec.ID).
		Str("staff_id", rec.StaffID).
		Int("duration_minutes", derefMinutes(rec.DurationMinutes)).
		Msg("session completed")
	return rec, nil
}

// ForceLogout is the administrative close.
func (s *AttendanceService) ForceLogout(ctx context.Context, sessionID, reason string) (models.AttendanceRecord, error) {
	if reason == "" {
		reason = "Admin forced logout"
	}

	rec, err := s.attendance.Close(ctx, sessionID, s.clock.Now(), models.SessionForcedLogout, reason)
	if err != nil {
		return models.AttendanceRecord{}, err
	}

	s.log.Info().
		Str("session_id", rec.ID).
		Str("staff_id", rec.StaffID).
		Str("reason", reason).
		Msg("session force-closed")
	return rec, nil
}

// Active returns the staff member's open session, if any.
func (s *AttendanceService) Active(ctx context.Context, staffID string) (models.AttendanceRecord, error) {
	return s.attendance.FindActiveByStaff(ctx, staffID)
}

func (s *AttendanceService) History(ctx context.Context, staffID, monthKey string, limit, offset int) ([]models.AttendanceRecord, error) {
	if limit <= 0 || limit > 100 {
		limit = 30
	}
	if offset < 0 {
		offset = 0
	}
	return s.attendance.ListByStaff(ctx, staffID, monthKey, limit, offset)
}

func (s *AttendanceService) MonthlySummary(ctx context.Context, staffID, monthKey string) (repository.MonthlySummary, error) {
	if monthKey == "" {
		monthKey = models.MonthKey(s.clock.Now())
	}
	return s.attendance.MonthlySummary(ctx, staffID, monthKey)
}

func derefMinutes(minutes *int) int {
	if minutes == nil {
		return 0
	}
	return *minutes
}
