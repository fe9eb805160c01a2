package models

import (
	"fmt"
	"math"
	"time"

	"staffdesk/api/internal/useragent"
)

type SessionStatus string

const (
	SessionActive       SessionStatus = "active"
	SessionCompleted    SessionStatus = "completed"
	SessionForcedLogout SessionStatus = "forced-logout"
	SessionSystemLogout SessionStatus = "system-logout"
)

const maxSessionNotes = 500

// AttendanceRecord is one login-to-logout work session. A record starts
// active and closes exactly once into one of the three terminal statuses.
type AttendanceRecord struct {
	ID              string
	StaffID         string
	LoginTime       time.Time
	LogoutTime      *time.Time
	IPAddress       string
	UserAgent       string
	Device          useragent.DeviceInfo
	DurationMinutes *int
	Status          SessionStatus
	// AutoDeleteDate is derived once at creation and never recomputed:
	// the 15th of the month, end of day, three calendar months after the
	// login month.
	AutoDeleteDate time.Time
	MonthKey       string
	Notes          string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// NewAttendanceRecord opens a session at loginTime and derives the device
// info, month key, and auto-delete date.
func NewAttendanceRecord(id, staffID, ipAddress, userAgent string, loginTime time.Time) AttendanceRecord {
	return AttendanceRecord{
		ID:             id,
		StaffID:        staffID,
		LoginTime:      loginTime,
		IPAddress:      ipAddress,
		UserAgent:      userAgent,
		Device:         useragent.Detect(userAgent),
		Status:         SessionActive,
		AutoDeleteDate: AutoDeleteDate(loginTime),
		MonthKey:       MonthKey(loginTime),
		CreatedAt:      loginTime,
		UpdatedAt:      loginTime,
	}
}

// AutoDeleteDate returns the 15th, end of day, three calendar months after
// the month of t. The day of month of t never shifts the result.
func AutoDeleteDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month()+3, 15, 23, 59, 59, 999_000_000, t.Location())
}

// MonthKey formats t as "YYYY-MM" for month-bucketed queries.
func MonthKey(t time.Time) string {
	return t.Format("2006-01")
}

// SessionMinutes is the logout-login distance rounded to whole minutes,
// clamped at zero.
func SessionMinutes(login, logout time.Time) int {
	minutes := int(math.Round(logout.Sub(login).Minutes()))
	if minutes < 0 {
		return 0
	}
	return minutes
}

// Close transitions the session into a terminal status, sets the logout
// time, and derives the duration. Closing an already-closed session fails
// with ErrSessionClosed; closing into a non-terminal status fails with
// ErrInvalidTransition.
func (r *AttendanceRecord) Close(at time.Time, status SessionStatus, reason string) error {
	switch status {
	case SessionCompleted, SessionForcedLogout, SessionSystemLogout:
	default:
		return ErrInvalidTransition
	}

	if r.Status != SessionActive || r.LogoutTime != nil {
		return ErrSessionClosed
	}

	logout := at
	minutes := SessionMinutes(r.LoginTime, logout)

	r.LogoutTime = &logout
	r.DurationMinutes = &minutes
	r.Status = status
	if reason != "" {
		if len(reason) > maxSessionNotes {
			reason = reason[:maxSessionNotes]
		}
		r.Notes = reason
	}
	r.UpdatedAt = at

	return nil
}

// IsActive reports whether the session is still open.
func (r AttendanceRecord) IsActive() bool {
	return r.Status == SessionActive && r.LogoutTime == nil
}

// PurgeEligible reports whether the retention sweep may delete the record.
func (r AttendanceRecord) PurgeEligible(now time.Time) bool {
	return !now.Before(r.AutoDeleteDate)
}

// FormattedDuration renders the session length as "2h 5m" or "45m".
// Returns "" while the session is open.
func (r AttendanceRecord) FormattedDuration() string {
	if r.DurationMinutes == nil {
		return ""
	}
	hours := *r.DurationMinutes / 60
	minutes := *r.DurationMinutes % 60
	if hours > 0 {
		return fmt.Sprintf("%dh %dm", hours, minutes)
	}
	return fmt.Sprintf("%dm", minutes)
}

// DaysUntilDeletion counts whole days (rounded up) until the auto-delete
// date. Negative once the date has passed.
func (r AttendanceRecord) DaysUntilDeletion(now time.Time) int {
	return int(math.Ceil(r.AutoDeleteDate.Sub(now).Hours() / 24))
}
