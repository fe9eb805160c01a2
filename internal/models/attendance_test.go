package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestNewAttendanceRecordDerivations(t *testing.T) {
	login := time.Date(2025, time.November, 3, 9, 30, 0, 0, time.UTC)
	rec := NewAttendanceRecord("att-1", "staff-1", "10.0.0.9", "Mozilla/5.0 (Windows NT 10.0) Chrome/120.0 Safari/537.36", login)

	require.Equal(t, SessionActive, rec.Status)
	require.True(t, rec.IsActive())
	require.Nil(t, rec.LogoutTime)
	require.Nil(t, rec.DurationMinutes)
	require.Equal(t, "2025-11", rec.MonthKey)
	require.Equal(t, "Chrome", rec.Device.Browser)
	require.Equal(t, time.Date(2026, time.February, 15, 23, 59, 59, 999_000_000, time.UTC), rec.AutoDeleteDate)
}

func TestAutoDeleteDateIgnoresDayOfMonth(t *testing.T) {
	// Login late in the month must not shift the deletion month; the rule
	// is always "the 15th, three months after the login month".
	tests := []struct {
		login time.Time
		want  time.Time
	}{
		{
			time.Date(2025, time.January, 31, 18, 0, 0, 0, time.UTC),
			time.Date(2025, time.April, 15, 23, 59, 59, 999_000_000, time.UTC),
		},
		{
			time.Date(2025, time.October, 1, 0, 0, 0, 0, time.UTC),
			time.Date(2026, time.January, 15, 23, 59, 59, 999_000_000, time.UTC),
		},
		{
			time.Date(2025, time.December, 16, 12, 0, 0, 0, time.UTC),
			time.Date(2026, time.March, 15, 23, 59, 59, 999_000_000, time.UTC),
		},
	}

	for _, tt := range tests {
		require.Equal(t, tt.want, AutoDeleteDate(tt.login), "login %s", tt.login)
	}
}

func TestSessionMinutes(t *testing.T) {
	base := time.Date(2025, time.June, 1, 9, 0, 0, 0, time.UTC)

	require.Equal(t, 90, SessionMinutes(base, base.Add(90*time.Minute)))
	require.Equal(t, 1, SessionMinutes(base, base.Add(30*time.Second)))
	require.Equal(t, 0, SessionMinutes(base, base.Add(29*time.Second)))
	require.Equal(t, 0, SessionMinutes(base, base), "zero-length session")
	require.Equal(t, 0, SessionMinutes(base, base.Add(-5*time.Minute)), "clock skew clamps at zero")
}

func TestCloseSetsDurationAndStatus(t *testing.T) {
	login := time.Date(2025, time.June, 1, 9, 0, 0, 0, time.UTC)
	rec := NewAttendanceRecord("att-1", "staff-1", "10.0.0.9", "", login)

	require.NoError(t, rec.Close(login.Add(90*time.Minute), SessionCompleted, ""))
	require.Equal(t, SessionCompleted, rec.Status)
	require.NotNil(t, rec.LogoutTime)
	require.Equal(t, 90, *rec.DurationMinutes)
	require.False(t, rec.IsActive())
	require.Equal(t, "1h 30m", rec.FormattedDuration())
}

func TestCloseTwiceFails(t *testing.T) {
	login := time.Date(2025, time.June, 1, 9, 0, 0, 0, time.UTC)
	rec := NewAttendanceRecord("att-1", "staff-1", "10.0.0.9", "", login)

	require.NoError(t, rec.Close(login.Add(time.Hour), SessionCompleted, ""))

	err := rec.Close(login.Add(2*time.Hour), SessionCompleted, "")
	require.ErrorIs(t, err, ErrSessionClosed)

	err = rec.Close(login.Add(2*time.Hour), SessionForcedLogout, "admin")
	require.ErrorIs(t, err, ErrSessionClosed, "forced logout of a closed session must also fail")
}

func TestCloseRejectsNonTerminalTarget(t *testing.T) {
	login := time.Date(2025, time.June, 1, 9, 0, 0, 0, time.UTC)
	rec := NewAttendanceRecord("att-1", "staff-1", "10.0.0.9", "", login)

	require.ErrorIs(t, rec.Close(login.Add(time.Hour), SessionActive, ""), ErrInvalidTransition)
	require.True(t, rec.IsActive(), "failed close must not mutate the record")
	require.Nil(t, rec.DurationMinutes)
}

func TestCloseRecordsReason(t *testing.T) {
	login := time.Date(2025, time.June, 1, 9, 0, 0, 0, time.UTC)
	rec := NewAttendanceRecord("att-1", "staff-1", "10.0.0.9", "", login)

	require.NoError(t, rec.Close(login.Add(time.Hour), SessionSystemLogout, "auto-logout due to 24-hour inactivity"))
	require.Equal(t, SessionSystemLogout, rec.Status)
	require.Equal(t, "auto-logout due to 24-hour inactivity", rec.Notes)
}

func TestPurgeEligibleBoundary(t *testing.T) {
	login := time.Date(2025, time.June, 1, 9, 0, 0, 0, time.UTC)
	rec := NewAttendanceRecord("att-1", "staff-1", "10.0.0.9", "", login)

	require.False(t, rec.PurgeEligible(rec.AutoDeleteDate.Add(-time.Second)))
	require.True(t, rec.PurgeEligible(rec.AutoDeleteDate))
	require.True(t, rec.PurgeEligible(rec.AutoDeleteDate.Add(time.Second)))
}

func TestFormattedDuration(t *testing.T) {
	rec := AttendanceRecord{}
	require.Equal(t, "", rec.FormattedDuration())

	minutes := 45
	rec.DurationMinutes = &minutes
	require.Equal(t, "45m", rec.FormattedDuration())

	minutes = 125
	require.Equal(t, "2h 5m", rec.FormattedDuration())
}
