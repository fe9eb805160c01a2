package models

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var taskNow = time.Date(2025, time.June, 10, 9, 0, 0, 0, time.UTC)

func validInput() NewTaskInput {
	return NewTaskInput{
		Title:       "Quarterly inventory",
		Description: "Count and reconcile warehouse stock",
		AssignedTo:  "staff-1",
		AssignedBy:  "admin-1",
		DueDate:     taskNow.AddDate(0, 0, 2),
	}
}

func mustNewTask(t *testing.T) Task {
	t.Helper()
	task, err := NewTask("task-1", validInput(), taskNow)
	require.NoError(t, err)
	return task
}

func TestNewTaskDefaults(t *testing.T) {
	task := mustNewTask(t)

	require.Equal(t, TaskPending, task.Status)
	require.Equal(t, PriorityMedium, task.Priority)
	require.Equal(t, RetentionGracePeriod, task.Retention)
	require.Equal(t, 0, task.Progress)
	require.Nil(t, task.ScheduledDeletionDate)

	require.Len(t, task.StatusHistory, 1)
	require.Equal(t, TaskPending, task.StatusHistory[0].Status)
	require.Equal(t, "admin-1", task.StatusHistory[0].ChangedBy)
}

func TestNewTaskValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*NewTaskInput)
	}{
		{"empty title", func(in *NewTaskInput) { in.Title = "" }},
		{"title too long", func(in *NewTaskInput) { in.Title = strings.Repeat("x", 101) }},
		{"empty description", func(in *NewTaskInput) { in.Description = "" }},
		{"description too long", func(in *NewTaskInput) { in.Description = strings.Repeat("x", 1001) }},
		{"missing assignee", func(in *NewTaskInput) { in.AssignedTo = "" }},
		{"past due date", func(in *NewTaskInput) { in.DueDate = taskNow.AddDate(0, 0, -1) }},
		{"due date exactly now", func(in *NewTaskInput) { in.DueDate = taskNow }},
		{"unknown priority", func(in *NewTaskInput) { in.Priority = "critical" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := validInput()
			tt.mutate(&in)
			_, err := NewTask("task-1", in, taskNow)
			require.Error(t, err)
			require.True(t, IsValidation(err), "expected ValidationError, got %v", err)
		})
	}
}

func TestUpdateProgressDrivesStatus(t *testing.T) {
	task := mustNewTask(t)

	require.NoError(t, task.UpdateProgress(50, "", "staff-1", taskNow.Add(time.Hour)))
	require.Equal(t, TaskInProgress, task.Status)
	require.Equal(t, 50, task.Progress)
	require.Equal(t, RetentionGracePeriod, task.Retention)

	// Last history entry records the pending -> in-progress transition.
	last := task.StatusHistory[len(task.StatusHistory)-1]
	require.Equal(t, TaskInProgress, last.Status)

	// System comment generated because no text was supplied.
	require.Len(t, task.Comments, 1)
	require.True(t, task.Comments[0].IsSystem)
	require.Contains(t, task.Comments[0].Text, "Progress updated from 0% to 50%")
}

func TestUpdateProgressToHundredCompletes(t *testing.T) {
	task := mustNewTask(t)
	done := taskNow.Add(2 * time.Hour)

	require.NoError(t, task.UpdateProgress(100, "all shelves counted", "staff-1", done))

	require.Equal(t, TaskCompleted, task.Status)
	require.Equal(t, 100, task.Progress)
	require.Equal(t, RetentionCompletedStorage, task.Retention)
	require.NotNil(t, task.CompletedAt)
	require.Equal(t, done, *task.CompletedAt)
	require.NotNil(t, task.ScheduledDeletionDate)
	require.Equal(t, ScheduledDeletionDate(done), *task.ScheduledDeletionDate)

	require.False(t, task.Comments[0].IsSystem, "caller-supplied comment is not a system comment")
	require.Contains(t, task.Comments[0].Text, "all shelves counted")
}

func TestUpdateProgressClamps(t *testing.T) {
	task := mustNewTask(t)

	require.NoError(t, task.UpdateProgress(-10, "", "staff-1", taskNow))
	require.Equal(t, 0, task.Progress)
	require.Equal(t, TaskPending, task.Status, "clamped zero progress does not start the task")

	require.NoError(t, task.UpdateProgress(150, "", "staff-1", taskNow))
	require.Equal(t, 100, task.Progress)
	require.Equal(t, TaskCompleted, task.Status)
}

func TestUpdateProgressOnClosedTask(t *testing.T) {
	rejected := mustNewTask(t)
	require.NoError(t, rejected.Reject("out of scope", "admin-1", "", taskNow))
	require.ErrorIs(t, rejected.UpdateProgress(10, "", "staff-1", taskNow), ErrInvalidTransition)

	cancelled := mustNewTask(t)
	require.NoError(t, cancelled.Cancel("admin-1", "", taskNow))
	require.ErrorIs(t, cancelled.UpdateProgress(10, "", "staff-1", taskNow), ErrInvalidTransition)

	// Completed tasks still accept progress calls; 100 is a no-op
	// completion rather than an error.
	completed := mustNewTask(t)
	require.NoError(t, completed.UpdateProgress(100, "", "staff-1", taskNow))
	first := *completed.ScheduledDeletionDate
	require.NoError(t, completed.UpdateProgress(100, "", "staff-1", taskNow.Add(48*time.Hour)))
	require.Equal(t, first, *completed.ScheduledDeletionDate, "deletion date is never recomputed")
}

func TestScheduledDeletionDateRolls(t *testing.T) {
	tests := []struct {
		completed time.Time
		want      time.Time
	}{
		{
			// day <= 15: plain three months out
			time.Date(2025, time.January, 10, 14, 0, 0, 0, time.UTC),
			time.Date(2025, time.April, 15, 23, 59, 59, 999_000_000, time.UTC),
		},
		{
			// day > 15 rolls one month further
			time.Date(2025, time.January, 20, 14, 0, 0, 0, time.UTC),
			time.Date(2025, time.May, 15, 23, 59, 59, 999_000_000, time.UTC),
		},
		{
			// boundary: the 15th itself does not roll
			time.Date(2025, time.January, 15, 23, 0, 0, 0, time.UTC),
			time.Date(2025, time.April, 15, 23, 59, 59, 999_000_000, time.UTC),
		},
		{
			// year wrap
			time.Date(2025, time.November, 20, 8, 0, 0, 0, time.UTC),
			time.Date(2026, time.March, 15, 23, 59, 59, 999_000_000, time.UTC),
		},
	}

	for _, tt := range tests {
		require.Equal(t, tt.want, ScheduledDeletionDate(tt.completed), "completed %s", tt.completed)
	}
}

func TestRejectRequiresReason(t *testing.T) {
	task := mustNewTask(t)

	err := task.Reject("", "admin-1", "", taskNow)
	require.Error(t, err)
	require.True(t, IsValidation(err))
	require.Equal(t, TaskPending, task.Status, "failed reject must not mutate the task")
}

func TestRejectClosesPermanently(t *testing.T) {
	task := mustNewTask(t)

	require.NoError(t, task.Reject("duplicate of task-9", "admin-1", "", taskNow))
	require.Equal(t, TaskRejected, task.Status)
	require.Equal(t, RetentionPermanent, task.Retention)
	require.Equal(t, "duplicate of task-9", task.RejectionReason)
	require.NotNil(t, task.CompletedAt)

	// Both an explanatory comment and a history entry are appended.
	require.Contains(t, task.Comments[len(task.Comments)-1].Text, "Task rejected: duplicate of task-9")
	require.Equal(t, TaskRejected, task.StatusHistory[len(task.StatusHistory)-1].Status)

	require.ErrorIs(t, task.Reject("again", "admin-1", "", taskNow), ErrInvalidTransition)
}

func TestRescheduleValidatesOnlyExplicitChange(t *testing.T) {
	task := mustNewTask(t)

	require.Error(t, task.Reschedule(taskNow.AddDate(0, 0, -1), "admin-1", taskNow))

	future := taskNow.AddDate(0, 1, 0)
	require.NoError(t, task.Reschedule(future, "admin-1", taskNow))
	require.Equal(t, future, task.DueDate)

	// A task whose due date has already passed keeps accepting unrelated
	// mutations; only the due-date change itself is checked.
	late := taskNow.AddDate(0, 2, 0)
	require.NoError(t, task.UpdateProgress(30, "", "staff-1", late))
}

func TestStatusHistoryAppendOnly(t *testing.T) {
	task := mustNewTask(t)

	require.NoError(t, task.UpdateProgress(10, "", "staff-1", taskNow.Add(time.Hour)))
	require.NoError(t, task.UpdateProgress(100, "", "staff-1", taskNow.Add(2*time.Hour)))

	require.Len(t, task.StatusHistory, 3)
	require.Equal(t, TaskPending, task.StatusHistory[0].Status)
	require.Equal(t, TaskInProgress, task.StatusHistory[1].Status)
	require.Equal(t, TaskCompleted, task.StatusHistory[2].Status)

	for i := 1; i < len(task.StatusHistory); i++ {
		require.False(t, task.StatusHistory[i].ChangedAt.Before(task.StatusHistory[i-1].ChangedAt))
	}
}

func TestPromoteRetention(t *testing.T) {
	later := taskNow.AddDate(0, 3, 1)

	open := mustNewTask(t)
	require.False(t, open.PromoteRetention(taskNow.AddDate(0, 1, 0)), "grace period still running")
	require.True(t, open.PromoteRetention(later))
	require.Equal(t, RetentionPermanent, open.Retention)
	require.False(t, open.PromoteRetention(later), "promotion is one-way")

	// A completed task stuck in grace-period gets its deletion date
	// backfilled from completedAt, not from the sweep time.
	done := mustNewTask(t)
	completedAt := taskNow.Add(time.Hour)
	done.MarkCompleted("staff-1", "", completedAt)
	done.Retention = RetentionGracePeriod
	done.ScheduledDeletionDate = nil

	require.True(t, done.PromoteRetention(later))
	require.Equal(t, RetentionCompletedStorage, done.Retention)
	require.NotNil(t, done.ScheduledDeletionDate)
	require.Equal(t, ScheduledDeletionDate(completedAt), *done.ScheduledDeletionDate)
}

func TestPurgeEligible(t *testing.T) {
	task := mustNewTask(t)
	require.False(t, task.PurgeEligible(taskNow.AddDate(1, 0, 0)), "grace-period tasks are never purgeable")

	require.NoError(t, task.UpdateProgress(100, "", "staff-1", taskNow))
	deletion := *task.ScheduledDeletionDate
	require.False(t, task.PurgeEligible(deletion.Add(-time.Second)))
	require.True(t, task.PurgeEligible(deletion))
}

func TestIsOverdue(t *testing.T) {
	task := mustNewTask(t)
	after := task.DueDate.Add(time.Hour)

	require.False(t, task.IsOverdue(taskNow))
	require.True(t, task.IsOverdue(after))

	require.NoError(t, task.UpdateProgress(100, "", "staff-1", taskNow))
	require.False(t, task.IsOverdue(after), "completed tasks are not overdue")
}
