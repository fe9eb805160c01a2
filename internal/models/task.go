package models

import (
	"fmt"
	"time"
)

type TaskStatus string

const (
	TaskPending    TaskStatus = "pending"
	TaskInProgress TaskStatus = "in-progress"
	TaskCompleted  TaskStatus = "completed"
	TaskRejected   TaskStatus = "rejected"
	TaskCancelled  TaskStatus = "cancelled"
)

type TaskPriority string

const (
	PriorityLow    TaskPriority = "low"
	PriorityMedium TaskPriority = "medium"
	PriorityHigh   TaskPriority = "high"
	PriorityUrgent TaskPriority = "urgent"
)

// RetentionState is the lifecycle phase governing eventual deletion,
// independent of the workflow status.
type RetentionState string

const (
	RetentionGracePeriod      RetentionState = "grace-period"
	RetentionCompletedStorage RetentionState = "completed-storage"
	RetentionPermanent        RetentionState = "permanent"
)

const (
	maxTaskTitle       = 100
	maxTaskDescription = 1000
	maxTaskNote        = 200
	maxTaskComment     = 500
	maxRejectionReason = 500
)

type StatusChange struct {
	Status    TaskStatus `json:"status"`
	ChangedAt time.Time  `json:"changedAt"`
	ChangedBy string     `json:"changedBy"`
	Note      string     `json:"note,omitempty"`
}

type TaskComment struct {
	Author    string    `json:"author"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"createdAt"`
	IsSystem  bool      `json:"isSystem,omitempty"`
}

// Task is one assigned unit of work. Its workflow status and its retention
// state advance independently; statusHistory and comments are append-only.
type Task struct {
	ID          string
	Title       string
	Description string
	AssignedTo  string
	AssignedBy  string
	Status      TaskStatus
	Priority    TaskPriority
	DueDate     time.Time
	CompletedAt *time.Time
	Progress    int
	Retention   RetentionState
	// ScheduledDeletionDate is set exactly once, when the task enters
	// completed-storage, and never recomputed afterwards.
	ScheduledDeletionDate *time.Time
	StatusHistory         []StatusChange
	Comments              []TaskComment
	RejectionReason       string
	Version               int
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

type NewTaskInput struct {
	Title       string
	Description string
	AssignedTo  string
	AssignedBy  string
	Priority    TaskPriority
	DueDate     time.Time
}

// NewTask validates the input and opens a pending task in its grace period.
// The first history entry always records the creation.
func NewTask(id string, input NewTaskInput, now time.Time) (Task, error) {
	if input.Title == "" {
		return Task{}, validation("task title is required")
	}
	if len(input.Title) > maxTaskTitle {
		return Task{}, validation(fmt.Sprintf("task title cannot exceed %d characters", maxTaskTitle))
	}
	if input.Description == "" {
		return Task{}, validation("task description is required")
	}
	if len(input.Description) > maxTaskDescription {
		return Task{}, validation(fmt.Sprintf("task description cannot exceed %d characters", maxTaskDescription))
	}
	if input.AssignedTo == "" {
		return Task{}, validation("task assignee is required")
	}
	if input.AssignedBy == "" {
		return Task{}, validation("task assigner is required")
	}
	if err := validateDueDate(input.DueDate, now); err != nil {
		return Task{}, err
	}

	priority := input.Priority
	switch priority {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
	case "":
		priority = PriorityMedium
	default:
		return Task{}, validation(fmt.Sprintf("unknown priority %q", priority))
	}

	return Task{
		ID:          id,
		Title:       input.Title,
		Description: input.Description,
		AssignedTo:  input.AssignedTo,
		AssignedBy:  input.AssignedBy,
		Status:      TaskPending,
		Priority:    priority,
		DueDate:     input.DueDate,
		Retention:   RetentionGracePeriod,
		StatusHistory: []StatusChange{{
			Status:    TaskPending,
			ChangedAt: now,
			ChangedBy: input.AssignedBy,
			Note:      "Task created",
		}},
		Version:   1,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

func validateDueDate(due, now time.Time) error {
	if !due.After(now) {
		return validation("due date must be future")
	}
	return nil
}

// ScheduledDeletionDate returns the 15th, end of day, three months after
// completedAt, rolled one month further when the completion day is already
// past the 15th. The rolling rule is intentionally different from the
// attendance auto-delete rule.
func ScheduledDeletionDate(completedAt time.Time) time.Time {
	year, month, day := completedAt.Date()
	month += 3
	if day > 15 {
		month++
	}
	return time.Date(year, month, 15, 23, 59, 59, 999_000_000, completedAt.Location())
}

// GracePeriodOver reports whether three calendar months have elapsed since
// the task was created.
func (t Task) GracePeriodOver(now time.Time) bool {
	return t.CreatedAt.Before(now.AddDate(0, -3, 0))
}

func (t Task) terminal() bool {
	switch t.Status {
	case TaskCompleted, TaskRejected, TaskCancelled:
		return true
	}
	return false
}

// IsOverdue reports whether the due date passed while the task is still
// open.
func (t Task) IsOverdue(now time.Time) bool {
	return t.DueDate.Before(now) && !t.terminal()
}

// PurgeEligible reports whether the retention sweep may delete the task.
func (t Task) PurgeEligible(now time.Time) bool {
	return t.Retention == RetentionCompletedStorage &&
		t.ScheduledDeletionDate != nil &&
		!now.Before(*t.ScheduledDeletionDate)
}

func (t *Task) appendHistory(status TaskStatus, actor, note string, now time.Time) {
	if len(note) > maxTaskNote {
		note = note[:maxTaskNote]
	}
	t.StatusHistory = append(t.StatusHistory, StatusChange{
		Status:    status,
		ChangedAt: now,
		ChangedBy: actor,
		Note:      note,
	})
}

// AddComment appends to the comment trail. System comments are generated by
// the engine rather than typed by a person.
func (t *Task) AddComment(author, text string, isSystem bool, now time.Time) error {
	if text == "" {
		return validation("comment text is required")
	}
	if len(text) > maxTaskComment {
		return validation(fmt.Sprintf("comment cannot exceed %d characters", maxTaskComment))
	}
	t.Comments = append(t.Comments, TaskComment{
		Author:    author,
		Text:      text,
		CreatedAt: now,
		IsSystem:  isSystem,
	})
	t.UpdatedAt = now
	return nil
}

// UpdateProgress clamps value to [0,100], records a progress comment, and
// lets progress drive status: reaching 100 completes the task, and any
// partial progress moves a pending task to in-progress. Rejected and
// cancelled tasks no longer accept progress.
func (t *Task) UpdateProgress(value int, comment, actor string, now time.Time) error {
	if t.Status == TaskRejected || t.Status == TaskCancelled {
		return ErrInvalidTransition
	}

	if value < 0 {
		value = 0
	}
	if value > 100 {
		value = 100
	}

	old := t.Progress
	t.Progress = value

	text := fmt.Sprintf("Progress updated from %d%% to %d%%", old, value)
	isSystem := comment == ""
	if comment != "" {
		text = fmt.Sprintf("%s: %s", text, comment)
	}
	if err := t.AddComment(actor, text, isSystem, now); err != nil {
		return err
	}

	if value == 100 && t.Status != TaskCompleted {
		t.MarkCompleted(actor, "Task completed", now)
	} else if value > 0 && value < 100 && t.Status == TaskPending {
		t.Status = TaskInProgress
		t.appendHistory(TaskInProgress, actor, "Progress started", now)
	}

	t.UpdatedAt = now
	return nil
}

// MarkCompleted finishes the task and moves retention to completed-storage.
// The scheduled deletion date is derived only if it was never set before.
func (t *Task) MarkCompleted(actor, note string, now time.Time) {
	completed := now
	t.Status = TaskCompleted
	t.Progress = 100
	t.CompletedAt = &completed
	t.Retention = RetentionCompletedStorage
	if t.ScheduledDeletionDate == nil {
		d := ScheduledDeletionDate(completed)
		t.ScheduledDeletionDate = &d
	}
	if note == "" {
		note = "Task completed"
	}
	t.appendHistory(TaskCompleted, actor, note, now)
	t.UpdatedAt = now
}

// Reject closes the task with a mandatory reason. Rejected tasks are kept
// permanently.
func (t *Task) Reject(reason, actor, note string, now time.Time) error {
	if reason == "" {
		return validation("rejection reason is required")
	}
	if len(reason) > maxRejectionReason {
		return validation(fmt.Sprintf("rejection reason cannot exceed %d characters", maxRejectionReason))
	}
	if t.terminal() {
		return ErrInvalidTransition
	}

	rejected := now
	t.Status = TaskRejected
	t.RejectionReason = reason
	t.CompletedAt = &rejected
	t.Retention = RetentionPermanent

	if note == "" {
		note = "Task rejected"
	}
	t.appendHistory(TaskRejected, actor, note, now)
	if err := t.AddComment(actor, fmt.Sprintf("Task rejected: %s", reason), false, now); err != nil {
		return err
	}
	t.UpdatedAt = now
	return nil
}

// Cancel withdraws an open task.
func (t *Task) Cancel(actor, note string, now time.Time) error {
	if t.terminal() {
		return ErrInvalidTransition
	}
	t.Status = TaskCancelled
	if note == "" {
		note = "Task cancelled"
	}
	t.appendHistory(TaskCancelled, actor, note, now)
	t.UpdatedAt = now
	return nil
}

// Reschedule changes the due date. Only an explicit due-date change is
// validated against the clock; touching other fields never re-validates an
// already-passed due date.
func (t *Task) Reschedule(due time.Time, actor string, now time.Time) error {
	if t.terminal() {
		return ErrInvalidTransition
	}
	if err := validateDueDate(due, now); err != nil {
		return err
	}
	t.DueDate = due
	t.UpdatedAt = now
	return nil
}

// PromoteRetention advances the retention state once the grace period has
// elapsed: completed tasks go to completed-storage (backfilling the deletion
// date when missing), everything else becomes permanent. Returns true when
// the task changed.
func (t *Task) PromoteRetention(now time.Time) bool {
	if t.Retention != RetentionGracePeriod || !t.GracePeriodOver(now) {
		return false
	}

	if t.Status == TaskCompleted {
		t.Retention = RetentionCompletedStorage
		if t.ScheduledDeletionDate == nil && t.CompletedAt != nil {
			d := ScheduledDeletionDate(*t.CompletedAt)
			t.ScheduledDeletionDate = &d
		}
	} else {
		t.Retention = RetentionPermanent
	}
	t.UpdatedAt = now
	return true
}
