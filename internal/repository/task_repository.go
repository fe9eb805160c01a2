package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"staffdesk/api/internal/models"
)

var (
	ErrTaskNotFound = errors.New("task not found")

	// ErrTaskConflict means the task changed between read and write; the
	// caller should re-read and retry the operation.
	ErrTaskConflict = errors.New("task modified concurrently")
)

type TaskRepository struct {
	pool *pgxpool.Pool
}

func NewTaskRepository(pool *pgxpool.Pool) *TaskRepository {
	return &TaskRepository{pool: pool}
}

const taskColumns = `
	id, title, description, assigned_to, assigned_by, status, priority,
	due_date, completed_at, progress, retention_state,
	scheduled_deletion_date, status_history, comments, rejection_reason,
	version, created_at, updated_at`

func (r *TaskRepository) Insert(ctx context.Context, task models.Task) error {
	history, comments, err := marshalTrails(task)
	if err != nil {
		return err
	}

	const query = `
		INSERT INTO tasks (
			id, title, description, assigned_to, assigned_by, status, priority,
			due_date, completed_at, progress, retention_state,
			scheduled_deletion_date, status_history, comments, rejection_reason,
			version, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, NOW(), NOW())
	`
	_, err = r.pool.Exec(ctx, query,
		task.ID,
		task.Title,
		task.Description,
		task.AssignedTo,
		task.AssignedBy,
		task.Status,
		task.Priority,
		task.DueDate,
		task.CompletedAt,
		task.Progress,
		task.Retention,
		task.ScheduledDeletionDate,
		history,
		comments,
		task.RejectionReason,
		task.Version,
	)
	return err
}

// Update writes back a mutated task guarded by its version, so two
// concurrent read-modify-write cycles cannot both win.
func (r *TaskRepository) Update(ctx context.Context, task models.Task) error {
	history, comments, err := marshalTrails(task)
	if err != nil {
		return err
	}

	const query = `
		UPDATE tasks
		SET title = $2,
		    description = $3,
		    status = $4,
		    priority = $5,
		    due_date = $6,
		    completed_at = $7,
		    progress = $8,
		    retention_state = $9,
		    scheduled_deletion_date = $10,
		    status_history = $11,
		    comments = $12,
		    rejection_reason = $13,
		    version = version + 1,
		    updated_at = NOW()
		WHERE id = $1 AND version = $14
	`
	cmd, err := r.pool.Exec(ctx, query,
		task.ID,
		task.Title,
		task.Description,
		task.Status,
		task.Priority,
		task.DueDate,
		task.CompletedAt,
		task.Progress,
		task.Retention,
		task.ScheduledDeletionDate,
		history,
		comments,
		task.RejectionReason,
		task.Version,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		if _, getErr := r.GetByID(ctx, task.ID); errors.Is(getErr, ErrTaskNotFound) {
			return ErrTaskNotFound
		}
		return ErrTaskConflict
	}
	return nil
}

func (r *TaskRepository) GetByID(ctx context.Context, id string) (models.Task, error) {
	const query = `SELECT ` + taskColumns + ` FROM tasks WHERE id = $1`
	return r.scanOne(r.pool.QueryRow(ctx, query, id))
}

func (r *TaskRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM tasks WHERE id = $1`
	cmd, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrTaskNotFound
	}
	return nil
}

// ListByAssignee pages a staff member's tasks, hiding records the retention
// sweep is about to purge.
func (r *TaskRepository) ListByAssignee(ctx context.Context, staffID string, includeCompleted bool, now time.Time, limit, offset int) ([]models.Task, error) {
	const query = `
		SELECT ` + taskColumns + `
		FROM tasks
		WHERE assigned_to = $1
		  AND ($2 OR status <> 'completed')
		  AND (retention_state <> 'completed-storage'
		       OR scheduled_deletion_date IS NULL
		       OR scheduled_deletion_date > $3)
		ORDER BY created_at DESC
		LIMIT $4 OFFSET $5
	`
	return r.scanMany(ctx, query, staffID, includeCompleted, now, limit, offset)
}

// ListPurgeable returns tasks in completed-storage whose deletion date has
// passed.
func (r *TaskRepository) ListPurgeable(ctx context.Context, now time.Time) ([]models.Task, error) {
	const query = `
		SELECT ` + taskColumns + `
		FROM tasks
		WHERE retention_state = 'completed-storage'
		  AND scheduled_deletion_date IS NOT NULL
		  AND scheduled_deletion_date <= $1
		ORDER BY scheduled_deletion_date
	`
	return r.scanMany(ctx, query, now)
}

// ListOverdue returns open tasks past their due date, excluding
// purge-scheduled records.
func (r *TaskRepository) ListOverdue(ctx context.Context, now time.Time) ([]models.Task, error) {
	const query = `
		SELECT ` + taskColumns + `
		FROM tasks
		WHERE due_date < $1
		  AND status IN ('pending', 'in-progress')
		  AND (retention_state <> 'completed-storage'
		       OR scheduled_deletion_date IS NULL
		       OR scheduled_deletion_date > $1)
		ORDER BY due_date
	`
	return r.scanMany(ctx, query, now)
}

// PromoteExpiredGrace bulk-moves uncompleted grace-period tasks created
// before the cutoff to permanent retention. Completed stragglers are
// handled one by one by the promotion sweep so their deletion dates can be
// backfilled.
func (r *TaskRepository) PromoteExpiredGrace(ctx context.Context, cutoff time.Time) (int64, error) {
	const query = `
		UPDATE tasks
		SET retention_state = 'permanent', updated_at = NOW()
		WHERE retention_state = 'grace-period'
		  AND created_at < $1
		  AND status <> 'completed'
	`
	cmd, err := r.pool.Exec(ctx, query, cutoff)
	if err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), nil
}

// ListCompletedWithoutDeletionDate finds completed tasks that predate the
// retention rule and still lack a scheduled deletion date.
func (r *TaskRepository) ListCompletedWithoutDeletionDate(ctx context.Context) ([]models.Task, error) {
	const query = `
		SELECT ` + taskColumns + `
		FROM tasks
		WHERE status = 'completed'
		  AND scheduled_deletion_date IS NULL
		  AND completed_at IS NOT NULL
	`
	return r.scanMany(ctx, query)
}

type RetentionStats struct {
	GracePeriod          int
	CompletedStorage     int
	Permanent            int
	ScheduledForDeletion int
}

// CountByRetention summarizes the retention population for the admin view;
// ScheduledForDeletion counts completed-storage tasks due before the given
// horizon.
func (r *TaskRepository) CountByRetention(ctx context.Context, horizon time.Time) (RetentionStats, error) {
	const query = `
		SELECT
			COUNT(*) FILTER (WHERE retention_state = 'grace-period'),
			COUNT(*) FILTER (WHERE retention_state = 'completed-storage'),
			COUNT(*) FILTER (WHERE retention_state = 'permanent'),
			COUNT(*) FILTER (WHERE retention_state = 'completed-storage'
			                   AND scheduled_deletion_date IS NOT NULL
			                   AND scheduled_deletion_date <= $1)
		FROM tasks
	`
	var stats RetentionStats
	err := r.pool.QueryRow(ctx, query, horizon).Scan(
		&stats.GracePeriod,
		&stats.CompletedStorage,
		&stats.Permanent,
		&stats.ScheduledForDeletion,
	)
	if err != nil {
		return RetentionStats{}, err
	}
	return stats, nil
}

func marshalTrails(task models.Task) ([]byte, []byte, error) {
	history, err := json.Marshal(task.StatusHistory)
	if err != nil {
		return nil, nil, fmt.Errorf("marshal status history: %w", err)
	}
	comments, err := json.Marshal(task.Comments)
	if err != nil {
		return nil, nil, fmt.Errorf("marshal comments: %w", err)
	}
	return history, comments, nil
}

func (r *TaskRepository) scanOne(row pgx.Row) (models.Task, error) {
	var (
		task     models.Task
		history  []byte
		comments []byte
	)
	if err := row.Scan(
		&task.ID,
		&task.Title,
		&task.Description,
		&task.AssignedTo,
		&task.AssignedBy,
		&task.Status,
		&task.Priority,
		&task.DueDate,
		&task.CompletedAt,
		&task.Progress,
		&task.Retention,
		&task.ScheduledDeletionDate,
		&history,
		&comments,
		&task.RejectionReason,
		&task.Version,
		&task.CreatedAt,
		&task.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Task{}, ErrTaskNotFound
		}
		return models.Task{}, err
	}

	if err := json.Unmarshal(history, &task.StatusHistory); err != nil {
		return models.Task{}, fmt.Errorf("unmarshal status history: %w", err)
	}
	if err := json.Unmarshal(comments, &task.Comments); err != nil {
		return models.Task{}, fmt.Errorf("unmarshal comments: %w", err)
	}
	return task, nil
}

func (r *TaskRepository) scanMany(ctx context.Context, query string, args ...any) ([]models.Task, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tasks []models.Task
	for rows.Next() {
		task, err := r.scanOne(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}
	return tasks, rows.Err()
}
