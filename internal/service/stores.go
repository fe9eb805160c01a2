package service

import (
	"context"
	"time"

	"staffdesk/api/internal/models"
	"staffdesk/api/internal/repository"
)

// Store interfaces are satisfied by the pgx repositories; services depend
// on them so the lifecycle logic stays testable without a database.

type StaffStore interface {
	GetByID(ctx context.Context, id string) (models.Staff, error)
	FindByEmail(ctx context.Context, email string) (models.Staff, error)
}

type AttendanceStore interface {
	Insert(ctx context.Context, rec models.AttendanceRecord) error
	GetByID(ctx context.Context, id string) (models.AttendanceRecord, error)
	FindActiveByStaff(ctx context.Context, staffID string) (models.AttendanceRecord, error)
	Close(ctx context.Context, id string, at time.Time, status models.SessionStatus, reason string) (models.AttendanceRecord, error)
	ListByStaff(ctx context.Context, staffID, monthKey string, limit, offset int) ([]models.AttendanceRecord, error)
	MonthlySummary(ctx context.Context, staffID, monthKey string) (repository.MonthlySummary, error)
}

type TaskStore interface {
	Insert(ctx context.Context, task models.Task) error
	GetByID(ctx context.Context, id string) (models.Task, error)
	Update(ctx context.Context, task models.Task) error
	ListByAssignee(ctx context.Context, staffID string, includeCompleted bool, now time.Time, limit, offset int) ([]models.Task, error)
	ListOverdue(ctx context.Context, now time.Time) ([]models.Task, error)
}
