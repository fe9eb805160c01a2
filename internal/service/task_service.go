package service

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"staffdesk/api/internal/clock"
	"staffdesk/api/internal/ids"
	"staffdesk/api/internal/models"
)

type TaskService struct {
	tasks TaskStore
	clock clock.Clock
	log   zerolog.Logger
}

func NewTaskService(tasks TaskStore, clk clock.Clock, log zerolog.Logger) *TaskService {
	return &TaskService{tasks: tasks, clock: clk, log: log}
}

type CreateTaskInput struct {
	Title       string
	Description string
	AssignedTo  string
	AssignedBy  string
	Priority    models.TaskPriority
	DueDate     time.Time
}

func (s *TaskService) Create(ctx context.Context, input CreateTaskInput) (models.Task, error) {
	task, err := models.NewTask(ids.New(), models.NewTaskInput{
		Title:       input.Title,
		Description: input.Description,
		AssignedTo:  input.AssignedTo,
		AssignedBy:  input.AssignedBy,
		Priority:    input.Priority,
		DueDate:     input.DueDate,
	}, s.clock.Now())
	if err != nil {
		return models.Task{}, err
	}

	if err := s.tasks.Insert(ctx, task); err != nil {
		return models.Task{}, err
	}

	s.log.Info().
		Str("task_id", task.ID).
		Str("assigned_to", task.AssignedTo).
		Str("assigned_by", task.AssignedBy).
		Time("due_date", task.DueDate).
		Msg("task created")
	return task, nil
}

func (s *TaskService) Get(ctx context.Context, id string) (models.Task, error) {
	return s.tasks.GetByID(ctx, id)
}

func (s *TaskService) ListForStaff(ctx context.Context, staffID string, includeCompleted bool, limit, offset int) ([]models.Task, error) {
	if limit <= 0 || limit > 100 {
		limit = 10
	}
	if offset < 0 {
		offset = 0
	}
	return s.tasks.ListByAssignee(ctx, staffID, includeCompleted, s.clock.Now(), limit, offset)
}

func (s *TaskService) ListOverdue(ctx context.Context) ([]models.Task, error) {
	return s.tasks.ListOverdue(ctx, s.clock.Now())
}

// UpdateProgress applies a read-modify-write progress change. Progress
// drives status: 100 completes the task, partial progress starts it.
func (s *TaskService) UpdateProgress(ctx context.Context, taskID string, value int, comment, actor string) (models.Task, error) {
	task, err := s.tasks.GetByID(ctx, taskID)
	if err != nil {
		return models.Task{}, err
	}

	if err := task.UpdateProgress(value, comment, actor, s.clock.Now()); err != nil {
		return models.Task{}, err
	}

	if err := s.tasks.Update(ctx, task); err != nil {
		return models.Task{}, err
	}

	if task.Status == models.TaskCompleted {
		s.log.Info().
			Str("task_id", task.ID).
			Time("scheduled_deletion", *task.ScheduledDeletionDate).
			Msg("task completed")
	}
	return task, nil
}

func (s *TaskService) Reject(ctx context.Context, taskID, reason, actor, note string) (models.Task, error) {
	task, err := s.tasks.GetByID(ctx, taskID)
	if err != nil {
		return models.Task{}, err
	}

	if err := task.Reject(reason, actor, note, s.clock.Now()); err != nil {
		return models.Task{}, err
	}

	if err := s.tasks.Update(ctx, task); err != nil {
		return models.Task{}, err
	}

	s.log.Info().Str("task_id", task.ID).Str("actor", actor).Msg("task rejected")
	return task, nil
}

func (s *TaskService) Cancel(ctx context.Context, taskID, actor, note string) (models.Task, error) {
	task, err := s.tasks.GetByID(ctx, taskID)
	if err != nil {
		return models.Task{}, err
	}

	if err := task.Cancel(actor, note, s.clock.Now()); err != nil {
		return models.Task{}, err
	}

	if err := s.tasks.Update(ctx, task); err != nil {
		return models.Task{}, err
	}
	return task, nil
}

func (s *TaskService) AddComment(ctx context.Context, taskID, author, text string) (models.Task, error) {
	task, err := s.tasks.GetByID(ctx, taskID)
	if err != nil {
		return models.Task{}, err
	}

	if err := task.AddComment(author, text, false, s.clock.Now()); err != nil {
		return models.Task{}, err
	}

	if err := s.tasks.Update(ctx, task); err != nil {
		return models.Task{}, err
	}
	return task, nil
}

func (s *TaskService) Reschedule(ctx context.Context, taskID string, due time.Time, actor string) (models.Task, error) {
	task, err := s.tasks.GetByID(ctx, taskID)
	if err != nil {
		return models.Task{}, err
	}

	if err := task.Reschedule(due, actor, s.clock.Now()); err != nil {
		return models.Task{}, err
	}

	if err := s.tasks.Update(ctx, task); err != nil {
		return models.Task{}, err
	}
	return task, nil
}
