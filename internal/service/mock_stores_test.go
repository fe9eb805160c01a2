package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"staffdesk/api/internal/models"
	"staffdesk/api/internal/repository"
)

// In-memory stores standing in for the pgx repositories. They reproduce
// the repository error contracts, including the atomic close and the
// version-guarded task update.

type memStaffStore struct {
	mu    sync.Mutex
	staff map[string]models.Staff
}

func newMemStaffStore() *memStaffStore {
	return &memStaffStore{staff: make(map[string]models.Staff)}
}

func (m *memStaffStore) add(s models.Staff) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.staff[s.ID] = s
}

func (m *memStaffStore) GetByID(_ context.Context, id string) (models.Staff, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.staff[id]
	if !ok {
		return models.Staff{}, repository.ErrStaffNotFound
	}
	return s, nil
}

func (m *memStaffStore) FindByEmail(_ context.Context, email string) (models.Staff, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.staff {
		if s.Email == email {
			return s, nil
		}
	}
	return models.Staff{}, repository.ErrStaffNotFound
}

type memAttendanceStore struct {
	mu      sync.Mutex
	records map[string]models.AttendanceRecord
}

func newMemAttendanceStore() *memAttendanceStore {
	return &memAttendanceStore{records: make(map[string]models.AttendanceRecord)}
}

func (m *memAttendanceStore) Insert(_ context.Context, rec models.AttendanceRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[rec.ID] = rec
	return nil
}

func (m *memAttendanceStore) GetByID(_ context.Context, id string) (models.AttendanceRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[id]
	if !ok {
		return models.AttendanceRecord{}, repository.ErrSessionNotFound
	}
	return rec, nil
}

func (m *memAttendanceStore) FindActiveByStaff(_ context.Context, staffID string) (models.AttendanceRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var found models.AttendanceRecord
	var ok bool
	for _, rec := range m.records {
		if rec.StaffID == staffID && rec.IsActive() {
			if !ok || rec.LoginTime.After(found.LoginTime) {
				found = rec
				ok = true
			}
		}
	}
	if !ok {
		return models.AttendanceRecord{}, repository.ErrSessionNotFound
	}
	return found, nil
}

func (m *memAttendanceStore) Close(_ context.Context, id string, at time.Time, status models.SessionStatus, reason string) (models.AttendanceRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[id]
	if !ok {
		return models.AttendanceRecord{}, repository.ErrSessionNotFound
	}
	if err := rec.Close(at, status, reason); err != nil {
		return models.AttendanceRecord{}, err
	}
	m.records[id] = rec
	return rec, nil
}

func (m *memAttendanceStore) ListByStaff(_ context.Context, staffID, monthKey string, limit, offset int) ([]models.AttendanceRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.AttendanceRecord
	for _, rec := range m.records {
		if rec.StaffID != staffID {
			continue
		}
		if monthKey != "" && rec.MonthKey != monthKey {
			continue
		}
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LoginTime.After(out[j].LoginTime) })
	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memAttendanceStore) MonthlySummary(_ context.Context, staffID, monthKey string) (repository.MonthlySummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	summary := repository.MonthlySummary{MonthKey: monthKey}
	for _, rec := range m.records {
		if rec.StaffID != staffID || rec.MonthKey != monthKey {
			continue
		}
		summary.TotalSessions++
		if rec.DurationMinutes != nil {
			summary.TotalMinutes += *rec.DurationMinutes
		}
		switch rec.Status {
		case models.SessionSystemLogout:
			summary.SystemLogouts++
		case models.SessionCompleted, models.SessionForcedLogout:
			summary.CompletedCloses++
		}
	}
	if summary.TotalSessions > 0 {
		summary.AverageMinutes = float64(summary.TotalMinutes) / float64(summary.TotalSessions)
	}
	return summary, nil
}

type memTaskStore struct {
	mu    sync.Mutex
	tasks map[string]models.Task
}

func newMemTaskStore() *memTaskStore {
	return &memTaskStore{tasks: make(map[string]models.Task)}
}

func (m *memTaskStore) Insert(_ context.Context, task models.Task) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tasks[task.ID] = task
	return nil
}

func (m *memTaskStore) GetByID(_ context.Context, id string) (models.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	task, ok := m.tasks[id]
	if !ok {
		return models.Task{}, repository.ErrTaskNotFound
	}
	return task, nil
}

func (m *memTaskStore) Update(_ context.Context, task models.Task) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.tasks[task.ID]
	if !ok {
		return repository.ErrTaskNotFound
	}
	if stored.Version != task.Version {
		return repository.ErrTaskConflict
	}
	task.Version++
	m.tasks[task.ID] = task
	return nil
}

func (m *memTaskStore) ListByAssignee(_ context.Context, staffID string, includeCompleted bool, now time.Time, limit, offset int) ([]models.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Task
	for _, task := range m.tasks {
		if task.AssignedTo != staffID {
			continue
		}
		if !includeCompleted && task.Status == models.TaskCompleted {
			continue
		}
		if task.PurgeEligible(now) {
			continue
		}
		out = append(out, task)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memTaskStore) ListOverdue(_ context.Context, now time.Time) ([]models.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Task
	for _, task := range m.tasks {
		if task.IsOverdue(now) {
			out = append(out, task)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DueDate.Before(out[j].DueDate) })
	return out, nil
}
