package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"staffdesk/api/internal/models"
	"staffdesk/api/internal/service"
)

type taskResponse struct {
	ID                    string                `json:"id"`
	Title                 string                `json:"title"`
	Description           string                `json:"description"`
	AssignedTo            string                `json:"assignedTo"`
	AssignedBy            string                `json:"assignedBy"`
	Status                string                `json:"status"`
	Priority              string                `json:"priority"`
	DueDate               time.Time             `json:"dueDate"`
	CompletedAt           *time.Time            `json:"completedAt,omitempty"`
	Progress              int                   `json:"progress"`
	Retention             string                `json:"retention"`
	ScheduledDeletionDate *time.Time            `json:"scheduledDeletionDate,omitempty"`
	StatusHistory         []models.StatusChange `json:"statusHistory"`
	Comments              []models.TaskComment  `json:"comments"`
	RejectionReason       string                `json:"rejectionReason,omitempty"`
	Overdue               bool                  `json:"overdue"`
}

func (h HandlerSet) toTaskResponse(task models.Task) taskResponse {
	return taskResponse{
		ID:                    task.ID,
		Title:                 task.Title,
		Description:           task.Description,
		AssignedTo:            task.AssignedTo,
		AssignedBy:            task.AssignedBy,
		Status:                string(task.Status),
		Priority:              string(task.Priority),
		DueDate:               task.DueDate,
		CompletedAt:           task.CompletedAt,
		Progress:              task.Progress,
		Retention:             string(task.Retention),
		ScheduledDeletionDate: task.ScheduledDeletionDate,
		StatusHistory:         task.StatusHistory,
		Comments:              task.Comments,
		RejectionReason:       task.RejectionReason,
		Overdue:               task.IsOverdue(h.clock.Now()),
	}
}

func (h HandlerSet) toTaskResponses(tasks []models.Task) []taskResponse {
	resp := make([]taskResponse, 0, len(tasks))
	for _, task := range tasks {
		resp = append(resp, h.toTaskResponse(task))
	}
	return resp
}

type createTaskRequest struct {
	Title       string    `json:"title" binding:"required"`
	Description string    `json:"description" binding:"required"`
	AssignedTo  string    `json:"assignedTo" binding:"required"`
	Priority    string    `json:"priority"`
	DueDate     time.Time `json:"dueDate" binding:"required"`
}

// CreateTask assigns a new task. Admin only; the assigner is the caller.
func (h HandlerSet) CreateTask(c *gin.Context) {
	member, ok := currentStaff(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req createTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	task, err := h.taskSvc.Create(c.Request.Context(), service.CreateTaskInput{
		Title:       req.Title,
		Description: req.Description,
		AssignedTo:  req.AssignedTo,
		AssignedBy:  member.ID,
		Priority:    models.TaskPriority(req.Priority),
		DueDate:     req.DueDate,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"task": h.toTaskResponse(task)})
}

// ListMyTasks lists tasks assigned to the caller. Completed tasks are
// hidden unless ?includeCompleted=true.
func (h HandlerSet) ListMyTasks(c *gin.Context) {
	member, ok := currentStaff(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	includeCompleted := c.Query("includeCompleted") == "true"
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	tasks, err := h.taskSvc.ListForStaff(c.Request.Context(), member.ID, includeCompleted, limit, offset)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"tasks": h.toTaskResponses(tasks)})
}

// GetTask returns one task. Staff may only read their own assignments;
// admins may read any.
func (h HandlerSet) GetTask(c *gin.Context) {
	member, ok := currentStaff(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	task, err := h.taskSvc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	if task.AssignedTo != member.ID && !member.IsAdmin() {
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"task": h.toTaskResponse(task)})
}

type progressRequest struct {
	Progress *int   `json:"progress" binding:"required"`
	Comment  string `json:"comment"`
}

// UpdateTaskProgress moves the caller's task forward. 100 completes it.
func (h HandlerSet) UpdateTaskProgress(c *gin.Context) {
	member, ok := currentStaff(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req progressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	task, err := h.taskSvc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	if task.AssignedTo != member.ID && !member.IsAdmin() {
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
		return
	}

	updated, err := h.taskSvc.UpdateProgress(c.Request.Context(), task.ID, *req.Progress, req.Comment, member.ID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"task": h.toTaskResponse(updated)})
}

type commentRequest struct {
	Text string `json:"text" binding:"required"`
}

func (h HandlerSet) AddTaskComment(c *gin.Context) {
	member, ok := currentStaff(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req commentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	task, err := h.taskSvc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	if task.AssignedTo != member.ID && !member.IsAdmin() {
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
		return
	}

	updated, err := h.taskSvc.AddComment(c.Request.Context(), task.ID, member.ID, req.Text)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"task": h.toTaskResponse(updated)})
}

type rejectTaskRequest struct {
	Reason string `json:"reason" binding:"required"`
	Note   string `json:"note"`
}

// RejectTask permanently rejects a task. Admin only; rejection is terminal
// and the task leaves the deletion schedule for good.
func (h HandlerSet) RejectTask(c *gin.Context) {
	member, ok := currentStaff(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req rejectTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	task, err := h.taskSvc.Reject(c.Request.Context(), c.Param("id"), req.Reason, member.ID, req.Note)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"task": h.toTaskResponse(task)})
}

type cancelTaskRequest struct {
	Note string `json:"note"`
}

func (h HandlerSet) CancelTask(c *gin.Context) {
	member, ok := currentStaff(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req cancelTaskRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	task, err := h.taskSvc.Cancel(c.Request.Context(), c.Param("id"), member.ID, req.Note)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"task": h.toTaskResponse(task)})
}

type rescheduleRequest struct {
	DueDate time.Time `json:"dueDate" binding:"required"`
}

func (h HandlerSet) RescheduleTask(c *gin.Context) {
	member, ok := currentStaff(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req rescheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	task, err := h.taskSvc.Reschedule(c.Request.Context(), c.Param("id"), req.DueDate, member.ID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"task": h.toTaskResponse(task)})
}

func (h HandlerSet) OverdueTasks(c *gin.Context) {
	tasks, err := h.taskSvc.ListOverdue(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"tasks": h.toTaskResponses(tasks)})
}
