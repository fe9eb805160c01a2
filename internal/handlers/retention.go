package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

type retentionStatsResponse struct {
	Tasks struct {
		GracePeriod          int `json:"gracePeriod"`
		CompletedStorage     int `json:"completedStorage"`
		Permanent            int `json:"permanent"`
		ScheduledForDeletion int `json:"scheduledForDeletion"`
	} `json:"tasks"`
	Attendance struct {
		PendingDeletion int `json:"pendingDeletion"`
	} `json:"attendance"`
	Horizon time.Time `json:"horizon"`
}

// RetentionStats reports the retention population. ?days widens the
// horizon for the scheduled-deletion counts (default 30).
func (h HandlerSet) RetentionStats(c *gin.Context) {
	days, _ := strconv.Atoi(c.DefaultQuery("days", "30"))
	if days <= 0 {
		days = 30
	}
	horizon := h.clock.Now().AddDate(0, 0, days)

	stats, err := h.tasks.CountByRetention(c.Request.Context(), horizon)
	if err != nil {
		respondError(c, err)
		return
	}

	expired, err := h.attendance.ListExpired(c.Request.Context(), horizon)
	if err != nil {
		respondError(c, err)
		return
	}

	var resp retentionStatsResponse
	resp.Tasks.GracePeriod = stats.GracePeriod
	resp.Tasks.CompletedStorage = stats.CompletedStorage
	resp.Tasks.Permanent = stats.Permanent
	resp.Tasks.ScheduledForDeletion = stats.ScheduledForDeletion
	resp.Attendance.PendingDeletion = len(expired)
	resp.Horizon = horizon

	c.JSON(http.StatusOK, resp)
}

type scheduledDeletion struct {
	Kind              string    `json:"kind"`
	ID                string    `json:"id"`
	Owner             string    `json:"owner"`
	DeletionDate      time.Time `json:"deletionDate"`
	DaysUntilDeletion int       `json:"daysUntilDeletion"`
}

// RetentionSchedule lists records whose deletion date falls within the
// horizon, attendance and tasks interleaved.
func (h HandlerSet) RetentionSchedule(c *gin.Context) {
	days, _ := strconv.Atoi(c.DefaultQuery("days", "30"))
	if days <= 0 {
		days = 30
	}
	now := h.clock.Now()
	horizon := now.AddDate(0, 0, days)

	records, err := h.attendance.ListExpired(c.Request.Context(), horizon)
	if err != nil {
		respondError(c, err)
		return
	}

	tasks, err := h.tasks.ListPurgeable(c.Request.Context(), horizon)
	if err != nil {
		respondError(c, err)
		return
	}

	schedule := make([]scheduledDeletion, 0, len(records)+len(tasks))
	for _, rec := range records {
		schedule = append(schedule, scheduledDeletion{
			Kind:              "attendance",
			ID:                rec.ID,
			Owner:             rec.StaffID,
			DeletionDate:      rec.AutoDeleteDate,
			DaysUntilDeletion: rec.DaysUntilDeletion(now),
		})
	}
	for _, task := range tasks {
		if task.ScheduledDeletionDate == nil {
			continue
		}
		schedule = append(schedule, scheduledDeletion{
			Kind:              "task",
			ID:                task.ID,
			Owner:             task.AssignedTo,
			DeletionDate:      *task.ScheduledDeletionDate,
			DaysUntilDeletion: int(task.ScheduledDeletionDate.Sub(now).Hours() / 24),
		})
	}

	c.JSON(http.StatusOK, gin.H{"schedule": schedule})
}

type runSweepRequest struct {
	Sweep string `json:"sweep" binding:"required,oneof=attendance-purge task-purge stale-sessions promotion all"`
}

// RunRetentionSweeps triggers a sweep outside its cron schedule. The same
// code paths run, so a manual run is as safe as a scheduled one.
func (h HandlerSet) RunRetentionSweeps(c *gin.Context) {
	var req runSweepRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx := c.Request.Context()
	now := h.clock.Now()
	results := gin.H{}

	if req.Sweep == "attendance-purge" || req.Sweep == "all" {
		report, err := h.sweeper.RunAttendancePurge(ctx, now)
		if err != nil {
			respondError(c, err)
			return
		}
		results["attendancePurge"] = gin.H{"deleted": report.Deleted, "failed": report.Failed}
	}
	if req.Sweep == "task-purge" || req.Sweep == "all" {
		report, err := h.sweeper.RunTaskPurge(ctx, now)
		if err != nil {
			respondError(c, err)
			return
		}
		results["taskPurge"] = gin.H{"deleted": report.Deleted, "failed": report.Failed}
	}
	if req.Sweep == "stale-sessions" || req.Sweep == "all" {
		report, err := h.sweeper.RunStaleSessionSweep(ctx, now)
		if err != nil {
			respondError(c, err)
			return
		}
		results["staleSessions"] = gin.H{"reconciled": report.Reconciled, "failed": report.Failed}
	}
	if req.Sweep == "promotion" || req.Sweep == "all" {
		report, err := h.sweeper.RunRetentionPromotion(ctx, now)
		if err != nil {
			respondError(c, err)
			return
		}
		results["promotion"] = gin.H{
			"promoted":         report.Promoted,
			"deletionDatesSet": report.DeletionDatesSet,
			"failed":           report.Failed,
		}
	}

	c.JSON(http.StatusOK, results)
}
