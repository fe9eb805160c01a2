package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"staffdesk/api/internal/repository"
)

// ActiveSession returns the caller's open session, or 404 when none is open.
func (h HandlerSet) ActiveSession(c *gin.Context) {
	member, ok := currentStaff(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	session, err := h.sessions.Active(c.Request.Context(), member.ID)
	if err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "no active session"})
			return
		}
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"session": toSessionResponse(session)})
}

type historyEntry struct {
	sessionResponse
	DaysUntilDeletion int `json:"daysUntilDeletion"`
}

// AttendanceHistory lists the caller's past sessions, optionally scoped to
// one month via ?month=YYYY-MM.
func (h HandlerSet) AttendanceHistory(c *gin.Context) {
	member, ok := currentStaff(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	monthKey := c.Query("month")
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "30"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	records, err := h.sessions.History(c.Request.Context(), member.ID, monthKey, limit, offset)
	if err != nil {
		respondError(c, err)
		return
	}

	now := h.clock.Now()
	resp := make([]historyEntry, 0, len(records))
	for _, rec := range records {
		resp = append(resp, historyEntry{
			sessionResponse:   toSessionResponse(rec),
			DaysUntilDeletion: rec.DaysUntilDeletion(now),
		})
	}

	c.JSON(http.StatusOK, gin.H{"records": resp})
}

type summaryResponse struct {
	MonthKey        string     `json:"monthKey"`
	TotalSessions   int        `json:"totalSessions"`
	TotalMinutes    int        `json:"totalMinutes"`
	AverageMinutes  float64    `json:"averageMinutes"`
	FirstLogin      *time.Time `json:"firstLogin,omitempty"`
	LastLogout      *time.Time `json:"lastLogout,omitempty"`
	SystemLogouts   int        `json:"systemLogouts"`
	CompletedCloses int        `json:"completedCloses"`
}

// AttendanceSummary aggregates the caller's sessions for one month.
// Defaults to the current month.
func (h HandlerSet) AttendanceSummary(c *gin.Context) {
	member, ok := currentStaff(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	summary, err := h.sessions.MonthlySummary(c.Request.Context(), member.ID, c.Query("month"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, summaryResponse{
		MonthKey:        summary.MonthKey,
		TotalSessions:   summary.TotalSessions,
		TotalMinutes:    summary.TotalMinutes,
		AverageMinutes:  summary.AverageMinutes,
		FirstLogin:      summary.FirstLogin,
		LastLogout:      summary.LastLogout,
		SystemLogouts:   summary.SystemLogouts,
		CompletedCloses: summary.CompletedCloses,
	})
}

type forceLogoutRequest struct {
	Reason string `json:"reason"`
}

// ForceLogout closes another staff member's session. Admin only.
func (h HandlerSet) ForceLogout(c *gin.Context) {
	sessionID := c.Param("id")

	var req forceLogoutRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	closed, err := h.sessions.ForceLogout(c.Request.Context(), sessionID, req.Reason)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"session": toSessionResponse(closed)})
}
