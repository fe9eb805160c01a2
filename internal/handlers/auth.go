package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"staffdesk/api/internal/models"
	"staffdesk/api/internal/security"
	"staffdesk/api/internal/service"
)

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type loginResponse struct {
	AccessToken string          `json:"accessToken"`
	Staff       staffResponse   `json:"staff"`
	Session     sessionResponse `json:"session"`
}

type staffResponse struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

type sessionResponse struct {
	ID                string     `json:"id"`
	LoginTime         time.Time  `json:"loginTime"`
	LogoutTime        *time.Time `json:"logoutTime,omitempty"`
	IPAddress         string     `json:"ipAddress"`
	Browser           string     `json:"browser"`
	OS                string     `json:"os"`
	DeviceType        string     `json:"deviceType"`
	DurationMinutes   *int       `json:"durationMinutes,omitempty"`
	FormattedDuration string     `json:"formattedDuration,omitempty"`
	Status            string     `json:"status"`
	Notes             string     `json:"notes,omitempty"`
	MonthKey          string     `json:"monthKey"`
	AutoDeleteDate    time.Time  `json:"autoDeleteDate"`
}

func toSessionResponse(rec models.AttendanceRecord) sessionResponse {
	return sessionResponse{
		ID:                rec.ID,
		LoginTime:         rec.LoginTime,
		LogoutTime:        rec.LogoutTime,
		IPAddress:         rec.IPAddress,
		Browser:           rec.Device.Browser,
		OS:                rec.Device.OS,
		DeviceType:        rec.Device.DeviceType,
		DurationMinutes:   rec.DurationMinutes,
		FormattedDuration: rec.FormattedDuration(),
		Status:            string(rec.Status),
		Notes:             rec.Notes,
		MonthKey:          rec.MonthKey,
		AutoDeleteDate:    rec.AutoDeleteDate,
	}
}

// Login authenticates a staff member and opens an attendance session. The
// bearer token it issues is bound to that session and stops working once
// the session closes.
func (h HandlerSet) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.auth.Login(c.Request.Context(), service.LoginInput{
		Email:     req.Email,
		Password:  req.Password,
		IPAddress: c.ClientIP(),
		UserAgent: c.GetHeader("User-Agent"),
	})
	if err != nil {
		respondError(c, err)
		return
	}

	token, err := security.GenerateAccessToken(
		h.cfg.Security.JWTSecret,
		result.Staff.ID,
		result.Session.ID,
		string(result.Staff.Role),
		h.cfg.Security.JWTTTL,
		h.clock.Now(),
	)
	if err != nil {
		h.log.Error().Err(err).Str("staff_id", result.Staff.ID).Msg("token generation failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_server_error"})
		return
	}

	c.JSON(http.StatusOK, loginResponse{
		AccessToken: token,
		Staff: staffResponse{
			ID:    result.Staff.ID,
			Name:  result.Staff.Name,
			Email: result.Staff.Email,
			Role:  string(result.Staff.Role),
		},
		Session: toSessionResponse(result.Session),
	})
}

type logoutRequest struct {
	Notes string `json:"notes"`
}

// Logout completes the caller's own session. The body is optional.
func (h HandlerSet) Logout(c *gin.Context) {
	session, ok := currentSession(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req logoutRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	closed, err := h.sessions.Logout(c.Request.Context(), session.ID, req.Notes)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"session": toSessionResponse(closed)})
}
