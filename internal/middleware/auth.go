package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"staffdesk/api/internal/config"
	"staffdesk/api/internal/models"
	"staffdesk/api/internal/security"
)

type staffGetter interface {
	GetByID(ctx context.Context, id string) (models.Staff, error)
}

type sessionGetter interface {
	GetByID(ctx context.Context, id string) (models.AttendanceRecord, error)
}

// Auth validates the bearer token and binds the request to a live
// attendance session: a token whose session was closed (logout, force
// logout, or system logout) no longer authenticates.
func Auth(cfg *config.AppConfig, staff staffGetter, sessions sessionGetter) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing_token"})
			return
		}

		tokenStr := strings.TrimPrefix(authHeader, "Bearer ")

		claims, err := security.ParseAccessToken(tokenStr, cfg.Security.JWTSecret)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid_token"})
			return
		}

		session, err := sessions.GetByID(c.Request.Context(), claims.SessionID)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "session_not_found"})
			return
		}

		if session.StaffID != claims.StaffID || !session.IsActive() {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "session_closed"})
			return
		}

		member, err := staff.GetByID(c.Request.Context(), claims.StaffID)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "staff_not_found"})
			return
		}

		c.Set("current_staff", member)
		c.Set("current_session", session)

		c.Next()
	}
}

// RequireRoles rejects authenticated callers whose role is not listed.
func RequireRoles(roles ...models.StaffRole) gin.HandlerFunc {
	allowed := make(map[models.StaffRole]struct{}, len(roles))
	for _, role := range roles {
		allowed[role] = struct{}{}
	}

	return func(c *gin.Context) {
		staffVal, exists := c.Get("current_staff")
		if !exists {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		member, ok := staffVal.(models.Staff)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid_staff"})
			return
		}
		if _, ok := allowed[member.Role]; !ok {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden"})
			return
		}
		c.Next()
	}
}
