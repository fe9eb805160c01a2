package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"staffdesk/api/internal/ids"
	"staffdesk/api/internal/models"
	"staffdesk/api/internal/security"
)

type createStaffRequest struct {
	Name       string   `json:"name" binding:"required"`
	Email      string   `json:"email" binding:"required,email"`
	Password   string   `json:"password" binding:"required,min=8"`
	Role       string   `json:"role" binding:"omitempty,oneof=staff admin"`
	AllowedIPs []string `json:"allowedIps"`
}

// CreateStaff provisions an account. An empty allow-list means the account
// may log in from anywhere.
func (h HandlerSet) CreateStaff(c *gin.Context) {
	var req createStaffRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	hash, err := security.HashPassword(req.Password, h.cfg.Security.BcryptCost)
	if err != nil {
		h.log.Error().Err(err).Msg("password hashing failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_server_error"})
		return
	}

	role := models.StaffRole(req.Role)
	if role == "" {
		role = models.StaffRoleStaff
	}

	now := h.clock.Now()
	member := models.Staff{
		ID:           ids.New(),
		Name:         req.Name,
		Email:        strings.TrimSpace(strings.ToLower(req.Email)),
		PasswordHash: hash,
		Role:         role,
		AllowedIPs:   req.AllowedIPs,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := h.staff.Create(c.Request.Context(), member); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"staff": staffResponse{
		ID:    member.ID,
		Name:  member.Name,
		Email: member.Email,
		Role:  string(member.Role),
	}})
}

type allowedIPsRequest struct {
	AllowedIPs []string `json:"allowedIps" binding:"required"`
}

// UpdateAllowedIPs replaces a staff member's network allow-list. Takes
// effect at the next login; open sessions are not re-evaluated.
func (h HandlerSet) UpdateAllowedIPs(c *gin.Context) {
	var req allowedIPsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.staff.UpdateAllowedIPs(c.Request.Context(), c.Param("id"), req.AllowedIPs); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"allowedIps": req.AllowedIPs})
}
