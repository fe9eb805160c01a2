package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"staffdesk/api/internal/clock"
	"staffdesk/api/internal/config"
	"staffdesk/api/internal/ipmatch"
	"staffdesk/api/internal/middleware"
	"staffdesk/api/internal/models"
	"staffdesk/api/internal/repository"
	"staffdesk/api/internal/retention"
	"staffdesk/api/internal/service"
)

type HandlerSet struct {
	log        zerolog.Logger
	cfg        *config.AppConfig
	clock      clock.Clock
	db         *pgxpool.Pool
	cache      *redis.Client
	staff      *repository.StaffRepository
	attendance *repository.AttendanceRepository
	tasks      *repository.TaskRepository
	auth       *service.AuthService
	sessions   *service.AttendanceService
	taskSvc    *service.TaskService
	sweeper    *retention.Sweeper
}

func NewHandlerSet(
	log zerolog.Logger,
	db *pgxpool.Pool,
	cache *redis.Client,
	cfg *config.AppConfig,
	clk clock.Clock,
	sweeper *retention.Sweeper,
) HandlerSet {
	staffRepo := repository.NewStaffRepository(db)
	attendanceRepo := repository.NewAttendanceRepository(db)
	taskRepo := repository.NewTaskRepository(db)

	matcher := ipmatch.New(log)

	return HandlerSet{
		log:        log,
		cfg:        cfg,
		clock:      clk,
		db:         db,
		cache:      cache,
		staff:      staffRepo,
		attendance: attendanceRepo,
		tasks:      taskRepo,
		auth:       service.NewAuthService(staffRepo, attendanceRepo, matcher, clk, log),
		sessions:   service.NewAttendanceService(attendanceRepo, clk, log),
		taskSvc:    service.NewTaskService(taskRepo, clk, log),
		sweeper:    sweeper,
	}
}

func (h HandlerSet) Register(router *gin.RouterGroup) {
	router.GET("/healthz", h.Health)

	v1 := router.Group("/v1")
	{
		auth := v1.Group("/auth")
		auth.POST("/login", h.Login)

		protected := v1.Group("")
		protected.Use(middleware.Auth(h.cfg, h.staff, h.attendance))

		protected.POST("/auth/logout", h.Logout)

		attendance := protected.Group("/attendance")
		attendance.GET("/active", h.ActiveSession)
		attendance.GET("/history", h.AttendanceHistory)
		attendance.GET("/summary", h.AttendanceSummary)

		tasks := protected.Group("/tasks")
		tasks.GET("", h.ListMyTasks)
		tasks.GET("/:id", h.GetTask)
		tasks.PATCH("/:id/progress", h.UpdateTaskProgress)
		tasks.POST("/:id/comments", h.AddTaskComment)

		admin := protected.Group("/admin")
		admin.Use(middleware.RequireRoles(models.StaffRoleAdmin))
		admin.POST("/staff", h.CreateStaff)
		admin.PUT("/staff/:id/allowed-ips", h.UpdateAllowedIPs)
		admin.POST("/tasks", h.CreateTask)
		admin.GET("/tasks/overdue", h.OverdueTasks)
		admin.POST("/tasks/:id/reject", h.RejectTask)
		admin.POST("/tasks/:id/cancel", h.CancelTask)
		admin.PATCH("/tasks/:id/due-date", h.RescheduleTask)
		admin.POST("/sessions/:id/force-logout", h.ForceLogout)
		admin.GET("/retention/stats", h.RetentionStats)
		admin.GET("/retention/schedule", h.RetentionSchedule)
		admin.POST("/retention/run", h.RunRetentionSweeps)
	}
}

func currentStaff(c *gin.Context) (models.Staff, bool) {
	staffVal, exists := c.Get("current_staff")
	if !exists {
		return models.Staff{}, false
	}
	member, ok := staffVal.(models.Staff)
	return member, ok
}

func currentSession(c *gin.Context) (models.AttendanceRecord, bool) {
	sessionVal, exists := c.Get("current_session")
	if !exists {
		return models.AttendanceRecord{}, false
	}
	session, ok := sessionVal.(models.AttendanceRecord)
	return session, ok
}

// respondError maps the engine's error taxonomy onto HTTP statuses.
func respondError(c *gin.Context, err error) {
	var accessDenied *service.AccessDeniedError

	switch {
	case models.IsValidation(err):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.As(err, &accessDenied):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
	case errors.Is(err, models.ErrSessionClosed),
		errors.Is(err, models.ErrInvalidTransition),
		errors.Is(err, repository.ErrTaskConflict):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, repository.ErrSessionNotFound),
		errors.Is(err, repository.ErrTaskNotFound),
		errors.Is(err, repository.ErrStaffNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_server_error"})
	}
}
