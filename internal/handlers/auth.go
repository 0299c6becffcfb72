package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/taskhive/backend/internal/config"
	"github.com/taskhive/backend/internal/middleware"
	"github.com/taskhive/backend/internal/services"
	"github.com/taskhive/backend/pkg/response"
	"gorm.io/gorm"
)

type AuthHandler struct {
	authService      *services.AuthService
	dashboardService *services.DashboardService
}

func NewAuthHandler(db *gorm.DB, cfg *config.Config, activity *services.ActivityService) *AuthHandler {
	return &AuthHandler{
		authService:      services.NewAuthService(db, &cfg.JWT),
		dashboardService: services.NewDashboardService(db, activity),
	}
}

// Register creates a new account
// POST /api/auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req services.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	resp, err := h.authService.Register(&req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, resp)
}

// Login exchanges credentials for a token
// POST /api/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req services.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	resp, err := h.authService.Login(&req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, resp)
}

// GetCurrentUser returns the authenticated user
// GET /api/auth/me
func (h *AuthHandler) GetCurrentUser(c *gin.Context) {
	user, err := h.authService.GetUserByID(middleware.GetUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, user)
}

// GetUserByEmail looks up a user summary, used when adding members
// GET /api/auth/by-email?email=
func (h *AuthHandler) GetUserByEmail(c *gin.Context) {
	email := c.Query("email")
	if email == "" {
		response.BadRequest(c, "email query parameter is required")
		return
	}

	summary, err := h.authService.GetUserByEmail(email)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, summary)
}

// GetDashboardStats returns the caller's workload counters
// GET /api/auth/dashboard/stats
func (h *AuthHandler) GetDashboardStats(c *gin.Context) {
	stats, err := h.dashboardService.Stats(middleware.GetUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, stats)
}

// Logout acknowledges a client-side token discard
// POST /api/auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	response.SuccessMessage(c, "logged out successfully")
}

// CreateAdminIfNotExists seeds the default admin account
func (h *AuthHandler) CreateAdminIfNotExists() error {
	return h.authService.CreateAdminIfNotExists()
}
