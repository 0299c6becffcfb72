package main

import (
	"github.com/gin-gonic/gin"
	"github.com/taskhive/backend/internal/config"
	"github.com/taskhive/backend/internal/middleware"
	"github.com/taskhive/backend/internal/models"
	"github.com/taskhive/backend/pkg/logger"
)

// registerRoutes sets up all HTTP routes on the given Gin engine.
func registerRoutes(r *gin.Engine, cfg *config.Config, svc *appServices) {
	// Middleware
	r.Use(logger.GinLogger(), logger.GinRecovery())
	r.RedirectTrailingSlash = false
	r.RedirectFixedPath = false
	r.Use(middleware.CORS())

	// Rate limiter for unauthenticated routes
	publicLimiter := middleware.NewRateLimiter(10, 20)

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok", "service": "taskhive"})
	})

	// Uploaded attachments
	r.Static(cfg.Upload.BaseURL, cfg.Upload.Dir)

	// API routes
	api := r.Group("/api")
	{
		// Public routes
		public := api.Group("", publicLimiter.Middleware())
		{
			public.POST("/auth/register", svc.authHandler.Register)
			public.POST("/auth/login", svc.authHandler.Login)
			public.GET("/projects/public", svc.projectHandler.ListPublic)
			public.GET("/projects/public/:id", svc.projectHandler.GetPublicByID)
		}

		// Protected routes
		protected := api.Group("")
		protected.Use(middleware.AuthRequired(models.GetDB()))
		protected.Use(middleware.AuditLog())
		{
			// Auth
			protected.GET("/auth/me", svc.authHandler.GetCurrentUser)
			protected.POST("/auth/logout", svc.authHandler.Logout)
			protected.GET("/auth/by-email", svc.authHandler.GetUserByEmail)
			protected.GET("/auth/dashboard/stats", svc.authHandler.GetDashboardStats)

			// Projects
			protected.POST("/projects", svc.projectHandler.Create)
			protected.GET("/projects", svc.projectHandler.List)
			protected.GET("/projects/:id", svc.projectHandler.GetByID)
			protected.PATCH("/projects/:id", svc.projectHandler.Update)
			protected.DELETE("/projects/:id", svc.projectHandler.Delete)
			protected.GET("/projects/:id/activity", svc.projectHandler.GetActivity)

			// Membership
			protected.POST("/membership/projects/:id/join-request", svc.membershipHandler.RequestToJoin)
			protected.GET("/membership/projects/:id/join-requests", svc.membershipHandler.ListPending)
			protected.PATCH("/membership/projects/:id/join-requests/:requestId", svc.membershipHandler.HandleJoinRequest)
			protected.PATCH("/membership/projects/:id/add-member", svc.membershipHandler.AddMember)
			protected.PATCH("/membership/projects/:id/remove-member", svc.membershipHandler.RemoveMember)

			// Tasks
			protected.POST("/tasks", svc.taskHandler.Create)
			protected.GET("/tasks", svc.taskHandler.List)
			protected.GET("/tasks/:id", svc.taskHandler.GetByID)
			protected.PATCH("/tasks/:id", svc.taskHandler.Update)
			protected.PATCH("/tasks/:id/status", svc.taskHandler.UpdateStatus)
			protected.DELETE("/tasks/:id", svc.taskHandler.Delete)
			protected.PATCH("/tasks/:id/assign", svc.taskHandler.Assign)
			protected.PATCH("/tasks/:id/unassign", svc.taskHandler.Unassign)
			protected.POST("/tasks/:id/comments", svc.taskHandler.AddComment)
			protected.DELETE("/tasks/:id/comments/:commentId", svc.taskHandler.DeleteComment)
			protected.POST("/tasks/:id/attachments", svc.taskHandler.AddAttachment)
			protected.DELETE("/tasks/:id/attachments", svc.taskHandler.RemoveAttachment)
		}
	}
}
