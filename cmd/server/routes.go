package main

import (
	"github.com/gin-gonic/gin"
	"github.com/taskloom/taskloom/backend/internal/config"
	"github.com/taskloom/taskloom/backend/internal/handlers"
	"github.com/taskloom/taskloom/backend/internal/middleware"
	"github.com/taskloom/taskloom/backend/pkg/logger"
)

// registerRoutes sets up all HTTP routes on the given Gin engine.
func registerRoutes(r *gin.Engine, cfg *config.Config, svc *appServices) {
	// Middleware
	r.Use(middleware.RequestID(), logger.GinLogger(), logger.GinRecovery())
	r.RedirectTrailingSlash = false
	r.RedirectFixedPath = false
	r.Use(middleware.CORS())
	r.Use(middleware.RateLimit(cfg.RateLimit.RPS, cfg.RateLimit.Burst))

	// Health check and metrics
	r.GET("/health", svc.healthHandler.CheckHealth)
	r.GET("/metrics", handlers.Metrics)

	// API routes
	api := r.Group("/api")
	{
		// Auth routes (public)
		auth := api.Group("/auth")
		{
			auth.POST("/register", svc.authHandler.Register)
			auth.POST("/login", svc.authHandler.Login)
		}

		// Protected routes
		protected := api.Group("")
		protected.Use(middleware.AuthRequired(), middleware.AuditLog())
		{
			// Auth
			protected.GET("/auth/me", svc.authHandler.Me)
			protected.PUT("/auth/me", svc.authHandler.UpdateProfile)

			// Projects
			protected.GET("/projects", svc.projectHandler.List)
			protected.POST("/projects", svc.projectHandler.Create)
			protected.GET("/projects/:id", svc.projectHandler.Get)
			protected.PUT("/projects/:id", svc.projectHandler.Update)
			protected.DELETE("/projects/:id", svc.projectHandler.Delete)

			// Members and invitations
			protected.GET("/projects/:id/members", svc.memberHandler.List)
			protected.POST("/projects/:id/members", svc.memberHandler.Invite)
			protected.POST("/projects/:id/invitation/accept", svc.memberHandler.Accept)
			protected.POST("/projects/:id/invitation/decline", svc.memberHandler.Decline)
			protected.PUT("/projects/:id/members/:userID/role", svc.memberHandler.UpdateRole)
			protected.DELETE("/projects/:id/members/:userID", svc.memberHandler.Remove)
			protected.GET("/invitations", svc.memberHandler.Invitations)

			// Invite links
			protected.POST("/projects/:id/invite-links", svc.inviteLinkHandler.Create)
			protected.GET("/projects/:id/invite-links", svc.inviteLinkHandler.List)
			protected.POST("/invite-links/:token/join", svc.inviteLinkHandler.Join)

			// Tasks
			protected.GET("/projects/:id/tasks", svc.taskHandler.List)
			protected.POST("/projects/:id/tasks", svc.taskHandler.Create)
			protected.GET("/tasks/:taskID", svc.taskHandler.Get)
			protected.PUT("/tasks/:taskID", svc.taskHandler.Update)
			protected.DELETE("/tasks/:taskID", svc.taskHandler.Delete)

			// Task dependencies
			protected.POST("/tasks/:taskID/dependencies", svc.dependencyHandler.Add)
			protected.DELETE("/tasks/:taskID/dependencies/:dependsOnID", svc.dependencyHandler.Remove)
			protected.GET("/tasks/:taskID/blocked", svc.dependencyHandler.Blocked)
			protected.GET("/projects/:id/dependencies", svc.dependencyHandler.Graph)

			// Comments
			protected.GET("/tasks/:taskID/comments", svc.commentHandler.List)
			protected.POST("/tasks/:taskID/comments", svc.commentHandler.Create)
			protected.DELETE("/tasks/:taskID/comments/:commentID", svc.commentHandler.Delete)

			// Time tracking
			protected.GET("/tasks/:taskID/time-entries", svc.timeEntryHandler.List)
			protected.POST("/tasks/:taskID/time-entries", svc.timeEntryHandler.Create)
			protected.DELETE("/time-entries/:entryID", svc.timeEntryHandler.Delete)

			// Notifications
			protected.GET("/notifications", svc.notificationHandler.List)
			protected.PUT("/notifications/:id/read", svc.notificationHandler.MarkRead)
			protected.POST("/notifications/read-all", svc.notificationHandler.MarkAllRead)

			// Activity log
			protected.GET("/projects/:id/activities", svc.activityHandler.List)
		}
	}
}
