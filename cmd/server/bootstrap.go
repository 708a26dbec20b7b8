package main

import (
	"github.com/taskloom/taskloom/backend/internal/config"
	"github.com/taskloom/taskloom/backend/internal/handlers"
	"github.com/taskloom/taskloom/backend/internal/models"
	"github.com/taskloom/taskloom/backend/internal/services"
	"github.com/taskloom/taskloom/backend/internal/utils"
	"github.com/taskloom/taskloom/backend/pkg/logger"
)

// appServices holds all initialized services and handlers needed by the application.
type appServices struct {
	taskQueue services.TaskQueue
	worker    *services.Worker
	cache     *services.ProjectCacheService
	cleanup   *services.CleanupService
	email     *services.EmailService

	authHandler         *handlers.AuthHandler
	projectHandler      *handlers.ProjectHandler
	memberHandler       *handlers.MemberHandler
	inviteLinkHandler   *handlers.InviteLinkHandler
	taskHandler         *handlers.TaskHandler
	dependencyHandler   *handlers.DependencyHandler
	commentHandler      *handlers.CommentHandler
	timeEntryHandler    *handlers.TimeEntryHandler
	notificationHandler *handlers.NotificationHandler
	activityHandler     *handlers.ActivityHandler
	healthHandler       *handlers.HealthHandler
}

// bootstrap initializes all application dependencies: database, services, schedulers.
func bootstrap(cfg *config.Config) *appServices {
	utils.SetJWTSecret(cfg.JWT.Secret)

	// Initialize database
	if err := models.InitDB(&cfg.Database); err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}

	// Auto migrate database
	if err := models.AutoMigrate(); err != nil {
		logger.Fatalf("Failed to migrate database: %v", err)
	}

	// Seed roles and permissions
	if err := models.SeedDefaultData(); err != nil {
		logger.Fatalf("Failed to seed default data: %v", err)
	}

	db := models.GetDB()

	// Initialize task queue (uses Redis if enabled, otherwise sync mode)
	emailService := services.NewEmailService(&cfg.Email, nil)
	taskQueue := services.InitTaskQueue(cfg)
	if syncQueue, ok := taskQueue.(*services.SyncQueue); ok {
		syncQueue.SetProcessor(emailService.Deliver)
	}
	emailService.SetQueue(taskQueue)

	// Start async worker if Redis is enabled
	var worker *services.Worker
	if cfg.Redis.Enabled {
		worker = services.InitWorker(&cfg.Redis)
		if worker != nil {
			worker.SetProcessor(emailService.Deliver)
			worker.Start()
		}
	}

	// Project list cache (no-op when Redis is disabled)
	cache := services.NewProjectCacheService(&cfg.Redis)

	// Core services
	activityService := services.NewActivityService(db)
	notificationService := services.NewNotificationService(db)
	permissionService := services.NewPermissionService(db)
	projectService := services.NewProjectService(db, activityService, cache)
	membershipService := services.NewMembershipService(db, notificationService, emailService, activityService, cache)
	inviteLinkService := services.NewInviteLinkService(db, activityService, cache)
	dependencyService := services.NewDependencyService(db, activityService)
	taskService := services.NewTaskService(db, activityService, notificationService, dependencyService)
	commentService := services.NewCommentService(db, activityService)
	timeEntryService := services.NewTimeEntryService(db)
	authService := services.NewAuthService(db, &cfg.JWT)

	// Nightly housekeeping
	cleanupService := services.NewCleanupService(db)
	if err := cleanupService.Start(); err != nil {
		logger.Warn().Err(err).Msg("Failed to start cleanup scheduler")
	}

	return &appServices{
		taskQueue: taskQueue,
		worker:    worker,
		cache:     cache,
		cleanup:   cleanupService,
		email:     emailService,

		authHandler:         handlers.NewAuthHandler(authService),
		projectHandler:      handlers.NewProjectHandler(projectService, permissionService),
		memberHandler:       handlers.NewMemberHandler(membershipService, permissionService),
		inviteLinkHandler:   handlers.NewInviteLinkHandler(inviteLinkService, permissionService),
		taskHandler:         handlers.NewTaskHandler(taskService, permissionService),
		dependencyHandler:   handlers.NewDependencyHandler(dependencyService, taskService, permissionService),
		commentHandler:      handlers.NewCommentHandler(commentService, taskService, permissionService),
		timeEntryHandler:    handlers.NewTimeEntryHandler(timeEntryService, taskService, permissionService),
		notificationHandler: handlers.NewNotificationHandler(notificationService),
		activityHandler:     handlers.NewActivityHandler(activityService, permissionService),
		healthHandler:       handlers.NewHealthHandler(),
	}
}

// shutdown gracefully stops all services.
func (s *appServices) shutdown() {
	s.cleanup.Stop()
	logger.Info().Msg("Cleanup scheduler stopped")

	if s.worker != nil {
		s.worker.Stop()
	}
	if s.taskQueue != nil {
		s.taskQueue.Close()
	}
	s.cache.Close()
}
