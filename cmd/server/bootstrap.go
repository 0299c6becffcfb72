package main

import (
	"github.com/taskhive/backend/internal/config"
	"github.com/taskhive/backend/internal/handlers"
	"github.com/taskhive/backend/internal/models"
	"github.com/taskhive/backend/internal/services"
	"github.com/taskhive/backend/internal/utils"
	"github.com/taskhive/backend/pkg/logger"
)

// appServices holds all initialized services and handlers needed by the application.
type appServices struct {
	activityQueue     services.ActivityQueue
	worker            *services.Worker
	cleanupService    *services.CleanupService
	authHandler       *handlers.AuthHandler
	projectHandler    *handlers.ProjectHandler
	membershipHandler *handlers.MembershipHandler
	taskHandler       *handlers.TaskHandler
}

// bootstrap initializes all application dependencies: database, queue, schedulers.
func bootstrap(cfg *config.Config) *appServices {
	utils.SetJWTSecret(cfg.JWT.Secret)

	if err := models.InitDB(&cfg.Database); err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	if err := models.AutoMigrate(); err != nil {
		logger.Fatalf("Failed to migrate database: %v", err)
	}

	db := models.GetDB()

	// Activity log queue (uses Redis if enabled, otherwise sync mode)
	activityQueue := services.InitActivityQueue(cfg)
	activityService := services.NewActivityService(db, activityQueue)
	if syncQueue, ok := activityQueue.(*services.SyncActivityQueue); ok {
		syncQueue.SetProcessor(activityService.Persist)
	}

	// Start async worker if Redis is enabled
	var worker *services.Worker
	if cfg.Redis.Enabled {
		worker = services.InitWorker(&cfg.Redis)
		if worker != nil {
			worker.SetProcessor(activityService.Persist)
			if err := worker.Start(); err != nil {
				logger.Warn().Err(err).Msg("Failed to start activity worker")
			}
		}
	}

	cleanupService := services.NewCleanupService(db, cfg.Activity.RetentionDays)
	cleanupService.StartScheduler()

	storage, err := services.NewDiskStorage(&cfg.Upload)
	if err != nil {
		logger.Fatalf("Failed to initialize upload storage: %v", err)
	}

	authHandler := handlers.NewAuthHandler(db, cfg, activityService)
	if err := authHandler.CreateAdminIfNotExists(); err != nil {
		logger.Warn().Err(err).Msg("Failed to create admin user")
	}

	return &appServices{
		activityQueue:     activityQueue,
		worker:            worker,
		cleanupService:    cleanupService,
		authHandler:       authHandler,
		projectHandler:    handlers.NewProjectHandler(db, activityService),
		membershipHandler: handlers.NewMembershipHandler(db, activityService),
		taskHandler:       handlers.NewTaskHandler(db, activityService, storage),
	}
}

// shutdown stops background components in reverse start order.
func (s *appServices) shutdown() {
	s.cleanupService.StopScheduler()
	if s.worker != nil {
		s.worker.Stop()
	}
	if err := s.activityQueue.Close(); err != nil {
		logger.Warn().Err(err).Msg("Failed to close activity queue")
	}
}
