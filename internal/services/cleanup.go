package services

import (
	"time"

	"github.com/robfig/cron/v3"
	"github.com/taskhive/backend/internal/models"
	"github.com/taskhive/backend/pkg/logger"
	"gorm.io/gorm"
)

// CleanupService prunes old activity rows on a daily schedule so the
// append-only log does not grow without bound.
type CleanupService struct {
	db            *gorm.DB
	retentionDays int
	cronScheduler *cron.Cron
}

func NewCleanupService(db *gorm.DB, retentionDays int) *CleanupService {
	return &CleanupService{db: db, retentionDays: retentionDays}
}

// StartScheduler begins the nightly sweep. A retention of zero or less
// disables it entirely.
func (s *CleanupService) StartScheduler() {
	if s.retentionDays <= 0 {
		logger.Info().Msg("activity retention disabled, keeping all entries")
		return
	}

	s.cronScheduler = cron.New()
	if _, err := s.cronScheduler.AddFunc("0 3 * * *", s.sweep); err != nil {
		logger.Errorf("failed to schedule activity cleanup: %v", err)
		return
	}
	s.cronScheduler.Start()
	logger.Infof("activity cleanup scheduled, retention %d days", s.retentionDays)
}

func (s *CleanupService) StopScheduler() {
	if s.cronScheduler != nil {
		s.cronScheduler.Stop()
	}
}

func (s *CleanupService) sweep() {
	cutoff := time.Now().UTC().AddDate(0, 0, -s.retentionDays)
	result := s.db.Where("created_at < ?", cutoff).Delete(&models.Activity{})
	if result.Error != nil {
		logger.Errorf("activity cleanup failed: %v", result.Error)
		return
	}
	if result.RowsAffected > 0 {
		logger.Infof("activity cleanup removed %d entries", result.RowsAffected)
	}
}
