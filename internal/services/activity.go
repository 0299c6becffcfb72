package services

import (
	"context"
	"time"

	"github.com/taskhive/backend/internal/models"
	"github.com/taskhive/backend/pkg/logger"
	"gorm.io/gorm"
)

// ActivityService appends and reads the audit trail. Appends are
// fire-and-forget: a failure is logged and never surfaces to the caller
// of the mutation that triggered it.
type ActivityService struct {
	db    *gorm.DB
	queue ActivityQueue
}

func NewActivityService(db *gorm.DB, queue ActivityQueue) *ActivityService {
	return &ActivityService{db: db, queue: queue}
}

// Record submits an activity entry for background persistence. It never
// returns an error; enqueue failures go to the error sink.
func (s *ActivityService) Record(projectID, userID uint, action string, taskID *uint) {
	entry := &ActivityEntry{
		ProjectID: projectID,
		TaskID:    taskID,
		UserID:    userID,
		Action:    action,
	}

	if err := s.queue.Enqueue(entry); err != nil {
		logger.Errorf("[Activity] Failed to enqueue entry for project %d: %v", projectID, err)
	}
}

// Persist writes a queued entry. Wired as the queue/worker processor.
func (s *ActivityService) Persist(ctx context.Context, entry *ActivityEntry) error {
	activity := models.Activity{
		ProjectID: entry.ProjectID,
		TaskID:    entry.TaskID,
		UserID:    entry.UserID,
		Action:    entry.Action,
	}
	return s.db.WithContext(ctx).Create(&activity).Error
}

// List returns all entries for a project, newest first, with the acting
// user and referenced task resolved for display.
func (s *ActivityService) List(projectID uint) ([]models.Activity, error) {
	var activities []models.Activity
	err := s.db.
		Preload("User").
		Preload("Task").
		Where("project_id = ?", projectID).
		Order("created_at DESC").
		Find(&activities).Error
	if err != nil {
		return nil, err
	}
	return activities, nil
}

// CountSince returns the number of entries by a user from the given cutoff.
func (s *ActivityService) CountSince(userID uint, cutoff time.Time) (int64, error) {
	var count int64
	err := s.db.Model(&models.Activity{}).
		Where("user_id = ? AND created_at >= ?", userID, cutoff).
		Count(&count).Error
	return count, err
}
