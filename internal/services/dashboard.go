package services

import (
	"time"

	"github.com/taskhive/backend/internal/models"
	"gorm.io/gorm"
)

type DashboardService struct {
	db       *gorm.DB
	activity *ActivityService
}

func NewDashboardService(db *gorm.DB, activity *ActivityService) *DashboardService {
	return &DashboardService{db: db, activity: activity}
}

// DashboardStats summarizes one user's workload across every project they
// belong to.
type DashboardStats struct {
	TotalProjects  int64 `json:"total_projects"`
	AssignedTasks  int64 `json:"assigned_tasks"`
	CreatedTasks   int64 `json:"created_tasks"`
	CompletedTasks int64 `json:"completed_tasks"`
	PendingTasks   int64 `json:"pending_tasks"`
	TasksToday     int64 `json:"tasks_today"`
	TasksThisWeek  int64 `json:"tasks_this_week"`
	RecentActivity int64 `json:"recent_activity"`
}

// Stats computes the dashboard counters. Completed and pending partition the
// assigned set, so the two always sum to AssignedTasks. Day and week windows
// are taken in UTC.
func (s *DashboardService) Stats(userID uint) (*DashboardStats, error) {
	stats := &DashboardStats{}
	today, weekAgo := dashboardWindow(time.Now().UTC())

	err := s.db.Model(&models.ProjectMember{}).
		Where("user_id = ?", userID).
		Distinct("project_id").
		Count(&stats.TotalProjects).Error
	if err != nil {
		return nil, err
	}

	assigned := func() *gorm.DB {
		return s.db.Model(&models.Task{}).
			Where("id IN (?)", s.db.Model(&models.TaskAssignee{}).
				Select("task_id").Where("user_id = ?", userID))
	}

	if err := assigned().Count(&stats.AssignedTasks).Error; err != nil {
		return nil, err
	}
	if err := assigned().Where("status = ?", models.TaskStatusDone).
		Count(&stats.CompletedTasks).Error; err != nil {
		return nil, err
	}
	stats.PendingTasks = stats.AssignedTasks - stats.CompletedTasks

	created := func() *gorm.DB {
		return s.db.Model(&models.Task{}).Where("creator_id = ?", userID)
	}

	if err := created().Count(&stats.CreatedTasks).Error; err != nil {
		return nil, err
	}
	if err := created().Where("created_at >= ?", today).
		Count(&stats.TasksToday).Error; err != nil {
		return nil, err
	}
	if err := created().Where("created_at >= ?", weekAgo).
		Count(&stats.TasksThisWeek).Error; err != nil {
		return nil, err
	}

	stats.RecentActivity, err = s.activity.CountSince(userID, weekAgo)
	if err != nil {
		return nil, err
	}

	return stats, nil
}

// dashboardWindow returns UTC midnight of the given instant and the point
// 168 hours before it.
func dashboardWindow(now time.Time) (today, weekAgo time.Time) {
	today = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	weekAgo = now.Add(-7 * 24 * time.Hour)
	return today, weekAgo
}
