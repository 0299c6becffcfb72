package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/taskhive/backend/internal/models"
	"github.com/taskhive/backend/pkg/response"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type TaskService struct {
	db       *gorm.DB
	authz    *AuthzService
	activity *ActivityService
}

func NewTaskService(db *gorm.DB, authz *AuthzService, activity *ActivityService) *TaskService {
	return &TaskService{db: db, authz: authz, activity: activity}
}

type CreateTaskRequest struct {
	Title       string     `json:"title" binding:"required"`
	Description string     `json:"description"`
	ProjectID   uint       `json:"project_id" binding:"required"`
	Priority    string     `json:"priority"`
	Tags        []string   `json:"tags"`
	DueDate     *time.Time `json:"due_date"`
}

type UpdateTaskRequest struct {
	Title       *string    `json:"title"`
	Description *string    `json:"description"`
	Priority    *string    `json:"priority"`
	Tags        []string   `json:"tags"`
	DueDate     *time.Time `json:"due_date"`
}

type UpdateTaskStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

type TaskListRequest struct {
	Page      int    `form:"page" binding:"omitempty,min=1"`
	Limit     int    `form:"limit" binding:"omitempty,min=1,max=100"`
	ProjectID *uint  `form:"project_id"`
	Status    string `form:"status"`
	Priority  string `form:"priority"`
	Search    string `form:"search"`
}

type TaskListResponse struct {
	Total     int64         `json:"total"`
	Page      int           `json:"page"`
	Limit     int           `json:"limit"`
	TotalPage int64         `json:"total_page"`
	Items     []models.Task `json:"items"`
}

type CommentRequest struct {
	Text string `json:"text" binding:"required"`
}

type RemoveAttachmentRequest struct {
	URL string `json:"url" binding:"required"`
}

// Create adds a task to a project. Caller must be a member; the creator
// is fixed to the caller and status defaults to todo.
func (s *TaskService) Create(req *CreateTaskRequest, actor Actor) (*models.Task, error) {
	project, err := s.loadProject(req.ProjectID)
	if err != nil {
		return nil, err
	}

	member, err := s.authz.IsMember(project.ID, actor.ID)
	if err != nil {
		return nil, err
	}
	if !member {
		return nil, response.NewForbidden("not a project member")
	}

	priority := req.Priority
	if priority == "" {
		priority = models.TaskPriorityMedium
	}
	if !models.ValidTaskPriority(priority) {
		return nil, response.NewBadRequest("invalid priority")
	}

	task := models.Task{
		Title:       strings.TrimSpace(req.Title),
		Description: req.Description,
		ProjectID:   req.ProjectID,
		CreatorID:   actor.ID,
		Status:      models.TaskStatusTodo,
		Priority:    priority,
		Tags:        dedupeTags(req.Tags),
		DueDate:     req.DueDate,
	}
	if task.Title == "" {
		return nil, response.NewBadRequest("task title is required")
	}

	if err := s.db.Create(&task).Error; err != nil {
		return nil, err
	}

	s.activity.Record(task.ProjectID, actor.ID, fmt.Sprintf("created task: %s", task.Title), &task.ID)

	return s.loadFull(task.ID)
}

// List returns paginated tasks, newest first, filtered by project, status,
// priority and/or a case-insensitive title substring. The result is always
// scoped to projects the caller belongs to.
func (s *TaskService) List(req *TaskListRequest, actor Actor) (*TaskListResponse, error) {
	page, limit := normalizePage(req.Page, req.Limit)

	memberProjects := s.db.Model(&models.ProjectMember{}).
		Select("project_id").Where("user_id = ?", actor.ID)

	query := s.db.Model(&models.Task{}).Where("project_id IN (?)", memberProjects)

	if req.ProjectID != nil {
		query = query.Where("project_id = ?", *req.ProjectID)
	}
	if req.Status != "" {
		query = query.Where("status = ?", req.Status)
	}
	if req.Priority != "" {
		query = query.Where("priority = ?", req.Priority)
	}
	if req.Search != "" {
		query = query.Where("LOWER(title) LIKE ?", "%"+strings.ToLower(req.Search)+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, err
	}

	var tasks []models.Task
	if err := query.
		Preload("Creator").
		Preload("Assignees").
		Offset((page - 1) * limit).
		Limit(limit).
		Order("created_at DESC").
		Find(&tasks).Error; err != nil {
		return nil, err
	}

	return &TaskListResponse{
		Total:     total,
		Page:      page,
		Limit:     limit,
		TotalPage: totalPages(total, limit),
		Items:     tasks,
	}, nil
}

// GetByID returns a task with its sub-resources. Project members only.
func (s *TaskService) GetByID(id uint, actor Actor) (*models.Task, error) {
	task, err := s.loadFull(id)
	if err != nil {
		return nil, err
	}

	member, err := s.authz.IsMember(task.ProjectID, actor.ID)
	if err != nil {
		return nil, err
	}
	if !member {
		return nil, response.NewForbidden("access denied")
	}

	return task, nil
}

// Update changes general fields; status is excluded and has its own
// operation with a wider permission circle.
func (s *TaskService) Update(id uint, req *UpdateTaskRequest, actor Actor) (*models.Task, error) {
	task, project, err := s.loadWithProject(id)
	if err != nil {
		return nil, err
	}

	if decision := s.authz.CanEditTask(task, project, actor); !decision.Allowed {
		return nil, response.NewForbidden(decision.Reason)
	}

	updates := make(map[string]interface{})
	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if title == "" {
			return nil, response.NewBadRequest("task title is required")
		}
		updates["title"] = title
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.Priority != nil {
		if !models.ValidTaskPriority(*req.Priority) {
			return nil, response.NewBadRequest("invalid priority")
		}
		updates["priority"] = *req.Priority
	}
	if req.DueDate != nil {
		updates["due_date"] = req.DueDate
	}

	if len(updates) > 0 {
		if err := s.db.Model(task).Updates(updates).Error; err != nil {
			return nil, err
		}
	}
	if req.Tags != nil {
		task.Tags = dedupeTags(req.Tags)
		if err := s.db.Model(task).Update("tags", task.Tags).Error; err != nil {
			return nil, err
		}
	}

	s.activity.Record(task.ProjectID, actor.ID, fmt.Sprintf("updated task: %s", task.Title), &task.ID)

	return s.loadFull(id)
}

// UpdateStatus moves a task between todo, in-progress and done. Owner,
// creator or any current assignee.
func (s *TaskService) UpdateStatus(id uint, status string, actor Actor) (*models.Task, error) {
	if !models.ValidTaskStatus(status) {
		return nil, response.NewBadRequest("invalid status")
	}

	task, project, err := s.loadWithProject(id)
	if err != nil {
		return nil, err
	}

	decision, err := s.authz.CanUpdateTaskStatus(task, project, actor)
	if err != nil {
		return nil, err
	}
	if !decision.Allowed {
		return nil, response.NewForbidden(decision.Reason)
	}

	if err := s.db.Model(task).Update("status", status).Error; err != nil {
		return nil, err
	}
	task.Status = status

	s.activity.Record(task.ProjectID, actor.ID, fmt.Sprintf("moved task %q to %s", task.Title, status), &task.ID)

	return task, nil
}

// Delete removes a task. Creator or project owner only.
func (s *TaskService) Delete(id uint, actor Actor) error {
	task, project, err := s.loadWithProject(id)
	if err != nil {
		return err
	}

	if decision := s.authz.CanEditTask(task, project, actor); !decision.Allowed {
		return response.NewForbidden(decision.Reason)
	}

	if err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("task_id = ?", id).Delete(&models.TaskAssignee{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Task{}, id).Error
	}); err != nil {
		return err
	}

	s.activity.Record(task.ProjectID, actor.ID, fmt.Sprintf("deleted task: %s", task.Title), &task.ID)
	return nil
}

// Assign adds a project member to the task's assignees. Owner or creator
// only; duplicate assignment is a conflict.
func (s *TaskService) Assign(id uint, targetID uint, actor Actor) (*models.Task, error) {
	task, project, err := s.loadWithProject(id)
	if err != nil {
		return nil, err
	}

	if decision := s.authz.CanEditTask(task, project, actor); !decision.Allowed {
		return nil, response.NewForbidden(decision.Reason)
	}

	member, err := s.authz.IsMember(task.ProjectID, targetID)
	if err != nil {
		return nil, err
	}
	if !member {
		return nil, response.NewBadRequest("user is not a project member")
	}

	result := s.db.Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.TaskAssignee{TaskID: id, UserID: targetID})
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, response.NewConflict("user already assigned")
	}

	s.activity.Record(task.ProjectID, actor.ID, fmt.Sprintf("assigned user %d to task: %s", targetID, task.Title), &task.ID)

	return s.loadFull(id)
}

// Unassign removes a user from the assignees. Owner, creator, or the
// assignee removing themselves.
func (s *TaskService) Unassign(id uint, targetID uint, actor Actor) (*models.Task, error) {
	task, project, err := s.loadWithProject(id)
	if err != nil {
		return nil, err
	}

	if decision := s.authz.CanUnassign(task, project, actor, targetID); !decision.Allowed {
		return nil, response.NewForbidden(decision.Reason)
	}

	result := s.db.Where("task_id = ? AND user_id = ?", id, targetID).
		Delete(&models.TaskAssignee{})
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, response.NewNotFound("user is not assigned to this task")
	}

	s.activity.Record(task.ProjectID, actor.ID, fmt.Sprintf("unassigned user %d from task: %s", targetID, task.Title), &task.ID)

	return s.loadFull(id)
}

// AddComment appends a comment. Project members only; text must be
// non-empty.
func (s *TaskService) AddComment(id uint, text string, actor Actor) (*models.Task, error) {
	if strings.TrimSpace(text) == "" {
		return nil, response.NewBadRequest("comment text is required")
	}

	task, err := s.loadFull(id)
	if err != nil {
		return nil, err
	}

	member, err := s.authz.IsMember(task.ProjectID, actor.ID)
	if err != nil {
		return nil, err
	}
	if !member {
		return nil, response.NewForbidden("not a project member")
	}

	comment := models.Comment{
		TaskID: id,
		UserID: actor.ID,
		Text:   text,
	}
	if err := s.db.Create(&comment).Error; err != nil {
		return nil, err
	}

	s.activity.Record(task.ProjectID, actor.ID, fmt.Sprintf("commented on task: %s", task.Title), &task.ID)

	return s.loadFull(id)
}

// DeleteComment removes a comment. Author or admin only; the row is
// removed, not tombstoned.
func (s *TaskService) DeleteComment(taskID, commentID uint, actor Actor) error {
	task, err := s.loadFull(taskID)
	if err != nil {
		return err
	}

	var comment models.Comment
	if err := s.db.Where("id = ? AND task_id = ?", commentID, taskID).First(&comment).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return response.NewNotFound("comment not found")
		}
		return err
	}

	if comment.UserID != actor.ID && !actor.Admin() {
		return response.NewForbidden("only the comment author can delete it")
	}

	if err := s.db.Delete(&comment).Error; err != nil {
		return err
	}

	s.activity.Record(task.ProjectID, actor.ID, fmt.Sprintf("deleted a comment on task: %s", task.Title), &task.ID)
	return nil
}

// AddAttachment records a blob already stored by the upload collaborator.
// Project members only; the task is never touched when the upload failed
// upstream.
func (s *TaskService) AddAttachment(id uint, url, name string, actor Actor) (*models.Task, error) {
	task, err := s.loadFull(id)
	if err != nil {
		return nil, err
	}

	member, err := s.authz.IsMember(task.ProjectID, actor.ID)
	if err != nil {
		return nil, err
	}
	if !member {
		return nil, response.NewForbidden("not a project member")
	}

	attachment := models.Attachment{
		TaskID:     id,
		URL:        url,
		Name:       name,
		UploadedBy: actor.ID,
		UploadedAt: time.Now(),
	}
	if err := s.db.Create(&attachment).Error; err != nil {
		return nil, err
	}

	s.activity.Record(task.ProjectID, actor.ID, fmt.Sprintf("attached %s to task: %s", name, task.Title), &task.ID)

	return s.loadFull(id)
}

// RemoveAttachment deletes an attachment by exact URL match. Project
// members only; a miss is reported, not swallowed.
func (s *TaskService) RemoveAttachment(id uint, url string, actor Actor) (*models.Task, error) {
	task, err := s.loadFull(id)
	if err != nil {
		return nil, err
	}

	member, err := s.authz.IsMember(task.ProjectID, actor.ID)
	if err != nil {
		return nil, err
	}
	if !member {
		return nil, response.NewForbidden("not a project member")
	}

	result := s.db.Where("task_id = ? AND url = ?", id, url).Delete(&models.Attachment{})
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, response.NewNotFound("attachment not found")
	}

	s.activity.Record(task.ProjectID, actor.ID, fmt.Sprintf("removed an attachment from task: %s", task.Title), &task.ID)

	return s.loadFull(id)
}

func dedupeTags(tags []string) []string {
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	return out
}

func (s *TaskService) loadProject(id uint) (*models.Project, error) {
	var project models.Project
	if err := s.db.First(&project, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, response.NewNotFound("project not found")
		}
		return nil, err
	}
	return &project, nil
}

func (s *TaskService) loadWithProject(id uint) (*models.Task, *models.Project, error) {
	var task models.Task
	if err := s.db.First(&task, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, response.NewNotFound("task not found")
		}
		return nil, nil, err
	}

	project, err := s.loadProject(task.ProjectID)
	if err != nil {
		return nil, nil, err
	}
	return &task, project, nil
}

func (s *TaskService) loadFull(id uint) (*models.Task, error) {
	var task models.Task
	err := s.db.
		Preload("Creator").
		Preload("Assignees").
		Preload("Comments", func(db *gorm.DB) *gorm.DB { return db.Order("comments.created_at ASC") }).
		Preload("Comments.User").
		Preload("Attachments", func(db *gorm.DB) *gorm.DB { return db.Order("attachments.uploaded_at ASC") }).
		First(&task, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, response.NewNotFound("task not found")
		}
		return nil, err
	}
	return &task, nil
}
