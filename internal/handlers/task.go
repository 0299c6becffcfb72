package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/taskhive/backend/internal/services"
	"github.com/taskhive/backend/pkg/response"
	"gorm.io/gorm"
)

type TaskHandler struct {
	taskService *services.TaskService
	storage     services.Storage
}

func NewTaskHandler(db *gorm.DB, activity *services.ActivityService, storage services.Storage) *TaskHandler {
	authz := services.NewAuthzService(db)
	return &TaskHandler{
		taskService: services.NewTaskService(db, authz, activity),
		storage:     storage,
	}
}

// Create creates a task in a project the caller belongs to
// POST /api/tasks
func (h *TaskHandler) Create(c *gin.Context) {
	var req services.CreateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	task, err := h.taskService.Create(&req, actorFrom(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, task)
}

// List returns tasks across the caller's projects with optional filters
// GET /api/tasks
func (h *TaskHandler) List(c *gin.Context) {
	var req services.TaskListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	resp, err := h.taskService.List(&req, actorFrom(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, resp)
}

// GetByID returns a task with comments and attachments
// GET /api/tasks/:id
func (h *TaskHandler) GetByID(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	task, err := h.taskService.GetByID(id, actorFrom(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, task)
}

// Update changes general task fields
// PATCH /api/tasks/:id
func (h *TaskHandler) Update(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req services.UpdateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	task, err := h.taskService.Update(id, &req, actorFrom(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, task)
}

// UpdateStatus moves a task between statuses
// PATCH /api/tasks/:id/status
func (h *TaskHandler) UpdateStatus(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req services.UpdateTaskStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	task, err := h.taskService.UpdateStatus(id, req.Status, actorFrom(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, task)
}

// Delete removes a task
// DELETE /api/tasks/:id
func (h *TaskHandler) Delete(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	if err := h.taskService.Delete(id, actorFrom(c)); err != nil {
		response.Error(c, err)
		return
	}

	response.SuccessMessage(c, "task deleted")
}

// Assign adds a project member to the task
// PATCH /api/tasks/:id/assign
func (h *TaskHandler) Assign(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req services.MemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	task, err := h.taskService.Assign(id, req.UserID, actorFrom(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, task)
}

// Unassign removes an assignee from the task
// PATCH /api/tasks/:id/unassign
func (h *TaskHandler) Unassign(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req services.MemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	task, err := h.taskService.Unassign(id, req.UserID, actorFrom(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, task)
}

// AddComment appends a comment to the task
// POST /api/tasks/:id/comments
func (h *TaskHandler) AddComment(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req services.CommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	task, err := h.taskService.AddComment(id, req.Text, actorFrom(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, task)
}

// DeleteComment removes a comment, author or admin only
// DELETE /api/tasks/:id/comments/:commentId
func (h *TaskHandler) DeleteComment(c *gin.Context) {
	taskID, ok := parseID(c, "id")
	if !ok {
		return
	}
	commentID, ok := parseID(c, "commentId")
	if !ok {
		return
	}

	if err := h.taskService.DeleteComment(taskID, commentID, actorFrom(c)); err != nil {
		response.Error(c, err)
		return
	}

	response.SuccessMessage(c, "comment deleted")
}

// AddAttachment uploads a file and links it to the task. The upload goes
// to storage first; the task is untouched if it fails.
// POST /api/tasks/:id/attachments
func (h *TaskHandler) AddAttachment(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	file, err := c.FormFile("file")
	if err != nil {
		response.BadRequest(c, "file is required")
		return
	}

	stored, err := h.storage.Save(file)
	if err != nil {
		response.Error(c, err)
		return
	}

	task, err := h.taskService.AddAttachment(id, stored.URL, stored.Name, actorFrom(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, task)
}

// RemoveAttachment deletes an attachment by its URL
// DELETE /api/tasks/:id/attachments
func (h *TaskHandler) RemoveAttachment(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req services.RemoveAttachmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	task, err := h.taskService.RemoveAttachment(id, req.URL, actorFrom(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, task)
}
