package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/taskhive/backend/internal/middleware"
	"github.com/taskhive/backend/internal/services"
	"github.com/taskhive/backend/pkg/response"
	"gorm.io/gorm"
)

type ProjectHandler struct {
	projectService  *services.ProjectService
	activityService *services.ActivityService
}

func NewProjectHandler(db *gorm.DB, activity *services.ActivityService) *ProjectHandler {
	authz := services.NewAuthzService(db)
	return &ProjectHandler{
		projectService:  services.NewProjectService(db, authz, activity),
		activityService: activity,
	}
}

func actorFrom(c *gin.Context) services.Actor {
	return services.Actor{ID: middleware.GetUserID(c), Role: middleware.GetRole(c)}
}

func parseID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil {
		response.BadRequest(c, "invalid "+name)
		return 0, false
	}
	return uint(id), true
}

// Create creates a project with the caller as owner
// POST /api/projects
func (h *ProjectHandler) Create(c *gin.Context) {
	var req services.CreateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	project, err := h.projectService.Create(&req, actorFrom(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, project)
}

// List returns the caller's projects
// GET /api/projects
func (h *ProjectHandler) List(c *gin.Context) {
	var req services.ProjectListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	resp, err := h.projectService.ListMine(&req, actorFrom(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, resp)
}

// ListPublic returns the public project directory
// GET /api/projects/public
func (h *ProjectHandler) ListPublic(c *gin.Context) {
	var req services.ProjectListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	resp, err := h.projectService.ListPublic(&req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, resp)
}

// GetPublicByID returns the reduced public view of one project
// GET /api/projects/public/:id
func (h *ProjectHandler) GetPublicByID(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	project, err := h.projectService.GetPublicByID(id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, project)
}

// GetByID returns a project with owner and members, members only
// GET /api/projects/:id
func (h *ProjectHandler) GetByID(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	project, err := h.projectService.GetByID(id, actorFrom(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, project)
}

// Update changes name/description, owner or admin only
// PATCH /api/projects/:id
func (h *ProjectHandler) Update(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req services.UpdateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	project, err := h.projectService.Update(id, &req, actorFrom(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, project)
}

// Delete removes a project, owner or admin only
// DELETE /api/projects/:id
func (h *ProjectHandler) Delete(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	if err := h.projectService.Delete(id, actorFrom(c)); err != nil {
		response.Error(c, err)
		return
	}

	response.SuccessMessage(c, "project deleted")
}

// GetActivity returns the project's activity feed, members only
// GET /api/projects/:id/activity
func (h *ProjectHandler) GetActivity(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	// Feed visibility follows project visibility.
	if _, err := h.projectService.GetByID(id, actorFrom(c)); err != nil {
		response.Error(c, err)
		return
	}

	activities, err := h.activityService.List(id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, activities)
}
