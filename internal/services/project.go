package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/taskhive/backend/internal/models"
	"github.com/taskhive/backend/pkg/response"
	"gorm.io/gorm"
)

type ProjectService struct {
	db       *gorm.DB
	authz    *AuthzService
	activity *ActivityService
}

func NewProjectService(db *gorm.DB, authz *AuthzService, activity *ActivityService) *ProjectService {
	return &ProjectService{db: db, authz: authz, activity: activity}
}

type ProjectListRequest struct {
	Page   int    `form:"page" binding:"omitempty,min=1"`
	Limit  int    `form:"limit" binding:"omitempty,min=1,max=100"`
	Search string `form:"search"`
}

type ProjectListResponse struct {
	Total     int64            `json:"total"`
	Page      int              `json:"page"`
	Limit     int              `json:"limit"`
	TotalPage int64            `json:"total_page"`
	Items     []models.Project `json:"items"`
}

type PublicProjectListResponse struct {
	Total     int64                  `json:"total"`
	Page      int                    `json:"page"`
	Limit     int                    `json:"limit"`
	TotalPage int64                  `json:"total_page"`
	Items     []models.PublicProject `json:"items"`
}

type CreateProjectRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
}

type UpdateProjectRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

func normalizePage(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}
	return page, limit
}

func totalPages(total int64, limit int) int64 {
	return (total + int64(limit) - 1) / int64(limit)
}

// Create creates a project owned by the caller, inserting the owner
// membership row in the same transaction so owner ∈ members from the start.
func (s *ProjectService) Create(req *CreateProjectRequest, actor Actor) (*models.Project, error) {
	project := models.Project{
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
		OwnerID:     actor.ID,
	}
	if project.Name == "" {
		return nil, response.NewBadRequest("project name is required")
	}

	if err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&project).Error; err != nil {
			return err
		}
		member := models.ProjectMember{ProjectID: project.ID, UserID: actor.ID}
		return tx.Create(&member).Error
	}); err != nil {
		return nil, err
	}

	s.activity.Record(project.ID, actor.ID, fmt.Sprintf("created project: %s", project.Name), nil)

	return s.loadFull(project.ID)
}

// ListMine returns paginated projects the caller owns or belongs to,
// optionally filtered by a case-insensitive name substring.
func (s *ProjectService) ListMine(req *ProjectListRequest, actor Actor) (*ProjectListResponse, error) {
	page, limit := normalizePage(req.Page, req.Limit)

	query := s.db.Model(&models.Project{}).
		Where("owner_id = ? OR id IN (?)", actor.ID,
			s.db.Model(&models.ProjectMember{}).Select("project_id").Where("user_id = ?", actor.ID))

	if req.Search != "" {
		query = query.Where("LOWER(name) LIKE ?", "%"+strings.ToLower(req.Search)+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, err
	}

	var projects []models.Project
	if err := query.
		Preload("Owner").
		Offset((page - 1) * limit).
		Limit(limit).
		Order("created_at DESC").
		Find(&projects).Error; err != nil {
		return nil, err
	}

	return &ProjectListResponse{
		Total:     total,
		Page:      page,
		Limit:     limit,
		TotalPage: totalPages(total, limit),
		Items:     projects,
	}, nil
}

// ListPublic returns the paginated public listing with the reduced
// projection: member identities are collapsed to a count.
func (s *ProjectService) ListPublic(req *ProjectListRequest) (*PublicProjectListResponse, error) {
	page, limit := normalizePage(req.Page, req.Limit)

	query := s.db.Model(&models.Project{})
	if req.Search != "" {
		query = query.Where("LOWER(name) LIKE ?", "%"+strings.ToLower(req.Search)+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, err
	}

	var projects []models.Project
	if err := query.
		Preload("Owner").
		Offset((page - 1) * limit).
		Limit(limit).
		Order("created_at DESC").
		Find(&projects).Error; err != nil {
		return nil, err
	}

	items := make([]models.PublicProject, 0, len(projects))
	for i := range projects {
		public, err := s.publicView(&projects[i])
		if err != nil {
			return nil, err
		}
		items = append(items, *public)
	}

	return &PublicProjectListResponse{
		Total:     total,
		Page:      page,
		Limit:     limit,
		TotalPage: totalPages(total, limit),
		Items:     items,
	}, nil
}

// GetPublicByID returns the reduced projection of a single project.
func (s *ProjectService) GetPublicByID(id uint) (*models.PublicProject, error) {
	var project models.Project
	if err := s.db.Preload("Owner").First(&project, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, response.NewNotFound("project not found")
		}
		return nil, err
	}
	return s.publicView(&project)
}

func (s *ProjectService) publicView(project *models.Project) (*models.PublicProject, error) {
	var membersCount int64
	if err := s.db.Model(&models.ProjectMember{}).
		Where("project_id = ?", project.ID).
		Count(&membersCount).Error; err != nil {
		return nil, err
	}

	public := &models.PublicProject{
		ID:           project.ID,
		Name:         project.Name,
		Description:  project.Description,
		MembersCount: int(membersCount),
		CreatedAt:    project.CreatedAt,
	}
	if project.Owner != nil {
		owner := project.Owner.Summary()
		public.Owner = &owner
	}
	return public, nil
}

// GetByID returns a project with owner and members resolved. Requires
// owner-or-member; admins get no read override here.
func (s *ProjectService) GetByID(id uint, actor Actor) (*models.Project, error) {
	project, err := s.loadFull(id)
	if err != nil {
		return nil, err
	}

	decision, err := s.authz.CanViewProject(project, actor)
	if err != nil {
		return nil, err
	}
	if !decision.Allowed {
		return nil, response.NewForbidden(decision.Reason)
	}

	return project, nil
}

// Update changes name/description. Owner or admin only.
func (s *ProjectService) Update(id uint, req *UpdateProjectRequest, actor Actor) (*models.Project, error) {
	project, err := s.loadFull(id)
	if err != nil {
		return nil, err
	}

	if decision := s.authz.CanManageProject(project, actor); !decision.Allowed {
		return nil, response.NewForbidden(decision.Reason)
	}

	updates := make(map[string]interface{})
	if req.Name != "" {
		updates["name"] = strings.TrimSpace(req.Name)
	}
	if req.Description != "" {
		updates["description"] = req.Description
	}

	if len(updates) > 0 {
		if err := s.db.Model(project).Updates(updates).Error; err != nil {
			return nil, err
		}
	}

	s.activity.Record(project.ID, actor.ID, fmt.Sprintf("updated project: %s", project.Name), nil)

	return project, nil
}

// Delete removes the project and its membership rows. Tasks, activities
// and join requests keep their project reference (no cascade).
func (s *ProjectService) Delete(id uint, actor Actor) error {
	project, err := s.loadFull(id)
	if err != nil {
		return err
	}

	if decision := s.authz.CanManageProject(project, actor); !decision.Allowed {
		return response.NewForbidden(decision.Reason)
	}

	name := project.Name
	if err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("project_id = ?", id).Delete(&models.ProjectMember{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Project{}, id).Error
	}); err != nil {
		return err
	}

	s.activity.Record(id, actor.ID, fmt.Sprintf("deleted project: %s", name), nil)
	return nil
}

// loadFull fetches a project with owner and members preloaded.
func (s *ProjectService) loadFull(id uint) (*models.Project, error) {
	var project models.Project
	if err := s.db.Preload("Owner").Preload("Members").First(&project, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, response.NewNotFound("project not found")
		}
		return nil, err
	}
	return &project, nil
}
