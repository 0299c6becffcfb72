package services

import (
	"errors"

	"github.com/taskhive/backend/internal/models"
	"gorm.io/gorm"
)

// Actor identifies the authenticated caller of an operation.
type Actor struct {
	ID   uint
	Role string
}

// Admin reports whether the actor holds the admin role. Admin bypasses
// ownership checks on mutating operations only; project reads still
// require membership.
func (a Actor) Admin() bool { return a.Role == models.RoleAdmin }

// Decision is the typed result of a capability query.
type Decision struct {
	Allowed bool
	Reason  string
}

// Allow grants the capability.
func Allow() Decision { return Decision{Allowed: true} }

// Deny refuses the capability with a reason suitable for the client.
func Deny(reason string) Decision { return Decision{Reason: reason} }

// AuthzService answers every ownership/membership question in one place,
// so handlers and services never re-derive role predicates inline.
type AuthzService struct {
	db *gorm.DB
}

func NewAuthzService(db *gorm.DB) *AuthzService {
	return &AuthzService{db: db}
}

// IsOwner reports whether userID owns the project.
func (s *AuthzService) IsOwner(project *models.Project, userID uint) bool {
	return project.OwnerID == userID
}

// IsMember reports whether userID is in the project's members set.
func (s *AuthzService) IsMember(projectID, userID uint) (bool, error) {
	var count int64
	err := s.db.Model(&models.ProjectMember{}).
		Where("project_id = ? AND user_id = ?", projectID, userID).
		Count(&count).Error
	return count > 0, err
}

// IsAssignee reports whether userID is currently assigned to the task.
func (s *AuthzService) IsAssignee(taskID, userID uint) (bool, error) {
	var count int64
	err := s.db.Model(&models.TaskAssignee{}).
		Where("task_id = ? AND user_id = ?", taskID, userID).
		Count(&count).Error
	return count > 0, err
}

// CanViewProject requires owner-or-member. Admins get no read override.
func (s *AuthzService) CanViewProject(project *models.Project, actor Actor) (Decision, error) {
	if s.IsOwner(project, actor.ID) {
		return Allow(), nil
	}
	member, err := s.IsMember(project.ID, actor.ID)
	if err != nil {
		return Decision{}, err
	}
	if member {
		return Allow(), nil
	}
	return Deny("you do not have access to this project"), nil
}

// CanManageProject covers project update/delete and membership
// administration: owner or admin.
func (s *AuthzService) CanManageProject(project *models.Project, actor Actor) Decision {
	if s.IsOwner(project, actor.ID) || actor.Admin() {
		return Allow()
	}
	return Deny("only the project owner can do this")
}

// CanEditTask covers general field updates, deletion and assignment:
// project owner, task creator, or admin.
func (s *AuthzService) CanEditTask(task *models.Task, project *models.Project, actor Actor) Decision {
	if s.IsOwner(project, actor.ID) || task.CreatorID == actor.ID || actor.Admin() {
		return Allow()
	}
	return Deny("only the project owner or task creator can do this")
}

// CanUpdateTaskStatus widens CanEditTask to current assignees, so they can
// self-report progress.
func (s *AuthzService) CanUpdateTaskStatus(task *models.Task, project *models.Project, actor Actor) (Decision, error) {
	if d := s.CanEditTask(task, project, actor); d.Allowed {
		return d, nil
	}
	assignee, err := s.IsAssignee(task.ID, actor.ID)
	if err != nil {
		return Decision{}, err
	}
	if assignee {
		return Allow(), nil
	}
	return Deny("only the owner, creator or an assignee can change status"), nil
}

// CanUnassign allows the edit circle plus the assignee removing themselves.
func (s *AuthzService) CanUnassign(task *models.Task, project *models.Project, actor Actor, targetID uint) Decision {
	if d := s.CanEditTask(task, project, actor); d.Allowed {
		return d
	}
	if actor.ID == targetID {
		return Allow()
	}
	return Deny("only the owner, creator or the assignee themselves can unassign")
}

// LoadProject fetches a project or reports not-found.
func (s *AuthzService) LoadProject(projectID uint) (*models.Project, error) {
	var project models.Project
	if err := s.db.First(&project, projectID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &project, nil
}
