package services

import (
	"errors"
	"fmt"

	"github.com/taskhive/backend/internal/models"
	"github.com/taskhive/backend/pkg/response"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// MembershipService owns the join-request state machine and the direct
// add/remove member operations. Every "insert if absent" runs as a single
// conditional insert against the composite unique index, not a
// read-then-write round trip.
type MembershipService struct {
	db       *gorm.DB
	authz    *AuthzService
	activity *ActivityService
}

func NewMembershipService(db *gorm.DB, authz *AuthzService, activity *ActivityService) *MembershipService {
	return &MembershipService{db: db, authz: authz, activity: activity}
}

type HandleJoinRequestRequest struct {
	Action string `json:"action" binding:"required"` // approve, reject
}

type MemberRequest struct {
	UserID uint `json:"user_id" binding:"required"`
}

// RequestToJoin files a pending join request for the caller. Members
// cannot request; a pending request blocks a duplicate, terminal ones
// do not.
func (s *MembershipService) RequestToJoin(projectID uint, actor Actor) (*models.JoinRequest, error) {
	project, err := s.loadProject(projectID)
	if err != nil {
		return nil, err
	}

	member, err := s.authz.IsMember(project.ID, actor.ID)
	if err != nil {
		return nil, err
	}
	if member {
		return nil, response.NewConflict("you are already a member of this project")
	}

	request := models.JoinRequest{
		ProjectID: projectID,
		UserID:    actor.ID,
		Status:    models.JoinRequestPending,
	}

	if err := s.db.Transaction(func(tx *gorm.DB) error {
		var pending int64
		if err := tx.Model(&models.JoinRequest{}).
			Where("project_id = ? AND user_id = ? AND status = ?", projectID, actor.ID, models.JoinRequestPending).
			Count(&pending).Error; err != nil {
			return err
		}
		if pending > 0 {
			return response.NewConflict("join request already pending")
		}
		return tx.Create(&request).Error
	}); err != nil {
		return nil, err
	}

	return &request, nil
}

// ListPending returns the project's pending join requests. Owner/admin only.
func (s *MembershipService) ListPending(projectID uint, actor Actor) ([]models.JoinRequest, error) {
	project, err := s.loadProject(projectID)
	if err != nil {
		return nil, err
	}

	if decision := s.authz.CanManageProject(project, actor); !decision.Allowed {
		return nil, response.NewForbidden(decision.Reason)
	}

	var requests []models.JoinRequest
	err = s.db.
		Preload("User").
		Where("project_id = ? AND status = ?", projectID, models.JoinRequestPending).
		Order("created_at ASC").
		Find(&requests).Error
	if err != nil {
		return nil, err
	}
	return requests, nil
}

// Handle approves or rejects a pending request. Approval adds the
// requester to the members set idempotently before marking the request
// terminal; rejection has no membership side effect.
func (s *MembershipService) Handle(projectID, requestID uint, action string, actor Actor) (*models.JoinRequest, error) {
	if action != "approve" && action != "reject" {
		return nil, response.NewBadRequest("invalid action")
	}

	project, err := s.loadProject(projectID)
	if err != nil {
		return nil, err
	}

	if decision := s.authz.CanManageProject(project, actor); !decision.Allowed {
		return nil, response.NewForbidden(decision.Reason)
	}

	var request models.JoinRequest
	if err := s.db.First(&request, requestID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, response.NewNotFound("join request not found")
		}
		return nil, err
	}

	if request.ProjectID != projectID {
		return nil, response.NewBadRequest("request does not belong to this project")
	}
	if request.Terminal() {
		return nil, response.NewBadRequest("request already processed")
	}

	if action == "approve" {
		if err := s.db.Transaction(func(tx *gorm.DB) error {
			if err := s.addMemberRow(tx, projectID, request.UserID); err != nil {
				return err
			}
			return tx.Model(&request).Update("status", models.JoinRequestApproved).Error
		}); err != nil {
			return nil, err
		}
		request.Status = models.JoinRequestApproved
		s.activity.Record(projectID, actor.ID, fmt.Sprintf("approved join request of user %d", request.UserID), nil)
	} else {
		if err := s.db.Model(&request).Update("status", models.JoinRequestRejected).Error; err != nil {
			return nil, err
		}
		request.Status = models.JoinRequestRejected
		s.activity.Record(projectID, actor.ID, fmt.Sprintf("rejected join request of user %d", request.UserID), nil)
	}

	return &request, nil
}

// AddMember adds a user directly, bypassing the request flow. Owner/admin
// only; fails if the target does not exist or is already a member.
func (s *MembershipService) AddMember(projectID uint, targetID uint, actor Actor) (*models.Project, error) {
	project, err := s.loadProject(projectID)
	if err != nil {
		return nil, err
	}

	if decision := s.authz.CanManageProject(project, actor); !decision.Allowed {
		return nil, response.NewForbidden(decision.Reason)
	}

	var user models.User
	if err := s.db.First(&user, targetID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, response.NewNotFound("user not found")
		}
		return nil, err
	}

	result := s.db.Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.ProjectMember{ProjectID: projectID, UserID: targetID})
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, response.NewConflict("user is already a member of this project")
	}

	s.activity.Record(projectID, actor.ID, fmt.Sprintf("added member: %s", user.Username), nil)

	return s.loadProjectFull(projectID)
}

// RemoveMember removes a user from the members set. Owner/admin only; the
// owner is irremovable.
func (s *MembershipService) RemoveMember(projectID uint, targetID uint, actor Actor) (*models.Project, error) {
	project, err := s.loadProject(projectID)
	if err != nil {
		return nil, err
	}

	if decision := s.authz.CanManageProject(project, actor); !decision.Allowed {
		return nil, response.NewForbidden(decision.Reason)
	}

	if targetID == project.OwnerID {
		return nil, response.NewBadRequest("owner cannot be removed from the project")
	}

	result := s.db.Where("project_id = ? AND user_id = ?", projectID, targetID).
		Delete(&models.ProjectMember{})
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, response.NewBadRequest("user is not a member of this project")
	}

	s.activity.Record(projectID, actor.ID, fmt.Sprintf("removed member: user %d", targetID), nil)

	return s.loadProjectFull(projectID)
}

// addMemberRow inserts a membership row if absent; already-present is not
// an error, making approval idempotent with respect to membership.
func (s *MembershipService) addMemberRow(tx *gorm.DB, projectID, userID uint) error {
	return tx.Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.ProjectMember{ProjectID: projectID, UserID: userID}).Error
}

func (s *MembershipService) loadProject(id uint) (*models.Project, error) {
	var project models.Project
	if err := s.db.First(&project, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, response.NewNotFound("project not found")
		}
		return nil, err
	}
	return &project, nil
}

func (s *MembershipService) loadProjectFull(id uint) (*models.Project, error) {
	var project models.Project
	if err := s.db.Preload("Owner").Preload("Members").First(&project, id).Error; err != nil {
		return nil, err
	}
	return &project, nil
}
