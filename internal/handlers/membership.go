package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/taskhive/backend/internal/services"
	"github.com/taskhive/backend/pkg/response"
	"gorm.io/gorm"
)

type MembershipHandler struct {
	membershipService *services.MembershipService
}

func NewMembershipHandler(db *gorm.DB, activity *services.ActivityService) *MembershipHandler {
	authz := services.NewAuthzService(db)
	return &MembershipHandler{
		membershipService: services.NewMembershipService(db, authz, activity),
	}
}

// RequestToJoin files a join request for the caller
// POST /api/membership/projects/:id/join-request
func (h *MembershipHandler) RequestToJoin(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	request, err := h.membershipService.RequestToJoin(id, actorFrom(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, request)
}

// ListPending lists the project's pending join requests, owner or admin
// GET /api/membership/projects/:id/join-requests
func (h *MembershipHandler) ListPending(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	requests, err := h.membershipService.ListPending(id, actorFrom(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, requests)
}

// HandleJoinRequest approves or rejects a pending join request
// PATCH /api/membership/projects/:id/join-requests/:requestId
func (h *MembershipHandler) HandleJoinRequest(c *gin.Context) {
	projectID, ok := parseID(c, "id")
	if !ok {
		return
	}
	requestID, ok := parseID(c, "requestId")
	if !ok {
		return
	}

	var req services.HandleJoinRequestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	request, err := h.membershipService.Handle(projectID, requestID, req.Action, actorFrom(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, request)
}

// AddMember adds an existing user directly, owner or admin
// PATCH /api/membership/projects/:id/add-member
func (h *MembershipHandler) AddMember(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req services.MemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	project, err := h.membershipService.AddMember(id, req.UserID, actorFrom(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, project)
}

// RemoveMember removes a member, owner or admin; the owner never leaves
// PATCH /api/membership/projects/:id/remove-member
func (h *MembershipHandler) RemoveMember(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req services.MemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	project, err := h.membershipService.RemoveMember(id, req.UserID, actorFrom(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, project)
}
