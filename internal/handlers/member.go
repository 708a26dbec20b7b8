package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/taskloom/taskloom/backend/internal/middleware"
	"github.com/taskloom/taskloom/backend/internal/services"
	"github.com/taskloom/taskloom/backend/pkg/response"
)

// MemberHandler exposes the membership lifecycle: invitations, role
// changes and removal. Rank checks live in the service; the handler only
// gates on the caller's permission.
type MemberHandler struct {
	members *services.MembershipService
	perms   *services.PermissionService
}

func NewMemberHandler(members *services.MembershipService, perms *services.PermissionService) *MemberHandler {
	return &MemberHandler{members: members, perms: perms}
}

// List returns a project's members.
func (h *MemberHandler) List(c *gin.Context) {
	projectID, ok := parseID(c, "id")
	if !ok {
		return
	}

	if err := h.perms.Check(middleware.GetUserID(c), projectID, "member:view"); err != nil {
		response.Error(c, err)
		return
	}

	members, err := h.members.List(projectID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, members)
}

// Invite creates a pending invitation for a user by email.
func (h *MemberHandler) Invite(c *gin.Context) {
	projectID, ok := parseID(c, "id")
	if !ok {
		return
	}
	userID := middleware.GetUserID(c)

	if err := h.perms.Check(userID, projectID, "member:invite"); err != nil {
		response.Error(c, err)
		return
	}

	var req services.InviteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	member, err := h.members.Invite(userID, projectID, &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, member)
}

// Invitations returns the caller's pending invitations.
func (h *MemberHandler) Invitations(c *gin.Context) {
	invitations, err := h.members.PendingInvitations(middleware.GetUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, invitations)
}

// Accept accepts the caller's pending invitation to a project.
func (h *MemberHandler) Accept(c *gin.Context) {
	projectID, ok := parseID(c, "id")
	if !ok {
		return
	}

	member, err := h.members.AcceptInvitation(middleware.GetUserID(c), projectID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, member)
}

// Decline declines the caller's pending invitation to a project.
func (h *MemberHandler) Decline(c *gin.Context) {
	projectID, ok := parseID(c, "id")
	if !ok {
		return
	}

	if err := h.members.DeclineInvitation(middleware.GetUserID(c), projectID); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"message": "invitation declined"})
}

// Remove removes a member from the project.
func (h *MemberHandler) Remove(c *gin.Context) {
	projectID, ok := parseID(c, "id")
	if !ok {
		return
	}
	targetUserID, ok := parseID(c, "userID")
	if !ok {
		return
	}
	userID := middleware.GetUserID(c)

	if err := h.perms.Check(userID, projectID, "member:remove"); err != nil {
		response.Error(c, err)
		return
	}

	if err := h.members.RemoveMember(userID, targetUserID, projectID); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"message": "member removed"})
}

// UpdateRole changes a member's role.
func (h *MemberHandler) UpdateRole(c *gin.Context) {
	projectID, ok := parseID(c, "id")
	if !ok {
		return
	}
	targetUserID, ok := parseID(c, "userID")
	if !ok {
		return
	}
	userID := middleware.GetUserID(c)

	if err := h.perms.Check(userID, projectID, "member:update_role"); err != nil {
		response.Error(c, err)
		return
	}

	var req services.UpdateRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	member, err := h.members.UpdateMemberRole(userID, targetUserID, projectID, &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, member)
}
