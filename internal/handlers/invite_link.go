package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/taskloom/taskloom/backend/internal/middleware"
	"github.com/taskloom/taskloom/backend/internal/services"
	"github.com/taskloom/taskloom/backend/pkg/response"
)

type InviteLinkHandler struct {
	links *services.InviteLinkService
	perms *services.PermissionService
}

func NewInviteLinkHandler(links *services.InviteLinkService, perms *services.PermissionService) *InviteLinkHandler {
	return &InviteLinkHandler{links: links, perms: perms}
}

// Create issues a shareable invite link for a project.
func (h *InviteLinkHandler) Create(c *gin.Context) {
	projectID, ok := parseID(c, "id")
	if !ok {
		return
	}
	userID := middleware.GetUserID(c)

	if err := h.perms.Check(userID, projectID, "member:invite_link"); err != nil {
		response.Error(c, err)
		return
	}

	var req services.CreateInviteLinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	link, err := h.links.Create(userID, projectID, &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, link)
}

// List returns a project's invite links.
func (h *InviteLinkHandler) List(c *gin.Context) {
	projectID, ok := parseID(c, "id")
	if !ok {
		return
	}

	if err := h.perms.Check(middleware.GetUserID(c), projectID, "member:invite_link"); err != nil {
		response.Error(c, err)
		return
	}

	links, err := h.links.List(projectID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, links)
}

// Join admits the caller through an invite link token. No project
// permission applies: the token itself is the credential.
func (h *InviteLinkHandler) Join(c *gin.Context) {
	token := c.Param("token")
	if token == "" {
		response.BadRequest(c, "invalid token")
		return
	}

	member, err := h.links.Join(token, middleware.GetUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, member)
}
