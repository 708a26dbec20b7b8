package services

import "github.com/taskloom/taskloom/backend/pkg/response"

// Typed failures returned by the authorization and collaboration-workflow
// services. Handlers pass them straight to response.Error; tests compare
// with errors.Is.
var (
	// Permission gate
	ErrNotAMember             = response.NewForbidden("not a member of this project")
	ErrInsufficientPermission = response.NewForbidden("insufficient permission")

	// Membership lifecycle
	ErrInsufficientRank   = response.NewForbidden("your role does not outrank the target role")
	ErrCannotRemoveOwner  = response.NewForbidden("the project owner cannot be removed")
	ErrSelfRemoval        = response.NewBadRequest("you cannot remove yourself from the project")
	ErrSelfRoleChange     = response.NewBadRequest("you cannot change your own role")
	ErrOwnerImmutable     = response.NewBadRequest("the owner role cannot be assigned or taken away")
	ErrAlreadyMember      = response.NewConflict("user is already a member of this project")
	ErrAlreadyActive      = response.NewConflict("invitation has already been accepted")
	ErrInvitationNotFound = response.NewNotFound("invitation not found")
	ErrMemberNotFound     = response.NewNotFound("member not found")
	ErrInvalidRole        = response.NewBadRequest("invalid role")

	// Invite links
	ErrLinkNotFound  = response.NewNotFound("invite link is invalid or expired")
	ErrLinkExpired   = response.NewNotFound("invite link is invalid or expired")
	ErrLinkExhausted = response.NewConflict("invite link has no remaining uses")

	// Dependency graph
	ErrSelfDependency         = response.NewBadRequest("a task cannot depend on itself")
	ErrDuplicateDependency    = response.NewConflict("dependency already exists")
	ErrCrossProjectDependency = response.NewBadRequest("tasks belong to different projects")
	ErrCyclicDependency       = response.NewBadRequest("dependency would create a cycle")
	ErrInvalidDependencyType  = response.NewBadRequest("dependency type must be 'blocks' or 'related'")

	// Tasks
	ErrInvalidTaskStatus = response.NewBadRequest("status must be 'todo', 'in_progress' or 'done'")

	// Shared lookups
	ErrProjectNotFound = response.NewNotFound("project not found")
	ErrTaskNotFound    = response.NewNotFound("task not found")
	ErrUserNotFound    = response.NewNotFound("user not found")
	ErrCommentNotFound      = response.NewNotFound("comment not found")
	ErrTimeEntryNotFound    = response.NewNotFound("time entry not found")
	ErrNotificationNotFound = response.NewNotFound("notification not found")
)
