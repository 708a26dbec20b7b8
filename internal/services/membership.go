package services

import (
	"context"
	"time"

	"github.com/taskloom/taskloom/backend/internal/models"
	"github.com/taskloom/taskloom/backend/internal/rbac"
	"gorm.io/gorm"
)

// MembershipService implements the project-membership lifecycle: direct
// invitations, accept/decline, role changes and removal. Every transition
// runs its check-and-write sequence inside one transaction; notifications,
// email, activity log and cache invalidation happen after commit and are
// best-effort.
type MembershipService struct {
	db       *gorm.DB
	notifier *NotificationService
	emails   *EmailService
	activity *ActivityService
	cache    *ProjectCacheService
}

func NewMembershipService(db *gorm.DB, notifier *NotificationService, emails *EmailService, activity *ActivityService, cache *ProjectCacheService) *MembershipService {
	return &MembershipService{
		db:       db,
		notifier: notifier,
		emails:   emails,
		activity: activity,
		cache:    cache,
	}
}

// roleByID resolves a role row and rejects ids outside the fixed role set.
func roleByID(tx *gorm.DB, roleID uint) (*models.Role, error) {
	var role models.Role
	err := tx.First(&role, roleID).Error
	if err == gorm.ErrRecordNotFound {
		return nil, ErrInvalidRole
	}
	if err != nil {
		return nil, err
	}
	if !rbac.IsValid(rbac.RoleName(role.Name)) {
		return nil, ErrInvalidRole
	}
	return &role, nil
}

// roleIDByName resolves the id of a fixed role name.
func roleIDByName(tx *gorm.DB, name rbac.RoleName) (uint, error) {
	var role models.Role
	if err := tx.Where("name = ?", string(name)).First(&role).Error; err != nil {
		return 0, err
	}
	return role.ID, nil
}

// CreateOwnerMembership inserts the creator's owner membership, active
// immediately with no invitation step. Runs inside the caller's
// transaction so the project and its owner row commit atomically.
func CreateOwnerMembership(tx *gorm.DB, projectID, userID uint) (*models.ProjectMember, error) {
	ownerRoleID, err := roleIDByName(tx, rbac.RoleOwner)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	member := models.ProjectMember{
		ProjectID: projectID,
		UserID:    userID,
		RoleID:    ownerRoleID,
		Status:    models.MemberStatusActive,
		JoinedAt:  &now,
	}
	if err := tx.Create(&member).Error; err != nil {
		return nil, err
	}
	return &member, nil
}

type InviteRequest struct {
	Email  string `json:"email" binding:"required,email"`
	RoleID uint   `json:"role_id" binding:"required"`
}

// Invite creates a pending membership for the user identified by email,
// creating an inactive placeholder user if the email is unknown. The
// inviter must hold an active membership whose role strictly outranks the
// invited role.
func (s *MembershipService) Invite(inviterID, projectID uint, req *InviteRequest) (*models.ProjectMember, error) {
	var (
		member  models.ProjectMember
		invitee models.User
		inviter models.User
		project models.Project
		role    *models.Role
	)

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&project, projectID).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return ErrProjectNotFound
			}
			return err
		}

		var inviterMembership models.ProjectMember
		err := tx.Preload("Role").
			Where("project_id = ? AND user_id = ?", projectID, inviterID).
			First(&inviterMembership).Error
		if err == gorm.ErrRecordNotFound {
			return ErrNotAMember
		}
		if err != nil {
			return err
		}
		if inviterMembership.Status != models.MemberStatusActive {
			return ErrNotAMember
		}

		role, err = roleByID(tx, req.RoleID)
		if err != nil {
			return err
		}

		inviterRole := rbac.RoleName(inviterMembership.Role.Name)
		if !rbac.CanManageRole(inviterRole, rbac.RoleName(role.Name)) {
			return ErrInsufficientRank
		}

		// Find or create the invited user by email
		err = tx.Where("email = ?", req.Email).First(&invitee).Error
		if err == gorm.ErrRecordNotFound {
			invitee = models.User{
				Username: req.Email,
				Email:    req.Email,
				IsActive: false,
			}
			if err := tx.Create(&invitee).Error; err != nil {
				return err
			}
		} else if err != nil {
			return err
		}

		var count int64
		tx.Model(&models.ProjectMember{}).
			Where("project_id = ? AND user_id = ?", projectID, invitee.ID).
			Count(&count)
		if count > 0 {
			return ErrAlreadyMember
		}

		member = models.ProjectMember{
			ProjectID: projectID,
			UserID:    invitee.ID,
			RoleID:    role.ID,
			Status:    models.MemberStatusPending,
		}
		if err := tx.Create(&member).Error; err != nil {
			return err
		}

		return tx.First(&inviter, inviterID).Error
	})
	if err != nil {
		return nil, err
	}

	inviterName := inviter.Nickname
	if inviterName == "" {
		inviterName = inviter.Username
	}

	s.activity.Log(projectID, inviterID, "member_invited", "project_member", member.ID,
		map[string]interface{}{"email": req.Email, "role": role.Name})
	s.notifier.Notify(invitee.ID, NotifyTypeInvitation,
		"Project invitation",
		inviterName+" invited you to join "+project.Name+" as "+role.Name,
		"/invitations", "project", projectID)
	s.emails.SendInvitation(req.Email, inviterName, project.Name, role.Name)
	s.cache.Invalidate(context.Background(), invitee.ID)

	member.Role = role
	member.User = &invitee
	return &member, nil
}

// AcceptInvitation transitions a pending membership to active.
func (s *MembershipService) AcceptInvitation(userID, projectID uint) (*models.ProjectMember, error) {
	var member models.ProjectMember

	err := s.db.Transaction(func(tx *gorm.DB) error {
		err := tx.Where("project_id = ? AND user_id = ?", projectID, userID).
			First(&member).Error
		if err == gorm.ErrRecordNotFound {
			return ErrInvitationNotFound
		}
		if err != nil {
			return err
		}
		if member.Status == models.MemberStatusActive {
			return ErrAlreadyActive
		}

		now := time.Now()
		member.Status = models.MemberStatusActive
		member.JoinedAt = &now
		return tx.Save(&member).Error
	})
	if err != nil {
		return nil, err
	}

	s.activity.Log(projectID, userID, "member_joined", "project_member", member.ID, nil)
	s.cache.Invalidate(context.Background(), userID)
	return &member, nil
}

// DeclineInvitation deletes a pending membership outright; no declined
// tombstone is kept, so the user can be invited again later.
func (s *MembershipService) DeclineInvitation(userID, projectID uint) error {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var member models.ProjectMember
		err := tx.Where("project_id = ? AND user_id = ?", projectID, userID).
			First(&member).Error
		if err == gorm.ErrRecordNotFound {
			return ErrInvitationNotFound
		}
		if err != nil {
			return err
		}
		if member.Status == models.MemberStatusActive {
			return ErrAlreadyActive
		}

		return tx.Delete(&member).Error
	})
	if err != nil {
		return err
	}

	s.activity.Log(projectID, userID, "invitation_declined", "project_member", 0, nil)
	s.cache.Invalidate(context.Background(), userID)
	return nil
}

// RemoveMember deletes another member's membership. Owners are never
// removable; the remover must strictly outrank the target.
func (s *MembershipService) RemoveMember(removerID, targetUserID, projectID uint) error {
	if removerID == targetUserID {
		return ErrSelfRemoval
	}

	var target models.ProjectMember

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var remover models.ProjectMember
		err := tx.Preload("Role").
			Where("project_id = ? AND user_id = ?", projectID, removerID).
			First(&remover).Error
		if err == gorm.ErrRecordNotFound {
			return ErrNotAMember
		}
		if err != nil {
			return err
		}

		err = tx.Preload("Role").
			Where("project_id = ? AND user_id = ?", projectID, targetUserID).
			First(&target).Error
		if err == gorm.ErrRecordNotFound {
			return ErrMemberNotFound
		}
		if err != nil {
			return err
		}

		if target.Role.Name == string(rbac.RoleOwner) {
			return ErrCannotRemoveOwner
		}
		if !rbac.HasHigherRole(rbac.RoleName(remover.Role.Name), rbac.RoleName(target.Role.Name)) {
			return ErrInsufficientRank
		}

		return tx.Delete(&target).Error
	})
	if err != nil {
		return err
	}

	s.activity.Log(projectID, removerID, "member_removed", "project_member", target.ID,
		map[string]interface{}{"removed_user_id": targetUserID})
	s.notifier.Notify(targetUserID, NotifyTypeRemoved,
		"Removed from project",
		"You have been removed from a project",
		"", "project", projectID)
	s.cache.Invalidate(context.Background(), targetUserID)
	return nil
}

type UpdateRoleRequest struct {
	RoleID uint `json:"role_id" binding:"required"`
}

// UpdateMemberRole changes another member's role. The updater must
// strictly outrank both the member's current role and the proposed one;
// the owner role can neither be assigned nor taken away.
func (s *MembershipService) UpdateMemberRole(updaterID, targetUserID, projectID uint, req *UpdateRoleRequest) (*models.ProjectMember, error) {
	if updaterID == targetUserID {
		return nil, ErrSelfRoleChange
	}

	var (
		target  models.ProjectMember
		newRole *models.Role
	)

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var updater models.ProjectMember
		err := tx.Preload("Role").
			Where("project_id = ? AND user_id = ?", projectID, updaterID).
			First(&updater).Error
		if err == gorm.ErrRecordNotFound {
			return ErrNotAMember
		}
		if err != nil {
			return err
		}

		err = tx.Preload("Role").
			Where("project_id = ? AND user_id = ?", projectID, targetUserID).
			First(&target).Error
		if err == gorm.ErrRecordNotFound {
			return ErrMemberNotFound
		}
		if err != nil {
			return err
		}

		newRole, err = roleByID(tx, req.RoleID)
		if err != nil {
			return err
		}

		if target.Role.Name == string(rbac.RoleOwner) || newRole.Name == string(rbac.RoleOwner) {
			return ErrOwnerImmutable
		}

		updaterRole := rbac.RoleName(updater.Role.Name)
		if !rbac.CanManageRole(updaterRole, rbac.RoleName(target.Role.Name)) ||
			!rbac.CanManageRole(updaterRole, rbac.RoleName(newRole.Name)) {
			return ErrInsufficientRank
		}

		target.RoleID = newRole.ID
		return tx.Save(&target).Error
	})
	if err != nil {
		return nil, err
	}

	s.activity.Log(projectID, updaterID, "member_role_changed", "project_member", target.ID,
		map[string]interface{}{"user_id": targetUserID, "new_role": newRole.Name})
	s.notifier.Notify(targetUserID, NotifyTypeRoleChanged,
		"Role changed",
		"Your project role is now "+newRole.Name,
		"", "project", projectID)
	s.cache.Invalidate(context.Background(), targetUserID)

	target.Role = newRole
	return &target, nil
}

// List returns all memberships of a project with user and role preloaded.
func (s *MembershipService) List(projectID uint) ([]models.ProjectMember, error) {
	var members []models.ProjectMember
	err := s.db.Preload("User").Preload("Role").
		Where("project_id = ?", projectID).
		Order("created_at ASC").
		Find(&members).Error
	return members, err
}

// PendingInvitations returns the user's pending memberships with project
// and role preloaded, for the invitations inbox.
func (s *MembershipService) PendingInvitations(userID uint) ([]models.ProjectMember, error) {
	var invitations []models.ProjectMember
	err := s.db.Preload("Project").Preload("Role").
		Where("user_id = ? AND status = ?", userID, models.MemberStatusPending).
		Order("created_at DESC").
		Find(&invitations).Error
	return invitations, err
}
