package services

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"time"

	"github.com/taskloom/taskloom/backend/internal/models"
	"github.com/taskloom/taskloom/backend/internal/rbac"
	"gorm.io/gorm"
)

// InviteLinkService issues shareable invite links and admits users who
// present a valid token. A join's capacity check and counter increment
// run in one transaction with a guarded UPDATE, so concurrent joins at
// the exhaustion boundary cannot over-admit.
type InviteLinkService struct {
	db       *gorm.DB
	activity *ActivityService
	cache    *ProjectCacheService
}

func NewInviteLinkService(db *gorm.DB, activity *ActivityService, cache *ProjectCacheService) *InviteLinkService {
	return &InviteLinkService{db: db, activity: activity, cache: cache}
}

// newLinkToken returns a 64-character hex token from 32 random bytes.
func newLinkToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

type CreateInviteLinkRequest struct {
	RoleID        uint `json:"role_id" binding:"required"`
	MaxUses       *int `json:"max_uses"`
	ExpiresInDays *int `json:"expires_in_days"`
}

// Create issues a new invite link granting the given role. The creator
// must hold an active membership whose role strictly outranks the granted
// role. ExpiresAt is computed once here and never recomputed.
func (s *InviteLinkService) Create(creatorID, projectID uint, req *CreateInviteLinkRequest) (*models.InviteLink, error) {
	var link models.InviteLink

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var creator models.ProjectMember
		err := tx.Preload("Role").
			Where("project_id = ? AND user_id = ?", projectID, creatorID).
			First(&creator).Error
		if err == gorm.ErrRecordNotFound {
			return ErrNotAMember
		}
		if err != nil {
			return err
		}
		if creator.Status != models.MemberStatusActive {
			return ErrNotAMember
		}

		role, err := roleByID(tx, req.RoleID)
		if err != nil {
			return err
		}
		if !rbac.CanManageRole(rbac.RoleName(creator.Role.Name), rbac.RoleName(role.Name)) {
			return ErrInsufficientRank
		}

		token, err := newLinkToken()
		if err != nil {
			return err
		}

		link = models.InviteLink{
			ProjectID: projectID,
			CreatedBy: creatorID,
			Token:     token,
			RoleID:    role.ID,
			MaxUses:   req.MaxUses,
		}
		if req.ExpiresInDays != nil {
			expiresAt := time.Now().AddDate(0, 0, *req.ExpiresInDays)
			link.ExpiresAt = &expiresAt
		}

		return tx.Create(&link).Error
	})
	if err != nil {
		return nil, err
	}

	s.activity.Log(projectID, creatorID, "invite_link_created", "invite_link", link.ID,
		map[string]interface{}{"role_id": link.RoleID, "max_uses": link.MaxUses})
	return &link, nil
}

// Join admits a user through an invite link, creating an active
// membership directly with no pending stage. The uses counter is
// incremented with a capacity-guarded UPDATE inside the same transaction
// as the membership insert.
func (s *InviteLinkService) Join(token string, userID uint) (*models.ProjectMember, error) {
	var member models.ProjectMember
	var link models.InviteLink

	err := s.db.Transaction(func(tx *gorm.DB) error {
		err := tx.Where("token = ?", token).First(&link).Error
		if err == gorm.ErrRecordNotFound {
			return ErrLinkNotFound
		}
		if err != nil {
			return err
		}

		if link.ExpiresAt != nil && !time.Now().Before(*link.ExpiresAt) {
			return ErrLinkExpired
		}
		if link.MaxUses != nil && link.UsesCount >= *link.MaxUses {
			return ErrLinkExhausted
		}

		var count int64
		tx.Model(&models.ProjectMember{}).
			Where("project_id = ? AND user_id = ?", link.ProjectID, userID).
			Count(&count)
		if count > 0 {
			return ErrAlreadyMember
		}

		// Guarded increment: loses the race cleanly if a concurrent join
		// consumed the last slot after the read above.
		res := tx.Model(&models.InviteLink{}).
			Where("id = ? AND (max_uses IS NULL OR uses_count < max_uses)", link.ID).
			UpdateColumn("uses_count", gorm.Expr("uses_count + 1"))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrLinkExhausted
		}

		now := time.Now()
		member = models.ProjectMember{
			ProjectID: link.ProjectID,
			UserID:    userID,
			RoleID:    link.RoleID,
			Status:    models.MemberStatusActive,
			JoinedAt:  &now,
		}
		return tx.Create(&member).Error
	})
	if err != nil {
		return nil, err
	}

	s.activity.Log(link.ProjectID, userID, "member_joined_via_link", "invite_link", link.ID, nil)
	s.cache.Invalidate(context.Background(), userID)
	return &member, nil
}

// List returns a project's invite links, newest first.
func (s *InviteLinkService) List(projectID uint) ([]models.InviteLink, error) {
	var links []models.InviteLink
	err := s.db.Preload("Role").
		Where("project_id = ?", projectID).
		Order("created_at DESC").
		Find(&links).Error
	return links, err
}
