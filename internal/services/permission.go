package services

import (
	"sync"

	"github.com/taskloom/taskloom/backend/internal/models"
	"gorm.io/gorm"
)

// PermissionService answers "does this user hold this permission in this
// project". Role permission sets come from the role_permissions join and
// are memoized per role id; the table is seeded once at boot and treated
// as static afterwards.
type PermissionService struct {
	db    *gorm.DB
	mu    sync.RWMutex
	cache map[uint]map[string]struct{}
}

func NewPermissionService(db *gorm.DB) *PermissionService {
	return &PermissionService{
		db:    db,
		cache: make(map[uint]map[string]struct{}),
	}
}

// PermissionsOf returns the set of permission names granted to a role.
func (s *PermissionService) PermissionsOf(roleID uint) (map[string]struct{}, error) {
	s.mu.RLock()
	cached, ok := s.cache[roleID]
	s.mu.RUnlock()
	if ok {
		return cached, nil
	}

	var names []string
	err := s.db.Model(&models.Permission{}).
		Joins("JOIN role_permissions ON role_permissions.permission_id = permissions.id").
		Where("role_permissions.role_id = ?", roleID).
		Pluck("permissions.name", &names).Error
	if err != nil {
		return nil, err
	}

	set := make(map[string]struct{}, len(names))
	for _, n := range names {
		set[n] = struct{}{}
	}

	s.mu.Lock()
	s.cache[roleID] = set
	s.mu.Unlock()
	return set, nil
}

// Check resolves the caller's membership and allows the operation only if
// the membership's role grants the permission. Membership status is not
// consulted: pending invitees pass the gate the same as active members.
func (s *PermissionService) Check(userID, projectID uint, permission string) error {
	var membership models.ProjectMember
	err := s.db.Where("project_id = ? AND user_id = ?", projectID, userID).
		First(&membership).Error
	if err == gorm.ErrRecordNotFound {
		return ErrNotAMember
	}
	if err != nil {
		return err
	}

	perms, err := s.PermissionsOf(membership.RoleID)
	if err != nil {
		return err
	}

	if _, ok := perms[permission]; !ok {
		return ErrInsufficientPermission
	}
	return nil
}

// CheckAny allows the operation if the role grants at least one of the
// given permissions. Used for ":own"-scoped fallbacks (e.g. task:edit vs
// task:edit:own).
func (s *PermissionService) CheckAny(userID, projectID uint, permissions ...string) error {
	var membership models.ProjectMember
	err := s.db.Where("project_id = ? AND user_id = ?", projectID, userID).
		First(&membership).Error
	if err == gorm.ErrRecordNotFound {
		return ErrNotAMember
	}
	if err != nil {
		return err
	}

	perms, err := s.PermissionsOf(membership.RoleID)
	if err != nil {
		return err
	}

	for _, p := range permissions {
		if _, ok := perms[p]; ok {
			return nil
		}
	}
	return ErrInsufficientPermission
}

// Membership returns the caller's membership row for a project, or
// ErrNotAMember.
func (s *PermissionService) Membership(userID, projectID uint) (*models.ProjectMember, error) {
	var membership models.ProjectMember
	err := s.db.Preload("Role").
		Where("project_id = ? AND user_id = ?", projectID, userID).
		First(&membership).Error
	if err == gorm.ErrRecordNotFound {
		return nil, ErrNotAMember
	}
	if err != nil {
		return nil, err
	}
	return &membership, nil
}
