package services

import (
	"errors"
	"testing"

	"github.com/taskloom/taskloom/backend/internal/models"
	"github.com/taskloom/taskloom/backend/internal/rbac"
)

func TestPermissionCheck_RoleGrants(t *testing.T) {
	db := newTestDB(t)
	svc := NewPermissionService(db)

	owner := createTestUser(t, db, "owner")
	project := createTestProject(t, db, owner.ID)
	viewer := createTestUser(t, db, "viewer")
	addTestMember(t, db, project.ID, viewer.ID, rbac.RoleViewer, models.MemberStatusActive)

	// Owner holds everything including project:delete
	if err := svc.Check(owner.ID, project.ID, "project:delete"); err != nil {
		t.Errorf("owner project:delete should pass, got %v", err)
	}

	// Viewer reads but never writes
	if err := svc.Check(viewer.ID, project.ID, "project:view"); err != nil {
		t.Errorf("viewer project:view should pass, got %v", err)
	}
	if err := svc.Check(viewer.ID, project.ID, "task:create"); !errors.Is(err, ErrInsufficientPermission) {
		t.Errorf("viewer task:create: expected ErrInsufficientPermission, got %v", err)
	}
	if err := svc.Check(viewer.ID, project.ID, "project:delete"); !errors.Is(err, ErrInsufficientPermission) {
		t.Errorf("viewer project:delete: expected ErrInsufficientPermission, got %v", err)
	}
}

func TestPermissionCheck_NonMember(t *testing.T) {
	db := newTestDB(t)
	svc := NewPermissionService(db)

	owner := createTestUser(t, db, "owner")
	project := createTestProject(t, db, owner.ID)
	outsider := createTestUser(t, db, "outsider")

	if err := svc.Check(outsider.ID, project.ID, "project:view"); !errors.Is(err, ErrNotAMember) {
		t.Errorf("expected ErrNotAMember, got %v", err)
	}
}

func TestPermissionCheck_PendingMemberPassesGate(t *testing.T) {
	db := newTestDB(t)
	svc := NewPermissionService(db)

	owner := createTestUser(t, db, "owner")
	project := createTestProject(t, db, owner.ID)
	invitee := createTestUser(t, db, "invitee")
	addTestMember(t, db, project.ID, invitee.ID, rbac.RoleMember, models.MemberStatusPending)

	// The gate keys on role alone; invitation status is not consulted
	if err := svc.Check(invitee.ID, project.ID, "task:create"); err != nil {
		t.Errorf("pending member with granting role should pass, got %v", err)
	}
}

func TestPermissionCheckAny(t *testing.T) {
	db := newTestDB(t)
	svc := NewPermissionService(db)

	owner := createTestUser(t, db, "owner")
	project := createTestProject(t, db, owner.ID)
	contributor := createTestUser(t, db, "contributor")
	addTestMember(t, db, project.ID, contributor.ID, rbac.RoleContributor, models.MemberStatusActive)

	// Contributor holds task:edit:own but not task:edit
	if err := svc.CheckAny(contributor.ID, project.ID, "task:edit", "task:edit:own"); err != nil {
		t.Errorf("CheckAny with one granted permission should pass, got %v", err)
	}
	if err := svc.CheckAny(contributor.ID, project.ID, "task:delete", "member:remove"); !errors.Is(err, ErrInsufficientPermission) {
		t.Errorf("CheckAny with no granted permissions: expected ErrInsufficientPermission, got %v", err)
	}
}

func TestPermissionsOf_Memoized(t *testing.T) {
	db := newTestDB(t)
	svc := NewPermissionService(db)

	roleID := testRoleID(t, db, rbac.RoleGuest)

	first, err := svc.PermissionsOf(roleID)
	if err != nil {
		t.Fatalf("PermissionsOf failed: %v", err)
	}
	if len(first) != 2 {
		t.Errorf("guest permission count = %d, expected 2", len(first))
	}
	if _, ok := first["project:view"]; !ok {
		t.Error("guest should hold project:view")
	}

	// Second call served from cache even if the table changes underneath
	db.Where("role_id = ?", roleID).Delete(&models.RolePermission{})
	second, err := svc.PermissionsOf(roleID)
	if err != nil {
		t.Fatalf("second PermissionsOf failed: %v", err)
	}
	if len(second) != len(first) {
		t.Errorf("memoized set changed size: %d vs %d", len(second), len(first))
	}
}

func TestMembership_Lookup(t *testing.T) {
	db := newTestDB(t)
	svc := NewPermissionService(db)

	owner := createTestUser(t, db, "owner")
	project := createTestProject(t, db, owner.ID)

	member, err := svc.Membership(owner.ID, project.ID)
	if err != nil {
		t.Fatalf("Membership failed: %v", err)
	}
	if member.Role.Name != string(rbac.RoleOwner) {
		t.Errorf("role = %q, expected owner", member.Role.Name)
	}

	outsider := createTestUser(t, db, "outsider")
	if _, err := svc.Membership(outsider.ID, project.ID); !errors.Is(err, ErrNotAMember) {
		t.Errorf("expected ErrNotAMember, got %v", err)
	}
}
