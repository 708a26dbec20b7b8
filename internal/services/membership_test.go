package services

import (
	"errors"
	"testing"

	"github.com/taskloom/taskloom/backend/internal/models"
	"github.com/taskloom/taskloom/backend/internal/rbac"
)

func TestInvite_CreatesPendingMembership(t *testing.T) {
	db := newTestDB(t)
	svc := newTestMembershipService(db)

	owner := createTestUser(t, db, "owner")
	project := createTestProject(t, db, owner.ID)

	member, err := svc.Invite(owner.ID, project.ID, &InviteRequest{
		Email:  "invitee@example.com",
		RoleID: testRoleID(t, db, rbac.RoleMember),
	})
	if err != nil {
		t.Fatalf("Invite failed: %v", err)
	}

	if member.Status != models.MemberStatusPending {
		t.Errorf("new invitation status = %q, expected %q", member.Status, models.MemberStatusPending)
	}
	if member.JoinedAt != nil {
		t.Error("pending invitation should have no JoinedAt")
	}

	// Unknown email creates an inactive placeholder user
	var invitee models.User
	if err := db.Where("email = ?", "invitee@example.com").First(&invitee).Error; err != nil {
		t.Fatalf("placeholder user not created: %v", err)
	}
	if invitee.IsActive {
		t.Error("placeholder user should be inactive")
	}

	// A notification is written for the invitee
	var notifCount int64
	db.Model(&models.Notification{}).Where("user_id = ?", invitee.ID).Count(&notifCount)
	if notifCount != 1 {
		t.Errorf("expected 1 notification for invitee, got %d", notifCount)
	}
}

func TestInvite_ExistingMemberConflicts(t *testing.T) {
	db := newTestDB(t)
	svc := newTestMembershipService(db)

	owner := createTestUser(t, db, "owner")
	project := createTestProject(t, db, owner.ID)
	invitee := createTestUser(t, db, "dev")
	addTestMember(t, db, project.ID, invitee.ID, rbac.RoleMember, models.MemberStatusActive)

	_, err := svc.Invite(owner.ID, project.ID, &InviteRequest{
		Email:  invitee.Email,
		RoleID: testRoleID(t, db, rbac.RoleViewer),
	})
	if !errors.Is(err, ErrAlreadyMember) {
		t.Errorf("expected ErrAlreadyMember, got %v", err)
	}
}

func TestInvite_RankChecks(t *testing.T) {
	db := newTestDB(t)
	svc := newTestMembershipService(db)

	owner := createTestUser(t, db, "owner")
	project := createTestProject(t, db, owner.ID)
	admin := createTestUser(t, db, "admin")
	addTestMember(t, db, project.ID, admin.ID, rbac.RoleAdmin, models.MemberStatusActive)

	// Equal rank: admin cannot invite another admin
	_, err := svc.Invite(admin.ID, project.ID, &InviteRequest{
		Email:  "peer@example.com",
		RoleID: testRoleID(t, db, rbac.RoleAdmin),
	})
	if !errors.Is(err, ErrInsufficientRank) {
		t.Errorf("admin inviting admin: expected ErrInsufficientRank, got %v", err)
	}

	// Higher rank: admin cannot invite an owner
	_, err = svc.Invite(admin.ID, project.ID, &InviteRequest{
		Email:  "boss@example.com",
		RoleID: testRoleID(t, db, rbac.RoleOwner),
	})
	if !errors.Is(err, ErrInsufficientRank) {
		t.Errorf("admin inviting owner: expected ErrInsufficientRank, got %v", err)
	}

	// Strictly lower rank is fine
	if _, err := svc.Invite(admin.ID, project.ID, &InviteRequest{
		Email:  "junior@example.com",
		RoleID: testRoleID(t, db, rbac.RoleProjectManager),
	}); err != nil {
		t.Errorf("admin inviting project_manager should succeed, got %v", err)
	}
}

func TestInvite_RequiresActiveMembership(t *testing.T) {
	db := newTestDB(t)
	svc := newTestMembershipService(db)

	owner := createTestUser(t, db, "owner")
	project := createTestProject(t, db, owner.ID)
	outsider := createTestUser(t, db, "outsider")
	pending := createTestUser(t, db, "pending")
	addTestMember(t, db, project.ID, pending.ID, rbac.RoleAdmin, models.MemberStatusPending)

	req := &InviteRequest{Email: "x@example.com", RoleID: testRoleID(t, db, rbac.RoleViewer)}

	if _, err := svc.Invite(outsider.ID, project.ID, req); !errors.Is(err, ErrNotAMember) {
		t.Errorf("outsider invite: expected ErrNotAMember, got %v", err)
	}
	if _, err := svc.Invite(pending.ID, project.ID, req); !errors.Is(err, ErrNotAMember) {
		t.Errorf("pending inviter: expected ErrNotAMember, got %v", err)
	}
}

func TestInvite_InvalidRole(t *testing.T) {
	db := newTestDB(t)
	svc := newTestMembershipService(db)

	owner := createTestUser(t, db, "owner")
	project := createTestProject(t, db, owner.ID)

	_, err := svc.Invite(owner.ID, project.ID, &InviteRequest{Email: "x@example.com", RoleID: 9999})
	if !errors.Is(err, ErrInvalidRole) {
		t.Errorf("expected ErrInvalidRole, got %v", err)
	}
}

func TestAcceptInvitation_Lifecycle(t *testing.T) {
	db := newTestDB(t)
	svc := newTestMembershipService(db)

	owner := createTestUser(t, db, "owner")
	project := createTestProject(t, db, owner.ID)
	invitee := createTestUser(t, db, "invitee")
	addTestMember(t, db, project.ID, invitee.ID, rbac.RoleMember, models.MemberStatusPending)

	member, err := svc.AcceptInvitation(invitee.ID, project.ID)
	if err != nil {
		t.Fatalf("AcceptInvitation failed: %v", err)
	}
	if member.Status != models.MemberStatusActive {
		t.Errorf("status = %q, expected active", member.Status)
	}
	if member.JoinedAt == nil {
		t.Error("JoinedAt should be set on acceptance")
	}

	// Accepting twice conflicts
	if _, err := svc.AcceptInvitation(invitee.ID, project.ID); !errors.Is(err, ErrAlreadyActive) {
		t.Errorf("second accept: expected ErrAlreadyActive, got %v", err)
	}

	// No invitation at all
	stranger := createTestUser(t, db, "stranger")
	if _, err := svc.AcceptInvitation(stranger.ID, project.ID); !errors.Is(err, ErrInvitationNotFound) {
		t.Errorf("no invitation: expected ErrInvitationNotFound, got %v", err)
	}
}

func TestDeclineInvitation_DeletesAndAllowsReinvite(t *testing.T) {
	db := newTestDB(t)
	svc := newTestMembershipService(db)

	owner := createTestUser(t, db, "owner")
	project := createTestProject(t, db, owner.ID)

	if _, err := svc.Invite(owner.ID, project.ID, &InviteRequest{
		Email:  "dev@example.com",
		RoleID: testRoleID(t, db, rbac.RoleMember),
	}); err != nil {
		t.Fatalf("Invite failed: %v", err)
	}

	var invitee models.User
	db.Where("email = ?", "dev@example.com").First(&invitee)

	if err := svc.DeclineInvitation(invitee.ID, project.ID); err != nil {
		t.Fatalf("DeclineInvitation failed: %v", err)
	}

	// Row is gone, no tombstone
	var count int64
	db.Model(&models.ProjectMember{}).
		Where("project_id = ? AND user_id = ?", project.ID, invitee.ID).
		Count(&count)
	if count != 0 {
		t.Errorf("declined membership should be deleted, found %d rows", count)
	}

	// Declining an active membership is rejected
	if err := svc.DeclineInvitation(owner.ID, project.ID); !errors.Is(err, ErrAlreadyActive) {
		t.Errorf("declining active membership: expected ErrAlreadyActive, got %v", err)
	}

	// Re-inviting after decline works
	if _, err := svc.Invite(owner.ID, project.ID, &InviteRequest{
		Email:  "dev@example.com",
		RoleID: testRoleID(t, db, rbac.RoleViewer),
	}); err != nil {
		t.Errorf("re-invite after decline should succeed, got %v", err)
	}
}

func TestRemoveMember_Rules(t *testing.T) {
	db := newTestDB(t)
	svc := newTestMembershipService(db)

	owner := createTestUser(t, db, "owner")
	project := createTestProject(t, db, owner.ID)
	admin := createTestUser(t, db, "admin")
	pm := createTestUser(t, db, "pm")
	addTestMember(t, db, project.ID, admin.ID, rbac.RoleAdmin, models.MemberStatusActive)
	addTestMember(t, db, project.ID, pm.ID, rbac.RoleProjectManager, models.MemberStatusActive)

	// Self-removal is rejected before anything else
	if err := svc.RemoveMember(admin.ID, admin.ID, project.ID); !errors.Is(err, ErrSelfRemoval) {
		t.Errorf("self removal: expected ErrSelfRemoval, got %v", err)
	}

	// The owner can never be removed
	if err := svc.RemoveMember(admin.ID, owner.ID, project.ID); !errors.Is(err, ErrCannotRemoveOwner) {
		t.Errorf("removing owner: expected ErrCannotRemoveOwner, got %v", err)
	}

	// Equal or lower rank cannot remove
	if err := svc.RemoveMember(pm.ID, admin.ID, project.ID); !errors.Is(err, ErrInsufficientRank) {
		t.Errorf("pm removing admin: expected ErrInsufficientRank, got %v", err)
	}

	// Missing target
	stranger := createTestUser(t, db, "stranger")
	if err := svc.RemoveMember(admin.ID, stranger.ID, project.ID); !errors.Is(err, ErrMemberNotFound) {
		t.Errorf("missing target: expected ErrMemberNotFound, got %v", err)
	}

	// Strictly higher rank removes, membership row is hard-deleted
	if err := svc.RemoveMember(admin.ID, pm.ID, project.ID); err != nil {
		t.Fatalf("admin removing pm failed: %v", err)
	}
	var count int64
	db.Model(&models.ProjectMember{}).
		Where("project_id = ? AND user_id = ?", project.ID, pm.ID).
		Count(&count)
	if count != 0 {
		t.Errorf("removed membership should be deleted, found %d rows", count)
	}
}

func TestUpdateMemberRole_Rules(t *testing.T) {
	db := newTestDB(t)
	svc := newTestMembershipService(db)

	owner := createTestUser(t, db, "owner")
	project := createTestProject(t, db, owner.ID)
	admin := createTestUser(t, db, "admin")
	dev := createTestUser(t, db, "dev")
	addTestMember(t, db, project.ID, admin.ID, rbac.RoleAdmin, models.MemberStatusActive)
	addTestMember(t, db, project.ID, dev.ID, rbac.RoleMember, models.MemberStatusActive)

	viewerRole := testRoleID(t, db, rbac.RoleViewer)
	adminRole := testRoleID(t, db, rbac.RoleAdmin)
	ownerRole := testRoleID(t, db, rbac.RoleOwner)

	// Self role change is rejected
	if _, err := svc.UpdateMemberRole(admin.ID, admin.ID, project.ID, &UpdateRoleRequest{RoleID: viewerRole}); !errors.Is(err, ErrSelfRoleChange) {
		t.Errorf("self role change: expected ErrSelfRoleChange, got %v", err)
	}

	// The owner role can neither be assigned nor taken away
	if _, err := svc.UpdateMemberRole(admin.ID, dev.ID, project.ID, &UpdateRoleRequest{RoleID: ownerRole}); !errors.Is(err, ErrOwnerImmutable) {
		t.Errorf("assigning owner: expected ErrOwnerImmutable, got %v", err)
	}
	if _, err := svc.UpdateMemberRole(admin.ID, owner.ID, project.ID, &UpdateRoleRequest{RoleID: viewerRole}); !errors.Is(err, ErrOwnerImmutable) {
		t.Errorf("demoting owner: expected ErrOwnerImmutable, got %v", err)
	}

	// The new role must also be strictly below the updater
	if _, err := svc.UpdateMemberRole(admin.ID, dev.ID, project.ID, &UpdateRoleRequest{RoleID: adminRole}); !errors.Is(err, ErrInsufficientRank) {
		t.Errorf("promoting to own tier: expected ErrInsufficientRank, got %v", err)
	}

	// Valid demotion
	updated, err := svc.UpdateMemberRole(admin.ID, dev.ID, project.ID, &UpdateRoleRequest{RoleID: viewerRole})
	if err != nil {
		t.Fatalf("valid role change failed: %v", err)
	}
	if updated.RoleID != viewerRole {
		t.Errorf("RoleID = %d, expected %d", updated.RoleID, viewerRole)
	}
}

func TestCreateOwnerMembership_ActiveImmediately(t *testing.T) {
	db := newTestDB(t)

	owner := createTestUser(t, db, "founder")
	project := createTestProject(t, db, owner.ID)

	var member models.ProjectMember
	err := db.Preload("Role").
		Where("project_id = ? AND user_id = ?", project.ID, owner.ID).
		First(&member).Error
	if err != nil {
		t.Fatalf("owner membership missing: %v", err)
	}
	if member.Status != models.MemberStatusActive {
		t.Errorf("owner status = %q, expected active", member.Status)
	}
	if member.JoinedAt == nil {
		t.Error("owner JoinedAt should be set")
	}
	if member.Role.Name != string(rbac.RoleOwner) {
		t.Errorf("owner role = %q, expected owner", member.Role.Name)
	}
}

func TestPendingInvitations_ListsOnlyPending(t *testing.T) {
	db := newTestDB(t)
	svc := newTestMembershipService(db)

	owner := createTestUser(t, db, "owner")
	p1 := createTestProject(t, db, owner.ID)
	p2 := createTestProject(t, db, owner.ID)
	dev := createTestUser(t, db, "dev")
	addTestMember(t, db, p1.ID, dev.ID, rbac.RoleMember, models.MemberStatusPending)
	addTestMember(t, db, p2.ID, dev.ID, rbac.RoleMember, models.MemberStatusActive)

	invitations, err := svc.PendingInvitations(dev.ID)
	if err != nil {
		t.Fatalf("PendingInvitations failed: %v", err)
	}
	if len(invitations) != 1 {
		t.Fatalf("expected 1 pending invitation, got %d", len(invitations))
	}
	if invitations[0].ProjectID != p1.ID {
		t.Errorf("invitation project = %d, expected %d", invitations[0].ProjectID, p1.ID)
	}
}
