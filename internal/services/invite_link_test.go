package services

import (
	"errors"
	"testing"
	"time"

	"github.com/taskloom/taskloom/backend/internal/models"
	"github.com/taskloom/taskloom/backend/internal/rbac"
	"gorm.io/gorm"
)

func newTestInviteLinkService(db *gorm.DB) *InviteLinkService {
	return NewInviteLinkService(db, NewActivityService(db), noopCache())
}

func TestInviteLinkCreate_TokenAndExpiry(t *testing.T) {
	db := newTestDB(t)
	svc := newTestInviteLinkService(db)

	owner := createTestUser(t, db, "owner")
	project := createTestProject(t, db, owner.ID)

	days := 7
	link, err := svc.Create(owner.ID, project.ID, &CreateInviteLinkRequest{
		RoleID:        testRoleID(t, db, rbac.RoleMember),
		ExpiresInDays: &days,
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if len(link.Token) != 64 {
		t.Errorf("token length = %d, expected 64", len(link.Token))
	}
	if link.ExpiresAt == nil {
		t.Fatal("ExpiresAt should be set")
	}
	wantExpiry := time.Now().AddDate(0, 0, days)
	if diff := link.ExpiresAt.Sub(wantExpiry); diff < -time.Minute || diff > time.Minute {
		t.Errorf("ExpiresAt off by %v", diff)
	}
	if link.UsesCount != 0 {
		t.Errorf("new link UsesCount = %d, expected 0", link.UsesCount)
	}

	// Two links never share a token
	link2, err := svc.Create(owner.ID, project.ID, &CreateInviteLinkRequest{
		RoleID: testRoleID(t, db, rbac.RoleMember),
	})
	if err != nil {
		t.Fatalf("second Create failed: %v", err)
	}
	if link2.Token == link.Token {
		t.Error("two links share the same token")
	}
	if link2.ExpiresAt != nil {
		t.Error("link without ExpiresInDays should never expire")
	}
}

func TestInviteLinkCreate_RankCheck(t *testing.T) {
	db := newTestDB(t)
	svc := newTestInviteLinkService(db)

	owner := createTestUser(t, db, "owner")
	project := createTestProject(t, db, owner.ID)
	viewer := createTestUser(t, db, "viewer")
	addTestMember(t, db, project.ID, viewer.ID, rbac.RoleViewer, models.MemberStatusActive)

	// A viewer cannot mint links granting a role at or above its own
	_, err := svc.Create(viewer.ID, project.ID, &CreateInviteLinkRequest{
		RoleID: testRoleID(t, db, rbac.RoleAdmin),
	})
	if !errors.Is(err, ErrInsufficientRank) {
		t.Errorf("viewer creating admin link: expected ErrInsufficientRank, got %v", err)
	}

	_, err = svc.Create(viewer.ID, project.ID, &CreateInviteLinkRequest{
		RoleID: testRoleID(t, db, rbac.RoleViewer),
	})
	if !errors.Is(err, ErrInsufficientRank) {
		t.Errorf("viewer creating viewer link: expected ErrInsufficientRank, got %v", err)
	}

	// Non-members cannot create links at all
	outsider := createTestUser(t, db, "outsider")
	_, err = svc.Create(outsider.ID, project.ID, &CreateInviteLinkRequest{
		RoleID: testRoleID(t, db, rbac.RoleGuest),
	})
	if !errors.Is(err, ErrNotAMember) {
		t.Errorf("outsider creating link: expected ErrNotAMember, got %v", err)
	}
}

func TestInviteLinkJoin_CreatesActiveMembership(t *testing.T) {
	db := newTestDB(t)
	svc := newTestInviteLinkService(db)

	owner := createTestUser(t, db, "owner")
	project := createTestProject(t, db, owner.ID)

	link, err := svc.Create(owner.ID, project.ID, &CreateInviteLinkRequest{
		RoleID: testRoleID(t, db, rbac.RoleContributor),
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	joiner := createTestUser(t, db, "joiner")
	member, err := svc.Join(link.Token, joiner.ID)
	if err != nil {
		t.Fatalf("Join failed: %v", err)
	}

	// Link joins skip the pending stage entirely
	if member.Status != models.MemberStatusActive {
		t.Errorf("status = %q, expected active", member.Status)
	}
	if member.JoinedAt == nil {
		t.Error("JoinedAt should be set on link join")
	}
	if member.RoleID != link.RoleID {
		t.Errorf("RoleID = %d, expected %d", member.RoleID, link.RoleID)
	}

	var reloaded models.InviteLink
	db.First(&reloaded, link.ID)
	if reloaded.UsesCount != 1 {
		t.Errorf("UsesCount = %d, expected 1", reloaded.UsesCount)
	}

	// Joining again conflicts
	if _, err := svc.Join(link.Token, joiner.ID); !errors.Is(err, ErrAlreadyMember) {
		t.Errorf("second join: expected ErrAlreadyMember, got %v", err)
	}
}

func TestInviteLinkJoin_Exhaustion(t *testing.T) {
	db := newTestDB(t)
	svc := newTestInviteLinkService(db)

	owner := createTestUser(t, db, "owner")
	project := createTestProject(t, db, owner.ID)

	maxUses := 1
	link, err := svc.Create(owner.ID, project.ID, &CreateInviteLinkRequest{
		RoleID:  testRoleID(t, db, rbac.RoleMember),
		MaxUses: &maxUses,
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	first := createTestUser(t, db, "first")
	second := createTestUser(t, db, "second")

	if _, err := svc.Join(link.Token, first.ID); err != nil {
		t.Fatalf("first join failed: %v", err)
	}
	if _, err := svc.Join(link.Token, second.ID); !errors.Is(err, ErrLinkExhausted) {
		t.Errorf("join past max uses: expected ErrLinkExhausted, got %v", err)
	}

	// The failed join must not create a membership
	var count int64
	db.Model(&models.ProjectMember{}).
		Where("project_id = ? AND user_id = ?", project.ID, second.ID).
		Count(&count)
	if count != 0 {
		t.Errorf("exhausted join created a membership")
	}
}

func TestInviteLinkJoin_ExpiredAndUnknown(t *testing.T) {
	db := newTestDB(t)
	svc := newTestInviteLinkService(db)

	owner := createTestUser(t, db, "owner")
	project := createTestProject(t, db, owner.ID)

	link, err := svc.Create(owner.ID, project.ID, &CreateInviteLinkRequest{
		RoleID: testRoleID(t, db, rbac.RoleMember),
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	// Force the link into the past
	past := time.Now().Add(-time.Hour)
	db.Model(&models.InviteLink{}).Where("id = ?", link.ID).Update("expires_at", past)

	joiner := createTestUser(t, db, "late")
	if _, err := svc.Join(link.Token, joiner.ID); !errors.Is(err, ErrLinkExpired) {
		t.Errorf("expired link: expected ErrLinkExpired, got %v", err)
	}

	if _, err := svc.Join("nosuchtoken", joiner.ID); !errors.Is(err, ErrLinkNotFound) {
		t.Errorf("unknown token: expected ErrLinkNotFound, got %v", err)
	}
}
