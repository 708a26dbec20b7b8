package services

import (
	"errors"
	"testing"

	"github.com/taskloom/taskloom/backend/internal/models"
)

func TestDependencyAdd_Basics(t *testing.T) {
	db := newTestDB(t)
	svc := NewDependencyService(db, NewActivityService(db))

	owner := createTestUser(t, db, "owner")
	project := createTestProject(t, db, owner.ID)
	a := createTestTask(t, db, project.ID, owner.ID, "A")
	b := createTestTask(t, db, project.ID, owner.ID, "B")

	edge, err := svc.Add(owner.ID, a.ID, &AddDependencyRequest{DependsOnTaskID: b.ID})
	if err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if edge.DependencyType != models.DependencyTypeBlocks {
		t.Errorf("default type = %q, expected blocks", edge.DependencyType)
	}

	// Duplicate edge
	if _, err := svc.Add(owner.ID, a.ID, &AddDependencyRequest{DependsOnTaskID: b.ID}); !errors.Is(err, ErrDuplicateDependency) {
		t.Errorf("duplicate: expected ErrDuplicateDependency, got %v", err)
	}

	// Self-dependency
	if _, err := svc.Add(owner.ID, a.ID, &AddDependencyRequest{DependsOnTaskID: a.ID}); !errors.Is(err, ErrSelfDependency) {
		t.Errorf("self edge: expected ErrSelfDependency, got %v", err)
	}

	// Unknown dependency type
	if _, err := svc.Add(owner.ID, b.ID, &AddDependencyRequest{DependsOnTaskID: a.ID, DependencyType: "requires"}); !errors.Is(err, ErrInvalidDependencyType) {
		t.Errorf("bad type: expected ErrInvalidDependencyType, got %v", err)
	}

	// Missing task
	if _, err := svc.Add(owner.ID, a.ID, &AddDependencyRequest{DependsOnTaskID: 9999}); !errors.Is(err, ErrTaskNotFound) {
		t.Errorf("missing task: expected ErrTaskNotFound, got %v", err)
	}
}

func TestDependencyAdd_CrossProject(t *testing.T) {
	db := newTestDB(t)
	svc := NewDependencyService(db, NewActivityService(db))

	owner := createTestUser(t, db, "owner")
	p1 := createTestProject(t, db, owner.ID)
	p2 := createTestProject(t, db, owner.ID)
	a := createTestTask(t, db, p1.ID, owner.ID, "A")
	b := createTestTask(t, db, p2.ID, owner.ID, "B")

	if _, err := svc.Add(owner.ID, a.ID, &AddDependencyRequest{DependsOnTaskID: b.ID}); !errors.Is(err, ErrCrossProjectDependency) {
		t.Errorf("expected ErrCrossProjectDependency, got %v", err)
	}
}

func TestDependencyAdd_CyclePrevention(t *testing.T) {
	db := newTestDB(t)
	svc := NewDependencyService(db, NewActivityService(db))

	owner := createTestUser(t, db, "owner")
	project := createTestProject(t, db, owner.ID)
	a := createTestTask(t, db, project.ID, owner.ID, "A")
	b := createTestTask(t, db, project.ID, owner.ID, "B")
	c := createTestTask(t, db, project.ID, owner.ID, "C")

	// A depends on B, B depends on C
	if _, err := svc.Add(owner.ID, a.ID, &AddDependencyRequest{DependsOnTaskID: b.ID}); err != nil {
		t.Fatalf("A->B failed: %v", err)
	}
	if _, err := svc.Add(owner.ID, b.ID, &AddDependencyRequest{DependsOnTaskID: c.ID}); err != nil {
		t.Fatalf("B->C failed: %v", err)
	}

	// Direct cycle B->A
	if _, err := svc.Add(owner.ID, b.ID, &AddDependencyRequest{DependsOnTaskID: a.ID}); !errors.Is(err, ErrCyclicDependency) {
		t.Errorf("B->A: expected ErrCyclicDependency, got %v", err)
	}

	// Transitive cycle C->A
	if _, err := svc.Add(owner.ID, c.ID, &AddDependencyRequest{DependsOnTaskID: a.ID}); !errors.Is(err, ErrCyclicDependency) {
		t.Errorf("C->A: expected ErrCyclicDependency, got %v", err)
	}

	// Related edges participate in cycle detection too
	d := createTestTask(t, db, project.ID, owner.ID, "D")
	if _, err := svc.Add(owner.ID, c.ID, &AddDependencyRequest{DependsOnTaskID: d.ID, DependencyType: models.DependencyTypeRelated}); err != nil {
		t.Fatalf("C->D related failed: %v", err)
	}
	if _, err := svc.Add(owner.ID, d.ID, &AddDependencyRequest{DependsOnTaskID: a.ID}); !errors.Is(err, ErrCyclicDependency) {
		t.Errorf("D->A through related edge: expected ErrCyclicDependency, got %v", err)
	}
}

func TestDependencyRemove_Idempotent(t *testing.T) {
	db := newTestDB(t)
	svc := NewDependencyService(db, NewActivityService(db))

	owner := createTestUser(t, db, "owner")
	project := createTestProject(t, db, owner.ID)
	a := createTestTask(t, db, project.ID, owner.ID, "A")
	b := createTestTask(t, db, project.ID, owner.ID, "B")

	if _, err := svc.Add(owner.ID, a.ID, &AddDependencyRequest{DependsOnTaskID: b.ID}); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	if err := svc.Remove(owner.ID, a.ID, b.ID); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	// Removing again succeeds silently
	if err := svc.Remove(owner.ID, a.ID, b.ID); err != nil {
		t.Errorf("second Remove should be a no-op, got %v", err)
	}
	// But the dependent task must exist
	if err := svc.Remove(owner.ID, 9999, b.ID); !errors.Is(err, ErrTaskNotFound) {
		t.Errorf("missing dependent: expected ErrTaskNotFound, got %v", err)
	}

	// After removal a cycle-closing edge in the other direction is legal
	if _, err := svc.Add(owner.ID, b.ID, &AddDependencyRequest{DependsOnTaskID: a.ID}); err != nil {
		t.Errorf("B->A after removal should succeed, got %v", err)
	}
}

func TestIsTaskBlocked(t *testing.T) {
	db := newTestDB(t)
	svc := NewDependencyService(db, NewActivityService(db))

	owner := createTestUser(t, db, "owner")
	project := createTestProject(t, db, owner.ID)
	a := createTestTask(t, db, project.ID, owner.ID, "A")
	b := createTestTask(t, db, project.ID, owner.ID, "B")
	c := createTestTask(t, db, project.ID, owner.ID, "C")

	if _, err := svc.Add(owner.ID, a.ID, &AddDependencyRequest{DependsOnTaskID: b.ID}); err != nil {
		t.Fatalf("A->B failed: %v", err)
	}
	// Related edges never block
	if _, err := svc.Add(owner.ID, a.ID, &AddDependencyRequest{DependsOnTaskID: c.ID, DependencyType: models.DependencyTypeRelated}); err != nil {
		t.Fatalf("A->C related failed: %v", err)
	}

	blocked, err := svc.IsTaskBlocked(a.ID)
	if err != nil {
		t.Fatalf("IsTaskBlocked failed: %v", err)
	}
	if !blocked {
		t.Error("A should be blocked while B is not done")
	}

	blocking, err := svc.GetBlockingTasks(a.ID)
	if err != nil {
		t.Fatalf("GetBlockingTasks failed: %v", err)
	}
	if len(blocking) != 1 || blocking[0].ID != b.ID {
		t.Errorf("blocking tasks = %v, expected just B", blocking)
	}

	// Completing B unblocks A; the related edge to C does not matter
	db.Model(&models.Task{}).Where("id = ?", b.ID).Update("status", models.TaskStatusDone)

	blocked, err = svc.IsTaskBlocked(a.ID)
	if err != nil {
		t.Fatalf("IsTaskBlocked after done failed: %v", err)
	}
	if blocked {
		t.Error("A should be unblocked once B is done")
	}
}

func TestProjectDependencies_And_DependentsOf(t *testing.T) {
	db := newTestDB(t)
	svc := NewDependencyService(db, NewActivityService(db))

	owner := createTestUser(t, db, "owner")
	project := createTestProject(t, db, owner.ID)
	a := createTestTask(t, db, project.ID, owner.ID, "A")
	b := createTestTask(t, db, project.ID, owner.ID, "B")
	c := createTestTask(t, db, project.ID, owner.ID, "C")

	if _, err := svc.Add(owner.ID, a.ID, &AddDependencyRequest{DependsOnTaskID: c.ID}); err != nil {
		t.Fatalf("A->C failed: %v", err)
	}
	if _, err := svc.Add(owner.ID, b.ID, &AddDependencyRequest{DependsOnTaskID: c.ID}); err != nil {
		t.Fatalf("B->C failed: %v", err)
	}

	edges, err := svc.ProjectDependencies(project.ID)
	if err != nil {
		t.Fatalf("ProjectDependencies failed: %v", err)
	}
	if len(edges) != 2 {
		t.Errorf("expected 2 edges, got %d", len(edges))
	}

	dependents, err := svc.DependentsOf(c.ID)
	if err != nil {
		t.Fatalf("DependentsOf failed: %v", err)
	}
	if len(dependents) != 2 {
		t.Errorf("expected 2 dependents of C, got %d", len(dependents))
	}
}
