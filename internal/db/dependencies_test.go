package db

import (
	"testing"
)

func TestDependencyEdgesExcludeDeletedTasks(t *testing.T) {
	db := openTestDB(t)

	a := mustInsert(t, db, "a", 0, false)
	b := mustInsert(t, db, "b", 0, false)
	c := mustInsert(t, db, "c", 0, false)

	if err := db.AddDependency(a.ID, b.ID); err != nil {
		t.Fatal(err)
	}
	if err := db.AddDependency(b.ID, c.ID); err != nil {
		t.Fatal(err)
	}

	edges, err := db.DependencyEdges()
	if err != nil {
		t.Fatalf("DependencyEdges: %v", err)
	}
	if len(edges) != 2 {
		t.Fatalf("edges = %d, want 2", len(edges))
	}

	// Soft-deleting b removes both of its edges from the reachability
	// graph, so stale edges to trashed tasks never block new valid ones
	if err := db.DeleteTask(b.ID); err != nil {
		t.Fatal(err)
	}
	edges, err = db.DependencyEdges()
	if err != nil {
		t.Fatal(err)
	}
	if len(edges) != 0 {
		t.Errorf("edges after delete = %v, want none", edges)
	}

	// The rows themselves survive until purge
	if err := db.RestoreTask(b.ID); err != nil {
		t.Fatal(err)
	}
	edges, _ = db.DependencyEdges()
	if len(edges) != 2 {
		t.Errorf("edges after restore = %d, want 2", len(edges))
	}
}

func TestAddDependencyIgnoresDuplicates(t *testing.T) {
	db := openTestDB(t)

	a := mustInsert(t, db, "a", 0, false)
	b := mustInsert(t, db, "b", 0, false)

	if err := db.AddDependency(a.ID, b.ID); err != nil {
		t.Fatal(err)
	}
	if err := db.AddDependency(a.ID, b.ID); err != nil {
		t.Fatalf("duplicate insert should be ignored, got %v", err)
	}

	edges, err := db.DependencyEdges()
	if err != nil {
		t.Fatal(err)
	}
	if len(edges) != 1 {
		t.Errorf("edges = %d, want 1", len(edges))
	}
}

func TestIsTaskBlocked(t *testing.T) {
	db := openTestDB(t)

	a := mustInsert(t, db, "a", 0, false)
	b := mustInsert(t, db, "b", 0, false)

	if err := db.AddDependency(a.ID, b.ID); err != nil {
		t.Fatal(err)
	}

	blocked, err := db.IsTaskBlocked(a.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !blocked {
		t.Error("a should be blocked on incomplete b")
	}

	if err := db.SetTaskCompleted(b.ID, true); err != nil {
		t.Fatal(err)
	}
	blocked, _ = db.IsTaskBlocked(a.ID)
	if blocked {
		t.Error("a should be unblocked once b completes")
	}
}
