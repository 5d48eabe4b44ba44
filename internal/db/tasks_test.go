package db

import (
	"math"
	"testing"
	"time"

	"github.com/dori/tasknest/internal/model"
)

func backdateDeletion(t *testing.T, db *DB, id int64, days int) {
	t.Helper()
	_, err := db.Exec(`UPDATE tasks SET deleted_at = ? WHERE id = ?`, time.Now().AddDate(0, 0, -days), id)
	if err != nil {
		t.Fatalf("backdate deletion: %v", err)
	}
}

func TestProgressLeafAndRollup(t *testing.T) {
	db := openTestDB(t)

	// Scenario: root with one incomplete and one complete child
	root := mustInsert(t, db, "Plan trip", 0, false)
	mustInsert(t, db, "Book flight", root.ID, false)
	mustInsert(t, db, "Pack bags", root.ID, true)

	p, err := db.CalculateProgress(root.ID)
	if err != nil {
		t.Fatalf("CalculateProgress: %v", err)
	}
	if p != 0.5 {
		t.Errorf("root progress = %v, want 0.5", p)
	}

	// The computed value is persisted write-through
	got, err := db.Task(root.ID)
	if err != nil {
		t.Fatalf("Task: %v", err)
	}
	if got.Progress != 0.5 {
		t.Errorf("stored progress = %v, want 0.5", got.Progress)
	}
}

func TestProgressEqualChildWeighting(t *testing.T) {
	db := openTestDB(t)

	// A child with a large subtree counts the same as a leaf sibling
	root := mustInsert(t, db, "root", 0, false)
	big := mustInsert(t, db, "big subtree", root.ID, false)
	for i := 0; i < 4; i++ {
		mustInsert(t, db, "sub", big.ID, true)
	}
	mustInsert(t, db, "leaf", root.ID, false)

	p, err := db.CalculateProgress(root.ID)
	if err != nil {
		t.Fatalf("CalculateProgress: %v", err)
	}
	// big = 1.0 (all four done), leaf = 0.0, mean = 0.5
	if p != 0.5 {
		t.Errorf("root progress = %v, want 0.5", p)
	}
}

func TestParentProgressChain(t *testing.T) {
	db := openTestDB(t)

	// Three levels; toggling a grandchild must refresh the whole chain
	root := mustInsert(t, db, "root", 0, false)
	child := mustInsert(t, db, "child", root.ID, false)
	grandA := mustInsert(t, db, "grand a", child.ID, false)
	mustInsert(t, db, "grand b", child.ID, false)

	if err := db.SetTaskCompleted(grandA.ID, true); err != nil {
		t.Fatalf("SetTaskCompleted: %v", err)
	}
	if err := db.CalculateParentProgress(grandA.ID); err != nil {
		t.Fatalf("CalculateParentProgress: %v", err)
	}

	gotChild, _ := db.Task(child.ID)
	if gotChild.Progress != 0.5 {
		t.Errorf("child progress = %v, want 0.5", gotChild.Progress)
	}
	gotRoot, _ := db.Task(root.ID)
	if math.Abs(gotRoot.Progress-0.5) > 1e-9 {
		t.Errorf("root progress = %v, want 0.5", gotRoot.Progress)
	}
}

func TestDeleteCascade(t *testing.T) {
	db := openTestDB(t)
	if err := db.SetSettingInt(SettingDeleteParentAction, ParentActionCascade); err != nil {
		t.Fatal(err)
	}

	root := mustInsert(t, db, "root", 0, false)
	child := mustInsert(t, db, "child", root.ID, false)
	grand := mustInsert(t, db, "grand", child.ID, false)

	if err := db.DeleteTask(root.ID); err != nil {
		t.Fatalf("DeleteTask: %v", err)
	}

	for _, id := range []int64{root.ID, child.ID, grand.ID} {
		got, err := db.TaskAny(id)
		if err != nil {
			t.Fatalf("TaskAny(%d): %v", id, err)
		}
		if got == nil || !got.IsDeleted {
			t.Errorf("task %d not soft-deleted", id)
		}
		if got != nil && got.DeletedAt == nil {
			t.Errorf("task %d missing deleted_at", id)
		}
	}
}

func TestDeletePromote(t *testing.T) {
	db := openTestDB(t)
	if err := db.SetSettingInt(SettingDeleteParentAction, ParentActionPromote); err != nil {
		t.Fatal(err)
	}

	grandparent := mustInsert(t, db, "grandparent", 0, false)
	parent := mustInsert(t, db, "parent", grandparent.ID, false)
	childA := mustInsert(t, db, "child a", parent.ID, false)
	childB := mustInsert(t, db, "child b", parent.ID, false)

	if err := db.DeleteTask(parent.ID); err != nil {
		t.Fatalf("DeleteTask: %v", err)
	}

	// Children become siblings of the deleted task
	for _, id := range []int64{childA.ID, childB.ID} {
		got, _ := db.Task(id)
		if got == nil {
			t.Fatalf("child %d disappeared", id)
		}
		if got.IsDeleted {
			t.Errorf("child %d should stay active", id)
		}
		if got.ParentID != grandparent.ID {
			t.Errorf("child %d parent = %d, want %d", id, got.ParentID, grandparent.ID)
		}
	}
}

func TestDeleteOrphanToRoot(t *testing.T) {
	db := openTestDB(t)
	if err := db.SetSettingInt(SettingDeleteParentAction, 99); err != nil {
		t.Fatal(err)
	}

	parent := mustInsert(t, db, "parent", 0, false)
	child := mustInsert(t, db, "child", parent.ID, false)

	if err := db.DeleteTask(parent.ID); err != nil {
		t.Fatalf("DeleteTask: %v", err)
	}

	got, _ := db.Task(child.ID)
	if got == nil || got.ParentID != 0 {
		t.Fatalf("child not orphaned to root: %+v", got)
	}
}

func TestRestoreAfterPromote(t *testing.T) {
	db := openTestDB(t)
	if err := db.SetSettingInt(SettingDeleteParentAction, ParentActionPromote); err != nil {
		t.Fatal(err)
	}

	parent := mustInsert(t, db, "parent", 0, false)
	child := mustInsert(t, db, "child", parent.ID, true)

	if err := db.DeleteTask(parent.ID); err != nil {
		t.Fatalf("DeleteTask: %v", err)
	}
	if err := db.RestoreTask(parent.ID); err != nil {
		t.Fatalf("RestoreTask: %v", err)
	}

	got, err := db.Task(parent.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got == nil || got.IsDeleted {
		t.Fatal("restored task still deleted")
	}
	if got.DeletedAt != nil {
		t.Error("restored task kept its deleted_at stamp")
	}

	// Promotion is permanent: restore does not pull the child back
	gotChild, _ := db.Task(child.ID)
	if gotChild.ParentID != 0 {
		t.Errorf("child parent = %d, promotion should be permanent", gotChild.ParentID)
	}
	if got.HasChildren {
		t.Error("restored task should have no children after promotion")
	}
}

func TestRestoreCascadedSubtree(t *testing.T) {
	db := openTestDB(t)
	if err := db.SetSettingInt(SettingDeleteParentAction, ParentActionCascade); err != nil {
		t.Fatal(err)
	}

	root := mustInsert(t, db, "root", 0, false)
	child := mustInsert(t, db, "child", root.ID, false)
	grand := mustInsert(t, db, "grand", child.ID, false)

	if err := db.DeleteTask(root.ID); err != nil {
		t.Fatalf("DeleteTask: %v", err)
	}
	if err := db.RestoreTask(root.ID); err != nil {
		t.Fatalf("RestoreTask: %v", err)
	}

	for _, id := range []int64{root.ID, child.ID, grand.ID} {
		got, _ := db.Task(id)
		if got == nil || got.IsDeleted {
			t.Errorf("task %d not restored", id)
		}
	}

	// The tree shape survived the round trip
	gotChild, _ := db.Task(child.ID)
	if gotChild.ParentID != root.ID {
		t.Errorf("child parent = %d, want %d", gotChild.ParentID, root.ID)
	}
}

func TestRestoreReparentsToRootWhenParentDead(t *testing.T) {
	db := openTestDB(t)
	if err := db.SetSettingInt(SettingDeleteParentAction, ParentActionCascade); err != nil {
		t.Fatal(err)
	}

	parent := mustInsert(t, db, "parent", 0, false)
	child := mustInsert(t, db, "child", parent.ID, false)

	if err := db.DeleteTask(parent.ID); err != nil {
		t.Fatal(err)
	}

	// Restore only the child; its parent is still in the bin
	if err := db.RestoreTask(child.ID); err != nil {
		t.Fatalf("RestoreTask: %v", err)
	}

	got, _ := db.Task(child.ID)
	if got == nil {
		t.Fatal("child not restored")
	}
	if got.ParentID != 0 {
		t.Errorf("child parent = %d, want root: must not resurrect into a deleted subtree", got.ParentID)
	}
}

func TestUpdateNeverTouchesDeletionState(t *testing.T) {
	db := openTestDB(t)

	task := mustInsert(t, db, "task", 0, false)
	if err := db.DeleteTask(task.ID); err != nil {
		t.Fatal(err)
	}

	task.Title = "renamed"
	if err := db.UpdateTask(task); err != nil {
		t.Fatalf("UpdateTask: %v", err)
	}

	got, _ := db.TaskAny(task.ID)
	if !got.IsDeleted || got.DeletedAt == nil {
		t.Error("update resurrected a deleted task")
	}
	if got.Title != "renamed" {
		t.Errorf("title = %q, want renamed", got.Title)
	}
}

func TestCleanupDeletedTasks(t *testing.T) {
	db := openTestDB(t)
	if err := db.SetSettingInt(SettingDeleteParentAction, ParentActionCascade); err != nil {
		t.Fatal(err)
	}

	root := mustInsert(t, db, "root", 0, false)
	child := mustInsert(t, db, "child", root.ID, false)
	grand := mustInsert(t, db, "grand", child.ID, false)
	keeper := mustInsert(t, db, "fresh delete", 0, false)

	if err := db.DeleteTask(root.ID); err != nil {
		t.Fatal(err)
	}
	if err := db.DeleteTask(keeper.ID); err != nil {
		t.Fatal(err)
	}
	for _, id := range []int64{root.ID, child.ID, grand.ID} {
		backdateDeletion(t, db, id, 20)
	}

	count, err := db.CleanupDeletedTasks(14)
	if err != nil {
		t.Fatalf("CleanupDeletedTasks: %v", err)
	}
	if count != 3 {
		t.Errorf("count = %d, want 3", count)
	}

	for _, id := range []int64{root.ID, child.ID, grand.ID} {
		got, _ := db.TaskAny(id)
		if got != nil {
			t.Errorf("task %d should be gone", id)
		}
	}
	if got, _ := db.TaskAny(keeper.ID); got == nil {
		t.Error("recently deleted task swept too early")
	}

	// days <= 0 is a no-op
	if count, err := db.CleanupDeletedTasks(0); err != nil || count != 0 {
		t.Errorf("CleanupDeletedTasks(0) = %d, %v; want 0, nil", count, err)
	}
}

func TestPurgeCascadesAssociations(t *testing.T) {
	db := openTestDB(t)

	task := mustInsert(t, db, "doomed", 0, false)
	other := mustInsert(t, db, "other", 0, false)

	if _, err := db.AddStep(task.ID, "step"); err != nil {
		t.Fatal(err)
	}
	tag, err := db.CreateTag("work", "#ff0000")
	if err != nil {
		t.Fatal(err)
	}
	if err := db.AddTagToTask(task.ID, tag.ID); err != nil {
		t.Fatal(err)
	}
	if err := db.SetTaskFiles(task.ID, []string{"/tmp/a.txt", "/tmp/b.txt"}); err != nil {
		t.Fatal(err)
	}
	folder, err := db.CreateFolder("inbox", "")
	if err != nil {
		t.Fatal(err)
	}
	if err := db.AddTaskToFolder(task.ID, folder.ID); err != nil {
		t.Fatal(err)
	}
	// Dependencies in both directions
	if err := db.AddDependency(task.ID, other.ID); err != nil {
		t.Fatal(err)
	}
	if err := db.AddDependency(other.ID, task.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := db.AddNotification(model.Notification{
		Type: model.NotificationDeadline, Title: "due", TaskID: task.ID,
	}); err != nil {
		t.Fatal(err)
	}

	if err := db.PurgeTask(task.ID, -1); err != nil {
		t.Fatalf("PurgeTask: %v", err)
	}

	checks := map[string]string{
		"task_steps":    `SELECT COUNT(*) FROM task_steps WHERE task_id = ?`,
		"task_tags":     `SELECT COUNT(*) FROM task_tags WHERE task_id = ?`,
		"task_files":    `SELECT COUNT(*) FROM task_files WHERE task_id = ?`,
		"task_folders":  `SELECT COUNT(*) FROM task_folders WHERE task_id = ?`,
		"notifications": `SELECT COUNT(*) FROM notifications WHERE task_id = ?`,
	}
	for table, q := range checks {
		var count int
		if err := db.QueryRow(q, task.ID).Scan(&count); err != nil {
			t.Fatalf("count %s: %v", table, err)
		}
		if count != 0 {
			t.Errorf("%s still references purged task (%d rows)", table, count)
		}
	}

	var depCount int
	if err := db.QueryRow(`
		SELECT COUNT(*) FROM task_dependencies WHERE task_id = ? OR depends_on_id = ?
	`, task.ID, task.ID).Scan(&depCount); err != nil {
		t.Fatal(err)
	}
	if depCount != 0 {
		t.Errorf("task_dependencies still references purged task (%d rows)", depCount)
	}

	if got, _ := db.TaskAny(task.ID); got != nil {
		t.Error("task row survived purge")
	}
	if got, _ := db.TaskAny(other.ID); got == nil {
		t.Error("unrelated task was purged")
	}
}

func TestHierarchyOrdering(t *testing.T) {
	db := openTestDB(t)

	root := mustInsert(t, db, "root", 0, false)
	childA := mustInsert(t, db, "child a", root.ID, false)
	childB := mustInsert(t, db, "child b", root.ID, false)
	mustInsert(t, db, "grand a1", childA.ID, false)
	mustInsert(t, db, "grand b1", childB.ID, false)
	mustInsert(t, db, "unrelated root", 0, false)

	rows, err := db.TaskHierarchy(root.ID)
	if err != nil {
		t.Fatalf("TaskHierarchy: %v", err)
	}
	if len(rows) != 4 {
		t.Fatalf("got %d rows, want 4 descendants", len(rows))
	}

	// Levels never decrease (breadth-first by level)
	for i := 1; i < len(rows); i++ {
		if rows[i].Level < rows[i-1].Level {
			t.Errorf("row %d level %d after level %d", i, rows[i].Level, rows[i-1].Level)
		}
	}
	if rows[0].Level != 1 || rows[len(rows)-1].Level != 2 {
		t.Errorf("level bounds wrong: first %d last %d", rows[0].Level, rows[len(rows)-1].Level)
	}

	// The whole forest when rootID is 0
	forest, err := db.TaskHierarchy(0)
	if err != nil {
		t.Fatal(err)
	}
	if len(forest) != 6 {
		t.Errorf("forest rows = %d, want 6", len(forest))
	}
}

func TestListOrderingAndHasChildren(t *testing.T) {
	db := openTestDB(t)

	root := mustInsert(t, db, "first root", 0, false)
	time.Sleep(5 * time.Millisecond)
	mustInsert(t, db, "second root", 0, false)
	time.Sleep(5 * time.Millisecond)
	older := mustInsert(t, db, "older child", root.ID, false)
	time.Sleep(5 * time.Millisecond)
	mustInsert(t, db, "newer child", root.ID, false)

	// Root listing is newest-first
	tasks, err := db.Tasks()
	if err != nil {
		t.Fatal(err)
	}
	if tasks[0].Title != "newer child" {
		t.Errorf("Tasks()[0] = %q, want newest first", tasks[0].Title)
	}

	// Children are oldest-first
	children, err := db.TasksByParent(root.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(children) != 2 || children[0].ID != older.ID {
		t.Errorf("TasksByParent not oldest-first: %+v", children)
	}

	got, _ := db.Task(root.ID)
	if !got.HasChildren {
		t.Error("root should report hasChildren")
	}
	gotChild, _ := db.Task(older.ID)
	if gotChild.HasChildren {
		t.Error("leaf should not report hasChildren")
	}

	// A soft-deleted only child clears the flag
	if err := db.DeleteTask(older.ID); err != nil {
		t.Fatal(err)
	}
	if err := db.DeleteTask(children[1].ID); err != nil {
		t.Fatal(err)
	}
	got, _ = db.Task(root.ID)
	if got.HasChildren {
		t.Error("hasChildren should only count non-deleted children")
	}
}

func TestInsertDenormalizesFirstFile(t *testing.T) {
	db := openTestDB(t)

	task := &model.Task{
		Title:    "with files",
		Priority: model.PriorityHigh,
		Files:    []string{"/tmp/one.pdf", "/tmp/two.pdf"},
	}
	if err := db.InsertTask(task); err != nil {
		t.Fatalf("InsertTask: %v", err)
	}

	got, _ := db.Task(task.ID)
	if got.FilePath != "/tmp/one.pdf" {
		t.Errorf("file_path = %q, want first attachment", got.FilePath)
	}

	files, err := db.TaskFiles(task.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 2 || files[0] != "/tmp/one.pdf" || files[1] != "/tmp/two.pdf" {
		t.Errorf("files = %v", files)
	}
}
