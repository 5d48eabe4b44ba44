package db

import (
	"testing"
)

func TestTagAssociations(t *testing.T) {
	db := openTestDB(t)

	task := mustInsert(t, db, "task", 0, false)

	tag, err := db.GetOrCreateTag("home", "#00ff00")
	if err != nil {
		t.Fatalf("GetOrCreateTag: %v", err)
	}
	same, err := db.GetOrCreateTag("home", "")
	if err != nil {
		t.Fatal(err)
	}
	if same.ID != tag.ID {
		t.Errorf("GetOrCreateTag created a duplicate: %d vs %d", same.ID, tag.ID)
	}

	if err := db.AddTagToTask(task.ID, tag.ID); err != nil {
		t.Fatal(err)
	}
	// Duplicate association is ignored
	if err := db.AddTagToTask(task.ID, tag.ID); err != nil {
		t.Fatal(err)
	}

	tags, err := db.TaskTags(task.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(tags) != 1 || tags[0].Name != "home" || tags[0].Color != "#00ff00" {
		t.Errorf("TaskTags = %+v", tags)
	}

	// Deleting the tag removes the join rows with it
	if err := db.DeleteTag(tag.ID); err != nil {
		t.Fatal(err)
	}
	tags, _ = db.TaskTags(task.ID)
	if len(tags) != 0 {
		t.Errorf("join rows survived tag delete: %+v", tags)
	}
}

func TestSetTaskTagsReplaces(t *testing.T) {
	db := openTestDB(t)

	task := mustInsert(t, db, "task", 0, false)
	red, _ := db.CreateTag("red", "")
	blue, _ := db.CreateTag("blue", "")
	green, _ := db.CreateTag("green", "")

	if err := db.SetTaskTags(task.ID, []int64{red.ID, blue.ID}); err != nil {
		t.Fatal(err)
	}
	if err := db.SetTaskTags(task.ID, []int64{green.ID}); err != nil {
		t.Fatal(err)
	}

	tags, err := db.TaskTags(task.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(tags) != 1 || tags[0].ID != green.ID {
		t.Errorf("TaskTags after replace = %+v", tags)
	}
}

func TestFolderOrderingAndCounts(t *testing.T) {
	db := openTestDB(t)

	first, err := db.CreateFolder("errands", "")
	if err != nil {
		t.Fatal(err)
	}
	second, err := db.CreateFolder("projects", "")
	if err != nil {
		t.Fatal(err)
	}
	if second.Position <= first.Position {
		t.Errorf("positions not appended: %d then %d", first.Position, second.Position)
	}

	task := mustInsert(t, db, "task", 0, false)
	trashed := mustInsert(t, db, "trashed", 0, false)
	if err := db.AddTaskToFolder(task.ID, first.ID); err != nil {
		t.Fatal(err)
	}
	if err := db.AddTaskToFolder(trashed.ID, first.ID); err != nil {
		t.Fatal(err)
	}
	if err := db.DeleteTask(trashed.ID); err != nil {
		t.Fatal(err)
	}

	folders, err := db.Folders()
	if err != nil {
		t.Fatal(err)
	}
	if len(folders) != 2 || folders[0].ID != first.ID {
		t.Fatalf("Folders = %+v", folders)
	}
	// Deleted tasks do not count
	if folders[0].TaskCount != 1 {
		t.Errorf("TaskCount = %d, want 1", folders[0].TaskCount)
	}

	tasks, err := db.FolderTasks(first.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(tasks) != 1 || tasks[0].ID != task.ID {
		t.Errorf("FolderTasks = %+v", tasks)
	}

	// Manual reordering
	if err := db.MoveFolder(second.ID, -1); err != nil {
		t.Fatal(err)
	}
	folders, _ = db.Folders()
	if folders[0].ID != second.ID {
		t.Errorf("MoveFolder did not reorder: %+v", folders)
	}
}
