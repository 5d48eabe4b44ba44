package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/dori/tasknest/internal/app"
	"github.com/dori/tasknest/internal/db"
	"github.com/dori/tasknest/internal/model"
)

var version = "0.1.0"

func main() {
	fs := flag.NewFlagSet("tasknest", flag.ExitOnError)
	dataDir := fs.String("data-dir", db.DefaultDataDir(), "Data directory")
	debug := fs.Bool("debug", false, "Enable debug logging")
	fs.Usage = printHelp

	if err := fs.Parse(os.Args[1:]); err != nil {
		os.Exit(2)
	}

	args := fs.Args()
	if len(args) == 0 {
		printHelp()
		return
	}
	cmd, args := args[0], args[1:]

	switch cmd {
	case "version":
		fmt.Printf("tasknest v%s\n", version)
		return
	case "help":
		printHelp()
		return
	}

	cfg := &app.Config{
		DataDir:  *dataDir,
		DBPath:   filepath.Join(*dataDir, "tasknest.db"),
		LogLevel: log.InfoLevel,
	}
	if *debug {
		cfg.LogLevel = log.DebugLevel
	}

	a, err := app.New(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	defer a.Close()

	if err := dispatch(a, cmd, args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func dispatch(a *app.App, cmd string, args []string) error {
	switch cmd {
	case "add":
		return cmdAdd(a, args)
	case "list":
		return cmdList(a)
	case "tree":
		return cmdTree(a, args)
	case "show":
		return cmdShow(a, args)
	case "done":
		return cmdDone(a, args)
	case "delete":
		return cmdDelete(a, args)
	case "restore":
		return cmdRestore(a, args)
	case "purge":
		return cmdPurge(a, args)
	case "bin":
		return cmdBin(a)
	case "cleanup":
		return cmdCleanup(a, args)
	case "search":
		return cmdSearch(a, args)
	case "tag":
		return cmdTag(a, args)
	case "dep":
		return cmdDep(a, args)
	case "folder":
		return cmdFolder(a, args)
	case "notifications":
		return cmdNotifications(a)
	case "backup":
		return cmdBackup(a, args)
	case "set":
		return cmdSet(a, args)
	default:
		printHelp()
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func cmdAdd(a *app.App, args []string) error {
	fs := flag.NewFlagSet("add", flag.ExitOnError)
	parent := fs.Int64("parent", 0, "Parent task ID (0 = root)")
	priority := fs.String("priority", "medium", "Priority (low, medium, high)")
	due := fs.String("due", "", "Due date (YYYY-MM-DD)")
	desc := fs.String("desc", "", "Description")
	fs.Parse(args)

	if fs.NArg() == 0 {
		return fmt.Errorf("usage: tasknest add [flags] <title>")
	}

	t := &model.Task{
		Title:       strings.Join(fs.Args(), " "),
		Description: *desc,
		Priority:    model.ParsePriority(*priority),
		ParentID:    *parent,
	}
	if *due != "" {
		d, err := time.ParseInLocation("2006-01-02", *due, time.Local)
		if err != nil {
			return fmt.Errorf("invalid due date %q: %w", *due, err)
		}
		t.DueDate = &d
	}

	if err := a.Service.AddTask(t); err != nil {
		return err
	}
	fmt.Printf("Added task #%d: %s\n", t.ID, t.Title)
	return nil
}

func cmdList(a *app.App) error {
	tasks, err := a.DB.Tasks()
	if err != nil {
		return err
	}
	printTasks(tasks, 0)
	return nil
}

func cmdTree(a *app.App, args []string) error {
	rootID := int64(0)
	if len(args) > 0 {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		rootID = id
	}

	tasks, err := a.DB.TaskHierarchy(rootID)
	if err != nil {
		return err
	}
	for _, t := range tasks {
		printTasks([]model.Task{t}, t.Level-1)
	}
	return nil
}

func cmdShow(a *app.App, args []string) error {
	id, err := argID(args, "show")
	if err != nil {
		return err
	}

	t, err := a.DB.TaskAny(id)
	if err != nil {
		return err
	}
	if t == nil {
		return fmt.Errorf("task #%d not found", id)
	}

	fmt.Printf("#%d %s\n", t.ID, t.Title)
	if t.Description != "" {
		fmt.Printf("  %s\n", t.Description)
	}
	fmt.Printf("  priority: %s  progress: %.0f%%  completed: %v\n", t.Priority, t.Progress*100, t.Completed)
	if t.DueDate != nil {
		fmt.Printf("  due: %s\n", t.DueDate.Format("2006-01-02"))
	}
	if t.IsDeleted {
		fmt.Printf("  deleted: %s\n", t.DeletedAt.Format("2006-01-02"))
	}

	tags, err := a.DB.TaskTags(id)
	if err != nil {
		return err
	}
	if len(tags) > 0 {
		names := make([]string, len(tags))
		for i, tag := range tags {
			names[i] = tag.Name
		}
		fmt.Printf("  tags: %s\n", strings.Join(names, ", "))
	}

	deps, err := a.DB.TaskDependencies(id)
	if err != nil {
		return err
	}
	for _, d := range deps {
		fmt.Printf("  depends on: #%d %s\n", d.ID, d.Title)
	}

	cycle, err := a.Service.Validator().CircularDependencies(id)
	if err != nil {
		return err
	}
	if len(cycle) > 0 {
		fmt.Printf("  WARNING: circular dependencies through: %v\n", cycle)
	}
	return nil
}

func cmdDone(a *app.App, args []string) error {
	id, err := argID(args, "done")
	if err != nil {
		return err
	}
	if err := a.Service.ToggleCompleted(id); err != nil {
		return err
	}
	t, err := a.DB.Task(id)
	if err != nil || t == nil {
		return err
	}
	fmt.Printf("Task #%d completed=%v\n", t.ID, t.Completed)
	return nil
}

func cmdDelete(a *app.App, args []string) error {
	id, err := argID(args, "delete")
	if err != nil {
		return err
	}
	if err := a.Service.DeleteTask(id); err != nil {
		return err
	}
	fmt.Printf("Moved task #%d to recycle bin\n", id)
	return nil
}

func cmdRestore(a *app.App, args []string) error {
	id, err := argID(args, "restore")
	if err != nil {
		return err
	}
	if err := a.Service.RestoreTask(id); err != nil {
		return err
	}
	fmt.Printf("Restored task #%d\n", id)
	return nil
}

func cmdPurge(a *app.App, args []string) error {
	id, err := argID(args, "purge")
	if err != nil {
		return err
	}
	if err := a.Service.PurgeTask(id); err != nil {
		return err
	}
	fmt.Printf("Permanently deleted task #%d\n", id)
	return nil
}

func cmdBin(a *app.App) error {
	tasks, err := a.DB.DeletedTasks()
	if err != nil {
		return err
	}
	for _, t := range tasks {
		fmt.Printf("#%d %s (deleted %s)\n", t.ID, t.Title, t.DeletedAt.Format("2006-01-02"))
	}
	return nil
}

func cmdCleanup(a *app.App, args []string) error {
	days := a.DB.SettingInt(db.SettingDeleteRetentionDays, 30)
	if len(args) > 0 {
		n, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid day count %q", args[0])
		}
		days = n
	}
	count, err := a.Service.Cleanup(days)
	if err != nil {
		return err
	}
	fmt.Printf("Purged %d task(s) deleted more than %d days ago\n", count, days)
	return nil
}

func cmdSearch(a *app.App, args []string) error {
	fs := flag.NewFlagSet("search", flag.ExitOnError)
	priority := fs.String("priority", "", "Filter by priority")
	completed := fs.String("completed", "", "Filter by completion (true/false)")
	due := fs.String("due", "", "Date bucket (overdue, today, week)")
	tags := fs.String("tags", "", "Comma-separated tag names (all required)")
	sortBy := fs.String("sort", "created", "Sort order (created, due, priority, title)")
	fs.Parse(args)

	f := db.Filter{Text: strings.Join(fs.Args(), " ")}
	if *priority != "" {
		f.Priority = model.ParsePriority(*priority)
	}
	if *completed != "" {
		v := *completed == "true"
		f.Completed = &v
	}
	switch *due {
	case "overdue":
		f.Due = db.DateOverdue
	case "today":
		f.Due = db.DateToday
	case "week":
		f.Due = db.DateThisWeek
	}
	switch *sortBy {
	case "due":
		f.Sort = db.SortDue
	case "priority":
		f.Sort = db.SortPriority
	case "title":
		f.Sort = db.SortTitle
	}
	if *tags != "" {
		for _, name := range strings.Split(*tags, ",") {
			tag, err := a.DB.TagByName(strings.TrimSpace(name))
			if err != nil {
				return err
			}
			if tag == nil {
				return fmt.Errorf("unknown tag %q", name)
			}
			f.TagIDs = append(f.TagIDs, tag.ID)
		}
	}

	tasks, err := a.DB.SearchTasks(f)
	if err != nil {
		return err
	}
	printTasks(tasks, 0)
	return nil
}

func cmdTag(a *app.App, args []string) error {
	if len(args) == 0 {
		tags, err := a.DB.Tags()
		if err != nil {
			return err
		}
		for _, t := range tags {
			fmt.Printf("#%d %s\n", t.ID, t.Name)
		}
		return nil
	}

	switch args[0] {
	case "add":
		if len(args) < 3 {
			return fmt.Errorf("usage: tasknest tag add <task-id> <tag-name>")
		}
		id, err := parseID(args[1])
		if err != nil {
			return err
		}
		tag, err := a.DB.GetOrCreateTag(args[2], "")
		if err != nil {
			return err
		}
		return a.DB.AddTagToTask(id, tag.ID)
	case "rm":
		if len(args) < 3 {
			return fmt.Errorf("usage: tasknest tag rm <task-id> <tag-name>")
		}
		id, err := parseID(args[1])
		if err != nil {
			return err
		}
		tag, err := a.DB.TagByName(args[2])
		if err != nil {
			return err
		}
		if tag == nil {
			return fmt.Errorf("unknown tag %q", args[2])
		}
		return a.DB.RemoveTagFromTask(id, tag.ID)
	default:
		return fmt.Errorf("unknown tag subcommand %q", args[0])
	}
}

func cmdDep(a *app.App, args []string) error {
	if len(args) < 3 {
		return fmt.Errorf("usage: tasknest dep <add|rm> <task-id> <depends-on-id>")
	}
	taskID, err := parseID(args[1])
	if err != nil {
		return err
	}
	dependsOnID, err := parseID(args[2])
	if err != nil {
		return err
	}

	switch args[0] {
	case "add":
		return a.Service.AddDependency(taskID, dependsOnID)
	case "rm":
		return a.Service.RemoveDependency(taskID, dependsOnID)
	default:
		return fmt.Errorf("unknown dep subcommand %q", args[0])
	}
}

func cmdFolder(a *app.App, args []string) error {
	if len(args) == 0 {
		folders, err := a.DB.Folders()
		if err != nil {
			return err
		}
		for _, f := range folders {
			fmt.Printf("#%d %s (%d tasks)\n", f.ID, f.Name, f.TaskCount)
		}
		return nil
	}

	switch args[0] {
	case "create":
		if len(args) < 2 {
			return fmt.Errorf("usage: tasknest folder create <name>")
		}
		f, err := a.DB.CreateFolder(args[1], "")
		if err != nil {
			return err
		}
		fmt.Printf("Created folder #%d %s\n", f.ID, f.Name)
		return nil
	case "add":
		if len(args) < 3 {
			return fmt.Errorf("usage: tasknest folder add <task-id> <folder-id>")
		}
		taskID, err := parseID(args[1])
		if err != nil {
			return err
		}
		folderID, err := parseID(args[2])
		if err != nil {
			return err
		}
		return a.DB.AddTaskToFolder(taskID, folderID)
	case "rm":
		if len(args) < 3 {
			return fmt.Errorf("usage: tasknest folder rm <task-id> <folder-id>")
		}
		taskID, err := parseID(args[1])
		if err != nil {
			return err
		}
		folderID, err := parseID(args[2])
		if err != nil {
			return err
		}
		return a.DB.RemoveTaskFromFolder(taskID, folderID)
	default:
		return fmt.Errorf("unknown folder subcommand %q", args[0])
	}
}

func cmdNotifications(a *app.App) error {
	items, err := a.DB.Notifications(false)
	if err != nil {
		return err
	}
	for _, n := range items {
		marker := " "
		if !n.Read {
			marker = "*"
		}
		fmt.Printf("%s [%s] %s\n", marker, n.Type, n.Title)
	}
	return nil
}

func cmdBackup(a *app.App, args []string) error {
	if len(args) > 0 && args[0] == "history" {
		history, err := a.DB.BackupHistory(20)
		if err != nil {
			return err
		}
		for _, r := range history {
			fmt.Printf("%s %-6s %s\n", r.CreatedAt.Format("2006-01-02 15:04"), r.Status, r.Path)
		}
		return nil
	}

	rec, err := a.Backup.Run()
	if err != nil {
		return err
	}
	fmt.Printf("Backup written to %s (%d bytes)\n", rec.Path, rec.Size)
	return nil
}

func cmdSet(a *app.App, args []string) error {
	switch len(args) {
	case 0:
		settings, err := a.DB.Settings()
		if err != nil {
			return err
		}
		for k, v := range settings {
			fmt.Printf("%s = %s\n", k, v)
		}
		return nil
	case 1:
		fmt.Println(a.DB.Setting(args[0], ""))
		return nil
	default:
		return a.DB.SetSetting(args[0], args[1])
	}
}

// Helpers

func printTasks(tasks []model.Task, indent int) {
	for _, t := range tasks {
		check := " "
		if t.Completed {
			check = "x"
		}
		fmt.Printf("%s[%s] #%d %s (%.0f%%)\n", strings.Repeat("  ", indent), check, t.ID, t.Title, t.Progress*100)
	}
}

func argID(args []string, cmd string) (int64, error) {
	if len(args) == 0 {
		return 0, fmt.Errorf("usage: tasknest %s <task-id>", cmd)
	}
	return parseID(args[0])
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimPrefix(s, "#"), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid task id %q", s)
	}
	return id, nil
}

func printHelp() {
	fmt.Println(`tasknest - hierarchical task manager

Usage:
  tasknest [flags] <command> [args]

Commands:
  add [flags] <title>       Add a task (-parent, -priority, -due, -desc)
  list                      List root tasks
  tree [id]                 Show the task hierarchy
  show <id>                 Show task details
  done <id>                 Toggle completion
  delete <id>               Move a task to the recycle bin
  restore <id>              Restore a task from the recycle bin
  purge <id>                Permanently delete a task
  bin                       List deleted tasks
  cleanup [days]            Purge tasks deleted more than N days ago
  search [flags] <text>     Full-text and filtered search
  tag [add|rm] ...          Manage tags
  dep <add|rm> <id> <id>    Manage dependencies
  folder [create|add|rm]    Manage folders
  notifications             List notifications
  backup [history]          Run a backup now / show history
  set [key] [value]         Show or change settings
  version                   Show version

Flags:
  -data-dir <path>          Data directory
  -debug                    Enable debug logging`)
}
