package model

import (
	"time"
)

// Priority represents task priority level
type Priority int

const (
	PriorityLow    Priority = 1
	PriorityMedium Priority = 2
	PriorityHigh   Priority = 3
)

// String returns the display name for a priority
func (p Priority) String() string {
	switch p {
	case PriorityLow:
		return "low"
	case PriorityHigh:
		return "high"
	default:
		return "medium"
	}
}

// ParsePriority parses a priority name, defaulting to medium
func ParsePriority(s string) Priority {
	switch s {
	case "low":
		return PriorityLow
	case "high":
		return PriorityHigh
	default:
		return PriorityMedium
	}
}

// Task represents a todo item in the task tree
type Task struct {
	ID          int64      `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Priority    Priority   `json:"priority"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	Completed   bool       `json:"completed"`
	Progress    float64    `json:"progress"`
	ParentID    int64      `json:"parent_id"` // 0 = root
	FilePath    string     `json:"file_path,omitempty"`
	IsDeleted   bool       `json:"is_deleted"`
	DeletedAt   *time.Time `json:"deleted_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`

	// Computed at query time, never written back by callers
	HasChildren bool `json:"has_children"`
	Level       int  `json:"level,omitempty"`

	// Loaded relationships (not stored in tasks table)
	Tags          []Tag    `json:"tags,omitempty"`
	Steps         []Step   `json:"steps,omitempty"`
	Files         []string `json:"files,omitempty"`
	DependencyIDs []int64  `json:"dependency_ids,omitempty"`
}

// IsLeaf returns true if the task has no non-deleted children
func (t *Task) IsLeaf() bool {
	return !t.HasChildren
}

// IsOverdue returns true if the task is past its due date
func (t *Task) IsOverdue() bool {
	if t.DueDate == nil || t.Completed {
		return false
	}
	return time.Now().After(*t.DueDate)
}

// IsDueToday returns true if the task is due today
func (t *Task) IsDueToday() bool {
	if t.DueDate == nil {
		return false
	}
	now := time.Now()
	return t.DueDate.Year() == now.Year() &&
		t.DueDate.YearDay() == now.YearDay()
}

// Step represents a checklist entry belonging to a task
type Step struct {
	ID        int64     `json:"id"`
	TaskID    int64     `json:"task_id"`
	Title     string    `json:"title"`
	Completed bool      `json:"completed"`
	Position  int       `json:"position"`
	CreatedAt time.Time `json:"created_at"`
}
