// Package service orchestrates storage mutations: it validates input,
// guards the dependency graph against cycles, re-derives progress up the
// ancestor chain after every structural change, and emits domain events.
package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/dori/tasknest/internal/db"
	"github.com/dori/tasknest/internal/graph"
	"github.com/dori/tasknest/internal/model"
)

var (
	// ErrEmptyTitle is returned when a task is saved without a title
	ErrEmptyTitle = errors.New("task title must not be empty")
	// ErrTaskNotFound is returned when the referenced task does not exist
	ErrTaskNotFound = errors.New("task not found")
	// ErrCircularDependency is returned when adding a dependency edge
	// would close a cycle
	ErrCircularDependency = errors.New("dependency would create a cycle")
)

// Service wraps the storage engine and the graph validator
type Service struct {
	db        *db.DB
	validator *graph.Validator
	log       *log.Logger
	subs      []func(Event)
}

// New creates a service over an open store
func New(database *db.DB, logger *log.Logger) *Service {
	return &Service{
		db:        database,
		validator: graph.NewValidator(database),
		log:       logger,
	}
}

// DB exposes the underlying store for read paths that need no orchestration
func (s *Service) DB() *db.DB {
	return s.db
}

// Validator exposes the dependency graph validator
func (s *Service) Validator() *graph.Validator {
	return s.validator
}

// Subscribe registers a callback for domain events. Callbacks run
// synchronously on the mutating goroutine, after the mutation committed.
func (s *Service) Subscribe(fn func(Event)) {
	s.subs = append(s.subs, fn)
}

func (s *Service) emit(e Event) {
	s.log.Debug("event", "kind", e.Kind.String(), "task", e.TaskID)
	for _, fn := range s.subs {
		fn(e)
	}
}

// AddTask validates and inserts a task, then refreshes the ancestor
// progress chain
func (s *Service) AddTask(t *model.Task) error {
	if strings.TrimSpace(t.Title) == "" {
		return ErrEmptyTitle
	}
	if t.Priority == 0 {
		t.Priority = model.PriorityMedium
	}

	if err := s.db.InsertTask(t); err != nil {
		return fmt.Errorf("insert task: %w", err)
	}
	if err := s.db.CalculateParentProgress(t.ID); err != nil {
		return fmt.Errorf("recompute progress: %w", err)
	}

	s.log.Info("task added", "id", t.ID, "title", t.Title)
	s.emit(Event{Kind: TaskAdded, TaskID: t.ID})
	return nil
}

// UpdateTask validates and rewrites a task's mutable fields. When the task
// moved to a different parent, both the old and the new ancestor chains
// are recomputed.
func (s *Service) UpdateTask(t *model.Task) error {
	if strings.TrimSpace(t.Title) == "" {
		return ErrEmptyTitle
	}

	prev, err := s.db.Task(t.ID)
	if err != nil {
		return err
	}
	if prev == nil {
		return ErrTaskNotFound
	}

	if err := s.db.UpdateTask(t); err != nil {
		return fmt.Errorf("update task: %w", err)
	}
	if err := s.db.CalculateParentProgress(t.ID); err != nil {
		return fmt.Errorf("recompute progress: %w", err)
	}
	if prev.ParentID != t.ParentID && prev.ParentID != 0 {
		if err := s.db.CalculateParentProgress(prev.ParentID); err != nil {
			return fmt.Errorf("recompute old parent progress: %w", err)
		}
	}

	s.emit(Event{Kind: TaskUpdated, TaskID: t.ID})
	return nil
}

// SetCompleted flips a task's completion flag, persists it and refreshes
// the progress chain in one caller-visible step
func (s *Service) SetCompleted(id int64, completed bool) error {
	t, err := s.db.Task(id)
	if err != nil {
		return err
	}
	if t == nil {
		return ErrTaskNotFound
	}

	if err := s.db.SetTaskCompleted(id, completed); err != nil {
		return fmt.Errorf("set completed: %w", err)
	}
	if err := s.db.CalculateParentProgress(id); err != nil {
		return fmt.Errorf("recompute progress: %w", err)
	}

	s.emit(Event{Kind: CompletionChanged, TaskID: id})
	return nil
}

// ToggleCompleted flips a task's completion flag
func (s *Service) ToggleCompleted(id int64) error {
	t, err := s.db.Task(id)
	if err != nil {
		return err
	}
	if t == nil {
		return ErrTaskNotFound
	}
	return s.SetCompleted(id, !t.Completed)
}

// DeleteTask soft-deletes a task per the stored parent policy and
// refreshes the former ancestor chain
func (s *Service) DeleteTask(id int64) error {
	t, err := s.db.Task(id)
	if err != nil {
		return err
	}
	if t == nil {
		return ErrTaskNotFound
	}

	if err := s.db.DeleteTask(id); err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	if t.ParentID != 0 {
		if err := s.db.CalculateParentProgress(t.ParentID); err != nil {
			return fmt.Errorf("recompute progress: %w", err)
		}
	}

	s.log.Info("task deleted", "id", id, "title", t.Title)
	s.emit(Event{Kind: TaskDeleted, TaskID: id})
	return nil
}

// RestoreTask brings a soft-deleted task back and refreshes its chain
func (s *Service) RestoreTask(id int64) error {
	t, err := s.db.TaskAny(id)
	if err != nil {
		return err
	}
	if t == nil || !t.IsDeleted {
		return ErrTaskNotFound
	}

	if err := s.db.RestoreTask(id); err != nil {
		return fmt.Errorf("restore task: %w", err)
	}
	if err := s.db.CalculateParentProgress(id); err != nil {
		return fmt.Errorf("recompute progress: %w", err)
	}

	s.log.Info("task restored", "id", id, "title", t.Title)
	s.emit(Event{Kind: TaskRestored, TaskID: id})
	return nil
}

// PurgeTask hard-deletes a task and its association rows
func (s *Service) PurgeTask(id int64) error {
	t, err := s.db.TaskAny(id)
	if err != nil {
		return err
	}
	if t == nil {
		return ErrTaskNotFound
	}

	if err := s.db.PurgeTask(id, -1); err != nil {
		return fmt.Errorf("purge task: %w", err)
	}
	if t.ParentID != 0 {
		if err := s.db.CalculateParentProgress(t.ParentID); err != nil {
			return fmt.Errorf("recompute progress: %w", err)
		}
	}

	s.log.Info("task purged", "id", id, "title", t.Title)
	s.emit(Event{Kind: TaskPurged, TaskID: id})
	return nil
}

// Cleanup permanently removes soft-deleted tasks older than days
func (s *Service) Cleanup(days int) (int, error) {
	count, err := s.db.CleanupDeletedTasks(days)
	if err != nil {
		return 0, fmt.Errorf("cleanup deleted tasks: %w", err)
	}
	if count > 0 {
		s.log.Info("purged deleted tasks", "count", count, "older_than_days", days)
	}
	return count, nil
}

// AddDependency records that taskID depends on dependsOnID, rejecting
// edges that would close a cycle. The cycle check happens here: storage
// itself is a dumb edge store.
func (s *Service) AddDependency(taskID, dependsOnID int64) error {
	for _, id := range []int64{taskID, dependsOnID} {
		t, err := s.db.Task(id)
		if err != nil {
			return err
		}
		if t == nil {
			return ErrTaskNotFound
		}
	}

	cyclic, err := s.validator.WouldCreateCycle(taskID, dependsOnID)
	if err != nil {
		return fmt.Errorf("cycle check: %w", err)
	}
	if cyclic {
		return ErrCircularDependency
	}

	if err := s.db.AddDependency(taskID, dependsOnID); err != nil {
		return fmt.Errorf("add dependency: %w", err)
	}

	s.emit(Event{Kind: DependencyAdded, TaskID: taskID})
	return nil
}

// RemoveDependency removes a depends-on edge
func (s *Service) RemoveDependency(taskID, dependsOnID int64) error {
	if err := s.db.RemoveDependency(taskID, dependsOnID); err != nil {
		return fmt.Errorf("remove dependency: %w", err)
	}
	s.emit(Event{Kind: DependencyRemoved, TaskID: taskID})
	return nil
}
