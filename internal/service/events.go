package service

// EventKind identifies a domain event emitted after a mutation
type EventKind int

const (
	TaskAdded EventKind = iota
	TaskUpdated
	TaskDeleted
	TaskRestored
	TaskPurged
	CompletionChanged
	DependencyAdded
	DependencyRemoved
)

// String returns the display name for an event kind
func (k EventKind) String() string {
	switch k {
	case TaskAdded:
		return "task-added"
	case TaskUpdated:
		return "task-updated"
	case TaskDeleted:
		return "task-deleted"
	case TaskRestored:
		return "task-restored"
	case TaskPurged:
		return "task-purged"
	case CompletionChanged:
		return "completion-changed"
	case DependencyAdded:
		return "dependency-added"
	case DependencyRemoved:
		return "dependency-removed"
	default:
		return "unknown"
	}
}

// Event describes a completed mutation. Consumers re-read from the store
// rather than patching local state.
type Event struct {
	Kind   EventKind
	TaskID int64
}
