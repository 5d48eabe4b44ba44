package model

import (
	"time"
)

// NotificationType classifies a notification
type NotificationType int

const (
	NotificationDeleteWarning NotificationType = iota
	NotificationDeadline
	NotificationBackup
	NotificationSystem
)

// String returns the display name for a notification type
func (t NotificationType) String() string {
	switch t {
	case NotificationDeleteWarning:
		return "delete-warning"
	case NotificationDeadline:
		return "deadline"
	case NotificationBackup:
		return "backup"
	default:
		return "system"
	}
}

// Notification represents a message produced by the store for the user
type Notification struct {
	ID        int64            `json:"id"`
	Type      NotificationType `json:"type"`
	Title     string           `json:"title"`
	Message   string           `json:"message,omitempty"`
	TaskID    int64            `json:"task_id,omitempty"` // 0 = no task reference
	Read      bool             `json:"read"`
	CreatedAt time.Time        `json:"created_at"`
}

// BackupRecord represents one backup run in backup_history
type BackupRecord struct {
	ID        string    `json:"id"`
	Path      string    `json:"path"`
	Size      int64     `json:"size"`
	Status    string    `json:"status"` // "ok" or "failed"
	Message   string    `json:"message,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
