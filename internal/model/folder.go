package model

import (
	"time"
)

// Folder represents a manually ordered task container, distinct from tags
type Folder struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Color     string    `json:"color,omitempty"`
	Position  int       `json:"position"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Computed fields (not stored)
	TaskCount int `json:"task_count,omitempty"`
}
