package notify

import (
	"io"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/dori/tasknest/internal/model"
)

type stubStore struct {
	stored []model.Notification
}

func (s *stubStore) AddNotification(n model.Notification) (int64, error) {
	s.stored = append(s.stored, n)
	return int64(len(s.stored)), nil
}

func TestNotifyPersists(t *testing.T) {
	store := &stubStore{}
	n := New(store, false, log.New(io.Discard))

	n.Notify(model.NotificationDeleteWarning, "title", "message", 42)

	if len(store.stored) != 1 {
		t.Fatalf("stored %d notifications, want 1", len(store.stored))
	}
	got := store.stored[0]
	if got.Type != model.NotificationDeleteWarning || got.Title != "title" || got.TaskID != 42 {
		t.Errorf("stored notification = %+v", got)
	}
}

func TestNilNotifierIsSafe(t *testing.T) {
	var n *Notifier
	n.Notify(model.NotificationSystem, "ignored", "", 0)
}
