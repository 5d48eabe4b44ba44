// Package notify persists notifications produced by the store and
// optionally mirrors them to the desktop via notify-send.
package notify

import (
	"os/exec"

	"github.com/charmbracelet/log"

	"github.com/dori/tasknest/internal/model"
)

// Store is where notifications are persisted.
type Store interface {
	AddNotification(n model.Notification) (int64, error)
}

// Notifier consumes (type, title, message, taskID) tuples.
type Notifier struct {
	store   Store
	desktop bool
	log     *log.Logger
}

// New creates a notifier. When desktop is true, notifications are also
// sent to the desktop environment.
func New(store Store, desktop bool, logger *log.Logger) *Notifier {
	return &Notifier{store: store, desktop: desktop, log: logger}
}

// SetDesktop enables or disables desktop mirroring
func (n *Notifier) SetDesktop(enabled bool) {
	n.desktop = enabled
}

// Notify persists a notification and mirrors it to the desktop when
// enabled. Persistence failures are logged, not propagated; losing a
// notification must never fail the mutation that produced it.
func (n *Notifier) Notify(typ model.NotificationType, title, message string, taskID int64) {
	if n == nil {
		return
	}

	if n.store != nil {
		if _, err := n.store.AddNotification(model.Notification{
			Type:    typ,
			Title:   title,
			Message: message,
			TaskID:  taskID,
		}); err != nil && n.log != nil {
			n.log.Error("failed to store notification", "type", typ.String(), "err", err)
		}
	}

	if n.desktop {
		n.sendDesktop(typ, title, message)
	}
}

// Desktop mirrors an already-stored notification to the desktop without
// persisting it again
func (n *Notifier) Desktop(typ model.NotificationType, title, message string) {
	if n == nil || !n.desktop {
		return
	}
	n.sendDesktop(typ, title, message)
}

// sendDesktop shells out to notify-send; absence of the binary is not an
// error worth surfacing
func (n *Notifier) sendDesktop(typ model.NotificationType, title, message string) {
	urgency := "normal"
	if typ == model.NotificationDeleteWarning || typ == model.NotificationDeadline {
		urgency = "critical"
	}

	args := []string{"-u", urgency, "-a", "tasknest", title}
	if message != "" {
		args = append(args, message)
	}

	if err := exec.Command("notify-send", args...).Run(); err != nil && n.log != nil {
		n.log.Debug("notify-send failed", "err", err)
	}
}
