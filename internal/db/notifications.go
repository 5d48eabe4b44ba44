package db

import (
	"fmt"
	"time"

	"github.com/dori/tasknest/internal/model"
)

// Notifications returns notifications, newest first
func (db *DB) Notifications(unreadOnly bool) ([]model.Notification, error) {
	query := `
		SELECT id, type, title, message, task_id, read, created_at
		FROM notifications
	`
	if unreadOnly {
		query += ` WHERE read = 0`
	}
	query += ` ORDER BY created_at DESC`

	rows, err := db.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Notification
	for rows.Next() {
		var n model.Notification
		var read int
		if err := rows.Scan(&n.ID, &n.Type, &n.Title, &n.Message, &n.TaskID, &read, &n.CreatedAt); err != nil {
			return nil, err
		}
		n.Read = read == 1
		out = append(out, n)
	}
	return out, rows.Err()
}

// AddNotification stores a notification and returns its assigned ID
func (db *DB) AddNotification(n model.Notification) (int64, error) {
	now := time.Now()
	res, err := db.Exec(`
		INSERT INTO notifications (type, title, message, task_id, read, created_at)
		VALUES (?, ?, ?, ?, 0, ?)
	`, n.Type, n.Title, n.Message, n.TaskID, now)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// MarkNotificationRead flags a notification as read
func (db *DB) MarkNotificationRead(id int64) error {
	_, err := db.Exec(`UPDATE notifications SET read = 1 WHERE id = ?`, id)
	return err
}

// MarkAllNotificationsRead flags every notification as read
func (db *DB) MarkAllNotificationsRead() error {
	_, err := db.Exec(`UPDATE notifications SET read = 1`)
	return err
}

// DeleteNotification removes a notification
func (db *DB) DeleteNotification(id int64) error {
	_, err := db.Exec(`DELETE FROM notifications WHERE id = ?`, id)
	return err
}

// notificationExists reports whether an identical warning was already issued
func (db *DB) notificationExists(typ model.NotificationType, taskID int64, title string) (bool, error) {
	var count int
	err := db.QueryRow(`
		SELECT COUNT(*) FROM notifications WHERE type = ? AND task_id = ? AND title = ?
	`, typ, taskID, title).Scan(&count)
	return count > 0, err
}

// DeleteWarnings emits a DeleteWarning notification for every soft-deleted
// task sitting at exactly 3 or 1 days before its purge deadline. Prior
// warnings for the same task and remaining-days value are not repeated.
// Returns the notifications created by this call.
func (db *DB) DeleteWarnings(retentionDays int) ([]model.Notification, error) {
	if retentionDays <= 0 {
		return nil, nil
	}

	tasks, err := db.DeletedTasks()
	if err != nil {
		return nil, err
	}

	now := time.Now()
	var created []model.Notification
	for _, t := range tasks {
		if t.DeletedAt == nil {
			continue
		}
		elapsed := int(now.Sub(*t.DeletedAt).Hours() / 24)
		remaining := retentionDays - elapsed
		if remaining != 3 && remaining != 1 {
			continue
		}

		title := fmt.Sprintf("%q will be permanently deleted in %d day(s)", t.Title, remaining)
		exists, err := db.notificationExists(model.NotificationDeleteWarning, t.ID, title)
		if err != nil {
			return nil, err
		}
		if exists {
			continue
		}

		n := model.Notification{
			Type:    model.NotificationDeleteWarning,
			Title:   title,
			Message: "Restore it from the recycle bin to keep it.",
			TaskID:  t.ID,
		}
		id, err := db.AddNotification(n)
		if err != nil {
			return nil, err
		}
		n.ID = id
		n.CreatedAt = now
		created = append(created, n)
	}

	return created, nil
}
