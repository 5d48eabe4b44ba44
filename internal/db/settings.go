package db

import (
	"strconv"
)

// Setting keys. The settings table is the only configuration store.
const (
	SettingDeleteParentAction  = "delete_parent_action"  // 0 promote, 1 cascade, else orphan
	SettingDeleteRetentionDays = "delete_retention_days" // purge sweep horizon
	SettingBackupEnabled       = "backup_enabled"
	SettingBackupDir           = "backup_dir"
	SettingBackupPrefix        = "backup_prefix"
	SettingBackupRetention     = "backup_retention"
	SettingBackupIntervalMin   = "backup_interval_minutes"
	SettingDesktopNotify       = "desktop_notifications"
)

// Parent-deletion policy values for SettingDeleteParentAction
const (
	ParentActionPromote = 0
	ParentActionCascade = 1
	ParentActionOrphan  = 2
)

// Setting returns the stored value for key, or def when absent.
// It never reports an error; a broken settings read behaves like an
// absent key.
func (db *DB) Setting(key, def string) string {
	var value string
	err := db.QueryRow("SELECT value FROM settings WHERE key = ?", key).Scan(&value)
	if err != nil {
		return def
	}
	return value
}

// SettingInt returns the stored value for key parsed as an integer,
// or def when absent or unparsable
func (db *DB) SettingInt(key string, def int) int {
	raw := db.Setting(key, "")
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return n
}

// SetSetting stores a setting value with upsert semantics
func (db *DB) SetSetting(key, value string) error {
	_, err := db.Exec(`
		INSERT INTO settings (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	return err
}

// SetSettingInt stores an integer setting value
func (db *DB) SetSettingInt(key string, value int) error {
	return db.SetSetting(key, strconv.Itoa(value))
}

// Settings returns the full key/value map
func (db *DB) Settings() (map[string]string, error) {
	rows, err := db.Query("SELECT key, value FROM settings ORDER BY key")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]string)
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, err
		}
		out[k] = v
	}
	return out, rows.Err()
}
