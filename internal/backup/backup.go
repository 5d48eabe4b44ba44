// Package backup copies the live database file to timestamped snapshots,
// prunes them to a retention count, and reports the outcome through the
// notification collaborator.
package backup

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"github.com/dori/tasknest/internal/model"
)

// Store is what the backup manager needs from the storage engine: the
// live file path, settings, and a place to record history.
type Store interface {
	Path() string
	Setting(key, def string) string
	SettingInt(key string, def int) int
	AddBackupRecord(r model.BackupRecord) error
}

// Notifier receives backup success/failure reports.
type Notifier interface {
	Notify(typ model.NotificationType, title, message string, taskID int64)
}

// Failure classes reported in notification text
const (
	FailDiskFull   = "disk full"
	FailPermission = "permission denied"
	FailLocked     = "source locked"
	FailBadPath    = "invalid path"
	FailUnknown    = "unknown error"
)

// Manager performs a single backup run on demand.
type Manager struct {
	store    Store
	notifier Notifier
	log      *log.Logger
}

// NewManager creates a backup manager over the store
func NewManager(store Store, notifier Notifier, logger *log.Logger) *Manager {
	return &Manager{store: store, notifier: notifier, log: logger}
}

// Dir returns the configured backup directory, defaulting to a backups
// directory beside the database file
func (m *Manager) Dir() string {
	def := filepath.Join(filepath.Dir(m.store.Path()), "backups")
	return m.store.Setting("backup_dir", def)
}

// Run copies the database file to <prefix><timestamp>.db in the backup
// directory and prunes old copies to the retention count. The copy reads
// the live file; WAL journaling keeps that safe while the store is open.
func (m *Manager) Run() (model.BackupRecord, error) {
	rec := model.BackupRecord{
		ID:        uuid.New().String(),
		CreatedAt: time.Now(),
	}

	dir := m.Dir()
	prefix := m.store.Setting("backup_prefix", "tasknest_")
	retention := m.store.SettingInt("backup_retention", 5)

	dest, size, err := m.copy(dir, prefix)
	rec.Path = dest
	rec.Size = size

	if err != nil {
		class := Classify(err)
		rec.Status = "failed"
		rec.Message = fmt.Sprintf("%s: %v", class, err)
		m.finish(rec)
		return rec, err
	}

	if err := m.prune(dir, prefix, retention); err != nil {
		// The snapshot itself succeeded; pruning trouble is only logged
		m.log.Warn("backup prune failed", "dir", dir, "err", err)
	}

	rec.Status = "ok"
	m.finish(rec)
	return rec, nil
}

// copy performs the actual snapshot under a directory-level lock so two
// runs never race on the same destination or on pruning
func (m *Manager) copy(dir, prefix string) (string, int64, error) {
	src := m.store.Path()
	if _, err := os.Stat(src); err != nil {
		return "", 0, err
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", 0, err
	}

	lock := flock.New(filepath.Join(dir, ".backup.lock"))
	locked, err := lock.TryLock()
	if err != nil {
		return "", 0, err
	}
	if !locked {
		return "", 0, errLocked
	}
	defer lock.Unlock()

	dest := filepath.Join(dir, fmt.Sprintf("%s%s.db", prefix, time.Now().Format("20060102_150405")))

	in, err := os.Open(src)
	if err != nil {
		return dest, 0, err
	}
	defer in.Close()

	out, err := os.Create(dest)
	if err != nil {
		return dest, 0, err
	}

	size, err := io.Copy(out, in)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(dest)
		return dest, 0, err
	}

	return dest, size, nil
}

// prune removes the oldest snapshots beyond the retention count. The
// timestamped naming makes lexical order chronological.
func (m *Manager) prune(dir, prefix string, retention int) error {
	if retention <= 0 {
		return nil
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if strings.HasPrefix(name, prefix) && strings.HasSuffix(name, ".db") {
			names = append(names, name)
		}
	}
	if len(names) <= retention {
		return nil
	}

	sort.Strings(names)
	for _, name := range names[:len(names)-retention] {
		if err := os.Remove(filepath.Join(dir, name)); err != nil {
			return err
		}
	}
	return nil
}

// finish records history and notifies; neither failure affects the run result
func (m *Manager) finish(rec model.BackupRecord) {
	if err := m.store.AddBackupRecord(rec); err != nil {
		m.log.Error("failed to record backup history", "err", err)
	}

	if m.notifier == nil {
		return
	}
	if rec.Status == "ok" {
		m.notifier.Notify(model.NotificationBackup, "Backup complete",
			fmt.Sprintf("Saved %s (%d bytes)", filepath.Base(rec.Path), rec.Size), 0)
	} else {
		m.notifier.Notify(model.NotificationBackup, "Backup failed", rec.Message, 0)
	}
}

var errLocked = errors.New("backup already in progress")

// Classify maps a backup error to its reported failure class
func Classify(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, errLocked):
		return FailLocked
	case errors.Is(err, syscall.ENOSPC):
		return FailDiskFull
	case errors.Is(err, fs.ErrPermission):
		return FailPermission
	case errors.Is(err, fs.ErrNotExist), errors.Is(err, syscall.ENOTDIR):
		return FailBadPath
	default:
		return FailUnknown
	}
}
