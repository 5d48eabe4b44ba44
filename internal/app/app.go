package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gofrs/flock"

	"github.com/dori/tasknest/internal/backup"
	"github.com/dori/tasknest/internal/db"
	"github.com/dori/tasknest/internal/notify"
	"github.com/dori/tasknest/internal/service"
)

// App holds the application state and dependencies
type App struct {
	DB       *db.DB
	Service  *service.Service
	Notifier *notify.Notifier
	Backup   *backup.Manager
	Log      *log.Logger
	DataDir  string

	scheduler *backup.Scheduler
	lockFile  *flock.Flock
}

// Config holds application configuration
type Config struct {
	DataDir  string
	DBPath   string
	LogLevel log.Level
}

// DefaultConfig returns the default application configuration
func DefaultConfig() *Config {
	dataDir := db.DefaultDataDir()
	return &Config{
		DataDir:  dataDir,
		DBPath:   filepath.Join(dataDir, "tasknest.db"),
		LogLevel: log.InfoLevel,
	}
}

// New creates a new application instance
func New(cfg *Config) (*App, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	logger := log.NewWithOptions(os.Stderr, log.Options{
		Level:  cfg.LogLevel,
		Prefix: "tasknest",
	})

	app := &App{
		DataDir: cfg.DataDir,
		Log:     logger,
	}

	// Single writer per data dir
	if err := app.acquireLock(); err != nil {
		return nil, err
	}

	database, err := db.Open(cfg.DBPath)
	if err != nil {
		app.releaseLock()
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	app.DB = database

	desktop := database.Setting(db.SettingDesktopNotify, "1") == "1"
	app.Notifier = notify.New(database, desktop, logger)
	app.Service = service.New(database, logger)
	app.Backup = backup.NewManager(database, app.Notifier, logger)

	app.startupMaintenance()

	return app, nil
}

// startupMaintenance runs the purge sweep and the purge-deadline warning
// check, then starts the backup scheduler if enabled
func (a *App) startupMaintenance() {
	retention := a.DB.SettingInt(db.SettingDeleteRetentionDays, 30)
	if retention > 0 {
		if count, err := a.DB.CleanupDeletedTasks(retention); err != nil {
			a.Log.Error("purge sweep failed", "err", err)
		} else if count > 0 {
			a.Log.Info("purged expired tasks", "count", count)
		}

		// DeleteWarnings stores the notifications itself; only mirror
		// them to the desktop here.
		warnings, err := a.DB.DeleteWarnings(retention)
		if err != nil {
			a.Log.Error("delete-warning check failed", "err", err)
		}
		for _, w := range warnings {
			a.Notifier.Desktop(w.Type, w.Title, w.Message)
		}
	}

	if a.DB.Setting(db.SettingBackupEnabled, "0") == "1" {
		interval := a.DB.SettingInt(db.SettingBackupIntervalMin, 60)
		a.scheduler = backup.NewScheduler(a.Backup, time.Duration(interval)*time.Minute, a.Log)
		a.scheduler.Start(context.Background())
	}
}

// acquireLock acquires an exclusive file lock to prevent multiple instances
func (a *App) acquireLock() error {
	lockPath := filepath.Join(a.DataDir, "tasknest.lock")
	a.lockFile = flock.New(lockPath)

	locked, err := a.lockFile.TryLock()
	if err != nil {
		return fmt.Errorf("failed to acquire lock: %w", err)
	}

	if !locked {
		return fmt.Errorf("another instance of tasknest is already running")
	}

	return nil
}

// releaseLock releases the file lock
func (a *App) releaseLock() {
	if a.lockFile != nil {
		a.lockFile.Unlock()
	}
}

// Close cleans up application resources
func (a *App) Close() error {
	var errs []error

	if a.scheduler != nil {
		a.scheduler.Stop()
	}

	if a.DB != nil {
		if err := a.DB.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close database: %w", err))
		}
	}

	a.releaseLock()

	if len(errs) > 0 {
		return errs[0]
	}
	return nil
}
