package backup

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
)

// Scheduler fires the backup manager on a fixed interval. Runs happen on
// a background goroutine so the copy never stalls interactive work; the
// database itself is only read, never written, by a run.
type Scheduler struct {
	manager  *Manager
	interval time.Duration
	log      *log.Logger
	cancel   context.CancelFunc
	done     chan struct{}
}

// NewScheduler creates a scheduler over the manager
func NewScheduler(manager *Manager, interval time.Duration, logger *log.Logger) *Scheduler {
	return &Scheduler{manager: manager, interval: interval, log: logger}
}

// Start begins periodic backups until Stop is called or ctx is cancelled
func (s *Scheduler) Start(ctx context.Context) {
	if s.interval <= 0 {
		return
	}

	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})

	go func() {
		defer close(s.done)
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if _, err := s.manager.Run(); err != nil {
					s.log.Error("scheduled backup failed", "err", err)
				}
			}
		}
	}()
}

// Stop halts the scheduler and waits for an in-flight run to finish
func (s *Scheduler) Stop() {
	if s.cancel == nil {
		return
	}
	s.cancel()
	<-s.done
}
