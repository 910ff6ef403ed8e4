package runner

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/fmbento/flights-tracker/pkg/utils"
)

// UserSource lists the users whose alerts the scheduler should service.
type UserSource interface {
	ListUserIDs(ctx context.Context) ([]string, error)
}

// Scheduler drives periodic digest runs. Each tick lists users and runs each
// one sequentially; the per-user daily guard and per-alert dedup journal make
// overlapping ticks harmless.
type Scheduler struct {
	runner   *Runner
	users    UserSource
	interval time.Duration
	logger   *logrus.Logger

	mu       sync.Mutex
	running  bool
	stopChan chan struct{}
	wg       sync.WaitGroup
}

// NewScheduler creates a new scheduler
func NewScheduler(runner *Runner, users UserSource, interval time.Duration) *Scheduler {
	if interval <= 0 {
		interval = time.Hour
	}
	return &Scheduler{
		runner:   runner,
		users:    users,
		interval: interval,
		logger:   utils.GetLogger(),
	}
}

// Start starts the scheduling loop
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return utils.NewAppError(utils.ErrCodeInternal, "Scheduler already running", "")
	}
	s.running = true

	// A fresh channel per start so the scheduler survives stop/start cycles.
	s.stopChan = make(chan struct{})

	s.wg.Add(1)
	go s.loop(ctx, s.stopChan)

	s.logger.WithField("interval", s.interval).Info("Scheduler started")
	return nil
}

// Stop stops the scheduling loop and waits for the current pass to finish
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	close(s.stopChan)
	s.mu.Unlock()

	s.wg.Wait()

	s.logger.Info("Scheduler stopped")
	return nil
}

// IsRunning returns whether the scheduler is running
func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

func (s *Scheduler) loop(ctx context.Context, stopChan <-chan struct{}) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	// Run once immediately so a restart does not delay the day's digests.
	s.runAll(ctx, stopChan)

	for {
		select {
		case <-ctx.Done():
			return
		case <-stopChan:
			return
		case <-ticker.C:
			s.runAll(ctx, stopChan)
		}
	}
}

// runAll runs one digest pass per known user. One user's failure is logged
// and never blocks the rest.
func (s *Scheduler) runAll(ctx context.Context, stopChan <-chan struct{}) {
	userIDs, err := s.users.ListUserIDs(ctx)
	if err != nil {
		s.logger.WithField("error", err).Error("Failed to list users for scheduled pass")
		return
	}

	for _, userID := range userIDs {
		select {
		case <-ctx.Done():
			return
		case <-stopChan:
			return
		default:
		}

		if _, err := s.runner.RunForUser(ctx, userID, false); err != nil {
			s.logger.WithFields(logrus.Fields{
				"user_id": userID,
				"error":   err,
			}).Error("Scheduled run failed for user")
		}
	}
}
