package alerts

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/fmbento/flights-tracker/internal/models"
	"github.com/fmbento/flights-tracker/pkg/utils"
)

// DefaultDedupWindowHours keeps the notification cadence once-daily while
// tolerating scheduler jitter (23h instead of a full 24h).
const DefaultDedupWindowHours = 23

// LifecycleStore is the persistence contract the lifecycle manager needs.
type LifecycleStore interface {
	UpdateAlertStatus(ctx context.Context, alertID string, status models.AlertStatus) error
	HasAlertBeenProcessedRecently(ctx context.Context, alertID string, windowHours int) (bool, error)
}

// LifecycleManager owns the one-way active→completed transition and the
// per-alert deduplication policy.
type LifecycleManager struct {
	store  LifecycleStore
	logger *logrus.Logger
}

// NewLifecycleManager creates a new lifecycle manager
func NewLifecycleManager(store LifecycleStore) *LifecycleManager {
	return &LifecycleManager{
		store:  store,
		logger: utils.GetLogger(),
	}
}

// PartitionByExpiry splits alerts into still-active and expired at the given
// reference time. Pure: alerts with no end timestamp are always active.
func PartitionByExpiry(alerts []models.Alert, now time.Time) (active, expired []models.Alert) {
	for _, alert := range alerts {
		if alert.IsExpired(now) {
			expired = append(expired, alert)
		} else {
			active = append(active, alert)
		}
	}
	return active, expired
}

// MarkExpired transitions expired alerts to completed. Updates run in
// parallel and are best-effort housekeeping: an individual failure is logged
// and never blocks the others or the current pass.
func (m *LifecycleManager) MarkExpired(ctx context.Context, expired []models.Alert) {
	if len(expired) == 0 {
		return
	}

	var wg sync.WaitGroup
	for _, alert := range expired {
		wg.Add(1)
		go func(a models.Alert) {
			defer wg.Done()
			if err := m.store.UpdateAlertStatus(ctx, a.ID, models.AlertStatusCompleted); err != nil {
				m.logger.WithFields(logrus.Fields{
					"alert_id": a.ID,
					"error":    err,
				}).Warn("Failed to mark expired alert completed")
			}
		}(alert)
	}
	wg.Wait()

	m.logger.WithField("count", len(expired)).Info("Expired alerts marked completed")
}

// FilterUnprocessed keeps only alerts that have not produced a notification
// within the dedup window. Predicate checks fan out concurrently; input order
// is preserved in the result. An alert whose check fails is excluded, since
// sending twice is worse than skipping one cycle.
func (m *LifecycleManager) FilterUnprocessed(ctx context.Context, alerts []models.Alert, windowHours int) []models.Alert {
	if windowHours <= 0 {
		windowHours = DefaultDedupWindowHours
	}
	if len(alerts) == 0 {
		return nil
	}

	keep := make([]bool, len(alerts))

	var wg sync.WaitGroup
	for i, alert := range alerts {
		wg.Add(1)
		go func(idx int, a models.Alert) {
			defer wg.Done()
			processed, err := m.store.HasAlertBeenProcessedRecently(ctx, a.ID, windowHours)
			if err != nil {
				m.logger.WithFields(logrus.Fields{
					"alert_id": a.ID,
					"error":    err,
				}).Warn("Dedup check failed, excluding alert from this pass")
				return
			}
			keep[idx] = !processed
		}(i, alert)
	}
	wg.Wait()

	unprocessed := make([]models.Alert, 0, len(alerts))
	for i, alert := range alerts {
		if keep[i] {
			unprocessed = append(unprocessed, alert)
		}
	}
	return unprocessed
}
