package storage

import (
	"context"
	"time"

	"github.com/fmbento/flights-tracker/internal/models"
)

// OperationRecorder receives one observation per storage call.
type OperationRecorder interface {
	RecordDatabaseOperation(operation, table, status string, duration time.Duration)
}

// InstrumentedStore wraps a Store and records per-operation metrics.
type InstrumentedStore struct {
	store    Store
	recorder OperationRecorder
}

// NewInstrumentedStore wraps a store with operation metrics
func NewInstrumentedStore(store Store, recorder OperationRecorder) *InstrumentedStore {
	return &InstrumentedStore{store: store, recorder: recorder}
}

func (s *InstrumentedStore) record(operation, table string, start time.Time, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	s.recorder.RecordDatabaseOperation(operation, table, status, time.Since(start))
}

func (s *InstrumentedStore) Connect() error { return s.store.Connect() }
func (s *InstrumentedStore) Close() error   { return s.store.Close() }
func (s *InstrumentedStore) Ping() error    { return s.store.Ping() }
func (s *InstrumentedStore) Migrate() error { return s.store.Migrate() }

func (s *InstrumentedStore) GetAlertsByUser(ctx context.Context, userID string, status *models.AlertStatus) ([]models.Alert, error) {
	start := time.Now()
	alerts, err := s.store.GetAlertsByUser(ctx, userID, status)
	s.record("select", "alerts", start, err)
	return alerts, err
}

func (s *InstrumentedStore) UpdateAlertStatus(ctx context.Context, alertID string, status models.AlertStatus) error {
	start := time.Now()
	err := s.store.UpdateAlertStatus(ctx, alertID, status)
	s.record("update", "alerts", start, err)
	return err
}

func (s *InstrumentedStore) HasAlertBeenProcessedRecently(ctx context.Context, alertID string, windowHours int) (bool, error) {
	start := time.Now()
	processed, err := s.store.HasAlertBeenProcessedRecently(ctx, alertID, windowHours)
	s.record("select", "notification_log", start, err)
	return processed, err
}

func (s *InstrumentedStore) HasUserReceivedEmailToday(ctx context.Context, userID string) (bool, error) {
	start := time.Now()
	sent, err := s.store.HasUserReceivedEmailToday(ctx, userID)
	s.record("select", "notification_log", start, err)
	return sent, err
}

func (s *InstrumentedStore) RecordNotification(ctx context.Context, entry *models.NotificationLog) error {
	start := time.Now()
	err := s.store.RecordNotification(ctx, entry)
	s.record("insert", "notification_log", start, err)
	return err
}

func (s *InstrumentedStore) ListUserIDs(ctx context.Context) ([]string, error) {
	start := time.Now()
	ids, err := s.store.ListUserIDs(ctx)
	s.record("select", "users", start, err)
	return ids, err
}

func (s *InstrumentedStore) GetUserRecipient(ctx context.Context, userID string) (*models.Recipient, error) {
	start := time.Now()
	recipient, err := s.store.GetUserRecipient(ctx, userID)
	s.record("select", "users", start, err)
	return recipient, err
}

func (s *InstrumentedStore) GetAirportByIATA(ctx context.Context, code string) (*models.Airport, error) {
	start := time.Now()
	airport, err := s.store.GetAirportByIATA(ctx, code)
	s.record("select", "airports", start, err)
	return airport, err
}

func (s *InstrumentedStore) GetStorageStats(ctx context.Context) (*StorageStats, error) {
	start := time.Now()
	stats, err := s.store.GetStorageStats(ctx)
	s.record("select", "storage_stats", start, err)
	return stats, err
}
