package storage

import (
	"context"
	"time"

	"github.com/fmbento/flights-tracker/internal/models"
	"github.com/fmbento/flights-tracker/pkg/utils"
)

// Store defines the persistence operations the alerting pipeline relies on.
type Store interface {
	// Connection management
	Connect() error
	Close() error
	Ping() error
	Migrate() error

	// Alert operations
	GetAlertsByUser(ctx context.Context, userID string, status *models.AlertStatus) ([]models.Alert, error)
	UpdateAlertStatus(ctx context.Context, alertID string, status models.AlertStatus) error

	// Notification journal (dedup)
	HasAlertBeenProcessedRecently(ctx context.Context, alertID string, windowHours int) (bool, error)
	HasUserReceivedEmailToday(ctx context.Context, userID string) (bool, error)
	RecordNotification(ctx context.Context, entry *models.NotificationLog) error

	// Lookups
	ListUserIDs(ctx context.Context) ([]string, error)
	GetUserRecipient(ctx context.Context, userID string) (*models.Recipient, error)
	GetAirportByIATA(ctx context.Context, code string) (*models.Airport, error)

	// Statistics
	GetStorageStats(ctx context.Context) (*StorageStats, error)
}

// StorageStats provides storage statistics
type StorageStats struct {
	TotalAlerts        int64      `json:"total_alerts"`
	ActiveAlerts       int64      `json:"active_alerts"`
	TotalNotifications int64      `json:"total_notifications"`
	LastNotification   *time.Time `json:"last_notification,omitempty"`
}

// Config holds storage configuration
type Config struct {
	Type             string        `json:"type"`
	ConnectionString string        `json:"connection_string"`
	MaxConnections   int           `json:"max_connections"`
	MaxIdleTime      time.Duration `json:"max_idle_time"`
}

// NewStore creates a storage backend for the configured type
func NewStore(config *Config) (Store, error) {
	switch config.Type {
	case "sqlite", "":
		return NewSQLiteStore(config), nil
	case "postgres":
		return NewPostgresStore(config), nil
	default:
		return nil, utils.NewAppError(utils.ErrCodeConfiguration, "Unsupported storage type", config.Type)
	}
}
