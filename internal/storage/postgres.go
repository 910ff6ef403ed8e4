package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	"github.com/sirupsen/logrus"

	"github.com/fmbento/flights-tracker/internal/models"
	"github.com/fmbento/flights-tracker/pkg/utils"
)

// PostgresStore implements Store using PostgreSQL
type PostgresStore struct {
	db         *sql.DB
	config     *Config
	logger     *logrus.Logger
	migrations []*Migration
}

// NewPostgresStore creates a new PostgreSQL storage instance
func NewPostgresStore(config *Config) *PostgresStore {
	return &PostgresStore{
		config:     config,
		logger:     utils.GetLogger(),
		migrations: GetPostgresMigrations(),
	}
}

// Connect establishes the database connection
func (s *PostgresStore) Connect() error {
	db, err := sql.Open("postgres", s.config.ConnectionString)
	if err != nil {
		return utils.NewAppError(utils.ErrCodeDatabase, "Failed to open PostgreSQL database", err.Error())
	}

	db.SetMaxOpenConns(s.config.MaxConnections)
	db.SetMaxIdleConns(s.config.MaxConnections / 2)
	db.SetConnMaxLifetime(s.config.MaxIdleTime)

	if err := db.Ping(); err != nil {
		return utils.NewAppError(utils.ErrCodeDatabase, "Failed to reach PostgreSQL database", err.Error())
	}

	s.db = db
	s.logger.Info("PostgreSQL database connected")
	return nil
}

// Close closes the database connection
func (s *PostgresStore) Close() error {
	if s.db != nil {
		err := s.db.Close()
		s.db = nil
		return err
	}
	return nil
}

// Ping checks database connectivity
func (s *PostgresStore) Ping() error {
	if s.db == nil {
		return utils.NewAppError(utils.ErrCodeDatabase, "Database not connected", "")
	}
	return s.db.Ping()
}

// Migrate runs database migrations
func (s *PostgresStore) Migrate() error {
	if s.db == nil {
		return utils.NewAppError(utils.ErrCodeDatabase, "Database not connected", "")
	}

	for _, migration := range s.migrations {
		s.logger.WithFields(logrus.Fields{
			"version":     migration.Version,
			"description": migration.Description,
		}).Info("Applying migration")

		if _, err := s.db.Exec(migration.SQL); err != nil {
			return utils.NewAppError(utils.ErrCodeDatabase,
				fmt.Sprintf("Migration %s failed", migration.Version), err.Error())
		}
	}

	return nil
}

// GetAlertsByUser returns a user's alerts, optionally filtered by status.
func (s *PostgresStore) GetAlertsByUser(ctx context.Context, userID string, status *models.AlertStatus) ([]models.Alert, error) {
	query := `SELECT id, user_id, type, status, filters, alert_end, created_at, updated_at
		FROM alerts WHERE user_id = $1`
	args := []interface{}{userID}

	if status != nil {
		query += " AND status = $2"
		args = append(args, string(*status))
	}
	query += " ORDER BY created_at"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, utils.NewAppError(utils.ErrCodeDatabase, "Failed to query alerts", err.Error())
	}
	defer rows.Close()

	var alerts []models.Alert
	for rows.Next() {
		alert, err := scanPostgresAlert(rows)
		if err != nil {
			return nil, err
		}
		alerts = append(alerts, *alert)
	}
	return alerts, rows.Err()
}

func scanPostgresAlert(row rowScanner) (*models.Alert, error) {
	var alert models.Alert
	var filtersJSON []byte
	var alertEnd sql.NullTime

	err := row.Scan(&alert.ID, &alert.UserID, &alert.Type, &alert.Status,
		&filtersJSON, &alertEnd, &alert.CreatedAt, &alert.UpdatedAt)
	if err != nil {
		return nil, utils.NewAppError(utils.ErrCodeDatabase, "Failed to scan alert", err.Error())
	}

	if err := json.Unmarshal(filtersJSON, &alert.Filters); err != nil {
		return nil, utils.NewAppError(utils.ErrCodeDatabase, "Failed to decode alert filters", err.Error())
	}
	if alertEnd.Valid {
		alert.AlertEnd = &alertEnd.Time
	}
	return &alert, nil
}

// UpdateAlertStatus transitions an alert's status. The active→completed
// transition is guarded so completed alerts never revert.
func (s *PostgresStore) UpdateAlertStatus(ctx context.Context, alertID string, status models.AlertStatus) error {
	query := `UPDATE alerts SET status = $1, updated_at = $2 WHERE id = $3`
	args := []interface{}{string(status), time.Now().UTC(), alertID}

	if status == models.AlertStatusCompleted {
		query += ` AND status = $4`
		args = append(args, string(models.AlertStatusActive))
	}

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return utils.NewAppError(utils.ErrCodeDatabase, "Failed to update alert status", err.Error())
	}
	return nil
}

// HasAlertBeenProcessedRecently reports whether the alert produced a
// notification within the window.
func (s *PostgresStore) HasAlertBeenProcessedRecently(ctx context.Context, alertID string, windowHours int) (bool, error) {
	cutoff := time.Now().UTC().Add(-time.Duration(windowHours) * time.Hour)

	var count int64
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM notification_log WHERE alert_id = $1 AND sent_at >= $2`,
		alertID, cutoff).Scan(&count)
	if err != nil {
		return false, utils.NewAppError(utils.ErrCodeDatabase, "Failed to query notification log", err.Error())
	}
	return count > 0, nil
}

// HasUserReceivedEmailToday reports whether the user got any email since the
// start of the current UTC day.
func (s *PostgresStore) HasUserReceivedEmailToday(ctx context.Context, userID string) (bool, error) {
	now := time.Now().UTC()
	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	var count int64
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM notification_log WHERE user_id = $1 AND sent_at >= $2`,
		userID, startOfDay).Scan(&count)
	if err != nil {
		return false, utils.NewAppError(utils.ErrCodeDatabase, "Failed to query notification log", err.Error())
	}
	return count > 0, nil
}

// RecordNotification appends one dedup journal row.
func (s *PostgresStore) RecordNotification(ctx context.Context, entry *models.NotificationLog) error {
	if entry.ID == "" {
		entry.ID = utils.GenerateID()
	}
	if entry.SentAt.IsZero() {
		entry.SentAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO notification_log (id, alert_id, user_id, kind, sent_at) VALUES ($1, $2, $3, $4, $5)`,
		entry.ID, entry.AlertID, entry.UserID, string(entry.Kind), entry.SentAt)
	if err != nil {
		return utils.NewAppError(utils.ErrCodeDatabase, "Failed to record notification", err.Error())
	}
	return nil
}

// ListUserIDs returns the IDs of all registered users.
func (s *PostgresStore) ListUserIDs(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id FROM users ORDER BY created_at`)
	if err != nil {
		return nil, utils.NewAppError(utils.ErrCodeDatabase, "Failed to list users", err.Error())
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, utils.NewAppError(utils.ErrCodeDatabase, "Failed to scan user ID", err.Error())
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// GetUserRecipient returns the user's email identity.
func (s *PostgresStore) GetUserRecipient(ctx context.Context, userID string) (*models.Recipient, error) {
	var recipient models.Recipient
	var name sql.NullString

	err := s.db.QueryRowContext(ctx,
		`SELECT email, display_name FROM users WHERE id = $1`, userID).
		Scan(&recipient.Email, &name)
	if err == sql.ErrNoRows {
		return nil, utils.NewAppError(utils.ErrCodeNotFound, "User not found", userID)
	}
	if err != nil {
		return nil, utils.NewAppError(utils.ErrCodeDatabase, "Failed to query user", err.Error())
	}

	if name.Valid {
		recipient.Name = name.String
	}
	return &recipient, nil
}

// GetAirportByIATA resolves an airport code to its city label.
func (s *PostgresStore) GetAirportByIATA(ctx context.Context, code string) (*models.Airport, error) {
	var airport models.Airport
	err := s.db.QueryRowContext(ctx,
		`SELECT iata, city FROM airports WHERE iata = $1`, code).
		Scan(&airport.IATA, &airport.City)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, utils.NewAppError(utils.ErrCodeDatabase, "Failed to query airport", err.Error())
	}
	return &airport, nil
}

// GetStorageStats returns storage statistics
func (s *PostgresStore) GetStorageStats(ctx context.Context) (*StorageStats, error) {
	stats := &StorageStats{}

	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM alerts`).Scan(&stats.TotalAlerts); err != nil {
		return nil, utils.NewAppError(utils.ErrCodeDatabase, "Failed to count alerts", err.Error())
	}
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM alerts WHERE status = $1`, string(models.AlertStatusActive)).
		Scan(&stats.ActiveAlerts); err != nil {
		return nil, utils.NewAppError(utils.ErrCodeDatabase, "Failed to count active alerts", err.Error())
	}
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM notification_log`).Scan(&stats.TotalNotifications); err != nil {
		return nil, utils.NewAppError(utils.ErrCodeDatabase, "Failed to count notifications", err.Error())
	}

	var last sql.NullTime
	if err := s.db.QueryRowContext(ctx, `SELECT MAX(sent_at) FROM notification_log`).Scan(&last); err == nil && last.Valid {
		stats.LastNotification = &last.Time
	}

	return stats, nil
}
