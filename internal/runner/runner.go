package runner

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/fmbento/flights-tracker/internal/alerts"
	"github.com/fmbento/flights-tracker/internal/content"
	"github.com/fmbento/flights-tracker/internal/models"
	"github.com/fmbento/flights-tracker/internal/notification"
	"github.com/fmbento/flights-tracker/internal/storage"
	"github.com/fmbento/flights-tracker/pkg/utils"
)

// Config holds runner configuration
type Config struct {
	DedupWindowHours int  `json:"dedup_window_hours"`
	SendEnabled      bool `json:"send_enabled"`
}

// RunRecorder receives run, blueprint and delivery observations.
type RunRecorder interface {
	RecordRun(trigger, status string, duration time.Duration)
	RecordBlueprintOutcome(outcome string)
	RecordNotificationSent(kind string, duration time.Duration)
	RecordNotificationFailure(kind, errorType string)
}

// Runner orchestrates one full notification pass for a user: load alerts,
// retire expired ones, dedup, search, compose, send, journal.
type Runner struct {
	config     *Config
	store      storage.Store
	lifecycle  *alerts.LifecycleManager
	processor  *alerts.Processor
	generator  *content.Generator
	dispatcher *notification.Dispatcher
	logger     *logrus.Logger
	recorder   RunRecorder

	// now is injectable so tests control the reference time.
	now func() time.Time

	mu           sync.RWMutex
	runs         uint64
	emailsSent   uint64
	lastRun      time.Time
	lastRunError string
}

// RunResult summarizes the outcome of a single pass.
type RunResult struct {
	UserID          string    `json:"user_id"`
	AlertsLoaded    int       `json:"alerts_loaded"`
	AlertsExpired   int       `json:"alerts_expired"`
	AlertsEligible  int       `json:"alerts_eligible"`
	AlertsWithFares int       `json:"alerts_with_fares"`
	EmailSent       bool      `json:"email_sent"`
	Skipped         bool      `json:"skipped"`
	SkipReason      string    `json:"skip_reason,omitempty"`
	StartedAt       time.Time `json:"started_at"`
	Duration        string    `json:"duration"`
}

// NewRunner creates a new runner
func NewRunner(
	config *Config,
	store storage.Store,
	lifecycle *alerts.LifecycleManager,
	processor *alerts.Processor,
	generator *content.Generator,
	dispatcher *notification.Dispatcher,
) *Runner {
	if config.DedupWindowHours <= 0 {
		config.DedupWindowHours = alerts.DefaultDedupWindowHours
	}

	return &Runner{
		config:     config,
		store:      store,
		lifecycle:  lifecycle,
		processor:  processor,
		generator:  generator,
		dispatcher: dispatcher,
		logger:     utils.GetLogger(),
		now:        time.Now,
	}
}

// WithClock overrides the runner's clock. Intended for tests.
func (r *Runner) WithClock(now func() time.Time) *Runner {
	r.now = now
	return r
}

// WithMetrics attaches a run metrics recorder.
func (r *Runner) WithMetrics(recorder RunRecorder) *Runner {
	r.recorder = recorder
	return r
}

// RunForUser executes one digest pass for a user. A user with no sendable
// alerts is a quiet success; a broken store or empty user ID is an error.
// force bypasses the once-per-day guard, not the per-alert dedup journal.
func (r *Runner) RunForUser(ctx context.Context, userID string, force bool) (result *RunResult, err error) {
	if userID == "" {
		return nil, utils.NewAppError(utils.ErrCodeValidation, "User ID is required", "")
	}

	start := r.now()
	result = &RunResult{UserID: userID, StartedAt: start}

	r.mu.Lock()
	r.runs++
	r.lastRun = start
	r.mu.Unlock()

	trigger := "standard"
	if force {
		trigger = "forced"
	}
	defer func() {
		if result != nil {
			result.Duration = time.Since(start).String()
		}
		if r.recorder != nil {
			status := "error"
			if err == nil {
				status = runStatus(result)
			}
			r.recorder.RecordRun(trigger, status, time.Since(start))
		}
	}()

	if !force {
		sentToday, err := r.store.HasUserReceivedEmailToday(ctx, userID)
		if err != nil {
			r.recordError(err)
			return nil, err
		}
		if sentToday {
			r.logger.WithField("user_id", userID).Info("User already received an email today, skipping run")
			result.Skipped = true
			result.SkipReason = "already_sent_today"
			return result, nil
		}
	}

	active := models.AlertStatusActive
	loaded, err := r.store.GetAlertsByUser(ctx, userID, &active)
	if err != nil {
		r.recordError(err)
		return nil, err
	}
	result.AlertsLoaded = len(loaded)

	stillActive, expired := alerts.PartitionByExpiry(loaded, r.now())
	result.AlertsExpired = len(expired)
	r.lifecycle.MarkExpired(ctx, expired)

	eligible := r.lifecycle.FilterUnprocessed(ctx, stillActive, r.config.DedupWindowHours)
	result.AlertsEligible = len(eligible)

	if len(eligible) == 0 {
		r.logger.WithField("user_id", userID).Info("No eligible alerts for this pass")
		return result, nil
	}

	paired := r.processor.ProcessAlerts(ctx, eligible)
	result.AlertsWithFares = len(paired)

	if len(paired) == 0 {
		r.logger.WithField("user_id", userID).Info("No alerts produced matching flights")
		return result, nil
	}

	payload := buildDailyPayload(paired, r.now())

	rendered := r.compose(ctx, payload)

	if !r.config.SendEnabled {
		r.logger.WithField("user_id", userID).Info("Sending disabled, dropping rendered email")
		result.Skipped = true
		result.SkipReason = "sending_disabled"
		return result, nil
	}

	recipient, err := r.store.GetUserRecipient(ctx, userID)
	if err != nil {
		r.recordError(err)
		return nil, err
	}

	sendStart := time.Now()
	if err := r.dispatcher.Send(ctx, *recipient, rendered); err != nil {
		if r.recorder != nil {
			r.recorder.RecordNotificationFailure(string(payload.Kind()), "transport")
		}
		r.recordError(err)
		return nil, err
	}
	result.EmailSent = true
	if r.recorder != nil {
		r.recorder.RecordNotificationSent(string(payload.Kind()), time.Since(sendStart))
	}

	r.mu.Lock()
	r.emailsSent++
	r.mu.Unlock()

	r.journalNotifications(ctx, userID, payload.Kind(), paired)

	r.logger.WithFields(logrus.Fields{
		"user_id":  userID,
		"alerts":   len(paired),
		"duration": time.Since(start),
	}).Info("Notification run completed")

	return result, nil
}

// SendPriceDrop composes and delivers a one-shot price-drop email for a
// single alert. The per-alert dedup journal still applies so a dropping fare
// cannot re-alert within the window.
func (r *Runner) SendPriceDrop(ctx context.Context, payload models.PriceDropAlert) error {
	userID := payload.Alert.UserID
	if userID == "" {
		return utils.NewAppError(utils.ErrCodeValidation, "Alert has no user ID", payload.Alert.ID)
	}

	processed, err := r.store.HasAlertBeenProcessedRecently(ctx, payload.Alert.ID, r.config.DedupWindowHours)
	if err != nil {
		r.recordError(err)
		return err
	}
	if processed {
		r.logger.WithField("alert_id", payload.Alert.ID).Info("Alert already notified within window, skipping price drop")
		return nil
	}

	rendered := r.compose(ctx, payload)

	if !r.config.SendEnabled {
		r.logger.WithField("alert_id", payload.Alert.ID).Info("Sending disabled, dropping price-drop email")
		return nil
	}

	recipient, err := r.store.GetUserRecipient(ctx, userID)
	if err != nil {
		r.recordError(err)
		return err
	}

	sendStart := time.Now()
	if err := r.dispatcher.Send(ctx, *recipient, rendered); err != nil {
		if r.recorder != nil {
			r.recorder.RecordNotificationFailure(string(payload.Kind()), "transport")
		}
		r.recordError(err)
		return err
	}
	if r.recorder != nil {
		r.recorder.RecordNotificationSent(string(payload.Kind()), time.Since(sendStart))
	}

	r.mu.Lock()
	r.emailsSent++
	r.mu.Unlock()

	r.journalNotifications(ctx, userID, payload.Kind(),
		[]models.AlertWithFlights{{Alert: payload.Alert, Flights: payload.Flights}})
	return nil
}

// compose builds the summary context, attempts blueprint generation, and
// renders the final email. Never fails: the fallback template always renders.
func (r *Runner) compose(ctx context.Context, payload models.EmailPayload) models.RenderedEmail {
	sc := content.BuildContext(payload)
	content.DecorateLabels(ctx, sc, r.store)

	blueprint := r.generator.Attempt(ctx, sc)
	if r.recorder != nil {
		outcome := "fallback"
		if blueprint != nil {
			outcome = "generated"
		}
		r.recorder.RecordBlueprintOutcome(outcome)
	}
	return content.Render(payload, blueprint)
}

// journalNotifications records one dedup row per alert included in the sent
// email. Journal failures are logged, not propagated; the email already went
// out and the worst case is an earlier-than-intended repeat.
func (r *Runner) journalNotifications(ctx context.Context, userID string, kind models.PayloadKind, paired []models.AlertWithFlights) {
	sentAt := r.now().UTC()
	for _, pair := range paired {
		entry := &models.NotificationLog{
			AlertID: pair.Alert.ID,
			UserID:  userID,
			Kind:    kind,
			SentAt:  sentAt,
		}
		if err := r.store.RecordNotification(ctx, entry); err != nil {
			r.logger.WithFields(logrus.Fields{
				"alert_id": pair.Alert.ID,
				"error":    err,
			}).Warn("Failed to journal notification")
		}
	}
}

// buildDailyPayload wraps the processed pairs into the digest payload.
func buildDailyPayload(paired []models.AlertWithFlights, now time.Time) models.DailyPriceUpdate {
	summaries := make([]models.AlertSummary, 0, len(paired))
	for _, pair := range paired {
		summaries = append(summaries, models.AlertSummary{
			Alert:       pair.Alert,
			Flights:     pair.Flights,
			GeneratedAt: now,
		})
	}
	return models.DailyPriceUpdate{
		SummaryDate: now,
		Alerts:      summaries,
	}
}

// runStatus labels a successful pass for metrics.
func runStatus(result *RunResult) string {
	switch {
	case result.Skipped:
		return "skipped"
	case result.EmailSent:
		return "sent"
	default:
		return "empty"
	}
}

func (r *Runner) recordError(err error) {
	r.mu.Lock()
	r.lastRunError = err.Error()
	r.mu.Unlock()
}

// GetStats returns runner statistics
func (r *Runner) GetStats() map[string]interface{} {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stats := map[string]interface{}{
		"runs":        r.runs,
		"emails_sent": r.emailsSent,
	}
	if !r.lastRun.IsZero() {
		stats["last_run"] = r.lastRun
	}
	if r.lastRunError != "" {
		stats["last_run_error"] = r.lastRunError
	}
	return stats
}
