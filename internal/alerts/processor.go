package alerts

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/fmbento/flights-tracker/internal/models"
	"github.com/fmbento/flights-tracker/internal/search"
	"github.com/fmbento/flights-tracker/pkg/utils"
)

// DefaultMaxFlightsPerAlert caps how many collaborator-returned candidates
// are considered per alert.
const DefaultMaxFlightsPerAlert = 5

// ProcessorConfig holds batch processor configuration
type ProcessorConfig struct {
	MaxFlightsPerAlert    int `json:"max_flights_per_alert"`
	MaxConcurrentSearches int `json:"max_concurrent_searches"`
}

// AlertRecorder receives one observation per processed alert.
type AlertRecorder interface {
	RecordAlertProcessed(alertType, outcome string, duration time.Duration)
}

// Processor fetches and filters flights for a batch of alerts. Per-alert
// searches fan out concurrently; one alert's failure never fails the batch.
type Processor struct {
	searcher search.Searcher
	config   *ProcessorConfig
	logger   *logrus.Logger
	recorder AlertRecorder

	// now is injectable so date-window logic stays deterministic in tests.
	now func() time.Time

	mu             sync.RWMutex
	batchCount     uint64
	alertsSearched uint64
	searchFailures uint64
}

// NewProcessor creates a new alert batch processor
func NewProcessor(searcher search.Searcher, config *ProcessorConfig) *Processor {
	if config.MaxFlightsPerAlert <= 0 {
		config.MaxFlightsPerAlert = DefaultMaxFlightsPerAlert
	}
	if config.MaxConcurrentSearches <= 0 {
		config.MaxConcurrentSearches = 5
	}

	return &Processor{
		searcher: searcher,
		config:   config,
		logger:   utils.GetLogger(),
		now:      time.Now,
	}
}

// WithClock overrides the processor's clock. Intended for tests.
func (p *Processor) WithClock(now func() time.Time) *Processor {
	p.now = now
	return p
}

// WithMetrics attaches an alert metrics recorder.
func (p *Processor) WithMetrics(recorder AlertRecorder) *Processor {
	p.recorder = recorder
	return p
}

// ProcessAlerts fetches flights for every alert concurrently and pairs each
// alert with its filtered candidates. Alerts whose window elapsed mid-batch,
// whose search failed, or whose results all got filtered out produce no
// entry. Output order follows input order, not completion order.
func (p *Processor) ProcessAlerts(ctx context.Context, batch []models.Alert) []models.AlertWithFlights {
	if len(batch) == 0 {
		return nil
	}

	p.mu.Lock()
	p.batchCount++
	p.mu.Unlock()

	p.logRouteGroups(batch)

	results := make([]*models.AlertWithFlights, len(batch))
	semaphore := make(chan struct{}, p.config.MaxConcurrentSearches)

	var wg sync.WaitGroup
	for i, alert := range batch {
		wg.Add(1)
		go func(idx int, a models.Alert) {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					p.logger.WithFields(logrus.Fields{
						"alert_id": a.ID,
						"panic":    r,
					}).Error("Alert processing panicked")
				}
			}()
			semaphore <- struct{}{}
			defer func() { <-semaphore }()

			results[idx] = p.processAlert(ctx, a)
		}(i, alert)
	}
	wg.Wait()

	paired := make([]models.AlertWithFlights, 0, len(batch))
	for _, result := range results {
		if result != nil {
			paired = append(paired, *result)
		}
	}

	p.logger.WithFields(logrus.Fields{
		"alerts":       len(batch),
		"with_flights": len(paired),
	}).Info("Alert batch processed")

	return paired
}

// processAlert handles a single alert end to end and returns nil when the
// alert yields nothing for this pass.
func (p *Processor) processAlert(ctx context.Context, alert models.Alert) *models.AlertWithFlights {
	start := time.Now()
	outcome := "matched"
	defer func() {
		if p.recorder != nil {
			p.recorder.RecordAlertProcessed(string(alert.Type), outcome, time.Since(start))
		}
	}()

	query := search.Translate(alert.Filters, p.now())
	if query == nil {
		p.logger.WithField("alert_id", alert.ID).Info("Alert date window fully elapsed, skipping")
		outcome = "window_elapsed"
		return nil
	}

	p.mu.Lock()
	p.alertsSearched++
	p.mu.Unlock()

	flights, err := p.searcher.SearchFlights(ctx, query)
	if err != nil {
		p.recordSearchFailure()
		p.logger.WithFields(logrus.Fields{
			"alert_id": alert.ID,
			"route":    alert.RouteKey(),
			"error":    err,
		}).Error("Flight search failed for alert")
		outcome = "search_failed"
		return nil
	}

	// The cap applies to the collaborator's raw candidates before criteria
	// filtering; a matching flight ranked below the cap is dropped. Changing
	// this to filter-then-cap changes result semantics.
	if len(flights) > p.config.MaxFlightsPerAlert {
		flights = flights[:p.config.MaxFlightsPerAlert]
	}

	flights = search.FilterFlights(flights, alert.Filters.Criteria)

	if len(flights) == 0 {
		p.logger.WithField("alert_id", alert.ID).Debug("No flights matched alert criteria")
		outcome = "no_matches"
		return nil
	}

	return &models.AlertWithFlights{Alert: alert, Flights: flights}
}

// logRouteGroups records route grouping for observability. Grouping does not
// change fetch behavior: each alert still issues its own search.
func (p *Processor) logRouteGroups(batch []models.Alert) {
	groups := make(map[string]int, len(batch))
	for _, alert := range batch {
		groups[alert.RouteKey()]++
	}

	if p.logger.IsLevelEnabled(logrus.DebugLevel) {
		for route, count := range groups {
			p.logger.WithFields(logrus.Fields{
				"route":  route,
				"alerts": count,
			}).Debug("Route group")
		}
	}
	p.logger.WithFields(logrus.Fields{
		"alerts": len(batch),
		"routes": len(groups),
	}).Info("Processing alert batch")
}

func (p *Processor) recordSearchFailure() {
	p.mu.Lock()
	p.searchFailures++
	p.mu.Unlock()
}

// GetStats returns processor statistics
func (p *Processor) GetStats() map[string]interface{} {
	p.mu.RLock()
	defer p.mu.RUnlock()

	return map[string]interface{}{
		"batch_count":     p.batchCount,
		"alerts_searched": p.alertsSearched,
		"search_failures": p.searchFailures,
	}
}
