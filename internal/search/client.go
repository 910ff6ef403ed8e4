package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/fmbento/flights-tracker/internal/models"
	"github.com/fmbento/flights-tracker/pkg/utils"
)

// ClientConfig holds flight-search collaborator configuration
type ClientConfig struct {
	BaseURL        string        `json:"base_url"`
	APIKey         string        `json:"api_key"`
	RequestTimeout time.Duration `json:"request_timeout"`
	RetryAttempts  int           `json:"retry_attempts"`
	RetryDelay     time.Duration `json:"retry_delay"`
}

// SearchRecorder receives one observation per completed search request.
type SearchRecorder interface {
	RecordSearch(status string, resultCount int, duration time.Duration)
}

// Client calls the external flight-search API. It validates queries before
// sending and retries transient transport failures.
type Client struct {
	config     *ClientConfig
	httpClient *http.Client
	logger     *logrus.Logger
	recorder   SearchRecorder

	mu           sync.RWMutex
	requestCount uint64
	errorCount   uint64
	lastRequest  time.Time
}

// NewClient creates a new flight-search client
func NewClient(config *ClientConfig) *Client {
	return &Client{
		config: config,
		httpClient: &http.Client{
			Timeout: config.RequestTimeout,
		},
		logger: utils.GetLogger(),
	}
}

// WithMetrics attaches a search metrics recorder.
func (c *Client) WithMetrics(recorder SearchRecorder) *Client {
	c.recorder = recorder
	return c
}

var iataPattern = regexp.MustCompile(`^[A-Z]{3}$`)
var timeOfDayPattern = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d$`)

// ValidateQuery checks a query against the collaborator's input contract.
// Malformed queries produce a ValidationError with itemized field issues.
func ValidateQuery(query *Query) error {
	if query == nil {
		return utils.NewValidationError("query is nil", nil)
	}

	var issues []utils.FieldIssue

	if len(query.Segments) == 0 {
		issues = append(issues, utils.FieldIssue{Field: "segments", Message: "at least one segment is required"})
	}
	for i, segment := range query.Segments {
		prefix := fmt.Sprintf("segments[%d]", i)
		if !iataPattern.MatchString(segment.Origin) {
			issues = append(issues, utils.FieldIssue{Field: prefix + ".origin",
				Message: fmt.Sprintf("%q is not a valid IATA code", segment.Origin)})
		}
		if !iataPattern.MatchString(segment.Destination) {
			issues = append(issues, utils.FieldIssue{Field: prefix + ".destination",
				Message: fmt.Sprintf("%q is not a valid IATA code", segment.Destination)})
		}
		if segment.Origin == segment.Destination && segment.Origin != "" {
			issues = append(issues, utils.FieldIssue{Field: prefix, Message: "origin and destination must differ"})
		}
		if segment.DepartureDate.IsZero() {
			issues = append(issues, utils.FieldIssue{Field: prefix + ".departure_date", Message: "is required"})
		}
		issues = append(issues, validateWindow(prefix+".departure_window", segment.DepartureWindow)...)
		issues = append(issues, validateWindow(prefix+".arrival_window", segment.ArrivalWindow)...)
	}

	if query.DateRange.To.Before(query.DateRange.From) {
		issues = append(issues, utils.FieldIssue{Field: "date_range", Message: "to precedes from"})
	}
	if query.Adults <= 0 {
		issues = append(issues, utils.FieldIssue{Field: "adults", Message: "must be positive"})
	}

	if len(issues) > 0 {
		return utils.NewValidationError("search query failed validation", issues)
	}
	return nil
}

func validateWindow(field string, window *models.TimeWindow) []utils.FieldIssue {
	if window == nil {
		return nil
	}
	var issues []utils.FieldIssue
	if !timeOfDayPattern.MatchString(window.From) {
		issues = append(issues, utils.FieldIssue{Field: field + ".from",
			Message: fmt.Sprintf("%q is not a valid HH:MM time", window.From)})
	}
	if !timeOfDayPattern.MatchString(window.To) {
		issues = append(issues, utils.FieldIssue{Field: field + ".to",
			Message: fmt.Sprintf("%q is not a valid HH:MM time", window.To)})
	}
	return issues
}

type searchResponse struct {
	Flights []models.FlightOption `json:"flights"`
}

// SearchFlights validates the query and executes the search against the
// collaborator, retrying transient failures per the client configuration.
func (c *Client) SearchFlights(ctx context.Context, query *Query) ([]models.FlightOption, error) {
	if err := ValidateQuery(query); err != nil {
		return nil, err
	}

	start := time.Now()
	c.mu.Lock()
	c.requestCount++
	c.lastRequest = start
	c.mu.Unlock()

	attempts := c.config.RetryAttempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if attempt > 1 {
			select {
			case <-time.After(c.config.RetryDelay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		flights, err := c.doSearch(ctx, query)
		if err == nil {
			if c.recorder != nil {
				c.recorder.RecordSearch("success", len(flights), time.Since(start))
			}
			return flights, nil
		}

		lastErr = err
		c.recordError()
		c.logger.WithFields(logrus.Fields{
			"attempt": attempt,
			"route":   fmt.Sprintf("%s-%s", query.Segments[0].Origin, query.Segments[0].Destination),
			"error":   err,
		}).Warn("Flight search attempt failed")
	}

	if c.recorder != nil {
		c.recorder.RecordSearch("error", 0, time.Since(start))
	}
	return nil, utils.NewAppError(utils.ErrCodeSearch, "Flight search failed", lastErr.Error())
}

func (c *Client) doSearch(ctx context.Context, query *Query) ([]models.FlightOption, error) {
	body, err := json.Marshal(query)
	if err != nil {
		return nil, fmt.Errorf("failed to encode query: %w", err)
	}

	url := c.config.BaseURL + "/v1/flights/search"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.config.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.config.APIKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(payload))
	}

	var decoded searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return decoded.Flights, nil
}

func (c *Client) recordError() {
	c.mu.Lock()
	c.errorCount++
	c.mu.Unlock()
}

// GetStats returns client statistics
func (c *Client) GetStats() map[string]interface{} {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return map[string]interface{}{
		"request_count": c.requestCount,
		"error_count":   c.errorCount,
		"last_request":  c.lastRequest,
	}
}
