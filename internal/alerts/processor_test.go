package alerts

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fmbento/flights-tracker/internal/models"
	"github.com/fmbento/flights-tracker/internal/search"
)

type fakeSearcher struct {
	mu       sync.Mutex
	flights  map[string][]models.FlightOption
	failures map[string]error
	calls    int
}

func newFakeSearcher() *fakeSearcher {
	return &fakeSearcher{
		flights:  make(map[string][]models.FlightOption),
		failures: make(map[string]error),
	}
}

func (f *fakeSearcher) SearchFlights(ctx context.Context, query *search.Query) ([]models.FlightOption, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++

	route := query.Segments[0].Origin + "-" + query.Segments[0].Destination
	if err := f.failures[route]; err != nil {
		return nil, err
	}
	return f.flights[route], nil
}

func priced(prices ...float64) []models.FlightOption {
	flights := make([]models.FlightOption, 0, len(prices))
	for _, price := range prices {
		flights = append(flights, models.FlightOption{
			TotalPrice: price,
			Currency:   "USD",
			Slices: []models.Slice{{
				Stops: 0,
				Legs:  []models.Leg{{AirlineCode: "UA"}},
			}},
		})
	}
	return flights
}

func dailyAlert(id, origin, destination string, criteria *models.AlertCriteria) models.Alert {
	return models.Alert{
		ID:     id,
		UserID: "user-1",
		Type:   models.AlertTypeDaily,
		Status: models.AlertStatusActive,
		Filters: models.AlertFilters{
			Origin:      origin,
			Destination: destination,
			Criteria:    criteria,
		},
	}
}

func fixedClock() func() time.Time {
	return func() time.Time {
		return time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	}
}

func TestProcessAlertsPairsAlertsWithFlights(t *testing.T) {
	searcher := newFakeSearcher()
	searcher.flights["SFO-JFK"] = priced(250, 310)
	searcher.flights["LIS-OPO"] = priced(45)

	processor := NewProcessor(searcher, &ProcessorConfig{}).WithClock(fixedClock())

	batch := []models.Alert{
		dailyAlert("alert-1", "SFO", "JFK", nil),
		dailyAlert("alert-2", "LIS", "OPO", nil),
	}

	paired := processor.ProcessAlerts(context.Background(), batch)

	require.Len(t, paired, 2)
	assert.Equal(t, "alert-1", paired[0].Alert.ID)
	assert.Len(t, paired[0].Flights, 2)
	assert.Equal(t, "alert-2", paired[1].Alert.ID)
	assert.Len(t, paired[1].Flights, 1)
}

func TestProcessAlertsOneFailureDoesNotFailBatch(t *testing.T) {
	searcher := newFakeSearcher()
	searcher.flights["SFO-JFK"] = priced(250)
	searcher.failures["LIS-OPO"] = errors.New("upstream down")
	searcher.flights["LHR-CDG"] = priced(99)

	processor := NewProcessor(searcher, &ProcessorConfig{}).WithClock(fixedClock())

	batch := []models.Alert{
		dailyAlert("a", "SFO", "JFK", nil),
		dailyAlert("b", "LIS", "OPO", nil),
		dailyAlert("c", "LHR", "CDG", nil),
	}

	paired := processor.ProcessAlerts(context.Background(), batch)

	require.Len(t, paired, 2)
	assert.Equal(t, "a", paired[0].Alert.ID)
	assert.Equal(t, "c", paired[1].Alert.ID)

	stats := processor.GetStats()
	assert.Equal(t, uint64(1), stats["search_failures"])
}

func TestProcessAlertsCapsBeforeFiltering(t *testing.T) {
	searcher := newFakeSearcher()
	// Six candidates; the two cheapest matching fares sit beyond the cap.
	searcher.flights["SFO-JFK"] = priced(400, 410, 420, 430, 440, 150)

	processor := NewProcessor(searcher, &ProcessorConfig{MaxFlightsPerAlert: 5}).
		WithClock(fixedClock())

	criteria := &models.AlertCriteria{
		PriceLimit: &models.PriceLimit{Amount: 300, Currency: "USD"},
	}
	paired := processor.ProcessAlerts(context.Background(),
		[]models.Alert{dailyAlert("a", "SFO", "JFK", criteria)})

	// The 150 fare is ranked sixth and never survives the cap, so nothing
	// matches the price limit.
	assert.Empty(t, paired)
}

func TestProcessAlertsFiltersWithinCap(t *testing.T) {
	searcher := newFakeSearcher()
	searcher.flights["SFO-JFK"] = priced(250, 400, 280, 500, 310)

	processor := NewProcessor(searcher, &ProcessorConfig{MaxFlightsPerAlert: 5}).
		WithClock(fixedClock())

	criteria := &models.AlertCriteria{
		PriceLimit: &models.PriceLimit{Amount: 300, Currency: "USD"},
	}
	paired := processor.ProcessAlerts(context.Background(),
		[]models.Alert{dailyAlert("a", "SFO", "JFK", criteria)})

	require.Len(t, paired, 1)
	require.Len(t, paired[0].Flights, 2)
	assert.Equal(t, 250.0, paired[0].Flights[0].TotalPrice)
	assert.Equal(t, 280.0, paired[0].Flights[1].TotalPrice)
}

func TestProcessAlertsSkipsElapsedWindows(t *testing.T) {
	searcher := newFakeSearcher()
	processor := NewProcessor(searcher, &ProcessorConfig{}).WithClock(fixedClock())

	past := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	criteria := &models.AlertCriteria{DateTo: &past}

	paired := processor.ProcessAlerts(context.Background(),
		[]models.Alert{dailyAlert("stale", "SFO", "JFK", criteria)})

	assert.Empty(t, paired)
	assert.Zero(t, searcher.calls)
}

func TestProcessAlertsDropsAlertsWithNoMatches(t *testing.T) {
	searcher := newFakeSearcher()
	searcher.flights["SFO-JFK"] = nil

	processor := NewProcessor(searcher, &ProcessorConfig{}).WithClock(fixedClock())

	paired := processor.ProcessAlerts(context.Background(),
		[]models.Alert{dailyAlert("empty", "SFO", "JFK", nil)})

	assert.Empty(t, paired)
}

func TestProcessAlertsPreservesInputOrder(t *testing.T) {
	searcher := newFakeSearcher()
	routes := []string{"AAA-BBB", "CCC-DDD", "EEE-FFF", "GGG-HHH"}
	for _, route := range routes {
		searcher.flights[route] = priced(100)
	}

	processor := NewProcessor(searcher, &ProcessorConfig{MaxConcurrentSearches: 2}).
		WithClock(fixedClock())

	batch := []models.Alert{
		dailyAlert("1", "AAA", "BBB", nil),
		dailyAlert("2", "CCC", "DDD", nil),
		dailyAlert("3", "EEE", "FFF", nil),
		dailyAlert("4", "GGG", "HHH", nil),
	}

	paired := processor.ProcessAlerts(context.Background(), batch)

	require.Len(t, paired, 4)
	for i, pair := range paired {
		assert.Equal(t, batch[i].ID, pair.Alert.ID)
	}
}

func TestProcessAlertsEmptyBatch(t *testing.T) {
	processor := NewProcessor(newFakeSearcher(), &ProcessorConfig{})
	assert.Nil(t, processor.ProcessAlerts(context.Background(), nil))
}
