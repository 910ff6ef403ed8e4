package content

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fmbento/flights-tracker/internal/models"
)

func contextAlert(id, origin, destination string) models.Alert {
	return models.Alert{
		ID:     id,
		UserID: "user-1",
		Filters: models.AlertFilters{
			Origin:      origin,
			Destination: destination,
		},
	}
}

func nonstopFlight(price float64) models.FlightOption {
	return models.FlightOption{
		TotalPrice: price,
		Currency:   "USD",
		Slices: []models.Slice{{
			Stops:           0,
			DurationMinutes: 300,
			Legs:            []models.Leg{{AirlineCode: "UA"}},
		}},
	}
}

func oneStopFlight(price float64) models.FlightOption {
	return models.FlightOption{
		TotalPrice: price,
		Currency:   "USD",
		Slices: []models.Slice{{
			Stops: 1,
			Legs:  []models.Leg{{AirlineCode: "DL"}},
		}},
	}
}

func TestBuildContextDailyAggregates(t *testing.T) {
	payload := models.DailyPriceUpdate{
		SummaryDate: time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC),
		Alerts: []models.AlertSummary{
			{
				Alert:   contextAlert("a", "SFO", "JFK"),
				Flights: []models.FlightOption{nonstopFlight(250), oneStopFlight(180)},
			},
			{
				Alert:   contextAlert("b", "LIS", "OPO"),
				Flights: []models.FlightOption{nonstopFlight(45)},
			},
		},
	}

	sc := BuildContext(payload)

	assert.Equal(t, models.PayloadDailyPriceUpdate, sc.Kind)
	assert.Equal(t, "2026-03-10", sc.SummaryDate)
	assert.Equal(t, 3, sc.TotalFlights)
	assert.Equal(t, 2, sc.NonstopCount)
	assert.Equal(t, []string{"LIS-OPO", "SFO-JFK"}, sc.UniqueRoutes)
	require.NotNil(t, sc.Cheapest)
	assert.Equal(t, 45.0, sc.Cheapest.Price)
	assert.Nil(t, sc.PriceDelta)
	assert.NotEmpty(t, sc.Highlights)
}

func TestBuildContextCapsFlightsPerAlert(t *testing.T) {
	flights := make([]models.FlightOption, 0, MaxFlightsPerAlertContext+3)
	for i := 0; i < MaxFlightsPerAlertContext+3; i++ {
		flights = append(flights, nonstopFlight(float64(100+i)))
	}

	payload := models.DailyPriceUpdate{
		SummaryDate: time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC),
		Alerts: []models.AlertSummary{{
			Alert:   contextAlert("a", "SFO", "JFK"),
			Flights: flights,
		}},
	}

	sc := BuildContext(payload)

	require.Len(t, sc.Alerts, 1)
	assert.Len(t, sc.Alerts[0].Flights, MaxFlightsPerAlertContext)
	// Aggregates still reflect the full list, only the prompt view is capped.
	assert.Equal(t, len(flights), sc.TotalFlights)
}

func TestBuildContextPriceDropDelta(t *testing.T) {
	payload := models.PriceDropAlert{
		Alert:          contextAlert("a", "SFO", "JFK"),
		Flights:        []models.FlightOption{nonstopFlight(240)},
		DetectedAt:     time.Date(2026, 3, 10, 14, 0, 0, 0, time.UTC),
		PreviousLowest: &models.PriceLimit{Amount: 300, Currency: "USD"},
		NewLowest:      &models.PriceLimit{Amount: 240, Currency: "USD"},
	}

	sc := BuildContext(payload)

	assert.Equal(t, models.PayloadPriceDropAlert, sc.Kind)
	require.NotNil(t, sc.PriceDelta)
	assert.Equal(t, 300.0, sc.PriceDelta.Previous)
	assert.Equal(t, 240.0, sc.PriceDelta.New)
	assert.Equal(t, 60.0, sc.PriceDelta.Savings)
	assert.Equal(t, 20.0, sc.PriceDelta.SavingsPercent)
}

func TestBuildContextPriceDropWithoutHistory(t *testing.T) {
	payload := models.PriceDropAlert{
		Alert:      contextAlert("a", "SFO", "JFK"),
		Flights:    []models.FlightOption{nonstopFlight(240)},
		DetectedAt: time.Date(2026, 3, 10, 14, 0, 0, 0, time.UTC),
	}

	sc := BuildContext(payload)
	assert.Nil(t, sc.PriceDelta)
}

type fakeAirportLookup struct {
	airports map[string]*models.Airport
	err      error
	calls    int
}

func (f *fakeAirportLookup) GetAirportByIATA(ctx context.Context, code string) (*models.Airport, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.airports[code], nil
}

func TestDecorateLabelsResolvesCities(t *testing.T) {
	sc := BuildContext(models.DailyPriceUpdate{
		SummaryDate: time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC),
		Alerts: []models.AlertSummary{{
			Alert:   contextAlert("a", "SFO", "JFK"),
			Flights: []models.FlightOption{nonstopFlight(250)},
		}},
	})

	lookup := &fakeAirportLookup{airports: map[string]*models.Airport{
		"SFO": {City: "San Francisco", IATA: "SFO"},
		"JFK": {City: "New York", IATA: "JFK"},
	}}

	DecorateLabels(context.Background(), sc, lookup)

	assert.Equal(t, "San Francisco (SFO) → New York (JFK)", sc.Alerts[0].RouteLabel)
}

func TestDecorateLabelsKeepsCodesOnFailure(t *testing.T) {
	sc := BuildContext(models.DailyPriceUpdate{
		SummaryDate: time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC),
		Alerts: []models.AlertSummary{{
			Alert:   contextAlert("a", "SFO", "JFK"),
			Flights: []models.FlightOption{nonstopFlight(250)},
		}},
	})
	original := sc.Alerts[0].RouteLabel

	DecorateLabels(context.Background(), sc, &fakeAirportLookup{err: errors.New("down")})

	assert.Equal(t, original, sc.Alerts[0].RouteLabel)
}

func TestDecorateLabelsCachesLookups(t *testing.T) {
	sc := BuildContext(models.DailyPriceUpdate{
		SummaryDate: time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC),
		Alerts: []models.AlertSummary{
			{Alert: contextAlert("a", "SFO", "JFK"), Flights: []models.FlightOption{nonstopFlight(250)}},
			{Alert: contextAlert("b", "SFO", "JFK"), Flights: []models.FlightOption{nonstopFlight(260)}},
		},
	})

	lookup := &fakeAirportLookup{airports: map[string]*models.Airport{
		"SFO": {City: "San Francisco", IATA: "SFO"},
		"JFK": {City: "New York", IATA: "JFK"},
	}}

	DecorateLabels(context.Background(), sc, lookup)

	assert.Equal(t, 2, lookup.calls)
}

func TestDecorateLabelsNilLookupIsNoop(t *testing.T) {
	sc := BuildContext(models.DailyPriceUpdate{
		SummaryDate: time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC),
	})

	DecorateLabels(context.Background(), sc, nil)
}
