package search

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fmbento/flights-tracker/internal/models"
)

func datePtr(t time.Time) *time.Time { return &t }

func TestTranslateNilCriteriaDefaultsToTomorrow(t *testing.T) {
	now := time.Date(2026, 3, 10, 15, 30, 0, 0, time.UTC)

	query := Translate(models.AlertFilters{Origin: "SFO", Destination: "JFK"}, now)
	require.NotNil(t, query)

	tomorrow := time.Date(2026, 3, 11, 0, 0, 0, 0, time.UTC)
	require.Len(t, query.Segments, 1)
	assert.Equal(t, "SFO", query.Segments[0].Origin)
	assert.Equal(t, "JFK", query.Segments[0].Destination)
	assert.Equal(t, tomorrow, query.Segments[0].DepartureDate)
	assert.Equal(t, tomorrow, query.DateRange.From)
	assert.Equal(t, tomorrow, query.DateRange.To)
	assert.Equal(t, StopsAny, query.Stops)
	assert.Equal(t, CabinEconomy, query.Cabin)
	assert.Equal(t, 1, query.Adults)
}

func TestTranslateFullyElapsedWindowReturnsNil(t *testing.T) {
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	filters := models.AlertFilters{
		Origin:      "SFO",
		Destination: "JFK",
		Criteria: &models.AlertCriteria{
			DateFrom: datePtr(time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)),
			DateTo:   datePtr(time.Date(2026, 2, 28, 0, 0, 0, 0, time.UTC)),
		},
	}

	assert.Nil(t, Translate(filters, now))
}

func TestTranslatePastStartIsPushedToTomorrow(t *testing.T) {
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	filters := models.AlertFilters{
		Origin:      "SFO",
		Destination: "JFK",
		Criteria: &models.AlertCriteria{
			DateFrom: datePtr(time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)),
			DateTo:   datePtr(time.Date(2026, 3, 20, 0, 0, 0, 0, time.UTC)),
		},
	}

	query := Translate(filters, now)
	require.NotNil(t, query)

	tomorrow := time.Date(2026, 3, 11, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, tomorrow, query.DateRange.From)
	assert.Equal(t, time.Date(2026, 3, 20, 0, 0, 0, 0, time.UTC), query.DateRange.To)
}

func TestTranslateFutureStartIsKept(t *testing.T) {
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	start := time.Date(2026, 4, 5, 0, 0, 0, 0, time.UTC)

	filters := models.AlertFilters{
		Origin:      "LIS",
		Destination: "OPO",
		Criteria: &models.AlertCriteria{
			DateFrom: datePtr(start),
			DateTo:   datePtr(time.Date(2026, 4, 12, 0, 0, 0, 0, time.UTC)),
		},
	}

	query := Translate(filters, now)
	require.NotNil(t, query)
	assert.Equal(t, start, query.DateRange.From)
	assert.Equal(t, start, query.Segments[0].DepartureDate)
}

func TestTranslateDateToEndingTodayIsStillSearchable(t *testing.T) {
	now := time.Date(2026, 3, 10, 23, 0, 0, 0, time.UTC)

	filters := models.AlertFilters{
		Origin:      "SFO",
		Destination: "JFK",
		Criteria: &models.AlertCriteria{
			DateTo: datePtr(time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)),
		},
	}

	// A window ending today is not yet elapsed.
	assert.NotNil(t, Translate(filters, now))
}

func TestTranslateIsDeterministicForFixedClock(t *testing.T) {
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	filters := models.AlertFilters{Origin: "SFO", Destination: "JFK"}

	first := Translate(filters, now)
	second := Translate(filters, now)
	assert.Equal(t, first, second)
}

func TestTranslateEnumMapping(t *testing.T) {
	tests := []struct {
		name      string
		stops     models.StopTier
		cabin     models.CabinClass
		wantStops StopsFilter
		wantCabin Cabin
	}{
		{"nonstop economy", models.StopTierNonstop, models.CabinEconomy, StopsNonstop, CabinEconomy},
		{"one stop business", models.StopTierOneStop, models.CabinBusiness, StopsOneOrFewer, CabinBusiness},
		{"two stops first", models.StopTierTwoStops, models.CabinFirst, StopsTwoOrFewer, CabinFirst},
		{"any premium economy", models.StopTierAny, models.CabinPremiumEconomy, StopsAny, CabinPremiumEconomy},
		{"unknown values default permissively", models.StopTier("THREE_STOPS"), models.CabinClass("SUITE"), StopsAny, CabinEconomy},
		{"empty values default permissively", models.StopTier(""), models.CabinClass(""), StopsAny, CabinEconomy},
	}

	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			filters := models.AlertFilters{
				Origin:      "SFO",
				Destination: "JFK",
				Criteria: &models.AlertCriteria{
					Stops: tt.stops,
					Cabin: tt.cabin,
				},
			}
			query := Translate(filters, now)
			require.NotNil(t, query)
			assert.Equal(t, tt.wantStops, query.Stops)
			assert.Equal(t, tt.wantCabin, query.Cabin)
		})
	}
}

func TestTranslateCarriesTimeWindows(t *testing.T) {
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	departure := &models.TimeWindow{From: "06:00", To: "11:00"}
	arrival := &models.TimeWindow{From: "14:00", To: "22:30"}
	filters := models.AlertFilters{
		Origin:      "SFO",
		Destination: "JFK",
		Criteria: &models.AlertCriteria{
			DepartureWindow: departure,
			ArrivalWindow:   arrival,
		},
	}

	query := Translate(filters, now)
	require.NotNil(t, query)
	assert.Equal(t, departure, query.Segments[0].DepartureWindow)
	assert.Equal(t, arrival, query.Segments[0].ArrivalWindow)
}
