package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fmbento/flights-tracker/internal/models"
)

func flight(price float64, stops int, airlines ...string) models.FlightOption {
	legs := make([]models.Leg, 0, len(airlines))
	for _, code := range airlines {
		legs = append(legs, models.Leg{AirlineCode: code})
	}
	return models.FlightOption{
		TotalPrice: price,
		Currency:   "USD",
		Slices:     []models.Slice{{Stops: stops, Legs: legs}},
	}
}

func TestFilterFlightsNilCriteriaKeepsEverything(t *testing.T) {
	flights := []models.FlightOption{flight(100, 0, "UA"), flight(900, 2, "DL")}

	assert.Equal(t, flights, FilterFlights(flights, nil))
}

func TestFilterFlightsPriceCeiling(t *testing.T) {
	flights := []models.FlightOption{
		flight(250, 0, "UA"),
		flight(300, 0, "UA"),
		flight(300.01, 0, "UA"),
	}
	criteria := &models.AlertCriteria{
		PriceLimit: &models.PriceLimit{Amount: 300, Currency: "USD"},
	}

	filtered := FilterFlights(flights, criteria)
	require.Len(t, filtered, 2)
	assert.Equal(t, 250.0, filtered[0].TotalPrice)
	// A fare exactly at the limit is kept; only strictly-above is dropped.
	assert.Equal(t, 300.0, filtered[1].TotalPrice)
}

func TestFilterFlightsAirlineAllowList(t *testing.T) {
	flights := []models.FlightOption{
		flight(100, 0, "UA"),
		flight(110, 0, "DL"),
		flight(120, 1, "AA", "UA"),
	}
	criteria := &models.AlertCriteria{Airlines: []string{"ua"}}

	filtered := FilterFlights(flights, criteria)
	require.Len(t, filtered, 2)
	// Case-insensitive, and any matching leg qualifies the itinerary.
	assert.Equal(t, 100.0, filtered[0].TotalPrice)
	assert.Equal(t, 120.0, filtered[1].TotalPrice)
}

func TestFilterFlightsStopsCeiling(t *testing.T) {
	flights := []models.FlightOption{
		flight(100, 0, "UA"),
		flight(90, 1, "UA"),
		flight(80, 2, "UA"),
	}

	nonstop := FilterFlights(flights, &models.AlertCriteria{Stops: models.StopTierNonstop})
	require.Len(t, nonstop, 1)
	assert.Equal(t, 100.0, nonstop[0].TotalPrice)

	oneStop := FilterFlights(flights, &models.AlertCriteria{Stops: models.StopTierOneStop})
	assert.Len(t, oneStop, 2)

	any := FilterFlights(flights, &models.AlertCriteria{Stops: models.StopTierAny})
	assert.Len(t, any, 3)

	unknown := FilterFlights(flights, &models.AlertCriteria{Stops: models.StopTier("FOUR_STOPS")})
	assert.Len(t, unknown, 3)
}

func TestFilterFlightsEverySliceMustSatisfyStops(t *testing.T) {
	roundTrip := models.FlightOption{
		TotalPrice: 400,
		Slices: []models.Slice{
			{Stops: 0, Legs: []models.Leg{{AirlineCode: "UA"}}},
			{Stops: 1, Legs: []models.Leg{{AirlineCode: "UA"}}},
		},
	}

	filtered := FilterFlights([]models.FlightOption{roundTrip},
		&models.AlertCriteria{Stops: models.StopTierNonstop})
	assert.Empty(t, filtered)
}

func TestFilterFlightsPredicatesAreConjunctive(t *testing.T) {
	flights := []models.FlightOption{
		flight(250, 0, "UA"), // passes all three
		flight(250, 0, "DL"), // wrong airline
		flight(250, 1, "UA"), // too many stops
		flight(350, 0, "UA"), // too expensive
	}
	criteria := &models.AlertCriteria{
		PriceLimit: &models.PriceLimit{Amount: 300, Currency: "USD"},
		Airlines:   []string{"UA"},
		Stops:      models.StopTierNonstop,
	}

	filtered := FilterFlights(flights, criteria)
	require.Len(t, filtered, 1)
	assert.Equal(t, 250.0, filtered[0].TotalPrice)
	assert.Equal(t, "UA", filtered[0].Slices[0].Legs[0].AirlineCode)
}

func TestFilterFlightsPreservesInputOrder(t *testing.T) {
	flights := []models.FlightOption{
		flight(300, 0, "UA"),
		flight(100, 0, "UA"),
		flight(200, 0, "UA"),
	}

	filtered := FilterFlights(flights, &models.AlertCriteria{
		PriceLimit: &models.PriceLimit{Amount: 500, Currency: "USD"},
	})
	require.Len(t, filtered, 3)
	assert.Equal(t, 300.0, filtered[0].TotalPrice)
	assert.Equal(t, 100.0, filtered[1].TotalPrice)
	assert.Equal(t, 200.0, filtered[2].TotalPrice)
}
