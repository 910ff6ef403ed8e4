package search

import (
	"context"
	"time"

	"github.com/fmbento/flights-tracker/internal/models"
)

// StopsFilter is the search collaborator's stops enumeration.
type StopsFilter string

const (
	StopsAny        StopsFilter = "any"
	StopsNonstop    StopsFilter = "nonstop"
	StopsOneOrFewer StopsFilter = "one_or_fewer"
	StopsTwoOrFewer StopsFilter = "two_or_fewer"
)

// Cabin is the search collaborator's cabin enumeration.
type Cabin string

const (
	CabinEconomy        Cabin = "economy"
	CabinPremiumEconomy Cabin = "premium_economy"
	CabinBusiness       Cabin = "business"
	CabinFirst          Cabin = "first"
)

// Segment is one directional leg request of a search query.
type Segment struct {
	Origin          string             `json:"origin"`
	Destination     string             `json:"destination"`
	DepartureDate   time.Time          `json:"departure_date"`
	DepartureWindow *models.TimeWindow `json:"departure_window,omitempty"`
	ArrivalWindow   *models.TimeWindow `json:"arrival_window,omitempty"`
}

// DateRange bounds the overall query window.
type DateRange struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

// Query is a validated one-way flight search request for the collaborator.
type Query struct {
	Segments  []Segment   `json:"segments"`
	DateRange DateRange   `json:"date_range"`
	Stops     StopsFilter `json:"stops"`
	Cabin     Cabin       `json:"cabin"`
	Adults    int         `json:"adults"`
}

// Searcher is the flight-search collaborator contract.
type Searcher interface {
	SearchFlights(ctx context.Context, query *Query) ([]models.FlightOption, error)
}
