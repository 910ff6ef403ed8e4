package models

import (
	"time"
)

// FlightOption is a single priced itinerary returned by the search
// collaborator. Produced fresh per search call and never persisted.
type FlightOption struct {
	TotalPrice float64 `json:"total_price"`
	Currency   string  `json:"currency"`
	Slices     []Slice `json:"slices"`
}

// Slice is one directional portion of an itinerary (outbound or return),
// composed of one or more legs.
type Slice struct {
	Stops           int   `json:"stops"`
	DurationMinutes int   `json:"duration_minutes"`
	Legs            []Leg `json:"legs"`
}

// Leg is a single flight segment within a slice.
type Leg struct {
	AirlineCode      string    `json:"airline_code"`
	DepartureAirport string    `json:"departure_airport"`
	DepartureTime    time.Time `json:"departure_time"`
	ArrivalAirport   string    `json:"arrival_airport"`
	ArrivalTime      time.Time `json:"arrival_time"`
}

// IsNonstop reports whether every slice of the itinerary has zero stops.
func (f *FlightOption) IsNonstop() bool {
	for _, slice := range f.Slices {
		if slice.Stops > 0 {
			return false
		}
	}
	return len(f.Slices) > 0
}

// AlertWithFlights pairs one alert with its matching flights for a single
// processing pass. Ephemeral: built by the batch processor, consumed by the
// content pipeline, discarded after the notification attempt.
type AlertWithFlights struct {
	Alert   Alert          `json:"alert"`
	Flights []FlightOption `json:"flights"`
}
