package models

import (
	"time"
)

// AlertType defines the kind of alert
type AlertType string

const (
	AlertTypeDaily   AlertType = "daily"
	AlertTypeOneShot AlertType = "one_shot"
)

// AlertStatus defines the lifecycle state of an alert
type AlertStatus string

const (
	AlertStatusActive    AlertStatus = "active"
	AlertStatusCompleted AlertStatus = "completed"
	AlertStatusDeleted   AlertStatus = "deleted"
)

// StopTier is the abstract max-stops tier stored on an alert
type StopTier string

const (
	StopTierAny      StopTier = "ANY"
	StopTierNonstop  StopTier = "NONSTOP"
	StopTierOneStop  StopTier = "ONE_STOP"
	StopTierTwoStops StopTier = "TWO_STOPS"
)

// CabinClass is the abstract cabin class stored on an alert
type CabinClass string

const (
	CabinEconomy        CabinClass = "ECONOMY"
	CabinPremiumEconomy CabinClass = "PREMIUM_ECONOMY"
	CabinBusiness       CabinClass = "BUSINESS"
	CabinFirst          CabinClass = "FIRST"
)

// Alert represents a user's saved flight-search criteria monitored on a
// recurring cadence. Created and owned externally; this service only
// transitions status from active to completed when the alert expires.
type Alert struct {
	ID        string       `json:"id" db:"id"`
	UserID    string       `json:"user_id" db:"user_id"`
	Type      AlertType    `json:"type" db:"type"`
	Status    AlertStatus  `json:"status" db:"status"`
	Filters   AlertFilters `json:"filters" db:"filters"`
	AlertEnd  *time.Time   `json:"alert_end,omitempty" db:"alert_end"`
	CreatedAt time.Time    `json:"created_at" db:"created_at"`
	UpdatedAt time.Time    `json:"updated_at" db:"updated_at"`
}

// AlertFilters holds the route plus the optional criteria bundle.
type AlertFilters struct {
	Origin      string         `json:"origin"`
	Destination string         `json:"destination"`
	Criteria    *AlertCriteria `json:"criteria,omitempty"`
}

// AlertCriteria is the optional filter bundle of an alert.
type AlertCriteria struct {
	DateFrom        *time.Time  `json:"date_from,omitempty"`
	DateTo          *time.Time  `json:"date_to,omitempty"`
	DepartureWindow *TimeWindow `json:"departure_window,omitempty"`
	ArrivalWindow   *TimeWindow `json:"arrival_window,omitempty"`
	Cabin           CabinClass  `json:"cabin,omitempty"`
	Stops           StopTier    `json:"stops,omitempty"`
	Airlines        []string    `json:"airlines,omitempty"`
	PriceLimit      *PriceLimit `json:"price_limit,omitempty"`
}

// TimeWindow is a time-of-day window in 24h "15:04" format.
type TimeWindow struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// PriceLimit is a price ceiling with its currency.
type PriceLimit struct {
	Amount   float64 `json:"amount"`
	Currency string  `json:"currency"`
}

// IsExpired reports whether the alert's validity window has ended at now.
// Alerts without an end timestamp never expire.
func (a *Alert) IsExpired(now time.Time) bool {
	return a.AlertEnd != nil && !a.AlertEnd.After(now)
}

// RouteKey returns a stable origin-destination key used for grouping.
func (a *Alert) RouteKey() string {
	return a.Filters.Origin + "-" + a.Filters.Destination
}

// Airport is the lookup result used to build human-readable route labels.
type Airport struct {
	City string `json:"city"`
	IATA string `json:"iata"`
}
