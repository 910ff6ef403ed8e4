package content

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/fmbento/flights-tracker/internal/models"
)

// MaxFlightsPerAlertContext bounds how many flights per alert reach the
// generation prompt.
const MaxFlightsPerAlertContext = 4

// SummaryContext is the bounded, pre-aggregated view of a payload handed to
// the generation collaborator and reused by the renderers.
type SummaryContext struct {
	Kind         models.PayloadKind `json:"kind"`
	SummaryDate  string             `json:"summary_date"`
	Alerts       []AlertContext     `json:"alerts"`
	TotalFlights int                `json:"total_flights"`
	NonstopCount int                `json:"nonstop_count"`
	UniqueRoutes []string           `json:"unique_routes"`
	Cheapest     *FlightSummary     `json:"cheapest,omitempty"`
	PriceDelta   *PriceDelta        `json:"price_delta,omitempty"`
	Highlights   []string           `json:"highlights"`
}

// AlertContext is one alert's bounded contribution to the summary.
type AlertContext struct {
	AlertID    string          `json:"alert_id"`
	Route      string          `json:"route"`
	RouteLabel string          `json:"route_label"`
	Flights    []FlightSummary `json:"flights"`
}

// FlightSummary is a flattened single-flight view.
type FlightSummary struct {
	Price           float64 `json:"price"`
	Currency        string  `json:"currency"`
	Stops           int     `json:"stops"`
	Airline         string  `json:"airline"`
	DepartureAt     string  `json:"departure_at"`
	DurationMinutes int     `json:"duration_minutes"`
}

// PriceDelta summarizes a price drop.
type PriceDelta struct {
	Previous       float64 `json:"previous"`
	New            float64 `json:"new"`
	Currency       string  `json:"currency"`
	Savings        float64 `json:"savings"`
	SavingsPercent float64 `json:"savings_percent"`
}

// AirportLookup resolves IATA codes to human-readable labels.
type AirportLookup interface {
	GetAirportByIATA(ctx context.Context, code string) (*models.Airport, error)
}

// BuildContext reduces a payload's raw flight lists into a bounded summary
// with aggregate metrics and textual highlights. Pure function of the
// payload; route labels default to raw codes until DecorateLabels runs.
func BuildContext(payload models.EmailPayload) *SummaryContext {
	switch p := payload.(type) {
	case models.DailyPriceUpdate:
		return buildDailyContext(p)
	case models.PriceDropAlert:
		return buildPriceDropContext(p)
	default:
		// The payload set is sealed; no third variant can exist.
		panic(fmt.Sprintf("unhandled payload type %T", payload))
	}
}

func buildDailyContext(p models.DailyPriceUpdate) *SummaryContext {
	sc := &SummaryContext{
		Kind:        p.Kind(),
		SummaryDate: p.SummaryDate.Format("2006-01-02"),
	}

	for _, summary := range p.Alerts {
		sc.Alerts = append(sc.Alerts, buildAlertContext(summary.Alert, summary.Flights))
		sc.TotalFlights += len(summary.Flights)
		for _, flight := range summary.Flights {
			if flight.IsNonstop() {
				sc.NonstopCount++
			}
			sc.trackCheapest(flight)
		}
	}

	sc.UniqueRoutes = uniqueRoutes(sc.Alerts)
	sc.Highlights = buildHighlights(sc)
	return sc
}

func buildPriceDropContext(p models.PriceDropAlert) *SummaryContext {
	sc := &SummaryContext{
		Kind:        p.Kind(),
		SummaryDate: p.DetectedAt.Format("2006-01-02"),
		Alerts:      []AlertContext{buildAlertContext(p.Alert, p.Flights)},
	}

	sc.TotalFlights = len(p.Flights)
	for _, flight := range p.Flights {
		if flight.IsNonstop() {
			sc.NonstopCount++
		}
		sc.trackCheapest(flight)
	}
	sc.UniqueRoutes = uniqueRoutes(sc.Alerts)

	if p.PreviousLowest != nil && p.NewLowest != nil && p.PreviousLowest.Amount > 0 {
		savings := p.PreviousLowest.Amount - p.NewLowest.Amount
		sc.PriceDelta = &PriceDelta{
			Previous:       p.PreviousLowest.Amount,
			New:            p.NewLowest.Amount,
			Currency:       p.NewLowest.Currency,
			Savings:        savings,
			SavingsPercent: 100 * savings / p.PreviousLowest.Amount,
		}
	}

	sc.Highlights = buildHighlights(sc)
	return sc
}

func buildAlertContext(alert models.Alert, flights []models.FlightOption) AlertContext {
	ac := AlertContext{
		AlertID:    alert.ID,
		Route:      alert.RouteKey(),
		RouteLabel: fmt.Sprintf("%s → %s", alert.Filters.Origin, alert.Filters.Destination),
	}

	capped := flights
	if len(capped) > MaxFlightsPerAlertContext {
		capped = capped[:MaxFlightsPerAlertContext]
	}

	for _, flight := range capped {
		ac.Flights = append(ac.Flights, summarizeFlight(flight))
	}
	return ac
}

func summarizeFlight(flight models.FlightOption) FlightSummary {
	fs := FlightSummary{
		Price:    flight.TotalPrice,
		Currency: flight.Currency,
	}
	if len(flight.Slices) > 0 {
		slice := flight.Slices[0]
		fs.Stops = slice.Stops
		fs.DurationMinutes = slice.DurationMinutes
		if len(slice.Legs) > 0 {
			fs.Airline = slice.Legs[0].AirlineCode
			fs.DepartureAt = slice.Legs[0].DepartureTime.Format(time.RFC3339)
		}
	}
	return fs
}

func (sc *SummaryContext) trackCheapest(flight models.FlightOption) {
	if sc.Cheapest == nil || flight.TotalPrice < sc.Cheapest.Price {
		summary := summarizeFlight(flight)
		sc.Cheapest = &summary
	}
}

func uniqueRoutes(alerts []AlertContext) []string {
	seen := make(map[string]struct{}, len(alerts))
	routes := make([]string, 0, len(alerts))
	for _, ac := range alerts {
		if _, ok := seen[ac.Route]; !ok {
			seen[ac.Route] = struct{}{}
			routes = append(routes, ac.Route)
		}
	}
	sort.Strings(routes)
	return routes
}

func buildHighlights(sc *SummaryContext) []string {
	var highlights []string

	if sc.Cheapest != nil {
		highlights = append(highlights, fmt.Sprintf("Cheapest fare found: %.2f %s",
			sc.Cheapest.Price, sc.Cheapest.Currency))
	}
	if sc.NonstopCount > 0 {
		highlights = append(highlights, fmt.Sprintf("%d nonstop option(s) available", sc.NonstopCount))
	}
	if len(sc.UniqueRoutes) > 1 {
		highlights = append(highlights, fmt.Sprintf("Covering %d routes", len(sc.UniqueRoutes)))
	}
	if sc.PriceDelta != nil {
		highlights = append(highlights, fmt.Sprintf("Price dropped %.2f %s (%.0f%%)",
			sc.PriceDelta.Savings, sc.PriceDelta.Currency, sc.PriceDelta.SavingsPercent))
	}

	return highlights
}

// DecorateLabels replaces raw route codes with city names using the airport
// lookup. Lookup failures leave the code-based label in place.
func DecorateLabels(ctx context.Context, sc *SummaryContext, lookup AirportLookup) {
	if lookup == nil {
		return
	}

	cache := make(map[string]string)
	resolve := func(code string) string {
		if label, ok := cache[code]; ok {
			return label
		}
		label := code
		if airport, err := lookup.GetAirportByIATA(ctx, code); err == nil && airport != nil {
			label = fmt.Sprintf("%s (%s)", airport.City, airport.IATA)
		}
		cache[code] = label
		return label
	}

	for i := range sc.Alerts {
		origin, destination, ok := splitRoute(sc.Alerts[i].Route)
		if !ok {
			continue
		}
		sc.Alerts[i].RouteLabel = fmt.Sprintf("%s → %s", resolve(origin), resolve(destination))
	}
}

func splitRoute(route string) (origin, destination string, ok bool) {
	for i := 0; i < len(route); i++ {
		if route[i] == '-' {
			return route[:i], route[i+1:], true
		}
	}
	return "", "", false
}
