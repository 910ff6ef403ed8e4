package search

import (
	"time"

	"github.com/fmbento/flights-tracker/internal/models"
)

// Translate converts a stored alert's filters into a concrete search query.
// It returns nil when the alert's entire date window lies in the past, which
// callers treat as "skip, fully expired". The reference time is passed in
// explicitly; Translate never reads the system clock.
func Translate(filters models.AlertFilters, now time.Time) *Query {
	today := startOfDay(now)
	tomorrow := today.AddDate(0, 0, 1)

	criteria := filters.Criteria
	if criteria == nil {
		criteria = &models.AlertCriteria{}
	}

	if criteria.DateTo != nil && startOfDay(*criteria.DateTo).Before(today) {
		return nil
	}

	// A missing or elapsed start date becomes tomorrow. Pushing past-dated
	// starts to tomorrow rather than today avoids rejections when the search
	// collaborator validates dates against its own local midnight.
	start := tomorrow
	if criteria.DateFrom != nil && !startOfDay(*criteria.DateFrom).Before(today) {
		start = *criteria.DateFrom
	}

	rangeTo := start
	if criteria.DateTo != nil {
		rangeTo = *criteria.DateTo
	}

	return &Query{
		Segments: []Segment{
			{
				Origin:          filters.Origin,
				Destination:     filters.Destination,
				DepartureDate:   start,
				DepartureWindow: criteria.DepartureWindow,
				ArrivalWindow:   criteria.ArrivalWindow,
			},
		},
		DateRange: DateRange{From: start, To: rangeTo},
		Stops:     mapStopTier(criteria.Stops),
		Cabin:     mapCabin(criteria.Cabin),
		Adults:    1,
	}
}

// mapStopTier maps the abstract stop tier to the collaborator's enum.
// Unrecognized values default to any stops rather than failing.
func mapStopTier(tier models.StopTier) StopsFilter {
	switch tier {
	case models.StopTierNonstop:
		return StopsNonstop
	case models.StopTierOneStop:
		return StopsOneOrFewer
	case models.StopTierTwoStops:
		return StopsTwoOrFewer
	default:
		return StopsAny
	}
}

// mapCabin maps the abstract cabin class to the collaborator's enum.
// Unrecognized values default to economy.
func mapCabin(cabin models.CabinClass) Cabin {
	switch cabin {
	case models.CabinPremiumEconomy:
		return CabinPremiumEconomy
	case models.CabinBusiness:
		return CabinBusiness
	case models.CabinFirst:
		return CabinFirst
	default:
		return CabinEconomy
	}
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
