package search

import (
	"strings"

	"github.com/fmbento/flights-tracker/internal/models"
)

// FilterFlights narrows collaborator-returned flights against the alert's
// criteria. The result is an order-preserving subsequence of the input; the
// price, airline and stops predicates are conjunctive. A nil criteria bundle
// keeps every flight.
func FilterFlights(flights []models.FlightOption, criteria *models.AlertCriteria) []models.FlightOption {
	if criteria == nil {
		return flights
	}

	allowed := airlineSet(criteria.Airlines)
	ceiling, bounded := stopCeiling(criteria.Stops)

	filtered := make([]models.FlightOption, 0, len(flights))
	for _, flight := range flights {
		if criteria.PriceLimit != nil && flight.TotalPrice > criteria.PriceLimit.Amount {
			continue
		}
		if allowed != nil && !matchesAirline(flight, allowed) {
			continue
		}
		if bounded && !withinStops(flight, ceiling) {
			continue
		}
		filtered = append(filtered, flight)
	}

	return filtered
}

// airlineSet builds an upper-cased allow-set, nil when no airlines are given.
func airlineSet(airlines []string) map[string]struct{} {
	if len(airlines) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(airlines))
	for _, code := range airlines {
		set[strings.ToUpper(code)] = struct{}{}
	}
	return set
}

// matchesAirline reports whether any leg of any slice is operated by an
// allowed airline.
func matchesAirline(flight models.FlightOption, allowed map[string]struct{}) bool {
	for _, slice := range flight.Slices {
		for _, leg := range slice.Legs {
			if _, ok := allowed[strings.ToUpper(leg.AirlineCode)]; ok {
				return true
			}
		}
	}
	return false
}

// stopCeiling maps the stop tier to a numeric ceiling. The second return is
// false for ANY (and unknown tiers), meaning no stops constraint applies.
func stopCeiling(tier models.StopTier) (int, bool) {
	switch tier {
	case models.StopTierNonstop:
		return 0, true
	case models.StopTierOneStop:
		return 1, true
	case models.StopTierTwoStops:
		return 2, true
	default:
		return 0, false
	}
}

// withinStops reports whether every slice of the itinerary stays at or under
// the ceiling.
func withinStops(flight models.FlightOption, ceiling int) bool {
	for _, slice := range flight.Slices {
		if slice.Stops > ceiling {
			return false
		}
	}
	return true
}
