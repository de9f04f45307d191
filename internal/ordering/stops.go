// Package ordering derives a display order for stops and trains from their
// planned arrival and departure times.
//
// A stop's ordering time is picked through a fallback chain and collapses to
// the epoch when neither side is known, so stops without any planned time sort
// first. All functions are pure apart from the in-place sorts.
package ordering

import (
	"cmp"
	"slices"

	"irisboard.dev/internal/models"
	"irisboard.dev/internal/timeparse"
)

// ArrivalKey is the instant used by arrival ordering: the planned departure,
// else the planned arrival, else 0.
// Departure is preferred here even though this is the arrival ordering;
// callers rely on that.
func ArrivalKey(s *models.Stop) int64 {
	if ms, ok := plannedOf(departureOf(s)); ok {
		return ms
	}
	if ms, ok := plannedOf(arrivalOf(s)); ok {
		return ms
	}
	return 0
}

// DepartureKey is the instant used by departure ordering: the planned
// arrival, else the planned departure, else 0.
func DepartureKey(s *models.Stop) int64 {
	if ms, ok := plannedOf(arrivalOf(s)); ok {
		return ms
	}
	if ms, ok := plannedOf(departureOf(s)); ok {
		return ms
	}
	return 0
}

// CompareByArrival orders stops by ArrivalKey. The result is negative, zero
// or positive like cmp.Compare.
func CompareByArrival(a, b *models.Stop) int {
	return cmp.Compare(ArrivalKey(a), ArrivalKey(b))
}

// CompareByDeparture orders stops by DepartureKey.
func CompareByDeparture(a, b *models.Stop) int {
	return cmp.Compare(DepartureKey(a), DepartureKey(b))
}

// SortByArrival sorts stops in place by CompareByArrival. Stops with equal
// keys keep their relative order.
func SortByArrival(stops []*models.Stop) {
	slices.SortStableFunc(stops, CompareByArrival)
}

// SortByDeparture sorts stops in place by CompareByDeparture, stably.
func SortByDeparture(stops []*models.Stop) {
	slices.SortStableFunc(stops, CompareByDeparture)
}

func arrivalOf(s *models.Stop) *models.Movement {
	if s == nil {
		return nil
	}
	return s.Arrival
}

func departureOf(s *models.Stop) *models.Movement {
	if s == nil {
		return nil
	}
	return s.Departure
}

func plannedOf(m *models.Movement) (int64, bool) {
	if m == nil {
		return 0, false
	}
	return timeparse.Parse(m.Planned).UnixMilli()
}
