package ordering

import (
	"slices"
	"time"

	"irisboard.dev/internal/models"
)

// Split is a train's route divided at a point in time.
type Split struct {
	Next []*models.Stop
	Past []*models.Stop
	// NextStop is the first stop of Next with a planned time, or nil once
	// the train has finished.
	NextStop *models.Stop
}

// SplitStops sorts a copy of stops by CompareByArrival and divides it at now.
// A stop is past once its arrival key lies strictly before now; stops with no
// planned time at all are never past and are never picked as NextStop.
func SplitStops(stops []*models.Stop, now time.Time) Split {
	sorted := slices.Clone(stops)
	sorted = slices.DeleteFunc(sorted, func(s *models.Stop) bool { return s == nil })
	SortByArrival(sorted)

	nowMs := now.UnixMilli()
	split := Split{
		Next: []*models.Stop{},
		Past: []*models.Stop{},
	}
	for _, stop := range sorted {
		key := ArrivalKey(stop)
		switch {
		case key != 0 && key < nowMs:
			split.Past = append(split.Past, stop)
		case key != 0:
			if split.NextStop == nil {
				split.NextStop = stop
			}
			split.Next = append(split.Next, stop)
		default:
			split.Next = append(split.Next, stop)
		}
	}
	return split
}
