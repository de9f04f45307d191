package ordering

import (
	"log/slog"
	"slices"
	"time"

	"irisboard.dev/internal/models"
	"irisboard.dev/internal/timeparse"
)

// StopIndex maps a train id to the stop that represents the train on a board,
// usually its call at the station being viewed.
type StopIndex map[string]*models.Stop

// IndexByTrain builds a StopIndex from a station's stops. When a train calls
// more than once, the last stop in the input wins.
func IndexByTrain(stops []*models.Stop) StopIndex {
	index := make(StopIndex, len(stops))
	for _, stop := range stops {
		if stop == nil {
			continue
		}
		index[stop.TrainID] = stop
	}
	return index
}

// For returns the representative stop of train.
func (idx StopIndex) For(train *models.Train) (*models.Stop, bool) {
	if train == nil {
		return nil, false
	}
	stop, ok := idx[train.ID]
	return stop, ok && stop != nil
}

// CompareTrains returns a comparator ordering trains by their representative
// stops with CompareByDeparture, so a train's planned arrival at the station
// counts before its departure. A train without a representative stop compares
// equal to everything and a warning is logged; rendering goes on.
func CompareTrains(idx StopIndex, logger *slog.Logger) func(a, b *models.Train) int {
	if logger == nil {
		logger = slog.Default()
	}
	return func(a, b *models.Train) int {
		stopA, okA := idx.For(a)
		stopB, okB := idx.For(b)
		if !okA || !okB {
			logger.Warn("cannot compare trains, missing stop data",
				slog.String("train_a", trainID(a)),
				slog.String("train_b", trainID(b)),
				slog.Bool("stop_a", okA),
				slog.Bool("stop_b", okB))
			return 0
		}
		return CompareByDeparture(stopA, stopB)
	}
}

// SortTrains returns a stably sorted copy of trains. The input is not
// modified.
func SortTrains(trains []*models.Train, idx StopIndex, logger *slog.Logger) []*models.Train {
	sorted := slices.Clone(trains)
	slices.SortStableFunc(sorted, CompareTrains(idx, logger))
	return sorted
}

// SelectCurrentTrain walks trains in order and returns the last one whose
// representative stop has a planned arrival, or failing that a planned
// departure, strictly before now. It returns nil when no train qualifies.
// Trains without a representative stop are skipped.
func SelectCurrentTrain(trains []*models.Train, idx StopIndex, now time.Time) *models.Train {
	var current *models.Train
	for _, train := range trains {
		stop, ok := idx.For(train)
		if !ok {
			continue
		}
		if plannedBefore(stop.Arrival, now) || plannedBefore(stop.Departure, now) {
			current = train
		}
	}
	return current
}

func plannedBefore(m *models.Movement, now time.Time) bool {
	if m == nil {
		return false
	}
	return timeparse.Parse(m.Planned).Before(now)
}

func trainID(t *models.Train) string {
	if t == nil {
		return ""
	}
	return t.ID
}
