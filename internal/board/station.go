package board

import (
	"log/slog"
	"time"

	"irisboard.dev/internal/models"
	"irisboard.dev/internal/ordering"
)

// Row is one train on a station board.
type Row struct {
	Train     *models.Train `json:"train"`
	Stop      *models.Stop  `json:"stop"`
	Name      string        `json:"name"`
	Arrival   string        `json:"arrival"`
	Departure string        `json:"departure"`
	Platform  string        `json:"platform"`
	Current   bool          `json:"current"`
}

// StationBoard lists the trains calling at a station on one day, ordered by
// their calls there.
type StationBoard struct {
	Station        models.Station `json:"station"`
	Date           string         `json:"date"`
	Rows           []Row          `json:"rows"`
	CurrentTrainID string         `json:"currentTrainId,omitempty"`
}

// BuildStationBoard orders trains by their stop at the station and marks the
// train that most recently called before now.
func BuildStationBoard(station models.Station, date time.Time, trains []*models.Train, stops []*models.Stop, now time.Time, logger *slog.Logger) StationBoard {
	logMalformedTimes(stops, logger)
	idx := ordering.IndexByTrain(stops)
	sorted := ordering.SortTrains(trains, idx, logger)
	current := ordering.SelectCurrentTrain(sorted, idx, now)

	b := StationBoard{
		Station: station,
		Date:    date.Format(time.DateOnly),
		Rows:    make([]Row, 0, len(sorted)),
	}
	if current != nil {
		b.CurrentTrainID = current.ID
	}

	for _, train := range sorted {
		row := Row{
			Train:   train,
			Name:    FullTrainName(train, false),
			Current: current != nil && train.ID == current.ID,
		}
		if stop, ok := idx.For(train); ok {
			row.Stop = stop
			row.Arrival = DisplayTime(stop.Arrival)
			row.Departure = DisplayTime(stop.Departure)
			row.Platform = Platform(stop)
		}
		b.Rows = append(b.Rows, row)
	}
	return b
}
