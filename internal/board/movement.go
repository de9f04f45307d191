// Package board turns ordered stops and trains into the rows the dashboard
// renders: station boards, train timetables and their labels.
package board

import (
	"errors"
	"log/slog"

	"irisboard.dev/internal/models"
	"irisboard.dev/internal/timeparse"
)

// UnknownPlatform is shown when neither side of a stop names a platform.
const UnknownPlatform = "Unbekannt"

// Platform returns the arrival platform, else the departure platform.
func Platform(stop *models.Stop) string {
	if stop == nil {
		return UnknownPlatform
	}
	if stop.Arrival != nil && stop.Arrival.Platform != nil {
		return *stop.Arrival.Platform
	}
	if stop.Departure != nil && stop.Departure.Platform != nil {
		return *stop.Departure.Platform
	}
	return UnknownPlatform
}

// DisplayTime renders the planned time of m as HH:MM, or "" when m or its
// planned time is missing.
func DisplayTime(m *models.Movement) string {
	if m == nil {
		return ""
	}
	s, _ := timeparse.FormatClock(m.Planned)
	return s
}

// MovementStatus describes one side of a stop for display.
type MovementStatus struct {
	Planned string `json:"planned"`
	Current string `json:"current,omitempty"`
	// ShowCurrent is set when a current time exists and differs from the plan.
	ShowCurrent  bool  `json:"showCurrent"`
	Late         bool  `json:"late"`
	DelayMinutes int64 `json:"delayMinutes"`
}

// Describe compares the current time of m with its plan. A movement is late
// when its current time is after the planned one; unknown times count as 0.
func Describe(m *models.Movement) MovementStatus {
	if m == nil {
		return MovementStatus{}
	}
	status := MovementStatus{Planned: DisplayTime(m)}

	planned := timeparse.Parse(m.Planned)
	current := timeparse.Parse(m.Current)
	if !current.Known() || current == planned {
		return status
	}

	status.ShowCurrent = true
	status.Current, _ = timeparse.FormatClock(current)
	status.Late = current.OrZero() > planned.OrZero()
	if planned.Known() {
		status.DelayMinutes = (current.OrZero() - planned.OrZero()) / 60_000
	}
	return status
}

// logMalformedTimes reports planned times that were present but unreadable.
// Those stops still render and order as if the time were missing.
func logMalformedTimes(stops []*models.Stop, logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}
	for _, stop := range stops {
		if stop == nil {
			continue
		}
		logMalformedPlanned(logger, stop, "arrival", stop.Arrival)
		logMalformedPlanned(logger, stop, "departure", stop.Departure)
	}
}

func logMalformedPlanned(logger *slog.Logger, stop *models.Stop, side string, m *models.Movement) {
	if m == nil {
		return
	}
	var malformed *timeparse.MalformedError
	if _, err := timeparse.ParseStrict(m.Planned); errors.As(err, &malformed) {
		logger.Debug("malformed planned time",
			slog.String("stop_id", stop.ID),
			slog.String("train_id", stop.TrainID),
			slog.String("side", side),
			slog.String("input", malformed.Input),
			slog.String("reason", malformed.Reason))
	}
}
