package models

import (
	"fmt"
	"time"

	"irisboard.dev/internal/timeparse"
)

// Station is a stop location known to IRIS, addressed by its DS100 code.
type Station struct {
	ID    int      `json:"id"`
	Lat   *float64 `json:"lat"`
	Lon   *float64 `json:"lon"`
	Name  string   `json:"name"`
	DS100 string   `json:"ds100"`
}

// HasCoordinates reports whether the station can be placed on a map.
func (s *Station) HasCoordinates() bool {
	return s != nil && s.Lat != nil && s.Lon != nil
}

// Movement is one side (arrival or departure) of a stop.
type Movement struct {
	Platform    *string         `json:"platform"`
	Planned     timeparse.Value `json:"planned"`
	Current     timeparse.Value `json:"current,omitzero"`
	PlannedPath []string        `json:"planned_path,omitempty"`
	ChangedPath []string        `json:"changed_path,omitempty"`
}

// Stop is a single train call at a station. Either side may be missing at
// the origin or terminus.
type Stop struct {
	ID        string    `json:"id"`
	TrainID   string    `json:"train_id"`
	StationID int       `json:"station_id"`
	Station   *Station  `json:"station,omitempty"`
	Arrival   *Movement `json:"arrival"`
	Departure *Movement `json:"departure"`
}

// Train is one run of a train on a service date.
type Train struct {
	ID        string  `json:"id"`
	Operator  *string `json:"operator"`
	Category  string  `json:"category"`
	Number    string  `json:"number"`
	Line      *string `json:"line"`
	Date      string  `json:"date"`
	NextStop  *Stop   `json:"next_stop"`
	PastStops []*Stop `json:"past_stops"`
	NextStops []*Stop `json:"next_stops"`
}

// Stops returns all stops of the train, upcoming first.
func (t *Train) Stops() []*Stop {
	stops := make([]*Stop, 0, len(t.NextStops)+len(t.PastStops))
	stops = append(stops, t.NextStops...)
	stops = append(stops, t.PastStops...)
	return stops
}

// Message is a disruption or delay notice attached to a train.
type Message struct {
	ID        string          `json:"id"`
	TrainID   string          `json:"train_id"`
	Train     string          `json:"train"`
	ValidFrom timeparse.Value `json:"valid_from"`
	ValidTo   timeparse.Value `json:"valid_to"`
	Priority  *int            `json:"priority"`
	Category  *string         `json:"category"`
	Code      *int            `json:"code"`
	Timestamp timeparse.Value `json:"timestamp"`
	Type      *string         `json:"m_type"`
}

// StatusCode explains the numeric code carried by a Message.
type StatusCode struct {
	Code     int     `json:"code"`
	Type     *string `json:"c_type"`
	LongText string  `json:"long_text"`
}

// TrainID builds the identifier IRIS uses for a train run: the train number
// and the YYMMDD service date joined by a dash.
func TrainID(number string, date time.Time) string {
	return fmt.Sprintf("%s-%s", number, timeparse.FormatDateCode(date))
}
