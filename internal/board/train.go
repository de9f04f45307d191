package board

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/twpayne/go-polyline"

	"irisboard.dev/internal/models"
	"irisboard.dev/internal/ordering"
	"irisboard.dev/internal/timeparse"
)

// StationLookup resolves station ids carried by stops.
type StationLookup interface {
	StationByID(id int) (models.Station, bool)
}

// FullTrainName renders a train as "ICE 1234", or "S 3 - 38312" when it runs
// on a line. With includeDate the service date is appended as " @DD.MM.YYYY".
func FullTrainName(train *models.Train, includeDate bool) string {
	if train == nil {
		return ""
	}
	var b strings.Builder
	b.WriteString(train.Category)
	if train.Line != nil && *train.Line != "" {
		fmt.Fprintf(&b, " %s - %s", *train.Line, train.Number)
	} else {
		fmt.Fprintf(&b, " %s", train.Number)
	}
	if includeDate {
		if date, ok := timeparse.FormatDate(train.Date); ok {
			fmt.Fprintf(&b, " @%s", date)
		}
	}
	return b.String()
}

// StartToEnd names the first and last station of the train's route as
// "From -> To". It is empty for routes with fewer than two stops.
func StartToEnd(train *models.Train, stations StationLookup) string {
	if train == nil {
		return ""
	}
	stops := train.Stops()
	ordering.SortByArrival(stops)
	if len(stops) < 2 {
		return ""
	}
	first := StationName(stops[0], stations)
	last := StationName(stops[len(stops)-1], stations)
	return first + " -> " + last
}

// StationName returns the name of the stop's station, falling back to the
// lookup and finally to the numeric id.
func StationName(stop *models.Stop, stations StationLookup) string {
	if stop == nil {
		return ""
	}
	if stop.Station != nil && stop.Station.Name != "" {
		return stop.Station.Name
	}
	if stations != nil {
		if s, ok := stations.StationByID(stop.StationID); ok && s.Name != "" {
			return s.Name
		}
	}
	return strconv.Itoa(stop.StationID)
}

// RoutePolyline encodes the located stations of stops, in arrival order, as
// a Google encoded polyline. Stops without coordinates are skipped.
func RoutePolyline(stops []*models.Stop, stations StationLookup) string {
	sorted := make([]*models.Stop, 0, len(stops))
	for _, s := range stops {
		if s != nil {
			sorted = append(sorted, s)
		}
	}
	ordering.SortByArrival(sorted)

	coords := make([][]float64, 0, len(sorted))
	for _, stop := range sorted {
		station := stop.Station
		if !station.HasCoordinates() && stations != nil {
			if s, ok := stations.StationByID(stop.StationID); ok {
				station = &s
			}
		}
		if !station.HasCoordinates() {
			continue
		}
		coords = append(coords, []float64{*station.Lat, *station.Lon})
	}
	if len(coords) == 0 {
		return ""
	}
	return string(polyline.EncodeCoords(coords))
}

// StopRow is one line of a train timetable.
type StopRow struct {
	Stop        *models.Stop   `json:"stop"`
	StationName string         `json:"stationName"`
	Platform    string         `json:"platform"`
	Arrival     MovementStatus `json:"arrival"`
	Departure   MovementStatus `json:"departure"`
	IsNext      bool           `json:"isNext"`
}

// TrainView is a train prepared for display at a given moment.
type TrainView struct {
	Train      *models.Train `json:"train"`
	Name       string        `json:"name"`
	StartToEnd string        `json:"startToEnd"`
	NextStop   *StopRow      `json:"nextStop"`
	Next       []StopRow     `json:"next"`
	Past       []StopRow     `json:"past"`
	Polyline   string        `json:"polyline"`
}

// BuildTrainView splits the train's stops at now and renders each side in
// arrival order.
func BuildTrainView(train *models.Train, stations StationLookup, now time.Time) TrainView {
	split := ordering.SplitStops(train.Stops(), now)

	view := TrainView{
		Train:      train,
		Name:       FullTrainName(train, true),
		StartToEnd: StartToEnd(train, stations),
		Next:       make([]StopRow, 0, len(split.Next)),
		Past:       make([]StopRow, 0, len(split.Past)),
		Polyline:   RoutePolyline(train.Stops(), stations),
	}
	for _, stop := range split.Next {
		view.Next = append(view.Next, stopRow(stop, stations, stop == split.NextStop))
	}
	for _, stop := range split.Past {
		view.Past = append(view.Past, stopRow(stop, stations, false))
	}
	for i := range view.Next {
		if view.Next[i].IsNext {
			view.NextStop = &view.Next[i]
			break
		}
	}
	return view
}

func stopRow(stop *models.Stop, stations StationLookup, isNext bool) StopRow {
	return StopRow{
		Stop:        stop,
		StationName: StationName(stop, stations),
		Platform:    Platform(stop),
		Arrival:     Describe(stop.Arrival),
		Departure:   Describe(stop.Departure),
		IsNext:      isNext,
	}
}
