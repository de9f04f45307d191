package webui

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"irisboard.dev/internal/board"
	"irisboard.dev/internal/iris"
	"irisboard.dev/internal/logging"
	"irisboard.dev/internal/models"
	"irisboard.dev/internal/timeparse"
)

const (
	stationSearchLimit = 50
	maxTrainNumberLen  = 16
)

var errStationNotFound = errors.New("station not found")

type stationsPage struct {
	Query    string
	Stations []models.Station
	Today    string
	Loading  bool
}

type boardPage struct {
	Board    board.StationBoard
	DateCode string
	Prev     string
	Next     string
}

type trainSearchPage struct {
	Number string
	Date   string
	Trains []models.Train
	Errors []string
}

type trainPage struct {
	View     board.TrainView
	Messages []models.Message
}

type messagesPage struct {
	Date        string
	Code        string
	StatusCodes []models.StatusCode
	Messages    []models.Message
	Searched    bool
	Errors      []string
}

func (webUI *WebUI) catalogReady() bool {
	return webUI.Catalog != nil && webUI.Catalog.IsReady()
}

func (webUI *WebUI) stationLookup() board.StationLookup {
	if webUI.Catalog == nil {
		return nil
	}
	return webUI.Catalog
}

// parseDateInput accepts the YYYY-MM-DD of a date input or a YYMMDD code.
func (webUI *WebUI) parseDateInput(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if t, err := time.ParseInLocation(time.DateOnly, s, webUI.Location); err == nil {
		return t, true
	}
	if t, err := timeparse.ParseDateCode(s, webUI.Location); err == nil {
		return t, true
	}
	return time.Time{}, false
}

func (webUI *WebUI) stationsPageHandler(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	data := stationsPage{Query: query, Today: timeparse.FormatDateCode(webUI.Today())}

	if !webUI.catalogReady() {
		data.Loading = true
		webUI.render(w, r, http.StatusServiceUnavailable, "stations", "Bahnhöfe", data)
		return
	}
	if query != "" {
		data.Stations = webUI.Catalog.Search(query, stationSearchLimit)
	}
	webUI.render(w, r, http.StatusOK, "stations", "Bahnhöfe", data)
}

// stationTodayHandler redirects to today's board of a station.
func (webUI *WebUI) stationTodayHandler(w http.ResponseWriter, r *http.Request) {
	ds100 := strings.ToUpper(r.PathValue("ds100"))
	target := "/stations/" + url.PathEscape(ds100) + "/" + timeparse.FormatDateCode(webUI.Today())
	http.Redirect(w, r, target, http.StatusFound)
}

func (webUI *WebUI) findStation(ctx context.Context, ds100 string) (models.Station, error) {
	if webUI.catalogReady() {
		if station, ok := webUI.Catalog.FindStation(ds100); ok {
			return station, nil
		}
	}
	station, err := webUI.Iris.Station(ctx, ds100)
	if iris.IsNotFound(err) {
		return models.Station{}, errStationNotFound
	}
	return station, err
}

func (webUI *WebUI) boardPageHandler(w http.ResponseWriter, r *http.Request) {
	ds100 := strings.ToUpper(r.PathValue("ds100"))
	date, err := timeparse.ParseDateCode(r.PathValue("date"), webUI.Location)
	if err != nil || ds100 == "" {
		webUI.renderError(w, r, http.StatusBadRequest, "Ungültiges Datum, erwartet wird JJMMTT.")
		return
	}

	station, err := webUI.findStation(r.Context(), ds100)
	if err != nil {
		webUI.upstreamError(w, r, err)
		return
	}

	var (
		trains []models.Train
		stops  []models.Stop
	)
	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() error {
		var err error
		trains, err = webUI.Iris.TrainsForStation(ctx, station.DS100, date)
		return err
	})
	g.Go(func() error {
		var err error
		stops, err = webUI.Iris.StopsForStation(ctx, station.DS100, date)
		return err
	})
	if err := g.Wait(); err != nil {
		webUI.upstreamError(w, r, err)
		return
	}

	stationBoard := board.BuildStationBoard(station, date, pointers(trains), pointers(stops), webUI.Now(), webUI.logger(r))
	data := boardPage{
		Board:    stationBoard,
		DateCode: timeparse.FormatDateCode(date),
		Prev:     timeparse.FormatDateCode(date.AddDate(0, 0, -1)),
		Next:     timeparse.FormatDateCode(date.AddDate(0, 0, 1)),
	}
	webUI.render(w, r, http.StatusOK, "board", station.Name, data)
}

// trainSearchPageHandler redirects to a train when number and date are
// given, and lists the trains of the day when only the date is.
func (webUI *WebUI) trainSearchPageHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	data := trainSearchPage{Number: strings.TrimSpace(q.Get("number")), Date: strings.TrimSpace(q.Get("date"))}
	if data.Date == "" {
		data.Date = webUI.Today().Format(time.DateOnly)
		webUI.render(w, r, http.StatusOK, "trains", "Züge", data)
		return
	}

	date, ok := webUI.parseDateInput(data.Date)
	if !ok {
		data.Errors = append(data.Errors, "Ungültiges Datum.")
	}
	if len(data.Number) > maxTrainNumberLen || strings.ContainsAny(data.Number, "/?#") {
		data.Errors = append(data.Errors, "Ungültige Zugnummer.")
	}
	if len(data.Errors) > 0 {
		webUI.render(w, r, http.StatusBadRequest, "trains", "Züge", data)
		return
	}

	if data.Number != "" {
		http.Redirect(w, r, "/trains/"+url.PathEscape(models.TrainID(data.Number, date)), http.StatusFound)
		return
	}

	trains, err := webUI.Iris.TrainsOn(r.Context(), date)
	if err != nil && !iris.IsNotFound(err) {
		webUI.upstreamError(w, r, err)
		return
	}
	data.Trains = trains
	webUI.render(w, r, http.StatusOK, "trains", "Züge", data)
}

func (webUI *WebUI) trainPageHandler(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" || strings.ContainsAny(id, "/?#") {
		webUI.renderError(w, r, http.StatusBadRequest, "Ungültige Zug-ID.")
		return
	}

	var (
		train    models.Train
		messages []models.Message
	)
	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() error {
		var err error
		train, err = webUI.Iris.Train(ctx, id, true)
		return err
	})
	g.Go(func() error {
		var err error
		messages, err = webUI.Iris.MessagesForTrain(ctx, id)
		if err != nil && !errors.Is(err, context.Canceled) {
			// The timetable is still useful without its messages.
			webUI.logger(r).Warn("failed to load train messages", slog.String("train_id", id), slog.Any("error", err))
			messages = nil
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		webUI.upstreamError(w, r, err)
		return
	}

	board.SortMessagesNewestFirst(messages)
	data := trainPage{
		View:     board.BuildTrainView(&train, webUI.stationLookup(), webUI.Now()),
		Messages: messages,
	}
	webUI.render(w, r, http.StatusOK, "train", data.View.Name, data)
}

func (webUI *WebUI) messagesPageHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	data := messagesPage{Date: strings.TrimSpace(q.Get("date")), Code: strings.TrimSpace(q.Get("code"))}

	if webUI.catalogReady() {
		data.StatusCodes = webUI.Catalog.StatusCodes()
	} else if codes, err := webUI.Iris.StatusCodes(r.Context()); err == nil {
		data.StatusCodes = codes
	} else {
		logging.LogError(webUI.logger(r), "failed to load status codes", err)
	}

	if data.Date == "" || data.Code == "" {
		if data.Date == "" {
			data.Date = webUI.Today().Format(time.DateOnly)
		}
		webUI.render(w, r, http.StatusOK, "messages", "Meldungen", data)
		return
	}

	date, ok := webUI.parseDateInput(data.Date)
	if !ok {
		data.Errors = append(data.Errors, "Ungültiges Datum.")
	}
	code, err := strconv.Atoi(data.Code)
	if err != nil || code < 0 {
		data.Errors = append(data.Errors, "Ungültiger Code.")
	}
	if len(data.Errors) > 0 {
		webUI.render(w, r, http.StatusBadRequest, "messages", "Meldungen", data)
		return
	}

	messages, err := webUI.Iris.MessagesForDateAndCode(r.Context(), date, code)
	if err != nil && !iris.IsNotFound(err) {
		webUI.upstreamError(w, r, err)
		return
	}
	board.SortMessagesNewestFirst(messages)
	data.Messages = messages
	data.Searched = true
	webUI.render(w, r, http.StatusOK, "messages", "Meldungen", data)
}

func (webUI *WebUI) upstreamError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, errStationNotFound), iris.IsNotFound(err):
		webUI.renderError(w, r, http.StatusNotFound, "Keine Einträge vorhanden")
	default:
		logging.LogError(webUI.logger(r), "upstream request failed", err)
		webUI.renderError(w, r, http.StatusBadGateway, "Der IRIS-Dienst ist nicht erreichbar.")
	}
}

func pointers[T any](items []T) []*T {
	out := make([]*T, len(items))
	for i := range items {
		out[i] = &items[i]
	}
	return out
}
