package restapi

import (
	"net/http"

	"golang.org/x/sync/errgroup"

	"irisboard.dev/internal/board"
	"irisboard.dev/internal/models"
)

// stationBoardHandler lists the trains calling at a station on a service day,
// ordered by their stop there, with the current train marked.
func (api *RestAPI) stationBoardHandler(w http.ResponseWriter, r *http.Request) {
	var errs fieldErrors
	ds100 := parseDS100Param(r, &errs)
	date := api.parseDateParam(r, "date", &errs)
	if len(errs) > 0 {
		api.validationErrorResponse(w, r, errs)
		return
	}

	station, err := api.findStation(r, ds100)
	if err != nil {
		api.upstreamErrorResponse(w, r, err)
		return
	}

	var (
		trains []models.Train
		stops  []models.Stop
	)
	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() error {
		var err error
		trains, err = api.Iris.TrainsForStation(ctx, station.DS100, date)
		return err
	})
	g.Go(func() error {
		var err error
		stops, err = api.Iris.StopsForStation(ctx, station.DS100, date)
		return err
	})
	if err := g.Wait(); err != nil {
		api.upstreamErrorResponse(w, r, err)
		return
	}

	stationBoard := board.BuildStationBoard(station, date, toPointers(trains), toPointers(stops), api.now(), api.logger(r))

	references := models.NewEmptyReferences()
	references.Stations = append(references.Stations, station)

	api.sendResponse(w, r, models.NewEntryResponse(stationBoard, references, api.clock()))
}
