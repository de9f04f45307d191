package restapi

import (
	"net/http"

	"irisboard.dev/internal/board"
	"irisboard.dev/internal/models"
)

// trainHandler returns a train with its stops split at the current time.
func (api *RestAPI) trainHandler(w http.ResponseWriter, r *http.Request) {
	var errs fieldErrors
	id := parseTrainIDParam(r, "id", &errs)
	if len(errs) > 0 {
		api.validationErrorResponse(w, r, errs)
		return
	}

	api.sendTrainView(w, r, id)
}

// trainByNumberHandler resolves a train from its number and service date.
func (api *RestAPI) trainByNumberHandler(w http.ResponseWriter, r *http.Request) {
	var errs fieldErrors
	number := parseTrainIDParam(r, "number", &errs)
	if len(number) > maxTrainNumberLen {
		errs.add("number", "is too long")
	}
	date := api.parseDateParam(r, "date", &errs)
	if len(errs) > 0 {
		api.validationErrorResponse(w, r, errs)
		return
	}

	api.sendTrainView(w, r, models.TrainID(number, date))
}

func (api *RestAPI) sendTrainView(w http.ResponseWriter, r *http.Request, id string) {
	train, err := api.Iris.Train(r.Context(), id, true)
	if err != nil {
		api.upstreamErrorResponse(w, r, err)
		return
	}

	view := board.BuildTrainView(&train, api.stationLookup(), api.now())

	references := models.NewEmptyReferences()
	references.Stations = api.stationReferences(train.Stops())

	api.sendResponse(w, r, models.NewEntryResponse(view, references, api.clock()))
}

// trainsOnDayHandler lists every train running on a service day.
func (api *RestAPI) trainsOnDayHandler(w http.ResponseWriter, r *http.Request) {
	var errs fieldErrors
	date := api.parseDateParam(r, "date", &errs)
	if len(errs) > 0 {
		api.validationErrorResponse(w, r, errs)
		return
	}

	trains, err := api.Iris.TrainsOn(r.Context(), date)
	if err != nil {
		api.upstreamErrorResponse(w, r, err)
		return
	}
	if trains == nil {
		trains = []models.Train{}
	}

	api.sendResponse(w, r, models.NewListResponse(trains, models.NewEmptyReferences(), false, api.clock()))
}
