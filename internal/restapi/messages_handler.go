package restapi

import (
	"net/http"
	"strconv"

	"irisboard.dev/internal/board"
	"irisboard.dev/internal/models"
)

// trainMessagesHandler lists the messages attached to a train, newest first.
func (api *RestAPI) trainMessagesHandler(w http.ResponseWriter, r *http.Request) {
	var errs fieldErrors
	id := parseTrainIDParam(r, "id", &errs)
	if len(errs) > 0 {
		api.validationErrorResponse(w, r, errs)
		return
	}

	messages, err := api.Iris.MessagesForTrain(r.Context(), id)
	if err != nil {
		api.upstreamErrorResponse(w, r, err)
		return
	}
	api.sendMessages(w, r, messages)
}

// messagesForDateAndCodeHandler lists the messages of one status code issued
// on a service day.
func (api *RestAPI) messagesForDateAndCodeHandler(w http.ResponseWriter, r *http.Request) {
	var errs fieldErrors
	date := api.parseDateParam(r, "date", &errs)
	code, err := strconv.Atoi(r.PathValue("code"))
	if err != nil || code < 0 {
		errs.add("code", "must be a non-negative integer")
	}
	if len(errs) > 0 {
		api.validationErrorResponse(w, r, errs)
		return
	}

	messages, err := api.Iris.MessagesForDateAndCode(r.Context(), date, code)
	if err != nil {
		api.upstreamErrorResponse(w, r, err)
		return
	}
	api.sendMessages(w, r, messages)
}

func (api *RestAPI) sendMessages(w http.ResponseWriter, r *http.Request, messages []models.Message) {
	if messages == nil {
		messages = []models.Message{}
	}
	board.SortMessagesNewestFirst(messages)

	references := models.NewEmptyReferences()
	references.StatusCodes = api.statusCodeReferences(messages)

	api.sendResponse(w, r, models.NewListResponse(messages, references, false, api.clock()))
}

// statusCodesHandler returns the status code table.
func (api *RestAPI) statusCodesHandler(w http.ResponseWriter, r *http.Request) {
	var codes []models.StatusCode
	if api.Catalog != nil && api.Catalog.IsReady() {
		codes = api.Catalog.StatusCodes()
	} else {
		var err error
		codes, err = api.Iris.StatusCodes(r.Context())
		if err != nil {
			api.upstreamErrorResponse(w, r, err)
			return
		}
	}
	if codes == nil {
		codes = []models.StatusCode{}
	}

	api.sendResponse(w, r, models.NewListResponse(codes, models.NewEmptyReferences(), false, api.clock()))
}
