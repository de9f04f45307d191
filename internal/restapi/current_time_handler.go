package restapi

import (
	"net/http"

	"irisboard.dev/internal/models"
)

// Declare a handler which writes a JSON response with the current time in
// the display zone and today's YYMMDD date code.
func (api *RestAPI) currentTimeHandler(w http.ResponseWriter, r *http.Request) {
	timeData := models.NewCurrentTimeData(api.now())
	response := models.NewOKResponse(timeData, api.clock())

	api.sendResponse(w, r, response)
}
