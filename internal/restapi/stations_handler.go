package restapi

import (
	"net/http"

	"irisboard.dev/internal/catalog"
	"irisboard.dev/internal/models"
)

// stationsHandler searches the station catalog by name or DS100 code.
func (api *RestAPI) stationsHandler(w http.ResponseWriter, r *http.Request) {
	var errs fieldErrors
	limit := parseLimitParam(r, &errs)
	if len(errs) > 0 {
		api.validationErrorResponse(w, r, errs)
		return
	}

	if api.Catalog == nil || !api.Catalog.IsReady() {
		api.catalogUnavailableResponse(w, r)
		return
	}

	// Ask for one more than the limit to learn whether it was exceeded.
	stations := api.Catalog.Search(r.URL.Query().Get("q"), limit+1)
	limitExceeded := len(stations) > limit
	if limitExceeded {
		stations = stations[:limit]
	}
	if stations == nil {
		stations = []models.Station{}
	}

	api.sendResponse(w, r, models.NewListResponse(stations, models.NewEmptyReferences(), limitExceeded, api.clock()))
}

// stationsNearbyHandler lists stations around a point, nearest first.
func (api *RestAPI) stationsNearbyHandler(w http.ResponseWriter, r *http.Request) {
	var errs fieldErrors
	lat := parseFloatParam(r, "lat", true, 0, &errs)
	lon := parseFloatParam(r, "lon", true, 0, &errs)
	radius := parseFloatParam(r, "radius", false, defaultNearbyRadius, &errs)
	limit := parseLimitParam(r, &errs)

	if lat < -90 || lat > 90 {
		errs.add("lat", "must be between -90 and 90")
	}
	if lon < -180 || lon > 180 {
		errs.add("lon", "must be between -180 and 180")
	}
	if radius <= 0 {
		errs.add("radius", "must be positive")
	} else if radius > maxNearbyRadius {
		radius = maxNearbyRadius
	}
	if len(errs) > 0 {
		api.validationErrorResponse(w, r, errs)
		return
	}

	if api.Catalog == nil || !api.Catalog.IsReady() {
		api.catalogUnavailableResponse(w, r)
		return
	}

	nearby := api.Catalog.StationsNear(lat, lon, radius)
	limitExceeded := len(nearby) > limit
	if limitExceeded {
		nearby = nearby[:limit]
	}
	if nearby == nil {
		nearby = []catalog.NearbyStation{}
	}

	api.sendResponse(w, r, models.NewListResponse(nearby, models.NewEmptyReferences(), limitExceeded, api.clock()))
}

// stationHandler returns one station. Stations missing from the catalog
// are looked up upstream.
func (api *RestAPI) stationHandler(w http.ResponseWriter, r *http.Request) {
	var errs fieldErrors
	ds100 := parseDS100Param(r, &errs)
	if len(errs) > 0 {
		api.validationErrorResponse(w, r, errs)
		return
	}

	station, err := api.findStation(r, ds100)
	if err != nil {
		api.upstreamErrorResponse(w, r, err)
		return
	}

	api.sendResponse(w, r, models.NewEntryResponse(station, models.NewEmptyReferences(), api.clock()))
}

func (api *RestAPI) findStation(r *http.Request, ds100 string) (models.Station, error) {
	if api.Catalog != nil {
		if station, ok := api.Catalog.FindStation(ds100); ok {
			return station, nil
		}
	}
	return api.Iris.Station(r.Context(), ds100)
}
