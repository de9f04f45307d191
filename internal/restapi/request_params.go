package restapi

import (
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"irisboard.dev/internal/board"
	"irisboard.dev/internal/models"
	"irisboard.dev/internal/timeparse"
)

const (
	defaultSearchLimit  = 50
	maxSearchLimit      = 500
	defaultNearbyRadius = 1000.0
	maxNearbyRadius     = 50000.0
	maxTrainNumberLen   = 16
)

type fieldErrors map[string][]string

func (fe *fieldErrors) add(field, msg string) {
	if *fe == nil {
		*fe = make(fieldErrors)
	}
	(*fe)[field] = append((*fe)[field], msg)
}

func (api *RestAPI) location() *time.Location {
	if api.Application == nil || api.Location == nil {
		return timeparse.Berlin
	}
	return api.Location
}

func (api *RestAPI) now() time.Time {
	return api.clock().Now().In(api.location())
}

// stationLookup returns the catalog as a board.StationLookup, or nil when
// there is none.
func (api *RestAPI) stationLookup() board.StationLookup {
	if api.Application == nil || api.Catalog == nil {
		return nil
	}
	return api.Catalog
}

// parseDateParam reads a YYMMDD path value as midnight in the display zone.
func (api *RestAPI) parseDateParam(r *http.Request, name string, errs *fieldErrors) time.Time {
	date, err := timeparse.ParseDateCode(r.PathValue(name), api.location())
	if err != nil {
		errs.add(name, "must be a date in YYMMDD format")
		return time.Time{}
	}
	return date
}

func parseDS100Param(r *http.Request, errs *fieldErrors) string {
	ds100 := strings.ToUpper(strings.TrimSpace(r.PathValue("ds100")))
	if ds100 == "" || len(ds100) > 16 {
		errs.add("ds100", "must be a station code")
	}
	return ds100
}

func parseTrainIDParam(r *http.Request, name string, errs *fieldErrors) string {
	id := strings.TrimSpace(r.PathValue(name))
	if id == "" {
		errs.add(name, "must not be empty")
	}
	return id
}

func parseLimitParam(r *http.Request, errs *fieldErrors) int {
	val := r.URL.Query().Get("limit")
	if val == "" {
		return defaultSearchLimit
	}
	limit, err := strconv.Atoi(val)
	switch {
	case err != nil:
		errs.add("limit", "must be a valid integer")
		return 0
	case limit <= 0:
		errs.add("limit", "must be a positive integer")
		return 0
	case limit > maxSearchLimit:
		return maxSearchLimit
	}
	return limit
}

func parseFloatParam(r *http.Request, name string, required bool, fallback float64, errs *fieldErrors) float64 {
	val := r.URL.Query().Get(name)
	if val == "" {
		if required {
			errs.add(name, "is required")
		}
		return fallback
	}
	f, err := strconv.ParseFloat(val, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		errs.add(name, "must be a valid number")
		return fallback
	}
	return f
}

// stationReferences collects the distinct stations called at by stops, in
// first-seen order. Stations are taken from the stop or else the catalog.
func (api *RestAPI) stationReferences(stops []*models.Stop) []models.Station {
	lookup := api.stationLookup()
	seen := make(map[int]bool)
	refs := make([]models.Station, 0)
	for _, stop := range stops {
		if stop == nil || seen[stop.StationID] {
			continue
		}
		seen[stop.StationID] = true
		if stop.Station != nil {
			refs = append(refs, *stop.Station)
			continue
		}
		if lookup != nil {
			if s, ok := lookup.StationByID(stop.StationID); ok {
				refs = append(refs, s)
			}
		}
	}
	return refs
}

// statusCodeReferences resolves the codes carried by messages.
func (api *RestAPI) statusCodeReferences(messages []models.Message) []models.StatusCode {
	refs := make([]models.StatusCode, 0)
	if api.Application == nil || api.Catalog == nil {
		return refs
	}
	seen := make(map[int]bool)
	for _, msg := range messages {
		if msg.Code == nil || seen[*msg.Code] {
			continue
		}
		seen[*msg.Code] = true
		if code, ok := api.Catalog.StatusCode(*msg.Code); ok {
			refs = append(refs, code)
		}
	}
	return refs
}

func toPointers[T any](values []T) []*T {
	out := make([]*T, len(values))
	for i := range values {
		out[i] = &values[i]
	}
	return out
}
