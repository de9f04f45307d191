package restapi

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"irisboard.dev/internal/clock"
	"irisboard.dev/internal/iris"
	"irisboard.dev/internal/logging"
	"irisboard.dev/internal/models"
)

func (api *RestAPI) clock() clock.Clock {
	if api.Application == nil || api.Clock == nil {
		return clock.RealClock{}
	}
	return api.Clock
}

func (api *RestAPI) logger(r *http.Request) *slog.Logger {
	if r != nil {
		if l := logging.FromContext(r.Context()); l != nil && l != slog.Default() {
			return l
		}
	}
	if api.Application != nil && api.Logger != nil {
		return api.Logger
	}
	return slog.Default()
}

func (api *RestAPI) serverErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	logging.LogError(api.logger(r), "internal server error", err,
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.String("request_id", GetRequestID(r.Context())))

	api.sendError(w, r, http.StatusInternalServerError, "internal server error")
}

// validationErrorResponse answers 400 with the offending fields listed.
func (api *RestAPI) validationErrorResponse(w http.ResponseWriter, r *http.Request, fieldErrors map[string][]string) {
	setJSONResponseType(&w)
	w.WriteHeader(http.StatusBadRequest)

	response := models.NewResponse(http.StatusBadRequest, map[string]any{"fieldErrors": fieldErrors}, "validation error", api.clock())
	if err := json.NewEncoder(w).Encode(response); err != nil {
		api.logger(r).Error("failed to encode validation response", "error", err)
	}
}

// upstreamErrorResponse maps a failed IRIS call onto a response: missing
// resources become 404, timeouts 504 and everything else 502.
func (api *RestAPI) upstreamErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	if iris.IsNotFound(err) {
		api.sendNotFound(w, r)
		return
	}

	logging.LogError(api.logger(r), "upstream request failed", err,
		slog.String("path", r.URL.Path),
		slog.String("request_id", GetRequestID(r.Context())))

	if errors.Is(err, context.DeadlineExceeded) {
		api.sendError(w, r, http.StatusGatewayTimeout, "upstream timed out")
		return
	}
	api.sendError(w, r, http.StatusBadGateway, "upstream unavailable")
}

func (api *RestAPI) catalogUnavailableResponse(w http.ResponseWriter, r *http.Request) {
	api.sendError(w, r, http.StatusServiceUnavailable, "station catalog is loading")
}
