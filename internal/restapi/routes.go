package restapi

import (
	"net/http"

	"github.com/klauspost/compress/gzhttp"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Cache-Control max-age tiers, in seconds.
const (
	cacheStatic   = 300
	cacheRealtime = 30
	cacheNone     = 0
)

func (api *RestAPI) route(mux *http.ServeMux, pattern string, maxAge int, handler http.HandlerFunc) {
	var h http.Handler = handler
	if api.rateLimiter != nil {
		h = api.rateLimiter.Handler()(h)
	}
	mux.Handle(pattern, CacheControlMiddleware(maxAge, h))
}

// SetRoutes registers every API route on mux.
func (api *RestAPI) SetRoutes(mux *http.ServeMux) {
	api.route(mux, "GET /api/stations", cacheStatic, api.stationsHandler)
	api.route(mux, "GET /api/stations/nearby", cacheStatic, api.stationsNearbyHandler)
	api.route(mux, "GET /api/stations/{ds100}", cacheStatic, api.stationHandler)
	api.route(mux, "GET /api/stations/{ds100}/board/{date}", cacheRealtime, api.stationBoardHandler)

	api.route(mux, "GET /api/trains/{id}", cacheRealtime, api.trainHandler)
	api.route(mux, "GET /api/trains/{number}/{date}", cacheRealtime, api.trainByNumberHandler)
	api.route(mux, "GET /api/trains/{id}/messages", cacheRealtime, api.trainMessagesHandler)
	api.route(mux, "GET /api/days/{date}/trains", cacheRealtime, api.trainsOnDayHandler)

	api.route(mux, "GET /api/messages/{date}/{code}", cacheRealtime, api.messagesForDateAndCodeHandler)
	api.route(mux, "GET /api/status-codes", cacheStatic, api.statusCodesHandler)

	api.route(mux, "GET /api/current-time", cacheRealtime, api.currentTimeHandler)
	api.route(mux, "GET /api/config", cacheStatic, api.configHandler)
	api.route(mux, "POST /api/admin/refresh", cacheNone, api.refreshCatalogHandler)

	mux.HandleFunc("GET /healthz", api.healthHandler)
	if api.Application != nil && api.Metrics != nil {
		mux.Handle("GET /metrics", promhttp.HandlerFor(api.Metrics.Registry, promhttp.HandlerOpts{}))
	}
}

// Handler wraps mux in the middleware chain: request id, request logging,
// metrics and gzip compression.
func (api *RestAPI) Handler(mux http.Handler) http.Handler {
	var h http.Handler = gzhttp.GzipHandler(mux)
	if api.Application != nil {
		h = MetricsHandler(api.Metrics)(h)
		if api.Logger != nil {
			h = NewRequestLoggingMiddleware(api.Logger)(h)
		}
	}
	return RequestIDMiddleware(h)
}
