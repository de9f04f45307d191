package app

import (
	"log/slog"
	"time"

	"irisboard.dev/internal/appconf"
	"irisboard.dev/internal/cache"
	"irisboard.dev/internal/catalog"
	"irisboard.dev/internal/clock"
	"irisboard.dev/internal/iris"
	"irisboard.dev/internal/metrics"
)

// Application holds the dependencies shared by the HTTP handlers, helpers,
// and middleware.
type Application struct {
	Config         appconf.Config
	UpstreamConfig appconf.UpstreamConfigData
	Logger         *slog.Logger
	Clock          clock.Clock
	Metrics        *metrics.Metrics
	Cache          *cache.Store
	Iris           *iris.Client
	Catalog        *catalog.Manager
	// Location is the zone dates and clock times are shown in.
	Location *time.Location
}

// Now returns the current time in the display zone.
func (app *Application) Now() time.Time {
	return app.Clock.Now().In(app.Location)
}

// Today returns midnight of the current service day.
func (app *Application) Today() time.Time {
	return clock.Today(app.Clock, app.Location)
}
