package restapi

import (
	"time"

	"irisboard.dev/internal/app"
)

// RestAPI serves the JSON API. It embeds the Application so handlers reach
// shared dependencies directly.
type RestAPI struct {
	*app.Application
	rateLimiter *RateLimitMiddleware
}

func NewRestAPI(app *app.Application) *RestAPI {
	api := &RestAPI{Application: app}
	if app != nil {
		api.rateLimiter = NewRateLimitMiddleware(app.Config.RateLimit, time.Second, app.Config.RateLimitExempt, app.Clock)
	}
	return api
}

// Shutdown stops background work owned by the API.
func (api *RestAPI) Shutdown() {
	if api.rateLimiter != nil {
		api.rateLimiter.Stop()
	}
}
