package restapi

import (
	"encoding/json"
	"net/http"

	"irisboard.dev/internal/catalog"
	"irisboard.dev/internal/logging"
)

// HealthResponse represents the JSON response from the health endpoint.
type HealthResponse struct {
	Status  string           `json:"status"`
	Detail  string           `json:"detail,omitempty"`
	Catalog *catalog.Summary `json:"catalog,omitempty"`
}

// healthHandler reports readiness. It returns 503 until the station catalog
// has loaded and while the response cache is unreachable. A catalog whose
// last refresh failed still serves its previous data and reports degraded.
func (api *RestAPI) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if api.Application == nil || api.Catalog == nil || api.Cache == nil || api.Cache.DB == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		_ = json.NewEncoder(w).Encode(HealthResponse{
			Status: "unavailable",
			Detail: "catalog or cache not initialized",
		})
		return
	}

	summary := api.Catalog.Summary()

	if !summary.Ready {
		w.WriteHeader(http.StatusServiceUnavailable)
		_ = json.NewEncoder(w).Encode(HealthResponse{
			Status:  "starting",
			Detail:  "station catalog is loading",
			Catalog: &summary,
		})
		return
	}

	if err := api.Cache.DB.PingContext(r.Context()); err != nil {
		logging.LogError(api.logger(r), "cache DB ping failed", err)
		w.WriteHeader(http.StatusServiceUnavailable)
		_ = json.NewEncoder(w).Encode(HealthResponse{
			Status: "unavailable",
			Detail: "cache database connection failed",
		})
		return
	}

	if !summary.Healthy {
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(HealthResponse{
			Status:  "degraded",
			Detail:  "station catalog refresh failed",
			Catalog: &summary,
		})
		return
	}

	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(HealthResponse{
		Status:  "ok",
		Catalog: &summary,
	})
}
