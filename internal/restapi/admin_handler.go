package restapi

import (
	"log/slog"
	"net/http"

	"irisboard.dev/internal/logging"
	"irisboard.dev/internal/models"
)

// refreshCatalogHandler reloads the station catalog from upstream. It needs
// an admin key.
func (api *RestAPI) refreshCatalogHandler(w http.ResponseWriter, r *http.Request) {
	if api.RequestHasInvalidAdminKey(r) {
		api.sendUnauthorized(w, r)
		return
	}
	if api.Catalog == nil {
		api.catalogUnavailableResponse(w, r)
		return
	}

	if err := api.Catalog.ForceUpdate(r.Context()); err != nil {
		api.upstreamErrorResponse(w, r, err)
		return
	}

	summary := api.Catalog.Summary()
	logging.LogOperation(api.logger(r), "catalog_refreshed_by_admin",
		slog.Int("stations", summary.Stations),
		slog.Int("status_codes", summary.StatusCodes))

	api.sendResponse(w, r, models.NewEntryResponse(summary, models.NewEmptyReferences(), api.clock()))
}
