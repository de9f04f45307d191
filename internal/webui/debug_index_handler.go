package webui

import (
	"html/template"
	"log/slog"
	"net/http"

	"github.com/davecgh/go-spew/spew"

	"irisboard.dev/internal/appconf"
	"irisboard.dev/internal/logging"
)

type debugData struct {
	Title string
	Pre   string
	// Key is carried into the data type links when the page needs one.
	Key string
}

var debugTemplate = template.Must(template.ParseFS(templateFS, "templates/debug.html"))

func writeDebugData(w http.ResponseWriter, logger *slog.Logger, title, key string, data any) {
	content := spew.Sdump(data)
	w.Header().Set("Content-Type", "text/html; charset=utf-8")

	err := debugTemplate.Execute(w, debugData{Title: title, Pre: content, Key: key})
	if err != nil {
		logging.LogError(logger, "failed to execute debug template", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}

// debugIndexHandler dumps the in-memory catalog and cache state. In
// production it is only reachable with an admin key.
func (webUI *WebUI) debugIndexHandler(w http.ResponseWriter, r *http.Request) {
	var key string
	if webUI.Config.Env == appconf.Production {
		if webUI.RequestHasInvalidAdminKey(r) {
			http.NotFound(w, r)
			return
		}
		key = r.URL.Query().Get("key")
	}
	dataType := r.URL.Query().Get("dataType")

	var data any
	var title string

	switch dataType {
	case "stations":
		data = webUI.catalogData(func() any { return webUI.Catalog.Stations() })
		title = "Catalog - Stations"
	case "status_codes":
		data = webUI.catalogData(func() any { return webUI.Catalog.StatusCodes() })
		title = "Catalog - Status Codes"
	case "catalog":
		data = webUI.catalogData(func() any { return webUI.Catalog.Summary() })
		title = "Catalog - Summary"
	case "cache":
		if webUI.Cache == nil {
			data = map[string]string{"error": "cache not initialized"}
		} else {
			stats, err := webUI.Cache.Stats(r.Context())
			if err != nil {
				logging.LogError(webUI.logger(r), "failed to read cache stats", err)
				data = map[string]string{"error": err.Error()}
			} else {
				data = stats
			}
		}
		title = "Response Cache"
	default:
		data = map[string]string{
			"error": "Please use one of the following: stations, status_codes, catalog, cache.",
		}
		title = "Choose a data type"
	}

	writeDebugData(w, webUI.logger(r), title, key, data)
}

func (webUI *WebUI) catalogData(get func() any) any {
	if webUI.Catalog == nil {
		return map[string]string{"error": "catalog not initialized"}
	}
	return get()
}
