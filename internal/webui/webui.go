// Package webui renders the HTML dashboard: station search, station boards,
// train timetables and message lists.
package webui

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"time"

	"irisboard.dev/internal/app"
	"irisboard.dev/internal/board"
	"irisboard.dev/internal/logging"
	"irisboard.dev/internal/models"
	"irisboard.dev/internal/timeparse"
)

//go:embed templates/*.html
var templateFS embed.FS

// WebUI serves the dashboard pages from the shared application state.
type WebUI struct {
	*app.Application
	pages map[string]*template.Template
}

var pageNames = []string{"stations", "board", "train", "trains", "messages", "error"}

func NewWebUI(application *app.Application) (*WebUI, error) {
	webUI := &WebUI{Application: application, pages: make(map[string]*template.Template)}

	for _, name := range pageNames {
		tmpl, err := template.New("layout.html").
			Funcs(webUI.templateFuncs()).
			ParseFS(templateFS, "templates/layout.html", "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("parsing %s template: %w", name, err)
		}
		webUI.pages[name] = tmpl
	}
	return webUI, nil
}

// SetWebUIRoutes registers the dashboard pages on mux.
func (webUI *WebUI) SetWebUIRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/stations", http.StatusFound)
	})
	mux.HandleFunc("GET /stations", webUI.stationsPageHandler)
	mux.HandleFunc("GET /stations/{ds100}", webUI.stationTodayHandler)
	mux.HandleFunc("GET /stations/{ds100}/{date}", webUI.boardPageHandler)
	mux.HandleFunc("GET /trains", webUI.trainSearchPageHandler)
	mux.HandleFunc("GET /trains/{id}", webUI.trainPageHandler)
	mux.HandleFunc("GET /messages", webUI.messagesPageHandler)
	mux.HandleFunc("GET /static/{file}", webUI.staticHandler)
	mux.HandleFunc("GET /debug", webUI.debugIndexHandler)
}

type pageData struct {
	Title string
	Now   time.Time
	Data  any
}

func (webUI *WebUI) render(w http.ResponseWriter, r *http.Request, status int, page, title string, data any) {
	tmpl, ok := webUI.pages[page]
	if !ok {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	// Render into a buffer so a template error never leaves half a page.
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, pageData{Title: title, Now: webUI.Now(), Data: data}); err != nil {
		logging.LogError(webUI.logger(r), "failed to execute page template", err, slog.String("page", page))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

func (webUI *WebUI) renderError(w http.ResponseWriter, r *http.Request, status int, message string) {
	webUI.render(w, r, status, "error", http.StatusText(status), message)
}

func (webUI *WebUI) logger(r *http.Request) *slog.Logger {
	return logging.FromContext(r.Context())
}

func (webUI *WebUI) templateFuncs() template.FuncMap {
	return template.FuncMap{
		"dateCode": timeparse.FormatDateCode,
		"dateTime": func(v timeparse.Value) string {
			s, ok := timeparse.FormatDateTime(v)
			if !ok {
				return "-"
			}
			return s
		},
		"isoDate": func(t time.Time) string { return t.Format(time.DateOnly) },
		"delayClass": func(m board.MovementStatus) string {
			if m.Late {
				return "late"
			}
			return "on-time"
		},
		"deref": func(s *string) string {
			if s == nil {
				return ""
			}
			return *s
		},
		"code": func(c *int) string {
			if c == nil {
				return "-"
			}
			return fmt.Sprint(*c)
		},
		"statusText": func(c *int) string {
			if c == nil || webUI.Catalog == nil {
				return ""
			}
			if sc, ok := webUI.Catalog.StatusCode(*c); ok {
				return sc.LongText
			}
			return ""
		},
		"trainName": func(t models.Train) string { return board.FullTrainName(&t, false) },
	}
}
