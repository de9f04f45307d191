package webui

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"irisboard.dev/internal/app"
	"irisboard.dev/internal/appconf"
	"irisboard.dev/internal/cache"
	"irisboard.dev/internal/catalog"
	"irisboard.dev/internal/clock"
	"irisboard.dev/internal/iris"
	"irisboard.dev/internal/metrics"
	"irisboard.dev/internal/timeparse"
)

const testAdminKey = "TEST-ADMIN"

var testNow = time.Date(2024, 6, 15, 10, 5, 0, 0, timeparse.Berlin)

var fixtures = map[string]string{
	"/v1/stations/": `[
		{"id": 8000105, "lat": 50.107145, "lon": 8.663789, "name": "Frankfurt(Main)Hbf", "ds100": "FF"},
		{"id": 8000261, "lat": 48.140232, "lon": 11.558335, "name": "München Hbf", "ds100": "MH"}
	]`,
	"/v1/status_codes/": `[
		{"code": 43, "c_type": "d", "long_text": "Verspätung eines vorausfahrenden Zuges"},
		{"code": 80, "c_type": "q", "long_text": "Abweichende Wagenreihung"}
	]`,
	"/v1/stations/FF/trains/240615": `[
		{"id": "1001-240615", "operator": "80", "category": "ICE", "number": "1001", "line": null, "date": "2024-06-15", "past_stops": [], "next_stops": []},
		{"id": "577-240615", "operator": "80", "category": "ICE", "number": "577", "line": null, "date": "2024-06-15", "past_stops": [], "next_stops": []},
		{"id": "4460-240615", "operator": "800486", "category": "RE", "number": "4460", "line": "60", "date": "2024-06-15", "past_stops": [], "next_stops": []}
	]`,
	"/v1/stations/FF/stops/240615": `[
		{"id": "b1", "train_id": "1001-240615", "station_id": 8000105, "arrival": null,
		 "departure": {"platform": "9", "planned": "2024-06-15T11:00:00+02:00"}},
		{"id": "b2", "train_id": "577-240615", "station_id": 8000105,
		 "arrival": {"platform": "7", "planned": "2024-06-15T09:58:00+02:00"},
		 "departure": {"platform": "7", "planned": "2024-06-15T10:02:00+02:00"}},
		{"id": "b3", "train_id": "4460-240615", "station_id": 8000105,
		 "arrival": {"platform": "12", "planned": "2024-06-15T09:30:00+02:00"},
		 "departure": {"platform": "12", "planned": "2024-06-15T09:35:00+02:00"}}
	]`,
	"/v1/trains/on/240615": `[
		{"id": "577-240615", "operator": "80", "category": "ICE", "number": "577", "line": null, "date": "2024-06-15", "past_stops": [], "next_stops": []},
		{"id": "4460-240615", "operator": "800486", "category": "RE", "number": "4460", "line": "60", "date": "2024-06-15", "past_stops": [], "next_stops": []}
	]`,
	"/v1/trains/577-240615": `{
		"id": "577-240615", "operator": "80", "category": "ICE", "number": "577", "line": null, "date": "2024-06-15",
		"past_stops": [
			{"id": "t1", "train_id": "577-240615", "station_id": 8000105,
			 "arrival": {"platform": "7", "planned": "2024-06-15T09:58:00+02:00"},
			 "departure": {"platform": "7", "planned": "2024-06-15T10:02:00+02:00"}}
		],
		"next_stops": [
			{"id": "t2", "train_id": "577-240615", "station_id": 8000261,
			 "arrival": {"platform": "18", "planned": "2024-06-15T13:30:00+02:00", "current": "2024-06-15T13:42:00+02:00"}, "departure": null}
		]
	}`,
	"/v1/messages/train/577-240615": `[
		{"id": "m1", "train_id": "577-240615", "train": "ICE 577", "code": 80, "timestamp": "2024-06-15T09:40:00+02:00"}
	]`,
	"/v1/messages/240615/43": `[
		{"id": "m2", "train_id": "4460-240615", "train": "RE 4460", "code": 43, "timestamp": "2024-06-15T09:10:00+02:00",
		 "valid_from": "2024-06-15T09:00:00+02:00", "valid_to": "2024-06-15T12:00:00+02:00"}
	]`,
}

// fakeIris serves canned IRIS responses by request path.
type fakeIris struct {
	mu        sync.Mutex
	responses map[string]string
}

func newFakeIris() *fakeIris {
	responses := make(map[string]string, len(fixtures))
	for path, body := range fixtures {
		responses[path] = body
	}
	return &fakeIris{responses: responses}
}

func (f *fakeIris) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	body, ok := f.responses[r.URL.Path]
	f.mu.Unlock()

	if !ok {
		http.Error(w, `{"error": "not found"}`, http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(body))
}

func (f *fakeIris) set(path, body string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responses[path] = body
}

func (f *fakeIris) remove(path string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.responses, path)
}

func createTestWebUI(t *testing.T) *WebUI {
	t.Helper()
	return buildTestWebUI(t, newFakeIris(), appconf.Development, true)
}

func buildTestWebUI(t *testing.T, upstream *fakeIris, env appconf.Environment, requireCatalog bool) *WebUI {
	t.Helper()

	server := httptest.NewServer(upstream)
	t.Cleanup(server.Close)

	c := clock.NewMockClock(testNow)
	upstreamConfig := appconf.DefaultUpstreamConfigData()
	upstreamConfig.BaseURL = server.URL + "/v1"
	upstreamConfig.RequestsPerSecond = 0
	upstreamConfig.Env = appconf.Test

	store, err := cache.Open(cache.Config{DBPath: ":memory:", Env: appconf.Test}, c)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	m := metrics.New()
	client, err := iris.NewClient(iris.ConfigFromUpstream(upstreamConfig), store, m)
	require.NoError(t, err)

	manager := catalog.NewManager(iris.RefreshSource{Client: client}, catalog.Config{}, m, c)
	t.Cleanup(manager.Shutdown)
	if err := manager.Start(context.Background()); requireCatalog {
		require.NoError(t, err)
	}

	webUI, err := NewWebUI(&app.Application{
		Config:         appconf.Config{Env: env, AdminKeys: []string{testAdminKey}},
		UpstreamConfig: upstreamConfig,
		Clock:          c,
		Metrics:        m,
		Cache:          store,
		Iris:           client,
		Catalog:        manager,
		Location:       timeparse.Berlin,
	})
	require.NoError(t, err)
	return webUI
}

// servePage sends a GET through the dashboard routes without following
// redirects.
func servePage(t *testing.T, webUI *WebUI, target string) *httptest.ResponseRecorder {
	t.Helper()
	mux := http.NewServeMux()
	webUI.SetWebUIRoutes(mux)

	req := httptest.NewRequest(http.MethodGet, target, nil)
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)
	return rr
}
