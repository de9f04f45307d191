package restapi

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"irisboard.dev/internal/clock"
	"irisboard.dev/internal/models"
)

func TestStationsHandler_Search(t *testing.T) {
	_, resp, model := serveAndRetrieveEndpoint(t, "/api/stations?q=frank")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "OK", model.Text)

	list := listOf(t, model)
	assert.Equal(t, []string{"FF", "FFS"}, collectAllIdsFromObjects(t, list, "ds100"))
	assert.Equal(t, false, model.Data.(map[string]any)["limitExceeded"])
}

func TestStationsHandler_ExactCodeFirst(t *testing.T) {
	_, _, model := serveAndRetrieveEndpoint(t, "/api/stations?q=bl")
	assert.Equal(t, []string{"BL"}, collectAllIdsFromObjects(t, listOf(t, model), "ds100"))
}

func TestStationsHandler_Limit(t *testing.T) {
	_, _, model := serveAndRetrieveEndpoint(t, "/api/stations?q=frank&limit=1")
	assert.Equal(t, []string{"FF"}, collectAllIdsFromObjects(t, listOf(t, model), "ds100"))
	assert.Equal(t, true, model.Data.(map[string]any)["limitExceeded"])

	_, _, model = serveAndRetrieveEndpoint(t, "/api/stations")
	assert.Len(t, listOf(t, model), 5)
}

func TestStationsHandler_InvalidLimit(t *testing.T) {
	_, resp, model := serveAndRetrieveEndpoint(t, "/api/stations?limit=abc")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "validation error", model.Text)

	fieldErrors := model.Data.(map[string]any)["fieldErrors"].(map[string]any)
	assert.Contains(t, fieldErrors, "limit")
}

func TestStationsHandler_CatalogNotReady(t *testing.T) {
	upstream := newFakeIris()
	upstream.remove("/v1/stations/")

	// The catalog fails to load but the API still starts.
	api, _ := createTestApiWithUpstreamNoCatalog(t, upstream)
	resp, model := serveApiAndRetrieveEndpoint(t, api, "/api/stations?q=frank")
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Equal(t, "station catalog is loading", model.Text)
}

func TestStationsNearbyHandler(t *testing.T) {
	_, resp, model := serveAndRetrieveEndpoint(t, "/api/stations/nearby?lat=50.107145&lon=8.663789&radius=3000")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	list := listOf(t, model)
	assert.Equal(t, []string{"FF", "FFS"}, collectNestedIds(t, list, "station", "ds100"))

	first := list[0].(map[string]any)
	assert.InDelta(t, 0, first["distance"], 1)
}

func TestStationsNearbyHandler_DefaultRadius(t *testing.T) {
	_, _, model := serveAndRetrieveEndpoint(t, "/api/stations/nearby?lat=50.107145&lon=8.663789")
	assert.Equal(t, []string{"FF"}, collectNestedIds(t, listOf(t, model), "station", "ds100"))
}

func TestStationsNearbyHandler_Validation(t *testing.T) {
	tests := []struct {
		name   string
		query  string
		fields []string
	}{
		{"missing coordinates", "", []string{"lat", "lon"}},
		{"not a number", "?lat=abc&lon=8.6", []string{"lat"}},
		{"out of range", "?lat=91&lon=181", []string{"lat", "lon"}},
		{"negative radius", "?lat=50&lon=8&radius=-5", []string{"radius"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, resp, model := serveAndRetrieveEndpoint(t, "/api/stations/nearby"+tt.query)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

			fieldErrors := model.Data.(map[string]any)["fieldErrors"].(map[string]any)
			for _, field := range tt.fields {
				assert.Contains(t, fieldErrors, field)
			}
		})
	}
}

func TestStationHandler(t *testing.T) {
	api, upstream := createTestApiWithUpstream(t, clock.NewMockClock(testNow), newFakeIris())

	t.Run("from the catalog", func(t *testing.T) {
		resp, model := serveApiAndRetrieveEndpoint(t, api, "/api/stations/mh")
		require.Equal(t, http.StatusOK, resp.StatusCode)
		entry := entryOf(t, model)
		assert.Equal(t, "München Hbf", entry["name"])
		assert.Equal(t, 0, upstream.hitCount("/v1/stations/MH"))
	})

	t.Run("from upstream", func(t *testing.T) {
		resp, model := serveApiAndRetrieveEndpoint(t, api, "/api/stations/KD")
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "Köln Hbf", entryOf(t, model)["name"])
		assert.Equal(t, 1, upstream.hitCount("/v1/stations/KD"))
	})

	t.Run("unknown", func(t *testing.T) {
		resp, model := serveApiAndRetrieveEndpoint(t, api, "/api/stations/XX")
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		assert.Equal(t, "resource not found", model.Text)
	})
}

func TestStationReferences(t *testing.T) {
	api := createTestApi(t)
	inline := models.Station{ID: 1, Name: "Inline"}
	stops := []*models.Stop{
		{StationID: 8000105},
		{StationID: 1, Station: &inline},
		{StationID: 8000105},
		{StationID: 424242},
		nil,
	}

	refs := api.stationReferences(stops)
	require.Len(t, refs, 2)
	assert.Equal(t, "FF", refs[0].DS100)
	assert.Equal(t, "Inline", refs[1].Name)
}
