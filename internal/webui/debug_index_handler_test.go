package webui

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"irisboard.dev/internal/appconf"
)

func TestDebugIndexHandler_ProductionReturns404(t *testing.T) {
	webUI := buildTestWebUI(t, newFakeIris(), appconf.Production, true)

	rr := servePage(t, webUI, "/debug?dataType=stations")
	assert.Equal(t, http.StatusNotFound, rr.Code, "Should return 404 in Production")

	rr = servePage(t, webUI, "/debug?dataType=stations&key=wrong")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestDebugIndexHandler_ProductionWithAdminKey(t *testing.T) {
	webUI := buildTestWebUI(t, newFakeIris(), appconf.Production, true)

	rr := servePage(t, webUI, "/debug?dataType=catalog&key="+testAdminKey)
	require.Equal(t, http.StatusOK, rr.Code)
	body := rr.Body.String()
	assert.Contains(t, body, "Catalog - Summary")
	assert.Contains(t, body, "dataType=stations&key="+testAdminKey)
}

func TestDebugIndexHandler_DataTypes(t *testing.T) {
	webUI := createTestWebUI(t)

	tests := []struct {
		dataType string
		contains string
	}{
		{"stations", "Frankfurt(Main)Hbf"},
		{"status_codes", "Abweichende Wagenreihung"},
		{"catalog", "Catalog - Summary"},
		{"cache", "Response Cache"},
		{"", "Choose a data type"},
	}

	for _, tt := range tests {
		t.Run(tt.dataType, func(t *testing.T) {
			rr := servePage(t, webUI, "/debug?dataType="+tt.dataType)
			require.Equal(t, http.StatusOK, rr.Code)
			assert.Contains(t, rr.Body.String(), tt.contains)
		})
	}
}
