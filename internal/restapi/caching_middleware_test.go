package restapi

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCacheControlHeaders(t *testing.T) {
	api := createTestApi(t)

	mux := http.NewServeMux()
	api.SetRoutes(mux)
	server := httptest.NewServer(mux)
	defer server.Close()

	tests := []struct {
		name           string
		method         string
		endpoint       string
		expectedHeader string
	}{
		{
			name:           "Static Data (Long Cache)",
			endpoint:       "/api/stations?q=frank",
			expectedHeader: "public, max-age=300", // 5 minutes
		},
		{
			name:           "Real-time Data (Short Cache)",
			endpoint:       "/api/current-time",
			expectedHeader: "public, max-age=30", // 30 seconds
		},
		{
			name:           "Admin Actions (No Cache)",
			method:         http.MethodPost,
			endpoint:       "/api/admin/refresh?key=" + testAdminKey,
			expectedHeader: "no-cache, no-store, must-revalidate",
		},
		{
			name:           "Error Response (No Cache on 404)",
			endpoint:       "/api/stations/XX",
			expectedHeader: "no-cache, no-store, must-revalidate",
		},
		{
			name:           "Validation Error (No Cache on 400)",
			endpoint:       "/api/stations/FF/board/tomorrow",
			expectedHeader: "no-cache, no-store, must-revalidate",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			method := tt.method
			if method == "" {
				method = http.MethodGet
			}
			req, err := http.NewRequest(method, server.URL+tt.endpoint, nil)
			assert.NoError(t, err)
			resp, err := http.DefaultClient.Do(req)
			assert.NoError(t, err)
			defer func() { _ = resp.Body.Close() }()

			gotHeader := resp.Header.Get("Cache-Control")
			assert.Equal(t, tt.expectedHeader, gotHeader, "Cache-Control header mismatch for %s", tt.endpoint)
		})
	}
}

func TestCacheControlMiddleware_ImplicitOK(t *testing.T) {
	handler := CacheControlMiddleware(60, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("body"))
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, "public, max-age=60", rec.Header().Get("Cache-Control"))
	assert.Equal(t, "body", rec.Body.String())
}
