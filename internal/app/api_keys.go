package app

import (
	"crypto/subtle"
	"net/http"
	"strings"
)

// RequestHasInvalidAdminKey checks the key query parameter, or a bearer
// token, against the configured admin keys.
func (app *Application) RequestHasInvalidAdminKey(r *http.Request) bool {
	key := r.URL.Query().Get("key")
	if key == "" {
		key, _ = strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	}
	return app.IsInvalidAdminKey(key)
}

// IsInvalidAdminKey reports whether key is not one of the admin keys. With no
// admin keys configured every key is invalid.
func (app *Application) IsInvalidAdminKey(key string) bool {
	if key == "" {
		return true
	}

	for _, validKey := range app.Config.AdminKeys {
		if subtle.ConstantTimeCompare([]byte(key), []byte(validKey)) == 1 {
			return false
		}
	}

	return true
}
