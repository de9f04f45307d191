package webui

import (
	"embed"
	"io/fs"
	"log/slog"
	"net/http"
	"path"
	"strings"
)

//go:embed static
var staticFS embed.FS

var allowedStaticExtensions = map[string]bool{
	".css": true, ".js": true,
	".png": true, ".svg": true, ".ico": true,
}

// staticHandler serves the embedded stylesheet and icons.
func (webUI *WebUI) staticHandler(w http.ResponseWriter, r *http.Request) {
	fileName := r.PathValue("file")

	ext := strings.ToLower(path.Ext(fileName))
	if !allowedStaticExtensions[ext] {
		http.Error(w, "File not found", http.StatusNotFound)
		return
	}

	if strings.Contains(fileName, "..") || strings.ContainsAny(fileName, `/\`) {
		webUI.logger(r).Warn("potential path traversal attempt blocked", slog.String("file", fileName))
		http.Error(w, "Invalid file name", http.StatusBadRequest)
		return
	}

	assets, err := fs.Sub(staticFS, "static")
	if err != nil {
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}
	stat, err := fs.Stat(assets, fileName)
	if err != nil || stat.IsDir() {
		http.Error(w, "File not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Cache-Control", "public, max-age=3600")
	http.ServeFileFS(w, r, assets, fileName)
}
