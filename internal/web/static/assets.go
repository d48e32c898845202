//go:build !dev

// Package static provides the embedded web UI for production builds.
package static

import (
	"embed"
	"net/http"
)

//go:embed index.html css/*.css js/*.js
var assetsFS embed.FS

// Handler returns an http.Handler that serves the embedded assets.
// It is mounted under /static/ with the prefix already stripped.
func Handler() http.Handler {
	return http.FileServer(http.FS(assetsFS))
}

// Index serves the single-page UI shell.
func Index(w http.ResponseWriter, r *http.Request) {
	http.ServeFileFS(w, r, assetsFS, "index.html")
}
