//go:build dev

// Package static serves the web UI from the filesystem for development.
package static

import "net/http"

const assetRoot = "./internal/web/static"

// Handler returns an http.Handler that serves assets from the
// filesystem. In development mode, this allows editing CSS and JS
// without a rebuild.
func Handler() http.Handler {
	return http.FileServer(http.Dir(assetRoot))
}

// Index serves the single-page UI shell.
func Index(w http.ResponseWriter, r *http.Request) {
	http.ServeFile(w, r, assetRoot+"/index.html")
}
