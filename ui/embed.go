// Package ui provides the embedded dashboard page.
package ui

import (
	"embed"
	"io/fs"
	"net/http"
	"strings"
)

// static holds the single-page dashboard and its assets.
//
//go:embed static/*
var static embed.FS

// Handler returns an http.Handler that serves the embedded dashboard.
// Unknown non-asset paths fall back to index.html.
func Handler() http.Handler {
	fsys, err := fs.Sub(static, "static")
	if err != nil {
		panic("failed to get static subdirectory: " + err.Error())
	}

	fileServer := http.FileServer(http.FS(fsys))

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		filePath := strings.TrimPrefix(r.URL.Path, "/")
		if filePath == "" {
			filePath = "index.html"
		}

		if _, err := fs.Stat(fsys, filePath); err == nil {
			fileServer.ServeHTTP(w, r)
			return
		}

		if !isAssetPath(r.URL.Path) {
			r.URL.Path = "/"
			fileServer.ServeHTTP(w, r)
			return
		}

		http.NotFound(w, r)
	})
}

// isAssetPath returns true if the path looks like a static file request.
func isAssetPath(path string) bool {
	for _, ext := range []string{".js", ".css", ".json", ".map", ".png", ".svg", ".ico", ".woff2"} {
		if strings.HasSuffix(path, ext) {
			return true
		}
	}
	return false
}
