package server

import (
	"io/fs"
	"net/http"
	"path"
	"strings"
)

const (
	// hashedAssetsDir holds the bundler output; file names carry a content hash.
	hashedAssetsDir = "assets/"

	cacheImmutable  = "public, max-age=31536000, immutable"
	cacheStatic     = "public, max-age=3600"
	cacheRevalidate = "no-cache"
)

// spaFileServer serves the built storefront from assets. Paths that are not
// real files get index.html so the client router can render /checkout,
// /pago/exito and friends. A missing hashed asset is a 404, never the shell:
// a stale page must not receive HTML for a script.
func spaFileServer(assets fs.FS) http.Handler {
	fileServer := http.FileServerFS(assets)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		name := strings.TrimPrefix(path.Clean("/"+r.URL.Path), "/")
		if name == "" {
			name = "index.html"
		}

		if _, err := fs.Stat(assets, name); err != nil {
			if strings.HasPrefix(name, hashedAssetsDir) {
				w.Header().Set("Cache-Control", cacheRevalidate)
				http.NotFound(w, r)
				return
			}
			name = "index.html"
			r.URL.Path = "/"
		}

		w.Header().Set("Cache-Control", cacheControl(name))
		fileServer.ServeHTTP(w, r)
	})
}

func cacheControl(name string) string {
	switch {
	case name == "index.html":
		return cacheRevalidate
	case strings.HasPrefix(name, hashedAssetsDir):
		return cacheImmutable
	default:
		return cacheStatic
	}
}
