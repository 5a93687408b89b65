package httpmux

import (
	"io/fs"
	"net/http"

	"github.com/scantist-ossops-m2/wagtail/internal/platform/icons"
	"github.com/scantist-ossops-m2/wagtail/internal/services/snippets/routepath"
)

// MountStatic wires static asset serving into the root mux. The icon sprite
// is generated from the icon catalog rather than read from staticFS.
func MountStatic(rootMux *http.ServeMux, staticFS fs.FS, sprite http.Handler, withStaticMime func(http.Handler) http.Handler) {
	if rootMux == nil || staticFS == nil {
		return
	}
	staticHandler := http.StripPrefix(routepath.StaticPrefix, http.FileServer(http.FS(staticFS)))
	if withStaticMime != nil {
		staticHandler = withStaticMime(staticHandler)
	}
	rootMux.Handle(routepath.StaticPrefix, staticHandler)
	if sprite != nil {
		rootMux.Handle(routepath.StaticAsset(icons.SpritePath), sprite)
	}
}

// MountAdminRoutes mounts the admin handler under the admin prefix and
// redirects the root path to it.
func MountAdminRoutes(rootMux *http.ServeMux, adminHandler http.Handler) {
	if rootMux == nil || adminHandler == nil {
		return
	}
	rootMux.Handle(routepath.AdminPrefix, adminHandler)
	rootMux.Handle(routepath.Root, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != routepath.Root {
			http.NotFound(w, r)
			return
		}
		http.Redirect(w, r, routepath.AdminPrefix, http.StatusFound)
	}))
}

// MountHealth answers liveness probes.
func MountHealth(rootMux *http.ServeMux) {
	if rootMux == nil {
		return
	}
	rootMux.HandleFunc(routepath.Health, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok"))
	})
}
