// Package static embeds the admin stylesheets and scripts.
package static

import (
	"embed"
	"io/fs"
	"net/http"
	"path"
	"strings"

	"github.com/scantist-ossops-m2/wagtail/internal/platform/icons"
)

//go:embed files
var embedded embed.FS

// FS returns the static asset tree rooted at the static prefix.
func FS() fs.FS {
	sub, err := fs.Sub(embedded, "files")
	if err != nil {
		panic(err)
	}
	return sub
}

var mimeTypes = map[string]string{
	".css": "text/css; charset=utf-8",
	".js":  "text/javascript; charset=utf-8",
	".svg": "image/svg+xml",
}

// WithMime sets content types and caching for static responses. Versioned
// requests (?v=) are cacheable for a year.
func WithMime(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if contentType, ok := mimeTypes[strings.ToLower(path.Ext(r.URL.Path))]; ok {
			w.Header().Set("Content-Type", contentType)
		}
		if r.URL.Query().Get("v") != "" {
			w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
		}
		next.ServeHTTP(w, r)
	})
}

// SpriteHandler serves the icon sprite.
func SpriteHandler() http.Handler {
	sprite := []byte(icons.Sprite())
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", mimeTypes[".svg"])
		if r.Method == http.MethodHead {
			return
		}
		_, _ = w.Write(sprite)
	})
}
