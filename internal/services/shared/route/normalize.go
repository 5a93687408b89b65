package route

import (
	"net/http"
	"strings"
)

// RedirectAppendSlash canonicalizes admin paths by appending a trailing "/".
//
// resolves reports whether the slashed path names a route; the redirect is
// only issued for safe methods when it does. It returns true when a redirect
// was written. Route handlers should stop further processing when true.
func RedirectAppendSlash(w http.ResponseWriter, r *http.Request, resolves func(path string) bool) bool {
	if w == nil || r == nil || r.URL == nil {
		return false
	}
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		return false
	}

	originalPath := r.URL.Path
	if originalPath == "" || strings.HasSuffix(originalPath, "/") {
		return false
	}
	canonical := originalPath + "/"
	if resolves != nil && !resolves(canonical) {
		return false
	}
	if r.URL.RawQuery != "" {
		canonical += "?" + r.URL.RawQuery
	}

	http.Redirect(w, r, canonical, http.StatusMovedPermanently)
	return true
}
