// Package routepath holds the fixed mount points of the snippets service.
// Viewset paths are derived per model by the viewset package.
package routepath

import (
	"net/url"
	"strings"
)

const (
	Root = "/"
)

const (
	StaticPrefix = "/static/"
)

const (
	AdminPrefix = "/admin/"
)

// Health is answered without touching the database.
const Health = "/healthz"

// StaticAsset returns the static URL of an asset path.
func StaticAsset(asset string) string {
	return StaticPrefix + strings.TrimPrefix(asset, "/")
}

// WithQuery appends encoded query values to path when any are set.
func WithQuery(path string, query url.Values) string {
	if encoded := query.Encode(); encoded != "" {
		return path + "?" + encoded
	}
	return path
}

// IsAdminPath reports whether path is served by the admin handler.
func IsAdminPath(path string) bool {
	return path == strings.TrimSuffix(AdminPrefix, "/") || strings.HasPrefix(path, AdminPrefix)
}
