// Package templates holds presentation helpers shared by admin pages.
package templates

import (
	"strings"

	"golang.org/x/text/message"
)

// Localizer formats catalog messages.
type Localizer interface {
	Sprintf(key message.Reference, args ...any) string
}

// T translates key with loc, returning key itself without a localizer.
func T(loc Localizer, key string, args ...any) string {
	if loc == nil {
		return key
	}
	return loc.Sprintf(key, args...)
}

// BreadcrumbItem represents one breadcrumb entry in a page trail.
type BreadcrumbItem struct {
	// Label is the visible breadcrumb text.
	Label string
	// URL is the optional destination for this breadcrumb entry.
	URL string
}

// Trail normalizes a breadcrumb trail: blank labels are dropped and the last
// entry, the current page, never links. A single entry is no trail at all.
func Trail(items ...BreadcrumbItem) []BreadcrumbItem {
	out := make([]BreadcrumbItem, 0, len(items))
	for _, item := range items {
		item.Label = strings.TrimSpace(item.Label)
		if item.Label == "" {
			continue
		}
		item.URL = strings.TrimSpace(item.URL)
		out = append(out, item)
	}
	if len(out) < 2 {
		return []BreadcrumbItem{}
	}
	out[len(out)-1].URL = ""
	return out
}

// AppName is appended to page titles.
const AppName = "Wagtail"

// ComposePageTitle appends the application name to a page title unless it
// is already there.
func ComposePageTitle(title string) string {
	title = strings.TrimSpace(title)
	if title == "" {
		return AppName
	}
	suffix := " - " + AppName
	if strings.HasSuffix(title, suffix) {
		return title
	}
	if base, ok := strings.CutSuffix(title, " | "+AppName); ok {
		title = strings.TrimSpace(base)
	}
	return title + suffix
}
