// Package htmx serves full pages or their main content depending on whether
// the request came from an HTMX partial update.
package htmx

import (
	"bytes"
	"context"
	"html"
	"net/http"
	"strings"

	"github.com/a-h/templ"
)

// ResponseHeaderKey is the HTMX request header used to detect partial updates.
const ResponseHeaderKey = "HX-Request"

// TargetHeaderKey carries the id of the element HTMX will swap.
const TargetHeaderKey = "HX-Target"

// IsHTMXRequest reports whether the request was initiated by HTMX.
func IsHTMXRequest(r *http.Request) bool {
	if r == nil {
		return false
	}
	return strings.EqualFold(r.Header.Get(ResponseHeaderKey), "true")
}

// Target returns the swap target id of an HTMX request, without "#".
func Target(r *http.Request) string {
	if !IsHTMXRequest(r) {
		return ""
	}
	return strings.TrimPrefix(strings.TrimSpace(r.Header.Get(TargetHeaderKey)), "#")
}

// TitleTag formats an escaped `<title>` element.
func TitleTag(title string) string {
	title = strings.TrimSpace(title)
	if title == "" {
		return ""
	}
	return "<title>" + html.EscapeString(title) + "</title>"
}

// Page is one renderable response.
type Page struct {
	// Full renders the whole document.
	Full templ.Component
	// Fragment, when set, replaces the main content of Full for HTMX
	// requests.
	Fragment templ.Component
	// Title is prepended as a <title> to HTMX responses lacking one.
	Title string
	// Status defaults to 200.
	Status int
}

// RenderPage renders page for normal or HTMX requests.
//
// The component is rendered into memory first so a failing template never
// produces a partial response; the error is returned before anything is
// written.
func RenderPage(ctx context.Context, w http.ResponseWriter, r *http.Request, page Page) error {
	if ctx == nil {
		ctx = context.Background()
	}
	partial := IsHTMXRequest(r)
	target, full := page.Full, true
	if (partial && page.Fragment != nil) || target == nil {
		target, full = page.Fragment, false
	}
	if target == nil {
		w.WriteHeader(statusOrOK(page.Status))
		return nil
	}

	var body bytes.Buffer
	if err := target.Render(ctx, &body); err != nil {
		return err
	}
	out := body.Bytes()
	if partial {
		if full {
			if mainContent, ok := extractMainContent(out); ok {
				out = mainContent
			}
		}
		out = addTitleIfMissing(out, TitleTag(page.Title))
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if partial {
		w.Header().Add("Vary", ResponseHeaderKey)
	}
	w.WriteHeader(statusOrOK(page.Status))
	_, err := w.Write(out)
	return err
}

func statusOrOK(status int) int {
	if status <= 0 {
		return http.StatusOK
	}
	return status
}

func addTitleIfMissing(body []byte, title string) []byte {
	if title == "" || bytes.Contains(bytes.ToLower(body), []byte("<title")) {
		return body
	}
	return append([]byte(title), body...)
}

func extractMainContent(body []byte) ([]byte, bool) {
	start := bytes.Index(body, []byte("<main"))
	if start < 0 {
		return nil, false
	}
	openClose := bytes.Index(body[start:], []byte(">"))
	if openClose < 0 {
		return nil, false
	}
	contentStart := start + openClose + 1
	end := bytes.LastIndex(body[contentStart:], []byte("</main>"))
	if end < 0 {
		return nil, false
	}
	return body[contentStart : contentStart+end], true
}
