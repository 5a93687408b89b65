package static

import (
	"io/fs"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestFSContainsCoreAssets(t *testing.T) {
	t.Parallel()

	for _, name := range []string{"wagtailadmin/css/core.css", "wagtailadmin/js/date-time-chooser.js"} {
		if _, err := fs.Stat(FS(), name); err != nil {
			t.Fatalf("stat %s: %v", name, err)
		}
	}
}

func TestWithMimeSetsHeaders(t *testing.T) {
	t.Parallel()

	handler := WithMime(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/wagtailadmin/js/date-time-chooser.js?v=abc", nil))

	if got := rec.Header().Get("Content-Type"); got != "text/javascript; charset=utf-8" {
		t.Fatalf("content type = %q", got)
	}
	if got := rec.Header().Get("Cache-Control"); !strings.Contains(got, "immutable") {
		t.Fatalf("cache control = %q", got)
	}
}

func TestSpriteHandler(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	SpriteHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if !strings.Contains(rec.Body.String(), `id="icon-cog"`) {
		t.Fatalf("sprite missing cog symbol: %s", rec.Body.String())
	}
}
