package htmx

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/a-h/templ"
)

type testComponent struct {
	body string
	err  error
}

func (c testComponent) Render(_ context.Context, w io.Writer) error {
	if c.err != nil {
		return c.err
	}
	_, err := w.Write([]byte(c.body))
	return err
}

func htmxRequest() *http.Request {
	r := httptest.NewRequest(http.MethodGet, "/admin/snippets/tests/advert/", nil)
	r.Header.Set(ResponseHeaderKey, "true")
	return r
}

func TestIsHTMXRequest(t *testing.T) {
	t.Run("missing_request_is_not_htmx", func(t *testing.T) {
		t.Parallel()
		if got := IsHTMXRequest(nil); got {
			t.Fatalf("IsHTMXRequest(nil) = true, want false")
		}
	})

	t.Run("true_request_is_htmx", func(t *testing.T) {
		t.Parallel()
		if got := IsHTMXRequest(htmxRequest()); !got {
			t.Fatalf("IsHTMXRequest(request) = false, want true")
		}
	})
}

func TestTarget(t *testing.T) {
	t.Parallel()
	r := htmxRequest()
	r.Header.Set(TargetHeaderKey, "#listing-results")
	if got := Target(r); got != "listing-results" {
		t.Fatalf("Target() = %q, want listing-results", got)
	}
	if got := Target(httptest.NewRequest(http.MethodGet, "/", nil)); got != "" {
		t.Fatalf("Target() on full request = %q, want empty", got)
	}
}

func TestTitleTag(t *testing.T) {
	t.Parallel()
	got := TitleTag(`Adverts <Admin>`)
	want := "<title>Adverts &lt;Admin&gt;</title>"
	if got != want {
		t.Fatalf("TitleTag(...) = %q, want %q", got, want)
	}
}

func TestRenderPageForNonHTMXUsesFullRender(t *testing.T) {
	t.Parallel()
	r := httptest.NewRequest(http.MethodGet, "/test", nil)
	w := httptest.NewRecorder()

	err := RenderPage(context.Background(), w, r, Page{
		Fragment: testComponent{body: "<div>fragment</div>"},
		Full:     testComponent{body: "<html><body><main>full</main></body></html>"},
		Title:    "Provided",
	})
	if err != nil {
		t.Fatalf("RenderPage: %v", err)
	}
	if got := w.Body.String(); got != "<html><body><main>full</main></body></html>" {
		t.Fatalf("rendered body = %q, want full page body", got)
	}
}

func TestRenderPageForHTMXExtractsMainAndInjectsTitle(t *testing.T) {
	t.Parallel()
	w := httptest.NewRecorder()

	err := RenderPage(context.Background(), w, htmxRequest(), Page{
		Full:  testComponent{body: `<html><head><title>x</title></head><body><nav>crumbs</nav><main id="main">content</main></body></html>`},
		Title: "Adverts",
	})
	if err != nil {
		t.Fatalf("RenderPage: %v", err)
	}
	if got := w.Body.String(); got != "<title>Adverts</title>content" {
		t.Fatalf("rendered body = %q", got)
	}
	if vary := w.Header().Get("Vary"); vary != ResponseHeaderKey {
		t.Fatalf("Vary = %q", vary)
	}
}

func TestRenderPageForHTMXPrefersFragment(t *testing.T) {
	t.Parallel()
	w := httptest.NewRecorder()

	err := RenderPage(context.Background(), w, htmxRequest(), Page{
		Full:     testComponent{body: "<main>full</main>"},
		Fragment: testComponent{body: "<title>Already Set</title><table></table>"},
		Title:    "Injected Title",
	})
	if err != nil {
		t.Fatalf("RenderPage: %v", err)
	}
	if got := w.Body.String(); got != "<title>Already Set</title><table></table>" {
		t.Fatalf("rendered body = %q", got)
	}
}

func TestRenderPageWritesStatus(t *testing.T) {
	t.Parallel()
	w := httptest.NewRecorder()
	err := RenderPage(context.Background(), w, httptest.NewRequest(http.MethodPost, "/", nil), Page{
		Full:   testComponent{body: "<main>invalid form</main>"},
		Status: http.StatusBadRequest,
	})
	if err != nil {
		t.Fatalf("RenderPage: %v", err)
	}
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}

func TestRenderPageReturnsRenderErrorWithoutWriting(t *testing.T) {
	t.Parallel()
	w := httptest.NewRecorder()
	boom := errors.New("boom")
	err := RenderPage(context.Background(), w, htmxRequest(), Page{Full: testComponent{err: boom}})
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want boom", err)
	}
	if w.Body.Len() != 0 || strings.Contains(w.Header().Get("Content-Type"), "html") {
		t.Fatalf("expected nothing written, got %q", w.Body.String())
	}
}

func funcComponent(body string) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		_, err := io.WriteString(w, body)
		return err
	})
}

func TestRenderPageWithComponentFuncs(t *testing.T) {
	t.Parallel()
	full := funcComponent("<html><body><main>full</main></body></html>")
	fragment := funcComponent("<table>rows</table>")

	tests := []struct {
		name string
		req  *http.Request
		page Page
		want string
	}{
		{name: "htmx full only", req: htmxRequest(), page: Page{Full: full, Title: "Adverts"}, want: "<title>Adverts</title>full"},
		{name: "htmx fragment", req: htmxRequest(), page: Page{Full: full, Fragment: fragment, Title: "Adverts"}, want: "<title>Adverts</title><table>rows</table>"},
		{name: "htmx fragment only", req: htmxRequest(), page: Page{Fragment: fragment}, want: "<table>rows</table>"},
		{name: "full request", req: httptest.NewRequest(http.MethodGet, "/", nil), page: Page{Full: full, Fragment: fragment}, want: "<html><body><main>full</main></body></html>"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			w := httptest.NewRecorder()
			if err := RenderPage(context.Background(), w, tt.req, tt.page); err != nil {
				t.Fatalf("RenderPage: %v", err)
			}
			if got := w.Body.String(); got != tt.want {
				t.Fatalf("rendered body = %q, want %q", got, tt.want)
			}
		})
	}
}
