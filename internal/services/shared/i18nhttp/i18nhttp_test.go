package i18nhttp

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/scantist-ossops-m2/wagtail/internal/platform/requestctx"
	"golang.org/x/text/language"
)

func TestResolveTag(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		url     string
		cookie  string
		accept  string
		want    language.Tag
		persist bool
	}{
		{name: "query param", url: "/?lang=pt-BR", want: language.BrazilianPortuguese, persist: true},
		{name: "base language query", url: "/?lang=pt", want: language.BrazilianPortuguese, persist: true},
		{name: "cookie", url: "/", cookie: "pt-BR", want: language.BrazilianPortuguese},
		{name: "accept language", url: "/", accept: "pt-BR,pt;q=0.9,en;q=0.5", want: language.BrazilianPortuguese},
		{name: "unknown query falls through", url: "/?lang=xx", want: language.AmericanEnglish},
		{name: "default", url: "/", want: language.AmericanEnglish},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			req := httptest.NewRequest(http.MethodGet, "http://example.com"+tc.url, nil)
			if tc.cookie != "" {
				req.AddCookie(&http.Cookie{Name: LangCookieName, Value: tc.cookie})
			}
			if tc.accept != "" {
				req.Header.Set("Accept-Language", tc.accept)
			}
			tag, persist := ResolveTag(req)
			if tag != tc.want {
				t.Fatalf("tag = %v, want %v", tag, tc.want)
			}
			if persist != tc.persist {
				t.Fatalf("persist = %v, want %v", persist, tc.persist)
			}
		})
	}
}

func TestMiddlewareStoresLocaleAndCookie(t *testing.T) {
	t.Parallel()

	var got language.Tag
	handler := Middleware(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		got = requestctx.LocaleFromContext(r.Context())
	}))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/admin/?lang=pt-BR", nil))

	if got != language.BrazilianPortuguese {
		t.Fatalf("locale = %v, want pt-BR", got)
	}
	cookies := rec.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Name != LangCookieName || cookies[0].Value != "pt-BR" {
		t.Fatalf("cookies = %v", cookies)
	}
}

func TestBuildLanguageOptions(t *testing.T) {
	t.Parallel()

	options := BuildLanguageOptions(
		Supported(),
		language.BrazilianPortuguese,
		func(tag language.Tag) string { return tag.String() + "-label" },
	)
	if len(options) != 2 {
		t.Fatalf("len(options) = %d, want 2", len(options))
	}
	if options[0].Tag != "en-US" || options[0].Active {
		t.Fatalf("options[0] = %+v", options[0])
	}
	if !options[1].Active || options[1].Label != "pt-BR-label" {
		t.Fatalf("options[1] = %+v", options[1])
	}
}

func TestLanguageURL(t *testing.T) {
	t.Parallel()

	got := LanguageURL("/admin/snippets/", "p=2", "en-US")
	if got != "/admin/snippets/?lang=en-US&p=2" {
		t.Fatalf("LanguageURL = %q", got)
	}
}
