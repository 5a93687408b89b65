package snippets

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/scantist-ossops-m2/wagtail/internal/services/snippets/storage"
	"github.com/scantist-ossops-m2/wagtail/internal/services/snippets/testapp"
)

func newTestServer(t *testing.T, cfg Config) *Server {
	t.Helper()
	if cfg.HTTPAddr == "" {
		cfg.HTTPAddr = "127.0.0.1:0"
	}
	if cfg.DBPath == "" {
		cfg.DBPath = filepath.Join(t.TempDir(), "data", "snippets.db")
	}
	s, err := NewServer(cfg)
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	t.Cleanup(s.Close)
	return s
}

func TestNewServerValidatesConfig(t *testing.T) {
	t.Parallel()

	if _, err := NewServer(Config{DBPath: filepath.Join(t.TempDir(), "x.db")}); err == nil {
		t.Fatal("expected error for missing http address")
	}
	if _, err := NewServer(Config{HTTPAddr: ":0"}); err == nil {
		t.Fatal("expected error for missing db path")
	}
	if _, err := NewServer(Config{HTTPAddr: ":0", DBPath: filepath.Join(t.TempDir(), "x.db"), ViewSetsFile: filepath.Join(t.TempDir(), "missing.yaml")}); err == nil {
		t.Fatal("expected error for missing viewsets file")
	}
}

func TestServerRoutes(t *testing.T) {
	t.Parallel()
	s := newTestServer(t, Config{StaticVersion: "42"})
	ts := httptest.NewServer(s.httpServer.Handler)
	t.Cleanup(ts.Close)
	client := ts.Client()
	client.CheckRedirect = func(*http.Request, []*http.Request) error { return http.ErrUseLastResponse }

	tests := []struct {
		name        string
		path        string
		status      int
		contentType string
		header      string
		headerValue string
	}{
		{name: "health", path: "/healthz", status: http.StatusOK, contentType: "text/plain"},
		{name: "root redirect", path: "/", status: http.StatusFound, header: "Location", headerValue: "/admin/"},
		{name: "snippets index", path: "/admin/snippets/", status: http.StatusOK, contentType: "text/html"},
		{name: "stylesheet", path: "/static/wagtailadmin/css/core.css?v=42", status: http.StatusOK, contentType: "text/css", header: "Cache-Control", headerValue: "public, max-age=31536000, immutable"},
		{name: "sprite", path: "/static/wagtailadmin/icons.svg", status: http.StatusOK, contentType: "image/svg+xml"},
		{name: "unknown", path: "/nope", status: http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := client.Get(ts.URL + tt.path)
			if err != nil {
				t.Fatalf("get %s: %v", tt.path, err)
			}
			defer resp.Body.Close()
			if resp.StatusCode != tt.status {
				t.Fatalf("status = %d, want %d", resp.StatusCode, tt.status)
			}
			if tt.contentType != "" && !strings.HasPrefix(resp.Header.Get("Content-Type"), tt.contentType) {
				t.Fatalf("content type = %q, want prefix %q", resp.Header.Get("Content-Type"), tt.contentType)
			}
			if tt.header != "" && resp.Header.Get(tt.header) != tt.headerValue {
				t.Fatalf("%s = %q, want %q", tt.header, resp.Header.Get(tt.header), tt.headerValue)
			}
		})
	}
}

func TestServerAppliesViewSetsFile(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "viewsets.yaml")
	content := "viewsets:\n  tests.advert:\n    list_per_page: 2\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write viewsets file: %v", err)
	}
	s := newTestServer(t, Config{ViewSetsFile: path})

	vs, ok := s.registry.ForModel(testapp.AdvertLabel)
	if !ok {
		t.Fatal("advert not registered")
	}
	if vs.ListPerPage() != 2 {
		t.Fatalf("list per page = %d, want 2", vs.ListPerPage())
	}
}

func TestServerTemplateDirOverrides(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	target := filepath.Join(dir, "wagtailsnippets", "snippets", "tests", "advert")
	if err := os.MkdirAll(target, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	override := `{% extends "wagtailsnippets/snippets/index.html" %}{% block footer %}<p>Project footer</p>{% endblock %}`
	if err := os.WriteFile(filepath.Join(target, "index.html"), []byte(override), 0o600); err != nil {
		t.Fatalf("write override: %v", err)
	}
	s := newTestServer(t, Config{TemplateDir: dir})

	rec := httptest.NewRecorder()
	s.httpServer.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/admin/snippets/tests/advert/", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "<p>Project footer</p>") {
		t.Fatalf("expected project override:\n%s", rec.Body.String())
	}
}

func TestPublishScheduled(t *testing.T) {
	t.Parallel()
	s := newTestServer(t, Config{})
	ctx := context.Background()
	m := testapp.FullFeatured()
	goLive := time.Now().Add(time.Hour)

	rec, err := s.store.Create(ctx, m, map[string]any{"text": "Soon"}, storage.SaveOptions{Publish: true, GoLiveAt: goLive})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if rec.Live() {
		t.Fatal("scheduled record must not be live yet")
	}
	if n := s.publishScheduled(ctx, time.Now()); n != 0 {
		t.Fatalf("published %d before go-live", n)
	}
	if n := s.publishScheduled(ctx, goLive.Add(time.Minute)); n != 1 {
		t.Fatalf("published %d, want 1", n)
	}
	got, err := s.store.Get(ctx, m, rec.PK)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !got.Live() {
		t.Fatal("expected record to be live")
	}
}

func TestListenAndServeStopsOnCancel(t *testing.T) {
	t.Parallel()
	s := newTestServer(t, Config{PublishInterval: 10 * time.Millisecond})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.ListenAndServe(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("listen and serve: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
