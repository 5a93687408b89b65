package testapp

import (
	"context"
	"io/fs"
	"path/filepath"
	"testing"

	sqlitemigrate "github.com/scantist-ossops-m2/wagtail/internal/platform/storage/sqlitemigrate"
	"github.com/scantist-ossops-m2/wagtail/internal/services/snippets/storage"
	"github.com/scantist-ossops-m2/wagtail/internal/services/snippets/storage/sqlite"
	"github.com/scantist-ossops-m2/wagtail/internal/services/snippets/viewset"
)

func TestRegistryURLs(t *testing.T) {
	t.Parallel()

	reg, err := Registry("", nil)
	if err != nil {
		t.Fatalf("registry: %v", err)
	}
	if got := len(reg.ViewSets()); got != 5 {
		t.Fatalf("viewsets = %d, want 5", got)
	}
	tests := []struct {
		name string
		args []string
		want string
	}{
		{name: "some_namespace:edit", args: []string{"1"}, want: "/admin/deep/within/the/admin/edit/1/"},
		{name: "my_chooser_namespace:choose", want: "/admin/choose/wisely/"},
		{name: "wagtailsnippets_tests_advert:list", want: "/admin/snippets/tests/advert/"},
		{name: "wagtailsnippetchoosers_tests_advert:choose", want: "/admin/snippets/choose/tests/advert/"},
	}
	for _, tt := range tests {
		got, err := reg.Reverse(tt.name, tt.args...)
		if err != nil {
			t.Fatalf("reverse %s: %v", tt.name, err)
		}
		if got != tt.want {
			t.Fatalf("reverse %s = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestRegistryAppliesOverrides(t *testing.T) {
	t.Parallel()

	reg, err := Registry("", viewset.Overrides{AdvertLabel: {ListPerPage: 3}})
	if err != nil {
		t.Fatalf("registry: %v", err)
	}
	vs, ok := reg.ForModel(AdvertLabel)
	if !ok {
		t.Fatal("advert not registered")
	}
	if vs.ListPerPage() != 3 {
		t.Fatalf("list per page = %d, want 3", vs.ListPerPage())
	}

	if _, err := Registry("", viewset.Overrides{"tests.unknown": {ListPerPage: 3}}); err == nil {
		t.Fatal("expected error for override of unknown model")
	}
}

func TestTemplatesShipOverrides(t *testing.T) {
	t.Parallel()

	for _, name := range []string{
		"wagtailsnippets/snippets/tests/fullfeaturedsnippet/create.html",
		"wagtailsnippets/snippets/tests/fullfeaturedsnippet/unpublish.html",
		"wagtailsnippets/snippets/tests/edit.html",
		"tests/fullfeaturedsnippet_index.html",
		"tests/snippet_history.html",
	} {
		if _, err := fs.Stat(Templates(), name); err != nil {
			t.Fatalf("stat %s: %v", name, err)
		}
	}
}

func TestMigrationsCreateEveryTable(t *testing.T) {
	t.Parallel()

	store, err := sqlite.Open(filepath.Join(t.TempDir(), "tests.db"), []sqlitemigrate.Source{Migrations()})
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	ctx := context.Background()
	for _, o := range Options() {
		if _, err := store.Count(ctx, o.Model, storage.Query{}); err != nil {
			t.Fatalf("count %s: %v", o.Model.Label(), err)
		}
	}
	advert, err := store.Create(ctx, Advert(), map[string]any{"text": "Buy now", "url": "https://example.com"}, storage.SaveOptions{})
	if err != nil {
		t.Fatalf("create advert: %v", err)
	}
	if _, err := store.Create(ctx, ChooserModel(), map[string]any{"advert": advert.PK}, storage.SaveOptions{}); err != nil {
		t.Fatalf("create chooser model: %v", err)
	}
}
