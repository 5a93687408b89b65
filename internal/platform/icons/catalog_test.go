package icons

import (
	"strings"
	"testing"
)

func TestCatalogNamesAreUnique(t *testing.T) {
	seen := map[string]bool{}
	for _, def := range Catalog() {
		if def.Name == "" || def.Path == "" {
			t.Fatalf("incomplete definition: %+v", def)
		}
		if seen[def.Name] {
			t.Fatalf("duplicate icon %q", def.Name)
		}
		seen[def.Name] = true
	}
	for _, name := range []string{"cog", "snippet", "history", "list-ul"} {
		if !seen[name] {
			t.Fatalf("expected %q in catalog", name)
		}
	}
}

func TestSVG(t *testing.T) {
	tests := []struct {
		name    string
		icon    string
		classes []string
		want    string
	}{
		{
			name: "plain",
			icon: "cog",
			want: `<svg class="icon icon-cog" aria-hidden="true"><use href="/static/wagtailadmin/icons.svg#icon-cog"></use></svg>`,
		},
		{
			name:    "extra class",
			icon:    "cog",
			classes: []string{"icon"},
			want:    `<svg class="icon icon-cog icon" aria-hidden="true"><use href="/static/wagtailadmin/icons.svg#icon-cog"></use></svg>`,
		},
		{
			name: "unknown",
			icon: "nope",
			want: `<svg class="icon icon-placeholder" aria-hidden="true"><use href="/static/wagtailadmin/icons.svg#icon-placeholder"></use></svg>`,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := SVG("/static/", tc.icon, tc.classes...); got != tc.want {
				t.Fatalf("SVG = %s\nwant  %s", got, tc.want)
			}
		})
	}
}

func TestSpriteDefinesEverySymbol(t *testing.T) {
	sprite := Sprite()
	for _, name := range Names() {
		if !strings.Contains(sprite, `id="`+SymbolID(name)+`"`) {
			t.Fatalf("sprite missing %s", name)
		}
	}
}
