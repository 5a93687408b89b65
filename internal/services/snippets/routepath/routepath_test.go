package routepath

import (
	"net/url"
	"testing"
)

func TestTopLevelRoutes(t *testing.T) {
	t.Parallel()

	if Root != "/" {
		t.Fatalf("Root = %q", Root)
	}
	if StaticPrefix != "/static/" {
		t.Fatalf("StaticPrefix = %q", StaticPrefix)
	}
	if AdminPrefix != "/admin/" {
		t.Fatalf("AdminPrefix = %q", AdminPrefix)
	}
}

func TestStaticAsset(t *testing.T) {
	t.Parallel()

	if got := StaticAsset("/wagtailadmin/icons.svg"); got != "/static/wagtailadmin/icons.svg" {
		t.Fatalf("StaticAsset = %q", got)
	}
}

func TestWithQuery(t *testing.T) {
	t.Parallel()

	if got := WithQuery("/admin/snippets/", nil); got != "/admin/snippets/" {
		t.Fatalf("WithQuery(nil) = %q", got)
	}
	got := WithQuery("/admin/snippets/", url.Values{"q": {"a b"}, "p": {"2"}})
	if got != "/admin/snippets/?p=2&q=a+b" {
		t.Fatalf("WithQuery = %q", got)
	}
}

func TestIsAdminPath(t *testing.T) {
	t.Parallel()

	tests := map[string]bool{
		"/admin":                 true,
		"/admin/":                true,
		"/admin/snippets/":       true,
		"/administrator":         false,
		"/static/wagtailadmin/x": false,
	}
	for path, want := range tests {
		if got := IsAdminPath(path); got != want {
			t.Fatalf("IsAdminPath(%q) = %v, want %v", path, got, want)
		}
	}
}
