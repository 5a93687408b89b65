package viewset

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	apperrors "github.com/scantist-ossops-m2/wagtail/internal/platform/errors"
	"github.com/scantist-ossops-m2/wagtail/internal/services/snippets/filters"
	"github.com/scantist-ossops-m2/wagtail/internal/services/snippets/listing"
	"github.com/scantist-ossops-m2/wagtail/internal/services/snippets/model"
)

func advert() model.Model {
	return model.Model{
		AppLabel:   "tests",
		ModelName:  "advert",
		TitleField: "text",
		Fields: []model.Field{
			{Name: "url", Type: model.FieldURL},
			{Name: "text", Type: model.FieldText},
		},
	}
}

func fullFeatured() model.Model {
	return model.Model{
		AppLabel:   "tests",
		ModelName:  "fullfeaturedsnippet",
		TitleField: "text",
		DraftState: true,
		Revisions:  true,
		Workflow:   true,
		Fields: []model.Field{
			{Name: "text", Type: model.FieldText},
			{Name: "country_code", Type: model.FieldChoice, Choices: []model.Choice{{Value: "ID", Label: "Indonesia"}}},
		},
	}
}

func fullFeaturedOptions() Options {
	return Options{
		Model:               fullFeatured(),
		Icon:                "cog",
		URLNamespace:        "some_namespace",
		URLPrefix:           "deep/within/the/admin",
		ChooserURLNamespace: "my_chooser_namespace",
		ChooserURLPrefix:    "choose/wisely",
		ListPerPage:         5,
		ChooserPerPage:      15,
		ListFilter:          []string{"country_code"},
		ListDisplay: []listing.Column{
			listing.Field("text"),
			listing.FieldWithLabel("country_code", "Country Code"),
			listing.Updated(),
		},
	}
}

func TestDefaults(t *testing.T) {
	v, err := New(Options{Model: advert()})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if v.Namespace() != "wagtailsnippets_tests_advert" {
		t.Fatalf("namespace = %q", v.Namespace())
	}
	if v.BasePath() != "snippets/tests/advert" {
		t.Fatalf("base path = %q", v.BasePath())
	}
	if got, _ := v.GetURLName(ViewEdit); got != "wagtailsnippets_tests_advert:edit" {
		t.Fatalf("url name = %q", got)
	}
	if got := v.MustReverse(ViewEdit, "7"); got != "/admin/snippets/tests/advert/edit/7/" {
		t.Fatalf("edit path = %q", got)
	}
	if v.Chooser().Namespace() != "wagtailsnippetchoosers_tests_advert" {
		t.Fatalf("chooser namespace = %q", v.Chooser().Namespace())
	}
	if got := v.Chooser().Root(); got != "/admin/snippets/choose/tests/advert/" {
		t.Fatalf("chooser root = %q", got)
	}
	if v.Icon() != DefaultIcon || v.ListPerPage() != 20 || v.Chooser().PerPage() != 10 {
		t.Fatalf("unexpected defaults: icon %q list %d chooser %d", v.Icon(), v.ListPerPage(), v.Chooser().PerPage())
	}
	if got := v.DefaultOrdering(); got != (listing.Ordering{Key: listing.UpdatedKey, Desc: true}) {
		t.Fatalf("default ordering = %+v", got)
	}
}

func TestDerivationIsDeterministic(t *testing.T) {
	a, err := New(Options{Model: advert()})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	b, err := New(Options{Model: advert()})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	for _, view := range []string{ViewList, ViewAdd} {
		pa, _ := a.Reverse(view)
		pb, _ := b.Reverse(view)
		if pa != pb {
			t.Fatalf("%s: %q != %q", view, pa, pb)
		}
	}
}

func TestCustomPrefixes(t *testing.T) {
	v, err := New(fullFeaturedOptions())
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if got := v.MustReverse(ViewEdit, "3"); got != "/admin/deep/within/the/admin/edit/3/" {
		t.Fatalf("edit = %q", got)
	}
	if got, _ := v.GetURLName(ViewHistory); got != "some_namespace:history" {
		t.Fatalf("url name = %q", got)
	}
	if got := v.Chooser().MustReverse(ViewChoose); got != "/admin/choose/wisely/" {
		t.Fatalf("choose = %q", got)
	}
	if got, _ := v.Chooser().GetURLName(ViewChooseResults); got != "my_chooser_namespace:choose_results" {
		t.Fatalf("chooser url name = %q", got)
	}
	if v.ListPerPage() != 5 || v.Chooser().PerPage() != 15 {
		t.Fatalf("page sizes = %d/%d", v.ListPerPage(), v.Chooser().PerPage())
	}
	if v.Filters() == nil || len(v.Filters().Fields()) != 1 {
		t.Fatalf("filters = %+v", v.Filters())
	}
}

func TestAllViewsReverse(t *testing.T) {
	v, err := New(Options{Model: advert()})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	want := map[string]string{
		ViewList:                  "/admin/snippets/tests/advert/",
		ViewListResults:           "/admin/snippets/tests/advert/results/",
		ViewAdd:                   "/admin/snippets/tests/advert/add/",
		ViewDelete:                "/admin/snippets/tests/advert/delete/1/",
		ViewUsage:                 "/admin/snippets/tests/advert/usage/1/",
		ViewHistory:               "/admin/snippets/tests/advert/history/1/",
		ViewUnpublish:             "/admin/snippets/tests/advert/unpublish/1/",
		ViewRevisionsRevert:       "/admin/snippets/tests/advert/history/1/revisions/2/revert/",
		ViewRevisionsCompare:      "/admin/snippets/tests/advert/history/1/revisions/compare/2...3/",
		ViewRevisionsUnschedule:   "/admin/snippets/tests/advert/history/1/revisions/2/unschedule/",
		ViewWorkflowHistory:       "/admin/snippets/tests/advert/workflow_history/1/",
		ViewWorkflowHistoryDetail: "/admin/snippets/tests/advert/workflow_history/1/detail/2/",
	}
	args := map[string][]string{
		ViewDelete: {"1"}, ViewUsage: {"1"}, ViewHistory: {"1"}, ViewUnpublish: {"1"},
		ViewRevisionsRevert: {"1", "2"}, ViewRevisionsCompare: {"1", "2", "3"},
		ViewRevisionsUnschedule: {"1", "2"}, ViewWorkflowHistory: {"1"},
		ViewWorkflowHistoryDetail: {"1", "2"},
	}
	for view, path := range want {
		got, err := v.Reverse(view, args[view]...)
		if err != nil {
			t.Fatalf("reverse %s: %v", view, err)
		}
		if got != path {
			t.Fatalf("reverse %s = %q, want %q", view, got, path)
		}
		name, gotArgs, ok := v.Match(got)
		if !ok || name != view {
			t.Fatalf("match %q = %q, %v", got, name, ok)
		}
		if diff := cmp.Diff(args[view], gotArgs); diff != "" {
			t.Fatalf("match %s args (-want +got):\n%s", view, diff)
		}
	}
}

func TestReverseEscapesArguments(t *testing.T) {
	v, err := New(Options{Model: advert()})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	path, err := v.Reverse(ViewEdit, "a/b c")
	if err != nil {
		t.Fatalf("reverse: %v", err)
	}
	if path != "/admin/snippets/tests/advert/edit/a%2Fb%20c/" {
		t.Fatalf("path = %q", path)
	}
	_, args, ok := v.Match(path)
	if !ok || args[0] != "a/b c" {
		t.Fatalf("match = %v %v", args, ok)
	}
}

func TestReverseErrors(t *testing.T) {
	v, err := New(Options{Model: advert()})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if _, err := v.Reverse("explode"); !errors.Is(err, ErrUnknownView) {
		t.Fatalf("expected unknown view, got %v", err)
	}
	if _, err := v.GetURLName("explode"); !errors.Is(err, ErrUnknownView) {
		t.Fatalf("expected unknown view, got %v", err)
	}
	if _, err := v.Chooser().Reverse(ViewEdit, "1"); !errors.Is(err, ErrUnknownView) {
		t.Fatalf("expected unknown chooser view, got %v", err)
	}
	if _, err := v.Reverse(ViewEdit); apperrors.CodeOf(err) != apperrors.CodeRouteArgs {
		t.Fatalf("expected route args error, got %v", err)
	}
	if _, err := v.Reverse(ViewEdit, " "); apperrors.CodeOf(err) != apperrors.CodeRouteArgs {
		t.Fatalf("expected route args error, got %v", err)
	}
	if _, err := v.Reverse(ViewRevisionsCompare, "1", "2...3", "4"); apperrors.CodeOf(err) != apperrors.CodeRouteArgs {
		t.Fatalf("expected route args error for separator in argument, got %v", err)
	}
	if _, err := v.Reverse(ViewEdit, "a...b"); err != nil {
		t.Fatalf("separator of another segment must be allowed: %v", err)
	}
}

func TestOverridesMustComeInPairs(t *testing.T) {
	tests := []Options{
		{Model: advert(), URLNamespace: "only_namespace"},
		{Model: advert(), URLPrefix: "only/prefix"},
		{Model: advert(), ChooserURLPrefix: "only/chooser"},
	}
	for _, opts := range tests {
		if _, err := New(opts); apperrors.CodeOf(err) != apperrors.CodeViewSetIncomplete {
			t.Fatalf("options %+v: expected incomplete error, got %v", opts, err)
		}
	}
}

func TestNewRejectsInvalidListConfig(t *testing.T) {
	tests := []struct {
		name string
		opts Options
	}{
		{name: "unknown filter", opts: Options{Model: advert(), ListFilter: []string{"missing"}}},
		{name: "duplicate filter", opts: Options{Model: advert(), ListFilter: []string{"text"}, ListFilterLookups: []filters.FieldLookups{{Field: "text", Lookups: []filters.Lookup{filters.LookupExact}}}}},
		{name: "unknown column", opts: Options{Model: advert(), ListDisplay: []listing.Column{listing.Field("missing")}}},
		{name: "bad ordering", opts: Options{Model: advert(), DefaultOrdering: "-url"}},
		{name: "unknown export", opts: Options{Model: advert(), ListExport: []string{"missing"}}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := New(tc.opts); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestHeaderIcon(t *testing.T) {
	v, err := New(fullFeaturedOptions())
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	for view, want := range map[string]string{
		ViewList:                  "cog",
		ViewEdit:                  "cog",
		ViewHistory:               "history",
		ViewWorkflowHistoryDetail: "list-ul",
	} {
		if got := v.HeaderIcon(view); got != want {
			t.Fatalf("HeaderIcon(%s) = %q, want %q", view, got, want)
		}
	}
	if v.Chooser().Icon() != "cog" {
		t.Fatalf("chooser icon = %q", v.Chooser().Icon())
	}
}

func TestRegistry(t *testing.T) {
	r := NewRegistry("")
	adverts := r.MustRegister(Options{Model: advert()})
	full := r.MustRegister(fullFeaturedOptions())

	if got, ok := r.ForModel("tests.advert"); !ok || got != adverts {
		t.Fatalf("ForModel = %v, %v", got, ok)
	}
	path, err := r.Reverse("some_namespace:edit", "9")
	if err != nil || path != "/admin/deep/within/the/admin/edit/9/" {
		t.Fatalf("Reverse = %q, %v", path, err)
	}
	path, err = r.Reverse("my_chooser_namespace:chosen", "9")
	if err != nil || path != "/admin/choose/wisely/chosen/9/" {
		t.Fatalf("Reverse chooser = %q, %v", path, err)
	}
	if _, err := r.Reverse("nope:edit"); !errors.Is(err, ErrUnknownView) {
		t.Fatalf("expected unknown view, got %v", err)
	}

	res, ok := r.Resolve("/admin/snippets/choose/tests/advert/results/")
	if !ok || res.ViewSet != adverts || !res.Chooser || res.View != ViewChooseResults {
		t.Fatalf("Resolve chooser = %+v, %v", res, ok)
	}
	res, ok = r.Resolve("/admin/deep/within/the/admin/history/4/revisions/compare/1...2/")
	if !ok || res.ViewSet != full || res.View != ViewRevisionsCompare {
		t.Fatalf("Resolve compare = %+v, %v", res, ok)
	}
	if diff := cmp.Diff([]string{"4", "1", "2"}, res.Args); diff != "" {
		t.Fatalf("args (-want +got):\n%s", diff)
	}
	if _, ok := r.Resolve("/admin/snippets/tests/advert/bogus/"); ok {
		t.Fatal("expected no match")
	}

	if url, ok := r.EditURL("tests.fullfeaturedsnippet", 12); !ok || url != "/admin/deep/within/the/admin/edit/12/" {
		t.Fatalf("EditURL = %q, %v", url, ok)
	}
	if _, ok := r.EditURL("tests.missing", 1); ok {
		t.Fatal("expected no edit url for unknown model")
	}
	if r.IndexURL() != "/admin/snippets/" {
		t.Fatalf("IndexURL = %q", r.IndexURL())
	}
}

func TestRegistryRejectsCollisions(t *testing.T) {
	other := advert()
	other.ModelName = "otheradvert"
	tests := []struct {
		name string
		opts Options
	}{
		{name: "same model", opts: Options{Model: advert()}},
		{name: "namespace", opts: Options{Model: other, URLNamespace: "wagtailsnippets_tests_advert", URLPrefix: "x/y"}},
		{name: "base path", opts: Options{Model: other, URLNamespace: "other", URLPrefix: "snippets/tests/advert"}},
		{name: "index path", opts: Options{Model: other, URLNamespace: "other", URLPrefix: "snippets"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r := NewRegistry("/admin/")
			r.MustRegister(Options{Model: advert()})
			if _, err := r.Register(tc.opts); apperrors.CodeOf(err) != apperrors.CodeViewSetConflict {
				t.Fatalf("expected conflict, got %v", err)
			}
		})
	}
}

func TestOverrides(t *testing.T) {
	doc := `
viewsets:
  tests.advert:
    url_namespace: adverts
    url_prefix: content/adverts
    list_per_page: 50
`
	overrides, err := LoadOverrides(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	opts, err := overrides.Apply([]Options{{Model: advert()}, fullFeaturedOptions()})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	v, err := New(opts[0])
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if v.Namespace() != "adverts" || v.Root() != "/admin/content/adverts/" || v.ListPerPage() != 50 {
		t.Fatalf("override not applied: %s %s %d", v.Namespace(), v.Root(), v.ListPerPage())
	}
	if opts[1].URLNamespace != "some_namespace" {
		t.Fatalf("untouched options changed: %+v", opts[1])
	}

	if _, err := (Overrides{"tests.missing": {}}).Apply([]Options{{Model: advert()}}); err == nil {
		t.Fatal("expected unknown model error")
	}
	if _, err := LoadOverrides(strings.NewReader("viewsets:\n  tests.advert:\n    bogus: 1\n")); err == nil {
		t.Fatal("expected unknown field error")
	}
	empty, err := LoadOverrides(strings.NewReader(""))
	if err != nil || len(empty) != 0 {
		t.Fatalf("empty = %v, %v", empty, err)
	}
}
