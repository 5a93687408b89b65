// Package testapp registers the example "tests" application: a handful of
// snippet models exercising every viewset option, their SQLite schema and the
// template overrides they ship.
package testapp

import (
	"embed"
	"fmt"
	"html"
	"io/fs"

	sqlitemigrate "github.com/scantist-ossops-m2/wagtail/internal/platform/storage/sqlitemigrate"
	"github.com/scantist-ossops-m2/wagtail/internal/services/snippets/filters"
	"github.com/scantist-ossops-m2/wagtail/internal/services/snippets/listing"
	"github.com/scantist-ossops-m2/wagtail/internal/services/snippets/model"
	"github.com/scantist-ossops-m2/wagtail/internal/services/snippets/viewset"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

//go:embed templates
var templateFS embed.FS

// Model labels of the example application.
const (
	AdvertLabel       = "tests.advert"
	FullFeaturedLabel = "tests.fullfeaturedsnippet"
	DraftStateLabel   = "tests.draftstatemodel"
	ModeratedLabel    = "tests.moderatedmodel"
	ChooserLabel      = "tests.snippetchoosermodel"
)

var countryChoices = []model.Choice{
	{Value: "ID", Label: "Indonesia"},
	{Value: "PH", Label: "Philippines"},
	{Value: "UK", Label: "United Kingdom"},
}

// Advert is a plain snippet with every option left at its default.
func Advert() model.Model {
	return model.Model{
		AppLabel:     "tests",
		ModelName:    "advert",
		TitleField:   "text",
		SearchFields: []string{"text"},
		Fields: []model.Field{
			{Name: "url", Label: "URL", Type: model.FieldURL},
			{Name: "text", Label: "Text", Type: model.FieldText, Required: true},
		},
	}
}

// FullFeatured has draft state, revisions, moderation and translations.
func FullFeatured() model.Model {
	return model.Model{
		AppLabel:     "tests",
		ModelName:    "fullfeaturedsnippet",
		VerboseName:  "full-featured snippet",
		TitleField:   "text",
		SearchFields: []string{"text"},
		Fields: []model.Field{
			{Name: "text", Label: "Text", Type: model.FieldText, Required: true},
			{Name: "country_code", Label: "Country code", Type: model.FieldChoice, Choices: countryChoices},
			{Name: "some_date", Label: "Some date", Type: model.FieldDateTime},
		},
		DraftState:   true,
		Revisions:    true,
		Workflow:     true,
		Translatable: true,
	}
}

// DraftStateModel has draft state and revisions.
func DraftStateModel() model.Model {
	return model.Model{
		AppLabel:     "tests",
		ModelName:    "draftstatemodel",
		VerboseName:  "draft-state model",
		TitleField:   "text",
		SearchFields: []string{"text"},
		Fields:       []model.Field{{Name: "text", Label: "Text", Type: model.FieldText, Required: true}},
		DraftState:   true,
		Revisions:    true,
	}
}

// ModeratedModel goes through a moderation workflow.
func ModeratedModel() model.Model {
	return model.Model{
		AppLabel:    "tests",
		ModelName:   "moderatedmodel",
		VerboseName: "moderated model",
		TitleField:  "text",
		Fields:      []model.Field{{Name: "text", Label: "Text", Type: model.FieldText, Required: true}},
		DraftState:  true,
		Revisions:   true,
		Workflow:    true,
	}
}

// ChooserModel references other snippets through chooser panels.
func ChooserModel() model.Model {
	return model.Model{
		AppLabel:    "tests",
		ModelName:   "snippetchoosermodel",
		VerboseName: "snippet chooser model",
		Fields: []model.Field{
			{Name: "advert", Label: "Advert", Type: model.FieldForeignKey, Target: AdvertLabel},
			{Name: "full_featured", Label: "Full featured", Type: model.FieldForeignKey, Target: FullFeaturedLabel},
		},
	}
}

// fooCountryCode renders the custom listing column of full-featured snippets.
func fooCountryCode(rec model.Record) string {
	return "Foo " + html.EscapeString(rec.Text("country_code"))
}

// Options returns the viewset options of every example model, in
// registration order.
func Options() []viewset.Options {
	return []viewset.Options{
		{Model: Advert()},
		{
			Model:               FullFeatured(),
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
				listing.Field("country_code"),
				{Kind: listing.KindCustom, Name: "get_foo_country_code", Label: "Foo", SortKey: "country_code", Render: fooCountryCode},
				listing.Updated(),
			},
			ListExport:          []string{"text", "country_code", "some_date", "first_published_at"},
			DefaultOrdering:     "text",
			IndexTemplateName:   "tests/fullfeaturedsnippet_index.html",
			HistoryTemplateName: "tests/snippet_history.html",
		},
		{
			Model:      DraftStateModel(),
			ListFilter: []string{"first_published_at"},
		},
		{
			Model: ModeratedModel(),
			ListFilterLookups: []filters.FieldLookups{
				{Field: "first_published_at", Lookups: []filters.Lookup{filters.LookupExact}},
				{Field: "text", Lookups: []filters.Lookup{filters.LookupContains}},
			},
		},
		{Model: ChooserModel()},
	}
}

// Registry registers the example viewsets under adminPrefix with overrides
// applied.
func Registry(adminPrefix string, overrides viewset.Overrides) (*viewset.Registry, error) {
	opts, err := overrides.Apply(Options())
	if err != nil {
		return nil, err
	}
	reg := viewset.NewRegistry(adminPrefix)
	for _, o := range opts {
		if _, err := reg.Register(o); err != nil {
			return nil, fmt.Errorf("register %s: %w", o.Model.Label(), err)
		}
	}
	return reg, nil
}

// Migrations returns the schema of the example models.
func Migrations() sqlitemigrate.Source {
	return sqlitemigrate.Source{FS: migrationFS, Root: "migrations"}
}

// Templates returns the template overrides of the example application.
func Templates() fs.FS {
	sub, err := fs.Sub(templateFS, "templates")
	if err != nil {
		panic(err)
	}
	return sub
}
