package model

import (
	"net/url"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func advertModel() Model {
	return Model{
		AppLabel:   "tests",
		ModelName:  "advert",
		TitleField: "text",
		Fields: []Field{
			{Name: "url", Label: "URL", Type: FieldURL},
			{Name: "text", Label: "Text", Type: FieldText, Required: true},
		},
		SearchFields: []string{"text"},
	}
}

func TestModelDefaults(t *testing.T) {
	m := advertModel()
	if m.Label() != "tests.advert" {
		t.Fatalf("Label = %q", m.Label())
	}
	if m.TableName() != "tests_advert" {
		t.Fatalf("TableName = %q", m.TableName())
	}
	if m.Singular() != "advert" || m.Plural() != "adverts" {
		t.Fatalf("names = %q/%q", m.Singular(), m.Plural())
	}
	if err := m.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestSystemFieldsFollowCapabilities(t *testing.T) {
	m := Model{AppLabel: "tests", ModelName: "draftstatemodel", DraftState: true, Translatable: true}
	var names []string
	for _, field := range m.SystemFields() {
		names = append(names, field.Name)
	}
	want := []string{"live", "has_unpublished_changes", "first_published_at", "last_published_at", "locale", "translation_key"}
	if diff := cmp.Diff(want, names); diff != "" {
		t.Fatalf("system fields mismatch (-want +got):\n%s", diff)
	}
	field, ok := m.Field("first_published_at")
	if !ok || field.Type != FieldDateTime || field.Label != "First published at" {
		t.Fatalf("first_published_at = %+v, %v", field, ok)
	}
}

func TestValidateRejectsBadModels(t *testing.T) {
	tests := []struct {
		name  string
		model Model
	}{
		{name: "bad label", model: Model{AppLabel: "Tests", ModelName: "advert"}},
		{name: "duplicate field", model: Model{AppLabel: "tests", ModelName: "a", Fields: []Field{{Name: "x"}, {Name: "x"}}}},
		{name: "reserved field", model: Model{AppLabel: "tests", ModelName: "a", Fields: []Field{{Name: "id"}}}},
		{name: "choice without choices", model: Model{AppLabel: "tests", ModelName: "a", Fields: []Field{{Name: "c", Type: FieldChoice}}}},
		{name: "bad fk target", model: Model{AppLabel: "tests", ModelName: "a", Fields: []Field{{Name: "f", Type: FieldForeignKey, Target: "advert"}}}},
		{name: "unknown title", model: Model{AppLabel: "tests", ModelName: "a", TitleField: "nope"}},
		{name: "non-text search", model: Model{AppLabel: "tests", ModelName: "a", DraftState: true, SearchFields: []string{"live"}}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if err := tc.model.Validate(); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestTitle(t *testing.T) {
	m := advertModel()
	if got := m.Title(Record{PK: 3, Values: map[string]any{"text": "Buy now"}}); got != "Buy now" {
		t.Fatalf("Title = %q", got)
	}
	if got := m.Title(Record{PK: 3, Values: map[string]any{}}); got != "advert object (3)" {
		t.Fatalf("fallback Title = %q", got)
	}
}

func TestParseFormRoundTrip(t *testing.T) {
	m := Model{
		AppLabel:  "tests",
		ModelName: "snippetchoosermodel",
		Fields: []Field{
			{Name: "advert", Type: FieldForeignKey, Target: "tests.advert", Required: true},
			{Name: "country_code", Type: FieldChoice, Choices: []Choice{{Value: "UK", Label: "United Kingdom"}}},
			{Name: "go_live", Type: FieldDateTime},
			{Name: "featured", Type: FieldBool},
		},
	}
	form := url.Values{
		"advert":       {"4"},
		"country_code": {"UK"},
		"go_live":      {"2024-05-01T10:30"},
		"featured":     {"on"},
	}
	values, errs := m.ParseForm(form)
	if errs != nil {
		t.Fatalf("unexpected errors: %v", errs)
	}
	want := map[string]any{
		"advert":       int64(4),
		"country_code": "UK",
		"go_live":      time.Date(2024, 5, 1, 10, 30, 0, 0, time.UTC),
		"featured":     true,
	}
	if diff := cmp.Diff(want, values); diff != "" {
		t.Fatalf("values mismatch (-want +got):\n%s", diff)
	}

	again, errs := m.ParseForm(FormValues(m.EncodeForm(values)))
	if errs != nil {
		t.Fatalf("re-parse errors: %v", errs)
	}
	if diff := cmp.Diff(values, again); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestParseFormErrors(t *testing.T) {
	m := Model{
		AppLabel:  "tests",
		ModelName: "a",
		Fields: []Field{
			{Name: "text", Type: FieldText, Required: true},
			{Name: "country_code", Type: FieldChoice, Choices: []Choice{{Value: "UK", Label: "United Kingdom"}}},
			{Name: "when", Type: FieldDateTime},
			{Name: "advert", Type: FieldForeignKey, Target: "tests.advert"},
		},
	}
	_, errs := m.ParseForm(url.Values{"country_code": {"FR"}, "when": {"soon"}, "advert": {"x"}})
	want := FieldErrors{
		"text":         MsgRequired,
		"country_code": MsgInvalidChoice,
		"when":         MsgInvalidDateTime,
		"advert":       MsgInvalidReference,
	}
	if diff := cmp.Diff(want, errs); diff != "" {
		t.Fatalf("errors mismatch (-want +got):\n%s", diff)
	}
}

func TestTimeFormatSortsLexically(t *testing.T) {
	early := FormatTime(time.Date(2024, 1, 1, 9, 0, 0, 5, time.UTC))
	late := FormatTime(time.Date(2024, 1, 1, 9, 0, 0, 50, time.UTC))
	if !(early < late) {
		t.Fatalf("expected %q < %q", early, late)
	}
	parsed, err := ParseTime(late)
	if err != nil || parsed.Nanosecond() != 50 {
		t.Fatalf("ParseTime = %v, %v", parsed, err)
	}
}
