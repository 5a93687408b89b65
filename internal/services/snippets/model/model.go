// Package model describes snippet models: their fields, capabilities and
// the records read from storage.
package model

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	apperrors "github.com/scantist-ossops-m2/wagtail/internal/platform/errors"
)

// TimeFormat is the fixed-width UTC layout used to store and compare
// timestamps as text. Lexical order equals chronological order.
const TimeFormat = "2006-01-02T15:04:05.000000000Z"

// FormatTime renders t in TimeFormat.
func FormatTime(t time.Time) string {
	return t.UTC().Format(TimeFormat)
}

// ParseTime reads a TimeFormat value.
func ParseTime(value string) (time.Time, error) {
	return time.Parse(TimeFormat, value)
}

// FieldType selects storage, form widget and filter behavior of a field.
type FieldType string

const (
	FieldText       FieldType = "text"
	FieldTextArea   FieldType = "textarea"
	FieldURL        FieldType = "url"
	FieldChoice     FieldType = "choice"
	FieldDateTime   FieldType = "datetime"
	FieldBool       FieldType = "bool"
	FieldForeignKey FieldType = "foreignkey"
)

// Choice is one allowed value of a choice field.
type Choice struct {
	Value string
	Label string
}

// Field is one column of a snippet model.
type Field struct {
	Name     string
	Label    string
	Type     FieldType
	Choices  []Choice
	Required bool
	// Target is the label ("app.model") of the referenced model for
	// foreign keys.
	Target string
	// System fields are maintained by the store and never edited in forms.
	System bool
}

// ChoiceLabel returns the display label of value, or value itself.
func (f Field) ChoiceLabel(value string) string {
	for _, choice := range f.Choices {
		if choice.Value == value {
			return choice.Label
		}
	}
	return value
}

// Model is the metadata of one snippet model.
type Model struct {
	AppLabel          string
	ModelName         string
	VerboseName       string
	VerboseNamePlural string
	// Table defaults to "{app_label}_{model_name}".
	Table        string
	Fields       []Field
	TitleField   string
	SearchFields []string

	DraftState   bool
	Revisions    bool
	Workflow     bool
	Translatable bool
}

var identPattern = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

// Label returns "{app_label}.{model_name}".
func (m Model) Label() string {
	return m.AppLabel + "." + m.ModelName
}

// TableName returns the storage table of the model.
func (m Model) TableName() string {
	if m.Table != "" {
		return m.Table
	}
	return m.AppLabel + "_" + m.ModelName
}

// Singular returns the verbose name, defaulting to the model name.
func (m Model) Singular() string {
	if m.VerboseName != "" {
		return m.VerboseName
	}
	return m.ModelName
}

// Plural returns the plural verbose name, defaulting to Singular + "s".
func (m Model) Plural() string {
	if m.VerboseNamePlural != "" {
		return m.VerboseNamePlural
	}
	return m.Singular() + "s"
}

// SystemFields returns the store-maintained fields implied by the model's
// capabilities. Draft-state models expose their publishing dates so they can
// be listed, ordered and filtered like declared fields.
func (m Model) SystemFields() []Field {
	fields := []Field{}
	if m.DraftState {
		fields = append(fields,
			Field{Name: "live", Label: "Live", Type: FieldBool, System: true},
			Field{Name: "has_unpublished_changes", Label: "Has unpublished changes", Type: FieldBool, System: true},
			Field{Name: "first_published_at", Label: "First published at", Type: FieldDateTime, System: true},
			Field{Name: "last_published_at", Label: "Last published at", Type: FieldDateTime, System: true},
		)
	}
	if m.Translatable {
		fields = append(fields,
			Field{Name: "locale", Label: "Locale", Type: FieldText, System: true},
			Field{Name: "translation_key", Label: "Translation key", Type: FieldText, System: true},
		)
	}
	return fields
}

// AllFields returns declared fields followed by system fields.
func (m Model) AllFields() []Field {
	return append(append([]Field{}, m.Fields...), m.SystemFields()...)
}

// Field returns the declared or system field called name.
func (m Model) Field(name string) (Field, bool) {
	for _, field := range m.AllFields() {
		if field.Name == name {
			return field, true
		}
	}
	return Field{}, false
}

// ForeignKeys returns the declared foreign keys targeting label.
func (m Model) ForeignKeys(label string) []Field {
	var out []Field
	for _, field := range m.Fields {
		if field.Type == FieldForeignKey && field.Target == label {
			out = append(out, field)
		}
	}
	return out
}

// Validate checks identifiers and field references.
func (m Model) Validate() error {
	if !identPattern.MatchString(m.AppLabel) || !identPattern.MatchString(m.ModelName) {
		return apperrors.New(apperrors.CodeModelInvalid, fmt.Sprintf("invalid model label %q", m.Label()))
	}
	if !identPattern.MatchString(m.TableName()) {
		return apperrors.New(apperrors.CodeModelInvalid, fmt.Sprintf("invalid table name %q", m.TableName()))
	}
	seen := map[string]bool{"id": true, "updated_at": true, "latest_revision_id": true}
	for _, field := range m.AllFields() {
		if !identPattern.MatchString(field.Name) {
			return apperrors.New(apperrors.CodeModelInvalid, fmt.Sprintf("%s: invalid field name %q", m.Label(), field.Name))
		}
		if seen[field.Name] {
			return apperrors.New(apperrors.CodeModelInvalid, fmt.Sprintf("%s: duplicate field %q", m.Label(), field.Name))
		}
		seen[field.Name] = true
		if field.Type == FieldChoice && len(field.Choices) == 0 {
			return apperrors.New(apperrors.CodeModelInvalid, fmt.Sprintf("%s.%s: choice field without choices", m.Label(), field.Name))
		}
		if field.Type == FieldForeignKey && !strings.Contains(field.Target, ".") {
			return apperrors.New(apperrors.CodeModelInvalid, fmt.Sprintf("%s.%s: foreign key target must be app.model", m.Label(), field.Name))
		}
	}
	if m.TitleField != "" {
		if _, ok := m.Field(m.TitleField); !ok {
			return apperrors.New(apperrors.CodeModelInvalid, fmt.Sprintf("%s: unknown title field %q", m.Label(), m.TitleField))
		}
	}
	for _, name := range m.SearchFields {
		field, ok := m.Field(name)
		if !ok || (field.Type != FieldText && field.Type != FieldTextArea && field.Type != FieldURL) {
			return apperrors.New(apperrors.CodeModelInvalid, fmt.Sprintf("%s: search field %q must be a text field", m.Label(), name))
		}
	}
	return nil
}
