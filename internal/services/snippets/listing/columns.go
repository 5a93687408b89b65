// Package listing resolves listing columns, header ordering links and the
// result summary of snippet listings.
package listing

import (
	"fmt"
	"html"
	"net/url"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"github.com/scantist-ossops-m2/wagtail/internal/services/snippets/model"
	"golang.org/x/text/message"
)

// UpdatedKey is the sort key of the last-updated column.
const UpdatedKey = "updated_at"

// ColumnKind selects how a column renders its cells.
type ColumnKind string

const (
	KindField   ColumnKind = "field"
	KindCustom  ColumnKind = "custom"
	KindUpdated ColumnKind = "updated"
	KindStatus  ColumnKind = "status"
)

// Column declares one listing column.
type Column struct {
	Kind  ColumnKind
	Name  string
	Label string
	// SortKey enables the ordering link in the column header.
	SortKey string
	// Render builds the cell HTML of custom columns. Output is sanitized.
	Render func(model.Record) string
}

// Field declares a column showing a model field, sortable by that field.
func Field(name string) Column {
	return Column{Kind: KindField, Name: name, SortKey: name}
}

// FieldWithLabel is Field with an explicit header label.
func FieldWithLabel(name, label string) Column {
	return Column{Kind: KindField, Name: name, Label: label, SortKey: name}
}

// Custom declares a computed column.
func Custom(name, label string, render func(model.Record) string) Column {
	return Column{Kind: KindCustom, Name: name, Label: label, Render: render}
}

// Updated declares the last-updated column.
func Updated() Column {
	return Column{Kind: KindUpdated, Name: UpdatedKey, SortKey: UpdatedKey}
}

// Status declares the publishing status column of draft-state models.
func Status() Column {
	return Column{Kind: KindStatus, Name: "status"}
}

var cellPolicy = bluemonday.UGCPolicy()

// Resolve validates columns against m and fills default labels. Without
// declared columns the listing shows the title field, the status of draft
// models and the update time.
func Resolve(m model.Model, declared []Column) ([]Column, error) {
	if len(declared) == 0 {
		title := m.TitleField
		if title == "" && len(m.Fields) > 0 {
			title = m.Fields[0].Name
		}
		if title != "" {
			declared = append(declared, Field(title))
		}
		if m.DraftState {
			declared = append(declared, Status())
		}
		declared = append(declared, Updated())
	}

	out := make([]Column, 0, len(declared))
	seen := map[string]bool{}
	for _, col := range declared {
		if seen[col.Name] {
			return nil, fmt.Errorf("%s: duplicate column %q", m.Label(), col.Name)
		}
		seen[col.Name] = true
		switch col.Kind {
		case KindField:
			field, ok := m.Field(col.Name)
			if !ok {
				return nil, fmt.Errorf("%s: unknown column field %q", m.Label(), col.Name)
			}
			if col.Label == "" {
				col.Label = field.Label
			}
			if col.Label == "" {
				col.Label = humanize(field.Name)
			}
		case KindCustom:
			if col.Render == nil {
				return nil, fmt.Errorf("%s: custom column %q has no renderer", m.Label(), col.Name)
			}
			if col.Label == "" {
				col.Label = humanize(col.Name)
			}
		case KindUpdated, KindStatus:
		default:
			return nil, fmt.Errorf("%s: column %q has unknown kind %q", m.Label(), col.Name, col.Kind)
		}
		out = append(out, col)
	}
	return out, nil
}

// SortKeys returns the sort keys of columns.
func SortKeys(columns []Column) []string {
	var keys []string
	for _, col := range columns {
		if col.SortKey != "" {
			keys = append(keys, col.SortKey)
		}
	}
	return keys
}

func humanize(name string) string {
	name = strings.ReplaceAll(name, "_", " ")
	if name == "" {
		return name
	}
	return strings.ToUpper(name[:1]) + name[1:]
}

// Header is a rendered column header.
type Header struct {
	Label   string
	SortURL string
	// Sorted is "asc", "desc" or "" for the active ordering.
	Sorted string
}

// Headers builds headers with ordering links relative to listURL. Links keep
// the current filters and drop the page number.
func Headers(p *message.Printer, columns []Column, current Ordering, listURL string, query url.Values) []Header {
	headers := make([]Header, 0, len(columns))
	for _, col := range columns {
		h := Header{Label: col.Label}
		if col.Kind == KindUpdated {
			h.Label = p.Sprintf("snippets.columns.updated")
		}
		if col.Kind == KindStatus {
			h.Label = p.Sprintf("snippets.columns.status")
		}
		if col.SortKey != "" {
			next := Ordering{Key: col.SortKey}
			if current.Key == col.SortKey {
				if current.Desc {
					h.Sorted = "desc"
				} else {
					h.Sorted = "asc"
					next.Desc = true
				}
			}
			h.SortURL = withParam(listURL, query, OrderingParam, next.Param())
		}
		headers = append(headers, h)
	}
	return headers
}

func withParam(base string, query url.Values, key, value string) string {
	values := url.Values{}
	for k, vals := range query {
		if k == key || k == "p" {
			continue
		}
		values[k] = append([]string(nil), vals...)
	}
	values.Set(key, value)
	return base + "?" + values.Encode()
}

// Cell renders one cell as HTML. The first column links to editURL.
func Cell(p *message.Printer, m model.Model, col Column, rec model.Record, first bool, editURL string) string {
	var content string
	switch col.Kind {
	case KindField:
		content = html.EscapeString(FieldText(m, col.Name, rec))
	case KindCustom:
		content = cellPolicy.Sanitize(col.Render(rec))
	case KindUpdated:
		if !rec.UpdatedAt.IsZero() {
			content = fmt.Sprintf(`<time datetime="%s">%s</time>`,
				rec.UpdatedAt.UTC().Format(time.RFC3339), rec.UpdatedAt.UTC().Format("2006-01-02 15:04"))
		}
	case KindStatus:
		content = html.EscapeString(StatusText(p, rec))
	}
	if first && editURL != "" {
		if content == "" {
			content = html.EscapeString(m.Title(rec))
		}
		return fmt.Sprintf(`<a href="%s">%s</a>`, html.EscapeString(editURL), content)
	}
	return content
}

// FieldText renders a field value as plain text; choices show their label.
func FieldText(m model.Model, name string, rec model.Record) string {
	field, ok := m.Field(name)
	if !ok {
		return ""
	}
	switch field.Type {
	case model.FieldChoice:
		return field.ChoiceLabel(rec.Text(name))
	case model.FieldDateTime:
		if t, ok := rec.Time(name); ok {
			return t.UTC().Format("2006-01-02 15:04")
		}
		return ""
	case model.FieldBool:
		if rec.Bool(name) {
			return "yes"
		}
		return "no"
	default:
		return rec.Text(name)
	}
}

// StatusText is the localized publishing status of a draft-state record.
func StatusText(p *message.Printer, rec model.Record) string {
	if rec.Live() {
		return p.Sprintf("snippets.status.live")
	}
	return p.Sprintf("snippets.status.draft")
}
