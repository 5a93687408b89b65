// Package filters binds declarative list filters to query parameters and
// translates them into SQL conditions through AIP-160 filter expressions.
package filters

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	apperrors "github.com/scantist-ossops-m2/wagtail/internal/platform/errors"
	"github.com/scantist-ossops-m2/wagtail/internal/services/snippets/model"
	"go.einride.tech/aip/filtering"
)

// Kind selects the widget and value parsing of a filter.
type Kind string

const (
	KindChoice Kind = "choice"
	KindDate   Kind = "date"
	KindText   Kind = "text"
)

// Lookup is the comparison applied by a filter.
type Lookup string

const (
	LookupExact    Lookup = "exact"
	LookupContains Lookup = "contains"
)

// Field is one declared filter.
type Field struct {
	Name    string
	Lookup  Lookup
	Label   string
	Kind    Kind
	Choices []model.Choice
}

// Param returns the query parameter name: the field name for exact lookups,
// "{field}__{lookup}" otherwise.
func (f Field) Param() string {
	if f.Lookup == "" || f.Lookup == LookupExact {
		return f.Name
	}
	return f.Name + "__" + string(f.Lookup)
}

// FieldLookups declares the lookups of one filtered field.
type FieldLookups struct {
	Field   string
	Lookups []Lookup
}

// Set is an ordered collection of filters with unique query parameters.
type Set struct {
	fields []Field
	decls  *filtering.Declarations
}

// NewSet validates fields and prepares their filter declarations.
func NewSet(fields ...Field) (*Set, error) {
	seen := make(map[string]bool, len(fields))
	idents := make(map[string]*Field, len(fields))
	opts := []filtering.DeclarationOption{filtering.DeclareStandardFunctions()}
	for i := range fields {
		f := &fields[i]
		if f.Lookup == "" {
			f.Lookup = LookupExact
		}
		param := f.Param()
		if seen[param] {
			return nil, apperrors.WithMetadata(apperrors.CodeFilterDuplicateParam,
				fmt.Sprintf("duplicate filter parameter %q", param), map[string]string{"param": param})
		}
		seen[param] = true
		if f.Lookup == LookupContains && f.Kind != KindText {
			return nil, apperrors.New(apperrors.CodeFilterUnknownField,
				fmt.Sprintf("filter %q: contains lookup needs a text field", param))
		}
		if prev, ok := idents[f.Name]; ok {
			if prev.Kind != f.Kind {
				return nil, apperrors.New(apperrors.CodeFilterUnknownField,
					fmt.Sprintf("filter %q: conflicting kinds %s and %s", f.Name, prev.Kind, f.Kind))
			}
			continue
		}
		idents[f.Name] = f
		typ := filtering.TypeString
		if f.Kind == KindDate {
			typ = filtering.TypeTimestamp
		}
		opts = append(opts, filtering.DeclareIdent(f.Name, typ))
	}
	decls, err := filtering.NewDeclarations(opts...)
	if err != nil {
		return nil, fmt.Errorf("create declarations: %w", err)
	}
	return &Set{fields: fields, decls: decls}, nil
}

// FromModel declares filters for m. Names in exact filter with the exact
// lookup; lookups add one filter per declared lookup, in order.
func FromModel(m model.Model, exact []string, lookups []FieldLookups) (*Set, error) {
	var fields []Field
	for _, name := range exact {
		f, err := fieldFor(m, name, LookupExact)
		if err != nil {
			return nil, err
		}
		fields = append(fields, f)
	}
	for _, decl := range lookups {
		for _, lookup := range decl.Lookups {
			f, err := fieldFor(m, decl.Field, lookup)
			if err != nil {
				return nil, err
			}
			fields = append(fields, f)
		}
	}
	return NewSet(fields...)
}

func fieldFor(m model.Model, name string, lookup Lookup) (Field, error) {
	mf, ok := m.Field(name)
	if !ok {
		return Field{}, apperrors.WithMetadata(apperrors.CodeFilterUnknownField,
			fmt.Sprintf("%s has no field %q to filter on", m.Label(), name), map[string]string{"field": name})
	}
	f := Field{Name: mf.Name, Lookup: lookup, Label: mf.Label}
	if f.Label == "" {
		f.Label = strings.ToUpper(mf.Name[:1]) + strings.ReplaceAll(mf.Name[1:], "_", " ")
	}
	switch mf.Type {
	case model.FieldChoice:
		f.Kind = KindChoice
		f.Choices = mf.Choices
	case model.FieldDateTime:
		f.Kind = KindDate
	case model.FieldText, model.FieldTextArea, model.FieldURL:
		f.Kind = KindText
	default:
		return Field{}, apperrors.New(apperrors.CodeFilterUnknownField,
			fmt.Sprintf("%s.%s: %s fields cannot be filtered", m.Label(), name, mf.Type))
	}
	switch lookup {
	case LookupExact:
	case LookupContains:
		f.Label += " contains"
	default:
		return Field{}, apperrors.New(apperrors.CodeFilterUnknownField,
			fmt.Sprintf("%s.%s: unsupported lookup %q", m.Label(), name, lookup))
	}
	return f, nil
}

// Fields returns the declared filters in order.
func (s *Set) Fields() []Field {
	return s.fields
}

// HasKind reports whether any filter has kind k.
func (s *Set) HasKind(k Kind) bool {
	for _, f := range s.fields {
		if f.Kind == k {
			return true
		}
	}
	return false
}

// Bound is a filter set applied to one request.
type Bound struct {
	set *Set
	// Present records submitted parameters, including empty ones.
	Present map[string]bool
	Values  map[string]string
	// Errors maps parameters to validation message keys.
	Errors map[string]string
	// Expression is the AIP-160 filter built from active filters.
	Expression string
	Condition  SQLCondition
}

// Active reports whether at least one filter narrows the results.
func (b Bound) Active() bool {
	return b.Expression != "" || len(b.Errors) > 0
}

// Valid reports whether every submitted value parsed.
func (b Bound) Valid() bool {
	return len(b.Errors) == 0
}

// Fields returns the filters of the bound set.
func (b Bound) Fields() []Field {
	if b.set == nil {
		return nil
	}
	return b.set.fields
}

// Validation message keys of rejected filter values.
const (
	MsgInvalidDate   = "snippets.filters.invalid_date"
	MsgInvalidChoice = "snippets.filters.invalid_choice"
)

// Bind reads filter values from query. Absent and empty parameters leave
// results unfiltered. Invalid values are reported in Errors; the caller
// renders an empty result set for them.
func (s *Set) Bind(query url.Values) (Bound, error) {
	b := Bound{
		set:     s,
		Present: map[string]bool{},
		Values:  map[string]string{},
		Errors:  map[string]string{},
	}
	var terms []string
	for _, f := range s.fields {
		param := f.Param()
		vals, ok := query[param]
		if !ok {
			continue
		}
		b.Present[param] = true
		value := ""
		if len(vals) > 0 {
			value = strings.TrimSpace(vals[len(vals)-1])
		}
		b.Values[param] = value
		if value == "" {
			continue
		}
		if f.Kind == KindChoice && !f.allows(value) {
			b.Errors[param] = MsgInvalidChoice
			continue
		}
		term, err := f.term(value)
		if err != nil {
			b.Errors[param] = MsgInvalidDate
			continue
		}
		terms = append(terms, term)
	}
	if len(b.Errors) > 0 {
		return b, nil
	}
	b.Expression = strings.Join(terms, " AND ")
	cond, err := s.Translate(b.Expression)
	if err != nil {
		return b, apperrors.Wrap(apperrors.CodeFilterInvalidValue, "translate filter", err)
	}
	b.Condition = cond
	return b, nil
}

func (f Field) term(value string) (string, error) {
	switch f.Kind {
	case KindDate:
		if day, err := time.Parse("2006-01-02", value); err == nil {
			next := day.AddDate(0, 0, 1)
			return fmt.Sprintf("%s >= timestamp(%s) AND %s < timestamp(%s)",
				f.Name, strconv.Quote(day.Format(time.RFC3339)),
				f.Name, strconv.Quote(next.Format(time.RFC3339))), nil
		}
		t, err := model.ParseDateTime(value)
		if err != nil {
			return "", err
		}
		// An exact value matches everything within the precision it was
		// given in, so "12:30:05.123456" matches a stored 12:30:05.123456789.
		end := t.Add(precision(value))
		return fmt.Sprintf("%s >= timestamp(%s) AND %s < timestamp(%s)",
			f.Name, strconv.Quote(t.Format(time.RFC3339Nano)),
			f.Name, strconv.Quote(end.Format(time.RFC3339Nano))), nil
	default:
		if f.Lookup == LookupContains {
			return fmt.Sprintf("%s:%s", f.Name, strconv.Quote(value)), nil
		}
		return fmt.Sprintf("%s = %s", f.Name, strconv.Quote(value)), nil
	}
}

func (f Field) allows(value string) bool {
	for _, c := range f.Choices {
		if c.Value == value {
			return true
		}
	}
	return false
}

// precision returns the smallest unit spelled out in a timestamp written as
// "YYYY-MM-DD[T ]HH:MM[:SS[.fraction]][zone]".
func precision(value string) time.Duration {
	const secondsAt, fractionAt = 16, 19
	if len(value) <= secondsAt || value[secondsAt] != ':' {
		return time.Minute
	}
	if len(value) <= fractionAt || (value[fractionAt] != '.' && value[fractionAt] != ',') {
		return time.Second
	}
	unit := time.Second
	for i := fractionAt + 1; i < len(value) && value[i] >= '0' && value[i] <= '9' && unit > time.Nanosecond; i++ {
		unit /= 10
	}
	return unit
}

// Translate parses and type-checks an AIP-160 expression against the set's
// declarations and returns the equivalent SQL condition. An empty expression
// yields an empty condition.
func (s *Set) Translate(expression string) (SQLCondition, error) {
	if strings.TrimSpace(expression) == "" {
		return SQLCondition{}, nil
	}
	filter, err := filtering.ParseFilterString(expression, s.decls)
	if err != nil {
		return SQLCondition{}, fmt.Errorf("parse filter: %w", err)
	}
	return translateExpr(filter.CheckedExpr.Expr)
}
