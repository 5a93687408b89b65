package model

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Record is one stored instance of a model.
//
// Values holds string for text, url and choice fields, time.Time for set
// datetime fields, bool for bool fields and int64 for set foreign keys.
// Unset datetimes and foreign keys are absent.
type Record struct {
	PK               int64
	Values           map[string]any
	UpdatedAt        time.Time
	LatestRevisionID int64
}

// Text returns a string value, formatting non-string values.
func (r Record) Text(name string) string {
	switch v := r.Values[name].(type) {
	case nil:
		return ""
	case string:
		return v
	case time.Time:
		return v.UTC().Format(time.RFC3339)
	case bool:
		return strconv.FormatBool(v)
	case int64:
		return strconv.FormatInt(v, 10)
	default:
		return fmt.Sprint(v)
	}
}

// Time returns a datetime value.
func (r Record) Time(name string) (time.Time, bool) {
	v, ok := r.Values[name].(time.Time)
	return v, ok
}

// Bool returns a bool value.
func (r Record) Bool(name string) bool {
	v, _ := r.Values[name].(bool)
	return v
}

// Ref returns a foreign key value, 0 when unset.
func (r Record) Ref(name string) int64 {
	v, _ := r.Values[name].(int64)
	return v
}

// Live reports whether a draft-state record is published.
func (r Record) Live() bool {
	return r.Bool("live")
}

// Title renders the record for listings and choosers.
func (m Model) Title(r Record) string {
	if m.TitleField != "" {
		if title := strings.TrimSpace(r.Text(m.TitleField)); title != "" {
			return title
		}
	}
	return fmt.Sprintf("%s object (%d)", m.Singular(), r.PK)
}

// Validation message keys; views translate them through the catalog.
const (
	MsgRequired         = "snippets.form.required"
	MsgInvalidChoice    = "snippets.form.invalid_choice"
	MsgInvalidDateTime  = "snippets.form.invalid_datetime"
	MsgInvalidReference = "snippets.form.invalid_reference"
)

// FieldErrors maps field names to validation message keys.
type FieldErrors map[string]string

// FormTimeLayout is the layout of datetime-local inputs.
const FormTimeLayout = "2006-01-02T15:04"

var acceptedTimeLayouts = []string{
	TimeFormat,
	time.RFC3339Nano,
	time.RFC3339,
	FormTimeLayout,
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// ParseDateTime reads a user supplied timestamp. Values without a zone are UTC.
func ParseDateTime(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	for _, layout := range acceptedTimeLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid datetime %q", value)
}

// ParseForm converts submitted form values of the editable fields.
func (m Model) ParseForm(form url.Values) (map[string]any, FieldErrors) {
	values := map[string]any{}
	errs := FieldErrors{}
	for _, field := range m.Fields {
		raw := strings.TrimSpace(form.Get(field.Name))
		switch field.Type {
		case FieldBool:
			values[field.Name] = raw == "on" || raw == "true" || raw == "1"
			continue
		case FieldDateTime:
			if raw == "" {
				break
			}
			t, err := ParseDateTime(raw)
			if err != nil {
				errs[field.Name] = MsgInvalidDateTime
				continue
			}
			values[field.Name] = t
		case FieldForeignKey:
			if raw == "" {
				break
			}
			pk, err := strconv.ParseInt(raw, 10, 64)
			if err != nil || pk <= 0 {
				errs[field.Name] = MsgInvalidReference
				continue
			}
			values[field.Name] = pk
		case FieldChoice:
			if raw == "" {
				values[field.Name] = ""
				break
			}
			valid := false
			for _, choice := range field.Choices {
				if choice.Value == raw {
					valid = true
					break
				}
			}
			if !valid {
				errs[field.Name] = MsgInvalidChoice
				continue
			}
			values[field.Name] = raw
		default:
			values[field.Name] = raw
		}
		if field.Required && raw == "" {
			errs[field.Name] = MsgRequired
		}
	}
	if len(errs) == 0 {
		errs = nil
	}
	return values, errs
}

// EncodeForm renders editable values as form strings. It is the inverse of
// ParseForm and is also the revision content format.
func (m Model) EncodeForm(values map[string]any) map[string]string {
	out := make(map[string]string, len(m.Fields))
	for _, field := range m.Fields {
		switch v := values[field.Name].(type) {
		case nil:
			out[field.Name] = ""
		case time.Time:
			out[field.Name] = v.UTC().Format(time.RFC3339)
		case bool:
			if v {
				out[field.Name] = "on"
			} else {
				out[field.Name] = ""
			}
		case int64:
			out[field.Name] = strconv.FormatInt(v, 10)
		case string:
			out[field.Name] = v
		default:
			out[field.Name] = fmt.Sprint(v)
		}
	}
	return out
}

// FormValues converts encoded form strings back to url.Values.
func FormValues(encoded map[string]string) url.Values {
	values := url.Values{}
	for key, value := range encoded {
		values.Set(key, value)
	}
	return values
}
