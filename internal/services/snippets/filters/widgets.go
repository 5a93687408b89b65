package filters

import (
	"fmt"
	"html"
	"strings"

	"golang.org/x/text/message"
)

// DateTimeChooserScript is the static asset needed by date filters.
const DateTimeChooserScript = "wagtailadmin/js/date-time-chooser.js"

// RenderedField is one filter widget ready for the filters template.
type RenderedField struct {
	Param string
	Label string
	Kind  Kind
	// LabelHTML is empty for choice filters, whose options carry labels.
	LabelHTML string
	InputHTML string
	Error     string
}

// Render builds the widget HTML of every filter with the bound values.
func (b Bound) Render(p *message.Printer) []RenderedField {
	fields := b.Fields()
	out := make([]RenderedField, 0, len(fields))
	for _, f := range fields {
		param := f.Param()
		value, present := b.Values[param], b.Present[param]
		rf := RenderedField{Param: param, Label: f.Label, Kind: f.Kind}
		if key, ok := b.Errors[param]; ok {
			rf.Error = p.Sprintf(key)
		}
		switch f.Kind {
		case KindChoice:
			rf.InputHTML = renderRadios(p, f, value)
		default:
			rf.LabelHTML = fmt.Sprintf(`<label class="w-field__label" for="id_%[1]s" id="id_%[1]s-label">%[2]s</label>`,
				param, html.EscapeString(f.Label))
			rf.InputHTML = renderTextInput(param, value, present, f.Kind == KindDate)
		}
		out = append(out, rf)
	}
	return out
}

func renderRadios(p *message.Printer, f Field, value string) string {
	param := f.Param()
	var sb strings.Builder
	option := func(i int, v, label string) {
		checked := ""
		if v == value {
			checked = " checked"
		}
		fmt.Fprintf(&sb, `<label for="id_%[1]s_%[2]d"><input type="radio" name="%[1]s" value="%[3]s" id="id_%[1]s_%[2]d"%[4]s>%[5]s</label>`,
			param, i, html.EscapeString(v), checked, html.EscapeString(label))
	}
	option(0, "", p.Sprintf("core.filters.all"))
	for i, choice := range f.Choices {
		option(i+1, choice.Value, choice.Label)
	}
	return sb.String()
}

func renderTextInput(param, value string, present, date bool) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, `<input type="text" name="%s"`, param)
	if present {
		fmt.Fprintf(&sb, ` value="%s"`, html.EscapeString(value))
	}
	if date {
		sb.WriteString(` autocomplete="off"`)
	}
	fmt.Fprintf(&sb, ` id="id_%s">`, param)
	return sb.String()
}

// Media returns the script assets required by the set's widgets.
func (s *Set) Media() []string {
	if s.HasKind(KindDate) {
		return []string{DateTimeChooserScript}
	}
	return nil
}
