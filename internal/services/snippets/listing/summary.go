package listing

import (
	"html"

	"github.com/scantist-ossops-m2/wagtail/internal/services/snippets/model"
	"golang.org/x/text/message"
)

// Summary is the message shown above or instead of listing results.
type Summary struct {
	// HTML is the rendered message, empty when nothing should be shown.
	HTML string
	// NoResults marks the zero-result state.
	NoResults bool
}

// Summarize builds the result message. Counts are announced only when a
// filter or search narrowed the listing; an unfiltered empty listing invites
// the user to add the first object instead.
func Summarize(p *message.Printer, m model.Model, count int, narrowed bool, addURL string) Summary {
	plural := html.EscapeString(m.Plural())
	switch {
	case narrowed && count == 0:
		return Summary{HTML: p.Sprintf("snippets.list.no_match", plural), NoResults: true}
	case narrowed:
		return Summary{HTML: p.Sprintf("snippets.list.matches", count)}
	case count == 0:
		return Summary{HTML: p.Sprintf("snippets.list.empty", plural, html.EscapeString(addURL)), NoResults: true}
	default:
		return Summary{}
	}
}
