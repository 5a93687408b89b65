// Package widgets renders snippet choosers for edit forms and block
// definitions.
package widgets

import (
	"fmt"
	"html"
	"strconv"

	"github.com/scantist-ossops-m2/wagtail/internal/platform/icons"
	"github.com/scantist-ossops-m2/wagtail/internal/services/snippets/viewset"
	"golang.org/x/text/message"
)

// AdminSnippetChooser selects one instance of a snippet model through the
// model's chooser views.
type AdminSnippetChooser struct {
	viewSet      *viewset.ViewSet
	staticPrefix string
}

// NewAdminSnippetChooser builds a chooser for the model served by vs.
func NewAdminSnippetChooser(vs *viewset.ViewSet, staticPrefix string) *AdminSnippetChooser {
	return &AdminSnippetChooser{viewSet: vs, staticPrefix: staticPrefix}
}

// ViewSet returns the viewset of the chosen model.
func (c *AdminSnippetChooser) ViewSet() *viewset.ViewSet { return c.viewSet }

// ModelLabel returns the label of the chosen model.
func (c *AdminSnippetChooser) ModelLabel() string { return c.viewSet.Model().Label() }

// Icon returns the icon shown on the chooser buttons.
func (c *AdminSnippetChooser) Icon() string { return c.viewSet.Icon() }

// ChooseURL is the chooser modal URL.
func (c *AdminSnippetChooser) ChooseURL() string {
	return c.viewSet.Chooser().MustReverse(viewset.ViewChoose)
}

// Chosen is the currently selected instance; PK 0 means none.
type Chosen struct {
	PK    int64
	Title string
}

// Render writes the widget for form field name. id defaults to id_{name}.
func (c *AdminSnippetChooser) Render(p *message.Printer, name, id string, chosen Chosen) string {
	if id == "" {
		id = "id_" + name
	}
	singular := c.viewSet.Model().Singular()
	icon := icons.SVG(c.staticPrefix, c.Icon(), "icon")

	value, editURL, class := "", "", "chooser snippet-chooser"
	if chosen.PK > 0 {
		value = strconv.FormatInt(chosen.PK, 10)
		editURL = c.viewSet.MustReverse(viewset.ViewEdit, value)
	} else {
		class += " blank"
	}

	return fmt.Sprintf(`<div id="%[1]s-chooser" class="%[2]s" data-chooser-url="%[3]s">`+
		`<div class="chosen">%[4]s<span class="title">%[5]s</span>`+
		`<button type="button" class="button action-choose button-small button-secondary">%[6]s</button>`+
		`<a href="%[7]s" class="edit-link button button-small button-secondary">%[8]s</a></div>`+
		`<div class="unchosen"><button type="button" class="button action-choose button-small button-secondary">%[4]s%[9]s</button></div>`+
		`<input type="hidden" name="%[10]s" id="%[1]s" value="%[11]s"></div>`,
		html.EscapeString(id),
		class,
		html.EscapeString(c.ChooseURL()),
		icon,
		html.EscapeString(chosen.Title),
		html.EscapeString(p.Sprintf("snippets.chooser.choose_another", singular)),
		html.EscapeString(editURL),
		html.EscapeString(p.Sprintf("core.actions.edit")),
		html.EscapeString(p.Sprintf("snippets.chooser.choose", singular)),
		html.EscapeString(name),
		value,
	)
}
