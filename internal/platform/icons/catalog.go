package icons

import (
	"html"
	"sort"
	"strings"
)

// SpritePath is the static path of the icon sprite.
const SpritePath = "wagtailadmin/icons.svg"

// Fallback is rendered when a requested icon is not cataloged.
const Fallback = "placeholder"

// Definition describes a core icon entry.
type Definition struct {
	Name        string
	Description string
	// Path is the 24x24 SVG path data of the symbol.
	Path string
}

var catalog = []Definition{
	{Name: "cog", Description: "Settings and configuration objects.", Path: "M12 8a4 4 0 1 0 0 8 4 4 0 0 0 0-8zm9 4-2.2-.7.6-2.2-2-1.2-1.6 1.6-2-.8L13.2 6h-2.4l-.6 2.7-2 .8L6.6 8 4.6 9.1l.6 2.2L3 12l.6 2.3 2.2.5-.6 2.2 2 1.2 1.6-1.6 2 .8.6 2.6h2.4l.6-2.6 2-.8 1.6 1.6 2-1.2-.6-2.2 2.2-.5z"},
	{Name: "snippet", Description: "Default icon for snippet models.", Path: "M4 4h16v4H4zm0 6h10v4H4zm0 6h16v4H4z"},
	{Name: "history", Description: "Revision history.", Path: "M12 4a8 8 0 1 1-7.4 5H2l3.5-4 3.5 4H6.7A6 6 0 1 0 12 6zm-1 3h2v5l4 2-1 1.7-5-2.7z"},
	{Name: "list-ul", Description: "Workflow and task lists.", Path: "M4 5h2v2H4zm4 0h12v2H8zM4 11h2v2H4zm4 0h12v2H8zm-4 6h2v2H4zm4 0h12v2H8z"},
	{Name: "plus", Description: "Add a new object.", Path: "M11 4h2v7h7v2h-7v7h-2v-7H4v-2h7z"},
	{Name: "edit", Description: "Edit an object.", Path: "M4 17v3h3l10-10-3-3zM19 7l-3-3 2-2 3 3z"},
	{Name: "bin", Description: "Delete an object.", Path: "M6 7h12l-1 13H7zm3-4h6l1 2h4v2H4V5h4z"},
	{Name: "link", Description: "Usage and references.", Path: "M10 14a4 4 0 0 1 0-6l3-3a4 4 0 0 1 6 6l-1.5 1.5-1.4-1.4L17.6 9.6a2 2 0 0 0-2.8-2.8l-3 3a2 2 0 0 0 0 2.8zm4-4a4 4 0 0 1 0 6l-3 3a4 4 0 0 1-6-6l1.5-1.5 1.4 1.4L6.4 14.4a2 2 0 0 0 2.8 2.8l3-3a2 2 0 0 0 0-2.8z"},
	{Name: "download", Description: "Export listing data.", Path: "M11 3h2v9l3-3 1.4 1.4L12 16l-5.4-5.6L8 9l3 3zM4 18h16v2H4z"},
	{Name: "calendar", Description: "Scheduled publishing.", Path: "M6 2h2v2h8V2h2v2h3v17H3V4h3zm-1 7v10h14V9z"},
	{Name: "doc-empty-inverse", Description: "Generic document.", Path: "M5 2h9l5 5v15H5z"},
	{Name: Fallback, Description: "Shown when an icon name is unknown.", Path: "M4 4h16v16H4z"},
}

var byName = func() map[string]Definition {
	out := make(map[string]Definition, len(catalog))
	for _, def := range catalog {
		out[def.Name] = def
	}
	return out
}()

// Catalog returns a copy of all icon definitions.
func Catalog() []Definition {
	result := make([]Definition, len(catalog))
	copy(result, catalog)
	return result
}

// Lookup returns the definition for name.
func Lookup(name string) (Definition, bool) {
	def, ok := byName[strings.TrimSpace(name)]
	return def, ok
}

// Names returns the sorted icon names.
func Names() []string {
	out := make([]string, 0, len(catalog))
	for _, def := range catalog {
		out = append(out, def.Name)
	}
	sort.Strings(out)
	return out
}

// SymbolID returns the sprite symbol id for an icon name.
func SymbolID(name string) string {
	return "icon-" + name
}

// SVG renders an inline reference to the sprite symbol for name. The first
// classes are always "icon icon-{name}" and extra classes follow.
func SVG(staticPrefix, name string, classes ...string) string {
	name = strings.TrimSpace(name)
	if _, ok := byName[name]; !ok {
		name = Fallback
	}
	classList := append([]string{"icon", SymbolID(name)}, classes...)
	var b strings.Builder
	b.WriteString(`<svg class="`)
	b.WriteString(html.EscapeString(strings.Join(classList, " ")))
	b.WriteString(`" aria-hidden="true"><use href="`)
	b.WriteString(html.EscapeString(staticPrefix + SpritePath + "#" + SymbolID(name)))
	b.WriteString(`"></use></svg>`)
	return b.String()
}

// Sprite renders the SVG sprite document with one symbol per icon.
func Sprite() string {
	var b strings.Builder
	b.WriteString(`<svg xmlns="http://www.w3.org/2000/svg"><defs>`)
	for _, def := range catalog {
		b.WriteString(`<symbol id="`)
		b.WriteString(SymbolID(def.Name))
		b.WriteString(`" viewBox="0 0 24 24"><path d="`)
		b.WriteString(def.Path)
		b.WriteString(`"/></symbol>`)
	}
	b.WriteString(`</defs></svg>`)
	return b.String()
}
