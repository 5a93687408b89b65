package templates

import "github.com/scantist-ossops-m2/wagtail/internal/services/snippets/model"

// SnippetsDir is the template directory of snippet views.
const SnippetsDir = "wagtailsnippets/snippets/"

// SearchPath lists template candidates for action on m, most specific first:
// the explicit name when set, then the model, app and generic snippet
// templates, then fallback.
func SearchPath(m model.Model, action, explicit, fallback string) []string {
	var out []string
	if explicit != "" {
		out = append(out, explicit)
	}
	out = append(out,
		SnippetsDir+m.AppLabel+"/"+m.ModelName+"/"+action+".html",
		SnippetsDir+m.AppLabel+"/"+action+".html",
		SnippetsDir+action+".html",
	)
	if fallback != "" {
		out = append(out, fallback)
	}
	return out
}

// ResolveFor resolves the template of action on m.
func (e *Engine) ResolveFor(m model.Model, action, explicit, fallback string) (string, error) {
	return e.Resolve(SearchPath(m, action, explicit, fallback)...)
}
