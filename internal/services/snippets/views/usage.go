package views

import (
	"net/http"
	"strconv"

	"github.com/scantist-ossops-m2/wagtail/internal/platform/pagination"
	"github.com/scantist-ossops-m2/wagtail/internal/services/snippets/model"
	"github.com/scantist-ossops-m2/wagtail/internal/services/snippets/viewset"
)

type usageRow struct {
	URL   string
	Title string
	Model string
	Field string
}

// models lists every registered model, the candidates of reference lookups.
func (h *Handler) models() []model.Model {
	sets := h.registry.ViewSets()
	out := make([]model.Model, 0, len(sets))
	for _, vs := range sets {
		out = append(out, vs.Model())
	}
	return out
}

func (h *Handler) handleUsage(w http.ResponseWriter, r *http.Request, t target) {
	if !allowMethods(w, r, http.MethodGet) {
		return
	}
	pk, err := t.pk()
	if err != nil {
		h.renderError(w, r, err)
		return
	}
	m := t.model()
	rec, err := h.store.Get(r.Context(), m, pk)
	if err != nil {
		h.renderError(w, r, err)
		return
	}
	refs, err := h.store.References(r.Context(), m, pk, h.models())
	if err != nil {
		h.renderError(w, r, err)
		return
	}

	p := printer(r)
	query := r.URL.Query()
	page := pagination.Paginate(len(refs), viewset.DefaultListPerPage, query.Get(pagination.PageParam))
	rows := make([]usageRow, 0, page.Limit())
	for _, ref := range pageSlice(refs, page) {
		editURL, _ := h.registry.EditURL(ref.Model.Label(), ref.Record.PK)
		rows = append(rows, usageRow{
			URL:   editURL,
			Title: ref.Model.Title(ref.Record),
			Model: capitalize(ref.Model.Singular()),
			Field: fieldLabel(ref.Field),
		})
	}

	title := p.Sprintf("snippets.usage.title", m.Title(rec))
	data := h.recordPageData(r, t, viewset.ViewUsage, rec, title)
	data["usages"] = rows
	data["usage_title_label"] = p.Sprintf("snippets.labels.title")
	data["usage_model_label"] = p.Sprintf("snippets.labels.model")
	data["usage_field_label"] = p.Sprintf("snippets.usage.field")
	data["empty_message"] = p.Sprintf("snippets.usage.empty")
	data["pagination"] = buildPagination(p, page, t.vs.MustReverse(viewset.ViewUsage, strconv.FormatInt(pk, 10)), query)
	h.render(w, r, t, "usage", "", data, http.StatusOK)
}
