package views

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/flosch/pongo2/v6"
	"github.com/scantist-ossops-m2/wagtail/internal/platform/pagination"
	"github.com/scantist-ossops-m2/wagtail/internal/services/shared/htmx"
	"github.com/scantist-ossops-m2/wagtail/internal/services/snippets/listing"
	"github.com/scantist-ossops-m2/wagtail/internal/services/snippets/storage"
	"github.com/scantist-ossops-m2/wagtail/internal/services/snippets/viewset"
)

const (
	chooserTemplate        = "wagtailsnippets/chooser/choose.html"
	chooserResultsTemplate = "wagtailsnippets/chooser/results.html"
	chooserResultsTarget   = "search-results"
)

type chooserRow struct {
	ChosenURL string
	PK        int64
	Title     string
}

// chosenResponse is the payload handed back to a chooser widget.
type chosenResponse struct {
	ID      int64  `json:"id"`
	String  string `json:"string"`
	EditURL string `json:"edit_url"`
}

func (h *Handler) handleChoose(w http.ResponseWriter, r *http.Request, t target) {
	if !allowMethods(w, r, http.MethodGet) {
		return
	}
	data, err := h.chooserData(r, t)
	if err != nil {
		h.renderError(w, r, err)
		return
	}
	fragment := ""
	if htmx.Target(r) == chooserResultsTarget {
		fragment = chooserResultsTemplate
	}
	h.renderTemplate(w, r, chooserTemplate, fragment, data, http.StatusOK)
}

func (h *Handler) handleChooseResults(w http.ResponseWriter, r *http.Request, t target) {
	if !allowMethods(w, r, http.MethodGet) {
		return
	}
	data, err := h.chooserData(r, t)
	if err != nil {
		h.renderError(w, r, err)
		return
	}
	h.renderTemplate(w, r, chooserResultsTemplate, "", data, http.StatusOK)
}

// chooserData lists the choosable records. Only search narrows the list.
func (h *Handler) chooserData(r *http.Request, t target) (pongo2.Context, error) {
	m := t.model()
	chooser := t.vs.Chooser()
	p := printer(r)
	query := r.URL.Query()

	q := storage.Query{OrderBy: t.vs.DefaultOrdering()}
	if len(m.SearchFields) > 0 {
		q.Search = strings.TrimSpace(query.Get(SearchParam))
	}
	total, err := h.store.Count(r.Context(), m, q)
	if err != nil {
		return nil, err
	}
	page := pagination.Paginate(total, chooser.PerPage(), query.Get(pagination.PageParam))
	rows := []chooserRow{}
	if total > 0 {
		q.Limit, q.Offset = page.Limit(), page.Offset()
		records, err := h.store.List(r.Context(), m, q)
		if err != nil {
			return nil, err
		}
		for _, rec := range records {
			rows = append(rows, chooserRow{
				ChosenURL: chooser.MustReverse(viewset.ViewChosen, strconv.FormatInt(rec.PK, 10)),
				PK:        rec.PK,
				Title:     m.Title(rec),
			})
		}
	}

	resultsURL := chooser.MustReverse(viewset.ViewChooseResults)
	title := p.Sprintf("snippets.chooser.choose", m.Singular())
	data := h.pageData(r, title)
	data["model_name"] = m.ModelName
	data["header_icon"] = chooser.Icon()
	data["results_url"] = resultsURL
	data["rows"] = rows
	data["title_label"] = p.Sprintf("snippets.labels.title")
	data["summary"] = listing.Summarize(p, m, total, q.Search != "", t.vs.MustReverse(viewset.ViewAdd)).HTML
	data["pagination"] = buildPagination(p, page, resultsURL, query)
	data["search_enabled"] = len(m.SearchFields) > 0
	data["search_query"] = q.Search
	data["search_label"] = p.Sprintf("core.search.label")
	data["search_placeholder"] = p.Sprintf("core.search.placeholder", m.Plural())
	return data, nil
}

func (h *Handler) handleChosen(w http.ResponseWriter, r *http.Request, t target) {
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
	resp := chosenResponse{
		ID:      rec.PK,
		String:  m.Title(rec),
		EditURL: t.vs.MustReverse(viewset.ViewEdit, strconv.FormatInt(rec.PK, 10)),
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		log.Printf("encode chosen %s %d: %v", m.Label(), pk, err)
	}
}
