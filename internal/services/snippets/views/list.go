package views

import (
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/flosch/pongo2/v6"
	"github.com/scantist-ossops-m2/wagtail/internal/platform/pagination"
	"github.com/scantist-ossops-m2/wagtail/internal/services/shared/htmx"
	"github.com/scantist-ossops-m2/wagtail/internal/services/snippets/export"
	"github.com/scantist-ossops-m2/wagtail/internal/services/snippets/filters"
	"github.com/scantist-ossops-m2/wagtail/internal/services/snippets/listing"
	"github.com/scantist-ossops-m2/wagtail/internal/services/snippets/model"
	"github.com/scantist-ossops-m2/wagtail/internal/services/snippets/storage"
	"github.com/scantist-ossops-m2/wagtail/internal/services/snippets/templates"
	"github.com/scantist-ossops-m2/wagtail/internal/services/snippets/viewset"
	"golang.org/x/text/message"
)

// SearchParam is the free-text search query parameter.
const SearchParam = "q"

const resultsTemplate = "wagtailsnippets/snippets/index_results.html"

// resultsTarget is the element id swapped by partial listing refreshes.
const resultsTarget = "listing-results"

// listQuery is the listing state read from the request query.
type listQuery struct {
	values   url.Values
	bound    filters.Bound
	search   string
	ordering listing.Ordering
}

// narrowed reports whether a filter or search restricts the listing.
func (q listQuery) narrowed() bool {
	return q.bound.Active() || q.search != ""
}

func (q listQuery) storageQuery() storage.Query {
	return storage.Query{Where: q.bound.Condition, Search: q.search, OrderBy: q.ordering}
}

func bindListQuery(vs *viewset.ViewSet, values url.Values) (listQuery, error) {
	bound, err := vs.Filters().Bind(values)
	if err != nil {
		return listQuery{}, err
	}
	q := listQuery{
		values:   values,
		bound:    bound,
		ordering: listing.ResolveOrdering(values.Get(listing.OrderingParam), vs.SortKeys(), vs.DefaultOrdering()),
	}
	if len(vs.Model().SearchFields) > 0 {
		q.search = strings.TrimSpace(values.Get(SearchParam))
	}
	return q, nil
}

// countAndList counts matches and loads one page. Invalid filter input
// yields an empty result set.
func (h *Handler) countAndList(r *http.Request, m model.Model, q listQuery, perPage int) (pagination.Page, []model.Record, error) {
	if !q.bound.Valid() {
		return pagination.Paginate(0, perPage, ""), nil, nil
	}
	sq := q.storageQuery()
	total, err := h.store.Count(r.Context(), m, sq)
	if err != nil {
		return pagination.Page{}, nil, fmt.Errorf("count %s: %w", m.Label(), err)
	}
	page := pagination.Paginate(total, perPage, q.values.Get(pagination.PageParam))
	if total == 0 {
		return page, nil, nil
	}
	sq.Limit, sq.Offset = page.Limit(), page.Offset()
	records, err := h.store.List(r.Context(), m, sq)
	if err != nil {
		return pagination.Page{}, nil, fmt.Errorf("list %s: %w", m.Label(), err)
	}
	return page, records, nil
}

// paginationView feeds the pagination_nav template.
type paginationView struct {
	AriaLabel     string
	Label         string
	Previous      int
	Next          int
	PreviousURL   string
	NextURL       string
	PreviousLabel string
	NextLabel     string
}

func buildPagination(p *message.Printer, page pagination.Page, base string, query url.Values) paginationView {
	label := p.Sprintf("core.pagination.page_of", page.Number, page.NumPages)
	view := paginationView{
		AriaLabel:     label,
		Label:         label,
		Previous:      page.PreviousNumber(),
		Next:          page.NextNumber(),
		PreviousLabel: p.Sprintf("core.pagination.previous"),
		NextLabel:     p.Sprintf("core.pagination.next"),
	}
	if page.HasPrevious() {
		view.PreviousURL = pagination.URL(base, query, page.PreviousNumber())
	}
	if page.HasNext() {
		view.NextURL = pagination.URL(base, query, page.NextNumber())
	}
	return view
}

// listRow is one listing table row.
type listRow struct {
	PK    int64
	Title string
	Cells []string
}

type link struct {
	URL   string
	Label string
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request, t target) {
	if !allowMethods(w, r, http.MethodGet) {
		return
	}
	if raw, ok := r.URL.Query()[export.Param]; ok {
		h.handleExport(w, r, t, strings.Join(raw, ""))
		return
	}
	data, err := h.listingData(r, t)
	if err != nil {
		h.renderError(w, r, err)
		return
	}
	m := t.model()
	p := printer(r)
	data["header_action_url"] = t.vs.MustReverse(viewset.ViewAdd)
	data["header_action_label"] = p.Sprintf("snippets.list.add", m.Singular())
	data["export_links"] = exportLinks(p, t.vs.MustReverse(viewset.ViewList), r.URL.Query())

	name, err := h.engine.ResolveFor(m, "index", t.vs.Options().IndexTemplateName, "")
	if err != nil {
		h.renderError(w, r, err)
		return
	}
	fragment := ""
	if htmx.Target(r) == resultsTarget {
		fragment = resultsTemplate
	}
	h.renderTemplate(w, r, name, fragment, data, http.StatusOK)
}

func (h *Handler) handleListResults(w http.ResponseWriter, r *http.Request, t target) {
	if !allowMethods(w, r, http.MethodGet) {
		return
	}
	data, err := h.listingData(r, t)
	if err != nil {
		h.renderError(w, r, err)
		return
	}
	name, err := h.engine.ResolveFor(t.model(), "index_results", "", resultsTemplate)
	if err != nil {
		h.renderError(w, r, err)
		return
	}
	h.renderTemplate(w, r, name, "", data, http.StatusOK)
}

// listingData builds the context of the listing page and its results
// fragment.
func (h *Handler) listingData(r *http.Request, t target) (pongo2.Context, error) {
	m := t.model()
	p := printer(r)
	values := r.URL.Query()
	q, err := bindListQuery(t.vs, values)
	if err != nil {
		return nil, err
	}
	page, records, err := h.countAndList(r, m, q, t.vs.ListPerPage())
	if err != nil {
		return nil, err
	}

	listURL := t.vs.MustReverse(viewset.ViewList)
	addURL := t.vs.MustReverse(viewset.ViewAdd)
	columns := t.vs.Columns()
	rows := make([]listRow, 0, len(records))
	for _, rec := range records {
		editURL := t.vs.MustReverse(viewset.ViewEdit, strconv.FormatInt(rec.PK, 10))
		cells := make([]string, 0, len(columns))
		for i, col := range columns {
			cells = append(cells, listing.Cell(p, m, col, rec, i == 0, editURL))
		}
		rows = append(rows, listRow{PK: rec.PK, Title: m.Title(rec), Cells: cells})
	}
	summary := listing.Summarize(p, m, page.Total, q.narrowed(), addURL)

	data := h.viewSetData(r, t, viewset.ViewList, capitalize(m.Plural()))
	data["list_url"] = listURL
	data["results_url"] = t.vs.MustReverse(viewset.ViewListResults)
	data["rows"] = rows
	data["headers"] = listing.Headers(p, columns, q.ordering, listURL, values)
	data["summary"] = summary.HTML
	data["no_results"] = summary.NoResults
	data["pagination"] = buildPagination(p, page, listURL, values)
	data["page_obj"] = page
	data["select_all_label"] = p.Sprintf("snippets.list.select_all")
	if raw := values.Get(listing.OrderingParam); raw != "" {
		data["ordering"] = q.ordering.Param()
	}
	h.addFilterData(data, p, t.vs, q)
	return data, nil
}

// addFilterData adds the search field, filter widgets and their media.
func (h *Handler) addFilterData(data pongo2.Context, p *message.Printer, vs *viewset.ViewSet, q listQuery) {
	m := vs.Model()
	data["search_enabled"] = len(m.SearchFields) > 0
	data["search_query"] = q.search
	data["search_label"] = p.Sprintf("core.search.label")
	data["search_placeholder"] = p.Sprintf("core.search.placeholder", m.Plural())
	data["filters_heading"] = p.Sprintf("core.filters.heading")
	data["filters_apply_label"] = p.Sprintf("core.filters.apply")
	if len(vs.Filters().Fields()) > 0 {
		data["filters"] = q.bound.Render(p)
	}
	media := []string{}
	for _, asset := range vs.Filters().Media() {
		media = append(media, h.engine.StaticURL(asset))
	}
	data["media"] = media
}

func exportLinks(p *message.Printer, listURL string, query url.Values) []link {
	links := make([]link, 0, 2)
	for _, f := range []export.Format{export.FormatCSV, export.FormatXLSX} {
		values := url.Values{}
		for key, vals := range query {
			if key == pagination.PageParam || key == export.Param {
				continue
			}
			values[key] = append([]string(nil), vals...)
		}
		values.Set(export.Param, string(f))
		links = append(links, link{URL: listURL + "?" + values.Encode(), Label: p.Sprintf("snippets.list.export_" + string(f))})
	}
	return links
}

func (h *Handler) handleExport(w http.ResponseWriter, r *http.Request, t target, raw string) {
	format, err := export.ParseFormat(raw)
	if err != nil {
		h.renderError(w, r, err)
		return
	}
	m := t.model()
	q, err := bindListQuery(t.vs, r.URL.Query())
	if err != nil {
		h.renderError(w, r, err)
		return
	}
	var records []model.Record
	if q.bound.Valid() {
		records, err = h.store.List(r.Context(), m, q.storageQuery())
		if err != nil {
			h.renderError(w, r, fmt.Errorf("export %s: %w", m.Label(), err))
			return
		}
	}
	var table export.Table
	if fields := t.vs.Options().ListExport; len(fields) > 0 {
		table = export.FieldsTable(m, fields, records)
	} else {
		table = export.ColumnsTable(printer(r), m, t.vs.Columns(), records)
	}
	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, format.Filename(m)))
	if err := export.Write(w, format, capitalize(m.Plural()), table); err != nil {
		log.Printf("export %s: %v", m.Label(), err)
	}
}

// snippetType is one entry of the snippets index.
type snippetType struct {
	URL   string
	Name  string
	Count string
}

func (h *Handler) handleIndex(w http.ResponseWriter, r *http.Request) {
	if !allowMethods(w, r, http.MethodGet) {
		return
	}
	p := printer(r)
	entries := make([]snippetType, 0, len(h.registry.ViewSets()))
	for _, vs := range h.registry.ViewSets() {
		count, err := h.store.Count(r.Context(), vs.Model(), storage.Query{})
		if err != nil {
			h.renderError(w, r, fmt.Errorf("count %s: %w", vs.Model().Label(), err))
			return
		}
		entries = append(entries, snippetType{
			URL:   vs.MustReverse(viewset.ViewList),
			Name:  capitalize(vs.Model().Plural()),
			Count: p.Sprintf("snippets.index.instances", count),
		})
	}
	title := p.Sprintf("snippets.index.title")
	data := h.pageData(r, title)
	data["header_icon"] = "snippet"
	data["snippet_types"] = entries
	name, err := h.engine.Resolve(templates.SnippetsDir + "type_index.html")
	if err != nil {
		h.renderError(w, r, err)
		return
	}
	h.renderTemplate(w, r, name, "", data, http.StatusOK)
}
