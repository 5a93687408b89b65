package views

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	apperrors "github.com/scantist-ossops-m2/wagtail/internal/platform/errors"
	"github.com/scantist-ossops-m2/wagtail/internal/platform/pagination"
	"github.com/scantist-ossops-m2/wagtail/internal/services/snippets/model"
	"github.com/scantist-ossops-m2/wagtail/internal/services/snippets/storage"
	"github.com/scantist-ossops-m2/wagtail/internal/services/snippets/viewset"
)

// displayTimeLayout renders timestamps in tables.
const displayTimeLayout = "2006-01-02 15:04"

// Revision selectors accepted by the compare view besides numeric ids.
const (
	revisionEarliest = "earliest"
	revisionLatest   = "latest"
)

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(displayTimeLayout)
}

func isoTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

// pageSlice returns the items of page.
func pageSlice[T any](items []T, page pagination.Page) []T {
	start := page.Offset()
	if start >= len(items) {
		return nil
	}
	end := start + page.Limit()
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}

type revisionRow struct {
	ID         int64
	Current    bool
	Scheduled  string
	CreatedISO string
	Created    string
	User       string
	Links      []link
}

func (h *Handler) handleHistory(w http.ResponseWriter, r *http.Request, t target) {
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
	revisions, err := h.store.Revisions(r.Context(), m, pk)
	if err != nil {
		h.renderError(w, r, err)
		return
	}

	p := printer(r)
	id := strconv.FormatInt(pk, 10)
	query := r.URL.Query()
	page := pagination.Paginate(len(revisions), viewset.DefaultListPerPage, query.Get(pagination.PageParam))
	rows := make([]revisionRow, 0, page.Limit())
	for _, rev := range pageSlice(revisions, page) {
		revID := strconv.FormatInt(rev.ID, 10)
		row := revisionRow{
			ID:         rev.ID,
			Current:    rev.ID == rec.LatestRevisionID,
			CreatedISO: isoTime(rev.CreatedAt),
			Created:    formatTime(rev.CreatedAt),
			User:       rev.UserID,
			Links:      []link{{URL: t.vs.MustReverse(viewset.ViewRevisionsRevert, id, revID), Label: p.Sprintf("snippets.history.revert")}},
		}
		if !row.Current {
			row.Links = append(row.Links, link{
				URL:   t.vs.MustReverse(viewset.ViewRevisionsCompare, id, revID, revisionLatest),
				Label: p.Sprintf("snippets.history.compare"),
			})
		}
		if rev.Scheduled() {
			row.Scheduled = p.Sprintf("snippets.status.scheduled_for", formatTime(rev.ApprovedGoLiveAt))
			row.Links = append(row.Links, link{
				URL:   t.vs.MustReverse(viewset.ViewRevisionsUnschedule, id, revID),
				Label: p.Sprintf("snippets.history.unschedule"),
			})
		}
		rows = append(rows, row)
	}

	title := p.Sprintf("snippets.history.title", m.Title(rec))
	data := h.recordPageData(r, t, viewset.ViewHistory, rec, title)
	data["revisions"] = rows
	data["revision_label"] = p.Sprintf("snippets.labels.revision")
	data["created_label"] = p.Sprintf("snippets.labels.created")
	data["user_label"] = p.Sprintf("snippets.labels.user")
	data["current_label"] = p.Sprintf("snippets.labels.current")
	data["empty_message"] = p.Sprintf("snippets.history.empty")
	data["pagination"] = buildPagination(p, page, t.vs.MustReverse(viewset.ViewHistory, id), query)
	h.render(w, r, t, "history", t.vs.Options().HistoryTemplateName, data, http.StatusOK)
}

type comparisonRow struct {
	Label   string
	Left    string
	Right   string
	Changed bool
}

func (h *Handler) handleRevisionsCompare(w http.ResponseWriter, r *http.Request, t target) {
	if !allowMethods(w, r, http.MethodGet) {
		return
	}
	pk, err := t.pk()
	if err != nil {
		h.renderError(w, r, err)
		return
	}
	if len(t.args) < 3 {
		h.renderError(w, r, apperrors.New(apperrors.CodeRouteArgs, "compare needs two revisions"))
		return
	}
	m := t.model()
	rec, err := h.store.Get(r.Context(), m, pk)
	if err != nil {
		h.renderError(w, r, err)
		return
	}
	revisions, err := h.store.Revisions(r.Context(), m, pk)
	if err != nil {
		h.renderError(w, r, err)
		return
	}
	left, err := selectRevision(revisions, t.args[1])
	if err != nil {
		h.renderError(w, r, err)
		return
	}
	right, err := selectRevision(revisions, t.args[2])
	if err != nil {
		h.renderError(w, r, err)
		return
	}

	p := printer(r)
	rows := compareRevisions(m, left, right)
	changed := false
	for _, row := range rows {
		changed = changed || row.Changed
	}
	title := p.Sprintf("snippets.revisions.compare_title", m.Title(rec))
	data := h.recordPageData(r, t, viewset.ViewRevisionsCompare, rec, title)
	data["comparison"] = rows
	data["field_label"] = p.Sprintf("snippets.usage.field")
	data["left_label"] = p.Sprintf("snippets.labels.before") + " (#" + strconv.FormatInt(left.ID, 10) + ")"
	data["right_label"] = p.Sprintf("snippets.labels.after") + " (#" + strconv.FormatInt(right.ID, 10) + ")"
	if !changed {
		data["unchanged"] = p.Sprintf("snippets.revisions.compare_unchanged")
	}
	h.render(w, r, t, "revisions_compare", "", data, http.StatusOK)
}

// selectRevision picks a revision by id or by the earliest/latest selectors.
// revisions are ordered newest first.
func selectRevision(revisions []storage.Revision, selector string) (storage.Revision, error) {
	if len(revisions) > 0 {
		switch strings.ToLower(selector) {
		case revisionLatest:
			return revisions[0], nil
		case revisionEarliest:
			return revisions[len(revisions)-1], nil
		}
		if id, err := strconv.ParseInt(selector, 10, 64); err == nil {
			for _, rev := range revisions {
				if rev.ID == id {
					return rev, nil
				}
			}
		}
	}
	return storage.Revision{}, apperrors.WithMetadata(apperrors.CodeNotFound,
		"revision "+selector+" not found", map[string]string{"revision": selector})
}

func compareRevisions(m model.Model, left, right storage.Revision) []comparisonRow {
	rows := make([]comparisonRow, 0, len(m.Fields))
	for _, f := range m.Fields {
		l, r := left.Content[f.Name], right.Content[f.Name]
		rows = append(rows, comparisonRow{
			Label:   fieldLabel(f),
			Left:    revisionValue(f, l),
			Right:   revisionValue(f, r),
			Changed: l != r,
		})
	}
	return rows
}

func revisionValue(f model.Field, value string) string {
	switch f.Type {
	case model.FieldChoice:
		return f.ChoiceLabel(value)
	case model.FieldDateTime:
		if t, err := model.ParseDateTime(value); err == nil && value != "" {
			return formatTime(t)
		}
	}
	return value
}
