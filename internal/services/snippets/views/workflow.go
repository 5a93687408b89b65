package views

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/flosch/pongo2/v6"
	apperrors "github.com/scantist-ossops-m2/wagtail/internal/platform/errors"
	"github.com/scantist-ossops-m2/wagtail/internal/platform/pagination"
	"github.com/scantist-ossops-m2/wagtail/internal/services/snippets/storage"
	"github.com/scantist-ossops-m2/wagtail/internal/services/snippets/viewset"
	"golang.org/x/text/message"
)

type workflowRow struct {
	URL         string
	Name        string
	Status      string
	RequestedBy string
	CreatedISO  string
	Created     string
	Revision    int64
}

func workflowStatus(p *message.Printer, status string) string {
	key := "snippets.workflow.status." + status
	if msg := p.Sprintf(key); msg != key {
		return msg
	}
	return status
}

func newWorkflowRow(p *message.Printer, state storage.WorkflowState) workflowRow {
	return workflowRow{
		Name:        state.WorkflowName,
		Status:      workflowStatus(p, state.Status),
		RequestedBy: state.RequestedBy,
		CreatedISO:  isoTime(state.CreatedAt),
		Created:     formatTime(state.CreatedAt),
		Revision:    state.RevisionID,
	}
}

// requireWorkflow rejects workflow views of models without moderation.
func requireWorkflow(t target) error {
	if m := t.model(); !m.Workflow {
		return apperrors.New(apperrors.CodeNotFound, fmt.Sprintf("%s has no workflow", m.Label()))
	}
	return nil
}

func (h *Handler) handleWorkflowHistory(w http.ResponseWriter, r *http.Request, t target) {
	if !allowMethods(w, r, http.MethodGet) {
		return
	}
	if err := requireWorkflow(t); err != nil {
		h.renderError(w, r, err)
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
	states, err := h.store.WorkflowStates(r.Context(), m, pk)
	if err != nil {
		h.renderError(w, r, err)
		return
	}

	p := printer(r)
	id := strconv.FormatInt(pk, 10)
	query := r.URL.Query()
	page := pagination.Paginate(len(states), viewset.DefaultListPerPage, query.Get(pagination.PageParam))
	rows := make([]workflowRow, 0, page.Limit())
	for _, state := range pageSlice(states, page) {
		row := newWorkflowRow(p, state)
		row.URL = t.vs.MustReverse(viewset.ViewWorkflowHistoryDetail, id, strconv.FormatInt(state.ID, 10))
		rows = append(rows, row)
	}

	title := p.Sprintf("snippets.workflow.history_title", m.Title(rec))
	data := h.recordPageData(r, t, viewset.ViewWorkflowHistory, rec, title)
	addWorkflowLabels(p, data)
	data["workflow_states"] = rows
	data["empty_message"] = p.Sprintf("snippets.workflow.empty")
	data["pagination"] = buildPagination(p, page, t.vs.MustReverse(viewset.ViewWorkflowHistory, id), query)
	h.render(w, r, t, "workflow_history", "", data, http.StatusOK)
}

func (h *Handler) handleWorkflowHistoryDetail(w http.ResponseWriter, r *http.Request, t target) {
	if !allowMethods(w, r, http.MethodGet) {
		return
	}
	if err := requireWorkflow(t); err != nil {
		h.renderError(w, r, err)
		return
	}
	pk, err := t.pk()
	if err != nil {
		h.renderError(w, r, err)
		return
	}
	stateID, err := t.intArg(1)
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
	state, err := h.store.WorkflowState(r.Context(), m, pk, stateID)
	if err != nil {
		h.renderError(w, r, err)
		return
	}

	p := printer(r)
	title := p.Sprintf("snippets.workflow.detail_title", m.Title(rec))
	data := h.recordPageData(r, t, viewset.ViewWorkflowHistoryDetail, rec, title)
	addWorkflowLabels(p, data)
	data["object_icon"] = t.vs.Icon()
	data["object_title"] = m.Title(rec)
	data["edit_url"] = t.vs.MustReverse(viewset.ViewEdit, strconv.FormatInt(pk, 10))
	data["workflow_state"] = newWorkflowRow(p, state)
	data["revision_label"] = p.Sprintf("snippets.labels.revision")
	h.render(w, r, t, "workflow_history_detail", "", data, http.StatusOK)
}

func addWorkflowLabels(p *message.Printer, data pongo2.Context) {
	data["workflow_label"] = p.Sprintf("snippets.labels.workflow")
	data["status_label"] = p.Sprintf("snippets.columns.status")
	data["requested_by_label"] = p.Sprintf("snippets.labels.requested_by")
	data["created_label"] = p.Sprintf("snippets.labels.created")
}
