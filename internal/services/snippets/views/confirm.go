package views

import (
	"net/http"
	"strconv"

	"github.com/flosch/pongo2/v6"
	"github.com/scantist-ossops-m2/wagtail/internal/services/snippets/storage"
	"github.com/scantist-ossops-m2/wagtail/internal/services/snippets/viewset"
	"golang.org/x/text/message"
)

// confirmation describes a confirm-then-POST page.
type confirmation struct {
	view    string
	action  string
	title   string
	message string
	detail  string
	submit  string
	// done is the redirect target after the action succeeds.
	done string
}

func (h *Handler) confirmData(r *http.Request, p *message.Printer, c confirmation, data pongo2.Context) pongo2.Context {
	data["confirm_message"] = c.message
	data["confirm_detail"] = c.detail
	data["action_url"] = r.URL.Path
	data["next_url"] = h.nextURL(r, "")
	data["submit_label"] = c.submit
	data["cancel_label"] = p.Sprintf("core.actions.cancel")
	data["cancel_url"] = h.nextURL(r, c.done)
	return data
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request, t target) {
	if !allowMethods(w, r, http.MethodGet, http.MethodPost) {
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
	listURL := t.vs.MustReverse(viewset.ViewList)
	if r.Method == http.MethodPost {
		if err := h.store.Delete(r.Context(), m, pk); err != nil {
			h.renderError(w, r, err)
			return
		}
		redirect(w, r, h.nextURL(r, listURL))
		return
	}

	p := printer(r)
	c := confirmation{
		view:    viewset.ViewDelete,
		action:  "delete",
		title:   p.Sprintf("snippets.delete.title", m.Title(rec)),
		message: p.Sprintf("snippets.delete.confirm", m.Singular()),
		submit:  p.Sprintf("snippets.delete.submit"),
		done:    listURL,
	}
	refs, err := h.store.References(r.Context(), m, pk, h.models())
	if err != nil {
		h.renderError(w, r, err)
		return
	}
	if len(refs) > 0 {
		c.detail = p.Sprintf("snippets.delete.referenced", len(refs))
	}
	data := h.confirmData(r, p, c, h.recordPageData(r, t, c.view, rec, c.title))
	h.render(w, r, t, c.action, "", data, http.StatusOK)
}

func (h *Handler) handleUnpublish(w http.ResponseWriter, r *http.Request, t target) {
	if !allowMethods(w, r, http.MethodGet, http.MethodPost) {
		return
	}
	pk, err := t.pk()
	if err != nil {
		h.renderError(w, r, err)
		return
	}
	m := t.model()
	if !m.DraftState {
		h.renderError(w, r, storage.ErrNotPublishable)
		return
	}
	rec, err := h.store.Get(r.Context(), m, pk)
	if err != nil {
		h.renderError(w, r, err)
		return
	}
	listURL := t.vs.MustReverse(viewset.ViewList)
	if r.Method == http.MethodPost {
		if err := h.store.Unpublish(r.Context(), m, pk); err != nil {
			h.renderError(w, r, err)
			return
		}
		redirect(w, r, h.nextURL(r, listURL))
		return
	}

	p := printer(r)
	c := confirmation{
		view:    viewset.ViewUnpublish,
		action:  "unpublish",
		title:   p.Sprintf("snippets.unpublish.title", m.Title(rec)),
		message: p.Sprintf("snippets.unpublish.confirm", m.Singular()),
		submit:  p.Sprintf("snippets.unpublish.submit"),
		done:    listURL,
	}
	data := h.confirmData(r, p, c, h.recordPageData(r, t, c.view, rec, c.title))
	h.render(w, r, t, c.action, "", data, http.StatusOK)
}

func (h *Handler) handleRevisionsUnschedule(w http.ResponseWriter, r *http.Request, t target) {
	if !allowMethods(w, r, http.MethodGet, http.MethodPost) {
		return
	}
	pk, err := t.pk()
	if err != nil {
		h.renderError(w, r, err)
		return
	}
	revisionID, err := t.intArg(1)
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
	rev, err := h.store.Revision(r.Context(), m, pk, revisionID)
	if err != nil {
		h.renderError(w, r, err)
		return
	}
	if !rev.Scheduled() {
		h.renderError(w, r, storage.ErrNotScheduled)
		return
	}
	historyURL := t.vs.MustReverse(viewset.ViewHistory, strconv.FormatInt(pk, 10))
	if r.Method == http.MethodPost {
		if err := h.store.Unschedule(r.Context(), m, pk, revisionID); err != nil {
			h.renderError(w, r, err)
			return
		}
		redirect(w, r, h.nextURL(r, historyURL))
		return
	}

	p := printer(r)
	c := confirmation{
		view:    viewset.ViewRevisionsUnschedule,
		action:  "revisions_unschedule",
		title:   p.Sprintf("snippets.revisions.unschedule_title", rev.ID),
		message: p.Sprintf("snippets.revisions.unschedule_confirm"),
		detail:  p.Sprintf("snippets.status.scheduled_for", formatTime(rev.ApprovedGoLiveAt)),
		submit:  p.Sprintf("snippets.revisions.unschedule_submit"),
		done:    historyURL,
	}
	data := h.confirmData(r, p, c, h.recordPageData(r, t, c.view, rec, c.title))
	h.render(w, r, t, c.action, "", data, http.StatusOK)
}
