package views

import (
	"fmt"
	"html"
	"net/http"
	"strconv"
	"strings"

	"github.com/flosch/pongo2/v6"
	apperrors "github.com/scantist-ossops-m2/wagtail/internal/platform/errors"
	"github.com/scantist-ossops-m2/wagtail/internal/platform/requestctx"
	sharedtemplates "github.com/scantist-ossops-m2/wagtail/internal/services/shared/templates"
	"github.com/scantist-ossops-m2/wagtail/internal/services/snippets/listing"
	"github.com/scantist-ossops-m2/wagtail/internal/services/snippets/model"
	"github.com/scantist-ossops-m2/wagtail/internal/services/snippets/storage"
	"github.com/scantist-ossops-m2/wagtail/internal/services/snippets/templates"
	"github.com/scantist-ossops-m2/wagtail/internal/services/snippets/viewset"
	"github.com/scantist-ossops-m2/wagtail/internal/services/snippets/widgets"
	"golang.org/x/text/message"
)

// Form submit actions.
const (
	actionSave    = "save"
	actionPublish = "publish"
	actionSubmit  = "submit"
)

// goLiveField is the scheduling input of draft-state forms.
const goLiveField = "go_live_at"

// formField is one rendered form row.
type formField struct {
	Name      string
	Label     string
	Required  bool
	InputHTML string
	Error     string
}

type formAction struct {
	Value   string
	Label   string
	Primary bool
}

// formState is the submitted or stored content of a form.
type formState struct {
	encoded map[string]string
	errs    model.FieldErrors
}

func (h *Handler) handleAdd(w http.ResponseWriter, r *http.Request, t target) {
	if !allowMethods(w, r, http.MethodGet, http.MethodPost) {
		return
	}
	m := t.model()
	p := printer(r)
	if r.Method == http.MethodPost {
		values, opts, state, ok := h.parseSubmission(r, m)
		if ok {
			rec, err := h.store.Create(r.Context(), m, values, opts)
			if err == nil {
				if err := h.afterSave(r, t, rec.PK); err != nil {
					h.renderError(w, r, err)
					return
				}
				redirect(w, r, t.vs.MustReverse(viewset.ViewList))
				return
			}
			if apperrors.CodeOf(err) != apperrors.CodeFormInvalid {
				h.renderError(w, r, err)
				return
			}
		}
		h.renderForm(w, r, t, "create", formPage{
			title:     p.Sprintf("snippets.create.title", m.Singular()),
			actionURL: t.vs.MustReverse(viewset.ViewAdd),
			state:     state,
			failed:    true,
		})
		return
	}
	h.renderForm(w, r, t, "create", formPage{
		title:     p.Sprintf("snippets.create.title", m.Singular()),
		actionURL: t.vs.MustReverse(viewset.ViewAdd),
		state:     formState{encoded: map[string]string{}},
	})
}

func (h *Handler) handleEdit(w http.ResponseWriter, r *http.Request, t target) {
	if !allowMethods(w, r, http.MethodGet, http.MethodPost) {
		return
	}
	h.editRecord(w, r, t, "edit", 0)
}

func (h *Handler) handleRevisionsRevert(w http.ResponseWriter, r *http.Request, t target) {
	if !allowMethods(w, r, http.MethodGet, http.MethodPost) {
		return
	}
	revisionID, err := t.intArg(1)
	if err != nil {
		h.renderError(w, r, err)
		return
	}
	h.editRecord(w, r, t, "revisions_revert", revisionID)
}

// editRecord serves the edit form of an existing record. A non-zero
// revisionID pre-fills the form from that revision.
func (h *Handler) editRecord(w http.ResponseWriter, r *http.Request, t target, action string, revisionID int64) {
	pk, err := t.pk()
	if err != nil {
		h.renderError(w, r, err)
		return
	}
	m := t.model()
	p := printer(r)
	rec, err := h.store.Get(r.Context(), m, pk)
	if err != nil {
		h.renderError(w, r, err)
		return
	}
	id := strconv.FormatInt(pk, 10)
	page := formPage{
		title:     p.Sprintf("snippets.edit.title", m.Title(rec)),
		actionURL: t.vs.MustReverse(viewset.ViewEdit, id),
		record:    rec,
		state:     formState{encoded: m.EncodeForm(rec.Values)},
	}
	if revisionID > 0 {
		rev, err := h.store.Revision(r.Context(), m, pk, revisionID)
		if err != nil {
			h.renderError(w, r, err)
			return
		}
		page.title = p.Sprintf("snippets.revisions.revert_title", rev.ID, m.Title(rec))
		page.actionURL = t.vs.MustReverse(viewset.ViewRevisionsRevert, id, strconv.FormatInt(rev.ID, 10))
		page.notice = p.Sprintf("snippets.messages.reverting", m.Singular(), formatTime(rev.CreatedAt))
		page.state.encoded = rev.Content
		page.crumbs = []sharedtemplates.BreadcrumbItem{{Label: m.Title(rec), URL: t.vs.MustReverse(viewset.ViewEdit, id)}}
	}

	if r.Method == http.MethodPost {
		values, opts, state, ok := h.parseSubmission(r, m)
		if ok {
			if _, err := h.store.Update(r.Context(), m, pk, values, opts); err != nil {
				if apperrors.CodeOf(err) != apperrors.CodeFormInvalid {
					h.renderError(w, r, err)
					return
				}
			} else {
				if err := h.afterSave(r, t, pk); err != nil {
					h.renderError(w, r, err)
					return
				}
				redirect(w, r, h.nextURL(r, t.vs.MustReverse(viewset.ViewList)))
				return
			}
		}
		page.state = state
		page.failed = true
	}
	h.renderForm(w, r, t, action, page)
}

// parseSubmission reads a posted form. ok is false when validation failed;
// state then carries the submitted values and their errors.
func (h *Handler) parseSubmission(r *http.Request, m model.Model) (map[string]any, storage.SaveOptions, formState, bool) {
	if err := r.ParseForm(); err != nil {
		return nil, storage.SaveOptions{}, formState{encoded: map[string]string{}, errs: model.FieldErrors{}}, false
	}
	values, errs := m.ParseForm(r.PostForm)
	state := formState{encoded: map[string]string{}, errs: errs}
	for _, f := range m.Fields {
		state.encoded[f.Name] = r.PostForm.Get(f.Name)
	}
	opts := storage.SaveOptions{
		Publish: m.DraftState && r.PostForm.Get("action") == actionPublish,
		UserID:  requestctx.OperatorFromContext(r.Context()),
	}
	if m.DraftState {
		raw := strings.TrimSpace(r.PostForm.Get(goLiveField))
		state.encoded[goLiveField] = raw
		if raw != "" {
			at, err := model.ParseDateTime(raw)
			switch {
			case err != nil:
				state.errs = addFieldError(state.errs, goLiveField, model.MsgInvalidDateTime)
			case opts.Publish && !at.After(h.now()):
				state.errs = addFieldError(state.errs, goLiveField, "snippets.form.go_live_in_past")
			default:
				opts.GoLiveAt = at
			}
		}
	}
	return values, opts, state, len(state.errs) == 0
}

func addFieldError(errs model.FieldErrors, name, key string) model.FieldErrors {
	if errs == nil {
		errs = model.FieldErrors{}
	}
	errs[name] = key
	return errs
}

// afterSave starts moderation when the form was submitted for review.
func (h *Handler) afterSave(r *http.Request, t target, pk int64) error {
	m := t.model()
	if !m.Workflow || r.PostForm.Get("action") != actionSubmit {
		return nil
	}
	_, err := h.store.StartWorkflow(r.Context(), m, pk, t.vs.Options().WorkflowName, requestctx.OperatorFromContext(r.Context()))
	return err
}

// formPage describes one rendering of the create or edit form.
type formPage struct {
	title     string
	actionURL string
	notice    string
	record    model.Record
	state     formState
	failed    bool
	crumbs    []sharedtemplates.BreadcrumbItem
}

func (h *Handler) renderForm(w http.ResponseWriter, r *http.Request, t target, action string, page formPage) {
	m := t.model()
	p := printer(r)
	fields, err := h.formFields(r, p, m, page.state)
	if err != nil {
		h.renderError(w, r, err)
		return
	}
	view := viewset.ViewEdit
	if action == "create" {
		view = viewset.ViewAdd
	}
	data := h.viewSetData(r, t, view, page.title, append(page.crumbs, sharedtemplates.BreadcrumbItem{Label: page.title})...)
	data["action_url"] = page.actionURL
	data["notice"] = page.notice
	data["form_fields"] = fields
	data["form_actions"] = h.formActions(p, t)
	status := http.StatusOK
	if page.failed {
		data["form_error"] = p.Sprintf("errors." + string(apperrors.CodeFormInvalid))
		status = http.StatusBadRequest
	}
	if page.record.PK > 0 {
		data["footer_links"] = recordLinks(p, t, page.record)
		if m.DraftState {
			data["status"] = recordStatus(p, page.record)
		}
	}
	h.render(w, r, t, action, "", data, status)
}

// formFields renders the inputs of every editable field.
func (h *Handler) formFields(r *http.Request, p *message.Printer, m model.Model, state formState) ([]formField, error) {
	out := make([]formField, 0, len(m.Fields)+1)
	for _, f := range m.Fields {
		field := formField{Name: f.Name, Label: fieldLabel(f), Required: f.Required}
		if key, ok := state.errs[f.Name]; ok {
			field.Error = p.Sprintf(key)
		}
		value := state.encoded[f.Name]
		if f.Type == model.FieldForeignKey {
			input, err := h.chooserInput(r, p, m, f, value)
			if err != nil {
				return nil, err
			}
			field.InputHTML = input
		} else {
			field.InputHTML = inputHTML(p, f, value)
		}
		out = append(out, field)
	}
	if m.DraftState {
		field := formField{
			Name:      goLiveField,
			Label:     p.Sprintf("snippets.form.go_live_at"),
			InputHTML: inputHTML(p, model.Field{Name: goLiveField, Type: model.FieldDateTime}, state.encoded[goLiveField]),
		}
		if key, ok := state.errs[goLiveField]; ok {
			field.Error = p.Sprintf(key)
		}
		out = append(out, field)
	}
	return out, nil
}

// chooserInput renders a foreign key as a snippet chooser. Unregistered
// targets fall back to a plain id input.
func (h *Handler) chooserInput(r *http.Request, p *message.Printer, m model.Model, f model.Field, value string) (string, error) {
	rec := model.Record{Values: map[string]any{}}
	if pk, err := strconv.ParseInt(value, 10, 64); err == nil && pk > 0 {
		rec.Values[f.Name] = pk
	}
	bound, err := widgets.ChooserPanel{FieldName: f.Name}.Bind(r.Context(), m, rec, h.registry, h.store, templates.StaticPrefix)
	if err != nil {
		if apperrors.CodeOf(err) == apperrors.CodeModelInvalid {
			return fmt.Sprintf(`<input type="number" name="%[1]s" id="id_%[1]s" value="%[2]s">`,
				html.EscapeString(f.Name), html.EscapeString(value)), nil
		}
		return "", err
	}
	return bound.RenderInput(p), nil
}

func inputHTML(p *message.Printer, f model.Field, value string) string {
	name := html.EscapeString(f.Name)
	switch f.Type {
	case model.FieldTextArea:
		return fmt.Sprintf(`<textarea name="%[1]s" id="id_%[1]s" rows="5">%[2]s</textarea>`, name, html.EscapeString(value))
	case model.FieldURL:
		return fmt.Sprintf(`<input type="url" name="%[1]s" id="id_%[1]s" value="%[2]s">`, name, html.EscapeString(value))
	case model.FieldBool:
		checked := ""
		if value != "" {
			checked = " checked"
		}
		return fmt.Sprintf(`<input type="checkbox" name="%[1]s" id="id_%[1]s"%[2]s>`, name, checked)
	case model.FieldDateTime:
		if at, err := model.ParseDateTime(value); err == nil && value != "" {
			value = at.Format(model.FormTimeLayout)
		}
		return fmt.Sprintf(`<input type="datetime-local" name="%[1]s" id="id_%[1]s" value="%[2]s">`, name, html.EscapeString(value))
	case model.FieldChoice:
		var b strings.Builder
		fmt.Fprintf(&b, `<select name="%[1]s" id="id_%[1]s"><option value="">%[2]s</option>`, name, html.EscapeString(p.Sprintf("snippets.form.choose_placeholder")))
		for _, choice := range f.Choices {
			selected := ""
			if choice.Value == value {
				selected = " selected"
			}
			fmt.Fprintf(&b, `<option value="%s"%s>%s</option>`, html.EscapeString(choice.Value), selected, html.EscapeString(choice.Label))
		}
		b.WriteString(`</select>`)
		return b.String()
	default:
		return fmt.Sprintf(`<input type="text" name="%[1]s" id="id_%[1]s" value="%[2]s">`, name, html.EscapeString(value))
	}
}

func fieldLabel(f model.Field) string {
	if f.Label != "" {
		return f.Label
	}
	return capitalize(strings.ReplaceAll(f.Name, "_", " "))
}

func (h *Handler) formActions(p *message.Printer, t target) []formAction {
	m := t.model()
	if !m.DraftState {
		return []formAction{{Value: actionSave, Label: p.Sprintf("core.actions.save"), Primary: true}}
	}
	actions := []formAction{
		{Value: actionSave, Label: p.Sprintf("snippets.actions.save_draft")},
		{Value: actionPublish, Label: p.Sprintf("snippets.actions.publish"), Primary: true},
	}
	if m.Workflow {
		actions = append(actions, formAction{Value: actionSubmit, Label: p.Sprintf("snippets.workflow.submit", t.vs.Options().WorkflowName)})
	}
	return actions
}

// recordLinks are the secondary actions of an existing record.
func recordLinks(p *message.Printer, t target, rec model.Record) []link {
	m := t.model()
	id := strconv.FormatInt(rec.PK, 10)
	links := []link{{URL: t.vs.MustReverse(viewset.ViewDelete, id), Label: p.Sprintf("core.actions.delete")}}
	if m.DraftState && rec.Live() {
		links = append(links, link{URL: t.vs.MustReverse(viewset.ViewUnpublish, id), Label: p.Sprintf("snippets.actions.unpublish")})
	}
	links = append(links,
		link{URL: t.vs.MustReverse(viewset.ViewHistory, id), Label: p.Sprintf("snippets.actions.history")},
		link{URL: t.vs.MustReverse(viewset.ViewUsage, id), Label: p.Sprintf("snippets.actions.usage")},
	)
	if m.Workflow {
		links = append(links, link{URL: t.vs.MustReverse(viewset.ViewWorkflowHistory, id), Label: p.Sprintf("snippets.labels.workflow")})
	}
	return links
}

func recordStatus(p *message.Printer, rec model.Record) string {
	if rec.Live() && rec.Bool("has_unpublished_changes") {
		return p.Sprintf("snippets.status.live_with_draft")
	}
	return listing.StatusText(p, rec)
}

// recordPageData is shared by the confirmation pages of one record.
func (h *Handler) recordPageData(r *http.Request, t target, view string, rec model.Record, title string) pongo2.Context {
	m := t.model()
	id := strconv.FormatInt(rec.PK, 10)
	return h.viewSetData(r, t, view, title,
		sharedtemplates.BreadcrumbItem{Label: m.Title(rec), URL: t.vs.MustReverse(viewset.ViewEdit, id)},
		sharedtemplates.BreadcrumbItem{Label: title},
	)
}
