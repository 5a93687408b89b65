// Package views serves the snippets admin pages.
//
// Every registered viewset is resolved from the request path; the matched
// logical view selects a handler from the dispatch tables below. Pages are
// rendered through the template engine and, for HTMX requests, trimmed to
// their main content.
package views

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/flosch/pongo2/v6"
	apperrors "github.com/scantist-ossops-m2/wagtail/internal/platform/errors"
	"github.com/scantist-ossops-m2/wagtail/internal/platform/requestctx"
	"github.com/scantist-ossops-m2/wagtail/internal/services/shared/htmx"
	"github.com/scantist-ossops-m2/wagtail/internal/services/shared/i18nhttp"
	sharedroute "github.com/scantist-ossops-m2/wagtail/internal/services/shared/route"
	sharedtemplates "github.com/scantist-ossops-m2/wagtail/internal/services/shared/templates"
	"github.com/scantist-ossops-m2/wagtail/internal/services/snippets/model"
	"github.com/scantist-ossops-m2/wagtail/internal/services/snippets/storage"
	"github.com/scantist-ossops-m2/wagtail/internal/services/snippets/templates"
	"github.com/scantist-ossops-m2/wagtail/internal/services/snippets/viewset"
	"golang.org/x/text/message"
)

// Config wires the admin views to their collaborators.
type Config struct {
	Registry *viewset.Registry
	Store    storage.Store
	Engine   *templates.Engine
	// Now defaults to time.Now.
	Now func() time.Time
}

// Handler routes snippet admin requests.
type Handler struct {
	registry *viewset.Registry
	store    storage.Store
	engine   *templates.Engine
	now      func() time.Time
}

// target is a resolved request: the viewset and the route arguments.
type target struct {
	vs   *viewset.ViewSet
	args []string
}

func (t target) model() model.Model { return t.vs.Model() }

// pk parses the first route argument.
func (t target) pk() (int64, error) {
	return t.intArg(0)
}

func (t target) intArg(i int) (int64, error) {
	if i >= len(t.args) {
		return 0, apperrors.New(apperrors.CodeRouteArgs, "missing route argument")
	}
	value, err := strconv.ParseInt(t.args[i], 10, 64)
	if err != nil || value <= 0 {
		return 0, apperrors.WithMetadata(apperrors.CodeNotFound,
			fmt.Sprintf("invalid identifier %q", t.args[i]), map[string]string{"arg": t.args[i]})
	}
	return value, nil
}

type viewFunc func(h *Handler, w http.ResponseWriter, r *http.Request, t target)

var snippetViews = map[string]viewFunc{
	viewset.ViewList:                  (*Handler).handleList,
	viewset.ViewListResults:           (*Handler).handleListResults,
	viewset.ViewAdd:                   (*Handler).handleAdd,
	viewset.ViewEdit:                  (*Handler).handleEdit,
	viewset.ViewDelete:                (*Handler).handleDelete,
	viewset.ViewUsage:                 (*Handler).handleUsage,
	viewset.ViewHistory:               (*Handler).handleHistory,
	viewset.ViewUnpublish:             (*Handler).handleUnpublish,
	viewset.ViewRevisionsRevert:       (*Handler).handleRevisionsRevert,
	viewset.ViewRevisionsCompare:      (*Handler).handleRevisionsCompare,
	viewset.ViewRevisionsUnschedule:   (*Handler).handleRevisionsUnschedule,
	viewset.ViewWorkflowHistory:       (*Handler).handleWorkflowHistory,
	viewset.ViewWorkflowHistoryDetail: (*Handler).handleWorkflowHistoryDetail,
}

var chooserViews = map[string]viewFunc{
	viewset.ViewChoose:        (*Handler).handleChoose,
	viewset.ViewChooseResults: (*Handler).handleChooseResults,
	viewset.ViewChosen:        (*Handler).handleChosen,
}

// New builds the admin handler.
func New(cfg Config) (*Handler, error) {
	if cfg.Registry == nil {
		return nil, errors.New("viewset registry is required")
	}
	if cfg.Store == nil {
		return nil, errors.New("store is required")
	}
	if cfg.Engine == nil {
		return nil, errors.New("template engine is required")
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Handler{registry: cfg.Registry, store: cfg.Store, engine: cfg.Engine, now: now}, nil
}

// Routes returns the admin handler with language resolution applied.
func (h *Handler) Routes() http.Handler {
	return i18nhttp.Middleware(http.HandlerFunc(h.serve))
}

func (h *Handler) serve(w http.ResponseWriter, r *http.Request) {
	path := r.URL.EscapedPath()
	if path == h.registry.IndexURL() {
		h.handleIndex(w, r)
		return
	}
	res, ok := h.registry.Resolve(path)
	if !ok {
		if sharedroute.RedirectAppendSlash(w, r, h.resolves) {
			return
		}
		h.renderError(w, r, apperrors.Wrap(apperrors.CodeUnknownView, fmt.Sprintf("no view at %s", path), viewset.ErrUnknownView))
		return
	}
	views := snippetViews
	if res.Chooser {
		views = chooserViews
	}
	view, ok := views[res.View]
	if !ok {
		h.renderError(w, r, apperrors.Wrap(apperrors.CodeUnknownView, res.View, viewset.ErrUnknownView))
		return
	}
	view(h, w, r, target{vs: res.ViewSet, args: res.Args})
}

func (h *Handler) resolves(path string) bool {
	if path == h.registry.IndexURL() {
		return true
	}
	_, ok := h.registry.Resolve(path)
	return ok
}

// printer returns the message printer of the request locale.
func printer(r *http.Request) *message.Printer {
	return message.NewPrinter(requestctx.LocaleFromContext(r.Context()))
}

// pageData is the context shared by every full page.
func (h *Handler) pageData(r *http.Request, title string, crumbs ...sharedtemplates.BreadcrumbItem) pongo2.Context {
	p := printer(r)
	all := append([]sharedtemplates.BreadcrumbItem{{Label: p.Sprintf("snippets.index.title"), URL: h.registry.IndexURL()}}, crumbs...)
	return pongo2.Context{
		"lang":        requestctx.LocaleFromContext(r.Context()).String(),
		"title":       title,
		"page_title":  sharedtemplates.ComposePageTitle(title),
		"breadcrumbs": sharedtemplates.Trail(all...),
		"media":       []string{},
	}
}

// viewSetData adds the model and header context of a viewset page.
func (h *Handler) viewSetData(r *http.Request, t target, view, title string, crumbs ...sharedtemplates.BreadcrumbItem) pongo2.Context {
	m := t.model()
	base := []sharedtemplates.BreadcrumbItem{{Label: capitalize(m.Plural()), URL: t.vs.MustReverse(viewset.ViewList)}}
	data := h.pageData(r, title, append(base, crumbs...)...)
	data["model_name"] = m.ModelName
	data["model_label"] = m.Label()
	data["header_icon"] = t.vs.HeaderIcon(view)
	data["model_verbose_name"] = m.Singular()
	data["model_verbose_name_plural"] = m.Plural()
	return data
}

// render resolves the template of action and writes the page.
func (h *Handler) render(w http.ResponseWriter, r *http.Request, t target, action, explicit string, data pongo2.Context, status int) {
	name, err := h.engine.ResolveFor(t.model(), action, explicit, "")
	if err != nil {
		h.renderError(w, r, err)
		return
	}
	h.renderTemplate(w, r, name, "", data, status)
}

// renderTemplate writes a page. fragment, when set, answers HTMX requests
// instead of the main content of the full page.
func (h *Handler) renderTemplate(w http.ResponseWriter, r *http.Request, name, fragment string, data pongo2.Context, status int) {
	title, _ := data["title"].(string)
	page := htmx.Page{
		Full:   h.engine.Component(name, data),
		Title:  sharedtemplates.ComposePageTitle(title),
		Status: status,
	}
	if fragment != "" {
		page.Fragment = h.engine.Component(fragment, data)
	}
	if err := htmx.RenderPage(r.Context(), w, r, page); err != nil {
		log.Printf("render %s: %v", name, err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

// renderError writes err as an error page with its mapped status.
func (h *Handler) renderError(w http.ResponseWriter, r *http.Request, err error) {
	status := apperrors.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		log.Printf("%s %s: %v", r.Method, r.URL.Path, err)
	}
	p := printer(r)
	key := "errors." + string(apperrors.CodeOf(err))
	msg := p.Sprintf(key)
	if msg == key {
		msg = p.Sprintf("errors." + string(apperrors.CodeUnknown))
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(status)
	_, _ = fmt.Fprintln(w, msg)
}

// redirect answers a successful POST. HTMX requests are told to navigate.
func redirect(w http.ResponseWriter, r *http.Request, to string) {
	if htmx.IsHTMXRequest(r) {
		w.Header().Set("HX-Redirect", to)
		w.WriteHeader(http.StatusOK)
		return
	}
	http.Redirect(w, r, to, http.StatusFound)
}

// nextURL returns the submitted "next" path when it stays inside the admin.
func (h *Handler) nextURL(r *http.Request, fallback string) string {
	next := r.FormValue("next")
	if len(next) > 1 && next[0] == '/' && next[1] != '/' && next[1] != '\\' {
		return next
	}
	return fallback
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	runes := []rune(s)
	if runes[0] >= 'a' && runes[0] <= 'z' {
		runes[0] -= 'a' - 'A'
	}
	return string(runes)
}

func allowMethods(w http.ResponseWriter, r *http.Request, methods ...string) bool {
	for _, m := range methods {
		if r.Method == m {
			return true
		}
	}
	if r.Method == http.MethodHead {
		for _, m := range methods {
			if m == http.MethodGet {
				return true
			}
		}
	}
	w.Header().Set("Allow", strings.Join(methods, ", "))
	http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
	return false
}
