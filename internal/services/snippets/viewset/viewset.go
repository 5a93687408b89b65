// Package viewset derives URL names and paths for snippet models and keeps
// the registry of configured viewsets.
//
// Every model gets a main viewset (listing, editing, history, ...) and a
// chooser viewset used by chooser widgets. Each has a URL namespace and a
// base path; both are derived from the model label unless overridden as a
// pair.
package viewset

import (
	"fmt"
	"strings"

	apperrors "github.com/scantist-ossops-m2/wagtail/internal/platform/errors"
	"github.com/scantist-ossops-m2/wagtail/internal/services/snippets/filters"
	"github.com/scantist-ossops-m2/wagtail/internal/services/snippets/listing"
	"github.com/scantist-ossops-m2/wagtail/internal/services/snippets/model"
)

const (
	// DefaultAdminPrefix is the mount point of the admin.
	DefaultAdminPrefix = "/admin/"

	DefaultNamePrefix = "wagtailsnippets"
	DefaultURLPrefix  = "snippets"

	ChooserNamePrefix = "wagtailsnippetchoosers"
	ChooserURLPrefix  = "snippets/choose"

	DefaultListPerPage    = 20
	DefaultChooserPerPage = 10

	DefaultIcon = "snippet"
)

// Options configures one model's viewsets. Zero values select defaults.
type Options struct {
	Model model.Model
	Icon  string

	// URLNamespace and URLPrefix must be set together.
	URLNamespace string
	URLPrefix    string

	// ChooserURLNamespace and ChooserURLPrefix must be set together.
	ChooserURLNamespace string
	ChooserURLPrefix    string

	ListPerPage    int
	ChooserPerPage int

	// ListFilter names model fields filtered with the exact lookup.
	ListFilter []string
	// ListFilterLookups names fields with explicit lookups, in order.
	ListFilterLookups []filters.FieldLookups

	ListDisplay []listing.Column
	// ListExport names the fields written by spreadsheet exports. Empty
	// exports the listing columns.
	ListExport []string
	// DefaultOrdering is a "key" or "-key" listing order; "-updated_at"
	// when empty.
	DefaultOrdering string

	// IndexTemplateName and HistoryTemplateName replace the template search
	// path for the listing and history views.
	IndexTemplateName   string
	HistoryTemplateName string

	// WorkflowName is used when submitting workflow models for moderation.
	WorkflowName string
}

// ViewSet is the resolved, immutable configuration of one model.
type ViewSet struct {
	opts     Options
	table    routeTable
	ns       string
	chooser  *ChooserViewSet
	filters  *filters.Set
	columns  []listing.Column
	ordering listing.Ordering
}

// ChooserViewSet is the chooser sub-resource of a model.
type ChooserViewSet struct {
	parent *ViewSet
	table  routeTable
	ns     string
}

// New resolves options into a viewset mounted under DefaultAdminPrefix.
func New(opts Options) (*ViewSet, error) {
	return NewWithAdminPrefix(DefaultAdminPrefix, opts)
}

// NewWithAdminPrefix resolves options for an admin mounted at adminPrefix.
func NewWithAdminPrefix(adminPrefix string, opts Options) (*ViewSet, error) {
	if err := opts.Model.Validate(); err != nil {
		return nil, err
	}
	adminPrefix = "/" + strings.Trim(adminPrefix, "/") + "/"
	if adminPrefix == "//" {
		adminPrefix = "/"
	}

	ns, base, err := resolvePair(opts.Model, opts.URLNamespace, opts.URLPrefix, DefaultNamePrefix, DefaultURLPrefix, "url")
	if err != nil {
		return nil, err
	}
	chooserNS, chooserBase, err := resolvePair(opts.Model, opts.ChooserURLNamespace, opts.ChooserURLPrefix, ChooserNamePrefix, ChooserURLPrefix, "chooser url")
	if err != nil {
		return nil, err
	}

	if opts.Icon == "" {
		opts.Icon = DefaultIcon
	}
	if opts.ListPerPage <= 0 {
		opts.ListPerPage = DefaultListPerPage
	}
	if opts.ChooserPerPage <= 0 {
		opts.ChooserPerPage = DefaultChooserPerPage
	}
	if opts.WorkflowName == "" {
		opts.WorkflowName = "Moderators approval"
	}

	filterSet, err := filters.FromModel(opts.Model, opts.ListFilter, opts.ListFilterLookups)
	if err != nil {
		return nil, fmt.Errorf("%s filters: %w", opts.Model.Label(), err)
	}
	columns, err := listing.Resolve(opts.Model, opts.ListDisplay)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeModelInvalid, "resolve list display", err)
	}
	sortKeys := append(listing.SortKeys(columns), listing.UpdatedKey)
	if opts.DefaultOrdering == "" {
		opts.DefaultOrdering = "-" + listing.UpdatedKey
	}
	defaultOrdering, err := listing.ParseOrdering(opts.DefaultOrdering, sortKeys)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeOrderingInvalid, fmt.Sprintf("%s default ordering", opts.Model.Label()), err)
	}
	for _, name := range opts.ListExport {
		if _, ok := opts.Model.Field(name); !ok {
			return nil, apperrors.New(apperrors.CodeModelInvalid, fmt.Sprintf("%s: unknown export field %q", opts.Model.Label(), name))
		}
	}

	v := &ViewSet{
		opts:     opts,
		ns:       ns,
		table:    routeTable{adminPrefix: adminPrefix, basePath: base, routes: snippetRoutes},
		filters:  filterSet,
		columns:  columns,
		ordering: defaultOrdering,
	}
	v.chooser = &ChooserViewSet{
		parent: v,
		ns:     chooserNS,
		table:  routeTable{adminPrefix: adminPrefix, basePath: chooserBase, routes: chooserRoutes},
	}
	return v, nil
}

// resolvePair derives (namespace, base path) or validates an override pair.
func resolvePair(m model.Model, ns, base, namePrefix, urlPrefix, what string) (string, string, error) {
	ns = strings.TrimSpace(ns)
	base = strings.Trim(strings.TrimSpace(base), "/")
	switch {
	case ns == "" && base == "":
		return fmt.Sprintf("%s_%s_%s", namePrefix, m.AppLabel, m.ModelName),
			fmt.Sprintf("%s/%s/%s", urlPrefix, m.AppLabel, m.ModelName), nil
	case ns != "" && base != "":
		if strings.Contains(ns, ":") {
			return "", "", apperrors.New(apperrors.CodeModelInvalid, fmt.Sprintf("%s: %s namespace %q must not contain ':'", m.Label(), what, ns))
		}
		return ns, base, nil
	default:
		return "", "", apperrors.WithMetadata(apperrors.CodeViewSetIncomplete,
			fmt.Sprintf("%s: %s namespace and prefix must be overridden together", m.Label(), what),
			map[string]string{"model": m.Label()})
	}
}

// Model returns the model served by the viewset.
func (v *ViewSet) Model() model.Model { return v.opts.Model }

// Options returns the resolved options.
func (v *ViewSet) Options() Options { return v.opts }

// Icon returns the model icon.
func (v *ViewSet) Icon() string { return v.opts.Icon }

// Namespace returns the URL namespace.
func (v *ViewSet) Namespace() string { return v.ns }

// BasePath returns the path under the admin prefix, without slashes.
func (v *ViewSet) BasePath() string { return v.table.basePath }

// Root returns the absolute listing path.
func (v *ViewSet) Root() string { return v.table.root() }

// ListPerPage returns the listing page size.
func (v *ViewSet) ListPerPage() int { return v.opts.ListPerPage }

// Filters returns the listing filter set.
func (v *ViewSet) Filters() *filters.Set { return v.filters }

// Columns returns the resolved listing columns.
func (v *ViewSet) Columns() []listing.Column { return v.columns }

// SortKeys returns the accepted ordering keys.
func (v *ViewSet) SortKeys() []string {
	keys := listing.SortKeys(v.columns)
	for _, k := range keys {
		if k == listing.UpdatedKey {
			return keys
		}
	}
	return append(keys, listing.UpdatedKey)
}

// DefaultOrdering returns the listing order used when none is requested.
func (v *ViewSet) DefaultOrdering() listing.Ordering { return v.ordering }

// Chooser returns the chooser sub-resource.
func (v *ViewSet) Chooser() *ChooserViewSet { return v.chooser }

// Views returns the declared logical view names in route order.
func (v *ViewSet) Views() []string {
	return routeNames(v.table.routes)
}

// GetURLName returns "{namespace}:{view}".
func (v *ViewSet) GetURLName(view string) (string, error) {
	if _, ok := v.table.find(view); !ok {
		return "", apperrors.Wrap(apperrors.CodeUnknownView, fmt.Sprintf("%s has no view %q", v.ns, view), ErrUnknownView)
	}
	return v.ns + ":" + view, nil
}

// Reverse builds the absolute path of view with args filling placeholders.
func (v *ViewSet) Reverse(view string, args ...string) (string, error) {
	return v.table.reverse(view, args)
}

// MustReverse is Reverse for views known to exist; it panics otherwise.
func (v *ViewSet) MustReverse(view string, args ...string) string {
	path, err := v.Reverse(view, args...)
	if err != nil {
		panic(err)
	}
	return path
}

// Match resolves an escaped request path to a view and its arguments.
func (v *ViewSet) Match(path string) (string, []string, bool) {
	return v.table.match(path)
}

// HeaderIcon returns the icon shown in the page header of view.
func (v *ViewSet) HeaderIcon(view string) string {
	switch view {
	case ViewHistory:
		return "history"
	case ViewWorkflowHistoryDetail:
		return "list-ul"
	default:
		return v.opts.Icon
	}
}

// Model returns the model served by the chooser.
func (c *ChooserViewSet) Model() model.Model { return c.parent.opts.Model }

// Parent returns the main viewset.
func (c *ChooserViewSet) Parent() *ViewSet { return c.parent }

// Icon returns the chooser icon, shared with the main viewset.
func (c *ChooserViewSet) Icon() string { return c.parent.opts.Icon }

// Namespace returns the chooser URL namespace.
func (c *ChooserViewSet) Namespace() string { return c.ns }

// BasePath returns the chooser path under the admin prefix.
func (c *ChooserViewSet) BasePath() string { return c.table.basePath }

// Root returns the absolute chooser path.
func (c *ChooserViewSet) Root() string { return c.table.root() }

// PerPage returns the chooser page size.
func (c *ChooserViewSet) PerPage() int { return c.parent.opts.ChooserPerPage }

// Views returns the chooser view names.
func (c *ChooserViewSet) Views() []string {
	return routeNames(c.table.routes)
}

// GetURLName returns "{namespace}:{view}".
func (c *ChooserViewSet) GetURLName(view string) (string, error) {
	if _, ok := c.table.find(view); !ok {
		return "", apperrors.Wrap(apperrors.CodeUnknownView, fmt.Sprintf("%s has no view %q", c.ns, view), ErrUnknownView)
	}
	return c.ns + ":" + view, nil
}

// Reverse builds the absolute path of a chooser view.
func (c *ChooserViewSet) Reverse(view string, args ...string) (string, error) {
	return c.table.reverse(view, args)
}

// MustReverse is Reverse for views known to exist.
func (c *ChooserViewSet) MustReverse(view string, args ...string) string {
	path, err := c.Reverse(view, args...)
	if err != nil {
		panic(err)
	}
	return path
}

// Match resolves an escaped request path to a chooser view.
func (c *ChooserViewSet) Match(path string) (string, []string, bool) {
	return c.table.match(path)
}

func routeNames(routes []route) []string {
	out := make([]string, 0, len(routes))
	for _, r := range routes {
		out = append(out, r.name)
	}
	return out
}
