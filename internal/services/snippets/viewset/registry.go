package viewset

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	apperrors "github.com/scantist-ossops-m2/wagtail/internal/platform/errors"
)

// IndexPath is the snippets index path under the admin prefix.
const IndexPath = "snippets"

// Registry holds the viewsets of every registered model. It is built at
// start-up and read-only afterwards.
type Registry struct {
	adminPrefix string
	ordered     []*ViewSet
	byLabel     map[string]*ViewSet
	namespaces  map[string]reverser
	basePaths   map[string]string
}

type reverser interface {
	Reverse(view string, args ...string) (string, error)
}

// Resolution is a request path matched to a view.
type Resolution struct {
	ViewSet *ViewSet
	// Chooser is set when the path belongs to the chooser sub-resource.
	Chooser bool
	View    string
	Args    []string
}

// NewRegistry creates an empty registry for an admin mounted at adminPrefix.
func NewRegistry(adminPrefix string) *Registry {
	if adminPrefix == "" {
		adminPrefix = DefaultAdminPrefix
	}
	return &Registry{
		adminPrefix: "/" + strings.Trim(adminPrefix, "/") + "/",
		byLabel:     map[string]*ViewSet{},
		namespaces:  map[string]reverser{},
		basePaths:   map[string]string{IndexPath: "snippets index"},
	}
}

// AdminPrefix returns the admin mount point with surrounding slashes.
func (r *Registry) AdminPrefix() string { return r.adminPrefix }

// IndexURL returns the absolute path of the snippets index.
func (r *Registry) IndexURL() string { return r.adminPrefix + IndexPath + "/" }

// Register resolves opts and adds the viewset. Models, namespaces and base
// paths must be unique across the registry.
func (r *Registry) Register(opts Options) (*ViewSet, error) {
	v, err := NewWithAdminPrefix(r.adminPrefix, opts)
	if err != nil {
		return nil, err
	}
	label := v.Model().Label()
	if _, ok := r.byLabel[label]; ok {
		return nil, conflict(label, fmt.Sprintf("model %s is already registered", label))
	}
	for _, ns := range []string{v.Namespace(), v.Chooser().Namespace()} {
		if _, ok := r.namespaces[ns]; ok {
			return nil, conflict(label, fmt.Sprintf("%s: URL namespace %q is already registered", label, ns))
		}
	}
	if v.Namespace() == v.Chooser().Namespace() {
		return nil, conflict(label, fmt.Sprintf("%s: chooser namespace equals viewset namespace %q", label, v.Namespace()))
	}
	for _, base := range []string{v.BasePath(), v.Chooser().BasePath()} {
		if owner, ok := r.basePaths[base]; ok {
			return nil, conflict(label, fmt.Sprintf("%s: base path %q is already used by %s", label, base, owner))
		}
	}
	if v.BasePath() == v.Chooser().BasePath() {
		return nil, conflict(label, fmt.Sprintf("%s: chooser base path equals viewset base path %q", label, v.BasePath()))
	}

	r.byLabel[label] = v
	r.namespaces[v.Namespace()] = v
	r.namespaces[v.Chooser().Namespace()] = v.Chooser()
	r.basePaths[v.BasePath()] = label
	r.basePaths[v.Chooser().BasePath()] = label + " chooser"
	r.ordered = append(r.ordered, v)
	return v, nil
}

// MustRegister is Register for static configuration; it panics on error.
func (r *Registry) MustRegister(opts Options) *ViewSet {
	v, err := r.Register(opts)
	if err != nil {
		panic(err)
	}
	return v
}

func conflict(label, msg string) error {
	return apperrors.WithMetadata(apperrors.CodeViewSetConflict, msg, map[string]string{"model": label})
}

// ViewSets returns registered viewsets sorted by plural verbose name.
func (r *Registry) ViewSets() []*ViewSet {
	out := append([]*ViewSet(nil), r.ordered...)
	sort.SliceStable(out, func(i, j int) bool {
		return strings.ToLower(out[i].Model().Plural()) < strings.ToLower(out[j].Model().Plural())
	})
	return out
}

// ForModel returns the viewset of a model label ("app_label.model_name").
func (r *Registry) ForModel(label string) (*ViewSet, bool) {
	v, ok := r.byLabel[strings.ToLower(label)]
	return v, ok
}

// Reverse resolves a "namespace:view" URL name.
func (r *Registry) Reverse(name string, args ...string) (string, error) {
	ns, view, ok := strings.Cut(name, ":")
	if !ok {
		return "", apperrors.New(apperrors.CodeUnknownView, fmt.Sprintf("URL name %q has no namespace", name))
	}
	target, ok := r.namespaces[ns]
	if !ok {
		return "", apperrors.Wrap(apperrors.CodeUnknownView, fmt.Sprintf("unknown URL namespace %q", ns), ErrUnknownView)
	}
	return target.Reverse(view, args...)
}

// Resolve matches an escaped request path against every viewset. Longer
// base paths are tried first so nested prefixes resolve to the most
// specific viewset.
func (r *Registry) Resolve(path string) (Resolution, bool) {
	type candidate struct {
		base    string
		vs      *ViewSet
		chooser bool
	}
	candidates := make([]candidate, 0, 2*len(r.ordered))
	for _, v := range r.ordered {
		candidates = append(candidates, candidate{base: v.BasePath(), vs: v}, candidate{base: v.Chooser().BasePath(), vs: v, chooser: true})
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return len(candidates[i].base) > len(candidates[j].base)
	})
	for _, c := range candidates {
		var (
			view string
			args []string
			ok   bool
		)
		if c.chooser {
			view, args, ok = c.vs.Chooser().Match(path)
		} else {
			view, args, ok = c.vs.Match(path)
		}
		if ok {
			return Resolution{ViewSet: c.vs, Chooser: c.chooser, View: view, Args: args}, true
		}
	}
	return Resolution{}, false
}

// EditURL finds the admin edit URL of an instance.
func (r *Registry) EditURL(label string, pk int64) (string, bool) {
	v, ok := r.ForModel(label)
	if !ok {
		return "", false
	}
	path, err := v.Reverse(ViewEdit, strconv.FormatInt(pk, 10))
	if err != nil {
		return "", false
	}
	return path, true
}
