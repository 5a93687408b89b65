// Package templates renders snippet admin pages with pongo2.
//
// Templates are looked up by root-relative name across an ordered list of
// filesystems: application overrides first, the embedded core templates
// last. The first filesystem holding a name wins, which is how applications
// replace a view template without touching the core set.
package templates

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"path"
	"strings"

	"github.com/a-h/templ"
	"github.com/flosch/pongo2/v6"
	"github.com/scantist-ossops-m2/wagtail/internal/platform/icons"
)

//go:embed all:files
var embedded embed.FS

// Core returns the embedded core template filesystem.
func Core() fs.FS {
	sub, err := fs.Sub(embedded, "files")
	if err != nil {
		panic(err)
	}
	return sub
}

// StaticPrefix is the URL prefix of static assets.
const StaticPrefix = "/static/"

// ErrNotFound is returned when no candidate of a search path exists.
var ErrNotFound = errors.New("template not found")

func init() {
	if !pongo2.FilterExists("icon") {
		if err := pongo2.RegisterFilter("icon", filterIcon); err != nil {
			panic(err)
		}
	}
}

// filterIcon renders {{ name|icon }} or {{ name|icon:"extra classes" }}.
func filterIcon(in *pongo2.Value, param *pongo2.Value) (*pongo2.Value, *pongo2.Error) {
	var classes []string
	if param != nil && !param.IsNil() {
		classes = strings.Fields(param.String())
	}
	return pongo2.AsSafeValue(icons.SVG(StaticPrefix, in.String(), classes...)), nil
}

// rootLoader reads names relative to the root of one filesystem. Relative
// includes are resolved from the root as well, never from the including
// template.
type rootLoader struct {
	fsys fs.FS
}

func (l rootLoader) Abs(_ string, name string) string {
	return path.Clean(strings.TrimPrefix(name, "/"))
}

func (l rootLoader) Get(name string) (io.Reader, error) {
	data, err := fs.ReadFile(l.fsys, name)
	if err != nil {
		return nil, err
	}
	return bytes.NewReader(data), nil
}

// Options configures an Engine.
type Options struct {
	// Overrides are searched before the core templates, in order.
	Overrides []fs.FS
	// StaticVersion is appended to media URLs as ?v=.
	StaticVersion string
	// Debug recompiles templates on every render.
	Debug bool
}

// Engine resolves and renders templates.
type Engine struct {
	sources []fs.FS
	set     *pongo2.TemplateSet
	version string
}

// New builds an engine over the overrides and the core templates.
func New(opts Options) *Engine {
	sources := make([]fs.FS, 0, len(opts.Overrides)+1)
	for _, fsys := range opts.Overrides {
		if fsys != nil {
			sources = append(sources, fsys)
		}
	}
	sources = append(sources, Core())

	loaders := make([]pongo2.TemplateLoader, 0, len(sources))
	for _, fsys := range sources {
		loaders = append(loaders, rootLoader{fsys: fsys})
	}
	set := pongo2.NewSet("snippets", loaders...)
	set.Debug = opts.Debug
	set.Globals["static_prefix"] = StaticPrefix
	set.Globals["static_version"] = opts.StaticVersion

	return &Engine{sources: sources, set: set, version: opts.StaticVersion}
}

// Exists reports whether any source holds name.
func (e *Engine) Exists(name string) bool {
	name = path.Clean(strings.TrimPrefix(name, "/"))
	for _, fsys := range e.sources {
		if info, err := fs.Stat(fsys, name); err == nil && !info.IsDir() {
			return true
		}
	}
	return false
}

// Resolve returns the first existing candidate.
func (e *Engine) Resolve(candidates ...string) (string, error) {
	for _, name := range candidates {
		if name != "" && e.Exists(name) {
			return name, nil
		}
	}
	return "", fmt.Errorf("%w: tried %s", ErrNotFound, strings.Join(candidates, ", "))
}

// StaticURL returns the versioned URL of a static asset.
func (e *Engine) StaticURL(asset string) string {
	u := StaticPrefix + strings.TrimPrefix(asset, "/")
	if e.version != "" {
		u += "?v=" + e.version
	}
	return u
}

// Render executes the named template into w.
func (e *Engine) Render(w io.Writer, name string, data pongo2.Context) error {
	tpl, err := e.set.FromCache(name)
	if err != nil {
		return fmt.Errorf("load template %s: %w", name, err)
	}
	if err := tpl.ExecuteWriter(data, w); err != nil {
		return fmt.Errorf("render template %s: %w", name, err)
	}
	return nil
}

// RenderString executes the named template and returns the output.
func (e *Engine) RenderString(name string, data pongo2.Context) (string, error) {
	var buf bytes.Buffer
	if err := e.Render(&buf, name, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// Component adapts a template render to templ.Component so pages can be
// served through the shared partial-page helpers.
func (e *Engine) Component(name string, data pongo2.Context) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		return e.Render(w, name, data)
	})
}
