// Package snippets hosts the snippets admin process: the SQLite store, the
// viewset registry, the template engine and the HTTP server serving them.
package snippets

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	sqlitemigrate "github.com/scantist-ossops-m2/wagtail/internal/platform/storage/sqlitemigrate"
	"github.com/scantist-ossops-m2/wagtail/internal/platform/timeouts"
	"github.com/scantist-ossops-m2/wagtail/internal/services/snippets/static"
	"github.com/scantist-ossops-m2/wagtail/internal/services/snippets/storage/sqlite"
	"github.com/scantist-ossops-m2/wagtail/internal/services/snippets/templates"
	"github.com/scantist-ossops-m2/wagtail/internal/services/snippets/testapp"
	"github.com/scantist-ossops-m2/wagtail/internal/services/snippets/transport/httpmux"
	"github.com/scantist-ossops-m2/wagtail/internal/services/snippets/views"
	"github.com/scantist-ossops-m2/wagtail/internal/services/snippets/viewset"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// DefaultPublishInterval is how often scheduled revisions are checked.
const DefaultPublishInterval = time.Minute

// Config defines the inputs of the snippets admin process.
type Config struct {
	HTTPAddr string
	DBPath   string
	// ViewSetsFile optionally overrides viewset options per model.
	ViewSetsFile string
	// TemplateDir holds project template overrides searched before the
	// bundled ones.
	TemplateDir     string
	StaticVersion   string
	PublishInterval time.Duration
	Debug           bool
}

// Server hosts the snippets admin.
type Server struct {
	httpAddr        string
	httpServer      *http.Server
	store           *sqlite.Store
	registry        *viewset.Registry
	publishInterval time.Duration
}

// NewServer opens the store and builds the admin handler.
func NewServer(cfg Config) (*Server, error) {
	httpAddr := strings.TrimSpace(cfg.HTTPAddr)
	if httpAddr == "" {
		return nil, errors.New("http address is required")
	}
	interval := cfg.PublishInterval
	if interval <= 0 {
		interval = DefaultPublishInterval
	}

	overrides, err := viewset.LoadOverridesFile(cfg.ViewSetsFile)
	if err != nil {
		return nil, err
	}
	registry, err := testapp.Registry(viewset.DefaultAdminPrefix, overrides)
	if err != nil {
		return nil, fmt.Errorf("register viewsets: %w", err)
	}
	store, err := openStore(cfg.DBPath)
	if err != nil {
		return nil, err
	}

	engine := templates.New(templates.Options{
		Overrides:     templateOverrides(cfg.TemplateDir),
		StaticVersion: cfg.StaticVersion,
		Debug:         cfg.Debug,
	})
	admin, err := views.New(views.Config{Registry: registry, Store: store, Engine: engine})
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	return &Server{
		httpAddr: httpAddr,
		httpServer: &http.Server{
			Addr:              httpAddr,
			Handler:           NewHandler(admin.Routes()),
			ReadHeaderTimeout: timeouts.ReadHeader,
			IdleTimeout:       timeouts.Idle,
		},
		store:           store,
		registry:        registry,
		publishInterval: interval,
	}, nil
}

// NewHandler mounts the admin handler, static assets and the health probe
// on one instrumented mux.
func NewHandler(admin http.Handler) http.Handler {
	mux := http.NewServeMux()
	httpmux.MountStatic(mux, static.FS(), static.SpriteHandler(), static.WithMime)
	httpmux.MountAdminRoutes(mux, admin)
	httpmux.MountHealth(mux)
	return otelhttp.NewHandler(mux, "snippets-admin")
}

// templateOverrides returns the project template directory followed by the
// example application's templates.
func templateOverrides(dir string) []fs.FS {
	out := []fs.FS{}
	if dir = strings.TrimSpace(dir); dir != "" {
		out = append(out, os.DirFS(dir))
	}
	return append(out, testapp.Templates())
}

// ListenAndServe runs the HTTP server and the scheduled publisher until the
// context ends.
func (s *Server) ListenAndServe(ctx context.Context) error {
	if s == nil {
		return errors.New("snippets server is nil")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	publishCtx, stopPublishing := context.WithCancel(ctx)
	defer stopPublishing()
	go s.runPublishLoop(publishCtx)

	serveErr := make(chan error, 1)
	log.Printf("snippets admin listening on %s", s.httpAddr)
	go func() {
		serveErr <- s.httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeouts.Shutdown)
		err := s.httpServer.Shutdown(shutdownCtx)
		cancel()
		if err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		return nil
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve http: %w", err)
	}
}

func (s *Server) runPublishLoop(ctx context.Context) {
	s.publishScheduled(ctx, time.Now())

	ticker := time.NewTicker(s.publishInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			s.publishScheduled(ctx, now)
		}
	}
}

// publishScheduled makes due revisions of every draft-state model live.
func (s *Server) publishScheduled(ctx context.Context, now time.Time) int {
	total := 0
	for _, vs := range s.registry.ViewSets() {
		m := vs.Model()
		if !m.DraftState {
			continue
		}
		n, err := s.store.PublishScheduled(ctx, m, now)
		if err != nil {
			log.Printf("publish scheduled %s: %v", m.Label(), err)
			continue
		}
		if n > 0 {
			log.Printf("published %d scheduled %s revision(s)", n, m.Label())
		}
		total += n
	}
	return total
}

// Close releases the store.
func (s *Server) Close() {
	if s == nil || s.store == nil {
		return
	}
	if err := s.store.Close(); err != nil {
		log.Printf("close snippets store: %v", err)
	}
}

func openStore(path string) (*sqlite.Store, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("db path is required")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create storage dir: %w", err)
		}
	}
	store, err := sqlite.Open(path, []sqlitemigrate.Source{testapp.Migrations()})
	if err != nil {
		return nil, fmt.Errorf("open snippets sqlite store: %w", err)
	}
	return store, nil
}
