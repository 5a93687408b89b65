// Package snippets parses snippets admin flags and launches the server.
package snippets

import (
	"context"
	"flag"
	"fmt"
	"time"

	entrypoint "github.com/scantist-ossops-m2/wagtail/internal/platform/cmd"
	snippetsserver "github.com/scantist-ossops-m2/wagtail/internal/services/snippets"
)

// Config holds the snippets command configuration.
type Config struct {
	HTTPAddr        string        `env:"SNIPPETS_HTTP_ADDR" envDefault:"localhost:8000"`
	DBPath          string        `env:"SNIPPETS_DB_PATH" envDefault:"data/snippets.db"`
	ViewSetsFile    string        `env:"SNIPPETS_VIEWSETS_FILE"`
	TemplateDir     string        `env:"SNIPPETS_TEMPLATE_DIR"`
	StaticVersion   string        `env:"SNIPPETS_STATIC_VERSION"`
	PublishInterval time.Duration `env:"SNIPPETS_PUBLISH_INTERVAL" envDefault:"1m"`
	Debug           bool          `env:"SNIPPETS_DEBUG"`
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	fs.StringVar(&cfg.HTTPAddr, "http-addr", cfg.HTTPAddr, "HTTP listen address")
	fs.StringVar(&cfg.DBPath, "db-path", cfg.DBPath, "The snippets SQLite database path")
	fs.StringVar(&cfg.ViewSetsFile, "viewsets", cfg.ViewSetsFile, "YAML file overriding viewset options per model")
	fs.StringVar(&cfg.TemplateDir, "template-dir", cfg.TemplateDir, "Directory of template overrides")
	fs.StringVar(&cfg.StaticVersion, "static-version", cfg.StaticVersion, "Version appended to static asset URLs")
	fs.DurationVar(&cfg.PublishInterval, "publish-interval", cfg.PublishInterval, "Scheduled publishing poll interval")
	fs.BoolVar(&cfg.Debug, "debug", cfg.Debug, "Recompile templates on every request")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run starts the snippets admin server.
func Run(ctx context.Context, cfg Config) error {
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceSnippets, func(ctx context.Context) error {
		server, err := snippetsserver.NewServer(snippetsserver.Config{
			HTTPAddr:        cfg.HTTPAddr,
			DBPath:          cfg.DBPath,
			ViewSetsFile:    cfg.ViewSetsFile,
			TemplateDir:     cfg.TemplateDir,
			StaticVersion:   cfg.StaticVersion,
			PublishInterval: cfg.PublishInterval,
			Debug:           cfg.Debug,
		})
		if err != nil {
			return fmt.Errorf("init snippets server: %w", err)
		}
		defer server.Close()

		if err := server.ListenAndServe(ctx); err != nil {
			return fmt.Errorf("serve snippets: %w", err)
		}
		return nil
	})
}
