package snippets

import (
	"flag"
	"io"
	"testing"
	"time"
)

func TestParseConfigDefaults(t *testing.T) {
	fs := flag.NewFlagSet("snippets", flag.ContinueOnError)

	cfg, err := ParseConfig(fs, nil)
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.HTTPAddr != "localhost:8000" {
		t.Fatalf("http addr = %q, want %q", cfg.HTTPAddr, "localhost:8000")
	}
	if cfg.DBPath != "data/snippets.db" {
		t.Fatalf("db path = %q, want %q", cfg.DBPath, "data/snippets.db")
	}
	if cfg.PublishInterval != time.Minute {
		t.Fatalf("publish interval = %v, want 1m", cfg.PublishInterval)
	}
}

func TestParseConfigEnvAndFlags(t *testing.T) {
	fs := flag.NewFlagSet("snippets", flag.ContinueOnError)
	t.Setenv("SNIPPETS_HTTP_ADDR", "env-addr:9000")
	t.Setenv("SNIPPETS_STATIC_VERSION", "v7")
	t.Setenv("SNIPPETS_VIEWSETS_FILE", "viewsets.yaml")

	cfg, err := ParseConfig(fs, []string{"-db-path", "/tmp/flag.db", "-publish-interval", "30s"})
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.HTTPAddr != "env-addr:9000" {
		t.Fatalf("http addr = %q, want %q", cfg.HTTPAddr, "env-addr:9000")
	}
	if cfg.StaticVersion != "v7" {
		t.Fatalf("static version = %q, want %q", cfg.StaticVersion, "v7")
	}
	if cfg.ViewSetsFile != "viewsets.yaml" {
		t.Fatalf("viewsets file = %q, want %q", cfg.ViewSetsFile, "viewsets.yaml")
	}
	if cfg.DBPath != "/tmp/flag.db" {
		t.Fatalf("db path = %q, want %q", cfg.DBPath, "/tmp/flag.db")
	}
	if cfg.PublishInterval != 30*time.Second {
		t.Fatalf("publish interval = %v, want 30s", cfg.PublishInterval)
	}
}

func TestParseConfigRejectsUnknownFlag(t *testing.T) {
	fs := flag.NewFlagSet("snippets", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	if _, err := ParseConfig(fs, []string{"-grpc-addr", "x"}); err == nil {
		t.Fatal("expected error for unknown flag")
	}
}
