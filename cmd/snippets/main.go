// Package main starts the snippets admin service.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	snippetscmd "github.com/scantist-ossops-m2/wagtail/internal/cmd/snippets"
	"github.com/scantist-ossops-m2/wagtail/internal/platform/config"
)

func main() {
	cfg, err := snippetscmd.ParseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		config.Exitf("parse flags: %v", err)
	}
	log.SetPrefix("[SNIPPETS] ")
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := snippetscmd.Run(ctx, cfg); err != nil {
		log.Fatalf("failed to serve: %v", err)
	}
}
