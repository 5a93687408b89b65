// Command icondocgen writes the admin icon reference and, optionally, a copy
// of the SVG sprite served under /static/.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/scantist-ossops-m2/wagtail/internal/platform/icons"
)

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(args []string, stdout io.Writer, stderr io.Writer) error {
	var outPath, spritePath, rootFlag string
	flags := flag.NewFlagSet("icondocgen", flag.ContinueOnError)
	flags.StringVar(&outPath, "out", "docs/reference/icons.md", "output path for the icon reference")
	flags.StringVar(&spritePath, "sprite", "", "optional output path for the SVG sprite")
	flags.StringVar(&rootFlag, "root", "", "repo root (defaults to locating go.mod)")
	flags.SetOutput(stderr)
	if err := flags.Parse(args); err != nil {
		return err
	}

	root, err := resolveRoot(rootFlag)
	if err != nil {
		return err
	}
	if err := writeOutput(inRoot(root, outPath), catalogMarkdown()); err != nil {
		return err
	}
	fmt.Fprintf(stdout, "wrote %s\n", outPath)
	if spritePath != "" {
		if err := writeOutput(inRoot(root, spritePath), icons.Sprite()); err != nil {
			return err
		}
		fmt.Fprintf(stdout, "wrote %s\n", spritePath)
	}
	return nil
}

// catalogMarkdown lists every icon with the markup templates emit for it.
func catalogMarkdown() string {
	var b strings.Builder
	b.WriteString("---\ntitle: \"Admin icons\"\nparent: \"Reference\"\n---\n\n")
	b.WriteString("# Admin icons\n\n")
	fmt.Fprintf(&b, "Icons are symbols of the `%s` sprite. Unknown names render `%s`.\n\n", icons.SpritePath, icons.Fallback)
	b.WriteString("| Name | Symbol | Description |\n")
	b.WriteString("| --- | --- | --- |\n")
	for _, name := range icons.Names() {
		def, _ := icons.Lookup(name)
		fmt.Fprintf(&b, "| `%s` | `#%s` | %s |\n", def.Name, icons.SymbolID(def.Name), def.Description)
	}
	return b.String()
}

func inRoot(root, p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(root, p)
}

func writeOutput(output, content string) error {
	if err := os.MkdirAll(filepath.Dir(output), 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	if err := os.WriteFile(output, []byte(content), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", output, err)
	}
	return nil
}

func resolveRoot(flagRoot string) (string, error) {
	if flagRoot != "" {
		return filepath.Clean(flagRoot), nil
	}
	wd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("get working dir: %w", err)
	}
	return findModuleRoot(wd)
}

// findModuleRoot walks upward to the directory holding go.mod.
func findModuleRoot(start string) (string, error) {
	dir := start
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", fmt.Errorf("go.mod not found above %s", start)
}
