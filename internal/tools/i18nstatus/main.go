// Command i18nstatus reports how complete each admin locale catalog is
// relative to the base locale.
package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"

	i18ncatalog "github.com/scantist-ossops-m2/wagtail/internal/platform/i18n/catalog"
)

type report struct {
	BaseLocale string         `json:"base_locale"`
	Locales    []localeStatus `json:"locales"`
}

type localeStatus struct {
	Locale      string            `json:"locale"`
	BaseKeys    int               `json:"base_keys"`
	Translated  int               `json:"translated"`
	Missing     int               `json:"missing"`
	Extra       int               `json:"extra"`
	Completion  float64           `json:"completion"`
	Namespaces  []namespaceStatus `json:"namespaces"`
	MissingKeys []string          `json:"missing_keys"`
	ExtraKeys   []string          `json:"extra_keys"`
}

type namespaceStatus struct {
	Namespace  string  `json:"namespace"`
	BaseKeys   int     `json:"base_keys"`
	Missing    int     `json:"missing"`
	Completion float64 `json:"completion"`
}

var errIncomplete = errors.New("locale catalogs are incomplete")

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(args []string, stdout, stderr io.Writer) error {
	var baseLocale, markdownOut, jsonOut string
	var check bool
	flags := flag.NewFlagSet("i18nstatus", flag.ContinueOnError)
	flags.StringVar(&baseLocale, "base-locale", i18ncatalog.BaseLocale, "locale used as translation source of truth")
	flags.StringVar(&markdownOut, "out", "", "optional markdown output path")
	flags.StringVar(&jsonOut, "json-out", "", "optional json output path")
	flags.BoolVar(&check, "check", false, "fail when any locale misses base keys")
	flags.SetOutput(stderr)
	if err := flags.Parse(args); err != nil {
		return err
	}

	bundle, err := i18ncatalog.LoadEmbedded()
	if err != nil {
		return fmt.Errorf("load i18n catalogs: %w", err)
	}
	if !bundle.HasLocale(baseLocale) {
		return fmt.Errorf("base locale %q is missing from catalogs", baseLocale)
	}

	rep := buildReport(bundle, baseLocale)
	if jsonOut != "" {
		if err := writeJSON(jsonOut, rep); err != nil {
			return fmt.Errorf("write json report: %w", err)
		}
	}
	markdown := renderMarkdown(rep)
	if markdownOut != "" {
		if err := writeFile(markdownOut, []byte(markdown)); err != nil {
			return fmt.Errorf("write markdown report: %w", err)
		}
	} else {
		fmt.Fprint(stdout, markdown)
	}

	if check {
		for _, locale := range rep.Locales {
			if locale.Missing > 0 {
				return fmt.Errorf("%w: %s misses %d key(s)", errIncomplete, locale.Locale, locale.Missing)
			}
		}
	}
	return nil
}

func buildReport(bundle *i18ncatalog.Bundle, baseLocale string) report {
	baseKeys := bundle.Keys(baseLocale)
	baseNamespaces := bundle.Namespaces(baseLocale)

	statuses := make([]localeStatus, 0)
	for _, locale := range bundle.Locales() {
		localeKeys := bundle.Keys(locale)
		missing := difference(baseKeys, localeKeys)
		extra := difference(localeKeys, baseKeys)
		translated := len(baseKeys) - len(missing)

		namespaces := make([]namespaceStatus, 0, len(baseNamespaces))
		for _, namespace := range baseNamespaces {
			nsBase := withNamespace(baseKeys, namespace)
			nsMissing := withNamespace(missing, namespace)
			namespaces = append(namespaces, namespaceStatus{
				Namespace:  namespace,
				BaseKeys:   len(nsBase),
				Missing:    len(nsMissing),
				Completion: percent(len(nsBase)-len(nsMissing), len(nsBase)),
			})
		}

		statuses = append(statuses, localeStatus{
			Locale:      locale,
			BaseKeys:    len(baseKeys),
			Translated:  translated,
			Missing:     len(missing),
			Extra:       len(extra),
			Completion:  percent(translated, len(baseKeys)),
			Namespaces:  namespaces,
			MissingKeys: missing,
			ExtraKeys:   extra,
		})
	}
	return report{BaseLocale: baseLocale, Locales: statuses}
}

func renderMarkdown(rep report) string {
	var b strings.Builder
	b.WriteString("# Admin translation status\n\n")
	fmt.Fprintf(&b, "Base locale: `%s`.\n\n", rep.BaseLocale)
	b.WriteString("| Locale | Base Keys | Translated | Missing | Extra | Completion |\n")
	b.WriteString("| --- | ---: | ---: | ---: | ---: | ---: |\n")
	for _, locale := range rep.Locales {
		fmt.Fprintf(&b, "| `%s` | %d | %d | %d | %d | %.1f%% |\n", locale.Locale, locale.BaseKeys, locale.Translated, locale.Missing, locale.Extra, locale.Completion)
	}

	for _, locale := range rep.Locales {
		if locale.Locale == rep.BaseLocale {
			continue
		}
		fmt.Fprintf(&b, "\n## `%s`\n\n", locale.Locale)
		b.WriteString("| Namespace | Base Keys | Missing | Completion |\n")
		b.WriteString("| --- | ---: | ---: | ---: |\n")
		for _, ns := range locale.Namespaces {
			fmt.Fprintf(&b, "| `%s` | %d | %d | %.1f%% |\n", ns.Namespace, ns.BaseKeys, ns.Missing, ns.Completion)
		}
		writeKeyList(&b, "Missing keys", locale.MissingKeys)
		writeKeyList(&b, "Extra keys", locale.ExtraKeys)
	}
	return b.String()
}

func writeKeyList(b *strings.Builder, title string, keys []string) {
	if len(keys) == 0 {
		return
	}
	fmt.Fprintf(b, "\n### %s\n\n", title)
	for _, key := range keys {
		fmt.Fprintf(b, "- `%s`\n", key)
	}
}

func writeJSON(path string, rep report) error {
	data, err := json.MarshalIndent(rep, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	return writeFile(path, append(data, '\n'))
}

func writeFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir %s: %w", filepath.Dir(path), err)
	}
	return os.WriteFile(path, data, 0o644)
}

// difference returns the sorted keys of a that are not in b.
func difference(a, b []string) []string {
	seen := make(map[string]struct{}, len(b))
	for _, key := range b {
		seen[key] = struct{}{}
	}
	out := make([]string, 0)
	for _, key := range a {
		if _, ok := seen[key]; !ok {
			out = append(out, key)
		}
	}
	sort.Strings(out)
	return out
}

func withNamespace(keys []string, namespace string) []string {
	out := make([]string, 0)
	for _, key := range keys {
		if strings.HasPrefix(key, namespace+".") {
			out = append(out, key)
		}
	}
	return out
}

func percent(numerator, denominator int) float64 {
	if denominator <= 0 {
		return 100
	}
	value := float64(numerator) * 100 / float64(denominator)
	return math.Round(value*10) / 10
}
