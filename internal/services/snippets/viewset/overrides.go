package viewset

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Override adjusts the URL layout and page sizes of one registered model.
type Override struct {
	Icon                string `yaml:"icon"`
	URLNamespace        string `yaml:"url_namespace"`
	URLPrefix           string `yaml:"url_prefix"`
	ChooserURLNamespace string `yaml:"chooser_url_namespace"`
	ChooserURLPrefix    string `yaml:"chooser_url_prefix"`
	ListPerPage         int    `yaml:"list_per_page"`
	ChooserPerPage      int    `yaml:"chooser_per_page"`
}

// Overrides maps model labels to overrides.
type Overrides map[string]Override

type overridesFile struct {
	ViewSets map[string]Override `yaml:"viewsets"`
}

// LoadOverrides decodes a YAML overrides document:
//
//	viewsets:
//	  tests.advert:
//	    url_namespace: adverts
//	    url_prefix: content/adverts
func LoadOverrides(r io.Reader) (Overrides, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	var file overridesFile
	if err := dec.Decode(&file); err != nil {
		if errors.Is(err, io.EOF) {
			return Overrides{}, nil
		}
		return nil, fmt.Errorf("decode viewset overrides: %w", err)
	}
	out := make(Overrides, len(file.ViewSets))
	for label, o := range file.ViewSets {
		if o.ListPerPage < 0 || o.ChooserPerPage < 0 {
			return nil, fmt.Errorf("viewset overrides %s: page sizes must be positive", label)
		}
		out[strings.ToLower(label)] = o
	}
	return out, nil
}

// LoadOverridesFile reads overrides from path. An empty path yields no
// overrides.
func LoadOverridesFile(path string) (Overrides, error) {
	if strings.TrimSpace(path) == "" {
		return Overrides{}, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read viewset overrides: %w", err)
	}
	return LoadOverrides(bytes.NewReader(data))
}

// Apply returns opts with overrides merged in. Every override must name a
// model present in opts.
func (o Overrides) Apply(opts []Options) ([]Options, error) {
	out := append([]Options(nil), opts...)
	used := map[string]bool{}
	for i := range out {
		label := out[i].Model.Label()
		ov, ok := o[label]
		if !ok {
			continue
		}
		used[label] = true
		if ov.Icon != "" {
			out[i].Icon = ov.Icon
		}
		if ov.URLNamespace != "" || ov.URLPrefix != "" {
			out[i].URLNamespace, out[i].URLPrefix = ov.URLNamespace, ov.URLPrefix
		}
		if ov.ChooserURLNamespace != "" || ov.ChooserURLPrefix != "" {
			out[i].ChooserURLNamespace, out[i].ChooserURLPrefix = ov.ChooserURLNamespace, ov.ChooserURLPrefix
		}
		if ov.ListPerPage > 0 {
			out[i].ListPerPage = ov.ListPerPage
		}
		if ov.ChooserPerPage > 0 {
			out[i].ChooserPerPage = ov.ChooserPerPage
		}
	}
	for label := range o {
		if !used[label] {
			return nil, fmt.Errorf("viewset overrides: unknown model %q", label)
		}
	}
	return out, nil
}
