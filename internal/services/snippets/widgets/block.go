package widgets

import (
	"strings"

	"github.com/scantist-ossops-m2/wagtail/internal/services/snippets/viewset"
)

// SnippetChooserBlockPath is the import path reported by Deconstruct.
const SnippetChooserBlockPath = "wagtail.snippets.blocks.SnippetChooserBlock"

// BlockOption sets a keyword option of a SnippetChooserBlock.
type BlockOption func(*SnippetChooserBlock)

// Required marks the block value as mandatory. Blocks are required unless
// configured otherwise.
func Required(required bool) BlockOption {
	return func(b *SnippetChooserBlock) {
		b.required = required
		b.kwargs["required"] = required
	}
}

// Label sets the block label.
func Label(label string) BlockOption {
	return func(b *SnippetChooserBlock) {
		b.label = label
		b.kwargs["label"] = label
	}
}

// HelpText sets the help text shown under the block.
func HelpText(text string) BlockOption {
	return func(b *SnippetChooserBlock) {
		b.helpText = text
		b.kwargs["help_text"] = text
	}
}

// SnippetChooserBlock is a stream field block choosing one snippet.
// The icon always comes from the target viewset and is never a keyword
// option.
type SnippetChooserBlock struct {
	target       *viewset.ViewSet
	staticPrefix string
	name         string
	required     bool
	label        string
	helpText     string
	kwargs       map[string]any
}

// NewSnippetChooserBlock builds a block choosing instances of target.
func NewSnippetChooserBlock(target *viewset.ViewSet, staticPrefix string, opts ...BlockOption) *SnippetChooserBlock {
	b := &SnippetChooserBlock{target: target, staticPrefix: staticPrefix, required: true, kwargs: map[string]any{}}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// SetName assigns the block name within its parent.
func (b *SnippetChooserBlock) SetName(name string) {
	b.name = name
}

// Name returns the block name.
func (b *SnippetChooserBlock) Name() string { return b.name }

// Icon returns the icon of the target viewset.
func (b *SnippetChooserBlock) Icon() string { return b.target.Icon() }

// Widget returns the chooser used to edit the block.
func (b *SnippetChooserBlock) Widget() *AdminSnippetChooser {
	return NewAdminSnippetChooser(b.target, b.staticPrefix)
}

// JSArgs returns the client-side constructor arguments:
// name, widget and block metadata.
func (b *SnippetChooserBlock) JSArgs() []any {
	label := b.label
	if label == "" {
		label = humanizeName(b.name)
	}
	meta := map[string]any{
		"label":    label,
		"required": b.required,
		"icon":     b.Icon(),
	}
	if b.helpText != "" {
		meta["helpText"] = b.helpText
	}
	return []any{b.name, b.Widget(), meta}
}

// Deconstruct returns the block path, its positional model arguments and the
// keyword options that were set explicitly.
func (b *SnippetChooserBlock) Deconstruct() (string, []string, map[string]any) {
	kwargs := make(map[string]any, len(b.kwargs))
	for k, v := range b.kwargs {
		kwargs[k] = v
	}
	return SnippetChooserBlockPath, []string{b.target.Model().Label()}, kwargs
}

func humanizeName(name string) string {
	name = strings.TrimSpace(strings.ReplaceAll(name, "_", " "))
	if name == "" {
		return ""
	}
	return strings.ToUpper(name[:1]) + name[1:]
}
