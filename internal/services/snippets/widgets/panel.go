package widgets

import (
	"context"
	"errors"
	"fmt"
	"html"

	apperrors "github.com/scantist-ossops-m2/wagtail/internal/platform/errors"
	"github.com/scantist-ossops-m2/wagtail/internal/services/snippets/model"
	"github.com/scantist-ossops-m2/wagtail/internal/services/snippets/storage"
	"github.com/scantist-ossops-m2/wagtail/internal/services/snippets/viewset"
	"golang.org/x/text/message"
)

// ViewSetFinder finds the viewset registered for a model label.
type ViewSetFinder interface {
	ForModel(label string) (*viewset.ViewSet, bool)
}

// RecordGetter loads one record.
type RecordGetter interface {
	Get(ctx context.Context, m model.Model, pk int64) (model.Record, error)
}

// ChooserPanel edits a foreign key field with a snippet chooser.
type ChooserPanel struct {
	FieldName string
}

// BoundChooserPanel is a ChooserPanel bound to one instance.
type BoundChooserPanel struct {
	Field  model.Field
	Widget *AdminSnippetChooser
	Chosen Chosen
	Error  string
}

// Bind resolves the target viewset of the panel field and loads the chosen
// record of rec. A dangling reference renders as an empty chooser.
func (cp ChooserPanel) Bind(ctx context.Context, m model.Model, rec model.Record, finder ViewSetFinder, records RecordGetter, staticPrefix string) (BoundChooserPanel, error) {
	field, ok := m.Field(cp.FieldName)
	if !ok || field.Type != model.FieldForeignKey {
		return BoundChooserPanel{}, apperrors.New(apperrors.CodeModelInvalid,
			fmt.Sprintf("%s.%s is not a foreign key", m.Label(), cp.FieldName))
	}
	target, ok := finder.ForModel(field.Target)
	if !ok {
		return BoundChooserPanel{}, apperrors.New(apperrors.CodeModelInvalid,
			fmt.Sprintf("%s.%s targets unregistered model %s", m.Label(), cp.FieldName, field.Target))
	}

	bound := BoundChooserPanel{Field: field, Widget: NewAdminSnippetChooser(target, staticPrefix)}
	pk := rec.Ref(field.Name)
	if pk == 0 {
		return bound, nil
	}
	chosen, err := records.Get(ctx, target.Model(), pk)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return bound, nil
		}
		return BoundChooserPanel{}, fmt.Errorf("load chosen %s %d: %w", field.Target, pk, err)
	}
	bound.Chosen = Chosen{PK: pk, Title: target.Model().Title(chosen)}
	return bound, nil
}

// RenderInput renders the chooser widget alone.
func (b BoundChooserPanel) RenderInput(p *message.Printer) string {
	return b.Widget.Render(p, b.Field.Name, "", b.Chosen)
}

// RenderHTML renders the labelled field with its chooser.
func (b BoundChooserPanel) RenderHTML(p *message.Printer) string {
	label := b.Field.Label
	if label == "" {
		label = b.Field.Name
	}
	out := fmt.Sprintf(`<div class="w-field" data-field-name="%[1]s"><label class="w-field__label" for="id_%[1]s" id="id_%[1]s-label">%[2]s</label>%[3]s`,
		html.EscapeString(b.Field.Name), html.EscapeString(label), b.RenderInput(p))
	if b.Error != "" {
		out += `<p class="error-message">` + html.EscapeString(b.Error) + `</p>`
	}
	return out + `</div>`
}
