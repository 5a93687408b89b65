// Package export writes snippet listings as CSV or XLSX spreadsheets.
package export

import (
	"encoding/csv"
	"fmt"
	"html"
	"io"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"
	apperrors "github.com/scantist-ossops-m2/wagtail/internal/platform/errors"
	"github.com/scantist-ossops-m2/wagtail/internal/services/snippets/listing"
	"github.com/scantist-ossops-m2/wagtail/internal/services/snippets/model"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/message"
)

// Param is the query parameter selecting an export format.
const Param = "export"

// Format is a spreadsheet format.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// maxSheetName is the XLSX limit on worksheet names.
const maxSheetName = 31

var textPolicy = bluemonday.StrictPolicy()

// ParseFormat validates an export parameter value.
func ParseFormat(raw string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(raw))); f {
	case FormatCSV, FormatXLSX:
		return f, nil
	default:
		return "", apperrors.WithMetadata(apperrors.CodeExportFormat,
			fmt.Sprintf("unsupported export format %q", raw), map[string]string{"format": raw})
	}
}

// ContentType is the response media type of f.
func (f Format) ContentType() string {
	if f == FormatXLSX {
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "text/csv; charset=utf-8"
}

// Filename is the attachment name for a listing of m.
func (f Format) Filename(m model.Model) string {
	return fmt.Sprintf("%s-%s.%s", m.AppLabel, m.ModelName, f)
}

// Table is a rendered listing in plain text.
type Table struct {
	Headers []string
	Rows    [][]string
}

// FieldsTable exports the named fields of records.
func FieldsTable(m model.Model, fields []string, records []model.Record) Table {
	t := Table{Headers: make([]string, 0, len(fields))}
	for _, name := range fields {
		field, _ := m.Field(name)
		label := field.Label
		if label == "" {
			label = name
		}
		t.Headers = append(t.Headers, label)
	}
	for _, rec := range records {
		row := make([]string, 0, len(fields))
		for _, name := range fields {
			row = append(row, listing.FieldText(m, name, rec))
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}

// ColumnsTable exports the listing columns of records. Custom column HTML is
// reduced to its text.
func ColumnsTable(p *message.Printer, m model.Model, columns []listing.Column, records []model.Record) Table {
	headers := listing.Headers(p, columns, listing.Ordering{}, "", nil)
	t := Table{Headers: make([]string, 0, len(headers))}
	for _, h := range headers {
		t.Headers = append(t.Headers, h.Label)
	}
	for _, rec := range records {
		row := make([]string, 0, len(columns))
		for _, col := range columns {
			row = append(row, cellText(p, m, col, rec))
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}

func cellText(p *message.Printer, m model.Model, col listing.Column, rec model.Record) string {
	switch col.Kind {
	case listing.KindCustom:
		return strings.TrimSpace(html.UnescapeString(textPolicy.Sanitize(col.Render(rec))))
	case listing.KindUpdated:
		if rec.UpdatedAt.IsZero() {
			return ""
		}
		return rec.UpdatedAt.UTC().Format(time.RFC3339)
	case listing.KindStatus:
		return listing.StatusText(p, rec)
	default:
		return listing.FieldText(m, col.Name, rec)
	}
}

// Write encodes t in format f. sheet names the XLSX worksheet.
func Write(w io.Writer, f Format, sheet string, t Table) error {
	switch f {
	case FormatCSV:
		return writeCSV(w, t)
	case FormatXLSX:
		return writeXLSX(w, sheet, t)
	default:
		return apperrors.New(apperrors.CodeExportFormat, fmt.Sprintf("unsupported export format %q", f))
	}
}

func writeCSV(w io.Writer, t Table) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(t.Headers); err != nil {
		return fmt.Errorf("write csv headers: %w", err)
	}
	for _, row := range t.Rows {
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	writer.Flush()
	return writer.Error()
}

func writeXLSX(w io.Writer, sheet string, t Table) error {
	sheet = sheetName(sheet)
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return fmt.Errorf("name sheet: %w", err)
	}
	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#D3D3D3"}, Pattern: 1},
	})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}

	sw, err := f.NewStreamWriter(sheet)
	if err != nil {
		return fmt.Errorf("open stream writer: %w", err)
	}
	header := make([]any, 0, len(t.Headers))
	for _, h := range t.Headers {
		header = append(header, excelize.Cell{StyleID: headerStyle, Value: h})
	}
	if err := sw.SetRow("A1", header); err != nil {
		return fmt.Errorf("write header row: %w", err)
	}
	for i, row := range t.Rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		values := make([]any, 0, len(row))
		for _, v := range row {
			values = append(values, v)
		}
		if err := sw.SetRow(cell, values); err != nil {
			return fmt.Errorf("write row %d: %w", i+1, err)
		}
	}
	if err := sw.Flush(); err != nil {
		return fmt.Errorf("flush sheet: %w", err)
	}
	if err := f.Write(w); err != nil {
		return fmt.Errorf("write xlsx: %w", err)
	}
	return nil
}

func sheetName(name string) string {
	name = strings.Map(func(r rune) rune {
		switch r {
		case ':', '\\', '/', '?', '*', '[', ']':
			return '_'
		}
		return r
	}, strings.TrimSpace(name))
	if name == "" {
		return "Sheet1"
	}
	if runes := []rune(name); len(runes) > maxSheetName {
		name = string(runes[:maxSheetName])
	}
	return name
}
