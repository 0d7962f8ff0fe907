package export

import (
	"fmt"
	"strings"
)

// Format selects how a sheet is rendered.
type Format string

const (
	FormatCSV Format = "csv"
	FormatPDF Format = "pdf"
)

// ParseFormat maps a query value onto a Format. Empty means CSV.
func ParseFormat(raw string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(raw))) {
	case "", FormatCSV:
		return FormatCSV, nil
	case FormatPDF:
		return FormatPDF, nil
	default:
		return "", fmt.Errorf("unsupported sheet format %q", raw)
	}
}

// ContentType is the MIME type served for the format.
func (f Format) ContentType() string {
	if f == FormatPDF {
		return "application/pdf"
	}
	return "text/csv; charset=utf-8"
}

// Sheet is a printable table. Widths are relative column weights; a
// missing or short slice weights the remaining columns equally.
type Sheet struct {
	Title    string
	Subtitle string
	Columns  []string
	Widths   []float64
	Rows     [][]string
}

// Renderer turns a sheet into bytes.
type Renderer interface {
	Render(sheet Sheet) ([]byte, error)
}

// NewRenderer returns the renderer of the given format.
func NewRenderer(format Format) Renderer {
	if format == FormatPDF {
		return NewPDFRenderer()
	}
	return NewCSVRenderer()
}

func (s Sheet) validate() error {
	if len(s.Columns) == 0 {
		return fmt.Errorf("sheet requires at least one column")
	}
	for i, row := range s.Rows {
		if len(row) > len(s.Columns) {
			return fmt.Errorf("row %d has %d cells for %d columns", i, len(row), len(s.Columns))
		}
	}
	return nil
}

func (s Sheet) cell(row []string, i int) string {
	if i < len(row) {
		return row[i]
	}
	return ""
}

func (s Sheet) weights() []float64 {
	out := make([]float64, len(s.Columns))
	var total float64
	for i := range out {
		w := 1.0
		if i < len(s.Widths) && s.Widths[i] > 0 {
			w = s.Widths[i]
		}
		out[i] = w
		total += w
	}
	for i := range out {
		out[i] /= total
	}
	return out
}

// FileName derives a download name from the title.
func (s Sheet) FileName(format Format) string {
	name := strings.Join(strings.Fields(strings.ToLower(s.Title)), "-")
	if name == "" {
		name = "sheet"
	}
	return name + "." + string(format)
}
