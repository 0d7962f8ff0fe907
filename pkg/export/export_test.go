package export

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("")
	require.NoError(t, err)
	assert.Equal(t, FormatCSV, f)

	f, err = ParseFormat(" PDF ")
	require.NoError(t, err)
	assert.Equal(t, FormatPDF, f)
	assert.Equal(t, "application/pdf", f.ContentType())

	_, err = ParseFormat("xlsx")
	assert.Error(t, err)
}

func TestCSVRendererPadsShortRows(t *testing.T) {
	out, err := NewCSVRenderer().Render(Sheet{
		Columns: []string{"Time", "Family", "Notes"},
		Rows:    [][]string{{"08:15", "Smith", "needs, help"}, {"08:30", "Jones"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "Time,Family,Notes\n08:15,Smith,\"needs, help\"\n08:30,Jones,\n", string(out))
}

func TestRenderersRejectBadSheets(t *testing.T) {
	for _, r := range []Renderer{NewCSVRenderer(), NewPDFRenderer()} {
		_, err := r.Render(Sheet{})
		assert.Error(t, err)

		_, err = r.Render(Sheet{Columns: []string{"A"}, Rows: [][]string{{"1", "2"}}})
		assert.Error(t, err)
	}
}

func TestPDFRendererPaginates(t *testing.T) {
	sheet := Sheet{Title: "Delivery day", Subtitle: "Day 1", Columns: []string{"Time", "Family"}, Widths: []float64{1, 3}}
	for i := 0; i < 80; i++ {
		sheet.Rows = append(sheet.Rows, []string{"08:00", fmt.Sprintf("Family %d", i)})
	}
	out, err := NewPDFRenderer().Render(sheet)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))
}

func TestWeightsNormalise(t *testing.T) {
	w := Sheet{Columns: []string{"a", "b", "c"}, Widths: []float64{2}}.weights()
	assert.InDelta(t, 0.5, w[0], 1e-9)
	assert.InDelta(t, 0.25, w[1], 1e-9)
	assert.InDelta(t, 1.0, w[0]+w[1]+w[2], 1e-9)
}

func TestFileName(t *testing.T) {
	assert.Equal(t, "delivery-day-2024-03-04.pdf", Sheet{Title: "Delivery  Day 2024-03-04"}.FileName(FormatPDF))
	assert.Equal(t, "sheet.csv", Sheet{}.FileName(FormatCSV))
}
