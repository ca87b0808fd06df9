package export

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleDataset() Dataset {
	return Dataset{
		Title: "Applicants",
		Columns: []Column{
			{Key: "name", Header: "Name", Width: 2},
			{Key: "status", Header: "Status"},
		},
		Rows: []map[string]string{
			{"name": "Amel, B.", "status": "pending"},
			{"name": "Karim", "status": "accepted"},
		},
	}
}

func TestCSVExporterRender(t *testing.T) {
	out, err := NewCSVExporter().Render(sampleDataset())
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(out)), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "Name,Status", lines[0])
	assert.Equal(t, `"Amel, B.",pending`, lines[1])
}

func TestPDFExporterRender(t *testing.T) {
	out, err := NewPDFExporter().Render(sampleDataset())
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))
}

func TestExportersRequireColumns(t *testing.T) {
	_, err := NewCSVExporter().Render(Dataset{})
	assert.Error(t, err)
	_, err = NewPDFExporter().Render(Dataset{})
	assert.Error(t, err)
}

func TestColumnWidthsFillPage(t *testing.T) {
	widths := columnWidths(sampleDataset().Columns)
	assert.InDelta(t, pageWidthLandscape, widths[0]+widths[1], 0.001)
	assert.InDelta(t, widths[0], 2*widths[1], 0.001)
}
