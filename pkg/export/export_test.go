package export

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleSheet() Dataset {
	return Dataset{
		Title:   "Load sheet - plan p1",
		Notes:   []string{"4 weeks, 2 periods"},
		Headers: []string{"Period", "Exercise", "Working (kg)"},
		Rows: []map[string]string{
			{"Period": "Base", "Exercise": "squat", "Working (kg)": "80"},
			{"Period": "Build, heavy", "Exercise": "squat"},
		},
	}
}

func TestCSVExporterRender(t *testing.T) {
	out, err := NewCSVExporter().Render(sampleSheet())
	require.NoError(t, err)
	assert.Equal(t, "Period,Exercise,Working (kg)\nBase,squat,80\n\"Build, heavy\",squat,\n", string(out))
}

func TestCSVExporterPreambleAndDelimiter(t *testing.T) {
	exp := &CSVExporter{Comma: ';', Preamble: true}
	out, err := exp.Render(sampleSheet())
	require.NoError(t, err)
	assert.Equal(t, "# Load sheet - plan p1\n# 4 weeks, 2 periods\nPeriod;Exercise;Working (kg)\nBase;squat;80\nBuild, heavy;squat;\n", string(out))
}

func TestExportersRequireHeaders(t *testing.T) {
	_, err := NewCSVExporter().Render(Dataset{})
	assert.Error(t, err)
	_, err = NewPDFExporter().Render(Dataset{})
	assert.Error(t, err)
}

func TestPDFExporterRender(t *testing.T) {
	data := sampleSheet()
	data.Headers = append(data.Headers, "Basis", "Percentage", "Adjustment", "Weeks", "Reference (kg)")
	for i := 0; i < 80; i++ {
		data.Rows = append(data.Rows, map[string]string{"Period": "Peak", "Exercise": "bench"})
	}
	out, err := NewPDFExporter().Render(data)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))
	assert.Equal(t, "application/pdf", NewPDFExporter().ContentType())
}
