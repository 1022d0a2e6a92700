package export

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleDataset() Dataset {
	return Dataset{
		Headers: []string{"Day", "Start", "Lesson"},
		Rows: []map[string]string{
			{"Day": "Monday", "Start": "8:00 AM", "Lesson": "Fractions"},
			{"Day": "Monday", "Start": "8:50 AM"},
		},
	}
}

func TestCSVExporterRender(t *testing.T) {
	out, err := NewCSVExporter().Render(sampleDataset())
	require.NoError(t, err)
	assert.Equal(t, "Day,Start,Lesson\nMonday,8:00 AM,Fractions\nMonday,8:50 AM,\n", string(out))

	_, err = NewCSVExporter().Render(Dataset{})
	assert.Error(t, err)
}

func TestPDFExporterRender(t *testing.T) {
	out, err := NewPDFExporter().Render(sampleDataset(), "Weekly schedule")
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))

	_, err = NewPDFExporter().Render(Dataset{}, "")
	assert.Error(t, err)
}

func TestCSVExporterNeutralisesFormulaCells(t *testing.T) {
	data := Dataset{
		Headers: []string{"Lesson", "Planned"},
		Rows: []map[string]string{
			{"Lesson": "=HYPERLINK(\"x\")", "Planned": "-"},
			{"Lesson": "@sum", "Planned": "-5"},
		},
	}
	out, err := NewCSVExporter().Render(data)
	require.NoError(t, err)
	assert.Equal(t, "Lesson,Planned\n\"'=HYPERLINK(\"\"x\"\")\",-\n'@sum,'-5\n", string(out))
}

func TestCSVExporterWithBOM(t *testing.T) {
	out, err := NewCSVExporter(WithBOM()).Render(sampleDataset())
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte{0xEF, 0xBB, 0xBF}))
	assert.Contains(t, string(out), "Monday,8:00 AM,Fractions")
}
