package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strings"
)

// Dataset is a titled table. Rows are keyed by header.
type Dataset struct {
	Title   string
	Notes   []string
	Headers []string
	Rows    []map[string]string
}

// CSVExporter writes a Dataset as CSV. With Preamble set, title and notes are
// emitted first as "# " prefixed lines so spreadsheet imports can skip them.
type CSVExporter struct {
	Comma    rune
	Preamble bool
}

// NewCSVExporter builds a comma separated exporter without preamble.
func NewCSVExporter() *CSVExporter {
	return &CSVExporter{Comma: ','}
}

// ContentType is the MIME type of rendered output.
func (e *CSVExporter) ContentType() string {
	return "text/csv; charset=utf-8"
}

// Render encodes the header row followed by one record per row. Missing cells are empty.
func (e *CSVExporter) Render(data Dataset) ([]byte, error) {
	if len(data.Headers) == 0 {
		return nil, fmt.Errorf("csv requires at least one header")
	}
	buf := &bytes.Buffer{}
	if e.Preamble {
		for _, line := range append([]string{data.Title}, data.Notes...) {
			if line = strings.TrimSpace(line); line != "" {
				fmt.Fprintf(buf, "# %s\n", strings.ReplaceAll(line, "\n", " "))
			}
		}
	}

	w := csv.NewWriter(buf)
	if e.Comma != 0 {
		w.Comma = e.Comma
	}
	if err := w.Write(data.Headers); err != nil {
		return nil, fmt.Errorf("write load sheet header: %w", err)
	}
	record := make([]string, len(data.Headers))
	for n, row := range data.Rows {
		for i, h := range data.Headers {
			record[i] = row[h]
		}
		if err := w.Write(record); err != nil {
			return nil, fmt.Errorf("write load sheet row %d: %w", n+1, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("flush load sheet: %w", err)
	}
	return buf.Bytes(), nil
}
