package writer

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"

	"github.com/insightdelivered/budget-worksheet-converter/internal/models"
)

// DelimitedWriter writes worksheet rows as delimited text. Fields containing
// the delimiter, quotes or newlines are quoted.
type DelimitedWriter struct {
	Delimiter     rune // zero means tab
	IncludeHeader bool
}

// NewTSV returns the default writer: tab separated with a header row.
func NewTSV() *DelimitedWriter {
	return &DelimitedWriter{Delimiter: '\t', IncludeHeader: true}
}

// WriteToFile writes rows to a new file at path.
func (w *DelimitedWriter) WriteToFile(path string, rows []models.Row) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file %q: %w", path, err)
	}
	if err := w.Write(f, rows); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// Write writes rows to out.
func (w *DelimitedWriter) Write(out io.Writer, rows []models.Row) error {
	writer := csv.NewWriter(out)
	writer.Comma = w.delimiter()

	if w.IncludeHeader {
		if err := writer.Write(models.Columns); err != nil {
			return fmt.Errorf("failed to write header: %w", err)
		}
	}

	for i, row := range rows {
		if len(row) != len(models.Columns) {
			return fmt.Errorf("row %d has %d fields, want %d", i, len(row), len(models.Columns))
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i, err)
		}
	}

	writer.Flush()
	return writer.Error()
}

func (w *DelimitedWriter) delimiter() rune {
	if w.Delimiter == 0 {
		return '\t'
	}
	return w.Delimiter
}

// ParseDelimiter maps a command line delimiter name to a rune.
func ParseDelimiter(s string) (rune, error) {
	switch s {
	case "", "tab", `\t`, "\t":
		return '\t', nil
	case "comma", ",":
		return ',', nil
	case "pipe", "|":
		return '|', nil
	case "semicolon", ";":
		return ';', nil
	}
	r := []rune(s)
	if len(r) != 1 {
		return 0, fmt.Errorf("invalid delimiter %q", s)
	}
	return r[0], nil
}
