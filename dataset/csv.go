package dataset

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"slices"
)

// Row maps column names to values.
type Row map[string]string

// Table is a CSV file with its header order preserved, so stages can add
// columns and write the file back.
type Table struct {
	Header []string
	Rows   []Row
}

// HasColumn reports whether name is part of the header.
func (t *Table) HasColumn(name string) bool {
	return slices.Contains(t.Header, name)
}

// AddColumn appends name to the header unless it is already present.
func (t *Table) AddColumn(name string) {
	if !t.HasColumn(name) {
		t.Header = append(t.Header, name)
	}
}

// LoadCSV reads a CSV file. The first record is the header.
func LoadCSV(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("csv: open %s: %w", path, err)
	}
	defer f.Close() //nolint:errcheck

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1 // column counts are checked per row below
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("csv: parse %s: %w", path, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("csv: %s is empty (no header row)", path)
	}

	t := &Table{Header: records[0], Rows: make([]Row, 0, len(records)-1)}
	for i, record := range records[1:] {
		if len(record) != len(t.Header) {
			return nil, fmt.Errorf("csv: %s row %d has %d columns, expected %d", path, i+2, len(record), len(t.Header))
		}
		row := make(Row, len(t.Header))
		for j, h := range t.Header {
			row[h] = record[j]
		}
		t.Rows = append(t.Rows, row)
	}
	return t, nil
}

// WriteCSV writes t to path, creating parent directories. Columns missing
// from a row are written empty.
func WriteCSV(path string, t *Table) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("csv: create dir %s: %w", dir, err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("csv: create %s: %w", path, err)
	}
	defer f.Close() //nolint:errcheck

	w := csv.NewWriter(f)
	if err := w.Write(t.Header); err != nil {
		return fmt.Errorf("csv: write %s: %w", path, err)
	}
	record := make([]string, len(t.Header))
	for _, row := range t.Rows {
		for j, h := range t.Header {
			record[j] = row[h]
		}
		if err := w.Write(record); err != nil {
			return fmt.Errorf("csv: write %s: %w", path, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("csv: flush %s: %w", path, err)
	}
	return f.Close()
}
