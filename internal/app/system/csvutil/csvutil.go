// internal/app/system/csvutil/csvutil.go
package csvutil

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
)

// MaxRows caps how many records a single file may carry. Registry exports
// for the largest clubs run to a few tens of thousands of rows.
const MaxRows = 200000

// Table is a CSV file read whole, with case-insensitive access to columns
// by header name.
type Table struct {
	cols map[string]int
	Rows [][]string
}

// Read consumes r completely. The first record is the header; a UTF-8 BOM
// on the first header cell is stripped. Rows may be ragged.
func Read(r io.Reader) (*Table, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("csvutil: empty file")
	}
	if err != nil {
		return nil, fmt.Errorf("csvutil: read header: %w", err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\uFEFF")
	}

	t := &Table{cols: make(map[string]int, len(header))}
	for i, name := range header {
		t.cols[strings.ToLower(strings.TrimSpace(name))] = i
	}

	for {
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("csvutil: row %d: %w", len(t.Rows)+2, err)
		}
		t.Rows = append(t.Rows, rec)
		if len(t.Rows) > MaxRows {
			return nil, fmt.Errorf("csvutil: more than %d rows", MaxRows)
		}
	}
	return t, nil
}

// Has reports whether the header carried the named column.
func (t *Table) Has(col string) bool {
	_, ok := t.cols[strings.ToLower(col)]
	return ok
}

// Require returns an error naming every missing column.
func (t *Table) Require(cols ...string) error {
	var missing []string
	for _, c := range cols {
		if !t.Has(c) {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("csvutil: missing columns: %s", strings.Join(missing, ", "))
	}
	return nil
}

// Get returns the trimmed value of the named column in rec, or "" when the
// column is absent or the row is short.
func (t *Table) Get(rec []string, col string) string {
	i, ok := t.cols[strings.ToLower(col)]
	if !ok || i >= len(rec) {
		return ""
	}
	return strings.TrimSpace(rec[i])
}

// WriteAll writes a header row and records to w in CSV form.
func WriteAll(w io.Writer, header []string, rows [][]string) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("csvutil: write header: %w", err)
	}
	for _, rec := range rows {
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("csvutil: write row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}
