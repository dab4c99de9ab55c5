// Package recordio persists flat records to CSV or JSON files. Writers
// create parent directories and overwrite whatever is at the path;
// there is no append or merge.
package recordio

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

// Record is one flat row of output: field name to scalar value
// (string, number, or nil).
type Record map[string]any

// Columns fixes the field order of tabular output. Fields missing from
// a record serialize as empty.
type Columns []string

func ensureParent(path string) error {
	return os.MkdirAll(filepath.Dir(path), 0755)
}

func formatValue(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(val), 'f', -1, 32)
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	default:
		return fmt.Sprint(val)
	}
}

// WriteCSV writes a header row followed by one row per record, fields
// in column order.
func WriteCSV(path string, cols Columns, records []Record) error {
	if err := ensureParent(path); err != nil {
		return err
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(cols); err != nil {
		return err
	}
	row := make([]string, len(cols))
	for _, rec := range records {
		for i, col := range cols {
			row[i] = formatValue(rec[col])
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}
	return os.WriteFile(path, buf.Bytes(), 0644)
}

// ReadCSV reads back a file written by WriteCSV; values come back as
// strings.
func ReadCSV(path string) (Columns, []Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, nil, err
	}
	if len(rows) == 0 {
		return nil, nil, fmt.Errorf("%s: missing header row", path)
	}

	cols := Columns(rows[0])
	records := make([]Record, 0, len(rows)-1)
	for _, row := range rows[1:] {
		rec := Record{}
		for i, col := range cols {
			if i < len(row) {
				rec[col] = row[i]
			}
		}
		records = append(records, rec)
	}
	return cols, records, nil
}

// WriteJSON serializes the records as a single indented array,
// preserving record order.
func WriteJSON(path string, records []Record) error {
	if err := ensureParent(path); err != nil {
		return err
	}
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0644)
}

// WriteRaw persists an upstream payload verbatim.
func WriteRaw(path string, data []byte) error {
	if err := ensureParent(path); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
