// Package dataset reads, cleans and writes the labeled message tables that
// feed training.
package dataset

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/solvaholic/msgclass/internal/classerr"
)

// LabelColumn is the required label column name.
const LabelColumn = "label"

// Categories are the message classes a labeled table may use.
var Categories = []string{"Information", "Problem", "Request"}

// IsCategory reports whether label is one of Categories.
func IsCategory(label string) bool {
	for _, c := range Categories {
		if label == c {
			return true
		}
	}
	return false
}

// legacyTextColumn is the text column name used by older exports.
const legacyTextColumn = "question"

// Table is an in-memory CSV table. Rows always have len(Header) cells.
type Table struct {
	Header []string
	Rows   [][]string
}

// Record is one labeled message.
type Record struct {
	Text  string
	Label string
}

// ReadCSV loads a table from path.
func ReadCSV(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %w", classerr.ErrIO, path, err)
	}
	defer f.Close()

	t, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return t, nil
}

// Decode parses CSV data with a header row.
func Decode(r io.Reader) (*Table, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: empty table", classerr.ErrDataFormat)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", classerr.ErrDataFormat, err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}

	t := &Table{Header: header}
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %w", classerr.ErrDataFormat, err)
		}
		if len(row) != len(header) {
			return nil, fmt.Errorf("%w: row %d has %d fields, header has %d",
				classerr.ErrDataFormat, len(t.Rows)+2, len(row), len(header))
		}
		t.Rows = append(t.Rows, row)
	}

	return t, nil
}

// WriteCSV writes the table to path, replacing any existing file.
func WriteCSV(path string, t *Table) error {
	var buf bytes.Buffer
	if err := t.Encode(&buf); err != nil {
		return fmt.Errorf("%w: encode %s: %w", classerr.ErrIO, path, err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("%w: create directory %s: %w", classerr.ErrIO, dir, err)
	}

	// Write to a temp file in the same directory, then rename (atomic write)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("%w: create temp file in %s: %w", classerr.ErrIO, dir, err)
	}
	tempPath := tmp.Name()

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		os.Remove(tempPath)
		return fmt.Errorf("%w: write %s: %w", classerr.ErrIO, tempPath, err)
	}
	if err := tmp.Chmod(0644); err != nil {
		tmp.Close()
		os.Remove(tempPath)
		return fmt.Errorf("%w: chmod %s: %w", classerr.ErrIO, tempPath, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("%w: close %s: %w", classerr.ErrIO, tempPath, err)
	}

	if err := os.Rename(tempPath, path); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("%w: rename %s: %w", classerr.ErrIO, path, err)
	}

	return nil
}

// Encode writes the table as CSV.
func (t *Table) Encode(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Header); err != nil {
		return err
	}
	if err := cw.WriteAll(t.Rows); err != nil {
		return err
	}
	return cw.Error()
}

// Column returns the index of name in the header, or -1.
func (t *Table) Column(name string) int {
	for i, h := range t.Header {
		if h == name {
			return i
		}
	}
	return -1
}

// TextColumn resolves the text column: preferred first, then "text", then
// the legacy "question" column.
func (t *Table) TextColumn(preferred string) (int, error) {
	for _, name := range []string{preferred, "text", legacyTextColumn} {
		if name == "" {
			continue
		}
		if idx := t.Column(name); idx >= 0 {
			return idx, nil
		}
	}
	return -1, fmt.Errorf("%w: missing text column %q", classerr.ErrDataFormat, preferred)
}

// Records extracts (text, label) pairs in row order.
func (t *Table) Records(textColumn string) ([]Record, error) {
	textIdx, err := t.TextColumn(textColumn)
	if err != nil {
		return nil, err
	}
	labelIdx := t.Column(LabelColumn)
	if labelIdx < 0 {
		return nil, fmt.Errorf("%w: missing %q column", classerr.ErrDataFormat, LabelColumn)
	}

	records := make([]Record, len(t.Rows))
	for i, row := range t.Rows {
		records[i] = Record{Text: row[textIdx], Label: row[labelIdx]}
	}
	return records, nil
}

// Texts returns the text column of records.
func Texts(records []Record) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.Text
	}
	return out
}

// Labels returns the label column of records.
func Labels(records []Record) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.Label
	}
	return out
}
