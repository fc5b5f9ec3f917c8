package dataset

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/solvaholic/msgclass/internal/classerr"
)

type lowerCleaner struct{}

func (lowerCleaner) Text(text string) string { return strings.ToLower(text) }

const rawCSV = `Unnamed: 0,question,label
0,Internet MATI,Problem
1,Mau pasang baru,Request
2,Internet MATI,Problem
3,Berapa harga paket?,Information
4,,Problem
5,Teknisi kapan datang,
`

func TestDecode(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr error
		rows    int
	}{
		{"valid", "text,label\na,Problem\nb,Request\n", nil, 2},
		{"bom header", "\ufefftext,label\na,Problem\n", nil, 1},
		{"empty", "", classerr.ErrDataFormat, 0},
		{"ragged", "text,label\na,Problem,extra\n", classerr.ErrDataFormat, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			table, err := Decode(strings.NewReader(tt.input))
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Decode: %v", err)
			}
			if len(table.Rows) != tt.rows {
				t.Errorf("expected %d rows, got %d", tt.rows, len(table.Rows))
			}
			if table.Column("text") != 0 {
				t.Errorf("text column not found in %v", table.Header)
			}
		})
	}
}

func TestClean(t *testing.T) {
	table, err := Decode(strings.NewReader(rawCSV))
	if err != nil {
		t.Fatal(err)
	}

	cleaned, report, err := Clean(table, "text", lowerCleaner{})
	if err != nil {
		t.Fatalf("Clean: %v", err)
	}

	if !report.DroppedIndex {
		t.Error("expected unnamed index column to be dropped")
	}
	if got := strings.Join(cleaned.Header, ","); got != "question,label" {
		t.Errorf("header = %s", got)
	}
	if report.DroppedMissing != 2 {
		t.Errorf("expected 2 rows dropped for missing values, got %d", report.DroppedMissing)
	}
	if report.Missing["question"] != 1 || report.Missing["label"] != 1 {
		t.Errorf("unexpected missing counts: %v", report.Missing)
	}

	// The index column made every raw row unique; duplicates are judged
	// after it is dropped.
	if report.Duplicates != 1 {
		t.Errorf("expected 1 duplicate, got %d", report.Duplicates)
	}
	if report.Rows != 3 || len(cleaned.Rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(cleaned.Rows))
	}
	if cleaned.Rows[0][0] != "internet mati" {
		t.Errorf("text not cleaned: %q", cleaned.Rows[0][0])
	}
	if report.LabelCounts["Problem"] != 1 || report.LabelCounts["Request"] != 1 {
		t.Errorf("label counts = %v", report.LabelCounts)
	}

	// Input is untouched.
	if table.Rows[0][1] != "Internet MATI" {
		t.Error("Clean modified its input")
	}
}

func TestCleanMissingColumns(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"no label", "text,category\na,b\n"},
		{"no text", "body,label\na,Problem\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			table, err := Decode(strings.NewReader(tt.input))
			if err != nil {
				t.Fatal(err)
			}
			_, _, err = Clean(table, "text", lowerCleaner{})
			if !errors.Is(err, classerr.ErrDataFormat) {
				t.Errorf("expected ErrDataFormat, got %v", err)
			}
		})
	}
}

func TestCleanLabels(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr error
		want    map[string]int
	}{
		{
			name:  "trimmed and deduplicated",
			input: "text,label\nwifi mati, Problem \nwifi mati,Problem\nharga paket,Information\n",
			want:  map[string]int{"Problem": 1, "Information": 1},
		},
		{
			name:    "unknown label",
			input:   "text,label\nwifi mati,Problem\nterima kasih,Thanks\n",
			wantErr: classerr.ErrDataFormat,
		},
		{
			name:    "wrong case",
			input:   "text,label\nwifi mati,problem\n",
			wantErr: classerr.ErrDataFormat,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			table, err := Decode(strings.NewReader(tt.input))
			if err != nil {
				t.Fatal(err)
			}
			cleaned, report, err := Clean(table, "text", lowerCleaner{})
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Clean: %v", err)
			}
			if report.Duplicates != 1 {
				t.Errorf("expected 1 duplicate, got %d", report.Duplicates)
			}
			for label, n := range tt.want {
				if report.LabelCounts[label] != n {
					t.Errorf("count[%s] = %d, want %d", label, report.LabelCounts[label], n)
				}
			}
			if cleaned.Rows[0][1] != "Problem" {
				t.Errorf("label not trimmed: %q", cleaned.Rows[0][1])
			}
		})
	}
}

func TestWriteCSVReplaces(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "clean.csv")
	if err := os.WriteFile(path, []byte("old\n"), 0644); err != nil {
		t.Fatal(err)
	}

	table := &Table{Header: []string{"text", "label"}, Rows: [][]string{{"wifi mati", "Problem"}}}
	if err := WriteCSV(path, table); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "text,label\nwifi mati,Problem\n" {
		t.Errorf("unexpected content %q", data)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("expected only the output file, found %d entries", len(entries))
	}
}

func TestCleanFileIdempotent(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "raw.csv")
	if err := os.WriteFile(src, []byte(rawCSV), 0644); err != nil {
		t.Fatal(err)
	}

	out1 := filepath.Join(dir, "clean1.csv")
	out2 := filepath.Join(dir, "nested", "clean2.csv")
	if _, err := CleanFile(src, out1, "text", lowerCleaner{}); err != nil {
		t.Fatalf("CleanFile: %v", err)
	}
	if _, err := CleanFile(src, out2, "text", lowerCleaner{}); err != nil {
		t.Fatalf("CleanFile: %v", err)
	}

	a, _ := os.ReadFile(out1)
	b, _ := os.ReadFile(out2)
	if !bytes.Equal(a, b) {
		t.Errorf("cleaning is not idempotent:\n%s\nvs\n%s", a, b)
	}

	// Overwrites an existing destination.
	if _, err := CleanFile(src, out1, "text", lowerCleaner{}); err != nil {
		t.Fatalf("CleanFile overwrite: %v", err)
	}
}

func TestCleanFileIOErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := CleanFile(filepath.Join(dir, "missing.csv"), filepath.Join(dir, "out.csv"), "text", lowerCleaner{})
	if !errors.Is(err, classerr.ErrIO) {
		t.Errorf("expected ErrIO for unreadable source, got %v", err)
	}

	src := filepath.Join(dir, "raw.csv")
	if err := os.WriteFile(src, []byte(rawCSV), 0644); err != nil {
		t.Fatal(err)
	}
	// A regular file where a directory is expected makes the destination unwritable.
	blocker := filepath.Join(dir, "blocker")
	if err := os.WriteFile(blocker, nil, 0644); err != nil {
		t.Fatal(err)
	}
	_, err = CleanFile(src, filepath.Join(blocker, "out.csv"), "text", lowerCleaner{})
	if !errors.Is(err, classerr.ErrIO) {
		t.Errorf("expected ErrIO for unwritable destination, got %v", err)
	}
}

func TestRecords(t *testing.T) {
	table, err := Decode(strings.NewReader("question,label\nhalo,Information\nrusak,Problem\n"))
	if err != nil {
		t.Fatal(err)
	}

	records, err := table.Records("text")
	if err != nil {
		t.Fatalf("Records: %v", err)
	}
	if len(records) != 2 || records[1].Text != "rusak" || records[1].Label != "Problem" {
		t.Errorf("unexpected records: %+v", records)
	}
	if got := Labels(records); got[0] != "Information" {
		t.Errorf("Labels = %v", got)
	}
	if got := Texts(records); got[0] != "halo" {
		t.Errorf("Texts = %v", got)
	}
}

func TestLabelDistribution(t *testing.T) {
	r := Report{LabelCounts: map[string]int{"Request": 2, "Problem": 5, "Information": 2}}
	dist := r.LabelDistribution()
	if dist[0].Label != "Problem" || dist[1].Label != "Information" || dist[2].Label != "Request" {
		t.Errorf("unexpected order: %+v", dist)
	}
}
