package dataset

import (
	"fmt"
	"sort"
	"strings"

	"github.com/solvaholic/msgclass/internal/classerr"
)

// TextCleaner normalizes one message.
type TextCleaner interface {
	Text(text string) string
}

// Report summarizes what Clean did to a table.
type Report struct {
	OriginalRows   int            `json:"original_rows"`
	OriginalCols   int            `json:"original_cols"`
	DroppedIndex   bool           `json:"dropped_index_column"`
	Missing        map[string]int `json:"missing"`
	DroppedMissing int            `json:"dropped_missing"`
	Duplicates     int            `json:"duplicates"`
	Rows           int            `json:"rows"`
	LabelCounts    map[string]int `json:"label_counts"`
}

// LabelDistribution returns label counts sorted by count, descending, then
// by name.
func (r Report) LabelDistribution() []LabelCount {
	out := make([]LabelCount, 0, len(r.LabelCounts))
	for label, n := range r.LabelCounts {
		out = append(out, LabelCount{Label: label, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Label < out[j].Label
	})
	return out
}

// LabelCount pairs a label with its number of rows.
type LabelCount struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// Clean produces a modeling-ready copy of t. Steps run in a fixed order:
//  1. drop an unnamed index column
//  2. drop rows with a missing label or text, then exact duplicates
//  3. normalize every text cell with prep
//
// Labels are trimmed; a label outside Categories is an ErrDataFormat.
// The input table is not modified.
func Clean(t *Table, textColumn string, prep TextCleaner) (*Table, Report, error) {
	report := Report{
		OriginalRows: len(t.Rows),
		OriginalCols: len(t.Header),
		Missing:      make(map[string]int),
		LabelCounts:  make(map[string]int),
	}

	// Step 1: unnamed index column (pandas writes "" or "Unnamed: 0")
	keep := make([]int, 0, len(t.Header))
	for i, h := range t.Header {
		if isUnnamed(h) {
			report.DroppedIndex = true
			continue
		}
		keep = append(keep, i)
	}

	out := &Table{Header: project(t.Header, keep)}

	textIdx, err := out.TextColumn(textColumn)
	if err != nil {
		return nil, report, err
	}
	labelIdx := out.Column(LabelColumn)
	if labelIdx < 0 {
		return nil, report, fmt.Errorf("%w: missing %q column", classerr.ErrDataFormat, LabelColumn)
	}

	// Step 2: missing values, then duplicates
	seen := make(map[string]struct{}, len(t.Rows))
	for n, raw := range t.Rows {
		row := project(raw, keep)

		missing := false
		for i, cell := range row {
			if strings.TrimSpace(cell) == "" {
				report.Missing[out.Header[i]]++
				if i == textIdx || i == labelIdx {
					missing = true
				}
			}
		}
		if missing {
			report.DroppedMissing++
			continue
		}

		row[labelIdx] = strings.TrimSpace(row[labelIdx])
		if !IsCategory(row[labelIdx]) {
			// Line numbers count the header as line 1.
			return nil, report, fmt.Errorf("%w: line %d: unknown label %q (want one of %s)",
				classerr.ErrDataFormat, n+2, row[labelIdx], strings.Join(Categories, ", "))
		}

		key := strings.Join(row, "\x1f")
		if _, dup := seen[key]; dup {
			report.Duplicates++
			continue
		}
		seen[key] = struct{}{}

		out.Rows = append(out.Rows, row)
	}

	// Step 3: text normalization
	for _, row := range out.Rows {
		row[textIdx] = prep.Text(row[textIdx])
		report.LabelCounts[row[labelIdx]]++
	}

	report.Rows = len(out.Rows)
	return out, report, nil
}

// CleanFile reads src, cleans it and writes the result to dst.
func CleanFile(src, dst, textColumn string, prep TextCleaner) (Report, error) {
	t, err := ReadCSV(src)
	if err != nil {
		return Report{}, err
	}

	cleaned, report, err := Clean(t, textColumn, prep)
	if err != nil {
		return report, err
	}

	if err := WriteCSV(dst, cleaned); err != nil {
		return report, err
	}
	return report, nil
}

func isUnnamed(header string) bool {
	return strings.TrimSpace(header) == "" || strings.HasPrefix(header, "Unnamed:")
}

func project(row []string, keep []int) []string {
	out := make([]string, len(keep))
	for i, idx := range keep {
		out[i] = row[idx]
	}
	return out
}
