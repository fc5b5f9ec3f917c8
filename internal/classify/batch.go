package classify

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/solvaholic/msgclass/internal/classerr"
)

// ErrorLabel marks a batch line that could not be classified.
const ErrorLabel = "ERROR"

// ResultsPath derives the output file for a batch input: "x.txt" becomes
// "x_results.txt", and a name without ".txt" gets "_results.txt" appended.
func ResultsPath(input string) string {
	return strings.TrimSuffix(input, ".txt") + "_results.txt"
}

// ReadLines returns the non-empty, trimmed lines of path.
func ReadLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %w", classerr.ErrIO, path, err)
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			lines = append(lines, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("%w: read %s: %w", classerr.ErrIO, path, err)
	}
	return lines, nil
}

// FormatResult renders one batch line as "<i>. [<label>] <text>".
func FormatResult(r Result) string {
	label := r.Label
	if r.Err != nil {
		label = ErrorLabel
	}
	return fmt.Sprintf("%d. [%s] %s", r.Index, label, r.Text)
}

// WriteResults writes one formatted line per result to path.
func WriteResults(path string, results []Result) error {
	var buf bytes.Buffer
	for _, r := range results {
		buf.WriteString(FormatResult(r))
		buf.WriteByte('\n')
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("%w: create directory %s: %w", classerr.ErrIO, dir, err)
		}
	}

	// Write to temp file first, then rename (atomic write)
	tempPath := path + ".tmp"
	if err := os.WriteFile(tempPath, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("%w: write %s: %w", classerr.ErrIO, tempPath, err)
	}
	if err := os.Rename(tempPath, path); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("%w: rename %s: %w", classerr.ErrIO, path, err)
	}
	return nil
}

// BatchFile classifies every non-empty line of input and writes the
// results next to it. It returns the output path and the per-line results.
func (p *Predictor) BatchFile(input string) (string, []Result, error) {
	lines, err := ReadLines(input)
	if err != nil {
		return "", nil, err
	}

	results := p.PredictBatch(lines)
	out := ResultsPath(input)
	if err := WriteResults(out, results); err != nil {
		return "", results, err
	}
	return out, results, nil
}

// Failed returns the results that carry an error.
func Failed(results []Result) []Result {
	var out []Result
	for _, r := range results {
		if r.Err != nil {
			out = append(out, r)
		}
	}
	return out
}
