package commands

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/solvaholic/msgclass/internal/classify"
	"github.com/solvaholic/msgclass/internal/db"
)

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Classify every line of a text file",
	Long: `Batch classifies each non-empty line of a text file and writes the
results next to it as <name>_results.txt, one "<n>. [<label>] <text>" per line.

A line that cannot be classified is written as "<n>. [ERROR] <text>" and
reported; the rest of the file is still processed.

Example:
  msgclass batch --file messages.txt`,
	RunE: runBatch,
}

var batchFile string

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().StringVar(&batchFile, "file", "", "Text file with one message per line (required)")
	batchCmd.MarkFlagRequired("file")
}

type batchLine struct {
	Index int    `json:"index"`
	Text  string `json:"text"`
	Label string `json:"label,omitempty"`
	Error string `json:"error,omitempty"`
}

func runBatch(cmd *cobra.Command, args []string) error {
	predictor, err := loadPredictor()
	if err != nil {
		return err
	}

	outPath, results, err := predictor.BatchFile(batchFile)
	if err != nil {
		return fmt.Errorf("batch prediction failed: %w", err)
	}

	failed := classify.Failed(results)
	for _, r := range failed {
		logger.Warn("could not classify line", "line", r.Index, "error", r.Err)
	}
	recordPredictions(predictor.RunID(), db.SourceBatch, results)

	lines := make([]batchLine, len(results))
	for i, r := range results {
		lines[i] = batchLine{Index: r.Index, Text: r.Text, Label: r.Label}
		if r.Err != nil {
			lines[i].Label = ""
			lines[i].Error = r.Err.Error()
		}
	}

	result := map[string]interface{}{
		"status":  "success",
		"input":   batchFile,
		"output":  outPath,
		"total":   len(results),
		"failed":  len(failed),
		"results": lines,
	}
	return render(result, func(w io.Writer) {
		fmt.Fprintf(w, "Processing %d messages...\n\n", len(results))
		for _, r := range results {
			fmt.Fprintln(w, classify.FormatResult(r))
		}
		if len(failed) > 0 {
			fmt.Fprintf(w, "\n%d of %d lines could not be classified\n", len(failed), len(results))
		}
		fmt.Fprintf(w, "\nResults saved: %s\n", outPath)
	})
}
