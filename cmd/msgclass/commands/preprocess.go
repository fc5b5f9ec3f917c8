package commands

import (
	"fmt"
	"io"
	"sort"

	"github.com/spf13/cobra"

	"github.com/solvaholic/msgclass/internal/dataset"
)

var preprocessCmd = &cobra.Command{
	Use:   "preprocess",
	Short: "Clean the labeled raw data",
	Long: `Preprocess reads the labeled raw CSV, drops the unnamed index column,
rows with a missing text or label and exact duplicates, normalizes every
message (casefolding, noise and punctuation removal, stopword removal,
stemming) and writes the modeling table.

Examples:
  msgclass preprocess
  msgclass preprocess --input data/raw.csv --output data/clean/modeling.csv`,
	RunE: runPreprocess,
}

var (
	preprocessInput  string
	preprocessOutput string
)

func init() {
	rootCmd.AddCommand(preprocessCmd)

	preprocessCmd.Flags().StringVar(&preprocessInput, "input", "", "Raw labeled CSV (default: paths.raw_data)")
	preprocessCmd.Flags().StringVar(&preprocessOutput, "output", "", "Cleaned CSV to write (default: paths.processed_data)")
}

func runPreprocess(cmd *cobra.Command, args []string) error {
	input := preprocessInput
	if input == "" {
		input = settings.Paths.RawData
	}
	output := preprocessOutput
	if output == "" {
		output = settings.Paths.ProcessedData
	}

	prep, err := newPreprocessor()
	if err != nil {
		return err
	}

	logger.Info("preprocessing", "input", input, "output", output)
	report, err := dataset.CleanFile(input, output, settings.TextColumn, prep)
	if err != nil {
		return fmt.Errorf("preprocess failed: %w", err)
	}

	result := map[string]interface{}{
		"status": "success",
		"input":  input,
		"output": output,
		"report": report,
	}
	return render(result, func(w io.Writer) {
		printCleanReport(w, report)
		fmt.Fprintf(w, "\nSaved: %s\n", output)
	})
}

func printCleanReport(w io.Writer, r dataset.Report) {
	fmt.Fprintln(w, "Data Preprocessing")
	separator(w)
	fmt.Fprintf(w, "Original shape: %d rows x %d columns\n", r.OriginalRows, r.OriginalCols)
	if r.DroppedIndex {
		fmt.Fprintln(w, "Dropped unnamed index column")
	}

	if len(r.Missing) > 0 {
		columns := make([]string, 0, len(r.Missing))
		for col := range r.Missing {
			columns = append(columns, col)
		}
		sort.Strings(columns)

		fmt.Fprintln(w, "\nMissing values:")
		for _, col := range columns {
			fmt.Fprintf(w, "  %s: %d\n", col, r.Missing[col])
		}
	}
	fmt.Fprintf(w, "Rows dropped for missing values: %d\n", r.DroppedMissing)
	fmt.Fprintf(w, "Duplicates removed: %d\n", r.Duplicates)
	fmt.Fprintf(w, "Final rows: %d\n", r.Rows)

	fmt.Fprintln(w, "\nLabel distribution:")
	for _, lc := range r.LabelDistribution() {
		fmt.Fprintf(w, "  %-15s %d\n", lc.Label, lc.Count)
	}
}
