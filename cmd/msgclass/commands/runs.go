package commands

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/solvaholic/msgclass/internal/db"
	"github.com/solvaholic/msgclass/internal/utils"
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List recorded training and evaluation runs",
	Long: `Runs lists the training and evaluation runs recorded in the history
database, newest first.

Examples:
  # Runs from the last week
  msgclass runs --since 7d

  # Only evaluations
  msgclass runs --kind evaluate --limit 5`,
	RunE: runRuns,
}

var runsShowCmd = &cobra.Command{
	Use:   "show RUN_ID",
	Short: "Show one run with its per-class scores",
	Long: `Show prints one run with its per-class scores. For a training run it also
counts the predictions served by that model, per label.

Example:
  msgclass runs show 01J9Z3K4WQ5N8F6T2Y7B0C1D2E --predictions 10`,
	Args: cobra.ExactArgs(1),
	RunE: runRunsShow,
}

var runsStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show history database statistics",
	RunE:  runRunsStats,
}

var (
	runsSince string
	runsKind  string
	runsLimit int

	showPredictions int
)

func init() {
	rootCmd.AddCommand(runsCmd)
	runsCmd.AddCommand(runsShowCmd)
	runsCmd.AddCommand(runsStatsCmd)

	runsCmd.Flags().StringVar(&runsSince, "since", "", "Start date (YYYY-MM-DD or relative like 7d, 12h, 2w)")
	runsCmd.Flags().StringVar(&runsKind, "kind", "", "Filter by kind: train, evaluate")
	runsCmd.Flags().IntVar(&runsLimit, "limit", 20, "Maximum number of runs")
	runsShowCmd.Flags().IntVar(&showPredictions, "predictions", 0, "Also list this many recent predictions of a training run")
}

func openHistoryStrict() (*db.DB, error) {
	database, err := db.Open(settings.Paths.HistoryDB)
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}
	return database, nil
}

func runRuns(cmd *cobra.Command, args []string) error {
	opts := db.RunOptions{Kind: runsKind, Limit: runsLimit}
	if runsSince != "" {
		since, err := utils.ParseSinceDate(runsSince)
		if err != nil {
			return fmt.Errorf("invalid --since value: %w", err)
		}
		opts.Since = &since
	}
	if runsKind != "" && runsKind != db.RunTrain && runsKind != db.RunEvaluate {
		return fmt.Errorf("invalid --kind value: %s", runsKind)
	}

	database, err := openHistoryStrict()
	if err != nil {
		return err
	}
	defer database.Close()

	runs, err := database.ListRuns(opts)
	if err != nil {
		return err
	}

	return render(runs, func(w io.Writer) {
		if len(runs) == 0 {
			fmt.Fprintln(w, "No runs recorded.")
			return
		}
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		defer tw.Flush()

		fmt.Fprintf(tw, "CREATED\tKIND\tRUN\tMODEL\tACCURACY\tF1\tTEST\n")
		fmt.Fprintf(tw, "-------\t----\t---\t-----\t--------\t--\t----\n")
		for _, r := range runs {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%.4f\t%.4f\t%d\n",
				r.CreatedAt.Local().Format("2006-01-02 15:04"),
				r.Kind,
				r.ID,
				r.ModelRunID,
				r.Accuracy,
				r.F1,
				r.TestSize,
			)
		}
	})
}

func runRunsShow(cmd *cobra.Command, args []string) error {
	database, err := openHistoryStrict()
	if err != nil {
		return err
	}
	defer database.Close()

	run, err := database.GetRun(args[0])
	if err != nil {
		return err
	}

	output := map[string]interface{}{"run": run}
	var counts []db.LabelCount
	var recent []*db.Prediction
	if run.Kind == db.RunTrain {
		counts, err = database.CountPredictionsByLabel(run.ID)
		if err != nil {
			return err
		}
		output["prediction_counts"] = counts
		if showPredictions > 0 {
			recent, err = database.GetPredictions(run.ID, showPredictions)
			if err != nil {
				return err
			}
			output["predictions"] = recent
		}
	}

	return render(output, func(w io.Writer) {
		fmt.Fprintf(w, "Run:      %s (%s)\n", run.ID, run.Kind)
		fmt.Fprintf(w, "Model:    %s\n", run.ModelRunID)
		fmt.Fprintf(w, "Created:  %s\n", run.CreatedAt.Local().Format(time.RFC3339))
		if run.DataPath != "" {
			fmt.Fprintf(w, "Data:     %s\n", run.DataPath)
		}
		fmt.Fprintf(w, "Split:    %d train / %d test\n", run.TrainSize, run.TestSize)
		fmt.Fprintf(w, "Features: %d\n\n", run.FeatureCount)
		fmt.Fprintf(w, "Accuracy:  %.4f\n", run.Accuracy)
		fmt.Fprintf(w, "Precision: %.4f\n", run.Precision)
		fmt.Fprintf(w, "Recall:    %.4f\n", run.Recall)
		fmt.Fprintf(w, "F1 Score:  %.4f\n\n", run.F1)

		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintf(tw, "LABEL\tPRECISION\tRECALL\tF1\tSUPPORT\n")
		for _, s := range run.Classes {
			fmt.Fprintf(tw, "%s\t%.2f\t%.2f\t%.2f\t%d\n", s.Label, s.Precision, s.Recall, s.F1, s.Support)
		}
		tw.Flush()

		if run.Kind != db.RunTrain {
			return
		}
		printPredictionCounts(w, counts)
		if showPredictions > 0 {
			printRecentPredictions(w, recent)
		}
	})
}

func printPredictionCounts(w io.Writer, counts []db.LabelCount) {
	fmt.Fprintln(w, "\nPredictions served:")
	if len(counts) == 0 {
		fmt.Fprintln(w, "  none")
		return
	}
	for _, c := range counts {
		fmt.Fprintf(w, "  %-15s %d\n", c.Label, c.Count)
	}
}

func printRecentPredictions(w io.Writer, preds []*db.Prediction) {
	fmt.Fprintln(w, "\nRecent predictions:")
	for _, p := range preds {
		label := p.Label
		if p.Error != "" {
			label = "ERROR"
		}
		fmt.Fprintf(w, "  %s %-7s [%s] %s\n", p.CreatedAt.Local().Format("2006-01-02 15:04"), p.Source, label, p.Text)
	}
}

func runRunsStats(cmd *cobra.Command, args []string) error {
	database, err := openHistoryStrict()
	if err != nil {
		return err
	}
	defer database.Close()

	stats, err := database.Stats()
	if err != nil {
		return err
	}

	output := map[string]interface{}{
		"database":    database.Path(),
		"size":        formatBytes(stats.DatabaseSize),
		"runs":        stats.RunCount,
		"predictions": stats.PredictionCount,
	}
	if stats.FirstRun != nil && stats.LastRun != nil {
		output["date_range"] = map[string]string{
			"earliest": stats.FirstRun.Format(time.RFC3339),
			"latest":   stats.LastRun.Format(time.RFC3339),
		}
	}

	return render(output, func(w io.Writer) {
		fmt.Fprintf(w, "Database:    %s (%s)\n", database.Path(), formatBytes(stats.DatabaseSize))
		fmt.Fprintf(w, "Runs:        %d\n", stats.RunCount)
		fmt.Fprintf(w, "Predictions: %d\n", stats.PredictionCount)
		if stats.FirstRun != nil && stats.LastRun != nil {
			fmt.Fprintf(w, "Date range:  %s to %s\n",
				stats.FirstRun.Local().Format("2006-01-02"), stats.LastRun.Local().Format("2006-01-02"))
		}
	})
}

func formatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
