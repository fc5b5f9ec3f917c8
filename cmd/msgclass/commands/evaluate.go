package commands

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/solvaholic/msgclass/internal/db"
	"github.com/solvaholic/msgclass/internal/model"
	"github.com/solvaholic/msgclass/internal/train"
)

var evaluateCmd = &cobra.Command{
	Use:   "evaluate",
	Short: "Re-score the trained model on its test split",
	Long: `Evaluate reloads the model bundle and the cleaned data, recomputes the
held-out split with the test size and seed the model was trained with, and
prints the metrics.`,
	RunE: runEvaluate,
}

var evaluateData string

func init() {
	rootCmd.AddCommand(evaluateCmd)

	evaluateCmd.Flags().StringVar(&evaluateData, "data", "", "Cleaned CSV (default: paths.processed_data)")
}

func runEvaluate(cmd *cobra.Command, args []string) error {
	bundle, err := model.Load(settings.Paths.ModelFile())
	if err != nil {
		return err
	}

	dataPath := evaluateData
	if dataPath == "" {
		dataPath = settings.Paths.ProcessedData
	}
	records, err := loadRecords(dataPath)
	if err != nil {
		return err
	}

	report, err := train.Evaluate(records, bundle.Config, bundle.LabelEncoder, bundle.Vectorizer, bundle.Classifier)
	if err != nil {
		return fmt.Errorf("evaluation failed: %w", err)
	}

	recordRun(&db.Run{
		Kind:         db.RunEvaluate,
		ModelRunID:   bundle.RunID,
		DataPath:     dataPath,
		TestSize:     report.Support,
		FeatureCount: bundle.Vectorizer.Dim(),
	}, report)

	result := map[string]interface{}{
		"status":   "success",
		"model_id": bundle.RunID,
		"data":     dataPath,
		"metrics":  report,
	}
	return render(result, func(w io.Writer) {
		fmt.Fprintf(w, "Model: %s (trained %s)\n", bundle.RunID, bundle.TrainedAt.Format("2006-01-02 15:04"))
		fmt.Fprintf(w, "Test data: %d\n\n", report.Support)
		printEvaluation(w, report)
	})
}
