package commands

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/solvaholic/msgclass/internal/classify"
	"github.com/solvaholic/msgclass/internal/db"
)

var predictCmd = &cobra.Command{
	Use:   "predict",
	Short: "Classify a single message",
	Long: `Predict classifies one message with the trained model and prints the
category together with the per-class decision margins.

Margins are raw, uncalibrated SVM decision values; larger means a stronger
preference for that class. They are not probabilities.

Example:
  msgclass predict --text "Internet mati, bisakah ada teknisi membantu?"`,
	RunE: runPredict,
}

var predictText string

func init() {
	rootCmd.AddCommand(predictCmd)

	predictCmd.Flags().StringVar(&predictText, "text", "", "Message to classify (required)")
	predictCmd.MarkFlagRequired("text")
}

func runPredict(cmd *cobra.Command, args []string) error {
	predictor, err := loadPredictor()
	if err != nil {
		return err
	}

	label, err := predictor.Predict(predictText)
	if err != nil {
		return fmt.Errorf("prediction failed: %w", err)
	}
	margins, err := predictor.Margins(predictText)
	if err != nil {
		return fmt.Errorf("prediction failed: %w", err)
	}

	recordPredictions(predictor.RunID(), db.SourcePredict, []classify.Result{
		{Index: 1, Text: predictText, Label: label},
	})

	result := map[string]interface{}{
		"text":     predictText,
		"label":    label,
		"margins":  margins,
		"model_id": predictor.RunID(),
	}
	return render(result, func(w io.Writer) {
		fmt.Fprintf(w, "Input Text: %s\n", predictText)
		fmt.Fprintf(w, "Predicted Category: %s\n", label)
		if margins != nil {
			fmt.Fprintln(w, "\nDecision Margins:")
			for _, m := range margins {
				fmt.Fprintf(w, "  %s: %.4f\n", m.Label, m.Value)
			}
		}
	})
}

func loadPredictor() (*classify.Predictor, error) {
	prep, err := newPreprocessor()
	if err != nil {
		return nil, err
	}
	path := settings.Paths.ModelFile()
	predictor, err := classify.Load(path, prep)
	if err != nil {
		return nil, err
	}
	logger.Debug("loaded model", "path", path, "run_id", predictor.RunID())
	return predictor, nil
}

// recordPredictions stores served predictions in the history database.
func recordPredictions(modelRunID, source string, results []classify.Result) {
	database := openHistory()
	if database == nil {
		return
	}
	defer database.Close()

	preds := make([]*db.Prediction, 0, len(results))
	for _, r := range results {
		p := &db.Prediction{
			ModelRunID: modelRunID,
			Source:     source,
			Text:       r.Text,
			Label:      r.Label,
		}
		if r.Err != nil {
			p.Label = ""
			p.Error = r.Err.Error()
		}
		preds = append(preds, p)
	}

	if err := database.SavePredictions(preds); err != nil {
		logger.Warn("failed to record predictions", "error", err)
	}
}
