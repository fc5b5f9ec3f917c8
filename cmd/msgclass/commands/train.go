package commands

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/solvaholic/msgclass/internal/dataset"
	"github.com/solvaholic/msgclass/internal/db"
	"github.com/solvaholic/msgclass/internal/metrics"
	"github.com/solvaholic/msgclass/internal/model"
	"github.com/solvaholic/msgclass/internal/train"
)

var trainCmd = &cobra.Command{
	Use:   "train",
	Short: "Train and evaluate the classifier",
	Long: `Train splits the cleaned data into stratified train and test sets, fits a
TF-IDF vectorizer and a class-balanced linear SVM on the training rows, and
evaluates on the held-out rows.

The model is written as a single bundle to <models_dir>/model.json and the
confusion matrix to <results_dir>/confusion_matrix.png.`,
	RunE: runTrain,
}

var trainData string

func init() {
	rootCmd.AddCommand(trainCmd)

	trainCmd.Flags().StringVar(&trainData, "data", "", "Cleaned CSV (default: paths.processed_data)")
}

func runTrain(cmd *cobra.Command, args []string) error {
	dataPath := trainData
	if dataPath == "" {
		dataPath = settings.Paths.ProcessedData
	}

	records, err := loadRecords(dataPath)
	if err != nil {
		return err
	}

	opts := train.OptionsFromSettings(settings)
	opts.Logger = logger
	res, err := train.Run(records, opts)
	if err != nil {
		return fmt.Errorf("training failed: %w", err)
	}

	bundle := model.New(res, opts, dataPath)
	modelPath, err := model.Save(settings.Paths.ModelsDir, bundle)
	if err != nil {
		return fmt.Errorf("failed to save model: %w", err)
	}
	logger.Info("saved model", "path", modelPath, "run_id", bundle.RunID)

	imagePath := settings.Paths.ConfusionMatrixImage()
	if err := metrics.PlotConfusion(res.Report, imagePath); err != nil {
		return fmt.Errorf("failed to plot confusion matrix: %w", err)
	}

	recordRun(&db.Run{
		ID:           bundle.RunID,
		Kind:         db.RunTrain,
		ModelRunID:   bundle.RunID,
		DataPath:     dataPath,
		TrainSize:    res.TrainSize,
		TestSize:     res.TestSize,
		FeatureCount: res.Vectorizer.Dim(),
		CreatedAt:    bundle.TrainedAt,
	}, res.Report)

	result := map[string]interface{}{
		"status":           "success",
		"run_id":           bundle.RunID,
		"model":            modelPath,
		"confusion_matrix": imagePath,
		"train_size":       res.TrainSize,
		"test_size":        res.TestSize,
		"features":         res.Vectorizer.Dim(),
		"metrics":          res.Report,
	}
	return render(result, func(w io.Writer) {
		fmt.Fprintf(w, "Training data: %d\n", res.TrainSize)
		fmt.Fprintf(w, "Test data: %d\n", res.TestSize)
		fmt.Fprintf(w, "TF-IDF features: %d\n\n", res.Vectorizer.Dim())
		printEvaluation(w, res.Report)

		fmt.Fprintln(w)
		separator(w)
		fmt.Fprintln(w, "Training Result")
		separator(w)
		fmt.Fprintln(w, "Model: linear SVM (one-vs-rest)")
		fmt.Fprintf(w, "Run: %s\n", bundle.RunID)
		fmt.Fprintf(w, "Accuracy: %.4f\n", res.Report.Accuracy)
		fmt.Fprintf(w, "F1 Score: %.4f\n", res.Report.F1)
		fmt.Fprintf(w, "\nModel saved: %s\n", modelPath)
		fmt.Fprintf(w, "Confusion matrix saved: %s\n", imagePath)
	})
}

func loadRecords(path string) ([]dataset.Record, error) {
	table, err := dataset.ReadCSV(path)
	if err != nil {
		return nil, err
	}
	return table.Records(settings.TextColumn)
}

func printEvaluation(w io.Writer, r *metrics.Report) {
	separator(w)
	fmt.Fprintln(w, "MODEL EVALUATION RESULTS")
	separator(w)
	fmt.Fprintf(w, "Accuracy:  %.4f\n", r.Accuracy)
	fmt.Fprintf(w, "Precision: %.4f\n", r.Precision)
	fmt.Fprintf(w, "Recall:    %.4f\n", r.Recall)
	fmt.Fprintf(w, "F1 Score:  %.4f\n", r.F1)
	fmt.Fprintf(w, "\n%s\n", r.String())
	fmt.Fprintln(w, "Confusion matrix (rows: actual, columns: predicted):")
	fmt.Fprint(w, r.ConfusionString())
}

// recordRun stores a run and its scores in the history database.
func recordRun(run *db.Run, r *metrics.Report) {
	database := openHistory()
	if database == nil {
		return
	}
	defer database.Close()

	run.Accuracy = r.Accuracy
	run.Precision = r.Precision
	run.Recall = r.Recall
	run.F1 = r.F1
	run.ClassCount = len(r.Classes)
	for _, s := range r.Classes {
		run.Classes = append(run.Classes, db.ClassScore{
			Label:     s.Label,
			Precision: s.Precision,
			Recall:    s.Recall,
			F1:        s.F1,
			Support:   s.Support,
		})
	}

	if err := database.SaveRun(run); err != nil {
		logger.Warn("failed to record run", "error", err)
		return
	}
	logger.Debug("recorded run", "id", run.ID, "kind", run.Kind)
}
