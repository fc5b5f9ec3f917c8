// Package train fits the text classifier and scores it on a held-out split.
package train

import (
	"fmt"
	"log/slog"

	"github.com/solvaholic/msgclass/internal/config"
	"github.com/solvaholic/msgclass/internal/dataset"
	"github.com/solvaholic/msgclass/internal/features"
	"github.com/solvaholic/msgclass/internal/logging"
	"github.com/solvaholic/msgclass/internal/metrics"
	"github.com/solvaholic/msgclass/internal/svm"
)

// Options are the training hyperparameters.
type Options struct {
	TestSize    float64 `json:"test_size"`
	Seed        int64   `json:"random_state"`
	MaxFeatures int     `json:"max_features"`
	NgramMax    int     `json:"ngram_max"`
	C           float64 `json:"c"`
	MaxIter     int     `json:"max_iter"`
	Tol         float64 `json:"tol"`

	Logger *slog.Logger `json:"-"`
}

// OptionsFromSettings copies the training settings out of s.
func OptionsFromSettings(s config.Settings) Options {
	return Options{
		TestSize:    s.TestSize,
		Seed:        s.RandomState,
		MaxFeatures: s.MaxFeatures,
		NgramMax:    s.NgramMax,
		C:           s.SVMC,
		MaxIter:     s.SVMMaxIter,
		Tol:         s.SVMTol,
	}
}

// Result is everything a training run produces.
type Result struct {
	Encoder    *features.LabelEncoder
	Vectorizer *features.TFIDF
	Classifier *svm.Model
	Report     *metrics.Report
	TrainSize  int
	TestSize   int

	// Test rows and their predicted codes, for rendering.
	TestRecords []dataset.Record
	Predicted   []int
}

// Run splits records, fits the encoder, vectorizer and classifier, and
// evaluates on the held-out rows.
func Run(records []dataset.Record, opts Options) (*Result, error) {
	log := opts.Logger
	if log == nil {
		log = logging.Discard()
	}

	split, err := StratifiedSplit(records, opts.TestSize, opts.Seed)
	if err != nil {
		return nil, err
	}
	log.Info("split data", "train", len(split.Train), "test", len(split.Test))

	enc, err := features.FitLabelEncoder(dataset.Labels(records))
	if err != nil {
		return nil, err
	}

	vec, err := features.FitTFIDF(dataset.Texts(split.Train), features.TFIDFOptions{
		NgramMin:    1,
		NgramMax:    opts.NgramMax,
		MaxFeatures: opts.MaxFeatures,
	})
	if err != nil {
		return nil, fmt.Errorf("fit vectorizer: %w", err)
	}
	log.Info("fitted vectorizer", "features", vec.Dim(), "ngram_max", vec.NgramMax)

	y, err := enc.EncodeAll(dataset.Labels(split.Train))
	if err != nil {
		return nil, err
	}

	clf, err := svm.Fit(vec.TransformAll(dataset.Texts(split.Train)), y, enc.Len(), vec.Dim(), svm.Options{
		C:        opts.C,
		MaxIter:  opts.MaxIter,
		Tol:      opts.Tol,
		Seed:     opts.Seed,
		Balanced: true,
	})
	if err != nil {
		return nil, fmt.Errorf("fit classifier: %w", err)
	}
	log.Info("fitted classifier", "classes", clf.Classes, "iterations", clf.Iterations)

	report, predicted, err := Score(split.Test, enc, vec, clf)
	if err != nil {
		return nil, err
	}
	log.Info("evaluated", "accuracy", report.Accuracy, "f1", report.F1)

	return &Result{
		Encoder:     enc,
		Vectorizer:  vec,
		Classifier:  clf,
		Report:      report,
		TrainSize:   len(split.Train),
		TestSize:    len(split.Test),
		TestRecords: split.Test,
		Predicted:   predicted,
	}, nil
}

// Score predicts every record and evaluates against its label.
func Score(records []dataset.Record, enc *features.LabelEncoder, vec *features.TFIDF, clf *svm.Model) (*metrics.Report, []int, error) {
	yTrue, err := enc.EncodeAll(dataset.Labels(records))
	if err != nil {
		return nil, nil, err
	}

	yPred := make([]int, len(records))
	for i, r := range records {
		yPred[i] = clf.Predict(vec.Transform(r.Text))
	}

	report, err := metrics.Evaluate(yTrue, yPred, enc.Classes)
	if err != nil {
		return nil, nil, err
	}
	return report, yPred, nil
}

// Evaluate recomputes the held-out split of records with the same options
// used for training and scores an already fitted model on it.
func Evaluate(records []dataset.Record, opts Options, enc *features.LabelEncoder, vec *features.TFIDF, clf *svm.Model) (*metrics.Report, error) {
	split, err := StratifiedSplit(records, opts.TestSize, opts.Seed)
	if err != nil {
		return nil, err
	}
	report, _, err := Score(split.Test, enc, vec, clf)
	return report, err
}
