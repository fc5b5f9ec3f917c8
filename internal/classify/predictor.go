// Package classify assigns categories to new messages using a trained
// model bundle.
package classify

import (
	"fmt"
	"strings"

	"github.com/solvaholic/msgclass/internal/classerr"
	"github.com/solvaholic/msgclass/internal/features"
	"github.com/solvaholic/msgclass/internal/model"
)

// TextCleaner normalizes raw input the same way training data was cleaned.
type TextCleaner interface {
	Text(text string) string
}

// Classifier picks a class code for a feature vector.
type Classifier interface {
	Predict(v features.Vector) int
}

// MarginScorer is implemented by classifiers that expose per-class
// decision values.
type MarginScorer interface {
	Margins(v features.Vector) []float64
}

// Margin is the raw decision value of one class. Margins are uncalibrated:
// larger means more confident, but they are not probabilities.
type Margin struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

// Predictor classifies text with a loaded bundle. It is read-only after
// construction and safe for concurrent use.
type Predictor struct {
	prep  TextCleaner
	enc   *features.LabelEncoder
	vec   *features.TFIDF
	clf   Classifier
	runID string
}

// Load reads the bundle at path. A missing bundle is ErrModelNotTrained.
func Load(path string, prep TextCleaner) (*Predictor, error) {
	b, err := model.Load(path)
	if err != nil {
		return nil, err
	}
	return New(b, prep), nil
}

// New builds a predictor from an already validated bundle.
func New(b *model.Bundle, prep TextCleaner) *Predictor {
	return &Predictor{
		prep:  prep,
		enc:   b.LabelEncoder,
		vec:   b.Vectorizer,
		clf:   b.Classifier,
		runID: b.RunID,
	}
}

// RunID identifies the training run that produced the model.
func (p *Predictor) RunID() string {
	return p.runID
}

// Classes returns the category names in code order.
func (p *Predictor) Classes() []string {
	return p.enc.Classes
}

// Predict returns the category of text.
func (p *Predictor) Predict(text string) (string, error) {
	v, err := p.vectorize(text)
	if err != nil {
		return "", err
	}
	return p.enc.Decode(p.clf.Predict(v))
}

// Margins returns the decision value of every class, in class-code order.
// It returns nil, nil when the classifier does not expose margins.
func (p *Predictor) Margins(text string) ([]Margin, error) {
	scorer, ok := p.clf.(MarginScorer)
	if !ok {
		return nil, nil
	}

	v, err := p.vectorize(text)
	if err != nil {
		return nil, err
	}

	values := scorer.Margins(v)
	if len(values) != p.enc.Len() {
		return nil, fmt.Errorf("%w: classifier returned %d margins for %d classes", classerr.ErrPrediction, len(values), p.enc.Len())
	}
	out := make([]Margin, len(values))
	for i, val := range values {
		out[i] = Margin{Label: p.enc.Classes[i], Value: val}
	}
	return out, nil
}

// Result is the outcome for one line of a batch.
type Result struct {
	Index int    `json:"index"` // 1-based
	Text  string `json:"text"`
	Label string `json:"label,omitempty"`
	Err   error  `json:"-"`
}

// PredictBatch classifies each line independently. A failing line records
// its error in Result.Err and the rest of the batch continues.
func (p *Predictor) PredictBatch(lines []string) []Result {
	results := make([]Result, len(lines))
	for i, line := range lines {
		label, err := p.Predict(line)
		results[i] = Result{Index: i + 1, Text: line, Label: label, Err: err}
	}
	return results
}

// PredictCategory loads the bundle at path and classifies a single text.
// It reloads the bundle on every call; keep a Predictor for repeated use.
func PredictCategory(path string, prep TextCleaner, text string) (string, error) {
	p, err := Load(path, prep)
	if err != nil {
		return "", err
	}
	return p.Predict(text)
}

func (p *Predictor) vectorize(text string) (features.Vector, error) {
	if strings.TrimSpace(text) == "" {
		return features.Vector{}, fmt.Errorf("%w: empty input text", classerr.ErrPrediction)
	}
	cleaned := text
	if p.prep != nil {
		cleaned = p.prep.Text(text)
	}
	return p.vec.Transform(cleaned), nil
}
