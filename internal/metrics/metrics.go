// Package metrics scores predictions against ground truth.
package metrics

import (
	"fmt"
	"strings"

	"github.com/solvaholic/msgclass/internal/classerr"
)

// ClassScore holds the per-class figures of a classification report.
type ClassScore struct {
	Label     string  `json:"label"`
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1        float64 `json:"f1"`
	Support   int     `json:"support"`
}

// Report is the evaluation of one set of predictions. Precision, Recall and
// F1 are support-weighted averages; a class with no predictions scores 0.
type Report struct {
	Accuracy  float64      `json:"accuracy"`
	Precision float64      `json:"precision"`
	Recall    float64      `json:"recall"`
	F1        float64      `json:"f1"`
	Support   int          `json:"support"`
	Classes   []ClassScore `json:"classes"`
	Confusion [][]int      `json:"confusion"` // rows true, columns predicted
}

// Evaluate compares yPred with yTrue. Codes index classes.
func Evaluate(yTrue, yPred []int, classes []string) (*Report, error) {
	if len(yTrue) != len(yPred) {
		return nil, fmt.Errorf("%w: %d true labels but %d predictions", classerr.ErrDataFormat, len(yTrue), len(yPred))
	}
	if len(yTrue) == 0 {
		return nil, fmt.Errorf("%w: nothing to evaluate", classerr.ErrInsufficientData)
	}

	k := len(classes)
	confusion := make([][]int, k)
	for i := range confusion {
		confusion[i] = make([]int, k)
	}
	correct := 0
	for i := range yTrue {
		t, p := yTrue[i], yPred[i]
		if t < 0 || t >= k || p < 0 || p >= k {
			return nil, fmt.Errorf("%w: label code out of range at %d", classerr.ErrDataFormat, i)
		}
		confusion[t][p]++
		if t == p {
			correct++
		}
	}

	r := &Report{
		Accuracy:  float64(correct) / float64(len(yTrue)),
		Support:   len(yTrue),
		Classes:   make([]ClassScore, k),
		Confusion: confusion,
	}
	for c := 0; c < k; c++ {
		tp := confusion[c][c]
		var predicted, support int
		for o := 0; o < k; o++ {
			predicted += confusion[o][c]
			support += confusion[c][o]
		}

		s := ClassScore{
			Label:     classes[c],
			Precision: ratio(tp, predicted),
			Recall:    ratio(tp, support),
			Support:   support,
		}
		if s.Precision+s.Recall > 0 {
			s.F1 = 2 * s.Precision * s.Recall / (s.Precision + s.Recall)
		}
		r.Classes[c] = s

		w := float64(support) / float64(len(yTrue))
		r.Precision += w * s.Precision
		r.Recall += w * s.Recall
		r.F1 += w * s.F1
	}
	return r, nil
}

// Macro returns unweighted means of the per-class precision, recall and F1.
func (r *Report) Macro() (precision, recall, f1 float64) {
	if len(r.Classes) == 0 {
		return 0, 0, 0
	}
	for _, s := range r.Classes {
		precision += s.Precision
		recall += s.Recall
		f1 += s.F1
	}
	n := float64(len(r.Classes))
	return precision / n, recall / n, f1 / n
}

// String renders the report in the familiar classification-report layout.
func (r *Report) String() string {
	width := len("weighted avg")
	for _, s := range r.Classes {
		if len(s.Label) > width {
			width = len(s.Label)
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%*s %9s %9s %9s %9s\n\n", width, "", "precision", "recall", "f1-score", "support")
	for _, s := range r.Classes {
		fmt.Fprintf(&b, "%*s %9.2f %9.2f %9.2f %9d\n", width, s.Label, s.Precision, s.Recall, s.F1, s.Support)
	}
	b.WriteString("\n")
	fmt.Fprintf(&b, "%*s %9s %9s %9.2f %9d\n", width, "accuracy", "", "", r.Accuracy, r.Support)
	mp, mr, mf := r.Macro()
	fmt.Fprintf(&b, "%*s %9.2f %9.2f %9.2f %9d\n", width, "macro avg", mp, mr, mf, r.Support)
	fmt.Fprintf(&b, "%*s %9.2f %9.2f %9.2f %9d\n", width, "weighted avg", r.Precision, r.Recall, r.F1, r.Support)
	return b.String()
}

// ConfusionString renders the confusion matrix as a labeled text grid.
func (r *Report) ConfusionString() string {
	width := 4
	for _, s := range r.Classes {
		if len(s.Label) > width {
			width = len(s.Label)
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%*s", width, "")
	for _, s := range r.Classes {
		fmt.Fprintf(&b, " %*s", width, s.Label)
	}
	b.WriteString("\n")
	for i, row := range r.Confusion {
		fmt.Fprintf(&b, "%*s", width, r.Classes[i].Label)
		for _, n := range row {
			fmt.Fprintf(&b, " %*d", width, n)
		}
		b.WriteString("\n")
	}
	return b.String()
}

func ratio(num, den int) float64 {
	if den == 0 {
		return 0
	}
	return float64(num) / float64(den)
}
