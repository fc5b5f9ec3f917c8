package metrics

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/solvaholic/msgclass/internal/classerr"
)

var classes = []string{"Information", "Problem", "Request"}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestEvaluate(t *testing.T) {
	yTrue := []int{0, 0, 1, 1, 1, 2}
	yPred := []int{0, 1, 1, 1, 0, 1}

	r, err := Evaluate(yTrue, yPred, classes)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}

	if !almostEqual(r.Accuracy, 3.0/6.0) {
		t.Errorf("accuracy = %v", r.Accuracy)
	}

	wantConfusion := [][]int{
		{1, 1, 0},
		{1, 2, 0},
		{0, 1, 0},
	}
	for i := range wantConfusion {
		for j := range wantConfusion[i] {
			if r.Confusion[i][j] != wantConfusion[i][j] {
				t.Fatalf("confusion = %v, want %v", r.Confusion, wantConfusion)
			}
		}
	}

	tests := []struct {
		label     string
		precision float64
		recall    float64
		support   int
	}{
		{"Information", 0.5, 0.5, 2},
		{"Problem", 0.5, 2.0 / 3.0, 3},
		{"Request", 0, 0, 1},
	}
	for i, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			s := r.Classes[i]
			if s.Label != tt.label || s.Support != tt.support {
				t.Errorf("got %+v", s)
			}
			if !almostEqual(s.Precision, tt.precision) || !almostEqual(s.Recall, tt.recall) {
				t.Errorf("precision/recall = %v/%v, want %v/%v", s.Precision, s.Recall, tt.precision, tt.recall)
			}
		})
	}

	// Never-predicted class scores zero instead of dividing by zero.
	if r.Classes[2].F1 != 0 {
		t.Errorf("expected zero F1 for Request, got %v", r.Classes[2].F1)
	}

	wantRecall := (2*0.5 + 3*(2.0/3.0)) / 6
	if !almostEqual(r.Recall, wantRecall) {
		t.Errorf("weighted recall = %v, want %v", r.Recall, wantRecall)
	}
}

func TestEvaluateErrors(t *testing.T) {
	tests := []struct {
		name    string
		yTrue   []int
		yPred   []int
		wantErr error
	}{
		{"length mismatch", []int{0}, []int{0, 1}, classerr.ErrDataFormat},
		{"empty", nil, nil, classerr.ErrInsufficientData},
		{"out of range", []int{0}, []int{7}, classerr.ErrDataFormat},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Evaluate(tt.yTrue, tt.yPred, classes)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestReportString(t *testing.T) {
	r, err := Evaluate([]int{0, 1, 2}, []int{0, 1, 1}, classes)
	if err != nil {
		t.Fatal(err)
	}
	out := r.String()

	for _, want := range []string{"precision", "recall", "f1-score", "support", "Information", "accuracy", "macro avg", "weighted avg", "0.67"} {
		if !strings.Contains(out, want) {
			t.Errorf("report missing %q:\n%s", want, out)
		}
	}

	grid := r.ConfusionString()
	if lines := strings.Split(strings.TrimSpace(grid), "\n"); len(lines) != 4 {
		t.Errorf("expected header plus 3 rows, got:\n%s", grid)
	}
}

func TestPlotConfusion(t *testing.T) {
	r, err := Evaluate([]int{0, 1, 2, 2}, []int{0, 1, 2, 1}, classes)
	if err != nil {
		t.Fatal(err)
	}

	path := filepath.Join(t.TempDir(), "results", "confusion_matrix.png")
	if err := PlotConfusion(r, path); err != nil {
		t.Fatalf("PlotConfusion: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(data) < 8 || string(data[1:4]) != "PNG" {
		t.Errorf("output is not a PNG (%d bytes)", len(data))
	}
}

func TestPlotConfusionEmpty(t *testing.T) {
	err := PlotConfusion(&Report{}, filepath.Join(t.TempDir(), "cm.png"))
	if !errors.Is(err, classerr.ErrInsufficientData) {
		t.Errorf("expected ErrInsufficientData, got %v", err)
	}
}
