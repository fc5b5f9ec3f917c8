// Package svm fits one-vs-rest linear support vector machines over sparse
// feature vectors.
//
// Each binary problem is the L2-regularized hinge-loss SVM solved in its dual
// by coordinate descent, with the bias folded in as a constant feature. Every
// sample i is bounded by C*weight(y[i]) in all binary problems, whether it is
// the positive or a negative side.
package svm

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/solvaholic/msgclass/internal/classerr"
	"github.com/solvaholic/msgclass/internal/features"
)

// Default solver settings.
const (
	DefaultC       = 1.0
	DefaultMaxIter = 1000
	DefaultTol     = 0.1
)

// Options controls Fit.
type Options struct {
	C        float64
	MaxIter  int
	Tol      float64
	Seed     int64
	Balanced bool // weight classes by n / (k * count)
}

// Model is a fitted one-vs-rest linear classifier. Row k of Weights and
// Bias[k] score class code k.
type Model struct {
	Classes    int         `json:"classes"`
	Dim        int         `json:"dim"`
	Weights    [][]float64 `json:"weights"`
	Bias       []float64   `json:"bias"`
	Iterations []int       `json:"iterations,omitempty"`
}

// ClassWeights returns balanced class weights n / (k * count(c)).
func ClassWeights(y []int, numClasses int) []float64 {
	counts := make([]int, numClasses)
	for _, c := range y {
		counts[c]++
	}
	weights := make([]float64, numClasses)
	for c, n := range counts {
		if n == 0 {
			weights[c] = 1
			continue
		}
		weights[c] = float64(len(y)) / (float64(numClasses) * float64(n))
	}
	return weights
}

// Fit trains one binary SVM per class code in [0, numClasses).
func Fit(x []features.Vector, y []int, numClasses, dim int, opts Options) (*Model, error) {
	if len(x) != len(y) {
		return nil, fmt.Errorf("%w: %d samples but %d labels", classerr.ErrDataFormat, len(x), len(y))
	}
	if len(x) == 0 {
		return nil, fmt.Errorf("%w: no training samples", classerr.ErrInsufficientData)
	}
	if numClasses < 2 {
		return nil, fmt.Errorf("%w: need at least 2 classes, got %d", classerr.ErrInsufficientData, numClasses)
	}
	for i, c := range y {
		if c < 0 || c >= numClasses {
			return nil, fmt.Errorf("%w: sample %d has label code %d outside [0, %d)", classerr.ErrDataFormat, i, c, numClasses)
		}
	}
	if opts.C <= 0 {
		opts.C = DefaultC
	}
	if opts.MaxIter <= 0 {
		opts.MaxIter = DefaultMaxIter
	}
	if opts.Tol <= 0 {
		opts.Tol = DefaultTol
	}

	weights := make([]float64, numClasses)
	for c := range weights {
		weights[c] = 1
	}
	if opts.Balanced {
		weights = ClassWeights(y, numClasses)
	}

	// Diagonal of the dual Hessian; the bias feature contributes 1.
	qd := make([]float64, len(x))
	upper := make([]float64, len(x))
	for i, v := range x {
		qd[i] = v.SquaredNorm() + 1
		upper[i] = opts.C * weights[y[i]]
	}

	rng := rand.New(rand.NewSource(opts.Seed))
	m := &Model{
		Classes:    numClasses,
		Dim:        dim,
		Weights:    make([][]float64, numClasses),
		Bias:       make([]float64, numClasses),
		Iterations: make([]int, numClasses),
	}
	for k := 0; k < numClasses; k++ {
		w, b, iter := solveBinary(x, y, k, qd, upper, dim, opts, rng)
		m.Weights[k] = w
		m.Bias[k] = b
		m.Iterations[k] = iter
	}
	return m, nil
}

// solveBinary runs dual coordinate descent for class k against the rest.
// upper[i] is the box bound of sample i.
func solveBinary(x []features.Vector, y []int, k int, qd, upper []float64, dim int, opts Options, rng *rand.Rand) ([]float64, float64, int) {
	n := len(x)
	w := make([]float64, dim)
	var b float64
	alpha := make([]float64, n)
	sign := make([]float64, n)
	for i, c := range y {
		if c == k {
			sign[i] = 1
		} else {
			sign[i] = -1
		}
	}

	iter := 0
	for iter < opts.MaxIter {
		pgMax, pgMin := math.Inf(-1), math.Inf(1)

		for _, i := range rng.Perm(n) {
			g := sign[i]*(x[i].Dot(w)+b) - 1

			var pg float64
			switch {
			case alpha[i] == 0:
				pg = math.Min(g, 0)
			case alpha[i] == upper[i]:
				pg = math.Max(g, 0)
			default:
				pg = g
			}
			pgMax = math.Max(pgMax, pg)
			pgMin = math.Min(pgMin, pg)

			if math.Abs(pg) > 1e-12 {
				old := alpha[i]
				alpha[i] = math.Min(math.Max(alpha[i]-g/qd[i], 0), upper[i])
				d := (alpha[i] - old) * sign[i]
				x[i].AddScaled(w, d)
				b += d
			}
		}

		iter++
		if pgMax-pgMin <= opts.Tol {
			break
		}
	}
	return w, b, iter
}

// Margins returns the decision value of every class for v.
func (m *Model) Margins(v features.Vector) []float64 {
	out := make([]float64, m.Classes)
	for k := range out {
		out[k] = v.Dot(m.Weights[k]) + m.Bias[k]
	}
	return out
}

// Predict returns the class code with the largest margin. Ties go to the
// lower code.
func (m *Model) Predict(v features.Vector) int {
	return Argmax(m.Margins(v))
}

// Argmax returns the index of the largest value, or -1 for an empty slice.
func Argmax(values []float64) int {
	best := -1
	for i, val := range values {
		if best < 0 || val > values[best] {
			best = i
		}
	}
	return best
}

// Validate checks a model decoded from disk.
func (m *Model) Validate() error {
	if m.Classes < 2 {
		return fmt.Errorf("%w: classifier has %d classes", classerr.ErrDataFormat, m.Classes)
	}
	if len(m.Weights) != m.Classes || len(m.Bias) != m.Classes {
		return fmt.Errorf("%w: classifier has %d weight rows and %d biases for %d classes",
			classerr.ErrDataFormat, len(m.Weights), len(m.Bias), m.Classes)
	}
	for k, row := range m.Weights {
		if len(row) != m.Dim {
			return fmt.Errorf("%w: classifier row %d has %d weights, want %d", classerr.ErrDataFormat, k, len(row), m.Dim)
		}
	}
	return nil
}
