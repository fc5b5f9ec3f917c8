package features

import "math"

// Vector is a sparse feature vector. Indices are strictly increasing.
type Vector struct {
	Indices []int     `json:"indices"`
	Values  []float64 `json:"values"`
}

// Len returns the number of stored (non-zero) entries.
func (v Vector) Len() int {
	return len(v.Indices)
}

// Dot returns the inner product of v with a dense weight vector.
func (v Vector) Dot(w []float64) float64 {
	var sum float64
	for k, idx := range v.Indices {
		sum += v.Values[k] * w[idx]
	}
	return sum
}

// SquaredNorm returns the squared L2 norm of v.
func (v Vector) SquaredNorm() float64 {
	var sum float64
	for _, x := range v.Values {
		sum += x * x
	}
	return sum
}

// AddScaled performs w += scale * v.
func (v Vector) AddScaled(w []float64, scale float64) {
	for k, idx := range v.Indices {
		w[idx] += scale * v.Values[k]
	}
}

func (v *Vector) normalize() {
	n := math.Sqrt(v.SquaredNorm())
	if n == 0 {
		return
	}
	for k := range v.Values {
		v.Values[k] /= n
	}
}
