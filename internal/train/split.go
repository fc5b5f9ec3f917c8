package train

import (
	"fmt"
	"math"
	"math/rand"
	"sort"

	"github.com/solvaholic/msgclass/internal/classerr"
	"github.com/solvaholic/msgclass/internal/dataset"
)

// Split is a train/test partition. Both sides keep the input order.
type Split struct {
	Train []dataset.Record
	Test  []dataset.Record
}

// StratifiedSplit holds out testSize of every class for testing.
//
// Classes are visited in sorted order and each class's members are shuffled
// by a single RNG seeded with seed, so the same input and seed always give
// the same split. Each class contributes round(testSize*n) test rows,
// clamped to [1, n-1]; a class with fewer than 2 rows cannot be split.
func StratifiedSplit(records []dataset.Record, testSize float64, seed int64) (Split, error) {
	if testSize <= 0 || testSize >= 1 {
		return Split{}, fmt.Errorf("%w: test size %v outside (0, 1)", classerr.ErrDataFormat, testSize)
	}

	byClass := make(map[string][]int)
	for i, r := range records {
		byClass[r.Label] = append(byClass[r.Label], i)
	}
	if len(byClass) < 2 {
		return Split{}, fmt.Errorf("%w: need at least 2 classes, got %d", classerr.ErrInsufficientData, len(byClass))
	}

	labels := make([]string, 0, len(byClass))
	for l := range byClass {
		labels = append(labels, l)
	}
	sort.Strings(labels)

	for _, l := range labels {
		if n := len(byClass[l]); n < 2 {
			return Split{}, fmt.Errorf("%w: class %q has %d member; every class needs at least 2 for a stratified split",
				classerr.ErrInsufficientData, l, n)
		}
	}

	rng := rand.New(rand.NewSource(seed))
	test := make([]bool, len(records))
	for _, l := range labels {
		members := byClass[l]
		n := len(members)

		nTest := int(math.Round(testSize * float64(n)))
		if nTest < 1 {
			nTest = 1
		}
		if nTest > n-1 {
			nTest = n - 1
		}

		perm := rng.Perm(n)
		for _, p := range perm[:nTest] {
			test[members[p]] = true
		}
	}

	var s Split
	for i, r := range records {
		if test[i] {
			s.Test = append(s.Test, r)
		} else {
			s.Train = append(s.Train, r)
		}
	}
	return s, nil
}
