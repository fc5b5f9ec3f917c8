package features

import (
	"fmt"
	"sort"

	"github.com/solvaholic/msgclass/internal/classerr"
)

// LabelEncoder maps category names to integer codes. Code i is Classes[i];
// classes are sorted.
type LabelEncoder struct {
	Classes []string `json:"classes"`

	index map[string]int
}

// FitLabelEncoder learns the distinct sorted labels.
func FitLabelEncoder(labels []string) (*LabelEncoder, error) {
	seen := make(map[string]struct{})
	for _, l := range labels {
		seen[l] = struct{}{}
	}
	if len(seen) == 0 {
		return nil, fmt.Errorf("%w: no labels to encode", classerr.ErrInsufficientData)
	}

	classes := make([]string, 0, len(seen))
	for l := range seen {
		classes = append(classes, l)
	}
	sort.Strings(classes)

	e := &LabelEncoder{Classes: classes}
	e.buildIndex()
	return e, nil
}

// Len returns the number of classes.
func (e *LabelEncoder) Len() int {
	return len(e.Classes)
}

// Encode returns the code of label.
func (e *LabelEncoder) Encode(label string) (int, error) {
	if e.index == nil {
		e.buildIndex()
	}
	code, ok := e.index[label]
	if !ok {
		return -1, fmt.Errorf("%w: unknown label %q", classerr.ErrDataFormat, label)
	}
	return code, nil
}

// EncodeAll encodes every label, failing on the first unknown one.
func (e *LabelEncoder) EncodeAll(labels []string) ([]int, error) {
	out := make([]int, len(labels))
	for i, l := range labels {
		code, err := e.Encode(l)
		if err != nil {
			return nil, err
		}
		out[i] = code
	}
	return out, nil
}

// Decode returns the label for code.
func (e *LabelEncoder) Decode(code int) (string, error) {
	if code < 0 || code >= len(e.Classes) {
		return "", fmt.Errorf("%w: label code %d out of range [0, %d)", classerr.ErrPrediction, code, len(e.Classes))
	}
	return e.Classes[code], nil
}

// Validate checks an encoder decoded from disk.
func (e *LabelEncoder) Validate() error {
	if len(e.Classes) == 0 {
		return fmt.Errorf("%w: label encoder has no classes", classerr.ErrDataFormat)
	}
	if !sort.StringsAreSorted(e.Classes) {
		return fmt.Errorf("%w: label encoder classes are not sorted", classerr.ErrDataFormat)
	}
	e.buildIndex()
	if len(e.index) != len(e.Classes) {
		return fmt.Errorf("%w: label encoder has duplicate classes", classerr.ErrDataFormat)
	}
	return nil
}

func (e *LabelEncoder) buildIndex() {
	e.index = make(map[string]int, len(e.Classes))
	for i, c := range e.Classes {
		e.index[c] = i
	}
}
