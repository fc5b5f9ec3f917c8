// Package classerr holds the sentinel errors shared by every pipeline stage.
// Producers wrap them with fmt.Errorf("%w: ...: %w", sentinel, cause) so
// callers can test with errors.Is.
package classerr

import "errors"

var (
	// ErrDataFormat means an input table or model file has the wrong shape.
	ErrDataFormat = errors.New("data format error")

	// ErrIO means a file could not be read or written.
	ErrIO = errors.New("io error")

	// ErrInsufficientData means a class has too few members to stratify.
	ErrInsufficientData = errors.New("insufficient data")

	// ErrModelNotTrained means no trained model bundle could be loaded.
	ErrModelNotTrained = errors.New("model not trained")

	// ErrPrediction means the vectorizer or classifier rejected an input.
	ErrPrediction = errors.New("prediction error")
)
