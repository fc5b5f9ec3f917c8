// Package model persists a trained classifier as a single versioned JSON
// bundle.
package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/solvaholic/msgclass/internal/classerr"
	"github.com/solvaholic/msgclass/internal/features"
	"github.com/solvaholic/msgclass/internal/metrics"
	"github.com/solvaholic/msgclass/internal/svm"
	"github.com/solvaholic/msgclass/internal/train"
)

// SchemaVersion is bumped whenever the bundle layout changes incompatibly.
const SchemaVersion = 1

// FileName is the bundle's name inside the models directory.
const FileName = "model.json"

// Bundle is everything needed to classify new text, plus the provenance
// of the run that produced it.
type Bundle struct {
	SchemaVersion int                    `json:"schema_version"`
	RunID         string                 `json:"run_id"`
	TrainedAt     time.Time              `json:"trained_at"`
	DataPath      string                 `json:"data_path,omitempty"`
	Config        train.Options          `json:"config"`
	LabelEncoder  *features.LabelEncoder `json:"label_encoder"`
	Vectorizer    *features.TFIDF        `json:"vectorizer"`
	Classifier    *svm.Model             `json:"classifier"`
	Metrics       *metrics.Report        `json:"metrics"`
}

// New wraps a training result in a bundle with a fresh run ID.
func New(res *train.Result, opts train.Options, dataPath string) *Bundle {
	return &Bundle{
		SchemaVersion: SchemaVersion,
		RunID:         ulid.Make().String(),
		TrainedAt:     time.Now().UTC(),
		DataPath:      dataPath,
		Config:        opts,
		LabelEncoder:  res.Encoder,
		Vectorizer:    res.Vectorizer,
		Classifier:    res.Classifier,
		Metrics:       res.Report,
	}
}

// Path returns the bundle location inside dir.
func Path(dir string) string {
	return filepath.Join(dir, FileName)
}

// Save writes b to dir/model.json. The bundle is written to a temporary
// file in the same directory, synced and renamed over the old one, so a
// failed save leaves any previous bundle intact.
func Save(dir string, b *Bundle) (string, error) {
	if err := b.Validate(); err != nil {
		return "", err
	}

	// Marshal to JSON with indentation for human readability
	data, err := json.MarshalIndent(b, "", "  ")
	if err != nil {
		return "", fmt.Errorf("%w: marshal bundle: %w", classerr.ErrDataFormat, err)
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("%w: create models directory: %w", classerr.ErrIO, err)
	}

	path := Path(dir)
	tmp, err := os.CreateTemp(dir, FileName+".*.tmp")
	if err != nil {
		return "", fmt.Errorf("%w: create temp file: %w", classerr.ErrIO, err)
	}
	tempPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tempPath)
		return "", fmt.Errorf("%w: write bundle: %w", classerr.ErrIO, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tempPath)
		return "", fmt.Errorf("%w: sync bundle: %w", classerr.ErrIO, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tempPath)
		return "", fmt.Errorf("%w: close bundle: %w", classerr.ErrIO, err)
	}

	if err := os.Rename(tempPath, path); err != nil {
		os.Remove(tempPath) // Clean up temp file
		return "", fmt.Errorf("%w: rename bundle: %w", classerr.ErrIO, err)
	}

	return path, nil
}

// Load reads and validates the bundle at path. A missing file is
// ErrModelNotTrained; anything unreadable or inconsistent is ErrDataFormat.
func Load(path string) (*Bundle, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: no model bundle at %s; run 'msgclass train' first", classerr.ErrModelNotTrained, path)
		}
		return nil, fmt.Errorf("%w: read %s: %w", classerr.ErrIO, path, err)
	}

	var b Bundle
	if err := json.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("%w: decode %s: %w", classerr.ErrDataFormat, path, err)
	}
	if err := b.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &b, nil
}

// Validate checks that the parts of b fit together.
func (b *Bundle) Validate() error {
	if b.SchemaVersion != SchemaVersion {
		return fmt.Errorf("%w: bundle schema version %d, want %d", classerr.ErrDataFormat, b.SchemaVersion, SchemaVersion)
	}
	if b.LabelEncoder == nil || b.Vectorizer == nil || b.Classifier == nil {
		return fmt.Errorf("%w: bundle is missing a component", classerr.ErrDataFormat)
	}
	if err := b.LabelEncoder.Validate(); err != nil {
		return err
	}
	if err := b.Vectorizer.Validate(); err != nil {
		return err
	}
	if err := b.Classifier.Validate(); err != nil {
		return err
	}
	if b.Classifier.Classes != b.LabelEncoder.Len() {
		return fmt.Errorf("%w: classifier has %d classes, label encoder has %d",
			classerr.ErrDataFormat, b.Classifier.Classes, b.LabelEncoder.Len())
	}
	if b.Classifier.Dim != b.Vectorizer.Dim() {
		return fmt.Errorf("%w: classifier expects %d features, vectorizer produces %d",
			classerr.ErrDataFormat, b.Classifier.Dim, b.Vectorizer.Dim())
	}
	return nil
}
