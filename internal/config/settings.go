package config

import (
	"fmt"
	"path/filepath"
)

// Default values used when the config file does not set a key.
const (
	DefaultTextColumn  = "text"
	DefaultTestSize    = 0.2
	DefaultRandomState = 42
	DefaultMaxFeatures = 5000
	DefaultNgramMax    = 2
	DefaultSVMC        = 1.0
	DefaultSVMMaxIter  = 1000
	DefaultSVMTol      = 0.1

	DefaultChatHost        = "http://localhost:11434"
	DefaultChatModel       = "gemma3:1b"
	DefaultChatTemperature = 0.7
	DefaultChatMaxTokens   = 500
)

// Settings is the resolved, typed view of the configuration.
type Settings struct {
	Paths      Paths
	TextColumn string
	Stoplist   string

	TestSize    float64
	RandomState int64
	MaxFeatures int
	NgramMax    int

	SVMC       float64
	SVMMaxIter int
	SVMTol     float64

	Chat Chat

	LogLevel string
	History  bool // record runs and predictions in Paths.HistoryDB
}

// Paths locates every file the pipeline reads or writes.
type Paths struct {
	RawData       string
	ProcessedData string
	ModelsDir     string
	ResultsDir    string
	HistoryDB     string
}

// ModelFile is the single model bundle inside ModelsDir.
func (p Paths) ModelFile() string {
	return filepath.Join(p.ModelsDir, "model.json")
}

// ConfusionMatrixImage is where training renders the confusion matrix.
func (p Paths) ConfusionMatrixImage() string {
	return filepath.Join(p.ResultsDir, "confusion_matrix.png")
}

// Chat holds the settings of the chat front-end.
type Chat struct {
	Host        string
	Model       string
	Temperature float64
	MaxTokens   int
}

// Resolve applies fallbacks and returns typed settings. Relative default
// paths are rooted at baseDir (usually the working directory).
func (c *Config) Resolve(baseDir string) (Settings, error) {
	dataDir := filepath.Join(baseDir, "data", "clean")

	historyDefault := filepath.Join(baseDir, "history.db")
	if home, err := HomeDir(); err == nil {
		historyDefault = filepath.Join(home, "history.db")
	}

	s := Settings{
		Paths: Paths{
			RawData:       c.GetStringWithFallback("paths.raw_data", filepath.Join(dataDir, "question_list_labeled.csv")),
			ProcessedData: c.GetStringWithFallback("paths.processed_data", filepath.Join(dataDir, "question_list_modeling.csv")),
			ModelsDir:     c.GetStringWithFallback("paths.models_dir", filepath.Join(baseDir, "models")),
			ResultsDir:    c.GetStringWithFallback("paths.results_dir", filepath.Join(baseDir, "results")),
			HistoryDB:     c.GetStringWithFallback("paths.history_db", historyDefault),
		},
		TextColumn: c.GetStringWithFallback("data.text_column", DefaultTextColumn),
		Stoplist:   c.GetString("preprocess.stoplist"),

		TestSize:    c.GetFloatWithFallback("train.test_size", DefaultTestSize),
		RandomState: int64(c.GetIntWithFallback("train.random_state", DefaultRandomState)),
		MaxFeatures: c.GetIntWithFallback("tfidf.max_features", DefaultMaxFeatures),
		NgramMax:    c.GetIntWithFallback("tfidf.ngram_max", DefaultNgramMax),

		SVMC:       c.GetFloatWithFallback("svm.c", DefaultSVMC),
		SVMMaxIter: c.GetIntWithFallback("svm.max_iter", DefaultSVMMaxIter),
		SVMTol:     c.GetFloatWithFallback("svm.tol", DefaultSVMTol),

		Chat: Chat{
			Host:        c.GetStringWithFallback("chat.host", DefaultChatHost),
			Model:       c.GetStringWithFallback("chat.model", DefaultChatModel),
			Temperature: c.GetFloatWithFallback("chat.temperature", DefaultChatTemperature),
			MaxTokens:   c.GetIntWithFallback("chat.max_tokens", DefaultChatMaxTokens),
		},

		LogLevel: c.GetStringWithFallback("log.level", "info"),
		History:  !c.HasKey("history.enabled") || c.GetBool("history.enabled"),
	}

	if s.TestSize <= 0 || s.TestSize >= 1 {
		return Settings{}, fmt.Errorf("train.test_size must be in (0, 1), got %v", s.TestSize)
	}
	if s.MaxFeatures <= 0 {
		return Settings{}, fmt.Errorf("tfidf.max_features must be positive, got %d", s.MaxFeatures)
	}
	if s.NgramMax < 1 {
		return Settings{}, fmt.Errorf("tfidf.ngram_max must be >= 1, got %d", s.NgramMax)
	}
	if s.SVMC <= 0 {
		return Settings{}, fmt.Errorf("svm.c must be positive, got %v", s.SVMC)
	}

	return s, nil
}
