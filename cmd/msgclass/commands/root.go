package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/solvaholic/msgclass/internal/config"
	"github.com/solvaholic/msgclass/internal/db"
	"github.com/solvaholic/msgclass/internal/logging"
	"github.com/solvaholic/msgclass/internal/textprep"
)

var (
	// Global flags
	outputFormat string
	configPath   string
	logLevel     string

	// Resolved in PersistentPreRunE
	settings config.Settings
	logger   = logging.Discard()

	// newStemmer builds the stemmer used by newPreprocessor.
	newStemmer = textprep.NewSastrawiStemmer
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "msgclass",
	Short: "Classify Indonesian customer messages",
	Long: `msgclass sorts short Indonesian customer-service messages into categories
such as Information, Request and Problem.

The pipeline has three stages:
  - preprocess: clean the labeled raw CSV into a modeling table
  - train: fit a TF-IDF + linear SVM model and evaluate it on a held-out split
  - predict / batch: classify new messages with the trained model

Runs and predictions are recorded in a local SQLite history database.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: loadSettings,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "format", "f", "text", "Output format (text, json)")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default: ~/.msgclass/config)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error)")
}

func loadSettings(cmd *cobra.Command, args []string) error {
	if outputFormat != "text" && outputFormat != "json" {
		return fmt.Errorf("unknown format: %s", outputFormat)
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("failed to get working directory: %w", err)
	}

	settings, err = cfg.Resolve(cwd)
	if err != nil {
		return err
	}

	level := settings.LogLevel
	if logLevel != "" {
		level = logLevel
	}
	logger = logging.New(level)
	slog.SetDefault(logger)

	logger.Debug("loaded settings", "config", configPath, "models_dir", settings.Paths.ModelsDir)
	return nil
}

// newPreprocessor builds the text cleaner used by every stage.
func newPreprocessor() (*textprep.Preprocessor, error) {
	stops, err := textprep.ResolveStopwords(settings.Stoplist)
	if err != nil {
		return nil, err
	}
	return textprep.New(stops, newStemmer()), nil
}

// openHistory opens the history database. History is best effort: on
// failure it logs a warning and returns nil. It also returns nil when
// history.enabled is off.
func openHistory() *db.DB {
	if !settings.History {
		return nil
	}
	database, err := db.Open(settings.Paths.HistoryDB)
	if err != nil {
		logger.Warn("history database unavailable", "path", settings.Paths.HistoryDB, "error", err)
		return nil
	}
	return database
}

// render writes data as JSON when --format json is set and otherwise calls
// text with the command output (stdout unless redirected).
func render(data interface{}, text func(w io.Writer)) error {
	if outputFormat == "json" {
		return OutputJSON(data)
	}
	text(rootCmd.OutOrStdout())
	return nil
}

// OutputJSON writes JSON to the command output with pretty printing
func OutputJSON(data interface{}) error {
	output, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	fmt.Fprintln(rootCmd.OutOrStdout(), string(output))
	return nil
}

// OutputError writes error message to stderr
func OutputError(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
}

func separator(w io.Writer) {
	fmt.Fprintln(w, "----------------------------------------")
}
