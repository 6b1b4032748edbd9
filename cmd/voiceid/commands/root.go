package commands

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/haivivi/voiceid/cmd/voiceid/internal/config"
)

var (
	// Global flags
	verbose   bool
	configDir string

	// Global configuration (loaded at init time)
	globalConfig *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "voiceid",
	Short: "Speaker voiceprint enrollment and identification",
	Long: `voiceid - manage a persistent store of speaker voiceprints.

Speakers are enrolled with an embedding vector produced by a speaker
embedding model; identification finds the enrolled speaker most similar
to a query embedding by cosine similarity.

Configuration is stored in the OS config directory:
  macOS:   ~/Library/Application Support/voiceid/
  Linux:   ~/.config/voiceid/
  Windows: %AppData%/voiceid/

Examples:
  # Enroll a speaker from an embedding file
  voiceid register alice -f alice.json --name "Alice"

  # Identify an unknown voice
  voiceid identify -f query.json --threshold 0.6

  # Enroll a directory of embeddings, one speaker per file
  voiceid batch-register ./embeddings

  # Run the HTTP API
  voiceid serve --listen :8721`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", "", "configuration directory (default: OS config dir)")
}

// configLoadErr stores the error from config.Load() for deferred reporting.
var configLoadErr error

func initConfig() {
	var cfg *config.Config
	var err error
	if configDir != "" {
		cfg, err = config.LoadFrom(configDir)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		configLoadErr = err
		return
	}
	globalConfig = cfg
}

// GetConfig returns the global configuration, or an error if it could not be
// loaded (e.g., HOME not set).
func GetConfig() (*config.Config, error) {
	if globalConfig == nil {
		if configLoadErr != nil {
			return nil, fmt.Errorf("config not available: %w", configLoadErr)
		}
		cfg, err := config.Load()
		if err != nil {
			return nil, fmt.Errorf("config not available: %w", err)
		}
		globalConfig = cfg
	}
	return globalConfig, nil
}

// newLogger builds the process logger; verbose mode enables debug level.
func newLogger() *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}
