package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"personagen/internal/config"
	"personagen/internal/tokens"
)

var (
	// Global flags
	verbose    bool
	configPath string
	ownerID    string

	// Logger
	logger *zap.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "personagen",
	Short: "personagen - personalized image generation from the terminal",
	Long: `personagen generates images from prompts with [TOKEN] personalization.

Prompts may contain markers like [FIRSTNAME] or [COMPANY]; they are resolved
against your saved token profile before the prompt reaches a provider. Calls
go through the managed gateway when one is configured and fall back to direct
provider APIs (OpenAI, Gemini, Stability) using locally configured keys.

Set provider keys via OPENAI_API_KEY, GEMINI_API_KEY, STABILITY_API_KEY, or
in the config file.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// The logger is configured from the config file's logging section;
		// a broken or missing file falls back to defaults so logging itself
		// never blocks startup.
		cfg, err := config.Load(configPath)
		if err != nil {
			cfg = config.DefaultConfig()
		}
		logger, err = buildLogger(cfg, verbose)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

// logLevel maps the configured logging level to a zap level. --verbose wins
// over the file; anything unrecognized keeps warnings visible.
func logLevel(cfg *config.Config, verbose bool) zapcore.Level {
	if verbose {
		return zapcore.DebugLevel
	}
	switch cfg.Logging.Level {
	case "debug":
		return zapcore.DebugLevel
	case "info":
		return zapcore.InfoLevel
	case "warn":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	}
	return zapcore.WarnLevel
}

// buildLogger builds the process logger from the logging config.
func buildLogger(cfg *config.Config, verbose bool) (*zap.Logger, error) {
	zapCfg := zap.NewProductionConfig()
	zapCfg.Level = zap.NewAtomicLevelAt(logLevel(cfg, verbose))
	if cfg.Logging.Format == "text" {
		zapCfg.Encoding = "console"
	}
	if cfg.Logging.File != "" {
		zapCfg.OutputPaths = []string{cfg.Logging.File}
	}
	return zapCfg.Build()
}

// loadConfig loads and validates configuration, honoring the --owner flag.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if ownerID != "" {
		cfg.Tokens.OwnerID = ownerID
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// buildPersister creates the configured persistence backend. "none" yields a
// nil persister, which disables persistence in the store.
func buildPersister(cfg *config.Config) (tokens.Persister, error) {
	switch cfg.Tokens.Backend {
	case "sqlite":
		return tokens.NewSQLitePersister(cfg.Tokens.DatabasePath)
	case "redis":
		return tokens.NewRedisPersister(tokens.RedisConfig{
			Addr:     cfg.Tokens.RedisAddr,
			Password: cfg.Tokens.RedisPassword,
		}), nil
	case "none", "":
		return nil, nil
	}
	return nil, fmt.Errorf("unknown tokens backend %q", cfg.Tokens.Backend)
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "personagen.yaml", "path to config file")
	rootCmd.PersistentFlags().StringVar(&ownerID, "owner", "", "token profile owner (overrides config)")

	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(tokensCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
