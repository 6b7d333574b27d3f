// Package cmd implements the platmaster command-line interface.
package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/plat-tools/platmaster/internal/config"
	"github.com/plat-tools/platmaster/internal/version"
)

var (
	cfgFile      string
	configLoader *config.Loader
	globalConfig *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "platmaster",
	Short: "Directional survey extraction from scanned well plats",
	Long: `platmaster turns scanned well plat PDFs into structured directional
survey records. Pages are rasterized, run through an ONNX OCR engine, and the
transcripts are handed to an LLM backend that fills a fixed survey schema.
Per-page records are merged into one document record and exported as CSV or
JSON, optionally dropped into a GIS watch directory.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		setupLogging(GetConfig())
	},
}

// Execute runs the root command. The version string is resolved here so
// ldflags values set by main are already in place.
func Execute() error {
	rootCmd.Version = version.String()
	return rootCmd.Execute()
}

// GetRootCommand exposes the root command for tests.
func GetRootCommand() *cobra.Command {
	return rootCmd
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "",
		fmt.Sprintf("config file (default searches for %s.yaml)", config.ConfigFileName))
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "enable verbose (debug) logging")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")

	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	_ = viper.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level"))
}

// initConfig loads the configuration before any command runs.
func initConfig() {
	configLoader = config.NewLoader()

	var err error
	if cfgFile != "" {
		globalConfig, err = configLoader.LoadWithFile(cfgFile)
	} else {
		globalConfig, err = configLoader.Load()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}
}

// GetConfig returns the effective configuration. It re-unmarshals from viper
// so values bound to command flags take precedence over file and env values.
func GetConfig() *config.Config {
	if configLoader == nil {
		initConfig()
	}
	var cfg config.Config
	if err := configLoader.GetViper().Unmarshal(&cfg); err != nil {
		return globalConfig
	}
	return &cfg
}

// GetConfigLoader exposes the active loader.
func GetConfigLoader() *config.Loader {
	if configLoader == nil {
		initConfig()
	}
	return configLoader
}

func setupLogging(cfg *config.Config) {
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevelFor(cfg),
	}))
	slog.SetDefault(logger)
}

func logLevelFor(cfg *config.Config) slog.Level {
	if cfg == nil {
		return slog.LevelInfo
	}
	if cfg.Verbose {
		return slog.LevelDebug
	}
	switch strings.ToLower(cfg.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
