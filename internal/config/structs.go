//nolint:lll
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/plat-tools/platmaster/internal/export"
	"github.com/plat-tools/platmaster/internal/extract/openai"
	"github.com/plat-tools/platmaster/internal/ocr"
)

// Config represents the complete configuration for the platmaster application.
// It covers all commands (extract, batch, serve) and loads from configuration
// files, environment variables, and command-line flags.
type Config struct {
	// Global settings
	LogLevel string `mapstructure:"log_level" yaml:"log_level" json:"log_level"`
	Verbose  bool   `mapstructure:"verbose" yaml:"verbose" json:"verbose"`

	// OCR engine configuration
	OCR OCRConfig `mapstructure:"ocr" yaml:"ocr" json:"ocr"`

	// Structured extraction backend configuration
	Extractor ExtractorConfig `mapstructure:"extractor" yaml:"extractor" json:"extractor"`

	// Output configuration
	Output OutputConfig `mapstructure:"output" yaml:"output" json:"output"`

	// Server configuration (for serve command)
	Server ServerConfig `mapstructure:"server" yaml:"server" json:"server"`

	// Batch processing configuration
	Batch BatchConfig `mapstructure:"batch" yaml:"batch" json:"batch"`
}

// OCRConfig contains detection and recognition settings.
type OCRConfig struct {
	DetectionModel    string  `mapstructure:"detection_model" yaml:"detection_model" json:"detection_model"`
	RecognitionModel  string  `mapstructure:"recognition_model" yaml:"recognition_model" json:"recognition_model"`
	Dictionary        string  `mapstructure:"dictionary" yaml:"dictionary" json:"dictionary"`
	MaxImageSize      int     `mapstructure:"max_image_size" yaml:"max_image_size" json:"max_image_size"`
	BinarizeThreshold float32 `mapstructure:"binarize_threshold" yaml:"binarize_threshold" json:"binarize_threshold"`
	BoxMinConfidence  float64 `mapstructure:"box_min_confidence" yaml:"box_min_confidence" json:"box_min_confidence"`
	MinTextConfidence float64 `mapstructure:"min_text_confidence" yaml:"min_text_confidence" json:"min_text_confidence"`
	NumThreads        int     `mapstructure:"num_threads" yaml:"num_threads" json:"num_threads"`
}

// ExtractorConfig contains LLM backend settings. API keys come from the
// environment (OPENAI_API_KEY or AZURE_OPENAI_API_KEY), never from files.
type ExtractorConfig struct {
	BaseURL       string `mapstructure:"base_url" yaml:"base_url" json:"base_url"`
	AzureEndpoint string `mapstructure:"azure_endpoint" yaml:"azure_endpoint" json:"azure_endpoint"`
	APIVersion    string `mapstructure:"api_version" yaml:"api_version" json:"api_version"`
	Model         string `mapstructure:"model" yaml:"model" json:"model"`
	Seed          int    `mapstructure:"seed" yaml:"seed" json:"seed"`
	TimeoutSec    int    `mapstructure:"timeout_sec" yaml:"timeout_sec" json:"timeout_sec"`
	MaxTextChars  int    `mapstructure:"max_text_chars" yaml:"max_text_chars" json:"max_text_chars"`
}

// OutputConfig contains export settings.
type OutputConfig struct {
	Format       string `mapstructure:"format" yaml:"format" json:"format"`
	File         string `mapstructure:"file" yaml:"file" json:"file"`
	ArtifactsDir string `mapstructure:"artifacts_dir" yaml:"artifacts_dir" json:"artifacts_dir"`
	DropDir      string `mapstructure:"drop_dir" yaml:"drop_dir" json:"drop_dir"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host            string `mapstructure:"host" yaml:"host" json:"host"`
	Port            int    `mapstructure:"port" yaml:"port" json:"port"`
	CORSOrigin      string `mapstructure:"cors_origin" yaml:"cors_origin" json:"cors_origin"`
	MaxUploadMB     int    `mapstructure:"max_upload_mb" yaml:"max_upload_mb" json:"max_upload_mb"`
	TimeoutSec      int    `mapstructure:"timeout_sec" yaml:"timeout_sec" json:"timeout_sec"`
	ShutdownTimeout int    `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout" json:"shutdown_timeout"`
}

// BatchConfig contains batch processing settings.
type BatchConfig struct {
	OutputDir       string `mapstructure:"output_dir" yaml:"output_dir" json:"output_dir"`
	ContinueOnError bool   `mapstructure:"continue_on_error" yaml:"continue_on_error" json:"continue_on_error"`
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() Config {
	ocrDefaults := ocr.DefaultConfig()
	return Config{
		LogLevel: "info",
		Verbose:  false,
		OCR: OCRConfig{
			DetectionModel:    ocrDefaults.DetectorModelPath,
			RecognitionModel:  ocrDefaults.RecognizerModelPath,
			Dictionary:        ocrDefaults.DictPath,
			MaxImageSize:      ocrDefaults.MaxImageSize,
			BinarizeThreshold: ocrDefaults.BinarizeThreshold,
			BoxMinConfidence:  ocrDefaults.BoxMinConfidence,
			MinTextConfidence: ocrDefaults.MinTextConfidence,
			NumThreads:        ocrDefaults.NumThreads,
		},
		Extractor: ExtractorConfig{
			Model:      "gpt-4.1",
			Seed:       openai.DefaultSeed,
			TimeoutSec: 120,
		},
		Output: OutputConfig{
			Format: "csv",
		},
		Server: ServerConfig{
			Host:            "localhost",
			Port:            8080,
			CORSOrigin:      "*",
			MaxUploadMB:     50,
			TimeoutSec:      300,
			ShutdownTimeout: 10,
		},
		Batch: BatchConfig{
			ContinueOnError: true,
		},
	}
}

// Validate checks the configuration for inconsistencies.
func (c *Config) Validate() error {
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log_level %q", c.LogLevel)
	}

	if _, err := export.ParseFormat(c.Output.Format); err != nil {
		return err
	}

	if c.OCR.BinarizeThreshold <= 0 || c.OCR.BinarizeThreshold >= 1 {
		return fmt.Errorf("ocr.binarize_threshold must be in (0, 1), got %v", c.OCR.BinarizeThreshold)
	}
	if c.OCR.BoxMinConfidence < 0 || c.OCR.BoxMinConfidence > 1 {
		return fmt.Errorf("ocr.box_min_confidence must be in [0, 1], got %v", c.OCR.BoxMinConfidence)
	}
	if c.OCR.MaxImageSize < 64 {
		return fmt.Errorf("ocr.max_image_size too small: %d", c.OCR.MaxImageSize)
	}

	if c.Extractor.Model == "" {
		return fmt.Errorf("extractor.model must not be empty")
	}
	if c.Extractor.TimeoutSec <= 0 {
		return fmt.Errorf("extractor.timeout_sec must be positive, got %d", c.Extractor.TimeoutSec)
	}

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d", c.Server.Port)
	}
	if c.Server.MaxUploadMB < 1 {
		return fmt.Errorf("server.max_upload_mb must be positive, got %d", c.Server.MaxUploadMB)
	}
	return nil
}

// OCREngineConfig maps the file/env settings onto the engine configuration.
func (c *Config) OCREngineConfig() ocr.Config {
	cfg := ocr.DefaultConfig()
	if c.OCR.DetectionModel != "" {
		cfg.DetectorModelPath = c.OCR.DetectionModel
	}
	if c.OCR.RecognitionModel != "" {
		cfg.RecognizerModelPath = c.OCR.RecognitionModel
	}
	if c.OCR.Dictionary != "" {
		cfg.DictPath = c.OCR.Dictionary
	}
	if c.OCR.MaxImageSize > 0 {
		cfg.MaxImageSize = c.OCR.MaxImageSize
	}
	if c.OCR.BinarizeThreshold > 0 {
		cfg.BinarizeThreshold = c.OCR.BinarizeThreshold
	}
	if c.OCR.BoxMinConfidence > 0 {
		cfg.BoxMinConfidence = c.OCR.BoxMinConfidence
	}
	cfg.MinTextConfidence = c.OCR.MinTextConfidence
	if c.OCR.NumThreads > 0 {
		cfg.NumThreads = c.OCR.NumThreads
	}
	return cfg
}

// ExtractorClientConfig maps the file/env settings onto the OpenAI client
// configuration. The API key is resolved from the environment by the client.
func (c *Config) ExtractorClientConfig() openai.Config {
	return openai.Config{
		BaseURL:       c.Extractor.BaseURL,
		AzureEndpoint: c.Extractor.AzureEndpoint,
		APIVersion:    c.Extractor.APIVersion,
		Model:         c.Extractor.Model,
		Seed:          c.Extractor.Seed,
		Timeout:       time.Duration(c.Extractor.TimeoutSec) * time.Second,
		MaxTextChars:  c.Extractor.MaxTextChars,
	}
}
