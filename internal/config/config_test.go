package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func freshLoader() *Loader {
	return &Loader{v: viper.New()}
}

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	assert.NoError(t, cfg.Validate())
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "csv", cfg.Output.Format)
	assert.Equal(t, 7779, cfg.Extractor.Seed)
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad log level", func(c *Config) { c.LogLevel = "trace" }},
		{"bad format", func(c *Config) { c.Output.Format = "xml" }},
		{"binarize threshold too high", func(c *Config) { c.OCR.BinarizeThreshold = 1.5 }},
		{"tiny max image size", func(c *Config) { c.OCR.MaxImageSize = 10 }},
		{"empty model", func(c *Config) { c.Extractor.Model = "" }},
		{"zero timeout", func(c *Config) { c.Extractor.TimeoutSec = 0 }},
		{"bad port", func(c *Config) { c.Server.Port = 70000 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestLoadWithFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "platmaster.yaml")
	content := []byte(`
log_level: debug
extractor:
  model: gpt-4o
  seed: 42
output:
  format: json
server:
  port: 9090
`)
	require.NoError(t, os.WriteFile(path, content, 0o600))

	cfg, err := freshLoader().LoadWithFile(path)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "gpt-4o", cfg.Extractor.Model)
	assert.Equal(t, 42, cfg.Extractor.Seed)
	assert.Equal(t, "json", cfg.Output.Format)
	assert.Equal(t, 9090, cfg.Server.Port)
	// Unset values fall back to defaults.
	assert.Equal(t, DefaultConfig().Server.MaxUploadMB, cfg.Server.MaxUploadMB)
}

func TestLoadWithFileMissing(t *testing.T) {
	_, err := freshLoader().LoadWithFile(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadWithFileInvalidConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "platmaster.yaml")
	require.NoError(t, os.WriteFile(path, []byte("log_level: trace\n"), 0o600))

	_, err := freshLoader().LoadWithFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "validation failed")
}

func TestGenerateDefaultConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "platmaster.yaml")
	require.NoError(t, GenerateDefaultConfigFile(path))

	cfg, err := freshLoader().LoadWithFile(path)
	require.NoError(t, err)
	assert.NoError(t, cfg.Validate())
}

func TestOCREngineConfigOverrides(t *testing.T) {
	cfg := DefaultConfig()
	cfg.OCR.DetectionModel = "/models/det.onnx"
	cfg.OCR.NumThreads = 2

	engineCfg := cfg.OCREngineConfig()
	assert.Equal(t, "/models/det.onnx", engineCfg.DetectorModelPath)
	assert.Equal(t, 2, engineCfg.NumThreads)
	assert.NotZero(t, engineCfg.RecognizeHeight, "untouched settings keep engine defaults")
}

func TestExtractorClientConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Extractor.AzureEndpoint = "https://example.openai.azure.com"
	cfg.Extractor.TimeoutSec = 30

	clientCfg := cfg.ExtractorClientConfig()
	assert.Equal(t, "https://example.openai.azure.com", clientCfg.AzureEndpoint)
	assert.Equal(t, "30s", clientCfg.Timeout.String())
	assert.Equal(t, 7779, clientCfg.Seed)
}
