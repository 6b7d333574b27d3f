package cmd

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plat-tools/platmaster/internal/config"
)

func TestRootCommandHasSubcommands(t *testing.T) {
	names := map[string]bool{}
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"extract", "batch", "serve", "config"} {
		assert.True(t, names[want], "missing subcommand %s", want)
	}
}

func TestExtractRequiresExactlyOnePDF(t *testing.T) {
	require.Error(t, extractCmd.Args(extractCmd, nil))
	require.Error(t, extractCmd.Args(extractCmd, []string{"a.pdf", "b.pdf"}))
	assert.NoError(t, extractCmd.Args(extractCmd, []string{"plat.pdf"}))
}

func TestBatchRequiresAtLeastOnePath(t *testing.T) {
	require.Error(t, batchCmd.Args(batchCmd, nil))
	assert.NoError(t, batchCmd.Args(batchCmd, []string{"plats/"}))
}

func TestLogLevelFor(t *testing.T) {
	tests := []struct {
		name     string
		cfg      *config.Config
		expected slog.Level
	}{
		{"nil config", nil, slog.LevelInfo},
		{"debug", &config.Config{LogLevel: "debug"}, slog.LevelDebug},
		{"warn", &config.Config{LogLevel: "warn"}, slog.LevelWarn},
		{"error", &config.Config{LogLevel: "error"}, slog.LevelError},
		{"default", &config.Config{LogLevel: "info"}, slog.LevelInfo},
		{"verbose wins", &config.Config{LogLevel: "error", Verbose: true}, slog.LevelDebug},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, logLevelFor(tt.cfg))
		})
	}
}

func TestConfigPathsCommand(t *testing.T) {
	var out bytes.Buffer
	configPathsCmd.SetOut(&out)
	configPathsCmd.Run(configPathsCmd, nil)
	assert.Contains(t, out.String(), ".")
	assert.Contains(t, out.String(), "/etc/platmaster")
}
