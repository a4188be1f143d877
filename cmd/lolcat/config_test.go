package main

import (
	"flag"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jkbrsn/lolcat"
	"github.com/jkbrsn/lolcat/internal/app"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// resetFlags replaces the global flag set and flag values with fresh ones.
func resetFlags() {
	flag.CommandLine = flag.NewFlagSet(os.Args[0], flag.ContinueOnError)
	flag.CommandLine.SetOutput(io.Discard)

	textMessage = flag.String("text", "", "")
	timeout = flag.Duration("timeout", 0, "")
	colorArg = flag.String("color", "", "")
	force = flag.Bool("force", false, "")
	graphemes = flag.Bool("graphemes", false, "")
	configPath = flag.String("config", "", "")
	showVersion = flag.Bool("version", false, "")

	frequencyFlag = newTrackedFloatFlag(lolcat.DefaultFrequency)
	spreadFlag = newTrackedFloatFlag(lolcat.DefaultSpread)
	seedFlag = newTrackedIntFlag(0)
	tabWidthFlag = newTrackedIntFlag(app.DefaultTabWidth)
	workersFlag = newTrackedIntFlag(1)
	headerArguments = headerList{}
	verbosityLevel = newVerbosityCounter()

	registerFlags()
}

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "lolcat.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

// revive:disable:function-length table of flag combinations
func TestParseConfig(t *testing.T) {
	// These tests need to manipulate global flag state, so we can't run them in parallel
	origArgs := os.Args
	origCommandLine := flag.CommandLine
	defer func() {
		os.Args = origArgs
		flag.CommandLine = origCommandLine
	}()

	fullConfig := writeConfigFile(t, `
frequency: 0.5
spread: 8
seed: 99
color: always
graphemes: true
tab_width: 4
workers: 3
headers:
  - "X-From-File: yes"
timeout: 2s
`)
	badConfig := writeConfigFile(t, "unknown_key: 1\n")
	emptyConfig := writeConfigFile(t, "")

	tests := []struct {
		name      string
		args      []string
		wantErr   string
		errIs     error
		checkFunc func(*testing.T, *Config)
	}{
		{
			name:  "version flag",
			args:  []string{"cmd", "-version"},
			errIs: errVersionRequested,
		},
		{
			name:    "invalid frequency",
			args:    []string{"cmd", "-freq", "fast"},
			wantErr: "invalid value",
		},
		{
			name:    "invalid seed",
			args:    []string{"cmd", "-S", "1.5"},
			wantErr: "invalid value",
		},
		{
			name:    "invalid color option",
			args:    []string{"cmd", "-color", "invalid"},
			wantErr: "-color must be auto, always, or never",
		},
		{
			name:    "force with color never",
			args:    []string{"cmd", "-f", "-color", "never"},
			wantErr: "-force cannot be combined",
		},
		{
			name:    "header without colon",
			args:    []string{"cmd", "-H", "nope"},
			wantErr: "'Key: Value' format",
		},
		{
			name:    "missing config file",
			args:    []string{"cmd", "-config", filepath.Join(t.TempDir(), "missing.yaml")},
			wantErr: "error reading config file",
		},
		{
			name:    "unknown config key",
			args:    []string{"cmd", "-config", badConfig},
			wantErr: "error parsing config file",
		},
		{
			name: "defaults",
			args: []string{"cmd"},
			checkFunc: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 0.1, cfg.Params.Frequency)
				assert.Equal(t, 3.0, cfg.Params.Spread)
				assert.GreaterOrEqual(t, cfg.Params.Start, 0)
				assert.Less(t, cfg.Params.Start, 256)
				assert.Equal(t, "auto", cfg.ColorMode)
				assert.False(t, cfg.Graphemes)
				assert.Equal(t, 8, cfg.TabWidth)
				assert.Equal(t, 1, cfg.Workers)
				assert.Empty(t, cfg.Sources)
				assert.Zero(t, cfg.Timeout)
				assert.Equal(t, 0, cfg.Verbosity)
			},
		},
		{
			name: "long flags and sources",
			args: []string{
				"cmd", "-freq", "0.3", "-spread", "5", "-seed", "7",
				"-tab-width", "4", "-workers", "8", "-color", "NEVER",
				"a.txt", "-", "ws://localhost:8080",
			},
			checkFunc: func(t *testing.T, cfg *Config) {
				assert.Equal(t, lolcat.Params{Frequency: 0.3, Spread: 5, Start: 7}, cfg.Params)
				assert.Equal(t, 4, cfg.TabWidth)
				assert.Equal(t, 8, cfg.Workers)
				assert.Equal(t, "never", cfg.ColorMode)
				assert.Equal(t, []string{"a.txt", "-", "ws://localhost:8080"}, cfg.Sources)
			},
		},
		{
			name: "short aliases",
			args: []string{"cmd", "-F", "0.2", "-p", "6", "-S", "0", "-f"},
			checkFunc: func(t *testing.T, cfg *Config) {
				assert.Equal(t, lolcat.Params{Frequency: 0.2, Spread: 6, Start: 0}, cfg.Params)
				assert.Equal(t, "always", cfg.ColorMode)
			},
		},
		{
			name: "graphemes flag",
			args: []string{"cmd", "-graphemes"},
			checkFunc: func(t *testing.T, cfg *Config) {
				assert.True(t, cfg.Graphemes)
			},
		},
		{
			name: "websocket options",
			args: []string{
				"cmd", "-H", "Auth: Bearer token", "-header", "Origin: https://foo.com",
				"-text", "subscribe", "-timeout", "3s", "wss://example.com/feed",
			},
			checkFunc: func(t *testing.T, cfg *Config) {
				assert.Equal(t, []string{"Auth: Bearer token", "Origin: https://foo.com"}, cfg.Headers)
				assert.Equal(t, "subscribe", cfg.TextMessage)
				assert.Equal(t, 3*time.Second, cfg.Timeout)
			},
		},
		{
			name: "config file",
			args: []string{"cmd", "-config", fullConfig},
			checkFunc: func(t *testing.T, cfg *Config) {
				assert.Equal(t, lolcat.Params{Frequency: 0.5, Spread: 8, Start: 99}, cfg.Params)
				assert.Equal(t, "always", cfg.ColorMode)
				assert.True(t, cfg.Graphemes)
				assert.Equal(t, 4, cfg.TabWidth)
				assert.Equal(t, 3, cfg.Workers)
				assert.Equal(t, []string{"X-From-File: yes"}, cfg.Headers)
				assert.Equal(t, 2*time.Second, cfg.Timeout)
			},
		},
		{
			name: "flags override config file",
			args: []string{
				"cmd", "-config", fullConfig, "-freq", "0.9", "-S", "1",
				"-color", "never", "-timeout", "0", "-H", "X-From-Flag: yes",
				"-graphemes=false",
			},
			checkFunc: func(t *testing.T, cfg *Config) {
				assert.Equal(t, lolcat.Params{Frequency: 0.9, Spread: 8, Start: 1}, cfg.Params)
				assert.Equal(t, "never", cfg.ColorMode)
				assert.False(t, cfg.Graphemes)
				assert.Zero(t, cfg.Timeout)
				assert.Equal(t, []string{"X-From-File: yes", "X-From-Flag: yes"}, cfg.Headers)
			},
		},
		{
			name: "empty config file",
			args: []string{"cmd", "-config", emptyConfig, "-S", "5"},
			checkFunc: func(t *testing.T, cfg *Config) {
				assert.Equal(t, lolcat.Params{Frequency: 0.1, Spread: 3, Start: 5}, cfg.Params)
			},
		},
		{
			name: "verbosity",
			args: []string{"cmd", "-v=2", "file.txt"},
			checkFunc: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 2, cfg.Verbosity)
				assert.Equal(t, []string{"file.txt"}, cfg.Sources)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resetFlags()
			os.Args = tt.args

			cfg, err := parseConfig()

			if tt.errIs != nil || tt.wantErr != "" {
				require.Error(t, err)
				if tt.errIs != nil {
					assert.ErrorIs(t, err, tt.errIs)
				}
				if tt.wantErr != "" {
					assert.Contains(t, err.Error(), tt.wantErr)
				}
				return
			}

			require.NoError(t, err)
			require.NotNil(t, cfg)

			if tt.checkFunc != nil {
				tt.checkFunc(t, cfg)
			}
		})
	}
}
