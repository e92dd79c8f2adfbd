package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/argus/pkg/cli/config"
)

func TestAppConfigDefaults(t *testing.T) {
	cfg := config.NewAppConfigForTest("")
	gt.NoError(t, cfg.Configure()).Required()

	gt.Value(t, cfg.Retry.MaxRetries).Equal(2)
	gt.Value(t, cfg.Retry.BaseMS).Equal(250)
	gt.Value(t, cfg.Retry.JitterMS).Equal(200)
	gt.Value(t, cfg.Search.NumResults).Equal(5)
}

func TestAppConfigLoad(t *testing.T) {
	tests := []struct {
		name    string
		content string
		check   func(t *testing.T, cfg *config.AppConfig)
		wantErr bool
	}{
		{
			name: "full overrides",
			content: `
[retry]
max_retries = 5
base_ms = 100
jitter_ms = 50

[search]
num_results = 8
`,
			check: func(t *testing.T, cfg *config.AppConfig) {
				gt.Value(t, cfg.Retry.MaxRetries).Equal(5)
				gt.Value(t, cfg.Retry.BaseMS).Equal(100)
				gt.Value(t, cfg.Retry.JitterMS).Equal(50)
				gt.Value(t, cfg.Search.NumResults).Equal(8)
			},
		},
		{
			name: "partial file keeps defaults for the rest",
			content: `
[retry]
max_retries = 0
base_ms = 100
jitter_ms = 50
`,
			check: func(t *testing.T, cfg *config.AppConfig) {
				gt.Value(t, cfg.Retry.MaxRetries).Equal(0)
				gt.Value(t, cfg.Search.NumResults).Equal(5)
			},
		},
		{
			name: "negative retries rejected",
			content: `
[retry]
max_retries = -1
base_ms = 100
jitter_ms = 50
`,
			wantErr: true,
		},
		{
			name: "num_results out of range",
			content: `
[search]
num_results = 50
`,
			wantErr: true,
		},
		{
			name:    "malformed TOML",
			content: `[retry`,
			wantErr: true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.toml")
			gt.NoError(t, os.WriteFile(path, []byte(tc.content), 0600)).Required()

			cfg := config.NewAppConfigForTest(path)
			err := cfg.Configure()
			if tc.wantErr {
				gt.Error(t, err)
				return
			}
			gt.NoError(t, err).Required()
			tc.check(t, cfg)
		})
	}
}

func TestAppConfigMissingFile(t *testing.T) {
	cfg := config.NewAppConfigForTest(filepath.Join(t.TempDir(), "absent.toml"))
	gt.Error(t, cfg.Configure())
}

func TestLoggerConfigure(t *testing.T) {
	t.Run("valid console logger", func(t *testing.T) {
		logger := config.NewLoggerForTest("debug", "console", "stderr")
		closer, err := logger.Configure()
		gt.NoError(t, err).Required()
		closer()
	})

	t.Run("json to file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "argus.log")
		logger := config.NewLoggerForTest("info", "json", path)
		closer, err := logger.Configure()
		gt.NoError(t, err).Required()
		closer()

		_, statErr := os.Stat(path)
		gt.NoError(t, statErr)
	})

	t.Run("invalid level", func(t *testing.T) {
		logger := config.NewLoggerForTest("verbose", "console", "stderr")
		_, err := logger.Configure()
		gt.Error(t, err)
	})

	t.Run("invalid format", func(t *testing.T) {
		logger := config.NewLoggerForTest("info", "xml", "stderr")
		_, err := logger.Configure()
		gt.Error(t, err)
	})
}
