package config

import (
	"os"

	"github.com/m-mizutani/goerr/v2"
	"github.com/pelletier/go-toml/v2"
	"github.com/urfave/cli/v3"
)

// AppConfig holds operational tunables loaded from an optional TOML file
type AppConfig struct {
	path string

	Retry  RetryConfig  `toml:"retry"`
	Search SearchConfig `toml:"search"`
}

// RetryConfig tunes the resilient HTTP client
type RetryConfig struct {
	MaxRetries int `toml:"max_retries"`
	BaseMS     int `toml:"base_ms"`
	JitterMS   int `toml:"jitter_ms"`
}

// SearchConfig tunes the search providers
type SearchConfig struct {
	NumResults int `toml:"num_results"`
}

// Flags returns CLI flags for application configuration
func (a *AppConfig) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "config",
			Usage:       "Path to TOML configuration file",
			Sources:     cli.EnvVars("ARGUS_CONFIG"),
			Destination: &a.path,
		},
	}
}

// Validate checks if the AppConfig is valid
func (a *AppConfig) Validate() error {
	if a.Retry.MaxRetries < 0 {
		return goerr.New("retry.max_retries must not be negative", goerr.V("value", a.Retry.MaxRetries))
	}
	if a.Retry.BaseMS <= 0 {
		return goerr.New("retry.base_ms must be positive", goerr.V("value", a.Retry.BaseMS))
	}
	if a.Retry.JitterMS <= 0 {
		return goerr.New("retry.jitter_ms must be positive", goerr.V("value", a.Retry.JitterMS))
	}
	if a.Search.NumResults < 1 || a.Search.NumResults > 10 {
		return goerr.New("search.num_results must be between 1 and 10", goerr.V("value", a.Search.NumResults))
	}
	return nil
}

// Configure loads the TOML file when one is given and fills defaults for
// everything left unset.
func (a *AppConfig) Configure() error {
	a.Retry = RetryConfig{MaxRetries: 2, BaseMS: 250, JitterMS: 200}
	a.Search = SearchConfig{NumResults: 5}

	if a.path != "" {
		// #nosec G304 - path is expected to be provided by CLI argument
		data, err := os.ReadFile(a.path)
		if err != nil {
			return goerr.Wrap(err, "failed to read config file", goerr.V("path", a.path))
		}
		if err := toml.Unmarshal(data, a); err != nil {
			return goerr.Wrap(err, "failed to parse TOML config", goerr.V("path", a.path))
		}
	}

	if err := a.Validate(); err != nil {
		return goerr.Wrap(err, "config validation failed", goerr.V("path", a.path))
	}

	return nil
}
