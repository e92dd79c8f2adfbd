package config

import (
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/argus/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

// Sentry holds configuration for error reporting
type Sentry struct {
	dsn string
	env string
}

// Flags returns CLI flags for Sentry configuration
func (s *Sentry) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "sentry-dsn",
			Usage:       "Sentry DSN for error reporting (disabled when empty)",
			Sources:     cli.EnvVars("ARGUS_SENTRY_DSN"),
			Destination: &s.dsn,
		},
		&cli.StringFlag{
			Name:        "sentry-env",
			Usage:       "Sentry environment name",
			Value:       "production",
			Sources:     cli.EnvVars("ARGUS_SENTRY_ENV"),
			Destination: &s.env,
		},
	}
}

// Configure initializes the Sentry SDK when a DSN is set. The returned
// closer flushes buffered events.
func (s *Sentry) Configure(version string) (func(), error) {
	if s.dsn == "" {
		return func() {}, nil
	}

	if err := sentry.Init(sentry.ClientOptions{
		Dsn:         s.dsn,
		Environment: s.env,
		Release:     version,
	}); err != nil {
		return nil, goerr.Wrap(err, "failed to initialize sentry")
	}

	logging.Default().Info("Sentry error reporting enabled", "env", s.env)

	return func() {
		sentry.Flush(2 * time.Second)
	}, nil
}
