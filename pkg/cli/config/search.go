package config

import (
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/argus/pkg/service/search"
	"github.com/secmon-lab/argus/pkg/utils/httpclient"
	"github.com/urfave/cli/v3"
)

// Search holds configuration for the search providers
type Search struct {
	apiKey       string
	cx           string
	geminiAPIKey string
}

// Flags returns CLI flags for search configuration
func (s *Search) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "search-api-key",
			Usage:       "Google Custom Search API key",
			Sources:     cli.EnvVars("ARGUS_SEARCH_API_KEY"),
			Destination: &s.apiKey,
		},
		&cli.StringFlag{
			Name:        "search-cx",
			Usage:       "Google Custom Search engine ID",
			Sources:     cli.EnvVars("ARGUS_SEARCH_CX"),
			Destination: &s.cx,
		},
		&cli.StringFlag{
			Name:        "gemini-api-key",
			Usage:       "Gemini API key for the grounded search fallback",
			Sources:     cli.EnvVars("ARGUS_GEMINI_API_KEY"),
			Destination: &s.geminiAPIKey,
		},
	}
}

// Configure builds the search service: Custom Search as the primary
// provider, with the Gemini grounded fallback when its API key is set.
func (s *Search) Configure(app *AppConfig) (search.Service, error) {
	if s.apiKey == "" || s.cx == "" {
		return nil, goerr.New("search-api-key and search-cx are required")
	}

	primaryClient := httpclient.New(
		httpclient.WithMaxRetries(app.Retry.MaxRetries),
		httpclient.WithBackoff(
			time.Duration(app.Retry.BaseMS)*time.Millisecond,
			time.Duration(app.Retry.JitterMS)*time.Millisecond,
		),
	)

	primary := search.NewCustomSearch(s.apiKey, s.cx,
		search.WithNumResults(app.Search.NumResults),
		search.WithCustomSearchClient(primaryClient),
	)

	var fallback search.Provider
	if s.geminiAPIKey != "" {
		fallback = search.NewGroundedSearch(s.geminiAPIKey)
	}

	return search.New(primary, fallback), nil
}
