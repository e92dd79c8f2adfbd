package search

import (
	"context"
	"errors"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/argus/pkg/domain/types"
	"github.com/secmon-lab/argus/pkg/utils/httpclient"
	"github.com/secmon-lab/argus/pkg/utils/logging"
)

type service struct {
	primary  Provider
	fallback Provider
}

// New builds a search service that tries primary first and switches to
// fallback only when the primary keeps failing through all retries,
// which is how a sustained quota exhaustion looks from the outside.
// fallback may be nil, in which case primary failures are returned as-is.
func New(primary, fallback Provider) Service {
	return &service{
		primary:  primary,
		fallback: fallback,
	}
}

func (s *service) Search(ctx context.Context, query string) ([]Result, types.SourceAPI, error) {
	results, err := s.primary.Search(ctx, query)
	if err == nil {
		return results, types.SourceCustomSearch, nil
	}

	if s.fallback == nil || !errors.Is(err, httpclient.ErrRetryExhausted) {
		return nil, "", goerr.Wrap(err, "search failed", goerr.V("query", query))
	}

	logging.From(ctx).Warn("primary search exhausted retries, falling back to grounded search",
		"query", query,
		"error", err,
	)

	results, err = s.fallback.Search(ctx, query)
	if err != nil {
		return nil, "", goerr.Wrap(err, "fallback search failed", goerr.V("query", query))
	}

	return results, types.SourceGemini, nil
}
