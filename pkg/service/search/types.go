package search

import (
	"context"

	"github.com/secmon-lab/argus/pkg/domain/types"
)

// Result is one search hit before it is folded into a case
type Result struct {
	URL     string
	Title   string
	Snippet string
}

// Provider executes one query against a single upstream search API
type Provider interface {
	Search(ctx context.Context, query string) ([]Result, error)
}

// Service runs a query against the primary provider and falls back to the
// grounded-search provider when the primary stays rate-limited. The
// returned tag identifies which provider produced the results.
type Service interface {
	Search(ctx context.Context, query string) ([]Result, types.SourceAPI, error)
}
