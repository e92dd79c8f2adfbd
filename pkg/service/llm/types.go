package llm

import (
	"context"

	"github.com/secmon-lab/argus/pkg/domain/model"
)

// Service defines the LLM operations behind the investigation workflow
type Service interface {
	// GenerateQueries proposes search queries for the investigation task
	GenerateQueries(ctx context.Context, task string) ([]string, error)

	// GenerateVariants proposes name, email and username variants for the
	// given identity hint
	GenerateVariants(ctx context.Context, input string) (*model.Variants, error)

	// Synthesize builds structured profiles from collected search results.
	// Oversized inputs are condensed in batches before the final pass.
	Synthesize(ctx context.Context, task string, entries []model.CollectedEntry) ([]model.Profile, error)
}
