package interfaces

import (
	"context"

	"github.com/secmon-lab/argus/pkg/domain/model"
	"github.com/secmon-lab/argus/pkg/domain/types"
)

// CaseRepository defines the interface for Case data access
type CaseRepository interface {
	// Create persists a new case. The repository stamps CreatedAt and
	// UpdatedAt to the same instant.
	Create(ctx context.Context, c *model.Case) (*model.Case, error)

	// Get retrieves a case by ID
	Get(ctx context.Context, id types.CaseID) (*model.Case, error)

	// List retrieves all cases, newest first
	List(ctx context.Context) ([]*model.Case, error)

	// Update applies a partial patch to an existing case and refreshes
	// UpdatedAt. Updating a missing case is a hard error and must not
	// create a record.
	Update(ctx context.Context, id types.CaseID, patch model.CasePatch) (*model.Case, error)

	// Delete removes a case. The durable record may already be absent;
	// that is not an error.
	Delete(ctx context.Context, id types.CaseID) error
}

// Repository defines the interface for data persistence backends
type Repository interface {
	Case() CaseRepository
	Close() error
}
