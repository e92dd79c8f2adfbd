package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/argus/pkg/domain/model"
	"github.com/secmon-lab/argus/pkg/domain/types"
)

// ErrNotFound is returned when a case does not exist
var ErrNotFound = goerr.New("case not found")

type caseRepository struct {
	mu    sync.RWMutex
	cases map[types.CaseID]*model.Case
}

func newCaseRepository() *caseRepository {
	return &caseRepository{
		cases: make(map[types.CaseID]*model.Case),
	}
}

func (r *caseRepository) Create(ctx context.Context, c *model.Case) (*model.Case, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	created := c.Clone()
	if created.ID == "" {
		created.ID = types.NewCaseID()
	}
	if _, exists := r.cases[created.ID]; exists {
		return nil, goerr.New("case already exists", goerr.V("id", created.ID))
	}

	now := time.Now().UTC()
	created.CreatedAt = now
	created.UpdatedAt = now
	if created.GeneratedQueries == nil {
		created.GeneratedQueries = []string{}
	}
	if created.CollectedData == nil {
		created.CollectedData = []model.CollectedEntry{}
	}

	r.cases[created.ID] = created
	return created.Clone(), nil
}

func (r *caseRepository) Get(ctx context.Context, id types.CaseID) (*model.Case, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, exists := r.cases[id]
	if !exists {
		return nil, goerr.Wrap(ErrNotFound, "case not found", goerr.V("id", id))
	}

	return c.Clone(), nil
}

func (r *caseRepository) List(ctx context.Context) ([]*model.Case, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	cases := make([]*model.Case, 0, len(r.cases))
	for _, c := range r.cases {
		cases = append(cases, c.Clone())
	}

	sort.Slice(cases, func(i, j int) bool {
		return cases[i].CreatedAt.After(cases[j].CreatedAt)
	})

	return cases, nil
}

func (r *caseRepository) Update(ctx context.Context, id types.CaseID, patch model.CasePatch) (*model.Case, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, exists := r.cases[id]
	if !exists {
		return nil, goerr.Wrap(ErrNotFound, "case not found", goerr.V("id", id))
	}

	updated := existing.Clone()
	patch.Apply(updated)
	updated.UpdatedAt = time.Now().UTC()

	r.cases[id] = updated
	return updated.Clone(), nil
}

func (r *caseRepository) Delete(ctx context.Context, id types.CaseID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.cases, id)
	return nil
}
