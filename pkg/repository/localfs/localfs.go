package localfs

import (
	"context"

	"github.com/secmon-lab/argus/pkg/domain/interfaces"
)

// Repository is the file-backed persistence backend. Each case lives in its
// own JSON file so writes stay independent and the data directory can be
// inspected with plain tools.
type Repository struct {
	caseRepo *caseRepository
}

var _ interfaces.Repository = &Repository{}

// New opens the data directory, creating it when missing, and eagerly loads
// every case file into the in-memory cache. Reads never touch the disk
// after this scan.
func New(ctx context.Context, dir string) (*Repository, error) {
	caseRepo, err := newCaseRepository(ctx, dir)
	if err != nil {
		return nil, err
	}

	return &Repository{caseRepo: caseRepo}, nil
}

func (r *Repository) Case() interfaces.CaseRepository {
	return r.caseRepo
}

func (r *Repository) Close() error {
	return nil
}
