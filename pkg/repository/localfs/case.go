package localfs

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/argus/pkg/domain/model"
	"github.com/secmon-lab/argus/pkg/domain/types"
	"github.com/secmon-lab/argus/pkg/utils/logging"
)

// ErrNotFound is returned when a case does not exist in the cache
var ErrNotFound = goerr.New("case not found")

type caseRepository struct {
	dir   string
	mu    sync.RWMutex
	cases map[types.CaseID]*model.Case
}

func newCaseRepository(ctx context.Context, dir string) (*caseRepository, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, goerr.Wrap(err, "failed to create case directory", goerr.V("dir", dir))
	}

	r := &caseRepository{
		dir:   dir,
		cases: make(map[types.CaseID]*model.Case),
	}

	if err := r.warmup(ctx); err != nil {
		return nil, err
	}

	return r, nil
}

// warmup scans the case directory once and populates the cache. Corrupt
// files are logged and skipped so one bad record cannot block startup.
func (r *caseRepository) warmup(ctx context.Context) error {
	entries, err := os.ReadDir(r.dir)
	if err != nil {
		return goerr.Wrap(err, "failed to scan case directory", goerr.V("dir", r.dir))
	}

	logger := logging.From(ctx)
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}

		path := filepath.Join(r.dir, entry.Name())
		raw, err := os.ReadFile(path)
		if err != nil {
			logger.Error("failed to read case file", "path", path, "error", err.Error())
			continue
		}

		var c model.Case
		if err := json.Unmarshal(raw, &c); err != nil {
			logger.Error("failed to decode case file", "path", path, "error", err.Error())
			continue
		}
		if c.ID == "" {
			c.ID = types.CaseID(strings.TrimSuffix(entry.Name(), ".json"))
		}

		r.cases[c.ID] = &c
	}

	logger.Info("loaded cases from disk", "dir", r.dir, "count", len(r.cases))
	return nil
}

func (r *caseRepository) casePath(id types.CaseID) string {
	return filepath.Join(r.dir, id.String()+".json")
}

// save writes the full case record, pretty-printed for human inspection.
// The write goes through a temp file and rename so a crash mid-write never
// leaves a truncated record behind.
func (r *caseRepository) save(c *model.Case) error {
	raw, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return goerr.Wrap(err, "failed to encode case", goerr.V("id", c.ID))
	}

	path := r.casePath(c.ID)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return goerr.Wrap(err, "failed to write case file", goerr.V("path", tmp))
	}
	if err := os.Rename(tmp, path); err != nil {
		return goerr.Wrap(err, "failed to replace case file", goerr.V("path", path))
	}

	return nil
}

// saveOrLog persists the case and swallows write failures: the in-memory
// cache stays authoritative for the running process, at the cost of losing
// the latest mutation across a restart. Callers accept this gap.
func (r *caseRepository) saveOrLog(ctx context.Context, c *model.Case) {
	if err := r.save(c); err != nil {
		logging.From(ctx).Error("failed to persist case, in-memory state kept",
			"id", c.ID,
			"error", err.Error(),
		)
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
	r.saveOrLog(ctx, created)

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
	r.saveOrLog(ctx, updated)

	return updated.Clone(), nil
}

func (r *caseRepository) Delete(ctx context.Context, id types.CaseID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.cases, id)

	if err := os.Remove(r.casePath(id)); err != nil && !os.IsNotExist(err) {
		logging.From(ctx).Warn("failed to remove case file", "id", id, "error", err.Error())
	}

	return nil
}
