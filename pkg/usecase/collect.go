package usecase

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/argus/pkg/domain/model"
	"github.com/secmon-lab/argus/pkg/domain/types"
	"github.com/secmon-lab/argus/pkg/service/search"
	"github.com/secmon-lab/argus/pkg/utils/logging"
	"golang.org/x/sync/errgroup"
)

// CollectResult reports the outcome of a single-query collection run.
type CollectResult struct {
	Added     int             `json:"added"`
	Source    types.SourceAPI `json:"source"`
	Collected int             `json:"collected"`
}

// QueryOutcome reports how one query fared during a full collection run.
// A failed query records zero results and carries the failure text.
type QueryOutcome struct {
	Query  string          `json:"query"`
	Added  int             `json:"added"`
	Source types.SourceAPI `json:"source,omitempty"`
	Error  string          `json:"error,omitempty"`
}

// Collect runs one search query for the case and appends results not yet
// present, deduplicated by URL.
func (uc *UseCases) Collect(ctx context.Context, id types.CaseID, query string) (*CollectResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, goerr.Wrap(ErrEmptyQuery, "cannot collect")
	}

	c, err := uc.GetCase(ctx, id)
	if err != nil {
		return nil, err
	}

	results, source, err := uc.search.Search(ctx, query)
	if err != nil {
		return nil, goerr.Wrap(err, "collection failed", goerr.V(CaseIDKey, id), goerr.V(QueryKey, query))
	}

	entries := toEntries(query, source, results)
	added := c.MergeCollected(entries)

	updated, err := uc.repo.Case().Update(ctx, id, model.CasePatch{CollectedData: c.CollectedData})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to store collected data", goerr.V(CaseIDKey, id))
	}

	logging.From(ctx).Info("collected search results",
		"caseID", id,
		"query", query,
		"added", added,
		"source", source,
	)

	return &CollectResult{
		Added:     added,
		Source:    source,
		Collected: len(updated.CollectedData),
	}, nil
}

// CollectAll runs every generated query of the case through a bounded
// worker pool. A failing query records zero results and never cancels its
// siblings. Results are appended in completion order.
func (uc *UseCases) CollectAll(ctx context.Context, id types.CaseID) ([]QueryOutcome, error) {
	c, err := uc.GetCase(ctx, id)
	if err != nil {
		return nil, err
	}
	if len(c.GeneratedQueries) == 0 {
		return nil, goerr.Wrap(ErrNoQueries, "nothing to collect", goerr.V(CaseIDKey, id))
	}

	logger := logging.From(ctx)

	var (
		mu       sync.Mutex
		outcomes []QueryOutcome
		entries  []model.CollectedEntry
	)

	// The group context dies when Wait returns; the post-collection Update
	// still needs the caller's context.
	eg, groupCtx := errgroup.WithContext(ctx)
	eg.SetLimit(collectWorkers)

	for _, query := range c.GeneratedQueries {
		eg.Go(func() error {
			results, source, err := uc.search.Search(groupCtx, query)

			mu.Lock()
			defer mu.Unlock()

			if err != nil {
				logger.Warn("query failed during collection",
					"caseID", id,
					"query", query,
					"error", err,
				)
				outcomes = append(outcomes, QueryOutcome{Query: query, Error: err.Error()})
				return nil
			}

			batch := toEntries(query, source, results)
			entries = append(entries, batch...)
			outcomes = append(outcomes, QueryOutcome{Query: query, Added: len(batch), Source: source})
			return nil
		})
	}

	// Workers never return errors; Wait only flushes the pool
	_ = eg.Wait()

	added := c.MergeCollected(entries)
	if _, err := uc.repo.Case().Update(ctx, id, model.CasePatch{CollectedData: c.CollectedData}); err != nil {
		return nil, goerr.Wrap(err, "failed to store collected data", goerr.V(CaseIDKey, id))
	}

	logger.Info("collection run finished",
		"caseID", id,
		"queries", len(c.GeneratedQueries),
		"added", added,
	)

	return outcomes, nil
}

// CollectedCount reports how many entries the case has accumulated so far.
func (uc *UseCases) CollectedCount(ctx context.Context, id types.CaseID) (int, error) {
	c, err := uc.GetCase(ctx, id)
	if err != nil {
		return 0, err
	}
	return len(c.CollectedData), nil
}

// AddManualEntry appends one hand-entered record to the case. When no URL
// is given a synthetic one is derived from the case ID and current time so
// the entry survives URL deduplication.
func (uc *UseCases) AddManualEntry(ctx context.Context, id types.CaseID, name, content, url string) (*model.CollectedEntry, error) {
	name = strings.TrimSpace(name)
	content = strings.TrimSpace(content)
	if name == "" || content == "" {
		return nil, goerr.Wrap(ErrMissingField, "manual entry requires both name and content", goerr.V(CaseIDKey, id))
	}

	c, err := uc.GetCase(ctx, id)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	url = strings.TrimSpace(url)
	if url == "" {
		url = fmt.Sprintf("manual-input://%s/%d", id, now.UnixMilli())
	}

	entry := model.CollectedEntry{
		Query:     model.ManualInputQuery,
		URL:       url,
		Title:     name,
		Snippet:   content,
		SourceAPI: types.SourceGemini,
		Timestamp: now,
	}

	c.MergeCollected([]model.CollectedEntry{entry})
	if _, err := uc.repo.Case().Update(ctx, id, model.CasePatch{CollectedData: c.CollectedData}); err != nil {
		return nil, goerr.Wrap(err, "failed to store manual entry", goerr.V(CaseIDKey, id))
	}

	return &entry, nil
}

func toEntries(query string, source types.SourceAPI, results []search.Result) []model.CollectedEntry {
	now := time.Now().UTC()
	entries := make([]model.CollectedEntry, 0, len(results))
	for _, r := range results {
		entries = append(entries, model.CollectedEntry{
			Query:     query,
			URL:       r.URL,
			Title:     r.Title,
			Snippet:   r.Snippet,
			SourceAPI: source,
			Timestamp: now,
		})
	}
	return entries
}
