package model

import (
	"time"

	"github.com/secmon-lab/argus/pkg/domain/types"
)

// ManualInputQuery marks collected entries that came from manual input
// instead of a search query.
const ManualInputQuery = "MANUAL_INPUT"

// Case represents one investigation session: the target description, the
// generated search queries, the collected raw snippets, and the synthesized
// analysis. The persisted JSON layout matches this struct field for field.
type Case struct {
	ID               types.CaseID     `json:"caseId" firestore:"caseId"`
	Task             string           `json:"task" firestore:"task"`
	GeneratedQueries []string         `json:"generatedQueries" firestore:"generatedQueries"`
	CollectedData    []CollectedEntry `json:"collectedData" firestore:"collectedData"`
	Analysis         *string          `json:"analysis" firestore:"analysis"`
	CreatedAt        time.Time        `json:"createdAt" firestore:"createdAt"`
	UpdatedAt        time.Time        `json:"updatedAt" firestore:"updatedAt"`
}

// CollectedEntry is one snippet gathered from a search provider or manual
// input. Entries are unique by URL within a case.
type CollectedEntry struct {
	Query     string          `json:"query" firestore:"query"`
	URL       string          `json:"url" firestore:"url"`
	Title     string          `json:"title" firestore:"title"`
	Snippet   string          `json:"snippet" firestore:"snippet"`
	SourceAPI types.SourceAPI `json:"sourceAPI" firestore:"sourceAPI"`
	Timestamp time.Time       `json:"timestamp" firestore:"timestamp"`
}

// CasePatch describes a partial case update. A nil slice or pointer leaves
// the field untouched; a non-nil empty slice replaces the field with an
// empty list. Each field is replaced wholesale, never deep-merged.
type CasePatch struct {
	GeneratedQueries []string
	CollectedData    []CollectedEntry
	Analysis         *string
}

// Apply merges the patch into the case. It does not touch UpdatedAt; the
// repository stamps timestamps on write.
func (p CasePatch) Apply(c *Case) {
	if p.GeneratedQueries != nil {
		c.GeneratedQueries = p.GeneratedQueries
	}
	if p.CollectedData != nil {
		c.CollectedData = p.CollectedData
	}
	if p.Analysis != nil {
		c.Analysis = p.Analysis
	}
}

// MergeCollected appends entries whose URL is not yet present and returns
// the number actually added. Duplicates are dropped, not merged.
func (c *Case) MergeCollected(entries []CollectedEntry) int {
	seen := make(map[string]struct{}, len(c.CollectedData))
	for _, e := range c.CollectedData {
		seen[e.URL] = struct{}{}
	}

	added := 0
	for _, e := range entries {
		if _, ok := seen[e.URL]; ok {
			continue
		}
		seen[e.URL] = struct{}{}
		c.CollectedData = append(c.CollectedData, e)
		added++
	}
	return added
}

// Clone returns a deep copy of the case so that cached records are never
// shared with callers.
func (c *Case) Clone() *Case {
	copied := &Case{
		ID:        c.ID,
		Task:      c.Task,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
	if c.GeneratedQueries != nil {
		copied.GeneratedQueries = make([]string, len(c.GeneratedQueries))
		copy(copied.GeneratedQueries, c.GeneratedQueries)
	}
	if c.CollectedData != nil {
		copied.CollectedData = make([]CollectedEntry, len(c.CollectedData))
		copy(copied.CollectedData, c.CollectedData)
	}
	if c.Analysis != nil {
		analysis := *c.Analysis
		copied.Analysis = &analysis
	}
	return copied
}
