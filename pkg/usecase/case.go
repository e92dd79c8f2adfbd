package usecase

import (
	"context"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/argus/pkg/domain/model"
	"github.com/secmon-lab/argus/pkg/domain/types"
	"github.com/secmon-lab/argus/pkg/utils/logging"
)

// CreateCase opens a new investigation for the given task and generates
// its initial search queries.
func (uc *UseCases) CreateCase(ctx context.Context, task string) (*model.Case, error) {
	task = strings.TrimSpace(task)
	if task == "" {
		return nil, goerr.Wrap(ErrEmptyTask, "cannot create case")
	}

	queries, err := uc.llm.GenerateQueries(ctx, task)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to generate queries for new case")
	}

	created, err := uc.repo.Case().Create(ctx, &model.Case{
		Task:             task,
		GeneratedQueries: queries,
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create case")
	}

	logging.From(ctx).Info("case created",
		"caseID", created.ID,
		"queries", len(created.GeneratedQueries),
	)

	return created, nil
}

func (uc *UseCases) GetCase(ctx context.Context, id types.CaseID) (*model.Case, error) {
	if err := id.Validate(); err != nil {
		return nil, goerr.Wrap(ErrInvalidCaseID, err.Error())
	}

	c, err := uc.repo.Case().Get(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return nil, goerr.Wrap(ErrCaseNotFound, "case not found", goerr.V(CaseIDKey, id))
		}
		return nil, goerr.Wrap(err, "failed to get case", goerr.V(CaseIDKey, id))
	}

	return c, nil
}

func (uc *UseCases) ListCases(ctx context.Context) ([]*model.Case, error) {
	cases, err := uc.repo.Case().List(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list cases")
	}
	return cases, nil
}

func (uc *UseCases) DeleteCase(ctx context.Context, id types.CaseID) error {
	if err := id.Validate(); err != nil {
		return goerr.Wrap(ErrInvalidCaseID, err.Error())
	}

	if _, err := uc.repo.Case().Get(ctx, id); err != nil {
		if isNotFound(err) {
			return goerr.Wrap(ErrCaseNotFound, "case not found", goerr.V(CaseIDKey, id))
		}
		return goerr.Wrap(err, "failed to get case", goerr.V(CaseIDKey, id))
	}

	if err := uc.repo.Case().Delete(ctx, id); err != nil {
		return goerr.Wrap(err, "failed to delete case", goerr.V(CaseIDKey, id))
	}

	logging.From(ctx).Info("case deleted", "caseID", id)
	return nil
}

// UpdateQueries replaces the case's generated queries wholesale.
func (uc *UseCases) UpdateQueries(ctx context.Context, id types.CaseID, queries []string) (*model.Case, error) {
	if err := id.Validate(); err != nil {
		return nil, goerr.Wrap(ErrInvalidCaseID, err.Error())
	}

	cleaned := make([]string, 0, len(queries))
	for _, q := range queries {
		q = strings.TrimSpace(q)
		if q != "" {
			cleaned = append(cleaned, q)
		}
	}
	if len(cleaned) == 0 {
		return nil, goerr.Wrap(ErrNoQueries, "at least one query is required")
	}

	updated, err := uc.repo.Case().Update(ctx, id, model.CasePatch{GeneratedQueries: cleaned})
	if err != nil {
		if isNotFound(err) {
			return nil, goerr.Wrap(ErrCaseNotFound, "case not found", goerr.V(CaseIDKey, id))
		}
		return nil, goerr.Wrap(err, "failed to update queries", goerr.V(CaseIDKey, id))
	}

	return updated, nil
}
