package usecase

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/argus/pkg/domain/model"
	"github.com/secmon-lab/argus/pkg/domain/types"
	"github.com/secmon-lab/argus/pkg/utils/logging"
)

// Analyze synthesizes the case's collected data into structured profiles
// and stores the serialized result on the case.
func (uc *UseCases) Analyze(ctx context.Context, id types.CaseID) ([]model.Profile, error) {
	c, err := uc.GetCase(ctx, id)
	if err != nil {
		return nil, err
	}
	if len(c.CollectedData) == 0 {
		return nil, goerr.Wrap(ErrNoCollectedData, "nothing to analyze", goerr.V(CaseIDKey, id))
	}

	profiles, err := uc.llm.Synthesize(ctx, c.Task, c.CollectedData)
	if err != nil {
		return nil, goerr.Wrap(err, "analysis failed", goerr.V(CaseIDKey, id))
	}

	serialized, err := json.Marshal(profiles)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to serialize analysis", goerr.V(CaseIDKey, id))
	}

	analysis := string(serialized)
	if _, err := uc.repo.Case().Update(ctx, id, model.CasePatch{Analysis: &analysis}); err != nil {
		return nil, goerr.Wrap(err, "failed to store analysis", goerr.V(CaseIDKey, id))
	}

	logging.From(ctx).Info("case analyzed",
		"caseID", id,
		"profiles", len(profiles),
	)

	return profiles, nil
}

// GenerateVariants proposes identity variants for the given name or handle.
func (uc *UseCases) GenerateVariants(ctx context.Context, fullName string) (*model.Variants, error) {
	fullName = strings.TrimSpace(fullName)
	if fullName == "" {
		return nil, goerr.Wrap(ErrMissingField, "full name is required")
	}

	variants, err := uc.llm.GenerateVariants(ctx, fullName)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to generate variants")
	}

	return variants, nil
}
