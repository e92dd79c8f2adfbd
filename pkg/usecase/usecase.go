package usecase

import (
	"github.com/secmon-lab/argus/pkg/domain/interfaces"
	"github.com/secmon-lab/argus/pkg/service/llm"
	"github.com/secmon-lab/argus/pkg/service/search"
)

// collectWorkers bounds how many queries run concurrently in CollectAll
const collectWorkers = 3

type UseCases struct {
	repo   interfaces.Repository
	llm    llm.Service
	search search.Service
}

type Option func(*UseCases)

func New(repo interfaces.Repository, llmSvc llm.Service, searchSvc search.Service, opts ...Option) *UseCases {
	uc := &UseCases{
		repo:   repo,
		llm:    llmSvc,
		search: searchSvc,
	}

	for _, opt := range opts {
		opt(uc)
	}

	return uc
}
