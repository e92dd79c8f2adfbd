package memory

import (
	"github.com/secmon-lab/argus/pkg/domain/interfaces"
)

// Memory is the map-only backend for tests and development
type Memory struct {
	caseRepo *caseRepository
}

var _ interfaces.Repository = &Memory{}

func New() *Memory {
	return &Memory{
		caseRepo: newCaseRepository(),
	}
}

func (m *Memory) Case() interfaces.CaseRepository {
	return m.caseRepo
}

func (m *Memory) Close() error {
	return nil
}
