package types

import (
	"github.com/google/uuid"
	"github.com/m-mizutani/goerr/v2"
)

// CaseID identifies a single investigation case. It is generated once at
// case creation and never changes afterwards.
type CaseID string

// NewCaseID generates a new time-ordered case ID
func NewCaseID() CaseID {
	return CaseID(uuid.Must(uuid.NewV7()).String())
}

func (id CaseID) String() string {
	return string(id)
}

// Validate checks if the CaseID is usable as a key
func (id CaseID) Validate() error {
	if id == "" {
		return goerr.New("case ID is empty")
	}
	return nil
}
