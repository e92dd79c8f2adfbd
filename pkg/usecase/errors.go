package usecase

import (
	"errors"

	"github.com/secmon-lab/argus/pkg/repository/firestore"
	"github.com/secmon-lab/argus/pkg/repository/localfs"
	"github.com/secmon-lab/argus/pkg/repository/memory"
)

// Sentinel errors for use case layer
var (
	// Not found errors
	ErrCaseNotFound = errors.New("case not found")

	// Validation errors
	ErrEmptyTask       = errors.New("investigation task is required")
	ErrEmptyQuery      = errors.New("search query is required")
	ErrNoQueries       = errors.New("case has no generated queries")
	ErrNoCollectedData = errors.New("case has no collected data")
	ErrMissingField    = errors.New("required field is missing")
	ErrInvalidCaseID   = errors.New("invalid case ID")
)

// Context keys for error values
const (
	CaseIDKey = "case_id"
	QueryKey  = "query"
)

// isNotFound reports whether the repository error means the case does not
// exist, as opposed to a backend failure that must surface as-is.
func isNotFound(err error) bool {
	return errors.Is(err, memory.ErrNotFound) ||
		errors.Is(err, localfs.ErrNotFound) ||
		errors.Is(err, firestore.ErrNotFound)
}
