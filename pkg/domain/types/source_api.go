package types

import "github.com/m-mizutani/goerr/v2"

// SourceAPI identifies the provider that produced a collected entry
type SourceAPI string

const (
	// SourceCustomSearch is the primary search provider (Google Custom Search)
	SourceCustomSearch SourceAPI = "CS_API"

	// SourceGemini covers both the grounded-search fallback and manual input
	// routed through the assistant
	SourceGemini SourceAPI = "GEMINI"
)

// Validate checks if the SourceAPI is one of the known provider tags
func (s SourceAPI) Validate() error {
	switch s {
	case SourceCustomSearch, SourceGemini:
		return nil
	default:
		return goerr.New("unknown source API", goerr.V("source", string(s)))
	}
}
