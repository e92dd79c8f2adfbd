package search

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/argus/pkg/utils/httpclient"
)

const defaultGroundedSearchURL = "https://generativelanguage.googleapis.com/v1beta/models/gemini-2.0-flash:generateContent"

type groundedRequest struct {
	Contents []groundedContent `json:"contents"`
	Tools    []groundedTool    `json:"tools"`
}

type groundedContent struct {
	Parts []groundedPart `json:"parts"`
}

type groundedPart struct {
	Text string `json:"text"`
}

type groundedTool struct {
	GoogleSearch struct{} `json:"google_search"`
}

type groundedResponse struct {
	Candidates []struct {
		Content struct {
			Parts []groundedPart `json:"parts"`
		} `json:"content"`
		GroundingMetadata struct {
			GroundingChunks []struct {
				Web struct {
					URI   string `json:"uri"`
					Title string `json:"title"`
				} `json:"web"`
			} `json:"groundingChunks"`
		} `json:"groundingMetadata"`
	} `json:"candidates"`
}

// GroundedSearch queries the Gemini generateContent API with the
// google_search tool enabled and extracts grounding sources from the
// response. It serves as the fallback when the Custom Search API is
// rate-limited.
type GroundedSearch struct {
	client  *httpclient.Client
	baseURL string
	apiKey  string
}

type GroundedSearchOption func(*GroundedSearch)

// WithGroundedSearchURL overrides the API endpoint, mainly for tests.
func WithGroundedSearchURL(u string) GroundedSearchOption {
	return func(s *GroundedSearch) {
		s.baseURL = u
	}
}

func WithGroundedSearchClient(c *httpclient.Client) GroundedSearchOption {
	return func(s *GroundedSearch) {
		s.client = c
	}
}

func NewGroundedSearch(apiKey string, opts ...GroundedSearchOption) *GroundedSearch {
	s := &GroundedSearch{
		// Model calls tolerate longer delays than plain HTTP APIs, so the
		// backoff profile is wider than the client default.
		client: httpclient.New(
			httpclient.WithBackoff(1*time.Second, 1*time.Second),
			httpclient.WithTimeout(60*time.Second),
		),
		baseURL: defaultGroundedSearchURL,
		apiKey:  apiKey,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *GroundedSearch) Search(ctx context.Context, query string) ([]Result, error) {
	req := groundedRequest{
		Contents: []groundedContent{
			{Parts: []groundedPart{{Text: query}}},
		},
		Tools: []groundedTool{{}},
	}

	resp, err := httpclient.Post[groundedResponse](ctx, s.client, s.baseURL+"?key="+s.apiKey, req)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to query grounded search API", goerr.V("query", query))
	}

	if len(resp.Candidates) == 0 {
		return nil, nil
	}

	cand := resp.Candidates[0]

	var summary strings.Builder
	for _, part := range cand.Content.Parts {
		summary.WriteString(part.Text)
	}
	snippet := truncate(strings.TrimSpace(summary.String()), 500)

	seen := map[string]bool{}
	var results []Result
	for _, chunk := range cand.GroundingMetadata.GroundingChunks {
		uri := chunk.Web.URI
		if uri == "" || seen[uri] {
			continue
		}
		seen[uri] = true
		results = append(results, Result{
			URL:     uri,
			Title:   chunk.Web.Title,
			Snippet: snippet,
		})
	}

	return results, nil
}

// truncate cuts the string to at most max bytes without splitting a rune.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	for max > 0 && !utf8.RuneStart(s[max]) {
		max--
	}
	return s[:max]
}
