package search

import (
	"context"
	"net/url"
	"strconv"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/argus/pkg/utils/httpclient"
)

const defaultCustomSearchURL = "https://www.googleapis.com/customsearch/v1"

type customSearchResponse struct {
	Items []struct {
		Title   string `json:"title"`
		Link    string `json:"link"`
		Snippet string `json:"snippet"`
	} `json:"items"`
}

// CustomSearch queries the Google Custom Search JSON API.
type CustomSearch struct {
	client  *httpclient.Client
	baseURL string
	apiKey  string
	cx      string
	num     int
}

type CustomSearchOption func(*CustomSearch)

// WithCustomSearchURL overrides the API endpoint, mainly for tests.
func WithCustomSearchURL(u string) CustomSearchOption {
	return func(s *CustomSearch) {
		s.baseURL = u
	}
}

// WithNumResults sets how many results to request per query.
func WithNumResults(n int) CustomSearchOption {
	return func(s *CustomSearch) {
		s.num = n
	}
}

func WithCustomSearchClient(c *httpclient.Client) CustomSearchOption {
	return func(s *CustomSearch) {
		s.client = c
	}
}

func NewCustomSearch(apiKey, cx string, opts ...CustomSearchOption) *CustomSearch {
	s := &CustomSearch{
		client:  httpclient.New(),
		baseURL: defaultCustomSearchURL,
		apiKey:  apiKey,
		cx:      cx,
		num:     5,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *CustomSearch) Search(ctx context.Context, query string) ([]Result, error) {
	q := url.Values{}
	q.Set("key", s.apiKey)
	q.Set("cx", s.cx)
	q.Set("q", query)
	q.Set("num", strconv.Itoa(s.num))

	resp, err := httpclient.Get[customSearchResponse](ctx, s.client, s.baseURL+"?"+q.Encode())
	if err != nil {
		return nil, goerr.Wrap(err, "failed to query custom search API", goerr.V("query", query))
	}

	results := make([]Result, 0, len(resp.Items))
	for _, item := range resp.Items {
		if item.Link == "" {
			continue
		}
		results = append(results, Result{
			URL:     item.Link,
			Title:   item.Title,
			Snippet: item.Snippet,
		})
	}

	return results, nil
}
