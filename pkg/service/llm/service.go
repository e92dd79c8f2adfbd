package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gollem"
	"github.com/secmon-lab/argus/pkg/domain/model"
	"github.com/secmon-lab/argus/pkg/utils/logging"
)

// batchThreshold is the number of collected entries above which the
// synthesis input is condensed in batches before the final pass.
const batchThreshold = 40

// client implements Service interface
type client struct {
	llmClient gollem.LLMClient
	batchSize int
}

// Option is a functional option for client configuration
type Option func(*client)

// WithBatchSize overrides how many entries go into one condensation batch.
func WithBatchSize(n int) Option {
	return func(c *client) {
		if n > 0 {
			c.batchSize = n
		}
	}
}

// New creates a new LLM service with the provided client
func New(llmClient gollem.LLMClient, opts ...Option) (Service, error) {
	if llmClient == nil {
		return nil, goerr.New("LLM client is required")
	}

	c := &client{
		llmClient: llmClient,
		batchSize: batchThreshold,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

type queriesResponse struct {
	Queries []string `json:"queries"`
}

func (c *client) GenerateQueries(ctx context.Context, task string) ([]string, error) {
	schema := &gollem.Parameter{
		Title:       "SearchQueries",
		Description: "Search queries for an open-source investigation task",
		Type:        gollem.TypeObject,
		Properties: map[string]*gollem.Parameter{
			"queries": {
				Type:        gollem.TypeArray,
				Description: "Search engine queries, most promising first",
				Items: &gollem.Parameter{
					Type: gollem.TypeString,
				},
				Required: true,
			},
		},
	}

	session, err := c.llmClient.NewSession(ctx,
		gollem.WithSessionContentType(gollem.ContentTypeJSON),
		gollem.WithSessionResponseSchema(schema),
		gollem.WithSessionSystemPrompt(queriesSystemPrompt),
	)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create LLM session")
	}

	prompt := fmt.Sprintf("Investigation task:\n%s", task)
	resp, err := session.GenerateContent(ctx, gollem.Text(prompt))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to generate search queries")
	}
	if len(resp.Texts) == 0 {
		return nil, goerr.New("query generation returned empty response")
	}

	raw := ExtractJSON(resp.Texts[0])

	// Some models return the bare array even when an object is requested
	var parsed queriesResponse
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		var bare []string
		if err2 := json.Unmarshal([]byte(raw), &bare); err2 != nil {
			return nil, goerr.Wrap(err, "failed to parse query response", goerr.V("response", resp.Texts[0]))
		}
		parsed.Queries = bare
	}

	queries := make([]string, 0, len(parsed.Queries))
	for _, q := range parsed.Queries {
		q = strings.TrimSpace(q)
		if q != "" {
			queries = append(queries, q)
		}
	}
	if len(queries) == 0 {
		return nil, goerr.New("query generation produced no usable queries", goerr.V("response", resp.Texts[0]))
	}

	return queries, nil
}

func (c *client) GenerateVariants(ctx context.Context, input string) (*model.Variants, error) {
	schema := &gollem.Parameter{
		Title:       "IdentityVariants",
		Description: "Plausible identity variants for the given person or handle",
		Type:        gollem.TypeObject,
		Properties: map[string]*gollem.Parameter{
			"nameVariants": {
				Type:        gollem.TypeArray,
				Description: "Spelling and transliteration variants of the name",
				Items:       &gollem.Parameter{Type: gollem.TypeString},
				Required:    true,
			},
			"emailVariants": {
				Type:        gollem.TypeArray,
				Description: "Likely email address patterns",
				Items:       &gollem.Parameter{Type: gollem.TypeString},
				Required:    true,
			},
			"usernameVariants": {
				Type:        gollem.TypeArray,
				Description: "Likely usernames and handles",
				Items:       &gollem.Parameter{Type: gollem.TypeString},
				Required:    true,
			},
		},
	}

	session, err := c.llmClient.NewSession(ctx,
		gollem.WithSessionContentType(gollem.ContentTypeJSON),
		gollem.WithSessionResponseSchema(schema),
		gollem.WithSessionSystemPrompt(variantsSystemPrompt),
	)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create LLM session")
	}

	resp, err := session.GenerateContent(ctx, gollem.Text(input))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to generate identity variants")
	}
	if len(resp.Texts) == 0 {
		return nil, goerr.New("variant generation returned empty response")
	}

	var variants model.Variants
	if err := json.Unmarshal([]byte(ExtractJSON(resp.Texts[0])), &variants); err != nil {
		return nil, goerr.Wrap(err, "failed to parse variant response", goerr.V("response", resp.Texts[0]))
	}

	return &variants, nil
}

func (c *client) Synthesize(ctx context.Context, task string, entries []model.CollectedEntry) ([]model.Profile, error) {
	if len(entries) == 0 {
		return nil, goerr.New("no collected data to synthesize")
	}

	input := formatEntries(entries)

	if len(entries) > c.batchSize {
		condensed, err := c.condense(ctx, task, entries)
		if err != nil {
			return nil, err
		}
		input = condensed
	}

	session, err := c.llmClient.NewSession(ctx,
		gollem.WithSessionContentType(gollem.ContentTypeJSON),
		gollem.WithSessionResponseSchema(profileSchema()),
		gollem.WithSessionSystemPrompt(synthesisSystemPrompt),
	)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create LLM session")
	}

	prompt := fmt.Sprintf("Investigation task:\n%s\n\nCollected material:\n%s", task, input)
	resp, err := session.GenerateContent(ctx, gollem.Text(prompt))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to synthesize profiles")
	}
	if len(resp.Texts) == 0 {
		return nil, goerr.New("synthesis returned empty response")
	}

	var raw any
	if err := json.Unmarshal([]byte(ExtractJSON(resp.Texts[0])), &raw); err != nil {
		return nil, goerr.Wrap(err, "failed to parse synthesis response", goerr.V("response", resp.Texts[0]))
	}

	profiles, err := model.NormalizeProfiles(raw)
	if err != nil {
		return nil, goerr.Wrap(err, "synthesis response has unexpected shape", goerr.V("response", resp.Texts[0]))
	}

	return profiles, nil
}

// condense summarizes each batch of entries into compact text so the
// final synthesis pass stays within a reasonable prompt size.
func (c *client) condense(ctx context.Context, task string, entries []model.CollectedEntry) (string, error) {
	logger := logging.From(ctx)

	var parts []string
	for start := 0; start < len(entries); start += c.batchSize {
		end := min(start+c.batchSize, len(entries))
		batch := entries[start:end]

		session, err := c.llmClient.NewSession(ctx,
			gollem.WithSessionSystemPrompt(condenseSystemPrompt),
		)
		if err != nil {
			return "", goerr.Wrap(err, "failed to create LLM session")
		}

		prompt := fmt.Sprintf("Investigation task:\n%s\n\nSearch results:\n%s", task, formatEntries(batch))
		resp, err := session.GenerateContent(ctx, gollem.Text(prompt))
		if err != nil {
			return "", goerr.Wrap(err, "failed to condense collected data",
				goerr.V("batchStart", start),
				goerr.V("batchEnd", end))
		}
		if len(resp.Texts) == 0 {
			continue
		}

		parts = append(parts, strings.TrimSpace(strings.Join(resp.Texts, "\n")))
		logger.Debug("condensed search result batch", "start", start, "end", end)
	}

	if len(parts) == 0 {
		return "", goerr.New("condensation produced no output")
	}

	return strings.Join(parts, "\n\n"), nil
}

func formatEntries(entries []model.CollectedEntry) string {
	var sb strings.Builder
	for i, e := range entries {
		fmt.Fprintf(&sb, "### Result %d\n", i+1)
		fmt.Fprintf(&sb, "Query: %s\n", e.Query)
		fmt.Fprintf(&sb, "URL: %s\n", e.URL)
		if e.Title != "" {
			fmt.Fprintf(&sb, "Title: %s\n", e.Title)
		}
		if e.Snippet != "" {
			fmt.Fprintf(&sb, "Snippet: %s\n", e.Snippet)
		}
		sb.WriteString("\n")
	}
	return sb.String()
}
