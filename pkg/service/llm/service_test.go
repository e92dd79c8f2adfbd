package llm_test

import (
	"context"
	"strings"
	"testing"

	"github.com/m-mizutani/gollem"
	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/argus/pkg/domain/model"
	"github.com/secmon-lab/argus/pkg/service/llm"
)

// mockLLMSession is a mock gollem Session for testing
type mockLLMSession struct {
	generateContentFn func(ctx context.Context, input ...gollem.Input) (*gollem.Response, error)
}

func (s *mockLLMSession) Generate(ctx context.Context, input []gollem.Input, opts ...gollem.GenerateOption) (*gollem.Response, error) {
	return s.GenerateContent(ctx, input...)
}

func (s *mockLLMSession) Stream(ctx context.Context, input []gollem.Input, opts ...gollem.GenerateOption) (<-chan *gollem.Response, error) {
	return nil, nil
}

func (s *mockLLMSession) GenerateContent(ctx context.Context, input ...gollem.Input) (*gollem.Response, error) {
	if s.generateContentFn != nil {
		return s.generateContentFn(ctx, input...)
	}
	return &gollem.Response{Texts: []string{"{}"}}, nil
}

func (s *mockLLMSession) GenerateStream(ctx context.Context, input ...gollem.Input) (<-chan *gollem.Response, error) {
	return nil, nil
}

func (s *mockLLMSession) History() (*gollem.History, error) {
	return nil, nil
}

func (s *mockLLMSession) AppendHistory(*gollem.History) error {
	return nil
}

func (s *mockLLMSession) CountToken(ctx context.Context, input ...gollem.Input) (int, error) {
	return 0, nil
}

// mockLLMClient is a mock gollem LLMClient for testing
type mockLLMClient struct {
	newSessionFn func(ctx context.Context, options ...gollem.SessionOption) (gollem.Session, error)
	sessions     int
}

func (c *mockLLMClient) NewSession(ctx context.Context, options ...gollem.SessionOption) (gollem.Session, error) {
	c.sessions++
	if c.newSessionFn != nil {
		return c.newSessionFn(ctx, options...)
	}
	return &mockLLMSession{}, nil
}

func (c *mockLLMClient) GenerateEmbedding(ctx context.Context, dimension int, input []string) ([][]float64, error) {
	return nil, nil
}

func respondWith(texts ...string) func(ctx context.Context, options ...gollem.SessionOption) (gollem.Session, error) {
	return func(ctx context.Context, options ...gollem.SessionOption) (gollem.Session, error) {
		return &mockLLMSession{
			generateContentFn: func(ctx context.Context, input ...gollem.Input) (*gollem.Response, error) {
				return &gollem.Response{Texts: texts}, nil
			},
		}, nil
	}
}

func TestExtractJSON(t *testing.T) {
	t.Run("fenced block", func(t *testing.T) {
		text := "Here you go:\n```json\n{\"queries\":[\"a\"]}\n```\nDone."
		gt.Value(t, llm.ExtractJSON(text)).Equal(`{"queries":["a"]}`)
	})

	t.Run("fence without language tag", func(t *testing.T) {
		text := "```\n[1,2]\n```"
		gt.Value(t, llm.ExtractJSON(text)).Equal("[1,2]")
	})

	t.Run("embedded array", func(t *testing.T) {
		text := "The result is [\"a\",\"b\"] as requested."
		gt.Value(t, llm.ExtractJSON(text)).Equal(`["a","b"]`)
	})

	t.Run("embedded object", func(t *testing.T) {
		text := "Sure: {\"x\":1} hope that helps"
		gt.Value(t, llm.ExtractJSON(text)).Equal(`{"x":1}`)
	})

	t.Run("raw passthrough", func(t *testing.T) {
		gt.Value(t, llm.ExtractJSON("  plain text  ")).Equal("plain text")
	})
}

func TestGenerateQueries(t *testing.T) {
	t.Run("object response", func(t *testing.T) {
		client := &mockLLMClient{
			newSessionFn: respondWith(`{"queries":["\"Ivan Petrov\" Moscow","Ivan Petrov engineer"]}`),
		}
		svc, err := llm.New(client)
		gt.NoError(t, err).Required()

		queries, err := svc.GenerateQueries(context.Background(), "Find Ivan Petrov, an engineer in Moscow")
		gt.NoError(t, err).Required()
		gt.Array(t, queries).Length(2)
		gt.Value(t, queries[0]).Equal(`"Ivan Petrov" Moscow`)
	})

	t.Run("bare array response", func(t *testing.T) {
		client := &mockLLMClient{
			newSessionFn: respondWith("```json\n[\"q1\",\"q2\",\"q3\"]\n```"),
		}
		svc, err := llm.New(client)
		gt.NoError(t, err).Required()

		queries, err := svc.GenerateQueries(context.Background(), "task")
		gt.NoError(t, err).Required()
		gt.Array(t, queries).Length(3)
	})

	t.Run("blank queries dropped", func(t *testing.T) {
		client := &mockLLMClient{
			newSessionFn: respondWith(`{"queries":["q1","  ",""]}`),
		}
		svc, err := llm.New(client)
		gt.NoError(t, err).Required()

		queries, err := svc.GenerateQueries(context.Background(), "task")
		gt.NoError(t, err).Required()
		gt.Array(t, queries).Length(1)
	})

	t.Run("all blank is an error", func(t *testing.T) {
		client := &mockLLMClient{
			newSessionFn: respondWith(`{"queries":[]}`),
		}
		svc, err := llm.New(client)
		gt.NoError(t, err).Required()

		_, err = svc.GenerateQueries(context.Background(), "task")
		gt.Error(t, err)
	})
}

func TestGenerateVariants(t *testing.T) {
	client := &mockLLMClient{
		newSessionFn: respondWith(`{
			"nameVariants":["Ivan Petrov","I. Petrov"],
			"emailVariants":["ivan.petrov@gmail.com"],
			"usernameVariants":["ipetrov","ivan_petrov"]
		}`),
	}
	svc, err := llm.New(client)
	gt.NoError(t, err).Required()

	variants, err := svc.GenerateVariants(context.Background(), "Ivan Petrov")
	gt.NoError(t, err).Required()
	gt.Array(t, variants.NameVariants).Length(2)
	gt.Array(t, variants.EmailVariants).Length(1)
	gt.Array(t, variants.UsernameVariants).Length(2)
}

func TestSynthesize(t *testing.T) {
	entries := []model.CollectedEntry{
		{Query: "ivan petrov", URL: "https://example.com/a", Title: "A", Snippet: "engineer in Moscow"},
		{Query: "ivan petrov", URL: "https://example.com/b", Title: "B", Snippet: "dentist in Kazan"},
	}

	t.Run("wrapped profiles", func(t *testing.T) {
		client := &mockLLMClient{
			newSessionFn: respondWith(`{"profiles":[
				{"description":"engineer","mainData":{"fullName":"Ivan Petrov"},"conclusion":"likely match","accuracyAssessment":"high","sources":["https://example.com/a"]},
				{"description":"dentist","mainData":{"fullName":"Ivan Petrov"},"conclusion":"different person","accuracyAssessment":"high","sources":["https://example.com/b"]}
			]}`),
		}
		svc, err := llm.New(client)
		gt.NoError(t, err).Required()

		profiles, err := svc.Synthesize(context.Background(), "find ivan", entries)
		gt.NoError(t, err).Required()
		gt.Array(t, profiles).Length(2)
		gt.Value(t, profiles[0].MainData.FullName).Equal("Ivan Petrov")
		gt.Value(t, profiles[0].MainData.DateOfBirth).Equal(model.NotAvailable)
		gt.Array(t, profiles[0].Sources).Length(1)
	})

	t.Run("bare array tolerated", func(t *testing.T) {
		client := &mockLLMClient{
			newSessionFn: respondWith(`[{"description":"d","mainData":{"fullName":"X"},"conclusion":"c","accuracyAssessment":"a","sources":[]}]`),
		}
		svc, err := llm.New(client)
		gt.NoError(t, err).Required()

		profiles, err := svc.Synthesize(context.Background(), "task", entries)
		gt.NoError(t, err).Required()
		gt.Array(t, profiles).Length(1)
	})

	t.Run("empty input rejected", func(t *testing.T) {
		svc, err := llm.New(&mockLLMClient{})
		gt.NoError(t, err).Required()

		_, err = svc.Synthesize(context.Background(), "task", nil)
		gt.Error(t, err)
	})

	t.Run("large input is condensed in batches", func(t *testing.T) {
		var prompts []string
		client := &mockLLMClient{}
		client.newSessionFn = func(ctx context.Context, options ...gollem.SessionOption) (gollem.Session, error) {
			return &mockLLMSession{
				generateContentFn: func(ctx context.Context, input ...gollem.Input) (*gollem.Response, error) {
					text := ""
					if len(input) > 0 {
						if t, ok := input[0].(gollem.Text); ok {
							text = string(t)
						}
					}
					prompts = append(prompts, text)
					if strings.Contains(text, "Collected material:") {
						return &gollem.Response{Texts: []string{`{"profiles":[{"description":"d","mainData":{"fullName":"X"},"conclusion":"c","accuracyAssessment":"a","sources":[]}]}`}}, nil
					}
					return &gollem.Response{Texts: []string{"condensed notes"}}, nil
				},
			}, nil
		}

		svc, err := llm.New(client, llm.WithBatchSize(2))
		gt.NoError(t, err).Required()

		many := make([]model.CollectedEntry, 5)
		for i := range many {
			many[i] = model.CollectedEntry{Query: "q", URL: "https://example.com/x", Snippet: "s"}
		}

		profiles, err := svc.Synthesize(context.Background(), "task", many)
		gt.NoError(t, err).Required()
		gt.Array(t, profiles).Length(1)

		// 3 condensation batches of size 2,2,1 plus the final synthesis call
		gt.Value(t, client.sessions).Equal(4)
		gt.Value(t, strings.Contains(prompts[len(prompts)-1], "condensed notes")).Equal(true)
	})
}

func TestResponseSchemas(t *testing.T) {
	var schemas []*gollem.Parameter
	client := &mockLLMClient{
		newSessionFn: func(ctx context.Context, options ...gollem.SessionOption) (gollem.Session, error) {
			cfg := gollem.NewSessionConfig(options...)
			schemas = append(schemas, cfg.ResponseSchema())
			return &mockLLMSession{
				generateContentFn: func(ctx context.Context, input ...gollem.Input) (*gollem.Response, error) {
					return &gollem.Response{Texts: []string{`{"queries":["q"],"nameVariants":[],"emailVariants":[],"usernameVariants":[],"profiles":[{"description":"d"}]}`}}, nil
				},
			}, nil
		},
	}

	svc, err := llm.New(client)
	gt.NoError(t, err).Required()

	ctx := context.Background()
	_, err = svc.GenerateQueries(ctx, "task")
	gt.NoError(t, err).Required()
	_, err = svc.GenerateVariants(ctx, "Ivan Petrov")
	gt.NoError(t, err).Required()
	_, err = svc.Synthesize(ctx, "task", []model.CollectedEntry{{Query: "q", URL: "https://a.example"}})
	gt.NoError(t, err).Required()

	gt.Array(t, schemas).Length(3)
	for _, schema := range schemas {
		gt.Value(t, schema).NotNil()
		gt.NoError(t, schema.Validate())
	}

	gt.Bool(t, schemas[0].Properties["queries"].Required).True()
	gt.Bool(t, schemas[1].Properties["nameVariants"].Required).True()

	profiles := schemas[2].Properties["profiles"]
	gt.Bool(t, profiles.Required).True()
	item := profiles.Items
	gt.Bool(t, item.Properties["mainData"].Required).True()
	gt.Bool(t, item.Properties["mainData"].Properties["fullName"].Required).True()
	gt.Bool(t, item.Properties["conclusion"].Required).True()
}
