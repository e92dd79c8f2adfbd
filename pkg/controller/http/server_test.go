package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/m-mizutani/gt"
	controller "github.com/secmon-lab/argus/pkg/controller/http"
	"github.com/secmon-lab/argus/pkg/domain/model"
	"github.com/secmon-lab/argus/pkg/domain/types"
	"github.com/secmon-lab/argus/pkg/repository/memory"
	"github.com/secmon-lab/argus/pkg/service/search"
	"github.com/secmon-lab/argus/pkg/usecase"
)

type stubLLM struct{}

func (stubLLM) GenerateQueries(ctx context.Context, task string) ([]string, error) {
	return []string{"q1", "q2"}, nil
}

func (stubLLM) GenerateVariants(ctx context.Context, input string) (*model.Variants, error) {
	return &model.Variants{
		NameVariants:     []string{input},
		EmailVariants:    []string{},
		UsernameVariants: []string{},
	}, nil
}

func (stubLLM) Synthesize(ctx context.Context, task string, entries []model.CollectedEntry) ([]model.Profile, error) {
	return []model.Profile{{Description: "profile"}}, nil
}

type stubSearch struct{}

func (stubSearch) Search(ctx context.Context, query string) ([]search.Result, types.SourceAPI, error) {
	return []search.Result{
		{URL: "https://example.com/" + query, Title: query, Snippet: "snippet"},
	}, types.SourceCustomSearch, nil
}

func newTestServer() *controller.Server {
	uc := usecase.New(memory.New(), stubLLM{}, stubSearch{})
	return controller.New(uc)
}

func doJSON(t *testing.T, srv http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		gt.NoError(t, json.NewEncoder(&buf).Encode(body)).Required()
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	return rec
}

func createCase(t *testing.T, srv http.Handler) model.Case {
	t.Helper()

	rec := doJSON(t, srv, http.MethodPost, "/api/cases", map[string]string{"task": "find someone"})
	gt.Value(t, rec.Code).Equal(http.StatusOK)

	var c model.Case
	gt.NoError(t, json.Unmarshal(rec.Body.Bytes(), &c)).Required()
	return c
}

func TestCreateCaseEndpoint(t *testing.T) {
	srv := newTestServer()

	t.Run("creates case", func(t *testing.T) {
		c := createCase(t, srv)
		gt.NoError(t, c.ID.Validate())
		gt.Array(t, c.GeneratedQueries).Length(2)
		gt.Value(t, c.Analysis).Nil()
	})

	t.Run("empty task is 400", func(t *testing.T) {
		rec := doJSON(t, srv, http.MethodPost, "/api/cases", map[string]string{"task": ""})
		gt.Value(t, rec.Code).Equal(http.StatusBadRequest)

		var resp map[string]string
		gt.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp)).Required()
		gt.Value(t, resp["error"] != "").Equal(true)
	})

	t.Run("malformed body is 400", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/cases", bytes.NewBufferString("{not json"))
		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, req)
		gt.Value(t, rec.Code).Equal(http.StatusBadRequest)
	})
}

func TestGetCaseEndpoint(t *testing.T) {
	srv := newTestServer()
	c := createCase(t, srv)

	t.Run("restores full case", func(t *testing.T) {
		rec := doJSON(t, srv, http.MethodGet, "/api/cases/"+string(c.ID), nil)
		gt.Value(t, rec.Code).Equal(http.StatusOK)

		var got model.Case
		gt.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got)).Required()
		gt.Value(t, got.ID).Equal(c.ID)
		gt.Value(t, got.Task).Equal("find someone")
	})

	t.Run("missing case is 404", func(t *testing.T) {
		rec := doJSON(t, srv, http.MethodGet, "/api/cases/"+string(types.NewCaseID()), nil)
		gt.Value(t, rec.Code).Equal(http.StatusNotFound)
	})
}

func TestListAndDeleteEndpoints(t *testing.T) {
	srv := newTestServer()
	c := createCase(t, srv)

	rec := doJSON(t, srv, http.MethodGet, "/api/cases", nil)
	gt.Value(t, rec.Code).Equal(http.StatusOK)

	var list struct {
		Cases []model.Case `json:"cases"`
	}
	gt.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list)).Required()
	gt.Array(t, list.Cases).Length(1)

	rec = doJSON(t, srv, http.MethodDelete, "/api/cases/"+string(c.ID), nil)
	gt.Value(t, rec.Code).Equal(http.StatusOK)

	rec = doJSON(t, srv, http.MethodGet, "/api/cases/"+string(c.ID), nil)
	gt.Value(t, rec.Code).Equal(http.StatusNotFound)

	rec = doJSON(t, srv, http.MethodDelete, "/api/cases/"+string(c.ID), nil)
	gt.Value(t, rec.Code).Equal(http.StatusNotFound)
}

func TestUpdateQueriesEndpoint(t *testing.T) {
	srv := newTestServer()
	c := createCase(t, srv)

	rec := doJSON(t, srv, http.MethodPut, "/api/cases/"+string(c.ID)+"/queries",
		map[string]any{"queries": []string{"replaced"}})
	gt.Value(t, rec.Code).Equal(http.StatusOK)

	var got model.Case
	gt.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got)).Required()
	gt.Array(t, got.GeneratedQueries).Length(1)
	gt.Value(t, got.GeneratedQueries[0]).Equal("replaced")

	t.Run("empty list is 400", func(t *testing.T) {
		rec := doJSON(t, srv, http.MethodPut, "/api/cases/"+string(c.ID)+"/queries",
			map[string]any{"queries": []string{}})
		gt.Value(t, rec.Code).Equal(http.StatusBadRequest)
	})
}

func TestCollectEndpoints(t *testing.T) {
	srv := newTestServer()
	c := createCase(t, srv)

	rec := doJSON(t, srv, http.MethodPost, "/api/cases/"+string(c.ID)+"/collect",
		map[string]string{"query": "q1"})
	gt.Value(t, rec.Code).Equal(http.StatusOK)

	var result usecase.CollectResult
	gt.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result)).Required()
	gt.Value(t, result.Added).Equal(1)
	gt.Value(t, result.Source).Equal(types.SourceCustomSearch)

	rec = doJSON(t, srv, http.MethodPost, "/api/cases/"+string(c.ID)+"/collect-all", nil)
	gt.Value(t, rec.Code).Equal(http.StatusOK)

	var outcomes struct {
		Outcomes []usecase.QueryOutcome `json:"outcomes"`
	}
	gt.NoError(t, json.Unmarshal(rec.Body.Bytes(), &outcomes)).Required()
	gt.Array(t, outcomes.Outcomes).Length(2)

	rec = doJSON(t, srv, http.MethodGet, "/api/cases/"+string(c.ID)+"/collect", nil)
	gt.Value(t, rec.Code).Equal(http.StatusOK)

	var count struct {
		Count int `json:"count"`
	}
	gt.NoError(t, json.Unmarshal(rec.Body.Bytes(), &count)).Required()
	// q1 from single collect, q2 from collect-all; duplicate q1 URL dropped
	gt.Value(t, count.Count).Equal(2)
}

func TestManualAndAnalyzeEndpoints(t *testing.T) {
	srv := newTestServer()
	c := createCase(t, srv)

	t.Run("analyze without data is 400", func(t *testing.T) {
		rec := doJSON(t, srv, http.MethodPost, "/api/cases/"+string(c.ID)+"/analyze", nil)
		gt.Value(t, rec.Code).Equal(http.StatusBadRequest)
	})

	rec := doJSON(t, srv, http.MethodPost, "/api/cases/"+string(c.ID)+"/manual",
		map[string]string{"name": "note", "content": "hand-curated fact"})
	gt.Value(t, rec.Code).Equal(http.StatusOK)

	var manual struct {
		Success bool                 `json:"success"`
		Data    model.CollectedEntry `json:"data"`
	}
	gt.NoError(t, json.Unmarshal(rec.Body.Bytes(), &manual)).Required()
	gt.Value(t, manual.Success).Equal(true)
	gt.Value(t, manual.Data.Query).Equal(model.ManualInputQuery)

	t.Run("manual without content is 400", func(t *testing.T) {
		rec := doJSON(t, srv, http.MethodPost, "/api/cases/"+string(c.ID)+"/manual",
			map[string]string{"name": "note"})
		gt.Value(t, rec.Code).Equal(http.StatusBadRequest)
	})

	rec = doJSON(t, srv, http.MethodPost, "/api/cases/"+string(c.ID)+"/analyze", nil)
	gt.Value(t, rec.Code).Equal(http.StatusOK)

	var analyzed struct {
		Profiles []model.Profile `json:"profiles"`
	}
	gt.NoError(t, json.Unmarshal(rec.Body.Bytes(), &analyzed)).Required()
	gt.Array(t, analyzed.Profiles).Length(1)
}

func TestVariantsEndpoint(t *testing.T) {
	srv := newTestServer()

	rec := doJSON(t, srv, http.MethodPost, "/api/variants",
		map[string]string{"fullName": "Ivan Petrov"})
	gt.Value(t, rec.Code).Equal(http.StatusOK)

	var variants model.Variants
	gt.NoError(t, json.Unmarshal(rec.Body.Bytes(), &variants)).Required()
	gt.Array(t, variants.NameVariants).Length(1)

	t.Run("empty name is 400", func(t *testing.T) {
		rec := doJSON(t, srv, http.MethodPost, "/api/variants", map[string]string{"fullName": " "})
		gt.Value(t, rec.Code).Equal(http.StatusBadRequest)
	})
}
