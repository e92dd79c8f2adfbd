package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/argus/pkg/domain/types"
	"github.com/secmon-lab/argus/pkg/usecase"
	"github.com/secmon-lab/argus/pkg/utils/errutil"
)

// handleError maps use case failures onto HTTP status codes: validation
// errors to 400, missing cases to 404, everything else to 500.
func handleError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, usecase.ErrCaseNotFound):
		status = http.StatusNotFound
	case errors.Is(err, usecase.ErrEmptyTask),
		errors.Is(err, usecase.ErrEmptyQuery),
		errors.Is(err, usecase.ErrNoQueries),
		errors.Is(err, usecase.ErrNoCollectedData),
		errors.Is(err, usecase.ErrMissingField),
		errors.Is(err, usecase.ErrInvalidCaseID):
		status = http.StatusBadRequest
	}
	errutil.HandleHTTP(r.Context(), w, err, status)
}

func respondJSON(w http.ResponseWriter, r *http.Request, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		errutil.Handle(r.Context(), err, "failed to encode response")
	}
}

func decodeBody(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return goerr.Wrap(err, "invalid request body")
	}
	return nil
}

func caseIDParam(r *http.Request) types.CaseID {
	return types.CaseID(chi.URLParam(r, "caseID"))
}

func (s *Server) handleCreateCase(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Task string `json:"task"`
	}
	if err := decodeBody(r, &req); err != nil {
		errutil.HandleHTTP(r.Context(), w, err, http.StatusBadRequest)
		return
	}

	c, err := s.uc.CreateCase(r.Context(), req.Task)
	if err != nil {
		handleError(w, r, err)
		return
	}

	respondJSON(w, r, c)
}

func (s *Server) handleListCases(w http.ResponseWriter, r *http.Request) {
	cases, err := s.uc.ListCases(r.Context())
	if err != nil {
		handleError(w, r, err)
		return
	}

	respondJSON(w, r, map[string]any{"cases": cases})
}

func (s *Server) handleGetCase(w http.ResponseWriter, r *http.Request) {
	c, err := s.uc.GetCase(r.Context(), caseIDParam(r))
	if err != nil {
		handleError(w, r, err)
		return
	}

	respondJSON(w, r, c)
}

func (s *Server) handleDeleteCase(w http.ResponseWriter, r *http.Request) {
	if err := s.uc.DeleteCase(r.Context(), caseIDParam(r)); err != nil {
		handleError(w, r, err)
		return
	}

	respondJSON(w, r, map[string]bool{"success": true})
}

func (s *Server) handleUpdateQueries(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Queries []string `json:"queries"`
	}
	if err := decodeBody(r, &req); err != nil {
		errutil.HandleHTTP(r.Context(), w, err, http.StatusBadRequest)
		return
	}

	c, err := s.uc.UpdateQueries(r.Context(), caseIDParam(r), req.Queries)
	if err != nil {
		handleError(w, r, err)
		return
	}

	respondJSON(w, r, c)
}

func (s *Server) handleCollect(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Query string `json:"query"`
	}
	if err := decodeBody(r, &req); err != nil {
		errutil.HandleHTTP(r.Context(), w, err, http.StatusBadRequest)
		return
	}

	result, err := s.uc.Collect(r.Context(), caseIDParam(r), req.Query)
	if err != nil {
		handleError(w, r, err)
		return
	}

	respondJSON(w, r, result)
}

func (s *Server) handleCollectAll(w http.ResponseWriter, r *http.Request) {
	outcomes, err := s.uc.CollectAll(r.Context(), caseIDParam(r))
	if err != nil {
		handleError(w, r, err)
		return
	}

	respondJSON(w, r, map[string]any{"outcomes": outcomes})
}

func (s *Server) handleCollectedCount(w http.ResponseWriter, r *http.Request) {
	count, err := s.uc.CollectedCount(r.Context(), caseIDParam(r))
	if err != nil {
		handleError(w, r, err)
		return
	}

	respondJSON(w, r, map[string]int{"count": count})
}

func (s *Server) handleManualInput(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name    string `json:"name"`
		Content string `json:"content"`
		URL     string `json:"url"`
	}
	if err := decodeBody(r, &req); err != nil {
		errutil.HandleHTTP(r.Context(), w, err, http.StatusBadRequest)
		return
	}

	entry, err := s.uc.AddManualEntry(r.Context(), caseIDParam(r), req.Name, req.Content, req.URL)
	if err != nil {
		handleError(w, r, err)
		return
	}

	respondJSON(w, r, map[string]any{"success": true, "data": entry})
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	profiles, err := s.uc.Analyze(r.Context(), caseIDParam(r))
	if err != nil {
		handleError(w, r, err)
		return
	}

	respondJSON(w, r, map[string]any{"profiles": profiles})
}

func (s *Server) handleVariants(w http.ResponseWriter, r *http.Request) {
	var req struct {
		FullName string `json:"fullName"`
	}
	if err := decodeBody(r, &req); err != nil {
		errutil.HandleHTTP(r.Context(), w, err, http.StatusBadRequest)
		return
	}

	variants, err := s.uc.GenerateVariants(r.Context(), req.FullName)
	if err != nil {
		handleError(w, r, err)
		return
	}

	respondJSON(w, r, variants)
}
