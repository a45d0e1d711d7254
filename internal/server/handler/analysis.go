// Package handler provides the HTTP handlers for the analysis API.
package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/sevigo/pr-warden/internal/core"
	"github.com/sevigo/pr-warden/internal/gitutil"
	"github.com/sevigo/pr-warden/internal/store"
)

// AnalysisHandler serves job submission and status/result queries. Queries
// read only from the result store, never from the queue or a running
// pipeline.
type AnalysisHandler struct {
	dispatcher core.JobDispatcher
	results    store.ResultStore
	logger     *slog.Logger
}

// NewAnalysisHandler creates a new analysis handler.
func NewAnalysisHandler(dispatcher core.JobDispatcher, results store.ResultStore, logger *slog.Logger) *AnalysisHandler {
	return &AnalysisHandler{
		dispatcher: dispatcher,
		results:    results,
		logger:     logger,
	}
}

type analyzeRequest struct {
	RepoURL     string `json:"repo_url"`
	PRNumber    int    `json:"pr_number"`
	GitHubToken string `json:"github_token,omitempty"`
	CallbackURL string `json:"callback_url,omitempty"`
}

type analyzeResponse struct {
	JobID string `json:"job_id"`
}

type statusResponse struct {
	JobID  string         `json:"job_id"`
	Status core.JobStatus `json:"status"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Submit accepts an analysis request, records it as pending, and queues it.
// It returns the job identifier immediately; it never blocks on pipeline
// completion.
func (h *AnalysisHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if _, _, err := gitutil.ParseRepoRef(req.RepoURL); err != nil {
		h.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.PRNumber <= 0 {
		h.respondError(w, http.StatusBadRequest, "pr_number must be positive")
		return
	}

	job := &core.AnalysisJob{
		JobID:       uuid.NewString(),
		RepoRef:     req.RepoURL,
		ChangeID:    req.PRNumber,
		Credential:  req.GitHubToken,
		CallbackURL: req.CallbackURL,
	}

	// The pending record is written before dispatch so a status query
	// issued right after the 202 always finds the job.
	if err := h.results.Set(r.Context(), &core.JobRecord{JobID: job.JobID, Status: core.StatusPending}); err != nil {
		h.logger.Error("failed to create pending job record", "job_id", job.JobID, "error", err)
		h.respondError(w, http.StatusInternalServerError, "failed to create job")
		return
	}

	if err := h.dispatcher.Dispatch(r.Context(), job); err != nil {
		h.logger.Error("failed to dispatch analysis job", "job_id", job.JobID, "error", err)
		record := &core.JobRecord{JobID: job.JobID, Status: core.StatusFailed, Error: "job queue is full"}
		if setErr := h.results.Set(r.Context(), record); setErr != nil {
			h.logger.Error("failed to mark rejected job as failed", "job_id", job.JobID, "error", setErr)
		}
		h.respondError(w, http.StatusServiceUnavailable, "job queue is full, try again later")
		return
	}

	h.logger.Info("analysis job accepted", "job_id", job.JobID, "repo", job.RepoRef, "pr", job.ChangeID)
	h.respondJSON(w, http.StatusAccepted, analyzeResponse{JobID: job.JobID})
}

// Status returns the current status of a job.
func (h *AnalysisHandler) Status(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")

	record, err := h.getRecord(w, r, jobID)
	if record == nil || err != nil {
		return
	}
	h.respondJSON(w, http.StatusOK, statusResponse{JobID: record.JobID, Status: record.Status})
}

// Results returns the full record of a job: its status plus, in a terminal
// state, either the report or the error.
func (h *AnalysisHandler) Results(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")

	record, err := h.getRecord(w, r, jobID)
	if record == nil || err != nil {
		return
	}
	h.respondJSON(w, http.StatusOK, record)
}

// getRecord loads a job record and writes the error response itself when the
// job is unknown, expired, or the store fails.
func (h *AnalysisHandler) getRecord(w http.ResponseWriter, r *http.Request, jobID string) (*core.JobRecord, error) {
	record, err := h.results.Get(r.Context(), jobID)
	if err != nil {
		if errors.Is(err, core.ErrJobNotFound) {
			h.respondError(w, http.StatusNotFound, "job not found")
			return nil, nil
		}
		h.logger.Error("failed to read job record", "job_id", jobID, "error", err)
		h.respondError(w, http.StatusInternalServerError, "failed to read job record")
		return nil, err
	}
	return record, nil
}

func (h *AnalysisHandler) respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

func (h *AnalysisHandler) respondError(w http.ResponseWriter, status int, message string) {
	h.respondJSON(w, status, errorResponse{Error: message})
}
