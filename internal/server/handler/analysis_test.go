package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sevigo/pr-warden/internal/core"
)

type memoryStore struct {
	mu      sync.Mutex
	records map[string]*core.JobRecord
}

func newMemoryStore() *memoryStore {
	return &memoryStore{records: make(map[string]*core.JobRecord)}
}

func (m *memoryStore) Set(_ context.Context, record *core.JobRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	clone := *record
	m.records[record.JobID] = &clone
	return nil
}

func (m *memoryStore) Get(_ context.Context, jobID string) (*core.JobRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	record, ok := m.records[jobID]
	if !ok {
		return nil, core.ErrJobNotFound
	}
	clone := *record
	return &clone, nil
}

func (m *memoryStore) Health(_ context.Context) error { return nil }

type fakeDispatcher struct {
	dispatched []*core.AnalysisJob
	err        error
}

func (d *fakeDispatcher) Dispatch(_ context.Context, job *core.AnalysisJob) error {
	if d.err != nil {
		return d.err
	}
	d.dispatched = append(d.dispatched, job)
	return nil
}

func (d *fakeDispatcher) Stop() {}

func newTestRouter(dispatcher *fakeDispatcher, results *memoryStore) *chi.Mux {
	h := NewAnalysisHandler(dispatcher, results, slog.New(slog.NewTextHandler(os.Stdout, nil)))
	r := chi.NewRouter()
	r.Post("/analyze-pr", h.Submit)
	r.Get("/status/{jobID}", h.Status)
	r.Get("/results/{jobID}", h.Results)
	return r
}

func TestSubmit_AcceptsJob(t *testing.T) {
	dispatcher := &fakeDispatcher{}
	results := newMemoryStore()
	router := newTestRouter(dispatcher, results)

	body := `{"repo_url": "sevigo/pr-warden", "pr_number": 12, "github_token": "secret", "callback_url": "http://cb"}`
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/analyze-pr", strings.NewReader(body)))

	require.Equal(t, http.StatusAccepted, rec.Code)

	var resp struct {
		JobID string `json:"job_id"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.JobID)

	// Pending record exists before any worker has touched the job.
	record, err := results.Get(context.Background(), resp.JobID)
	require.NoError(t, err)
	assert.Equal(t, core.StatusPending, record.Status)

	require.Len(t, dispatcher.dispatched, 1)
	job := dispatcher.dispatched[0]
	assert.Equal(t, resp.JobID, job.JobID)
	assert.Equal(t, "sevigo/pr-warden", job.RepoRef)
	assert.Equal(t, 12, job.ChangeID)
	assert.Equal(t, "secret", job.Credential)
	assert.Equal(t, "http://cb", job.CallbackURL)
}

func TestSubmit_RejectsBadInput(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "Malformed JSON", body: `{"repo_url": `},
		{name: "Invalid repo reference", body: `{"repo_url": "not a repo", "pr_number": 1}`},
		{name: "Missing repo reference", body: `{"pr_number": 1}`},
		{name: "Zero PR number", body: `{"repo_url": "a/b", "pr_number": 0}`},
		{name: "Negative PR number", body: `{"repo_url": "a/b", "pr_number": -3}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dispatcher := &fakeDispatcher{}
			router := newTestRouter(dispatcher, newMemoryStore())

			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/analyze-pr", strings.NewReader(tt.body)))

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Empty(t, dispatcher.dispatched)
		})
	}
}

func TestSubmit_QueueFull(t *testing.T) {
	dispatcher := &fakeDispatcher{err: errors.New("job queue is full")}
	results := newMemoryStore()
	router := newTestRouter(dispatcher, results)

	body := `{"repo_url": "a/b", "pr_number": 1}`
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/analyze-pr", strings.NewReader(body)))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	// The rejected job is visible as failed, not stuck pending.
	results.mu.Lock()
	defer results.mu.Unlock()
	require.Len(t, results.records, 1)
	for _, record := range results.records {
		assert.Equal(t, core.StatusFailed, record.Status)
	}
}

func TestStatus_UnknownJobIs404(t *testing.T) {
	router := newTestRouter(&fakeDispatcher{}, newMemoryStore())

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/status/never-submitted", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestStatus_ReturnsCurrentStatus(t *testing.T) {
	results := newMemoryStore()
	require.NoError(t, results.Set(context.Background(), &core.JobRecord{JobID: "job-1", Status: core.StatusProcessing}))
	router := newTestRouter(&fakeDispatcher{}, results)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/status/job-1", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		JobID  string `json:"job_id"`
		Status string `json:"status"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "job-1", resp.JobID)
	assert.Equal(t, "processing", resp.Status)
}

func TestResults_CompletedJob(t *testing.T) {
	results := newMemoryStore()
	report := core.BuildReport([]core.Finding{
		{File: "main.go", Type: core.FindingBug, Line: 4, Description: "d", Suggestion: "s"},
	})
	require.NoError(t, results.Set(context.Background(), &core.JobRecord{
		JobID:  "job-2",
		Status: core.StatusCompleted,
		Report: report,
	}))
	router := newTestRouter(&fakeDispatcher{}, results)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/results/job-2", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var record core.JobRecord
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &record))
	assert.Equal(t, core.StatusCompleted, record.Status)
	require.NotNil(t, record.Report)
	assert.Equal(t, 1, record.Report.Summary.TotalIssues)
	assert.Empty(t, record.Error)
}

func TestResults_FailedJob(t *testing.T) {
	results := newMemoryStore()
	require.NoError(t, results.Set(context.Background(), &core.JobRecord{
		JobID:  "job-3",
		Status: core.StatusFailed,
		Error:  "fetching_diff timed out after 1m0s",
	}))
	router := newTestRouter(&fakeDispatcher{}, results)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/results/job-3", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var record core.JobRecord
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &record))
	assert.Equal(t, core.StatusFailed, record.Status)
	assert.Contains(t, record.Error, "timed out")
	assert.Nil(t, record.Report)
}
