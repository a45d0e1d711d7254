package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/sevigo/pr-warden/internal/core"
)

// apiClient is a thin HTTP client for the PR Warden server API.
type apiClient struct {
	baseURL string
	http    *http.Client
}

func newAPIClient() *apiClient {
	return &apiClient{
		baseURL: strings.TrimRight(viper.GetString("SERVER_URL"), "/"),
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

type submitRequest struct {
	RepoURL     string `json:"repo_url"`
	PRNumber    int    `json:"pr_number"`
	GitHubToken string `json:"github_token,omitempty"`
	CallbackURL string `json:"callback_url,omitempty"`
}

type submitResponse struct {
	JobID string `json:"job_id"`
}

func (c *apiClient) submit(ctx context.Context, req submitRequest) (string, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("failed to encode request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/v1/analyze-pr", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("failed to reach server at %s: %w", c.baseURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusAccepted {
		return "", apiError(resp)
	}

	var out submitResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("failed to decode server response: %w", err)
	}
	return out.JobID, nil
}

func (c *apiClient) record(ctx context.Context, path, jobID string) (*core.JobRecord, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s/api/v1/%s/%s", c.baseURL, path, jobID), nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to reach server at %s: %w", c.baseURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("job %q not found, it may have expired", jobID)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, apiError(resp)
	}

	var record core.JobRecord
	if err := json.NewDecoder(resp.Body).Decode(&record); err != nil {
		return nil, fmt.Errorf("failed to decode server response: %w", err)
	}
	return &record, nil
}

func (c *apiClient) status(ctx context.Context, jobID string) (*core.JobRecord, error) {
	return c.record(ctx, "status", jobID)
}

func (c *apiClient) results(ctx context.Context, jobID string) (*core.JobRecord, error) {
	return c.record(ctx, "results", jobID)
}

func apiError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	msg := strings.TrimSpace(string(body))
	if msg == "" {
		msg = resp.Status
	}
	return fmt.Errorf("server returned %d: %s", resp.StatusCode, msg)
}
