// Package notify delivers best-effort completion callbacks.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/sevigo/pr-warden/internal/core"
)

// Payload is the body of a completion notification.
type Payload struct {
	JobID   string               `json:"job_id"`
	Status  core.JobStatus       `json:"status"`
	Results *core.AnalysisReport `json:"results"`
	Error   *string              `json:"error"`
}

// Notifier delivers a job's terminal record to a callback address.
type Notifier interface {
	// Notify makes a single delivery attempt. A missing callback address is
	// a no-op. Failures are logged and swallowed; they never influence the
	// job's stored status and are never retried.
	Notify(ctx context.Context, callbackURL string, record *core.JobRecord)
}

type webhookNotifier struct {
	client *http.Client
	logger *slog.Logger
}

// NewWebhookNotifier creates a Notifier that POSTs JSON payloads with the
// given delivery timeout.
func NewWebhookNotifier(timeout time.Duration, logger *slog.Logger) Notifier {
	return &webhookNotifier{
		client: &http.Client{Timeout: timeout},
		logger: logger,
	}
}

func (n *webhookNotifier) Notify(ctx context.Context, callbackURL string, record *core.JobRecord) {
	if callbackURL == "" {
		return
	}

	payload := Payload{
		JobID:   record.JobID,
		Status:  record.Status,
		Results: record.Report,
	}
	if record.Error != "" {
		payload.Error = &record.Error
	}

	body, err := json.Marshal(payload)
	if err != nil {
		n.logger.Error("failed to marshal notification payload", "job_id", record.JobID, "error", err)
		return
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, callbackURL, bytes.NewReader(body))
	if err != nil {
		n.logger.Error("failed to build notification request", "job_id", record.JobID, "error", err)
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		n.logger.Warn("notification delivery failed", "job_id", record.JobID, "error", err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		n.logger.Warn("notification rejected by callback",
			"job_id", record.JobID,
			"status", fmt.Sprintf("%d %s", resp.StatusCode, http.StatusText(resp.StatusCode)),
		)
		return
	}

	n.logger.Info("notification delivered", "job_id", record.JobID, "job_status", record.Status)
}
