package jobs

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sevigo/pr-warden/internal/core"
	"github.com/sevigo/pr-warden/internal/notify"
	"github.com/sevigo/pr-warden/internal/storage"
	"github.com/sevigo/pr-warden/internal/store"
)

// PipelineRunner executes the two-stage analysis pipeline for one job.
type PipelineRunner interface {
	Run(ctx context.Context, job *core.AnalysisJob) (*core.AnalysisReport, error)
}

// AnalyzeJob owns the lifecycle of a single analysis job: it transitions the
// job's record through the result store, runs the pipeline, and triggers the
// completion notification. Duplicate delivery of the same job is safe
// because every store write replaces the whole record; re-processing simply
// re-produces the same terminal outcome.
type AnalyzeJob struct {
	runner   PipelineRunner
	results  store.ResultStore
	notifier notify.Notifier
	archive  storage.Archive // nil when archiving is disabled
	logger   *slog.Logger
}

// NewAnalyzeJob creates the job executor. archive may be nil.
func NewAnalyzeJob(runner PipelineRunner, results store.ResultStore, notifier notify.Notifier, archive storage.Archive, logger *slog.Logger) core.Job {
	if runner == nil {
		panic("pipeline runner cannot be nil")
	}
	if results == nil {
		panic("result store cannot be nil")
	}
	if notifier == nil {
		panic("notifier cannot be nil")
	}
	if logger == nil {
		panic("logger cannot be nil")
	}
	return &AnalyzeJob{
		runner:   runner,
		results:  results,
		notifier: notifier,
		archive:  archive,
		logger:   logger,
	}
}

// Run executes the analysis job. It always ends in exactly one terminal
// result store write followed by one notification attempt; no error escapes
// to the queue infrastructure beyond the returned value, which is used for
// logging only.
func (j *AnalyzeJob) Run(ctx context.Context, job *core.AnalysisJob) error {
	if err := j.validateInputs(job); err != nil {
		if job == nil || job.JobID == "" {
			// Without a job id there is no record to fail.
			return fmt.Errorf("input validation failed: %w", err)
		}
		j.finish(ctx, job, &core.JobRecord{
			JobID:  job.JobID,
			Status: core.StatusFailed,
			Error:  err.Error(),
		})
		return fmt.Errorf("input validation failed: %w", err)
	}

	j.logger.Info("starting analysis job", "job_id", job.JobID, "repo", job.RepoRef, "pr", job.ChangeID)

	if err := j.results.Set(ctx, &core.JobRecord{JobID: job.JobID, Status: core.StatusProcessing}); err != nil {
		// The terminal write below is the one that matters; keep going.
		j.logger.Error("failed to mark job as processing", "job_id", job.JobID, "error", err)
	}

	report, runErr := j.runner.Run(ctx, job)

	record := &core.JobRecord{JobID: job.JobID}
	if runErr != nil {
		record.Status = core.StatusFailed
		record.Error = runErr.Error()
	} else {
		record.Status = core.StatusCompleted
		record.Report = report
	}

	j.finish(ctx, job, record)

	if runErr != nil {
		return fmt.Errorf("analysis pipeline failed: %w", runErr)
	}

	j.logger.Info("analysis job completed",
		"job_id", job.JobID,
		"repo", job.RepoRef,
		"pr", job.ChangeID,
		"total_issues", report.Summary.TotalIssues,
		"critical_issues", report.Summary.CriticalIssues,
	)
	return nil
}

// finish writes the terminal record, archives completed reports, and fires
// the notification. The notification always runs after the store write so a
// polling client never sees a stale status after being notified.
func (j *AnalyzeJob) finish(ctx context.Context, job *core.AnalysisJob, record *core.JobRecord) {
	if err := j.results.Set(ctx, record); err != nil {
		j.logger.Error("failed to write terminal job record", "job_id", job.JobID, "error", err)
	}

	if j.archive != nil && record.Status == core.StatusCompleted {
		err := j.archive.SaveAnalysis(ctx, &core.ArchivedAnalysis{
			JobID:    job.JobID,
			RepoRef:  job.RepoRef,
			ChangeID: job.ChangeID,
			Report:   record.Report,
		})
		if err != nil {
			j.logger.Error("failed to archive analysis report", "job_id", job.JobID, "error", err)
		}
	}

	j.notifier.Notify(ctx, job.CallbackURL, record)
}

// validateInputs ensures the job contains all required fields.
func (j *AnalyzeJob) validateInputs(job *core.AnalysisJob) error {
	if job == nil {
		return fmt.Errorf("job cannot be nil")
	}
	if job.JobID == "" {
		return fmt.Errorf("job id cannot be empty")
	}
	if job.RepoRef == "" {
		return fmt.Errorf("repository reference cannot be empty")
	}
	if job.ChangeID <= 0 {
		return fmt.Errorf("pull request number must be positive, got: %d", job.ChangeID)
	}
	return nil
}
