// Package pipeline sequences the two analysis stages, fetch-diff then
// analyze, as an explicit state machine carrying the job's working state.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sevigo/pr-warden/internal/core"
	"github.com/sevigo/pr-warden/internal/fetcher"
	"github.com/sevigo/pr-warden/internal/llm"
)

// Stage identifies a state of the pipeline. Transitions are strictly
// sequential: Start → FetchingDiff → Analyzing → Done, with Failed reachable
// from either remote stage. There is no branching, looping, or re-entry.
type Stage int

const (
	StageStart Stage = iota
	StageFetchingDiff
	StageAnalyzing
	StageDone
	StageFailed
)

func (s Stage) String() string {
	switch s {
	case StageStart:
		return "start"
	case StageFetchingDiff:
		return "fetching_diff"
	case StageAnalyzing:
		return "analyzing"
	case StageDone:
		return "done"
	case StageFailed:
		return "failed"
	default:
		return fmt.Sprintf("stage(%d)", int(s))
	}
}

// Context is the working state threaded through the stages. Each stage only
// reads fields produced by earlier stages; a failing stage leaves later
// fields nil.
type Context struct {
	Job    *core.AnalysisJob
	Bundle *core.DiffBundle
	Report *core.AnalysisReport
}

// StageError wraps a stage failure with the stage it occurred in.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// MalformedOutputError reports that the model answered but its output could
// not be parsed as findings. The raw output travels with the error so that
// the stored failure is diagnosable; Error() truncates it to keep job
// records bounded.
type MalformedOutputError struct {
	Raw string
}

const maxRawInError = 2000

func (e *MalformedOutputError) Error() string {
	raw := e.Raw
	if len(raw) > maxRawInError {
		raw = raw[:maxRawInError] + "... (truncated)"
	}
	return fmt.Sprintf("model output is not a valid findings array; raw output: %s", raw)
}

// Runner executes the pipeline for one job. It holds no per-job state and is
// safe for concurrent use by multiple workers.
type Runner struct {
	fetcher        fetcher.Fetcher
	analyzer       llm.Analyzer
	fetchTimeout   time.Duration
	analyzeTimeout time.Duration
	logger         *slog.Logger
}

// NewRunner creates a pipeline runner. Both remote stages are bounded by
// their configured timeouts; the pipeline itself never retries.
func NewRunner(f fetcher.Fetcher, a llm.Analyzer, fetchTimeout, analyzeTimeout time.Duration, logger *slog.Logger) *Runner {
	return &Runner{
		fetcher:        f,
		analyzer:       a,
		fetchTimeout:   fetchTimeout,
		analyzeTimeout: analyzeTimeout,
		logger:         logger,
	}
}

// Run drives the job through the stages to Done or Failed. On success it
// returns the completed report; on failure it returns a *StageError naming
// the stage that failed.
func (r *Runner) Run(ctx context.Context, job *core.AnalysisJob) (*core.AnalysisReport, error) {
	pc := &Context{Job: job}
	stage := StageStart

	for {
		switch stage {
		case StageStart:
			stage = StageFetchingDiff

		case StageFetchingDiff:
			r.logger.Debug("pipeline stage", "job_id", job.JobID, "stage", stage.String())

			fetchCtx, cancel := context.WithTimeout(ctx, r.fetchTimeout)
			bundle, err := r.fetcher.Fetch(fetchCtx, job)
			cancel()
			if err != nil {
				return nil, r.fail(job, stage, r.wrapTimeout(err, stage, r.fetchTimeout))
			}
			pc.Bundle = bundle
			stage = StageAnalyzing

		case StageAnalyzing:
			r.logger.Debug("pipeline stage", "job_id", job.JobID, "stage", stage.String())

			analyzeCtx, cancel := context.WithTimeout(ctx, r.analyzeTimeout)
			outcome, err := r.analyzer.Analyze(analyzeCtx, pc.Bundle)
			cancel()
			if err != nil {
				return nil, r.fail(job, stage, r.wrapTimeout(err, stage, r.analyzeTimeout))
			}

			switch o := outcome.(type) {
			case llm.ParsedFindings:
				pc.Report = o.Report
				stage = StageDone
			case llm.RawTextFallback:
				return nil, r.fail(job, stage, &MalformedOutputError{Raw: o.Raw})
			default:
				return nil, r.fail(job, stage, fmt.Errorf("unexpected analyzer outcome %T", outcome))
			}

		case StageDone:
			return pc.Report, nil
		}
	}
}

// fail logs the transition into the absorbing Failed state and builds the
// stage error.
func (r *Runner) fail(job *core.AnalysisJob, stage Stage, err error) *StageError {
	r.logger.Warn("pipeline failed",
		"job_id", job.JobID,
		"stage", stage.String(),
		"error", err,
	)
	return &StageError{Stage: stage, Err: err}
}

// wrapTimeout makes deadline errors explicit about which stage timed out.
func (r *Runner) wrapTimeout(err error, stage Stage, timeout time.Duration) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s timed out after %s: %w", stage, timeout, err)
	}
	return err
}
