// Package jobs defines background tasks such as pull request analyses.
package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/sevigo/pr-warden/internal/core"
)

// dispatcher implements core.JobDispatcher and manages a pool of worker
// goroutines for processing queued analysis jobs.
type dispatcher struct {
	analyzeJob core.Job               // Job implementation executed by each worker.
	jobQueue   chan *core.AnalysisJob // Queue of pending analysis jobs.
	maxWorkers int                    // Number of concurrent workers.
	wg         sync.WaitGroup         // Tracks active workers for graceful shutdown.
	logger     *slog.Logger           // Logger instance for the dispatcher.
}

// NewDispatcher initializes a dispatcher with a worker pool.
// If maxWorkers is 0 or negative, it defaults to 1; if queueSize is not
// positive, it defaults to 100.
func NewDispatcher(analyzeJob core.Job, maxWorkers, queueSize int, logger *slog.Logger) core.JobDispatcher {
	if maxWorkers <= 0 {
		maxWorkers = 1
	}
	if queueSize <= 0 {
		queueSize = 100
	}
	d := &dispatcher{
		analyzeJob: analyzeJob,
		maxWorkers: maxWorkers,
		jobQueue:   make(chan *core.AnalysisJob, queueSize),
		logger:     logger,
	}
	d.startWorkers()
	return d
}

// startWorkers launches maxWorkers goroutines to process jobs from the queue.
func (d *dispatcher) startWorkers() {
	for i := range d.maxWorkers {
		d.wg.Add(1)
		go d.startWorker(i)
	}
}

// startWorker processes jobs from the queue until it's closed.
func (d *dispatcher) startWorker(workerID int) {
	defer d.wg.Done()
	d.logger.Info("starting analysis worker", "id", workerID)

	for job := range d.jobQueue {
		d.processJob(workerID, job)
	}

	d.logger.Info("shutting down analysis worker", "id", workerID)
}

// processJob logs and runs one analysis job. Once a worker picks up a job it
// runs to a terminal state; there is no mid-job cancellation.
func (d *dispatcher) processJob(workerID int, job *core.AnalysisJob) {
	d.logger.Info("worker processing job",
		"worker_id", workerID,
		"job_id", job.JobID,
		"repo", job.RepoRef,
	)

	err := d.analyzeJob.Run(context.Background(), job)
	if err != nil {
		d.logger.Error("analysis job failed",
			"job_id", job.JobID,
			"repo", job.RepoRef,
			"pr", job.ChangeID,
			"error", err,
		)
	}
}

// Dispatch queues an analysis job for processing by a worker.
func (d *dispatcher) Dispatch(_ context.Context, job *core.AnalysisJob) error {
	d.logger.Info("queuing analysis job", "job_id", job.JobID, "repo", job.RepoRef, "pr", job.ChangeID)

	select {
	case d.jobQueue <- job:
		return nil
	default:
		return fmt.Errorf("job queue is full, cannot accept new analysis job")
	}
}

// Stop gracefully shuts down the dispatcher, waiting for all workers to finish.
func (d *dispatcher) Stop() {
	d.logger.Info("stopping dispatcher and waiting for jobs to finish")
	close(d.jobQueue)
	d.wg.Wait()
	d.logger.Info("all analysis jobs have finished")
}
