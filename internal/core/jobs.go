// Package core defines the essential interfaces and data structures that form the
// backbone of the application. These components are designed to be abstract,
// allowing for flexible and decoupled implementations of the application's logic.
package core

import (
	"context"
)

// JobDispatcher defines the contract for a system that can accept and queue
// background jobs for asynchronous processing. This interface decouples the
// submission endpoint from the job execution mechanism.
type JobDispatcher interface {
	// Dispatch accepts an AnalysisJob and queues it for processing.
	// It returns an error if the job cannot be queued, for example, if the
	// queue is full, providing a mechanism for backpressure.
	Dispatch(ctx context.Context, job *AnalysisJob) error

	// Stop shuts the dispatcher down, waiting for in-flight jobs to finish.
	Stop()
}

// Job represents a single, executable unit of work that can be processed by the
// application's job dispatcher. Each job analyzes one pull request and owns the
// full lifecycle of its result record.
type Job interface {
	// Run executes the job's logic. It receives a context for managing its
	// lifecycle and an AnalysisJob describing what to analyze. It returns an
	// error if the job fails to complete successfully; the error is for
	// logging only, as the terminal outcome is always recorded in the result
	// store before Run returns.
	Run(ctx context.Context, job *AnalysisJob) error
}
