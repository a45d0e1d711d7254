package core

import "errors"

// ErrJobNotFound is returned by a result store when a job identifier is
// unknown or its record has expired. The two cases are deliberately
// indistinguishable to callers.
var ErrJobNotFound = errors.New("job not found")

// JobStatus is the lifecycle state of a job as visible to clients.
type JobStatus string

const (
	StatusPending    JobStatus = "pending"
	StatusProcessing JobStatus = "processing"
	StatusCompleted  JobStatus = "completed"
	StatusFailed     JobStatus = "failed"
)

// Terminal reports whether the status is an end state.
func (s JobStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// JobRecord is the persisted view of a job. Exactly one of Report and Error
// is set once the job reaches a terminal status; both are empty before that.
// Every write replaces the whole record, so a record can never mix fields
// from two different writes.
type JobRecord struct {
	JobID  string          `json:"job_id"`
	Status JobStatus       `json:"status"`
	Report *AnalysisReport `json:"results,omitempty"`
	Error  string          `json:"error,omitempty"`
}
