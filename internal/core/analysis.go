package core

// AnalysisJob describes one pull-request analysis request. It is created at
// submission time, queued, and consumed exactly once by a worker. The struct
// is never mutated after it has been dispatched; the pipeline carries its own
// working state.
type AnalysisJob struct {
	// JobID is the opaque identifier handed back to the submitter. It is
	// generated once at submission and never reused.
	JobID string

	// RepoRef identifies the repository, either as "owner/repo" or as a full
	// GitHub URL.
	RepoRef string

	// ChangeID is the pull request number.
	ChangeID int

	// Credential is an optional short-lived GitHub token scoped to the diff
	// source. It lives only for the duration of the job run and must never be
	// written to the result store, the archive, or any log field.
	Credential string

	// CallbackURL, when set, receives a single best-effort completion
	// notification.
	CallbackURL string
}
