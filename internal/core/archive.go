package core

import "time"

// ArchivedAnalysis is a completed analysis report persisted to the archive
// database. Unlike the expiring job record, archived reports are kept as
// long-term history.
type ArchivedAnalysis struct {
	ID        int64
	JobID     string
	RepoRef   string
	ChangeID  int
	Report    *AnalysisReport
	CreatedAt time.Time
}
