// Package storage implements the long-term report archive.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	// import db drivers
	_ "github.com/lib/pq"

	"github.com/sevigo/pr-warden/internal/core"
)

// ErrNoArchivedAnalysis is returned when no archived report exists for a
// repo/change pair.
var ErrNoArchivedAnalysis = errors.New("no archived analysis found")

// Archive defines the interface for the report archive. Archiving is
// write-mostly history; failures here never affect a job's stored status.
type Archive interface {
	SaveAnalysis(ctx context.Context, analysis *core.ArchivedAnalysis) error
	GetLatestAnalysis(ctx context.Context, repoRef string, changeID int) (*core.ArchivedAnalysis, error)
}

type postgresArchive struct {
	db *sqlx.DB
}

// NewArchive creates an Archive backed by Postgres.
func NewArchive(db *sqlx.DB) Archive {
	return &postgresArchive{db: db}
}

// SaveAnalysis inserts a completed analysis report.
func (a *postgresArchive) SaveAnalysis(ctx context.Context, analysis *core.ArchivedAnalysis) error {
	report, err := json.Marshal(analysis.Report)
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}

	query := `INSERT INTO analyses (job_id, repo_ref, change_id, report, created_at) VALUES ($1, $2, $3, $4, $5)`
	_, err = a.db.ExecContext(ctx, query, analysis.JobID, analysis.RepoRef, analysis.ChangeID, report, time.Now())
	return err
}

// GetLatestAnalysis retrieves the most recent archived report for a given
// repository and pull request.
func (a *postgresArchive) GetLatestAnalysis(ctx context.Context, repoRef string, changeID int) (*core.ArchivedAnalysis, error) {
	query := `
		SELECT id, job_id, repo_ref, change_id, report, created_at
		FROM analyses
		WHERE repo_ref = $1 AND change_id = $2
		ORDER BY created_at DESC
		LIMIT 1`

	row := a.db.QueryRowContext(ctx, query, repoRef, changeID)

	var analysis core.ArchivedAnalysis
	var report []byte
	err := row.Scan(&analysis.ID, &analysis.JobID, &analysis.RepoRef, &analysis.ChangeID, &report, &analysis.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w for %s#%d", ErrNoArchivedAnalysis, repoRef, changeID)
		}
		return nil, err
	}

	if err := json.Unmarshal(report, &analysis.Report); err != nil {
		return nil, fmt.Errorf("failed to unmarshal archived report: %w", err)
	}
	return &analysis, nil
}
