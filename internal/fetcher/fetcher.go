// Package fetcher retrieves the normalized diff of a pull request together
// with the pre-change file contents needed as review context.
package fetcher

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sevigo/pr-warden/internal/core"
	"github.com/sevigo/pr-warden/internal/github"
	"github.com/sevigo/pr-warden/internal/gitutil"
)

// Fetcher produces a DiffBundle for one pull request.
type Fetcher interface {
	Fetch(ctx context.Context, job *core.AnalysisJob) (*core.DiffBundle, error)
}

type githubFetcher struct {
	defaultToken string
	logger       *slog.Logger

	// newClient is swapped out in tests.
	newClient func(ctx context.Context, token string, logger *slog.Logger) github.Client
}

// New creates a Fetcher backed by the GitHub API. Jobs carrying their own
// credential use it; otherwise defaultToken is used, which may be empty for
// unauthenticated access.
func New(defaultToken string, logger *slog.Logger) Fetcher {
	return &githubFetcher{
		defaultToken: defaultToken,
		logger:       logger,
		newClient:    github.NewClient,
	}
}

// Fetch resolves the repository reference, lists the changed files of the
// pull request, and collects pre-change contents at the PR base ref. A
// malformed repository reference or a failed listing is fatal; a failed
// content fetch for an individual file is recorded per file and does not
// fail the bundle.
func (f *githubFetcher) Fetch(ctx context.Context, job *core.AnalysisJob) (*core.DiffBundle, error) {
	owner, repo, err := gitutil.ParseRepoRef(job.RepoRef)
	if err != nil {
		return nil, err
	}

	token := job.Credential
	if token == "" {
		token = f.defaultToken
	}
	client := f.newClient(ctx, token, f.logger)

	pr, err := client.GetPullRequest(ctx, owner, repo, job.ChangeID)
	if err != nil {
		return nil, fmt.Errorf("failed to get pull request %s/%s#%d: %w", owner, repo, job.ChangeID, err)
	}
	baseRef := pr.GetBase().GetSHA()
	if baseRef == "" {
		return nil, fmt.Errorf("pull request %s/%s#%d has no base SHA", owner, repo, job.ChangeID)
	}

	files, err := client.ListChangedFiles(ctx, owner, repo, job.ChangeID)
	if err != nil {
		return nil, fmt.Errorf("failed to list changed files: %w", err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("pull request %s/%s#%d has no changed files", owner, repo, job.ChangeID)
	}

	bundle := &core.DiffBundle{
		Files:   files,
		Context: make(map[string]string, len(files)),
	}

	for _, file := range files {
		if file.Status == core.FileAdded {
			bundle.Context[file.Filename] = core.NewFileContent
			continue
		}

		content, err := client.GetFileContent(ctx, owner, repo, file.Filename, baseRef)
		if err != nil {
			f.logger.Warn("could not fetch pre-change content",
				"repo", job.RepoRef,
				"file", file.Filename,
				"error", err,
			)
			bundle.Context[file.Filename] = fmt.Sprintf("[content unavailable: %v]", err)
			continue
		}
		bundle.Context[file.Filename] = content
	}

	return bundle, nil
}
