// Package llm turns a pull request diff into structured review findings by
// prompting a text-generation backend and parsing its output defensively.
package llm

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sevigo/goframe/llms"

	"github.com/sevigo/pr-warden/internal/core"
)

// Model is the minimal text-completion surface the analyzer needs: one
// prompt in, one untrusted text response out. The goframe llms.Model
// satisfies it.
type Model interface {
	Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error)
}

// Analyzer produces review findings for a diff bundle. An error return means
// the backend itself failed (unreachable, timeout); a RawTextFallback outcome
// means the backend answered but not with parseable findings.
type Analyzer interface {
	Analyze(ctx context.Context, bundle *core.DiffBundle) (Outcome, error)
}

type modelAnalyzer struct {
	model   Model
	prompts *PromptManager
	logger  *slog.Logger
}

// NewAnalyzer creates an Analyzer backed by the given model.
func NewAnalyzer(model Model, prompts *PromptManager, logger *slog.Logger) Analyzer {
	return &modelAnalyzer{model: model, prompts: prompts, logger: logger}
}

// promptFile is the per-file view rendered into the analysis prompt.
type promptFile struct {
	Filename  string
	Status    core.FileStatus
	Patch     string
	Additions int
	Deletions int
	Context   string
}

type promptData struct {
	Files []promptFile
}

// Analyze renders the deterministic analysis prompt, invokes the model once,
// and parses the response. The prompt construction is pure: the same bundle
// always yields the same prompt.
func (a *modelAnalyzer) Analyze(ctx context.Context, bundle *core.DiffBundle) (Outcome, error) {
	data := promptData{Files: make([]promptFile, 0, len(bundle.Files))}
	for _, file := range bundle.Files {
		data.Files = append(data.Files, promptFile{
			Filename:  file.Filename,
			Status:    file.Status,
			Patch:     file.Patch,
			Additions: file.Additions,
			Deletions: file.Deletions,
			Context:   bundle.Context[file.Filename],
		})
	}

	prompt, err := a.prompts.Render(CodeAnalysisPrompt, DefaultProvider, data)
	if err != nil {
		return nil, fmt.Errorf("failed to render analysis prompt: %w", err)
	}

	response, err := a.model.Call(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("model backend call failed: %w", err)
	}

	outcome := ParseFindings(response)
	if fallback, ok := outcome.(RawTextFallback); ok {
		a.logger.Warn("model response did not parse as findings",
			"response_len", len(fallback.Raw),
		)
	}
	return outcome, nil
}
