package llm

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"

	"github.com/sevigo/goframe/llms"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sevigo/pr-warden/internal/core"
)

// fakeModel records the prompt it was called with and returns a canned
// response.
type fakeModel struct {
	prompt   string
	response string
	err      error
}

func (m *fakeModel) Call(_ context.Context, prompt string, _ ...llms.CallOption) (string, error) {
	m.prompt = prompt
	return m.response, m.err
}

func testBundle() *core.DiffBundle {
	return &core.DiffBundle{
		Files: []core.FileChange{
			{Filename: "main.go", Status: core.FileModified, Patch: "@@ -1 +1 @@\n-old\n+new", Additions: 1, Deletions: 1},
		},
		Context: map[string]string{"main.go": "package main\n"},
	}
}

func newTestAnalyzer(t *testing.T, model *fakeModel) Analyzer {
	t.Helper()
	pm, err := NewPromptManager()
	require.NoError(t, err)
	return NewAnalyzer(model, pm, slog.New(slog.NewTextHandler(os.Stdout, nil)))
}

func TestAnalyze_ParsesModelResponse(t *testing.T) {
	model := &fakeModel{
		response: `[{"file": "main.go", "type": "bug", "line": 1, "description": "broken", "suggestion": "fix"}]`,
	}
	a := newTestAnalyzer(t, model)

	outcome, err := a.Analyze(context.Background(), testBundle())
	require.NoError(t, err)

	parsed, ok := outcome.(ParsedFindings)
	require.True(t, ok)
	assert.Equal(t, 1, parsed.Report.Summary.TotalIssues)
	assert.Equal(t, 1, parsed.Report.Summary.CriticalIssues)

	// The prompt must carry the diff and its pre-change context.
	assert.Contains(t, model.prompt, "main.go")
	assert.Contains(t, model.prompt, "@@ -1 +1 @@")
	assert.Contains(t, model.prompt, "package main")
}

func TestAnalyze_ProseResponseFallsBack(t *testing.T) {
	model := &fakeModel{response: "I could not find any JSON to give you, sorry."}
	a := newTestAnalyzer(t, model)

	outcome, err := a.Analyze(context.Background(), testBundle())
	require.NoError(t, err, "unparseable output is an outcome, not an error")

	fallback, ok := outcome.(RawTextFallback)
	require.True(t, ok)
	assert.Equal(t, model.response, fallback.Raw)
}

func TestAnalyze_BackendErrorPropagates(t *testing.T) {
	model := &fakeModel{err: errors.New("connection refused")}
	a := newTestAnalyzer(t, model)

	_, err := a.Analyze(context.Background(), testBundle())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "model backend call failed")
}
