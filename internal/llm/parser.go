package llm

import (
	"encoding/json"
	"strings"

	"github.com/sevigo/pr-warden/internal/core"
)

// Outcome is the result of interpreting a model response. It is a closed sum:
// either the response parsed into a well-formed report (ParsedFindings), or
// it did not and the raw text is preserved for diagnosis (RawTextFallback).
// Malformed model output is an expected condition, not an error path, so
// callers are forced to handle both cases explicitly.
type Outcome interface {
	outcome()
}

// ParsedFindings carries the structured report built from a valid response.
type ParsedFindings struct {
	Report *core.AnalysisReport
}

// RawTextFallback carries the unparseable model response verbatim.
type RawTextFallback struct {
	Raw string
}

func (ParsedFindings) outcome()  {}
func (RawTextFallback) outcome() {}

// rawFinding mirrors the JSON schema the prompt demands. Pointer fields let
// the parser distinguish "absent" from "zero value": any missing field fails
// the parse wholesale, because partially trusting model output is unsafe for
// a review tool.
type rawFinding struct {
	File        *string `json:"file"`
	Type        *string `json:"type"`
	Line        *int    `json:"line"`
	Description *string `json:"description"`
	Suggestion  *string `json:"suggestion"`
}

// ParseFindings interprets a model response as a raw JSON array of findings.
// It tolerates a wrapping code fence (a common model quirk) but nothing else:
// prose around the array, unknown fields, missing fields, invalid types, or
// non-positive line numbers all yield a RawTextFallback carrying the
// original response. It never returns an error and never panics.
func ParseFindings(response string) Outcome {
	cleaned := stripCodeFence(response)

	dec := json.NewDecoder(strings.NewReader(cleaned))
	dec.DisallowUnknownFields()

	var raw []rawFinding
	if err := dec.Decode(&raw); err != nil {
		return RawTextFallback{Raw: response}
	}
	// Trailing garbage after the array is as untrustworthy as prose before it.
	if dec.More() {
		return RawTextFallback{Raw: response}
	}

	findings := make([]core.Finding, 0, len(raw))
	for _, r := range raw {
		if r.File == nil || r.Type == nil || r.Line == nil || r.Description == nil || r.Suggestion == nil {
			return RawTextFallback{Raw: response}
		}
		ftype := core.FindingType(*r.Type)
		if !ftype.Valid() || *r.File == "" || *r.Line <= 0 || *r.Description == "" {
			return RawTextFallback{Raw: response}
		}
		findings = append(findings, core.Finding{
			File:        *r.File,
			Type:        ftype,
			Line:        *r.Line,
			Description: *r.Description,
			Suggestion:  *r.Suggestion,
		})
	}

	return ParsedFindings{Report: core.BuildReport(findings)}
}

// stripCodeFence removes a ``` or ```json wrapping that some models add
// around their output despite instructions.
func stripCodeFence(s string) string {
	trimmed := strings.TrimSpace(s)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}

	idx := strings.Index(trimmed, "\n")
	if idx < 0 {
		return trimmed
	}
	inner := trimmed[idx+1:]
	if lastFence := strings.LastIndex(inner, "```"); lastFence >= 0 {
		inner = inner[:lastFence]
	}
	return strings.TrimSpace(inner)
}
