package core

import "sort"

// FindingType classifies a single review finding.
type FindingType string

const (
	FindingStyle        FindingType = "style"
	FindingBug          FindingType = "bug"
	FindingPerformance  FindingType = "performance"
	FindingBestPractice FindingType = "best_practice"
)

// Valid reports whether t is one of the known finding types.
func (t FindingType) Valid() bool {
	switch t {
	case FindingStyle, FindingBug, FindingPerformance, FindingBestPractice:
		return true
	}
	return false
}

// Critical reports whether findings of this type count as critical.
// Bugs and performance problems are critical; style and best-practice
// suggestions are not.
func (t FindingType) Critical() bool {
	return t == FindingBug || t == FindingPerformance
}

// Finding represents a single piece of feedback for a specific line of code.
type Finding struct {
	File        string      `json:"file"`
	Type        FindingType `json:"type"`
	Line        int         `json:"line"`
	Description string      `json:"description"`
	Suggestion  string      `json:"suggestion"`
	Critical    bool        `json:"critical"`
}

// FileReview groups the findings for a single file.
type FileReview struct {
	File     string    `json:"file"`
	Findings []Finding `json:"findings"`
}

// AnalysisSummary aggregates over the findings of a report. It is always
// derived from the findings it accompanies and is never stored or updated
// independently of them.
type AnalysisSummary struct {
	TotalFiles     int `json:"total_files"`
	TotalIssues    int `json:"total_issues"`
	CriticalIssues int `json:"critical_issues"`
}

// AnalysisReport is the complete structured outcome of one analysis:
// per-file findings plus their derived summary.
type AnalysisReport struct {
	Files   []FileReview    `json:"files"`
	Summary AnalysisSummary `json:"summary"`
}

// BuildReport groups findings by file and computes the summary. The derived
// Critical flag on each finding is set here from its type, overriding
// whatever the source claimed.
func BuildReport(findings []Finding) *AnalysisReport {
	byFile := make(map[string][]Finding)
	for _, f := range findings {
		f.Critical = f.Type.Critical()
		byFile[f.File] = append(byFile[f.File], f)
	}

	files := make([]string, 0, len(byFile))
	for name := range byFile {
		files = append(files, name)
	}
	sort.Strings(files)

	report := &AnalysisReport{Files: make([]FileReview, 0, len(files))}
	for _, name := range files {
		report.Files = append(report.Files, FileReview{File: name, Findings: byFile[name]})
		for _, f := range byFile[name] {
			report.Summary.TotalIssues++
			if f.Critical {
				report.Summary.CriticalIssues++
			}
		}
	}
	report.Summary.TotalFiles = len(files)
	return report
}
