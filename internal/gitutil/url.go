// Package gitutil contains helpers for working with repository references.
package gitutil

import (
	"fmt"
	"regexp"
	"strings"
)

var repoRefRegex = regexp.MustCompile(`^([A-Za-z0-9_.-]+)/([A-Za-z0-9_.-]+)$`)

// ParseRepoRef parses a repository reference and extracts the owner and repo.
// Supported formats:
//   - owner/repo
//   - https://github.com/owner/repo (with optional trailing slash or .git)
func ParseRepoRef(ref string) (owner, repo string, err error) {
	trimmed := strings.TrimSpace(ref)
	trimmed = strings.TrimSuffix(trimmed, "/")

	if idx := strings.Index(trimmed, "github.com/"); idx >= 0 {
		trimmed = trimmed[idx+len("github.com/"):]
	}
	trimmed = strings.TrimSuffix(trimmed, ".git")

	matches := repoRefRegex.FindStringSubmatch(trimmed)
	if matches == nil {
		return "", "", fmt.Errorf("invalid repository reference: %q", ref)
	}
	return matches[1], matches[2], nil
}
