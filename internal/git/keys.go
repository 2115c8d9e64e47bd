package git

import (
	"regexp"

	"github.com/rohankatakam/skuld/internal/config"
)

var defaultPattern = regexp.MustCompile(config.DefaultIssueKeyPattern)

// CompilePattern compiles the configured issue-key pattern once.
// An empty or invalid pattern falls back to the default instead of failing the run.
func CompilePattern(pattern string) *regexp.Regexp {
	if pattern == "" {
		return defaultPattern
	}
	rx, err := regexp.Compile(pattern)
	if err != nil {
		return defaultPattern
	}
	return rx
}

// ExtractIssueKeys returns every non-overlapping match in order of appearance.
// Duplicates are kept.
func ExtractIssueKeys(text string, rx *regexp.Regexp) []string {
	if text == "" {
		return nil
	}
	return rx.FindAllString(text, -1)
}

// GroupByIssue maps each key found in a commit subject to the commits that
// mention it. Commits without a key belong to no group.
func GroupByIssue(commits []Commit, rx *regexp.Regexp) map[string][]Commit {
	groups := make(map[string][]Commit)
	for _, c := range commits {
		seen := make(map[string]bool)
		for _, k := range ExtractIssueKeys(c.Subject, rx) {
			if seen[k] {
				continue
			}
			seen[k] = true
			groups[k] = append(groups[k], c)
		}
	}
	return groups
}
