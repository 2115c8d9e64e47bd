// Package allocation attributes tracked seconds to issue keys through the
// branch names WakaTime reports.
package allocation

import (
	"regexp"
	"sort"

	"github.com/rohankatakam/skuld/internal/git"
)

// Result is the outcome of one allocation pass
type Result struct {
	// Seconds per key, summed over every branch whose name contains the key.
	// A branch naming two keys adds its full duration to both.
	Seconds map[string]float64
	// Branches per key, sorted
	Branches map[string][]string
	// CommitKeys are keys seen in commit subjects
	CommitKeys []string
	// Candidates is CommitKeys ∪ branch keys, sorted
	Candidates []string
	// Unattributed is tracked time on branches that name no key
	Unattributed float64
}

// Allocate maps branch durations to keys and unions them with the keys found
// in commit subjects.
func Allocate(totalSeconds float64, branchSeconds map[string]float64, commitGroups map[string][]git.Commit, rx *regexp.Regexp) Result {
	res := Result{
		Seconds:  make(map[string]float64),
		Branches: make(map[string][]string),
	}

	branches := make([]string, 0, len(branchSeconds))
	for b := range branchSeconds {
		branches = append(branches, b)
	}
	sort.Strings(branches)

	candidates := make(map[string]bool)
	var matched float64
	for _, branch := range branches {
		secs := branchSeconds[branch]
		keys := uniq(git.ExtractIssueKeys(branch, rx))
		if len(keys) == 0 {
			continue
		}
		matched += secs
		for _, k := range keys {
			res.Seconds[k] += secs
			res.Branches[k] = append(res.Branches[k], branch)
			candidates[k] = true
		}
	}

	for k := range commitGroups {
		res.CommitKeys = append(res.CommitKeys, k)
		candidates[k] = true
	}
	sort.Strings(res.CommitKeys)

	for k := range candidates {
		res.Candidates = append(res.Candidates, k)
	}
	sort.Strings(res.Candidates)

	if rest := totalSeconds - matched; rest > 0 {
		res.Unattributed = rest
	}
	return res
}

// Eligible returns the candidates backed by tracked time, sorted.
// Keys seen only in commit subjects never qualify.
func (r Result) Eligible() []string {
	var keys []string
	for _, k := range r.Candidates {
		if r.Seconds[k] > 0 {
			keys = append(keys, k)
		}
	}
	return keys
}

// Untracked returns candidates with no tracked time, sorted
func (r Result) Untracked() []string {
	var keys []string
	for _, k := range r.Candidates {
		if r.Seconds[k] <= 0 {
			keys = append(keys, k)
		}
	}
	return keys
}

func uniq(values []string) []string {
	seen := make(map[string]bool, len(values))
	out := values[:0:0]
	for _, v := range values {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	return out
}
