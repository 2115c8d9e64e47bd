// Package delta works out how much tracked time is still owed per issue and
// drafts the comment that goes with it.
package delta

import (
	"context"
	"math"
	"strings"
	"time"

	"github.com/rohankatakam/skuld/internal/git"
	"github.com/rohankatakam/skuld/internal/jira"
	"github.com/rohankatakam/skuld/internal/window"
)

// DefaultMaxLines caps the comment draft when no limit is configured
const DefaultMaxLines = 5

// WorklogSource reports time already logged on an issue
type WorklogSource interface {
	FetchWorklogSeconds(ctx context.Context, key string, who jira.Identity, since, until string) (int, error)
}

// Compute returns max(0, round(seconds) - alreadyLogged)
func Compute(seconds float64, alreadyLogged int) int {
	d := int(math.Round(seconds)) - alreadyLogged
	if d < 0 {
		return 0
	}
	return d
}

// AlreadyLogged sums the caller's worklogs on key inside the window. Without
// an identity nothing can be attributed, so it reports zero. Errors are
// returned for reporting only; the seconds are zero in that case.
func AlreadyLogged(ctx context.Context, src WorklogSource, key string, who *jira.Identity, since, until string) (int, error) {
	if src == nil || who == nil {
		return 0, nil
	}
	secs, err := src.FetchWorklogSeconds(ctx, key, *who, since, until)
	if err != nil {
		return 0, err
	}
	return secs, nil
}

// StartedAt places a worklog of seconds so it ends at until, clamped to since.
// The entry then falls inside the window and the next run counts it.
func StartedAt(since, until string, seconds int) (time.Time, bool) {
	start, ok := window.ParseTimestamp(since)
	if !ok {
		return time.Time{}, false
	}
	end, ok := window.ParseTimestamp(until)
	if !ok {
		return time.Time{}, false
	}
	started := end.Add(-time.Duration(seconds) * time.Second)
	if started.Before(start) {
		started = start
	}
	return started, true
}

// MergeCommits concatenates lists, keeping the first commit per sha
func MergeCommits(lists ...[]git.Commit) []git.Commit {
	seen := make(map[string]bool)
	var out []git.Commit
	for _, list := range lists {
		for _, c := range list {
			if seen[c.SHA] {
				continue
			}
			seen[c.SHA] = true
			out = append(out, c)
		}
	}
	return out
}

// CommentOptions shapes the drafted comment
type CommentOptions struct {
	MaxLines      int
	IncludeHashes bool
	// After drops commits at or before this instant; zero keeps all
	After time.Time
}

// DraftComment picks up to MaxLines distinct non-empty subjects in
// first-seen order from commits newer than opts.After.
func DraftComment(commits []git.Commit, opts CommentOptions) []string {
	maxLines := opts.MaxLines
	if maxLines <= 0 {
		maxLines = DefaultMaxLines
	}

	seen := make(map[string]bool)
	var lines []string
	for _, c := range commits {
		if len(lines) >= maxLines {
			break
		}
		if !opts.After.IsZero() {
			t, ok := c.Time()
			if !ok || !t.After(opts.After) {
				continue
			}
		}
		subject := strings.TrimSpace(c.Subject)
		if subject == "" || seen[subject] {
			continue
		}
		seen[subject] = true

		line := subject
		if opts.IncludeHashes && c.SHA != "" {
			line += " (" + shortSHA(c.SHA) + ")"
		}
		lines = append(lines, line)
	}
	return lines
}

// CommentAfter turns the ledger's latest until for a key into a cutoff
func CommentAfter(latestUntil string, ok bool) time.Time {
	if !ok {
		return time.Time{}
	}
	t, parsed := window.ParseTimestamp(latestUntil)
	if !parsed {
		return time.Time{}
	}
	return t
}

func shortSHA(sha string) string {
	if len(sha) > 7 {
		return sha[:7]
	}
	return sha
}
