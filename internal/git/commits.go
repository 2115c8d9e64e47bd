package git

import (
	"context"
	"os/exec"
	"strings"
	"time"

	"github.com/rohankatakam/skuld/internal/window"
	"github.com/sirupsen/logrus"
)

// Commit is one record from git log. Date is the strict ISO 8601 author date
// with offset (%aI).
type Commit struct {
	SHA     string `json:"sha"`
	Date    string `json:"date"`
	Subject string `json:"subject"`
}

// Time parses Date; ok is false when git produced something unexpected.
func (c Commit) Time() (time.Time, bool) {
	t, err := time.Parse(time.RFC3339, c.Date)
	return t, err == nil
}

const (
	fieldSep  = "\x1f"
	recordSep = "\x1e"
	logFormat = "--pretty=format:%H%x1f%aI%x1f%s%x1e"
)

// Extractor runs git log queries against a local repository.
// Failures never surface: a failed query is an empty result.
type Extractor struct {
	timeout time.Duration
	logger  logrus.FieldLogger
}

// NewExtractor creates an extractor whose git invocations are bounded by timeout
func NewExtractor(timeout time.Duration, logger logrus.FieldLogger) *Extractor {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Extractor{
		timeout: timeout,
		logger:  logger.WithField("component", "git"),
	}
}

// QueryCommits returns commits with author date in [since, until), deduplicated
// by SHA. With no branches it reads the current history; otherwise it runs one
// query per distinct branch so a missing or renamed ref only loses its own commits.
func (e *Extractor) QueryCommits(ctx context.Context, repoPath, since, until string, branches []string) []Commit {
	refs := uniqueNonEmpty(branches)
	if len(branches) > 0 && len(refs) == 0 {
		return nil
	}
	if len(refs) == 0 {
		refs = []string{""}
	}

	seen := make(map[string]bool)
	var out []Commit
	for _, ref := range refs {
		for _, c := range e.log(ctx, repoPath, ref, since, until) {
			if seen[c.SHA] {
				continue
			}
			seen[c.SHA] = true
			out = append(out, c)
		}
	}
	return filterWindow(out, since, until)
}

func (e *Extractor) log(ctx context.Context, repoPath, ref, since, until string) []Commit {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	args := []string{"-C", repoPath, "log"}
	if ref != "" {
		args = append(args, ref)
	}
	args = append(args, "--since="+since, "--until="+until, logFormat)
	if ref != "" {
		// keeps a ref that happens to match a file name from being read as a path
		args = append(args, "--")
	}

	cmd := exec.CommandContext(ctx, "git", args...)
	output, err := cmd.Output()
	if err != nil {
		entry := e.logger.WithError(err).WithField("repo", repoPath)
		if ref != "" {
			entry = entry.WithField("ref", ref)
		}
		if exitErr, ok := err.(*exec.ExitError); ok {
			entry = entry.WithField("stderr", strings.TrimSpace(string(exitErr.Stderr)))
		}
		entry.Debug("git log failed, treating as no commits")
		return nil
	}
	return ParseLog(string(output))
}

// ParseLog parses output produced with logFormat. Malformed records are skipped.
func ParseLog(output string) []Commit {
	output = strings.Trim(output, "\n"+recordSep)
	if output == "" {
		return nil
	}

	var commits []Commit
	for _, rec := range strings.Split(output, recordSep) {
		rec = strings.TrimLeft(rec, "\n")
		if rec == "" {
			continue
		}
		parts := strings.Split(rec, fieldSep)
		if len(parts) != 3 {
			continue
		}
		commits = append(commits, Commit{SHA: parts[0], Date: parts[1], Subject: parts[2]})
	}
	return commits
}

// filterWindow enforces the half-open bound on author date; git's own
// --since/--until filter on committer date and include the upper bound.
func filterWindow(commits []Commit, since, until string) []Commit {
	start, okStart := window.ParseTimestamp(since)
	end, okEnd := window.ParseTimestamp(until)
	if !okStart || !okEnd {
		return commits
	}

	out := commits[:0]
	for _, c := range commits {
		t, ok := c.Time()
		if !ok {
			out = append(out, c)
			continue
		}
		if t.Before(start) || !t.Before(end) {
			continue
		}
		out = append(out, c)
	}
	return out
}

func uniqueNonEmpty(values []string) []string {
	seen := make(map[string]bool, len(values))
	var out []string
	for _, v := range values {
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}
