// Package sync runs the reconciliation between git history, WakaTime and
// Jira: collect candidates, filter by ownership, compute deltas, then either
// preview or upload.
package sync

import (
	"context"
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/rohankatakam/skuld/internal/allocation"
	"github.com/rohankatakam/skuld/internal/config"
	"github.com/rohankatakam/skuld/internal/delta"
	"github.com/rohankatakam/skuld/internal/errors"
	"github.com/rohankatakam/skuld/internal/git"
	"github.com/rohankatakam/skuld/internal/ledger"
	"github.com/rohankatakam/skuld/internal/ownership"
	"github.com/rohankatakam/skuld/internal/wakatime"
	"github.com/rohankatakam/skuld/internal/window"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

var (
	// ErrOwnershipUnverified is returned by Apply when it refuses to upload
	ErrOwnershipUnverified = errors.OwnershipError("ownership could not be verified; refusing to upload").
		WithRemediation("check the Jira site, email and API token, then run `skuld sync` to preview again")
	// ErrUploadFailures is returned by Apply when at least one issue failed
	ErrUploadFailures = errors.New(errors.ErrorTypeExternal, errors.SeverityHigh, "one or more uploads failed")
)

// Suppression reasons that do not come from ownership
const (
	ReasonNoTrackedTime = "no tracked time"
	ReasonOtherProject  = "outside the mapped Jira project"
)

const worklogCommentFormat = "Logged by skuld for %s to %s"

// CommitSource queries git history
type CommitSource interface {
	QueryCommits(ctx context.Context, repoPath, since, until string, branches []string) []git.Commit
}

// SummarySource fetches tracked durations
type SummarySource interface {
	FetchSummary(ctx context.Context, since, until, project string) (wakatime.Summary, error)
}

// Tracker is the issue tracker as the orchestrator uses it
type Tracker interface {
	ownership.Tracker
	delta.WorklogSource
	CreateWorklog(ctx context.Context, key string, seconds int, started time.Time, comment string) (string, error)
	CreateComment(ctx context.Context, key, text string) (string, error)
}

// Request describes one run
type Request struct {
	RepoPath string
	Project  config.ProjectMapping
	Window   window.Window
	Pattern  *regexp.Regexp
	Comment  config.CommentConfig
	// Debug attaches per-chunk search diagnostics to the report
	Debug bool
}

// Syncer wires the collaborators together
type Syncer struct {
	commits   CommitSource
	summaries SummarySource
	tracker   Tracker
	ledger    *ledger.Store
	logger    logrus.FieldLogger
}

// New creates a Syncer
func New(commits CommitSource, summaries SummarySource, tracker Tracker, store *ledger.Store, logger logrus.FieldLogger) *Syncer {
	return &Syncer{
		commits:   commits,
		summaries: summaries,
		tracker:   tracker,
		ledger:    store,
		logger:    logger.WithField("component", "sync"),
	}
}

// run carries state between the phases of one invocation
type run struct {
	report *Report
	since  string
	until  string
	// eligible is non-empty when ownership had to be decided
	eligible []string
}

// Preview builds the full report without touching the ledger
func (s *Syncer) Preview(ctx context.Context, req Request) *Report {
	return s.prepare(ctx, req, ModePreview).report
}

// Apply uploads every pending delta. It refuses when ownership was not
// verified, and processes issues one at a time in key order so each ledger
// check and write completes before the next issue starts.
func (s *Syncer) Apply(ctx context.Context, req Request) (*Report, error) {
	r := s.prepare(ctx, req, ModeApply)
	report := r.report

	if len(r.eligible) > 0 && !report.Verified {
		report.Refused = true
		report.note("apply refused: ownership of the candidate issues could not be verified")
		return report, ErrOwnershipUnverified
	}

	for i := range report.Issues {
		issue := &report.Issues[i]
		if issue.Status != StatusPending {
			continue
		}
		s.upload(ctx, r, issue)
	}

	if report.Failed == 0 && len(report.Issues) > 0 {
		if err := s.ledger.SetLastSync(req.RepoPath, r.until); err != nil {
			s.logger.WithError(err).Warn("could not update last sync marker")
			report.note("last sync marker not updated: %v", err)
		}
	}

	if report.Failed > 0 {
		attempted := 0
		for _, issue := range report.Issues {
			if issue.Status == StatusUploaded || issue.Status == StatusFailed {
				attempted++
			}
		}
		return report, fmt.Errorf("%w: %d of %d issue(s)", ErrUploadFailures, report.Failed, attempted)
	}
	return report, nil
}

func (s *Syncer) upload(ctx context.Context, r *run, issue *IssueReport) {
	report := r.report
	log := s.logger.WithFields(logrus.Fields{"issue": issue.Key, "seconds": issue.Delta})

	if s.ledger.Seen(issue.Key, r.since, r.until, issue.Delta) {
		issue.Status = StatusAlreadyRecorded
		report.Skipped++
		log.Debug("already recorded in ledger")
		return
	}

	started, ok := delta.StartedAt(r.since, r.until, issue.Delta)
	if !ok {
		issue.Status = StatusFailed
		issue.Error = "invalid window bounds"
		report.Failed++
		return
	}

	id, err := s.tracker.CreateWorklog(ctx, issue.Key, issue.Delta, started,
		fmt.Sprintf(worklogCommentFormat, r.since, r.until))
	if err != nil {
		issue.Status = StatusFailed
		issue.Error = err.Error()
		report.Failed++
		log.WithError(err).Warn("worklog upload failed")
		return
	}
	issue.Status = StatusUploaded
	issue.WorklogID = id
	report.Uploaded++
	log.WithField("worklog_id", id).Info("worklog uploaded")

	// Recorded before commenting; a comment failure leaves the entry in place.
	if err := s.ledger.Record(issue.Key, r.since, r.until, issue.Delta, id); err != nil {
		issue.Error = fmt.Sprintf("worklog %s uploaded but not recorded: %v", id, err)
		report.Failed++
		log.WithError(err).Error("ledger write failed")
	}

	if len(issue.Comment) == 0 {
		return
	}
	commentID, err := s.tracker.CreateComment(ctx, issue.Key, strings.Join(issue.Comment, "\n"))
	if err != nil {
		issue.CommentError = err.Error()
		report.note("comment on %s failed: %v", issue.Key, err)
		log.WithError(err).Warn("comment upload failed")
		return
	}
	issue.CommentID = commentID
}

// prepare runs CollectCandidates, FilterOwnership and ComputeAllocation&Delta
func (s *Syncer) prepare(ctx context.Context, req Request, mode Mode) *run {
	since, until := req.Window.SinceISO(), req.Window.UntilISO()
	rx := req.Pattern
	if rx == nil {
		rx = git.CompilePattern("")
	}

	report := &Report{
		Mode:            mode,
		Period:          req.Window.Period,
		Since:           since,
		Until:           until,
		Repo:            req.RepoPath,
		WakaTimeProject: req.Project.WakaTimeProject,
		Issues:          []IssueReport{},
		Suppressed:      []Suppressed{},
		Notes:           []string{},
	}
	r := &run{report: report, since: since, until: until}

	commits, summary := s.collect(ctx, req, since, until, report)
	groups := git.GroupByIssue(commits, rx)
	alloc := allocation.Allocate(summary.TotalSeconds, summary.BranchSeconds, groups, rx)

	report.TotalSeconds = roundSeconds(summary.TotalSeconds)
	report.UnattributedSeconds = roundSeconds(alloc.Unattributed)

	switch {
	case len(alloc.Candidates) == 0:
		report.note("no issue keys found in commits or tracked branches")
	case len(alloc.Seconds) == 0:
		report.note("no tracked branch names an issue key; commit mentions alone are not logged")
	}

	for _, k := range alloc.Untracked() {
		report.Suppressed = append(report.Suppressed, Suppressed{Key: k, Reason: ReasonNoTrackedTime})
	}

	var eligible []string
	for _, k := range alloc.Eligible() {
		if prefix := req.Project.JiraProject; prefix != "" && !strings.HasPrefix(k, prefix+"-") {
			report.Suppressed = append(report.Suppressed, Suppressed{
				Key: k, Reason: ReasonOtherProject, Seconds: roundSeconds(alloc.Seconds[k]),
			})
			continue
		}
		eligible = append(eligible, k)
	}
	r.eligible = eligible

	if len(eligible) == 0 {
		if len(alloc.Candidates) > 0 || summary.TotalSeconds > 0 {
			report.note("ownership verification not needed: no issue in the window has tracked time to log")
		}
		sortSuppressed(report.Suppressed)
		return r
	}

	own := ownership.Verify(ctx, s.tracker, eligible, s.logger)
	report.Verified = own.Verified
	report.Identity = own.Identity
	report.Notes = append(report.Notes, own.Notes...)
	if req.Debug {
		report.Diagnostics = own.Diagnostics
	}
	for _, k := range eligible {
		if reason, ok := own.Rejected[k]; ok {
			report.Suppressed = append(report.Suppressed, Suppressed{
				Key: k, Reason: reason, Seconds: roundSeconds(alloc.Seconds[k]),
			})
		}
	}
	sortSuppressed(report.Suppressed)

	if !own.Verified {
		return r
	}

	state, err := s.ledger.Load()
	if err != nil {
		s.logger.WithError(err).Warn("ledger unreadable, treating as empty")
		report.note("ledger unreadable, treated as empty: %v", err)
	}

	// Durations cover whole days, so existing worklogs are read over the
	// same span; an earlier run on the same day is then counted.
	logSince, logUntil := since, until
	if summary.Since != "" && summary.Until != "" {
		logSince, logUntil = summary.Since, summary.Until
		if logSince != since || logUntil != until {
			report.note("existing worklogs counted from %s to %s to match WakaTime's daily totals", logSince, logUntil)
		}
	}

	branchCommits := make(map[string][]git.Commit)
	for _, key := range own.OwnedKeys() {
		issue := own.Owned[key]
		seconds := roundSeconds(alloc.Seconds[key])

		logged, err := delta.AlreadyLogged(ctx, s.tracker, key, own.Identity, logSince, logUntil)
		if err != nil {
			err = errors.ExternalErrorf(err, "existing worklogs on %s could not be read", key)
			s.logger.WithError(err).WithField("issue", key).Warn("could not read existing worklogs")
			report.note("%v", err)
		}
		d := delta.Compute(alloc.Seconds[key], logged)

		lists := [][]git.Commit{groups[key]}
		for _, branch := range alloc.Branches[key] {
			if _, ok := branchCommits[branch]; !ok {
				branchCommits[branch] = s.commits.QueryCommits(ctx, req.RepoPath, since, until, []string{branch})
			}
			lists = append(lists, branchCommits[branch])
		}
		related := delta.MergeCommits(lists...)

		latest, ok := state.LatestUntil(key)
		lines := delta.DraftComment(related, delta.CommentOptions{
			MaxLines:      req.Comment.MaxLines,
			IncludeHashes: req.Comment.IncludeCommitHashes,
			After:         delta.CommentAfter(latest, ok),
		})

		shas := make([]string, 0, len(related))
		for _, c := range related {
			shas = append(shas, c.SHA)
		}

		status := StatusPending
		if d <= 0 {
			status = StatusNothingToLog
		}
		report.Issues = append(report.Issues, IssueReport{
			Key:           key,
			URL:           issue.URL,
			Summary:       issue.Summary,
			Seconds:       seconds,
			AlreadyLogged: logged,
			Delta:         d,
			Comment:       nonNil(lines),
			Commits:       shas,
			Branches:      alloc.Branches[key],
			Status:        status,
		})
	}
	return r
}

// collect queries git and WakaTime concurrently. Neither failure stops the run.
func (s *Syncer) collect(ctx context.Context, req Request, since, until string, report *Report) ([]git.Commit, wakatime.Summary) {
	var commits []git.Commit
	summary := wakatime.Empty()
	var summaryErr error

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		commits = s.commits.QueryCommits(gctx, req.RepoPath, since, until, nil)
		return nil
	})
	g.Go(func() error {
		summary, summaryErr = s.summaries.FetchSummary(gctx, since, until, req.Project.WakaTimeProject)
		return nil
	})
	_ = g.Wait()

	if summaryErr != nil {
		summaryErr = errors.ExternalError(summaryErr, "WakaTime data unavailable")
		s.logger.WithError(summaryErr).Warn("WakaTime summary unavailable")
		report.note("%v", summaryErr)
		summary = wakatime.Empty()
	}
	if summary.BranchSeconds == nil {
		summary.BranchSeconds = map[string]float64{}
	}

	s.logger.WithFields(logrus.Fields{
		"commits":  len(commits),
		"branches": len(summary.BranchSeconds),
		"seconds":  summary.TotalSeconds,
	}).Debug("collected candidates")
	return commits, summary
}

func sortSuppressed(list []Suppressed) {
	sort.SliceStable(list, func(i, j int) bool { return list[i].Key < list[j].Key })
}

func roundSeconds(v float64) int {
	return int(math.Round(v))
}

func nonNil(lines []string) []string {
	if lines == nil {
		return []string{}
	}
	return lines
}
