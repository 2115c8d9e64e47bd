package main

import (
	"context"
	"fmt"
	"time"

	"github.com/rohankatakam/skuld/internal/cli"
	"github.com/rohankatakam/skuld/internal/config"
	"github.com/rohankatakam/skuld/internal/errors"
	"github.com/rohankatakam/skuld/internal/git"
	"github.com/rohankatakam/skuld/internal/jira"
	"github.com/rohankatakam/skuld/internal/journal"
	"github.com/rohankatakam/skuld/internal/ledger"
	"github.com/rohankatakam/skuld/internal/output"
	"github.com/rohankatakam/skuld/internal/sync"
	"github.com/rohankatakam/skuld/internal/wakatime"
	"github.com/rohankatakam/skuld/internal/window"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	syncApply        bool
	syncProject      string
	syncSince        string
	syncUntil        string
	syncWakaTimeFile string
	syncJSON         bool
	syncQuiet        bool
	syncDebugTracker bool
)

var syncCmd = &cobra.Command{
	Use:   "sync [today|yesterday|24h|week]",
	Short: "Preview or upload worklogs for a time window",
	Long: `Collect commits and WakaTime durations for the window, attribute time to
the issues named by tracked branches, keep only issues assigned to you, and
compute what Jira is still missing.

Without --apply nothing is written anywhere.

Examples:
  skuld sync                       # today, preview
  skuld sync yesterday --apply
  skuld sync --since "last monday" --until "yesterday"
  skuld sync week --wakatime-file summaries.json --json`,
	Args:      cobra.MaximumNArgs(1),
	ValidArgs: window.Periods,
	RunE:      runSync,
}

func init() {
	syncCmd.Flags().BoolVar(&syncApply, "apply", false, "upload worklogs and comments to Jira")
	syncCmd.Flags().StringVar(&syncProject, "project", "", "repository path (default: enclosing git repository)")
	syncCmd.Flags().StringVar(&syncSince, "since", "", "window start, e.g. \"2025-01-01T09:00:00\" or \"last monday\"")
	syncCmd.Flags().StringVar(&syncUntil, "until", "", "window end")
	syncCmd.Flags().StringVar(&syncWakaTimeFile, "wakatime-file", "", "read WakaTime summaries from a JSON file instead of the API")
	syncCmd.Flags().BoolVar(&syncJSON, "json", false, "print the report as JSON")
	syncCmd.Flags().BoolVarP(&syncQuiet, "quiet", "q", false, "print a one-line summary")
	syncCmd.Flags().BoolVar(&syncDebugTracker, "debug-tracker", false, "include per-chunk Jira search diagnostics in the report")
}

func runSync(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	period := ""
	if len(args) > 0 {
		period = args[0]
	}
	win, err := window.Resolve(period, syncSince, syncUntil, time.Now())
	if err != nil {
		return err
	}

	repoPath := cli.ResolveRepoPath(ctx, syncProject)
	mapping, err := cfg.ProjectFor(repoPath)
	if err != nil {
		return err
	}

	logger.WithFields(logrus.Fields{
		"repo":   mapping.Path,
		"window": win.String(),
		"apply":  syncApply,
	}).Debug("starting sync")

	syncer := sync.New(
		git.NewExtractor(cfg.Git.Timeout, logger),
		summarySource(cfg),
		jira.NewClient(jira.Options{
			Site:      cfg.Jira.Site,
			Email:     cfg.Jira.Email,
			Token:     cfg.Jira.APIToken,
			Timeout:   cfg.Jira.Timeout,
			RateLimit: cfg.Jira.RateLimit,
			Logger:    logger,
		}),
		ledger.Open(cfg.State.Path),
		logger,
	)

	req := sync.Request{
		RepoPath: mapping.Path,
		Project:  mapping,
		Window:   win,
		Pattern:  git.CompilePattern(cfg.Regex.IssueKey),
		Comment:  cfg.Comment,
		Debug:    syncDebugTracker,
	}

	var (
		report *sync.Report
		runErr error
	)
	if syncApply {
		report, runErr = syncer.Apply(ctx, req)
	} else {
		report = syncer.Preview(ctx, req)
	}

	recordRun(report, runErr)

	if err := output.NewFormatter(syncVerbosity()).Format(report, cmd.OutOrStdout()); err != nil {
		return fmt.Errorf("failed to print report: %w", err)
	}
	return runErr
}

func summarySource(cfg *config.Config) sync.SummarySource {
	if syncWakaTimeFile != "" {
		return wakatime.FileSource{Path: syncWakaTimeFile}
	}
	return wakatime.NewClient(cfg.WakaTime.APIKey, cfg.WakaTime.BaseURL, cfg.WakaTime.Timeout)
}

func syncVerbosity() output.VerbosityLevel {
	switch {
	case syncJSON:
		return output.VerbosityJSON
	case syncQuiet:
		return output.VerbosityQuiet
	}
	return output.GetDefaultVerbosity()
}

// recordRun appends the run to the journal. Journal failures never fail the run.
func recordRun(report *sync.Report, runErr error) {
	j, err := journal.Open(cfg.State.HistoryPath)
	if err != nil {
		logger.WithError(err).Warn("run history unavailable")
		return
	}
	defer j.Close()

	if _, err := j.Append(runFromReport(report, runErr)); err != nil {
		logger.WithError(err).Warn("failed to record run history")
	}
}

func runFromReport(report *sync.Report, runErr error) journal.Run {
	run := journal.Run{
		Mode:     string(report.Mode),
		Repo:     report.Repo,
		Since:    report.Since,
		Until:    report.Until,
		Verified: report.Verified,
		Issues:   len(report.Issues),
		Uploaded: report.Uploaded,
		Skipped:  report.Skipped,
		Failed:   report.Failed,
	}

	for _, issue := range report.Issues {
		switch {
		case report.Mode == sync.ModePreview && issue.Status == sync.StatusPending:
			run.Seconds += issue.Delta
		case issue.Status == sync.StatusUploaded:
			run.Seconds += issue.Delta
		}
	}

	switch {
	case runErr != nil && errors.GetType(runErr) == errors.ErrorTypeOwnership:
		run.Outcome = "refused"
	case runErr != nil:
		run.Outcome = "failed"
	case len(report.Issues) == 0:
		run.Outcome = "nothing to do"
	default:
		run.Outcome = "ok"
	}
	return run
}
