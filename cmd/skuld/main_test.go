package main

import (
	"fmt"
	"testing"

	"github.com/rohankatakam/skuld/internal/config"
	"github.com/rohankatakam/skuld/internal/output"
	"github.com/rohankatakam/skuld/internal/sync"
	"github.com/stretchr/testify/assert"
)

func TestRunFromReport(t *testing.T) {
	report := &sync.Report{
		Mode:     sync.ModeApply,
		Repo:     "/repo",
		Since:    "2025-01-01T00:00:00",
		Until:    "2025-01-01T12:00:00",
		Verified: true,
		Issues: []sync.IssueReport{
			{Key: "AB-1", Delta: 600, Status: sync.StatusUploaded},
			{Key: "AB-2", Delta: 300, Status: sync.StatusFailed},
			{Key: "AB-3", Delta: 0, Status: sync.StatusNothingToLog},
		},
		Uploaded: 1,
		Failed:   1,
		Skipped:  1,
	}

	run := runFromReport(report, fmt.Errorf("%w: 1 of 2 issue(s)", sync.ErrUploadFailures))
	assert.Equal(t, "apply", run.Mode)
	assert.Equal(t, 3, run.Issues)
	assert.Equal(t, 600, run.Seconds)
	assert.Equal(t, "failed", run.Outcome)

	report.Mode = sync.ModePreview
	report.Issues[1].Status = sync.StatusPending
	report.Issues[0].Status = sync.StatusPending
	run = runFromReport(report, nil)
	assert.Equal(t, 900, run.Seconds)
	assert.Equal(t, "ok", run.Outcome)

	run = runFromReport(&sync.Report{Mode: sync.ModeApply, Refused: true}, sync.ErrOwnershipUnverified)
	assert.Equal(t, "refused", run.Outcome)

	run = runFromReport(&sync.Report{Mode: sync.ModePreview}, nil)
	assert.Equal(t, "nothing to do", run.Outcome)
}

func TestMaskedConfig(t *testing.T) {
	c := config.Default()
	c.Jira.APIToken = "abcdefghijklmnop"
	c.Projects = []config.ProjectMapping{{Path: "/repo", WakaTimeProject: "shop"}}

	shown := maskedConfig(c)
	assert.NotEqual(t, "abcdefghijklmnop", shown.Jira.APIToken)
	assert.Equal(t, "abcdefghijklmnop", c.Jira.APIToken, "original untouched")
	assert.Empty(t, shown.WakaTime.APIKey)

	shown.Projects[0].WakaTimeProject = "changed"
	assert.Equal(t, "shop", c.Projects[0].WakaTimeProject)
}

func TestSyncVerbosity(t *testing.T) {
	defer func() { syncJSON, syncQuiet = false, false }()
	t.Setenv("SKULD_OUTPUT", "")

	assert.Equal(t, output.VerbosityStandard, syncVerbosity())
	syncQuiet = true
	assert.Equal(t, output.VerbosityQuiet, syncVerbosity())
	syncJSON = true
	assert.Equal(t, output.VerbosityJSON, syncVerbosity())
}
