package sync

import (
	"fmt"

	"github.com/rohankatakam/skuld/internal/jira"
)

// Mode is preview (read-only) or apply (uploads)
type Mode string

const (
	ModePreview Mode = "preview"
	ModeApply   Mode = "apply"
)

// Status of one issue in a report
type Status string

const (
	StatusPending         Status = "pending"
	StatusNothingToLog    Status = "nothing_to_log"
	StatusAlreadyRecorded Status = "already_recorded"
	StatusUploaded        Status = "uploaded"
	StatusFailed          Status = "failed"
)

// IssueReport is the per-issue line of a report
type IssueReport struct {
	Key           string   `json:"key"`
	URL           string   `json:"url,omitempty"`
	Summary       string   `json:"summary,omitempty"`
	Seconds       int      `json:"seconds"`
	AlreadyLogged int      `json:"already_logged"`
	Delta         int      `json:"delta"`
	Comment       []string `json:"comment"`
	Commits       []string `json:"commits"`
	Branches      []string `json:"branches,omitempty"`
	Status        Status   `json:"status"`
	WorklogID     string   `json:"worklog_id,omitempty"`
	CommentID     string   `json:"comment_id,omitempty"`
	Error         string   `json:"error,omitempty"`
	CommentError  string   `json:"comment_error,omitempty"`
}

// Suppressed is a candidate key kept out of the issue list
type Suppressed struct {
	Key     string `json:"key"`
	Reason  string `json:"reason"`
	Seconds int    `json:"seconds"`
}

// Report is the structured outcome of a run. It is deterministic for the
// same inputs: issues and suppressed keys are sorted by key.
type Report struct {
	Mode            Mode   `json:"mode"`
	Period          string `json:"period"`
	Since           string `json:"since"`
	Until           string `json:"until"`
	Repo            string `json:"repo"`
	WakaTimeProject string `json:"wakatime_project"`

	TotalSeconds        int `json:"wakatime_seconds"`
	UnattributedSeconds int `json:"unattributed_seconds"`

	Verified bool           `json:"ownership_verified"`
	Identity *jira.Identity `json:"identity,omitempty"`

	Issues      []IssueReport          `json:"issues"`
	Suppressed  []Suppressed           `json:"suppressed"`
	Notes       []string               `json:"notes"`
	Diagnostics []jira.ChunkDiagnostic `json:"diagnostics,omitempty"`

	Refused  bool `json:"refused"`
	Uploaded int  `json:"uploaded"`
	Skipped  int  `json:"skipped"`
	Failed   int  `json:"failed"`
}

func (r *Report) note(format string, args ...interface{}) {
	r.Notes = append(r.Notes, fmt.Sprintf(format, args...))
}

// PendingSeconds sums the deltas not yet uploaded
func (r *Report) PendingSeconds() int {
	total := 0
	for _, issue := range r.Issues {
		if issue.Status == StatusPending {
			total += issue.Delta
		}
	}
	return total
}
