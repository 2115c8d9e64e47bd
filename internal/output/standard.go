package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/rohankatakam/skuld/internal/sync"
)

// StandardFormatter outputs the per-issue report (default)
type StandardFormatter struct{}

type styles struct {
	title lipgloss.Style
	key   lipgloss.Style
	good  lipgloss.Style
	warn  lipgloss.Style
	bad   lipgloss.Style
	muted lipgloss.Style
}

// newStyles binds styles to w so redirected output carries no escape codes
func newStyles(w io.Writer) styles {
	r := lipgloss.NewRenderer(w)
	return styles{
		title: r.NewStyle().Bold(true),
		key:   r.NewStyle().Bold(true).Foreground(lipgloss.Color("12")),
		good:  r.NewStyle().Foreground(lipgloss.Color("10")),
		warn:  r.NewStyle().Foreground(lipgloss.Color("11")),
		bad:   r.NewStyle().Foreground(lipgloss.Color("9")),
		muted: r.NewStyle().Faint(true),
	}
}

func (f *StandardFormatter) Format(report *sync.Report, w io.Writer) error {
	st := newStyles(w)
	var b strings.Builder

	title := "Worklog Preview (dry-run)"
	if report.Mode == sync.ModeApply {
		title = "Worklog Sync"
	}
	fmt.Fprintln(&b, st.title.Render(title))
	fmt.Fprintf(&b, "Period:   %s → %s (%s)\n", report.Since, report.Until, report.Period)
	fmt.Fprintf(&b, "Repo:     %s\n", report.Repo)
	if report.WakaTimeProject != "" {
		fmt.Fprintf(&b, "Project:  %s\n", report.WakaTimeProject)
	}
	if report.TotalSeconds > 0 {
		fmt.Fprintf(&b, "WakaTime: %s tracked, %s unattributed\n",
			FormatSeconds(float64(report.TotalSeconds)), FormatSeconds(float64(report.UnattributedSeconds)))
	} else {
		fmt.Fprintln(&b, "WakaTime: no tracked time for this window")
	}
	fmt.Fprintf(&b, "Owner:    %s\n", ownerLine(report, st))

	if len(report.Issues) == 0 {
		fmt.Fprintln(&b, "\nNothing to log for this window.")
	}
	for _, issue := range report.Issues {
		writeIssue(&b, report, issue, st)
	}

	if len(report.Suppressed) > 0 {
		fmt.Fprintf(&b, "\n%s\n", st.title.Render("Suppressed"))
		for _, s := range report.Suppressed {
			line := fmt.Sprintf("  %-12s %s", s.Key, s.Reason)
			if s.Seconds > 0 {
				line += fmt.Sprintf(" (%s)", FormatSeconds(float64(s.Seconds)))
			}
			fmt.Fprintln(&b, st.muted.Render(line))
		}
	}

	if len(report.Notes) > 0 {
		fmt.Fprintf(&b, "\n%s\n", st.title.Render("Notes"))
		for _, n := range report.Notes {
			fmt.Fprintf(&b, "  - %s\n", n)
		}
	}

	if len(report.Diagnostics) > 0 {
		fmt.Fprintf(&b, "\n%s\n", st.title.Render("Tracker searches"))
		for _, d := range report.Diagnostics {
			outcome := fmt.Sprintf("status %d", d.Status)
			if d.Error != "" {
				outcome = "error: " + d.Error
			}
			fmt.Fprintf(&b, "  %d key(s), %s\n    %s\n", len(d.Keys), outcome, d.JQL)
		}
	}

	switch {
	case report.Refused:
		fmt.Fprintf(&b, "\n%s\n", st.bad.Render("Refused: ownership could not be verified, nothing was uploaded."))
	case report.Mode == sync.ModeApply:
		result := fmt.Sprintf("Result: %d uploaded, %d skipped, %d failed", report.Uploaded, report.Skipped, report.Failed)
		style := st.good
		if report.Failed > 0 {
			style = st.bad
		}
		fmt.Fprintf(&b, "\n%s\n", style.Render(result))
	default:
		if pending := report.PendingSeconds(); pending > 0 {
			fmt.Fprintf(&b, "\nWould log %s. Run with --apply to upload.\n", FormatSeconds(float64(pending)))
		}
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func ownerLine(report *sync.Report, st styles) string {
	if !report.Verified {
		if len(report.Issues) == 0 && len(report.Suppressed) == 0 {
			return st.muted.Render("not checked")
		}
		return st.warn.Render("not verified")
	}
	who := "verified"
	if id := report.Identity; id != nil {
		name := id.DisplayName
		if name == "" {
			name = id.Email
		}
		if name != "" {
			who = "verified as " + name
		}
	}
	return st.good.Render(who)
}

func writeIssue(b *strings.Builder, report *sync.Report, issue sync.IssueReport, st styles) {
	fmt.Fprintln(b, "-")
	header := st.key.Render(issue.Key)
	if issue.Summary != "" {
		header += "  " + issue.Summary
	}
	fmt.Fprintf(b, "Issue:  %s\n", header)
	if issue.URL != "" {
		fmt.Fprintf(b, "Link:   %s\n", issue.URL)
	}
	if report.TotalSeconds > 0 {
		fmt.Fprintf(b, "Time:   %s (of %s)\n", FormatSeconds(float64(issue.Seconds)), FormatSeconds(float64(report.TotalSeconds)))
	} else {
		fmt.Fprintf(b, "Time:   %s\n", FormatSeconds(float64(issue.Seconds)))
	}
	fmt.Fprintf(b, "Logged: %s already, %s to log\n", FormatSeconds(float64(issue.AlreadyLogged)), FormatSeconds(float64(issue.Delta)))
	fmt.Fprintf(b, "Status: %s\n", statusText(issue, st))
	if len(issue.Branches) > 0 {
		fmt.Fprintf(b, "Branch: %s\n", strings.Join(issue.Branches, ", "))
	}
	if len(issue.Comment) > 0 {
		fmt.Fprintln(b, "Comment draft:")
		for _, line := range issue.Comment {
			fmt.Fprintf(b, "  - %s\n", line)
		}
	}
	if issue.CommentError != "" {
		fmt.Fprintf(b, "%s\n", st.warn.Render("Comment failed: "+issue.CommentError))
	}
}

func statusText(issue sync.IssueReport, st styles) string {
	switch issue.Status {
	case sync.StatusUploaded:
		text := "uploaded"
		if issue.WorklogID != "" {
			text += " (worklog " + issue.WorklogID + ")"
		}
		if issue.Error != "" {
			return st.warn.Render(text + ": " + issue.Error)
		}
		return st.good.Render(text)
	case sync.StatusFailed:
		return st.bad.Render("failed: " + issue.Error)
	case sync.StatusAlreadyRecorded:
		return st.muted.Render("already recorded")
	case sync.StatusNothingToLog:
		return st.muted.Render("nothing to log")
	}
	return "pending"
}
