package output

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/rohankatakam/skuld/internal/journal"
	"github.com/rohankatakam/skuld/internal/ledger"
)

// FormatLedger lists ledger entries, optionally for one issue, followed by
// the last-sync markers. The marker for project comes first and falls back to
// the newest recorded entry when the project has none of its own.
func FormatLedger(w io.Writer, state ledger.State, issue, project string) error {
	st := newStyles(w)
	var b strings.Builder

	count := 0
	for _, e := range state.Entries {
		if issue != "" && e.Issue != issue {
			continue
		}
		if count == 0 {
			fmt.Fprintln(&b, st.title.Render(fmt.Sprintf("%-12s %-19s   %-19s %9s  %s", "ISSUE", "SINCE", "UNTIL", "TIME", "WORKLOG")))
		}
		count++
		fmt.Fprintf(&b, "%-12s %-19s → %-19s %9s  %s\n", e.Issue, e.Since, e.Until, FormatSeconds(float64(e.Seconds)), e.WorklogID)
	}
	if count == 0 {
		fmt.Fprintln(&b, "No ledger entries.")
	}

	if issue == "" {
		var lines []string
		if project != "" {
			if until, ok := state.LastSyncFor(project); ok {
				lines = append(lines, fmt.Sprintf("  %s  %s %s", until, project, st.muted.Render("(this repository)")))
			}
		}
		projects := make([]string, 0, len(state.LastSync))
		for p := range state.LastSync {
			if p != project {
				projects = append(projects, p)
			}
		}
		sort.Strings(projects)
		for _, p := range projects {
			lines = append(lines, fmt.Sprintf("  %s  %s", state.LastSync[p], p))
		}
		if len(lines) > 0 {
			fmt.Fprintf(&b, "\n%s\n%s\n", st.title.Render("Last sync"), strings.Join(lines, "\n"))
		}
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// FormatHistory lists journal runs, newest first
func FormatHistory(w io.Writer, runs []journal.Run) error {
	st := newStyles(w)
	var b strings.Builder

	if len(runs) == 0 {
		fmt.Fprintln(&b, "No runs recorded.")
	}
	for _, r := range runs {
		fmt.Fprintf(&b, "%s  %s  %-7s %s → %s\n",
			st.muted.Render(shortID(r.ID)), r.StartedAt.Local().Format("2006-01-02 15:04"), r.Mode, r.Since, r.Until)
		fmt.Fprintf(&b, "    %d issue(s), %s, %d uploaded, %d skipped, %d failed, %s\n",
			r.Issues, FormatSeconds(float64(r.Seconds)), r.Uploaded, r.Skipped, r.Failed, r.Outcome)
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// WriteJSON writes any value as indented JSON
func WriteJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
