package output

import (
	"fmt"
	"io"

	"github.com/rohankatakam/skuld/internal/sync"
)

// QuietFormatter outputs a one-line summary (for cron and shell prompts)
type QuietFormatter struct{}

func (f *QuietFormatter) Format(report *sync.Report, w io.Writer) error {
	switch {
	case report.Refused:
		_, err := fmt.Fprintf(w, "refused: ownership not verified (%d issue(s) suppressed)\n", len(report.Suppressed))
		return err
	case report.Mode == sync.ModeApply:
		_, err := fmt.Fprintf(w, "%d uploaded, %d skipped, %d failed\n", report.Uploaded, report.Skipped, report.Failed)
		return err
	}
	_, err := fmt.Fprintf(w, "%d issue(s), %s to log\n", len(report.Issues), FormatSeconds(float64(report.PendingSeconds())))
	return err
}
