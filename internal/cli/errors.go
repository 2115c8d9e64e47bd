package cli

import (
	stderrors "errors"
	"fmt"
	"io"

	"github.com/rohankatakam/skuld/internal/errors"
)

// Exit codes
const (
	ExitOK      = 0
	ExitError   = 1
	ExitConfig  = 2
	ExitRefused = 3
)

// PrintError writes err and, when it carries one, the suggested fix. With
// detailed set, typed errors print their severity, category and context.
func PrintError(w io.Writer, err error, detailed bool) {
	var typed *errors.Error
	if detailed && stderrors.As(err, &typed) {
		fmt.Fprintf(w, "Error: %v\n%s", err, typed.DetailedString())
		return
	}
	fmt.Fprintf(w, "Error: %v\n", err)
	if fix := errors.Remediation(err); fix != "" {
		fmt.Fprintf(w, "  → %s\n", fix)
	}
}

// ExitCode maps a command error to the process exit status
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case errors.GetType(err) == errors.ErrorTypeOwnership:
		return ExitRefused
	case errors.GetType(err) == errors.ErrorTypeConfig:
		return ExitConfig
	}
	return ExitError
}
