package output

import (
	"io"
	"os"

	"github.com/rohankatakam/skuld/internal/sync"
)

// Formatter defines output formatting interface
type Formatter interface {
	Format(report *sync.Report, w io.Writer) error
}

// VerbosityLevel determines output detail
type VerbosityLevel int

const (
	VerbosityQuiet    VerbosityLevel = iota // One-line summary
	VerbosityStandard                       // Per-issue report
	VerbosityJSON                           // Machine-readable report
)

// NewFormatter creates appropriate formatter based on level
func NewFormatter(level VerbosityLevel) Formatter {
	switch level {
	case VerbosityQuiet:
		return &QuietFormatter{}
	case VerbosityJSON:
		return &JSONFormatter{}
	default:
		return &StandardFormatter{}
	}
}

// GetDefaultVerbosity returns appropriate default based on environment
func GetDefaultVerbosity() VerbosityLevel {
	switch os.Getenv("SKULD_OUTPUT") {
	case "json":
		return VerbosityJSON
	case "quiet":
		return VerbosityQuiet
	}
	return VerbosityStandard
}
