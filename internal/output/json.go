package output

import (
	"encoding/json"
	"io"

	"github.com/rohankatakam/skuld/internal/sync"
)

// JSONFormatter writes the report as indented JSON
type JSONFormatter struct{}

func (f *JSONFormatter) Format(report *sync.Report, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}
