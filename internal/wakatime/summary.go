package wakatime

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/rohankatakam/skuld/internal/window"
)

// Summary is the part of a WakaTime summaries response the allocation needs.
type Summary struct {
	TotalSeconds   float64            `json:"total_seconds"`
	BranchSeconds  map[string]float64 `json:"branch_seconds"`
	ProjectSeconds map[string]float64 `json:"project_seconds"`

	// Since and Until bound the span the durations cover (window.Layout).
	// Both are empty when the span is unknown.
	Since string `json:"since,omitempty"`
	Until string `json:"until,omitempty"`
}

// Empty returns the all-zero summary used when no data is available
func Empty() Summary {
	return Summary{
		BranchSeconds:  map[string]float64{},
		ProjectSeconds: map[string]float64{},
	}
}

type namedTotal struct {
	Name         string  `json:"name"`
	TotalSeconds float64 `json:"total_seconds"`
}

// dayRecord is one element of the summaries "data" array.
type dayRecord struct {
	GrandTotal *struct {
		TotalSeconds float64 `json:"total_seconds"`
	} `json:"grand_total"`
	TotalSeconds *float64     `json:"total_seconds"`
	Branches     []namedTotal `json:"branches"`
	Projects     []namedTotal `json:"projects"`
}

func (d dayRecord) total() float64 {
	if d.GrandTotal != nil {
		return d.GrandTotal.TotalSeconds
	}
	if d.TotalSeconds != nil {
		return *d.TotalSeconds
	}
	return 0
}

type summariesResponse struct {
	Data            []dayRecord `json:"data"`
	CumulativeTotal *struct {
		Seconds      float64 `json:"seconds"`
		TotalSeconds float64 `json:"total_seconds"`
	} `json:"cumulative_total"`
}

// ParseSummaries accepts the shapes WakaTime exports and the API returns:
// a summaries response, a single day record, or a bare list of day records.
func ParseSummaries(data []byte) (Summary, error) {
	var probe json.RawMessage
	if err := json.Unmarshal(data, &probe); err != nil {
		return Empty(), fmt.Errorf("invalid summaries JSON: %w", err)
	}

	var records []dayRecord
	var cumulative *float64

	switch firstNonSpace(probe) {
	case '[':
		if err := json.Unmarshal(data, &records); err != nil {
			return Empty(), fmt.Errorf("invalid summaries list: %w", err)
		}
	case '{':
		var resp summariesResponse
		if err := json.Unmarshal(data, &resp); err != nil {
			return Empty(), fmt.Errorf("invalid summaries object: %w", err)
		}
		if resp.CumulativeTotal != nil {
			v := resp.CumulativeTotal.Seconds
			if v == 0 {
				v = resp.CumulativeTotal.TotalSeconds
			}
			cumulative = &v
		}
		if resp.Data != nil {
			records = resp.Data
		} else {
			var single dayRecord
			if err := json.Unmarshal(data, &single); err != nil {
				return Empty(), fmt.Errorf("invalid summary record: %w", err)
			}
			records = []dayRecord{single}
		}
	default:
		return Empty(), fmt.Errorf("summaries JSON must be an object or a list")
	}

	s := Empty()
	for _, rec := range records {
		s.TotalSeconds += rec.total()
		for _, b := range rec.Branches {
			if b.Name != "" {
				s.BranchSeconds[b.Name] += b.TotalSeconds
			}
		}
		for _, p := range rec.Projects {
			if p.Name != "" {
				s.ProjectSeconds[p.Name] += p.TotalSeconds
			}
		}
	}
	if cumulative != nil {
		s.TotalSeconds = *cumulative
	}
	return s, nil
}

// LoadSummaryFile reads an exported summaries file. A missing file is an
// empty summary, not an error.
func LoadSummaryFile(path string) (Summary, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return Empty(), nil
	}
	if err != nil {
		return Empty(), fmt.Errorf("failed to read %s: %w", path, err)
	}
	return ParseSummaries(data)
}

func firstNonSpace(b []byte) byte {
	for _, c := range b {
		switch c {
		case ' ', '\t', '\n', '\r':
			continue
		}
		return c
	}
	return 0
}

// FileSource serves a summaries export in place of the API
type FileSource struct {
	Path string
}

// FetchSummary ignores the project; the export already covers it. The export
// is taken to hold whole days, like the API.
func (f FileSource) FetchSummary(_ context.Context, since, until, _ string) (Summary, error) {
	s, err := LoadSummaryFile(f.Path)
	if err != nil {
		return s, err
	}
	s.Since, s.Until, _ = DaySpan(since, until)
	return s, nil
}

// DaySpan widens [since, until] to the whole local days it touches: from
// midnight of since's day to the last second of until's day. Summaries are
// reported per day, so this is the span their durations actually cover.
func DaySpan(since, until string) (string, string, error) {
	start, ok := window.ParseTimestamp(since)
	if !ok {
		return "", "", fmt.Errorf("invalid window bound %q", since)
	}
	end, ok := window.ParseTimestamp(until)
	if !ok {
		return "", "", fmt.Errorf("invalid window bound %q", until)
	}
	start = start.In(time.Local)
	end = end.In(time.Local)
	first := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.Local)
	last := time.Date(end.Year(), end.Month(), end.Day(), 23, 59, 59, 0, time.Local)
	return first.Format(window.Layout), last.Format(window.Layout), nil
}
