package wakatime

import (
	"context"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const summariesBody = `{
  "data": [
    {
      "grand_total": {"total_seconds": 3600},
      "branches": [{"name": "feature/AB-12-x", "total_seconds": 1800}, {"name": "main", "total_seconds": 600}],
      "projects": [{"name": "shop", "total_seconds": 3600}]
    },
    {
      "grand_total": {"total_seconds": 1200},
      "branches": [{"name": "feature/AB-12-x", "total_seconds": 1200}],
      "projects": [{"name": "shop", "total_seconds": 1200}]
    }
  ]
}`

func TestFetchSummary(t *testing.T) {
	var gotQuery, gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/users/current/summaries", r.URL.Path)
		gotQuery = r.URL.RawQuery
		gotAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(summariesBody))
	}))
	defer server.Close()

	c := NewClient("waka_key", server.URL+"/", 5*time.Second)
	s, err := c.FetchSummary(context.Background(), "2025-01-01T09:00:00", "2025-01-02T18:00:00", "shop")
	require.NoError(t, err)

	assert.Equal(t, "end=2025-01-02&project=shop&start=2025-01-01", gotQuery)
	assert.Equal(t, "Basic "+base64.StdEncoding.EncodeToString([]byte("waka_key")), gotAuth)
	assert.Equal(t, 4800.0, s.TotalSeconds)
	assert.Equal(t, 3000.0, s.BranchSeconds["feature/AB-12-x"])
	assert.Equal(t, 600.0, s.BranchSeconds["main"])
	assert.Equal(t, 4800.0, s.ProjectSeconds["shop"])
	assert.Equal(t, "2025-01-01T00:00:00", s.Since, "summaries cover whole days")
	assert.Equal(t, "2025-01-02T23:59:59", s.Until)
}

func TestFetchSummary_HTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":"Unauthorized"}`))
	}))
	defer server.Close()

	c := NewClient("bad", server.URL, time.Second)
	s, err := c.FetchSummary(context.Background(), "2025-01-01T09:00:00", "2025-01-01T18:00:00", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
	assert.Zero(t, s.TotalSeconds)
	assert.NotNil(t, s.BranchSeconds)
}

func TestFetchSummary_MissingKey(t *testing.T) {
	c := NewClient("", "http://127.0.0.1:1", time.Second)
	_, err := c.FetchSummary(context.Background(), "2025-01-01T09:00:00", "2025-01-01T18:00:00", "")
	assert.Error(t, err)
}

func TestFetchSummary_InvalidBound(t *testing.T) {
	c := NewClient("key", "http://127.0.0.1:1", time.Second)
	_, err := c.FetchSummary(context.Background(), "yesterday-ish", "2025-01-01T18:00:00", "")
	assert.Error(t, err)
}

func TestParseSummaries_Shapes(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		total  float64
		branch float64
	}{
		{
			name:   "cumulative total wins",
			body:   `{"cumulative_total":{"seconds":9000},"data":[{"grand_total":{"total_seconds":100},"branches":[{"name":"b","total_seconds":50}]}]}`,
			total:  9000,
			branch: 50,
		},
		{
			name:   "single record",
			body:   `{"grand_total":{"total_seconds":120},"branches":[{"name":"b","total_seconds":120}]}`,
			total:  120,
			branch: 120,
		},
		{
			name:   "bare list",
			body:   `[{"total_seconds":30,"branches":[{"name":"b","total_seconds":30}]},{"total_seconds":10}]`,
			total:  40,
			branch: 30,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := ParseSummaries([]byte(tt.body))
			require.NoError(t, err)
			assert.Equal(t, tt.total, s.TotalSeconds)
			assert.Equal(t, tt.branch, s.BranchSeconds["b"])
		})
	}
}

func TestParseSummaries_Invalid(t *testing.T) {
	_, err := ParseSummaries([]byte(`not json`))
	assert.Error(t, err)

	_, err = ParseSummaries([]byte(`42`))
	assert.Error(t, err)
}

func TestLoadSummaryFile(t *testing.T) {
	dir := t.TempDir()

	s, err := LoadSummaryFile(filepath.Join(dir, "missing.json"))
	require.NoError(t, err)
	assert.Zero(t, s.TotalSeconds)

	path := filepath.Join(dir, "summaries.json")
	require.NoError(t, os.WriteFile(path, []byte(summariesBody), 0o644))
	s, err = LoadSummaryFile(path)
	require.NoError(t, err)
	assert.Equal(t, 3000.0, s.BranchSeconds["feature/AB-12-x"])
}

func TestFileSource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "summaries.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"grand_total":{"total_seconds":90}}`), 0o644))

	s, err := FileSource{Path: path}.FetchSummary(context.Background(), "", "", "ignored")
	require.NoError(t, err)
	assert.Equal(t, 90.0, s.TotalSeconds)
	assert.Empty(t, s.Since, "no span without window bounds")

	s, err = FileSource{Path: path}.FetchSummary(context.Background(), "2025-03-04T21:00:00", "2025-03-04T22:00:00", "")
	require.NoError(t, err)
	assert.Equal(t, "2025-03-04T00:00:00", s.Since)
	assert.Equal(t, "2025-03-04T23:59:59", s.Until)
}

func TestDaySpan(t *testing.T) {
	tests := []struct {
		name         string
		since, until string
		wantSince    string
		wantUntil    string
	}{
		{"morning run", "2025-01-01T00:00:00", "2025-01-01T09:00:00", "2025-01-01T00:00:00", "2025-01-01T23:59:59"},
		{"evening run", "2025-01-01T09:00:00", "2025-01-01T21:00:00", "2025-01-01T00:00:00", "2025-01-01T23:59:59"},
		{"spans midnight", "2025-01-01T20:00:00", "2025-01-02T08:00:00", "2025-01-01T00:00:00", "2025-01-02T23:59:59"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			since, until, err := DaySpan(tt.since, tt.until)
			require.NoError(t, err)
			assert.Equal(t, tt.wantSince, since)
			assert.Equal(t, tt.wantUntil, until)
		})
	}

	_, _, err := DaySpan("soon", "2025-01-01T09:00:00")
	assert.Error(t, err)
}
