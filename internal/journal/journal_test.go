package journal

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTemp(t *testing.T) *Journal {
	t.Helper()
	j, err := Open(filepath.Join(t.TempDir(), "sub", "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = j.Close() })
	return j
}

func TestAppendAndList(t *testing.T) {
	j := openTemp(t)
	base := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

	for i, mode := range []string{"preview", "apply", "preview"} {
		_, err := j.Append(Run{StartedAt: base.Add(time.Duration(i) * time.Minute), Mode: mode, Issues: i})
		require.NoError(t, err)
	}

	runs, err := j.List(0)
	require.NoError(t, err)
	require.Len(t, runs, 3)
	assert.Equal(t, 2, runs[0].Issues, "newest first")
	assert.Equal(t, 0, runs[2].Issues)
	assert.Equal(t, "apply", runs[1].Mode)

	runs, err = j.List(2)
	require.NoError(t, err)
	assert.Len(t, runs, 2)
}

func TestAppendFillsIDAndTime(t *testing.T) {
	j := openTemp(t)

	id, err := j.Append(Run{Mode: "apply"})
	require.NoError(t, err)
	_, err = uuid.Parse(id)
	assert.NoError(t, err)

	runs, err := j.List(1)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, id, runs[0].ID)
	assert.False(t, runs[0].StartedAt.IsZero())
}

func TestListEmpty(t *testing.T) {
	runs, err := openTemp(t).List(10)
	require.NoError(t, err)
	assert.Empty(t, runs)
}
