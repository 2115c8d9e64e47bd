package delta

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rohankatakam/skuld/internal/git"
	"github.com/rohankatakam/skuld/internal/jira"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompute(t *testing.T) {
	tests := []struct {
		seconds float64
		logged  int
		want    int
	}{
		{3600, 0, 3600},
		{3600, 600, 3000},
		{3600, 3600, 0},
		{3600, 5000, 0},
		{3599.5, 0, 3600},
		{0, 0, 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Compute(tt.seconds, tt.logged), "seconds=%v logged=%d", tt.seconds, tt.logged)
	}
}

type fakeWorklogs struct {
	secs int
	err  error
	who  jira.Identity
}

func (f *fakeWorklogs) FetchWorklogSeconds(_ context.Context, _ string, who jira.Identity, _, _ string) (int, error) {
	f.who = who
	return f.secs, f.err
}

func TestAlreadyLogged(t *testing.T) {
	src := &fakeWorklogs{secs: 900}
	id := &jira.Identity{AccountID: "acc-1"}

	secs, err := AlreadyLogged(context.Background(), src, "AB-12", id, "2025-01-01T00:00:00", "2025-01-01T12:00:00")
	require.NoError(t, err)
	assert.Equal(t, 900, secs)
	assert.Equal(t, "acc-1", src.who.AccountID)

	secs, err = AlreadyLogged(context.Background(), src, "AB-12", nil, "2025-01-01T00:00:00", "2025-01-01T12:00:00")
	require.NoError(t, err)
	assert.Zero(t, secs, "no identity means nothing can be attributed")

	src.err = errors.New("boom")
	secs, err = AlreadyLogged(context.Background(), src, "AB-12", id, "2025-01-01T00:00:00", "2025-01-01T12:00:00")
	assert.Error(t, err)
	assert.Zero(t, secs)
}

func TestStartedAt(t *testing.T) {
	started, ok := StartedAt("2025-01-01T09:00:00", "2025-01-01T12:00:00", 3600)
	require.True(t, ok)
	assert.True(t, time.Date(2025, 1, 1, 11, 0, 0, 0, time.Local).Equal(started), started)

	started, ok = StartedAt("2025-01-01T09:00:00", "2025-01-01T12:00:00", 5*3600)
	require.True(t, ok)
	assert.True(t, time.Date(2025, 1, 1, 9, 0, 0, 0, time.Local).Equal(started), "clamped to the window start")

	_, ok = StartedAt("bad", "2025-01-01T12:00:00", 60)
	assert.False(t, ok)
}

func TestMergeCommits(t *testing.T) {
	a := []git.Commit{{SHA: "a1", Subject: "AB-12 fix"}, {SHA: "b2", Subject: "AB-12 test"}}
	b := []git.Commit{{SHA: "b2", Subject: "AB-12 test"}, {SHA: "c3", Subject: "wip"}}

	merged := MergeCommits(a, b)
	require.Len(t, merged, 3)
	assert.Equal(t, []string{"a1", "b2", "c3"}, []string{merged[0].SHA, merged[1].SHA, merged[2].SHA})
}

func commitAt(sha, subject string, hour int) git.Commit {
	return git.Commit{
		SHA:     sha,
		Subject: subject,
		Date:    time.Date(2025, 1, 1, hour, 0, 0, 0, time.Local).Format(time.RFC3339),
	}
}

func TestDraftComment(t *testing.T) {
	commits := []git.Commit{
		commitAt("aaaaaaaaaa", "AB-12 fix bug", 10),
		commitAt("bbbbbbbbbb", "AB-12 fix bug", 10),
		commitAt("cccccccccc", "   ", 10),
		commitAt("dddddddddd", "AB-12 add tests", 11),
	}

	assert.Equal(t, []string{"AB-12 fix bug", "AB-12 add tests"},
		DraftComment(commits, CommentOptions{MaxLines: 5}))

	assert.Equal(t, []string{"AB-12 fix bug (aaaaaaa)", "AB-12 add tests (ddddddd)"},
		DraftComment(commits, CommentOptions{MaxLines: 5, IncludeHashes: true}))
}

func TestDraftComment_MaxLines(t *testing.T) {
	var commits []git.Commit
	for i, s := range []string{"one", "two", "three", "four", "five", "six", "seven"} {
		commits = append(commits, commitAt(string(rune('a'+i)), s, 10))
	}

	assert.Len(t, DraftComment(commits, CommentOptions{}), DefaultMaxLines)
	assert.Equal(t, []string{"one", "two"}, DraftComment(commits, CommentOptions{MaxLines: 2}))
}

func TestDraftComment_OnlyAfterLatestUntil(t *testing.T) {
	commits := []git.Commit{
		commitAt("a1", "old work", 9),
		commitAt("b2", "boundary work", 10),
		commitAt("c3", "new work", 11),
		{SHA: "d4", Subject: "undated"},
	}

	after := CommentAfter("2025-01-01T10:00:00", true)
	assert.Equal(t, []string{"new work"}, DraftComment(commits, CommentOptions{After: after}))
}

func TestCommentAfter(t *testing.T) {
	assert.True(t, CommentAfter("", false).IsZero())
	assert.True(t, CommentAfter("garbage", true).IsZero())
	assert.True(t, time.Date(2025, 1, 1, 10, 0, 0, 0, time.Local).Equal(CommentAfter("2025-01-01T10:00:00", true)))
}
