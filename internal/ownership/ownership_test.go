package ownership

import (
	"context"
	"errors"
	"testing"

	"github.com/rohankatakam/skuld/internal/jira"
	"github.com/rohankatakam/skuld/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTracker struct {
	configured bool
	identity   jira.Identity
	identErr   error
	unfiltered map[string]jira.Issue
	mine       map[string]jira.Issue
	calls      []jira.AssigneeFilter
}

func (f *fakeTracker) Configured() bool { return f.configured }

func (f *fakeTracker) WhoAmI(context.Context) (jira.Identity, error) {
	return f.identity, f.identErr
}

func (f *fakeTracker) SearchByKeys(_ context.Context, keys []string, filter jira.AssigneeFilter) jira.SearchResult {
	f.calls = append(f.calls, filter)
	src := f.unfiltered
	if filter == jira.AssigneeMe {
		src = f.mine
	}
	res := jira.SearchResult{Issues: map[string]jira.Issue{}}
	for _, k := range keys {
		if issue, ok := src[k]; ok {
			res.Issues[k] = issue
		}
	}
	res.Chunks = []jira.ChunkDiagnostic{{Keys: keys, Status: 200}}
	return res
}

var me = jira.Identity{AccountID: "acc-me", Email: "me@example.com"}

func TestVerify_LocalMatchByAccountID(t *testing.T) {
	tr := &fakeTracker{
		configured: true,
		identity:   me,
		unfiltered: map[string]jira.Issue{
			"AB-1": {Key: "AB-1", AssigneeAccountID: "acc-me"},
			"AB-2": {Key: "AB-2", AssigneeAccountID: "acc-other", AssigneeEmail: "me@example.com"},
		},
	}

	res := Verify(context.Background(), tr, []string{"AB-1", "AB-2", "AB-3"}, logging.Discard())

	assert.True(t, res.Verified)
	assert.Equal(t, []string{"AB-1"}, res.OwnedKeys())
	assert.Equal(t, ReasonAssignedElsewhere, res.Rejected["AB-2"], "account id wins over a matching email")
	assert.Equal(t, ReasonNotFound, res.Rejected["AB-3"])
	assert.Equal(t, 1, res.Attempts)
	assert.Equal(t, []jira.AssigneeFilter{jira.AssigneeNone}, tr.calls)
	require.NotNil(t, res.Identity)
	assert.Len(t, res.Diagnostics, 1)
}

func TestVerify_EmailFallback(t *testing.T) {
	tr := &fakeTracker{
		configured: true,
		identity:   jira.Identity{Email: "ME@example.com"},
		unfiltered: map[string]jira.Issue{
			"AB-1": {Key: "AB-1", AssigneeAccountID: "acc-me", AssigneeEmail: "me@example.com"},
		},
	}

	res := Verify(context.Background(), tr, []string{"AB-1"}, logging.Discard())
	assert.True(t, res.Verified)
	assert.Equal(t, []string{"AB-1"}, res.OwnedKeys())
}

func TestVerify_SecondAttemptWhenFirstFindsNothing(t *testing.T) {
	tr := &fakeTracker{
		configured: true,
		identity:   me,
		unfiltered: map[string]jira.Issue{},
		mine:       map[string]jira.Issue{"AB-1": {Key: "AB-1"}},
	}

	res := Verify(context.Background(), tr, []string{"AB-1", "AB-2"}, logging.Discard())

	assert.True(t, res.Verified)
	assert.Equal(t, 2, res.Attempts)
	assert.Equal(t, []jira.AssigneeFilter{jira.AssigneeNone, jira.AssigneeMe}, tr.calls)
	assert.Equal(t, []string{"AB-1"}, res.OwnedKeys())
	assert.Equal(t, ReasonNotFound, res.Rejected["AB-2"])
}

func TestVerify_IdentityFailureStillTriesServerFilter(t *testing.T) {
	tr := &fakeTracker{
		configured: true,
		identErr:   errors.New("timeout"),
		mine:       map[string]jira.Issue{"AB-1": {Key: "AB-1"}},
	}

	res := Verify(context.Background(), tr, []string{"AB-1"}, logging.Discard())

	assert.True(t, res.Verified)
	assert.Nil(t, res.Identity)
	assert.Equal(t, 1, res.Attempts)
	assert.Equal(t, []jira.AssigneeFilter{jira.AssigneeMe}, tr.calls)
	assert.NotEmpty(t, res.Notes)
}

func TestVerify_FailsClosed(t *testing.T) {
	tr := &fakeTracker{
		configured: true,
		identity:   me,
		unfiltered: map[string]jira.Issue{"AB-1": {Key: "AB-1", AssigneeAccountID: "acc-other"}},
		mine:       map[string]jira.Issue{},
	}

	res := Verify(context.Background(), tr, []string{"AB-1", "AB-2"}, logging.Discard())

	assert.False(t, res.Verified)
	assert.Empty(t, res.Owned)
	assert.Equal(t, 2, res.Attempts, "never more than two attempts")
	assert.Equal(t, ReasonAssignedElsewhere, res.Rejected["AB-1"])
	assert.Equal(t, ReasonUnverified, res.Rejected["AB-2"])
	assert.Contains(t, res.Notes[len(res.Notes)-1], "ownership verification failed")
}

func TestVerify_MissingCredentials(t *testing.T) {
	tr := &fakeTracker{configured: false}

	res := Verify(context.Background(), tr, []string{"AB-1"}, logging.Discard())

	assert.False(t, res.Verified)
	assert.Zero(t, res.Attempts)
	assert.Empty(t, tr.calls)
	assert.Equal(t, ReasonUnverified, res.Rejected["AB-1"])
}

func TestVerify_NoKeys(t *testing.T) {
	tr := &fakeTracker{configured: true, identity: me}
	res := Verify(context.Background(), tr, nil, logging.Discard())
	assert.False(t, res.Verified)
	assert.Empty(t, tr.calls)
	assert.Empty(t, res.Notes)
}
