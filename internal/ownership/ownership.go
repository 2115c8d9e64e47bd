// Package ownership decides which issue keys belong to the authenticated
// Jira user. It fails closed: without a positive answer nothing is owned.
package ownership

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/rohankatakam/skuld/internal/jira"
	"github.com/sirupsen/logrus"
)

// Tracker is the part of the Jira client verification needs
type Tracker interface {
	Configured() bool
	WhoAmI(ctx context.Context) (jira.Identity, error)
	SearchByKeys(ctx context.Context, keys []string, filter jira.AssigneeFilter) jira.SearchResult
}

// MaxAttempts bounds the number of search disciplines tried per run
const MaxAttempts = 2

// Reason a key was not accepted
const (
	ReasonAssignedElsewhere = "assigned to someone else"
	ReasonNotFound          = "not found or not assigned to you"
	ReasonUnverified        = "ownership not verified"
)

// Result is the verdict for one run
type Result struct {
	Verified bool
	// Identity is nil when it could not be resolved
	Identity *jira.Identity
	Owned    map[string]jira.Issue
	// Rejected maps each candidate that is not owned to a reason
	Rejected    map[string]string
	Attempts    int
	Diagnostics []jira.ChunkDiagnostic
	Notes       []string
}

// OwnedKeys returns the owned keys, sorted
func (r Result) OwnedKeys() []string {
	keys := make([]string, 0, len(r.Owned))
	for k := range r.Owned {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Verify resolves the caller's identity and checks which keys it owns.
//
// The first attempt searches by key alone and matches assignees locally,
// by account id when both sides have one and by email otherwise. When that
// yields nothing, a second attempt lets the server filter with
// "assignee = currentUser()". Zero owned keys after both leaves the run
// unverified.
func Verify(ctx context.Context, tracker Tracker, keys []string, logger logrus.FieldLogger) (res Result) {
	res = Result{
		Owned:    make(map[string]jira.Issue),
		Rejected: make(map[string]string),
	}
	if len(keys) == 0 {
		return res
	}
	defer res.rejectRemaining(keys)

	if tracker == nil || !tracker.Configured() {
		res.Notes = append(res.Notes, "ownership verification skipped: Jira credentials are missing")
		return res
	}

	id, err := tracker.WhoAmI(ctx)
	if err != nil {
		logger.WithError(err).Warn("could not resolve Jira identity")
		res.Notes = append(res.Notes, fmt.Sprintf("identity lookup failed: %v", err))
	} else if id.AccountID == "" && id.Email == "" {
		res.Notes = append(res.Notes, "identity lookup returned neither account id nor email")
	} else {
		res.Identity = &id
	}

	if res.Identity != nil {
		res.Attempts++
		found := tracker.SearchByKeys(ctx, keys, jira.AssigneeNone)
		res.Diagnostics = append(res.Diagnostics, found.Chunks...)
		for key, issue := range found.Issues {
			if owns(*res.Identity, issue) {
				res.Owned[key] = issue
			} else {
				res.Rejected[key] = ReasonAssignedElsewhere
			}
		}
		logger.WithFields(logrus.Fields{
			"candidates": len(keys),
			"found":      len(found.Issues),
			"owned":      len(res.Owned),
		}).Debug("ownership attempt 1")
	}

	if len(res.Owned) == 0 && res.Attempts < MaxAttempts {
		res.Attempts++
		mine := tracker.SearchByKeys(ctx, keys, jira.AssigneeMe)
		res.Diagnostics = append(res.Diagnostics, mine.Chunks...)
		for key, issue := range mine.Issues {
			res.Owned[key] = issue
			delete(res.Rejected, key)
		}
		logger.WithFields(logrus.Fields{
			"candidates": len(keys),
			"owned":      len(res.Owned),
		}).Debug("ownership attempt 2")
	}

	res.Verified = len(res.Owned) > 0
	if !res.Verified {
		res.Notes = append(res.Notes, fmt.Sprintf("ownership verification failed after %d attempt(s); nothing will be uploaded", res.Attempts))
	}
	return res
}

// owns prefers account id equality and falls back to email when either side
// lacks an account id.
func owns(id jira.Identity, issue jira.Issue) bool {
	if id.AccountID != "" && issue.AssigneeAccountID != "" {
		return id.AccountID == issue.AssigneeAccountID
	}
	if id.Email != "" && issue.AssigneeEmail != "" {
		return strings.EqualFold(id.Email, issue.AssigneeEmail)
	}
	return false
}

func (r *Result) rejectRemaining(keys []string) {
	for _, k := range keys {
		if _, ok := r.Owned[k]; ok {
			continue
		}
		if _, ok := r.Rejected[k]; ok {
			continue
		}
		if r.Verified {
			r.Rejected[k] = ReasonNotFound
		} else {
			r.Rejected[k] = ReasonUnverified
		}
	}
}
