package jira

import (
	"context"
	"net/http"
	"net/url"
	"strings"
)

// ChunkSize bounds the number of keys per search call to keep JQL under
// the server's query-length limit.
const ChunkSize = 50

// Identity is the authenticated Jira user
type Identity struct {
	AccountID   string `json:"accountId"`
	Email       string `json:"emailAddress"`
	DisplayName string `json:"displayName"`
}

// AssigneeFilter selects the query discipline for SearchByKeys
type AssigneeFilter string

const (
	// AssigneeNone searches by key only; callers match ownership locally.
	AssigneeNone AssigneeFilter = "none"
	// AssigneeMe adds "assignee = currentUser()" to the JQL.
	AssigneeMe AssigneeFilter = "me"
)

// Issue is what a search returns per key
type Issue struct {
	Key               string `json:"key"`
	Summary           string `json:"summary"`
	URL               string `json:"url"`
	AssigneeAccountID string `json:"assigneeAccountId,omitempty"`
	AssigneeEmail     string `json:"assigneeEmail,omitempty"`
}

// ChunkDiagnostic records the outcome of one search call
type ChunkDiagnostic struct {
	JQL    string   `json:"jql"`
	Keys   []string `json:"keys"`
	Status int      `json:"status,omitempty"`
	Error  string   `json:"error,omitempty"`
}

// SearchResult holds the issues found plus one diagnostic per chunk
type SearchResult struct {
	Issues map[string]Issue
	Chunks []ChunkDiagnostic
}

type searchRequest struct {
	JQL        string   `json:"jql"`
	MaxResults int      `json:"maxResults"`
	Fields     []string `json:"fields"`
}

type searchResponse struct {
	Issues []issueResponse `json:"issues"`
}

type issueResponse struct {
	Key    string `json:"key"`
	Fields struct {
		Summary  string `json:"summary"`
		Assignee *struct {
			AccountID    string `json:"accountId"`
			EmailAddress string `json:"emailAddress"`
		} `json:"assignee"`
	} `json:"fields"`
}

func (c *Client) toIssue(key string, r issueResponse) Issue {
	issue := Issue{
		Key:     key,
		Summary: r.Fields.Summary,
		URL:     c.IssueURL(key),
	}
	if r.Fields.Assignee != nil {
		issue.AssigneeAccountID = r.Fields.Assignee.AccountID
		issue.AssigneeEmail = r.Fields.Assignee.EmailAddress
	}
	return issue
}

// WhoAmI resolves the identity behind the configured credentials
func (c *Client) WhoAmI(ctx context.Context) (Identity, error) {
	var id Identity
	if _, err := c.do(ctx, http.MethodGet, "/rest/api/3/myself", nil, &id); err != nil {
		return Identity{}, err
	}
	return id, nil
}

// SearchByKeys looks up keys in chunks of ChunkSize. A failing chunk is
// recorded in the diagnostics and does not stop the remaining chunks. With
// AssigneeNone a failing chunk falls back to one GET per key.
func (c *Client) SearchByKeys(ctx context.Context, keys []string, filter AssigneeFilter) SearchResult {
	result := SearchResult{Issues: make(map[string]Issue)}

	for start := 0; start < len(keys); start += ChunkSize {
		end := start + ChunkSize
		if end > len(keys) {
			end = len(keys)
		}
		chunk := keys[start:end]

		jql := "key in (" + strings.Join(chunk, ",") + ")"
		fields := []string{"summary", "assignee"}
		if filter == AssigneeMe {
			jql += " AND assignee = currentUser()"
			fields = []string{"summary"}
		}
		diag := ChunkDiagnostic{JQL: jql, Keys: chunk}

		var resp searchResponse
		status, err := c.do(ctx, http.MethodPost, "/rest/api/3/search/jql", searchRequest{
			JQL:        jql,
			MaxResults: len(chunk),
			Fields:     fields,
		}, &resp)
		diag.Status = status
		if err != nil {
			diag.Error = err.Error()
			result.Chunks = append(result.Chunks, diag)
			c.logger.WithError(err).WithField("keys", len(chunk)).Debug("jira search chunk failed")

			if filter == AssigneeNone {
				for _, key := range chunk {
					issue, err := c.GetIssue(ctx, key)
					if err != nil {
						c.logger.WithError(err).WithField("key", key).Debug("jira issue lookup failed")
						continue
					}
					result.Issues[key] = issue
				}
			}
			continue
		}

		for _, r := range resp.Issues {
			if r.Key == "" {
				continue
			}
			result.Issues[r.Key] = c.toIssue(r.Key, r)
		}
		result.Chunks = append(result.Chunks, diag)
	}
	return result
}

// GetIssue fetches a single issue's summary and assignee
func (c *Client) GetIssue(ctx context.Context, key string) (Issue, error) {
	var r issueResponse
	path := "/rest/api/3/issue/" + url.PathEscape(key) + "?fields=summary,assignee"
	if _, err := c.do(ctx, http.MethodGet, path, nil, &r); err != nil {
		return Issue{}, err
	}
	return c.toIssue(key, r), nil
}
