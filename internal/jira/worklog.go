package jira

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rohankatakam/skuld/internal/window"
)

// StartedLayout is the timestamp format Jira uses for worklog "started"
const StartedLayout = "2006-01-02T15:04:05.000-0700"

// worklogPageSize is the largest page the worklog endpoint serves
const worklogPageSize = 1000

var startedLayouts = []string{
	StartedLayout,
	"2006-01-02T15:04:05-0700",
	time.RFC3339Nano,
}

type worklogAuthor struct {
	AccountID    string `json:"accountId"`
	EmailAddress string `json:"emailAddress"`
}

type worklogEntry struct {
	ID               string         `json:"id"`
	Author           *worklogAuthor `json:"author"`
	Started          string         `json:"started"`
	TimeSpentSeconds int            `json:"timeSpentSeconds"`
}

type worklogPage struct {
	StartAt    int            `json:"startAt"`
	MaxResults int            `json:"maxResults"`
	Total      int            `json:"total"`
	Worklogs   []worklogEntry `json:"worklogs"`
}

// ParseStarted parses a worklog start timestamp in any offset form Jira emits
func ParseStarted(s string) (time.Time, bool) {
	for _, layout := range startedLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// FetchWorklogSeconds sums timeSpentSeconds of worklogs on key authored by who
// and started inside [since, until]. Window bounds are local wall-clock times;
// both sides are compared as instants. who matches on account id when known,
// on email otherwise.
func (c *Client) FetchWorklogSeconds(ctx context.Context, key string, who Identity, since, until string) (int, error) {
	start, ok := window.ParseTimestamp(since)
	if !ok {
		return 0, fmt.Errorf("invalid window start %q", since)
	}
	end, ok := window.ParseTimestamp(until)
	if !ok {
		return 0, fmt.Errorf("invalid window end %q", until)
	}

	entries, err := c.fetchWorklogs(ctx, key)
	if err != nil {
		return 0, err
	}

	total := 0
	for _, wl := range entries {
		if !authoredBy(wl.Author, who) {
			continue
		}
		started, ok := ParseStarted(wl.Started)
		if !ok {
			continue
		}
		if started.Before(start) || started.After(end) {
			continue
		}
		total += wl.TimeSpentSeconds
	}
	return total, nil
}

// fetchWorklogs reads every worklog on key, following startAt until the
// server's total is reached or a page comes back empty.
func (c *Client) fetchWorklogs(ctx context.Context, key string) ([]worklogEntry, error) {
	var all []worklogEntry
	startAt := 0
	for {
		var page worklogPage
		path := fmt.Sprintf("/rest/api/3/issue/%s/worklog?startAt=%d&maxResults=%d", url.PathEscape(key), startAt, worklogPageSize)
		if _, err := c.do(ctx, http.MethodGet, path, nil, &page); err != nil {
			return nil, err
		}
		all = append(all, page.Worklogs...)
		startAt += len(page.Worklogs)
		if len(page.Worklogs) == 0 || startAt >= page.Total {
			return all, nil
		}
		c.logger.WithField("issue", key).Debugf("fetched %d of %d worklogs", startAt, page.Total)
	}
}

func authoredBy(author *worklogAuthor, who Identity) bool {
	switch {
	case who.AccountID != "":
		return author != nil && author.AccountID == who.AccountID
	case who.Email != "":
		return author != nil && strings.EqualFold(author.EmailAddress, who.Email)
	default:
		return true
	}
}

type createWorklogRequest struct {
	TimeSpentSeconds int       `json:"timeSpentSeconds"`
	Started          string    `json:"started"`
	Comment          *Document `json:"comment,omitempty"`
}

type createdResponse struct {
	ID string `json:"id"`
}

// CreateWorklog adds a worklog of seconds starting at started. The comment is
// optional and sent as a document with one paragraph per line.
func (c *Client) CreateWorklog(ctx context.Context, key string, seconds int, started time.Time, comment string) (string, error) {
	if seconds <= 0 {
		return "", fmt.Errorf("worklog for %s must be positive, got %d seconds", key, seconds)
	}
	req := createWorklogRequest{
		TimeSpentSeconds: seconds,
		Started:          started.Format(StartedLayout),
	}
	if strings.TrimSpace(comment) != "" {
		req.Comment = TextDocument(comment)
	}

	var resp createdResponse
	path := "/rest/api/3/issue/" + url.PathEscape(key) + "/worklog"
	if _, err := c.do(ctx, http.MethodPost, path, req, &resp); err != nil {
		return "", err
	}
	return resp.ID, nil
}

type createCommentRequest struct {
	Body *Document `json:"body"`
}

// CreateComment posts text as a new comment on key
func (c *Client) CreateComment(ctx context.Context, key, text string) (string, error) {
	var resp createdResponse
	path := "/rest/api/3/issue/" + url.PathEscape(key) + "/comment"
	if _, err := c.do(ctx, http.MethodPost, path, createCommentRequest{Body: TextDocument(text)}, &resp); err != nil {
		return "", err
	}
	return resp.ID, nil
}
