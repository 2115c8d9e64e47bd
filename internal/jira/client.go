package jira

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// Client talks to the Jira Cloud REST API v3 with basic auth (email + API token).
// Every call is throttled and bounded by a fixed timeout.
type Client struct {
	site        string
	email       string
	token       string
	timeout     time.Duration
	httpClient  *http.Client
	rateLimiter *rate.Limiter
	logger      logrus.FieldLogger
}

// Options configures a Client
type Options struct {
	Site    string
	Email   string
	Token   string
	Timeout time.Duration
	// Requests per second; zero means 5
	RateLimit float64
	Logger    logrus.FieldLogger
}

// NewClient creates a Jira client
func NewClient(opts Options) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = 5
	}
	logger := opts.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Client{
		site:        strings.TrimRight(opts.Site, "/"),
		email:       opts.Email,
		token:       opts.Token,
		timeout:     opts.Timeout,
		httpClient:  &http.Client{},
		rateLimiter: rate.NewLimiter(rate.Limit(opts.RateLimit), 1),
		logger:      logger.WithField("component", "jira"),
	}
}

// Configured reports whether site, email and token are all present
func (c *Client) Configured() bool {
	return c.site != "" && c.email != "" && c.token != ""
}

// IssueURL returns the browse link for key
func (c *Client) IssueURL(key string) string {
	return c.site + "/browse/" + key
}

// StatusError is returned when Jira answers with a non-2xx status.
type StatusError struct {
	Method string
	Path   string
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("jira %s %s returned status %d: %s", e.Method, e.Path, e.Status, e.Body)
}

// do sends one request and decodes a JSON response into out (when non-nil).
// It returns the HTTP status, or 0 when no response was received.
func (c *Client) do(ctx context.Context, method, path string, in, out interface{}) (int, error) {
	if !c.Configured() {
		return 0, fmt.Errorf("jira credentials are not configured")
	}
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return 0, fmt.Errorf("rate limiter: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return 0, fmt.Errorf("failed to marshal jira request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.site+path, body)
	if err != nil {
		return 0, fmt.Errorf("failed to create jira request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	creds := base64.StdEncoding.EncodeToString([]byte(c.email + ":" + c.token))
	req.Header.Set("Authorization", "Basic "+creds)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("jira %s %s: %w", method, path, err)
	}
	respBody, err := io.ReadAll(resp.Body)
	_ = resp.Body.Close()

	c.logger.WithFields(logrus.Fields{
		"method":   method,
		"path":     path,
		"status":   resp.StatusCode,
		"duration": time.Since(start).Round(time.Millisecond),
	}).Debug("jira request")

	if err != nil {
		return resp.StatusCode, fmt.Errorf("failed to read jira response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return resp.StatusCode, &StatusError{
			Method: method,
			Path:   path,
			Status: resp.StatusCode,
			Body:   truncate(string(respBody), 300),
		}
	}
	if out != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, out); err != nil {
			return resp.StatusCode, fmt.Errorf("failed to parse jira response: %w", err)
		}
	}
	return resp.StatusCode, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
