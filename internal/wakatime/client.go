package wakatime

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rohankatakam/skuld/internal/window"
	"golang.org/x/time/rate"
)

// DefaultBaseURL is the public WakaTime API root
const DefaultBaseURL = "https://wakatime.com/api/v1"

// Client wraps the WakaTime summaries endpoint with rate limiting
type Client struct {
	apiKey      string
	baseURL     string
	timeout     time.Duration
	httpClient  *http.Client
	rateLimiter *rate.Limiter
}

// NewClient creates a client. An empty baseURL means DefaultBaseURL.
func NewClient(apiKey, baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		apiKey:      apiKey,
		baseURL:     strings.TrimRight(baseURL, "/"),
		timeout:     timeout,
		httpClient:  &http.Client{},
		rateLimiter: rate.NewLimiter(rate.Limit(2), 1),
	}
}

// FetchSummary returns durations for the days covering [since, until],
// optionally restricted to one project. WakaTime reports branches only when a
// project is given. Summaries are day-granular, so partial days count whole.
func (c *Client) FetchSummary(ctx context.Context, since, until, project string) (Summary, error) {
	if c.apiKey == "" {
		return Empty(), fmt.Errorf("wakatime api key is not configured")
	}

	start, err := dayOf(since)
	if err != nil {
		return Empty(), err
	}
	end, err := dayOf(until)
	if err != nil {
		return Empty(), err
	}

	if err := c.rateLimiter.Wait(ctx); err != nil {
		return Empty(), fmt.Errorf("rate limiter: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	q := url.Values{}
	q.Set("start", start)
	q.Set("end", end)
	if project != "" {
		q.Set("project", project)
	}
	endpoint := c.baseURL + "/users/current/summaries?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return Empty(), fmt.Errorf("failed to create wakatime request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Basic "+base64.StdEncoding.EncodeToString([]byte(c.apiKey)))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Empty(), fmt.Errorf("failed to fetch from wakatime: %w", err)
	}
	body, err := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if err != nil {
		return Empty(), fmt.Errorf("failed to read wakatime response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return Empty(), fmt.Errorf("wakatime API returned status %d: %s", resp.StatusCode, truncate(string(body), 200))
	}

	summary, err := ParseSummaries(body)
	if err != nil {
		return summary, err
	}
	summary.Since, summary.Until, _ = DaySpan(since, until)
	return summary, nil
}

func dayOf(bound string) (string, error) {
	t, ok := window.ParseTimestamp(bound)
	if !ok {
		return "", fmt.Errorf("invalid window bound %q", bound)
	}
	return t.Format("2006-01-02"), nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
