package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	DefaultTimeout   = 20 * time.Second
	defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"
)

// Error reports a failed page fetch. StatusCode is zero when the request
// never produced a response.
type Error struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *Error) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: unexpected status %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Client retrieves HTML documents. A failed fetch is never retried here;
// the caller decides whether another strategy applies.
type Client struct {
	httpClient *http.Client
	userAgent  string
}

func NewClient(timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		userAgent:  defaultUserAgent,
	}
}

func NewClientWithOptions(client *http.Client, userAgent string) *Client {
	if client == nil {
		client = &http.Client{Timeout: DefaultTimeout}
	}
	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	return &Client{httpClient: client, userAgent: userAgent}
}

func (c *Client) FetchHTML(ctx context.Context, endpoint string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", &Error{URL: endpoint, Err: fmt.Errorf("create request: %w", err)}
	}

	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	res, err := c.httpClient.Do(req)
	if err != nil {
		return "", &Error{URL: endpoint, Err: err}
	}
	defer res.Body.Close()

	// Redirects are followed by the transport, so anything outside 2xx
	// here is a terminal answer from the origin.
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return "", &Error{URL: endpoint, StatusCode: res.StatusCode}
	}

	rawBody, err := io.ReadAll(res.Body)
	if err != nil {
		return "", &Error{URL: endpoint, Err: fmt.Errorf("read response body: %w", err)}
	}

	return string(rawBody), nil
}
