// Package fetch provides the HTTP fetch capability used by crawl workers.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/jonesrussell/scamintel/internal/domain"
)

// Result is a completed fetch.
type Result struct {
	StatusCode int
	Body       []byte
}

// Error describes a failed fetch with enough detail for retry decisions.
type Error struct {
	URL        string
	StatusCode int // zero for transport failures
	Cause      error
}

func (e *Error) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: status %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Cause)
}

func (e *Error) Unwrap() error { return domain.ErrFetch }

// Retryable reports whether the failure is worth another attempt: transport
// errors, 429 and 5xx responses are; other HTTP errors are terminal.
func (e *Error) Retryable() bool {
	if e.StatusCode == 0 {
		return true
	}
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= http.StatusInternalServerError
}

// Client fetches pages with a bounded timeout and response size.
type Client struct {
	httpClient   *http.Client
	maxBodyBytes int64
}

// acceptHeader mirrors what a browser advertises; some hosts refuse
// requests without it.
const acceptHeader = "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8"

// NewClient builds a fetch client. Redirects are followed by the underlying
// http.Client up to its default limit.
func NewClient(timeout time.Duration, maxBodyBytes int64) *Client {
	return &Client{
		httpClient:   &http.Client{Timeout: timeout},
		maxBodyBytes: maxBodyBytes,
	}
}

// Fetch retrieves url with the given user agent. Non-2xx responses and
// transport failures return a *fetch.Error wrapping domain.ErrFetch. The
// body is capped at the configured maximum.
func (c *Client) Fetch(ctx context.Context, url, userAgent string) (*Result, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, &Error{URL: url, Cause: err}
	}

	if userAgent != "" {
		req.Header.Set("User-Agent", userAgent)
	}
	req.Header.Set("Accept", acceptHeader)
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &Error{URL: url, Cause: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, &Error{URL: url, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBodyBytes))
	if err != nil {
		return nil, &Error{URL: url, Cause: fmt.Errorf("read body: %w", err)}
	}

	return &Result{StatusCode: resp.StatusCode, Body: body}, nil
}

// AsError extracts a *fetch.Error from err, if present.
func AsError(err error) (*Error, bool) {
	var fe *Error
	ok := errors.As(err, &fe)

	return fe, ok
}
