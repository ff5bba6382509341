// Package fetcher retrieves the raw markets page over HTTP.
package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// ErrUnexpectedStatusCode indicates an HTTP response with a non-2xx status.
var ErrUnexpectedStatusCode = errors.New("unexpected status code")

// maxBodyBytes caps how much of a response body is read. The markets page is
// well under this; anything larger is not the page we expect.
const maxBodyBytes = 8 << 20

// Fetcher issues single-attempt GET requests with a fixed client identity.
type Fetcher struct {
	client    *http.Client
	userAgent string
}

// NewFetcher creates a fetcher. A zero timeout leaves the request unbounded.
func NewFetcher(userAgent string, timeout time.Duration) *Fetcher {
	return &Fetcher{
		client:    &http.Client{Timeout: timeout},
		userAgent: userAgent,
	}
}

// Fetch performs one GET against url and returns the response body. It fails
// when the transport fails or the server answers outside the 2xx range.
// There is no retry; a failed attempt is final for this invocation.
func (f *Fetcher) Fetch(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")

	resp, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return "", fmt.Errorf("%w: %d", ErrUnexpectedStatusCode, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return "", fmt.Errorf("failed to read response body: %w", err)
	}

	return string(body), nil
}
