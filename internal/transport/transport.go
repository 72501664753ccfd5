package transport

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	DefaultTimeout = 15 * time.Second
	// MaxBodyBytes caps a single response read; anything larger than
	// an undecoded 10 MiB image has no business in the asset pipeline
	MaxBodyBytes = 10 << 20

	userAgent = "wikifeed/1.0 (https://github.com/wikifeed/wikifeed)"
)

// Fetcher turns a URL into bytes with exactly one network attempt.
// Retry policy is layered on top by callers; this contract stays
// retry-free so retries are never nested.
type Fetcher interface {
	FetchBytes(ctx context.Context, url string) ([]byte, int, error)
}

// HTTPFetcher is the default Fetcher over net/http
type HTTPFetcher struct {
	client *http.Client
}

// NewHTTPFetcher creates a fetcher with the given per-request timeout.
// A zero timeout falls back to the default.
func NewHTTPFetcher(timeout time.Duration) *HTTPFetcher {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &HTTPFetcher{
		client: &http.Client{Timeout: timeout},
	}
}

// FetchBytes performs a single GET. The HTTP status is returned even
// on non-2xx responses so callers can classify rate limiting and
// not-found without string matching.
func (f *HTTPFetcher) FetchBytes(ctx context.Context, url string) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "*/*")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxBodyBytes))
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("read response: %w", err)
	}

	return body, resp.StatusCode, nil
}
