// Package netfetch is the bounded HTTP client behind the optional web
// and repo backends.
package netfetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// userAgent identifies guard traffic to origin servers.
const userAgent = "BridgeWarden/0.1"

// NetworkError wraps network failures and transport policy violations
// so callers can map them to a single reason code.
type NetworkError struct {
	Msg string
	Err error
}

func (e *NetworkError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *NetworkError) Unwrap() error { return e.Err }

// Client fetches bounded payloads over HTTP. Redirects that change
// host are refused.
type Client struct {
	http *http.Client
}

// NewClient builds a client with the given request timeout.
func NewClient(timeout time.Duration) *Client {
	return &Client{
		http: &http.Client{
			Timeout: timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if req.URL.Host != via[0].URL.Host {
					return &NetworkError{Msg: "redirected to different host"}
				}
				return nil
			},
		},
	}
}

// Get fetches up to maxBytes from a URL. Responses larger than
// maxBytes are silently truncated, matching the caller-declared clamp.
func (c *Client) Get(ctx context.Context, rawURL string, maxBytes int64) ([]byte, error) {
	if maxBytes <= 0 {
		return nil, &NetworkError{Msg: "max_bytes must be positive"}
	}
	if _, err := url.Parse(rawURL); err != nil {
		return nil, &NetworkError{Msg: "invalid url", Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, &NetworkError{Msg: "invalid request", Err: err}
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &NetworkError{Msg: "request failed", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &NetworkError{Msg: fmt.Sprintf("unexpected status %d", resp.StatusCode)}
	}

	payload, err := io.ReadAll(io.LimitReader(resp.Body, maxBytes))
	if err != nil {
		return nil, &NetworkError{Msg: "read failed", Err: err}
	}
	return payload, nil
}

// TextFetcher adapts Get to the decoded-text shape the tool layer
// consumes.
type TextFetcher struct {
	Client *Client
}

// Fetch returns the payload as UTF-8 text. Invalid byte sequences are
// kept as-is; the normalizer downstream handles them.
func (f *TextFetcher) Fetch(ctx context.Context, rawURL string, maxBytes int64) (string, error) {
	payload, err := f.Client.Get(ctx, rawURL, maxBytes)
	if err != nil {
		return "", err
	}
	return string(payload), nil
}
