// Copyright 2025, adstitch authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

package origin

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"
)

// Client wraps an http.Client tuned for repeated origin fetches.
// A single Client is shared by all handlers so that connections
// are pooled across requests.
type Client struct {
	hc *http.Client
}

// NewClient returns a Client with a pooled transport.
func NewClient() *Client {
	tr := &http.Transport{
		DialContext: (&net.Dialer{
			Timeout: 5 * time.Second,
		}).DialContext,
		IdleConnTimeout:     90 * time.Second,
		MaxIdleConnsPerHost: 10,
	}
	return &Client{
		hc: &http.Client{
			Timeout:   30 * time.Second,
			Transport: tr,
		},
	}
}

// NewClientWithTimeout returns a Client with an overall request timeout.
func NewClientWithTimeout(timeout time.Duration) *Client {
	c := NewClient()
	c.hc.Timeout = timeout
	return c
}

// Get fetches url once. The full body and the response Content-Type
// are returned. Non-2xx status codes are errors.
func (c *Client) Get(ctx context.Context, url string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, "", fmt.Errorf("create request: %w", err)
	}
	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("fetch %s: %w", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, "", fmt.Errorf("fetch %s: status %d", url, resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("read body from %s: %w", url, err)
	}
	return body, resp.Header.Get("Content-Type"), nil
}

// GetWithRetry fetches url up to attempts times, sleeping backoff
// between attempts. The last error is returned if all attempts fail.
func (c *Client) GetWithRetry(ctx context.Context, url string, attempts int, backoff time.Duration) ([]byte, string, error) {
	if attempts < 1 {
		attempts = 1
	}
	var lastErr error
	for i := 0; i < attempts; i++ {
		if i > 0 {
			select {
			case <-ctx.Done():
				return nil, "", ctx.Err()
			case <-time.After(backoff):
			}
		}
		body, contentType, err := c.Get(ctx, url)
		if err == nil {
			return body, contentType, nil
		}
		lastErr = err
	}
	return nil, "", lastErr
}
