// internal/common/http/client.go

// Package http wraps the stdlib client with a process-wide timeout ceiling.
// Callers still attach per-request deadlines through the request context; the
// client timeout only backstops requests whose context never expires.
package http

import (
	"net/http"
	"time"
)

type Client struct {
	httpClient *http.Client
}

func NewClient(timeout time.Duration) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

func (c *Client) Do(req *http.Request) (*http.Response, error) {
	return c.httpClient.Do(req)
}
