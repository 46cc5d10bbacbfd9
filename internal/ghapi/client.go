// Package ghapi is a minimal GitHub REST API client shared by the release
// registry and the upstream version oracle. All requests go through a single
// retrying HTTP client with bounded backoff.
package ghapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
)

const (
	DefaultBaseURL = "https://api.github.com"

	defaultTimeout      = 30 * time.Second
	defaultRetryMax     = 3
	defaultRetryWaitMin = 1 * time.Second
	defaultRetryWaitMax = 10 * time.Second
)

// NotFoundError marks a 404 from the API. Callers use this to distinguish
// a missing release from a degraded API.
type NotFoundError struct {
	URL string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("not found: %s", e.URL)
}

// StatusError is any other non-2xx response.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d from %s", e.StatusCode, e.URL)
}

type ClientConfig struct {
	// BaseURL of the API, without a trailing slash. Defaults to the public
	// GitHub API.
	BaseURL string
	// Token authenticates requests when set. Anonymous access works for
	// public repositories but is heavily rate-limited.
	Token string

	Timeout      time.Duration
	RetryMax     int
	RetryWaitMin time.Duration
	RetryWaitMax time.Duration

	Logger *logrus.Logger
}

type Client struct {
	baseURL string
	client  *http.Client
}

func NewClient(config ClientConfig) *Client {
	if config.BaseURL == "" {
		config.BaseURL = DefaultBaseURL
	}
	if config.Timeout == 0 {
		config.Timeout = defaultTimeout
	}
	if config.RetryMax == 0 {
		config.RetryMax = defaultRetryMax
	}
	if config.RetryWaitMin == 0 {
		config.RetryWaitMin = defaultRetryWaitMin
	}
	if config.RetryWaitMax == 0 {
		config.RetryWaitMax = defaultRetryWaitMax
	}

	rc := retryablehttp.NewClient()
	rc.RetryMax = config.RetryMax
	rc.RetryWaitMin = config.RetryWaitMin
	rc.RetryWaitMax = config.RetryWaitMax
	rc.HTTPClient.Timeout = config.Timeout
	rc.Logger = NewLeveledLogger(config.Logger)

	if config.Token != "" {
		rc.HTTPClient.Transport = &oauth2.Transport{
			Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: config.Token}),
			Base:   rc.HTTPClient.Transport,
		}
	}

	return &Client{
		baseURL: config.BaseURL,
		client:  rc.StandardClient(),
	}
}

// Get fetches an absolute URL and returns the response body. The accept
// header selects the representation ("application/octet-stream" for asset
// downloads, "application/vnd.github.raw" for file contents).
func (c *Client) Get(ctx context.Context, url, accept string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return nil, err
	}
	if accept != "" {
		req.Header.Set("Accept", accept)
	}
	req.Header.Set("X-GitHub-Api-Version", "2022-11-28")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, &NotFoundError{URL: url}
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return nil, &StatusError{URL: url, StatusCode: resp.StatusCode}
	}

	return io.ReadAll(resp.Body)
}

// GetJSON fetches an API path relative to the base URL and decodes the JSON
// response into out.
func (c *Client) GetJSON(ctx context.Context, path string, out interface{}) error {
	body, err := c.Get(ctx, c.baseURL+path, "application/vnd.github+json")
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("cannot decode response from %s: %w", path, err)
	}
	return nil
}

// GetRaw fetches an API path with the raw content representation.
func (c *Client) GetRaw(ctx context.Context, path string) ([]byte, error) {
	return c.Get(ctx, c.baseURL+path, "application/vnd.github.raw")
}
