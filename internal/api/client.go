// internal/api/client.go

// Package api fetches the two undocumented JSON endpoints that back a
// story page: the primary document payload and the optional transcription
// payload. Payloads are returned as untyped maps; shaping them is the
// normalizer's job.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const (
	defaultDocumentPath      = "/api/stories/{id}/document"
	defaultTranscriptionPath = "/api/stories/{id}/transcriptions"
	defaultTimeout           = 15 * time.Second
)

// ClientConfig defines configuration options for the API client.
type ClientConfig struct {
	BaseURL           string
	DocumentPath      string // path template containing {id}
	TranscriptionPath string // path template containing {id}
	Timeout           time.Duration
	UserAgent         string
	RateLimit         float64 // requests per second, 0 disables limiting
	RateBurst         int
}

// Client issues single-attempt GET requests against the story endpoints.
// The endpoints are undocumented and flaky; retrying them buys nothing the
// DOM fallback path doesn't already provide, so each extraction makes
// exactly one attempt per endpoint.
type Client struct {
	httpClient        *http.Client
	baseURL           string
	documentPath      string
	transcriptionPath string
	userAgent         string
	limiter           *rate.Limiter
}

// NewClient creates an API client with the specified configuration.
func NewClient(config ClientConfig) (*Client, error) {
	if config.BaseURL == "" {
		return nil, fmt.Errorf("API base URL is required")
	}
	if config.DocumentPath == "" {
		config.DocumentPath = defaultDocumentPath
	}
	if config.TranscriptionPath == "" {
		config.TranscriptionPath = defaultTranscriptionPath
	}
	if config.Timeout == 0 {
		config.Timeout = defaultTimeout
	}

	var limiter *rate.Limiter
	if config.RateLimit > 0 {
		burst := config.RateBurst
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(config.RateLimit), burst)
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: config.Timeout,
			Transport: &http.Transport{
				MaxIdleConns:        10,
				MaxIdleConnsPerHost: 2,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		baseURL:           strings.TrimRight(config.BaseURL, "/"),
		documentPath:      config.DocumentPath,
		transcriptionPath: config.TranscriptionPath,
		userAgent:         config.UserAgent,
		limiter:           limiter,
	}, nil
}

// FetchDocument fetches the primary document payload for a story. A failure
// here means the whole structured-source path is unusable.
func (c *Client) FetchDocument(ctx context.Context, storyID string) (map[string]interface{}, error) {
	return c.fetchJSON(ctx, c.endpoint(c.documentPath, storyID))
}

// FetchTranscription fetches the transcription payload for a story. Callers
// treat a failure as "no transcript available" rather than fatal.
func (c *Client) FetchTranscription(ctx context.Context, storyID string) (map[string]interface{}, error) {
	return c.fetchJSON(ctx, c.endpoint(c.transcriptionPath, storyID))
}

func (c *Client) endpoint(pathTemplate, storyID string) string {
	return c.baseURL + strings.ReplaceAll(pathTemplate, "{id}", storyID)
}

// fetchJSON performs a single GET and decodes the body. Non-2xx responses
// and malformed JSON are both treated as fetch failures.
func (c *Client) fetchJSON(ctx context.Context, url string) (map[string]interface{}, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, resp.Status)
	}

	var payload map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("malformed JSON response: %w", err)
	}

	return payload, nil
}
