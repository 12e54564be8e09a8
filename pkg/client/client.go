// Package client is the Go SDK for the MeasureLink extraction API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	mtypes "github.com/turtacn/MeasureLink/pkg/types/measurement"
)

// Version identifies the SDK in the User-Agent header.
const Version = "0.1.0"

// Client talks to a MeasureLink API server.
type Client struct {
	baseURL      string
	httpClient   *http.Client
	userAgent    string
	retryMax     int
	retryWaitMin time.Duration
	retryWaitMax time.Duration
}

// APIError is an error response from the API.
type APIError struct {
	StatusCode int    `json:"statusCode"`
	Code       string `json:"code"`
	Message    string `json:"message"`
	RequestID  string `json:"requestId"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("measurelink: %s (HTTP %d): %s [request_id=%s]",
		e.Code, e.StatusCode, e.Message, e.RequestID)
}

// IsClientError reports a 4xx response.
func (e *APIError) IsClientError() bool {
	return e.StatusCode >= 400 && e.StatusCode < 500
}

// IsServerError reports a 5xx response.
func (e *APIError) IsServerError() bool {
	return e.StatusCode >= 500 && e.StatusCode < 600
}

// NewClient validates the base URL and builds a Client.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("baseURL is required")
	}
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid baseURL: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, fmt.Errorf("baseURL scheme must be http or https")
	}

	c := &Client{
		baseURL:      strings.TrimSuffix(baseURL, "/"),
		httpClient:   &http.Client{Timeout: 30 * time.Second},
		userAgent:    fmt.Sprintf("measurelink-go-sdk/%s", Version),
		retryMax:     3,
		retryWaitMin: 500 * time.Millisecond,
		retryWaitMax: 5 * time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// ExtractResponse is the body of a successful full extraction.
type ExtractResponse struct {
	Extractions []*mtypes.Extraction `json:"extractions"`
}

// SimplifiedSentence pairs a sentence with its simplified measurements.
type SimplifiedSentence struct {
	SentenceIndex int                  `json:"sentenceIndex"`
	Sentence      string               `json:"sentence"`
	Measurements  []*mtypes.Simplified `json:"measurements"`
}

// SimplifiedResponse is the body of a successful simplified extraction.
type SimplifiedResponse struct {
	Extractions []SimplifiedSentence `json:"extractions"`
}

type extractRequest struct {
	Text     string `json:"text"`
	Simplify bool   `json:"simplify,omitempty"`
}

// Extract runs the pipeline over text and returns the full records.
func (c *Client) Extract(ctx context.Context, text string) ([]*mtypes.Extraction, error) {
	var resp ExtractResponse
	err := c.do(ctx, http.MethodPost, "/api/v1/extract",
		extractRequest{Text: text}, &resp)
	if err != nil {
		return nil, err
	}
	return resp.Extractions, nil
}

// ExtractSimplified runs the pipeline over text and returns the compact
// projection.
func (c *Client) ExtractSimplified(ctx context.Context, text string) ([]SimplifiedSentence, error) {
	var resp SimplifiedResponse
	err := c.do(ctx, http.MethodPost, "/api/v1/extract",
		extractRequest{Text: text, Simplify: true}, &resp)
	if err != nil {
		return nil, err
	}
	return resp.Extractions, nil
}

// Healthy probes the server's liveness endpoint.
func (c *Client) Healthy(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/healthz", nil, nil)
}

// do performs one API call with retries on transport failures and 5xx
// responses.  4xx responses are never retried.
func (c *Client) do(ctx context.Context, method, path string, body, result interface{}) error {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
	}

	var lastErr error
	for attempt := 0; attempt <= c.retryMax; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(c.backoff(attempt)):
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		var bodyReader io.Reader
		if payload != nil {
			bodyReader = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
		if err != nil {
			return fmt.Errorf("failed to build request: %w", err)
		}
		requestID := uuid.NewString()
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "application/json")
		req.Header.Set("User-Agent", c.userAgent)
		req.Header.Set("X-Request-ID", requestID)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = err
			continue
		}
		respBody, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = fmt.Errorf("failed to read response body: %w", err)
			continue
		}

		if resp.StatusCode >= 400 {
			apiErr := &APIError{StatusCode: resp.StatusCode, RequestID: requestID}
			if len(respBody) > 0 {
				var decoded struct {
					Code    string `json:"code"`
					Message string `json:"message"`
				}
				if json.Unmarshal(respBody, &decoded) == nil {
					apiErr.Code = decoded.Code
					apiErr.Message = decoded.Message
				}
			}
			if apiErr.Message == "" {
				apiErr.Message = http.StatusText(resp.StatusCode)
			}
			if apiErr.IsServerError() {
				lastErr = apiErr
				continue
			}
			return apiErr
		}

		if result != nil {
			if err := json.Unmarshal(respBody, result); err != nil {
				return fmt.Errorf("failed to decode response: %w", err)
			}
		}
		return nil
	}
	return lastErr
}

// backoff grows exponentially from retryWaitMin with jitter, capped at
// retryWaitMax.
func (c *Client) backoff(attempt int) time.Duration {
	wait := c.retryWaitMin << uint(attempt-1)
	if wait > c.retryWaitMax {
		wait = c.retryWaitMax
	}
	jitter := time.Duration(rand.Int63n(int64(wait)/4 + 1))
	return wait + jitter
}
