package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/klauspost/compress/gzip"

	"github.com/logbarn/logbarn/pkg/types"
)

// Header names of the batch forwarding protocol
const (
	HeaderBatchUUID      = "X-Batch-UUID"
	HeaderSourceInstance = "X-Source-Instance"
)

// DefaultTimeout bounds every call unless overridden
const DefaultTimeout = 30 * time.Second

// maxErrorBody caps how much of an error response is read back
const maxErrorBody = 64 * 1024

// APIError is a non-2xx response decoded from the service's error body
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("api error %d (%s): %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("api error %d: %s", e.StatusCode, e.Message)
}

// Option configures a Client
type Option func(*Client)

// WithTimeout sets the per-call deadline
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithGzip controls request-body compression for log payloads
func WithGzip(enabled bool) Option {
	return func(c *Client) { c.gzip = enabled }
}

// WithHTTPClient replaces the underlying transport
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		if h != nil {
			c.http = h
		}
	}
}

// Client talks to a log aggregation instance over its HTTP API. It is
// used by the sync worker to forward batches upstream and by the test
// framework; agents in other languages speak the same protocol.
type Client struct {
	baseURL string
	apiKey  string
	timeout time.Duration
	gzip    bool
	http    *http.Client
}

// New creates a client for the instance at baseURL authenticating with
// apiKey. An empty apiKey is allowed for the public endpoints.
func New(baseURL, apiKey string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		timeout: DefaultTimeout,
		http:    &http.Client{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SendLogs submits a log record array for ingestion
func (c *Client) SendLogs(ctx context.Context, records []json.RawMessage) (*types.IngestResult, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := c.newRequest(ctx, http.MethodPost, "/api/logs", records)
	if err != nil {
		return nil, err
	}
	return c.doIngest(req)
}

// SendBatch forwards a batch with its deduplication identity. Safe to
// retry: the receiver answers a replayed pair with the original counts.
func (c *Client) SendBatch(ctx context.Context, batchUUID uuid.UUID, sourceInstance string, records []json.RawMessage) (*types.IngestResult, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := c.newRequest(ctx, http.MethodPost, "/api/logs/batch", records)
	if err != nil {
		return nil, err
	}
	req.Header.Set(HeaderBatchUUID, batchUUID.String())
	req.Header.Set(HeaderSourceInstance, sourceInstance)
	return c.doIngest(req)
}

// Health checks the public liveness endpoint
func (c *Client) Health(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := c.newRequest(ctx, http.MethodGet, "/health", nil)
	if err != nil {
		return err
	}
	return c.do(req, nil)
}

// ListWebsites returns a page of registered websites
func (c *Client) ListWebsites(ctx context.Context, limit, offset int) ([]*types.Website, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	path := fmt.Sprintf("/api/websites?limit=%d&offset=%d", limit, offset)
	req, err := c.newRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}

	var out struct {
		Websites []*types.Website `json:"websites"`
	}
	if err := c.do(req, &out); err != nil {
		return nil, err
	}
	return out.Websites, nil
}

// GetWebsite returns one website by domain
func (c *Client) GetWebsite(ctx context.Context, domain string) (*types.Website, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := c.newRequest(ctx, http.MethodGet, "/api/websites/"+url.PathEscape(domain), nil)
	if err != nil {
		return nil, err
	}

	var website types.Website
	if err := c.do(req, &website); err != nil {
		return nil, err
	}
	return &website, nil
}

// UpdateWebsite changes website metadata; nil fields stay untouched
func (c *Client) UpdateWebsite(ctx context.Context, domain string, update types.WebsiteUpdate) (*types.Website, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := c.newRequest(ctx, http.MethodPut, "/api/websites/"+url.PathEscape(domain), update)
	if err != nil {
		return nil, err
	}

	var website types.Website
	if err := c.do(req, &website); err != nil {
		return nil, err
	}
	return &website, nil
}

// DeleteWebsite removes a website and its records
func (c *Client) DeleteWebsite(ctx context.Context, domain string) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := c.newRequest(ctx, http.MethodDelete, "/api/websites/"+url.PathEscape(domain), nil)
	if err != nil {
		return err
	}
	return c.do(req, nil)
}

// newRequest builds an authenticated JSON request. Payload bodies are
// gzip-compressed when the client is configured for it.
func (c *Client) newRequest(ctx context.Context, method, path string, payload interface{}) (*http.Request, error) {
	var body io.Reader
	compressed := false

	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
		if c.gzip {
			var buf bytes.Buffer
			zw := gzip.NewWriter(&buf)
			if _, err := zw.Write(data); err != nil {
				return nil, fmt.Errorf("failed to compress request body: %w", err)
			}
			if err := zw.Close(); err != nil {
				return nil, fmt.Errorf("failed to compress request body: %w", err)
			}
			body = &buf
			compressed = true
		} else {
			body = bytes.NewReader(data)
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if compressed {
		req.Header.Set("Content-Encoding", "gzip")
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	return req, nil
}

func (c *Client) doIngest(req *http.Request) (*types.IngestResult, error) {
	var out struct {
		Status    string `json:"status"`
		Received  int    `json:"received"`
		Processed int    `json:"processed"`
	}
	if err := c.do(req, &out); err != nil {
		return nil, err
	}
	return &types.IngestResult{Received: out.Received, Processed: out.Processed}, nil
}

func (c *Client) do(req *http.Request, out interface{}) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return apiError(resp)
	}
	if out == nil {
		// Drain so the transport can reuse the connection
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// apiError maps a non-2xx response to an APIError, preserving the body
// verbatim when it is not the service's error shape
func apiError(resp *http.Response) error {
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil {
		return &APIError{StatusCode: resp.StatusCode, Message: "unreadable error body"}
	}

	var body struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(data, &body); err == nil && body.Error != "" {
		return &APIError{StatusCode: resp.StatusCode, Code: body.Error, Message: body.Message}
	}
	return &APIError{
		StatusCode: resp.StatusCode,
		Message:    strings.TrimSpace(string(data)),
	}
}
