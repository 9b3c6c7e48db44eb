/*
Package client provides a Go client library for the log aggregation
HTTP API.

The client wraps the service's JSON endpoints with typed methods for
ingestion, batch forwarding, health checks, and website administration.
It handles bearer authentication, optional gzip compression of log
payloads, per-call deadlines, and decodes the service's error body into
a typed APIError.

# Architecture

	┌──────────────────── APPLICATION CODE ─────────────────────┐
	│                                                            │
	│  c := client.New("https://logs.example.com", apiKey,       │
	│          client.WithGzip(true))                            │
	│  result, err := c.SendLogs(ctx, records)                   │
	│                                                            │
	└──────────────────┬─────────────────────────────────────────┘
	                   │
	┌──────────────────▼──── pkg/client ────────────────────────┐
	│                                                            │
	│  ┌─────────────────────────────────────────────┐           │
	│  │           Typed Methods                      │           │
	│  │  - SendLogs / SendBatch                      │           │
	│  │  - Health                                    │           │
	│  │  - List/Get/Update/DeleteWebsite             │           │
	│  └──────────────────┬──────────────────────────┘           │
	│                     │                                      │
	│  ┌──────────────────▼──────────────────────────┐           │
	│  │         HTTP (net/http)                      │           │
	│  │  - Authorization: Bearer <key>               │           │
	│  │  - Content-Encoding: gzip (optional)         │           │
	│  │  - context deadline per call                 │           │
	│  └──────────────────┬──────────────────────────┘           │
	└─────────────────────┼──────────────────────────────────────┘
	                      │ HTTPS
	                      ▼
	              Aggregation Instance

# Core Features

Ingestion:
  - SendLogs posts a raw JSON record array to /api/logs
  - SendBatch adds the X-Batch-UUID and X-Source-Instance headers, so
    delivery retries are deduplicated server-side
  - Record elements are passed through verbatim; the client never
    reshapes agent payloads

Error handling:
  - Non-2xx responses become *APIError with the status code and the
    service's {error, message} body
  - Transport failures are wrapped and returned as-is

Compression:
  - WithGzip(true) compresses request bodies and sets the encoding
    header; useful on metered links between instances

# Usage

Forward a batch upstream:

	c := client.New(cfg.Upstream.Server, cfg.Upstream.APIKey,
		client.WithTimeout(cfg.Upstream.Timeout),
		client.WithGzip(cfg.Upstream.Compression))

	result, err := c.SendBatch(ctx, batchUUID, cfg.Upstream.SourceInstance, records)
	if err != nil {
		var apiErr *client.APIError
		if errors.As(err, &apiErr) {
			log.Printf("rejected: %d %s", apiErr.StatusCode, apiErr.Message)
		}
		return err
	}

Administer websites:

	websites, err := c.ListWebsites(ctx, 100, 0)
	website, err := c.GetWebsite(ctx, "example.com")
	website, err = c.UpdateWebsite(ctx, "example.com", types.WebsiteUpdate{IsDev: &isDev})
	err = c.DeleteWebsite(ctx, "example.com")

# Integration Points

  - pkg/upstream: the sync worker forwards archived batches through
    SendBatch
  - test/framework: e2e tests drive a running instance through this
    client
  - pkg/types: shared request and response structs

# See Also

  - pkg/api: the server side of every endpoint this client calls
  - pkg/ingest: how forwarded records are resolved on arrival
*/
package client
