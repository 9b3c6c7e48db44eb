/*
Package api implements the HTTP API server for log ingestion and
website administration.

The api package is the single network surface of a logbarn instance.
Agents POST batches of raw log records, downstream instances forward
archived batches, and operators manage the website inventory. The server
assembles the middleware chain, routes requests, and translates service
and store errors into a uniform JSON error shape.

# Architecture

	┌──────────────────────── CLIENTS ───────────────────────────┐
	│                                                            │
	│   log agents          downstream            operators      │
	│   POST /api/logs      instances             GET/PUT/DELETE │
	│                       POST /api/logs/batch  /api/websites  │
	└───────────┬────────────────┬────────────────────┬──────────┘
	            │                │                    │
	┌───────────▼────────────────▼────────────────────▼──────────┐
	│                     HTTP Server (pkg/api)                  │
	│                                                            │
	│   RequestID → RealIP → request log → recover → metrics     │
	│                                                            │
	│   /health /ready /metrics          (no credentials)        │
	│   /api/*   rate limit → API key auth                       │
	│                                                            │
	│  ┌──────────────┐   ┌───────────────┐   ┌──────────────┐   │
	│  │ pkg/ingest   │   │  pkg/store    │   │ pkg/metrics  │   │
	│  │ resolve +    │   │  website      │   │ Prometheus   │   │
	│  │ bulk insert  │   │  admin ops    │   │ registry     │   │
	│  └──────────────┘   └───────────────┘   └──────────────┘   │
	└────────────────────────────────────────────────────────────┘

# Endpoints

Ingestion:
  - POST /api/logs: accept a JSON array of raw log records from an agent
  - POST /api/logs/batch: accept a forwarded batch, deduplicated by the
    X-Batch-UUID and X-Source-Instance headers

Website administration:
  - GET /api/websites: list websites with limit/offset paging
  - GET /api/websites/{domain}: fetch one website
  - PUT /api/websites/{domain}: update mutable attributes
  - DELETE /api/websites/{domain}: remove a website and its records

Operational:
  - GET /health: liveness, always 200 while the process runs
  - GET /ready: readiness, 200 only when the database answers a ping
  - GET /metrics: Prometheus exposition

# Request Handling

Ingest bodies may be gzip-compressed (Content-Encoding: gzip); the size
limit applies to the decompressed payload. Bodies over the limit answer
413, malformed JSON answers 400, and an empty array answers 400. A
storage failure answers 500 and the agent retries the whole payload.

Every error response carries the same JSON shape:

	{"error": "not_found", "message": "website not found"}

The error field is a stable machine-readable kind; the message is for
humans and may change between releases.

# Middleware Order

The rate limiter runs before API key authentication so that floods of
unauthenticated requests are shed before any bcrypt comparison happens.
Probe endpoints bypass both, and also bypass request logging to keep
scrape noise out of the logs.

# Usage

	srv := api.NewServer(cfg.Server, st, ingestSvc, authn, limiter)

	go func() {
		if err := srv.Start(); err != nil {
			logger.Fatal().Err(err).Msg("API server failed")
		}
	}()

	// On shutdown signal:
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownGrace)
	defer cancel()
	srv.Shutdown(ctx)

Handler returns the assembled http.Handler without binding a listener,
which is what tests use with httptest.

# Integration Points

  - pkg/ingest: record resolution and persistence for both ingest routes
  - pkg/store: website administration and the readiness ping
  - pkg/auth: API key middleware on the /api subtree
  - pkg/ratelimit: per-client-IP limiter ahead of auth
  - pkg/metrics: request counters, latency histograms, /metrics handler
  - pkg/client: the Go client agents and syncers use against this API

# See Also

  - pkg/ingest for the record pipeline behind POST /api/logs
  - pkg/upstream for the syncer that calls POST /api/logs/batch
  - cmd/logbarn for server assembly and lifecycle
*/
package api
