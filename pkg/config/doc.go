/*
Package config loads the process-wide configuration snapshot for logbarn.

Configuration is read once at startup and never mutated afterwards. Values come
from three layers with fixed precedence: environment variables override an
optional YAML file, which overrides built-in defaults. Validation fails fast on
missing database credentials so a misconfigured node never accepts traffic.

# Architecture

	┌────────────────── CONFIG RESOLUTION ──────────────────┐
	│                                                        │
	│  ┌──────────────┐   ┌──────────────┐   ┌────────────┐ │
	│  │   Defaults    │ → │  YAML file   │ → │ Environment │ │
	│  │  (compiled)   │   │ (--config)   │   │  variables  │ │
	│  └──────────────┘   └──────────────┘   └────────────┘ │
	│                          lowest → highest precedence   │
	│                                                        │
	│  ┌──────────────────────────────────────────────────┐ │
	│  │                  Validate()                       │ │
	│  │  - DB credentials present                         │ │
	│  │  - ports in range                                 │ │
	│  │  - upstream server/key present when enabled       │ │
	│  │  - batch sizes: min <= target, recovery > 0       │ │
	│  └──────────────────────────────────────────────────┘ │
	└────────────────────────────────────────────────────────┘

# Recognized Environment Variables

Database (required):
  - DB_HOST, DB_PORT, DB_USER, DB_PASSWORD, DB_NAME
  - DB_MAX_OPEN_CONNS (default 10), DB_MAX_IDLE_CONNS (default 5)

Listener:
  - HOST (default 0.0.0.0), PORT (default 8080)

Retention:
  - LOG_RETENTION_DAYS (default 30)
  - INACTIVE_WEBSITE_DAYS (default 45)

Migrations:
  - AUTO_RUN_MIGRATIONS_DISABLED (truthy skips the boot migration run)

Rate limiting (pre-auth):
  - RATE_LIMIT_ENABLED (default true)
  - RATE_LIMIT_MAX (default 300 requests per window)
  - RATE_LIMIT_WINDOW (default 60; bare integers are seconds)
  - RATE_LIMIT_CACHE (default 10000 tracked client IPs)
  - RATE_LIMIT_ALLOWLIST (comma-separated IPs or CIDRs, bypass the limiter)

Upstream forwarding:
  - UPSTREAM_ENABLED, UPSTREAM_SERVER, UPSTREAM_API_KEY
  - UPSTREAM_BATCH_SIZE (default 1000), UPSTREAM_BATCH_SIZE_MIN (default 100)
  - UPSTREAM_BATCH_SIZE_RECOVERY (default 500)
  - UPSTREAM_BATCH_INTERVAL (default 60), UPSTREAM_TIMEOUT (default 30)
  - UPSTREAM_COMPRESSION (default true)
  - UPSTREAM_SOURCE_INSTANCE (default: local hostname)

Logging:
  - LOG_LEVEL (debug/info/warn/error, default info)
  - LOG_JSON (default false: console output)

Durations accept either bare integers (seconds) or Go duration strings such
as "90s" or "2m".

# Usage

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatal(err.Error())
	}

	db, err := database.Connect(ctx, cfg.DB)
	srv := api.NewServer(cfg.Server, ...)

YAML file mirroring the environment keys:

	db:
	  host: db.internal
	  user: logbarn
	  password: secret
	  name: logbarn
	server:
	  port: 8080
	upstream:
	  enabled: true
	  server: https://central.example.com
	  api_key: "..."

# Integration Points

  - cmd/logbarn: Loads the snapshot before wiring any component
  - pkg/database: Consumes DB for pool setup and DSN construction
  - pkg/api: Consumes Server for listener address and timeouts
  - pkg/ratelimit: Consumes RateLimit
  - pkg/upstream: Consumes Upstream
  - pkg/housekeeping: Consumes Retention and Upstream.Enabled

# Design Notes

The snapshot is plain data: packages receive the sub-struct they need, not the
whole Config, so tests construct settings inline without touching the
environment. NODE_APP_INSTANCE is not read here; the clustering guard in
pkg/cluster owns it.
*/
package config
