/*
Package database manages the MySQL connection pool and schema migrations.

This package owns everything between configuration and a usable *sqlx.DB:
DSN construction, dial retry at startup, pool sizing, pool metrics export,
and the embedded goose migrations that create and evolve the schema.

# Architecture

	┌──────────────┐   Connect    ┌───────────────────────────┐
	│ config.DB    │ ───────────▶ │ sqlx.DB (pool)            │
	└──────────────┘              │  - ParseTime, UTC         │
	                              │  - utf8mb4_unicode_ci     │
	┌──────────────┐   Migrate    │  - bounded open/idle      │
	│ embed.FS     │ ───────────▶ │  - DBStats → Prometheus   │
	│ (migrations) │    goose     └───────────────────────────┘
	└──────────────┘

# Core Components

## Connection Bootstrap

Connect builds the DSN through mysql.Config rather than string formatting,
so credentials with reserved characters survive. Three driver options are
load-bearing:

  - ParseTime: TIMESTAMP and DATETIME columns scan into time.Time. Without
    it every scan target would be []byte and the retention math would be
    parsing strings.
  - Loc=UTC: the driver interprets column values as UTC regardless of the
    MySQL server's time_zone. Retention cutoffs and last-activity windows
    are all computed in UTC.
  - Collation utf8mb4_unicode_ci: UNIQUE(domain) and UNIQUE(hostname)
    compare case-insensitively, which is what makes Example.COM and
    example.com the same website.

The first Ping retries under exponential backoff for up to two minutes.
In a fresh deployment the database container routinely comes up after the
service, so failing the first dial immediately would turn every cold start
into a crash loop.

## Pool Sizing

MaxOpenConns, MaxIdleConns and ConnMaxLifetime come from configuration.
The lifetime cap matters behind load balancers and managed MySQL, where
idle connections get dropped silently; recycling them before the
middlebox does avoids "invalid connection" errors mid-request.

Pool statistics are exported through the standard DBStats collector, so
saturation (wait_count, wait_duration) is visible next to the service's
own metrics.

## Migrations

Schema migrations are plain SQL files embedded into the binary:

	00001_core_schema.sql      websites, hosts, http_codes, log_records, api_keys
	00002_seed_http_codes.sql  N/A sentinel (id 0) + IANA status registry
	00003_upstream_sync.sql    upstream_sync_batches, batch_deduplication,
	                           archived_at / upstream_batch_uuid columns

goose records applied versions in goose_db_version, so Migrate is
idempotent and runs on every boot (worker zero only; siblings wait on the
schema being present). The seed migration sets NO_AUTO_VALUE_ON_ZERO for
its session so the N/A row can claim id 0; seeded codes use their numeric
value as id, which makes code_id readable in raw queries without a join.

# Usage

	db, err := database.Connect(ctx, cfg.DB)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := database.Migrate(ctx, db.DB); err != nil {
		return err
	}

The migration CLI exposes the same embedded set:

	logbarn-migrate up
	logbarn-migrate up-to 2
	logbarn-migrate status
	logbarn-migrate version

# Integration Points

  - pkg/store: consumes the *sqlx.DB for all queries.
  - pkg/config: supplies credentials and pool limits.
  - pkg/metrics: the DBStats collector registers into the same default
    registry served at /metrics.
  - cmd/logbarn: runs Migrate at boot unless AUTO_RUN_MIGRATIONS_DISABLED
    is set.
  - cmd/logbarn-migrate: operator-driven migration control.

# Design Patterns

Embedding migrations removes the deployment failure mode where the binary
and its SQL files drift apart; the binary can always bring any older
schema forward. Down migrations exist for development; production rollback
is restore-from-backup, as the Down for the seed migration necessarily
discards runtime-added codes.

# See Also

  - pkg/store for the query layer on top of the pool
  - https://github.com/pressly/goose for the migration format
*/
package database
