/*
Package store provides MySQL-backed persistence for aggregation state.

This package implements the storage layer for every entity the service
tracks: websites, emitter hosts, HTTP status codes, log records, upstream
sync batches, batch deduplication rows, and API keys. The Store interface
is what the rest of the codebase programs against; MySQLStore is its only
production implementation.

# Architecture

	┌────────────────────────────────────────────────────────┐
	│                     Store interface                    │
	│  Websites │ Hosts │ Codes │ Records │ Batches │ Keys   │
	└───────────────────────────┬────────────────────────────┘
	                            │
	                            ▼
	                    ┌──────────────┐
	                    │  MySQLStore  │
	                    │  (sqlx.DB)   │
	                    └──────┬───────┘
	                           │
	        ┌──────────────────┼──────────────────┐
	        ▼                  ▼                  ▼
	   websites ◀─FK─ log_records ─FK▶ hosts, http_codes
	        │                  │
	     CASCADE        archived_at / upstream_batch_uuid
	                           │
	              upstream_sync_batches, batch_deduplication

# Core Components

## Find-or-Create

Websites, hosts, and HTTP codes are all provisioned on first sight with
the same two-step idiom:

	INSERT IGNORE INTO <table> (...) VALUES (...)
	SELECT ... WHERE <natural key> = ?

INSERT IGNORE makes the race between concurrent first-sights harmless:
both writers attempt the insert, one wins, the duplicate collapses into a
no-op, and the re-SELECT returns the winning row for both. No advisory
locks, no retry loops.

## Bulk Insert

Log records are written with multi-row INSERT statements, chunked at
maxInsertRows so a maximum-size ingest request cannot exceed the server
packet limit. A 1000-record batch is one round trip instead of a thousand.
All chunks of a batch commit in one transaction; a failure on any chunk
rolls the whole batch back, so the caller's 500 never hides rows that
were already applied.

## Deduplicated Batch Insert

InsertLogRecordsDeduped serves the receiver endpoint. The deduplication
row and the record rows commit in a single transaction:

	BEGIN
	INSERT IGNORE INTO batch_deduplication (batch_uuid, source_instance, ...)
	-- 0 rows affected ⇒ replay: read the recorded count, write nothing
	INSERT INTO log_records ...
	COMMIT

Because the dedup row and the records are atomic, a crash between them
cannot strand a half-applied batch, and a redelivered batch is detected
by the dedup insert collapsing to zero rows.

## Archive Stamping

MarkArchived sets archived_at and upstream_batch_uuid together, guarded
by archived_at IS NULL. A row is stamped at most once; rows already
archived by an earlier cycle are skipped rather than restamped.

## Error Mapping

Row-miss lookups return ErrNotFound so handlers can map them to 404
without string matching. Every other failure is wrapped with a summary of
the failed operation, never the parameters, so logs stay free of log
payloads and addresses.

# Usage

	st := store.NewMySQLStore(db)
	defer st.Close()

	website, _, err := st.FindOrCreateWebsite(ctx, "example.com")
	if err != nil {
		return err
	}

	n, err := st.InsertLogRecords(ctx, records)

# Integration Points

  - pkg/ingest: record resolution and bulk writes.
  - pkg/lookup: EnsureHost / EnsureHTTPCode behind in-memory caches.
  - pkg/auth: ActiveAPIKeys and TouchAPIKey.
  - pkg/upstream: UnarchivedRecords, MarkArchived, sync batch lifecycle.
  - pkg/housekeeping: PurgeRecordsBefore, PurgeInactiveWebsites.
  - pkg/metrics: the count methods feed the state gauges.
  - pkg/api: website CRUD and Ping for readiness.

# Performance Considerations

  - UnarchivedRecords reads in id order, which is insert order; the
    upstream stream stays chronological without sorting on timestamp.
  - UpdateLastActivity folds all touched websites of one ingest request
    into a single CASE statement, one write regardless of fan-out.
  - DELETE-based purges run daily on an indexed created_at; retention
    windows measured in days keep the deleted row count bounded.

# See Also

  - pkg/database for pool construction and schema migrations
  - pkg/types for the row structs
*/
package store
