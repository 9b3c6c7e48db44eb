/*
Package lookup caches the host and HTTP code lookup tables in memory.

Every ingested record references a host row and an http_codes row. Both
tables are small and append-only, so after warmup nearly every resolve is
a map read; only first-sighted names pay a database round trip.

# Resolution

	probe map under RLock ──hit──▶ id
	        │ miss
	        ▼
	take write lock, re-check ──hit──▶ id
	        │ miss
	        ▼
	INSERT IGNORE + SELECT (store.EnsureHost / EnsureHTTPCode)
	        │
	        ▼
	populate map, return id

The write lock is held across the insert/select pair. Within one process
that serializes first-sight of a name; across processes the INSERT IGNORE
makes the race benign, with the SELECT returning whichever row won.

Because lookup rows are never deleted, a cached id can never point at a
missing row, and the caches need no invalidation or TTL.

# Edge Policy

The code string "N/A" is bound to id 0 at schema init. Records without a
status code (error logs) resolve to 0 directly in CodeID; the sentinel
never occupies cache space and never reaches the database.

# Integration Points

  - pkg/ingest: resolves host_id and code_id for every record.
  - pkg/store: supplies the find-or-create operations behind a miss.
  - pkg/metrics: cache sizes and miss counts are exported per cache.

# See Also

  - pkg/store for the INSERT IGNORE idiom the misses rely on
*/
package lookup
