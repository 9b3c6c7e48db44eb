/*
Package types defines the core data structures used throughout logbarn.

This package contains all fundamental types that represent logbarn's domain
model, including websites, lookup-table rows, log records, upstream sync
batches, deduplication rows, and API keys. These types are used by all other
packages for persistence, API communication, and the sync pipeline.

# Architecture

The types package is the foundation of logbarn's data model. It defines:

  - Website identity and lifecycle (auto-provisioned from log paths)
  - Lookup-table rows for hot-field deduplication (hosts, HTTP codes)
  - Log record layout (hybrid relational columns + raw JSON payload)
  - Upstream sync batch state and archival linkage
  - Receiver-side batch deduplication keys
  - API key contract (hash only, never plaintext)

All types are designed to be:
  - Serializable (JSON for the API, db tags for sqlx scanning)
  - Immutable where possible (pointers mark nullable columns)
  - Self-documenting (clear field names and comments)
  - Validated (constants for enums, helpers for derived state)

# Core Types

Websites:
  - Website: A site whose logs are aggregated; domain is the unique key
  - WebsiteUpdate: Partial update carrier for admin PUTs (nil = unchanged)

Lookup Tables:
  - Host: hostname -> small integer id
  - HTTPCode: status code string -> small integer id; id=0 is "N/A"

Log Records:
  - LogRecord: persisted row; Remote and ArchivedAt are nullable
  - LogType: access or error, classified from the source filename
  - IngestRecord: parsed but unresolved record from an ingest request
  - IngestResult: received/processed summary for one request

Upstream Sync:
  - SyncBatch: audit row for one upstream POST attempt
  - BatchStatus: pending, in_progress, completed, failed
  - BatchDedup: receiver-side (batch_uuid, source_instance) uniqueness row

Authentication:
  - APIKey: stored bcrypt hash with active flag and last-used timestamp
  - Principal: the authenticated identity attached to request context

# Usage

Building an ingest record:

	rec := types.IngestRecord{
		Domain:    "example.com",
		LogType:   types.LogTypeAccess,
		Hostname:  "web1",
		Code:      "200",
		Remote:    "10.0.0.1",
		Timestamp: time.Now().UTC(),
		RawData:   raw,
	}

Checking archival state:

	if rec.Archived() {
		id, _ := rec.BatchID()
		fmt.Println("archived in batch", id)
	}

Partial website update:

	ssl := false
	upd := types.WebsiteUpdate{IsSSL: &ssl}

# Invariants

LogRecord:
  - ArchivedAt is nil or >= CreatedAt
  - UpstreamBatchUUID is set exactly when ArchivedAt is set (16 bytes)
  - CodeID is never NULL; 0 means "no status code" (error logs)

Website:
  - Domain is unique case-insensitively; it is the canonical key extracted
    from /var/www/<domain>/log/<access|error>.log
  - Ingestion mutates only LastActivityAt

SyncBatch:
  - BatchUUID is unique; status completed means every member row carries
    ArchivedAt plus this uuid

BatchDedup:
  - (BatchUUID, SourceInstance) is unique; a replayed pair is answered with
    success and no new rows

APIKey:
  - KeyHash is a cost-12 bcrypt hash; verification is constant-time
  - The plaintext key never appears in logs, errors, or JSON output

# Integration Points

This package is imported by:

  - pkg/store: Scans rows into these structs and writes them back
  - pkg/ingest: Builds IngestRecord values and IngestResult summaries
  - pkg/upstream: Assembles SyncBatch state and archival updates
  - pkg/auth: Loads APIKey rows and attaches Principal to contexts
  - pkg/api: Serializes Website and error/result shapes to JSON
  - pkg/housekeeping: Uses retention-relevant fields (CreatedAt, ArchivedAt)

# Design Patterns

Nullable Columns:
  - Pointer fields (*string, *time.Time) map to NULLable columns
  - JSON omitempty hides absent values from API responses

Enum Pattern:
  - String-typed constants (LogType, BatchStatus) match the DB ENUM values
  - Comparisons and switches use the constants, never literals

Raw Payload Pattern:
  - RawData is json.RawMessage: the original object is preserved verbatim,
    strict fields are extracted by name, everything else rides along

# See Also

  - pkg/store: Persistence layer operating on these types
  - pkg/ingest: Parser producing IngestRecord values
  - pkg/upstream: Sync worker producing SyncBatch rows
*/
package types
