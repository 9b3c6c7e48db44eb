// Package ingest implements the log ingestion pipeline that turns raw
// agent payloads into persisted, normalized log records.
//
// Agents ship log lines as JSON arrays. Each element carries the source
// file path on the web server, the reporting hostname, a timestamp, and
// whatever fields the agent scraped from the line itself. The pipeline
// extracts the owning website from the path, resolves hostnames and
// status codes through the lookup caches, and bulk inserts the results.
// The original JSON element is preserved verbatim in the record's raw
// data, so nothing an agent sends is ever lost to normalization.
//
// # Architecture
//
//	┌─────────────────────────────────────────────────────────┐
//	│                     Ingest Pipeline                      │
//	│                                                          │
//	│  []json.RawMessage                                       │
//	│        │                                                 │
//	│        ▼                                                 │
//	│  ┌──────────┐   per record   ┌───────────────────────┐  │
//	│  │ resolve  │───────────────▶│ parse wire fields      │  │
//	│  │   all    │                │ extract domain         │  │
//	│  └────┬─────┘                │ classify access/error  │  │
//	│       │                      │ resolve host + code    │  │
//	│       │                      └───────────┬────────────┘  │
//	│       │                                  │               │
//	│       │         skip + count             │ ok            │
//	│       │◀─────── (malformed, bad          │               │
//	│       │          path, no host)          ▼               │
//	│       │                      ┌───────────────────────┐  │
//	│       └─────────────────────▶│ bulk insert records    │  │
//	│                              │ update site activity   │  │
//	│                              └───────────────────────┘  │
//	└─────────────────────────────────────────────────────────┘
//
// # Core Components
//
// Service:
//   - Ingest: handles a direct agent request. Invalid records are
//     skipped and counted; valid ones are inserted in one bulk write.
//   - IngestBatch: receiver side of instance-to-instance forwarding.
//     The batch UUID and source instance form a deduplication key that
//     commits atomically with the records, so a retried delivery is
//     detected and answered with the first delivery's counts.
//
// Wire parsing:
//   - wireRecord: the strict view of one array element. Unknown agent
//     fields pass through untouched inside raw data.
//   - domainFromSourceFile: a record belongs to the website whose name
//     appears in its path under /var/www/.
//   - classifyLogType: access.log and error.log filenames; anything
//     else is stored as an error record.
//   - parseTimestamp: RFC 3339, bare datetime, or unix seconds and
//     milliseconds. Unusable values resolve to receipt time rather
//     than rejecting the record.
//
// # Record Skipping
//
// A record is skipped, never the whole request, when it is not valid
// JSON, when no website domain can be extracted from its path, or when
// the reporting hostname is missing. Each skip increments a labeled
// counter and the response reports how many records were processed, so
// a misconfigured agent is visible both to the operator and to itself.
//
// Storage and lookup failures are different: they abort the request
// with an error so the agent retries the full payload.
//
// # Usage
//
//	svc := ingest.NewService(st, caches)
//
//	result, err := svc.Ingest(ctx, raw)
//	if err != nil {
//		return err
//	}
//	fmt.Printf("processed %d of %d\n", result.Processed, result.Received)
//
// # Integration Points
//
//   - pkg/api: HTTP handlers decode request bodies and call the service
//   - pkg/store: website find-or-create and record persistence
//   - pkg/lookup: cached hostname and status code resolution
//   - pkg/upstream: forwarded batches arrive through IngestBatch on the
//     receiving instance
//   - pkg/metrics: ingest totals, skip reasons, batch sizes, durations
package ingest
