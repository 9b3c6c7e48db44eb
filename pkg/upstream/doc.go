// Package upstream implements the sync worker that forwards locally
// persisted log records to a parent aggregation instance.
//
// Instances can be arranged in a hierarchy: edge nodes collect from
// their agents and periodically push everything upward. The worker
// reads unarchived records in insertion order, wraps them in a batch
// with a fresh uuid, POSTs them through pkg/client, and stamps the rows
// archived only after a confirmed 2xx. Archival is the at-most-once
// side; the POST is at-least-once; the receiver's (uuid, source)
// deduplication closes the loop.
//
// # Architecture
//
//	┌────────────────────────────────────────────────────────────┐
//	│                       Sync Cycle                            │
//	│                                                             │
//	│  gate: worker-zero + enabled                                │
//	│        │                                                    │
//	│        ▼                                                    │
//	│  SELECT unarchived ORDER BY id LIMIT <size>                 │
//	│        │ empty → idle                                       │
//	│        ▼                                                    │
//	│  INSERT batch row (uuid, in_progress)                       │
//	│        │                                                    │
//	│        ▼                                                    │
//	│  POST /api/logs/batch ──────────▶ parent instance           │
//	│        │                                                    │
//	│   2xx  │  failure                                           │
//	│   ┌────┴─────┐                                              │
//	│   ▼          ▼                                              │
//	│  archive    batch → failed                                  │
//	│  rows,      rows untouched,                                 │
//	│  batch →    size halved                                     │
//	│  completed, (min clamp)                                     │
//	│  size grows                                                 │
//	│  toward                                                     │
//	│  target                                                     │
//	└────────────────────────────────────────────────────────────┘
//
// # Adaptive Batch Size
//
// The batch size starts at the configured target. Every failure halves
// it, clamped at the minimum, so a struggling parent receives smaller
// payloads. Every success raises it by the recovery step until the
// target is reached again. The current size is exported as a gauge.
//
// # Crash Recovery
//
// A batch row persisted as in_progress whose process dies before the
// outcome is known would otherwise linger forever. On Start the worker
// marks in_progress batches older than twice the poll interval (at
// least five minutes) as failed; their rows are still unarchived, so
// the next cycle re-sends them under a fresh uuid. If the crash
// happened after the POST landed, the parent stores the re-sent rows
// again under the new uuid; the hierarchy trades duplicate rows at the
// parent for never losing records.
//
// # Usage
//
//	sender := client.New(cfg.Upstream.Server, cfg.Upstream.APIKey,
//		client.WithTimeout(cfg.Upstream.Timeout),
//		client.WithGzip(cfg.Upstream.Compression))
//
//	syncer := upstream.NewSyncer(cfg.Upstream, st, sender, instance)
//	syncer.Start()
//	defer syncer.Stop()
//
// Stop waits for an in-flight cycle; the POST deadline bounds the wait
// and an aborted send marks its batch failed before the worker exits.
//
// # Integration Points
//
//   - pkg/store: unarchived query, archive stamping, batch rows
//   - pkg/client: the HTTP POST with dedup headers
//   - pkg/cluster: worker-zero gating, re-checked every cycle
//   - pkg/ingest: the receiving side of a forwarded batch
//   - pkg/metrics: cycle results, records archived, batch size gauge
package upstream
