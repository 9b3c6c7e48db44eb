/*
Package metrics provides Prometheus instrumentation for logbarn.

All collectors are package-level variables registered once at init and named
under the logbarn_ prefix. The package also provides the /metrics HTTP handler,
a Timer helper for histogram observations, and a Collector that refreshes
backlog gauges from the database on a fixed interval.

# Architecture

	┌──────────────────── METRICS SYSTEM ───────────────────────┐
	│                                                            │
	│  ┌────────────────────────────────────────────┐           │
	│  │        Package-level Collectors             │           │
	│  │  - Counters, gauges, histograms             │           │
	│  │  - Registered in init()                     │           │
	│  │  - Updated inline by each component         │           │
	│  └──────────────────┬─────────────────────────┘           │
	│                     │                                      │
	│  ┌──────────────────▼─────────────────────────┐           │
	│  │            Collector (poller)               │           │
	│  │  - Polls store counts every 15s             │           │
	│  │  - records_total, unarchived_records,       │           │
	│  │    websites_total gauges                    │           │
	│  └──────────────────┬─────────────────────────┘           │
	│                     │                                      │
	│  ┌──────────────────▼─────────────────────────┐           │
	│  │          Handler() → /metrics               │           │
	│  │  - promhttp exposition endpoint             │           │
	│  └────────────────────────────────────────────┘           │
	└────────────────────────────────────────────────────────────┘

# Metric Families

Ingestion:
  - logbarn_records_ingested_total{log_type}: persisted records
  - logbarn_records_skipped_total{reason}: parse-time skips
  - logbarn_ingest_batch_size: records per request
  - logbarn_ingest_duration_seconds: request processing time
  - logbarn_websites_provisioned_total: auto-created domains

Lookup caches:
  - logbarn_lookup_cache_entries{cache}: current entries (hosts, codes)
  - logbarn_lookup_cache_misses_total{cache}: find-or-create round-trips

HTTP surface:
  - logbarn_api_requests_total{method,route,status}
  - logbarn_api_request_duration_seconds{method,route}
  - logbarn_auth_failures_total
  - logbarn_rate_limited_total

Upstream sync:
  - logbarn_sync_cycles_total{result}: success, failure, empty, skipped
  - logbarn_sync_batch_size: current adaptive batch size
  - logbarn_sync_records_archived_total
  - logbarn_sync_cycle_duration_seconds
  - logbarn_dedup_replays_total: replayed batches answered without inserts

Housekeeping:
  - logbarn_purged_records_total, logbarn_purged_websites_total
  - logbarn_housekeeping_job_duration_seconds{job}
  - logbarn_housekeeping_job_failures_total{job}

Backlog (maintained by the Collector):
  - logbarn_records_total, logbarn_unarchived_records, logbarn_websites_total

# Usage

Inline updates from components:

	metrics.RecordsIngested.WithLabelValues(string(rec.LogType)).Inc()
	metrics.RecordsSkipped.WithLabelValues("bad_source_file").Inc()
	metrics.SyncBatchSize.Set(float64(size))

Timing an operation:

	timer := metrics.NewTimer()
	defer timer.ObserveDuration(metrics.IngestDuration)

	timer := metrics.NewTimer()
	defer timer.ObserveDurationVec(metrics.JobDuration, "purge-logs")

Serving the endpoint:

	mux.Handle("/metrics", metrics.Handler())

Running the backlog poller:

	collector := metrics.NewCollector(store)
	collector.Start()
	defer collector.Stop()

# Cardinality

Label values are bounded by construction: log_type has two values, route is
the chi route pattern (not the raw URL), job names are compile-time constants,
and skip reasons are a small fixed set. Domains, IPs, and batch uuids are
never used as label values.

# Integration Points

  - pkg/ingest: ingestion counters and histograms
  - pkg/lookup: cache gauges and miss counters
  - pkg/api: request counters, durations, auth/rate-limit counters
  - pkg/upstream: sync cycle metrics and adaptive size gauge
  - pkg/housekeeping: job durations, failures, purge counters
  - pkg/database: DB pool stats via collectors.NewDBStatsCollector
  - cmd/logbarn: starts the Collector and mounts Handler()

# Alerting Examples

High skip ratio:

	rate(logbarn_records_skipped_total[5m])
	  / rate(logbarn_records_ingested_total[5m]) > 0.05

Upstream sync stalled:

	increase(logbarn_sync_cycles_total{result="success"}[30m]) == 0
	  and logbarn_unarchived_records > 0

Rate limiting active:

	rate(logbarn_rate_limited_total[5m]) > 10
*/
package metrics
