// Package housekeeping runs the daily retention jobs that keep the
// database bounded: expired log records are purged after the configured
// retention window, and websites with no recent activity are removed
// along with their records.
//
// # Scheduling
//
// A one-minute supervisor tick evaluates each job against the local
// clock. A job fires in its trigger hour, at most once per day, and
// never while a previous run is still in flight. Record purging runs at
// 02:00, website purging at 03:00, so the two heavy deletes never
// contend. Worker-zero is re-checked on every tick; only the singleton
// process performs retention.
//
//	tick ──▶ worker-zero? ──▶ job due? ──▶ spawn job goroutine
//	                           │                │
//	                           │                ├─ bounded context
//	                           │                ├─ duration histogram
//	                           └─ running,      └─ failure counter +
//	                              already ran       error log
//	                              today only
//
// # Retention Rules
//
// Records: created_at older than LOG_RETENTION_DAYS. On a forwarding
// node the delete additionally requires archived_at to be set, so rows
// not yet confirmed upstream survive the purge regardless of age.
//
// Websites: last_activity_at older than INACTIVE_WEBSITE_DAYS. The
// delete cascades to the site's remaining records.
//
// Job failures are isolated: logged, counted, and retried at the next
// day's trigger. One failing job never blocks the other.
//
// # Usage
//
//	hk := housekeeping.NewScheduler(cfg.Retention, cfg.Upstream.Enabled, st, instance)
//	hk.Start()
//	defer hk.Stop()
//
// # Integration Points
//
//   - pkg/store: the two purge statements
//   - pkg/cluster: worker-zero gating
//   - pkg/metrics: purge totals, job durations, failure counts
package housekeeping
