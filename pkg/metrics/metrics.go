package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Ingestion metrics
	RecordsIngested = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "logbarn_records_ingested_total",
			Help: "Total number of log records persisted by log type",
		},
		[]string{"log_type"},
	)

	RecordsSkipped = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "logbarn_records_skipped_total",
			Help: "Total number of records skipped during parsing by reason",
		},
		[]string{"reason"},
	)

	IngestBatchSize = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "logbarn_ingest_batch_size",
			Help:    "Number of records per ingest request",
			Buckets: prometheus.ExponentialBuckets(1, 4, 8),
		},
	)

	IngestDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "logbarn_ingest_duration_seconds",
			Help:    "Time to parse, resolve, and persist one ingest request",
			Buckets: prometheus.DefBuckets,
		},
	)

	WebsitesProvisioned = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "logbarn_websites_provisioned_total",
			Help: "Total number of websites auto-created from new domains",
		},
	)

	// Lookup cache metrics
	LookupCacheEntries = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "logbarn_lookup_cache_entries",
			Help: "Current number of entries per lookup cache",
		},
		[]string{"cache"},
	)

	LookupCacheMisses = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "logbarn_lookup_cache_misses_total",
			Help: "Total lookup cache misses requiring a find-or-create",
		},
		[]string{"cache"},
	)

	// API metrics
	APIRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "logbarn_api_requests_total",
			Help: "Total number of API requests by method, route, and status",
		},
		[]string{"method", "route", "status"},
	)

	APIRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "logbarn_api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	AuthFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "logbarn_auth_failures_total",
			Help: "Total number of rejected authentication attempts",
		},
	)

	RateLimited = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "logbarn_rate_limited_total",
			Help: "Total number of requests rejected by the rate limiter",
		},
	)

	// Upstream sync metrics
	SyncCycles = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "logbarn_sync_cycles_total",
			Help: "Total number of upstream sync cycles by result",
		},
		[]string{"result"},
	)

	SyncBatchSize = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "logbarn_sync_batch_size",
			Help: "Current adaptive upstream batch size",
		},
	)

	SyncRecordsArchived = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "logbarn_sync_records_archived_total",
			Help: "Total number of records archived after successful upstream POSTs",
		},
	)

	SyncDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "logbarn_sync_cycle_duration_seconds",
			Help:    "Duration of one upstream sync cycle",
			Buckets: prometheus.DefBuckets,
		},
	)

	DedupReplays = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "logbarn_dedup_replays_total",
			Help: "Total number of duplicate upstream batches answered from dedup state",
		},
	)

	// Housekeeping metrics
	PurgedRecords = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "logbarn_purged_records_total",
			Help: "Total number of log records removed by retention",
		},
	)

	PurgedWebsites = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "logbarn_purged_websites_total",
			Help: "Total number of inactive websites removed by retention",
		},
	)

	JobDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "logbarn_housekeeping_job_duration_seconds",
			Help:    "Duration of housekeeping jobs by job name",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"job"},
	)

	JobFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "logbarn_housekeeping_job_failures_total",
			Help: "Total number of failed housekeeping job runs by job name",
		},
		[]string{"job"},
	)

	// Backlog gauges maintained by the Collector
	RecordsTotal = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "logbarn_records_total",
			Help: "Current number of rows in log_records",
		},
	)

	UnarchivedRecords = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "logbarn_unarchived_records",
			Help: "Current number of log records not yet archived upstream",
		},
	)

	WebsitesTotal = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "logbarn_websites_total",
			Help: "Current number of websites",
		},
	)
)

func init() {
	// Register all metrics
	prometheus.MustRegister(RecordsIngested)
	prometheus.MustRegister(RecordsSkipped)
	prometheus.MustRegister(IngestBatchSize)
	prometheus.MustRegister(IngestDuration)
	prometheus.MustRegister(WebsitesProvisioned)
	prometheus.MustRegister(LookupCacheEntries)
	prometheus.MustRegister(LookupCacheMisses)
	prometheus.MustRegister(APIRequestsTotal)
	prometheus.MustRegister(APIRequestDuration)
	prometheus.MustRegister(AuthFailures)
	prometheus.MustRegister(RateLimited)
	prometheus.MustRegister(SyncCycles)
	prometheus.MustRegister(SyncBatchSize)
	prometheus.MustRegister(SyncRecordsArchived)
	prometheus.MustRegister(SyncDuration)
	prometheus.MustRegister(DedupReplays)
	prometheus.MustRegister(PurgedRecords)
	prometheus.MustRegister(PurgedWebsites)
	prometheus.MustRegister(JobDuration)
	prometheus.MustRegister(JobFailures)
	prometheus.MustRegister(RecordsTotal)
	prometheus.MustRegister(UnarchivedRecords)
	prometheus.MustRegister(WebsitesTotal)
}

// Handler returns the Prometheus HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}
