package ingest

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog"

	"github.com/logbarn/logbarn/pkg/log"
	"github.com/logbarn/logbarn/pkg/lookup"
	"github.com/logbarn/logbarn/pkg/metrics"
	"github.com/logbarn/logbarn/pkg/types"
)

// Skip reasons, used as metric labels and in logs
const (
	SkipMalformed  = "malformed_json"
	SkipSourceFile = "bad_source_file"
	SkipHost       = "missing_host"
)

// Store is the storage surface the pipeline needs
type Store interface {
	FindOrCreateWebsite(ctx context.Context, domain string) (*types.Website, bool, error)
	InsertLogRecords(ctx context.Context, records []*types.LogRecord) (int64, error)
	InsertLogRecordsDeduped(ctx context.Context, dedup types.BatchDedup, records []*types.LogRecord) (int64, bool, error)
	UpdateLastActivity(ctx context.Context, activity map[int64]time.Time) error
}

// Service turns raw agent payloads into persisted log records
type Service struct {
	store  Store
	caches *lookup.Caches
	logger zerolog.Logger
}

// NewService creates the ingestion pipeline
func NewService(store Store, caches *lookup.Caches) *Service {
	return &Service{
		store:  store,
		caches: caches,
		logger: log.WithComponent("ingest"),
	}
}

// Ingest processes one agent request body: resolve every record, bulk
// insert the valid ones, advance website activity. Malformed records are
// skipped and counted; storage failures abort the request.
func (s *Service) Ingest(ctx context.Context, raw []json.RawMessage) (*types.IngestResult, error) {
	timer := metrics.NewTimer()
	defer timer.ObserveDuration(metrics.IngestDuration)

	records, activity, result, err := s.resolveAll(ctx, raw)
	if err != nil {
		return nil, err
	}

	if len(records) > 0 {
		n, err := s.store.InsertLogRecords(ctx, records)
		if err != nil {
			return nil, err
		}
		result.Processed = int(n)
		s.countIngested(records)

		// Records are durable at this point; a failed activity update is
		// logged rather than turned into a retryable client error.
		if err := s.store.UpdateLastActivity(ctx, activity); err != nil {
			s.logger.Error().Err(err).Msg("Failed to update website activity")
		}
	}

	metrics.IngestBatchSize.Observe(float64(result.Received))
	return result, nil
}

// IngestBatch is the receiver variant for upstream-forwarded batches. The
// dedup row and the records commit atomically; a replayed (uuid, source)
// pair responds with the first delivery's count and writes nothing.
func (s *Service) IngestBatch(ctx context.Context, dedup types.BatchDedup, raw []json.RawMessage) (*types.IngestResult, bool, error) {
	timer := metrics.NewTimer()
	defer timer.ObserveDuration(metrics.IngestDuration)

	records, activity, result, err := s.resolveAll(ctx, raw)
	if err != nil {
		return nil, false, err
	}

	dedup.RecordCount = len(records)
	inserted, replay, err := s.store.InsertLogRecordsDeduped(ctx, dedup, records)
	if err != nil {
		return nil, false, err
	}
	result.Processed = int(inserted)

	if replay {
		metrics.DedupReplays.Inc()
		s.logger.Info().
			Str("batch_uuid", dedup.BatchUUID.String()).
			Str("source_instance", dedup.SourceInstance).
			Msg("Replayed batch, returning recorded counts")
		return result, true, nil
	}

	s.countIngested(records)
	if len(records) > 0 {
		if err := s.store.UpdateLastActivity(ctx, activity); err != nil {
			s.logger.Error().Err(err).Msg("Failed to update website activity")
		}
	}

	metrics.IngestBatchSize.Observe(float64(result.Received))
	return result, false, nil
}

func (s *Service) resolveAll(ctx context.Context, raw []json.RawMessage) ([]*types.LogRecord, map[int64]time.Time, *types.IngestResult, error) {
	result := &types.IngestResult{Received: len(raw)}
	records := make([]*types.LogRecord, 0, len(raw))
	activity := make(map[int64]time.Time, 4)
	// Request-scoped memo; unlike the lookup tables, websites can be
	// deleted, so the ids must not be cached across requests.
	websites := make(map[string]*types.Website, 4)
	now := time.Now().UTC()

	for _, item := range raw {
		record, reason, err := s.resolveRecord(ctx, item, websites, now)
		if err != nil {
			return nil, nil, nil, err
		}
		if reason != "" {
			result.Skipped++
			metrics.RecordsSkipped.WithLabelValues(reason).Inc()
			s.logger.Warn().Str("reason", reason).Msg("Skipping log record")
			continue
		}

		records = append(records, record)
		if prev, ok := activity[record.WebsiteID]; !ok || record.Timestamp.After(prev) {
			activity[record.WebsiteID] = record.Timestamp
		}
	}

	return records, activity, result, nil
}

// resolveRecord maps one wire object to an insertable row. A non-empty
// reason means the record is skipped; an error aborts the whole request.
func (s *Service) resolveRecord(ctx context.Context, raw json.RawMessage, websites map[string]*types.Website, now time.Time) (*types.LogRecord, string, error) {
	var w wireRecord
	if err := json.Unmarshal(raw, &w); err != nil {
		return nil, SkipMalformed, nil
	}

	domain, ok := domainFromSourceFile(w.SourceFile)
	if !ok {
		return nil, SkipSourceFile, nil
	}
	if w.Host == "" {
		return nil, SkipHost, nil
	}

	logType, known := classifyLogType(w.SourceFile)
	if !known {
		s.logger.Warn().
			Str("source_file", w.SourceFile).
			Msg("Unrecognized log filename, treating as error log")
	}

	website, ok := websites[domain]
	if !ok {
		var created bool
		var err error
		website, created, err = s.store.FindOrCreateWebsite(ctx, domain)
		if err != nil {
			return nil, "", err
		}
		if created {
			metrics.WebsitesProvisioned.Inc()
			s.logger.Info().Str("domain", domain).Msg("Provisioned new website")
		}
		websites[domain] = website
	}

	hostID, err := s.caches.HostID(ctx, w.Host)
	if err != nil {
		return nil, "", err
	}
	codeID, err := s.caches.CodeID(ctx, w.codeString())
	if err != nil {
		return nil, "", err
	}

	record := &types.LogRecord{
		WebsiteID: website.ID,
		LogType:   logType,
		Timestamp: parseTimestamp(w.timestampValue(), now),
		HostID:    hostID,
		CodeID:    codeID,
		RawData:   raw,
	}
	if remote := w.remote(); remote != "" {
		record.Remote = &remote
	}
	return record, "", nil
}

func (s *Service) countIngested(records []*types.LogRecord) {
	var access, errs float64
	for _, r := range records {
		if r.LogType == types.LogTypeAccess {
			access++
		} else {
			errs++
		}
	}
	if access > 0 {
		metrics.RecordsIngested.WithLabelValues(string(types.LogTypeAccess)).Add(access)
	}
	if errs > 0 {
		metrics.RecordsIngested.WithLabelValues(string(types.LogTypeError)).Add(errs)
	}
}
