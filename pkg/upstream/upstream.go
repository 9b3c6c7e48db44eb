package upstream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/logbarn/logbarn/pkg/cluster"
	"github.com/logbarn/logbarn/pkg/config"
	"github.com/logbarn/logbarn/pkg/log"
	"github.com/logbarn/logbarn/pkg/metrics"
	"github.com/logbarn/logbarn/pkg/types"
)

const (
	// maxUUIDAttempts bounds regeneration when a batch uuid collides
	maxUUIDAttempts = 5

	// minReconcileHorizon floors the stale-batch recovery window
	minReconcileHorizon = 5 * time.Minute

	// cycleGrace is the budget for the DB statements around the POST
	cycleGrace = 15 * time.Second

	// failTimeout bounds the failure bookkeeping write
	failTimeout = 10 * time.Second

	// mysqlDuplicateEntry is the server error number for unique key violations
	mysqlDuplicateEntry = 1062
)

// Store is the storage surface the sync worker needs
type Store interface {
	UnarchivedRecords(ctx context.Context, limit int) ([]*types.LogRecord, error)
	MarkArchived(ctx context.Context, ids []int64, batchUUID uuid.UUID, at time.Time) (int64, error)
	CreateSyncBatch(ctx context.Context, batch *types.SyncBatch) error
	CompleteSyncBatch(ctx context.Context, batchUUID uuid.UUID, recordCount int) error
	FailSyncBatch(ctx context.Context, batchUUID uuid.UUID, message string) error
	ReconcileStaleBatches(ctx context.Context, olderThan time.Time) (int64, error)
}

// Sender forwards one batch to the parent instance
type Sender interface {
	SendBatch(ctx context.Context, batchUUID uuid.UUID, sourceInstance string, records []json.RawMessage) (*types.IngestResult, error)
}

// Syncer propagates locally persisted records to the parent aggregator.
// Rows are archived only after a confirmed 2xx, so every record reaches
// the parent at least once; the receiver deduplicates on the batch uuid.
type Syncer struct {
	cfg      config.Upstream
	store    Store
	sender   Sender
	instance cluster.Instance
	size     int
	logger   zerolog.Logger
	stopCh   chan struct{}
	doneCh   chan struct{}
}

// NewSyncer creates the sync worker. Call Start to begin forwarding.
func NewSyncer(cfg config.Upstream, st Store, sender Sender, instance cluster.Instance) *Syncer {
	return &Syncer{
		cfg:      cfg,
		store:    st,
		sender:   sender,
		instance: instance,
		size:     cfg.BatchSize,
		logger:   log.WithComponent("upstream"),
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start begins the sync loop
func (s *Syncer) Start() {
	metrics.SyncBatchSize.Set(float64(s.size))
	go s.run()
}

// Stop signals shutdown and waits for any in-flight cycle to finish.
// The POST deadline bounds the wait; an aborted send marks its batch
// failed before the worker exits.
func (s *Syncer) Stop() {
	close(s.stopCh)
	<-s.doneCh
}

func (s *Syncer) run() {
	defer close(s.doneCh)

	s.reconcile()

	ticker := time.NewTicker(s.cfg.BatchInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.cycle()
		case <-s.stopCh:
			return
		}
	}
}

// reconcile fails in_progress batches abandoned by a crashed process so
// their rows re-queue under a fresh uuid
func (s *Syncer) reconcile() {
	if !s.cfg.Enabled || !s.instance.IsWorkerZero() {
		return
	}

	horizon := 2 * s.cfg.BatchInterval
	if horizon < minReconcileHorizon {
		horizon = minReconcileHorizon
	}

	ctx, cancel := context.WithTimeout(context.Background(), failTimeout)
	defer cancel()

	n, err := s.store.ReconcileStaleBatches(ctx, time.Now().UTC().Add(-horizon))
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to reconcile stale sync batches")
		return
	}
	if n > 0 {
		s.logger.Warn().Int64("batches", n).Msg("Requeued records from abandoned sync batches")
	}
}

// cycle runs one forwarding attempt
func (s *Syncer) cycle() {
	// Membership can change between cycles
	if !s.cfg.Enabled || !s.instance.IsWorkerZero() {
		return
	}

	timer := metrics.NewTimer()
	defer timer.ObserveDuration(metrics.SyncDuration)

	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.Timeout+cycleGrace)
	defer cancel()

	records, err := s.store.UnarchivedRecords(ctx, s.size)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to query unarchived records")
		metrics.SyncCycles.WithLabelValues("error").Inc()
		return
	}
	if len(records) == 0 {
		metrics.SyncCycles.WithLabelValues("idle").Inc()
		return
	}

	batch, err := s.createBatch(ctx, len(records))
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to create sync batch record")
		metrics.SyncCycles.WithLabelValues("error").Inc()
		return
	}

	ids := make([]int64, 0, len(records))
	payload := make([]json.RawMessage, 0, len(records))
	for _, record := range records {
		ids = append(ids, record.ID)
		payload = append(payload, record.RawData)
	}

	result, err := s.sender.SendBatch(ctx, batch.BatchUUID, s.cfg.SourceInstance, payload)
	if err != nil {
		s.fail(batch.BatchUUID, err)
		return
	}

	archived, err := s.store.MarkArchived(ctx, ids, batch.BatchUUID, time.Now().UTC())
	if err != nil {
		// The POST landed but the rows stay unarchived; the next cycle
		// re-sends them under a fresh uuid and the receiver stores them
		// as new records.
		s.fail(batch.BatchUUID, fmt.Errorf("failed to archive records: %w", err))
		return
	}
	if err := s.store.CompleteSyncBatch(ctx, batch.BatchUUID, len(records)); err != nil {
		s.logger.Error().Err(err).Msg("Failed to complete sync batch record")
	}

	metrics.SyncRecordsArchived.Add(float64(archived))
	metrics.SyncCycles.WithLabelValues("success").Inc()
	s.grow()

	s.logger.Info().
		Str("batch_uuid", batch.BatchUUID.String()).
		Int("records", len(records)).
		Int64("archived", archived).
		Int("processed", result.Processed).
		Int("next_batch_size", s.size).
		Msg("Forwarded batch upstream")
}

// createBatch persists the in_progress batch row, regenerating the uuid
// on a unique key collision
func (s *Syncer) createBatch(ctx context.Context, count int) (*types.SyncBatch, error) {
	for attempt := 0; attempt < maxUUIDAttempts; attempt++ {
		batch := &types.SyncBatch{
			BatchUUID:   uuid.New(),
			StartedAt:   time.Now().UTC(),
			RecordCount: count,
			Status:      types.BatchStatusInProgress,
		}
		err := s.store.CreateSyncBatch(ctx, batch)
		if err == nil {
			return batch, nil
		}
		if !isDuplicateKey(err) {
			return nil, err
		}
		s.logger.Warn().
			Str("batch_uuid", batch.BatchUUID.String()).
			Msg("Batch uuid collision, regenerating")
	}
	return nil, fmt.Errorf("failed to allocate a unique batch uuid after %d attempts", maxUUIDAttempts)
}

func (s *Syncer) fail(batchUUID uuid.UUID, cause error) {
	s.logger.Warn().
		Err(cause).
		Str("batch_uuid", batchUUID.String()).
		Msg("Upstream sync failed")

	// The cycle context may already be expired when the POST timed out
	ctx, cancel := context.WithTimeout(context.Background(), failTimeout)
	defer cancel()

	if err := s.store.FailSyncBatch(ctx, batchUUID, cause.Error()); err != nil {
		s.logger.Error().Err(err).Msg("Failed to mark sync batch failed")
	}
	metrics.SyncCycles.WithLabelValues("failure").Inc()
	s.shrink()
}

// grow raises the batch size toward the configured target after a
// success; sizes at or above target stay put
func (s *Syncer) grow() {
	if s.size >= s.cfg.BatchSize {
		return
	}
	s.size += s.cfg.BatchSizeRecovery
	if s.size > s.cfg.BatchSize {
		s.size = s.cfg.BatchSize
	}
	metrics.SyncBatchSize.Set(float64(s.size))
}

// shrink halves the batch size after a failure, clamped at the minimum
func (s *Syncer) shrink() {
	s.size /= 2
	if s.size < s.cfg.BatchSizeMin {
		s.size = s.cfg.BatchSizeMin
	}
	metrics.SyncBatchSize.Set(float64(s.size))
}

func isDuplicateKey(err error) bool {
	var mysqlErr *mysql.MySQLError
	return errors.As(err, &mysqlErr) && mysqlErr.Number == mysqlDuplicateEntry
}
