package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/logbarn/logbarn/pkg/types"
)

// maxInsertRows bounds a single multi-row INSERT so a full-size ingest
// request never exceeds the server packet limit
const maxInsertRows = 1000

const (
	websiteColumns   = "id, domain, is_ssl, is_dev, owner_email, admin_email, last_activity_at, created_at, updated_at"
	logRecordColumns = "id, website_id, log_type, timestamp, host_id, code_id, remote, raw_data, created_at, archived_at, upstream_batch_uuid"
	apiKeyColumns    = "id, key_hash, description, is_active, last_used_at, created_at"
)

// MySQLStore implements Store on a MySQL connection pool
type MySQLStore struct {
	db *sqlx.DB
}

// NewMySQLStore wraps an established pool
func NewMySQLStore(db *sqlx.DB) *MySQLStore {
	return &MySQLStore{db: db}
}

// Close closes the underlying pool
func (s *MySQLStore) Close() error {
	return s.db.Close()
}

// Ping reports pool health
func (s *MySQLStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Website operations

// FindOrCreateWebsite provisions the domain if unseen. INSERT IGNORE makes
// concurrent first-sights race-safe; the re-SELECT returns whichever row
// won. The bool reports whether this call inserted the row.
func (s *MySQLStore) FindOrCreateWebsite(ctx context.Context, domain string) (*types.Website, bool, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT IGNORE INTO websites (domain, is_ssl, is_dev) VALUES (?, 1, 0)`, domain)
	if err != nil {
		return nil, false, fmt.Errorf("failed to provision website: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return nil, false, fmt.Errorf("failed to provision website: %w", err)
	}

	website, err := s.GetWebsiteByDomain(ctx, domain)
	if err != nil {
		return nil, false, err
	}
	return website, rows == 1, nil
}

func (s *MySQLStore) GetWebsiteByDomain(ctx context.Context, domain string) (*types.Website, error) {
	var w types.Website
	err := s.db.GetContext(ctx, &w,
		`SELECT `+websiteColumns+` FROM websites WHERE domain = ?`, domain)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get website: %w", err)
	}
	return &w, nil
}

func (s *MySQLStore) ListWebsites(ctx context.Context, limit, offset int) ([]*types.Website, error) {
	websites := []*types.Website{}
	err := s.db.SelectContext(ctx, &websites,
		`SELECT `+websiteColumns+` FROM websites ORDER BY domain LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list websites: %w", err)
	}
	return websites, nil
}

func (s *MySQLStore) UpdateWebsite(ctx context.Context, domain string, upd types.WebsiteUpdate) (*types.Website, error) {
	sets := make([]string, 0, 4)
	args := make([]interface{}, 0, 5)
	if upd.IsSSL != nil {
		sets = append(sets, "is_ssl = ?")
		args = append(args, *upd.IsSSL)
	}
	if upd.IsDev != nil {
		sets = append(sets, "is_dev = ?")
		args = append(args, *upd.IsDev)
	}
	if upd.OwnerEmail != nil {
		sets = append(sets, "owner_email = ?")
		args = append(args, *upd.OwnerEmail)
	}
	if upd.AdminEmail != nil {
		sets = append(sets, "admin_email = ?")
		args = append(args, *upd.AdminEmail)
	}
	if len(sets) == 0 {
		return s.GetWebsiteByDomain(ctx, domain)
	}

	args = append(args, domain)
	_, err := s.db.ExecContext(ctx,
		`UPDATE websites SET `+strings.Join(sets, ", ")+` WHERE domain = ?`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to update website: %w", err)
	}
	// RowsAffected is 0 both for unknown domains and no-op updates, so
	// existence is settled by the re-read.
	return s.GetWebsiteByDomain(ctx, domain)
}

func (s *MySQLStore) DeleteWebsite(ctx context.Context, domain string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM websites WHERE domain = ?`, domain)
	if err != nil {
		return fmt.Errorf("failed to delete website: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete website: %w", err)
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateLastActivity advances last_activity_at for every touched website in
// one statement using a CASE over ids.
func (s *MySQLStore) UpdateLastActivity(ctx context.Context, activity map[int64]time.Time) error {
	if len(activity) == 0 {
		return nil
	}

	var sb strings.Builder
	sb.WriteString("UPDATE websites SET last_activity_at = CASE id")
	args := make([]interface{}, 0, len(activity)*3)
	ids := make([]interface{}, 0, len(activity))
	for id, ts := range activity {
		sb.WriteString(" WHEN ? THEN ?")
		args = append(args, id, ts)
		ids = append(ids, id)
	}
	sb.WriteString(" ELSE last_activity_at END WHERE id IN (")
	sb.WriteString(placeholders(len(ids)))
	sb.WriteString(")")
	args = append(args, ids...)

	if _, err := s.db.ExecContext(ctx, sb.String(), args...); err != nil {
		return fmt.Errorf("failed to update website activity: %w", err)
	}
	return nil
}

func (s *MySQLStore) PurgeInactiveWebsites(ctx context.Context, olderThan time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM websites WHERE last_activity_at IS NOT NULL AND last_activity_at < ?`, olderThan)
	if err != nil {
		return 0, fmt.Errorf("failed to purge inactive websites: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to purge inactive websites: %w", err)
	}
	return rows, nil
}

func (s *MySQLStore) CountWebsites(ctx context.Context) (int64, error) {
	return s.count(ctx, `SELECT COUNT(*) FROM websites`)
}

// Host operations

// EnsureHost returns the id for a hostname, inserting it if unseen
func (s *MySQLStore) EnsureHost(ctx context.Context, hostname string) (int64, error) {
	if _, err := s.db.ExecContext(ctx,
		`INSERT IGNORE INTO hosts (hostname) VALUES (?)`, hostname); err != nil {
		return 0, fmt.Errorf("failed to insert host: %w", err)
	}
	var id int64
	if err := s.db.GetContext(ctx, &id,
		`SELECT id FROM hosts WHERE hostname = ?`, hostname); err != nil {
		return 0, fmt.Errorf("failed to resolve host: %w", err)
	}
	return id, nil
}

func (s *MySQLStore) ListHosts(ctx context.Context) ([]*types.Host, error) {
	hosts := []*types.Host{}
	err := s.db.SelectContext(ctx, &hosts, `SELECT id, hostname FROM hosts ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list hosts: %w", err)
	}
	return hosts, nil
}

// HTTP code operations

// EnsureHTTPCode returns the id for a code string, inserting it if unseen.
// Seeded registry codes carry their numeric value as id; codes added here
// fall back to auto-increment.
func (s *MySQLStore) EnsureHTTPCode(ctx context.Context, code string) (int64, error) {
	if _, err := s.db.ExecContext(ctx,
		`INSERT IGNORE INTO http_codes (code, description) VALUES (?, '')`, code); err != nil {
		return 0, fmt.Errorf("failed to insert http code: %w", err)
	}
	var id int64
	if err := s.db.GetContext(ctx, &id,
		`SELECT id FROM http_codes WHERE code = ?`, code); err != nil {
		return 0, fmt.Errorf("failed to resolve http code: %w", err)
	}
	return id, nil
}

func (s *MySQLStore) ListHTTPCodes(ctx context.Context) ([]*types.HTTPCode, error) {
	codes := []*types.HTTPCode{}
	err := s.db.SelectContext(ctx, &codes,
		`SELECT id, code, description FROM http_codes ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list http codes: %w", err)
	}
	return codes, nil
}

// Log record operations

// InsertLogRecords bulk inserts records in a single transaction, chunked at
// maxInsertRows per statement. A failure on any chunk applies nothing.
func (s *MySQLStore) InsertLogRecords(ctx context.Context, records []*types.LogRecord) (int64, error) {
	if len(records) == 0 {
		return 0, nil
	}
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin insert transaction: %w", err)
	}
	defer tx.Rollback()

	inserted, err := insertRecords(ctx, tx, records)
	if err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit insert transaction: %w", err)
	}
	return inserted, nil
}

// InsertLogRecordsDeduped inserts a forwarded batch and its deduplication
// row in one transaction. A second delivery of the same (uuid, source) pair
// leaves the dedup insert at zero rows; nothing is written and the count
// recorded by the first delivery is returned instead.
func (s *MySQLStore) InsertLogRecordsDeduped(ctx context.Context, dedup types.BatchDedup, records []*types.LogRecord) (int64, bool, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, false, fmt.Errorf("failed to begin batch transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`INSERT IGNORE INTO batch_deduplication (batch_uuid, source_instance, record_count) VALUES (?, ?, ?)`,
		dedup.BatchUUID[:], dedup.SourceInstance, dedup.RecordCount)
	if err != nil {
		return 0, false, fmt.Errorf("failed to record batch dedup: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return 0, false, fmt.Errorf("failed to record batch dedup: %w", err)
	}
	if rows == 0 {
		var prev int64
		if err := tx.GetContext(ctx, &prev,
			`SELECT record_count FROM batch_deduplication WHERE batch_uuid = ? AND source_instance = ?`,
			dedup.BatchUUID[:], dedup.SourceInstance); err != nil {
			return 0, false, fmt.Errorf("failed to read replayed batch count: %w", err)
		}
		return prev, true, nil
	}

	inserted, err := insertRecords(ctx, tx, records)
	if err != nil {
		return 0, false, err
	}
	if err := tx.Commit(); err != nil {
		return 0, false, fmt.Errorf("failed to commit batch transaction: %w", err)
	}
	return inserted, false, nil
}

func insertRecords(ctx context.Context, tx *sqlx.Tx, records []*types.LogRecord) (int64, error) {
	if len(records) == 0 {
		return 0, nil
	}

	var total int64
	for start := 0; start < len(records); start += maxInsertRows {
		end := start + maxInsertRows
		if end > len(records) {
			end = len(records)
		}
		n, err := insertChunk(ctx, tx, records[start:end])
		if err != nil {
			return total, err
		}
		total += n
	}
	return total, nil
}

func insertChunk(ctx context.Context, tx *sqlx.Tx, records []*types.LogRecord) (int64, error) {
	var sb strings.Builder
	sb.WriteString("INSERT INTO log_records (website_id, log_type, timestamp, host_id, code_id, remote, raw_data) VALUES ")
	args := make([]interface{}, 0, len(records)*7)
	for i, r := range records {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString("(?, ?, ?, ?, ?, ?, ?)")
		raw := r.RawData
		if len(raw) == 0 {
			// The JSON column rejects empty input
			raw = []byte("{}")
		}
		args = append(args, r.WebsiteID, r.LogType, r.Timestamp, r.HostID, r.CodeID, r.Remote, []byte(raw))
	}

	res, err := tx.ExecContext(ctx, sb.String(), args...)
	if err != nil {
		return 0, fmt.Errorf("failed to insert log records: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to insert log records: %w", err)
	}
	return rows, nil
}

func (s *MySQLStore) UnarchivedRecords(ctx context.Context, limit int) ([]*types.LogRecord, error) {
	records := []*types.LogRecord{}
	err := s.db.SelectContext(ctx, &records,
		`SELECT `+logRecordColumns+` FROM log_records WHERE archived_at IS NULL ORDER BY id ASC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to select unarchived records: %w", err)
	}
	return records, nil
}

// MarkArchived stamps archived_at and the batch uuid on the given records.
// The archived_at IS NULL guard keeps the stamp single-shot even if a batch
// id is replayed against already archived rows.
func (s *MySQLStore) MarkArchived(ctx context.Context, ids []int64, batchUUID uuid.UUID, at time.Time) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	query, args, err := sqlx.In(
		`UPDATE log_records SET archived_at = ?, upstream_batch_uuid = ? WHERE id IN (?) AND archived_at IS NULL`,
		at, batchUUID[:], ids)
	if err != nil {
		return 0, fmt.Errorf("failed to build archive statement: %w", err)
	}
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to mark records archived: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to mark records archived: %w", err)
	}
	return rows, nil
}

func (s *MySQLStore) PurgeRecordsBefore(ctx context.Context, cutoff time.Time, requireArchived bool) (int64, error) {
	query := `DELETE FROM log_records WHERE created_at < ?`
	if requireArchived {
		query += ` AND archived_at IS NOT NULL`
	}
	res, err := s.db.ExecContext(ctx, query, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to purge log records: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to purge log records: %w", err)
	}
	return rows, nil
}

func (s *MySQLStore) CountRecords(ctx context.Context) (int64, error) {
	return s.count(ctx, `SELECT COUNT(*) FROM log_records`)
}

func (s *MySQLStore) CountUnarchivedRecords(ctx context.Context) (int64, error) {
	return s.count(ctx, `SELECT COUNT(*) FROM log_records WHERE archived_at IS NULL`)
}

// Sync batch operations

func (s *MySQLStore) CreateSyncBatch(ctx context.Context, batch *types.SyncBatch) error {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO upstream_sync_batches (batch_uuid, record_count, status) VALUES (?, ?, ?)`,
		batch.BatchUUID[:], batch.RecordCount, batch.Status)
	if err != nil {
		return fmt.Errorf("failed to create sync batch: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to create sync batch: %w", err)
	}
	batch.ID = id
	return nil
}

func (s *MySQLStore) CompleteSyncBatch(ctx context.Context, batchUUID uuid.UUID, recordCount int) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE upstream_sync_batches SET status = ?, completed_at = NOW(), record_count = ? WHERE batch_uuid = ?`,
		types.BatchStatusCompleted, recordCount, batchUUID[:])
	if err != nil {
		return fmt.Errorf("failed to complete sync batch: %w", err)
	}
	return nil
}

func (s *MySQLStore) FailSyncBatch(ctx context.Context, batchUUID uuid.UUID, message string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE upstream_sync_batches SET status = ?, completed_at = NOW(), error_message = ?, retry_count = retry_count + 1 WHERE batch_uuid = ?`,
		types.BatchStatusFailed, message, batchUUID[:])
	if err != nil {
		return fmt.Errorf("failed to fail sync batch: %w", err)
	}
	return nil
}

// ReconcileStaleBatches fails in_progress batches older than the horizon.
// Runs at startup; a batch that old belongs to a crashed process.
func (s *MySQLStore) ReconcileStaleBatches(ctx context.Context, olderThan time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE upstream_sync_batches SET status = ?, completed_at = NOW(), error_message = 'abandoned by crashed process' WHERE status = ? AND started_at < ?`,
		types.BatchStatusFailed, types.BatchStatusInProgress, olderThan)
	if err != nil {
		return 0, fmt.Errorf("failed to reconcile stale batches: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to reconcile stale batches: %w", err)
	}
	return rows, nil
}

// API key operations

func (s *MySQLStore) CreateAPIKey(ctx context.Context, keyHash, description string) (*types.APIKey, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO api_keys (key_hash, description) VALUES (?, ?)`, keyHash, description)
	if err != nil {
		return nil, fmt.Errorf("failed to create api key: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to create api key: %w", err)
	}

	var key types.APIKey
	if err := s.db.GetContext(ctx, &key,
		`SELECT `+apiKeyColumns+` FROM api_keys WHERE id = ?`, id); err != nil {
		return nil, fmt.Errorf("failed to read back api key: %w", err)
	}
	return &key, nil
}

func (s *MySQLStore) ListAPIKeys(ctx context.Context) ([]*types.APIKey, error) {
	keys := []*types.APIKey{}
	err := s.db.SelectContext(ctx, &keys,
		`SELECT `+apiKeyColumns+` FROM api_keys ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list api keys: %w", err)
	}
	return keys, nil
}

func (s *MySQLStore) ActiveAPIKeys(ctx context.Context) ([]*types.APIKey, error) {
	keys := []*types.APIKey{}
	err := s.db.SelectContext(ctx, &keys,
		`SELECT `+apiKeyColumns+` FROM api_keys WHERE is_active = 1 ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list active api keys: %w", err)
	}
	return keys, nil
}

func (s *MySQLStore) TouchAPIKey(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE api_keys SET last_used_at = NOW() WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to touch api key: %w", err)
	}
	return nil
}

func (s *MySQLStore) DeactivateAPIKey(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE api_keys SET is_active = 0 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to deactivate api key: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to deactivate api key: %w", err)
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

// Helpers

func (s *MySQLStore) count(ctx context.Context, query string) (int64, error) {
	var n int64
	if err := s.db.GetContext(ctx, &n, query); err != nil {
		return 0, fmt.Errorf("failed to count rows: %w", err)
	}
	return n, nil
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}
