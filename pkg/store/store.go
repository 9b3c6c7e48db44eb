package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/logbarn/logbarn/pkg/types"
)

// ErrNotFound is returned when a lookup matches no row
var ErrNotFound = errors.New("not found")

// Store defines the interface for aggregation state storage
// Implemented by the MySQL-backed store
type Store interface {
	// Websites
	FindOrCreateWebsite(ctx context.Context, domain string) (*types.Website, bool, error)
	GetWebsiteByDomain(ctx context.Context, domain string) (*types.Website, error)
	ListWebsites(ctx context.Context, limit, offset int) ([]*types.Website, error)
	UpdateWebsite(ctx context.Context, domain string, upd types.WebsiteUpdate) (*types.Website, error)
	DeleteWebsite(ctx context.Context, domain string) error
	UpdateLastActivity(ctx context.Context, activity map[int64]time.Time) error
	PurgeInactiveWebsites(ctx context.Context, olderThan time.Time) (int64, error)
	CountWebsites(ctx context.Context) (int64, error)

	// Hosts
	EnsureHost(ctx context.Context, hostname string) (int64, error)
	ListHosts(ctx context.Context) ([]*types.Host, error)

	// HTTP codes
	EnsureHTTPCode(ctx context.Context, code string) (int64, error)
	ListHTTPCodes(ctx context.Context) ([]*types.HTTPCode, error)

	// Log records
	InsertLogRecords(ctx context.Context, records []*types.LogRecord) (int64, error)
	InsertLogRecordsDeduped(ctx context.Context, dedup types.BatchDedup, records []*types.LogRecord) (inserted int64, replay bool, err error)
	UnarchivedRecords(ctx context.Context, limit int) ([]*types.LogRecord, error)
	MarkArchived(ctx context.Context, ids []int64, batchUUID uuid.UUID, at time.Time) (int64, error)
	PurgeRecordsBefore(ctx context.Context, cutoff time.Time, requireArchived bool) (int64, error)
	CountRecords(ctx context.Context) (int64, error)
	CountUnarchivedRecords(ctx context.Context) (int64, error)

	// Sync batches
	CreateSyncBatch(ctx context.Context, batch *types.SyncBatch) error
	CompleteSyncBatch(ctx context.Context, batchUUID uuid.UUID, recordCount int) error
	FailSyncBatch(ctx context.Context, batchUUID uuid.UUID, message string) error
	ReconcileStaleBatches(ctx context.Context, olderThan time.Time) (int64, error)

	// API keys
	CreateAPIKey(ctx context.Context, keyHash, description string) (*types.APIKey, error)
	ListAPIKeys(ctx context.Context) ([]*types.APIKey, error)
	ActiveAPIKeys(ctx context.Context) ([]*types.APIKey, error)
	TouchAPIKey(ctx context.Context, id int64) error
	DeactivateAPIKey(ctx context.Context, id int64) error

	// Utility
	Ping(ctx context.Context) error
	Close() error
}
