package types

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// LogType classifies a record by the log file it came from
type LogType string

const (
	LogTypeAccess LogType = "access"
	LogTypeError  LogType = "error"
)

// CodeIDNotApplicable is the reserved http_codes row for records without a
// status code (error logs). The row is seeded at schema init and never removed.
const CodeIDNotApplicable int64 = 0

// CodeNotApplicable is the code string bound to CodeIDNotApplicable
const CodeNotApplicable = "N/A"

// APIKeyLength is the exact length of a plaintext API key
const APIKeyLength = 40

// Website represents a site whose logs are aggregated.
// Created automatically on the first record for a new domain.
type Website struct {
	ID             int64      `json:"id" db:"id"`
	Domain         string     `json:"domain" db:"domain"`
	IsSSL          bool       `json:"is_ssl" db:"is_ssl"`
	IsDev          bool       `json:"is_dev" db:"is_dev"`
	OwnerEmail     *string    `json:"owner_email,omitempty" db:"owner_email"`
	AdminEmail     *string    `json:"admin_email,omitempty" db:"admin_email"`
	LastActivityAt *time.Time `json:"last_activity_at,omitempty" db:"last_activity_at"`
	CreatedAt      time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at" db:"updated_at"`
}

// WebsiteUpdate carries the mutable website attributes for admin updates.
// Nil fields are left unchanged.
type WebsiteUpdate struct {
	IsSSL      *bool   `json:"is_ssl,omitempty"`
	IsDev      *bool   `json:"is_dev,omitempty"`
	OwnerEmail *string `json:"owner_email,omitempty"`
	AdminEmail *string `json:"admin_email,omitempty"`
}

// Host is a lookup-table row deduplicating emitter hostnames
type Host struct {
	ID       int64  `json:"id" db:"id"`
	Hostname string `json:"hostname" db:"hostname"`
}

// HTTPCode is a lookup-table row deduplicating HTTP status code strings.
// id=0 is the "N/A" sentinel; seeded rows use the numeric code as id.
type HTTPCode struct {
	ID          int64  `json:"id" db:"id"`
	Code        string `json:"code" db:"code"`
	Description string `json:"description" db:"description"`
}

// LogRecord is a single persisted access or error log event
type LogRecord struct {
	ID                int64           `json:"id" db:"id"`
	WebsiteID         int64           `json:"website_id" db:"website_id"`
	LogType           LogType         `json:"log_type" db:"log_type"`
	Timestamp         time.Time       `json:"timestamp" db:"timestamp"`
	HostID            int64           `json:"host_id" db:"host_id"`
	CodeID            int64           `json:"code_id" db:"code_id"`
	Remote            *string         `json:"remote,omitempty" db:"remote"`
	RawData           json.RawMessage `json:"raw_data" db:"raw_data"`
	CreatedAt         time.Time       `json:"created_at" db:"created_at"`
	ArchivedAt        *time.Time      `json:"archived_at,omitempty" db:"archived_at"`
	UpstreamBatchUUID []byte          `json:"-" db:"upstream_batch_uuid"`
}

// Archived reports whether the record has been propagated upstream
func (r *LogRecord) Archived() bool {
	return r.ArchivedAt != nil
}

// BatchID returns the upstream batch uuid, if the record is archived
func (r *LogRecord) BatchID() (uuid.UUID, bool) {
	if len(r.UpstreamBatchUUID) != 16 {
		return uuid.Nil, false
	}
	id, err := uuid.FromBytes(r.UpstreamBatchUUID)
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

// IngestRecord is a parsed, not-yet-resolved record from an ingest request.
// Domain, LogType and Hostname come from the strict fields; RawData preserves
// the original object verbatim.
type IngestRecord struct {
	Domain    string
	LogType   LogType
	Hostname  string
	Code      string
	Remote    string
	Timestamp time.Time
	RawData   json.RawMessage
}

// IngestResult summarizes one ingest request
type IngestResult struct {
	Received  int `json:"received"`
	Processed int `json:"processed"`
	Skipped   int `json:"-"`
}

// BatchStatus represents the lifecycle state of an upstream sync batch
type BatchStatus string

const (
	BatchStatusPending    BatchStatus = "pending"
	BatchStatusInProgress BatchStatus = "in_progress"
	BatchStatusCompleted  BatchStatus = "completed"
	BatchStatusFailed     BatchStatus = "failed"
)

// SyncBatch is the audit row for one upstream POST attempt
type SyncBatch struct {
	ID           int64       `json:"id" db:"id"`
	BatchUUID    uuid.UUID   `json:"batch_uuid" db:"batch_uuid"`
	StartedAt    time.Time   `json:"started_at" db:"started_at"`
	CompletedAt  *time.Time  `json:"completed_at,omitempty" db:"completed_at"`
	RecordCount  int         `json:"record_count" db:"record_count"`
	Status       BatchStatus `json:"status" db:"status"`
	ErrorMessage *string     `json:"error_message,omitempty" db:"error_message"`
	RetryCount   int         `json:"retry_count" db:"retry_count"`
}

// BatchDedup is the receiver-side uniqueness row for an upstream-forwarded
// batch. The (BatchUUID, SourceInstance) pair is unique.
type BatchDedup struct {
	BatchUUID      uuid.UUID `json:"batch_uuid" db:"batch_uuid"`
	SourceInstance string    `json:"source_instance" db:"source_instance"`
	ReceivedAt     time.Time `json:"received_at" db:"received_at"`
	RecordCount    int       `json:"record_count" db:"record_count"`
}

// APIKey holds the stored hash of an agent credential.
// The plaintext key is never persisted or logged.
type APIKey struct {
	ID          int64      `json:"id" db:"id"`
	KeyHash     string     `json:"-" db:"key_hash"`
	Description string     `json:"description" db:"description"`
	IsActive    bool       `json:"is_active" db:"is_active"`
	LastUsedAt  *time.Time `json:"last_used_at,omitempty" db:"last_used_at"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
}

// Principal identifies the API key a request authenticated with
type Principal struct {
	APIKeyID    int64  `json:"api_key_id"`
	Description string `json:"description"`
}
