/*
Package log provides structured logging for logbarn using zerolog.

The log package wraps the zerolog library to provide JSON-structured logging with
component-specific loggers, configurable log levels, and helper functions for
common logging patterns. All logs include timestamps and support filtering by
severity level for production debugging.

# Architecture

logbarn's logging system provides structured JSON logging with minimal overhead:

	┌──────────────────── LOGGING SYSTEM ──────────────────────┐
	│                                                            │
	│  ┌────────────────────────────────────────────┐          │
	│  │            Global Logger                    │          │
	│  │  - Zerolog instance                         │          │
	│  │  - Initialized via log.Init()               │          │
	│  │  - Thread-safe for concurrent use           │          │
	│  └──────────────────┬─────────────────────────┘          │
	│                     │                                      │
	│  ┌──────────────────▼─────────────────────────┐          │
	│  │           Configuration                     │          │
	│  │  - Level: debug/info/warn/error             │          │
	│  │  - Format: JSON or console (human)          │          │
	│  │  - Output: stdout, file, or custom writer   │          │
	│  └──────────────────┬─────────────────────────┘          │
	│                     │                                      │
	│  ┌──────────────────▼─────────────────────────┐          │
	│  │         Component Loggers                   │          │
	│  │  - WithComponent("ingest")                  │          │
	│  │  - WithWebsite("example.com")               │          │
	│  │  - WithBatchUUID("3f2a...")                 │          │
	│  │  - WithJob("purge-logs")                    │          │
	│  └──────────────────┬─────────────────────────┘          │
	│                     │                                      │
	│  ┌──────────────────▼─────────────────────────┐          │
	│  │            Log Output                       │          │
	│  │                                              │          │
	│  │  JSON Format:                               │          │
	│  │  {                                           │          │
	│  │    "level": "info",                         │          │
	│  │    "component": "ingest",                   │          │
	│  │    "time": "2026-05-11T10:30:00Z",         │          │
	│  │    "message": "batch persisted"             │          │
	│  │  }                                           │          │
	│  │                                              │          │
	│  │  Console Format:                            │          │
	│  │  10:30AM INF batch persisted component=ingest │        │
	│  └────────────────────────────────────────────┘           │
	└────────────────────────────────────────────────────────┘

# Core Components

Global Logger:
  - Package-level zerolog.Logger instance
  - Initialized once via log.Init()
  - Accessible from all logbarn packages
  - Thread-safe concurrent writes

Log Levels:
  - Debug: Detailed debugging information
  - Info: General informational messages
  - Warn: Warning messages (potential issues)
  - Error: Error messages (operation failed)
  - Fatal: Critical errors (process exits)

Configuration:
  - Level: Filter messages below threshold
  - JSONOutput: JSON vs human-readable console
  - Output: io.Writer for log destination (stdout, file)

Context Loggers:
  - WithComponent: Add component name to all logs
  - WithWebsite: Add website domain context
  - WithBatchUUID: Add upstream sync batch context
  - WithJob: Add housekeeping job context

# Usage

Initializing the Logger:

	import "github.com/logbarn/logbarn/pkg/log"

	// JSON output (production)
	log.Init(log.Config{
		Level:      log.InfoLevel,
		JSONOutput: true,
		Output:     os.Stdout,
	})

	// Console output (development)
	log.Init(log.Config{
		Level:      log.DebugLevel,
		JSONOutput: false,
		Output:     os.Stdout,
	})

Simple Logging:

	log.Info("Server listening")
	log.Debug("Warming lookup caches")
	log.Warn("Upstream unreachable, will retry")
	log.Error("Failed to persist batch")
	log.Fatal("Cannot start without database") // Exits process

Structured Logging:

	log.Logger.Info().
		Str("domain", "example.com").
		Int("records", 128).
		Msg("Batch persisted")

	log.Logger.Error().
		Err(err).
		Str("batch_uuid", uuid).
		Msg("Upstream sync failed")

Component Loggers:

	// Create component-specific logger
	ingestLog := log.WithComponent("ingest")
	ingestLog.Info().Msg("Starting ingestion service")
	ingestLog.Warn().Str("source_file", sf).Msg("Skipping malformed record")

	// Multiple context fields
	syncLog := log.WithComponent("upstream").
		With().Str("batch_uuid", uuid).Logger()
	syncLog.Info().Int("records", n).Msg("Batch archived")

# Integration Points

This package integrates with:

  - pkg/ingest: Logs record parsing, skips, and bulk inserts
  - pkg/upstream: Logs sync cycles, batch outcomes, adaptive sizing
  - pkg/housekeeping: Logs retention job runs and purge counts
  - pkg/api: Logs HTTP requests and errors
  - pkg/store: Logs slow or failed statements (summaries only)
  - pkg/database: Logs connection attempts and migrations

# Log Output Examples

JSON Format (Production):

	{"level":"info","component":"ingest","time":"2026-05-11T10:30:00Z","message":"Batch persisted"}
	{"level":"info","component":"upstream","batch_uuid":"3f2a...","time":"2026-05-11T10:30:01Z","message":"Batch archived"}
	{"level":"error","component":"housekeeping","job":"purge-logs","error":"driver: bad connection","time":"2026-05-11T10:30:02Z","message":"Job failed"}

Console Format (Development):

	10:30:00 INF Batch persisted component=ingest
	10:30:01 INF Batch archived component=upstream batch_uuid=3f2a...
	10:30:02 ERR Job failed component=housekeeping job=purge-logs error="driver: bad connection"

# Design Patterns

Global Logger Pattern:
  - Single package-level Logger instance
  - Initialized once at application start
  - Accessible from all packages without passing
  - Simplifies logging in deeply nested calls

Context Logger Pattern:
  - Create child loggers with context fields
  - Pass context loggers to functions
  - Automatically includes context in all logs
  - Avoids repetitive field specification

Error Logging Pattern:
  - Always use .Err(err) for error objects
  - Enables error tracking and alerting
  - Consistent error format across codebase

# Security

Log Content:
  - Never log API keys or Authorization headers
  - Statement summaries only for SQL errors, never bound parameters
  - Client IPs are logged for rate-limit decisions only
  - Use typed fields (.Str, .Int) for request-derived data

# Best Practices

Do:
  - Use Info level for production
  - Use structured fields for queryable data
  - Create component-specific loggers
  - Log errors with .Err() for consistent formatting
  - Include context (domain, batch_uuid, job)

Don't:
  - Log sensitive data (API keys, raw Authorization headers)
  - Use Debug level in production
  - Log per-record in the ingest hot path (aggregate counts instead)
  - Concatenate strings (use .Str, .Int)

# See Also

  - Zerolog documentation: https://github.com/rs/zerolog
  - Structured logging: https://www.thoughtworks.com/radar/techniques/structured-logging
  - 12-Factor App Logs: https://12factor.net/logs
*/
package log
