package database

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/logbarn/logbarn/pkg/config"
	"github.com/logbarn/logbarn/pkg/log"
)

// connectMaxElapsed bounds the startup dial retry window
const connectMaxElapsed = 2 * time.Minute

// Collation gives case-insensitive UNIQUE semantics for domains and hostnames
const Collation = "utf8mb4_unicode_ci"

// Connect opens the MySQL pool and waits for the server to become reachable,
// retrying with exponential backoff until ctx is done or the retry window
// closes. The returned pool has its limits applied and its stats exported.
func Connect(ctx context.Context, cfg config.DB) (*sqlx.DB, error) {
	db, err := sqlx.Open("mysql", dsn(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to open database handle: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	logger := log.WithComponent("database")

	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = connectMaxElapsed
	ping := func() error {
		return db.PingContext(ctx)
	}
	notify := func(err error, wait time.Duration) {
		logger.Warn().
			Err(err).
			Dur("retry_in", wait).
			Msg("Database not reachable yet, retrying")
	}
	if err := backoff.RetryNotify(ping, backoff.WithContext(bo, ctx), notify); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Duplicate registration only happens when Connect runs twice in one
	// process (tests), so a failure here is not fatal.
	if err := prometheus.Register(collectors.NewDBStatsCollector(db.DB, cfg.Name)); err != nil {
		logger.Debug().Err(err).Msg("Pool stats collector not registered")
	}

	logger.Info().
		Str("host", cfg.Host).
		Int("port", cfg.Port).
		Str("database", cfg.Name).
		Int("max_open_conns", cfg.MaxOpenConns).
		Msg("Database connection established")

	return db, nil
}

// dsn renders the driver DSN. ParseTime makes TIMESTAMP columns scan into
// time.Time, and Loc pins them to UTC so retention math never shifts with
// the server timezone.
func dsn(cfg config.DB) string {
	mc := mysql.NewConfig()
	mc.User = cfg.User
	mc.Passwd = cfg.Password
	mc.Net = "tcp"
	mc.Addr = fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	mc.DBName = cfg.Name
	mc.ParseTime = true
	mc.Loc = time.UTC
	mc.Collation = Collation
	return mc.FormatDSN()
}
