package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/logbarn/logbarn/pkg/api"
	"github.com/logbarn/logbarn/pkg/auth"
	"github.com/logbarn/logbarn/pkg/client"
	"github.com/logbarn/logbarn/pkg/cluster"
	"github.com/logbarn/logbarn/pkg/config"
	"github.com/logbarn/logbarn/pkg/database"
	"github.com/logbarn/logbarn/pkg/housekeeping"
	"github.com/logbarn/logbarn/pkg/ingest"
	"github.com/logbarn/logbarn/pkg/log"
	"github.com/logbarn/logbarn/pkg/lookup"
	"github.com/logbarn/logbarn/pkg/metrics"
	"github.com/logbarn/logbarn/pkg/ratelimit"
	"github.com/logbarn/logbarn/pkg/store"
	"github.com/logbarn/logbarn/pkg/upstream"
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Run the log aggregation service",
	Long: `Run the HTTP API server together with the background workers.

Ingestion is served by every process. Schema migrations, the upstream
sync worker, and retention housekeeping run only on worker zero of a
process group (NODE_APP_INSTANCE unset or "0").`,
	RunE: runServer,
}

func init() {
	serverCmd.Flags().String("host", "", "Listen address (overrides HOST)")
	serverCmd.Flags().Int("port", 0, "Listen port (overrides PORT)")
}

func runServer(cmd *cobra.Command, args []string) error {
	configPath, _ := cmd.Flags().GetString("config")

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Listener flags take precedence over environment and file settings
	if host, _ := cmd.Flags().GetString("host"); host != "" {
		cfg.Server.Host = host
	}
	if port, _ := cmd.Flags().GetInt("port"); port != 0 {
		cfg.Server.Port = port
	}

	log.Init(log.Config{
		Level:      log.Level(cfg.Log.Level),
		JSONOutput: cfg.Log.JSON,
	})
	logger := log.WithComponent("main")

	instance := cluster.FromEnv()
	logger.Info().
		Str("version", Version).
		Str("instance", instance.ID()).
		Bool("worker_zero", instance.IsWorkerZero()).
		Msg("Starting logbarn")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := database.Connect(ctx, cfg.DB)
	if err != nil {
		return err
	}

	if instance.IsWorkerZero() && !cfg.AutoMigrateDisabled {
		if err := database.Migrate(ctx, db.DB); err != nil {
			db.Close()
			return err
		}
	}

	st := store.NewMySQLStore(db)

	caches := lookup.NewCaches(st)
	if err := caches.Warm(ctx); err != nil {
		logger.Warn().Err(err).Msg("Lookup cache warm failed, starting cold")
	}

	collector := metrics.NewCollector(st)
	collector.Start()

	limiter, err := ratelimit.New(cfg.RateLimit)
	if err != nil {
		st.Close()
		return err
	}

	ingestSvc := ingest.NewService(st, caches)
	authn := auth.NewAuthenticator(st)
	server := api.NewServer(cfg.Server, st, ingestSvc, authn, limiter)

	var syncer *upstream.Syncer
	if cfg.Upstream.Enabled {
		sender := client.New(cfg.Upstream.Server, cfg.Upstream.APIKey,
			client.WithTimeout(cfg.Upstream.Timeout),
			client.WithGzip(cfg.Upstream.Compression),
		)
		syncer = upstream.NewSyncer(cfg.Upstream, st, sender, instance)
		syncer.Start()
	}

	// Forwarding nodes purge only records the parent has acknowledged
	keeper := housekeeping.NewScheduler(cfg.Retention, cfg.Upstream.Enabled, st, instance)
	keeper.Start()

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", cfg.Server.Addr()).Msg("API server listening")
		if err := server.Start(); err != nil {
			errCh <- fmt.Errorf("API server error: %w", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Info().Str("signal", sig.String()).Msg("Shutting down")
	case err := <-errCh:
		logger.Error().Err(err).Msg("Server failed, shutting down")
	}

	// Drain HTTP first so in-flight requests finish, then stop the workers,
	// then close the pool they were using.
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownGrace)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn().Err(err).Msg("HTTP drain did not finish cleanly")
	}

	if syncer != nil {
		syncer.Stop()
	}
	keeper.Stop()
	collector.Stop()

	if err := st.Close(); err != nil {
		logger.Warn().Err(err).Msg("Failed to close database pool")
	}

	logger.Info().Msg("Shutdown complete")
	return nil
}
