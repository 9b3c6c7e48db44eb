// Command logbarn-migrate manages the database schema outside the server
// process, for deployments that set AUTO_RUN_MIGRATIONS_DISABLED and run
// migrations as an explicit release step.
//
// Usage:
//
//	logbarn-migrate [flags] [up|up-to <version>|status|version]
//
// The default command is "up".
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/logbarn/logbarn/pkg/config"
	"github.com/logbarn/logbarn/pkg/database"
	"github.com/logbarn/logbarn/pkg/log"
)

var (
	configPath = flag.String("config", "", "Path to YAML config file (environment overrides it)")
	timeout    = flag.Duration("timeout", 5*time.Minute, "Overall timeout including connection retries")
)

func main() {
	flag.Parse()

	log.Init(log.Config{Level: log.InfoLevel})
	logger := log.WithComponent("migrate-cli")

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to load configuration")
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	db, err := database.Connect(ctx, cfg.DB)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()

	command := "up"
	if flag.NArg() > 0 {
		command = flag.Arg(0)
	}

	switch command {
	case "up":
		if err := database.Migrate(ctx, db.DB); err != nil {
			logger.Fatal().Err(err).Msg("Migration failed")
		}
		version, err := database.Version(ctx, db.DB)
		if err != nil {
			logger.Fatal().Err(err).Msg("Failed to read migration version")
		}
		fmt.Printf("✓ Schema up to date (version %d)\n", version)

	case "up-to":
		if flag.NArg() < 2 {
			fmt.Fprintln(os.Stderr, "up-to requires a target version")
			os.Exit(2)
		}
		target, err := strconv.ParseInt(flag.Arg(1), 10, 64)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Invalid target version %q\n", flag.Arg(1))
			os.Exit(2)
		}
		if err := database.MigrateTo(ctx, db.DB, target); err != nil {
			logger.Fatal().Err(err).Msg("Migration failed")
		}
		version, err := database.Version(ctx, db.DB)
		if err != nil {
			logger.Fatal().Err(err).Msg("Failed to read migration version")
		}
		fmt.Printf("✓ Schema at version %d\n", version)

	case "status":
		if err := database.Status(ctx, db.DB); err != nil {
			logger.Fatal().Err(err).Msg("Failed to read migration status")
		}

	case "version":
		version, err := database.Version(ctx, db.DB)
		if err != nil {
			logger.Fatal().Err(err).Msg("Failed to read migration version")
		}
		fmt.Println(version)

	default:
		fmt.Fprintf(os.Stderr, "Unknown command %q (want up, up-to, status, or version)\n", command)
		os.Exit(2)
	}
}
