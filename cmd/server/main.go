// Package main implements the entry point for the trip planner API server,
// which generates travel itineraries through the Gemini API and stores them
// in PostgreSQL.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/phrazzld/trip-planner-api/internal/config"
	"github.com/phrazzld/trip-planner-api/internal/platform/logger"
	"github.com/phrazzld/trip-planner-api/internal/platform/postgres"
)

func main() {
	migrateOnly := flag.Bool("migrate", false, "run a migration command (default up) and exit")
	flag.Parse()

	if err := run(*migrateOnly, flag.Args()); err != nil {
		log.Fatalf("trip planner API failed: %v", err)
	}
}

// run wires the application and blocks until it is shut down.
func run(migrateOnly bool, args []string) error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to load .env file: %w", err)
	}

	cfg, err := loadAppConfig()
	if err != nil {
		return err
	}

	l, err := logger.Setup(cfg.Server)
	if err != nil {
		return fmt.Errorf("failed to set up logger: %w", err)
	}
	l.Info("Server configuration loaded",
		"port", cfg.Server.Port,
		"log_level", cfg.Server.LogLevel,
		"model", cfg.LLM.ModelName,
		"redis_rate_limit", cfg.RateLimit.RedisURL != "")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := setupAppDatabase(ctx, cfg, l)
	if err != nil {
		return err
	}

	if migrateOnly {
		defer closeDB(db, l)
		command, cmdArgs := migrationCommand(args)
		return postgres.RunMigrations(ctx, db, l, command, cmdArgs...)
	}

	if err := postgres.Migrate(ctx, db, l); err != nil {
		closeDB(db, l)
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	app, err := newApplication(ctx, cfg, l, db)
	if err != nil {
		closeDB(db, l)
		return fmt.Errorf("failed to initialize application: %w", err)
	}

	return app.Run(ctx)
}

// loadAppConfig loads the application configuration from environment variables or config file.
func loadAppConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return cfg, nil
}

// migrationCommand splits positional arguments into a goose command and its
// arguments. No arguments means "up".
func migrationCommand(args []string) (string, []string) {
	if len(args) == 0 {
		return "up", nil
	}
	return args[0], args[1:]
}

func closeDB(db interface{ Close() error }, l *slog.Logger) {
	if err := db.Close(); err != nil {
		l.Error("Error closing database connection", "error", err)
	}
}
