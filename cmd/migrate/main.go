// migrate applies the embedded SQL migrations and exits.
// Run: go run ./cmd/migrate
package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/citymarket/marketplace/config"
	"github.com/citymarket/marketplace/internal/infrastructure/postgres"
	"github.com/lmittmann/tint"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := slog.New(tint.NewHandler(os.Stdout, &tint.Options{
		Level:      cfg.SlogLevel(),
		TimeFormat: time.Kitchen,
	}))

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL, postgres.PoolOptions{MaxConns: 1, MinConns: 1})
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer pool.Close()

	if err := postgres.Migrate(ctx, pool, logger); err != nil {
		log.Fatalf("migrate: %v", err)
	}
	logger.Info("migrations applied")
}
