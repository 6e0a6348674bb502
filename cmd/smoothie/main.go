package main

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/urfave/cli/v2"

	"github.com/smoothiefi/smoothie/internal/api"
	"github.com/smoothiefi/smoothie/internal/cache"
	"github.com/smoothiefi/smoothie/internal/config"
	"github.com/smoothiefi/smoothie/internal/database"
	"github.com/smoothiefi/smoothie/internal/events"
	"github.com/smoothiefi/smoothie/internal/export"
	"github.com/smoothiefi/smoothie/internal/portfolio"
	"github.com/smoothiefi/smoothie/internal/positions"
	"github.com/smoothiefi/smoothie/internal/prices"
	"github.com/smoothiefi/smoothie/internal/snapshot"
	"github.com/smoothiefi/smoothie/internal/worker"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

func main() {
	app := &cli.App{
		Name:  "smoothie",
		Usage: "Blend protocol portfolio dashboard",
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "run the API server and background workers",
				Action: runServe,
			},
			{
				Name:   "export",
				Usage:  "run a one-shot performance export to Google Sheets",
				Action: runExport,
			},
		},
		DefaultCommand: "serve",
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

// services is the wired application graph shared by the CLI commands.
type services struct {
	pool       *pgxpool.Pool
	portfolios *portfolio.Service
	snapshots  *snapshot.Service
	quotes     *prices.Service
}

func buildServices(ctx context.Context, cfg config.Config) (*services, error) {
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.IndexerURL == "" {
		return nil, fmt.Errorf("INDEXER_URL is required")
	}

	pool, err := database.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	migrationsSub, err := fs.Sub(migrationsFS, "migrations")
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("creating migrations sub-fs: %w", err)
	}
	if err := database.RunMigrations(ctx, pool, migrationsSub); err != nil {
		pool.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	loc := cfg.Location()

	indexer := positions.NewClient(cfg.IndexerURL, cfg.IndexerRetryMax, cfg.IndexerRetryBaseDelay)
	positionSvc := positions.NewService(indexer)

	eventRepo := events.NewPgRepository(pool, cfg.LpTokenAddress)
	snapshotRepo := snapshot.NewPgRepository(pool)
	snapshotSvc := snapshot.NewService(positionSvc, snapshotRepo, loc)

	coingecko := prices.NewCoinGeckoClient(cfg.CoinGeckoURL, cfg.CoinGeckoDelay, cfg.CoinGeckoRetryMax)
	quoteSvc := prices.NewService(coingecko, prices.NewPgQuoteRepository(pool))

	portfolioSvc := portfolio.NewService(positionSvc, eventRepo, snapshotSvc, loc)

	return &services{
		pool:       pool,
		portfolios: portfolioSvc,
		snapshots:  snapshotSvc,
		quotes:     quoteSvc,
	}, nil
}

func runServe(c *cli.Context) error {
	ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := config.Load()

	svcs, err := buildServices(ctx, cfg)
	if err != nil {
		return err
	}
	defer svcs.pool.Close()

	var store cache.Store
	if cfg.RedisURL != "" {
		redisStore, err := cache.NewRedisStore(ctx, cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("connecting to redis: %w", err)
		}
		defer redisStore.Close()
		store = redisStore
	} else {
		store = cache.NewMemoryStore()
	}

	// The export hook is optional; without Sheets credentials snapshots
	// still run, they just stay in the database.
	var hook worker.AfterSnapshotHook
	if cfg.SheetsSpreadsheetID != "" && cfg.SheetsCredentialsJSON != "" {
		writer, err := export.NewSheetsWriter(ctx, cfg.SheetsSpreadsheetID, cfg.SheetsCredentialsJSON)
		if err != nil {
			return fmt.Errorf("creating sheets writer: %w", err)
		}
		hook = export.NewService(svcs.portfolios, svcs.snapshots, writer)
	}

	quoteWorker := worker.NewQuoteWorker(svcs.quotes, cfg.QuoteWorkerInterval)
	go quoteWorker.Run(ctx)

	snapshotWorker := worker.NewSnapshotWorker(svcs.snapshots, cfg.SnapshotWorkerInterval, hook)
	go snapshotWorker.Run(ctx)

	if cfg.AdminAPIKey == "" {
		slog.Warn("ADMIN_API_KEY not set, admin endpoints are unprotected")
	}

	srv := api.NewServer(cfg.HTTPPort, svcs.portfolios, svcs.snapshots, svcs.quotes, store, cfg.ResponseCacheTTL, cfg.AdminAPIKey)

	go func() {
		slog.Info("HTTP server listening", "port", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("HTTP server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}

	slog.Info("shutdown complete")
	return nil
}

func runExport(c *cli.Context) error {
	ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := config.Load()
	if cfg.SheetsSpreadsheetID == "" || cfg.SheetsCredentialsJSON == "" {
		return fmt.Errorf("SHEETS_SPREADSHEET_ID and SHEETS_CREDENTIALS_JSON are required")
	}

	svcs, err := buildServices(ctx, cfg)
	if err != nil {
		return err
	}
	defer svcs.pool.Close()

	writer, err := export.NewSheetsWriter(ctx, cfg.SheetsSpreadsheetID, cfg.SheetsCredentialsJSON)
	if err != nil {
		return fmt.Errorf("creating sheets writer: %w", err)
	}

	if err := export.NewService(svcs.portfolios, svcs.snapshots, writer).Export(ctx); err != nil {
		return fmt.Errorf("exporting report: %w", err)
	}

	slog.Info("export complete")
	return nil
}
