package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/JonMunkholm/catalog-import/internal/config"
	"github.com/JonMunkholm/catalog-import/internal/core"
	"github.com/JonMunkholm/catalog-import/internal/logging"
	"github.com/JonMunkholm/catalog-import/internal/store"
	"github.com/JonMunkholm/catalog-import/internal/store/redislock"
	"github.com/JonMunkholm/catalog-import/internal/web"
)

func main() {
	// Overload lets a local .env win over the shell environment.
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)
	slog.Info("configuration loaded", "config", cfg.String())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	catalog, err := store.Open(ctx, cfg.Database)
	if err != nil {
		slog.Error("failed to open catalog store", "driver", cfg.Database.Driver, "error", err)
		os.Exit(1)
	}
	defer catalog.Close()
	slog.Info("catalog store ready", "driver", cfg.Database.Driver)

	if len(cfg.Import.SeedCategories) > 0 {
		if err := catalog.AddCategories(ctx, cfg.Import.SeedCategories...); err != nil {
			slog.Error("failed to seed categories", "error", err)
			os.Exit(1)
		}
		slog.Info("categories seeded", "count", len(cfg.Import.SeedCategories))
	}

	lock, closeLock, err := commitLock(ctx, cfg)
	if err != nil {
		slog.Error("failed to set up commit lock", "error", err)
		os.Exit(1)
	}
	defer closeLock()

	service := core.NewService(catalog, catalog,
		core.NewImportLimiter(cfg.Import.MaxConcurrent, cfg.Import.MaxWaitTime),
		lock,
		core.Options{
			MaxRows: cfg.Import.MaxRows,
			Transform: core.TransformOptions{
				DefaultBrand:     cfg.Import.DefaultBrand,
				DefaultCategory:  cfg.Import.DefaultCategory,
				PlaceholderImage: cfg.Import.PlaceholderImage,
				Policy:           core.LastWins,
			},
			Timeout:    cfg.Import.Timeout,
			CatalogKey: cfg.Import.CatalogKey,
			LockWait:   cfg.Import.LockWaitTime,
		},
	)
	server := web.NewServer(service, cfg)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(server.Start)
	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if status := service.LimiterStatus(); status.Active > 0 {
			slog.Info("waiting for imports to finish", "active", status.Active)
			if err := service.WaitForImports(shutdownCtx); err != nil {
				slog.Warn("imports did not finish in time", "error", err)
			}
		}
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}

// commitLock picks the lock that serializes commits: Redis when configured,
// otherwise in-process. It returns nil when serialization is turned off.
func commitLock(ctx context.Context, cfg *config.Config) (core.CommitLock, func(), error) {
	noop := func() {}
	if !cfg.Import.SerializeCommits {
		slog.Warn("commit serialization disabled; overlapping imports may insert duplicate codes")
		return nil, noop, nil
	}
	if !cfg.Redis.Enabled() {
		return core.NewLocalLock(), noop, nil
	}

	client, err := redislock.Connect(ctx, cfg.Redis.URL)
	if err != nil {
		return nil, noop, err
	}
	slog.Info("using redis commit lock")
	return redislock.New(client, cfg.Redis.LockTTL, cfg.Redis.LockRetry), func() { client.Close() }, nil
}
