package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/campusguessr/backend/internal/config"
	"github.com/campusguessr/backend/internal/content"
	"github.com/campusguessr/backend/internal/database"
	"github.com/campusguessr/backend/internal/duel"
	"github.com/campusguessr/backend/internal/friends"
	"github.com/campusguessr/backend/internal/lobby"
	"github.com/campusguessr/backend/internal/migrations"
	"github.com/campusguessr/backend/internal/outcome"
	"github.com/campusguessr/backend/internal/server"
	"github.com/campusguessr/backend/internal/sharedstate"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, stdout io.Writer) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := slog.New(slog.NewJSONHandler(stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))

	// --- SQLite ---
	db, err := database.Open(ctx, cfg.DBPath)
	if err != nil {
		return fmt.Errorf("connecting to sqlite: %w", err)
	}
	defer db.Close()

	if err := migrations.Run(db); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	logger.Info("connected to sqlite", "path", cfg.DBPath)

	// --- Redis ---
	rdb, err := openRedis(ctx, cfg.RedisURL)
	if err != nil {
		return fmt.Errorf("connecting to redis: %w", err)
	}
	defer rdb.Close()
	logger.Info("connected to redis")

	// --- Shared document store ---
	broker := sharedstate.NewBroker()
	store, err := sharedstate.NewSQLiteStore(ctx, db, broker)
	if err != nil {
		return fmt.Errorf("initializing document store: %w", err)
	}

	if cfg.SeedDemo {
		if err := content.SeedDemo(ctx, logger, store); err != nil {
			return fmt.Errorf("seeding demo campus: %w", err)
		}
	}

	// --- Services ---
	provider := content.NewStoreProvider(store)
	lobbySvc := lobby.NewService(store, friends.NewSQLiteLookup(db), provider, logger)
	duelSvc := duel.NewService(store, provider, outcome.NewRedisRecorder(rdb), logger)

	srv := server.New(cfg.HTTPAddr, logger, server.Services{
		Store:   store,
		Lobby:   lobbySvc,
		Duel:    duelSvc,
		Content: provider,
		DB:      db,
		Redis:   rdb,
		SPADir:  cfg.SPADir,
	})

	// --- Run ---
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("starting http server", "addr", cfg.HTTPAddr)
		return srv.Run(gctx)
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down http server")
		return srv.Shutdown(context.Background())
	})

	return g.Wait()
}

func openRedis(ctx context.Context, rawURL string) (*redis.Client, error) {
	opt, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parsing redis url: %w", err)
	}
	rdb := redis.NewClient(opt)
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("pinging redis: %w", err)
	}
	return rdb, nil
}
