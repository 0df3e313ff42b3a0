package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"

	"github.com/palemoky/trivia-rush/internal/config"
	"github.com/palemoky/trivia-rush/internal/content"
	"github.com/palemoky/trivia-rush/internal/game/engine"
	"github.com/palemoky/trivia-rush/internal/game/scheduler"
	"github.com/palemoky/trivia-rush/internal/logger"
	"github.com/palemoky/trivia-rush/internal/metrics"
	tracing "github.com/palemoky/trivia-rush/internal/otel"
	"github.com/palemoky/trivia-rush/internal/server"
	"github.com/palemoky/trivia-rush/internal/server/storage"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to the config file")
	flag.Parse()

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("⚠️ Failed to read .env: %v", err)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Printf("⚠️ Failed to load config, using defaults: %v", err)
		cfg = config.Default()
		if err := config.ApplyEnv(cfg); err != nil {
			log.Fatalf("❌ %v", err)
		}
	}

	if err := logger.Init(cfg.LogFile); err != nil {
		log.Fatalf("❌ Failed to open log file: %v", err)
	}

	err = run(cfg)
	if err != nil {
		logger.LogError("server exited: %v", err)
	}
	logger.Close()
	if err != nil {
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := tracing.Setup(ctx, cfg.Telemetry)
	if err != nil {
		return fmt.Errorf("tracing: %w", err)
	}
	defer func() { _ = shutdownTracing(context.Background()) }()

	recorder, err := metrics.New(otel.GetMeterProvider())
	if err != nil {
		return fmt.Errorf("metrics: %w", err)
	}

	provider, closeContent, err := openContent(ctx, cfg.Content)
	if err != nil {
		return err
	}
	defer closeContent()

	hub := server.NewHub()
	registry := engine.NewRegistry()
	engineOpts := []engine.Option{
		engine.WithRules(engine.RulesFromConfig(cfg.Game)),
		engine.WithMetrics(recorder),
	}
	var serverOpts []server.Option

	if cfg.Redis.Enabled {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer func() { _ = rdb.Close() }()
		if err := rdb.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("redis: %w", err)
		}

		leaderboard := storage.NewLeaderboardManager(rdb)
		mirror := storage.NewMirror(storage.NewRedisStore(rdb), leaderboard)
		defer mirror.Close()

		engineOpts = append(engineOpts, engine.WithObserver(mirror))
		serverOpts = append(serverOpts, server.WithLeaderboard(leaderboard))
		log.Printf("📦 Redis mirror and leaderboard enabled at %s", cfg.Redis.Addr)
	}

	eng := engine.New(registry, provider, hub, engineOpts...)
	if err := metrics.RegisterGauges(otel.GetMeterProvider(), registry.SessionCount, registry.PlayerCount); err != nil {
		return fmt.Errorf("metrics gauges: %w", err)
	}

	srv, err := server.NewServer(cfg, eng, hub, serverOpts...)
	if err != nil {
		return fmt.Errorf("create server: %w", err)
	}

	sched := scheduler.New(eng, cfg.Game.TickIntervalDuration(),
		scheduler.WithMetrics(recorder),
		scheduler.WithTracerProvider(otel.GetTracerProvider()),
	)
	// deferred after the mirror and content closers, so it runs before them
	stopScheduler := sched.Start(context.Background())
	defer stopScheduler()

	errCh := make(chan error, 1)
	go func() {
		log.Println("🧠 Trivia server starting...")
		errCh <- srv.Start()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Println("🔧 Shutting down, waiting for running games...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Game.ShutdownTimeoutDuration())
	defer cancel()
	return srv.GracefulShutdown(shutdownCtx)
}

// openContent returns the question provider named by the config and a closer.
func openContent(ctx context.Context, cfg config.ContentConfig) (content.Provider, func(), error) {
	switch cfg.Source {
	case "file":
		bank, err := content.LoadBank(cfg.File)
		if err != nil {
			return nil, nil, fmt.Errorf("load question bank: %w", err)
		}
		log.Printf("📚 Loaded question bank from %s", cfg.File)
		return bank, func() {}, nil

	case "postgres":
		db, err := content.OpenPostgres(cfg.PostgresDSN, false)
		if err != nil {
			return nil, nil, err
		}
		store := content.NewStore(db)
		closer := func() { _ = store.Close() }

		if cfg.AutoMigrate {
			if err := store.Migrate(ctx); err != nil {
				closer()
				return nil, nil, fmt.Errorf("migrate: %w", err)
			}
			if cfg.File != "" {
				bank, err := content.LoadBank(cfg.File)
				if err != nil {
					closer()
					return nil, nil, fmt.Errorf("load seed bank: %w", err)
				}
				seeded, err := store.Seed(ctx, bank)
				if err != nil {
					closer()
					return nil, nil, fmt.Errorf("seed: %w", err)
				}
				if seeded {
					log.Printf("🌱 Seeded questions from %s", cfg.File)
				}
			}
		}
		log.Println("📚 Using PostgreSQL question store")
		return store, closer, nil

	default:
		return nil, nil, fmt.Errorf("unknown content source %q", cfg.Source)
	}
}
