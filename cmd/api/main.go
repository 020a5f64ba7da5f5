package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/ticket-ledger/internal/api/http"
	"github.com/spec-kit/ticket-ledger/internal/api/http/handlers"
	"github.com/spec-kit/ticket-ledger/internal/auth"
	"github.com/spec-kit/ticket-ledger/internal/cache"
	"github.com/spec-kit/ticket-ledger/internal/config"
	"github.com/spec-kit/ticket-ledger/internal/events"
	"github.com/spec-kit/ticket-ledger/internal/integrity"
	"github.com/spec-kit/ticket-ledger/internal/lock"
	"github.com/spec-kit/ticket-ledger/internal/observability"
	"github.com/spec-kit/ticket-ledger/internal/persistence"
	"github.com/spec-kit/ticket-ledger/internal/report"
	"github.com/spec-kit/ticket-ledger/internal/repository"
	"github.com/spec-kit/ticket-ledger/internal/service"
	"github.com/spec-kit/ticket-ledger/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	pool := pg.PoolHandle()
	if pool != nil && cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pool, cfg.Postgres.MigrationsDir, logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(ctx, cfg.Redis, logger)
	defer redis.Close()
	redisUp := redis.Available(ctx)

	dependencies := map[string]handlers.Pinger{}
	var (
		changeSetRepo repository.ChangeSetRepository
		userRepo      repository.UserRepository
		orgRepo       repository.OrganizationRepository
	)
	if pool != nil {
		changeSetRepo = repository.NewChangeSetRepository(pool)
		userRepo = repository.NewUserRepository(pool)
		orgRepo = repository.NewOrganizationRepository(pool)
		dependencies["postgres"] = pg
	} else {
		logger.Warn("no database configured; change-sets are kept in memory")
		store := repository.NewMemoryStore()
		changeSetRepo, userRepo, orgRepo = store.ChangeSets(), store.Users(), store.Organizations()
	}

	var logCache cache.LogCache
	if cfg.Cache.Enabled && redisUp {
		logCache = cache.NewRedisLogCache(redis.Client, cfg.Cache.LogTTL())
		dependencies["redis"] = redis
	}

	var locker lock.Locker = lock.NewMemoryLocker()
	if cfg.Lock.Backend == config.LockBackendRedis {
		if !redisUp {
			logger.Fatal("LOCK_BACKEND=redis but redis is unreachable", zap.String("addr", cfg.Redis.Addr))
		}
		locker = lock.NewRedisLocker(redis.Client, cfg.Lock.TTL())
		dependencies["redis"] = redis
	}

	hasher, err := integrity.NewHasher(cfg.Integrity.Algorithm, cfg.Integrity.Key)
	if err != nil {
		logger.Fatal("invalid integrity settings", zap.Error(err))
	}
	reportCfg, err := report.LoadConfig(cfg.Report.ConfigPath)
	if err != nil {
		logger.Fatal("invalid report settings", zap.Error(err))
	}

	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher()
	ticketService := service.NewTicketService(service.TicketDependencies{
		ChangeSetRepo:    changeSetRepo,
		UserRepo:         userRepo,
		OrganizationRepo: orgRepo,
		Cache:            logCache,
		Locker:           locker,
		Dispatcher:       dispatcher,
		Hash:             hasher.Hash,
		Report:           report.NewWriter(reportCfg, nil),
		Metrics:          metrics,
		Logger:           logger,
	})
	notifications := service.NewNotificationService(dispatcher, logger, cfg.Notification)

	var warmer *worker.CacheWarmer
	if logCache != nil {
		warmer = worker.NewCacheWarmer(ticketService, logger, 0)
	}
	waitWorkers := worker.StartAll(ctx, dispatcher, notifications, warmer)

	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.Issuer, cfg.Auth.AccessTokenTTLMinutes)
	authMiddleware := auth.NewAuthMiddleware(tokens, userRepo)

	app := fiber.New(fiber.Config{AppName: cfg.App.Name, Immutable: true})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())
	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, dependencies, metrics),
		Tickets:        handlers.NewTicketsHandler(ticketService),
		AuthMiddleware: authMiddleware,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()
	logger.Info("ticket ledger started",
		zap.String("addr", cfg.App.Addr()),
		zap.String("lock_backend", string(cfg.Lock.Backend)),
		zap.String("integrity", string(hasher.Algorithm())),
		zap.Bool("cache", logCache != nil))

	waitForShutdown(logger)

	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		logger.Warn("http shutdown", zap.Error(err))
	}
	cancel()
	waitWorkers()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
