package main

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/strangerpair/roulette-bot/internal/bot"
	"github.com/strangerpair/roulette-bot/internal/chat"
	"github.com/strangerpair/roulette-bot/internal/database"
	"github.com/strangerpair/roulette-bot/internal/directory"
	"github.com/strangerpair/roulette-bot/internal/health"
	"github.com/strangerpair/roulette-bot/internal/i18n"
	"github.com/strangerpair/roulette-bot/internal/jobs"
	jobhandlers "github.com/strangerpair/roulette-bot/internal/jobs/handlers"
	"github.com/strangerpair/roulette-bot/internal/lifecycle"
	"github.com/strangerpair/roulette-bot/internal/moderation"
	"github.com/strangerpair/roulette-bot/internal/ratelimit"
	"github.com/strangerpair/roulette-bot/internal/report"
	"github.com/strangerpair/roulette-bot/internal/repository"
	"github.com/strangerpair/roulette-bot/internal/usercache"
	"github.com/strangerpair/roulette-bot/pkg/config"
	"github.com/strangerpair/roulette-bot/pkg/graceful"
	"github.com/strangerpair/roulette-bot/pkg/logger"
	"github.com/strangerpair/roulette-bot/pkg/metrics"
	pkgredis "github.com/strangerpair/roulette-bot/pkg/redis"

	_ "github.com/lib/pq"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, v, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}

	log := logger.New(logger.Options{
		Level:         cfg.Log.Level,
		File:          cfg.Log.File,
		MaxSizeMB:     cfg.Log.MaxSizeMB,
		MaxBackups:    cfg.Log.MaxBackups,
		MaxAgeDays:    cfg.Log.MaxAgeDays,
		SentryEnabled: cfg.Sentry.Enabled,
	})
	slog.SetDefault(log)

	log.Info("starting roulette bot",
		slog.String("env", cfg.AppEnv),
		slog.String("mode", cfg.Bot.Mode),
		slog.String("http_port", cfg.Server.Port),
	)

	if len(cfg.Bot.AdminIDs) == 0 {
		log.Warn("no admin ids configured; moderation commands will refuse everyone")
	}

	if cfg.Sentry.Enabled {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:         cfg.Sentry.DSN,
			Environment: cfg.AppEnv,
		}); err != nil {
			log.Error("failed to initialize sentry", slog.Any("error", err))
			os.Exit(1)
		}
		defer sentry.Flush(2 * time.Second)
	}

	db, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		log.Error("failed to open database", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if cerr := db.Close(); cerr != nil {
			log.Error("error closing database", slog.Any("error", cerr))
		}
	}()

	if err := db.PingContext(ctx); err != nil {
		log.Error("failed to ping database", slog.Any("error", err))
		os.Exit(1)
	}

	migrator := database.NewMigrator(db, log)
	if err := migrator.ApplyDir(ctx, "migrations"); err != nil {
		log.Error("failed to apply migrations", slog.Any("error", err))
		os.Exit(1)
	}

	redisClient, err := pkgredis.New(ctx, pkgredis.Config{
		Addr:         cfg.Redis.Addr,
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		PoolSize:     cfg.Redis.PoolSize,
		MinIdleConns: cfg.Redis.MinIdleConns,
		PoolTimeout:  cfg.Redis.PoolTimeout,
		IdleTimeout:  cfg.Redis.IdleTimeout,
	})
	if err != nil {
		log.Error("failed to connect to redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if cerr := redisClient.Close(); cerr != nil {
			log.Error("error closing redis client", slog.Any("error", cerr))
		}
	}()

	var (
		limiter       ratelimit.Limiter
		cooldown      ratelimit.Cooldown
		memoryLimiter *ratelimit.MemoryLimiter
		memoryCool    *ratelimit.MemoryCooldown
	)
	if cfg.RateLimit.Backend == "redis" {
		limiter = ratelimit.NewRedisLimiter(redisClient.Client, log)
		cooldown = ratelimit.NewRedisCooldown(redisClient.Client)
	} else {
		memoryLimiter = ratelimit.NewMemoryLimiter(log)
		memoryCool = ratelimit.NewMemoryCooldown()
		limiter = memoryLimiter
		cooldown = memoryCool
	}

	guard := ratelimit.NewGuard(limiter, cooldown, ratelimit.Settings{
		MaxMessagesPerMinute: cfg.RateLimit.MaxMessagesPerMinute,
		CommandCooldown:      cfg.RateLimit.CommandCooldown,
		Whitelist:            cfg.RateLimit.Whitelist,
	}, log)

	userRepo := repository.NewUserRepository(db, log)
	queueRepo := repository.NewQueueRepository(db, log)
	sessionRepo := repository.NewSessionRepository(db, log)
	reportRepo := repository.NewReportRepository(db, log)
	matchStore := repository.NewMatchStore(db, log)

	cache := usercache.NewCache(redisClient.Client)
	users := directory.NewService(userRepo, cache, log)

	translations, err := i18n.Load(cfg.Bot.Language)
	if err != nil {
		log.Error("failed to load translations", slog.Any("error", err))
		os.Exit(1)
	}

	b, dispatcher, err := bot.New(*cfg, log, translations, users, guard)
	if err != nil {
		log.Error("failed to initialize telegram bot", slog.Any("error", err))
		os.Exit(1)
	}

	chats := chat.NewService(users, matchStore, queueRepo, guard, dispatcher, log)
	reports := report.NewService(users, reportRepo, log)
	admins := config.NewAdminList(cfg.Bot.AdminIDs)
	mod := moderation.NewService(users, sessionRepo, queueRepo, chats, reports, guard, dispatcher, log)

	b.RegisterHandlers(chats, reports, mod, admins)

	config.Watch(v, log, func(fresh *config.Config) {
		admins.Replace(fresh.Bot.AdminIDs)
		guard.Reconfigure(ratelimit.Settings{
			MaxMessagesPerMinute: fresh.RateLimit.MaxMessagesPerMinute,
			CommandCooldown:      fresh.RateLimit.CommandCooldown,
			Whitelist:            fresh.RateLimit.Whitelist,
		})
	})

	shutdown := lifecycle.NewShutdown(log)

	collector := metrics.NewCollector(users)
	go collector.Run(ctx)

	if cfg.Jobs.Enabled {
		redisOpt := asynq.RedisClientOpt{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		}

		worker := jobs.NewWorker(redisOpt, map[string]int{
			jobs.QueueDefault: 4,
			jobs.QueueLow:     1,
		}, log)
		worker.RegisterHandler(jobs.TaskTypeQueueSweep, jobhandlers.NewQueueSweepHandler(queueRepo, dispatcher, log))
		if memoryLimiter != nil {
			worker.RegisterHandler(jobs.TaskTypeLimiterCleanup,
				jobhandlers.NewLimiterCleanupHandler(log, memoryLimiter, memoryCool))
		} else {
			worker.RegisterHandler(jobs.TaskTypeLimiterCleanup, jobhandlers.NewLimiterCleanupHandler(log))
		}

		go func() {
			if err := worker.Run(); err != nil {
				log.Error("jobs worker stopped", slog.Any("error", err))
			}
		}()

		scheduler := jobs.NewScheduler(redisOpt, log)
		if err := scheduler.RegisterTasks(cfg.Jobs.SweepSchedule, cfg.Jobs.QueueEntryTTL); err != nil {
			log.Error("failed to register scheduled tasks", slog.Any("error", err))
			os.Exit(1)
		}
		scheduler.Run()

		shutdown.Register("jobs", func(context.Context) error {
			scheduler.Shutdown()
			worker.Shutdown()
			return nil
		})
	}

	checker := health.NewChecker(log)
	checker.AddCheck("postgres", health.NewDBChecker(db))
	checker.AddCheck("redis", health.NewRedisChecker(redisClient))
	checker.AddCheck("telegram", health.NewTelegramChecker(b.Telebot()))

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/healthz", checker.Handler())

	httpServer := graceful.NewServer(log, &http.Server{
		Addr:    cfg.Server.Port,
		Handler: logger.Middleware(mux),
	}, cfg.Server.ShutdownTimeout)

	go func() {
		if err := httpServer.ListenAndServe(ctx); err != nil {
			log.Error("http server failed", slog.Any("error", err))
		}
	}()

	shutdown.Register("telegram", func(context.Context) error {
		b.Stop()
		return nil
	})

	go b.Start()
	log.Info("roulette bot is running")

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := shutdown.Execute(shutdownCtx); err != nil {
		log.Error("shutdown finished with errors", slog.Any("error", err))
	}

	log.Info("roulette bot stopped")
}
