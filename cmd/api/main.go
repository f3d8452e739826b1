package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/multierr"

	"github.com/angelmondragon/bakery-backend/api/controllers"
	"github.com/angelmondragon/bakery-backend/api/responses"
	"github.com/angelmondragon/bakery-backend/api/routes"
	"github.com/angelmondragon/bakery-backend/internal/auth"
	"github.com/angelmondragon/bakery-backend/internal/catalog"
	"github.com/angelmondragon/bakery-backend/internal/cron"
	"github.com/angelmondragon/bakery-backend/internal/orders"
	"github.com/angelmondragon/bakery-backend/internal/profiles"
	"github.com/angelmondragon/bakery-backend/internal/users"
	"github.com/angelmondragon/bakery-backend/pkg/auth/session"
	"github.com/angelmondragon/bakery-backend/pkg/config"
	"github.com/angelmondragon/bakery-backend/pkg/db"
	"github.com/angelmondragon/bakery-backend/pkg/delivery"
	"github.com/angelmondragon/bakery-backend/pkg/instance"
	"github.com/angelmondragon/bakery-backend/pkg/logger"
	"github.com/angelmondragon/bakery-backend/pkg/metrics"
	"github.com/angelmondragon/bakery-backend/pkg/migrate"
	"github.com/angelmondragon/bakery-backend/pkg/ratelimit"
	"github.com/angelmondragon/bakery-backend/pkg/redis"
	"github.com/angelmondragon/bakery-backend/pkg/telemetry"
)

const (
	shutdownTimeout = 15 * time.Second
	flushTimeout    = 2 * time.Second
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	requireResource(context.Background(), logg, "config", err)

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
		Fields:      map[string]any{"instance": instance.GetID()},
	})

	addr := ":" + cfg.App.Port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})

	reporter, err := telemetry.New(cfg.Telemetry, cfg.App.Env)
	requireResource(ctx, logg, "telemetry", err)
	responses.Configure(responses.Options{
		Reporter:    reporter,
		Diagnostics: cfg.App.DiagnosticsEnabled(),
	})

	dbClient, err := db.New(ctx, cfg.DB, logg)
	requireResource(ctx, logg, "database", err)

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		logg.Error(ctx, "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	requireResource(ctx, logg, "redis", err)

	loc, err := cfg.Delivery.Location()
	requireResource(ctx, logg, "delivery timezone", err)
	calendar := delivery.NewCalculator(loc, time.Now)

	var counterStore ratelimit.Store = ratelimit.NewMemoryStore()
	if cfg.RateLimit.UsesRedis() {
		counterStore, err = ratelimit.NewRedisStore(redisClient)
		requireResource(ctx, logg, "rate limit store", err)
	}
	limiter, err := ratelimit.NewLimiter(counterStore)
	requireResource(ctx, logg, "rate limiter", err)

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	requireResource(ctx, logg, "session manager", err)

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	httpMetrics := metrics.NewHTTPMetrics(registry)
	orderMetrics := metrics.NewOrderMetrics(registry)
	jobMetrics := metrics.NewJobMetrics(registry)

	gormDB := dbClient.DB()
	userRepo := users.NewRepository(gormDB)
	profileRepo := profiles.NewRepository(gormDB)
	orderRepo := orders.NewRepository(gormDB)
	catalogRepo := catalog.NewRepository(gormDB)

	profileService, err := profiles.NewService(profiles.ServiceParams{
		Repo:  profileRepo,
		Users: userRepo,
	})
	requireResource(ctx, logg, "profile service", err)

	authService, err := auth.NewService(auth.ServiceParams{
		Tx:             dbClient,
		UserRepo:       userRepo,
		ProfileRepo:    profileRepo,
		SessionManager: sessionManager,
		Limiter:        limiter,
		LoginPolicy:    ratelimit.Login(cfg.RateLimit.LoginMax, cfg.RateLimit.LoginWindow),
		Location:       loc,
		JWTConfig:      cfg.JWT,
		PasswordConfig: cfg.Password,
	})
	requireResource(ctx, logg, "auth service", err)

	historyCache, err := orders.NewRedisHistoryCache(redisClient, cfg.Cache.OrderHistoryTTL)
	requireResource(ctx, logg, "order history cache", err)

	orderService, err := orders.NewService(orders.ServiceParams{
		Repo:        orderRepo,
		Limiter:     limiter,
		OrderPolicy: ratelimit.OrderCreation(cfg.RateLimit.OrderMax, cfg.RateLimit.OrderWindow),
		Calendar:    calendar,
		Cache:       historyCache,
		Metrics:     orderMetrics,
		Logger:      logg,
	})
	requireResource(ctx, logg, "order service", err)

	adminOrderService, err := orders.NewAdminService(orders.AdminServiceParams{
		Repo:     orderRepo,
		Calendar: calendar,
		Cache:    historyCache,
		Logger:   logg,
	})
	requireResource(ctx, logg, "admin order service", err)

	catalogService, err := catalog.NewService(catalog.ServiceParams{
		Tx:     dbClient,
		Repo:   catalogRepo,
		Roles:  profileService,
		Logger: logg,
	})
	requireResource(ctx, logg, "catalog service", err)

	sweepJob, err := cron.NewRateLimitSweepJob(cron.RateLimitSweepJobParams{
		Logger:  logg,
		Limiter: limiter,
	})
	requireResource(ctx, logg, "rate limit sweep job", err)

	backlogJob, err := cron.NewOrderBacklogJob(cron.OrderBacklogJobParams{
		Logger:  logg,
		Orders:  adminOrderService,
		Metrics: orderMetrics,
	})
	requireResource(ctx, logg, "order backlog job", err)

	cronService, err := cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Registry: cron.NewRegistry(sweepJob, backlogJob),
		Metrics:  jobMetrics,
		Interval: cfg.RateLimit.SweepInterval,
	})
	requireResource(ctx, logg, "cron service", err)

	router := routes.NewRouter(routes.Dependencies{
		Config: cfg,
		Logger: logg,
		Health: map[string]controllers.Pinger{
			"db":    dbClient,
			"redis": redisClient,
		},
		Sessions:    sessionManager,
		Limiter:     limiter,
		Idempotency: redisClient,
		Gatherer:    registry,
		HTTPMetrics: httpMetrics,
		Calendar:    calendar,
		Auth:        authService,
		Profiles:    profileService,
		Orders:      orderService,
		AdminOrders: adminOrderService,
		Catalog:     catalogService,
	})

	server := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	runCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := cronService.Run(runCtx); err != nil && !errors.Is(err, context.Canceled) {
			logg.Error(ctx, "cron service stopped", err)
		}
	}()

	serveErr := make(chan error, 1)
	go func() {
		logg.Info(ctx, "starting api server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	exitCode := 0
	select {
	case err := <-serveErr:
		if err != nil {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			exitCode = 1
		}
	case <-runCtx.Done():
		logg.Info(ctx, "shutdown signal received")
	}
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	var closeErr error
	multierr.AppendInto(&closeErr, server.Shutdown(shutdownCtx))
	multierr.AppendInto(&closeErr, redisClient.Close())
	multierr.AppendInto(&closeErr, dbClient.Close())
	if closeErr != nil {
		logg.Error(ctx, "shutdown incomplete", closeErr)
		exitCode = 1
	}
	reporter.Flush(flushTimeout)

	logg.Info(ctx, "api server stopped")
	if exitCode != 0 {
		os.Exit(exitCode)
	}
}

func requireResource(ctx context.Context, logg *logger.Logger, resource string, err error) {
	if err == nil {
		return
	}
	logg.Error(ctx, fmt.Sprintf("resource not working: %s", resource), err)
	os.Exit(1)
}
