package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"rosterd/internal/analytics"
	"rosterd/internal/audit"
	"rosterd/internal/auth"
	authstore "rosterd/internal/auth/store"
	entriesservice "rosterd/internal/entries/service"
	leaveservice "rosterd/internal/leave/service"
	"rosterd/internal/platform/config"
	"rosterd/internal/platform/database"
	"rosterd/internal/platform/httpserver"
	"rosterd/internal/platform/logger"
	"rosterd/internal/platform/metrics"
	"rosterd/internal/platform/redis"
	"rosterd/internal/policy"
	transferservice "rosterd/internal/transfer/service"
	httptransport "rosterd/internal/transport/http"
	"rosterd/internal/uow"
	workservice "rosterd/internal/work/service"
	"rosterd/migrations"
)

// main wires dependencies and owns the server lifecycle. Business logic lives
// in the internal service packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New()
	m := metrics.New()

	// Postgres is optional: without DATABASE_URL everything runs on the
	// in-memory unit of work, which is enough for local development.
	dbCfg := database.DefaultConfig()
	dbCfg.URL = cfg.DatabaseURL
	pool, err := database.New(dbCfg)
	if err != nil {
		log.Error("database connection failed", "error", err)
		os.Exit(1)
	}

	var unit uow.UnitOfWork
	var drivers authstore.Store
	if pool != nil {
		if err := database.Migrate(context.Background(), pool.DB(), migrations.FS); err != nil {
			log.Error("migrations failed", "error", err)
			os.Exit(1)
		}
		unit = uow.NewPostgres(pool.DB())
		drivers = authstore.NewPostgres(pool.DB())
		log.Info("using postgres storage")
	} else {
		unit = uow.NewMemory()
		drivers = authstore.NewMemoryStore()
		log.Warn("DATABASE_URL not set, using in-memory storage")
	}

	redisClient, err := redis.New(cfg.RedisURL)
	if err != nil {
		log.Error("redis connection failed", "error", err)
		os.Exit(1)
	}
	var cache *analytics.DailyCache
	if redisClient != nil {
		cache = analytics.NewDailyCache(redisClient.Client, log)
	}

	var publisher *audit.Publisher
	if cfg.KafkaBrokers != "" {
		sink, err := audit.NewKafkaSink(cfg.KafkaBrokers, cfg.AuditTopic)
		if err != nil {
			log.Error("kafka connection failed", "error", err)
			os.Exit(1)
		}
		publisher = audit.NewPublisher(sink, log, 256)
		defer publisher.Close()
	}

	workOpts := []workservice.Option{}
	leaveOpts := []leaveservice.Option{}
	transferOpts := []transferservice.Option{}
	if publisher != nil {
		workOpts = append(workOpts, workservice.WithAuditor(publisher))
		leaveOpts = append(leaveOpts, leaveservice.WithAuditor(publisher))
		transferOpts = append(transferOpts, transferservice.WithAuditor(publisher))
	}
	if cache != nil {
		workOpts = append(workOpts, workservice.WithCacheInvalidator(cache))
		leaveOpts = append(leaveOpts, leaveservice.WithCacheInvalidator(cache))
	}

	maxShift := policy.NewMaxShiftDurationPolicy(cfg.MaxShiftHours)
	rangeLimit := policy.NewMaxAnalyticsRangePolicy(cfg.AnalyticsMaxRangeDays)

	workSvc := workservice.NewService(unit, maxShift, log, m, workOpts...)
	leaveSvc := leaveservice.NewService(unit, log, m, leaveOpts...)
	transferSvc := transferservice.NewService(unit, log, m, transferOpts...)
	entriesSvc := entriesservice.NewService(unit, log)
	analyticsSvc := analytics.NewService(unit, rangeLimit, cache, log, m)

	jwtSvc := auth.NewJWTService(cfg.JWTSigningKey, cfg.TokenTTL)
	verifier := auth.NewTokenInfoVerifier(cfg.GoogleTokenInfoURL)
	authSvc := auth.NewService(verifier, jwtSvc, drivers, log)

	health := map[string]httptransport.HealthChecker{}
	if pool != nil {
		health["postgres"] = pool
	}
	if redisClient != nil {
		health["redis"] = redisClient
	}

	router := httptransport.NewRouter(httptransport.RouterConfig{
		Auth:           httptransport.NewAuthHandler(authSvc, log),
		Work:           httptransport.NewWorkHandler(workSvc, log),
		Leave:          httptransport.NewLeaveHandler(leaveSvc, log),
		Transfers:      httptransport.NewTransferHandler(transferSvc, log),
		Entries:        httptransport.NewEntriesHandler(entriesSvc, log),
		Analytics:      httptransport.NewAnalyticsHandler(analyticsSvc, log),
		TokenValidator: jwtSvc,
		Logger:         log,
		Metrics:        m,
		HealthChecks:   health,
	})

	srv := httpserver.New(cfg.Addr, router)

	go func() {
		log.Info("starting rosterd", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	log.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
	}

	if pool != nil {
		_ = pool.Close()
	}
	if redisClient != nil {
		_ = redisClient.Close()
	}
}
