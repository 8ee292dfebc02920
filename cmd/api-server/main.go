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

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/hackgods/branch-appointment-booking/internal/api"
	"github.com/hackgods/branch-appointment-booking/internal/booking"
	"github.com/hackgods/branch-appointment-booking/internal/branch"
	"github.com/hackgods/branch-appointment-booking/internal/commit"
	"github.com/hackgods/branch-appointment-booking/internal/config"
	"github.com/hackgods/branch-appointment-booking/internal/db"
	"github.com/hackgods/branch-appointment-booking/internal/logging"
	"github.com/hackgods/branch-appointment-booking/internal/observability/metrics"
	redisclient "github.com/hackgods/branch-appointment-booking/internal/redis"
	"github.com/hackgods/branch-appointment-booking/internal/session"
)

var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load error: %v\n", err)
		os.Exit(1)
	}

	log, err := logging.New(cfg.Env, cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger init error: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	log.Info("api-server starting up", zap.String("http_port", cfg.HTTPPort), zap.String("version", version))

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var (
		pgPool    *pgxpool.Pool
		rdb       *redis.Client
		directory branch.Directory = branch.NewStaticDirectory(nil)
		sink      commit.Sink      = commit.NewLogSink(log)
		locker    redisclient.Locker
	)

	if cfg.RedisAddr != "" {
		rdb, err = redisclient.NewRedisClient(rootCtx, cfg.RedisAddr, cfg.RedisUsername, cfg.RedisPassword)
		if err != nil {
			log.Fatal("redis connection error", zap.Error(err))
		}
		defer func() {
			if err := rdb.Close(); err != nil {
				log.Warn("error closing redis", zap.Error(err))
			}
		}()
		locker = redisclient.NewRedisSlotLocker(rdb, cfg.LockTTL)
		log.Info("connected to Redis", zap.String("addr", cfg.RedisAddr))
	}

	if cfg.PostgresDSN != "" {
		pgCtx, cancelPg := context.WithTimeout(rootCtx, 10*time.Second)
		pgPool, err = db.ConnectPostgres(pgCtx, cfg.PostgresDSN)
		cancelPg()
		if err != nil {
			log.Fatal("postgres connection error", zap.Error(err))
		}
		defer pgPool.Close()

		if err := db.Migrate(rootCtx, pgPool); err != nil {
			log.Fatal("schema migration error", zap.Error(err))
		}
		log.Info("connected to Postgres")

		directory = branch.NewPgDirectory(pgPool)
		sink = commit.NewPgSink(pgPool, locker, log)
	} else {
		log.Warn("POSTGRES_DSN not set, using built-in branches and log-only booking sink")
	}

	if rdb != nil {
		directory = branch.NewCachedDirectory(directory, rdb, cfg.BranchCacheTTL, log)
	}

	wizardMetrics := metrics.NewWizardMetrics(nil)
	issuer := booking.NewIssuer()
	sessions := session.NewStore(cfg.SessionTTL, func() *booking.Wizard {
		return booking.NewWizard(issuer)
	}, log, wizardMetrics)
	go sessions.Run(rootCtx, cfg.SessionSweepInterval)

	router := api.NewRouter(api.RouterConfig{
		Sessions:  sessions,
		Cookies:   api.NewSessionCookies(cfg.SessionHashKey, cfg.SessionBlockKey, cfg.SessionTTL),
		Directory: directory,
		Sink:      sink,
		Metrics:   wizardMetrics,
		Logger:    log,
		PgPool:    pgPool,
		Redis:     rdb,
		Env:       cfg.Env,
		Version:   version,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Info("http server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("http server error", zap.Error(err))
		}
	}()

	<-rootCtx.Done()
	log.Info("shutting down api-server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", zap.Error(err))
	}
}
