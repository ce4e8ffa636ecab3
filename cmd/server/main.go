package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	redisv9 "github.com/redis/go-redis/v9"

	"chart_backend/internal/app/di"
	"chart_backend/internal/app/router"
	"chart_backend/internal/feature/ingest/adapters"
	"chart_backend/internal/platform/config"
	infradb "chart_backend/internal/platform/db"
	platformhandler "chart_backend/internal/platform/http/handler"
	"chart_backend/internal/platform/logger"
	infraredis "chart_backend/internal/platform/redis"
	"chart_backend/internal/platform/scheduler"
	"chart_backend/internal/shared/ratelimiter"
)

func main() {
	configPath := flag.String("config", os.Getenv("CONFIG_PATH"), "path to an optional YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	log := logger.New(os.Stdout, cfg.App.LogLevel, cfg.App.LogFormat)
	slog.SetDefault(log)
	gin.SetMode(gin.ReleaseMode)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("server stopped with error", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, log *slog.Logger) error {
	// db
	db, err := infradb.OpenDB(infradb.Config{
		Driver:         cfg.DB.Driver,
		DSN:            cfg.DB.DSN,
		ConnectTimeout: cfg.DB.ConnectTimeout,
		RunMigrations:  *cfg.DB.RunMigrations,
	}, adapters.Models()...)
	if err != nil {
		return err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	defer func() { _ = sqlDB.Close() }()
	checks := []platformhandler.Check{{Name: "db", Fn: sqlDB.PingContext}}

	// Redis
	var rdb *redisv9.Client
	if addr := cfg.RedisAddr(); addr != "" {
		if tmp, err := infraredis.NewRedisClient(ctx, addr, cfg.Redis.Password, cfg.Redis.DB); err != nil {
			log.Warn("Redis unavailable. Running without cache.", "error", err)
		} else {
			rdb = tmp
			defer func() {
				if err := rdb.Close(); err != nil {
					log.Error("failed to close Redis client", "error", err)
				}
			}()
			checks = append(checks, platformhandler.Check{
				Name: "redis",
				Fn:   func(ctx context.Context) error { return rdb.Ping(ctx).Err() },
			})
		}
	}

	// Repository (Redisキャッシュでラップ)
	store := di.NewDatasetStore(db, rdb, cfg.Redis.CacheTTL)

	// 期限切れデータセットの定期削除
	sched := scheduler.NewScheduler(ctx, store)
	if err := sched.RegisterPurge(cfg.Purge.Cron); err != nil {
		return err
	}
	sched.Start()
	defer sched.Stop()

	// JWT_SECRETチェック
	if cfg.JWT.Secret == "" {
		log.Warn("JWT_SECRET is not set. Uploads will fail until a secret is configured.")
	}

	// ルータ生成
	r := router.NewRouter(
		di.NewUploadHandler(cfg, store),
		di.NewSeriesHandler(store),
		router.Options{
			Logger:        log,
			JWTSecret:     cfg.JWT.Secret,
			AllowOrigins:  cfg.CORS.AllowOrigins,
			UploadLimiter: ratelimiter.NewRateLimiter(*cfg.Upload.RatePerMinute, time.Minute),
			HealthChecks:  checks,
		},
	)

	srv := &http.Server{
		Addr:              ":" + strconv.Itoa(cfg.App.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
