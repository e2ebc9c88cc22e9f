package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"teamtask/api"
	"teamtask/cache"
	"teamtask/common"
	"teamtask/component"
	"teamtask/config"
	"teamtask/middleware"
	"teamtask/storage/sqlite"
	"teamtask/system"
	"teamtask/ws"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"
	"gopkg.in/natefinch/lumberjack.v2"
)

func main() {
	configPath := flag.String("config", os.Getenv("TEAMTASK_CONFIG"), "path to the YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal(err)
	}

	logger := InitLogger(cfg.Log)
	defer logger.Sync()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := sqlite.Open(ctx, cfg.Database.Path, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := system.Seed(ctx, store, cfg.Seed, logger); err != nil {
		return err
	}
	if err := system.RegisterMetrics(prometheus.DefaultRegisterer); err != nil {
		return err
	}

	var statsCache *cache.Cache
	var limiter *middleware.RateLimiter
	if cfg.Redis.Enabled {
		client, err := cache.InitRedis(ctx, cfg.Redis.Addr)
		if err != nil {
			logger.Warn("redis unavailable, caching and rate limiting disabled", zap.Error(err))
		} else {
			defer client.Close()
			statsCache = cache.New(client, cfg.Cache.TTL)
			limiter = middleware.NewRateLimiter(client, cfg.RateLimit.Limit, cfg.RateLimit.Window)
		}
	}

	hub := ws.NewHub(logger)
	pool := system.NewNotificationWorkerPool(hub, cfg.Notifications.Workers, cfg.Notifications.QueueSize, logger)

	notifier := system.NewNotifier(store, statsCache, pool, logger)
	h := system.NewHandler(store,
		system.NewAssignmentService(store, statsCache, notifier, component.Clock(time.Now), logger),
		system.NewQueryService(store, statsCache, logger),
		notifier,
		common.NewTokenIssuer(cfg.JWT.Secret, cfg.JWT.TTL),
		logger,
	)

	srv := &http.Server{
		Addr: cfg.Server.Addr,
		Handler: api.NewRouter(api.Deps{
			Handler:     h,
			Hub:         hub,
			Limiter:     limiter,
			Logger:      logger,
			CORSOrigins: cfg.Server.CORSOrigins,
		}),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		hub.Run(gctx)
		return nil
	})
	pool.Start(gctx)
	g.Go(func() error {
		logger.Info("server is running", zap.String("addr", cfg.Server.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		err := srv.Shutdown(shutdownCtx)
		pool.Stop()
		return err
	})

	return g.Wait()
}

func InitLogger(cfg config.LogConfig) *zap.Logger {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		level = zapcore.InfoLevel
	}

	file := zapcore.AddSync(&lumberjack.Logger{
		Filename:   cfg.File,
		MaxSize:    cfg.MaxSizeMB, // MB
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAgeDays, // days
	})

	encoder := zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
	core := zapcore.NewTee(
		zapcore.NewCore(encoder, file, level),
		zapcore.NewCore(encoder, zapcore.Lock(os.Stdout), level),
	)

	return zap.New(core, zap.AddCaller())
}
