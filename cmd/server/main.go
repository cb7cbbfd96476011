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

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/shubhamkhavare/rate-limiter/internal/cache"
	"github.com/shubhamkhavare/rate-limiter/internal/config"
	"github.com/shubhamkhavare/rate-limiter/internal/httpapi"
	"github.com/shubhamkhavare/rate-limiter/internal/limiter"
	"github.com/shubhamkhavare/rate-limiter/internal/log"
	"github.com/shubhamkhavare/rate-limiter/internal/stats"
	"github.com/shubhamkhavare/rate-limiter/internal/store"
	"github.com/shubhamkhavare/rate-limiter/internal/utils"
)

func main() {
	logger := log.Logger()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("failed to load config", zap.Error(err))
	}

	eventStore, err := initStore(cfg.Store)
	if err != nil {
		logger.Fatal("failed to init event store", zap.Error(err))
	}
	defer eventStore.Close()

	counterCache, err := initCache(cfg.Cache)
	if err != nil {
		logger.Fatal("failed to init counter cache", zap.Error(err))
	}

	engine, err := limiter.New(eventStore, counterCache,
		limiter.WithFailOpen(cfg.RateLimiter.FailOpen))
	if err != nil {
		logger.Fatal("failed to create engine", zap.Error(err))
	}

	aggregator, err := stats.New(eventStore)
	if err != nil {
		logger.Fatal("failed to create stats aggregator", zap.Error(err))
	}

	handler := httpapi.NewHandler(httpapi.Config{
		Engine:     engine,
		Aggregator: aggregator,
		UseCache:   cfg.RateLimiter.UseCache,
		PingPolicy: limiter.Policy{
			Limit:    cfg.RateLimiter.PingLimit,
			Window:   cfg.RateLimiter.PingWindow,
			Strategy: limiter.Sliding,
		},
	})

	r := chi.NewRouter()
	r.Use(httpapi.RequestLogger)
	handler.Register(r, utils.NewClientIPExtractor())
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: r,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server error", zap.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
}

func initStore(cfg config.StoreConfig) (store.Store, error) {
	switch cfg.Type {
	case "sqlite":
		return store.NewSQLStore(cfg.SQLitePath)
	case "memory":
		return store.NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unsupported store type: %s", cfg.Type)
	}
}

func initCache(cfg config.CacheConfig) (cache.Cache, error) {
	switch cfg.Type {
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := client.Ping(ctx).Err(); err != nil {
			return nil, fmt.Errorf("failed to reach redis at %s: %w", cfg.Redis.Addr, err)
		}
		return cache.NewRedisCache(client), nil
	case "memory":
		return cache.NewMemoryCache(), nil
	case "none":
		return nil, nil
	default:
		return nil, fmt.Errorf("unsupported cache type: %s", cfg.Type)
	}
}
