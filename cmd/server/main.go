package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/exp/slog"

	"postercart/internal/app/server/api"
	"postercart/internal/app/server/config"
	cartDomain "postercart/internal/domain/cart"
	"postercart/internal/infrastructure/cache"
	"postercart/internal/infrastructure/storage/postgres"
	"postercart/internal/utils/logger"
)

const sessionCleanupInterval = time.Hour

func main() {
	cfg := config.MustLoad()
	log := logger.New(cfg.Env)

	if err := run(cfg, log); err != nil {
		log.Error("server stopped with error", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()

	storage, err := postgres.New(ctx, cfg)
	if err != nil {
		return err
	}
	defer storage.Close()

	var cartCache cartDomain.Cache
	if cfg.CacheEnabled() {
		client, err := cache.Connect(ctx, cfg.Redis.Address, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			log.Warn("redis unavailable, cart cache disabled", "error", err)
		} else {
			defer client.Close()
			cartCache = cache.NewRedisCache(client, cfg.Cart.CacheTTL)
		}
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	srv := &http.Server{
		Addr: cfg.Server.RunAddress,
		Handler: api.New(api.Deps{
			Config:   cfg,
			Storage:  storage,
			Cache:    cartCache,
			Registry: registry,
		}, log),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go cleanupSessions(ctx, postgres.NewSessionRepository(storage.Pool(), log), log)

	errCh := make(chan error, 1)
	go func() {
		log.Info("server started", "address", cfg.Server.RunAddress, "env", cfg.Env, "cache", cartCache != nil)
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
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func cleanupSessions(ctx context.Context, repo *postgres.SessionRepository, log *slog.Logger) {
	ticker := time.NewTicker(sessionCleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := repo.DeleteExpired(ctx)
			if err != nil {
				log.Warn("session cleanup failed", "error", err)
				continue
			}
			if n > 0 {
				log.Debug("expired sessions removed", "count", n)
			}
		}
	}
}
