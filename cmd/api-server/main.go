package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"foodgram/internal/cache"
	"foodgram/internal/logging"
	"foodgram/internal/middleware"
	synchub "foodgram/internal/sync"
	"foodgram/pkg/database"
	"foodgram/pkg/utils"
)

func main() {
	cfg, err := utils.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("load config")
	}
	logging.Init(logging.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})
	gin.SetMode(gin.ReleaseMode)

	db, err := database.OpenAndMigrate(database.Config{Path: cfg.Database.Path})
	if err != nil {
		logging.Fatal().Err(err).Str("path", cfg.Database.Path).Msg("open database")
	}
	defer db.Close()

	startCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	ingredientCache, err := cache.New(startCtx, cache.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
		TTL:      cfg.Redis.TTL,
	})
	cancel()
	if err != nil {
		// search still works uncached
		logging.Warn().Err(err).Msg("redis unavailable, ingredient cache disabled")
		ingredientCache = cache.Nop{}
	}

	hub := synchub.NewHub()
	limiter := middleware.NewRateLimiter(cfg.Server.RateLimit, cfg.Server.RateBurst)
	stopSweep := make(chan struct{})
	go limiter.Run(time.Minute, stopSweep)

	httpSrv := &http.Server{
		Addr: cfg.Server.HTTPAddr,
		Handler: newRouter(deps{
			cfg:     *cfg,
			db:      db,
			hub:     hub,
			cache:   ingredientCache,
			limiter: limiter,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 2)
	var wg sync.WaitGroup

	var tcpSrv *synchub.Server
	if cfg.Server.SyncAddr != "" {
		tcpSrv = synchub.NewServer(cfg.Server.SyncAddr, hub)
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := tcpSrv.Run(); err != nil {
				errCh <- err
			}
		}()
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		logging.Info().Str("addr", cfg.Server.HTTPAddr).Str("db", cfg.Database.Path).Msg("HTTP API server listening")
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logging.Info().Str("signal", sig.String()).Msg("shutdown signal received")
	case err := <-errCh:
		logging.Error().Err(err).Msg("server error")
	}

	logging.Info().Msg("shutting down servers")
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()

	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		logging.Error().Err(err).Msg("http shutdown")
	}
	if tcpSrv != nil {
		if err := tcpSrv.Close(); err != nil {
			logging.Error().Err(err).Msg("tcp shutdown")
		}
	}
	hub.Stop()
	close(stopSweep)

	wg.Wait()
	logging.Info().Msg("servers stopped")
}
