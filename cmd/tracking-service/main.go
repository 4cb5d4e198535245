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

	"tracking-service/internal/auth"
	"tracking-service/internal/config"
	"tracking-service/internal/db"
	httphandler "tracking-service/internal/http"
	"tracking-service/internal/http/middleware"
	"tracking-service/internal/logger"
	"tracking-service/internal/maprender"
	"tracking-service/internal/repository"
	"tracking-service/internal/service"
	"tracking-service/internal/upstream"
	"tracking-service/internal/ws"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	appLogger := logger.New(cfg.Environment)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var routeCache service.RouteCache
	if cfg.Cache.DSN != "" {
		database, err := db.New(cfg, appLogger)
		if err != nil {
			appLogger.Fatal().Err(err).Msg("failed to connect route cache database")
		}
		routeCache = repository.NewRouteCacheRepository(database)
	} else {
		appLogger.Info().Msg("route cache disabled")
	}

	client := upstream.NewClient(cfg.Upstream.BaseURL, cfg.Upstream.Timeout, appLogger)
	history := service.NewHistoryFetcher(client, routeCache, appLogger)

	hub := ws.NewHub(appLogger)
	renderer := maprender.NewAdapter(cfg.Tracking.RemountDelay)
	dashboard := service.NewDashboard(history, client, client, renderer, hub, appLogger)
	poller := service.NewPoller(client, dashboard, cfg.Tracking.PollInterval, appLogger)

	dashboard.Start(ctx)
	go hub.Run(ctx)
	go poller.Run(ctx)

	tokenParser := auth.NewParser(cfg.Auth.AccessSecret)

	handler := httphandler.NewHandler(dashboard, poller, hub, appLogger)
	authMiddleware := middleware.Auth(tokenParser)
	router := httphandler.NewRouter(handler, authMiddleware, cfg.Environment)

	addr := fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port)
	server := &http.Server{Addr: addr, Handler: router}

	go func() {
		appLogger.Info().Str("addr", addr).Str("upstream", cfg.Upstream.BaseURL).
			Msg("starting tracking service")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Error().Err(err).Msg("server failed")
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		appLogger.Error().Err(err).Msg("server shutdown failed")
	}
	appLogger.Info().Msg("tracking service stopped")
}
