package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"pobrify/internal/backend"
	"pobrify/internal/cache"
	"pobrify/internal/cli"
	apphttp "pobrify/internal/http"
	"pobrify/internal/itemlookup"
	"pobrify/internal/log"
	"pobrify/internal/services"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(log.ComponentApp)
	cfg := cli.LoadAndValidateConfig(logger)

	ctx, stop := cli.SignalContext()
	defer stop()

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", "error", err)
		os.Exit(1)
	}
	res, err := backend.NewFactory(logger.WithComponent(log.ComponentStorage).Slog()).Create(ctx, backendCfg)
	if err != nil {
		logger.Error("Failed to initialize backend", "error", err, "backend", cfg.DataBackend)
		os.Exit(1)
	}

	settings := services.NewSettingsService(res.Store, cfg.Allocation, cfg.Rates)

	items := cache.NewLRUCache[itemlookup.Response](cfg.ItemCacheSize, cfg.ItemCacheTTL)
	pages := cache.NewLRUCache[itemlookup.Preview](cfg.ItemCacheSize, cfg.ItemCacheTTL)
	lookup := itemlookup.New(items, pages, itemlookup.WithLogger(logger.WithComponent(log.ComponentCatalog).Slog()))
	go cache.NewJanitor(logger.WithComponent(log.ComponentCache).Slog(), items, pages).Run(ctx, 10*time.Minute)

	goals := services.NewGoalService(settings, res.Store, res.Store, res.Publisher)
	svc := apphttp.Services{
		Settings: settings,
		Goals:    goals,
		Records:  services.NewRecordService(res.Store, res.Store, res.Publisher, goals),
		Plans:    services.NewPlanService(settings, res.Store, res.Store),
		Catalog:  services.NewCatalogService(res.Store, res.Store, lookup),
	}
	srv := apphttp.NewServer(apphttp.Config{
		Addr:        ":" + cfg.Port,
		CORSOrigins: cfg.CORSOrigins,
		RateLimit:   cfg.RateLimit,
		Ready:       res.Ready,
	}, svc, logger)
	srv.MaxHeaderBytes = 1 << 16

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Starting pobrify server", "port", cfg.Port, "backend", cfg.DataBackend, "events", res.Publisher != nil)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	failed := false
	select {
	case <-ctx.Done():
		logger.Info("Shutdown signal received")
	case err := <-errCh:
		if err != nil {
			logger.Error("Server error", "error", err, "port", cfg.Port)
			failed = true
		}
	}

	cli.Shutdown(logger, 30*time.Second,
		srv.Shutdown,
		func(context.Context) error { return res.Cleanup() },
	)
	if failed {
		os.Exit(1)
	}
}
