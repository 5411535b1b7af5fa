package main

import (
	"context"
	"errors"
	"os"
	"time"

	"pobrify/internal/amqp"
	"pobrify/internal/backend"
	"pobrify/internal/cli"
	"pobrify/internal/log"
	"pobrify/internal/notifier"
	"pobrify/internal/scheduler"
	"pobrify/internal/services"
	gsheet "pobrify/internal/sheets/google"
	"pobrify/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(log.ComponentWorker)
	logger.Info("Starting pobrify-worker")
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
	plans := services.NewPlanService(settings, res.Store, res.Store)

	var exporter worker.WeekExporter
	if cfg.SheetsEnabled() {
		e, err := gsheet.New(ctx, gsheet.Config{
			SpreadsheetID:   cfg.GoogleSpreadsheetID,
			SheetName:       cfg.GoogleSheetName,
			CredentialsJSON: cfg.GoogleServiceAccountJSON,
			CredentialsFile: cfg.GoogleServiceAccountFile,
		})
		if err != nil {
			logger.Error("Failed to initialize Google Sheets exporter", "error", err)
			os.Exit(1)
		}
		exporter = e
		logger.Info("Google Sheets export enabled", "spreadsheet_id", cfg.GoogleSpreadsheetID)
	} else {
		logger.Info("Google Sheets export disabled - no GOOGLE_SPREADSHEET_ID provided")
	}

	var n notifier.Notifier = notifier.LogNotifier{Logger: logger.WithComponent(log.ComponentNotifier).Slog()}
	if cfg.TelegramEnabled() {
		tg, err := notifier.NewTelegram(cfg.TelegramBotToken, cfg.TelegramChatID)
		if err != nil {
			logger.Error("Failed to initialize Telegram notifier", "error", err)
			os.Exit(1)
		}
		n = tg
		logger.Info("Telegram notifications enabled")
	}

	events := worker.NewEventWorker(plans, res.Store, exporter, n)

	sched := scheduler.New(ctx, events, cfg.Location())
	if err := sched.Register(scheduler.Specs{DailyPlan: cfg.DailyPlanCron, WeeklySync: cfg.WeeklySyncCron}); err != nil {
		logger.Error("Failed to register scheduled jobs", "error", err)
		os.Exit(1)
	}
	sched.Start()

	consumerDone := make(chan struct{})
	if client, ok := res.Publisher.(*amqp.Client); ok {
		go func() {
			defer close(consumerDone)
			if err := client.Consume(ctx, events.Handle); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("Event consumption failed", "error", err)
				stop()
			}
		}()
	} else {
		close(consumerDone)
		logger.Warn("AMQP not available - running scheduled jobs only")
	}

	<-ctx.Done()
	logger.Info("Shutdown signal received")

	cli.Shutdown(logger, 30*time.Second,
		func(context.Context) error { sched.Stop(); return nil },
		func(ctx context.Context) error {
			select {
			case <-consumerDone:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		},
		func(context.Context) error { return res.Cleanup() },
	)
}
