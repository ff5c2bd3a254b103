package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"paper-hub/config"
	"paper-hub/services"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

func main() {
	logging, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("can't initialize zap logger: %v", err)
	}
	defer logging.Sync()

	cfg, err := config.Load()
	if err != nil {
		logging.Fatal("Config load error", zap.Error(err))
	}
	if err := cfg.Validate(); err != nil {
		logging.Fatal("Invalid configuration", zap.Error(err))
	}

	ctx := context.Background()
	library, err := services.OpenSession(ctx, cfg, logging)
	if err != nil {
		logging.Fatal("Failed to open library store", zap.Error(err))
	}
	if err := library.Connect(ctx); err != nil {
		logging.Fatal("Failed to connect library session", zap.Error(err))
	}
	logging.Info("Library loaded",
		zap.Int("papers", len(library.State().Papers)),
		zap.String("version", string(library.State().Version)))

	router := newRouter(cfg, library, logging)

	// Regelmäßig neu laden, damit Änderungen anderer Clients sichtbar werden
	cronScheduler := cron.New()
	if _, err := cronScheduler.AddFunc(cfg.RefreshSchedule, func() {
		if err := library.Refresh(context.Background()); err != nil {
			logging.Error("Scheduled refresh failed", zap.Error(err))
			return
		}
		logging.Debug("Scheduled refresh completed", zap.Int("papers", len(library.State().Papers)))
	}); err != nil {
		logging.Fatal("Invalid REFRESH_SCHEDULE", zap.String("schedule", cfg.RefreshSchedule), zap.Error(err))
	}
	cronScheduler.Start()
	defer cronScheduler.Stop()

	logging.Info("Starting server", zap.String("port", cfg.HTTPPort))
	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadTimeout:       30 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	if err := srv.ListenAndServe(); err != nil {
		logging.Fatal("Failed to run server", zap.Error(err))
	}
}
