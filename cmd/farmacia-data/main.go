package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"farmacia-data/internal/app"
	"farmacia-data/internal/common/logger"
	"farmacia-data/internal/config"
	httpapi "farmacia-data/internal/http"
	"farmacia-data/internal/service"

	"go.uber.org/zap"
)

func main() {
	cfg := config.Load()

	log, err := logger.NewLogger(cfg.Log.Level, cfg.Log.Format, "farmacia-data")
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	st, err := app.OpenStore(ctx, cfg, log)
	if err != nil {
		log.Fatal("Failed to open store", zap.String("backend", cfg.Store.Backend), zap.Error(err))
	}
	a := app.New(ctx, cfg, st, log)
	defer a.Close()

	if cfg.SeedDefaultUsers {
		if _, err := a.Users.SeedDefaults(ctx); err != nil {
			log.Error("Failed to seed default users", zap.Error(err))
		}
	}

	router := httpapi.NewAPI(httpapi.Services{
		Users:     a.Users,
		Inventory: a.Inventory,
		Residents: a.Residents,
		Ledger:    a.Ledger,
		Imports:   a.Imports,
		Reports:   a.Reports,
		Store:     a.Store,
		Metrics:   a.Metrics.Handler(),
	}, log)

	srv := service.NewServer(cfg.HTTP.Addr, router, log)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Info("Received signal", zap.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil {
			log.Error("HTTP server failed", zap.Error(err))
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Stop(shutdownCtx); err != nil {
		log.Error("Failed to stop server", zap.Error(err))
	}
}
