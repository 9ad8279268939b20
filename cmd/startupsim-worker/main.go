package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/KenThuan129/startup-simulation-game/internal/app"
	"github.com/KenThuan129/startup-simulation-game/internal/config"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := config.LoadWorkerFromEnv()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: config.LogLevel()}))
	rt, err := app.Open(ctx, cfg.Store, logger)
	if err != nil {
		logger.Error("runtime init failed", "err", err)
		os.Exit(1)
	}
	defer rt.Close()

	if cfg.RunOnce {
		n, err := rt.Game.ExpireBossBattles(ctx)
		if err != nil {
			logger.Error("sweep failed", "err", err)
			os.Exit(1)
		}
		logger.Info("worker run-once completed", "expired", n)
		return
	}

	ticker := time.NewTicker(cfg.SweepEvery)
	defer ticker.Stop()

	logger.Info("worker started", "sweep_every", cfg.SweepEvery.String())
	for {
		select {
		case <-ctx.Done():
			logger.Info("worker shutdown")
			return
		case <-ticker.C:
			n, err := rt.Game.ExpireBossBattles(ctx)
			if err != nil {
				logger.Error("boss sweep failed", "err", err)
				continue
			}
			if n > 0 {
				logger.Info("boss sweep complete", "expired", n)
			}
		}
	}
}
