package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/KenThuan129/startup-simulation-game/internal/app"
	"github.com/KenThuan129/startup-simulation-game/internal/bot"
	"github.com/KenThuan129/startup-simulation-game/internal/config"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.LoadBotFromEnv()
	if err != nil {
		slog.Error("load config", "err", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: config.LogLevel()}))
	rt, err := app.Open(ctx, cfg.Store, logger)
	if err != nil {
		logger.Error("runtime init failed", "err", err)
		os.Exit(1)
	}
	defer rt.Close()

	b, err := bot.New(cfg, logger, rt.Game, rt.Content)
	if err != nil {
		logger.Error("bot init failed", "err", err)
		os.Exit(1)
	}
	if err := b.Open(); err != nil {
		logger.Error("bot open failed", "err", err)
		os.Exit(1)
	}
	logger.Info("startupsim bot running", "guild_id", cfg.GuildID)

	<-ctx.Done()
	if err := b.Close(); err != nil {
		logger.Error("bot close failed", "err", err)
	}
	logger.Info("bot shutdown")
}
