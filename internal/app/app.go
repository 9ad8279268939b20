// Package app wires storage, locking, tuning and content into a game.Service
// for the binaries.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/KenThuan129/startup-simulation-game/internal/config"
	"github.com/KenThuan129/startup-simulation-game/internal/content"
	"github.com/KenThuan129/startup-simulation-game/internal/db"
	"github.com/KenThuan129/startup-simulation-game/internal/game"
	"github.com/KenThuan129/startup-simulation-game/internal/lock"
	"github.com/KenThuan129/startup-simulation-game/internal/sim"
	"github.com/KenThuan129/startup-simulation-game/internal/store"
)

type Runtime struct {
	Game    *game.Service
	Content *content.Repository
	Store   store.Store

	closers []func() error
}

// LoadContent reads the content directory when one is configured and falls
// back to the embedded tables.
func LoadContent(dir string) (*content.Repository, error) {
	if dir == "" {
		return content.LoadDefault()
	}
	return content.LoadDir(dir)
}

// Open connects the configured store, migrates it and builds the service.
// Postgres is used when DatabaseURL is set, SQLite otherwise.
func Open(ctx context.Context, cfg config.StoreConfig, logger *slog.Logger) (*Runtime, error) {
	if logger == nil {
		logger = slog.Default()
	}
	rt := &Runtime{}
	ok := false
	defer func() {
		if !ok {
			_ = rt.Close()
		}
	}()

	repo, err := LoadContent(cfg.ContentDir)
	if err != nil {
		return nil, fmt.Errorf("load content: %w", err)
	}
	rt.Content = repo

	tuning, err := config.LoadTuning(cfg.TuningPath)
	if err != nil {
		return nil, fmt.Errorf("load tuning: %w", err)
	}

	if cfg.UsePostgres() {
		pool, err := db.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		rt.Store = store.NewPostgres(pool)
	} else {
		sqlDB, err := db.OpenSQLite(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		rt.Store = store.NewSQLite(sqlDB)
	}
	rt.closers = append(rt.closers, rt.Store.Close)
	if err := rt.Store.Migrate(ctx); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}

	var locker lock.Locker = lock.NewLocal()
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		rt.closers = append(rt.closers, client.Close)
		if err := client.Ping(ctx).Err(); err != nil {
			return nil, fmt.Errorf("ping redis: %w", err)
		}
		locker = lock.NewRedis(client)
	}

	rt.Game = game.NewService(rt.Store, locker, repo, tuning, sim.NewRand(time.Now().UnixNano()), logger)
	logger.Info("runtime ready",
		"store", storeKind(cfg),
		"redis_lock", cfg.RedisAddr != "",
		"content_digest", repo.Digest(),
		"max_day", tuning.MaxDay,
	)
	ok = true
	return rt, nil
}

func (r *Runtime) Close() error {
	var first error
	for i := len(r.closers) - 1; i >= 0; i-- {
		if err := r.closers[i](); err != nil && first == nil {
			first = err
		}
	}
	r.closers = nil
	return first
}

func storeKind(cfg config.StoreConfig) string {
	if cfg.UsePostgres() {
		return "postgres"
	}
	return "sqlite"
}
