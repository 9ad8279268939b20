package config

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/KenThuan129/startup-simulation-game/internal/sim"
)

func TestLoadAPIFromEnv(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("STARTUPSIM_ADMIN_TOKEN", "secret")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("STARTUPSIM_SQLITE_PATH", "")

	cfg, err := LoadAPIFromEnv()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Addr != ":9090" {
		t.Fatalf("got addr=%q want :9090", cfg.Addr)
	}
	if cfg.Store.UsePostgres() || cfg.Store.SQLitePath != "startupsim.db" {
		t.Fatalf("unexpected store config %+v", cfg.Store)
	}

	t.Setenv("STARTUPSIM_ADMIN_TOKEN", "")
	if _, err := LoadAPIFromEnv(); err == nil {
		t.Fatalf("expected error without admin token")
	}
}

func TestLoadBotFromEnv(t *testing.T) {
	t.Setenv("DISCORD_TOKEN", "tok")
	t.Setenv("DISCORD_APP_ID", "app")
	t.Setenv("STARTUPSIM_COMMAND_RATE", "0.5")
	t.Setenv("STARTUPSIM_COMMAND_BURST", "nope")

	cfg, err := LoadBotFromEnv()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.CommandRate != 0.5 || cfg.CommandBurst != 5 {
		t.Fatalf("rate=%v burst=%d", cfg.CommandRate, cfg.CommandBurst)
	}

	t.Setenv("DISCORD_APP_ID", "")
	if _, err := LoadBotFromEnv(); err == nil {
		t.Fatalf("expected error without app id")
	}
}

func TestLoadWorkerFromEnv(t *testing.T) {
	t.Setenv("STARTUPSIM_SWEEP_EVERY", "30s")
	t.Setenv("STARTUPSIM_WORKER_RUN_ONCE", "true")
	cfg := LoadWorkerFromEnv()
	if cfg.SweepEvery != 30*time.Second || !cfg.RunOnce {
		t.Fatalf("unexpected worker config %+v", cfg)
	}
}

func TestLogLevel(t *testing.T) {
	t.Setenv("STARTUPSIM_LOG_LEVEL", "DEBUG")
	if got := LogLevel(); got != slog.LevelDebug {
		t.Fatalf("got %v want debug", got)
	}
	t.Setenv("STARTUPSIM_LOG_LEVEL", "")
	if got := LogLevel(); got != slog.LevelInfo {
		t.Fatalf("got %v want info", got)
	}
}

func TestLoadTuningDefaults(t *testing.T) {
	got, err := LoadTuning(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.MaxDay != 90 || got.BossDay != 45 {
		t.Fatalf("unexpected defaults %+v", got)
	}
}

func TestLoadTuningOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tuning.yaml")
	raw := []byte(`
max_day: 60
boss_day: 30
boss_turn_timeout: 2h
difficulties:
  hard:
    initial_cash: 9000
`)
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	got, err := LoadTuning(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.MaxDay != 60 || got.BossDay != 30 || got.BossTurnTimeout != 2*time.Hour {
		t.Fatalf("unexpected tuning %+v", got)
	}
	hard := got.Difficulty(sim.DifficultyHard)
	if hard.InitialCash != 9000 || hard.ActionLimit != 3 {
		t.Fatalf("partial override lost defaults: %+v", hard)
	}
	if got.AnomalyChance != 0.25 {
		t.Fatalf("anomaly chance got %v want 0.25", got.AnomalyChance)
	}
}

func TestParseTuningRejects(t *testing.T) {
	tests := []string{
		"boss_day: 120\n",
		"anomaly_chance: 1.5\n",
		"difficulties:\n  nightmare:\n    action_limit: 2\n",
		"difficulties:\n  easy:\n    action_limit: 0\n",
	}
	for _, raw := range tests {
		if _, err := ParseTuning([]byte(raw)); !errors.Is(err, ErrInvalidTuning) {
			t.Fatalf("%q: expected invalid tuning, got %v", raw, err)
		}
	}
}
