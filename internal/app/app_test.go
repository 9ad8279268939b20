package app

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/KenThuan129/startup-simulation-game/internal/config"
	"github.com/KenThuan129/startup-simulation-game/internal/game"
	"github.com/KenThuan129/startup-simulation-game/internal/sim"
)

func TestOpenSQLite(t *testing.T) {
	ctx := context.Background()
	rt, err := Open(ctx, config.StoreConfig{SQLitePath: filepath.Join(t.TempDir(), "sim.db")}, nil)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer rt.Close()

	if rt.Content.Digest() == "" {
		t.Fatalf("expected content digest")
	}
	c, err := rt.Game.CreateCompany(ctx, game.CreateCompanyInput{
		OwnerID:    "owner-1",
		Name:       "Wired",
		Type:       "saas",
		Difficulty: sim.DifficultyNormal,
		Goals:      []game.GoalInput{{Type: sim.GoalSurviveDays, Target: 30}},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	got, err := rt.Game.ActiveCompany(ctx, "owner-1")
	if err != nil {
		t.Fatalf("active: %v", err)
	}
	if got.ID != c.ID {
		t.Fatalf("got %s want %s", got.ID, c.ID)
	}
}

func TestOpenRejectsMissingContentDir(t *testing.T) {
	cfg := config.StoreConfig{
		SQLitePath: filepath.Join(t.TempDir(), "sim.db"),
		ContentDir: filepath.Join(t.TempDir(), "nope"),
	}
	if _, err := Open(context.Background(), cfg, nil); err == nil {
		t.Fatalf("expected error for missing content dir")
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	rt, err := Open(context.Background(), config.StoreConfig{SQLitePath: filepath.Join(t.TempDir(), "sim.db")}, nil)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := rt.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := rt.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}
}
