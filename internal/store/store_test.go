package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/KenThuan129/startup-simulation-game/internal/db"
	"github.com/KenThuan129/startup-simulation-game/internal/sim"
)

func newSQLiteStore(t *testing.T) *SQLite {
	t.Helper()
	handle, err := db.OpenSQLite(filepath.Join(t.TempDir(), "game.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	s := NewSQLite(handle)
	t.Cleanup(func() { _ = s.Close() })
	if err := s.Migrate(context.Background()); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return s
}

func testCompany(id, owner string) sim.Company {
	return sim.NewCompany(sim.NewCompanyParams{
		ID:         id,
		OwnerID:    owner,
		Name:       "Acme",
		Difficulty: sim.DifficultyNormal,
		Role:       "founder",
	}, sim.DefaultTuning())
}

func TestSQLiteStore(t *testing.T) {
	runStoreSuite(t, newSQLiteStore(t))
}

func TestPostgresStore(t *testing.T) {
	url := os.Getenv("STARTUPSIM_TEST_DATABASE_URL")
	if url == "" {
		t.Skip("STARTUPSIM_TEST_DATABASE_URL not set")
	}
	ctx := context.Background()
	pool, err := db.Connect(ctx, url)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	s := NewPostgres(pool)
	t.Cleanup(func() { _ = s.Close() })
	if err := s.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	runStoreSuite(t, s)
}

// runStoreSuite uses ids unique per run so it can share a database.
func runStoreSuite(t *testing.T, s Store) {
	ctx := context.Background()
	suffix := time.Now().Format("150405.000000000")
	owner := "owner-" + suffix
	c, err := s.CreateCompany(ctx, testCompany("co-"+suffix, owner))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if c.Version != 1 {
		t.Fatalf("got version %d want 1", c.Version)
	}
	if _, err := s.CreateCompany(ctx, testCompany("co2-"+suffix, owner)); !errors.Is(err, ErrExists) {
		t.Fatalf("second active company: got %v want ErrExists", err)
	}

	got, err := s.ActiveCompany(ctx, owner)
	if err != nil || got.ID != c.ID {
		t.Fatalf("active company: got %+v err %v", got.ID, err)
	}

	c.Cash = 4321
	loan := sim.Loan{ID: "loan-" + suffix, CompanyID: c.ID, Amount: 5000, Duration: 30, StartDay: 1, DueDay: 31, Status: sim.LoanActive}
	battle := sim.BossBattle{
		ID:           "battle-" + suffix,
		CompanyID:    c.ID,
		BossName:     "Rival",
		BossHealth:   100,
		MaxHealth:    100,
		Status:       sim.BattleActive,
		TurnDeadline: time.Now().Add(-time.Minute).UTC().Truncate(time.Millisecond),
	}
	anomaly := sim.AnomalyLogEntry{CompanyID: c.ID, AnomalyID: "server_outage", Day: 1, Effects: sim.Effects{Cash: -500}}

	next, err := s.Commit(ctx, Turn{Company: c, Loans: []sim.Loan{loan}, Battle: &battle, Anomalies: []sim.AnomalyLogEntry{anomaly}})
	if err != nil {
		t.Fatalf("commit: %v", err)
	}
	if next.Version != 2 {
		t.Fatalf("got version %d want 2", next.Version)
	}
	if _, err := s.Commit(ctx, Turn{Company: c}); !errors.Is(err, ErrConflict) {
		t.Fatalf("stale commit: got %v want ErrConflict", err)
	}

	stored, err := s.Company(ctx, c.ID)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if stored.Cash != 4321 || stored.Version != 2 {
		t.Fatalf("got cash=%v version=%d", stored.Cash, stored.Version)
	}

	loan.PaidAmount = 1000
	next, err = s.Commit(ctx, Turn{Company: next, Loans: []sim.Loan{loan}})
	if err != nil {
		t.Fatalf("commit loan update: %v", err)
	}
	loans, err := s.Loans(ctx, c.ID)
	if err != nil || len(loans) != 1 || loans[0].PaidAmount != 1000 {
		t.Fatalf("loans got %+v err %v", loans, err)
	}

	b, err := s.BossBattle(ctx, c.ID)
	if err != nil || b.ID != battle.ID {
		t.Fatalf("battle got %+v err %v", b, err)
	}
	due, err := s.ActiveBossBattlesBefore(ctx, time.Now())
	if err != nil {
		t.Fatalf("due battles: %v", err)
	}
	found := false
	for _, d := range due {
		if d.ID == battle.ID {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected battle %s among due battles", battle.ID)
	}

	log, err := s.AnomalyLog(ctx, c.ID, 10)
	if err != nil || len(log) != 1 || log[0].AnomalyID != "server_outage" || log[0].Effects.Cash != -500 {
		t.Fatalf("anomaly log got %+v err %v", log, err)
	}

	next.Alive = false
	next.Outcome = sim.OutcomeBankrupt
	if _, err := s.Commit(ctx, Turn{Company: next}); err != nil {
		t.Fatalf("commit bankrupt: %v", err)
	}
	if _, err := s.ActiveCompany(ctx, owner); !errors.Is(err, ErrNotFound) {
		t.Fatalf("got %v want ErrNotFound", err)
	}
	if _, err := s.CreateCompany(ctx, testCompany("co3-"+suffix, owner)); err != nil {
		t.Fatalf("new company after bankruptcy: %v", err)
	}
}

func TestSQLiteMissing(t *testing.T) {
	s := newSQLiteStore(t)
	ctx := context.Background()
	if _, err := s.Company(ctx, "nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("got %v want ErrNotFound", err)
	}
	if _, err := s.BossBattle(ctx, "nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("got %v want ErrNotFound", err)
	}
	if _, err := s.Commit(ctx, Turn{Company: testCompany("ghost", "x")}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("got %v want ErrNotFound", err)
	}
}

func TestAnomalyLogKeepsNewestInOrder(t *testing.T) {
	s := newSQLiteStore(t)
	ctx := context.Background()
	c, err := s.CreateCompany(ctx, testCompany("co", "owner"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	for day := 1; day <= 4; day++ {
		entry := sim.AnomalyLogEntry{CompanyID: c.ID, AnomalyID: "viral_tweet", Day: day}
		if c, err = s.Commit(ctx, Turn{Company: c, Anomalies: []sim.AnomalyLogEntry{entry}}); err != nil {
			t.Fatalf("commit: %v", err)
		}
	}
	log, err := s.AnomalyLog(ctx, c.ID, 2)
	if err != nil {
		t.Fatalf("log: %v", err)
	}
	if len(log) != 2 || log[0].Day != 3 || log[1].Day != 4 {
		t.Fatalf("got %+v want days 3,4", log)
	}
}
