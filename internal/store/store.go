// Package store persists company snapshots and the records that hang off them:
// loans, the boss battle and the anomaly log.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/KenThuan129/startup-simulation-game/internal/sim"
)

var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("company was modified concurrently")
	ErrExists   = errors.New("owner already has an active company")
)

// Turn is everything one game operation changed. Company.Version must be the
// version that was loaded; Commit stores Version+1.
type Turn struct {
	Company   sim.Company
	Loans     []sim.Loan
	Battle    *sim.BossBattle
	Anomalies []sim.AnomalyLogEntry
}

type Store interface {
	Migrate(ctx context.Context) error
	CreateCompany(ctx context.Context, c sim.Company) (sim.Company, error)
	Company(ctx context.Context, id string) (sim.Company, error)
	ActiveCompany(ctx context.Context, ownerID string) (sim.Company, error)
	Loans(ctx context.Context, companyID string) ([]sim.Loan, error)
	BossBattle(ctx context.Context, companyID string) (sim.BossBattle, error)
	AnomalyLog(ctx context.Context, companyID string, limit int) ([]sim.AnomalyLogEntry, error)
	ActiveBossBattlesBefore(ctx context.Context, deadline time.Time) ([]sim.BossBattle, error)
	Commit(ctx context.Context, t Turn) (sim.Company, error)
	Close() error
}

const defaultAnomalyLimit = 50

func encode(v any) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode %T: %w", v, err)
	}
	return raw, nil
}

func decode[T any](raw []byte) (T, error) {
	var out T
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, fmt.Errorf("decode %T: %w", out, err)
	}
	return out, nil
}

func nextVersion(c sim.Company) sim.Company {
	next := c.Clone()
	next.Version = c.Version + 1
	return next
}

func anomalyLimit(limit int) int {
	if limit <= 0 || limit > 500 {
		return defaultAnomalyLimit
	}
	return limit
}

// newestLast flips a newest-first page back into chronological order.
func newestLast(entries []sim.AnomalyLogEntry) []sim.AnomalyLogEntry {
	slices.Reverse(entries)
	return entries
}
