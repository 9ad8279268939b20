package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/KenThuan129/startup-simulation-game/internal/sim"
)

type SQLite struct {
	db *sql.DB
}

// NewSQLite wraps a handle from db.OpenSQLite.
func NewSQLite(db *sql.DB) *SQLite {
	return &SQLite{db: db}
}

func (s *SQLite) Close() error { return s.db.Close() }

func (s *SQLite) Migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS companies (
			id TEXT PRIMARY KEY,
			owner_id TEXT NOT NULL,
			alive INTEGER NOT NULL,
			day INTEGER NOT NULL,
			version INTEGER NOT NULL,
			data TEXT NOT NULL,
			created_at INTEGER NOT NULL,
			updated_at INTEGER NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS companies_owner ON companies(owner_id, alive);`,
		`CREATE TABLE IF NOT EXISTS loans (
			id TEXT PRIMARY KEY,
			company_id TEXT NOT NULL REFERENCES companies(id),
			status TEXT NOT NULL,
			start_day INTEGER NOT NULL,
			data TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS loans_company ON loans(company_id, start_day);`,
		`CREATE TABLE IF NOT EXISTS boss_battles (
			id TEXT PRIMARY KEY,
			company_id TEXT NOT NULL UNIQUE REFERENCES companies(id),
			status TEXT NOT NULL,
			turn_deadline INTEGER NOT NULL,
			data TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS boss_battles_deadline ON boss_battles(status, turn_deadline);`,
		`CREATE TABLE IF NOT EXISTS anomaly_log (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			company_id TEXT NOT NULL REFERENCES companies(id),
			anomaly_id TEXT NOT NULL,
			day INTEGER NOT NULL,
			effects TEXT NOT NULL,
			created_at INTEGER NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS anomaly_log_company ON anomaly_log(company_id, id);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate sqlite: %w", err)
		}
	}
	return nil
}

func (s *SQLite) CreateCompany(ctx context.Context, c sim.Company) (sim.Company, error) {
	c = c.Clone()
	c.Version = 1
	raw, err := encode(c)
	if err != nil {
		return sim.Company{}, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return sim.Company{}, err
	}
	defer tx.Rollback()

	var n int
	if err := tx.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM companies WHERE owner_id = ? AND alive = 1`, c.OwnerID,
	).Scan(&n); err != nil {
		return sim.Company{}, err
	}
	if n > 0 {
		return sim.Company{}, ErrExists
	}
	now := time.Now().UnixMilli()
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO companies (id, owner_id, alive, day, version, data, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, c.ID, c.OwnerID, c.Alive, c.Day, c.Version, string(raw), now, now); err != nil {
		return sim.Company{}, fmt.Errorf("insert company: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return sim.Company{}, err
	}
	return c, nil
}

func (s *SQLite) Company(ctx context.Context, id string) (sim.Company, error) {
	return s.companyWhere(ctx, `SELECT data FROM companies WHERE id = ?`, id)
}

func (s *SQLite) ActiveCompany(ctx context.Context, ownerID string) (sim.Company, error) {
	return s.companyWhere(ctx, `
		SELECT data FROM companies
		WHERE owner_id = ? AND alive = 1
		ORDER BY created_at DESC
		LIMIT 1
	`, ownerID)
}

func (s *SQLite) companyWhere(ctx context.Context, query string, arg any) (sim.Company, error) {
	var raw string
	err := s.db.QueryRowContext(ctx, query, arg).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return sim.Company{}, ErrNotFound
	}
	if err != nil {
		return sim.Company{}, err
	}
	return decode[sim.Company]([]byte(raw))
}

func (s *SQLite) Loans(ctx context.Context, companyID string) ([]sim.Loan, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT data FROM loans WHERE company_id = ? ORDER BY start_day, id
	`, companyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []sim.Loan
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		l, err := decode[sim.Loan]([]byte(raw))
		if err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func (s *SQLite) BossBattle(ctx context.Context, companyID string) (sim.BossBattle, error) {
	var raw string
	err := s.db.QueryRowContext(ctx, `SELECT data FROM boss_battles WHERE company_id = ?`, companyID).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return sim.BossBattle{}, ErrNotFound
	}
	if err != nil {
		return sim.BossBattle{}, err
	}
	return decode[sim.BossBattle]([]byte(raw))
}

func (s *SQLite) AnomalyLog(ctx context.Context, companyID string, limit int) ([]sim.AnomalyLogEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT anomaly_id, day, effects FROM anomaly_log
		WHERE company_id = ?
		ORDER BY id DESC
		LIMIT ?
	`, companyID, anomalyLimit(limit))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []sim.AnomalyLogEntry
	for rows.Next() {
		e := sim.AnomalyLogEntry{CompanyID: companyID}
		var raw string
		if err := rows.Scan(&e.AnomalyID, &e.Day, &raw); err != nil {
			return nil, err
		}
		if e.Effects, err = decode[sim.Effects]([]byte(raw)); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return newestLast(out), nil
}

func (s *SQLite) ActiveBossBattlesBefore(ctx context.Context, deadline time.Time) ([]sim.BossBattle, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT data FROM boss_battles
		WHERE status = ? AND turn_deadline > 0 AND turn_deadline < ?
		ORDER BY turn_deadline
	`, string(sim.BattleActive), deadline.UnixMilli())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []sim.BossBattle
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		b, err := decode[sim.BossBattle]([]byte(raw))
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (s *SQLite) Commit(ctx context.Context, t Turn) (sim.Company, error) {
	next := nextVersion(t.Company)
	raw, err := encode(next)
	if err != nil {
		return sim.Company{}, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return sim.Company{}, err
	}
	defer tx.Rollback()

	now := time.Now().UnixMilli()
	res, err := tx.ExecContext(ctx, `
		UPDATE companies
		SET alive = ?, day = ?, version = ?, data = ?, updated_at = ?
		WHERE id = ? AND version = ?
	`, next.Alive, next.Day, next.Version, string(raw), now, next.ID, t.Company.Version)
	if err != nil {
		return sim.Company{}, fmt.Errorf("update company: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return sim.Company{}, err
	} else if n == 0 {
		var exists int
		if err := tx.QueryRowContext(ctx, `SELECT COUNT(1) FROM companies WHERE id = ?`, next.ID).Scan(&exists); err != nil {
			return sim.Company{}, err
		}
		if exists == 0 {
			return sim.Company{}, ErrNotFound
		}
		return sim.Company{}, ErrConflict
	}

	for _, l := range t.Loans {
		lraw, err := encode(l)
		if err != nil {
			return sim.Company{}, err
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO loans (id, company_id, status, start_day, data)
			VALUES (?, ?, ?, ?, ?)
			ON CONFLICT (id) DO UPDATE SET status = excluded.status, data = excluded.data
		`, l.ID, l.CompanyID, string(l.Status), l.StartDay, string(lraw)); err != nil {
			return sim.Company{}, fmt.Errorf("upsert loan %s: %w", l.ID, err)
		}
	}

	if b := t.Battle; b != nil {
		braw, err := encode(b)
		if err != nil {
			return sim.Company{}, err
		}
		var deadline int64
		if !b.TurnDeadline.IsZero() {
			deadline = b.TurnDeadline.UnixMilli()
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO boss_battles (id, company_id, status, turn_deadline, data)
			VALUES (?, ?, ?, ?, ?)
			ON CONFLICT (id) DO UPDATE SET
				status = excluded.status,
				turn_deadline = excluded.turn_deadline,
				data = excluded.data
		`, b.ID, b.CompanyID, string(b.Status), deadline, string(braw)); err != nil {
			return sim.Company{}, fmt.Errorf("upsert boss battle: %w", err)
		}
	}

	for _, a := range t.Anomalies {
		eraw, err := encode(a.Effects)
		if err != nil {
			return sim.Company{}, err
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO anomaly_log (company_id, anomaly_id, day, effects, created_at)
			VALUES (?, ?, ?, ?, ?)
		`, next.ID, a.AnomalyID, a.Day, string(eraw), now); err != nil {
			return sim.Company{}, fmt.Errorf("append anomaly log: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return sim.Company{}, err
	}
	return next, nil
}
