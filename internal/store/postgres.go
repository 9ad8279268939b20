package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/KenThuan129/startup-simulation-game/internal/sim"
)

type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres wraps a pool from db.Connect. Tables live in the startupsim schema.
func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

func (p *Postgres) Close() error {
	p.pool.Close()
	return nil
}

func (p *Postgres) Migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE SCHEMA IF NOT EXISTS startupsim`,
		`CREATE TABLE IF NOT EXISTS startupsim.companies (
			id TEXT PRIMARY KEY,
			owner_id TEXT NOT NULL,
			alive BOOLEAN NOT NULL,
			day INTEGER NOT NULL,
			version BIGINT NOT NULL,
			data JSONB NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS companies_owner_alive
			ON startupsim.companies (owner_id) WHERE alive`,
		`CREATE TABLE IF NOT EXISTS startupsim.loans (
			id TEXT PRIMARY KEY,
			company_id TEXT NOT NULL REFERENCES startupsim.companies(id),
			status TEXT NOT NULL,
			start_day INTEGER NOT NULL,
			data JSONB NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS loans_company ON startupsim.loans (company_id, start_day)`,
		`CREATE TABLE IF NOT EXISTS startupsim.boss_battles (
			id TEXT PRIMARY KEY,
			company_id TEXT NOT NULL UNIQUE REFERENCES startupsim.companies(id),
			status TEXT NOT NULL,
			turn_deadline TIMESTAMPTZ,
			data JSONB NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS boss_battles_deadline
			ON startupsim.boss_battles (turn_deadline) WHERE status = 'active'`,
		`CREATE TABLE IF NOT EXISTS startupsim.anomaly_log (
			id BIGSERIAL PRIMARY KEY,
			company_id TEXT NOT NULL REFERENCES startupsim.companies(id),
			anomaly_id TEXT NOT NULL,
			day INTEGER NOT NULL,
			effects JSONB NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE INDEX IF NOT EXISTS anomaly_log_company ON startupsim.anomaly_log (company_id, id)`,
	}
	for _, stmt := range stmts {
		if _, err := p.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("migrate postgres: %w", err)
		}
	}
	return nil
}

func (p *Postgres) CreateCompany(ctx context.Context, c sim.Company) (sim.Company, error) {
	c = c.Clone()
	c.Version = 1
	raw, err := encode(c)
	if err != nil {
		return sim.Company{}, err
	}
	_, err = p.pool.Exec(ctx, `
		INSERT INTO startupsim.companies (id, owner_id, alive, day, version, data)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, c.ID, c.OwnerID, c.Alive, c.Day, c.Version, raw)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return sim.Company{}, ErrExists
		}
		return sim.Company{}, fmt.Errorf("insert company: %w", err)
	}
	return c, nil
}

func (p *Postgres) Company(ctx context.Context, id string) (sim.Company, error) {
	return p.companyWhere(ctx, `SELECT data FROM startupsim.companies WHERE id = $1`, id)
}

func (p *Postgres) ActiveCompany(ctx context.Context, ownerID string) (sim.Company, error) {
	return p.companyWhere(ctx, `
		SELECT data FROM startupsim.companies
		WHERE owner_id = $1 AND alive
		ORDER BY created_at DESC
		LIMIT 1
	`, ownerID)
}

func (p *Postgres) companyWhere(ctx context.Context, query string, arg any) (sim.Company, error) {
	var raw []byte
	err := p.pool.QueryRow(ctx, query, arg).Scan(&raw)
	if err == pgx.ErrNoRows {
		return sim.Company{}, ErrNotFound
	}
	if err != nil {
		return sim.Company{}, err
	}
	return decode[sim.Company](raw)
}

func (p *Postgres) Loans(ctx context.Context, companyID string) ([]sim.Loan, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT data FROM startupsim.loans WHERE company_id = $1 ORDER BY start_day, id
	`, companyID)
	if err != nil {
		return nil, err
	}
	return collectJSON[sim.Loan](rows)
}

func (p *Postgres) BossBattle(ctx context.Context, companyID string) (sim.BossBattle, error) {
	var raw []byte
	err := p.pool.QueryRow(ctx, `SELECT data FROM startupsim.boss_battles WHERE company_id = $1`, companyID).Scan(&raw)
	if err == pgx.ErrNoRows {
		return sim.BossBattle{}, ErrNotFound
	}
	if err != nil {
		return sim.BossBattle{}, err
	}
	return decode[sim.BossBattle](raw)
}

func (p *Postgres) AnomalyLog(ctx context.Context, companyID string, limit int) ([]sim.AnomalyLogEntry, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT anomaly_id, day, effects FROM startupsim.anomaly_log
		WHERE company_id = $1
		ORDER BY id DESC
		LIMIT $2
	`, companyID, anomalyLimit(limit))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []sim.AnomalyLogEntry
	for rows.Next() {
		e := sim.AnomalyLogEntry{CompanyID: companyID}
		var raw []byte
		if err := rows.Scan(&e.AnomalyID, &e.Day, &raw); err != nil {
			return nil, err
		}
		if e.Effects, err = decode[sim.Effects](raw); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return newestLast(out), nil
}

func (p *Postgres) ActiveBossBattlesBefore(ctx context.Context, deadline time.Time) ([]sim.BossBattle, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT data FROM startupsim.boss_battles
		WHERE status = 'active' AND turn_deadline IS NOT NULL AND turn_deadline < $1
		ORDER BY turn_deadline
	`, deadline)
	if err != nil {
		return nil, err
	}
	return collectJSON[sim.BossBattle](rows)
}

func collectJSON[T any](rows pgx.Rows) ([]T, error) {
	defer rows.Close()
	var out []T
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		v, err := decode[T](raw)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func (p *Postgres) Commit(ctx context.Context, t Turn) (sim.Company, error) {
	next := nextVersion(t.Company)
	raw, err := encode(next)
	if err != nil {
		return sim.Company{}, err
	}

	tx, err := p.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return sim.Company{}, err
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `
		UPDATE startupsim.companies
		SET alive = $2, day = $3, version = $4, data = $5, updated_at = now()
		WHERE id = $1 AND version = $6
	`, next.ID, next.Alive, next.Day, next.Version, raw, t.Company.Version)
	if err != nil {
		return sim.Company{}, fmt.Errorf("update company: %w", err)
	}
	if tag.RowsAffected() == 0 {
		var exists bool
		if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM startupsim.companies WHERE id = $1)`, next.ID).Scan(&exists); err != nil {
			return sim.Company{}, err
		}
		if !exists {
			return sim.Company{}, ErrNotFound
		}
		return sim.Company{}, ErrConflict
	}

	batch := &pgx.Batch{}
	for _, l := range t.Loans {
		lraw, err := encode(l)
		if err != nil {
			return sim.Company{}, err
		}
		batch.Queue(`
			INSERT INTO startupsim.loans (id, company_id, status, start_day, data)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (id) DO UPDATE SET status = EXCLUDED.status, data = EXCLUDED.data
		`, l.ID, l.CompanyID, string(l.Status), l.StartDay, lraw)
	}
	if b := t.Battle; b != nil {
		braw, err := encode(b)
		if err != nil {
			return sim.Company{}, err
		}
		var deadline *time.Time
		if !b.TurnDeadline.IsZero() {
			deadline = &b.TurnDeadline
		}
		batch.Queue(`
			INSERT INTO startupsim.boss_battles (id, company_id, status, turn_deadline, data)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (id) DO UPDATE SET
				status = EXCLUDED.status,
				turn_deadline = EXCLUDED.turn_deadline,
				data = EXCLUDED.data
		`, b.ID, b.CompanyID, string(b.Status), deadline, braw)
	}
	for _, a := range t.Anomalies {
		eraw, err := encode(a.Effects)
		if err != nil {
			return sim.Company{}, err
		}
		batch.Queue(`
			INSERT INTO startupsim.anomaly_log (company_id, anomaly_id, day, effects)
			VALUES ($1, $2, $3, $4)
		`, next.ID, a.AnomalyID, a.Day, eraw)
	}
	if batch.Len() > 0 {
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return sim.Company{}, fmt.Errorf("write turn records: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return sim.Company{}, err
	}
	return next, nil
}
