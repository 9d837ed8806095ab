// Package duckdb persists sessions, conversation turns and analytics counters
// in an embedded DuckDB database.
package duckdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/marcboeker/go-duckdb"

	"github.com/suprovo-labs/aahar/internal/core/domain"
	"github.com/suprovo-labs/aahar/internal/core/ports"
)

type Repository struct {
	db *sql.DB
}

var _ ports.Repository = (*Repository)(nil)

// NewRepository opens (or creates) the database at path and applies the schema.
func NewRepository(path string) (*Repository, error) {
	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, fmt.Errorf("open duckdb: %w", err)
	}
	r := &Repository{db: db}
	if err := r.initSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return r, nil
}

func (r *Repository) initSchema() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS sessions (
			id         VARCHAR PRIMARY KEY,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`,
		`CREATE SEQUENCE IF NOT EXISTS turns_seq`,
		`CREATE TABLE IF NOT EXISTS turns (
			id         BIGINT PRIMARY KEY DEFAULT nextval('turns_seq'),
			session_id VARCHAR NOT NULL,
			role       VARCHAR NOT NULL,
			content    VARCHAR NOT NULL,
			created_at TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS query_stats (
			category VARCHAR PRIMARY KEY,
			count    BIGINT NOT NULL DEFAULT 0
		)`,
	}
	for _, stmt := range stmts {
		if _, err := r.db.Exec(stmt); err != nil {
			return fmt.Errorf("init schema: %w", err)
		}
	}
	return nil
}

func (r *Repository) CreateSession(ctx context.Context, s domain.Session) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO sessions (id, created_at, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT (id) DO NOTHING`,
		string(s.ID), s.CreatedAt, s.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	return nil
}

func (r *Repository) GetSession(ctx context.Context, id domain.SessionID) (domain.Session, error) {
	var s domain.Session
	var rawID string
	err := r.db.QueryRowContext(ctx, `
		SELECT id, created_at, updated_at FROM sessions WHERE id = ?`,
		string(id),
	).Scan(&rawID, &s.CreatedAt, &s.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Session{}, domain.ErrSessionNotFound
	}
	if err != nil {
		return domain.Session{}, fmt.Errorf("get session: %w", err)
	}
	s.ID = domain.SessionID(rawID)

	turns, err := r.ListTurns(ctx, id, 0)
	if err != nil {
		return domain.Session{}, err
	}
	s.Turns = turns
	return s, nil
}

func (r *Repository) AppendTurn(ctx context.Context, id domain.SessionID, t domain.ConversationTurn) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO turns (session_id, role, content, created_at)
		VALUES (?, ?, ?, ?)`,
		string(id), string(t.Role), t.Content, t.CreatedAt,
	); err != nil {
		return fmt.Errorf("insert turn: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `
		UPDATE sessions SET updated_at = ? WHERE id = ?`,
		time.Now(), string(id),
	); err != nil {
		return fmt.Errorf("touch session: %w", err)
	}

	return tx.Commit()
}

// ListTurns returns turns in append order. limit > 0 returns the most recent
// limit turns, still oldest first.
func (r *Repository) ListTurns(ctx context.Context, id domain.SessionID, limit int) ([]domain.ConversationTurn, error) {
	query := `SELECT role, content, created_at FROM turns WHERE session_id = ? ORDER BY id`
	args := []any{string(id)}
	if limit > 0 {
		query = `
			SELECT role, content, created_at FROM (
				SELECT id, role, content, created_at FROM turns
				WHERE session_id = ? ORDER BY id DESC LIMIT ?
			) ORDER BY id`
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list turns: %w", err)
	}
	defer rows.Close()

	var turns []domain.ConversationTurn
	for rows.Next() {
		var t domain.ConversationTurn
		var role string
		if err := rows.Scan(&role, &t.Content, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan turn: %w", err)
		}
		t.Role = domain.TurnRole(role)
		turns = append(turns, t)
	}
	return turns, rows.Err()
}

func (r *Repository) CountSessions(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM sessions`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count sessions: %w", err)
	}
	return n, nil
}

func (r *Repository) BumpQueryStat(ctx context.Context, category string, delta int64) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO query_stats (category, count) VALUES (?, ?)
		ON CONFLICT (category) DO UPDATE SET count = query_stats.count + excluded.count`,
		category, delta,
	)
	if err != nil {
		return fmt.Errorf("bump query stat: %w", err)
	}
	return nil
}

func (r *Repository) TopQueryStats(ctx context.Context, limit int) ([]ports.QueryStat, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT category, count FROM query_stats ORDER BY count DESC, category LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("top query stats: %w", err)
	}
	defer rows.Close()

	var out []ports.QueryStat
	for rows.Next() {
		var s ports.QueryStat
		if err := rows.Scan(&s.Category, &s.Count); err != nil {
			return nil, fmt.Errorf("scan query stat: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *Repository) Close() error {
	return r.db.Close()
}
