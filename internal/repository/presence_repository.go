package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/counselor-presence/internal/domain"
)

const presenceColumns = `counselor_id::text, last_login_at, last_activity_at, active_today_ms, total_active_ms, active_day, updated_at`

type presenceRepository struct {
	pool *pgxpool.Pool
}

// NewPresenceRepository builds the presence store.
func NewPresenceRepository(pool *pgxpool.Pool) PresenceRepository {
	return &presenceRepository{pool: pool}
}

func (r *presenceRepository) Get(ctx context.Context, counselorID string) (*domain.Presence, error) {
	if !validID(counselorID) {
		return nil, ErrNotFound
	}
	query := `SELECT ` + presenceColumns + ` FROM counselor_presence WHERE counselor_id=$1::uuid`
	p, err := scanPresence(r.pool.QueryRow(ctx, query, counselorID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return p, nil
}

func (r *presenceRepository) List(ctx context.Context, counselorIDs []string) (map[string]domain.Presence, error) {
	result := make(map[string]domain.Presence, len(counselorIDs))
	if len(counselorIDs) == 0 {
		return result, nil
	}
	query := `SELECT ` + presenceColumns + ` FROM counselor_presence WHERE counselor_id::text = ANY($1)`
	rows, err := r.pool.Query(ctx, query, counselorIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		p, err := scanPresence(rows)
		if err != nil {
			return nil, err
		}
		result[p.CounselorID] = *p
	}
	return result, rows.Err()
}

func (r *presenceRepository) Upsert(ctx context.Context, counselorID string, fn PresenceMutator) (*domain.Presence, error) {
	if !validID(counselorID) {
		return nil, ErrNotFound
	}
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	const insert = `
        INSERT INTO counselor_presence (counselor_id) VALUES ($1::uuid)
        ON CONFLICT (counselor_id) DO NOTHING`
	if _, err := tx.Exec(ctx, insert, counselorID); err != nil {
		return nil, err
	}

	query := `SELECT ` + presenceColumns + ` FROM counselor_presence WHERE counselor_id=$1::uuid FOR UPDATE`
	p, err := scanPresence(tx.QueryRow(ctx, query, counselorID))
	if err != nil {
		return nil, err
	}
	if err := fn(p); err != nil {
		return nil, err
	}

	const update = `
        UPDATE counselor_presence
        SET last_login_at=$1, last_activity_at=$2, active_today_ms=$3, total_active_ms=$4, active_day=$5, updated_at=NOW()
        WHERE counselor_id=$6::uuid
        RETURNING updated_at`
	if err := tx.QueryRow(ctx, update,
		nullableTime(p.LastLoginAt),
		nullableTime(p.LastActivityAt),
		p.ActiveToday.Milliseconds(),
		p.TotalActive.Milliseconds(),
		p.ActiveDay,
		counselorID,
	).Scan(&p.UpdatedAt); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return p, nil
}

func scanPresence(row pgx.Row) (*domain.Presence, error) {
	var (
		p             domain.Presence
		lastLogin     *time.Time
		lastActivity  *time.Time
		activeTodayMS int64
		totalActiveMS int64
	)
	if err := row.Scan(
		&p.CounselorID,
		&lastLogin,
		&lastActivity,
		&activeTodayMS,
		&totalActiveMS,
		&p.ActiveDay,
		&p.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if lastLogin != nil {
		p.LastLoginAt = *lastLogin
	}
	if lastActivity != nil {
		p.LastActivityAt = *lastActivity
	}
	p.ActiveToday = time.Duration(activeTodayMS) * time.Millisecond
	p.TotalActive = time.Duration(totalActiveMS) * time.Millisecond
	return &p, nil
}

func nullableTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

func nullableString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
