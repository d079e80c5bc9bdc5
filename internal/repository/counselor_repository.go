package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/counselor-presence/internal/domain"
)

const counselorColumns = `id::text, name, email, availability, max_capacity, expertise, languages, timezone, created_at, updated_at`

type counselorRepository struct {
	pool *pgxpool.Pool
}

// NewCounselorRepository instantiates the directory reader.
func NewCounselorRepository(pool *pgxpool.Pool) CounselorRepository {
	return &counselorRepository{pool: pool}
}

func (r *counselorRepository) GetByID(ctx context.Context, id string) (*domain.Counselor, error) {
	if !validID(id) {
		return nil, ErrNotFound
	}
	query := `SELECT ` + counselorColumns + ` FROM counselors WHERE id=$1::uuid`

	counselor, err := scanCounselor(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return counselor, nil
}

func (r *counselorRepository) List(ctx context.Context, filter CounselorFilter) ([]domain.Counselor, error) {
	query := `SELECT ` + counselorColumns + ` FROM counselors`
	args := []any{}
	clauses := []string{}

	if filter.Availability != nil {
		args = append(args, *filter.Availability)
		clauses = append(clauses, fmt.Sprintf("availability=$%d", len(args)))
	}
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}

	query += " ORDER BY id ASC"
	limit := filter.Limit
	if limit <= 0 {
		limit = 1000
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}
	query += fmt.Sprintf(" LIMIT %d OFFSET %d", limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Counselor
	for rows.Next() {
		counselor, err := scanCounselor(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *counselor)
	}
	return result, rows.Err()
}

func scanCounselor(row pgx.Row) (*domain.Counselor, error) {
	var c domain.Counselor
	if err := row.Scan(
		&c.ID,
		&c.Name,
		&c.Email,
		&c.Availability,
		&c.MaxCapacity,
		&c.Expertise,
		&c.Languages,
		&c.Timezone,
		&c.CreatedAt,
		&c.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &c, nil
}
