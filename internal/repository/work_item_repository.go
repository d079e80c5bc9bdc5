package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/counselor-presence/internal/domain"
)

const leadSelect = `
        SELECT id::text, COALESCE(assigned_counselor_id::text, ''), status, name, preferred_language,
            required_expertise, auto_assigned, released, created_at, updated_at
        FROM leads`

const sessionSelect = `
        SELECT s.id::text, COALESCE(s.counselor_id::text, ''), s.status, l.name, l.preferred_language,
            l.required_expertise, s.lead_id::text, s.scheduled_date, s.created_at, s.updated_at
        FROM sessions s JOIN leads l ON l.id = s.lead_id`

type workItemRepository struct {
	pool *pgxpool.Pool
}

// NewWorkItemRepository builds the lead/session owner store.
func NewWorkItemRepository(pool *pgxpool.Pool) WorkItemRepository {
	return &workItemRepository{pool: pool}
}

func (r *workItemRepository) GetByID(ctx context.Context, id string) (*domain.WorkItem, error) {
	return getWorkItem(ctx, r.pool, id)
}

func (r *workItemRepository) ListOwnedBy(ctx context.Context, counselorID string) ([]domain.WorkItem, error) {
	var result []domain.WorkItem
	if !validID(counselorID) {
		return result, nil
	}

	leadQuery := leadSelect + ` WHERE assigned_counselor_id=$1::uuid AND released = FALSE AND status <> ALL($2) ORDER BY created_at ASC`
	rows, err := r.pool.Query(ctx, leadQuery, counselorID, domain.TerminalStatuses(domain.WorkItemLead))
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		item, err := scanLead(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		result = append(result, *item)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	sessionQuery := sessionSelect + ` WHERE s.counselor_id=$1::uuid AND s.status <> ALL($2) ORDER BY s.scheduled_date ASC`
	rows, err = r.pool.Query(ctx, sessionQuery, counselorID, domain.TerminalStatuses(domain.WorkItemSession))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		item, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *item)
	}
	return result, rows.Err()
}

func (r *workItemRepository) LoadByCounselor(ctx context.Context) (map[string]int, error) {
	const query = `
        SELECT owner, COUNT(*) FROM (
            SELECT assigned_counselor_id::text AS owner FROM leads
            WHERE assigned_counselor_id IS NOT NULL AND released = FALSE AND status <> ALL($1)
            UNION ALL
            SELECT counselor_id::text AS owner FROM sessions
            WHERE counselor_id IS NOT NULL AND status <> ALL($2)
        ) owned GROUP BY owner`

	rows, err := r.pool.Query(ctx, query,
		domain.TerminalStatuses(domain.WorkItemLead),
		domain.TerminalStatuses(domain.WorkItemSession),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	loads := make(map[string]int)
	for rows.Next() {
		var owner string
		var count int
		if err := rows.Scan(&owner, &count); err != nil {
			return nil, err
		}
		loads[owner] = count
	}
	return loads, rows.Err()
}

func (r *workItemRepository) TransferOwnership(ctx context.Context, transfer OwnershipTransfer) (*domain.WorkItem, error) {
	if !validID(transfer.ItemID) || (!transfer.Release && !validID(transfer.ToCounselorID)) {
		return nil, ErrNotFound
	}
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	var newOwner *string
	if !transfer.Release {
		newOwner = nullableString(transfer.ToCounselorID)
	}
	expected := nullableString(transfer.ExpectedOwner)

	var query string
	var args []any
	switch transfer.Kind {
	case domain.WorkItemLead:
		query = `
            UPDATE leads SET assigned_counselor_id=$1::uuid, auto_assigned=$2, released=$3, updated_at=NOW()
            WHERE id=$4::uuid AND assigned_counselor_id IS NOT DISTINCT FROM $5::uuid
                AND released = FALSE AND status <> ALL($6)`
		args = []any{newOwner, transfer.AutoAssigned, transfer.Release, transfer.ItemID, expected,
			domain.TerminalStatuses(domain.WorkItemLead)}
	case domain.WorkItemSession:
		query = `
            UPDATE sessions SET counselor_id=$1::uuid,
                status = CASE WHEN $2::boolean THEN 'RELEASED' ELSE status END, updated_at=NOW()
            WHERE id=$3::uuid AND counselor_id IS NOT DISTINCT FROM $4::uuid AND status <> ALL($5)`
		args = []any{newOwner, transfer.Release, transfer.ItemID, expected,
			domain.TerminalStatuses(domain.WorkItemSession)}
	default:
		return nil, fmt.Errorf("unknown work item kind %q", transfer.Kind)
	}

	cmd, err := tx.Exec(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	if cmd.RowsAffected() == 0 {
		return nil, ErrOwnerConflict
	}

	if rec := transfer.Record; rec != nil {
		const insert = `
            INSERT INTO reassignment_records (id, work_item_id, work_item_kind, from_counselor_id, to_counselor_id,
                reason, trigger, actor_id, created_at)
            VALUES ($1::uuid,$2::uuid,$3,$4::uuid,$5::uuid,$6,$7,$8,$9)`
		if _, err := tx.Exec(ctx, insert,
			rec.ID,
			rec.WorkItemID,
			rec.WorkItemKind,
			nullableString(rec.FromCounselorID),
			nullableString(rec.ToCounselorID),
			rec.Reason,
			rec.Trigger,
			rec.ActorID,
			rec.Timestamp,
		); err != nil {
			return nil, err
		}
	}

	item, err := getWorkItem(ctx, tx, transfer.ItemID)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return item, nil
}

type queryRower interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func getWorkItem(ctx context.Context, q queryRower, id string) (*domain.WorkItem, error) {
	if !validID(id) {
		return nil, ErrNotFound
	}
	item, err := scanLead(q.QueryRow(ctx, leadSelect+` WHERE id=$1::uuid`, id))
	if err == nil {
		return item, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}
	item, err = scanSession(q.QueryRow(ctx, sessionSelect+` WHERE s.id=$1::uuid`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return item, nil
}

func scanLead(row pgx.Row) (*domain.WorkItem, error) {
	item := domain.WorkItem{Kind: domain.WorkItemLead}
	if err := row.Scan(
		&item.ID,
		&item.OwnerID,
		&item.Status,
		&item.Title,
		&item.PreferredLanguage,
		&item.RequiredExpertise,
		&item.AutoAssigned,
		&item.Released,
		&item.CreatedAt,
		&item.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &item, nil
}

func scanSession(row pgx.Row) (*domain.WorkItem, error) {
	item := domain.WorkItem{Kind: domain.WorkItemSession}
	if err := row.Scan(
		&item.ID,
		&item.OwnerID,
		&item.Status,
		&item.Title,
		&item.PreferredLanguage,
		&item.RequiredExpertise,
		&item.LeadID,
		&item.ScheduledDate,
		&item.CreatedAt,
		&item.UpdatedAt,
	); err != nil {
		return nil, err
	}
	item.Released = item.Status == domain.SessionStatusReleased
	return &item, nil
}
