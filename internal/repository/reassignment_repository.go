package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/counselor-presence/internal/domain"
)

type reassignmentRepository struct {
	pool *pgxpool.Pool
}

// NewReassignmentRepository builds the audit reader. Writes happen inside
// WorkItemRepository.TransferOwnership so the audit row shares the owner swap's transaction.
func NewReassignmentRepository(pool *pgxpool.Pool) ReassignmentRepository {
	return &reassignmentRepository{pool: pool}
}

func (r *reassignmentRepository) ListByWorkItem(ctx context.Context, workItemID string) ([]domain.ReassignmentRecord, error) {
	if !validID(workItemID) {
		return nil, nil
	}
	const query = `
        SELECT id::text, work_item_id::text, work_item_kind, COALESCE(from_counselor_id::text, ''),
            COALESCE(to_counselor_id::text, ''), reason, trigger, actor_id, created_at
        FROM reassignment_records WHERE work_item_id=$1::uuid ORDER BY created_at ASC`
	rows, err := r.pool.Query(ctx, query, workItemID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.ReassignmentRecord
	for rows.Next() {
		var rec domain.ReassignmentRecord
		if err := rows.Scan(
			&rec.ID,
			&rec.WorkItemID,
			&rec.WorkItemKind,
			&rec.FromCounselorID,
			&rec.ToCounselorID,
			&rec.Reason,
			&rec.Trigger,
			&rec.ActorID,
			&rec.Timestamp,
		); err != nil {
			return nil, err
		}
		result = append(result, rec)
	}
	return result, rows.Err()
}
