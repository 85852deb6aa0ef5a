package postgres

import (
	"context"
	"fmt"

	"github.com/tu-usuario/reservas-api/internal/domain/entity"
	"github.com/tu-usuario/reservas-api/internal/domain/repository"
)

var _ repository.TransferRepository = (*TransferRepo)(nil)

// TransferRepo historial de transferencias sobre PostgreSQL.
type TransferRepo struct {
	q Querier
}

// NewTransferRepository construye el adaptador. Pasar pool o tx (Querier).
func NewTransferRepository(q Querier) *TransferRepo {
	return &TransferRepo{q: q}
}

// Create persiste el registro (normalmente en PENDING, resuelto enseguida).
func (r *TransferRepo) Create(ctx context.Context, record *entity.TransferRecord) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO transfer_records
			(id, source_warehouse_id, dest_warehouse_id, product_id, quantity, state, failure_reason, created_at, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		record.ID, record.SourceWarehouseID, record.DestWarehouseID, record.ProductID,
		record.Quantity, record.State, record.FailureReason, record.CreatedAt, record.CreatedBy,
	)
	if err != nil {
		return fmt.Errorf("insert transfer record: %w", err)
	}
	return nil
}

// SetState resuelve el registro con su timestamp.
func (r *TransferRepo) SetState(ctx context.Context, id string, state entity.TransferState, failureReason string) error {
	_, err := r.q.Exec(ctx, `
		UPDATE transfer_records
		SET state = $1, failure_reason = $2, resolved_at = now()
		WHERE id = $3`,
		state, failureReason, id,
	)
	if err != nil {
		return fmt.Errorf("update transfer record: %w", err)
	}
	return nil
}

// ListRecent transferencias más recientes primero.
func (r *TransferRepo) ListRecent(ctx context.Context, limit int) ([]*entity.TransferRecord, error) {
	rows, err := r.q.Query(ctx, `
		SELECT id, source_warehouse_id, dest_warehouse_id, product_id, quantity,
		       state, failure_reason, created_at, COALESCE(resolved_at, created_at), created_by
		FROM transfer_records
		ORDER BY created_at DESC
		LIMIT $1`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list transfer records: %w", err)
	}
	defer rows.Close()

	var out []*entity.TransferRecord
	for rows.Next() {
		var rec entity.TransferRecord
		if err := rows.Scan(
			&rec.ID, &rec.SourceWarehouseID, &rec.DestWarehouseID, &rec.ProductID, &rec.Quantity,
			&rec.State, &rec.FailureReason, &rec.CreatedAt, &rec.ResolvedAt, &rec.CreatedBy,
		); err != nil {
			return nil, fmt.Errorf("scan transfer record: %w", err)
		}
		out = append(out, &rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transfer records: %w", err)
	}
	return out, nil
}
