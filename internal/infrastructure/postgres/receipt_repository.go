package postgres

import (
	"context"
	"fmt"

	"github.com/tu-usuario/reservas-api/internal/domain/entity"
	"github.com/tu-usuario/reservas-api/internal/domain/repository"
)

var _ repository.ReceiptRepository = (*ReceiptRepo)(nil)

// ReceiptRepo historial de recepciones de compra sobre PostgreSQL. Los costos
// van en NUMERIC y entran/salen como shopspring/decimal (codec en el pool).
type ReceiptRepo struct {
	q Querier
}

// NewReceiptRepository construye el adaptador. Pasar pool o tx (Querier).
func NewReceiptRepository(q Querier) *ReceiptRepo {
	return &ReceiptRepo{q: q}
}

// Create persiste el recibo.
func (r *ReceiptRepo) Create(ctx context.Context, receipt *entity.PurchaseReceipt) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO purchase_receipts
			(id, warehouse_id, product_id, quantity, unit_cost, total_cost, reference, received_at, received_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		receipt.ID, receipt.WarehouseID, receipt.ProductID, receipt.Quantity,
		receipt.UnitCost, receipt.TotalCost, receipt.Reference, receipt.ReceivedAt, receipt.ReceivedBy,
	)
	if err != nil {
		return fmt.Errorf("insert purchase receipt: %w", err)
	}
	return nil
}

// ListRecent recibos más recientes primero.
func (r *ReceiptRepo) ListRecent(ctx context.Context, limit int) ([]*entity.PurchaseReceipt, error) {
	rows, err := r.q.Query(ctx, `
		SELECT id, warehouse_id, product_id, quantity, unit_cost, total_cost, reference, received_at, received_by
		FROM purchase_receipts
		ORDER BY received_at DESC
		LIMIT $1`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list purchase receipts: %w", err)
	}
	defer rows.Close()

	var out []*entity.PurchaseReceipt
	for rows.Next() {
		var rec entity.PurchaseReceipt
		if err := rows.Scan(
			&rec.ID, &rec.WarehouseID, &rec.ProductID, &rec.Quantity,
			&rec.UnitCost, &rec.TotalCost, &rec.Reference, &rec.ReceivedAt, &rec.ReceivedBy,
		); err != nil {
			return nil, fmt.Errorf("scan purchase receipt: %w", err)
		}
		out = append(out, &rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate purchase receipts: %w", err)
	}
	return out, nil
}
