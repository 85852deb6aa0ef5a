package repository

import (
	"context"

	"github.com/tu-usuario/reservas-api/internal/domain/entity"
)

// ReceiptRepository historial de recepciones de órdenes de compra.
type ReceiptRepository interface {
	Create(ctx context.Context, receipt *entity.PurchaseReceipt) error
	ListRecent(ctx context.Context, limit int) ([]*entity.PurchaseReceipt, error)
}
