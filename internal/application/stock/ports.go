package stock

import (
	"context"

	"github.com/tu-usuario/reservas-api/internal/domain/entity"
	"github.com/tu-usuario/reservas-api/internal/domain/repository"
)

// TxRunner ejecuta una función dentro de una transacción de BD, pasando el
// repositorio de stock atado a esa tx. Garantiza atomicidad por operación.
type TxRunner interface {
	Run(ctx context.Context, fn func(stockRepo repository.StockRepository) error) error
}

// AvailabilityCache cache best-effort de snapshots de disponibilidad para
// lecturas de display. Puede estar levemente desactualizado; las decisiones
// del ledger nunca pasan por aquí. Toda falla se ignora (se loguea en el
// adaptador), nunca bloquea una operación.
type AvailabilityCache interface {
	Get(ctx context.Context, warehouseID, productID string) (*entity.Availability, bool)
	Set(ctx context.Context, availability *entity.Availability)
}
