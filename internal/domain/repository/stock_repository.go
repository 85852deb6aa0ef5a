package repository

import (
	"context"

	"github.com/tu-usuario/reservas-api/internal/domain/entity"
)

// StockRepository puerto para leer/escribir la fila de stock por bodega+producto.
// Usado dentro de transacciones para garantizar consistencia por clave.
type StockRepository interface {
	// Get devuelve la fila; si no existe, un registro en cero (no error).
	Get(ctx context.Context, warehouseID, productID string) (*entity.StockRecord, error)
	// GetForUpdate bloquea la fila para update (SELECT FOR UPDATE). Es la base
	// de la linealizabilidad por clave del ledger.
	GetForUpdate(ctx context.Context, warehouseID, productID string) (*entity.StockRecord, error)
	// Upsert inserta o actualiza los contadores de la fila.
	Upsert(ctx context.Context, record *entity.StockRecord) error
}
