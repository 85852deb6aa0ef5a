package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/tu-usuario/reservas-api/internal/domain/entity"
	"github.com/tu-usuario/reservas-api/internal/domain/repository"
)

var _ repository.StockRepository = (*StockRepo)(nil)

// StockRepo implementación de StockRepository sobre PostgreSQL (usable con
// pool o tx). La fila de stock_records es la única fuente de verdad de los
// contadores OnHand/Reserved.
type StockRepo struct {
	q Querier
}

// NewStockRepository construye el adaptador de stock. Pasar pool o tx (Querier).
func NewStockRepository(q Querier) *StockRepo {
	return &StockRepo{q: q}
}

// Get obtiene los contadores de un producto en una bodega. Fila inexistente
// se devuelve como registro en cero (clave aún sin stock).
func (r *StockRepo) Get(ctx context.Context, warehouseID, productID string) (*entity.StockRecord, error) {
	query := `
		SELECT warehouse_id, product_id, on_hand, reserved, updated_at
		FROM stock_records WHERE warehouse_id = $1 AND product_id = $2`
	return r.scanOne(ctx, query, warehouseID, productID)
}

// GetForUpdate obtiene los contadores y bloquea la fila (SELECT FOR UPDATE).
// Todo mutador de la misma clave serializa detrás de este lock. La fila se
// materializa en cero si no existe: dos primeras mutaciones concurrentes de
// una clave nueva deben serializar igual que las demás.
func (r *StockRepo) GetForUpdate(ctx context.Context, warehouseID, productID string) (*entity.StockRecord, error) {
	seed := `
		INSERT INTO stock_records (warehouse_id, product_id, on_hand, reserved, updated_at)
		VALUES ($1, $2, 0, 0, now())
		ON CONFLICT (warehouse_id, product_id) DO NOTHING`
	if _, err := r.q.Exec(ctx, seed, warehouseID, productID); err != nil {
		return nil, fmt.Errorf("seed stock record: %w", err)
	}
	query := `
		SELECT warehouse_id, product_id, on_hand, reserved, updated_at
		FROM stock_records WHERE warehouse_id = $1 AND product_id = $2
		FOR UPDATE`
	return r.scanOne(ctx, query, warehouseID, productID)
}

// Upsert inserta o actualiza los contadores de la clave.
func (r *StockRepo) Upsert(ctx context.Context, record *entity.StockRecord) error {
	query := `
		INSERT INTO stock_records (warehouse_id, product_id, on_hand, reserved, updated_at)
		VALUES ($1, $2, $3, $4, now())
		ON CONFLICT (warehouse_id, product_id)
		DO UPDATE SET on_hand = EXCLUDED.on_hand, reserved = EXCLUDED.reserved, updated_at = now()`
	_, err := r.q.Exec(ctx, query, record.WarehouseID, record.ProductID, record.OnHand, record.Reserved)
	if err != nil {
		return fmt.Errorf("upsert stock record: %w", err)
	}
	return nil
}

func (r *StockRepo) scanOne(ctx context.Context, query, warehouseID, productID string) (*entity.StockRecord, error) {
	var rec entity.StockRecord
	err := r.q.QueryRow(ctx, query, warehouseID, productID).Scan(
		&rec.WarehouseID, &rec.ProductID, &rec.OnHand, &rec.Reserved, &rec.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return &entity.StockRecord{WarehouseID: warehouseID, ProductID: productID}, nil
		}
		return nil, fmt.Errorf("get stock record: %w", err)
	}
	return &rec, nil
}
