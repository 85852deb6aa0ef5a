package stock

import (
	"context"
	"time"

	"github.com/tu-usuario/reservas-api/internal/domain"
	"github.com/tu-usuario/reservas-api/internal/domain/entity"
	"github.com/tu-usuario/reservas-api/internal/domain/repository"
	"github.com/tu-usuario/reservas-api/pkg/logger"
)

// Ledger contrato del libro de stock por (bodega, producto). Toda mutación de
// una clave es linealizable respecto a cualquier otra mutación de esa misma
// clave; claves distintas avanzan en paralelo (no hay lock global).
type Ledger interface {
	// Reserve incrementa Reserved sii Available >= qty en el instante del
	// check-and-increment atómico. ErrInsufficientStock si no alcanza.
	Reserve(ctx context.Context, warehouseID, productID string, qty int64) error
	// Release decrementa Reserved; si quedara negativo, ajusta a cero y
	// registra la violación de invariante (doble release aguas arriba).
	Release(ctx context.Context, warehouseID, productID string, qty int64) error
	// Commit decrementa OnHand y Reserved juntos. Requiere Reserved >= qty y
	// OnHand >= qty; si no, ErrInconsistentLedger (inalcanzable si los callers
	// respetan el ciclo de vida de la reserva).
	Commit(ctx context.Context, warehouseID, productID string, qty int64) error
	// Receive incrementa OnHand (recepción de orden de compra). No toca Reserved.
	Receive(ctx context.Context, warehouseID, productID string, qty int64) error
	// Withdraw retira OnHand sii Available >= qty: una transferencia no puede
	// sacar stock debajo de una reserva activa.
	Withdraw(ctx context.Context, warehouseID, productID string, qty int64) error
	// Availability snapshot fresco y consistente de la clave.
	Availability(ctx context.Context, warehouseID, productID string) (*entity.Availability, error)
}

// TxLedger implementación del Ledger sobre transacciones cortas con bloqueo de
// fila (SELECT FOR UPDATE vía StockRepository.GetForUpdate). Una transacción
// por operación; el lock de fila da la atomicidad por clave.
type TxLedger struct {
	txRunner TxRunner
	cache    AvailabilityCache // opcional (nil = sin cache)
	log      *logger.Logger
}

var _ Ledger = (*TxLedger)(nil)

// NewTxLedger construye el ledger transaccional.
func NewTxLedger(txRunner TxRunner, cache AvailabilityCache, log *logger.Logger) *TxLedger {
	return &TxLedger{txRunner: txRunner, cache: cache, log: log}
}

// Reserve incrementa Reserved con check atómico de disponibilidad.
func (l *TxLedger) Reserve(ctx context.Context, warehouseID, productID string, qty int64) error {
	return l.mutate(ctx, warehouseID, productID, qty, func(rec *entity.StockRecord) error {
		if rec.Available() < qty {
			return domain.ErrInsufficientStock
		}
		rec.Reserved += qty
		return nil
	})
}

// Release decrementa Reserved con clamp en cero.
func (l *TxLedger) Release(ctx context.Context, warehouseID, productID string, qty int64) error {
	return l.mutate(ctx, warehouseID, productID, qty, func(rec *entity.StockRecord) error {
		if rec.Reserved < qty {
			// Nunca envolver en negativo: ajustar a cero y dejar rastro.
			l.log.Error().
				Str("warehouse_id", warehouseID).
				Str("product_id", productID).
				Int64("reserved", rec.Reserved).
				Int64("release_qty", qty).
				Msg("violación de invariante: release dejaría Reserved negativo (doble release aguas arriba)")
			rec.Reserved = 0
			return nil
		}
		rec.Reserved -= qty
		return nil
	})
}

// Commit decrementa OnHand y Reserved en la misma transacción.
func (l *TxLedger) Commit(ctx context.Context, warehouseID, productID string, qty int64) error {
	return l.mutate(ctx, warehouseID, productID, qty, func(rec *entity.StockRecord) error {
		if rec.Reserved < qty || rec.OnHand < qty {
			l.log.Error().
				Str("warehouse_id", warehouseID).
				Str("product_id", productID).
				Int64("on_hand", rec.OnHand).
				Int64("reserved", rec.Reserved).
				Int64("commit_qty", qty).
				Msg("ledger inconsistente en commit")
			return domain.ErrInconsistentLedger
		}
		rec.OnHand -= qty
		rec.Reserved -= qty
		return nil
	})
}

// Receive incrementa OnHand.
func (l *TxLedger) Receive(ctx context.Context, warehouseID, productID string, qty int64) error {
	return l.mutate(ctx, warehouseID, productID, qty, func(rec *entity.StockRecord) error {
		rec.OnHand += qty
		return nil
	})
}

// Withdraw retira OnHand respetando las reservas activas.
func (l *TxLedger) Withdraw(ctx context.Context, warehouseID, productID string, qty int64) error {
	return l.mutate(ctx, warehouseID, productID, qty, func(rec *entity.StockRecord) error {
		if rec.Available() < qty {
			return domain.ErrInsufficientStock
		}
		rec.OnHand -= qty
		return nil
	})
}

// Availability lee la clave directo de la BD (sin cache).
func (l *TxLedger) Availability(ctx context.Context, warehouseID, productID string) (*entity.Availability, error) {
	var av *entity.Availability
	err := l.txRunner.Run(ctx, func(stockRepo repository.StockRepository) error {
		rec, err := stockRepo.Get(ctx, warehouseID, productID)
		if err != nil {
			return err
		}
		av = snapshot(rec)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return av, nil
}

// DisplayAvailability intenta la cache primero; en miss lee fresco y repuebla.
// Solo para display: las decisiones de reserva/commit leen siempre la BD.
func (l *TxLedger) DisplayAvailability(ctx context.Context, warehouseID, productID string) (*entity.Availability, error) {
	if l.cache != nil {
		if av, ok := l.cache.Get(ctx, warehouseID, productID); ok {
			return av, nil
		}
	}
	av, err := l.Availability(ctx, warehouseID, productID)
	if err != nil {
		return nil, err
	}
	if l.cache != nil {
		l.cache.Set(ctx, av)
	}
	return av, nil
}

// mutate abre una transacción corta, bloquea la fila, aplica fn y persiste.
// Tras el commit refresca la cache best-effort.
func (l *TxLedger) mutate(ctx context.Context, warehouseID, productID string, qty int64, fn func(*entity.StockRecord) error) error {
	if qty <= 0 {
		return domain.ErrInvalidInput
	}
	var after *entity.StockRecord
	err := l.txRunner.Run(ctx, func(stockRepo repository.StockRepository) error {
		rec, err := stockRepo.GetForUpdate(ctx, warehouseID, productID)
		if err != nil {
			return err
		}
		if err := fn(rec); err != nil {
			return err
		}
		rec.UpdatedAt = time.Now()
		if err := stockRepo.Upsert(ctx, rec); err != nil {
			return err
		}
		after = rec
		return nil
	})
	if err != nil {
		return err
	}
	if l.cache != nil && after != nil {
		l.cache.Set(ctx, snapshot(after))
	}
	return nil
}

func snapshot(rec *entity.StockRecord) *entity.Availability {
	return &entity.Availability{
		WarehouseID: rec.WarehouseID,
		ProductID:   rec.ProductID,
		OnHand:      rec.OnHand,
		Reserved:    rec.Reserved,
		Available:   rec.Available(),
		AsOf:        time.Now(),
	}
}
