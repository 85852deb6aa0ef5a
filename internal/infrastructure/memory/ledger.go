package memory

import (
	"context"
	"sync"
	"time"

	"github.com/tu-usuario/reservas-api/internal/application/stock"
	"github.com/tu-usuario/reservas-api/internal/domain"
	"github.com/tu-usuario/reservas-api/internal/domain/entity"
	"github.com/tu-usuario/reservas-api/pkg/logger"
)

var _ stock.Ledger = (*Ledger)(nil)

// Ledger implementación en memoria del stock.Ledger: un mutex por clave
// (bodega, producto) replica la linealizabilidad por fila del adaptador
// PostgreSQL. Para tests y modo dev; claves distintas no se serializan entre sí.
type Ledger struct {
	mu   sync.Mutex // protege el mapa, no las claves
	keys map[string]*lockedRecord
	log  *logger.Logger
}

type lockedRecord struct {
	mu  sync.Mutex
	rec entity.StockRecord
}

// NewLedger construye el ledger en memoria.
func NewLedger(log *logger.Logger) *Ledger {
	return &Ledger{keys: make(map[string]*lockedRecord), log: log}
}

// Seed fija los contadores de una clave (setup de tests y modo dev).
func (l *Ledger) Seed(warehouseID, productID string, onHand, reserved int64) {
	lr := l.key(warehouseID, productID)
	lr.mu.Lock()
	defer lr.mu.Unlock()
	lr.rec.OnHand = onHand
	lr.rec.Reserved = reserved
	lr.rec.UpdatedAt = time.Now()
}

// Reserve check-and-increment atómico de Reserved.
func (l *Ledger) Reserve(_ context.Context, warehouseID, productID string, qty int64) error {
	return l.mutate(warehouseID, productID, qty, func(rec *entity.StockRecord) error {
		if rec.Available() < qty {
			return domain.ErrInsufficientStock
		}
		rec.Reserved += qty
		return nil
	})
}

// Release decrementa Reserved con clamp en cero.
func (l *Ledger) Release(_ context.Context, warehouseID, productID string, qty int64) error {
	return l.mutate(warehouseID, productID, qty, func(rec *entity.StockRecord) error {
		if rec.Reserved < qty {
			l.log.Error().
				Str("warehouse_id", warehouseID).
				Str("product_id", productID).
				Msg("violación de invariante: release dejaría Reserved negativo")
			rec.Reserved = 0
			return nil
		}
		rec.Reserved -= qty
		return nil
	})
}

// Commit descuenta OnHand y Reserved juntos.
func (l *Ledger) Commit(_ context.Context, warehouseID, productID string, qty int64) error {
	return l.mutate(warehouseID, productID, qty, func(rec *entity.StockRecord) error {
		if rec.Reserved < qty || rec.OnHand < qty {
			return domain.ErrInconsistentLedger
		}
		rec.OnHand -= qty
		rec.Reserved -= qty
		return nil
	})
}

// Receive incrementa OnHand.
func (l *Ledger) Receive(_ context.Context, warehouseID, productID string, qty int64) error {
	return l.mutate(warehouseID, productID, qty, func(rec *entity.StockRecord) error {
		rec.OnHand += qty
		return nil
	})
}

// Withdraw retira OnHand respetando reservas activas.
func (l *Ledger) Withdraw(_ context.Context, warehouseID, productID string, qty int64) error {
	return l.mutate(warehouseID, productID, qty, func(rec *entity.StockRecord) error {
		if rec.Available() < qty {
			return domain.ErrInsufficientStock
		}
		rec.OnHand -= qty
		return nil
	})
}

// Availability snapshot de la clave.
func (l *Ledger) Availability(_ context.Context, warehouseID, productID string) (*entity.Availability, error) {
	lr := l.key(warehouseID, productID)
	lr.mu.Lock()
	defer lr.mu.Unlock()
	return &entity.Availability{
		WarehouseID: warehouseID,
		ProductID:   productID,
		OnHand:      lr.rec.OnHand,
		Reserved:    lr.rec.Reserved,
		Available:   lr.rec.Available(),
		AsOf:        time.Now(),
	}, nil
}

func (l *Ledger) mutate(warehouseID, productID string, qty int64, fn func(*entity.StockRecord) error) error {
	if qty <= 0 {
		return domain.ErrInvalidInput
	}
	lr := l.key(warehouseID, productID)
	lr.mu.Lock()
	defer lr.mu.Unlock()
	if err := fn(&lr.rec); err != nil {
		return err
	}
	lr.rec.UpdatedAt = time.Now()
	return nil
}

func (l *Ledger) key(warehouseID, productID string) *lockedRecord {
	l.mu.Lock()
	defer l.mu.Unlock()
	k := warehouseID + "\x00" + productID
	lr, ok := l.keys[k]
	if !ok {
		lr = &lockedRecord{rec: entity.StockRecord{WarehouseID: warehouseID, ProductID: productID}}
		l.keys[k] = lr
	}
	return lr
}
