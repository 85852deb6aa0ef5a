package memory

import (
	"context"
	"sync"

	"github.com/tu-usuario/reservas-api/internal/domain"
	"github.com/tu-usuario/reservas-api/internal/domain/entity"
	"github.com/tu-usuario/reservas-api/internal/domain/repository"
)

var _ repository.TransferRepository = (*TransferRepo)(nil)

// TransferRepo historial de transferencias en memoria.
type TransferRepo struct {
	mu    sync.Mutex
	items []*entity.TransferRecord
}

// NewTransferRepository construye el historial vacío.
func NewTransferRepository() *TransferRepo {
	return &TransferRepo{}
}

func (r *TransferRepo) Create(_ context.Context, record *entity.TransferRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *record
	r.items = append(r.items, &cp)
	return nil
}

func (r *TransferRepo) SetState(_ context.Context, id string, state entity.TransferState, failureReason string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, rec := range r.items {
		if rec.ID == id {
			rec.State = state
			rec.FailureReason = failureReason
			return nil
		}
	}
	return domain.ErrNotFound
}

func (r *TransferRepo) ListRecent(_ context.Context, limit int) ([]*entity.TransferRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*entity.TransferRecord, 0, limit)
	for i := len(r.items) - 1; i >= 0 && len(out) < limit; i-- {
		cp := *r.items[i]
		out = append(out, &cp)
	}
	return out, nil
}

var _ repository.ReceiptRepository = (*ReceiptRepo)(nil)

// ReceiptRepo historial de recepciones en memoria.
type ReceiptRepo struct {
	mu    sync.Mutex
	items []*entity.PurchaseReceipt
}

// NewReceiptRepository construye el historial vacío.
func NewReceiptRepository() *ReceiptRepo {
	return &ReceiptRepo{}
}

func (r *ReceiptRepo) Create(_ context.Context, receipt *entity.PurchaseReceipt) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *receipt
	r.items = append(r.items, &cp)
	return nil
}

func (r *ReceiptRepo) ListRecent(_ context.Context, limit int) ([]*entity.PurchaseReceipt, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*entity.PurchaseReceipt, 0, limit)
	for i := len(r.items) - 1; i >= 0 && len(out) < limit; i-- {
		cp := *r.items[i]
		out = append(out, &cp)
	}
	return out, nil
}
