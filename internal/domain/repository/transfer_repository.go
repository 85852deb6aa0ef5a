package repository

import (
	"context"

	"github.com/tu-usuario/reservas-api/internal/domain/entity"
)

// TransferRepository historial de transferencias entre bodegas.
type TransferRepository interface {
	Create(ctx context.Context, record *entity.TransferRecord) error
	// SetState resuelve el registro (COMPLETED o FAILED) con su timestamp.
	SetState(ctx context.Context, id string, state entity.TransferState, failureReason string) error
	// ListRecent para la vista de historial de la UI admin.
	ListRecent(ctx context.Context, limit int) ([]*entity.TransferRecord, error)
}
