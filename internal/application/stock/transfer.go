package stock

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/tu-usuario/reservas-api/internal/application/audit"
	"github.com/tu-usuario/reservas-api/internal/domain"
	"github.com/tu-usuario/reservas-api/internal/domain/entity"
	"github.com/tu-usuario/reservas-api/internal/domain/repository"
	"github.com/tu-usuario/reservas-api/pkg/logger"
)

// TransferOrchestrator mueve stock on-hand entre dos bodegas como una sola
// operación lógica: retiro en origen (respetando reservas), abono en destino,
// y compensación del origen si el abono falla. Síncrono en dos fases; el
// registro nunca queda PENDING al retornar.
type TransferOrchestrator struct {
	ledger       Ledger
	transferRepo repository.TransferRepository
	audit        audit.Sink
	log          *logger.Logger
}

// NewTransferOrchestrator construye el orquestador.
func NewTransferOrchestrator(ledger Ledger, transferRepo repository.TransferRepository, sink audit.Sink, log *logger.Logger) *TransferOrchestrator {
	return &TransferOrchestrator{ledger: ledger, transferRepo: transferRepo, audit: sink, log: log}
}

// TransferInput entrada para una transferencia entre bodegas.
type TransferInput struct {
	SourceWarehouseID string
	DestWarehouseID   string
	ProductID         string
	Quantity          int64
	RequestedBy       string
}

// Transfer ejecuta la transferencia. Valida todo de forma síncrona antes de
// tocar el ledger. Si el abono en destino falla, restaura el OnHand del origen
// y marca el registro FAILED: el stock nunca desaparece de ambos lados.
func (o *TransferOrchestrator) Transfer(ctx context.Context, input TransferInput) (*entity.TransferRecord, error) {
	if input.SourceWarehouseID == "" || input.DestWarehouseID == "" || input.ProductID == "" {
		return nil, domain.ErrInvalidInput
	}
	if input.SourceWarehouseID == input.DestWarehouseID {
		return nil, domain.ErrSameWarehouse
	}
	if input.Quantity <= 0 {
		return nil, domain.ErrInvalidInput
	}

	now := time.Now()
	record := &entity.TransferRecord{
		ID:                uuid.New().String(),
		SourceWarehouseID: input.SourceWarehouseID,
		DestWarehouseID:   input.DestWarehouseID,
		ProductID:         input.ProductID,
		Quantity:          input.Quantity,
		State:             entity.TransferPending,
		CreatedAt:         now,
		CreatedBy:         input.RequestedBy,
	}
	if err := o.transferRepo.Create(ctx, record); err != nil {
		return nil, fmt.Errorf("crear registro de transferencia: %w", err)
	}

	// Fase 1: retiro en origen. Withdraw chequea Available (no solo OnHand):
	// una transferencia no puede sacar stock debajo de una reserva activa.
	if err := o.ledger.Withdraw(ctx, input.SourceWarehouseID, input.ProductID, input.Quantity); err != nil {
		o.resolve(ctx, record, entity.TransferFailed, err.Error())
		return record, err
	}

	// Fase 2: abono en destino; si falla, compensar el origen.
	if err := o.ledger.Receive(ctx, input.DestWarehouseID, input.ProductID, input.Quantity); err != nil {
		o.compensateSource(ctx, input)
		o.resolve(ctx, record, entity.TransferFailed, err.Error())
		return record, fmt.Errorf("abono en bodega destino: %w", err)
	}

	o.resolve(ctx, record, entity.TransferCompleted, "")
	o.audit.Record(ctx, audit.Event{
		Action:      "transfer.completed",
		PerformedBy: input.RequestedBy,
		TargetID:    record.ID,
		Details: map[string]string{
			"source_warehouse_id": input.SourceWarehouseID,
			"dest_warehouse_id":   input.DestWarehouseID,
			"product_id":          input.ProductID,
			"quantity":            strconv.FormatInt(input.Quantity, 10),
		},
		At: time.Now(),
	})
	return record, nil
}

// History devuelve las transferencias recientes para la UI admin.
func (o *TransferOrchestrator) History(ctx context.Context, limit int) ([]*entity.TransferRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	return o.transferRepo.ListRecent(ctx, limit)
}

// compensateSource restaura el OnHand del origen tras un abono fallido.
// Un reintento corto: la compensación es lo único que sí se reintenta.
func (o *TransferOrchestrator) compensateSource(ctx context.Context, input TransferInput) {
	err := o.ledger.Receive(ctx, input.SourceWarehouseID, input.ProductID, input.Quantity)
	if err != nil {
		time.Sleep(100 * time.Millisecond)
		err = o.ledger.Receive(ctx, input.SourceWarehouseID, input.ProductID, input.Quantity)
	}
	if err != nil {
		o.log.Error().
			Err(err).
			Str("source_warehouse_id", input.SourceWarehouseID).
			Str("product_id", input.ProductID).
			Int64("quantity", input.Quantity).
			Msg("compensación de transferencia fallida: OnHand del origen no restaurado")
	}
}

// resolve marca el registro COMPLETED o FAILED; el error de persistencia se
// loguea pero no cambia el resultado de la operación ya aplicada al ledger.
func (o *TransferOrchestrator) resolve(ctx context.Context, record *entity.TransferRecord, state entity.TransferState, reason string) {
	record.State = state
	record.FailureReason = reason
	record.ResolvedAt = time.Now()
	if err := o.transferRepo.SetState(ctx, record.ID, state, reason); err != nil {
		o.log.Error().Err(err).Str("transfer_id", record.ID).Msg("actualizar estado de transferencia")
	}
	if state == entity.TransferFailed {
		o.audit.Record(ctx, audit.Event{
			Action:      "transfer.failed",
			PerformedBy: record.CreatedBy,
			TargetID:    record.ID,
			Details:     map[string]string{"reason": reason},
			At:          time.Now(),
		})
	}
}
