package stock

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tu-usuario/reservas-api/internal/domain"
	"github.com/tu-usuario/reservas-api/internal/domain/entity"
	"github.com/tu-usuario/reservas-api/internal/domain/repository"
	"github.com/tu-usuario/reservas-api/pkg/logger"
)

// PurchaseOrderProcessor ingresa suministro a una bodega: una sola llamada al
// ledger (Receive solo incrementa OnHand, no puede causar oversell) más la
// fila de historial con el costo. Seguro en concurrencia con reservas sobre la
// misma clave: la atomicidad por clave del ledger es suficiente.
type PurchaseOrderProcessor struct {
	ledger      Ledger
	receiptRepo repository.ReceiptRepository
	log         *logger.Logger
}

// NewPurchaseOrderProcessor construye el procesador.
func NewPurchaseOrderProcessor(ledger Ledger, receiptRepo repository.ReceiptRepository, log *logger.Logger) *PurchaseOrderProcessor {
	return &PurchaseOrderProcessor{ledger: ledger, receiptRepo: receiptRepo, log: log}
}

// ReceiveInput entrada de una recepción de orden de compra.
type ReceiveInput struct {
	WarehouseID string
	ProductID   string
	Quantity    int64
	UnitCost    decimal.Decimal
	Reference   string
	ReceivedBy  string
}

// Receive valida, incrementa OnHand y persiste el recibo.
func (p *PurchaseOrderProcessor) Receive(ctx context.Context, input ReceiveInput) (*entity.PurchaseReceipt, error) {
	if input.WarehouseID == "" || input.ProductID == "" || input.Quantity <= 0 {
		return nil, domain.ErrInvalidInput
	}
	if input.UnitCost.LessThan(decimal.Zero) {
		return nil, domain.ErrInvalidInput
	}

	if err := p.ledger.Receive(ctx, input.WarehouseID, input.ProductID, input.Quantity); err != nil {
		return nil, fmt.Errorf("recepción en ledger: %w", err)
	}

	receipt := &entity.PurchaseReceipt{
		ID:          uuid.New().String(),
		WarehouseID: input.WarehouseID,
		ProductID:   input.ProductID,
		Quantity:    input.Quantity,
		UnitCost:    input.UnitCost,
		TotalCost:   input.UnitCost.Mul(decimal.NewFromInt(input.Quantity)),
		Reference:   input.Reference,
		ReceivedAt:  time.Now(),
		ReceivedBy:  input.ReceivedBy,
	}
	if err := p.receiptRepo.Create(ctx, receipt); err != nil {
		// El stock ya entró; el historial es secundario. Se loguea y se devuelve
		// el recibo igual para no duplicar el ingreso con un retry ciego.
		p.log.Error().Err(err).Str("receipt_id", receipt.ID).Msg("persistir recibo de compra")
	}
	return receipt, nil
}

// History devuelve las recepciones recientes para la UI admin.
func (p *PurchaseOrderProcessor) History(ctx context.Context, limit int) ([]*entity.PurchaseReceipt, error) {
	if limit <= 0 {
		limit = 50
	}
	return p.receiptRepo.ListRecent(ctx, limit)
}
