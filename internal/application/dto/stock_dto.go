package dto

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/tu-usuario/reservas-api/internal/domain/entity"
)

// TransferRequest cuerpo de POST /api/transfers.
type TransferRequest struct {
	SourceWarehouseID string `json:"source_warehouse_id"`
	DestWarehouseID   string `json:"dest_warehouse_id"`
	ProductID         string `json:"product_id"`
	Quantity          int64  `json:"quantity"`
	RequestedBy       string `json:"requested_by"`
}

// TransferResponse representación del registro de transferencia.
type TransferResponse struct {
	ID                string    `json:"id"`
	SourceWarehouseID string    `json:"source_warehouse_id"`
	DestWarehouseID   string    `json:"dest_warehouse_id"`
	ProductID         string    `json:"product_id"`
	Quantity          int64     `json:"quantity"`
	State             string    `json:"state"`
	FailureReason     string    `json:"failure_reason,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
}

// NewTransferResponse mapea la entidad al DTO.
func NewTransferResponse(rec *entity.TransferRecord) TransferResponse {
	return TransferResponse{
		ID:                rec.ID,
		SourceWarehouseID: rec.SourceWarehouseID,
		DestWarehouseID:   rec.DestWarehouseID,
		ProductID:         rec.ProductID,
		Quantity:          rec.Quantity,
		State:             string(rec.State),
		FailureReason:     rec.FailureReason,
		CreatedAt:         rec.CreatedAt,
	}
}

// ReceiveRequest cuerpo de POST /api/purchase-orders/receipts.
type ReceiveRequest struct {
	WarehouseID string          `json:"warehouse_id"`
	ProductID   string          `json:"product_id"`
	Quantity    int64           `json:"quantity"`
	UnitCost    decimal.Decimal `json:"unit_cost"`
	Reference   string          `json:"reference"`
	ReceivedBy  string          `json:"received_by"`
}
