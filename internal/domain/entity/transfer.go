package entity

import "time"

// Estados de una transferencia entre bodegas. La operación es síncrona en dos
// fases: nunca retorna PENDING; FAILED implica rollback completo del origen.
type TransferState string

const (
	TransferPending   TransferState = "PENDING"
	TransferCompleted TransferState = "COMPLETED"
	TransferFailed    TransferState = "FAILED"
)

// TransferRecord historial de una transferencia de stock entre dos bodegas.
type TransferRecord struct {
	ID                string
	SourceWarehouseID string
	DestWarehouseID   string
	ProductID         string
	Quantity          int64
	State             TransferState
	FailureReason     string
	CreatedAt         time.Time
	ResolvedAt        time.Time
	CreatedBy         string
}
