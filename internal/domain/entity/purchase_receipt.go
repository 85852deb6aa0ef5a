package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// PurchaseReceipt recepción de una orden de compra: entrada de stock a una
// bodega con su costo. Solo incrementa OnHand; nunca toca Reserved.
type PurchaseReceipt struct {
	ID          string
	WarehouseID string
	ProductID   string
	Quantity    int64
	UnitCost    decimal.Decimal
	TotalCost   decimal.Decimal
	Reference   string // orden de compra, remisión del proveedor, etc.
	ReceivedAt  time.Time
	ReceivedBy  string
}
