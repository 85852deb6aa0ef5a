package entity

import "time"

// StockRecord representa los contadores de stock de un producto en una bodega.
// Clave: (WarehouseID, ProductID). Reserved nunca excede OnHand; ambos son >= 0.
// Solo el StockLedger muta estos campos; ningún otro componente escribe directo.
type StockRecord struct {
	WarehouseID string
	ProductID   string
	OnHand      int64
	Reserved    int64
	UpdatedAt   time.Time
}

// Available es la cantidad reservable: OnHand - Reserved.
// Derivada, nunca se almacena de forma independiente.
func (s *StockRecord) Available() int64 {
	return s.OnHand - s.Reserved
}

// Availability es el snapshot de lectura que consumen la UI admin y el checkout.
type Availability struct {
	WarehouseID string    `json:"warehouse_id"`
	ProductID   string    `json:"product_id"`
	OnHand      int64     `json:"on_hand"`
	Reserved    int64     `json:"reserved"`
	Available   int64     `json:"available"`
	AsOf        time.Time `json:"as_of"`
}
