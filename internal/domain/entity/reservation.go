package entity

import "time"

// ReservationState estados del ciclo de vida de una reserva.
// ACTIVE es el único estado no terminal; las transiciones salen solo de ACTIVE
// y siempre vía CAS en el ReservationRepository.
type ReservationState string

const (
	ReservationActive    ReservationState = "ACTIVE"
	ReservationCommitted ReservationState = "COMMITTED"
	ReservationReleased  ReservationState = "RELEASED"
	ReservationExpired   ReservationState = "EXPIRED"
)

// Terminal indica si el estado ya no admite transiciones.
func (s ReservationState) Terminal() bool {
	return s == ReservationCommitted || s == ReservationReleased || s == ReservationExpired
}

// ReservationLine una línea de la reserva: cantidad de un producto en una bodega.
type ReservationLine struct {
	WarehouseID string `json:"warehouse_id"`
	ProductID   string `json:"product_id"`
	Quantity    int64  `json:"quantity"`
}

// Reservation es el hold temporal sobre stock durante el checkout.
// Las líneas son inmutables después de la creación: extender el hold
// cambia ExpiresAt, nunca las líneas.
type Reservation struct {
	ID        string
	OwnerID   string
	Lines     []ReservationLine
	State     ReservationState
	CreatedAt time.Time
	ExpiresAt time.Time
}
