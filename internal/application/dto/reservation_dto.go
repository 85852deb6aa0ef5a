package dto

import (
	"time"

	"github.com/tu-usuario/reservas-api/internal/domain/entity"
)

// ReservationLineRequest una línea del hold solicitado.
type ReservationLineRequest struct {
	WarehouseID string `json:"warehouse_id"`
	ProductID   string `json:"product_id"`
	Quantity    int64  `json:"quantity"`
}

// CreateReservationRequest cuerpo de POST /api/reservations.
type CreateReservationRequest struct {
	OwnerID string                   `json:"owner_id"`
	Lines   []ReservationLineRequest `json:"lines"`
}

// ExtendReservationRequest cuerpo de POST /api/reservations/:id/extend.
// Minutes se suma al momento actual para el nuevo vencimiento.
type ExtendReservationRequest struct {
	Minutes int `json:"minutes"`
}

// ReservationResponse representación de una reserva en la API.
type ReservationResponse struct {
	ID        string                   `json:"id"`
	OwnerID   string                   `json:"owner_id"`
	Lines     []entity.ReservationLine `json:"lines"`
	State     string                   `json:"state"`
	CreatedAt time.Time                `json:"created_at"`
	ExpiresAt time.Time                `json:"expires_at"`
}

// NewReservationResponse mapea la entidad al DTO.
func NewReservationResponse(res *entity.Reservation) ReservationResponse {
	return ReservationResponse{
		ID:        res.ID,
		OwnerID:   res.OwnerID,
		Lines:     res.Lines,
		State:     string(res.State),
		CreatedAt: res.CreatedAt,
		ExpiresAt: res.ExpiresAt,
	}
}
