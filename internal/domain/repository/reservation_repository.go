package repository

import (
	"context"
	"time"

	"github.com/tu-usuario/reservas-api/internal/domain/entity"
)

// ReservationRepository puerto del almacén durable de reservas.
type ReservationRepository interface {
	// Create persiste la reserva con sus líneas. ErrDuplicateID si el id ya
	// existe (chequeo defensivo: los ids son UUID v4).
	Create(ctx context.Context, reservation *entity.Reservation) error
	// Get devuelve la reserva con sus líneas en orden. ErrNotFound si no existe.
	Get(ctx context.Context, id string) (*entity.Reservation, error)
	// Transition hace CAS del estado: falla con ErrStateConflict si el estado
	// actual no es `from`. Es lo que resuelve la carrera reaper-vs-commit.
	Transition(ctx context.Context, id string, from, to entity.ReservationState) error
	// UpdateExpiry cambia ExpiresAt solo mientras la reserva siga ACTIVE;
	// ErrStateConflict en caso contrario. Nunca toca las líneas.
	UpdateExpiry(ctx context.Context, id string, newExpiry time.Time) error
	// FindExpired devuelve reservas ACTIVE con ExpiresAt <= now, ordenadas por
	// ExpiresAt ascendente (la más vencida primero). Solo la usa el reaper.
	FindExpired(ctx context.Context, now time.Time, limit int) ([]*entity.Reservation, error)
}
