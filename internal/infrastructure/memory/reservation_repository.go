package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/tu-usuario/reservas-api/internal/domain"
	"github.com/tu-usuario/reservas-api/internal/domain/entity"
	"github.com/tu-usuario/reservas-api/internal/domain/repository"
)

var _ repository.ReservationRepository = (*ReservationRepo)(nil)

// ReservationRepo almacén de reservas en memoria con la misma semántica CAS
// que el adaptador PostgreSQL. Para tests y modo dev.
type ReservationRepo struct {
	mu    sync.Mutex
	items map[string]*entity.Reservation
}

// NewReservationRepository construye el almacén vacío.
func NewReservationRepository() *ReservationRepo {
	return &ReservationRepo{items: make(map[string]*entity.Reservation)}
}

// Create persiste una copia de la reserva. ErrDuplicateID si el id existe.
func (r *ReservationRepo) Create(_ context.Context, res *entity.Reservation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[res.ID]; ok {
		return domain.ErrDuplicateID
	}
	r.items[res.ID] = clone(res)
	return nil
}

// Get devuelve una copia de la reserva.
func (r *ReservationRepo) Get(_ context.Context, id string) (*entity.Reservation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	res, ok := r.items[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return clone(res), nil
}

// Transition CAS de estado bajo el mutex del almacén.
func (r *ReservationRepo) Transition(_ context.Context, id string, from, to entity.ReservationState) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	res, ok := r.items[id]
	if !ok {
		return domain.ErrNotFound
	}
	if res.State != from {
		return domain.ErrStateConflict
	}
	res.State = to
	return nil
}

// UpdateExpiry renueva expires_at solo si sigue ACTIVE.
func (r *ReservationRepo) UpdateExpiry(_ context.Context, id string, newExpiry time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	res, ok := r.items[id]
	if !ok {
		return domain.ErrNotFound
	}
	if res.State != entity.ReservationActive {
		return domain.ErrStateConflict
	}
	res.ExpiresAt = newExpiry
	return nil
}

// FindExpired reservas ACTIVE vencidas ordenadas por vencimiento ascendente.
func (r *ReservationRepo) FindExpired(_ context.Context, now time.Time, limit int) ([]*entity.Reservation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.Reservation
	for _, res := range r.items {
		if res.State == entity.ReservationActive && !res.ExpiresAt.After(now) {
			out = append(out, clone(res))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ExpiresAt.Before(out[j].ExpiresAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func clone(res *entity.Reservation) *entity.Reservation {
	cp := *res
	cp.Lines = append([]entity.ReservationLine(nil), res.Lines...)
	return &cp
}
