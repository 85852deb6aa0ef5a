package reservation

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/tu-usuario/reservas-api/internal/application/audit"
	"github.com/tu-usuario/reservas-api/internal/application/stock"
	"github.com/tu-usuario/reservas-api/internal/domain"
	"github.com/tu-usuario/reservas-api/internal/domain/entity"
	"github.com/tu-usuario/reservas-api/internal/domain/repository"
	"github.com/tu-usuario/reservas-api/pkg/logger"
)

// Manager crea, extiende, libera y confirma holds de stock. Es el dueño de la
// máquina de estados ACTIVE → {COMMITTED, RELEASED, EXPIRED}: los tres estados
// finales son terminales, mutuamente excluyentes y alcanzables solo vía el CAS
// del ReservationRepository. El invariante de no-oversell vive en el ledger;
// el manager garantiza todo-o-nada entre líneas y exactamente-una resolución.
type Manager struct {
	store        repository.ReservationRepository
	ledger       stock.Ledger
	audit        audit.Sink
	holdDuration time.Duration
	log          *logger.Logger
	now          func() time.Time
}

// NewManager construye el manager. holdDuration es la vigencia del hold
// (config RESERVATION_HOLD_MINUTES, 10 minutos por defecto).
func NewManager(store repository.ReservationRepository, ledger stock.Ledger, sink audit.Sink, holdDuration time.Duration, log *logger.Logger) *Manager {
	return &Manager{
		store:        store,
		ledger:       ledger,
		audit:        sink,
		holdDuration: holdDuration,
		log:          log,
		now:          time.Now,
	}
}

// Create valida las líneas, reserva en el ledger línea por línea y recién
// entonces persiste la reserva ACTIVE (ledger primero, registro después).
// Todas las líneas de todas las bodegas entran o ninguna: si una falla, cada
// Reserve previo se compensa con Release antes de retornar, identificando la
// línea que falló.
func (m *Manager) Create(ctx context.Context, ownerID string, lines []entity.ReservationLine) (*entity.Reservation, error) {
	if ownerID == "" || len(lines) == 0 {
		return nil, domain.ErrInvalidInput
	}
	for _, line := range lines {
		if line.WarehouseID == "" || line.ProductID == "" || line.Quantity <= 0 {
			return nil, domain.ErrInvalidInput
		}
	}

	for i, line := range lines {
		if err := m.ledger.Reserve(ctx, line.WarehouseID, line.ProductID, line.Quantity); err != nil {
			m.compensate(ctx, lines[:i])
			if errors.Is(err, domain.ErrInsufficientStock) {
				return nil, fmt.Errorf("línea %d (%s/%s): %w", i, line.WarehouseID, line.ProductID, domain.ErrInsufficientStock)
			}
			return nil, fmt.Errorf("reservar línea %d: %w", i, err)
		}
	}

	now := m.now()
	res := &entity.Reservation{
		ID:        uuid.New().String(),
		OwnerID:   ownerID,
		Lines:     lines,
		State:     entity.ReservationActive,
		CreatedAt: now,
		ExpiresAt: now.Add(m.holdDuration),
	}
	if err := m.store.Create(ctx, res); err != nil {
		// El ledger ya reservó: compensar todo para no dejar Reserved
		// incrementado sin reserva trazable.
		m.compensate(ctx, lines)
		return nil, fmt.Errorf("persistir reserva: %w", err)
	}

	m.audit.Record(ctx, audit.Event{
		Action:      "reservation.created",
		PerformedBy: ownerID,
		TargetID:    res.ID,
		Details:     map[string]string{"lines": strconv.Itoa(len(lines))},
		At:          now,
	})
	return res, nil
}

// Commit confirma el hold: CAS ACTIVE→COMMITTED y luego descuenta OnHand y
// Reserved por cada línea. Si el CAS pierde contra otro actor devuelve
// ErrAlreadyResolved: no es un error a reintentar, es el desenlace ya
// alcanzado que el caller debe aceptar.
func (m *Manager) Commit(ctx context.Context, id string) error {
	res, err := m.resolve(ctx, id, entity.ReservationCommitted)
	if err != nil {
		return err
	}
	for _, line := range res.Lines {
		if err := m.ledger.Commit(ctx, line.WarehouseID, line.ProductID, line.Quantity); err != nil {
			// Clase error-de-programador: la reserva ya es COMMITTED y el
			// ledger no cuadra. Se superficia, nunca se come.
			m.log.Error().Err(err).Str("reservation_id", id).Msg("commit de línea contra ledger")
			return err
		}
	}
	m.audit.Record(ctx, audit.Event{
		Action:      "reservation.committed",
		PerformedBy: res.OwnerID,
		TargetID:    res.ID,
		At:          m.now(),
	})
	return nil
}

// Release libera el hold explícitamente (abandono de carrito): CAS
// ACTIVE→RELEASED y devuelve Reserved por cada línea. Idempotente para el
// caller: la segunda llamada recibe ErrAlreadyResolved y el ledger no se toca.
func (m *Manager) Release(ctx context.Context, id string) error {
	res, err := m.resolve(ctx, id, entity.ReservationReleased)
	if err != nil {
		return err
	}
	m.releaseLines(ctx, res)
	m.audit.Record(ctx, audit.Event{
		Action:      "reservation.released",
		PerformedBy: res.OwnerID,
		TargetID:    res.ID,
		At:          m.now(),
	})
	return nil
}

// Expire resuelve un hold vencido (lo invoca el reaper): CAS ACTIVE→EXPIRED y
// misma liberación de líneas que Release. Perder el CAS contra un commit
// concurrente es el desenlace correcto, no un error.
func (m *Manager) Expire(ctx context.Context, id string) error {
	res, err := m.resolve(ctx, id, entity.ReservationExpired)
	if err != nil {
		return err
	}
	m.releaseLines(ctx, res)
	m.audit.Record(ctx, audit.Event{
		Action:      "reservation.expired",
		PerformedBy: "reaper",
		TargetID:    res.ID,
		Details:     map[string]string{"owner_id": res.OwnerID},
		At:          m.now(),
	})
	return nil
}

// Extend renueva la vigencia del hold (actividad del usuario en el checkout).
// Solo mientras siga ACTIVE; nunca toca el ledger ni las líneas.
func (m *Manager) Extend(ctx context.Context, id string, newExpiry time.Time) error {
	if newExpiry.IsZero() {
		return domain.ErrInvalidInput
	}
	err := m.store.UpdateExpiry(ctx, id, newExpiry)
	if errors.Is(err, domain.ErrStateConflict) {
		return domain.ErrAlreadyResolved
	}
	return err
}

// Get devuelve la reserva por id (consulta del collaborator de checkout).
func (m *Manager) Get(ctx context.Context, id string) (*entity.Reservation, error) {
	return m.store.Get(ctx, id)
}

// resolve carga la reserva y ejecuta el CAS hacia el estado terminal pedido.
// El orden (Get antes del CAS) importa: las líneas se necesitan después y son
// inmutables, así que leerlas antes no abre carrera alguna.
func (m *Manager) resolve(ctx context.Context, id string, to entity.ReservationState) (*entity.Reservation, error) {
	res, err := m.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	err = m.store.Transition(ctx, id, entity.ReservationActive, to)
	if errors.Is(err, domain.ErrStateConflict) {
		return nil, domain.ErrAlreadyResolved
	}
	if err != nil {
		return nil, err
	}
	return res, nil
}

// releaseLines devuelve Reserved de cada línea. Una falla aislada se loguea y
// se sigue con el resto: el clamp del ledger impide dobles descuentos y la
// reserva ya quedó resuelta por el CAS.
func (m *Manager) releaseLines(ctx context.Context, res *entity.Reservation) {
	for _, line := range res.Lines {
		if err := m.ledger.Release(ctx, line.WarehouseID, line.ProductID, line.Quantity); err != nil {
			m.log.Error().Err(err).
				Str("reservation_id", res.ID).
				Str("warehouse_id", line.WarehouseID).
				Str("product_id", line.ProductID).
				Msg("liberar línea contra ledger")
		}
	}
}

// compensate deshace reservas de ledger ya aplicadas en un Create fallido.
// Reintento corto una vez: la compensación sí se reintenta, el camino directo no.
func (m *Manager) compensate(ctx context.Context, lines []entity.ReservationLine) {
	for _, line := range lines {
		err := m.ledger.Release(ctx, line.WarehouseID, line.ProductID, line.Quantity)
		if err != nil {
			time.Sleep(100 * time.Millisecond)
			err = m.ledger.Release(ctx, line.WarehouseID, line.ProductID, line.Quantity)
		}
		if err != nil {
			m.log.Error().Err(err).
				Str("warehouse_id", line.WarehouseID).
				Str("product_id", line.ProductID).
				Int64("quantity", line.Quantity).
				Msg("compensación de reserva fallida: Reserved quedó incrementado sin reserva")
		}
	}
}
