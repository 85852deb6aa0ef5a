package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/tu-usuario/reservas-api/internal/domain"
	"github.com/tu-usuario/reservas-api/internal/domain/entity"
	"github.com/tu-usuario/reservas-api/internal/domain/repository"
)

var _ repository.ReservationRepository = (*ReservationRepo)(nil)

// ReservationRepo implementación de ReservationRepository sobre PostgreSQL.
// Tablas: reservations (cabecera + estado) y reservation_lines (líneas con
// line_no para preservar el orden). El índice parcial sobre
// (state='ACTIVE', expires_at) respalda FindExpired.
type ReservationRepo struct {
	pool *pgxpool.Pool
}

// NewReservationRepository construye el adaptador.
func NewReservationRepository(pool *pgxpool.Pool) *ReservationRepo {
	return &ReservationRepo{pool: pool}
}

// Create persiste cabecera y líneas en una transacción.
func (r *ReservationRepo) Create(ctx context.Context, res *entity.Reservation) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	_, err = tx.Exec(ctx, `
		INSERT INTO reservations (id, owner_id, state, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5)`,
		res.ID, res.OwnerID, res.State, res.CreatedAt, res.ExpiresAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicateID
		}
		return fmt.Errorf("insert reservation: %w", err)
	}

	for i, line := range res.Lines {
		_, err = tx.Exec(ctx, `
			INSERT INTO reservation_lines (reservation_id, line_no, warehouse_id, product_id, quantity)
			VALUES ($1, $2, $3, $4, $5)`,
			res.ID, i, line.WarehouseID, line.ProductID, line.Quantity,
		)
		if err != nil {
			return fmt.Errorf("insert reservation line %d: %w", i, err)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// Get devuelve la reserva con sus líneas en orden.
func (r *ReservationRepo) Get(ctx context.Context, id string) (*entity.Reservation, error) {
	var res entity.Reservation
	err := r.pool.QueryRow(ctx, `
		SELECT id, owner_id, state, created_at, expires_at
		FROM reservations WHERE id = $1`, id,
	).Scan(&res.ID, &res.OwnerID, &res.State, &res.CreatedAt, &res.ExpiresAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get reservation: %w", err)
	}

	lines, err := r.linesFor(ctx, id)
	if err != nil {
		return nil, err
	}
	res.Lines = lines
	return &res, nil
}

// Transition CAS de estado: UPDATE condicionado al estado esperado. Cero filas
// afectadas distingue inexistente de conflicto de estado.
func (r *ReservationRepo) Transition(ctx context.Context, id string, from, to entity.ReservationState) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE reservations SET state = $1 WHERE id = $2 AND state = $3`,
		to, id, from,
	)
	if err != nil {
		return fmt.Errorf("transition reservation: %w", err)
	}
	if tag.RowsAffected() == 0 {
		var exists bool
		if err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM reservations WHERE id = $1)`, id).Scan(&exists); err != nil {
			return fmt.Errorf("check reservation exists: %w", err)
		}
		if !exists {
			return domain.ErrNotFound
		}
		return domain.ErrStateConflict
	}
	return nil
}

// UpdateExpiry renueva expires_at solo mientras la reserva siga ACTIVE.
func (r *ReservationRepo) UpdateExpiry(ctx context.Context, id string, newExpiry time.Time) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE reservations SET expires_at = $1 WHERE id = $2 AND state = $3`,
		newExpiry, id, entity.ReservationActive,
	)
	if err != nil {
		return fmt.Errorf("update reservation expiry: %w", err)
	}
	if tag.RowsAffected() == 0 {
		var exists bool
		if err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM reservations WHERE id = $1)`, id).Scan(&exists); err != nil {
			return fmt.Errorf("check reservation exists: %w", err)
		}
		if !exists {
			return domain.ErrNotFound
		}
		return domain.ErrStateConflict
	}
	return nil
}

// FindExpired reservas ACTIVE vencidas, la más vencida primero.
func (r *ReservationRepo) FindExpired(ctx context.Context, now time.Time, limit int) ([]*entity.Reservation, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, owner_id, state, created_at, expires_at
		FROM reservations
		WHERE state = $1 AND expires_at <= $2
		ORDER BY expires_at ASC
		LIMIT $3`,
		entity.ReservationActive, now, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("find expired reservations: %w", err)
	}
	defer rows.Close()

	var out []*entity.Reservation
	for rows.Next() {
		var res entity.Reservation
		if err := rows.Scan(&res.ID, &res.OwnerID, &res.State, &res.CreatedAt, &res.ExpiresAt); err != nil {
			return nil, fmt.Errorf("scan expired reservation: %w", err)
		}
		out = append(out, &res)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate expired reservations: %w", err)
	}
	for _, res := range out {
		lines, err := r.linesFor(ctx, res.ID)
		if err != nil {
			return nil, err
		}
		res.Lines = lines
	}
	return out, nil
}

func (r *ReservationRepo) linesFor(ctx context.Context, reservationID string) ([]entity.ReservationLine, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT warehouse_id, product_id, quantity
		FROM reservation_lines
		WHERE reservation_id = $1
		ORDER BY line_no ASC`, reservationID,
	)
	if err != nil {
		return nil, fmt.Errorf("get reservation lines: %w", err)
	}
	defer rows.Close()

	var lines []entity.ReservationLine
	for rows.Next() {
		var line entity.ReservationLine
		if err := rows.Scan(&line.WarehouseID, &line.ProductID, &line.Quantity); err != nil {
			return nil, fmt.Errorf("scan reservation line: %w", err)
		}
		lines = append(lines, line)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate reservation lines: %w", err)
	}
	return lines, nil
}
