package reservation

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/tu-usuario/reservas-api/internal/domain"
	"github.com/tu-usuario/reservas-api/internal/domain/repository"
	"github.com/tu-usuario/reservas-api/pkg/logger"
)

// Reaper barrido de fondo que encuentra holds vencidos y los transiciona a
// EXPIRED con el mismo CAS que protege Commit/Release. Corre en su propia
// cadencia (30s por defecto, siempre menor que la vigencia del hold para
// acotar la exposición tras el vencimiento a un intervalo de barrido).
type Reaper struct {
	manager   *Manager
	store     repository.ReservationRepository
	interval  time.Duration
	batchSize int
	log       *logger.Logger
	sweeping  atomic.Bool
}

// NewReaper construye el reaper.
func NewReaper(manager *Manager, store repository.ReservationRepository, interval time.Duration, batchSize int, log *logger.Logger) *Reaper {
	if batchSize <= 0 {
		batchSize = 100
	}
	return &Reaper{
		manager:   manager,
		store:     store,
		interval:  interval,
		batchSize: batchSize,
		log:       log,
	}
}

// Run ejecuta barridos en el intervalo configurado hasta que el contexto se
// cancele. Pensado para `go reaper.Run(ctx)`; el apagado del proceso cancela
// el contexto, deja de emitir barridos nuevos y el barrido en vuelo termina.
func (r *Reaper) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.log.Info().Dur("interval", r.interval).Msg("reaper de reservas iniciado")
	for {
		select {
		case <-ctx.Done():
			r.log.Info().Msg("reaper de reservas detenido")
			return
		case <-ticker.C:
			if _, err := r.Sweep(ctx); err != nil {
				r.log.Error().Err(err).Msg("barrido de reservas vencidas")
			}
		}
	}
}

// Sweep un ciclo lógico de barrido. Los ciclos nunca se solapan: si uno sigue
// corriendo cuando llega el siguiente tick, el tick se salta (no se encola).
// Devuelve cuántas reservas quedaron EXPIRED en este ciclo.
func (r *Reaper) Sweep(ctx context.Context) (int, error) {
	if !r.sweeping.CompareAndSwap(false, true) {
		r.log.Debug().Msg("barrido anterior aún en vuelo; tick saltado")
		return 0, nil
	}
	defer r.sweeping.Store(false)

	expired, err := r.store.FindExpired(ctx, time.Now(), r.batchSize)
	if err != nil {
		return 0, err
	}

	reaped := 0
	for _, res := range expired {
		if ctx.Err() != nil {
			// Apagado a mitad de barrido: lo ya procesado quedó resuelto
			// entero; el resto lo toma el próximo proceso.
			return reaped, ctx.Err()
		}
		err := r.manager.Expire(ctx, res.ID)
		switch {
		case err == nil:
			reaped++
		case errors.Is(err, domain.ErrAlreadyResolved):
			// Un commit (o release) ganó la carrera entre el listado y este
			// punto. Desenlace esperado y correcto.
			r.log.Debug().Str("reservation_id", res.ID).Msg("reserva resuelta antes de expirar")
		default:
			r.log.Error().Err(err).Str("reservation_id", res.ID).Msg("expirar reserva")
		}
	}
	if reaped > 0 {
		r.log.Info().Int("reaped", reaped).Msg("reservas vencidas liberadas")
	}
	return reaped, nil
}
