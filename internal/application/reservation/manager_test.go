package reservation_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tu-usuario/reservas-api/internal/application/reservation"
	"github.com/tu-usuario/reservas-api/internal/domain"
	"github.com/tu-usuario/reservas-api/internal/domain/entity"
	"github.com/tu-usuario/reservas-api/internal/infrastructure/auditsink"
	"github.com/tu-usuario/reservas-api/internal/infrastructure/memory"
	"github.com/tu-usuario/reservas-api/pkg/logger"
)

// ──────────────────────────────────────────────────────────────────────────────
// Helpers de test: manager sobre adaptadores en memoria. El ledger en memoria
// replica la semántica por clave del adaptador PostgreSQL, así que estas
// pruebas ejercitan la lógica real de compensación, CAS y no-oversell.
// ──────────────────────────────────────────────────────────────────────────────

const (
	testOwner = "shopper-001"
	testWh1   = "wh-bogota"
	testWh2   = "wh-medellin"
	testProd  = "prod-altavoz-bt"
	testHold  = 10 * time.Minute
)

func newTestManager(t *testing.T) (*reservation.Manager, *memory.Ledger, *memory.ReservationRepo) {
	t.Helper()
	ledger := memory.NewLedger(logger.NewNop())
	store := memory.NewReservationRepository()
	mgr := reservation.NewManager(store, ledger, auditsink.NewNoopSink(), testHold, logger.NewNop())
	return mgr, ledger, store
}

func mustAvailability(t *testing.T, ledger *memory.Ledger, wh, prod string) *entity.Availability {
	t.Helper()
	av, err := ledger.Availability(context.Background(), wh, prod)
	require.NoError(t, err)
	return av
}

func line(wh, prod string, qty int64) entity.ReservationLine {
	return entity.ReservationLine{WarehouseID: wh, ProductID: prod, Quantity: qty}
}

// ──────────────────────────────────────────────────────────────────────────────
// Create
// ──────────────────────────────────────────────────────────────────────────────

func TestCreate_ReservaActivaConLedgerActualizado(t *testing.T) {
	mgr, ledger, _ := newTestManager(t)
	ledger.Seed(testWh1, testProd, 10, 0)

	res, err := mgr.Create(context.Background(), testOwner, []entity.ReservationLine{
		line(testWh1, testProd, 6),
	})
	require.NoError(t, err)
	require.NotNil(t, res)

	assert.NotEmpty(t, res.ID)
	assert.Equal(t, entity.ReservationActive, res.State)
	assert.Equal(t, testOwner, res.OwnerID)
	assert.Equal(t, res.CreatedAt.Add(testHold), res.ExpiresAt)

	av := mustAvailability(t, ledger, testWh1, testProd)
	assert.Equal(t, int64(10), av.OnHand)
	assert.Equal(t, int64(6), av.Reserved)
	assert.Equal(t, int64(4), av.Available)
}

func TestCreate_ValidacionSincronaAntesDelLedger(t *testing.T) {
	mgr, ledger, _ := newTestManager(t)
	ledger.Seed(testWh1, testProd, 10, 0)

	cases := []struct {
		name  string
		owner string
		lines []entity.ReservationLine
	}{
		{"sin owner", "", []entity.ReservationLine{line(testWh1, testProd, 1)}},
		{"sin líneas", testOwner, nil},
		{"cantidad cero", testOwner, []entity.ReservationLine{line(testWh1, testProd, 0)}},
		{"cantidad negativa", testOwner, []entity.ReservationLine{line(testWh1, testProd, -3)}},
		{"sin bodega", testOwner, []entity.ReservationLine{line("", testProd, 1)}},
		{"sin producto", testOwner, []entity.ReservationLine{line(testWh1, "", 1)}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := mgr.Create(context.Background(), tc.owner, tc.lines)
			assert.ErrorIs(t, err, domain.ErrInvalidInput)
		})
	}

	// Ninguna validación fallida tocó el ledger
	av := mustAvailability(t, ledger, testWh1, testProd)
	assert.Equal(t, int64(0), av.Reserved)
}

func TestCreate_TodoONadaEntreBodegas(t *testing.T) {
	mgr, ledger, _ := newTestManager(t)
	ledger.Seed(testWh1, testProd, 10, 0)
	ledger.Seed(testWh2, testProd, 2, 0)

	// La segunda línea no alcanza: la primera debe compensarse entera.
	_, err := mgr.Create(context.Background(), testOwner, []entity.ReservationLine{
		line(testWh1, testProd, 5),
		line(testWh2, testProd, 3),
	})
	require.ErrorIs(t, err, domain.ErrInsufficientStock)

	av1 := mustAvailability(t, ledger, testWh1, testProd)
	av2 := mustAvailability(t, ledger, testWh2, testProd)
	assert.Equal(t, int64(0), av1.Reserved, "la línea previa debe compensarse")
	assert.Equal(t, int64(0), av2.Reserved)
}

// ──────────────────────────────────────────────────────────────────────────────
// Commit / Release / Extend
// ──────────────────────────────────────────────────────────────────────────────

func TestCommit_DescuentaUnaSolaVez(t *testing.T) {
	mgr, ledger, _ := newTestManager(t)
	ledger.Seed(testWh1, testProd, 10, 0)

	res, err := mgr.Create(context.Background(), testOwner, []entity.ReservationLine{
		line(testWh1, testProd, 6),
	})
	require.NoError(t, err)

	require.NoError(t, mgr.Commit(context.Background(), res.ID))
	av := mustAvailability(t, ledger, testWh1, testProd)
	assert.Equal(t, int64(4), av.OnHand)
	assert.Equal(t, int64(0), av.Reserved)

	// Segundo commit: desenlace terminal ya alcanzado, ledger intacto.
	err = mgr.Commit(context.Background(), res.ID)
	assert.ErrorIs(t, err, domain.ErrAlreadyResolved)
	av = mustAvailability(t, ledger, testWh1, testProd)
	assert.Equal(t, int64(4), av.OnHand)
	assert.Equal(t, int64(0), av.Reserved)
}

func TestRelease_RoundTripRestauraReserved(t *testing.T) {
	mgr, ledger, _ := newTestManager(t)
	ledger.Seed(testWh1, testProd, 10, 2)
	ledger.Seed(testWh2, testProd, 5, 0)

	res, err := mgr.Create(context.Background(), testOwner, []entity.ReservationLine{
		line(testWh1, testProd, 4),
		line(testWh2, testProd, 2),
	})
	require.NoError(t, err)

	require.NoError(t, mgr.Release(context.Background(), res.ID))

	// Reserved vuelve exactamente al valor previo en cada línea
	assert.Equal(t, int64(2), mustAvailability(t, ledger, testWh1, testProd).Reserved)
	assert.Equal(t, int64(0), mustAvailability(t, ledger, testWh2, testProd).Reserved)

	stored, err := mgr.Get(context.Background(), res.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.ReservationReleased, stored.State)
}

func TestRelease_IdempotenteParaElCaller(t *testing.T) {
	mgr, ledger, _ := newTestManager(t)
	ledger.Seed(testWh1, testProd, 10, 0)

	res, err := mgr.Create(context.Background(), testOwner, []entity.ReservationLine{
		line(testWh1, testProd, 3),
	})
	require.NoError(t, err)
	require.NoError(t, mgr.Release(context.Background(), res.ID))

	// Cualquier cantidad de releases posteriores: ErrAlreadyResolved, sin
	// doble decremento.
	for i := 0; i < 3; i++ {
		assert.ErrorIs(t, mgr.Release(context.Background(), res.ID), domain.ErrAlreadyResolved)
	}
	assert.Equal(t, int64(0), mustAvailability(t, ledger, testWh1, testProd).Reserved)
}

func TestCommit_ReservaInexistente(t *testing.T) {
	mgr, _, _ := newTestManager(t)
	err := mgr.Commit(context.Background(), "no-existe")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestExtend_SoloMientrasActiva(t *testing.T) {
	mgr, ledger, _ := newTestManager(t)
	ledger.Seed(testWh1, testProd, 10, 0)

	res, err := mgr.Create(context.Background(), testOwner, []entity.ReservationLine{
		line(testWh1, testProd, 1),
	})
	require.NoError(t, err)

	newExpiry := time.Now().Add(30 * time.Minute)
	require.NoError(t, mgr.Extend(context.Background(), res.ID, newExpiry))

	stored, err := mgr.Get(context.Background(), res.ID)
	require.NoError(t, err)
	assert.WithinDuration(t, newExpiry, stored.ExpiresAt, time.Second)
	// Extender no toca líneas ni ledger
	assert.Len(t, stored.Lines, 1)
	assert.Equal(t, int64(1), mustAvailability(t, ledger, testWh1, testProd).Reserved)

	require.NoError(t, mgr.Release(context.Background(), res.ID))
	err = mgr.Extend(context.Background(), res.ID, time.Now().Add(time.Hour))
	assert.ErrorIs(t, err, domain.ErrAlreadyResolved)
}

// ──────────────────────────────────────────────────────────────────────────────
// Escenario numérico completo: onHand=10. Reservar 6 ok; reservar 5 falla;
// commit del primero deja onHand=4; reservar 5 sigue fallando; reservar 4 ok.
// ──────────────────────────────────────────────────────────────────────────────

func TestEscenario_ReservaCommitYDisponibilidad(t *testing.T) {
	mgr, ledger, _ := newTestManager(t)
	ledger.Seed(testWh1, testProd, 10, 0)
	ctx := context.Background()

	first, err := mgr.Create(ctx, testOwner, []entity.ReservationLine{line(testWh1, testProd, 6)})
	require.NoError(t, err)
	av := mustAvailability(t, ledger, testWh1, testProd)
	assert.Equal(t, int64(6), av.Reserved)
	assert.Equal(t, int64(4), av.Available)

	_, err = mgr.Create(ctx, "shopper-002", []entity.ReservationLine{line(testWh1, testProd, 5)})
	require.ErrorIs(t, err, domain.ErrInsufficientStock)
	av = mustAvailability(t, ledger, testWh1, testProd)
	assert.Equal(t, int64(6), av.Reserved, "el intento fallido no cambia el ledger")

	require.NoError(t, mgr.Commit(ctx, first.ID))
	av = mustAvailability(t, ledger, testWh1, testProd)
	assert.Equal(t, int64(4), av.OnHand)
	assert.Equal(t, int64(0), av.Reserved)

	// Solo quedan 4 disponibles: 5 falla, 4 entra.
	_, err = mgr.Create(ctx, "shopper-002", []entity.ReservationLine{line(testWh1, testProd, 5)})
	require.ErrorIs(t, err, domain.ErrInsufficientStock)

	_, err = mgr.Create(ctx, "shopper-002", []entity.ReservationLine{line(testWh1, testProd, 4)})
	require.NoError(t, err)
	av = mustAvailability(t, ledger, testWh1, testProd)
	assert.Equal(t, int64(4), av.Reserved)
	assert.Equal(t, int64(0), av.Available)
}

// ──────────────────────────────────────────────────────────────────────────────
// Concurrencia
// ──────────────────────────────────────────────────────────────────────────────

func TestCreate_ConcurrenteNoSobrevende(t *testing.T) {
	mgr, ledger, _ := newTestManager(t)
	ledger.Seed(testWh1, testProd, 10, 0)

	const shoppers = 25
	var wg sync.WaitGroup
	created := make(chan *entity.Reservation, shoppers)
	for i := 0; i < shoppers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := mgr.Create(context.Background(), testOwner, []entity.ReservationLine{
				line(testWh1, testProd, 1),
			})
			if err == nil {
				created <- res
			} else {
				assert.ErrorIs(t, err, domain.ErrInsufficientStock)
			}
		}()
	}
	wg.Wait()
	close(created)

	var ok int
	for range created {
		ok++
	}
	assert.Equal(t, 10, ok, "exactamente el stock disponible se reserva")

	av := mustAvailability(t, ledger, testWh1, testProd)
	assert.Equal(t, int64(10), av.Reserved)
	assert.Equal(t, int64(0), av.Available)
	assert.GreaterOrEqual(t, av.OnHand, av.Reserved, "Reserved nunca excede OnHand")
}

func TestCommitYReleaseConcurrentes_UnSoloGanador(t *testing.T) {
	mgr, ledger, _ := newTestManager(t)
	ledger.Seed(testWh1, testProd, 10, 0)

	res, err := mgr.Create(context.Background(), testOwner, []entity.ReservationLine{
		line(testWh1, testProd, 4),
	})
	require.NoError(t, err)

	var wg sync.WaitGroup
	results := make([]error, 2)
	wg.Add(2)
	go func() { defer wg.Done(); results[0] = mgr.Commit(context.Background(), res.ID) }()
	go func() { defer wg.Done(); results[1] = mgr.Release(context.Background(), res.ID) }()
	wg.Wait()

	// Exactamente uno gana el CAS; el otro recibe el desenlace terminal.
	var wins, losses int
	for _, err := range results {
		if err == nil {
			wins++
		} else if assert.ErrorIs(t, err, domain.ErrAlreadyResolved) {
			losses++
		}
	}
	assert.Equal(t, 1, wins)
	assert.Equal(t, 1, losses)

	av := mustAvailability(t, ledger, testWh1, testProd)
	assert.Equal(t, int64(0), av.Reserved)
	stored, err := mgr.Get(context.Background(), res.ID)
	require.NoError(t, err)
	if stored.State == entity.ReservationCommitted {
		assert.Equal(t, int64(6), av.OnHand)
	} else {
		assert.Equal(t, entity.ReservationReleased, stored.State)
		assert.Equal(t, int64(10), av.OnHand)
	}
}
