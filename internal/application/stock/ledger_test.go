package stock_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tu-usuario/reservas-api/internal/application/stock"
	"github.com/tu-usuario/reservas-api/internal/domain"
	"github.com/tu-usuario/reservas-api/internal/domain/entity"
	"github.com/tu-usuario/reservas-api/internal/domain/repository"
	"github.com/tu-usuario/reservas-api/pkg/logger"
)

// ──────────────────────────────────────────────────────────────────────────────
// Fakes: TxRunner y StockRepository en memoria. El mutex del runner simula la
// serialización que en PostgreSQL aporta el lock de fila: cada Run es una
// sección crítica, igual que una tx corta con SELECT FOR UPDATE.
// ──────────────────────────────────────────────────────────────────────────────

type memTxRunner struct {
	mu   sync.Mutex
	rows map[string]entity.StockRecord
}

func newMemTxRunner() *memTxRunner {
	return &memTxRunner{rows: make(map[string]entity.StockRecord)}
}

func (r *memTxRunner) seed(wh, prod string, onHand, reserved int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows[wh+"/"+prod] = entity.StockRecord{WarehouseID: wh, ProductID: prod, OnHand: onHand, Reserved: reserved}
}

func (r *memTxRunner) Run(_ context.Context, fn func(stockRepo repository.StockRepository) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return fn(&memStockRepo{rows: r.rows})
}

type memStockRepo struct {
	rows map[string]entity.StockRecord
}

func (m *memStockRepo) Get(_ context.Context, wh, prod string) (*entity.StockRecord, error) {
	rec, ok := m.rows[wh+"/"+prod]
	if !ok {
		return &entity.StockRecord{WarehouseID: wh, ProductID: prod}, nil
	}
	cp := rec
	return &cp, nil
}

func (m *memStockRepo) GetForUpdate(ctx context.Context, wh, prod string) (*entity.StockRecord, error) {
	return m.Get(ctx, wh, prod)
}

func (m *memStockRepo) Upsert(_ context.Context, rec *entity.StockRecord) error {
	m.rows[rec.WarehouseID+"/"+rec.ProductID] = *rec
	return nil
}

// fakeCache registra el último snapshot escrito.
type fakeCache struct {
	mu   sync.Mutex
	last *entity.Availability
	hit  *entity.Availability
}

func (c *fakeCache) Get(_ context.Context, wh, prod string) (*entity.Availability, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.hit != nil && c.hit.WarehouseID == wh && c.hit.ProductID == prod {
		return c.hit, true
	}
	return nil, false
}

func (c *fakeCache) Set(_ context.Context, av *entity.Availability) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.last = av
}

const (
	wh   = "wh-cali"
	prod = "prod-cafetera"
)

func TestReserve_CheckAndIncrementAtomico(t *testing.T) {
	runner := newMemTxRunner()
	runner.seed(wh, prod, 10, 0)
	ledger := stock.NewTxLedger(runner, nil, logger.NewNop())
	ctx := context.Background()

	require.NoError(t, ledger.Reserve(ctx, wh, prod, 6))

	err := ledger.Reserve(ctx, wh, prod, 5)
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)

	av, err := ledger.Availability(ctx, wh, prod)
	require.NoError(t, err)
	assert.Equal(t, int64(10), av.OnHand)
	assert.Equal(t, int64(6), av.Reserved)
	assert.Equal(t, int64(4), av.Available)
}

func TestReserve_CantidadInvalida(t *testing.T) {
	ledger := stock.NewTxLedger(newMemTxRunner(), nil, logger.NewNop())
	assert.ErrorIs(t, ledger.Reserve(context.Background(), wh, prod, 0), domain.ErrInvalidInput)
	assert.ErrorIs(t, ledger.Reserve(context.Background(), wh, prod, -4), domain.ErrInvalidInput)
}

func TestRelease_ClampEnCeroSinWrap(t *testing.T) {
	runner := newMemTxRunner()
	runner.seed(wh, prod, 10, 2)
	ledger := stock.NewTxLedger(runner, nil, logger.NewNop())
	ctx := context.Background()

	// Doble release aguas arriba: se ajusta a cero, nunca negativo.
	require.NoError(t, ledger.Release(ctx, wh, prod, 5))

	av, err := ledger.Availability(ctx, wh, prod)
	require.NoError(t, err)
	assert.Equal(t, int64(0), av.Reserved)
	assert.Equal(t, int64(10), av.OnHand)
}

func TestCommit_RequiereReservaYOnHand(t *testing.T) {
	runner := newMemTxRunner()
	runner.seed(wh, prod, 10, 3)
	ledger := stock.NewTxLedger(runner, nil, logger.NewNop())
	ctx := context.Background()

	// Más de lo reservado: ledger inconsistente, sin efectos.
	err := ledger.Commit(ctx, wh, prod, 5)
	assert.ErrorIs(t, err, domain.ErrInconsistentLedger)
	av, _ := ledger.Availability(ctx, wh, prod)
	assert.Equal(t, int64(10), av.OnHand)
	assert.Equal(t, int64(3), av.Reserved)

	require.NoError(t, ledger.Commit(ctx, wh, prod, 3))
	av, _ = ledger.Availability(ctx, wh, prod)
	assert.Equal(t, int64(7), av.OnHand)
	assert.Equal(t, int64(0), av.Reserved)
}

func TestWithdraw_RespetaReservasActivas(t *testing.T) {
	runner := newMemTxRunner()
	runner.seed(wh, prod, 10, 8)
	ledger := stock.NewTxLedger(runner, nil, logger.NewNop())
	ctx := context.Background()

	// Available=2: retirar 5 sacaría stock debajo de una reserva.
	err := ledger.Withdraw(ctx, wh, prod, 5)
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)

	require.NoError(t, ledger.Withdraw(ctx, wh, prod, 2))
	av, _ := ledger.Availability(ctx, wh, prod)
	assert.Equal(t, int64(8), av.OnHand)
	assert.Equal(t, int64(8), av.Reserved)
	assert.Equal(t, int64(0), av.Available)
}

func TestReceive_SoloIncrementaOnHand(t *testing.T) {
	runner := newMemTxRunner()
	runner.seed(wh, prod, 3, 2)
	ledger := stock.NewTxLedger(runner, nil, logger.NewNop())

	require.NoError(t, ledger.Receive(context.Background(), wh, prod, 7))
	av, _ := ledger.Availability(context.Background(), wh, prod)
	assert.Equal(t, int64(10), av.OnHand)
	assert.Equal(t, int64(2), av.Reserved)
}

func TestDisplayAvailability_CachePrimero(t *testing.T) {
	runner := newMemTxRunner()
	runner.seed(wh, prod, 10, 4)
	cache := &fakeCache{}
	ledger := stock.NewTxLedger(runner, cache, logger.NewNop())
	ctx := context.Background()

	// Miss: lee fresco y repuebla la cache.
	av, err := ledger.DisplayAvailability(ctx, wh, prod)
	require.NoError(t, err)
	assert.Equal(t, int64(6), av.Available)
	require.NotNil(t, cache.last)

	// Hit: devuelve el snapshot cacheado aunque esté stale.
	cache.hit = &entity.Availability{WarehouseID: wh, ProductID: prod, OnHand: 99, Reserved: 0, Available: 99}
	av, err = ledger.DisplayAvailability(ctx, wh, prod)
	require.NoError(t, err)
	assert.Equal(t, int64(99), av.Available)
}

func TestMutacion_RefrescaCache(t *testing.T) {
	runner := newMemTxRunner()
	runner.seed(wh, prod, 10, 0)
	cache := &fakeCache{}
	ledger := stock.NewTxLedger(runner, cache, logger.NewNop())

	require.NoError(t, ledger.Reserve(context.Background(), wh, prod, 4))
	require.NotNil(t, cache.last)
	assert.Equal(t, int64(4), cache.last.Reserved)
	assert.Equal(t, int64(6), cache.last.Available)
}

func TestReserve_ConcurrenteSobreUnaClave(t *testing.T) {
	runner := newMemTxRunner()
	runner.seed(wh, prod, 50, 0)
	ledger := stock.NewTxLedger(runner, nil, logger.NewNop())

	const attempts = 80
	var wg sync.WaitGroup
	var okCount int64
	var mu sync.Mutex
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := ledger.Reserve(context.Background(), wh, prod, 1); err == nil {
				mu.Lock()
				okCount++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	av, _ := ledger.Availability(context.Background(), wh, prod)
	assert.Equal(t, int64(50), okCount, "nunca se reserva más que el disponible")
	assert.Equal(t, int64(50), av.Reserved)
	assert.Equal(t, int64(0), av.Available)
	assert.LessOrEqual(t, av.Reserved, av.OnHand)
}
