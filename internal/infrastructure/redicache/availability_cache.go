package redicache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/tu-usuario/reservas-api/internal/application/stock"
	"github.com/tu-usuario/reservas-api/internal/domain/entity"
	"github.com/tu-usuario/reservas-api/pkg/logger"
)

var _ stock.AvailabilityCache = (*AvailabilityCache)(nil)

// AvailabilityCache cache de snapshots de disponibilidad sobre Redis, solo
// para lecturas de display. Write-through con TTL corto; toda falla de Redis
// se loguea y se ignora: el cache jamás bloquea ni falla una operación.
type AvailabilityCache struct {
	client *redis.Client
	ttl    time.Duration
	log    *logger.Logger
}

// New construye el cache. ttl corto (segundos): el dato es admitidamente stale.
func New(client *redis.Client, ttl time.Duration, log *logger.Logger) *AvailabilityCache {
	return &AvailabilityCache{client: client, ttl: ttl, log: log}
}

// Get intenta el snapshot cacheado de la clave.
func (c *AvailabilityCache) Get(ctx context.Context, warehouseID, productID string) (*entity.Availability, bool) {
	raw, err := c.client.Get(ctx, cacheKey(warehouseID, productID)).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.log.Warn().Err(err).Msg("leer cache de disponibilidad")
		}
		return nil, false
	}
	var av entity.Availability
	if err := json.Unmarshal(raw, &av); err != nil {
		c.log.Warn().Err(err).Msg("deserializar cache de disponibilidad")
		return nil, false
	}
	return &av, true
}

// Set escribe el snapshot con TTL. Best-effort.
func (c *AvailabilityCache) Set(ctx context.Context, av *entity.Availability) {
	raw, err := json.Marshal(av)
	if err != nil {
		c.log.Warn().Err(err).Msg("serializar snapshot de disponibilidad")
		return
	}
	if err := c.client.Set(ctx, cacheKey(av.WarehouseID, av.ProductID), raw, c.ttl).Err(); err != nil {
		c.log.Warn().Err(err).Msg("escribir cache de disponibilidad")
	}
}

func cacheKey(warehouseID, productID string) string {
	return fmt.Sprintf("stock:avail:%s:%s", warehouseID, productID)
}
