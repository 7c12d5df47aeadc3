package backend

import (
	"context"
	"fmt"
	"time"

	"github.com/dgraph-io/ristretto/v2"
	"github.com/rs/zerolog/log"

	"github.com/valenante/paginaVenta-sub002/internal/domain"
)

const publicPlansKey = "plans:public"

// PlanSource is anything that can list the public plans.
type PlanSource interface {
	ListPlans(ctx context.Context) ([]domain.Plan, error)
}

// CachedCatalog keeps the public plan list in an in-process cache so wizard
// plan selection does not hit the backend on every request.
type CachedCatalog struct {
	source PlanSource
	ttl    time.Duration
	cache  *ristretto.Cache[string, []domain.Plan]
}

func NewCachedCatalog(source PlanSource, ttl time.Duration) (*CachedCatalog, error) {
	c, err := ristretto.NewCache(&ristretto.Config[string, []domain.Plan]{
		NumCounters: 100,
		MaxCost:     10,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("backend.NewCachedCatalog: %w", err)
	}
	return &CachedCatalog{source: source, ttl: ttl, cache: c}, nil
}

func (c *CachedCatalog) ListPlans(ctx context.Context) ([]domain.Plan, error) {
	if plans, ok := c.cache.Get(publicPlansKey); ok {
		return plans, nil
	}

	plans, err := c.source.ListPlans(ctx)
	if err != nil {
		return nil, fmt.Errorf("backend.CachedCatalog.ListPlans: %w", err)
	}

	if c.ttl > 0 {
		c.cache.SetWithTTL(publicPlansKey, plans, 1, c.ttl)
		c.cache.Wait()
	}
	log.Debug().Int("plans", len(plans)).Msg("plan catalog refreshed")
	return plans, nil
}

// Invalidate drops the cached plan list.
func (c *CachedCatalog) Invalidate() {
	c.cache.Del(publicPlansKey)
	c.cache.Wait()
}

func (c *CachedCatalog) Close() {
	c.cache.Close()
}
