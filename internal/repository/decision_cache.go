package repository

import (
	"context"
	"errors"
	"time"

	pkgcache "UpliftAPI/pkg/cache"
)

// DecisionCache adapts a pkg/cache backend to domain.repository.DecisionCache.
type DecisionCache struct {
	backend pkgcache.Service
}

func NewDecisionCache(backend pkgcache.Service) *DecisionCache {
	return &DecisionCache{backend: backend}
}

func (c *DecisionCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	v, err := c.backend.Get(ctx, key)
	if err != nil {
		if errors.Is(err, pkgcache.ErrCacheMiss) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return v, true, nil
}

func (c *DecisionCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return c.backend.Set(ctx, key, value, ttl)
}
