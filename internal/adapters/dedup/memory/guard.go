// Package memory implementa dedup.Guard en proceso con go-cache.
// Solo sirve con una réplica; con varias usar el adapter de redis.
package memory

import (
	"context"
	"time"

	"github.com/patrickmn/go-cache"
)

type Guard struct {
	c *cache.Cache
}

func New(cleanup time.Duration) *Guard {
	if cleanup <= 0 {
		cleanup = time.Minute
	}
	return &Guard{c: cache.New(cache.NoExpiration, cleanup)}
}

// Acquire usa Add: falla si la key existe y no expiró.
func (g *Guard) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if err := g.c.Add(key, struct{}{}, ttl); err != nil {
		return false, nil
	}
	return true, nil
}

func (g *Guard) Release(ctx context.Context, key string) error {
	g.c.Delete(key)
	return nil
}
