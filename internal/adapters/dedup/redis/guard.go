// Package redis implementa dedup.Guard con SET NX PX, compartido entre réplicas.
package redis

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

const keyPrefix = "petrec:dedup:"

type Guard struct {
	rdb *goredis.Client
}

func NewClient(addr, password string, db int) *goredis.Client {
	return goredis.NewClient(&goredis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
}

func New(rdb *goredis.Client) *Guard {
	return &Guard{rdb: rdb}
}

// Ping verifica la conexión al arrancar.
func (g *Guard) Ping(ctx context.Context) error {
	if err := g.rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}
	return nil
}

func (g *Guard) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	ok, err := g.rdb.SetNX(ctx, keyPrefix+key, "1", ttl).Result()
	if err != nil {
		return false, fmt.Errorf("redis setnx: %w", err)
	}
	return ok, nil
}

func (g *Guard) Release(ctx context.Context, key string) error {
	if err := g.rdb.Del(ctx, keyPrefix+key).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

func (g *Guard) Close() error { return g.rdb.Close() }
