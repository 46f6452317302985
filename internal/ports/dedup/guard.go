package dedup

import (
	"context"
	"time"
)

// Guard es un lock corto por key: Acquire devuelve false si la key ya está tomada.
// Reemplaza los sets globales de "ids procesados" para clicks repetidos.
type Guard interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, key string) error
}
