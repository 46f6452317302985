package outbox

import (
	"context"
	"time"
)

// RunOnceAt corre un lote con el reloj fijo en now.
func RunOnceAt(ctx context.Context, w *Worker, now time.Time) (int, error) {
	w.now = func() time.Time { return now }
	return w.RunOnce(ctx)
}
