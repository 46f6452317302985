// Package outbox es la cola durable de emails que el proveedor no pudo aceptar.
// Un Worker la drena con backoff exponencial.
package outbox

import (
	"context"
	"errors"
	"time"

	"pet-records/internal/ports/email"
	"pet-records/internal/ports/storage"
)

var ErrNotFound = storage.ErrNotFound

type Status string

const (
	StatusPending Status = "pending"
	StatusSent    Status = "sent"
	StatusDead    Status = "dead"
)

type Entry struct {
	ID            string
	Kind          string // contact | document_share | reminder | welcome
	Message       email.Message
	LogID         string // fila de email_logs a actualizar; puede ser ""
	Attempts      int
	NextAttemptAt time.Time
	LastError     string
	Status        Status
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Store persiste las entradas. Due devuelve pendientes con NextAttemptAt <= now,
// las más viejas primero.
type Store interface {
	Enqueue(ctx context.Context, e Entry) error
	Due(ctx context.Context, now time.Time, limit int) ([]Entry, error)
	MarkSent(ctx context.Context, id string, attempts int, at time.Time) error
	MarkRetry(ctx context.Context, id string, attempts int, next time.Time, lastErr string) error
	MarkDead(ctx context.Context, id string, attempts int, lastErr string, at time.Time) error
	CountPending(ctx context.Context) (int, error)
}

// DeliveryRecorder refleja el resultado final en el log de emails.
type DeliveryRecorder interface {
	RecordDelivery(ctx context.Context, logID, status, providerID, errMsg string) error
}

// Backoff: base * 2^(attempts-1), con tope en ceiling.
func Backoff(attempts int, base, ceiling time.Duration) time.Duration {
	if attempts < 1 {
		attempts = 1
	}
	d := base
	for i := 1; i < attempts; i++ {
		d *= 2
		if d >= ceiling || d <= 0 {
			return ceiling
		}
	}
	if d > ceiling {
		return ceiling
	}
	return d
}

var errEmptyMessage = errors.New("outbox: message without recipients")

// Validate chequea lo mínimo para que el worker pueda reenviar la entrada.
func (e Entry) Validate() error {
	if e.ID == "" {
		return errors.New("outbox: id required")
	}
	if len(e.Message.To) == 0 {
		return errEmptyMessage
	}
	return nil
}
