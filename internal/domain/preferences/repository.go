package preferences

import (
	"context"
	"time"
)

type Repository interface {
	Get(ctx context.Context, userID string) (UserPreferences, error)
	// Upsert crea o reemplaza la fila del usuario.
	Upsert(ctx context.Context, p UserPreferences) error
	// ListPendingWelcome: email cargado y welcome_email_sent_at null, por created_at asc.
	ListPendingWelcome(ctx context.Context, limit int) ([]UserPreferences, error)
	MarkWelcomeSent(ctx context.Context, userID string, at time.Time) error
}
