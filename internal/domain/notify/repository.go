package notify

import (
	"context"
	"time"
)

type LogRepository interface {
	Create(ctx context.Context, l EmailLog) error
	UpdateStatus(ctx context.Context, id string, status LogStatus, providerID, errMsg string, at time.Time) error
	// ListByUser ordena por created_at desc.
	ListByUser(ctx context.Context, userID string, limit int) ([]EmailLog, error)
}
