package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"pet-records/internal/domain/notify"
	"pet-records/internal/ports/storage"
)

type emailLogRepo struct {
	mu   sync.RWMutex
	byID map[string]notify.EmailLog
}

func NewEmailLogRepo() notify.LogRepository {
	return &emailLogRepo{byID: make(map[string]notify.EmailLog)}
}

func (r *emailLogRepo) Create(ctx context.Context, l notify.EmailLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byID[l.ID]; ok {
		return storage.ErrConflict
	}
	r.byID[l.ID] = l
	return nil
}

func (r *emailLogRepo) UpdateStatus(ctx context.Context, id string, status notify.LogStatus, providerID, errMsg string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	l, ok := r.byID[id]
	if !ok {
		return ErrNotFound
	}
	l.Status = status
	if providerID != "" {
		l.ProviderID = providerID
	}
	l.Error = errMsg
	l.UpdatedAt = at
	r.byID[id] = l
	return nil
}

func (r *emailLogRepo) ListByUser(ctx context.Context, userID string, limit int) ([]notify.EmailLog, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]notify.EmailLog, 0)
	for _, l := range r.byID {
		if l.UserID == userID {
			out = append(out, l)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
