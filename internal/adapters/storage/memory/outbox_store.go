package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"pet-records/internal/outbox"
	"pet-records/internal/ports/storage"
)

type outboxStore struct {
	mu   sync.Mutex
	byID map[string]outbox.Entry
}

// NewOutboxStore: outbox volátil para dev y tests (se pierde al reiniciar).
func NewOutboxStore() outbox.Store {
	return &outboxStore{byID: make(map[string]outbox.Entry)}
}

func (s *outboxStore) Enqueue(ctx context.Context, e outbox.Entry) error {
	if err := e.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byID[e.ID]; ok {
		return storage.ErrConflict
	}
	if e.Status == "" {
		e.Status = outbox.StatusPending
	}
	s.byID[e.ID] = e
	return nil
}

func (s *outboxStore) Due(ctx context.Context, now time.Time, limit int) ([]outbox.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]outbox.Entry, 0)
	for _, e := range s.byID {
		if e.Status == outbox.StatusPending && !e.NextAttemptAt.After(now) {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *outboxStore) update(id string, fn func(*outbox.Entry)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.byID[id]
	if !ok {
		return ErrNotFound
	}
	fn(&e)
	s.byID[id] = e
	return nil
}

func (s *outboxStore) MarkSent(ctx context.Context, id string, attempts int, at time.Time) error {
	return s.update(id, func(e *outbox.Entry) {
		e.Status = outbox.StatusSent
		e.Attempts = attempts
		e.LastError = ""
		e.UpdatedAt = at
	})
}

func (s *outboxStore) MarkRetry(ctx context.Context, id string, attempts int, next time.Time, lastErr string) error {
	return s.update(id, func(e *outbox.Entry) {
		e.Attempts = attempts
		e.NextAttemptAt = next
		e.LastError = lastErr
	})
}

func (s *outboxStore) MarkDead(ctx context.Context, id string, attempts int, lastErr string, at time.Time) error {
	return s.update(id, func(e *outbox.Entry) {
		e.Status = outbox.StatusDead
		e.Attempts = attempts
		e.LastError = lastErr
		e.UpdatedAt = at
	})
}

func (s *outboxStore) CountPending(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for _, e := range s.byID {
		if e.Status == outbox.StatusPending {
			n++
		}
	}
	return n, nil
}
