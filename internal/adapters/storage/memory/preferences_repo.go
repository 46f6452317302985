package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"pet-records/internal/domain/preferences"
)

type preferencesRepo struct {
	mu     sync.RWMutex
	byUser map[string]preferences.UserPreferences
}

func NewPreferencesRepo() preferences.Repository {
	return &preferencesRepo{byUser: make(map[string]preferences.UserPreferences)}
}

func (r *preferencesRepo) Get(ctx context.Context, userID string) (preferences.UserPreferences, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.byUser[userID]
	if !ok {
		return preferences.UserPreferences{}, ErrNotFound
	}
	return p, nil
}

func (r *preferencesRepo) Upsert(ctx context.Context, p preferences.UserPreferences) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.byUser[p.UserID] = p
	return nil
}

func (r *preferencesRepo) ListPendingWelcome(ctx context.Context, limit int) ([]preferences.UserPreferences, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]preferences.UserPreferences, 0)
	for _, p := range r.byUser {
		if p.Email != "" && p.WelcomeEmailSentAt == nil {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *preferencesRepo) MarkWelcomeSent(ctx context.Context, userID string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.byUser[userID]
	if !ok {
		return ErrNotFound
	}
	p.WelcomeEmailSentAt = &at
	r.byUser[userID] = p
	return nil
}
