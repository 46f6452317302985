package memory

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"pet-records/internal/domain/reminders"
	"pet-records/internal/ports/storage"
)

type reminderRepo struct {
	mu   sync.RWMutex
	byID map[string]reminders.Reminder
}

func NewReminderRepo() reminders.Repository {
	return &reminderRepo{byID: make(map[string]reminders.Reminder)}
}

// clone copia PetIDs para que el caller no mute el estado guardado.
func cloneReminder(r reminders.Reminder) reminders.Reminder {
	r.PetIDs = append([]string(nil), r.PetIDs...)
	return r
}

func (r *reminderRepo) Create(ctx context.Context, rem reminders.Reminder) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if strings.TrimSpace(rem.ID) == "" {
		return errors.New("reminder id required")
	}
	if _, exists := r.byID[rem.ID]; exists {
		return storage.ErrConflict
	}
	r.byID[rem.ID] = cloneReminder(rem)
	return nil
}

func (r *reminderRepo) Update(ctx context.Context, rem reminders.Reminder) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byID[rem.ID]; !exists {
		return ErrNotFound
	}
	r.byID[rem.ID] = cloneReminder(rem)
	return nil
}

func (r *reminderRepo) GetByID(ctx context.Context, id string) (reminders.Reminder, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rem, ok := r.byID[id]
	if !ok {
		return reminders.Reminder{}, ErrNotFound
	}
	return cloneReminder(rem), nil
}

func (r *reminderRepo) ListByOwner(ctx context.Context, ownerUserID string, f reminders.ListFilter) ([]reminders.Reminder, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]reminders.Reminder, 0)
	for _, rem := range r.byID {
		if rem.OwnerUserID != ownerUserID || !rem.Matches(f.Status) {
			continue
		}
		if f.PetID != "" && !rem.HasPet(f.PetID) {
			continue
		}
		out = append(out, cloneReminder(rem))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *reminderRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byID[id]; !ok {
		return ErrNotFound
	}
	delete(r.byID, id)
	return nil
}

func (r *reminderRepo) ListPendingUntil(ctx context.Context, day time.Time, limit int) ([]reminders.Reminder, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]reminders.Reminder, 0)
	for _, rem := range r.byID {
		if rem.Archived || rem.NotificationSent || rem.NotificationSkippedAt != nil || rem.Date.After(day) {
			continue
		}
		out = append(out, cloneReminder(rem))
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *reminderRepo) MarkNotified(ctx context.Context, id string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	rem, ok := r.byID[id]
	if !ok {
		return ErrNotFound
	}
	rem.NotificationSent = true
	rem.NotificationSentAt = &at
	r.byID[id] = rem
	return nil
}

func (r *reminderRepo) MarkSkipped(ctx context.Context, id string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	rem, ok := r.byID[id]
	if !ok {
		return ErrNotFound
	}
	rem.NotificationSkippedAt = &at
	r.byID[id] = rem
	return nil
}

func (r *reminderRepo) DetachPet(ctx context.Context, petID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, rem := range r.byID {
		if !rem.HasPet(petID) {
			continue
		}
		kept := make([]string, 0, len(rem.PetIDs))
		for _, p := range rem.PetIDs {
			if p != petID {
				kept = append(kept, p)
			}
		}
		rem.PetIDs = kept
		r.byID[id] = rem
	}
	return nil
}
