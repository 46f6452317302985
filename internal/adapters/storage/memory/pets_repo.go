// Package memory implementa los repositorios en memoria (modo dev y tests).
// Guardan copias: lo que devuelven se puede modificar sin tocar el estado interno.
package memory

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"pet-records/internal/domain/pets"
	"pet-records/internal/ports/storage"
)

var ErrNotFound = storage.ErrNotFound

type petRepo struct {
	mu   sync.RWMutex
	byID map[string]pets.Pet
}

func NewPetRepo() pets.Repository {
	return &petRepo{byID: make(map[string]pets.Pet)}
}

func clonePet(p pets.Pet) pets.Pet {
	p.BirthDate = cloneTime(p.BirthDate)
	p.AdoptionDate = cloneTime(p.AdoptionDate)
	p.ArchivedAt = cloneTime(p.ArchivedAt)
	return p
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

func (r *petRepo) Create(ctx context.Context, p pets.Pet) error {
	if strings.TrimSpace(p.ID) == "" {
		return errors.New("pet id required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byID[p.ID]; exists {
		return storage.ErrConflict
	}
	r.byID[p.ID] = clonePet(p)
	return nil
}

func (r *petRepo) Update(ctx context.Context, p pets.Pet) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cur, exists := r.byID[p.ID]
	if !exists {
		return ErrNotFound
	}
	// el dueño y la fecha de alta no cambian por update
	p.OwnerUserID = cur.OwnerUserID
	p.CreatedAt = cur.CreatedAt
	r.byID[p.ID] = clonePet(p)
	return nil
}

func (r *petRepo) GetByID(ctx context.Context, id string) (pets.Pet, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.byID[id]
	if !ok {
		return pets.Pet{}, ErrNotFound
	}
	return clonePet(p), nil
}

func (r *petRepo) ListByOwner(ctx context.Context, ownerUserID string, st pets.Status) ([]pets.Pet, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]pets.Pet, 0)
	for _, p := range r.byID {
		if p.OwnerUserID == ownerUserID && p.Matches(st) {
			out = append(out, clonePet(p))
		}
	}

	// mismo orden que postgres: created_at asc, id como desempate
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *petRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byID[id]; !ok {
		return ErrNotFound
	}
	delete(r.byID, id)
	return nil
}
