package memory

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	"pet-records/internal/domain/documents"
	"pet-records/internal/ports/storage"
)

type documentRepo struct {
	mu   sync.RWMutex
	byID map[string]documents.Document
}

func NewDocumentRepo() documents.Repository {
	return &documentRepo{byID: make(map[string]documents.Document)}
}

func (r *documentRepo) Create(ctx context.Context, d documents.Document) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if strings.TrimSpace(d.ID) == "" {
		return errors.New("document id required")
	}
	if _, exists := r.byID[d.ID]; exists {
		return storage.ErrConflict
	}
	r.byID[d.ID] = d
	return nil
}

func (r *documentRepo) Update(ctx context.Context, d documents.Document) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byID[d.ID]; !exists {
		return ErrNotFound
	}
	r.byID[d.ID] = d
	return nil
}

func (r *documentRepo) GetByID(ctx context.Context, id string) (documents.Document, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	d, ok := r.byID[id]
	if !ok {
		return documents.Document{}, ErrNotFound
	}
	return d, nil
}

func (r *documentRepo) ListByOwner(ctx context.Context, ownerUserID string, f documents.ListFilter) ([]documents.Document, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]documents.Document, 0)
	for _, d := range r.byID {
		if d.OwnerUserID == ownerUserID && f.Matches(d) {
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *documentRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byID[id]; !ok {
		return ErrNotFound
	}
	delete(r.byID, id)
	return nil
}

func (r *documentRepo) GetByShareToken(ctx context.Context, token string) (documents.Document, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if token == "" {
		return documents.Document{}, ErrNotFound
	}
	for _, d := range r.byID {
		if d.ShareToken == token {
			return d, nil
		}
	}
	return documents.Document{}, ErrNotFound
}

func (r *documentRepo) DetachPet(ctx context.Context, petID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, d := range r.byID {
		if d.PetID == petID {
			d.PetID = ""
			r.byID[id] = d
		}
	}
	return nil
}
