package documents

import "context"

type ListFilter struct {
	Status   Status
	Category Category // vacío = todas
	PetID    string
	Favorite *bool
}

func (f ListFilter) Matches(d Document) bool {
	if !d.Matches(f.Status) {
		return false
	}
	if f.Category != "" && d.Category != f.Category {
		return false
	}
	if f.PetID != "" && d.PetID != f.PetID {
		return false
	}
	if f.Favorite != nil && d.Favorite != *f.Favorite {
		return false
	}
	return true
}

type Repository interface {
	Create(ctx context.Context, d Document) error
	Update(ctx context.Context, d Document) error
	GetByID(ctx context.Context, id string) (Document, error)
	// ListByOwner ordena por created_at desc.
	ListByOwner(ctx context.Context, ownerUserID string, f ListFilter) ([]Document, error)
	Delete(ctx context.Context, id string) error

	GetByShareToken(ctx context.Context, token string) (Document, error)
	// DetachPet deja pet_id = null en los documentos de la mascota.
	DetachPet(ctx context.Context, petID string) error
}
