package reminders

import (
	"context"
	"time"
)

// ListFilter: PetID vacío = todas las mascotas.
type ListFilter struct {
	Status Status
	PetID  string
}

type Repository interface {
	// Create/Update persisten también los vínculos en reminder_pets.
	Create(ctx context.Context, r Reminder) error
	Update(ctx context.Context, r Reminder) error
	GetByID(ctx context.Context, id string) (Reminder, error)
	ListByOwner(ctx context.Context, ownerUserID string, f ListFilter) ([]Reminder, error)
	Delete(ctx context.Context, id string) error

	// ListPendingUntil: activos, sin notificar ni descartar, con Date <= day.
	ListPendingUntil(ctx context.Context, day time.Time, limit int) ([]Reminder, error)
	MarkNotified(ctx context.Context, id string, at time.Time) error
	MarkSkipped(ctx context.Context, id string, at time.Time) error

	// DetachPet quita la mascota de todos los recordatorios.
	DetachPet(ctx context.Context, petID string) error
}
