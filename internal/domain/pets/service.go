package pets

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"pet-records/internal/ports/storage"

	"github.com/google/uuid"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrForbidden    = errors.New("forbidden")
	ErrNotArchived  = errors.New("pet must be archived before permanent deletion")
	ErrNotFound     = storage.ErrNotFound
)

// DeleteHook se ejecuta después del borrado definitivo de una mascota
// (otros módulos limpian sus filas asociadas). Debe ser idempotente.
type DeleteHook func(ctx context.Context, petID string) error

type Service struct {
	repo  Repository
	now   func() time.Time
	hooks []DeleteHook
}

func NewService(repo Repository) *Service {
	return &Service{
		repo: repo,
		now:  time.Now,
	}
}

// OnDelete registra un hook de borrado definitivo.
func (s *Service) OnDelete(h DeleteHook) {
	if h != nil {
		s.hooks = append(s.hooks, h)
	}
}

type CreateInput struct {
	Name         string
	Species      Species
	Breed        string
	Sex          Sex
	BirthDate    *time.Time
	AdoptionDate *time.Time
	Microchip    string
	PhotoURL     string
	Notes        string
}

func (s *Service) Create(ctx context.Context, ownerUserID string, in CreateInput) (Pet, error) {
	if strings.TrimSpace(ownerUserID) == "" {
		return Pet{}, ErrInvalidInput
	}
	if strings.TrimSpace(in.Name) == "" {
		return Pet{}, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	if !in.Species.Valid() {
		return Pet{}, fmt.Errorf("%w: unsupported species", ErrInvalidInput)
	}
	sex := in.Sex
	if sex == "" {
		sex = SexUnknown
	}
	if !sex.Valid() {
		return Pet{}, fmt.Errorf("%w: unsupported sex", ErrInvalidInput)
	}
	if err := checkDates(in.BirthDate, in.AdoptionDate); err != nil {
		return Pet{}, err
	}

	now := s.now()
	p := Pet{
		ID:           uuid.NewString(),
		OwnerUserID:  ownerUserID,
		Name:         strings.TrimSpace(in.Name),
		Species:      in.Species,
		Breed:        strings.TrimSpace(in.Breed),
		Sex:          sex,
		BirthDate:    in.BirthDate,
		AdoptionDate: in.AdoptionDate,
		Microchip:    strings.TrimSpace(in.Microchip),
		PhotoURL:     strings.TrimSpace(in.PhotoURL),
		Notes:        strings.TrimSpace(in.Notes),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.repo.Create(ctx, p); err != nil {
		return Pet{}, err
	}
	return p, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (Pet, error) {
	return s.repo.GetByID(ctx, id)
}

// GetOwned trae la mascota y valida que userID sea el dueño.
func (s *Service) GetOwned(ctx context.Context, id, userID string) (Pet, error) {
	p, err := s.repo.GetByID(ctx, strings.TrimSpace(id))
	if err != nil {
		return Pet{}, err
	}
	if p.OwnerUserID != userID {
		return Pet{}, ErrForbidden
	}
	return p, nil
}

func (s *Service) ListByOwner(ctx context.Context, ownerUserID string, status Status) ([]Pet, error) {
	return s.repo.ListByOwner(ctx, ownerUserID, status)
}

// OptionalDate distingue "no enviado" de "enviado como null" en un PATCH.
type OptionalDate struct {
	Present bool
	Value   *time.Time
}

type UpdateProfileInput struct {
	// Punteros para PATCH real: nil = no tocar.
	Name      *string
	Species   *Species
	Breed     *string
	Sex       *Sex
	Microchip *string
	PhotoURL  *string // "" limpia la foto
	Notes     *string

	BirthDate    OptionalDate
	AdoptionDate OptionalDate
}

func (s *Service) UpdateProfile(ctx context.Context, petID, userID string, in UpdateProfileInput) (Pet, error) {
	p, err := s.GetOwned(ctx, petID, userID)
	if err != nil {
		return Pet{}, err
	}

	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return Pet{}, fmt.Errorf("%w: name cannot be empty", ErrInvalidInput)
		}
		p.Name = name
	}
	if in.Species != nil {
		if !in.Species.Valid() {
			return Pet{}, fmt.Errorf("%w: unsupported species", ErrInvalidInput)
		}
		p.Species = *in.Species
	}
	if in.Sex != nil {
		if !in.Sex.Valid() {
			return Pet{}, fmt.Errorf("%w: unsupported sex", ErrInvalidInput)
		}
		p.Sex = *in.Sex
	}
	if in.Breed != nil {
		p.Breed = strings.TrimSpace(*in.Breed)
	}
	if in.Microchip != nil {
		p.Microchip = strings.TrimSpace(*in.Microchip)
	}
	if in.PhotoURL != nil {
		p.PhotoURL = strings.TrimSpace(*in.PhotoURL)
	}
	if in.Notes != nil {
		p.Notes = strings.TrimSpace(*in.Notes)
	}
	if in.BirthDate.Present {
		p.BirthDate = in.BirthDate.Value
	}
	if in.AdoptionDate.Present {
		p.AdoptionDate = in.AdoptionDate.Value
	}
	if err := checkDates(p.BirthDate, p.AdoptionDate); err != nil {
		return Pet{}, err
	}

	p.UpdatedAt = s.now()
	if err := s.repo.Update(ctx, p); err != nil {
		return Pet{}, err
	}
	return p, nil
}

// Archive mueve la mascota a archivadas. Idempotente.
func (s *Service) Archive(ctx context.Context, petID, userID string) (Pet, error) {
	p, err := s.GetOwned(ctx, petID, userID)
	if err != nil {
		return Pet{}, err
	}
	if p.Archived {
		return p, nil
	}

	now := s.now()
	p.Archived = true
	p.ArchivedAt = &now
	p.UpdatedAt = now

	if err := s.repo.Update(ctx, p); err != nil {
		return Pet{}, err
	}
	return p, nil
}

// Restore vuelve a activa una mascota archivada. Idempotente.
func (s *Service) Restore(ctx context.Context, petID, userID string) (Pet, error) {
	p, err := s.GetOwned(ctx, petID, userID)
	if err != nil {
		return Pet{}, err
	}
	if !p.Archived {
		return p, nil
	}

	p.Archived = false
	p.ArchivedAt = nil
	p.UpdatedAt = s.now()

	if err := s.repo.Update(ctx, p); err != nil {
		return Pet{}, err
	}
	return p, nil
}

// Delete borra definitivamente. Solo aplica a mascotas archivadas.
func (s *Service) Delete(ctx context.Context, petID, userID string) error {
	p, err := s.GetOwned(ctx, petID, userID)
	if err != nil {
		return err
	}
	if !p.Archived {
		return ErrNotArchived
	}

	// si el borrado falla no se tocó nada de los otros módulos
	if err := s.repo.Delete(ctx, p.ID); err != nil {
		return err
	}
	var errs []error
	for _, h := range s.hooks {
		if err := h(ctx, p.ID); err != nil {
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("pet delete hook: %w", err)
	}
	return nil
}

func checkDates(birth, adoption *time.Time) error {
	if birth != nil && adoption != nil && adoption.Before(*birth) {
		return fmt.Errorf("%w: adoption_date cannot precede birth_date", ErrInvalidInput)
	}
	return nil
}
