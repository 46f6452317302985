package reminders

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"pet-records/internal/ports/storage"

	"github.com/google/uuid"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrForbidden    = errors.New("forbidden")
	ErrNotArchived  = errors.New("reminder must be archived before permanent deletion")
	ErrNotFound     = storage.ErrNotFound
)

// PetOwnerLookup lo implementa pets.Service.
type PetOwnerLookup interface {
	OwnerOf(ctx context.Context, petID string) (string, error)
}

type Service struct {
	repo Repository
	pets PetOwnerLookup
	now  func() time.Time
}

func NewService(repo Repository, pets PetOwnerLookup) *Service {
	return &Service{
		repo: repo,
		pets: pets,
		now:  time.Now,
	}
}

type CreateInput struct {
	Title      string
	Date       time.Time
	CustomTime string
	Notes      string
	PetIDs     []string
}

func (s *Service) Create(ctx context.Context, userID string, in CreateInput) (Reminder, error) {
	if strings.TrimSpace(userID) == "" {
		return Reminder{}, ErrInvalidInput
	}
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return Reminder{}, fmt.Errorf("%w: title is required", ErrInvalidInput)
	}
	if in.Date.IsZero() {
		return Reminder{}, fmt.Errorf("%w: date is required", ErrInvalidInput)
	}
	clock, err := normalizeClock(in.CustomTime)
	if err != nil {
		return Reminder{}, err
	}
	petIDs, err := s.ownedPets(ctx, userID, in.PetIDs)
	if err != nil {
		return Reminder{}, err
	}

	now := s.now()
	r := Reminder{
		ID:          uuid.NewString(),
		OwnerUserID: userID,
		Title:       title,
		Date:        Day(in.Date),
		CustomTime:  clock,
		Notes:       strings.TrimSpace(in.Notes),
		PetIDs:      petIDs,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.Create(ctx, r); err != nil {
		return Reminder{}, err
	}
	return r, nil
}

func (s *Service) GetOwned(ctx context.Context, id, userID string) (Reminder, error) {
	r, err := s.repo.GetByID(ctx, strings.TrimSpace(id))
	if err != nil {
		return Reminder{}, err
	}
	if r.OwnerUserID != userID {
		return Reminder{}, ErrForbidden
	}
	return r, nil
}

type ListInput struct {
	Status   Status
	Category Category // vacío = todas
	PetID    string
}

func (s *Service) List(ctx context.Context, userID string, in ListInput) ([]Reminder, error) {
	if in.PetID != "" {
		if _, err := s.ownedPets(ctx, userID, []string{in.PetID}); err != nil {
			return nil, err
		}
	}
	items, err := s.repo.ListByOwner(ctx, userID, ListFilter{Status: in.Status, PetID: in.PetID})
	if err != nil {
		return nil, err
	}

	now := s.now()
	out := items[:0]
	for _, r := range items {
		if in.Category != "" && Categorize(now, r) != in.Category {
			continue
		}
		out = append(out, r)
	}
	SortByDue(out)
	return out, nil
}

// SortByDue ordena por fecha, luego hora, luego creación.
func SortByDue(items []Reminder) {
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if !a.Date.Equal(b.Date) {
			return a.Date.Before(b.Date)
		}
		if a.CustomTime != b.CustomTime {
			return a.CustomTime < b.CustomTime
		}
		return a.CreatedAt.Before(b.CreatedAt)
	})
}

func (s *Service) Summary(ctx context.Context, userID string) (Summary, error) {
	items, err := s.repo.ListByOwner(ctx, userID, ListFilter{Status: StatusAll})
	if err != nil {
		return Summary{}, err
	}

	now := s.now()
	var sum Summary
	for _, r := range items {
		if r.Archived {
			sum.Archived++
			continue
		}
		switch Categorize(now, r) {
		case CategoryOverdue:
			sum.Overdue++
		case CategoryToday:
			sum.Today++
		default:
			sum.Upcoming++
		}
	}
	return sum, nil
}

type UpdateInput struct {
	Title      *string
	Date       *time.Time
	CustomTime *string // "" limpia la hora
	Notes      *string
	PetIDs     *[]string // reemplaza el conjunto completo
}

func (s *Service) Update(ctx context.Context, id, userID string, in UpdateInput) (Reminder, error) {
	r, err := s.GetOwned(ctx, id, userID)
	if err != nil {
		return Reminder{}, err
	}

	reschedule := false
	if in.Title != nil {
		t := strings.TrimSpace(*in.Title)
		if t == "" {
			return Reminder{}, fmt.Errorf("%w: title cannot be empty", ErrInvalidInput)
		}
		r.Title = t
	}
	if in.Date != nil {
		if in.Date.IsZero() {
			return Reminder{}, fmt.Errorf("%w: date cannot be empty", ErrInvalidInput)
		}
		d := Day(*in.Date)
		if !d.Equal(r.Date) {
			r.Date = d
			reschedule = true
		}
	}
	if in.CustomTime != nil {
		clock, err := normalizeClock(*in.CustomTime)
		if err != nil {
			return Reminder{}, err
		}
		if clock != r.CustomTime {
			r.CustomTime = clock
			reschedule = true
		}
	}
	if in.Notes != nil {
		r.Notes = strings.TrimSpace(*in.Notes)
	}
	if in.PetIDs != nil {
		petIDs, err := s.ownedPets(ctx, userID, *in.PetIDs)
		if err != nil {
			return Reminder{}, err
		}
		r.PetIDs = petIDs
	}

	// una nueva fecha/hora vuelve a habilitar el aviso
	if reschedule {
		r.NotificationSent = false
		r.NotificationSentAt = nil
		r.NotificationSkippedAt = nil
	}

	r.UpdatedAt = s.now()
	if err := s.repo.Update(ctx, r); err != nil {
		return Reminder{}, err
	}
	return r, nil
}

func (s *Service) Archive(ctx context.Context, id, userID string) (Reminder, error) {
	r, err := s.GetOwned(ctx, id, userID)
	if err != nil {
		return Reminder{}, err
	}
	if r.Archived {
		return r, nil
	}
	now := s.now()
	r.Archived = true
	r.ArchivedAt = &now
	r.UpdatedAt = now
	if err := s.repo.Update(ctx, r); err != nil {
		return Reminder{}, err
	}
	return r, nil
}

func (s *Service) Restore(ctx context.Context, id, userID string) (Reminder, error) {
	r, err := s.GetOwned(ctx, id, userID)
	if err != nil {
		return Reminder{}, err
	}
	if !r.Archived {
		return r, nil
	}
	r.Archived = false
	r.ArchivedAt = nil
	r.UpdatedAt = s.now()
	if err := s.repo.Update(ctx, r); err != nil {
		return Reminder{}, err
	}
	return r, nil
}

func (s *Service) Delete(ctx context.Context, id, userID string) error {
	r, err := s.GetOwned(ctx, id, userID)
	if err != nil {
		return err
	}
	if !r.Archived {
		return ErrNotArchived
	}
	return s.repo.Delete(ctx, r.ID)
}

// ZoneFunc resuelve la zona horaria del dueño; nil = UTC.
type ZoneFunc func(ctx context.Context, ownerUserID string) *time.Location

// DueForNotification devuelve los recordatorios activos, sin avisar, cuyo
// vencimiento (en la zona del dueño) cae antes de now+window. Sin hora
// propia vencen a las 09:00.
func (s *Service) DueForNotification(ctx context.Context, now time.Time, window time.Duration, limit int, zoneOf ZoneFunc) ([]Reminder, error) {
	horizon := now.UTC().Add(window)
	// las zonas al este de UTC adelantan el vencimiento hasta un día
	candidates, err := s.repo.ListPendingUntil(ctx, Day(horizon).AddDate(0, 0, 1), limit)
	if err != nil {
		return nil, err
	}

	out := make([]Reminder, 0, len(candidates))
	for _, r := range candidates {
		loc := time.UTC
		if zoneOf != nil {
			if l := zoneOf(ctx, r.OwnerUserID); l != nil {
				loc = l
			}
		}
		if r.DueAt(loc).After(horizon) {
			continue
		}
		out = append(out, r)
	}
	SortByDue(out)
	return out, nil
}

func (s *Service) MarkNotified(ctx context.Context, id string, at time.Time) error {
	return s.repo.MarkNotified(ctx, id, at)
}

// MarkSkipped saca el recordatorio de la cola de avisos hasta que se reprograme.
func (s *Service) MarkSkipped(ctx context.Context, id string, at time.Time) error {
	return s.repo.MarkSkipped(ctx, id, at)
}

// DetachPet se registra como hook de borrado de mascotas.
func (s *Service) DetachPet(ctx context.Context, petID string) error {
	return s.repo.DetachPet(ctx, petID)
}

// ownedPets colapsa duplicados y exige que todas las mascotas sean del usuario.
func (s *Service) ownedPets(ctx context.Context, userID string, ids []string) ([]string, error) {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, raw := range ids {
		id := strings.TrimSpace(raw)
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}

		owner, err := s.pets.OwnerOf(ctx, id)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return nil, fmt.Errorf("%w: pet %s not found", ErrInvalidInput, id)
			}
			return nil, err
		}
		if owner != userID {
			return nil, ErrForbidden
		}
		out = append(out, id)
	}
	return out, nil
}

func normalizeClock(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", nil
	}
	t, err := ParseClock(s)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return t.Format("15:04"), nil
}
