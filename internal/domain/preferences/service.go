package preferences

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"pet-records/internal/platform/validation"
	"pet-records/internal/ports/storage"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = storage.ErrNotFound
)

type Service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// Get devuelve las preferencias; en el primer acceso crea las default con el
// email del token.
func (s *Service) Get(ctx context.Context, userID, tokenEmail string) (UserPreferences, error) {
	if strings.TrimSpace(userID) == "" {
		return UserPreferences{}, ErrInvalidInput
	}
	p, err := s.repo.Get(ctx, userID)
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return UserPreferences{}, err
	}

	now := s.now()
	p = UserPreferences{
		UserID:             userID,
		Email:              normalizeEmail(tokenEmail),
		EmailNotifications: true,
		Timezone:           "UTC",
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if err := s.repo.Upsert(ctx, p); err != nil {
		return UserPreferences{}, err
	}
	return p, nil
}

// ForUser es la lectura sin side effects que usan los jobs.
func (s *Service) ForUser(ctx context.Context, userID string) (UserPreferences, error) {
	return s.repo.Get(ctx, userID)
}

type UpdateInput struct {
	Email              *string
	EmailNotifications *bool
	Timezone           *string
}

func (s *Service) Update(ctx context.Context, userID, tokenEmail string, in UpdateInput) (UserPreferences, error) {
	p, err := s.Get(ctx, userID, tokenEmail)
	if err != nil {
		return UserPreferences{}, err
	}

	if in.Email != nil {
		e := normalizeEmail(*in.Email)
		if e != "" {
			if err := validation.Get().Var(e, "email,max=254"); err != nil {
				return UserPreferences{}, fmt.Errorf("%w: invalid email", ErrInvalidInput)
			}
		}
		p.Email = e
	}
	if in.EmailNotifications != nil {
		p.EmailNotifications = *in.EmailNotifications
	}
	if in.Timezone != nil {
		tz := strings.TrimSpace(*in.Timezone)
		if tz == "" {
			tz = "UTC"
		}
		if _, err := time.LoadLocation(tz); err != nil {
			return UserPreferences{}, fmt.Errorf("%w: unknown timezone %q", ErrInvalidInput, tz)
		}
		p.Timezone = tz
	}

	p.UpdatedAt = s.now()
	if err := s.repo.Upsert(ctx, p); err != nil {
		return UserPreferences{}, err
	}
	return p, nil
}

func (s *Service) ListPendingWelcome(ctx context.Context, limit int) ([]UserPreferences, error) {
	if limit <= 0 {
		limit = 100
	}
	return s.repo.ListPendingWelcome(ctx, limit)
}

func (s *Service) MarkWelcomeSent(ctx context.Context, userID string, at time.Time) error {
	return s.repo.MarkWelcomeSent(ctx, userID, at)
}

func normalizeEmail(e string) string {
	return strings.ToLower(strings.TrimSpace(e))
}
