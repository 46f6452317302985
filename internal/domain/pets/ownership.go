package pets

import (
	"context"
	"strings"
)

// OwnerOf devuelve el dueño de petID. reminders, documents y health lo consumen
// a través de una interfaz propia de un método.
func (s *Service) OwnerOf(ctx context.Context, petID string) (string, error) {
	p, err := s.repo.GetByID(ctx, strings.TrimSpace(petID))
	if err != nil {
		return "", err
	}
	return p.OwnerUserID, nil
}
