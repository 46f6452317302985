package referrals

import "context"

type Repository interface {
	// Create devuelve storage.ErrConflict si el código o el usuario ya existen.
	Create(ctx context.Context, c ReferralCode) error
	GetByUser(ctx context.Context, userID string) (ReferralCode, error)
	GetByCode(ctx context.Context, code string) (ReferralCode, error)

	// Redeem registra el canje e incrementa uses en una sola operación.
	// storage.ErrConflict si el usuario ya canjeó un código.
	Redeem(ctx context.Context, r Redemption) error
	GetRedemption(ctx context.Context, userID string) (Redemption, error)
}
