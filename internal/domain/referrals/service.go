package referrals

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"pet-records/internal/ports/storage"
)

var (
	ErrInvalidInput    = errors.New("invalid input")
	ErrOwnCode         = errors.New("cannot redeem your own referral code")
	ErrAlreadyRedeemed = errors.New("referral code already redeemed")
	ErrNotFound        = storage.ErrNotFound
)

// Sin 0/O ni 1/I para que se pueda dictar.
const (
	codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	codeLength   = 8
	maxAttempts  = 5
)

type Service struct {
	repo    Repository
	now     func() time.Time
	newCode func() (string, error)
}

func NewService(repo Repository) *Service {
	return &Service{
		repo:    repo,
		now:     time.Now,
		newCode: randomCode,
	}
}

// GetOrCreate devuelve el código del usuario; lo crea si no existe.
func (s *Service) GetOrCreate(ctx context.Context, userID string) (ReferralCode, error) {
	if strings.TrimSpace(userID) == "" {
		return ReferralCode{}, ErrInvalidInput
	}
	c, err := s.repo.GetByUser(ctx, userID)
	if err == nil {
		return c, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return ReferralCode{}, err
	}

	for i := 0; i < maxAttempts; i++ {
		code, err := s.newCode()
		if err != nil {
			return ReferralCode{}, err
		}
		c = ReferralCode{Code: code, UserID: userID, CreatedAt: s.now()}
		err = s.repo.Create(ctx, c)
		if err == nil {
			return c, nil
		}
		if !errors.Is(err, storage.ErrConflict) {
			return ReferralCode{}, err
		}
		// conflicto: o chocó el código o otro request creó el del usuario
		if existing, gerr := s.repo.GetByUser(ctx, userID); gerr == nil {
			return existing, nil
		}
	}
	return ReferralCode{}, fmt.Errorf("referral code: no free code after %d attempts", maxAttempts)
}

func (s *Service) Redeem(ctx context.Context, userID, code string) (Redemption, error) {
	if strings.TrimSpace(userID) == "" {
		return Redemption{}, ErrInvalidInput
	}
	code = NormalizeCode(code)
	if len(code) != codeLength {
		return Redemption{}, fmt.Errorf("%w: code must have %d characters", ErrInvalidInput, codeLength)
	}

	rc, err := s.repo.GetByCode(ctx, code)
	if err != nil {
		return Redemption{}, err
	}
	if rc.UserID == userID {
		return Redemption{}, ErrOwnCode
	}
	if _, err := s.repo.GetRedemption(ctx, userID); err == nil {
		return Redemption{}, ErrAlreadyRedeemed
	} else if !errors.Is(err, storage.ErrNotFound) {
		return Redemption{}, err
	}

	red := Redemption{Code: rc.Code, UserID: userID, RedeemedAt: s.now()}
	if err := s.repo.Redeem(ctx, red); err != nil {
		if errors.Is(err, storage.ErrConflict) {
			return Redemption{}, ErrAlreadyRedeemed
		}
		return Redemption{}, err
	}
	return red, nil
}

func NormalizeCode(code string) string {
	return strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(code), "-", ""))
}

func randomCode() (string, error) {
	base := big.NewInt(int64(len(codeAlphabet)))
	var sb strings.Builder
	sb.Grow(codeLength)
	for i := 0; i < codeLength; i++ {
		n, err := rand.Int(rand.Reader, base)
		if err != nil {
			return "", fmt.Errorf("referral code: %w", err)
		}
		sb.WriteByte(codeAlphabet[n.Int64()])
	}
	return sb.String(), nil
}
