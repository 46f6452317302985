package memory

import (
	"context"
	"sync"

	"pet-records/internal/domain/referrals"
	"pet-records/internal/ports/storage"
)

type referralRepo struct {
	mu          sync.RWMutex
	byCode      map[string]referrals.ReferralCode
	codeByUser  map[string]string
	redemptions map[string]referrals.Redemption // por user id
}

func NewReferralRepo() referrals.Repository {
	return &referralRepo{
		byCode:      make(map[string]referrals.ReferralCode),
		codeByUser:  make(map[string]string),
		redemptions: make(map[string]referrals.Redemption),
	}
}

func (r *referralRepo) Create(ctx context.Context, c referrals.ReferralCode) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byCode[c.Code]; ok {
		return storage.ErrConflict
	}
	if _, ok := r.codeByUser[c.UserID]; ok {
		return storage.ErrConflict
	}
	r.byCode[c.Code] = c
	r.codeByUser[c.UserID] = c.Code
	return nil
}

func (r *referralRepo) GetByUser(ctx context.Context, userID string) (referrals.ReferralCode, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	code, ok := r.codeByUser[userID]
	if !ok {
		return referrals.ReferralCode{}, ErrNotFound
	}
	return r.byCode[code], nil
}

func (r *referralRepo) GetByCode(ctx context.Context, code string) (referrals.ReferralCode, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.byCode[code]
	if !ok {
		return referrals.ReferralCode{}, ErrNotFound
	}
	return c, nil
}

func (r *referralRepo) Redeem(ctx context.Context, red referrals.Redemption) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.byCode[red.Code]
	if !ok {
		return ErrNotFound
	}
	if _, done := r.redemptions[red.UserID]; done {
		return storage.ErrConflict
	}
	c.Uses++
	r.byCode[red.Code] = c
	r.redemptions[red.UserID] = red
	return nil
}

func (r *referralRepo) GetRedemption(ctx context.Context, userID string) (referrals.Redemption, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	red, ok := r.redemptions[userID]
	if !ok {
		return referrals.Redemption{}, ErrNotFound
	}
	return red, nil
}
