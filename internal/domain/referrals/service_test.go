package referrals

import (
	"context"
	"strings"
	"testing"
	"time"

	"pet-records/internal/ports/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRepo struct {
	byCode      map[string]ReferralCode
	redemptions map[string]Redemption
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{byCode: map[string]ReferralCode{}, redemptions: map[string]Redemption{}}
}

func (r *fakeRepo) Create(ctx context.Context, c ReferralCode) error {
	if _, ok := r.byCode[c.Code]; ok {
		return storage.ErrConflict
	}
	for _, ex := range r.byCode {
		if ex.UserID == c.UserID {
			return storage.ErrConflict
		}
	}
	r.byCode[c.Code] = c
	return nil
}

func (r *fakeRepo) GetByUser(ctx context.Context, userID string) (ReferralCode, error) {
	for _, c := range r.byCode {
		if c.UserID == userID {
			return c, nil
		}
	}
	return ReferralCode{}, storage.ErrNotFound
}

func (r *fakeRepo) GetByCode(ctx context.Context, code string) (ReferralCode, error) {
	c, ok := r.byCode[code]
	if !ok {
		return ReferralCode{}, storage.ErrNotFound
	}
	return c, nil
}

func (r *fakeRepo) Redeem(ctx context.Context, red Redemption) error {
	if _, ok := r.redemptions[red.UserID]; ok {
		return storage.ErrConflict
	}
	c := r.byCode[red.Code]
	c.Uses++
	r.byCode[red.Code] = c
	r.redemptions[red.UserID] = red
	return nil
}

func (r *fakeRepo) GetRedemption(ctx context.Context, userID string) (Redemption, error) {
	red, ok := r.redemptions[userID]
	if !ok {
		return Redemption{}, storage.ErrNotFound
	}
	return red, nil
}

func newSvc() (*Service, *fakeRepo) {
	repo := newFakeRepo()
	svc := NewService(repo)
	svc.now = func() time.Time { return time.Date(2025, 2, 2, 0, 0, 0, 0, time.UTC) }
	return svc, repo
}

func TestRandomCode_Alphabet(t *testing.T) {
	for i := 0; i < 50; i++ {
		c, err := randomCode()
		require.NoError(t, err)
		require.Len(t, c, codeLength)
		for _, ch := range c {
			assert.True(t, strings.ContainsRune(codeAlphabet, ch), "unexpected char %q", ch)
		}
	}
}

func TestGetOrCreate_OnePerUser_RetriesOnCollision(t *testing.T) {
	svc, repo := newSvc()
	ctx := context.Background()

	codes := []string{"AAAA2222", "AAAA2222", "BBBB3333"}
	svc.newCode = func() (string, error) {
		c := codes[0]
		codes = codes[1:]
		return c, nil
	}

	c1, err := svc.GetOrCreate(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "AAAA2222", c1.Code)

	again, err := svc.GetOrCreate(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, c1.Code, again.Code)

	c2, err := svc.GetOrCreate(ctx, "u2")
	require.NoError(t, err)
	assert.Equal(t, "BBBB3333", c2.Code)
	assert.Len(t, repo.byCode, 2)
}

func TestRedeem_Rules(t *testing.T) {
	svc, repo := newSvc()
	ctx := context.Background()

	c, err := svc.GetOrCreate(ctx, "owner")
	require.NoError(t, err)

	_, err = svc.Redeem(ctx, "owner", c.Code)
	assert.ErrorIs(t, err, ErrOwnCode)

	_, err = svc.Redeem(ctx, "friend", "ZZZZ9999")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = svc.Redeem(ctx, "friend", "abc")
	assert.ErrorIs(t, err, ErrInvalidInput)

	red, err := svc.Redeem(ctx, "friend", strings.ToLower(c.Code[:4])+"-"+c.Code[4:])
	require.NoError(t, err)
	assert.Equal(t, c.Code, red.Code)
	assert.Equal(t, 1, repo.byCode[c.Code].Uses)

	_, err = svc.Redeem(ctx, "friend", c.Code)
	assert.ErrorIs(t, err, ErrAlreadyRedeemed)
}
