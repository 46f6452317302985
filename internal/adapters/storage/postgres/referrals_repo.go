package postgres

import (
	"context"
	"database/sql"

	"pet-records/internal/domain/referrals"
)

type ReferralsRepo struct {
	db *sql.DB
}

func NewReferralsRepo(db *sql.DB) *ReferralsRepo {
	return &ReferralsRepo{db: db}
}

func (r *ReferralsRepo) Create(ctx context.Context, c referrals.ReferralCode) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO referral_codes (code, user_id, uses, created_at) VALUES ($1,$2,$3,$4)
	`, c.Code, c.UserID, c.Uses, c.CreatedAt)
	return uniqueViolation(err)
}

func (r *ReferralsRepo) GetByUser(ctx context.Context, userID string) (referrals.ReferralCode, error) {
	return r.getCode(ctx, `SELECT code, user_id, uses, created_at FROM referral_codes WHERE user_id = $1`, userID)
}

func (r *ReferralsRepo) GetByCode(ctx context.Context, code string) (referrals.ReferralCode, error) {
	return r.getCode(ctx, `SELECT code, user_id, uses, created_at FROM referral_codes WHERE code = $1`, code)
}

func (r *ReferralsRepo) getCode(ctx context.Context, q string, arg string) (referrals.ReferralCode, error) {
	var c referrals.ReferralCode
	err := r.db.QueryRowContext(ctx, q, arg).Scan(&c.Code, &c.UserID, &c.Uses, &c.CreatedAt)
	if err != nil {
		return referrals.ReferralCode{}, noRows(err)
	}
	return c, nil
}

// Redeem inserta el canje y suma el uso en la misma transacción.
func (r *ReferralsRepo) Redeem(ctx context.Context, red referrals.Redemption) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, `UPDATE referral_codes SET uses = uses + 1 WHERE code = $1`, red.Code)
	if err != nil {
		return err
	}
	if err := affected(res); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO referral_redemptions (user_id, code, redeemed_at) VALUES ($1,$2,$3)
	`, red.UserID, red.Code, red.RedeemedAt); err != nil {
		return uniqueViolation(err)
	}
	return tx.Commit()
}

func (r *ReferralsRepo) GetRedemption(ctx context.Context, userID string) (referrals.Redemption, error) {
	var red referrals.Redemption
	err := r.db.QueryRowContext(ctx, `
		SELECT code, user_id, redeemed_at FROM referral_redemptions WHERE user_id = $1
	`, userID).Scan(&red.Code, &red.UserID, &red.RedeemedAt)
	if err != nil {
		return referrals.Redemption{}, noRows(err)
	}
	return red, nil
}
