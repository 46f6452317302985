package referrals

import "time"

type ReferralCode struct {
	Code      string
	UserID    string
	Uses      int
	CreatedAt time.Time
}

type Redemption struct {
	Code       string
	UserID     string
	RedeemedAt time.Time
}
