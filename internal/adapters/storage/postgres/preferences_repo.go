package postgres

import (
	"context"
	"database/sql"
	"time"

	"pet-records/internal/domain/preferences"
)

type PreferencesRepo struct {
	db *sql.DB
}

func NewPreferencesRepo(db *sql.DB) *PreferencesRepo {
	return &PreferencesRepo{db: db}
}

const preferencesColumns = `user_id, email, email_notifications, timezone, welcome_email_sent_at, created_at, updated_at`

func (r *PreferencesRepo) Get(ctx context.Context, userID string) (preferences.UserPreferences, error) {
	p, err := scanPreferences(r.db.QueryRowContext(ctx, `SELECT `+preferencesColumns+` FROM user_preferences WHERE user_id = $1`, userID))
	if err != nil {
		return preferences.UserPreferences{}, noRows(err)
	}
	return p, nil
}

// Upsert no pisa created_at de una fila existente.
func (r *PreferencesRepo) Upsert(ctx context.Context, p preferences.UserPreferences) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO user_preferences (`+preferencesColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		ON CONFLICT (user_id) DO UPDATE SET
			email = EXCLUDED.email,
			email_notifications = EXCLUDED.email_notifications,
			timezone = EXCLUDED.timezone,
			welcome_email_sent_at = EXCLUDED.welcome_email_sent_at,
			updated_at = EXCLUDED.updated_at
	`,
		p.UserID,
		p.Email,
		p.EmailNotifications,
		p.Timezone,
		toNullTime(p.WelcomeEmailSentAt),
		p.CreatedAt,
		p.UpdatedAt,
	)
	return err
}

func (r *PreferencesRepo) ListPendingWelcome(ctx context.Context, limit int) ([]preferences.UserPreferences, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+preferencesColumns+`
		FROM user_preferences
		WHERE email <> '' AND welcome_email_sent_at IS NULL
		ORDER BY created_at ASC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]preferences.UserPreferences, 0)
	for rows.Next() {
		p, err := scanPreferences(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *PreferencesRepo) MarkWelcomeSent(ctx context.Context, userID string, at time.Time) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE user_preferences SET welcome_email_sent_at = $2, updated_at = $2 WHERE user_id = $1
	`, userID, at)
	if err != nil {
		return err
	}
	return affected(res)
}

func scanPreferences(s scanner) (preferences.UserPreferences, error) {
	var p preferences.UserPreferences
	var welcome sql.NullTime
	if err := s.Scan(
		&p.UserID,
		&p.Email,
		&p.EmailNotifications,
		&p.Timezone,
		&welcome,
		&p.CreatedAt,
		&p.UpdatedAt,
	); err != nil {
		return preferences.UserPreferences{}, err
	}
	p.WelcomeEmailSentAt = fromNullTime(welcome)
	return p, nil
}
