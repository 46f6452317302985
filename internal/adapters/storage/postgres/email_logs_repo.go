package postgres

import (
	"context"
	"database/sql"
	"time"

	"pet-records/internal/domain/notify"
)

type EmailLogsRepo struct {
	db *sql.DB
}

func NewEmailLogsRepo(db *sql.DB) *EmailLogsRepo {
	return &EmailLogsRepo{db: db}
}

func (r *EmailLogsRepo) Create(ctx context.Context, l notify.EmailLog) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO email_logs (
			id, kind, user_id, recipient, subject,
			status, provider_id, error, related_id,
			created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
	`,
		l.ID,
		string(l.Kind),
		l.UserID,
		l.Recipient,
		l.Subject,
		string(l.Status),
		l.ProviderID,
		l.Error,
		l.RelatedID,
		l.CreatedAt,
		l.UpdatedAt,
	)
	return uniqueViolation(err)
}

// UpdateStatus conserva el provider_id previo si llega vacío.
func (r *EmailLogsRepo) UpdateStatus(ctx context.Context, id string, status notify.LogStatus, providerID, errMsg string, at time.Time) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE email_logs
		SET
			status = $2,
			provider_id = CASE WHEN $3 = '' THEN provider_id ELSE $3 END,
			error = $4,
			updated_at = $5
		WHERE id = $1
	`, id, string(status), providerID, errMsg, at)
	if err != nil {
		return err
	}
	return affected(res)
}

func (r *EmailLogsRepo) ListByUser(ctx context.Context, userID string, limit int) ([]notify.EmailLog, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT
			id, kind, user_id, recipient, subject,
			status, provider_id, error, related_id,
			created_at, updated_at
		FROM email_logs
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]notify.EmailLog, 0)
	for rows.Next() {
		var l notify.EmailLog
		var kind, status string
		if err := rows.Scan(
			&l.ID,
			&kind,
			&l.UserID,
			&l.Recipient,
			&l.Subject,
			&status,
			&l.ProviderID,
			&l.Error,
			&l.RelatedID,
			&l.CreatedAt,
			&l.UpdatedAt,
		); err != nil {
			return nil, err
		}
		l.Kind = notify.Kind(kind)
		l.Status = notify.LogStatus(status)
		out = append(out, l)
	}
	return out, rows.Err()
}
