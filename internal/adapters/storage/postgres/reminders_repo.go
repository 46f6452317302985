package postgres

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"pet-records/internal/domain/reminders"
)

type RemindersRepo struct {
	db *sql.DB
}

func NewRemindersRepo(db *sql.DB) *RemindersRepo {
	return &RemindersRepo{db: db}
}

// Las mascotas vienen de reminder_pets como lista separada por comas (ids uuid).
const reminderSelect = `
	SELECT
		r.id, r.owner_user_id,
		r.title, r.date, r.custom_time, r.notes,
		r.archived, r.archived_at,
		r.notification_sent, r.notification_sent_at, r.notification_skipped_at,
		r.created_at, r.updated_at,
		COALESCE((
			SELECT string_agg(rp.pet_id, ',' ORDER BY rp.position)
			FROM reminder_pets rp
			WHERE rp.reminder_id = r.id
		), '')
	FROM reminders r`

func (r *RemindersRepo) Create(ctx context.Context, rem reminders.Reminder) error {
	return r.inTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO reminders (
				id, owner_user_id,
				title, date, custom_time, notes,
				archived, archived_at,
				notification_sent, notification_sent_at, notification_skipped_at,
				created_at, updated_at
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
		`,
			rem.ID,
			rem.OwnerUserID,
			rem.Title,
			rem.Date,
			rem.CustomTime,
			rem.Notes,
			rem.Archived,
			toNullTime(rem.ArchivedAt),
			rem.NotificationSent,
			toNullTime(rem.NotificationSentAt),
			toNullTime(rem.NotificationSkippedAt),
			rem.CreatedAt,
			rem.UpdatedAt,
		)
		if err != nil {
			return uniqueViolation(err)
		}
		return insertReminderPets(ctx, tx, rem.ID, rem.PetIDs)
	})
}

func (r *RemindersRepo) Update(ctx context.Context, rem reminders.Reminder) error {
	return r.inTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			UPDATE reminders
			SET
				title = $2,
				date = $3,
				custom_time = $4,
				notes = $5,
				archived = $6,
				archived_at = $7,
				notification_sent = $8,
				notification_sent_at = $9,
				notification_skipped_at = $10,
				updated_at = $11
			WHERE id = $1
		`,
			rem.ID,
			rem.Title,
			rem.Date,
			rem.CustomTime,
			rem.Notes,
			rem.Archived,
			toNullTime(rem.ArchivedAt),
			rem.NotificationSent,
			toNullTime(rem.NotificationSentAt),
			toNullTime(rem.NotificationSkippedAt),
			rem.UpdatedAt,
		)
		if err != nil {
			return err
		}
		if err := affected(res); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM reminder_pets WHERE reminder_id = $1`, rem.ID); err != nil {
			return err
		}
		return insertReminderPets(ctx, tx, rem.ID, rem.PetIDs)
	})
}

func (r *RemindersRepo) GetByID(ctx context.Context, id string) (reminders.Reminder, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return reminders.Reminder{}, ErrNotFound
	}
	rem, err := scanReminder(r.db.QueryRowContext(ctx, reminderSelect+` WHERE r.id = $1`, id))
	if err != nil {
		return reminders.Reminder{}, noRows(err)
	}
	return rem, nil
}

func (r *RemindersRepo) ListByOwner(ctx context.Context, ownerUserID string, f reminders.ListFilter) ([]reminders.Reminder, error) {
	q := reminderSelect + ` WHERE r.owner_user_id = $1`
	args := []any{ownerUserID}
	switch f.Status {
	case reminders.StatusArchived:
		q += ` AND r.archived`
	case reminders.StatusAll:
	default:
		q += ` AND NOT r.archived`
	}
	if f.PetID != "" {
		args = append(args, f.PetID)
		q += ` AND EXISTS (SELECT 1 FROM reminder_pets x WHERE x.reminder_id = r.id AND x.pet_id = $2)`
	}
	q += ` ORDER BY r.created_at ASC`
	return r.list(ctx, q, args...)
}

func (r *RemindersRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM reminders WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return affected(res)
}

func (r *RemindersRepo) ListPendingUntil(ctx context.Context, day time.Time, limit int) ([]reminders.Reminder, error) {
	if limit <= 0 {
		limit = 500
	}
	return r.list(ctx, reminderSelect+`
		WHERE NOT r.archived AND NOT r.notification_sent
			AND r.notification_skipped_at IS NULL AND r.date <= $1
		ORDER BY r.date ASC, r.created_at ASC
		LIMIT $2`, utcDay(day), limit)
}

func (r *RemindersRepo) MarkNotified(ctx context.Context, id string, at time.Time) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE reminders
		SET notification_sent = TRUE, notification_sent_at = $2
		WHERE id = $1
	`, id, at)
	if err != nil {
		return err
	}
	return affected(res)
}

func (r *RemindersRepo) MarkSkipped(ctx context.Context, id string, at time.Time) error {
	res, err := r.db.ExecContext(ctx, `UPDATE reminders SET notification_skipped_at = $2 WHERE id = $1`, id, at)
	if err != nil {
		return err
	}
	return affected(res)
}

func (r *RemindersRepo) DetachPet(ctx context.Context, petID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM reminder_pets WHERE pet_id = $1`, petID)
	return err
}

func (r *RemindersRepo) list(ctx context.Context, q string, args ...any) ([]reminders.Reminder, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]reminders.Reminder, 0)
	for rows.Next() {
		rem, err := scanReminder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rem)
	}
	return out, rows.Err()
}

func (r *RemindersRepo) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

func insertReminderPets(ctx context.Context, tx *sql.Tx, reminderID string, petIDs []string) error {
	for i, petID := range petIDs {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO reminder_pets (reminder_id, pet_id, position) VALUES ($1,$2,$3)
			ON CONFLICT DO NOTHING
		`, reminderID, petID, i); err != nil {
			return err
		}
	}
	return nil
}

func scanReminder(s scanner) (reminders.Reminder, error) {
	var rem reminders.Reminder
	var archivedAt, sentAt, skippedAt sql.NullTime
	var petIDs string
	if err := s.Scan(
		&rem.ID,
		&rem.OwnerUserID,
		&rem.Title,
		&rem.Date,
		&rem.CustomTime,
		&rem.Notes,
		&rem.Archived,
		&archivedAt,
		&rem.NotificationSent,
		&sentAt,
		&skippedAt,
		&rem.CreatedAt,
		&rem.UpdatedAt,
		&petIDs,
	); err != nil {
		return reminders.Reminder{}, err
	}
	rem.Date = utcDay(rem.Date)
	rem.ArchivedAt = fromNullTime(archivedAt)
	rem.NotificationSentAt = fromNullTime(sentAt)
	rem.NotificationSkippedAt = fromNullTime(skippedAt)
	rem.PetIDs = []string{}
	if petIDs != "" {
		rem.PetIDs = strings.Split(petIDs, ",")
	}
	return rem, nil
}
