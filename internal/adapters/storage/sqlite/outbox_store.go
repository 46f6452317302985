// Package sqlite guarda la outbox en un archivo SQLite local, para que los
// emails pendientes sobrevivan un reinicio sin depender de Postgres.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"pet-records/internal/outbox"
	"pet-records/internal/ports/email"
	"pet-records/internal/ports/storage"

	json "github.com/goccy/go-json"
	_ "modernc.org/sqlite" // driver puro Go
)

const schema = `
CREATE TABLE IF NOT EXISTS outbox (
	id              TEXT PRIMARY KEY,
	kind            TEXT NOT NULL,
	message         BLOB NOT NULL,
	log_id          TEXT NOT NULL DEFAULT '',
	attempts        INTEGER NOT NULL DEFAULT 0,
	next_attempt_at INTEGER NOT NULL,
	last_error      TEXT NOT NULL DEFAULT '',
	status          TEXT NOT NULL,
	created_at      INTEGER NOT NULL,
	updated_at      INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS outbox_due_idx ON outbox (status, next_attempt_at);
`

type OutboxStore struct {
	db *sql.DB
}

// OpenOutbox abre (o crea) el archivo y la tabla. path ":memory:" sirve para tests.
func OpenOutbox(path string) (*OutboxStore, error) {
	if path == "" {
		return nil, errors.New("sqlite: path required")
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil && !errors.Is(err, os.ErrExist) {
			return nil, fmt.Errorf("sqlite: create dirs: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open: %w", err)
	}
	// SQLite serializa escrituras; una conexión evita SQLITE_BUSY (y mantiene viva la base :memory:).
	db.SetMaxOpenConns(1)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite: create schema: %w", err)
	}
	return &OutboxStore{db: db}, nil
}

func (s *OutboxStore) Close() error { return s.db.Close() }

func (s *OutboxStore) Enqueue(ctx context.Context, e outbox.Entry) error {
	if err := e.Validate(); err != nil {
		return err
	}
	if e.Status == "" {
		e.Status = outbox.StatusPending
	}
	msg, err := json.Marshal(e.Message)
	if err != nil {
		return fmt.Errorf("sqlite: marshal message: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO outbox (id, kind, message, log_id, attempts, next_attempt_at, last_error, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.Kind, msg, e.LogID, e.Attempts, ms(e.NextAttemptAt), e.LastError, string(e.Status),
		ms(e.CreatedAt), ms(e.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("sqlite: enqueue: %w", err)
	}
	return nil
}

func (s *OutboxStore) Due(ctx context.Context, now time.Time, limit int) ([]outbox.Entry, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, kind, message, log_id, attempts, next_attempt_at, last_error, status, created_at, updated_at
		FROM outbox
		WHERE status = ? AND next_attempt_at <= ?
		ORDER BY created_at ASC
		LIMIT ?`,
		string(outbox.StatusPending), ms(now), limit,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: due: %w", err)
	}
	defer func() { _ = rows.Close() }()

	out := make([]outbox.Entry, 0)
	for rows.Next() {
		var (
			e                      outbox.Entry
			raw                    []byte
			status                 string
			next, created, updated int64
		)
		if err := rows.Scan(&e.ID, &e.Kind, &raw, &e.LogID, &e.Attempts, &next, &e.LastError, &status, &created, &updated); err != nil {
			return nil, fmt.Errorf("sqlite: scan: %w", err)
		}
		var msg email.Message
		if err := json.Unmarshal(raw, &msg); err != nil {
			return nil, fmt.Errorf("sqlite: decode message %s: %w", e.ID, err)
		}
		e.Message = msg
		e.Status = outbox.Status(status)
		e.NextAttemptAt = fromMS(next)
		e.CreatedAt = fromMS(created)
		e.UpdatedAt = fromMS(updated)
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *OutboxStore) MarkSent(ctx context.Context, id string, attempts int, at time.Time) error {
	return s.exec(ctx, `UPDATE outbox SET status = ?, attempts = ?, last_error = '', updated_at = ? WHERE id = ?`,
		string(outbox.StatusSent), attempts, ms(at), id)
}

func (s *OutboxStore) MarkRetry(ctx context.Context, id string, attempts int, next time.Time, lastErr string) error {
	return s.exec(ctx, `UPDATE outbox SET attempts = ?, next_attempt_at = ?, last_error = ?, updated_at = ? WHERE id = ?`,
		attempts, ms(next), lastErr, ms(time.Now()), id)
}

func (s *OutboxStore) MarkDead(ctx context.Context, id string, attempts int, lastErr string, at time.Time) error {
	return s.exec(ctx, `UPDATE outbox SET status = ?, attempts = ?, last_error = ?, updated_at = ? WHERE id = ?`,
		string(outbox.StatusDead), attempts, lastErr, ms(at), id)
}

func (s *OutboxStore) CountPending(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM outbox WHERE status = ?`, string(outbox.StatusPending)).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("sqlite: count: %w", err)
	}
	return n, nil
}

func (s *OutboxStore) exec(ctx context.Context, q string, args ...any) error {
	res, err := s.db.ExecContext(ctx, q, args...)
	if err != nil {
		return fmt.Errorf("sqlite: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func ms(t time.Time) int64 { return t.UTC().UnixMilli() }

func fromMS(v int64) time.Time { return time.UnixMilli(v).UTC() }
