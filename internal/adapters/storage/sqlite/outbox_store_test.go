package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"pet-records/internal/outbox"
	"pet-records/internal/ports/email"
	"pet-records/internal/ports/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T) *OutboxStore {
	t.Helper()
	s, err := OpenOutbox(filepath.Join(t.TempDir(), "outbox.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func entry(id string, at time.Time) outbox.Entry {
	return outbox.Entry{
		ID:    id,
		Kind:  "reminder",
		LogID: "log-" + id,
		Message: email.Message{
			To:      []string{"ana@example.com"},
			From:    "Pet Records <no-reply@example.com>",
			Subject: "Recordatorio",
			HTML:    "<p>hola</p>",
			Tags:    map[string]string{"kind": "reminder"},
		},
		NextAttemptAt: at,
		CreatedAt:     at,
		UpdatedAt:     at,
	}
}

func TestOutboxStore_EnqueueAndDue(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	t0 := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, s.Enqueue(ctx, entry("b", t0.Add(time.Minute))))
	require.NoError(t, s.Enqueue(ctx, entry("a", t0)))

	due, err := s.Due(ctx, t0, 10)
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, "a", due[0].ID)
	assert.Equal(t, outbox.StatusPending, due[0].Status)
	assert.Equal(t, []string{"ana@example.com"}, due[0].Message.To)
	assert.Equal(t, "reminder", due[0].Message.Tags["kind"])
	assert.True(t, due[0].CreatedAt.Equal(t0))

	due, err = s.Due(ctx, t0.Add(time.Hour), 10)
	require.NoError(t, err)
	require.Len(t, due, 2)
	assert.Equal(t, []string{"a", "b"}, []string{due[0].ID, due[1].ID})

	n, err := s.CountPending(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestOutboxStore_StatusTransitions(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	t0 := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, s.Enqueue(ctx, entry("a", t0)))
	require.NoError(t, s.Enqueue(ctx, entry("b", t0)))
	require.NoError(t, s.Enqueue(ctx, entry("c", t0)))

	require.NoError(t, s.MarkRetry(ctx, "a", 1, t0.Add(time.Hour), "503"))
	require.NoError(t, s.MarkSent(ctx, "b", 1, t0))
	require.NoError(t, s.MarkDead(ctx, "c", 3, "422", t0))

	due, err := s.Due(ctx, t0.Add(time.Minute), 10)
	require.NoError(t, err)
	assert.Empty(t, due)

	due, err = s.Due(ctx, t0.Add(time.Hour), 10)
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, 1, due[0].Attempts)
	assert.Equal(t, "503", due[0].LastError)

	n, _ := s.CountPending(ctx)
	assert.Equal(t, 1, n)

	assert.ErrorIs(t, s.MarkSent(ctx, "nope", 1, t0), storage.ErrNotFound)
}

func TestOutboxStore_RejectsEmptyMessage(t *testing.T) {
	s := newStore(t)
	e := entry("a", time.Now())
	e.Message.To = nil
	assert.Error(t, s.Enqueue(context.Background(), e))
}

func TestOutboxStore_SurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "outbox.db")
	t0 := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	s, err := OpenOutbox(path)
	require.NoError(t, err)
	require.NoError(t, s.Enqueue(ctx, entry("a", t0)))
	require.NoError(t, s.Close())

	s, err = OpenOutbox(path)
	require.NoError(t, err)
	defer s.Close()

	n, err := s.CountPending(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
