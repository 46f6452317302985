//go:build integration

package postgres

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"pet-records/internal/domain/documents"
	"pet-records/internal/domain/health"
	"pet-records/internal/domain/notify"
	"pet-records/internal/domain/pets"
	"pet-records/internal/domain/preferences"
	"pet-records/internal/domain/referrals"
	"pet-records/internal/domain/reminders"
	"pet-records/internal/testinfra"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := Open(testinfra.StartPostgres(t), 4, 2)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, Migrate(context.Background(), db))
	// segunda pasada: el DDL es idempotente
	require.NoError(t, Migrate(context.Background(), db))
	return db
}

var ts = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func TestRepos_Postgres(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	t.Run("pets", func(t *testing.T) {
		repo := NewPetsRepo(db)
		birth := time.Date(2020, 2, 3, 0, 0, 0, 0, time.UTC)
		p := pets.Pet{ID: "p1", OwnerUserID: "u1", Name: "Firulais", Species: pets.SpeciesDog, Sex: pets.SexMale, BirthDate: &birth, CreatedAt: ts, UpdatedAt: ts}
		require.NoError(t, repo.Create(ctx, p))
		assert.ErrorIs(t, repo.Create(ctx, p), ErrConflict)

		got, err := repo.GetByID(ctx, "p1")
		require.NoError(t, err)
		assert.Equal(t, "Firulais", got.Name)
		require.NotNil(t, got.BirthDate)
		assert.True(t, got.BirthDate.Equal(birth))

		got.Archived = true
		got.ArchivedAt = &ts
		require.NoError(t, repo.Update(ctx, got))

		active, err := repo.ListByOwner(ctx, "u1", pets.StatusActive)
		require.NoError(t, err)
		assert.Empty(t, active)
		archived, err := repo.ListByOwner(ctx, "u1", pets.StatusArchived)
		require.NoError(t, err)
		assert.Len(t, archived, 1)

		require.NoError(t, repo.Delete(ctx, "p1"))
		_, err = repo.GetByID(ctx, "p1")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("reminders", func(t *testing.T) {
		repo := NewRemindersRepo(db)
		day := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)
		r := reminders.Reminder{ID: "r1", OwnerUserID: "u1", Title: "Vacuna", Date: day, CustomTime: "10:30", PetIDs: []string{"pa", "pb"}, CreatedAt: ts, UpdatedAt: ts}
		require.NoError(t, repo.Create(ctx, r))

		got, err := repo.GetByID(ctx, "r1")
		require.NoError(t, err)
		assert.Equal(t, []string{"pa", "pb"}, got.PetIDs)
		assert.True(t, got.Date.Equal(day))

		byPet, err := repo.ListByOwner(ctx, "u1", reminders.ListFilter{Status: reminders.StatusActive, PetID: "pb"})
		require.NoError(t, err)
		assert.Len(t, byPet, 1)

		pending, err := repo.ListPendingUntil(ctx, day, 10)
		require.NoError(t, err)
		assert.Len(t, pending, 1)

		require.NoError(t, repo.MarkNotified(ctx, "r1", ts))
		pending, err = repo.ListPendingUntil(ctx, day, 10)
		require.NoError(t, err)
		assert.Empty(t, pending)

		require.NoError(t, repo.DetachPet(ctx, "pa"))
		got, err = repo.GetByID(ctx, "r1")
		require.NoError(t, err)
		assert.Equal(t, []string{"pb"}, got.PetIDs)
		assert.True(t, got.NotificationSent)

		skip := reminders.Reminder{ID: "r2", OwnerUserID: "u9", Title: "Sin email", Date: day, PetIDs: []string{}, CreatedAt: ts, UpdatedAt: ts}
		require.NoError(t, repo.Create(ctx, skip))
		require.NoError(t, repo.MarkSkipped(ctx, "r2", ts))
		pending, err = repo.ListPendingUntil(ctx, day, 10)
		require.NoError(t, err)
		assert.Empty(t, pending)
		got, err = repo.GetByID(ctx, "r2")
		require.NoError(t, err)
		require.NotNil(t, got.NotificationSkippedAt)
	})

	t.Run("documents", func(t *testing.T) {
		repo := NewDocumentsRepo(db)
		exp := ts.Add(24 * time.Hour)
		d := documents.Document{ID: "d1", OwnerUserID: "u1", PetID: "pa", Name: "Carnet", Category: documents.CategoryVaccination, FileURL: "https://x/y.pdf", CreatedAt: ts, UpdatedAt: ts}
		require.NoError(t, repo.Create(ctx, d))

		d.ShareToken = "tok"
		d.ShareExpiresAt = &exp
		require.NoError(t, repo.Update(ctx, d))

		got, err := repo.GetByShareToken(ctx, "tok")
		require.NoError(t, err)
		assert.Equal(t, "d1", got.ID)

		fav := false
		list, err := repo.ListByOwner(ctx, "u1", documents.ListFilter{Category: documents.CategoryVaccination, PetID: "pa", Favorite: &fav})
		require.NoError(t, err)
		assert.Len(t, list, 1)

		require.NoError(t, repo.DetachPet(ctx, "pa"))
		got, err = repo.GetByID(ctx, "d1")
		require.NoError(t, err)
		assert.Empty(t, got.PetID)
	})

	t.Run("health", func(t *testing.T) {
		repo := NewHealthRepo(db)
		on := time.Date(2025, 5, 20, 0, 0, 0, 0, time.UTC)
		require.NoError(t, repo.CreateRecord(ctx, health.HealthRecord{ID: "h1", PetID: "pa", Type: health.RecordTypeCheckup, OccurredOn: on, Title: "Control anual", RecordedBy: "u1", CreatedAt: ts}))
		require.NoError(t, repo.CreateRecord(ctx, health.HealthRecord{ID: "h2", PetID: "pa", Type: health.RecordTypeSurgery, OccurredOn: on.AddDate(0, 0, 1), Title: "Castración", RecordedBy: "u1", CreatedAt: ts}))
		require.NoError(t, repo.CreateMedication(ctx, health.Medication{ID: "m1", PetID: "pa", Name: "Meloxicam", StartDate: on, CreatedAt: ts, UpdatedAt: ts}))
		require.NoError(t, repo.CreateVaccination(ctx, health.Vaccination{ID: "v1", PetID: "pa", Name: "Rabia", AdministeredOn: on, CreatedAt: ts}))

		recs, err := repo.ListRecords(ctx, "pa", health.RecordFilter{})
		require.NoError(t, err)
		require.Len(t, recs, 2)
		assert.Equal(t, "h2", recs[0].ID)

		recs, err = repo.ListRecords(ctx, "pa", health.RecordFilter{Types: []health.RecordType{health.RecordTypeCheckup}, Query: "ANUAL"})
		require.NoError(t, err)
		require.Len(t, recs, 1)
		assert.Equal(t, "h1", recs[0].ID)

		require.NoError(t, repo.DeleteByPet(ctx, "pa"))
		meds, err := repo.ListMedications(ctx, "pa")
		require.NoError(t, err)
		assert.Empty(t, meds)
		_, err = repo.GetVaccination(ctx, "v1")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("preferences", func(t *testing.T) {
		repo := NewPreferencesRepo(db)
		require.NoError(t, repo.Upsert(ctx, preferences.UserPreferences{UserID: "u1", Email: "a@b.c", EmailNotifications: true, Timezone: "UTC", CreatedAt: ts, UpdatedAt: ts}))
		require.NoError(t, repo.Upsert(ctx, preferences.UserPreferences{UserID: "u2", Timezone: "UTC", CreatedAt: ts, UpdatedAt: ts}))

		pending, err := repo.ListPendingWelcome(ctx, 10)
		require.NoError(t, err)
		require.Len(t, pending, 1)
		assert.Equal(t, "u1", pending[0].UserID)

		require.NoError(t, repo.MarkWelcomeSent(ctx, "u1", ts))
		p, err := repo.Get(ctx, "u1")
		require.NoError(t, err)
		assert.NotNil(t, p.WelcomeEmailSentAt)
	})

	t.Run("referrals", func(t *testing.T) {
		repo := NewReferralsRepo(db)
		require.NoError(t, repo.Create(ctx, referrals.ReferralCode{Code: "ABC123", UserID: "u1", CreatedAt: ts}))
		assert.ErrorIs(t, repo.Create(ctx, referrals.ReferralCode{Code: "ZZZ999", UserID: "u1", CreatedAt: ts}), ErrConflict)

		require.NoError(t, repo.Redeem(ctx, referrals.Redemption{Code: "ABC123", UserID: "u2", RedeemedAt: ts}))
		assert.ErrorIs(t, repo.Redeem(ctx, referrals.Redemption{Code: "ABC123", UserID: "u2", RedeemedAt: ts}), ErrConflict)
		assert.ErrorIs(t, repo.Redeem(ctx, referrals.Redemption{Code: "NOPE", UserID: "u3", RedeemedAt: ts}), ErrNotFound)

		c, err := repo.GetByCode(ctx, "ABC123")
		require.NoError(t, err)
		assert.Equal(t, 1, c.Uses)
	})

	t.Run("email logs", func(t *testing.T) {
		repo := NewEmailLogsRepo(db)
		require.NoError(t, repo.Create(ctx, notify.EmailLog{ID: "e1", Kind: notify.KindReminder, UserID: "u1", Recipient: "a@b.c", Subject: "s", Status: notify.LogQueued, CreatedAt: ts, UpdatedAt: ts}))
		require.NoError(t, repo.UpdateStatus(ctx, "e1", notify.LogSent, "prov-1", "", ts.Add(time.Minute)))
		assert.ErrorIs(t, repo.UpdateStatus(ctx, "nope", notify.LogSent, "", "", ts), ErrNotFound)

		logs, err := repo.ListByUser(ctx, "u1", 10)
		require.NoError(t, err)
		require.Len(t, logs, 1)
		assert.Equal(t, notify.LogSent, logs[0].Status)
		assert.Equal(t, "prov-1", logs[0].ProviderID)
	})
}
