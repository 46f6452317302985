package reminders

import (
	"context"
	"errors"
	"testing"
	"time"
	_ "time/tzdata"

	"pet-records/internal/ports/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRepo struct {
	byID map[string]Reminder
}

func newFakeRepo() *fakeRepo { return &fakeRepo{byID: map[string]Reminder{}} }

func (r *fakeRepo) Create(ctx context.Context, rem Reminder) error {
	r.byID[rem.ID] = rem
	return nil
}

func (r *fakeRepo) Update(ctx context.Context, rem Reminder) error {
	if _, ok := r.byID[rem.ID]; !ok {
		return storage.ErrNotFound
	}
	r.byID[rem.ID] = rem
	return nil
}

func (r *fakeRepo) GetByID(ctx context.Context, id string) (Reminder, error) {
	rem, ok := r.byID[id]
	if !ok {
		return Reminder{}, storage.ErrNotFound
	}
	return rem, nil
}

func (r *fakeRepo) ListByOwner(ctx context.Context, owner string, f ListFilter) ([]Reminder, error) {
	out := []Reminder{}
	for _, rem := range r.byID {
		if rem.OwnerUserID != owner || !rem.Matches(f.Status) {
			continue
		}
		if f.PetID != "" && !rem.HasPet(f.PetID) {
			continue
		}
		out = append(out, rem)
	}
	return out, nil
}

func (r *fakeRepo) Delete(ctx context.Context, id string) error {
	delete(r.byID, id)
	return nil
}

func (r *fakeRepo) ListPendingUntil(ctx context.Context, day time.Time, limit int) ([]Reminder, error) {
	out := []Reminder{}
	for _, rem := range r.byID {
		if !rem.Archived && !rem.NotificationSent && rem.NotificationSkippedAt == nil && !rem.Date.After(day) {
			out = append(out, rem)
		}
	}
	return out, nil
}

func (r *fakeRepo) MarkNotified(ctx context.Context, id string, at time.Time) error {
	rem, ok := r.byID[id]
	if !ok {
		return storage.ErrNotFound
	}
	rem.NotificationSent = true
	rem.NotificationSentAt = &at
	r.byID[id] = rem
	return nil
}

func (r *fakeRepo) MarkSkipped(ctx context.Context, id string, at time.Time) error {
	rem, ok := r.byID[id]
	if !ok {
		return storage.ErrNotFound
	}
	rem.NotificationSkippedAt = &at
	r.byID[id] = rem
	return nil
}

func (r *fakeRepo) DetachPet(ctx context.Context, petID string) error {
	for id, rem := range r.byID {
		kept := rem.PetIDs[:0:0]
		for _, p := range rem.PetIDs {
			if p != petID {
				kept = append(kept, p)
			}
		}
		rem.PetIDs = kept
		r.byID[id] = rem
	}
	return nil
}

type fakePets map[string]string // petID -> owner

func (f fakePets) OwnerOf(ctx context.Context, petID string) (string, error) {
	owner, ok := f[petID]
	if !ok {
		return "", storage.ErrNotFound
	}
	return owner, nil
}

var fixedNow = time.Date(2025, 6, 15, 14, 30, 0, 0, time.UTC)

func newSvc() (*Service, *fakeRepo) {
	repo := newFakeRepo()
	svc := NewService(repo, fakePets{"p1": "u1", "p2": "u1", "p9": "u2"})
	svc.now = func() time.Time { return fixedNow }
	return svc, repo
}

func day(y int, m time.Month, d int) time.Time { return time.Date(y, m, d, 0, 0, 0, 0, time.UTC) }

func TestCategorize_PureFunctionOfDates(t *testing.T) {
	now := time.Date(2025, 6, 15, 23, 59, 0, 0, time.UTC)

	cases := []struct {
		date time.Time
		want Category
	}{
		{day(2025, 6, 14), CategoryOverdue},
		{day(2024, 12, 31), CategoryOverdue},
		{day(2025, 6, 15), CategoryToday},
		{day(2025, 6, 16), CategoryUpcoming},
		{day(2026, 1, 1), CategoryUpcoming},
	}
	for _, tc := range cases {
		got := Categorize(now, Reminder{Date: tc.date})
		assert.Equal(t, tc.want, got, tc.date.Format("2006-01-02"))
		// mismo resultado en llamadas repetidas
		assert.Equal(t, got, Categorize(now, Reminder{Date: tc.date}))
	}
}

func TestCategorize_UsesNowLocation(t *testing.T) {
	loc := time.FixedZone("UTC-5", -5*3600)
	// 02:00 UTC del 16 = 21:00 del 15 en UTC-5
	now := time.Date(2025, 6, 16, 2, 0, 0, 0, time.UTC).In(loc)

	assert.Equal(t, CategoryToday, Categorize(now, Reminder{Date: day(2025, 6, 15)}))
	assert.Equal(t, CategoryUpcoming, Categorize(now, Reminder{Date: day(2025, 6, 16)}))
}

func TestDueAt_DefaultsToNine(t *testing.T) {
	r := Reminder{Date: day(2025, 6, 15)}
	assert.Equal(t, time.Date(2025, 6, 15, 9, 0, 0, 0, time.UTC), r.DueAt(time.UTC))

	r.CustomTime = "18:45"
	assert.Equal(t, time.Date(2025, 6, 15, 18, 45, 0, 0, time.UTC), r.DueAt(nil))
}

func TestService_Create_ValidatesPetsAndCollapsesDuplicates(t *testing.T) {
	svc, _ := newSvc()
	ctx := context.Background()

	rem, err := svc.Create(ctx, "u1", CreateInput{
		Title:      "Vacuna",
		Date:       time.Date(2025, 6, 20, 15, 0, 0, 0, time.UTC),
		CustomTime: "8:05",
		PetIDs:     []string{"p1", "p1", " p2 "},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"p1", "p2"}, rem.PetIDs)
	assert.Equal(t, day(2025, 6, 20), rem.Date)
	assert.Equal(t, "08:05", rem.CustomTime)

	_, err = svc.Create(ctx, "u1", CreateInput{Title: "X", Date: fixedNow, PetIDs: []string{"p9"}})
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = svc.Create(ctx, "u1", CreateInput{Title: "X", Date: fixedNow, PetIDs: []string{"nope"}})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.Create(ctx, "u1", CreateInput{Title: "X", Date: fixedNow, CustomTime: "25:00"})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestService_ArchiveRestoreDelete(t *testing.T) {
	svc, repo := newSvc()
	ctx := context.Background()

	rem, err := svc.Create(ctx, "u1", CreateInput{Title: "Baño", Date: fixedNow})
	require.NoError(t, err)

	assert.ErrorIs(t, svc.Delete(ctx, rem.ID, "u1"), ErrNotArchived)

	archived, err := svc.Archive(ctx, rem.ID, "u1")
	require.NoError(t, err)
	assert.True(t, archived.Archived)

	list, err := svc.List(ctx, "u1", ListInput{Status: StatusActive})
	require.NoError(t, err)
	assert.Empty(t, list)

	restored, err := svc.Restore(ctx, rem.ID, "u1")
	require.NoError(t, err)
	assert.False(t, restored.Archived)
	assert.Nil(t, restored.ArchivedAt)

	_, err = svc.Archive(ctx, rem.ID, "u2")
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = svc.Archive(ctx, rem.ID, "u1")
	require.NoError(t, err)
	require.NoError(t, svc.Delete(ctx, rem.ID, "u1"))
	assert.Empty(t, repo.byID)
}

func TestService_List_CategoryFilterAndOrder(t *testing.T) {
	svc, _ := newSvc()
	ctx := context.Background()

	mk := func(title string, d time.Time, clock string) {
		_, err := svc.Create(ctx, "u1", CreateInput{Title: title, Date: d, CustomTime: clock})
		require.NoError(t, err)
	}
	mk("tarde", day(2025, 6, 15), "18:00")
	mk("mañana", day(2025, 6, 15), "07:00")
	mk("ayer", day(2025, 6, 14), "")
	mk("luego", day(2025, 7, 1), "")

	today, err := svc.List(ctx, "u1", ListInput{Status: StatusActive, Category: CategoryToday})
	require.NoError(t, err)
	require.Len(t, today, 2)
	assert.Equal(t, "mañana", today[0].Title)
	assert.Equal(t, "tarde", today[1].Title)

	all, err := svc.List(ctx, "u1", ListInput{Status: StatusActive})
	require.NoError(t, err)
	require.Len(t, all, 4)
	assert.Equal(t, "ayer", all[0].Title)
	assert.Equal(t, "luego", all[3].Title)

	sum, err := svc.Summary(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, Summary{Overdue: 1, Today: 2, Upcoming: 1}, sum)
}

func TestService_Update_ReschedulingResetsNotification(t *testing.T) {
	svc, _ := newSvc()
	ctx := context.Background()

	rem, err := svc.Create(ctx, "u1", CreateInput{Title: "Pipeta", Date: fixedNow, PetIDs: []string{"p1"}})
	require.NoError(t, err)
	require.NoError(t, svc.MarkNotified(ctx, rem.ID, fixedNow))

	notes := "con comida"
	upd, err := svc.Update(ctx, rem.ID, "u1", UpdateInput{Notes: &notes})
	require.NoError(t, err)
	assert.True(t, upd.NotificationSent, "notes change keeps notification state")

	clock := "20:00"
	none := []string{}
	upd, err = svc.Update(ctx, rem.ID, "u1", UpdateInput{CustomTime: &clock, PetIDs: &none})
	require.NoError(t, err)
	assert.False(t, upd.NotificationSent)
	assert.Nil(t, upd.NotificationSentAt)
	assert.Empty(t, upd.PetIDs)
}

func TestService_DueForNotification(t *testing.T) {
	svc, _ := newSvc()
	ctx := context.Background()

	mk := func(title string, d time.Time, clock string) Reminder {
		rem, err := svc.Create(ctx, "u1", CreateInput{Title: title, Date: d, CustomTime: clock})
		require.NoError(t, err)
		return rem
	}
	mk("vencido", day(2025, 6, 14), "")
	mk("en 20 min", day(2025, 6, 15), "14:50")
	mk("en 3 horas", day(2025, 6, 15), "17:30")
	mk("mañana 09:00", day(2025, 6, 16), "")
	sent := mk("ya avisado", day(2025, 6, 15), "10:00")
	require.NoError(t, svc.MarkNotified(ctx, sent.ID, fixedNow))
	skipped := mk("descartado", day(2025, 6, 15), "11:00")
	require.NoError(t, svc.MarkSkipped(ctx, skipped.ID, fixedNow))

	due, err := svc.DueForNotification(ctx, fixedNow, time.Hour, 100, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"vencido", "en 20 min"}, titlesOf(due))
}

func TestService_DueForNotification_OwnerZone(t *testing.T) {
	svc, _ := newSvc()
	ctx := context.Background()

	tokyo, err := time.LoadLocation("Asia/Tokyo")
	require.NoError(t, err)
	newYork, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)
	zones := map[string]*time.Location{"tokyo": tokyo, "ny": newYork}
	zoneOf := func(_ context.Context, owner string) *time.Location { return zones[owner] }

	mk := func(owner, title string, d time.Time, clock string) {
		_, err := svc.Create(ctx, owner, CreateInput{Title: title, Date: d, CustomTime: clock})
		require.NoError(t, err)
	}
	// horizonte 15:30 UTC; Tokio vence 09:00Z y 15:10Z, Nueva York 19:00Z
	mk("tokyo", "tokyo 18:00", day(2025, 6, 15), "18:00")
	mk("tokyo", "tokyo mañana", day(2025, 6, 16), "00:10")
	mk("ny", "ny 15:00", day(2025, 6, 15), "15:00")
	mk("utc", "utc 15:00", day(2025, 6, 15), "15:00")

	due, err := svc.DueForNotification(ctx, fixedNow, time.Hour, 100, zoneOf)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"tokyo 18:00", "tokyo mañana", "utc 15:00"}, titlesOf(due))
}

func TestService_Update_RescheduleClearsSkip(t *testing.T) {
	svc, repo := newSvc()
	ctx := context.Background()

	rem, err := svc.Create(ctx, "u1", CreateInput{Title: "Vacuna", Date: day(2025, 6, 15)})
	require.NoError(t, err)
	require.NoError(t, svc.MarkSkipped(ctx, rem.ID, fixedNow))
	require.NotNil(t, repo.byID[rem.ID].NotificationSkippedAt)

	next := day(2025, 6, 20)
	upd, err := svc.Update(ctx, rem.ID, "u1", UpdateInput{Date: &next})
	require.NoError(t, err)
	assert.Nil(t, upd.NotificationSkippedAt)
}

func titlesOf(items []Reminder) []string {
	out := make([]string, 0, len(items))
	for _, r := range items {
		out = append(out, r.Title)
	}
	return out
}

func TestService_DetachPet(t *testing.T) {
	svc, repo := newSvc()
	ctx := context.Background()

	rem, err := svc.Create(ctx, "u1", CreateInput{Title: "Control", Date: fixedNow, PetIDs: []string{"p1", "p2"}})
	require.NoError(t, err)

	require.NoError(t, svc.DetachPet(ctx, "p1"))
	assert.Equal(t, []string{"p2"}, repo.byID[rem.ID].PetIDs)

	_, err = svc.GetOwned(ctx, "missing", "u1")
	assert.True(t, errors.Is(err, ErrNotFound))
}
