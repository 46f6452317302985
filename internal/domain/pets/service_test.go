package pets

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"
)

// -------------------------
// Test repo (in-memory)
// -------------------------

type testRepo struct {
	byID      map[string]Pet
	deleteErr error
}

func newTestRepo() *testRepo {
	return &testRepo{byID: map[string]Pet{}}
}

func (r *testRepo) Create(ctx context.Context, p Pet) error {
	if _, ok := r.byID[p.ID]; ok {
		return errors.New("repo: already exists")
	}
	r.byID[p.ID] = p
	return nil
}

func (r *testRepo) Update(ctx context.Context, p Pet) error {
	if _, ok := r.byID[p.ID]; !ok {
		return ErrNotFound
	}
	r.byID[p.ID] = p
	return nil
}

func (r *testRepo) GetByID(ctx context.Context, id string) (Pet, error) {
	p, ok := r.byID[id]
	if !ok {
		return Pet{}, ErrNotFound
	}
	return p, nil
}

func (r *testRepo) ListByOwner(ctx context.Context, owner string, st Status) ([]Pet, error) {
	out := make([]Pet, 0)
	for _, p := range r.byID {
		if p.OwnerUserID == owner && p.Matches(st) {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *testRepo) Delete(ctx context.Context, id string) error {
	if r.deleteErr != nil {
		return r.deleteErr
	}
	if _, ok := r.byID[id]; !ok {
		return ErrNotFound
	}
	delete(r.byID, id)
	return nil
}

func newTestService(t *testing.T) (*Service, *testRepo) {
	t.Helper()
	repo := newTestRepo()
	svc := NewService(repo)
	now := time.Date(2025, 12, 22, 10, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }
	return svc, repo
}

func mustCreate(t *testing.T, svc *Service, owner, name string) Pet {
	t.Helper()
	p, err := svc.Create(context.Background(), owner, CreateInput{Name: name, Species: SpeciesDog})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	return p
}

// -------------------------
// Tests
// -------------------------

func TestService_Create_RetrievableWithMatchingFields(t *testing.T) {
	svc, _ := newTestService(t)

	birth := time.Date(2020, 3, 1, 0, 0, 0, 0, time.UTC)
	p, err := svc.Create(context.Background(), "u1", CreateInput{
		Name:      "  Firulais ",
		Species:   SpeciesDog,
		Breed:     "Mestizo",
		BirthDate: &birth,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if p.Sex != SexUnknown {
		t.Fatalf("expected default sex unknown, got %q", p.Sex)
	}

	got, err := svc.GetOwned(context.Background(), p.ID, "u1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Name != "Firulais" || got.Breed != "Mestizo" || got.Species != SpeciesDog {
		t.Fatalf("unexpected pet: %+v", got)
	}
	if got.BirthDate == nil || !got.BirthDate.Equal(birth) {
		t.Fatalf("birth date mismatch: %v", got.BirthDate)
	}
	if got.Archived {
		t.Fatalf("new pet should be active")
	}
}

func TestService_Create_Validation(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	if _, err := svc.Create(ctx, "u1", CreateInput{Species: SpeciesCat}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for empty name, got %v", err)
	}
	if _, err := svc.Create(ctx, "u1", CreateInput{Name: "X", Species: "dragon"}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for species, got %v", err)
	}

	birth := time.Date(2022, 1, 10, 0, 0, 0, 0, time.UTC)
	adoption := time.Date(2021, 1, 10, 0, 0, 0, 0, time.UTC)
	_, err := svc.Create(ctx, "u1", CreateInput{Name: "X", Species: SpeciesCat, BirthDate: &birth, AdoptionDate: &adoption})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for adoption before birth, got %v", err)
	}
}

func TestService_ArchiveRestore_MovesBetweenLists(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	p := mustCreate(t, svc, "u1", "Michi")

	archived, err := svc.Archive(ctx, p.ID, "u1")
	if err != nil {
		t.Fatalf("archive: %v", err)
	}
	if !archived.Archived || archived.ArchivedAt == nil {
		t.Fatalf("expected archived with timestamp")
	}

	active, _ := svc.ListByOwner(ctx, "u1", StatusActive)
	arch, _ := svc.ListByOwner(ctx, "u1", StatusArchived)
	if len(active) != 0 || len(arch) != 1 {
		t.Fatalf("after archive: active=%d archived=%d", len(active), len(arch))
	}

	// archivar de nuevo no cambia nada
	again, err := svc.Archive(ctx, p.ID, "u1")
	if err != nil || !again.ArchivedAt.Equal(*archived.ArchivedAt) {
		t.Fatalf("archive should be idempotent: %v", err)
	}

	restored, err := svc.Restore(ctx, p.ID, "u1")
	if err != nil {
		t.Fatalf("restore: %v", err)
	}
	if restored.Archived || restored.ArchivedAt != nil {
		t.Fatalf("expected active after restore")
	}

	active, _ = svc.ListByOwner(ctx, "u1", StatusActive)
	arch, _ = svc.ListByOwner(ctx, "u1", StatusArchived)
	if len(active) != 1 || len(arch) != 0 {
		t.Fatalf("after restore: active=%d archived=%d", len(active), len(arch))
	}
}

func TestService_Delete_RequiresArchived_AndRunsHooks(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	p := mustCreate(t, svc, "u1", "Rocky")

	var hooked []string
	svc.OnDelete(func(ctx context.Context, petID string) error {
		hooked = append(hooked, petID)
		return nil
	})

	if err := svc.Delete(ctx, p.ID, "u1"); !errors.Is(err, ErrNotArchived) {
		t.Fatalf("expected ErrNotArchived, got %v", err)
	}
	if len(hooked) != 0 {
		t.Fatalf("hooks must not run for active pet")
	}

	if _, err := svc.Archive(ctx, p.ID, "u1"); err != nil {
		t.Fatalf("archive: %v", err)
	}
	if err := svc.Delete(ctx, p.ID, "u1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if len(hooked) != 1 || hooked[0] != p.ID {
		t.Fatalf("expected hook for %s, got %v", p.ID, hooked)
	}

	if _, err := svc.GetByID(ctx, p.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
	all, _ := svc.ListByOwner(ctx, "u1", StatusAll)
	if len(all) != 0 {
		t.Fatalf("expected no pets left, got %d", len(all))
	}
}

func TestService_Delete_RepoErrorSkipsHooks(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()
	p := mustCreate(t, svc, "u1", "Luna")
	_, _ = svc.Archive(ctx, p.ID, "u1")

	// simula los registros de salud asociados
	records := map[string]int{p.ID: 3}
	svc.OnDelete(func(ctx context.Context, petID string) error {
		delete(records, petID)
		return nil
	})
	repo.deleteErr = errors.New("db down")

	if err := svc.Delete(ctx, p.ID, "u1"); err == nil {
		t.Fatalf("expected error from repo")
	}
	if records[p.ID] != 3 {
		t.Fatalf("health rows must be untouched, got %v", records)
	}
	if _, err := svc.GetByID(ctx, p.ID); err != nil {
		t.Fatalf("pet should still exist: %v", err)
	}
}

func TestService_Delete_HookErrorRunsRemainingHooks(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	p := mustCreate(t, svc, "u1", "Luna")
	_, _ = svc.Archive(ctx, p.ID, "u1")

	boom := errors.New("boom")
	ran := 0
	svc.OnDelete(func(ctx context.Context, petID string) error { return boom })
	svc.OnDelete(func(ctx context.Context, petID string) error { ran++; return nil })

	if err := svc.Delete(ctx, p.ID, "u1"); !errors.Is(err, boom) {
		t.Fatalf("expected hook error, got %v", err)
	}
	if ran != 1 {
		t.Fatalf("second hook must run, ran=%d", ran)
	}
	if _, err := svc.GetByID(ctx, p.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("pet should be gone, got %v", err)
	}
}

func TestService_NonOwner_Forbidden(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	p := mustCreate(t, svc, "u1", "Toby")

	if _, err := svc.GetOwned(ctx, p.ID, "u2"); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if _, err := svc.Archive(ctx, p.ID, "u2"); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden on archive, got %v", err)
	}
	if _, err := svc.GetOwned(ctx, "nope", "u1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestService_UpdateProfile_PatchSemantics(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	birth := time.Date(2019, 5, 5, 0, 0, 0, 0, time.UTC)
	p, err := svc.Create(ctx, "u1", CreateInput{Name: "Kira", Species: SpeciesCat, Breed: "Siames", BirthDate: &birth})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	newName := "Kira II"
	updated, err := svc.UpdateProfile(ctx, p.ID, "u1", UpdateProfileInput{
		Name:      &newName,
		BirthDate: OptionalDate{Present: true}, // null => limpiar
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Name != "Kira II" || updated.Breed != "Siames" {
		t.Fatalf("unexpected fields: %+v", updated)
	}
	if updated.BirthDate != nil {
		t.Fatalf("birth date should be cleared")
	}

	empty := "  "
	if _, err := svc.UpdateProfile(ctx, p.ID, "u1", UpdateProfileInput{Name: &empty}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for empty name, got %v", err)
	}
}

func TestParseStatus(t *testing.T) {
	cases := map[string]Status{"": StatusActive, "active": StatusActive, "archived": StatusArchived, "all": StatusAll}
	for in, want := range cases {
		got, ok := ParseStatus(in)
		if !ok || got != want {
			t.Fatalf("ParseStatus(%q) = %q,%v", in, got, ok)
		}
	}
	if _, ok := ParseStatus("deleted"); ok {
		t.Fatalf("expected invalid status")
	}
}
