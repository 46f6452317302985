package health

import (
	"context"
	"sort"
	"testing"
	"time"

	"pet-records/internal/ports/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRepo struct {
	records map[string]HealthRecord
	meds    map[string]Medication
	vacs    map[string]Vaccination
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		records: map[string]HealthRecord{},
		meds:    map[string]Medication{},
		vacs:    map[string]Vaccination{},
	}
}

func (r *fakeRepo) CreateRecord(ctx context.Context, rec HealthRecord) error {
	r.records[rec.ID] = rec
	return nil
}

func (r *fakeRepo) GetRecord(ctx context.Context, id string) (HealthRecord, error) {
	rec, ok := r.records[id]
	if !ok {
		return HealthRecord{}, storage.ErrNotFound
	}
	return rec, nil
}

func (r *fakeRepo) ListRecords(ctx context.Context, petID string, f RecordFilter) ([]HealthRecord, error) {
	out := []HealthRecord{}
	for _, rec := range r.records {
		if rec.PetID == petID && f.Matches(rec) {
			out = append(out, rec)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].OccurredOn.After(out[j].OccurredOn) })
	if len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (r *fakeRepo) DeleteRecord(ctx context.Context, id string) error {
	delete(r.records, id)
	return nil
}

func (r *fakeRepo) CreateMedication(ctx context.Context, m Medication) error {
	r.meds[m.ID] = m
	return nil
}

func (r *fakeRepo) UpdateMedication(ctx context.Context, m Medication) error {
	r.meds[m.ID] = m
	return nil
}

func (r *fakeRepo) GetMedication(ctx context.Context, id string) (Medication, error) {
	m, ok := r.meds[id]
	if !ok {
		return Medication{}, storage.ErrNotFound
	}
	return m, nil
}

func (r *fakeRepo) ListMedications(ctx context.Context, petID string) ([]Medication, error) {
	out := []Medication{}
	for _, m := range r.meds {
		if m.PetID == petID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r *fakeRepo) DeleteMedication(ctx context.Context, id string) error {
	delete(r.meds, id)
	return nil
}

func (r *fakeRepo) CreateVaccination(ctx context.Context, v Vaccination) error {
	r.vacs[v.ID] = v
	return nil
}

func (r *fakeRepo) GetVaccination(ctx context.Context, id string) (Vaccination, error) {
	v, ok := r.vacs[id]
	if !ok {
		return Vaccination{}, storage.ErrNotFound
	}
	return v, nil
}

func (r *fakeRepo) ListVaccinations(ctx context.Context, petID string) ([]Vaccination, error) {
	out := []Vaccination{}
	for _, v := range r.vacs {
		if v.PetID == petID {
			out = append(out, v)
		}
	}
	return out, nil
}

func (r *fakeRepo) DeleteVaccination(ctx context.Context, id string) error {
	delete(r.vacs, id)
	return nil
}

func (r *fakeRepo) DeleteByPet(ctx context.Context, petID string) error {
	for id, rec := range r.records {
		if rec.PetID == petID {
			delete(r.records, id)
		}
	}
	for id, m := range r.meds {
		if m.PetID == petID {
			delete(r.meds, id)
		}
	}
	for id, v := range r.vacs {
		if v.PetID == petID {
			delete(r.vacs, id)
		}
	}
	return nil
}

type fakePets map[string]string

func (f fakePets) OwnerOf(ctx context.Context, petID string) (string, error) {
	o, ok := f[petID]
	if !ok {
		return "", storage.ErrNotFound
	}
	return o, nil
}

var now = time.Date(2025, 9, 10, 8, 0, 0, 0, time.UTC)

func newSvc() (*Service, *fakeRepo) {
	repo := newFakeRepo()
	svc := NewService(repo, fakePets{"p1": "u1", "p2": "u1", "px": "u2"})
	svc.now = func() time.Time { return now }
	return svc, repo
}

func d(y int, m time.Month, dd int) time.Time { return time.Date(y, m, dd, 0, 0, 0, 0, time.UTC) }

func TestRecords_CreateListFilterAndOwnership(t *testing.T) {
	svc, _ := newSvc()
	ctx := context.Background()

	mk := func(tp RecordType, on time.Time, title string) HealthRecord {
		rec, err := svc.CreateRecord(ctx, "p1", "u1", CreateRecordInput{Type: tp, OccurredOn: on, Title: title})
		require.NoError(t, err)
		return rec
	}
	mk(RecordTypeCheckup, d(2025, 1, 10), "Control anual")
	mk(RecordTypeSurgery, d(2025, 3, 2), "Castración")
	mk(RecordTypeLabResult, d(2025, 5, 20), "Análisis de sangre")

	all, err := svc.ListRecords(ctx, "p1", "u1", RecordFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "Análisis de sangre", all[0].Title, "newest first")

	from := d(2025, 2, 1)
	filtered, err := svc.ListRecords(ctx, "p1", "u1", RecordFilter{Types: []RecordType{RecordTypeCheckup, RecordTypeSurgery}, From: &from})
	require.NoError(t, err)
	require.Len(t, filtered, 1)
	assert.Equal(t, "Castración", filtered[0].Title)

	byText, err := svc.ListRecords(ctx, "p1", "u1", RecordFilter{Query: "SANGRE"})
	require.NoError(t, err)
	assert.Len(t, byText, 1)

	_, err = svc.ListRecords(ctx, "p1", "u1", RecordFilter{Types: []RecordType{"grooming"}})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.ListRecords(ctx, "p1", "u2", RecordFilter{})
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = svc.CreateRecord(ctx, "nope", "u1", CreateRecordInput{Type: RecordTypeOther, OccurredOn: now, Title: "x"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRecords_DeleteChecksPet(t *testing.T) {
	svc, repo := newSvc()
	ctx := context.Background()

	rec, err := svc.CreateRecord(ctx, "p1", "u1", CreateRecordInput{Type: RecordTypeIllness, OccurredOn: now, Title: "Otitis"})
	require.NoError(t, err)

	assert.ErrorIs(t, svc.DeleteRecord(ctx, "p2", "u1", rec.ID), ErrNotFound)
	require.NoError(t, svc.DeleteRecord(ctx, "p1", "u1", rec.ID))
	assert.Empty(t, repo.records)
}

func TestMedications_ActiveAndUpdate(t *testing.T) {
	svc, _ := newSvc()
	ctx := context.Background()

	end := d(2025, 9, 1)
	past, err := svc.CreateMedication(ctx, "p1", "u1", CreateMedicationInput{Name: "Antibiótico", StartDate: d(2025, 8, 20), EndDate: &end})
	require.NoError(t, err)
	ongoing, err := svc.CreateMedication(ctx, "p1", "u1", CreateMedicationInput{Name: "Condroprotector", StartDate: d(2025, 6, 1), Dosage: "1", DoseUnit: "comp"})
	require.NoError(t, err)

	assert.False(t, past.Active(now))
	assert.True(t, ongoing.Active(now))

	active, err := svc.ListMedications(ctx, "p1", "u1", true)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, ongoing.ID, active[0].ID)

	all, err := svc.ListMedications(ctx, "p1", "u1", false)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, past.ID, all[0].ID, "start_date desc")

	stop := d(2025, 9, 10)
	upd, err := svc.UpdateMedication(ctx, "p1", "u1", ongoing.ID, UpdateMedicationInput{EndDate: &stop})
	require.NoError(t, err)
	assert.True(t, upd.Active(now), "ends today still active")

	bad := d(2025, 1, 1)
	_, err = svc.UpdateMedication(ctx, "p1", "u1", ongoing.ID, UpdateMedicationInput{EndDate: &bad})
	assert.ErrorIs(t, err, ErrInvalidInput)

	upd, err = svc.UpdateMedication(ctx, "p1", "u1", ongoing.ID, UpdateMedicationInput{ClearEnd: true})
	require.NoError(t, err)
	assert.Nil(t, upd.EndDate)
}

func TestVaccinations_DueWithin(t *testing.T) {
	svc, _ := newSvc()
	ctx := context.Background()

	soon := d(2025, 9, 20)
	later := d(2026, 9, 1)
	_, err := svc.CreateVaccination(ctx, "p1", "u1", CreateVaccinationInput{Name: "Rabia", AdministeredOn: d(2024, 9, 20), NextDueOn: &soon})
	require.NoError(t, err)
	_, err = svc.CreateVaccination(ctx, "p1", "u1", CreateVaccinationInput{Name: "Séxtuple", AdministeredOn: d(2025, 9, 1), NextDueOn: &later})
	require.NoError(t, err)
	_, err = svc.CreateVaccination(ctx, "p1", "u1", CreateVaccinationInput{Name: "Única", AdministeredOn: d(2023, 1, 1)})
	require.NoError(t, err)

	due, err := svc.ListVaccinations(ctx, "p1", "u1", 30)
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, "Rabia", due[0].Name)

	all, err := svc.ListVaccinations(ctx, "p1", "u1", -1)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "Séxtuple", all[0].Name)

	before := d(2024, 1, 1)
	_, err = svc.CreateVaccination(ctx, "p1", "u1", CreateVaccinationInput{Name: "X", AdministeredOn: d(2025, 1, 1), NextDueOn: &before})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestDeleteByPet_RemovesEverything(t *testing.T) {
	svc, repo := newSvc()
	ctx := context.Background()

	_, err := svc.CreateRecord(ctx, "p1", "u1", CreateRecordInput{Type: RecordTypeOther, OccurredOn: now, Title: "a"})
	require.NoError(t, err)
	_, err = svc.CreateMedication(ctx, "p1", "u1", CreateMedicationInput{Name: "b", StartDate: now})
	require.NoError(t, err)
	_, err = svc.CreateVaccination(ctx, "p1", "u1", CreateVaccinationInput{Name: "c", AdministeredOn: now})
	require.NoError(t, err)
	_, err = svc.CreateRecord(ctx, "p2", "u1", CreateRecordInput{Type: RecordTypeOther, OccurredOn: now, Title: "keep"})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteByPet(ctx, "p1"))
	assert.Len(t, repo.records, 1)
	assert.Empty(t, repo.meds)
	assert.Empty(t, repo.vacs)
}
