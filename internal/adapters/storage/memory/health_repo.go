package memory

import (
	"context"
	"sort"
	"sync"

	"pet-records/internal/domain/health"
	"pet-records/internal/ports/storage"
)

type healthRepo struct {
	mu          sync.RWMutex
	records     map[string]health.HealthRecord
	medications map[string]health.Medication
	vaccines    map[string]health.Vaccination
}

func NewHealthRepo() health.Repository {
	return &healthRepo{
		records:     make(map[string]health.HealthRecord),
		medications: make(map[string]health.Medication),
		vaccines:    make(map[string]health.Vaccination),
	}
}

func (r *healthRepo) CreateRecord(ctx context.Context, rec health.HealthRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.records[rec.ID]; ok {
		return storage.ErrConflict
	}
	r.records[rec.ID] = rec
	return nil
}

func (r *healthRepo) GetRecord(ctx context.Context, id string) (health.HealthRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, ok := r.records[id]
	if !ok {
		return health.HealthRecord{}, ErrNotFound
	}
	return rec, nil
}

func (r *healthRepo) ListRecords(ctx context.Context, petID string, f health.RecordFilter) ([]health.HealthRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]health.HealthRecord, 0)
	for _, rec := range r.records {
		if rec.PetID == petID && f.Matches(rec) {
			out = append(out, rec)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].OccurredOn.Equal(out[j].OccurredOn) {
			return out[i].OccurredOn.After(out[j].OccurredOn)
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (r *healthRepo) DeleteRecord(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.records[id]; !ok {
		return ErrNotFound
	}
	delete(r.records, id)
	return nil
}

func (r *healthRepo) CreateMedication(ctx context.Context, m health.Medication) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.medications[m.ID]; ok {
		return storage.ErrConflict
	}
	r.medications[m.ID] = m
	return nil
}

func (r *healthRepo) UpdateMedication(ctx context.Context, m health.Medication) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.medications[m.ID]; !ok {
		return ErrNotFound
	}
	r.medications[m.ID] = m
	return nil
}

func (r *healthRepo) GetMedication(ctx context.Context, id string) (health.Medication, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	m, ok := r.medications[id]
	if !ok {
		return health.Medication{}, ErrNotFound
	}
	return m, nil
}

func (r *healthRepo) ListMedications(ctx context.Context, petID string) ([]health.Medication, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]health.Medication, 0)
	for _, m := range r.medications {
		if m.PetID == petID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r *healthRepo) DeleteMedication(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.medications[id]; !ok {
		return ErrNotFound
	}
	delete(r.medications, id)
	return nil
}

func (r *healthRepo) CreateVaccination(ctx context.Context, v health.Vaccination) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.vaccines[v.ID]; ok {
		return storage.ErrConflict
	}
	r.vaccines[v.ID] = v
	return nil
}

func (r *healthRepo) GetVaccination(ctx context.Context, id string) (health.Vaccination, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	v, ok := r.vaccines[id]
	if !ok {
		return health.Vaccination{}, ErrNotFound
	}
	return v, nil
}

func (r *healthRepo) ListVaccinations(ctx context.Context, petID string) ([]health.Vaccination, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]health.Vaccination, 0)
	for _, v := range r.vaccines {
		if v.PetID == petID {
			out = append(out, v)
		}
	}
	return out, nil
}

func (r *healthRepo) DeleteVaccination(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.vaccines[id]; !ok {
		return ErrNotFound
	}
	delete(r.vaccines, id)
	return nil
}

func (r *healthRepo) DeleteByPet(ctx context.Context, petID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, rec := range r.records {
		if rec.PetID == petID {
			delete(r.records, id)
		}
	}
	for id, m := range r.medications {
		if m.PetID == petID {
			delete(r.medications, id)
		}
	}
	for id, v := range r.vaccines {
		if v.PetID == petID {
			delete(r.vaccines, id)
		}
	}
	return nil
}
