package health

import (
	"context"
	"time"
)

type RecordFilter struct {
	Types []RecordType
	From  *time.Time
	To    *time.Time
	Query string
	Limit int
}

// Matches aplica los filtros de tipo, rango y texto (no el límite).
func (f RecordFilter) Matches(r HealthRecord) bool {
	if len(f.Types) > 0 {
		ok := false
		for _, t := range f.Types {
			if r.Type == t {
				ok = true
				break
			}
		}
		if !ok {
			return false
		}
	}
	if f.From != nil && r.OccurredOn.Before(*f.From) {
		return false
	}
	if f.To != nil && r.OccurredOn.After(*f.To) {
		return false
	}
	if q := f.Query; q != "" {
		if !containsFold(r.Title, q) && !containsFold(r.Description, q) {
			return false
		}
	}
	return true
}

type RecordRepository interface {
	CreateRecord(ctx context.Context, r HealthRecord) error
	GetRecord(ctx context.Context, id string) (HealthRecord, error)
	// ListRecords ordena por occurred_on desc.
	ListRecords(ctx context.Context, petID string, f RecordFilter) ([]HealthRecord, error)
	DeleteRecord(ctx context.Context, id string) error
}

type MedicationRepository interface {
	CreateMedication(ctx context.Context, m Medication) error
	UpdateMedication(ctx context.Context, m Medication) error
	GetMedication(ctx context.Context, id string) (Medication, error)
	ListMedications(ctx context.Context, petID string) ([]Medication, error)
	DeleteMedication(ctx context.Context, id string) error
}

type VaccinationRepository interface {
	CreateVaccination(ctx context.Context, v Vaccination) error
	GetVaccination(ctx context.Context, id string) (Vaccination, error)
	ListVaccinations(ctx context.Context, petID string) ([]Vaccination, error)
	DeleteVaccination(ctx context.Context, id string) error
}

// Repository agrupa las tres tablas; DeleteByPet borra todo lo de una mascota.
type Repository interface {
	RecordRepository
	MedicationRepository
	VaccinationRepository
	DeleteByPet(ctx context.Context, petID string) error
}
