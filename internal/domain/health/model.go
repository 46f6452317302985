package health

import "time"

// RecordType clasifica un registro de salud.
// @Enum checkup, vaccination, surgery, illness, injury, lab_result, other
type RecordType string

const (
	RecordTypeCheckup     RecordType = "checkup"
	RecordTypeVaccination RecordType = "vaccination"
	RecordTypeSurgery     RecordType = "surgery"
	RecordTypeIllness     RecordType = "illness"
	RecordTypeInjury      RecordType = "injury"
	RecordTypeLabResult   RecordType = "lab_result"
	RecordTypeOther       RecordType = "other"
)

func (t RecordType) Valid() bool {
	switch t {
	case RecordTypeCheckup, RecordTypeVaccination, RecordTypeSurgery, RecordTypeIllness,
		RecordTypeInjury, RecordTypeLabResult, RecordTypeOther:
		return true
	}
	return false
}

// HealthRecord es una entrada del historial (consulta, cirugía, análisis...).
type HealthRecord struct {
	ID    string
	PetID string

	Type       RecordType
	OccurredOn time.Time // día calendario

	Title       string
	Description string
	VetName     string

	RecordedBy string // user id
	CreatedAt  time.Time
}

type Medication struct {
	ID    string
	PetID string

	Name string

	Dosage    string // "2"
	DoseUnit  string // "ml", "mg", etc.
	Frequency string // texto libre: "cada 12h"

	StartDate time.Time
	EndDate   *time.Time

	Notes string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Active: sin fecha de fin o que termina hoy o después.
func (m Medication) Active(now time.Time) bool {
	if m.EndDate == nil {
		return true
	}
	return !day(*m.EndDate).Before(day(now))
}

type Vaccination struct {
	ID    string
	PetID string

	Name           string
	AdministeredOn time.Time
	NextDueOn      *time.Time

	VetName string
	Notes   string

	CreatedAt time.Time
}

// DueWithin: tiene próxima dosis y cae dentro de los próximos days días
// (incluye vencidas).
func (v Vaccination) DueWithin(now time.Time, days int) bool {
	if v.NextDueOn == nil {
		return false
	}
	limit := day(now).AddDate(0, 0, days)
	return !day(*v.NextDueOn).After(limit)
}

func day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
