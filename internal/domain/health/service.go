package health

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"pet-records/internal/ports/storage"

	"github.com/google/uuid"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrForbidden    = errors.New("forbidden")
	ErrNotFound     = storage.ErrNotFound
)

type PetOwnerLookup interface {
	OwnerOf(ctx context.Context, petID string) (string, error)
}

type Service struct {
	repo Repository
	pets PetOwnerLookup
	now  func() time.Time
}

func NewService(repo Repository, pets PetOwnerLookup) *Service {
	return &Service{
		repo: repo,
		pets: pets,
		now:  time.Now,
	}
}

// authorize: solo el dueño de la mascota accede a su historial.
func (s *Service) authorize(ctx context.Context, petID, userID string) error {
	owner, err := s.pets.OwnerOf(ctx, strings.TrimSpace(petID))
	if err != nil {
		return err
	}
	if owner != userID {
		return ErrForbidden
	}
	return nil
}

// -------------------------
// Health records
// -------------------------

type CreateRecordInput struct {
	Type        RecordType
	OccurredOn  time.Time
	Title       string
	Description string
	VetName     string
}

func (s *Service) CreateRecord(ctx context.Context, petID, userID string, in CreateRecordInput) (HealthRecord, error) {
	if err := s.authorize(ctx, petID, userID); err != nil {
		return HealthRecord{}, err
	}
	if !in.Type.Valid() {
		return HealthRecord{}, fmt.Errorf("%w: unsupported record type", ErrInvalidInput)
	}
	if in.OccurredOn.IsZero() {
		return HealthRecord{}, fmt.Errorf("%w: occurred_on is required", ErrInvalidInput)
	}
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return HealthRecord{}, fmt.Errorf("%w: title is required", ErrInvalidInput)
	}

	rec := HealthRecord{
		ID:          uuid.NewString(),
		PetID:       petID,
		Type:        in.Type,
		OccurredOn:  day(in.OccurredOn),
		Title:       title,
		Description: strings.TrimSpace(in.Description),
		VetName:     strings.TrimSpace(in.VetName),
		RecordedBy:  userID,
		CreatedAt:   s.now(),
	}
	if err := s.repo.CreateRecord(ctx, rec); err != nil {
		return HealthRecord{}, err
	}
	return rec, nil
}

func (s *Service) ListRecords(ctx context.Context, petID, userID string, f RecordFilter) ([]HealthRecord, error) {
	if err := s.authorize(ctx, petID, userID); err != nil {
		return nil, err
	}
	for _, t := range f.Types {
		if !t.Valid() {
			return nil, fmt.Errorf("%w: unsupported record type %q", ErrInvalidInput, t)
		}
	}
	if f.Limit <= 0 {
		f.Limit = 50
	}
	if f.Limit > 200 {
		f.Limit = 200
	}
	f.Query = strings.TrimSpace(f.Query)
	return s.repo.ListRecords(ctx, petID, f)
}

func (s *Service) DeleteRecord(ctx context.Context, petID, userID, recordID string) error {
	if err := s.authorize(ctx, petID, userID); err != nil {
		return err
	}
	rec, err := s.repo.GetRecord(ctx, recordID)
	if err != nil {
		return err
	}
	// un id de otra mascota se trata como inexistente
	if rec.PetID != petID {
		return ErrNotFound
	}
	return s.repo.DeleteRecord(ctx, rec.ID)
}

// -------------------------
// Medications
// -------------------------

type CreateMedicationInput struct {
	Name      string
	Dosage    string
	DoseUnit  string
	Frequency string
	StartDate time.Time
	EndDate   *time.Time
	Notes     string
}

func (s *Service) CreateMedication(ctx context.Context, petID, userID string, in CreateMedicationInput) (Medication, error) {
	if err := s.authorize(ctx, petID, userID); err != nil {
		return Medication{}, err
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return Medication{}, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	if in.StartDate.IsZero() {
		return Medication{}, fmt.Errorf("%w: start_date is required", ErrInvalidInput)
	}
	start := day(in.StartDate)
	end, err := checkEnd(start, in.EndDate)
	if err != nil {
		return Medication{}, err
	}

	now := s.now()
	m := Medication{
		ID:        uuid.NewString(),
		PetID:     petID,
		Name:      name,
		Dosage:    strings.TrimSpace(in.Dosage),
		DoseUnit:  strings.TrimSpace(in.DoseUnit),
		Frequency: strings.TrimSpace(in.Frequency),
		StartDate: start,
		EndDate:   end,
		Notes:     strings.TrimSpace(in.Notes),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.CreateMedication(ctx, m); err != nil {
		return Medication{}, err
	}
	return m, nil
}

// ListMedications: activeOnly filtra por Active(now). Orden: start_date desc.
func (s *Service) ListMedications(ctx context.Context, petID, userID string, activeOnly bool) ([]Medication, error) {
	if err := s.authorize(ctx, petID, userID); err != nil {
		return nil, err
	}
	items, err := s.repo.ListMedications(ctx, petID)
	if err != nil {
		return nil, err
	}
	now := s.now()
	out := make([]Medication, 0, len(items))
	for _, m := range items {
		if activeOnly && !m.Active(now) {
			continue
		}
		out = append(out, m)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].StartDate.After(out[j].StartDate) })
	return out, nil
}

type UpdateMedicationInput struct {
	Dosage    *string
	DoseUnit  *string
	Frequency *string
	Notes     *string

	EndDate  *time.Time
	ClearEnd bool
}

func (s *Service) UpdateMedication(ctx context.Context, petID, userID, medID string, in UpdateMedicationInput) (Medication, error) {
	if err := s.authorize(ctx, petID, userID); err != nil {
		return Medication{}, err
	}
	m, err := s.repo.GetMedication(ctx, medID)
	if err != nil {
		return Medication{}, err
	}
	if m.PetID != petID {
		return Medication{}, ErrNotFound
	}

	if in.Dosage != nil {
		m.Dosage = strings.TrimSpace(*in.Dosage)
	}
	if in.DoseUnit != nil {
		m.DoseUnit = strings.TrimSpace(*in.DoseUnit)
	}
	if in.Frequency != nil {
		m.Frequency = strings.TrimSpace(*in.Frequency)
	}
	if in.Notes != nil {
		m.Notes = strings.TrimSpace(*in.Notes)
	}
	switch {
	case in.ClearEnd:
		m.EndDate = nil
	case in.EndDate != nil:
		end, err := checkEnd(m.StartDate, in.EndDate)
		if err != nil {
			return Medication{}, err
		}
		m.EndDate = end
	}

	m.UpdatedAt = s.now()
	if err := s.repo.UpdateMedication(ctx, m); err != nil {
		return Medication{}, err
	}
	return m, nil
}

func (s *Service) DeleteMedication(ctx context.Context, petID, userID, medID string) error {
	if err := s.authorize(ctx, petID, userID); err != nil {
		return err
	}
	m, err := s.repo.GetMedication(ctx, medID)
	if err != nil {
		return err
	}
	if m.PetID != petID {
		return ErrNotFound
	}
	return s.repo.DeleteMedication(ctx, m.ID)
}

// -------------------------
// Vaccinations
// -------------------------

type CreateVaccinationInput struct {
	Name           string
	AdministeredOn time.Time
	NextDueOn      *time.Time
	VetName        string
	Notes          string
}

func (s *Service) CreateVaccination(ctx context.Context, petID, userID string, in CreateVaccinationInput) (Vaccination, error) {
	if err := s.authorize(ctx, petID, userID); err != nil {
		return Vaccination{}, err
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return Vaccination{}, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	if in.AdministeredOn.IsZero() {
		return Vaccination{}, fmt.Errorf("%w: administered_on is required", ErrInvalidInput)
	}
	given := day(in.AdministeredOn)

	var next *time.Time
	if in.NextDueOn != nil {
		n := day(*in.NextDueOn)
		if !n.After(given) {
			return Vaccination{}, fmt.Errorf("%w: next_due_on must be after administered_on", ErrInvalidInput)
		}
		next = &n
	}

	v := Vaccination{
		ID:             uuid.NewString(),
		PetID:          petID,
		Name:           name,
		AdministeredOn: given,
		NextDueOn:      next,
		VetName:        strings.TrimSpace(in.VetName),
		Notes:          strings.TrimSpace(in.Notes),
		CreatedAt:      s.now(),
	}
	if err := s.repo.CreateVaccination(ctx, v); err != nil {
		return Vaccination{}, err
	}
	return v, nil
}

// ListVaccinations: dueWithinDays < 0 = sin filtro. Orden: administered_on desc.
func (s *Service) ListVaccinations(ctx context.Context, petID, userID string, dueWithinDays int) ([]Vaccination, error) {
	if err := s.authorize(ctx, petID, userID); err != nil {
		return nil, err
	}
	items, err := s.repo.ListVaccinations(ctx, petID)
	if err != nil {
		return nil, err
	}
	now := s.now()
	out := make([]Vaccination, 0, len(items))
	for _, v := range items {
		if dueWithinDays >= 0 && !v.DueWithin(now, dueWithinDays) {
			continue
		}
		out = append(out, v)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].AdministeredOn.After(out[j].AdministeredOn) })
	return out, nil
}

func (s *Service) DeleteVaccination(ctx context.Context, petID, userID, vacID string) error {
	if err := s.authorize(ctx, petID, userID); err != nil {
		return err
	}
	v, err := s.repo.GetVaccination(ctx, vacID)
	if err != nil {
		return err
	}
	if v.PetID != petID {
		return ErrNotFound
	}
	return s.repo.DeleteVaccination(ctx, v.ID)
}

// DeleteByPet se registra como hook de borrado de mascotas.
func (s *Service) DeleteByPet(ctx context.Context, petID string) error {
	return s.repo.DeleteByPet(ctx, petID)
}

func checkEnd(start time.Time, end *time.Time) (*time.Time, error) {
	if end == nil {
		return nil, nil
	}
	e := day(*end)
	if e.Before(start) {
		return nil, fmt.Errorf("%w: end_date cannot precede start_date", ErrInvalidInput)
	}
	return &e, nil
}

func containsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}
