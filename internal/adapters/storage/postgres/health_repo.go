package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"pet-records/internal/domain/health"
)

// HealthRepo cubre health_records, medications y vaccinations.
type HealthRepo struct {
	db *sql.DB
}

func NewHealthRepo(db *sql.DB) *HealthRepo {
	return &HealthRepo{db: db}
}

const recordColumns = `id, pet_id, type, occurred_on, title, description, vet_name, recorded_by, created_at`

func (r *HealthRepo) CreateRecord(ctx context.Context, rec health.HealthRecord) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO health_records (`+recordColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
	`,
		rec.ID,
		rec.PetID,
		string(rec.Type),
		rec.OccurredOn,
		rec.Title,
		rec.Description,
		rec.VetName,
		rec.RecordedBy,
		rec.CreatedAt,
	)
	return uniqueViolation(err)
}

func (r *HealthRepo) GetRecord(ctx context.Context, id string) (health.HealthRecord, error) {
	rec, err := scanRecord(r.db.QueryRowContext(ctx, `SELECT `+recordColumns+` FROM health_records WHERE id = $1`, id))
	if err != nil {
		return health.HealthRecord{}, noRows(err)
	}
	return rec, nil
}

func (r *HealthRepo) ListRecords(ctx context.Context, petID string, f health.RecordFilter) ([]health.HealthRecord, error) {
	args := []any{petID}
	where := []string{"pet_id = $1"}

	if len(f.Types) > 0 {
		types := make([]string, 0, len(f.Types))
		for _, t := range f.Types {
			types = append(types, string(t))
		}
		args = append(args, types)
		where = append(where, fmt.Sprintf("type = ANY($%d)", len(args)))
	}
	if f.From != nil {
		args = append(args, utcDay(*f.From))
		where = append(where, fmt.Sprintf("occurred_on >= $%d", len(args)))
	}
	if f.To != nil {
		args = append(args, utcDay(*f.To))
		where = append(where, fmt.Sprintf("occurred_on <= $%d", len(args)))
	}
	if q := strings.TrimSpace(f.Query); q != "" {
		args = append(args, strings.ToLower(q))
		n := len(args)
		where = append(where, fmt.Sprintf("(strpos(lower(title), $%d) > 0 OR strpos(lower(description), $%d) > 0)", n, n))
	}

	q := `SELECT ` + recordColumns + ` FROM health_records WHERE ` + strings.Join(where, " AND ") +
		` ORDER BY occurred_on DESC, created_at DESC`
	if f.Limit > 0 {
		args = append(args, f.Limit)
		q += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]health.HealthRecord, 0)
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (r *HealthRepo) DeleteRecord(ctx context.Context, id string) error {
	return r.deleteByID(ctx, "health_records", id)
}

const medicationColumns = `id, pet_id, name, dosage, dose_unit, frequency, start_date, end_date, notes, created_at, updated_at`

func (r *HealthRepo) CreateMedication(ctx context.Context, m health.Medication) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO medications (`+medicationColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
	`,
		m.ID,
		m.PetID,
		m.Name,
		m.Dosage,
		m.DoseUnit,
		m.Frequency,
		m.StartDate,
		toNullTime(m.EndDate),
		m.Notes,
		m.CreatedAt,
		m.UpdatedAt,
	)
	return uniqueViolation(err)
}

func (r *HealthRepo) UpdateMedication(ctx context.Context, m health.Medication) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE medications
		SET
			name = $2,
			dosage = $3,
			dose_unit = $4,
			frequency = $5,
			start_date = $6,
			end_date = $7,
			notes = $8,
			updated_at = $9
		WHERE id = $1
	`,
		m.ID,
		m.Name,
		m.Dosage,
		m.DoseUnit,
		m.Frequency,
		m.StartDate,
		toNullTime(m.EndDate),
		m.Notes,
		m.UpdatedAt,
	)
	if err != nil {
		return err
	}
	return affected(res)
}

func (r *HealthRepo) GetMedication(ctx context.Context, id string) (health.Medication, error) {
	m, err := scanMedication(r.db.QueryRowContext(ctx, `SELECT `+medicationColumns+` FROM medications WHERE id = $1`, id))
	if err != nil {
		return health.Medication{}, noRows(err)
	}
	return m, nil
}

func (r *HealthRepo) ListMedications(ctx context.Context, petID string) ([]health.Medication, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+medicationColumns+`
		FROM medications
		WHERE pet_id = $1
		ORDER BY start_date DESC, created_at DESC
	`, petID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]health.Medication, 0)
	for rows.Next() {
		m, err := scanMedication(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (r *HealthRepo) DeleteMedication(ctx context.Context, id string) error {
	return r.deleteByID(ctx, "medications", id)
}

const vaccinationColumns = `id, pet_id, name, administered_on, next_due_on, vet_name, notes, created_at`

func (r *HealthRepo) CreateVaccination(ctx context.Context, v health.Vaccination) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO vaccinations (`+vaccinationColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
	`,
		v.ID,
		v.PetID,
		v.Name,
		v.AdministeredOn,
		toNullTime(v.NextDueOn),
		v.VetName,
		v.Notes,
		v.CreatedAt,
	)
	return uniqueViolation(err)
}

func (r *HealthRepo) GetVaccination(ctx context.Context, id string) (health.Vaccination, error) {
	v, err := scanVaccination(r.db.QueryRowContext(ctx, `SELECT `+vaccinationColumns+` FROM vaccinations WHERE id = $1`, id))
	if err != nil {
		return health.Vaccination{}, noRows(err)
	}
	return v, nil
}

func (r *HealthRepo) ListVaccinations(ctx context.Context, petID string) ([]health.Vaccination, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+vaccinationColumns+`
		FROM vaccinations
		WHERE pet_id = $1
		ORDER BY administered_on DESC, created_at DESC
	`, petID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]health.Vaccination, 0)
	for rows.Next() {
		v, err := scanVaccination(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func (r *HealthRepo) DeleteVaccination(ctx context.Context, id string) error {
	return r.deleteByID(ctx, "vaccinations", id)
}

// DeleteByPet borra las tres tablas en una transacción.
func (r *HealthRepo) DeleteByPet(ctx context.Context, petID string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	for _, table := range []string{"health_records", "medications", "vaccinations"} {
		if _, err := tx.ExecContext(ctx, `DELETE FROM `+table+` WHERE pet_id = $1`, petID); err != nil {
			_ = tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

func (r *HealthRepo) deleteByID(ctx context.Context, table, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM `+table+` WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return affected(res)
}

func scanRecord(s scanner) (health.HealthRecord, error) {
	var rec health.HealthRecord
	var typ string
	if err := s.Scan(
		&rec.ID,
		&rec.PetID,
		&typ,
		&rec.OccurredOn,
		&rec.Title,
		&rec.Description,
		&rec.VetName,
		&rec.RecordedBy,
		&rec.CreatedAt,
	); err != nil {
		return health.HealthRecord{}, err
	}
	rec.Type = health.RecordType(typ)
	rec.OccurredOn = utcDay(rec.OccurredOn)
	return rec, nil
}

func scanMedication(s scanner) (health.Medication, error) {
	var m health.Medication
	var end sql.NullTime
	if err := s.Scan(
		&m.ID,
		&m.PetID,
		&m.Name,
		&m.Dosage,
		&m.DoseUnit,
		&m.Frequency,
		&m.StartDate,
		&end,
		&m.Notes,
		&m.CreatedAt,
		&m.UpdatedAt,
	); err != nil {
		return health.Medication{}, err
	}
	m.StartDate = utcDay(m.StartDate)
	m.EndDate = fromNullDate(end)
	return m, nil
}

func scanVaccination(s scanner) (health.Vaccination, error) {
	var v health.Vaccination
	var next sql.NullTime
	if err := s.Scan(
		&v.ID,
		&v.PetID,
		&v.Name,
		&v.AdministeredOn,
		&next,
		&v.VetName,
		&v.Notes,
		&v.CreatedAt,
	); err != nil {
		return health.Vaccination{}, err
	}
	v.AdministeredOn = utcDay(v.AdministeredOn)
	v.NextDueOn = fromNullDate(next)
	return v, nil
}
