package postgres

import (
	"context"
	"database/sql"
	"strings"

	"pet-records/internal/domain/pets"
)

type PetsRepo struct {
	db *sql.DB
}

func NewPetsRepo(db *sql.DB) *PetsRepo {
	return &PetsRepo{db: db}
}

const petColumns = `
	id, owner_user_id,
	name, species, breed, sex,
	birth_date, adoption_date, microchip, photo_url, notes,
	archived, archived_at,
	created_at, updated_at`

func (r *PetsRepo) Create(ctx context.Context, p pets.Pet) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO pets (`+petColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)
	`,
		p.ID,
		p.OwnerUserID,
		p.Name,
		string(p.Species),
		p.Breed,
		string(p.Sex),
		toNullTime(p.BirthDate),
		toNullTime(p.AdoptionDate),
		p.Microchip,
		p.PhotoURL,
		p.Notes,
		p.Archived,
		toNullTime(p.ArchivedAt),
		p.CreatedAt,
		p.UpdatedAt,
	)
	return uniqueViolation(err)
}

func (r *PetsRepo) Update(ctx context.Context, p pets.Pet) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE pets
		SET
			name = $2,
			species = $3,
			breed = $4,
			sex = $5,
			birth_date = $6,
			adoption_date = $7,
			microchip = $8,
			photo_url = $9,
			notes = $10,
			archived = $11,
			archived_at = $12,
			updated_at = $13
		WHERE id = $1
	`,
		p.ID,
		p.Name,
		string(p.Species),
		p.Breed,
		string(p.Sex),
		toNullTime(p.BirthDate),
		toNullTime(p.AdoptionDate),
		p.Microchip,
		p.PhotoURL,
		p.Notes,
		p.Archived,
		toNullTime(p.ArchivedAt),
		p.UpdatedAt,
	)
	if err != nil {
		return err
	}
	return affected(res)
}

func (r *PetsRepo) GetByID(ctx context.Context, id string) (pets.Pet, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return pets.Pet{}, ErrNotFound
	}

	row := r.db.QueryRowContext(ctx, `SELECT `+petColumns+` FROM pets WHERE id = $1`, id)
	p, err := scanPet(row)
	if err != nil {
		return pets.Pet{}, noRows(err)
	}
	return p, nil
}

func (r *PetsRepo) ListByOwner(ctx context.Context, ownerUserID string, status pets.Status) ([]pets.Pet, error) {
	ownerUserID = strings.TrimSpace(ownerUserID)
	if ownerUserID == "" {
		return []pets.Pet{}, nil
	}

	q := `SELECT ` + petColumns + ` FROM pets WHERE owner_user_id = $1`
	switch status {
	case pets.StatusArchived:
		q += ` AND archived`
	case pets.StatusAll:
	default:
		q += ` AND NOT archived`
	}
	q += ` ORDER BY created_at ASC, id ASC`

	rows, err := r.db.QueryContext(ctx, q, ownerUserID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]pets.Pet, 0)
	for rows.Next() {
		p, err := scanPet(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *PetsRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM pets WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return affected(res)
}

func scanPet(s scanner) (pets.Pet, error) {
	var p pets.Pet
	var species, sex string
	var birth, adoption, archivedAt sql.NullTime
	if err := s.Scan(
		&p.ID,
		&p.OwnerUserID,
		&p.Name,
		&species,
		&p.Breed,
		&sex,
		&birth,
		&adoption,
		&p.Microchip,
		&p.PhotoURL,
		&p.Notes,
		&p.Archived,
		&archivedAt,
		&p.CreatedAt,
		&p.UpdatedAt,
	); err != nil {
		return pets.Pet{}, err
	}
	p.Species = pets.Species(species)
	p.Sex = pets.Sex(sex)
	p.BirthDate = fromNullDate(birth)
	p.AdoptionDate = fromNullDate(adoption)
	p.ArchivedAt = fromNullTime(archivedAt)
	return p, nil
}
