package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"pet-records/internal/domain/documents"
)

type DocumentsRepo struct {
	db *sql.DB
}

func NewDocumentsRepo(db *sql.DB) *DocumentsRepo {
	return &DocumentsRepo{db: db}
}

const documentColumns = `
	id, owner_user_id, pet_id,
	name, category,
	file_url, storage_key, content_type, size_bytes,
	favorite, archived, archived_at,
	share_token, share_expires_at,
	created_at, updated_at`

func (r *DocumentsRepo) Create(ctx context.Context, d documents.Document) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO documents (`+documentColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16)
	`,
		d.ID,
		d.OwnerUserID,
		nullString(d.PetID),
		d.Name,
		string(d.Category),
		d.FileURL,
		d.StorageKey,
		d.ContentType,
		d.SizeBytes,
		d.Favorite,
		d.Archived,
		toNullTime(d.ArchivedAt),
		nullString(d.ShareToken),
		toNullTime(d.ShareExpiresAt),
		d.CreatedAt,
		d.UpdatedAt,
	)
	return uniqueViolation(err)
}

func (r *DocumentsRepo) Update(ctx context.Context, d documents.Document) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE documents
		SET
			pet_id = $2,
			name = $3,
			category = $4,
			file_url = $5,
			storage_key = $6,
			content_type = $7,
			size_bytes = $8,
			favorite = $9,
			archived = $10,
			archived_at = $11,
			share_token = $12,
			share_expires_at = $13,
			updated_at = $14
		WHERE id = $1
	`,
		d.ID,
		nullString(d.PetID),
		d.Name,
		string(d.Category),
		d.FileURL,
		d.StorageKey,
		d.ContentType,
		d.SizeBytes,
		d.Favorite,
		d.Archived,
		toNullTime(d.ArchivedAt),
		nullString(d.ShareToken),
		toNullTime(d.ShareExpiresAt),
		d.UpdatedAt,
	)
	if err != nil {
		return uniqueViolation(err)
	}
	return affected(res)
}

func (r *DocumentsRepo) GetByID(ctx context.Context, id string) (documents.Document, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return documents.Document{}, ErrNotFound
	}
	d, err := scanDocument(r.db.QueryRowContext(ctx, `SELECT `+documentColumns+` FROM documents WHERE id = $1`, id))
	if err != nil {
		return documents.Document{}, noRows(err)
	}
	return d, nil
}

func (r *DocumentsRepo) GetByShareToken(ctx context.Context, token string) (documents.Document, error) {
	if token == "" {
		return documents.Document{}, ErrNotFound
	}
	d, err := scanDocument(r.db.QueryRowContext(ctx, `SELECT `+documentColumns+` FROM documents WHERE share_token = $1`, token))
	if err != nil {
		return documents.Document{}, noRows(err)
	}
	return d, nil
}

func (r *DocumentsRepo) ListByOwner(ctx context.Context, ownerUserID string, f documents.ListFilter) ([]documents.Document, error) {
	var where []string
	args := []any{ownerUserID}
	where = append(where, "owner_user_id = $1")

	switch f.Status {
	case documents.StatusArchived:
		where = append(where, "archived")
	case documents.StatusAll:
	default:
		where = append(where, "NOT archived")
	}
	if f.Category != "" {
		args = append(args, string(f.Category))
		where = append(where, fmt.Sprintf("category = $%d", len(args)))
	}
	if f.PetID != "" {
		args = append(args, f.PetID)
		where = append(where, fmt.Sprintf("pet_id = $%d", len(args)))
	}
	if f.Favorite != nil {
		args = append(args, *f.Favorite)
		where = append(where, fmt.Sprintf("favorite = $%d", len(args)))
	}

	q := `SELECT ` + documentColumns + ` FROM documents WHERE ` + strings.Join(where, " AND ") + ` ORDER BY created_at DESC`
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]documents.Document, 0)
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (r *DocumentsRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM documents WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return affected(res)
}

func (r *DocumentsRepo) DetachPet(ctx context.Context, petID string) error {
	_, err := r.db.ExecContext(ctx, `UPDATE documents SET pet_id = NULL WHERE pet_id = $1`, petID)
	return err
}

func scanDocument(s scanner) (documents.Document, error) {
	var d documents.Document
	var petID, token sql.NullString
	var category string
	var archivedAt, shareExp sql.NullTime
	if err := s.Scan(
		&d.ID,
		&d.OwnerUserID,
		&petID,
		&d.Name,
		&category,
		&d.FileURL,
		&d.StorageKey,
		&d.ContentType,
		&d.SizeBytes,
		&d.Favorite,
		&d.Archived,
		&archivedAt,
		&token,
		&shareExp,
		&d.CreatedAt,
		&d.UpdatedAt,
	); err != nil {
		return documents.Document{}, err
	}
	d.PetID = petID.String
	d.Category = documents.Category(category)
	d.ArchivedAt = fromNullTime(archivedAt)
	d.ShareToken = token.String
	d.ShareExpiresAt = fromNullTime(shareExp)
	return d, nil
}
