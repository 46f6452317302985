package documents

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"pet-records/internal/ports/blob"
	"pet-records/internal/ports/storage"

	"github.com/google/uuid"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrForbidden    = errors.New("forbidden")
	ErrNotArchived  = errors.New("document must be archived before permanent deletion")
	ErrTooLarge     = errors.New("file too large")
	ErrShareExpired = errors.New("share link expired")
	ErrNotFound     = storage.ErrNotFound
)

type PetOwnerLookup interface {
	OwnerOf(ctx context.Context, petID string) (string, error)
}

type Options struct {
	PresignTTL      time.Duration
	DefaultShareTTL time.Duration
	MaxShareTTL     time.Duration
	MaxUploadBytes  int64
}

func (o Options) withDefaults() Options {
	if o.PresignTTL <= 0 {
		o.PresignTTL = 15 * time.Minute
	}
	if o.DefaultShareTTL <= 0 {
		o.DefaultShareTTL = 7 * 24 * time.Hour
	}
	if o.MaxShareTTL <= 0 {
		o.MaxShareTTL = 30 * 24 * time.Hour
	}
	if o.MaxUploadBytes <= 0 {
		o.MaxUploadBytes = 10 << 20
	}
	return o
}

type Service struct {
	repo  Repository
	pets  PetOwnerLookup
	blobs blob.Store
	opts  Options
	now   func() time.Time
}

func NewService(repo Repository, pets PetOwnerLookup, blobs blob.Store, opts Options) *Service {
	return &Service{
		repo:  repo,
		pets:  pets,
		blobs: blobs,
		opts:  opts.withDefaults(),
		now:   time.Now,
	}
}

// MaxUploadBytes lo usa el handler para limitar el body.
func (s *Service) MaxUploadBytes() int64 { return s.opts.MaxUploadBytes }

type CreateInput struct {
	Name     string
	Category Category
	PetID    string
	FileURL  string
}

func (s *Service) Create(ctx context.Context, userID string, in CreateInput) (Document, error) {
	if strings.TrimSpace(in.FileURL) == "" {
		return Document{}, fmt.Errorf("%w: file_url is required", ErrInvalidInput)
	}
	d, err := s.newDocument(ctx, userID, in.Name, in.Category, in.PetID)
	if err != nil {
		return Document{}, err
	}
	d.FileURL = strings.TrimSpace(in.FileURL)

	if err := s.repo.Create(ctx, d); err != nil {
		return Document{}, err
	}
	return d, nil
}

type UploadInput struct {
	Name        string // vacío = nombre del archivo
	Category    Category
	PetID       string
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// Upload guarda el archivo en el blob store y después crea la fila.
// Si la fila falla, el blob se borra.
func (s *Service) Upload(ctx context.Context, userID string, in UploadInput) (Document, error) {
	if in.Body == nil || in.Size <= 0 {
		return Document{}, fmt.Errorf("%w: file is required", ErrInvalidInput)
	}
	if in.Size > s.opts.MaxUploadBytes {
		return Document{}, ErrTooLarge
	}
	filename := cleanFilename(in.Filename)
	name := in.Name
	if strings.TrimSpace(name) == "" {
		name = filename
	}

	d, err := s.newDocument(ctx, userID, name, in.Category, in.PetID)
	if err != nil {
		return Document{}, err
	}

	ct := strings.TrimSpace(in.ContentType)
	if ct == "" {
		ct = "application/octet-stream"
	}
	key := path.Join("documents", userID, d.ID, filename)

	obj, err := s.blobs.Put(ctx, key, in.Body, in.Size, ct)
	if err != nil {
		return Document{}, fmt.Errorf("store blob: %w", err)
	}
	d.StorageKey = obj.Key
	d.ContentType = obj.ContentType
	d.SizeBytes = obj.Size

	if err := s.repo.Create(ctx, d); err != nil {
		_ = s.blobs.Delete(context.WithoutCancel(ctx), obj.Key)
		return Document{}, err
	}
	return d, nil
}

func (s *Service) newDocument(ctx context.Context, userID, name string, cat Category, petID string) (Document, error) {
	if strings.TrimSpace(userID) == "" {
		return Document{}, ErrInvalidInput
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return Document{}, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	if cat == "" {
		cat = CategoryOther
	}
	if !cat.Valid() {
		return Document{}, fmt.Errorf("%w: unsupported category", ErrInvalidInput)
	}
	petID = strings.TrimSpace(petID)
	if err := s.checkPet(ctx, userID, petID); err != nil {
		return Document{}, err
	}

	now := s.now()
	return Document{
		ID:          uuid.NewString(),
		OwnerUserID: userID,
		PetID:       petID,
		Name:        name,
		Category:    cat,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

func (s *Service) GetOwned(ctx context.Context, id, userID string) (Document, error) {
	d, err := s.repo.GetByID(ctx, strings.TrimSpace(id))
	if err != nil {
		return Document{}, err
	}
	if d.OwnerUserID != userID {
		return Document{}, ErrForbidden
	}
	return d, nil
}

func (s *Service) List(ctx context.Context, userID string, f ListFilter) ([]Document, error) {
	if f.Category != "" && !f.Category.Valid() {
		return nil, fmt.Errorf("%w: unsupported category", ErrInvalidInput)
	}
	if f.PetID != "" {
		if err := s.checkPet(ctx, userID, f.PetID); err != nil {
			return nil, err
		}
	}
	return s.repo.ListByOwner(ctx, userID, f)
}

type UpdateInput struct {
	Name     *string
	Category *Category
	PetID    *string // "" desvincula
}

func (s *Service) Update(ctx context.Context, id, userID string, in UpdateInput) (Document, error) {
	d, err := s.GetOwned(ctx, id, userID)
	if err != nil {
		return Document{}, err
	}
	if in.Name != nil {
		n := strings.TrimSpace(*in.Name)
		if n == "" {
			return Document{}, fmt.Errorf("%w: name cannot be empty", ErrInvalidInput)
		}
		d.Name = n
	}
	if in.Category != nil {
		if !in.Category.Valid() {
			return Document{}, fmt.Errorf("%w: unsupported category", ErrInvalidInput)
		}
		d.Category = *in.Category
	}
	if in.PetID != nil {
		pid := strings.TrimSpace(*in.PetID)
		if err := s.checkPet(ctx, userID, pid); err != nil {
			return Document{}, err
		}
		d.PetID = pid
	}
	return s.save(ctx, d)
}

func (s *Service) SetFavorite(ctx context.Context, id, userID string, favorite bool) (Document, error) {
	d, err := s.GetOwned(ctx, id, userID)
	if err != nil {
		return Document{}, err
	}
	if d.Favorite == favorite {
		return d, nil
	}
	d.Favorite = favorite
	return s.save(ctx, d)
}

func (s *Service) Archive(ctx context.Context, id, userID string) (Document, error) {
	d, err := s.GetOwned(ctx, id, userID)
	if err != nil {
		return Document{}, err
	}
	if d.Archived {
		return d, nil
	}
	now := s.now()
	d.Archived = true
	d.ArchivedAt = &now
	return s.save(ctx, d)
}

func (s *Service) Restore(ctx context.Context, id, userID string) (Document, error) {
	d, err := s.GetOwned(ctx, id, userID)
	if err != nil {
		return Document{}, err
	}
	if !d.Archived {
		return d, nil
	}
	d.Archived = false
	d.ArchivedAt = nil
	return s.save(ctx, d)
}

// Delete borra el blob (si lo hay) y después la fila: si el blob falla la
// fila queda y el borrado se puede reintentar. Borrar un blob ausente no falla.
func (s *Service) Delete(ctx context.Context, id, userID string) error {
	d, err := s.GetOwned(ctx, id, userID)
	if err != nil {
		return err
	}
	if !d.Archived {
		return ErrNotArchived
	}
	if d.StorageKey != "" {
		if err := s.blobs.Delete(ctx, d.StorageKey); err != nil {
			return fmt.Errorf("delete blob: %w", err)
		}
	}
	return s.repo.Delete(ctx, d.ID)
}

// DownloadURL devuelve una URL temporal del blob o el link externo.
func (s *Service) DownloadURL(ctx context.Context, id, userID string) (string, error) {
	d, err := s.GetOwned(ctx, id, userID)
	if err != nil {
		return "", err
	}
	return s.urlFor(ctx, d)
}

func (s *Service) urlFor(ctx context.Context, d Document) (string, error) {
	if d.StorageKey == "" {
		return d.FileURL, nil
	}
	return s.blobs.PresignGet(ctx, d.StorageKey, s.opts.PresignTTL)
}

// Share genera un token nuevo (rota el anterior). ttl <= 0 usa el default; se
// recorta a MaxShareTTL.
func (s *Service) Share(ctx context.Context, id, userID string, ttl time.Duration) (Document, error) {
	d, err := s.GetOwned(ctx, id, userID)
	if err != nil {
		return Document{}, err
	}
	if d.Archived {
		return Document{}, fmt.Errorf("%w: archived documents cannot be shared", ErrInvalidInput)
	}

	token, err := newShareToken()
	if err != nil {
		return Document{}, err
	}
	exp := s.now().Add(s.clampTTL(ttl))
	d.ShareToken = token
	d.ShareExpiresAt = &exp
	return s.save(ctx, d)
}

// EnsureShare reusa el token vigente; si no hay, crea uno.
func (s *Service) EnsureShare(ctx context.Context, id, userID string, ttl time.Duration) (Document, error) {
	d, err := s.GetOwned(ctx, id, userID)
	if err != nil {
		return Document{}, err
	}
	if d.ShareActive(s.now()) {
		return d, nil
	}
	return s.Share(ctx, id, userID, ttl)
}

func (s *Service) RevokeShare(ctx context.Context, id, userID string) (Document, error) {
	d, err := s.GetOwned(ctx, id, userID)
	if err != nil {
		return Document{}, err
	}
	if d.ShareToken == "" {
		return d, nil
	}
	d.ShareToken = ""
	d.ShareExpiresAt = nil
	return s.save(ctx, d)
}

// ResolveShared es público: solo el token da acceso.
func (s *Service) ResolveShared(ctx context.Context, token string) (Document, string, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return Document{}, "", ErrNotFound
	}
	d, err := s.repo.GetByShareToken(ctx, token)
	if err != nil {
		return Document{}, "", err
	}
	if d.Archived {
		return Document{}, "", ErrNotFound
	}
	if !d.ShareActive(s.now()) {
		return Document{}, "", ErrShareExpired
	}
	u, err := s.urlFor(ctx, d)
	if err != nil {
		return Document{}, "", err
	}
	return d, u, nil
}

// DetachPet se registra como hook de borrado de mascotas.
func (s *Service) DetachPet(ctx context.Context, petID string) error {
	return s.repo.DetachPet(ctx, petID)
}

func (s *Service) save(ctx context.Context, d Document) (Document, error) {
	d.UpdatedAt = s.now()
	if err := s.repo.Update(ctx, d); err != nil {
		return Document{}, err
	}
	return d, nil
}

func (s *Service) checkPet(ctx context.Context, userID, petID string) error {
	if petID == "" {
		return nil
	}
	owner, err := s.pets.OwnerOf(ctx, petID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("%w: pet not found", ErrInvalidInput)
		}
		return err
	}
	if owner != userID {
		return ErrForbidden
	}
	return nil
}

func (s *Service) clampTTL(ttl time.Duration) time.Duration {
	if ttl <= 0 {
		ttl = s.opts.DefaultShareTTL
	}
	if ttl > s.opts.MaxShareTTL {
		ttl = s.opts.MaxShareTTL
	}
	return ttl
}

func newShareToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("share token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

func cleanFilename(name string) string {
	name = path.Base(strings.ReplaceAll(strings.TrimSpace(name), "\\", "/"))
	if name == "." || name == "/" || name == "" {
		return "file"
	}
	return name
}
