package documents

import "time"

// Category clasifica un documento.
// @Enum medical, vaccination, insurance, registration, receipt, other
type Category string

const (
	CategoryMedical      Category = "medical"
	CategoryVaccination  Category = "vaccination"
	CategoryInsurance    Category = "insurance"
	CategoryRegistration Category = "registration"
	CategoryReceipt      Category = "receipt"
	CategoryOther        Category = "other"
)

func (c Category) Valid() bool {
	switch c {
	case CategoryMedical, CategoryVaccination, CategoryInsurance, CategoryRegistration, CategoryReceipt, CategoryOther:
		return true
	}
	return false
}

type Status string

const (
	StatusActive   Status = "active"
	StatusArchived Status = "archived"
	StatusAll      Status = "all"
)

func ParseStatus(s string) (Status, bool) {
	switch Status(s) {
	case "", StatusActive:
		return StatusActive, true
	case StatusArchived, StatusAll:
		return Status(s), true
	}
	return "", false
}

type Document struct {
	ID          string
	OwnerUserID string
	PetID       string // vacío = sin mascota

	Name     string
	Category Category

	// FileURL es un link externo; StorageKey apunta al blob store. Uno de los dos.
	FileURL     string
	StorageKey  string
	ContentType string
	SizeBytes   int64

	Favorite bool

	Archived   bool
	ArchivedAt *time.Time

	ShareToken     string
	ShareExpiresAt *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (d Document) Matches(st Status) bool {
	switch st {
	case StatusArchived:
		return d.Archived
	case StatusAll:
		return true
	default:
		return !d.Archived
	}
}

// ShareActive: hay token y no venció.
func (d Document) ShareActive(now time.Time) bool {
	return d.ShareToken != "" && d.ShareExpiresAt != nil && now.Before(*d.ShareExpiresAt)
}
