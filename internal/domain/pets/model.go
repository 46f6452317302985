package pets

import "time"

// Species define las especies soportadas.
// @Enum dog, cat, bird, rabbit, reptile, fish, other
type Species string

const (
	SpeciesDog     Species = "dog"
	SpeciesCat     Species = "cat"
	SpeciesBird    Species = "bird"
	SpeciesRabbit  Species = "rabbit"
	SpeciesReptile Species = "reptile"
	SpeciesFish    Species = "fish"
	SpeciesOther   Species = "other"
)

func (s Species) Valid() bool {
	switch s {
	case SpeciesDog, SpeciesCat, SpeciesBird, SpeciesRabbit, SpeciesReptile, SpeciesFish, SpeciesOther:
		return true
	}
	return false
}

// Sex define el sexo de la mascota.
// @Enum male, female, unknown
type Sex string

const (
	SexMale    Sex = "male"
	SexFemale  Sex = "female"
	SexUnknown Sex = "unknown"
)

func (s Sex) Valid() bool {
	return s == SexMale || s == SexFemale || s == SexUnknown
}

// Status filtra listados por estado de archivo.
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

// Pet representa el perfil de una mascota registrada por un usuario.
type Pet struct {
	ID          string
	OwnerUserID string

	Name    string
	Species Species
	Breed   string
	Sex     Sex

	BirthDate    *time.Time
	AdoptionDate *time.Time
	Microchip    string
	PhotoURL     string

	Notes string

	// Archivado = soft delete. Solo una mascota archivada puede borrarse.
	Archived   bool
	ArchivedAt *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Matches indica si la mascota entra en el filtro de estado.
func (p Pet) Matches(st Status) bool {
	switch st {
	case StatusArchived:
		return p.Archived
	case StatusAll:
		return true
	default:
		return !p.Archived
	}
}
