package reminders

import (
	"fmt"
	"strings"
	"time"
)

// Category agrupa recordatorios según su fecha respecto de hoy.
// @Enum overdue, today, upcoming
type Category string

const (
	CategoryOverdue  Category = "overdue"
	CategoryToday    Category = "today"
	CategoryUpcoming Category = "upcoming"
)

func ParseCategory(s string) (Category, bool) {
	switch Category(s) {
	case CategoryOverdue, CategoryToday, CategoryUpcoming:
		return Category(s), true
	}
	return "", false
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

// DefaultNotifyTime se usa cuando el recordatorio no tiene hora propia.
const DefaultNotifyTime = "09:00"

type Reminder struct {
	ID          string
	OwnerUserID string

	Title string
	// Date es un día calendario (00:00 UTC); la zona no importa, solo Y/M/D.
	Date       time.Time
	CustomTime string // HH:MM, vacío = sin hora
	Notes      string

	PetIDs []string

	Archived   bool
	ArchivedAt *time.Time

	NotificationSent   bool
	NotificationSentAt *time.Time
	// NotificationSkippedAt: el aviso se descartó (dueño sin email o con
	// notificaciones apagadas, o rechazo permanente del proveedor).
	NotificationSkippedAt *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (r Reminder) Matches(st Status) bool {
	switch st {
	case StatusArchived:
		return r.Archived
	case StatusAll:
		return true
	default:
		return !r.Archived
	}
}

func (r Reminder) HasPet(petID string) bool {
	for _, id := range r.PetIDs {
		if id == petID {
			return true
		}
	}
	return false
}

// Categorize es una función pura: compara el día del recordatorio con el día
// calendario de now en la zona de now.
func Categorize(now time.Time, r Reminder) Category {
	ny, nm, nd := now.Date()
	today := time.Date(ny, nm, nd, 0, 0, 0, 0, time.UTC)

	ry, rm, rd := r.Date.Date()
	day := time.Date(ry, rm, rd, 0, 0, 0, 0, time.UTC)

	switch {
	case day.Before(today):
		return CategoryOverdue
	case day.Equal(today):
		return CategoryToday
	default:
		return CategoryUpcoming
	}
}

// DueAt devuelve el instante en que el recordatorio vence en loc.
func (r Reminder) DueAt(loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	hh, mm := 9, 0
	if t := strings.TrimSpace(r.CustomTime); t != "" {
		if parsed, err := ParseClock(t); err == nil {
			hh, mm = parsed.Hour(), parsed.Minute()
		}
	}
	y, m, d := r.Date.Date()
	return time.Date(y, m, d, hh, mm, 0, 0, loc)
}

// ParseClock valida HH:MM (24h).
func ParseClock(s string) (time.Time, error) {
	t, err := time.Parse("15:04", strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("custom_time must be HH:MM: %w", err)
	}
	return t, nil
}

// Day normaliza un instante a su día calendario en UTC.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Summary cuenta recordatorios activos por categoría.
type Summary struct {
	Overdue  int
	Today    int
	Upcoming int
	Archived int
}
