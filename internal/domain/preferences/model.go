package preferences

import (
	"time"
	// zonas IANA embebidas, sin depender del zoneinfo del sistema
	_ "time/tzdata"
)

// UserPreferences guarda los ajustes de notificación de un usuario.
type UserPreferences struct {
	UserID             string
	Email              string
	EmailNotifications bool
	Timezone           string // IANA, p.ej. "America/Argentina/Buenos_Aires"

	WelcomeEmailSentAt *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Location devuelve la zona del usuario; UTC si es inválida.
func (p UserPreferences) Location() *time.Location {
	if p.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(p.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// CanReceiveEmail: tiene email y no desactivó las notificaciones.
func (p UserPreferences) CanReceiveEmail() bool {
	return p.Email != "" && p.EmailNotifications
}
