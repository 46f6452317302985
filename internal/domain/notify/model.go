package notify

import "time"

// Kind identifica el tipo de email transaccional.
type Kind string

const (
	KindContact       Kind = "contact"
	KindDocumentShare Kind = "document_share"
	KindReminder      Kind = "reminder"
	KindWelcome       Kind = "welcome"
)

type LogStatus string

const (
	LogSent   LogStatus = "sent"
	LogQueued LogStatus = "queued"
	LogFailed LogStatus = "failed"
)

// EmailLog registra cada intento de envío. Una fila queued se actualiza
// cuando la outbox la entrega o la descarta.
type EmailLog struct {
	ID         string
	Kind       Kind
	UserID     string // vacío para contacto anónimo
	Recipient  string
	Subject    string
	Status     LogStatus
	ProviderID string
	Error      string
	RelatedID  string // documento, recordatorio...
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
