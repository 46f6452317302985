package email

import (
	"context"
	"errors"
)

// Message es un email transaccional ya renderizado.
type Message struct {
	To      []string          `json:"to"`
	From    string            `json:"from"`
	ReplyTo string            `json:"reply_to,omitempty"`
	Subject string            `json:"subject"`
	HTML    string            `json:"html"`
	Text    string            `json:"text,omitempty"`
	Tags    map[string]string `json:"tags,omitempty"`
}

// Sender entrega un mensaje al proveedor. Devuelve el id asignado por el proveedor.
type Sender interface {
	Send(ctx context.Context, msg Message) (string, error)
}

// Transient indica si un error de Send vale la pena reintentar.
// Los adapters devuelven errores que implementan esta interfaz cuando aplica.
type Transient interface {
	Transient() bool
}

// IsTransient busca en la cadena un error que implemente Transient.
func IsTransient(err error) bool {
	var t Transient
	return errors.As(err, &t) && t.Transient()
}
