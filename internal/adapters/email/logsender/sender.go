// Package logsender implementa email.Sender escribiendo al log. Para dev.
package logsender

import (
	"context"
	"sync"

	"pet-records/internal/platform/logger"
	"pet-records/internal/ports/email"

	"github.com/google/uuid"
)

type Sender struct {
	log logger.Logger

	mu   sync.Mutex
	sent []email.Message
}

func New(log logger.Logger) *Sender {
	if log == nil {
		log = logger.Nop()
	}
	return &Sender{log: log.With(map[string]any{"component": "logsender"})}
}

func (s *Sender) Send(ctx context.Context, msg email.Message) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	id := "log_" + uuid.NewString()

	s.mu.Lock()
	s.sent = append(s.sent, msg)
	s.mu.Unlock()

	s.log.Info("email (not delivered)", map[string]any{
		"id":       id,
		"to":       msg.To,
		"subject":  msg.Subject,
		"reply_to": msg.ReplyTo,
		"tags":     msg.Tags,
	})
	return id, nil
}

// Sent devuelve una copia de lo enviado (tests y debug).
func (s *Sender) Sent() []email.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]email.Message, len(s.sent))
	copy(out, s.sent)
	return out
}
