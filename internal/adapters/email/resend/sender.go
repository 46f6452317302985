// Package resend implementa email.Sender contra la API HTTP de Resend.
package resend

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"pet-records/internal/platform/httpclient"
	"pet-records/internal/platform/logger"
	"pet-records/internal/platform/metrics"
	"pet-records/internal/ports/email"

	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"
)

const breakerName = "email-resend"

type Config struct {
	APIKey        string
	BaseURL       string        // default https://api.resend.com
	RatePerSecond float64       // default 2
	Timeout       time.Duration // por request
}

// Sender throttlea con un token bucket y corta con un circuit breaker cuando
// el proveedor falla seguido.
type Sender struct {
	http    *httpclient.Client
	apiKey  string
	limiter *rate.Limiter
	cb      *gobreaker.CircuitBreaker[string]
	log     logger.Logger
}

// Error envuelve la causa y dice si vale la pena reintentar.
type Error struct {
	Err   error
	Retry bool
}

func (e *Error) Error() string   { return "resend: " + e.Err.Error() }
func (e *Error) Unwrap() error   { return e.Err }
func (e *Error) Transient() bool { return e.Retry }

func New(cfg Config, log logger.Logger) (*Sender, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.New("resend: api key required")
	}
	base := cfg.BaseURL
	if strings.TrimSpace(base) == "" {
		base = "https://api.resend.com"
	}
	hc, err := httpclient.NewWithBaseURL(base, cfg.Timeout)
	if err != nil {
		return nil, err
	}
	rps := cfg.RatePerSecond
	if rps <= 0 {
		rps = 2
	}
	if log == nil {
		log = logger.Nop()
	}
	log = log.With(map[string]any{"component": "resend"})

	metrics.CircuitBreakerState.WithLabelValues(breakerName).Set(0)

	cb := gobreaker.NewCircuitBreaker[string](gobreaker.Settings{
		Name:        breakerName,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			return c.ConsecutiveFailures >= 5
		},
		// Un 4xx es culpa del mensaje, no del proveedor: no cuenta como falla.
		IsSuccessful: func(err error) bool {
			return err == nil || !httpclient.IsTransient(err)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("circuit breaker state change", map[string]any{"from": from.String(), "to": to.String()})
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateValue(to))
		},
	})

	return &Sender{
		http:    hc,
		apiKey:  cfg.APIKey,
		limiter: rate.NewLimiter(rate.Limit(rps), 1),
		cb:      cb,
		log:     log,
	}, nil
}

type tag struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type sendRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html,omitempty"`
	Text    string   `json:"text,omitempty"`
	ReplyTo string   `json:"reply_to,omitempty"`
	Tags    []tag    `json:"tags,omitempty"`
}

type sendResponse struct {
	ID string `json:"id"`
}

func (s *Sender) Send(ctx context.Context, msg email.Message) (string, error) {
	if len(msg.To) == 0 {
		return "", &Error{Err: errors.New("no recipients"), Retry: false}
	}
	if err := s.limiter.Wait(ctx); err != nil {
		return "", &Error{Err: fmt.Errorf("rate limit wait: %w", err), Retry: true}
	}

	id, err := s.cb.Execute(func() (string, error) {
		return s.post(ctx, msg)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return "", &Error{Err: err, Retry: true}
		}
		return "", &Error{Err: err, Retry: httpclient.IsTransient(err)}
	}
	return id, nil
}

func (s *Sender) post(ctx context.Context, msg email.Message) (string, error) {
	req := sendRequest{
		From:    msg.From,
		To:      msg.To,
		Subject: msg.Subject,
		HTML:    msg.HTML,
		Text:    msg.Text,
		ReplyTo: msg.ReplyTo,
	}
	for k, v := range msg.Tags {
		req.Tags = append(req.Tags, tag{Name: k, Value: v})
	}

	var out sendResponse
	err := s.http.DoJSON(ctx, http.MethodPost, "/emails", map[string]string{
		"Authorization": "Bearer " + s.apiKey,
	}, req, &out)
	if err != nil {
		return "", err
	}
	return out.ID, nil
}

func stateValue(st gobreaker.State) float64 {
	switch st {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}
