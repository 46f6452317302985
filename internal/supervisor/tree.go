// Package supervisor arma el árbol de suture que corre el servidor HTTP y los
// workers de fondo (outbox y jobs de email).
package supervisor

import (
	"context"
	"time"

	"pet-records/internal/platform/logger"

	"github.com/thejerf/suture/v4"
	"github.com/thejerf/sutureslog"
)

type TreeConfig struct {
	// FailureThreshold: fallas toleradas antes de entrar en backoff.
	FailureThreshold float64
	// FailureDecay en segundos.
	FailureDecay    float64
	FailureBackoff  time.Duration
	ShutdownTimeout time.Duration
}

func (c TreeConfig) withDefaults() TreeConfig {
	if c.FailureThreshold <= 0 {
		c.FailureThreshold = 5
	}
	if c.FailureDecay <= 0 {
		c.FailureDecay = 30
	}
	if c.FailureBackoff <= 0 {
		c.FailureBackoff = 15 * time.Second
	}
	if c.ShutdownTimeout <= 0 {
		c.ShutdownTimeout = 10 * time.Second
	}
	return c
}

// Tree: root -> api (http) y workers (outbox, jobs). Un worker que entra en
// loop de fallas no tumba la API.
type Tree struct {
	root    *suture.Supervisor
	api     *suture.Supervisor
	workers *suture.Supervisor
}

func NewTree(log logger.Logger, cfg TreeConfig) *Tree {
	if log == nil {
		log = logger.Nop()
	}
	cfg = cfg.withDefaults()

	hook := (&sutureslog.Handler{Logger: logger.Slog(log.With(map[string]any{"component": "supervisor"}))}).MustHook()

	spec := suture.Spec{
		FailureThreshold: cfg.FailureThreshold,
		FailureDecay:     cfg.FailureDecay,
		FailureBackoff:   cfg.FailureBackoff,
		Timeout:          cfg.ShutdownTimeout,
	}
	rootSpec := spec
	rootSpec.EventHook = hook

	root := suture.New("pet-records", rootSpec)
	api := suture.New("api", spec)
	workers := suture.New("workers", spec)
	root.Add(api)
	root.Add(workers)

	return &Tree{root: root, api: api, workers: workers}
}

func (t *Tree) AddAPI(svc suture.Service) suture.ServiceToken {
	return t.api.Add(svc)
}

func (t *Tree) AddWorker(svc suture.Service) suture.ServiceToken {
	return t.workers.Add(svc)
}

// Serve bloquea hasta que ctx se cancela.
func (t *Tree) Serve(ctx context.Context) error {
	return t.root.Serve(ctx)
}

func (t *Tree) UnstoppedServiceReport() ([]suture.UnstoppedService, error) {
	return t.root.UnstoppedServiceReport()
}
