package outbox

import (
	"context"
	"time"

	"pet-records/internal/platform/logger"
	"pet-records/internal/platform/metrics"
	"pet-records/internal/ports/email"
)

type WorkerConfig struct {
	PollInterval time.Duration
	MaxAttempts  int
	BaseBackoff  time.Duration
	MaxBackoff   time.Duration
	BatchSize    int
}

func (c WorkerConfig) withDefaults() WorkerConfig {
	if c.PollInterval <= 0 {
		c.PollInterval = 15 * time.Second
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 6
	}
	if c.BaseBackoff <= 0 {
		c.BaseBackoff = 30 * time.Second
	}
	if c.MaxBackoff < c.BaseBackoff {
		c.MaxBackoff = 30 * time.Minute
	}
	if c.BatchSize <= 0 {
		c.BatchSize = 20
	}
	return c
}

// Worker drena la outbox. Implementa suture.Service.
type Worker struct {
	store    Store
	sender   email.Sender
	recorder DeliveryRecorder
	cfg      WorkerConfig
	log      logger.Logger
	now      func() time.Time
}

func NewWorker(store Store, sender email.Sender, recorder DeliveryRecorder, cfg WorkerConfig, log logger.Logger) *Worker {
	if log == nil {
		log = logger.Nop()
	}
	return &Worker{
		store:    store,
		sender:   sender,
		recorder: recorder,
		cfg:      cfg.withDefaults(),
		log:      log.With(map[string]any{"component": "outbox"}),
		now:      time.Now,
	}
}

func (w *Worker) String() string { return "outbox-worker" }

func (w *Worker) Serve(ctx context.Context) error {
	t := time.NewTicker(w.cfg.PollInterval)
	defer t.Stop()

	for {
		if _, err := w.RunOnce(ctx); err != nil && ctx.Err() == nil {
			w.log.Error("outbox run failed", map[string]any{"error": err.Error()})
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
		}
	}
}

// RunOnce procesa un lote. Devuelve cuántas entradas intentó.
func (w *Worker) RunOnce(ctx context.Context) (int, error) {
	entries, err := w.store.Due(ctx, w.now(), w.cfg.BatchSize)
	if err != nil {
		return 0, err
	}
	for _, e := range entries {
		if ctx.Err() != nil {
			break
		}
		w.deliver(ctx, e)
	}

	if n, err := w.store.CountPending(ctx); err == nil {
		metrics.OutboxPending.Set(float64(n))
	}
	return len(entries), nil
}

func (w *Worker) deliver(ctx context.Context, e Entry) {
	attempts := e.Attempts + 1
	fields := map[string]any{"entry_id": e.ID, "kind": e.Kind, "attempts": attempts}

	providerID, err := w.sender.Send(ctx, e.Message)
	now := w.now()

	switch {
	case err == nil:
		if merr := w.store.MarkSent(ctx, e.ID, attempts, now); merr != nil {
			fields["error"] = merr.Error()
			w.log.Error("outbox mark sent failed", fields)
			return
		}
		metrics.OutboxDelivered.WithLabelValues("sent").Inc()
		metrics.EmailsSent.WithLabelValues(e.Kind, "sent").Inc()
		w.record(ctx, e, "sent", providerID, "")
		w.log.Info("outbox delivered", fields)

	case email.IsTransient(err) && attempts < w.cfg.MaxAttempts:
		next := now.Add(Backoff(attempts, w.cfg.BaseBackoff, w.cfg.MaxBackoff))
		if merr := w.store.MarkRetry(ctx, e.ID, attempts, next, err.Error()); merr != nil {
			fields["error"] = merr.Error()
			w.log.Error("outbox mark retry failed", fields)
			return
		}
		metrics.OutboxDelivered.WithLabelValues("retry").Inc()
		fields["error"] = err.Error()
		fields["next_attempt_at"] = next
		w.log.Warn("outbox retry scheduled", fields)

	default:
		if merr := w.store.MarkDead(ctx, e.ID, attempts, err.Error(), now); merr != nil {
			fields["error"] = merr.Error()
			w.log.Error("outbox mark dead failed", fields)
			return
		}
		metrics.OutboxDelivered.WithLabelValues("dead").Inc()
		metrics.EmailsSent.WithLabelValues(e.Kind, "failed").Inc()
		w.record(ctx, e, "failed", "", err.Error())
		fields["error"] = err.Error()
		w.log.Error("outbox entry dead", fields)
	}
}

func (w *Worker) record(ctx context.Context, e Entry, status, providerID, errMsg string) {
	if w.recorder == nil || e.LogID == "" {
		return
	}
	if err := w.recorder.RecordDelivery(ctx, e.LogID, status, providerID, errMsg); err != nil {
		w.log.Warn("email log update failed", map[string]any{"log_id": e.LogID, "error": err.Error()})
	}
}
