package notify

import (
	"context"
	"time"

	"pet-records/internal/platform/logger"
	"pet-records/internal/platform/metrics"
)

// Job corre un lote cada interval. Implementa suture.Service.
type Job struct {
	name     string
	interval time.Duration
	timeout  time.Duration
	run      func(ctx context.Context) (BatchResult, error)
	log      logger.Logger
}

func newJob(name string, interval, timeout time.Duration, run func(ctx context.Context) (BatchResult, error), log logger.Logger) *Job {
	if interval <= 0 {
		interval = 15 * time.Minute
	}
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Job{name: name, interval: interval, timeout: timeout, run: run, log: log.With(map[string]any{"job": name})}
}

// NewReminderJob avisa recordatorios que vencen dentro de window.
func NewReminderJob(svc *Service, interval, window, timeout time.Duration, log logger.Logger) *Job {
	if window <= 0 {
		window = time.Hour
	}
	return newJob("reminder-emails", interval, timeout, func(ctx context.Context) (BatchResult, error) {
		return svc.SendReminderEmails(ctx, window)
	}, log)
}

func NewWelcomeJob(svc *Service, interval, timeout time.Duration, log logger.Logger) *Job {
	return newJob("welcome-emails", interval, timeout, svc.SendWelcomeEmails, log)
}

func (j *Job) String() string { return j.name }

func (j *Job) Serve(ctx context.Context) error {
	t := time.NewTicker(j.interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
			_, _ = j.RunOnce(ctx)
		}
	}
}

// RunOnce corre el lote con timeout propio; lo usa también el comando `jobs`.
func (j *Job) RunOnce(ctx context.Context) (BatchResult, error) {
	runCtx, cancel := context.WithTimeout(ctx, j.timeout)
	defer cancel()

	start := time.Now()
	res, err := j.run(runCtx)
	fields := map[string]any{
		"processed":   res.Processed,
		"sent":        res.Sent,
		"queued":      res.Queued,
		"skipped":     res.Skipped,
		"failed":      res.Failed,
		"duration_ms": time.Since(start).Milliseconds(),
	}
	if err != nil {
		metrics.JobRuns.WithLabelValues(j.name, "error").Inc()
		fields["error"] = err.Error()
		j.log.Error("job run failed", fields)
		return res, err
	}
	metrics.JobRuns.WithLabelValues(j.name, "ok").Inc()
	if res.Processed > 0 {
		j.log.Info("job run", fields)
	} else {
		j.log.Debug("job run", fields)
	}
	return res, nil
}
