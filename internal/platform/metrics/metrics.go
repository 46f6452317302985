// Package metrics define los collectors de Prometheus del servicio.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "petrec_http_requests_total",
			Help: "HTTP requests by route pattern, method and status",
		},
		[]string{"route", "method", "status"},
	)

	HTTPDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "petrec_http_request_duration_seconds",
			Help:    "HTTP request latency by route pattern",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route", "method"},
	)

	EmailsSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "petrec_emails_sent_total",
			Help: "Email send attempts by kind and outcome (sent, queued, failed)",
		},
		[]string{"kind", "status"},
	)

	OutboxPending = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "petrec_outbox_pending",
			Help: "Emails waiting in the outbox",
		},
	)

	OutboxDelivered = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "petrec_outbox_deliveries_total",
			Help: "Outbox delivery attempts by result (sent, retry, dead)",
		},
		[]string{"result"},
	)

	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "petrec_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	JobRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "petrec_jobs_runs_total",
			Help: "Batch job runs by job and result",
		},
		[]string{"job", "result"},
	)

	DedupRejected = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "petrec_dedup_rejected_total",
			Help: "Mutations rejected as duplicates",
		},
	)
)

// Handler expone /metrics.
func Handler() http.Handler { return promhttp.Handler() }

// Middleware registra latencia y status por patrón de ruta de chi (no por path
// crudo, para no explotar la cardinalidad con ids).
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				route = p
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		HTTPRequests.WithLabelValues(route, r.Method, strconv.Itoa(status)).Inc()
		HTTPDuration.WithLabelValues(route, r.Method).Observe(time.Since(start).Seconds())
	})
}
