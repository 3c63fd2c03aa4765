package metrics

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/fieldops/tenancy/pkg/audit"
	"github.com/fieldops/tenancy/pkg/tenant"
)

const namespace = "tenancy"

// Metrics holds the service collectors. Create one per registry.
type Metrics struct {
	gatherer prometheus.Gatherer

	requests    *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	auditEvents *prometheus.CounterVec
	poolConns   *prometheus.GaugeVec
}

// New registers the collectors with reg. A nil reg uses a fresh private registry.
func New(reg *prometheus.Registry) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	f := promauto.With(reg)
	return &Metrics{
		gatherer: reg,
		// route is the chi pattern, never the raw path, to bound cardinality.
		requests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route pattern, status and how the tenant was resolved.",
		}, []string{"method", "route", "status", "tenant_source"}),
		duration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by method and route pattern.",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}, []string{"method", "route"}),
		auditEvents: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "audit_events_total",
			Help:      "Audit events written, by action and result.",
		}, []string{"action", "result"}),
		poolConns: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pg_pool_connections",
			Help:      "Postgres pool connections by state.",
		}, []string{"state"}),
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

// Middleware records every request. Mount it ahead of authentication and tenant
// resolution so their rejections are counted; tenant_source is read from the scope
// the inner tenant middleware records, and is "none" when it never ran.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ctx, scope := tenant.WithScopeRecorder(r.Context())
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r.WithContext(ctx))

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
		source := scope().Source().String()

		m.requests.WithLabelValues(r.Method, route, strconv.Itoa(status), source).Inc()
		m.duration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

// AuditLogger counts events passing through next. Failed writes are not counted.
func (m *Metrics) AuditLogger(next audit.Logger) audit.Logger {
	return &countingAudit{next: next, events: m.auditEvents}
}

type countingAudit struct {
	next   audit.Logger
	events *prometheus.CounterVec
}

func (c *countingAudit) Log(ctx context.Context, action string, opts ...audit.EventOption) error {
	if err := c.next.Log(ctx, action, opts...); err != nil {
		return err
	}
	c.events.WithLabelValues(action, string(audit.ResultSuccess)).Inc()
	return nil
}

func (c *countingAudit) LogError(ctx context.Context, action string, cause error, opts ...audit.EventOption) error {
	if err := c.next.LogError(ctx, action, cause, opts...); err != nil {
		return err
	}
	c.events.WithLabelValues(action, string(audit.ResultError)).Inc()
	return nil
}

// CollectPoolStats samples pool every interval until ctx is done.
func (m *Metrics) CollectPoolStats(ctx context.Context, pool *pgxpool.Pool, interval time.Duration) error {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		m.observePool(pool.Stat())
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

type poolStat interface {
	AcquiredConns() int32
	IdleConns() int32
	TotalConns() int32
}

func (m *Metrics) observePool(s poolStat) {
	m.poolConns.WithLabelValues("acquired").Set(float64(s.AcquiredConns()))
	m.poolConns.WithLabelValues("idle").Set(float64(s.IdleConns()))
	m.poolConns.WithLabelValues("total").Set(float64(s.TotalConns()))
}
