// internal/app/system/metrics/metrics.go
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "coachhub"

// Invitation outcomes.
const (
	InviteAdded        = "added"
	InviteAlready      = "already_member"
	InviteUnresolvable = "unresolvable"
)

// Verification events.
const (
	VerifyIssued   = "issued"
	VerifyVerified = "verified"
	VerifyFailed   = "failed"
	VerifyJoined   = "joined_by_code"
)

// Metrics holds the application's Prometheus collectors on a private
// registry. A nil *Metrics is a valid no-op recorder.
type Metrics struct {
	registry     *prometheus.Registry
	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
	invitations  *prometheus.CounterVec
	verification *prometheus.CounterVec
	rateLimited  *prometheus.CounterVec
}

// New creates and registers all collectors, including Go runtime and
// process collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route, method and status code.",
		}, []string{"route", "method", "code"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "method"}),
		invitations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "invitation_candidates_total",
			Help:      "Bulk invitation candidates by outcome.",
		}, []string{"outcome"}),
		verification: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "org_verification_events_total",
			Help:      "Organization verification events by event and reason.",
		}, []string{"event", "reason"}),
		rateLimited: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rate_limited_total",
			Help:      "Requests rejected by a rate limiter.",
		}, []string{"scope"}),
	}
	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.httpRequests,
		m.httpDuration,
		m.invitations,
		m.verification,
		m.rateLimited,
	)
	return m
}

// Registry exposes the registry for tests and extra collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Middleware records request counts and latency labeled by chi route pattern,
// so path parameters do not explode label cardinality.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
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
		m.httpRequests.WithLabelValues(route, r.Method, strconv.Itoa(status)).Inc()
		m.httpDuration.WithLabelValues(route, r.Method).Observe(time.Since(start).Seconds())
	})
}

// RecordInvitations adds one commit's or preview's candidate outcomes.
func (m *Metrics) RecordInvitations(added, alreadyMembers, unresolvable int) {
	if m == nil {
		return
	}
	m.invitations.WithLabelValues(InviteAdded).Add(float64(added))
	m.invitations.WithLabelValues(InviteAlready).Add(float64(alreadyMembers))
	m.invitations.WithLabelValues(InviteUnresolvable).Add(float64(unresolvable))
}

// RecordVerification counts one verification event. reason is "" on success.
func (m *Metrics) RecordVerification(event, reason string) {
	if m == nil {
		return
	}
	m.verification.WithLabelValues(event, reason).Inc()
}

// RecordRateLimited counts one rejected request.
func (m *Metrics) RecordRateLimited(scope string) {
	if m == nil {
		return
	}
	m.rateLimited.WithLabelValues(scope).Inc()
}
