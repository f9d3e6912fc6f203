// Package metrics holds the Prometheus collectors of the tms service.
//
// All recording methods are safe on a nil *Metrics so components can be
// built without instrumentation in tests.
package metrics

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Authentication outcomes recorded by the gate.
const (
	AuthnAuthenticated      = "authenticated"
	AuthnAnonymous          = "anonymous"
	AuthnInvalidToken       = "invalid_token"
	AuthnUnknownUser        = "unknown_user"
	AuthnNoSession          = "no_session"
	AuthnSessionLookupError = "session_lookup_error"
)

// Refresh outcomes.
const (
	RefreshIssued   = "issued"
	RefreshNotFound = "not_found"
	RefreshExpired  = "expired"
	RefreshError    = "error"
)

// Authorization denial reasons.
const (
	DenyUnauthenticated = "unauthenticated"
	DenyRole            = "role"
	DenyOwnership       = "ownership"
)

type Metrics struct {
	registry *prometheus.Registry

	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	AuthnTotal        *prometheus.CounterVec
	SigninTotal       *prometheus.CounterVec
	RefreshTotal      *prometheus.CounterVec
	AuthzDenialsTotal *prometheus.CounterVec
}

// New creates the collectors and registers them, along with the Go and
// process collectors, on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),

		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tms_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "tms_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		AuthnTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tms_authn_total",
				Help: "Bearer token authentication attempts by outcome",
			},
			[]string{"result"},
		),
		SigninTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tms_signin_total",
				Help: "Signin attempts by outcome",
			},
			[]string{"result"},
		),
		RefreshTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tms_refresh_total",
				Help: "Refresh token exchanges by outcome",
			},
			[]string{"result"},
		),
		AuthzDenialsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tms_authz_denials_total",
				Help: "Requests rejected by authorization checks",
			},
			[]string{"reason", "entity"},
		),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.AuthnTotal,
		m.SigninTotal,
		m.RefreshTotal,
		m.AuthzDenialsTotal,
	)
	return m
}

// Registry exposes the underlying registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) Authn(result string) {
	if m == nil {
		return
	}
	m.AuthnTotal.WithLabelValues(result).Inc()
}

func (m *Metrics) Signin(ok bool) {
	if m == nil {
		return
	}
	result := "success"
	if !ok {
		result = "failure"
	}
	m.SigninTotal.WithLabelValues(result).Inc()
}

func (m *Metrics) Refresh(result string) {
	if m == nil {
		return
	}
	m.RefreshTotal.WithLabelValues(result).Inc()
}

// Denied records an authorization rejection. entity is empty for checks
// that are not entity scoped.
func (m *Metrics) Denied(reason, entity string) {
	if m == nil {
		return
	}
	m.AuthzDenialsTotal.WithLabelValues(reason, entity).Inc()
}

type responseWriter struct {
	http.ResponseWriter
	status int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Unwrap() http.ResponseWriter { return rw.ResponseWriter }

type routeKey struct{}

// routeHolder carries the matched pattern back up through middlewares that
// hand a copy of the request downstream.
type routeHolder struct {
	pattern string
}

// CaptureRoute must wrap the ServeMux itself. It reports the pattern the mux
// matched to an enclosing HTTPMiddleware.
func CaptureRoute(mux http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mux.ServeHTTP(w, r)
		if h, ok := r.Context().Value(routeKey{}).(*routeHolder); ok {
			h.pattern = r.Pattern
		}
	})
}

// HTTPMiddleware records request counts and latency, labelled by the
// matched ServeMux pattern to keep cardinality bounded.
func (m *Metrics) HTTPMiddleware(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &responseWriter{ResponseWriter: w, status: http.StatusOK}

		holder := &routeHolder{}
		r = r.WithContext(context.WithValue(r.Context(), routeKey{}, holder))

		next.ServeHTTP(rw, r)

		route := holder.pattern
		if route == "" {
			route = r.Pattern
		}
		if route == "" {
			route = "unmatched"
		}
		m.HTTPRequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(rw.status)).Inc()
		m.HTTPRequestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}
