// Package metrics exposes the Prometheus collectors shared by the server and
// the worker. A nil *Metrics is valid and records nothing.
package metrics

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "greefin"

type Metrics struct {
	httpRequests   *prometheus.CounterVec
	httpDuration   *prometheus.HistogramVec
	ecoScore       prometheus.Histogram
	personas       *prometheus.CounterVec
	exports        *prometheus.CounterVec
	suspicious     *prometheus.CounterVec
	rateLimited    prometheus.Counter
	cacheLookups   *prometheus.CounterVec
	publishFailure prometheus.Counter
}

// New registers every collector on reg. Collectors already registered on
// reg are reused, so several components may share one registry.
func New(reg prometheus.Registerer) (*Metrics, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &Metrics{
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by method, route and status code.",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		ecoScore: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "eco",
			Name:      "score",
			Help:      "Distribution of submitted eco scores.",
			Buckets:   prometheus.LinearBuckets(10, 10, 10),
		}),
		personas: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "eco",
			Name:      "persona_total",
			Help:      "Submitted profiles by persona.",
		}, []string{"persona"}),
		exports: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "worker",
			Name:      "exports_total",
			Help:      "Profile exports by result (exported, skipped, failed).",
		}, []string{"result"}),
		suspicious: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "security",
			Name:      "suspicious_requests_total",
			Help:      "Requests flagged by the detection middleware.",
		}, []string{"reason"}),
		rateLimited: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "rate_limited_total",
			Help:      "Requests rejected by the rate limiter.",
		}),
		cacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "lookups_total",
			Help:      "Profile cache lookups by result (hit, miss).",
		}, []string{"result"}),
		publishFailure: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "amqp",
			Name:      "publish_failures_total",
			Help:      "profile.updated events that could not be published.",
		}),
	}

	var err error
	register := func(c prometheus.Collector) prometheus.Collector {
		if err != nil {
			return c
		}
		if regErr := reg.Register(c); regErr != nil {
			var are prometheus.AlreadyRegisteredError
			if errors.As(regErr, &are) {
				return are.ExistingCollector
			}
			err = fmt.Errorf("register metric: %w", regErr)
		}
		return c
	}
	m.httpRequests = register(m.httpRequests).(*prometheus.CounterVec)
	m.httpDuration = register(m.httpDuration).(*prometheus.HistogramVec)
	m.ecoScore = register(m.ecoScore).(prometheus.Histogram)
	m.personas = register(m.personas).(*prometheus.CounterVec)
	m.exports = register(m.exports).(*prometheus.CounterVec)
	m.suspicious = register(m.suspicious).(*prometheus.CounterVec)
	m.rateLimited = register(m.rateLimited).(prometheus.Counter)
	m.cacheLookups = register(m.cacheLookups).(*prometheus.CounterVec)
	m.publishFailure = register(m.publishFailure).(prometheus.Counter)
	if err != nil {
		return nil, err
	}
	return m, nil
}

// MustNew is New for process start-up.
func MustNew(reg prometheus.Registerer) *Metrics {
	m, err := New(reg)
	if err != nil {
		panic(err)
	}
	return m
}

// Handler serves the metrics gathered by g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

func (m *Metrics) ObserveHTTP(method, route string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

// ObserveProfile records a submitted profile's score and persona.
func (m *Metrics) ObserveProfile(score int, persona string) {
	if m == nil {
		return
	}
	m.ecoScore.Observe(float64(score))
	m.personas.WithLabelValues(persona).Inc()
}

func (m *Metrics) ObserveExport(result string) {
	if m == nil {
		return
	}
	m.exports.WithLabelValues(result).Inc()
}

func (m *Metrics) ObserveSuspicious(reason string) {
	if m == nil {
		return
	}
	m.suspicious.WithLabelValues(reason).Inc()
}

func (m *Metrics) ObserveRateLimited() {
	if m == nil {
		return
	}
	m.rateLimited.Inc()
}

func (m *Metrics) ObserveCache(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheLookups.WithLabelValues(result).Inc()
}

func (m *Metrics) ObservePublishFailure() {
	if m == nil {
		return
	}
	m.publishFailure.Inc()
}
