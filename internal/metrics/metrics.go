// Package metrics provides Prometheus metrics for the voice clone service.
package metrics

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/book-expert/voice-clone/internal/core"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "voice_clone"

// Status label values.
const (
	statusSuccess = "success"
	statusError   = "error"
)

const unmatchedRoute = "unmatched"

// Metrics owns a registry and the collectors registered on it.
type Metrics struct {
	registry *prometheus.Registry

	httpRequestsTotal       *prometheus.CounterVec
	httpRequestDuration     *prometheus.HistogramVec
	providerRequestsTotal   *prometheus.CounterVec
	providerRequestDuration *prometheus.HistogramVec
	providerAudioBytes      *prometheus.CounterVec
}

// New creates a Metrics instance with its own registry, including Go runtime
// and process collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),

		httpRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests handled",
			},
			[]string{"method", "route", "code"},
		),

		httpRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "Duration of HTTP requests in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),

		providerRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "provider_requests_total",
				Help:      "Total number of text-to-speech provider calls",
			},
			[]string{"model", "status"}, // status: success, error
		),

		providerRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "provider_request_duration_seconds",
				Help:      "Duration of text-to-speech provider calls in seconds",
				Buckets:   []float64{.25, .5, 1, 2.5, 5, 10, 30, 60, 120},
			},
			[]string{"model"},
		),

		providerAudioBytes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "provider_audio_bytes_total",
				Help:      "Total bytes of audio returned by the provider",
			},
			[]string{"model"},
		),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.httpRequestsTotal,
		m.httpRequestDuration,
		m.providerRequestsTotal,
		m.providerRequestDuration,
		m.providerAudioBytes,
	)

	return m
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Middleware records request counts and latencies per matched route.
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = unmatchedRoute
		}

		m.httpRequestsTotal.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		m.httpRequestDuration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}

// InstrumentSynthesizer wraps next so every provider call is counted and timed.
func (m *Metrics) InstrumentSynthesizer(next core.Synthesizer) core.Synthesizer {
	return &instrumentedSynthesizer{next: next, metrics: m}
}

type instrumentedSynthesizer struct {
	next    core.Synthesizer
	metrics *Metrics
}

func (s *instrumentedSynthesizer) Synthesize(ctx context.Context, apiKey string, req core.SynthesisRequest) ([]byte, error) {
	model := string(req.Model)
	if model == "" {
		model = string(core.DefaultModel)
	}

	start := time.Now()
	audio, err := s.next.Synthesize(ctx, apiKey, req)
	s.metrics.providerRequestDuration.WithLabelValues(model).Observe(time.Since(start).Seconds())

	if err != nil {
		s.metrics.providerRequestsTotal.WithLabelValues(model, statusError).Inc()

		return nil, err
	}

	s.metrics.providerRequestsTotal.WithLabelValues(model, statusSuccess).Inc()
	s.metrics.providerAudioBytes.WithLabelValues(model).Add(float64(len(audio)))

	return audio, nil
}
