package monitoring

import (
	"context"
	"strconv"
	"time"

	"ezstream/internal/core/domain"
	"ezstream/internal/core/ports"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

type PrometheusCollector struct {
	// Vendor API
	vendorRequestsTotal   *prometheus.CounterVec
	vendorRequestDuration *prometheus.HistogramVec

	// Local state
	sessionsActive   prometheus.Gauge
	websocketClients prometheus.Gauge
	eventsTotal      *prometheus.CounterVec

	// Local HTTP API
	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
}

// NewPrometheusCollector registers the collectors on reg. Passing a fresh
// registry keeps tests independent of the global one.
func NewPrometheusCollector(reg prometheus.Registerer) *PrometheusCollector {
	factory := promauto.With(reg)

	return &PrometheusCollector{
		vendorRequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "ezstream_vendor_requests_total",
			Help: "Vendor API calls by endpoint and outcome (success, rejected, error)",
		}, []string{"endpoint", "outcome"}),

		vendorRequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "ezstream_vendor_request_duration_seconds",
			Help:    "Latency of vendor API calls",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
		}, []string{"endpoint"}),

		sessionsActive: factory.NewGauge(prometheus.GaugeOpts{
			Name: "ezstream_sessions_active",
			Help: "Authenticated sessions whose vendor token has not expired",
		}),

		websocketClients: factory.NewGauge(prometheus.GaugeOpts{
			Name: "ezstream_websocket_clients",
			Help: "Connected status event subscribers",
		}),

		eventsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "ezstream_events_total",
			Help: "Status events published by type",
		}, []string{"type"}),

		httpRequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "ezstream_http_requests_total",
			Help: "Local API requests by method, route and status",
		}, []string{"method", "route", "status"}),

		httpRequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "ezstream_http_request_duration_seconds",
			Help:    "Latency of local API requests",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
}

var (
	_ ports.VendorMetrics  = (*PrometheusCollector)(nil)
	_ ports.EventPublisher = (*PrometheusCollector)(nil)
)

func (p *PrometheusCollector) ObserveVendorCall(endpoint, outcome string, duration time.Duration) {
	p.vendorRequestsTotal.WithLabelValues(endpoint, outcome).Inc()
	p.vendorRequestDuration.WithLabelValues(endpoint).Observe(duration.Seconds())
}

func (p *PrometheusCollector) SetActiveSessions(n int) {
	p.sessionsActive.Set(float64(n))
}

func (p *PrometheusCollector) SetWebSocketClients(n int) {
	p.websocketClients.Set(float64(n))
}

// Publish counts status events, so the collector can sit next to the
// websocket hub behind a fan-out publisher.
func (p *PrometheusCollector) Publish(_ context.Context, event domain.Event) {
	p.eventsTotal.WithLabelValues(string(event.Type)).Inc()
}

func (p *PrometheusCollector) RecordHTTPRequest(method, route string, status int, duration time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	p.httpRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	p.httpRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// StartSessionSampler refreshes the active session gauge from repo every
// interval until ctx is done.
func (p *PrometheusCollector) StartSessionSampler(ctx context.Context, repo ports.SessionRepository, interval time.Duration, logger *zap.SugaredLogger) {
	sample := func() {
		n, err := repo.Count(ctx)
		if err != nil {
			logger.Warnw("failed to count sessions", "error", err)
			return
		}
		p.SetActiveSessions(n)
	}

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		sample()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				sample()
			}
		}
	}()
}
