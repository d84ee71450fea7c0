package monitoring

import (
	"context"
	"errors"
	"testing"
	"time"

	"ezstream/internal/core/domain"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap/zaptest"
)

func TestPrometheusCollector_VendorCalls(t *testing.T) {
	c := NewPrometheusCollector(prometheus.NewRegistry())

	c.ObserveVendorCall("token.get", "success", 120*time.Millisecond)
	c.ObserveVendorCall("token.get", "rejected", 80*time.Millisecond)
	c.ObserveVendorCall("token.get", "success", 90*time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(c.vendorRequestsTotal.WithLabelValues("token.get", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.vendorRequestsTotal.WithLabelValues("token.get", "rejected")))
}

func TestPrometheusCollector_GaugesAndEvents(t *testing.T) {
	c := NewPrometheusCollector(prometheus.NewRegistry())

	c.SetActiveSessions(3)
	c.SetWebSocketClients(2)
	c.Publish(context.Background(), domain.NewEvent(domain.EventStreamSucceeded, "ok"))
	c.RecordHTTPRequest("POST", "", 404, time.Millisecond)

	assert.Equal(t, 3.0, testutil.ToFloat64(c.sessionsActive))
	assert.Equal(t, 2.0, testutil.ToFloat64(c.websocketClients))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.eventsTotal.WithLabelValues("stream.succeeded")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.httpRequestsTotal.WithLabelValues("POST", "unmatched", "404")))
}

type countingRepo struct{ n int }

func (r *countingRepo) Save(context.Context, *domain.Session) error { return nil }
func (r *countingRepo) GetByID(context.Context, domain.SessionID) (*domain.Session, error) {
	return nil, domain.ErrSessionNotFound
}
func (r *countingRepo) Delete(context.Context, domain.SessionID) error { return nil }
func (r *countingRepo) Count(context.Context) (int, error)             { return r.n, nil }

func TestPrometheusCollector_SessionSampler(t *testing.T) {
	c := NewPrometheusCollector(prometheus.NewRegistry())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	c.StartSessionSampler(ctx, &countingRepo{n: 4}, time.Hour, zaptest.NewLogger(t).Sugar())

	assert.Eventually(t, func() bool {
		return testutil.ToFloat64(c.sessionsActive) == 4
	}, time.Second, 10*time.Millisecond)
}

func TestHealthChecker_CheckAll(t *testing.T) {
	h := NewHealthChecker(zaptest.NewLogger(t).Sugar())
	h.AddCheck("ok", func(context.Context) (bool, error) { return true, nil }, time.Minute, time.Second)
	h.AddCheck("redis", func(context.Context) (bool, error) { return false, errors.New("connection refused") }, time.Minute, time.Second)

	status := h.CheckAll(context.Background())

	assert.Equal(t, "unhealthy", status.Status)
	assert.Equal(t, "healthy", status.Checks["ok"])
	assert.Equal(t, "connection refused", status.Checks["redis"])
	assert.Equal(t, status.Checks, h.LastResults())
}

func TestHealthChecker_BackgroundChecks(t *testing.T) {
	h := NewHealthChecker(nil)
	h.AddCheck("flaky", func(context.Context) (bool, error) { return false, nil }, 10*time.Millisecond, time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	h.StartBackgroundChecks(ctx)

	assert.Eventually(t, func() bool {
		return h.LastResults()["flaky"] == "check failed"
	}, time.Second, 10*time.Millisecond)
}
