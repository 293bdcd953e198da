package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCounters(t *testing.T) {
	m := New()

	m.OTPIssued("mobile")
	m.OTPIssued("mobile")
	m.OTPVerified("email", "expired")
	m.EnrollmentCompleted("payment", 85, "usd")
	m.EnrollmentCompleted("free", 0, "usd")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.otpIssued.WithLabelValues("mobile")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.otpVerified.WithLabelValues("email", "expired")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.enrollments.WithLabelValues("free")))
	assert.Equal(t, 85.0, testutil.ToFloat64(m.revenue.WithLabelValues("usd")))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.OTPIssued("mobile")
		m.ObserveHTTP("GET", "/x", 200, time.Millisecond)
		m.NotificationFailed("sms")
	})
}

func TestHandlerExposesMetrics(t *testing.T) {
	m := New()
	m.ObserveHTTP("GET", "/api/v1/courses", http.StatusOK, 10*time.Millisecond)
	m.WebhookReceived("stripe", "payment.succeeded")

	srv := httptest.NewServer(m.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Contains(t, string(body), `ourskilllab_http_requests_total{method="GET",route="/api/v1/courses",status="200"} 1`)
	assert.Contains(t, string(body), `ourskilllab_webhook_events_total{provider="stripe",type="payment.succeeded"} 1`)
}
