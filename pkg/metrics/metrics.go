package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "ourskilllab"

// Metrics owns a private registry so tests can build as many as they need.
type Metrics struct {
	registry *prometheus.Registry

	httpRequests    *prometheus.CounterVec
	httpDuration    *prometheus.HistogramVec
	otpIssued       *prometheus.CounterVec
	otpVerified     *prometheus.CounterVec
	enrollments     *prometheus.CounterVec
	revenue         *prometheus.CounterVec
	subscriptions   *prometheus.CounterVec
	webhookEvents   *prometheus.CounterVec
	notificationErr *prometheus.CounterVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route, method and status.",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		otpIssued: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "otp_issued_total",
			Help:      "One-time codes issued by channel.",
		}, []string{"channel"}),
		otpVerified: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "otp_verifications_total",
			Help:      "One-time code verifications by channel and outcome.",
		}, []string{"channel", "outcome"}),
		enrollments: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "enrollments_total",
			Help:      "Completed enrollments by source.",
		}, []string{"source"}),
		revenue: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "revenue_total",
			Help:      "Collected course revenue in major currency units.",
		}, []string{"currency"}),
		subscriptions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "subscription_events_total",
			Help:      "Subscription lifecycle events.",
		}, []string{"event"}),
		webhookEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "webhook_events_total",
			Help:      "Payment webhooks by provider and type.",
		}, []string{"provider", "type"}),
		notificationErr: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notification_failures_total",
			Help:      "Failed SMS and email deliveries.",
		}, []string{"channel"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.httpRequests,
		m.httpDuration,
		m.otpIssued,
		m.otpVerified,
		m.enrollments,
		m.revenue,
		m.subscriptions,
		m.webhookEvents,
		m.notificationErr,
	)

	return m
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) ObserveHTTP(method, route string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	if route == "" {
		route = "unmatched"
	}
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

func (m *Metrics) OTPIssued(channel string) {
	if m == nil {
		return
	}
	m.otpIssued.WithLabelValues(channel).Inc()
}

func (m *Metrics) OTPVerified(channel, outcome string) {
	if m == nil {
		return
	}
	m.otpVerified.WithLabelValues(channel, outcome).Inc()
}

func (m *Metrics) EnrollmentCompleted(source string, amount float64, currency string) {
	if m == nil {
		return
	}
	m.enrollments.WithLabelValues(source).Inc()
	if amount > 0 {
		m.revenue.WithLabelValues(currency).Add(amount)
	}
}

func (m *Metrics) SubscriptionEvent(event string) {
	if m == nil {
		return
	}
	m.subscriptions.WithLabelValues(event).Inc()
}

func (m *Metrics) WebhookReceived(provider, eventType string) {
	if m == nil {
		return
	}
	m.webhookEvents.WithLabelValues(provider, eventType).Inc()
}

func (m *Metrics) NotificationFailed(channel string) {
	if m == nil {
		return
	}
	m.notificationErr.WithLabelValues(channel).Inc()
}
