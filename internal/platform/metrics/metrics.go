package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the auth service.
type Metrics struct {
	Logins            *prometheus.CounterVec
	RateLimitDenials  prometheus.Counter
	RateLimitDegraded prometheus.Counter
	WebhookEvents     *prometheus.CounterVec
	SessionChecks     *prometheus.CounterVec
}

// New creates and registers all metrics on the default registry.
func New() *Metrics {
	return NewWith(prometheus.DefaultRegisterer)
}

// NewWith registers the metrics on the given registerer so tests can use an
// isolated registry.
func NewWith(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Logins: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "betengine_logins_total",
			Help: "Login attempts by method (password, google, facebook) and outcome.",
		}, []string{"method", "outcome"}),
		RateLimitDenials: factory.NewCounter(prometheus.CounterOpts{
			Name: "betengine_rate_limit_denials_total",
			Help: "Requests denied by the rate limiter.",
		}),
		RateLimitDegraded: factory.NewCounter(prometheus.CounterOpts{
			Name: "betengine_rate_limit_degraded_total",
			Help: "Rate limit checks that failed open because the counter store was unavailable.",
		}),
		WebhookEvents: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "betengine_webhook_events_total",
			Help: "Payment webhook deliveries by result (processed, duplicate, rejected, unavailable).",
		}, []string{"result"}),
		SessionChecks: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "betengine_session_checks_total",
			Help: "Session check results (valid, absent, invalid, expired).",
		}, []string{"status"}),
	}
}
