// Package metrics exposes the Prometheus instrumentation for the backend.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	loginsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reqstly_logins_total",
			Help: "Login attempts by provider and result.",
		},
		[]string{"provider", "result"},
	)

	logoutsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "reqstly_logouts_total",
		Help: "Total number of logouts.",
	})

	signupsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "reqstly_signups_total",
		Help: "Total number of account registrations.",
	})

	requestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reqstly_requests_total",
			Help: "Ticket mutations by action (created, updated, status_changed, deleted).",
		},
		[]string{"action"},
	)
)

// Init registers the collectors with the default registry. Call once at
// startup.
func Init() {
	prometheus.MustRegister(loginsTotal, logoutsTotal, signupsTotal, requestsTotal)
}

// Handler serves the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

func LoginSuccess(provider string) { loginsTotal.WithLabelValues(provider, "success").Inc() }
func LoginFailure(provider string) { loginsTotal.WithLabelValues(provider, "failure").Inc() }
func Logout()                      { logoutsTotal.Inc() }
func Signup()                      { signupsTotal.Inc() }
func RequestMutation(action string) {
	requestsTotal.WithLabelValues(action).Inc()
}
