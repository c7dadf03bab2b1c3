package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	ExchangeTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sso_exchange_total",
		Help: "Token exchanges by outcome (success, or the error kind)",
	}, []string{"outcome"})

	ExchangeDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "sso_exchange_duration_seconds",
		Help:    "End-to-end token exchange latency",
		Buckets: prometheus.ExponentialBuckets(0.001, 2, 14),
	})

	SessionsCreated = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "sso_sessions_created_total",
		Help: "Sessions issued after a successful exchange",
	})

	UsersProvisioned = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "sso_users_provisioned_total",
		Help: "First-time accounts created through the exchange",
	})
)

// Register registers the exchange metrics on the given registry (or the
// default when nil).
func Register(reg prometheus.Registerer) error {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	for _, c := range []prometheus.Collector{ExchangeTotal, ExchangeDuration, SessionsCreated, UsersProvisioned} {
		if err := reg.Register(c); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); !ok {
				return err
			}
		}
	}
	return nil
}
