package account

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Login outcomes used as metric labels.
const (
	loginSuccess   = "success"
	loginChallenge = "challenge"
	loginFailure   = "failure"
)

// Metrics counts registrations and login attempts.
type Metrics struct {
	registrations prometheus.Counter
	logins        *prometheus.CounterVec
}

// NewMetrics registers the counters with reg. A nil reg keeps them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		registrations: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "cashlens", Subsystem: "auth", Name: "registrations_total",
			Help: "Accounts registered.",
		}),
		logins: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cashlens", Subsystem: "auth", Name: "logins_total",
			Help: "Password login attempts by result.",
		}, []string{"result"}),
	}
}
