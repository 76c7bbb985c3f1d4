package twofactor

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Verification methods and results used as metric labels.
const (
	MethodTOTP   = "totp"
	MethodBackup = "backup"

	resultSuccess = "success"
	resultFailure = "failure"
	resultError   = "error"
)

// Metrics counts two-factor lifecycle events.
type Metrics struct {
	setupStarted  prometheus.Counter
	enabled       prometheus.Counter
	disabled      prometheus.Counter
	regenerated   prometheus.Counter
	verifications *prometheus.CounterVec
}

// NewMetrics registers the counters with reg. A nil reg keeps them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		setupStarted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "cashlens", Subsystem: "twofactor", Name: "setup_started_total",
			Help: "Two-factor setups started.",
		}),
		enabled: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "cashlens", Subsystem: "twofactor", Name: "enabled_total",
			Help: "Two-factor enrollments completed.",
		}),
		disabled: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "cashlens", Subsystem: "twofactor", Name: "disabled_total",
			Help: "Two-factor enrollments removed.",
		}),
		regenerated: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "cashlens", Subsystem: "twofactor", Name: "backup_codes_regenerated_total",
			Help: "Backup code sets regenerated.",
		}),
		verifications: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cashlens", Subsystem: "twofactor", Name: "verifications_total",
			Help: "Login-time two-factor verifications by method and result.",
		}, []string{"method", "result"}),
	}
}

func (m *Metrics) observeVerification(method string, ok bool, err error) {
	result := resultSuccess
	switch {
	case err != nil:
		result = resultError
	case !ok:
		result = resultFailure
	}
	m.verifications.WithLabelValues(method, result).Inc()
}
