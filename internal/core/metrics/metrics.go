package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	verifications = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "causebridge_verifications_total", Help: "Verification toggles that changed state"},
		[]string{"state"},
	)
	engagements = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "causebridge_engagements_total", Help: "Ledger rows recorded"},
		[]string{"kind"},
	)
	deletions = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "causebridge_deletions_total", Help: "Cascade deletes committed"},
		[]string{"root"},
	)
	registrations = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "causebridge_registrations_total", Help: "Accounts registered"},
		[]string{"role"},
	)
	logins = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "causebridge_logins_total", Help: "Login attempts by outcome"},
		[]string{"outcome"},
	)
)

func init() {
	prometheus.MustRegister(verifications, engagements, deletions, registrations, logins)
}

func Verification(verified bool) {
	state := "unverified"
	if verified {
		state = "verified"
	}
	verifications.WithLabelValues(state).Inc()
}

func Engagement(kind string)   { engagements.WithLabelValues(kind).Inc() }
func Deletion(root string)     { deletions.WithLabelValues(root).Inc() }
func Registration(role string) { registrations.WithLabelValues(role).Inc() }
func Login(outcome string)     { logins.WithLabelValues(outcome).Inc() }
