package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Generate outcomes.
const (
	OutcomeGenerated    = "generated"
	OutcomeFallback     = "fallback"
	OutcomeGreeting     = "greeting"
	OutcomeInvalid      = "invalid"
	OutcomeNoCredits    = "no_credits"
	OutcomeUserNotFound = "user_not_found"
	OutcomeError        = "error"
)

var (
	GenerateRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eduwrite_generate_requests_total",
			Help: "Total number of content generation requests by outcome",
		},
		[]string{"outcome"},
	)

	AIRequestDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "eduwrite_ai_request_duration_seconds",
			Help:    "Latency of calls to the language model API",
			Buckets: []float64{0.25, 0.5, 1, 2, 4, 8, 16, 32, 64},
		},
	)

	CreditsDebitedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "eduwrite_credits_debited_total",
			Help: "Total number of credits consumed",
		},
	)

	CreditResetsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "eduwrite_credit_resets_total",
			Help: "Total number of daily credit resets applied",
		},
	)

	LoginsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eduwrite_logins_total",
			Help: "Total number of login attempts by result",
		},
		[]string{"result"},
	)

	UsageEventsPublishedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eduwrite_usage_events_published_total",
			Help: "Total number of usage events handed to the message broker by status",
		},
		[]string{"status"},
	)

	UsageArchivedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eduwrite_usage_archived_total",
			Help: "Total number of usage records written to object storage by status",
		},
		[]string{"status"},
	)
)

func RecordGenerate(outcome string) {
	GenerateRequestsTotal.WithLabelValues(outcome).Inc()
}

func RecordAIRequest(seconds float64) {
	AIRequestDuration.Observe(seconds)
}

func RecordDebit() {
	CreditsDebitedTotal.Inc()
}

func RecordCreditReset() {
	CreditResetsTotal.Inc()
}

func RecordLogin(result string) {
	LoginsTotal.WithLabelValues(result).Inc()
}

func RecordUsagePublished(status string) {
	UsageEventsPublishedTotal.WithLabelValues(status).Inc()
}

func RecordUsageArchived(status string) {
	UsageArchivedTotal.WithLabelValues(status).Inc()
}
