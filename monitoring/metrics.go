package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	redemptionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ticket_redemptions_total",
			Help: "Redemption attempts by outcome",
		},
		[]string{"outcome"},
	)

	paymentsCreatedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "payments_created_total",
			Help: "Payment records created",
		},
	)

	webhookEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payment_webhook_events_total",
			Help: "Provider webhook deliveries by result",
		},
		[]string{"result"},
	)

	providerRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pix_provider_requests_total",
			Help: "PIX provider API calls",
		},
		[]string{"operation", "outcome"},
	)

	providerRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pix_provider_request_duration_seconds",
			Help:    "PIX provider API call latency",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 10),
		},
		[]string{"operation"},
	)
)

func TrackRedemption(outcome string) {
	redemptionsTotal.WithLabelValues(outcome).Inc()
}

func TrackPaymentCreated() {
	paymentsCreatedTotal.Inc()
}

func TrackWebhook(result string) {
	webhookEventsTotal.WithLabelValues(result).Inc()
}

func TrackProviderRequest(operation string, err error, duration time.Duration) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	providerRequestsTotal.WithLabelValues(operation, outcome).Inc()
	providerRequestDuration.WithLabelValues(operation).Observe(duration.Seconds())
}
