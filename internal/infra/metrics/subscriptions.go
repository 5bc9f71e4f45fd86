package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		subscriptionEventsTotal,
		subscriptionsTotal,
		subscriptionsExpiringSoon,
		storageUsedBytes,
	)
}

var (
	subscriptionEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "subscription_events_total",
			Help: "Subscription changes by event and plan tier.",
		},
		[]string{"event", "tier"}, // event: register|subscribe|renew|cancel
	)

	subscriptionsTotal = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "subscriptions_total",
			Help: "Current number of agencies by subscription state.",
		},
		[]string{"state"}, // 'valid', 'expired'
	)

	subscriptionsExpiringSoon = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "subscriptions_expiring_soon",
			Help: "Agencies whose subscription ends within the warning window.",
		},
	)

	storageUsedBytes = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "storage_used_bytes",
			Help: "Sum of storage used by all agencies.",
		},
	)
)

func IncSubscriptionEvent(event, tier string) {
	subscriptionEventsTotal.WithLabelValues(norm(event), norm(tier)).Inc()
}

func SetSubscriptionsTotal(valid, expired int) {
	subscriptionsTotal.WithLabelValues("valid").Set(float64(valid))
	subscriptionsTotal.WithLabelValues("expired").Set(float64(expired))
}

func SetExpiringSoon(n int) {
	subscriptionsExpiringSoon.Set(float64(n))
}

func SetStorageUsed(bytes int64) {
	storageUsedBytes.Set(float64(bytes))
}
