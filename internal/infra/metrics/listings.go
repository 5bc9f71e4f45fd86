package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		listingOperationsTotal,
		quotaRejectionsTotal,
		imageBytesReservedTotal,
		imageBytesReleasedTotal,
		imageCleanupFailuresTotal,
	)
}

var (
	listingOperationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "listing_operations_total",
			Help: "Listing mutations by operation and result.",
		},
		[]string{"op", "result"}, // op: create|update|delete, result: ok|rejected|error
	)

	quotaRejectionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quota_rejections_total",
			Help: "Listing mutations rejected by the subscription gate or the quota ledger.",
		},
		[]string{"reason"}, // subscription_expired|listing_limit|storage_limit
	)

	imageBytesReservedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "image_bytes_reserved_total",
			Help: "Image bytes added to agency storage usage.",
		},
	)

	imageBytesReleasedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "image_bytes_released_total",
			Help: "Image bytes removed from agency storage usage.",
		},
	)

	imageCleanupFailuresTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "image_cleanup_failures_total",
			Help: "Physical image files that could not be deleted.",
		},
	)
)

func IncListingOperation(op, result string) {
	listingOperationsTotal.WithLabelValues(norm(op), norm(result)).Inc()
}

func IncQuotaRejection(reason string) {
	quotaRejectionsTotal.WithLabelValues(norm(reason)).Inc()
}

func AddBytesReserved(n int64) {
	if n > 0 {
		imageBytesReservedTotal.Add(float64(n))
	}
}

func AddBytesReleased(n int64) {
	if n > 0 {
		imageBytesReleasedTotal.Add(float64(n))
	}
}

func IncCleanupFailure() {
	imageCleanupFailuresTotal.Inc()
}
