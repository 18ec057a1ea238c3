package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	bookingCreated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "zervos",
			Name:      "booking_created_total",
			Help:      "Count of booking attempts by outcome.",
		},
		[]string{"status"},
	)

	bookingCancelled = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "zervos",
			Name:      "booking_cancelled_total",
			Help:      "Count of cancelled appointments.",
		},
	)

	availabilityQueries = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "zervos",
			Name:      "availability_queries_total",
			Help:      "Count of availability lookups by kind (dates, slots).",
		},
		[]string{"kind"},
	)

	cacheRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "zervos",
			Name:      "availability_cache_requests_total",
			Help:      "Availability cache lookups by result.",
		},
		[]string{"result"},
	)

	checkouts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "zervos",
			Name:      "pos_checkout_total",
			Help:      "Count of POS checkouts by status.",
		},
		[]string{"status"},
	)

	checkoutRevenue = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "zervos",
			Name:      "pos_checkout_revenue_minor_total",
			Help:      "Sum of checkout totals in minor currency units.",
		},
	)

	importedRecords = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "zervos",
			Name:      "legacy_import_records_total",
			Help:      "Records imported from legacy storage dumps by entity.",
		},
		[]string{"entity"},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "zervos",
			Name:      "http_requests_total",
			Help:      "HTTP requests by method and status class.",
		},
		[]string{"method", "code"},
	)
)

// Register registers metrics (idempotent).
func Register() {
	once.Do(func() {
		prometheus.MustRegister(
			bookingCreated, bookingCancelled, availabilityQueries, cacheRequests,
			checkouts, checkoutRevenue, importedRecords, httpRequests,
		)
	})
}

func IncBookingCreated(status string) {
	bookingCreated.WithLabelValues(status).Inc()
}

func IncBookingCancelled() {
	bookingCancelled.Inc()
}

func IncAvailabilityQuery(kind string) {
	availabilityQueries.WithLabelValues(kind).Inc()
}

func IncCache(result string) {
	cacheRequests.WithLabelValues(result).Inc()
}

// ObserveCheckout records a checkout outcome; total counts only on success.
func ObserveCheckout(status string, totalMinor int64) {
	checkouts.WithLabelValues(status).Inc()
	if status == "success" && totalMinor > 0 {
		checkoutRevenue.Add(float64(totalMinor))
	}
}

func AddImported(entity string, n int) {
	if n <= 0 {
		return
	}
	importedRecords.WithLabelValues(entity).Add(float64(n))
}

func IncHTTPRequest(method, code string) {
	httpRequests.WithLabelValues(method, code).Inc()
}
