package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	ordersCreatedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "orders_created_total",
			Help: "Total number of orders created by checkout",
		},
		[]string{"payment"},
	)

	orderTransitionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "order_transitions_total",
			Help: "Total number of applied order status transitions",
		},
		[]string{"from", "to"},
	)

	newPendingAlertsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "new_pending_alerts_total",
			Help: "Total number of new pending order alerts raised to admin viewers",
		},
	)

	feedSubscribers = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "order_feed_subscribers",
			Help: "Current number of order feed subscriptions",
		},
	)

	feedDeliveriesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "order_feed_deliveries_total",
			Help: "Total number of snapshots delivered to feed subscribers",
		},
	)

	geocodeRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "geocode_requests_total",
			Help: "Total number of geocoding lookups by result",
		},
		[]string{"result"},
	)
)

func init() {
	prometheus.MustRegister(ordersCreatedTotal)
	prometheus.MustRegister(orderTransitionsTotal)
	prometheus.MustRegister(newPendingAlertsTotal)
	prometheus.MustRegister(feedSubscribers)
	prometheus.MustRegister(feedDeliveriesTotal)
	prometheus.MustRegister(geocodeRequestsTotal)
}

func RecordOrderCreated(payment string) {
	ordersCreatedTotal.WithLabelValues(payment).Inc()
}

func RecordTransition(from, to string) {
	orderTransitionsTotal.WithLabelValues(from, to).Inc()
}

func RecordNewPendingAlerts(n int) {
	newPendingAlertsTotal.Add(float64(n))
}

func AddFeedSubscribers(delta int) {
	feedSubscribers.Add(float64(delta))
}

func RecordFeedDelivery() {
	feedDeliveriesTotal.Inc()
}

// result: hit, miss, not_found, error
func RecordGeocode(result string) {
	geocodeRequestsTotal.WithLabelValues(result).Inc()
}
