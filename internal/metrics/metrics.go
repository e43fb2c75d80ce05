package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "shopfront"

// Metrics holds the application's Prometheus collectors. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	ordersPlaced      *prometheus.CounterVec
	placementFailures *prometheus.CounterVec
	placementDuration prometheus.Histogram
	statusUpdates     *prometheus.CounterVec
	notifications     *prometheus.CounterVec
	cacheLookups      *prometheus.CounterVec
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		ordersPlaced: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "orders_placed_total",
				Help:      "Orders committed, by source (items, cart) and whether they were idempotent replays.",
			},
			[]string{"source", "replayed"},
		),
		placementFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "order_placement_failures_total",
				Help:      "Order placements that did not commit, by error code.",
			},
			[]string{"code"},
		),
		placementDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "order_placement_duration_seconds",
				Help:      "Duration of the order placement transaction.",
				Buckets:   prometheus.DefBuckets,
			},
		),
		statusUpdates: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "order_status_updates_total",
				Help:      "Order status changes, by target status.",
			},
			[]string{"status"},
		),
		notifications: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "notifications_total",
				Help:      "Customer notifications, by kind and result (sent, failed, dropped).",
			},
			[]string{"kind", "result"},
		),
		cacheLookups: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "catalog_cache_lookups_total",
				Help:      "Catalogue cache lookups, by result (hit, miss, error).",
			},
			[]string{"result"},
		),
	}

	reg.MustRegister(
		m.ordersPlaced,
		m.placementFailures,
		m.placementDuration,
		m.statusUpdates,
		m.notifications,
		m.cacheLookups,
	)

	return m
}

func (m *Metrics) OrderPlaced(source string, replayed bool, took time.Duration) {
	if m == nil {
		return
	}
	r := "false"
	if replayed {
		r = "true"
	} else {
		m.placementDuration.Observe(took.Seconds())
	}
	m.ordersPlaced.WithLabelValues(source, r).Inc()
}

func (m *Metrics) PlacementFailed(code string) {
	if m == nil {
		return
	}
	m.placementFailures.WithLabelValues(code).Inc()
}

func (m *Metrics) StatusUpdated(status string) {
	if m == nil {
		return
	}
	m.statusUpdates.WithLabelValues(status).Inc()
}

func (m *Metrics) Notification(kind, result string) {
	if m == nil {
		return
	}
	m.notifications.WithLabelValues(kind, result).Inc()
}

func (m *Metrics) CacheLookup(result string) {
	if m == nil {
		return
	}
	m.cacheLookups.WithLabelValues(result).Inc()
}
