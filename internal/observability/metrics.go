// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the engine.
type Metrics struct {
	// Feed metrics
	TicksProcessed *prometheus.CounterVec
	TicksDropped   *prometheus.CounterVec
	BarsClosed     *prometheus.CounterVec

	// Decision metrics
	CheckpointsFired  *prometheus.CounterVec
	StatusTransitions *prometheus.CounterVec
	PlansAbstained    *prometheus.CounterVec

	// Execution metrics
	OrdersPlaced prometheus.Counter
	OrdersFilled prometheus.Counter
	ForcedExits  *prometheus.CounterVec

	// Snapshot metrics
	SnapshotsPublished prometheus.Counter
	SnapshotClients    prometheus.Gauge

	// Health metrics
	KillSwitchActive prometheus.Gauge
	UptimeSeconds    prometheus.Counter
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "equity_orb_lab"
	}

	return &Metrics{
		TicksProcessed: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "feed",
			Name:      "ticks_processed_total",
			Help:      "Total number of ticks accepted per symbol",
		}, []string{"symbol"}),
		TicksDropped: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "feed",
			Name:      "ticks_dropped_total",
			Help:      "Total number of ticks dropped by reason",
		}, []string{"symbol", "reason"}),
		BarsClosed: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "feed",
			Name:      "bars_closed_total",
			Help:      "Total number of bars closed per symbol",
		}, []string{"symbol"}),

		CheckpointsFired: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "decision",
			Name:      "checkpoints_fired_total",
			Help:      "Total number of session checkpoints fired by name",
		}, []string{"checkpoint"}),
		StatusTransitions: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "decision",
			Name:      "status_transitions_total",
			Help:      "Total number of plan status transitions by target status",
		}, []string{"symbol", "status"}),
		PlansAbstained: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "decision",
			Name:      "plans_abstained_total",
			Help:      "Total number of abstained plans by reason",
		}, []string{"reason"}),

		OrdersPlaced: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "execution",
			Name:      "orders_placed_total",
			Help:      "Total number of entry orders placed",
		}),
		OrdersFilled: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "execution",
			Name:      "orders_filled_total",
			Help:      "Total number of entry orders filled",
		}),
		ForcedExits: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "execution",
			Name:      "forced_exits_total",
			Help:      "Total number of forced exits by reason",
		}, []string{"reason"}),

		SnapshotsPublished: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "snapshot",
			Name:      "published_total",
			Help:      "Total number of per-symbol snapshots published",
		}),
		SnapshotClients: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "snapshot",
			Name:      "clients",
			Help:      "Number of connected snapshot websocket clients",
		}),

		KillSwitchActive: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "kill_switch_active",
			Help:      "Whether the kill switch has been engaged (0 or 1)",
		}),
		UptimeSeconds: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "uptime_seconds_total",
			Help:      "Total uptime in seconds",
		}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("")

// RecordTick increments the processed tick counter for a symbol.
func RecordTick(symbol string) {
	DefaultMetrics.TicksProcessed.WithLabelValues(symbol).Inc()
}

// RecordTickDropped increments the dropped tick counter.
func RecordTickDropped(symbol, reason string) {
	DefaultMetrics.TicksDropped.WithLabelValues(symbol, reason).Inc()
}

// RecordBarClosed increments the closed bar counter for a symbol.
func RecordBarClosed(symbol string) {
	DefaultMetrics.BarsClosed.WithLabelValues(symbol).Inc()
}

// RecordCheckpoint increments the checkpoint counter.
func RecordCheckpoint(name string) {
	DefaultMetrics.CheckpointsFired.WithLabelValues(name).Inc()
}

// RecordTransition records a plan status transition.
func RecordTransition(symbol, status string) {
	DefaultMetrics.StatusTransitions.WithLabelValues(symbol, status).Inc()
}

// RecordAbstain records an abstained plan.
func RecordAbstain(reason string) {
	DefaultMetrics.PlansAbstained.WithLabelValues(reason).Inc()
}

// RecordForcedExit records a forced exit.
func RecordForcedExit(reason string) {
	DefaultMetrics.ForcedExits.WithLabelValues(reason).Inc()
}

// SetKillSwitch updates the kill switch gauge.
func SetKillSwitch(active bool) {
	if active {
		DefaultMetrics.KillSwitchActive.Set(1)
	} else {
		DefaultMetrics.KillSwitchActive.Set(0)
	}
}
