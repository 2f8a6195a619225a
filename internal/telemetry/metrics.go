package telemetry

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the counters this pipeline exposes. Everything here is
// informational — nothing in the core synchronous graph reads
// these values back.
type Metrics struct {
	ExecutionsEmitted prometheus.Counter
	ExecutionsDropped prometheus.Counter
	GUIEmitted        prometheus.Counter
	GUIDropped        prometheus.Counter
	InquiriesRejected prometheus.Counter
	TradesBooked      prometheus.Counter
}

// NewMetrics registers every counter against a fresh registry and
// returns both.
func NewMetrics() (*Metrics, *prometheus.Registry) {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		ExecutionsEmitted: factory.NewCounter(prometheus.CounterOpts{
			Name: "backoffice_executions_emitted_total",
			Help: "Total ExecutionOrders emitted by AlgoExecutionService.",
		}),
		ExecutionsDropped: factory.NewCounter(prometheus.CounterOpts{
			Name: "backoffice_executions_dropped_total",
			Help: "Total OrderBooks dropped by AlgoExecutionService's spread gate.",
		}),
		GUIEmitted: factory.NewCounter(prometheus.CounterOpts{
			Name: "backoffice_gui_ticks_emitted_total",
			Help: "Total ticks emitted by GUIService.",
		}),
		GUIDropped: factory.NewCounter(prometheus.CounterOpts{
			Name: "backoffice_gui_ticks_dropped_total",
			Help: "Total ticks throttled away by GUIService.",
		}),
		InquiriesRejected: factory.NewCounter(prometheus.CounterOpts{
			Name: "backoffice_inquiries_rejected_total",
			Help: "Total inquiries that transitioned to REJECTED.",
		}),
		TradesBooked: factory.NewCounter(prometheus.CounterOpts{
			Name: "backoffice_trades_booked_total",
			Help: "Total trades booked by TradeBookingService, from either source.",
		}),
	}, reg
}

// Handler returns the /metrics HTTP handler for reg.
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}
