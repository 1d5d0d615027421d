package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Label values shared with callers.
const (
	ReservationOK           = "ok"
	ReservationInsufficient = "insufficient"

	UnitsReserved = "reserved"
	UnitsReleased = "released"

	OrderCreated = "created"
	OrderPaid    = "paid"
	OrderDeleted = "deleted"

	SessionOpened = "opened"
	SessionClosed = "closed"

	CompensationOK     = "ok"
	CompensationFailed = "failed"
)

// POSMetrics records the outcomes of the transactional core. A nil receiver is a no-op.
type POSMetrics struct {
	reservations  *prometheus.CounterVec
	units         *prometheus.CounterVec
	orders        *prometheus.CounterVec
	sessions      *prometheus.CounterVec
	compensations *prometheus.CounterVec
}

// NewPOSMetrics registers the core collectors on the provided registerer.
func NewPOSMetrics(reg prometheus.Registerer) *POSMetrics {
	if reg == nil {
		return &POSMetrics{}
	}
	reservations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "pos_stock_reservations_total",
		Help: "Stock reservation attempts by result.",
	}, []string{"result"})
	units := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "pos_stock_units_total",
		Help: "Stock units moved by order mutations.",
	}, []string{"direction"})
	orders := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "pos_orders_total",
		Help: "Order lifecycle events.",
	}, []string{"event"})
	sessions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "pos_cash_sessions_total",
		Help: "Cash session lifecycle events.",
	}, []string{"event"})
	compensations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "pos_compensations_total",
		Help: "Stock compensation runs after failed mutations.",
	}, []string{"result"})
	reg.MustRegister(reservations, units, orders, sessions, compensations)
	return &POSMetrics{
		reservations:  reservations,
		units:         units,
		orders:        orders,
		sessions:      sessions,
		compensations: compensations,
	}
}

// IncReservation counts one reservation attempt.
func (m *POSMetrics) IncReservation(result string) {
	if m == nil || m.reservations == nil {
		return
	}
	m.reservations.WithLabelValues(normalizeLabel(result)).Inc()
}

// AddUnits adds moved stock units in a direction.
func (m *POSMetrics) AddUnits(direction string, units int) {
	if m == nil || m.units == nil || units <= 0 {
		return
	}
	m.units.WithLabelValues(normalizeLabel(direction)).Add(float64(units))
}

func (m *POSMetrics) IncOrder(event string) {
	if m == nil || m.orders == nil {
		return
	}
	m.orders.WithLabelValues(normalizeLabel(event)).Inc()
}

func (m *POSMetrics) IncSession(event string) {
	if m == nil || m.sessions == nil {
		return
	}
	m.sessions.WithLabelValues(normalizeLabel(event)).Inc()
}

func (m *POSMetrics) IncCompensation(result string) {
	if m == nil || m.compensations == nil {
		return
	}
	m.compensations.WithLabelValues(normalizeLabel(result)).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
