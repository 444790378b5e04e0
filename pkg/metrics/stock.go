package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// StockMetrics counts inventory mutations as they are committed.
type StockMetrics struct {
	movements  *prometheus.CounterVec
	rejections *prometheus.CounterVec
}

// NewStockMetrics registers the stock counters on the provided registerer.
func NewStockMetrics(reg prometheus.Registerer) *StockMetrics {
	if reg == nil {
		return &StockMetrics{}
	}
	movements := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "stock_movements_total",
		Help: "Stock movements recorded, by direction and cause.",
	}, []string{"direction", "cause"})
	rejections := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "stock_rejections_total",
		Help: "Stock operations rejected for insufficient availability.",
	}, []string{"cause"})
	reg.MustRegister(movements, rejections)
	return &StockMetrics{
		movements:  movements,
		rejections: rejections,
	}
}

// IncMovement counts a committed movement by direction and cause.
func (s *StockMetrics) IncMovement(direction, cause string) {
	if s == nil || s.movements == nil {
		return
	}
	s.movements.WithLabelValues(normalizeLabel(direction), normalizeLabel(cause)).Inc()
}

// IncRejection counts a depletion rejected for lack of stock.
func (s *StockMetrics) IncRejection(cause string) {
	if s == nil || s.rejections == nil {
		return
	}
	s.rejections.WithLabelValues(normalizeLabel(cause)).Inc()
}
