package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
)

// Результаты операций для label result.
const (
	ResultOK          = "ok"
	ResultNotFound    = "not_found"
	ResultRejected    = "rejected"
	ResultConflict    = "conflict"
	ResultStorageFail = "error"
)

// OrderMetrics содержит метрики жизненного цикла заказов.
type OrderMetrics struct {
	// Операции: create, preview, update_status, cancel.
	operations        *prometheus.CounterVec
	operationDuration *prometheus.HistogramVec

	orderTotal     prometheus.Histogram
	orderLines     prometheus.Histogram
	statusChanges  *prometheus.CounterVec
	timelineEvents prometheus.Counter
	outboxEvents   prometheus.Counter
	sideEffectErrs *prometheus.CounterVec
}

// NewOrderMetrics регистрирует метрики заказов в DefaultRegisterer.
func NewOrderMetrics() *OrderMetrics {
	return NewOrderMetricsWithRegisterer(prometheus.DefaultRegisterer)
}

// NewOrderMetricsWithRegisterer регистрирует метрики в указанном registerer.
func NewOrderMetricsWithRegisterer(registerer prometheus.Registerer) *OrderMetrics {
	return &OrderMetrics{
		operations: counterVec(registerer, prometheus.CounterOpts{
			Name: "delivery_order_operations_total",
			Help: "Total number of order operations grouped by operation and result",
		}, "operation", "result"),
		operationDuration: histogramVec(registerer, prometheus.HistogramOpts{
			Name:    "delivery_order_operation_duration_seconds",
			Help:    "Duration of order operations in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5},
		}, "operation"),
		orderTotal: histogram(registerer, prometheus.HistogramOpts{
			Name:    "delivery_order_total_amount",
			Help:    "Total amount of created orders",
			Buckets: []float64{10, 25, 50, 100, 200, 500, 1000},
		}),
		orderLines: histogram(registerer, prometheus.HistogramOpts{
			Name:    "delivery_order_lines",
			Help:    "Number of lines per created order",
			Buckets: []float64{1, 2, 3, 5, 8, 13, 21},
		}),
		statusChanges: counterVec(registerer, prometheus.CounterOpts{
			Name: "delivery_order_status_changes_total",
			Help: "Total number of order status changes grouped by target status",
		}, "status"),
		timelineEvents: counter(registerer, prometheus.CounterOpts{
			Name: "delivery_timeline_events_total",
			Help: "Total number of timeline events recorded",
		}),
		outboxEvents: counter(registerer, prometheus.CounterOpts{
			Name: "delivery_outbox_events_enqueued_total",
			Help: "Total number of order events enqueued to outbox",
		}),
		sideEffectErrs: counterVec(registerer, prometheus.CounterOpts{
			Name: "delivery_order_side_effect_errors_total",
			Help: "Failures of best-effort side effects (timeline, outbox)",
		}, "kind"),
	}
}

// ObserveOperation фиксирует результат и длительность операции.
func (m *OrderMetrics) ObserveOperation(operation, result string, started time.Time) {
	if m == nil {
		return
	}
	m.operations.WithLabelValues(operation, result).Inc()
	m.operationDuration.WithLabelValues(operation).Observe(time.Since(started).Seconds())
}

// RecordOrderCreated фиксирует сумму и размер созданного заказа.
func (m *OrderMetrics) RecordOrderCreated(total decimal.Decimal, lines int) {
	if m == nil {
		return
	}
	m.orderTotal.Observe(total.InexactFloat64())
	m.orderLines.Observe(float64(lines))
}

// RecordStatusChange увеличивает счётчик переходов в status.
func (m *OrderMetrics) RecordStatusChange(status string) {
	if m == nil {
		return
	}
	m.statusChanges.WithLabelValues(status).Inc()
}

// RecordTimelineEvent увеличивает счётчик событий timeline.
func (m *OrderMetrics) RecordTimelineEvent() {
	if m == nil {
		return
	}
	m.timelineEvents.Inc()
}

// RecordOutboxEvent увеличивает счётчик событий, поставленных в outbox.
func (m *OrderMetrics) RecordOutboxEvent() {
	if m == nil {
		return
	}
	m.outboxEvents.Inc()
}

// RecordSideEffectError фиксирует сбой timeline/outbox, не влияющий на ответ.
func (m *OrderMetrics) RecordSideEffectError(kind string) {
	if m == nil {
		return
	}
	m.sideEffectErrs.WithLabelValues(kind).Inc()
}
