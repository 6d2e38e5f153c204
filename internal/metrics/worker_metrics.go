package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Результаты публикации outbox-события.
const (
	PublishSent       = "sent"
	PublishRetryError = "retry_error"
	PublishFailed     = "failed"
	PublishDLQFailed  = "dlq_failed"
)

// WorkerMetrics описывает фоновые воркеры: доставку outbox и очистку ключей идемпотентности.
type WorkerMetrics struct {
	publishAttempts  *prometheus.CounterVec
	pendingRecords   prometheus.Gauge
	oldestPendingAge prometheus.Gauge
	cleanupRuns      *prometheus.CounterVec
	cleanupDeleted   prometheus.Counter
}

// NewWorkerMetrics регистрирует метрики воркеров в DefaultRegisterer.
func NewWorkerMetrics() *WorkerMetrics {
	return NewWorkerMetricsWithRegisterer(prometheus.DefaultRegisterer)
}

// NewWorkerMetricsWithRegisterer регистрирует метрики воркеров в registerer.
func NewWorkerMetricsWithRegisterer(registerer prometheus.Registerer) *WorkerMetrics {
	return &WorkerMetrics{
		publishAttempts: counterVec(registerer, prometheus.CounterOpts{
			Name: "delivery_outbox_publish_attempts_total",
			Help: "Total number of outbox publish attempts grouped by result.",
		}, "result"),
		pendingRecords: gauge(registerer, prometheus.GaugeOpts{
			Name: "delivery_outbox_pending_records",
			Help: "Current number of pending records in transactional outbox.",
		}),
		oldestPendingAge: gauge(registerer, prometheus.GaugeOpts{
			Name: "delivery_outbox_oldest_pending_age_seconds",
			Help: "Age in seconds of the oldest pending outbox record.",
		}),
		cleanupRuns: counterVec(registerer, prometheus.CounterOpts{
			Name: "delivery_idempotency_cleanup_runs_total",
			Help: "Total number of idempotency cleanup runs grouped by result.",
		}, "result"),
		cleanupDeleted: counter(registerer, prometheus.CounterOpts{
			Name: "delivery_idempotency_cleanup_deleted_total",
			Help: "Total number of expired idempotency keys deleted by cleanup worker.",
		}),
	}
}

// RecordPublish увеличивает счётчик попыток публикации с результатом result.
func (m *WorkerMetrics) RecordPublish(result string) {
	if m == nil {
		return
	}
	m.publishAttempts.WithLabelValues(result).Inc()
}

// SetBacklog выставляет размер backlog и возраст самой старой записи.
func (m *WorkerMetrics) SetBacklog(pending int, oldest, now time.Time) {
	if m == nil {
		return
	}
	m.pendingRecords.Set(float64(pending))
	if pending == 0 || oldest.IsZero() {
		m.oldestPendingAge.Set(0)
		return
	}
	age := now.Sub(oldest).Seconds()
	if age < 0 {
		age = 0
	}
	m.oldestPendingAge.Set(age)
}

// RecordCleanup фиксирует результат прогона очистки ключей идемпотентности.
func (m *WorkerMetrics) RecordCleanup(deleted int, err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.cleanupRuns.WithLabelValues(ResultStorageFail).Inc()
		return
	}
	m.cleanupRuns.WithLabelValues(ResultOK).Inc()
	m.cleanupDeleted.Add(float64(deleted))
}
