package idempotency

import (
	"context"
	"errors"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/delivery/internal/domain"
	"github.com/vladislavdragonenkov/delivery/internal/metrics"
)

const (
	defaultCleanupInterval  = 10 * time.Minute
	defaultCleanupBatchSize = 500
)

// CleanupOption настраивает CleanupWorker.
type CleanupOption func(*CleanupWorker)

func WithLogger(logger *log.Entry) CleanupOption {
	return func(w *CleanupWorker) {
		if logger != nil {
			w.logger = logger
		}
	}
}

func WithMetrics(m *metrics.WorkerMetrics) CleanupOption {
	return func(w *CleanupWorker) { w.metrics = m }
}

func WithClock(clock func() time.Time) CleanupOption {
	return func(w *CleanupWorker) {
		if clock != nil {
			w.now = clock
		}
	}
}

// WithInterval задаёт паузу между проходами; значения <= 0 игнорируются.
func WithInterval(interval time.Duration) CleanupOption {
	return func(w *CleanupWorker) {
		if interval > 0 {
			w.interval = interval
		}
	}
}

// WithBatchSize ограничивает число ключей, удаляемых одним запросом.
func WithBatchSize(batchSize int) CleanupOption {
	return func(w *CleanupWorker) {
		if batchSize > 0 {
			w.batchSize = batchSize
		}
	}
}

// SweepResult — итог одного прохода очистки.
type SweepResult struct {
	Deleted int
	Batches int
}

// CleanupWorker удаляет сохранённые ответы на создание заказа, у которых истёк TTL.
type CleanupWorker struct {
	repo      domain.IdempotencyRepository
	metrics   *metrics.WorkerMetrics
	logger    *log.Entry
	interval  time.Duration
	batchSize int
	now       func() time.Time
}

// NewCleanupWorker создаёт воркер очистки поверх хранилища ключей.
func NewCleanupWorker(repo domain.IdempotencyRepository, options ...CleanupOption) *CleanupWorker {
	w := &CleanupWorker{
		repo:      repo,
		logger:    log.WithField("component", "idempotency-cleanup-worker"),
		interval:  defaultCleanupInterval,
		batchSize: defaultCleanupBatchSize,
		now:       func() time.Time { return time.Now().UTC() },
	}
	for _, option := range options {
		option(w)
	}
	return w
}

// Run выполняет проход сразу и затем каждые interval, пока жив ctx.
func (w *CleanupWorker) Run(ctx context.Context) {
	if w.repo == nil {
		w.logger.Warn("idempotency cleanup disabled: no repository")
		return
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		w.runOnce(ctx)
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (w *CleanupWorker) runOnce(ctx context.Context) {
	result, err := w.Sweep(ctx, w.now())
	switch {
	case errors.Is(err, context.Canceled):
		return
	case err != nil:
		w.metrics.RecordCleanup(result.Deleted, err)
		w.logger.WithError(err).WithFields(log.Fields{
			"deleted": result.Deleted,
			"batches": result.Batches,
		}).Warn("idempotency cleanup failed")
		return
	}

	w.metrics.RecordCleanup(result.Deleted, nil)
	if result.Deleted > 0 {
		w.logger.WithFields(log.Fields{
			"deleted": result.Deleted,
			"batches": result.Batches,
		}).Info("expired idempotency keys removed")
	}
}

// Sweep удаляет ключи с TTL не позже before порциями по batchSize,
// пока очередная порция не окажется неполной.
func (w *CleanupWorker) Sweep(ctx context.Context, before time.Time) (SweepResult, error) {
	var result SweepResult
	if before.IsZero() {
		before = w.now()
	}

	for ctx.Err() == nil {
		deleted, err := w.repo.DeleteExpired(before, w.batchSize)
		if err != nil {
			return result, err
		}
		result.Batches++
		result.Deleted += deleted
		if deleted < w.batchSize {
			return result, nil
		}
	}
	return result, ctx.Err()
}
