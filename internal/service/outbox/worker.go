package outbox

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/delivery/internal/domain"
	"github.com/vladislavdragonenkov/delivery/internal/metrics"
)

const (
	defaultPollInterval   = time.Second
	defaultBatchSize      = 100
	defaultMaxAttempts    = 3
	defaultRetryBaseDelay = 50 * time.Millisecond
)

// Option настраивает Worker. Нулевые и отрицательные значения оставляют значения по умолчанию.
type Option func(*Worker)

func WithLogger(logger *log.Entry) Option {
	return func(w *Worker) {
		if logger != nil {
			w.logger = logger
		}
	}
}

func WithMetrics(m *metrics.WorkerMetrics) Option {
	return func(w *Worker) { w.metrics = m }
}

// WithDLQPublisher включает отправку недоставленных событий в dead letter topic.
func WithDLQPublisher(publisher domain.OutboxPublisher) Option {
	return func(w *Worker) { w.dlq = publisher }
}

func WithPollInterval(interval time.Duration) Option {
	return func(w *Worker) {
		if interval > 0 {
			w.pollInterval = interval
		}
	}
}

func WithBatchSize(batchSize int) Option {
	return func(w *Worker) {
		if batchSize > 0 {
			w.batchSize = batchSize
		}
	}
}

// WithMaxAttempts задаёт число попыток публикации одного события.
func WithMaxAttempts(maxAttempts int) Option {
	return func(w *Worker) {
		if maxAttempts > 0 {
			w.maxAttempts = maxAttempts
		}
	}
}

// WithRetryBaseDelay задаёт первую паузу между попытками; 0 отключает паузы.
func WithRetryBaseDelay(delay time.Duration) Option {
	return func(w *Worker) {
		if delay >= 0 {
			w.retryBaseDelay = delay
		}
	}
}

func WithClock(clock func() time.Time) Option {
	return func(w *Worker) {
		if clock != nil {
			w.now = clock
		}
	}
}

// Result — итог одного прохода по outbox.
// Deferred — события заказа, предыдущее событие которого в этом проходе не доставлено.
type Result struct {
	Sent     int
	Failed   int
	Deferred int
}

// Worker публикует события заказов из outbox, сохраняя порядок событий одного заказа.
type Worker struct {
	repo      domain.OutboxRepository
	publisher domain.OutboxPublisher
	dlq       domain.OutboxPublisher
	metrics   *metrics.WorkerMetrics
	logger    *log.Entry

	pollInterval   time.Duration
	batchSize      int
	maxAttempts    int
	retryBaseDelay time.Duration
	now            func() time.Time
}

// NewWorker создаёт воркер доставки событий.
func NewWorker(repo domain.OutboxRepository, publisher domain.OutboxPublisher, options ...Option) *Worker {
	w := &Worker{
		repo:           repo,
		publisher:      publisher,
		logger:         log.WithField("component", "outbox-worker"),
		pollInterval:   defaultPollInterval,
		batchSize:      defaultBatchSize,
		maxAttempts:    defaultMaxAttempts,
		retryBaseDelay: defaultRetryBaseDelay,
		now:            func() time.Time { return time.Now().UTC() },
	}
	for _, option := range options {
		option(w)
	}
	return w
}

// Run опрашивает outbox каждые pollInterval до отмены ctx.
func (w *Worker) Run(ctx context.Context) {
	if w.repo == nil || w.publisher == nil {
		w.logger.Warn("outbox worker disabled: no repository or publisher")
		return
	}

	w.logger.WithFields(log.Fields{
		"poll_interval": w.pollInterval.String(),
		"batch_size":    w.batchSize,
		"dlq":           w.dlq != nil,
	}).Info("outbox worker started")

	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	for {
		w.ProcessOnce(ctx)
		select {
		case <-ctx.Done():
			w.logger.Info("outbox worker stopped")
			return
		case <-ticker.C:
		}
	}
}

// ProcessOnce публикует одну порцию pending-событий.
func (w *Worker) ProcessOnce(ctx context.Context) Result {
	var result Result
	if ctx.Err() != nil {
		return result
	}
	defer w.refreshBacklog()

	batch, err := w.repo.PullPending(w.batchSize)
	if err != nil {
		w.logger.WithError(err).Warn("failed to pull pending order events")
		return result
	}

	blocked := make(map[string]struct{})
	for _, event := range batch {
		if ctx.Err() != nil {
			break
		}
		if _, ok := blocked[event.AggregateID]; ok {
			result.Deferred++
			continue
		}

		err := w.publish(ctx, event)
		switch {
		case err == nil:
			result.Sent++
			if err := w.repo.MarkSent(event.ID); err != nil {
				w.eventLogger(event).WithError(err).Warn("failed to mark order event as sent")
			}
		case ctx.Err() != nil:
			// событие остаётся pending до следующего запуска
		default:
			result.Failed++
			blocked[event.AggregateID] = struct{}{}
			w.deadLetter(event, err)
		}
	}

	if result != (Result{}) {
		w.logger.WithFields(log.Fields{
			"sent":     result.Sent,
			"failed":   result.Failed,
			"deferred": result.Deferred,
		}).Debug("outbox batch processed")
	}
	return result
}

func (w *Worker) eventLogger(event domain.OutboxMessage) *log.Entry {
	return w.logger.WithFields(log.Fields{
		"outbox_id":  event.ID,
		"order_id":   event.AggregateID,
		"event_type": event.EventType,
	})
}

// publish делает до maxAttempts попыток с удвоением паузы.
func (w *Worker) publish(ctx context.Context, event domain.OutboxMessage) error {
	var lastErr error
	for attempt := 1; attempt <= w.maxAttempts; attempt++ {
		if lastErr = w.publisher.Publish(event); lastErr == nil {
			w.metrics.RecordPublish(metrics.PublishSent)
			return nil
		}
		w.metrics.RecordPublish(metrics.PublishRetryError)
		if attempt == w.maxAttempts {
			break
		}
		if delay := w.retryBackoff(attempt); delay > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}
	return fmt.Errorf("%w after %d attempts: %w", domain.ErrOutboxPublish, w.maxAttempts, lastErr)
}

// deadLetter переводит событие в failed и, если настроен DLQ, отправляет его туда.
func (w *Worker) deadLetter(event domain.OutboxMessage, publishErr error) {
	logger := w.eventLogger(event)
	logger.WithError(publishErr).Error("order event not delivered")
	w.metrics.RecordPublish(metrics.PublishFailed)

	if w.dlq != nil {
		letter, err := w.newDeadLetter(event, publishErr)
		if err == nil {
			err = w.dlq.Publish(letter)
		}
		if err != nil {
			logger.WithError(err).Warn("failed to publish order event to DLQ")
			w.metrics.RecordPublish(metrics.PublishDLQFailed)
		}
	}
	if err := w.repo.MarkFailed(event.ID); err != nil {
		logger.WithError(err).Warn("failed to mark order event as failed")
	}
}

func (w *Worker) refreshBacklog() {
	stats, err := w.repo.Stats()
	if err != nil {
		w.logger.WithError(err).Warn("failed to collect outbox backlog stats")
		return
	}
	w.metrics.SetBacklog(stats.PendingCount, stats.OldestPendingAt, w.now())
}

// retryBackoff: base, 2*base, 4*base... без переполнения.
func (w *Worker) retryBackoff(attempt int) time.Duration {
	if w.retryBaseDelay <= 0 {
		return 0
	}
	const maxDelay = time.Duration(1<<63 - 1)
	delay := w.retryBaseDelay
	for i := 1; i < attempt; i++ {
		if delay > maxDelay/2 {
			return maxDelay
		}
		delay *= 2
	}
	return delay
}

// DeadLetter — тело сообщения в DLQ: исходное событие заказа и причина отказа.
type DeadLetter struct {
	OutboxID      string          `json:"outbox_id"`
	AggregateType string          `json:"aggregate_type"`
	AggregateID   string          `json:"aggregate_id"`
	EventType     string          `json:"event_type"`
	Payload       json.RawMessage `json:"payload"`
	PublishError  string          `json:"publish_error"`
	FailedAt      time.Time       `json:"failed_at"`
}

func (w *Worker) newDeadLetter(event domain.OutboxMessage, publishErr error) (domain.OutboxMessage, error) {
	letter := DeadLetter{
		OutboxID:      event.ID,
		AggregateType: event.AggregateType,
		AggregateID:   event.AggregateID,
		EventType:     event.EventType,
		PublishError:  publishErr.Error(),
		FailedAt:      w.now(),
	}
	if json.Valid(event.Payload) {
		letter.Payload = json.RawMessage(event.Payload)
	}
	body, err := json.Marshal(letter)
	if err != nil {
		return domain.OutboxMessage{}, fmt.Errorf("marshal dead letter: %w", err)
	}

	out := event
	out.Payload = body
	return out, nil
}
