package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vladislavdragonenkov/delivery/internal/domain"
	"github.com/vladislavdragonenkov/delivery/internal/metrics"
	"github.com/vladislavdragonenkov/delivery/internal/storage/memory"
)

func orderEvent(id, orderID string) domain.OutboxMessage {
	return domain.OutboxMessage{
		ID:            id,
		AggregateType: domain.AggregateOrder,
		AggregateID:   orderID,
		EventType:     domain.EventOrderStatusChanged,
		Payload:       []byte(`{"status":"CONFIRMED"}`),
	}
}

func newTestWorker(repo domain.OutboxRepository, publisher domain.OutboxPublisher, opts ...Option) *Worker {
	base := []Option{
		WithRetryBaseDelay(0),
		WithMaxAttempts(3),
		WithMetrics(metrics.NewWorkerMetricsWithRegisterer(prometheus.NewRegistry())),
	}
	return NewWorker(repo, publisher, append(base, opts...)...)
}

func TestWorker_ProcessOnce_MarkSent(t *testing.T) {
	t.Parallel()

	repo := memory.NewOutboxRepository()
	_, err := repo.Enqueue(orderEvent("msg-1", "order-1"))
	require.NoError(t, err)
	publisher := &stubPublisher{}

	result := newTestWorker(repo, publisher).ProcessOnce(context.Background())

	assert.Equal(t, Result{Sent: 1}, result)
	assert.Equal(t, 1, publisher.calls())
	assert.Empty(t, repo.Pending(""))

	stats, err := repo.Stats()
	require.NoError(t, err)
	assert.Zero(t, stats.PendingCount)
}

func TestWorker_ProcessOnce_MarkFailedAndDLQAfterRetries(t *testing.T) {
	t.Parallel()

	repo := &stubOutboxRepo{pending: []domain.OutboxMessage{orderEvent("msg-2", "order-2")}}
	publisher := &stubPublisher{err: errors.New("broker down")}
	dlq := &stubPublisher{}
	failedAt := time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)

	worker := newTestWorker(repo, publisher,
		WithDLQPublisher(dlq),
		WithClock(func() time.Time { return failedAt }),
	)
	result := worker.ProcessOnce(context.Background())

	assert.Equal(t, Result{Failed: 1}, result)
	assert.Equal(t, 3, publisher.calls())
	assert.Empty(t, repo.sentIDs)
	assert.Equal(t, []string{"msg-2"}, repo.failedIDs)
	require.Equal(t, 1, dlq.calls())

	var letter DeadLetter
	require.NoError(t, json.Unmarshal(dlq.last().Payload, &letter))
	assert.Equal(t, "msg-2", letter.OutboxID)
	assert.Equal(t, "order-2", letter.AggregateID)
	assert.Contains(t, letter.PublishError, "broker down")
	assert.JSONEq(t, `{"status":"CONFIRMED"}`, string(letter.Payload))
	assert.True(t, letter.FailedAt.Equal(failedAt))
}

func TestWorker_ProcessOnce_SuccessAfterRetry(t *testing.T) {
	t.Parallel()

	repo := &stubOutboxRepo{pending: []domain.OutboxMessage{orderEvent("msg-3", "order-3")}}
	publisher := &stubPublisher{
		sequenceErrors: []error{errors.New("attempt 1"), errors.New("attempt 2"), nil},
	}

	result := newTestWorker(repo, publisher).ProcessOnce(context.Background())

	assert.Equal(t, Result{Sent: 1}, result)
	assert.Equal(t, 3, publisher.calls())
	assert.Equal(t, []string{"msg-3"}, repo.sentIDs)
	assert.Empty(t, repo.failedIDs)
}

func TestWorker_ProcessOnce_RespectsBatchSize(t *testing.T) {
	t.Parallel()

	repo := memory.NewOutboxRepository()
	for _, id := range []string{"a", "b", "c"} {
		_, err := repo.Enqueue(orderEvent(id, "order-"+id))
		require.NoError(t, err)
	}
	publisher := &stubPublisher{}
	worker := newTestWorker(repo, publisher, WithBatchSize(2))

	assert.Equal(t, Result{Sent: 2}, worker.ProcessOnce(context.Background()))
	assert.Equal(t, Result{Sent: 1}, worker.ProcessOnce(context.Background()))
	assert.Equal(t, Result{}, worker.ProcessOnce(context.Background()))
}

func TestWorker_ProcessOnce_DefersLaterEventsOfFailedOrder(t *testing.T) {
	t.Parallel()

	repo := memory.NewOutboxRepository()
	for _, msg := range []domain.OutboxMessage{
		domain.NewOrderOutboxMessage("a", domain.EventOrderCreated, "order-1", []byte(`{}`)),
		domain.NewOrderOutboxMessage("b", domain.EventOrderCreated, "order-2", []byte(`{}`)),
		domain.NewOrderOutboxMessage("c", domain.EventOrderStatusChanged, "order-1", []byte(`{}`)),
	} {
		_, err := repo.Enqueue(msg)
		require.NoError(t, err)
	}
	publisher := &stubPublisher{failFor: "order-1"}
	worker := newTestWorker(repo, publisher)

	assert.Equal(t, Result{Sent: 1, Failed: 1, Deferred: 1}, worker.ProcessOnce(context.Background()))
	// три попытки для "a", одна для "b", "c" не трогали
	assert.Equal(t, 4, publisher.calls())

	pending := repo.Pending("order-1")
	require.Len(t, pending, 1)
	assert.Equal(t, "c", pending[0].ID)

	publisher.mu.Lock()
	publisher.failFor = ""
	publisher.mu.Unlock()
	assert.Equal(t, Result{Sent: 1}, worker.ProcessOnce(context.Background()))
}

func TestWorker_RetryBackoff(t *testing.T) {
	t.Parallel()

	worker := NewWorker(nil, nil, WithRetryBaseDelay(10*time.Millisecond))

	assert.Equal(t, 10*time.Millisecond, worker.retryBackoff(1))
	assert.Equal(t, 20*time.Millisecond, worker.retryBackoff(2))
	assert.Equal(t, 40*time.Millisecond, worker.retryBackoff(3))
	assert.Equal(t, time.Duration(1<<63-1), worker.retryBackoff(80))
}

func TestWorker_Run_StopsOnContextCancel(t *testing.T) {
	t.Parallel()

	worker := newTestWorker(&stubOutboxRepo{}, &stubPublisher{}, WithPollInterval(5*time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		worker.Run(ctx)
	}()

	time.Sleep(15 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker did not stop on context cancel")
	}
}

func TestLogPublisher_AlwaysSucceeds(t *testing.T) {
	t.Parallel()

	require.NoError(t, NewLogPublisher(nil).Publish(orderEvent("msg-4", "order-4")))
}

type stubOutboxRepo struct {
	mu        sync.Mutex
	pending   []domain.OutboxMessage
	sentIDs   []string
	failedIDs []string
}

func (s *stubOutboxRepo) Enqueue(msg domain.OutboxMessage) (domain.OutboxMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = append(s.pending, msg)
	return msg, nil
}

func (s *stubOutboxRepo) PullPending(limit int) ([]domain.OutboxMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if limit <= 0 || limit >= len(s.pending) {
		return append([]domain.OutboxMessage(nil), s.pending...), nil
	}
	return append([]domain.OutboxMessage(nil), s.pending[:limit]...), nil
}

func (s *stubOutboxRepo) Stats() (domain.OutboxStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stats := domain.OutboxStats{PendingCount: len(s.pending)}
	if len(s.pending) > 0 {
		stats.OldestPendingAt = time.Now().UTC().Add(-time.Second)
	}
	return stats, nil
}

func (s *stubOutboxRepo) MarkSent(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sentIDs = append(s.sentIDs, id)
	return nil
}

func (s *stubOutboxRepo) MarkFailed(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failedIDs = append(s.failedIDs, id)
	return nil
}

type stubPublisher struct {
	mu             sync.Mutex
	err            error
	failFor        string
	sequenceErrors []error
	published      []domain.OutboxMessage
}

func (s *stubPublisher) Publish(event domain.OutboxMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.published = append(s.published, event)
	if s.failFor != "" && event.AggregateID == s.failFor {
		return errors.New("partition unavailable")
	}
	if len(s.sequenceErrors) > 0 {
		err := s.sequenceErrors[0]
		s.sequenceErrors = s.sequenceErrors[1:]
		return err
	}
	return s.err
}

func (s *stubPublisher) calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.published)
}

func (s *stubPublisher) last() domain.OutboxMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.published[len(s.published)-1]
}

var (
	_ domain.OutboxRepository = (*stubOutboxRepo)(nil)
	_ domain.OutboxPublisher  = (*stubPublisher)(nil)
)
