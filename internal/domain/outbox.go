package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// События заказа, которые уходят через outbox. Ключ партиции: AggregateID.
const (
	EventOrderCreated       = "order.created"
	EventOrderStatusChanged = "order.status_changed"
	EventOrderCanceled      = "order.canceled"

	AggregateOrder = "order"
)

// ErrOutboxMessageInvalid — сообщение нельзя поставить в outbox.
var ErrOutboxMessageInvalid = errors.New("invalid outbox message")

// OutboxMessage — событие заказа, ожидающее публикации.
type OutboxMessage struct {
	ID            string
	AggregateType string
	AggregateID   string
	EventType     string
	Payload       []byte
}

// NewOrderOutboxMessage собирает событие по заказу orderID.
func NewOrderOutboxMessage(id, eventType, orderID string, payload []byte) OutboxMessage {
	return OutboxMessage{
		ID:            id,
		AggregateType: AggregateOrder,
		AggregateID:   orderID,
		EventType:     eventType,
		Payload:       payload,
	}
}

// IsOrderEvent сообщает, что eventType является событием заказа.
func IsOrderEvent(eventType string) bool {
	switch eventType {
	case EventOrderCreated, EventOrderStatusChanged, EventOrderCanceled:
		return true
	}
	return false
}

// Validate проверяет сообщение перед записью в outbox. ID может быть пустым,
// тогда его генерирует хранилище.
func (m OutboxMessage) Validate() error {
	if strings.TrimSpace(m.AggregateID) == "" {
		return fmt.Errorf("%w: aggregate id is required", ErrOutboxMessageInvalid)
	}
	if !IsOrderEvent(m.EventType) {
		return fmt.Errorf("%w: unknown event type %q", ErrOutboxMessageInvalid, m.EventType)
	}
	return nil
}

// OutboxStats — размер backlog и возраст самого старого pending-сообщения.
type OutboxStats struct {
	PendingCount    int
	OldestPendingAt time.Time
}

// OutboxRepository хранит события до подтверждения публикации.
type OutboxRepository interface {
	Enqueue(msg OutboxMessage) (OutboxMessage, error)
	// PullPending отдаёт pending-сообщения, самые старые первыми.
	PullPending(limit int) ([]OutboxMessage, error)
	Stats() (OutboxStats, error)
	MarkSent(id string) error
	MarkFailed(id string) error
}

// OutboxPublisher доставляет событие во внешний брокер.
type OutboxPublisher interface {
	Publish(event OutboxMessage) error
}
