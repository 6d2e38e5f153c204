package kafka

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/vladislavdragonenkov/delivery/internal/domain"
)

// OutboxTopicPublisher публикует outbox-сообщения заказов в Kafka.
type OutboxTopicPublisher struct {
	producer *Producer
	topic    string
	now      func() time.Time
}

// NewOutboxPublisher создаёт паблишер событий заказов. Пустой topic означает TopicOrderEvents.
func NewOutboxPublisher(producer *Producer, topic string) *OutboxTopicPublisher {
	if topic == "" {
		topic = TopicOrderEvents
	}
	return &OutboxTopicPublisher{
		producer: producer,
		topic:    topic,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Publish оборачивает событие в Envelope; ключом сообщения служит идентификатор заказа.
func (p *OutboxTopicPublisher) Publish(event domain.OutboxMessage) error {
	if p == nil || p.producer == nil {
		return fmt.Errorf("kafka outbox publisher is not initialized")
	}

	envelope := Envelope{
		ID:            event.ID,
		AggregateType: event.AggregateType,
		AggregateID:   event.AggregateID,
		EventType:     event.EventType,
		Payload:       json.RawMessage(event.Payload),
		PublishedAt:   p.now(),
	}
	return p.producer.PublishEvent(p.topic, messageKey(event), envelope, map[string]string{
		HeaderEventType: event.EventType,
	})
}

// DLQPublisher отправляет недоставленные события в dead letter topic как есть.
type DLQPublisher struct {
	producer    *Producer
	topic       string
	sourceTopic string
	now         func() time.Time
}

// NewDLQPublisher создаёт паблишер DLQ для событий из sourceTopic.
func NewDLQPublisher(producer *Producer, topic, sourceTopic string) *DLQPublisher {
	if topic == "" {
		topic = TopicDeadLetterQueue
	}
	if sourceTopic == "" {
		sourceTopic = TopicOrderEvents
	}
	return &DLQPublisher{
		producer:    producer,
		topic:       topic,
		sourceTopic: sourceTopic,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// Publish отправляет payload события без дополнительной обёртки.
func (p *DLQPublisher) Publish(event domain.OutboxMessage) error {
	if p == nil || p.producer == nil {
		return fmt.Errorf("kafka dlq publisher is not initialized")
	}
	return p.producer.Publish(p.topic, messageKey(event), event.Payload, map[string]string{
		HeaderEventType:     event.EventType,
		HeaderOriginalTopic: p.sourceTopic,
		HeaderFailedAt:      p.now().Format(time.RFC3339),
	})
}

func messageKey(event domain.OutboxMessage) string {
	if event.AggregateID != "" {
		return event.AggregateID
	}
	return event.ID
}

var (
	_ domain.OutboxPublisher = (*OutboxTopicPublisher)(nil)
	_ domain.OutboxPublisher = (*DLQPublisher)(nil)
)
