package kafka

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/IBM/sarama"
	log "github.com/sirupsen/logrus"
)

// EnvelopeHandler получает разобранное событие заказа.
type EnvelopeHandler func(ctx context.Context, envelope Envelope) error

// EventFilter отбирает события по типу и заказу; пустые поля пропускают всё.
type EventFilter struct {
	EventTypes []string
	OrderID    string
}

func (f EventFilter) match(envelope Envelope) bool {
	if f.OrderID != "" && envelope.AggregateID != f.OrderID {
		return false
	}
	if len(f.EventTypes) == 0 {
		return true
	}
	for _, eventType := range f.EventTypes {
		if eventType == envelope.EventType {
			return true
		}
	}
	return false
}

// ConsumerConfig задаёт consumer group для чтения событий заказов.
type ConsumerConfig struct {
	Brokers []string
	GroupID string
	Topic   string
	// FromOldest читает topic с начала, иначе только новые сообщения.
	FromOldest bool
	Filter     EventFilter
}

// ConsumerStats — счётчики сообщений с момента создания.
type ConsumerStats struct {
	Handled  int64
	Filtered int64
	Skipped  int64
	Failed   int64
}

// EventConsumer читает topic событий заказов и передаёт их обработчику.
//
// Сообщение, которое не удалось разобрать, логируется и коммитится:
// повторное чтение его не исправит. Ошибка обработчика оставляет offset
// на месте, и сообщение будет прочитано снова после rebalance.
type EventConsumer struct {
	group   sarama.ConsumerGroup
	topic   string
	filter  EventFilter
	handler EnvelopeHandler
	logger  *log.Entry

	handled, filtered, skipped, failed atomic.Int64
}

// NewConsumer подключается к брокерам и создаёт consumer group.
func NewConsumer(cfg ConsumerConfig, handler EnvelopeHandler) (*EventConsumer, error) {
	if len(cfg.Brokers) == 0 {
		return nil, errors.New("kafka brokers are not configured")
	}

	config := sarama.NewConfig()
	config.Consumer.Group.Rebalance.GroupStrategies = []sarama.BalanceStrategy{sarama.NewBalanceStrategyRoundRobin()}
	config.Consumer.Offsets.Initial = sarama.OffsetNewest
	if cfg.FromOldest {
		config.Consumer.Offsets.Initial = sarama.OffsetOldest
	}
	config.Consumer.Return.Errors = true

	group, err := sarama.NewConsumerGroup(cfg.Brokers, cfg.GroupID, config)
	if err != nil {
		return nil, fmt.Errorf("create consumer group %q: %w", cfg.GroupID, err)
	}
	return NewEventConsumer(group, cfg.Topic, cfg.Filter, handler, nil), nil
}

// NewEventConsumer оборачивает готовую consumer group. Пустой topic
// означает TopicOrderEvents.
func NewEventConsumer(group sarama.ConsumerGroup, topic string, filter EventFilter, handler EnvelopeHandler, logger *log.Entry) *EventConsumer {
	if topic == "" {
		topic = TopicOrderEvents
	}
	if logger == nil {
		logger = log.WithField("component", "kafka-event-consumer")
	}
	return &EventConsumer{
		group:   group,
		topic:   topic,
		filter:  filter,
		handler: handler,
		logger:  logger.WithField("topic", topic),
	}
}

// Run читает события, пока жив ctx, затем закрывает consumer group.
func (c *EventConsumer) Run(ctx context.Context) error {
	if c.handler == nil {
		return errors.New("kafka event handler is not set")
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for err := range c.group.Errors() {
			c.logger.WithError(err).Warn("consumer group error")
		}
	}()

	c.logger.Info("event consumer started")
	var runErr error
	for ctx.Err() == nil {
		// Consume возвращается на каждом rebalance.
		if err := c.group.Consume(ctx, []string{c.topic}, c); err != nil {
			if errors.Is(err, sarama.ErrClosedConsumerGroup) {
				break
			}
			c.logger.WithError(err).Error("consume failed")
			runErr = err
			break
		}
	}

	if err := c.group.Close(); err != nil && runErr == nil {
		runErr = fmt.Errorf("close consumer group: %w", err)
	}
	wg.Wait()
	c.logger.WithFields(log.Fields{
		"handled": c.handled.Load(),
		"skipped": c.skipped.Load(),
		"failed":  c.failed.Load(),
	}).Info("event consumer stopped")
	return runErr
}

// Stats возвращает текущие счётчики.
func (c *EventConsumer) Stats() ConsumerStats {
	return ConsumerStats{
		Handled:  c.handled.Load(),
		Filtered: c.filtered.Load(),
		Skipped:  c.skipped.Load(),
		Failed:   c.failed.Load(),
	}
}

func (c *EventConsumer) Setup(sarama.ConsumerGroupSession) error   { return nil }
func (c *EventConsumer) Cleanup(sarama.ConsumerGroupSession) error { return nil }

// ConsumeClaim обрабатывает сообщения одной партиции.
func (c *EventConsumer) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	ctx := session.Context()
	for {
		select {
		case <-ctx.Done():
			return nil
		case message, ok := <-claim.Messages():
			if !ok || message == nil {
				return nil
			}
			if c.deliver(ctx, message) {
				session.MarkMessage(message, "")
			}
		}
	}
}

// deliver возвращает true, если offset сообщения можно коммитить.
func (c *EventConsumer) deliver(ctx context.Context, message *sarama.ConsumerMessage) bool {
	logger := c.logger.WithFields(log.Fields{
		"partition": message.Partition,
		"offset":    message.Offset,
	})

	envelope, err := ParseEnvelope(message)
	if err != nil {
		c.skipped.Add(1)
		logger.WithError(err).Warn("skipping undecodable order event")
		return true
	}
	if !c.filter.match(envelope) {
		c.filtered.Add(1)
		return true
	}
	if err := c.handler(ctx, envelope); err != nil {
		c.failed.Add(1)
		logger.WithError(err).WithField("event_type", envelope.EventType).Error("order event handler failed")
		return false
	}
	c.handled.Add(1)
	return true
}
