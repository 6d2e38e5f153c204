package app

import (
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/delivery/internal/domain"
	"github.com/vladislavdragonenkov/delivery/internal/messaging/kafka"
	"github.com/vladislavdragonenkov/delivery/internal/service/outbox"
)

// publishers — куда outbox worker отправляет события.
type publishers struct {
	events   domain.OutboxPublisher
	dlq      domain.OutboxPublisher
	producer *kafka.Producer
}

// initPublishers подключает Kafka, если заданы brokers. Без Kafka или при
// ошибке подключения события только логируются.
func initPublishers(cfg Config, logger *log.Entry) publishers {
	fallback := publishers{events: outbox.NewLogPublisher(logger.WithField("publisher", "log"))}

	brokers := cfg.KafkaBrokerList()
	if len(brokers) == 0 {
		logger.Info("kafka brokers are not configured, order events are logged only")
		return fallback
	}

	producer, err := kafka.NewProducer(kafka.ProducerConfig{Brokers: brokers})
	if err != nil {
		logger.WithError(err).Warn("failed to create kafka producer, continuing without kafka")
		return fallback
	}

	logger.WithField("brokers", brokers).Info("kafka producer initialized")
	return publishers{
		events:   kafka.NewOutboxPublisher(producer, cfg.KafkaTopic),
		dlq:      kafka.NewDLQPublisher(producer, cfg.KafkaDLQTopic, cfg.KafkaTopic),
		producer: producer,
	}
}

// closeKafka закрывает Kafka producer если он не nil.
func closeKafka(producer *kafka.Producer, logger *log.Entry) {
	if producer == nil {
		return
	}

	if err := producer.Close(); err != nil {
		logger.WithError(err).Warn("failed to close kafka producer")
	} else {
		logger.Info("kafka producer closed")
	}
}
