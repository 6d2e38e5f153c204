package app

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/delivery/internal/messaging/kafka"
)

// Поддерживаемые хранилища.
const (
	StorageDriverMemory   = "memory"
	StorageDriverPostgres = "postgres"
)

// Config описывает настройки запуска сервиса доставки.
type Config struct {
	HTTPAddr    string
	GRPCAddr    string
	MetricsAddr string
	LogLevel    string

	StorageDriver       string
	PostgresDSN         string
	PostgresAutoMigrate bool
	Seed                bool

	KafkaBrokers  string
	KafkaTopic    string
	KafkaDLQTopic string

	OutboxPollInterval time.Duration
	OutboxBatchSize    int
	OutboxMaxAttempts  int
	OutboxRetryDelay   time.Duration
	OutboxMaxPending   int

	IdempotencyTTL              time.Duration
	IdempotencyCleanupInterval  time.Duration
	IdempotencyCleanupBatchSize int
}

// DefaultConfig возвращает настройки для локального запуска на in-memory хранилище.
func DefaultConfig() Config {
	return Config{
		HTTPAddr:                    ":8080",
		GRPCAddr:                    ":50051",
		MetricsAddr:                 ":9090",
		LogLevel:                    "info",
		StorageDriver:               StorageDriverMemory,
		PostgresAutoMigrate:         true,
		KafkaTopic:                  kafka.TopicOrderEvents,
		KafkaDLQTopic:               kafka.TopicDeadLetterQueue,
		OutboxPollInterval:          time.Second,
		OutboxBatchSize:             100,
		OutboxMaxAttempts:           3,
		OutboxRetryDelay:            100 * time.Millisecond,
		OutboxMaxPending:            1000,
		IdempotencyTTL:              24 * time.Hour,
		IdempotencyCleanupInterval:  time.Minute,
		IdempotencyCleanupBatchSize: 500,
	}
}

// LoadDotEnv подгружает .env, если файл есть. Уже заданные переменные не перезаписываются.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, path := range paths {
		if err := godotenv.Load(path); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("load %s: %w", path, err)
		}
	}
	return nil
}

// ConfigFromEnv накладывает переменные окружения на DefaultConfig.
func ConfigFromEnv() (Config, error) {
	return configFromLookup(os.LookupEnv)
}

func configFromLookup(lookup func(string) (string, bool)) (Config, error) {
	cfg := DefaultConfig()
	var errs []error

	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok {
			*dst = strings.TrimSpace(v)
		}
	}
	boolean := func(key string, dst *bool) {
		v, ok := lookup(key)
		if !ok || strings.TrimSpace(v) == "" {
			return
		}
		parsed, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", key, err))
			return
		}
		*dst = parsed
	}
	integer := func(key string, dst *int) {
		v, ok := lookup(key)
		if !ok || strings.TrimSpace(v) == "" {
			return
		}
		parsed, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", key, err))
			return
		}
		*dst = parsed
	}
	duration := func(key string, dst *time.Duration) {
		v, ok := lookup(key)
		if !ok || strings.TrimSpace(v) == "" {
			return
		}
		parsed, err := time.ParseDuration(strings.TrimSpace(v))
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", key, err))
			return
		}
		*dst = parsed
	}

	str("DELIVERY_HTTP_ADDR", &cfg.HTTPAddr)
	str("DELIVERY_GRPC_ADDR", &cfg.GRPCAddr)
	str("DELIVERY_METRICS_ADDR", &cfg.MetricsAddr)
	str("DELIVERY_LOG_LEVEL", &cfg.LogLevel)
	str("DELIVERY_STORAGE_DRIVER", &cfg.StorageDriver)
	str("DELIVERY_POSTGRES_DSN", &cfg.PostgresDSN)
	boolean("DELIVERY_POSTGRES_AUTO_MIGRATE", &cfg.PostgresAutoMigrate)
	boolean("DELIVERY_SEED", &cfg.Seed)
	str("KAFKA_BROKERS", &cfg.KafkaBrokers)
	str("DELIVERY_KAFKA_TOPIC", &cfg.KafkaTopic)
	str("DELIVERY_KAFKA_DLQ_TOPIC", &cfg.KafkaDLQTopic)
	duration("DELIVERY_OUTBOX_POLL_INTERVAL", &cfg.OutboxPollInterval)
	integer("DELIVERY_OUTBOX_BATCH_SIZE", &cfg.OutboxBatchSize)
	integer("DELIVERY_OUTBOX_MAX_ATTEMPTS", &cfg.OutboxMaxAttempts)
	duration("DELIVERY_OUTBOX_RETRY_DELAY", &cfg.OutboxRetryDelay)
	integer("DELIVERY_OUTBOX_MAX_PENDING", &cfg.OutboxMaxPending)
	duration("DELIVERY_IDEMPOTENCY_TTL", &cfg.IdempotencyTTL)
	duration("DELIVERY_IDEMPOTENCY_CLEANUP_INTERVAL", &cfg.IdempotencyCleanupInterval)
	integer("DELIVERY_IDEMPOTENCY_CLEANUP_BATCH_SIZE", &cfg.IdempotencyCleanupBatchSize)

	cfg.StorageDriver = strings.ToLower(cfg.StorageDriver)
	if len(errs) > 0 {
		return Config{}, fmt.Errorf("invalid configuration: %w", errors.Join(errs...))
	}
	return cfg, nil
}

// KafkaBrokerList разбирает KAFKA_BROKERS через запятую.
func (c Config) KafkaBrokerList() []string {
	var brokers []string
	for _, broker := range strings.Split(c.KafkaBrokers, ",") {
		if broker = strings.TrimSpace(broker); broker != "" {
			brokers = append(brokers, broker)
		}
	}
	return brokers
}

// ConfigureLogging выставляет формат и уровень логов logrus.
func ConfigureLogging(level string) error {
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	if strings.TrimSpace(level) == "" {
		return nil
	}
	parsed, err := log.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("parse log level: %w", err)
	}
	log.SetLevel(parsed)
	return nil
}
