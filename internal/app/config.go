package app

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/ecom/internal/messaging/kafka"
)

const (
	// StorageDriverMemory хранит данные в памяти процесса.
	StorageDriverMemory = "memory"
	// StorageDriverPostgres хранит данные в PostgreSQL.
	StorageDriverPostgres = "postgres"

	// DefaultRelayMetricsAddr: адрес метрик outbox-relay, если ECOM_METRICS_ADDR не задан.
	DefaultRelayMetricsAddr = ":9090"
)

// Переменные окружения конфигурации.
const (
	EnvStorageDriver       = "ECOM_STORAGE_DRIVER"
	EnvPostgresDSN         = "ECOM_POSTGRES_DSN"
	EnvPostgresAutoMigrate = "ECOM_POSTGRES_AUTO_MIGRATE"
	EnvLogLevel            = "ECOM_LOG_LEVEL"
	EnvMetricsAddr         = "ECOM_METRICS_ADDR"
	EnvKafkaBrokers        = "ECOM_KAFKA_BROKERS"
	EnvKafkaTopic          = "ECOM_KAFKA_TOPIC"
	EnvKafkaDLQTopic       = "ECOM_KAFKA_DLQ_TOPIC"
	EnvOutboxPollInterval  = "ECOM_OUTBOX_POLL_INTERVAL"
	EnvOutboxBatchSize     = "ECOM_OUTBOX_BATCH_SIZE"
	EnvOutboxMaxAttempts   = "ECOM_OUTBOX_MAX_ATTEMPTS"
	EnvOutboxRetryDelay    = "ECOM_OUTBOX_RETRY_DELAY"
	EnvOutboxMaxPending    = "ECOM_OUTBOX_MAX_PENDING"
	EnvOutboxMaxAge        = "ECOM_OUTBOX_MAX_AGE"
)

// Config описывает настройки запуска CLI и outbox-relay.
type Config struct {
	StorageDriver       string
	PostgresDSN         string
	PostgresAutoMigrate bool
	LogLevel            log.Level
	// MetricsAddr пустой: HTTP-сервер метрик не запускается.
	MetricsAddr string

	// KafkaBrokers: список брокеров через запятую; пустой отключает публикацию.
	KafkaBrokers  string
	KafkaTopic    string
	KafkaDLQTopic string

	OutboxPollInterval time.Duration
	OutboxBatchSize    int
	OutboxMaxAttempts  int
	OutboxRetryDelay   time.Duration
	OutboxMaxPending   int
	OutboxMaxAge       time.Duration
}

// DefaultConfig возвращает конфигурацию для локального запуска без внешних зависимостей.
func DefaultConfig() Config {
	return Config{
		StorageDriver:       StorageDriverMemory,
		PostgresAutoMigrate: true,
		LogLevel:            log.InfoLevel,
		KafkaTopic:          kafka.TopicOrderEvents,
		KafkaDLQTopic:       kafka.TopicDeadLetterQueue,
		OutboxPollInterval:  time.Second,
		OutboxBatchSize:     100,
		OutboxMaxAttempts:   3,
		OutboxRetryDelay:    100 * time.Millisecond,
		OutboxMaxPending:    1000,
		OutboxMaxAge:        5 * time.Minute,
	}
}

// Brokers разбирает KafkaBrokers в список адресов.
func (c Config) Brokers() []string {
	var brokers []string
	for _, broker := range strings.Split(c.KafkaBrokers, ",") {
		if broker = strings.TrimSpace(broker); broker != "" {
			brokers = append(brokers, broker)
		}
	}
	return brokers
}

// Validate проверяет согласованность настроек хранилища.
func (c Config) Validate() error {
	switch c.StorageDriver {
	case StorageDriverMemory:
		return nil
	case StorageDriverPostgres:
		if strings.TrimSpace(c.PostgresDSN) == "" {
			return fmt.Errorf("%s is required for %s storage driver", EnvPostgresDSN, StorageDriverPostgres)
		}
		return nil
	default:
		return fmt.Errorf("unsupported storage driver: %q", c.StorageDriver)
	}
}

// EnvLookup совпадает по сигнатуре с os.LookupEnv.
type EnvLookup func(key string) (string, bool)

// LoadConfig читает переопределения из окружения поверх DefaultConfig.
// Некорректные значения не прерывают запуск: остаётся значение по умолчанию,
// а описание проблемы возвращается во втором результате.
func LoadConfig(lookup EnvLookup) (Config, []string) {
	cfg := DefaultConfig()
	var warnings []string
	warn := func(key, raw string, err error) {
		warnings = append(warnings, fmt.Sprintf("invalid %s=%q: %v", key, raw, err))
	}

	if v, ok := lookupTrimmed(lookup, EnvStorageDriver); ok {
		cfg.StorageDriver = strings.ToLower(v)
	}
	if v, ok := lookupTrimmed(lookup, EnvPostgresDSN); ok {
		cfg.PostgresDSN = v
	}
	if v, ok := lookupTrimmed(lookup, EnvPostgresAutoMigrate); ok {
		if parsed, err := parseBool(v); err != nil {
			warn(EnvPostgresAutoMigrate, v, err)
		} else {
			cfg.PostgresAutoMigrate = parsed
		}
	}
	if v, ok := lookupTrimmed(lookup, EnvLogLevel); ok {
		if level, err := log.ParseLevel(v); err != nil {
			warn(EnvLogLevel, v, err)
		} else {
			cfg.LogLevel = level
		}
	}
	if v, ok := lookupTrimmed(lookup, EnvMetricsAddr); ok {
		cfg.MetricsAddr = v
	}
	if v, ok := lookupTrimmed(lookup, EnvKafkaBrokers); ok {
		cfg.KafkaBrokers = v
	}
	if v, ok := lookupTrimmed(lookup, EnvKafkaTopic); ok {
		cfg.KafkaTopic = v
	}
	if v, ok := lookupTrimmed(lookup, EnvKafkaDLQTopic); ok {
		cfg.KafkaDLQTopic = v
	}

	positive := func(v int) bool { return v > 0 }
	nonNegative := func(v int) bool { return v >= 0 }
	positiveDuration := func(v time.Duration) bool { return v > 0 }
	nonNegativeDuration := func(v time.Duration) bool { return v >= 0 }

	if v, ok := lookupTrimmed(lookup, EnvOutboxPollInterval); ok {
		if parsed, err := parseDuration(v, positiveDuration, "must be > 0"); err != nil {
			warn(EnvOutboxPollInterval, v, err)
		} else {
			cfg.OutboxPollInterval = parsed
		}
	}
	if v, ok := lookupTrimmed(lookup, EnvOutboxBatchSize); ok {
		if parsed, err := parseInt(v, positive, "must be > 0"); err != nil {
			warn(EnvOutboxBatchSize, v, err)
		} else {
			cfg.OutboxBatchSize = parsed
		}
	}
	if v, ok := lookupTrimmed(lookup, EnvOutboxMaxAttempts); ok {
		if parsed, err := parseInt(v, positive, "must be > 0"); err != nil {
			warn(EnvOutboxMaxAttempts, v, err)
		} else {
			cfg.OutboxMaxAttempts = parsed
		}
	}
	if v, ok := lookupTrimmed(lookup, EnvOutboxRetryDelay); ok {
		if parsed, err := parseDuration(v, nonNegativeDuration, "must be >= 0"); err != nil {
			warn(EnvOutboxRetryDelay, v, err)
		} else {
			cfg.OutboxRetryDelay = parsed
		}
	}
	if v, ok := lookupTrimmed(lookup, EnvOutboxMaxPending); ok {
		if parsed, err := parseInt(v, nonNegative, "must be >= 0"); err != nil {
			warn(EnvOutboxMaxPending, v, err)
		} else {
			cfg.OutboxMaxPending = parsed
		}
	}
	if v, ok := lookupTrimmed(lookup, EnvOutboxMaxAge); ok {
		if parsed, err := parseDuration(v, nonNegativeDuration, "must be >= 0"); err != nil {
			warn(EnvOutboxMaxAge, v, err)
		} else {
			cfg.OutboxMaxAge = parsed
		}
	}

	return cfg, warnings
}

func lookupTrimmed(lookup EnvLookup, key string) (string, bool) {
	if lookup == nil {
		return "", false
	}
	v, ok := lookup(key)
	if !ok {
		return "", false
	}
	v = strings.TrimSpace(v)
	return v, v != ""
}

func parseBool(raw string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "1", "true", "yes", "y", "on":
		return true, nil
	case "0", "false", "no", "n", "off":
		return false, nil
	default:
		return false, errors.New("expected boolean value")
	}
}

func parseInt(raw string, valid func(int) bool, rule string) (int, error) {
	value, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, err
	}
	if valid != nil && !valid(value) {
		return 0, errors.New(rule)
	}
	return value, nil
}

func parseDuration(raw string, valid func(time.Duration) bool, rule string) (time.Duration, error) {
	value, err := time.ParseDuration(strings.TrimSpace(raw))
	if err != nil {
		return 0, err
	}
	if valid != nil && !valid(value) {
		return 0, errors.New(rule)
	}
	return value, nil
}
