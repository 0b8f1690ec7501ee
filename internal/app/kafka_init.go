package app

import (
	"context"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/ecom/internal/messaging/kafka"
)

// openProducer подключается к Kafka. Пустой список брокеров означает, что
// публикация событий выключена: возвращается nil без ошибки.
func openProducer(brokers []string, logger *log.Entry) (*kafka.Producer, error) {
	if len(brokers) == 0 {
		return nil, nil
	}

	entry := logger.WithField("brokers", brokers)
	producer, err := kafka.NewProducer(brokers)
	if err != nil {
		entry.WithError(err).Warn("kafka is unreachable")
		return nil, err
	}
	entry.Info("kafka producer connected")
	return producer, nil
}

func closeProducer(producer *kafka.Producer, logger *log.Entry) {
	if producer == nil {
		return
	}
	if err := producer.Close(); err != nil {
		logger.WithError(err).Warn("failed to close kafka producer")
		return
	}
	logger.Info("kafka producer closed")
}

// startBackgroundRelay запускает outbox worker в горутине рядом с CLI.
// Без брокеров или при недоступной Kafka заказы продолжают копиться в outbox.
// Возвращённая stop останавливает worker и закрывает producer.
func startBackgroundRelay(ctx context.Context, cfg Config, deps *Dependencies, logger *log.Entry) (stop func()) {
	producer, err := openProducer(cfg.Brokers(), logger)
	if err != nil {
		logger.Warn("continuing without order event publishing")
	}
	if producer == nil {
		return func() {}
	}

	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		newOutboxWorker(cfg, deps, producer, logger).Run(ctx)
	}()

	return func() {
		cancel()
		<-done
		closeProducer(producer, logger)
	}
}
