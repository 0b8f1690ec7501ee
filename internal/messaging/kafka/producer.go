// Package kafka публикует события outbox в Kafka через sarama.
package kafka

import (
	"errors"
	"fmt"
	"time"

	"github.com/IBM/sarama"
	log "github.com/sirupsen/logrus"
)

const defaultClientID = "ecom-outbox-relay"

var errProducerClosed = errors.New("kafka producer is not initialized")

// Message: одно сообщение для Kafka; Headers попадают в record headers.
type Message struct {
	Topic   string
	Key     string
	Value   []byte
	Headers map[string]string
}

// Producer синхронный: Send возвращается после подтверждения всеми репликами.
type Producer struct {
	sync sarama.SyncProducer
	log  *log.Entry
}

// NewProducer подключается к брокерам. tune может поправить конфигурацию sarama
// до создания клиента.
func NewProducer(brokers []string, tune ...func(*sarama.Config)) (*Producer, error) {
	cfg := producerConfig(defaultClientID)
	for _, fn := range tune {
		fn(cfg)
	}

	syncProducer, err := sarama.NewSyncProducer(brokers, cfg)
	if err != nil {
		return nil, fmt.Errorf("create kafka producer: %w", err)
	}
	return wrapSyncProducer(syncProducer), nil
}

func wrapSyncProducer(syncProducer sarama.SyncProducer) *Producer {
	return &Producer{
		sync: syncProducer,
		log:  log.WithField("component", "kafka-producer"),
	}
}

// producerConfig включает идемпотентность; она требует acks=all и одного запроса в полёте.
func producerConfig(clientID string) *sarama.Config {
	cfg := sarama.NewConfig()
	cfg.ClientID = clientID
	cfg.Producer.Idempotent = true
	cfg.Producer.RequiredAcks = sarama.WaitForAll
	cfg.Producer.Return.Successes = true
	cfg.Producer.Retry.Max = 5
	cfg.Producer.Compression = sarama.CompressionSnappy
	cfg.Net.MaxOpenRequests = 1
	return cfg
}

// Send отправляет сообщение и ждёт подтверждения.
func (p *Producer) Send(msg Message) error {
	if p == nil || p.sync == nil {
		return errProducerClosed
	}

	record := &sarama.ProducerMessage{
		Topic:     msg.Topic,
		Key:       sarama.StringEncoder(msg.Key),
		Value:     sarama.ByteEncoder(msg.Value),
		Timestamp: time.Now(),
	}
	for k, v := range msg.Headers {
		record.Headers = append(record.Headers, sarama.RecordHeader{Key: []byte(k), Value: []byte(v)})
	}

	fields := log.Fields{"topic": msg.Topic, "key": msg.Key}
	partition, offset, err := p.sync.SendMessage(record)
	if err != nil {
		p.log.WithError(err).WithFields(fields).Error("failed to send message to kafka")
		return fmt.Errorf("send to %s: %w", msg.Topic, err)
	}

	fields["partition"] = partition
	fields["offset"] = offset
	p.log.WithFields(fields).Debug("message sent to kafka")
	return nil
}

// Close закрывает producer; nil-producer закрывать безопасно.
func (p *Producer) Close() error {
	if p == nil || p.sync == nil {
		return nil
	}
	if err := p.sync.Close(); err != nil {
		return fmt.Errorf("close kafka producer: %w", err)
	}
	return nil
}
