package kafka

import (
	"encoding/json"
	"time"
)

// Топики по умолчанию; переопределяются ECOM_KAFKA_TOPIC и ECOM_KAFKA_DLQ_TOPIC.
const (
	TopicOrderEvents     = "ecom.order.events"
	TopicDeadLetterQueue = "ecom.dlq"
)

// Заголовки, которые relay ставит на каждое сообщение.
const (
	HeaderEventType     = "x-event-type"
	HeaderOutboxID      = "x-outbox-id"
	HeaderAggregateType = "x-aggregate-type"
)

// Envelope описывает тело сообщения в топике, то есть метаданные outbox плюс исходный payload.
type Envelope struct {
	ID            string          `json:"id"`
	AggregateType string          `json:"aggregate_type"`
	AggregateID   string          `json:"aggregate_id"`
	EventType     string          `json:"event_type"`
	Payload       json.RawMessage `json:"payload"`
	PublishedAt   time.Time       `json:"published_at"`
}
