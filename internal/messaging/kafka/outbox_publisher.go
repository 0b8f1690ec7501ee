package kafka

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/vladislavdragonenkov/ecom/internal/domain"
)

// OutboxPublisher кладёт сообщения outbox в один топик. Ключ: id агрегата,
// поэтому события одного заказа попадают в одну партицию.
type OutboxPublisher struct {
	producer *Producer
	topic    string
	now      func() time.Time
}

// NewOutboxPublisher создаёт publisher; пустой topic заменяется TopicOrderEvents.
func NewOutboxPublisher(producer *Producer, topic string) *OutboxPublisher {
	if topic == "" {
		topic = TopicOrderEvents
	}
	return &OutboxPublisher{
		producer: producer,
		topic:    topic,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Topic возвращает целевой топик.
func (p *OutboxPublisher) Topic() string {
	return p.topic
}

// Publish оборачивает сообщение в Envelope и отправляет его синхронно.
func (p *OutboxPublisher) Publish(msg domain.OutboxMessage) error {
	if !json.Valid(msg.Payload) {
		return fmt.Errorf("outbox message %s: payload is not valid json", msg.ID)
	}

	value, err := json.Marshal(Envelope{
		ID:            msg.ID,
		AggregateType: msg.AggregateType,
		AggregateID:   msg.AggregateID,
		EventType:     msg.EventType,
		Payload:       msg.Payload,
		PublishedAt:   p.now(),
	})
	if err != nil {
		return fmt.Errorf("marshal envelope: %w", err)
	}

	key := msg.AggregateID
	if key == "" {
		key = msg.ID
	}
	return p.producer.Send(Message{
		Topic: p.topic,
		Key:   key,
		Value: value,
		Headers: map[string]string{
			HeaderEventType:     msg.EventType,
			HeaderOutboxID:      msg.ID,
			HeaderAggregateType: msg.AggregateType,
		},
	})
}

var _ domain.OutboxPublisher = (*OutboxPublisher)(nil)
