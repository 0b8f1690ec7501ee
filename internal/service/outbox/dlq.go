package outbox

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/vladislavdragonenkov/ecom/internal/domain"
)

// DeadLetter: тело сообщения в DLQ-топике.
type DeadLetter struct {
	OutboxID      string          `json:"outbox_id"`
	AggregateType string          `json:"aggregate_type"`
	AggregateID   string          `json:"aggregate_id"`
	EventType     string          `json:"event_type"`
	Payload       json.RawMessage `json:"payload"`
	Reason        string          `json:"reason"`
	FailedAt      time.Time       `json:"failed_at"`
}

// newDeadLetter оборачивает сообщение; невалидный JSON в payload сохраняется строкой.
func newDeadLetter(msg domain.OutboxMessage, reason error, at time.Time) DeadLetter {
	payload := json.RawMessage(msg.Payload)
	if !json.Valid(payload) {
		payload, _ = json.Marshal(string(msg.Payload))
	}
	return DeadLetter{
		OutboxID:      msg.ID,
		AggregateType: msg.AggregateType,
		AggregateID:   msg.AggregateID,
		EventType:     msg.EventType,
		Payload:       payload,
		Reason:        reason.Error(),
		FailedAt:      at,
	}
}

func (w *Worker) sendToDLQ(msg domain.OutboxMessage, reason error) error {
	if w.deps.DLQ == nil {
		return nil
	}

	body, err := json.Marshal(newDeadLetter(msg, reason, w.now()))
	if err != nil {
		return fmt.Errorf("marshal dead letter: %w", err)
	}
	dead := msg
	dead.Payload = body
	if err := w.deps.DLQ.Publish(dead); err != nil {
		return fmt.Errorf("publish to dlq: %w", err)
	}
	return nil
}
