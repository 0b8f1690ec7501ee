package domain

import "time"

// OutboxStatus: состояние сообщения в таблице outbox_messages.
type OutboxStatus string

const (
	OutboxPending OutboxStatus = "pending"
	OutboxSent    OutboxStatus = "sent"
	OutboxFailed  OutboxStatus = "failed"
)

// OutboxMessage: событие, записанное в одной транзакции с заказом
// и ожидающее отправки в брокер.
type OutboxMessage struct {
	ID            string
	AggregateType string
	AggregateID   string
	EventType     string
	Payload       []byte
}

// OutboxStats: размер backlog и возраст самого старого ожидающего сообщения.
type OutboxStats struct {
	PendingCount    int
	OldestPendingAt time.Time
}

// OutboxRepository хранит сообщения outbox до их публикации.
// MarkSent и MarkFailed возвращают ErrOutboxMessageNotFound для неизвестного id.
type OutboxRepository interface {
	Enqueue(msg OutboxMessage) (OutboxMessage, error)
	// PullPending возвращает до limit самых старых pending-сообщений.
	PullPending(limit int) ([]OutboxMessage, error)
	Stats() (OutboxStats, error)
	MarkSent(id string) error
	MarkFailed(id string) error
}

// OutboxPublisher отправляет сообщение outbox во внешний брокер.
type OutboxPublisher interface {
	Publish(event OutboxMessage) error
}
