package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/vladislavdragonenkov/ecom/internal/domain"
)

const (
	defaultOutboxPullLimit = 100
	// outboxClaimLease: сколько выбранное сообщение скрыто от других PullPending.
	// Если воркер не отметил его за это время, сообщение выдаётся снова.
	outboxClaimLease = 2 * time.Minute
)

type outboxRepository struct {
	db  *sql.DB
	now func() time.Time
}

// NewOutboxRepository создаёт outbox поверх таблицы outbox_messages.
func NewOutboxRepository(store *Store) domain.OutboxRepository {
	return &outboxRepository{
		db:  store.DB(),
		now: func() time.Time { return time.Now().UTC() },
	}
}

// execer: общий интерфейс *sql.DB и *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// insertOutboxMessage пишет pending-сообщение через exec; при вызове с *sql.Tx
// событие фиксируется вместе с заказом.
func insertOutboxMessage(ctx context.Context, exec execer, msg domain.OutboxMessage, now time.Time) (domain.OutboxMessage, error) {
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}

	const query = `
		INSERT INTO outbox_messages (id, aggregate_type, aggregate_id, event_type, payload, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $7)`
	if _, err := exec.ExecContext(ctx, query,
		msg.ID, msg.AggregateType, msg.AggregateID, msg.EventType, msg.Payload, string(domain.OutboxPending), now,
	); err != nil {
		return domain.OutboxMessage{}, wrapErr("enqueue outbox message", err)
	}
	return msg, nil
}

func (r *outboxRepository) Enqueue(msg domain.OutboxMessage) (domain.OutboxMessage, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	return insertOutboxMessage(ctx, r.db, msg, r.now())
}

func (r *outboxRepository) PullPending(limit int) ([]domain.OutboxMessage, error) {
	if limit <= 0 {
		limit = defaultOutboxPullLimit
	}

	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	// Выбранные строки помечаются locked_until одним запросом: параллельные
	// воркеры пропускают заблокированные строки и не получают те же сообщения.
	now := r.now()
	rows, err := r.db.QueryContext(ctx, `
		UPDATE outbox_messages
		SET locked_until = $3
		WHERE id IN (
			SELECT id
			FROM outbox_messages
			WHERE status = $1 AND (locked_until IS NULL OR locked_until <= $4)
			ORDER BY created_at, id
			LIMIT $2
			FOR UPDATE SKIP LOCKED
		)
		RETURNING id, aggregate_type, aggregate_id, event_type, payload, created_at`,
		string(domain.OutboxPending), limit, now.Add(outboxClaimLease), now)
	if err != nil {
		return nil, wrapErr("pull pending outbox messages", err)
	}
	defer rows.Close()

	type claimed struct {
		msg       domain.OutboxMessage
		createdAt time.Time
	}
	var batch []claimed
	for rows.Next() {
		var c claimed
		if err := rows.Scan(&c.msg.ID, &c.msg.AggregateType, &c.msg.AggregateID, &c.msg.EventType, &c.msg.Payload, &c.createdAt); err != nil {
			return nil, fmt.Errorf("scan outbox message: %w", err)
		}
		batch = append(batch, c)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr("iterate outbox messages", err)
	}

	// RETURNING не сохраняет порядок подзапроса.
	sort.Slice(batch, func(i, j int) bool {
		if !batch[i].createdAt.Equal(batch[j].createdAt) {
			return batch[i].createdAt.Before(batch[j].createdAt)
		}
		return batch[i].msg.ID < batch[j].msg.ID
	})
	messages := make([]domain.OutboxMessage, 0, len(batch))
	for _, c := range batch {
		messages = append(messages, c.msg)
	}
	return messages, nil
}

func (r *outboxRepository) Stats() (domain.OutboxStats, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	var (
		stats  domain.OutboxStats
		oldest sql.NullTime
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*), MIN(created_at) FROM outbox_messages WHERE status = $1`,
		string(domain.OutboxPending),
	).Scan(&stats.PendingCount, &oldest)
	if err != nil {
		return domain.OutboxStats{}, wrapErr("query outbox stats", err)
	}

	if oldest.Valid {
		stats.OldestPendingAt = oldest.Time.UTC()
	}
	return stats, nil
}

func (r *outboxRepository) MarkSent(id string) error {
	return r.setStatus(id, domain.OutboxSent)
}

func (r *outboxRepository) MarkFailed(id string) error {
	return r.setStatus(id, domain.OutboxFailed)
}

// setStatus переводит сообщение в status и увеличивает счётчик попыток.
func (r *outboxRepository) setStatus(id string, status domain.OutboxStatus) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `
		UPDATE outbox_messages
		SET status = $2, attempt_count = attempt_count + 1, updated_at = $3
		WHERE id = $1`, id, string(status), r.now())
	if err != nil {
		return wrapErr(fmt.Sprintf("mark outbox message %s", status), err)
	}
	return expectAffected(res, domain.ErrOutboxMessageNotFound)
}

var _ domain.OutboxRepository = (*outboxRepository)(nil)
