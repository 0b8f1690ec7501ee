package postgres

import (
	"errors"
	"testing"
	"time"

	"github.com/vladislavdragonenkov/ecom/internal/domain"
)

func TestOutboxRepository_PostgresLifecycle(t *testing.T) {
	store := openPostgresStoreForIntegrationTest(t)
	repo := NewOutboxRepository(store)

	saved, err := repo.Enqueue(domain.OutboxMessage{
		AggregateType: domain.AggregateOrder,
		AggregateID:   "1",
		EventType:     domain.EventOrderPlaced,
		Payload:       []byte(`{"order_id":1}`),
	})
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	stats, err := repo.Stats()
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.PendingCount != 1 || stats.OldestPendingAt.IsZero() {
		t.Fatalf("unexpected stats: %+v", stats)
	}

	if err := repo.MarkSent(saved.ID); err != nil {
		t.Fatalf("mark sent: %v", err)
	}
	pending, err := repo.PullPending(10)
	if err != nil {
		t.Fatalf("pull pending: %v", err)
	}
	if len(pending) != 0 {
		t.Fatalf("expected no pending messages, got %d", len(pending))
	}

	if err := repo.MarkFailed("missing"); !errors.Is(err, domain.ErrOutboxMessageNotFound) {
		t.Fatal("expected error for unknown outbox id")
	}
}

func TestOutboxRepository_PostgresPullClaimsMessages(t *testing.T) {
	store := openPostgresStoreForIntegrationTest(t)
	repo := NewOutboxRepository(store).(*outboxRepository)

	base := time.Now().UTC()
	for i, id := range []string{"1", "2"} {
		enqueuedAt := base.Add(time.Duration(i) * time.Second)
		repo.now = func() time.Time { return enqueuedAt }
		if _, err := repo.Enqueue(domain.OutboxMessage{
			AggregateType: domain.AggregateOrder,
			AggregateID:   id,
			EventType:     domain.EventOrderPlaced,
			Payload:       []byte(`{}`),
		}); err != nil {
			t.Fatalf("enqueue %s: %v", id, err)
		}
	}

	pulledAt := base.Add(2 * time.Second)
	repo.now = func() time.Time { return pulledAt }

	first, err := repo.PullPending(10)
	if err != nil {
		t.Fatalf("first pull: %v", err)
	}
	if len(first) != 2 {
		t.Fatalf("expected 2 claimed messages, got %d", len(first))
	}
	if first[0].AggregateID != "1" || first[1].AggregateID != "2" {
		t.Fatalf("expected oldest first, got %s then %s", first[0].AggregateID, first[1].AggregateID)
	}

	second, err := repo.PullPending(10)
	if err != nil {
		t.Fatalf("second pull: %v", err)
	}
	if len(second) != 0 {
		t.Fatalf("claimed messages returned again: %d", len(second))
	}

	if err := repo.MarkSent(first[0].ID); err != nil {
		t.Fatalf("mark sent: %v", err)
	}
	leaseExpired := pulledAt.Add(outboxClaimLease + time.Second)
	repo.now = func() time.Time { return leaseExpired }

	reclaimed, err := repo.PullPending(10)
	if err != nil {
		t.Fatalf("pull after lease: %v", err)
	}
	if len(reclaimed) != 1 || reclaimed[0].ID != first[1].ID {
		t.Fatalf("expected only the unacknowledged message after lease expiry, got %+v", reclaimed)
	}
}
