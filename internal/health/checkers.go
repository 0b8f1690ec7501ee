package health

import (
	"context"
	"fmt"
	"time"

	"github.com/vladislavdragonenkov/ecom/internal/domain"
)

// PingChecker превращает функцию вида Ping(ctx) error в Checker.
type PingChecker struct {
	name string
	ping func(ctx context.Context) error
}

// NewPingChecker создаёт проверку: ошибка ping даёт Unhealthy.
func NewPingChecker(name string, ping func(ctx context.Context) error) *PingChecker {
	return &PingChecker{name: name, ping: ping}
}

func (c *PingChecker) Check(ctx context.Context) Check {
	start := time.Now()
	check := Check{Name: c.name, Status: StatusHealthy}
	if err := c.ping(ctx); err != nil {
		check.Status = StatusUnhealthy
		check.Message = err.Error()
	}
	check.DurationMs = time.Since(start).Milliseconds()
	return check
}

// OutboxStatsSource: часть OutboxRepository, нужная проверке backlog.
type OutboxStatsSource interface {
	Stats() (domain.OutboxStats, error)
}

// OutboxBacklogChecker переводит relay в Degraded, если pending-сообщений
// больше maxPending или самое старое ждёт дольше maxAge. Нулевой порог не проверяется.
type OutboxBacklogChecker struct {
	source     OutboxStatsSource
	maxPending int
	maxAge     time.Duration
	now        func() time.Time
}

func NewOutboxBacklogChecker(source OutboxStatsSource, maxPending int, maxAge time.Duration) *OutboxBacklogChecker {
	return &OutboxBacklogChecker{source: source, maxPending: maxPending, maxAge: maxAge, now: time.Now}
}

// Check даёт Unhealthy, если статистику прочитать не удалось.
func (c *OutboxBacklogChecker) Check(context.Context) Check {
	start := time.Now()
	check := Check{Name: "outbox", Status: StatusHealthy}

	stats, err := c.source.Stats()
	if err != nil {
		check.Status = StatusUnhealthy
		check.Message = err.Error()
	} else if msg := c.backlogProblem(stats); msg != "" {
		check.Status = StatusDegraded
		check.Message = msg
	}

	check.DurationMs = time.Since(start).Milliseconds()
	return check
}

func (c *OutboxBacklogChecker) backlogProblem(stats domain.OutboxStats) string {
	if c.maxPending > 0 && stats.PendingCount > c.maxPending {
		return fmt.Sprintf("%d pending messages, threshold %d", stats.PendingCount, c.maxPending)
	}
	if c.maxAge > 0 && !stats.OldestPendingAt.IsZero() {
		if age := c.now().Sub(stats.OldestPendingAt); age > c.maxAge {
			return fmt.Sprintf("oldest pending message is %s old, threshold %s", age.Truncate(time.Second), c.maxAge)
		}
	}
	return ""
}
