// Package outbox доставляет события заказов из таблицы outbox в Kafka.
package outbox

import (
	"context"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/ecom/internal/domain"
	"github.com/vladislavdragonenkov/ecom/internal/metrics"
)

// maxRetryDelay ограничивает паузу между попытками публикации одного сообщения.
const maxRetryDelay = 10 * time.Second

// Значения label result у ecom_outbox_publish_attempts_total.
const (
	resultSent       = "sent"
	resultRetryError = "retry_error"
	resultFailed     = "failed"
	resultDLQFailed  = "dlq_failed"
)

// Config: параметры цикла доставки. Нулевые PollInterval, BatchSize и MaxAttempts
// заменяются значениями DefaultConfig.
type Config struct {
	PollInterval time.Duration
	BatchSize    int
	MaxAttempts  int
	// RetryDelay: пауза после первой неудачной попытки, дальше удваивается.
	// Ноль означает повтор без паузы, отрицательное значение приводится к нулю.
	RetryDelay time.Duration
}

// DefaultConfig совпадает с умолчаниями ECOM_OUTBOX_* переменных.
func DefaultConfig() Config {
	return Config{
		PollInterval: time.Second,
		BatchSize:    100,
		MaxAttempts:  3,
		RetryDelay:   100 * time.Millisecond,
	}
}

func (c Config) normalized() Config {
	def := DefaultConfig()
	if c.PollInterval <= 0 {
		c.PollInterval = def.PollInterval
	}
	if c.BatchSize <= 0 {
		c.BatchSize = def.BatchSize
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = def.MaxAttempts
	}
	if c.RetryDelay < 0 {
		c.RetryDelay = 0
	}
	return c
}

// Deps: зависимости воркера. Repo и Publisher обязательны, остальное опционально.
type Deps struct {
	Repo      domain.OutboxRepository
	Publisher domain.OutboxPublisher
	// DLQ получает сообщения, которые не удалось доставить за MaxAttempts попыток.
	DLQ     domain.OutboxPublisher
	Logger  *log.Entry
	Metrics *metrics.OutboxMetrics
}

// BatchResult: итог одного прохода по outbox.
type BatchResult struct {
	Pulled int
	Sent   int
	Failed int
}

// Worker периодически забирает pending-сообщения и публикует их.
type Worker struct {
	deps Deps
	cfg  Config
	log  *log.Entry
	now  func() time.Time
}

// NewWorker собирает воркер; cfg нормализуется.
func NewWorker(deps Deps, cfg Config) *Worker {
	logger := deps.Logger
	if logger == nil {
		logger = log.WithField("component", "outbox-relay")
	}
	return &Worker{
		deps: deps,
		cfg:  cfg.normalized(),
		log:  logger,
		now:  func() time.Time { return time.Now().UTC() },
	}
}

// Run выполняет проход сразу и затем раз в PollInterval, пока ctx не отменён.
func (w *Worker) Run(ctx context.Context) {
	if w.deps.Repo == nil || w.deps.Publisher == nil {
		w.log.Warn("outbox relay is disabled: repo or publisher is nil")
		return
	}

	w.log.WithFields(log.Fields{
		"poll_interval": w.cfg.PollInterval.String(),
		"batch_size":    w.cfg.BatchSize,
		"max_attempts":  w.cfg.MaxAttempts,
	}).Info("outbox relay started")
	defer w.log.Info("outbox relay stopped")

	ticker := time.NewTicker(w.cfg.PollInterval)
	defer ticker.Stop()

	for {
		w.ProcessOnce(ctx)
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// ProcessOnce публикует одну пачку сообщений. Успешные помечаются sent,
// исчерпавшие попытки уходят в DLQ и помечаются failed.
func (w *Worker) ProcessOnce(ctx context.Context) BatchResult {
	var res BatchResult
	if ctx.Err() != nil {
		return res
	}
	defer w.observeBacklog()

	batch, err := w.deps.Repo.PullPending(w.cfg.BatchSize)
	if err != nil {
		w.log.WithError(err).Warn("failed to pull pending outbox messages")
		return res
	}
	res.Pulled = len(batch)

loop:
	for _, msg := range batch {
		if ctx.Err() != nil {
			break
		}
		switch w.deliver(ctx, msg) {
		case delivered:
			res.Sent++
		case deadLettered:
			res.Failed++
		case interrupted:
			break loop
		}
	}

	if res.Pulled > 0 {
		w.log.WithFields(log.Fields{
			"pulled": res.Pulled,
			"sent":   res.Sent,
			"failed": res.Failed,
		}).Debug("outbox batch processed")
	}
	return res
}

type outcome int

const (
	delivered outcome = iota
	deadLettered
	// interrupted: ctx отменён до исчерпания попыток, сообщение остаётся pending.
	interrupted
)

// deliver публикует сообщение с повторами и фиксирует итог в репозитории.
// В DLQ сообщение уходит только после MaxAttempts неудачных попыток.
func (w *Worker) deliver(ctx context.Context, msg domain.OutboxMessage) outcome {
	entry := w.log.WithFields(log.Fields{
		"outbox_id":    msg.ID,
		"event_type":   msg.EventType,
		"aggregate_id": msg.AggregateID,
	})

	publishErr := w.publish(ctx, msg)
	if publishErr == nil {
		if err := w.deps.Repo.MarkSent(msg.ID); err != nil {
			entry.WithError(err).Warn("failed to mark outbox message as sent")
		}
		return delivered
	}
	if ctx.Err() != nil {
		entry.WithError(publishErr).Info("outbox delivery interrupted, message stays pending")
		return interrupted
	}

	entry.WithError(publishErr).Error("outbox publish failed after retries")
	w.deps.Metrics.RecordPublish(resultFailed)
	if err := w.sendToDLQ(msg, publishErr); err != nil {
		entry.WithError(err).Warn("failed to publish to DLQ")
		w.deps.Metrics.RecordPublish(resultDLQFailed)
	}
	if err := w.deps.Repo.MarkFailed(msg.ID); err != nil {
		entry.WithError(err).Warn("failed to mark outbox message as failed")
	}
	return deadLettered
}

func (w *Worker) publish(ctx context.Context, msg domain.OutboxMessage) error {
	var lastErr error
	for attempt := 1; attempt <= w.cfg.MaxAttempts; attempt++ {
		if attempt > 1 {
			if err := sleepCtx(ctx, w.retryDelay(attempt-1)); err != nil {
				return err
			}
		}
		lastErr = w.deps.Publisher.Publish(msg)
		if lastErr == nil {
			w.deps.Metrics.RecordPublish(resultSent)
			return nil
		}
		w.deps.Metrics.RecordPublish(resultRetryError)
	}
	return fmt.Errorf("%w: %d attempts: %w", domain.ErrOutboxPublish, w.cfg.MaxAttempts, lastErr)
}

// retryDelay возвращает паузу после n-й неудачной попытки, RetryDelay * 2^(n-1), не больше maxRetryDelay.
func (w *Worker) retryDelay(n int) time.Duration {
	delay := w.cfg.RetryDelay
	for i := 1; i < n && delay > 0 && delay < maxRetryDelay; i++ {
		delay *= 2
	}
	return min(delay, maxRetryDelay)
}

func (w *Worker) observeBacklog() {
	if w.deps.Metrics == nil {
		return
	}
	stats, err := w.deps.Repo.Stats()
	if err != nil {
		w.log.WithError(err).Warn("failed to collect outbox backlog stats")
		return
	}
	w.deps.Metrics.SetBacklog(stats.PendingCount, stats.OldestPendingAt, w.now())
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
