package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/ecom/internal/cli"
	healthcheck "github.com/vladislavdragonenkov/ecom/internal/health"
	"github.com/vladislavdragonenkov/ecom/internal/messaging/kafka"
	"github.com/vladislavdragonenkov/ecom/internal/metrics"
	"github.com/vladislavdragonenkov/ecom/internal/service/outbox"
	"github.com/vladislavdragonenkov/ecom/internal/version"
)

const shutdownTimeout = 5 * time.Second

// ErrKafkaRequired возвращается outbox-relay без настроенных брокеров.
var ErrKafkaRequired = errors.New("kafka brokers are required for outbox relay")

// RunShell запускает интерактивное меню магазина поверх in/out.
// При заданных брокерах Kafka события заказов публикуются фоновым relay
// в том же процессе; при заданном MetricsAddr поднимается HTTP-сервер метрик.
func RunShell(ctx context.Context, cfg Config, in io.Reader, out io.Writer) error {
	logger := log.WithField("component", "app")

	deps, err := NewDependencies(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeDependencies(deps, logger)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if cfg.MetricsAddr != "" {
		healthHandler := healthcheck.NewHandler(version.GetVersion())
		healthHandler.RegisterChecker("storage", deps.StorageChecker)
		srv := startMetricsServer(ctx, cfg.MetricsAddr, logger, healthHandler)
		defer shutdownHTTP(srv, logger)
	}

	stopRelay := startBackgroundRelay(ctx, cfg, deps, logger)
	defer stopRelay()

	shell := cli.NewShell(deps.Shop, in, out, logger.WithField("layer", "cli"))
	return shell.Run(ctx)
}

// RunRelay публикует сообщения outbox в Kafka до отмены ctx и обслуживает
// /metrics, /healthz, /livez и /readyz.
func RunRelay(ctx context.Context, cfg Config) error {
	logger := log.WithField("component", "outbox-relay")

	brokers := cfg.Brokers()
	if len(brokers) == 0 {
		return ErrKafkaRequired
	}
	if cfg.StorageDriver != StorageDriverPostgres {
		return fmt.Errorf("outbox relay requires %s storage driver, got %q", StorageDriverPostgres, cfg.StorageDriver)
	}

	deps, err := NewDependencies(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeDependencies(deps, logger)

	producer, err := openProducer(brokers, logger)
	if err != nil {
		return fmt.Errorf("init kafka producer: %w", err)
	}
	defer closeProducer(producer, logger)

	healthHandler := healthcheck.NewHandler(version.GetVersion())
	healthHandler.RegisterChecker("storage", deps.StorageChecker)
	healthHandler.RegisterChecker("outbox", healthcheck.NewOutboxBacklogChecker(deps.OutboxRepo, cfg.OutboxMaxPending, cfg.OutboxMaxAge))

	addr := cfg.MetricsAddr
	if addr == "" {
		addr = DefaultRelayMetricsAddr
	}
	srv := startMetricsServer(ctx, addr, logger, healthHandler)
	defer shutdownHTTP(srv, logger)

	newOutboxWorker(cfg, deps, producer, logger).Run(ctx)
	return ctx.Err()
}

func newOutboxWorker(cfg Config, deps *Dependencies, producer *kafka.Producer, logger *log.Entry) *outbox.Worker {
	return outbox.NewWorker(outbox.Deps{
		Repo:      deps.OutboxRepo,
		Publisher: kafka.NewOutboxPublisher(producer, cfg.KafkaTopic),
		DLQ:       kafka.NewOutboxPublisher(producer, cfg.KafkaDLQTopic),
		Logger:    logger.WithField("layer", "outbox"),
		Metrics:   metrics.NewOutboxMetrics(),
	}, outbox.Config{
		PollInterval: cfg.OutboxPollInterval,
		BatchSize:    cfg.OutboxBatchSize,
		MaxAttempts:  cfg.OutboxMaxAttempts,
		RetryDelay:   cfg.OutboxRetryDelay,
	})
}

func closeDependencies(deps *Dependencies, logger *log.Entry) {
	if err := deps.Close(); err != nil {
		logger.WithError(err).Warn("failed to close storage")
	}
}

// startMetricsServer запускает HTTP-обработчики /metrics и health checks.
func startMetricsServer(ctx context.Context, addr string, logger *log.Entry, healthHandler *healthcheck.Handler) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	healthHandler.Mount(mux)

	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		logger.WithField("addr", addr).Info("metrics and health endpoints are listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Warn("metrics server failed")
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownHTTP(srv, logger)
	}()

	return srv
}

// shutdownHTTP аккуратно останавливает HTTP-сервер.
func shutdownHTTP(srv *http.Server, logger *log.Entry) {
	if srv == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.WithError(err).Warn("metrics shutdown with error")
	}
}
