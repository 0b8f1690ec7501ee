package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/ecom/internal/app"
	"github.com/vladislavdragonenkov/ecom/internal/version"
)

func setupLogger(level log.Level) {
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	log.SetLevel(level)
}

// readConfig собирает конфигурацию relay; без явного драйвера relay работает с postgres.
func readConfig(lookup app.EnvLookup) app.Config {
	cfg, warnings := app.LoadConfig(lookup)
	if _, ok := lookup(app.EnvStorageDriver); !ok {
		cfg.StorageDriver = app.StorageDriverPostgres
	}
	if cfg.MetricsAddr == "" {
		cfg.MetricsAddr = app.DefaultRelayMetricsAddr
	}

	setupLogger(cfg.LogLevel)
	for _, warning := range warnings {
		log.Warn(warning)
	}
	return cfg
}

func main() {
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(version.Banner("outbox-relay"))
		return
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.WithError(err).Warn("failed to load .env file")
	}
	cfg := readConfig(os.LookupEnv)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.WithFields(log.Fields{
		"brokers":      cfg.Brokers(),
		"topic":        cfg.KafkaTopic,
		"dlq_topic":    cfg.KafkaDLQTopic,
		"metrics_addr": cfg.MetricsAddr,
	}).Info("starting outbox relay")

	if err := app.RunRelay(ctx, cfg); err != nil && !errors.Is(err, context.Canceled) {
		log.WithError(err).Fatal("outbox relay finished with error")
	}

	log.Info("outbox relay stopped")
}
