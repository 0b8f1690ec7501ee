package app

import (
	"testing"
	"time"

	log "github.com/sirupsen/logrus"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.StorageDriver != StorageDriverMemory {
		t.Errorf("expected StorageDriver %s, got %s", StorageDriverMemory, cfg.StorageDriver)
	}
	if !cfg.PostgresAutoMigrate {
		t.Error("expected PostgresAutoMigrate to be true")
	}
	if cfg.LogLevel != log.InfoLevel {
		t.Errorf("expected info log level, got %s", cfg.LogLevel)
	}
	if cfg.MetricsAddr != "" {
		t.Errorf("expected metrics to be disabled by default, got %q", cfg.MetricsAddr)
	}
	if cfg.KafkaTopic != "ecom.order.events" || cfg.KafkaDLQTopic != "ecom.dlq" {
		t.Errorf("unexpected kafka topics: %q, %q", cfg.KafkaTopic, cfg.KafkaDLQTopic)
	}
	if cfg.OutboxPollInterval <= 0 || cfg.OutboxBatchSize <= 0 || cfg.OutboxMaxAttempts <= 0 {
		t.Errorf("outbox settings must be positive: %+v", cfg)
	}
	if cfg.OutboxRetryDelay < 0 || cfg.OutboxMaxAge < time.Duration(0) {
		t.Errorf("outbox delays must be non-negative: %+v", cfg)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config must be valid: %v", err)
	}
}

func TestConfig_Brokers(t *testing.T) {
	testCases := []struct {
		raw      string
		expected []string
	}{
		{"", nil},
		{" , ", nil},
		{"localhost:9092", []string{"localhost:9092"}},
		{"broker1:9092, broker2:9092,,broker3:9092 ", []string{"broker1:9092", "broker2:9092", "broker3:9092"}},
	}

	for _, tc := range testCases {
		got := Config{KafkaBrokers: tc.raw}.Brokers()
		if len(got) != len(tc.expected) {
			t.Fatalf("Brokers(%q) = %v, expected %v", tc.raw, got, tc.expected)
		}
		for i := range got {
			if got[i] != tc.expected[i] {
				t.Fatalf("Brokers(%q) = %v, expected %v", tc.raw, got, tc.expected)
			}
		}
	}
}

func TestConfig_Validate(t *testing.T) {
	testCases := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"memory", Config{StorageDriver: StorageDriverMemory}, false},
		{"postgres with dsn", Config{StorageDriver: StorageDriverPostgres, PostgresDSN: "postgres://localhost/ecom"}, false},
		{"postgres without dsn", Config{StorageDriver: StorageDriverPostgres, PostgresDSN: "  "}, true},
		{"unsupported", Config{StorageDriver: "sqlite"}, true},
		{"empty", Config{}, true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.cfg.Validate()
			if tc.wantErr && err == nil {
				t.Fatal("expected validation error")
			}
			if !tc.wantErr && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}
