package main

import (
	"os"
	"os/exec"
	"strings"
	"testing"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/ecom/internal/app"
)

func mapLookup(values map[string]string) app.EnvLookup {
	return func(key string) (string, bool) {
		value, ok := values[key]
		return value, ok
	}
}

func TestReadConfig_AppliesLogLevel(t *testing.T) {
	defer setupLogger(log.InfoLevel)

	cfg := readConfig(mapLookup(map[string]string{
		app.EnvLogLevel:      "warn",
		app.EnvStorageDriver: "memory",
	}))

	if cfg.StorageDriver != app.StorageDriverMemory {
		t.Fatalf("unexpected storage driver: %s", cfg.StorageDriver)
	}
	if log.GetLevel() != log.WarnLevel {
		t.Fatalf("expected warn level, got %s", log.GetLevel())
	}
}

func TestMainVersionFlag(t *testing.T) {
	if os.Getenv("ECOM_TEST_VERSION") == "1" {
		os.Args = []string{"ecom", "-version"}
		main()
		return
	}

	cmd := exec.Command(os.Args[0], "-test.run=TestMainVersionFlag")
	cmd.Env = append(os.Environ(), "ECOM_TEST_VERSION=1")
	out, err := cmd.Output()
	if err != nil {
		t.Fatalf("version subprocess failed: %v", err)
	}
	if !strings.Contains(string(out), "ecom version=") {
		t.Fatalf("unexpected version output: %q", out)
	}
}

func TestMainMemorySession(t *testing.T) {
	if os.Getenv("ECOM_TEST_SESSION") == "1" {
		os.Args = []string{"ecom"}
		main()
		return
	}

	cmd := exec.Command(os.Args[0], "-test.run=TestMainMemorySession")
	cmd.Env = append(os.Environ(), "ECOM_TEST_SESSION=1", "ECOM_STORAGE_DRIVER=memory", "ECOM_KAFKA_BROKERS=", "ECOM_METRICS_ADDR=")
	cmd.Stdin = strings.NewReader("10\n12\n")
	out, err := cmd.Output()
	if err != nil {
		t.Fatalf("session subprocess failed: %v", err)
	}
	if !strings.Contains(string(out), "No customers found.") {
		t.Fatalf("unexpected session output: %q", out)
	}
}
