package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"testing"
	"time"

	log "github.com/sirupsen/logrus"

	healthcheck "github.com/vladislavdragonenkov/ecom/internal/health"
	"github.com/vladislavdragonenkov/ecom/internal/version"
)

func TestStartMetricsServer_Endpoints(t *testing.T) {
	logger := log.WithField("test", "http")

	port := findFreePort(t)
	addr := fmt.Sprintf("127.0.0.1:%d", port)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	healthHandler := healthcheck.NewHandler(version.GetVersion())
	srv := startMetricsServer(ctx, addr, logger, healthHandler)
	if srv == nil {
		t.Fatal("startMetricsServer should not return nil")
	}
	waitForServer(t, addr)

	expectations := map[string]string{
		"/livez":  "ok",
		"/readyz": "ready",
	}
	for path, body := range expectations {
		status, got := get(t, fmt.Sprintf("http://%s%s", addr, path))
		if status != http.StatusOK {
			t.Errorf("expected status 200 for %s, got %d", path, status)
		}
		if got != body {
			t.Errorf("expected %q from %s, got %q", body, path, got)
		}
	}

	for _, path := range []string{"/metrics", "/healthz"} {
		status, got := get(t, fmt.Sprintf("http://%s%s", addr, path))
		if status != http.StatusOK {
			t.Errorf("expected status 200 for %s, got %d", path, status)
		}
		if got == "" {
			t.Errorf("%s should return non-empty response", path)
		}
	}
}

func TestStartMetricsServer_UnhealthyStorage(t *testing.T) {
	logger := log.WithField("test", "http-unhealthy")

	addr := fmt.Sprintf("127.0.0.1:%d", findFreePort(t))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	healthHandler := healthcheck.NewHandler(version.GetVersion())
	healthHandler.RegisterChecker("storage", healthcheck.NewPingChecker("storage", func(context.Context) error {
		return errors.New("connection refused")
	}))
	startMetricsServer(ctx, addr, logger, healthHandler)
	waitForServer(t, addr)

	if status, _ := get(t, fmt.Sprintf("http://%s/healthz", addr)); status != http.StatusServiceUnavailable {
		t.Errorf("expected 503 from /healthz, got %d", status)
	}
	if status, body := get(t, fmt.Sprintf("http://%s/readyz", addr)); status != http.StatusServiceUnavailable || body != "not ready" {
		t.Errorf("expected 503 not ready from /readyz, got %d %q", status, body)
	}
}

func TestStartMetricsServer_Shutdown(t *testing.T) {
	logger := log.WithField("test", "http-shutdown")

	addr := fmt.Sprintf("127.0.0.1:%d", findFreePort(t))
	ctx, cancel := context.WithCancel(context.Background())

	startMetricsServer(ctx, addr, logger, healthcheck.NewHandler(version.GetVersion()))
	waitForServer(t, addr)

	cancel()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if _, err := http.Get(fmt.Sprintf("http://%s/livez", addr)); err != nil {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Error("server should be stopped after context cancellation")
}

func TestShutdownHTTP_NilServer(_ *testing.T) {
	shutdownHTTP(nil, log.WithField("test", "http-nil"))
}

// findFreePort находит свободный порт для тестов
func findFreePort(t *testing.T) int {
	t.Helper()

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to find free port: %v", err)
	}
	defer listener.Close()

	return listener.Addr().(*net.TCPAddr).Port
}

func waitForServer(t *testing.T, addr string) {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		conn, err := net.DialTimeout("tcp", addr, 100*time.Millisecond)
		if err == nil {
			_ = conn.Close()
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatalf("server at %s did not start", addr)
}

func get(t *testing.T, url string) (int, string) {
	t.Helper()

	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s failed: %v", url, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read %s body: %v", url, err)
	}
	return resp.StatusCode, string(body)
}
